package tick

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"
)

// BitmapIndex answers tick queries from a sparse word map precomputed once at
// construction, the shape the on-chain bitmap has.
type BitmapIndex struct {
	spacing int
	ticks   map[int]Tick
	words   map[int16]*uint256.Int
}

var _ Provider = (*BitmapIndex)(nil)

// NewBitmapIndex validates the set eagerly and materializes the word map.
func NewBitmapIndex(tickSpacing int, ticks []Tick) (*BitmapIndex, error) {
	if err := ValidateTickSet(tickSpacing, ticks); err != nil {
		return nil, err
	}
	idx := &BitmapIndex{
		spacing: tickSpacing,
		ticks:   make(map[int]Tick, len(ticks)),
		words:   make(map[int16]*uint256.Int),
	}
	for _, t := range ticks {
		idx.ticks[t.Index] = t
		wordPos, bitPos := position(t.Index / tickSpacing)
		word, ok := idx.words[wordPos]
		if !ok {
			word = new(uint256.Int)
			idx.words[wordPos] = word
		}
		word.Or(word, new(uint256.Int).Lsh(one, uint(bitPos)))
	}
	return idx, nil
}

func (b *BitmapIndex) GetTick(_ context.Context, index int) (Tick, error) {
	if t, ok := b.ticks[index]; ok {
		return t, nil
	}
	return Tick{}, fmt.Errorf("tick %d: %w", index, ErrNoTickData)
}

func (b *BitmapIndex) NextInitializedTickWithinOneWord(_ context.Context, current int, lte bool, tickSpacing int) (int, bool, error) {
	if tickSpacing != b.spacing {
		return 0, false, fmt.Errorf("%w: index built with %d, queried with %d", ErrInvalidTickSpacing, b.spacing, tickSpacing)
	}
	compressed := Compress(current, b.spacing)
	if !lte {
		compressed++
	}
	wordPos, bitPos := position(compressed)
	word, ok := b.words[wordPos]
	if !ok {
		word = new(uint256.Int)
	}
	return scanWord(word, compressed, bitPos, lte, b.spacing)
}
