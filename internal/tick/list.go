package tick

import (
	"context"
	"fmt"
	"sort"

	"github.com/holiman/uint256"
)

// ListIndex answers tick queries from a dense sorted slice. The bitmap word
// for a query is synthesized on the fly from the slice via binary search.
type ListIndex struct {
	spacing int
	ticks   []Tick
}

var _ Provider = (*ListIndex)(nil)

// NewListIndex validates the set eagerly and keeps its own copy of the slice.
func NewListIndex(tickSpacing int, ticks []Tick) (*ListIndex, error) {
	if err := ValidateTickSet(tickSpacing, ticks); err != nil {
		return nil, err
	}
	owned := make([]Tick, len(ticks))
	copy(owned, ticks)
	return &ListIndex{spacing: tickSpacing, ticks: owned}, nil
}

func (l *ListIndex) GetTick(_ context.Context, index int) (Tick, error) {
	i := sort.Search(len(l.ticks), func(i int) bool { return l.ticks[i].Index >= index })
	if i < len(l.ticks) && l.ticks[i].Index == index {
		return l.ticks[i], nil
	}
	return Tick{}, fmt.Errorf("tick %d: %w", index, ErrNoTickData)
}

func (l *ListIndex) NextInitializedTickWithinOneWord(_ context.Context, current int, lte bool, tickSpacing int) (int, bool, error) {
	if tickSpacing != l.spacing {
		return 0, false, fmt.Errorf("%w: index built with %d, queried with %d", ErrInvalidTickSpacing, l.spacing, tickSpacing)
	}
	compressed := Compress(current, l.spacing)
	if !lte {
		compressed++
	}
	wordPos, bitPos := position(compressed)
	return scanWord(l.wordAt(wordPos), compressed, bitPos, lte, l.spacing)
}

// wordAt builds the 256-bit word covering compressed ticks
// [wordPos<<8, wordPos<<8+255] from the slice.
func (l *ListIndex) wordAt(wordPos int16) *uint256.Int {
	word := new(uint256.Int)
	lower := int(wordPos) << 8
	first := lower * l.spacing
	last := (lower + 255) * l.spacing
	i := sort.Search(len(l.ticks), func(i int) bool { return l.ticks[i].Index >= first })
	for ; i < len(l.ticks) && l.ticks[i].Index <= last; i++ {
		bit := uint((l.ticks[i].Index / l.spacing) & 255)
		word.Or(word, new(uint256.Int).Lsh(one, bit))
	}
	return word
}
