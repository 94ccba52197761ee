package tick

import (
	"context"
	"errors"
	"fmt"

	"github.com/holiman/uint256"
)

// WordSource supplies raw bitmap words and tick records for an index whose
// data lives elsewhere, e.g. behind RPC. Words use the on-chain layout: bit i
// of the word at wordPos marks compressed tick wordPos*256+i as initialized.
type WordSource interface {
	GetTick(ctx context.Context, index int) (Tick, error)
	BitmapWord(ctx context.Context, wordPos int16) (*uint256.Int, error)
}

// WordIndex adapts a WordSource into a Provider. It runs the same word scan
// as the in-memory realizations, so any source serving the same tick set
// answers identically to them.
type WordIndex struct {
	spacing int
	src     WordSource
}

var _ Provider = (*WordIndex)(nil)

// NewWordIndex wraps src. Remote data cannot be validated eagerly; set-level
// checks happen when a snapshot materializes the ticks.
func NewWordIndex(tickSpacing int, src WordSource) (*WordIndex, error) {
	if tickSpacing <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTickSpacing, tickSpacing)
	}
	if src == nil {
		return nil, errors.New("nil word source")
	}
	return &WordIndex{spacing: tickSpacing, src: src}, nil
}

func (w *WordIndex) GetTick(ctx context.Context, index int) (Tick, error) {
	return w.src.GetTick(ctx, index)
}

func (w *WordIndex) NextInitializedTickWithinOneWord(ctx context.Context, current int, lte bool, tickSpacing int) (int, bool, error) {
	if tickSpacing != w.spacing {
		return 0, false, fmt.Errorf("%w: index built with %d, queried with %d", ErrInvalidTickSpacing, w.spacing, tickSpacing)
	}
	compressed := Compress(current, w.spacing)
	if !lte {
		compressed++
	}
	wordPos, bitPos := position(compressed)
	word, err := w.src.BitmapWord(ctx, wordPos)
	if err != nil {
		return 0, false, fmt.Errorf("word %d: %w", wordPos, err)
	}
	return scanWord(word, compressed, bitPos, lte, w.spacing)
}

// MapSource serves words from ticks materialized in memory. Unlike the full
// index realizations it accepts an unbalanced set: a windowed slice of a
// larger ladder cannot satisfy the zero-sum rule, so only the per-tick
// preconditions are enforced and set-level consistency is the caller's duty.
type MapSource struct {
	ticks map[int]Tick
	words map[int16]*uint256.Int
}

var _ WordSource = (*MapSource)(nil)

// NewMapSource validates each tick and builds the word map.
func NewMapSource(tickSpacing int, ticks []Tick) (*MapSource, error) {
	if err := validateTicks(tickSpacing, ticks); err != nil {
		return nil, err
	}
	src := &MapSource{
		ticks: make(map[int]Tick, len(ticks)),
		words: make(map[int16]*uint256.Int),
	}
	for _, t := range ticks {
		src.ticks[t.Index] = t
		wordPos, bitPos := position(t.Index / tickSpacing)
		word, ok := src.words[wordPos]
		if !ok {
			word = new(uint256.Int)
			src.words[wordPos] = word
		}
		word.Or(word, new(uint256.Int).Lsh(one, uint(bitPos)))
	}
	return src, nil
}

func (m *MapSource) GetTick(_ context.Context, index int) (Tick, error) {
	if t, ok := m.ticks[index]; ok {
		return t, nil
	}
	return Tick{}, fmt.Errorf("tick %d: %w", index, ErrNoTickData)
}

func (m *MapSource) BitmapWord(_ context.Context, wordPos int16) (*uint256.Int, error) {
	if w, ok := m.words[wordPos]; ok {
		return w, nil
	}
	return new(uint256.Int), nil
}
