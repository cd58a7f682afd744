package redline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapHighlights(t *testing.T) {
	diffs := []DiffToken{
		{Unchanged, "The"},
		{Removed, "cat"},
		{Added, "dog"},
		{Unchanged, "sat"},
	}
	baseView, cmpView := MapHighlights(diffs,
		[]string{"The", "cat", "sat"},
		[]string{"The", "dog", "sat"},
	)

	assert.Equal(t, []TaggedToken{
		{Text: "The"},
		{Text: "cat", Highlight: true},
		{Text: "sat"},
	}, baseView)
	assert.Equal(t, []TaggedToken{
		{Text: "The"},
		{Text: "dog", Highlight: true},
		{Text: "sat"},
	}, cmpView)
}

func TestMapHighlightsConservation(t *testing.T) {
	// Highlight counts must equal the Removed/Added counts in the
	// stream, clamped to the array lengths.
	base := []string{"a", "b", "c", "d"}
	comparison := []string{"a", "x", "c", "y", "z"}
	diffs := []DiffToken{
		{Unchanged, "a"},
		{Removed, "b"},
		{Added, "x"},
		{Unchanged, "c"},
		{Removed, "d"},
		{Added, "y"},
		{Added, "z"},
	}

	baseView, cmpView := MapHighlights(diffs, base, comparison)

	removed, added := 0, 0
	for _, d := range diffs {
		switch d.Type {
		case Removed:
			removed++
		case Added:
			added++
		}
	}
	assert.Equal(t, removed, countHighlights(baseView))
	assert.Equal(t, added, countHighlights(cmpView))
}

func TestMapHighlightsClampsMalformedStream(t *testing.T) {
	// More Removed entries than base tokens must not panic or mark
	// beyond the array.
	diffs := []DiffToken{
		{Removed, "a"},
		{Removed, "b"},
		{Removed, "c"},
	}
	baseView, cmpView := MapHighlights(diffs, []string{"a"}, nil)

	require.Len(t, baseView, 1)
	assert.True(t, baseView[0].Highlight)
	assert.Empty(t, cmpView)
}

func countHighlights(view []TaggedToken) int {
	n := 0
	for _, tok := range view {
		if tok.Highlight {
			n++
		}
	}
	return n
}
