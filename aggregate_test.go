package redline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func para(page, paragraph int) TokenMetadata {
	return TokenMetadata{Page: page, Paragraph: paragraph}
}

func metaRun(page, paragraph, n int) []TokenMetadata {
	out := make([]TokenMetadata, n)
	for i := range out {
		out[i] = para(page, paragraph)
	}
	return out
}

func TestAggregateChangesScenario(t *testing.T) {
	diffs := []DiffToken{
		{Unchanged, "The"},
		{Removed, "cat"},
		{Added, "dog"},
		{Unchanged, "sat"},
	}
	changes := AggregateChanges(diffs, metaRun(1, 1, 3), metaRun(1, 1, 3))

	require.Len(t, changes, 1)
	ch := changes[0]
	assert.NotEmpty(t, ch.ID)
	require.NotNil(t, ch.Base)
	require.NotNil(t, ch.Comparison)
	assert.Equal(t, ChangeSide{Text: "cat", Page: 1, Paragraph: 1}, *ch.Base)
	assert.Equal(t, ChangeSide{Text: "dog", Page: 1, Paragraph: 1}, *ch.Comparison)
}

func TestAggregateChangesUnchangedTerminatesRun(t *testing.T) {
	diffs := []DiffToken{
		{Removed, "one"},
		{Unchanged, "shared"},
		{Removed, "two"},
	}
	changes := AggregateChanges(diffs, metaRun(1, 1, 3), metaRun(1, 1, 1))

	require.Len(t, changes, 2, "an unchanged token always splits difference runs")
	assert.Equal(t, "one", changes[0].Base.Text)
	assert.Nil(t, changes[0].Comparison)
	assert.Equal(t, "two", changes[1].Base.Text)
}

func TestAggregateChangesParagraphBoundarySplits(t *testing.T) {
	baseMeta := []TokenMetadata{para(1, 1), para(1, 1), para(2, 2)}
	diffs := []DiffToken{
		{Removed, "ending"},
		{Removed, "words"},
		{Removed, "opening"},
	}
	changes := AggregateChanges(diffs, baseMeta, nil)

	require.Len(t, changes, 2, "a paragraph transition forces a new change")
	assert.Equal(t, ChangeSide{Text: "ending words", Page: 1, Paragraph: 1}, *changes[0].Base)
	assert.Equal(t, ChangeSide{Text: "opening", Page: 2, Paragraph: 2}, *changes[1].Base)
}

func TestAggregateChangesMixedRunGroups(t *testing.T) {
	diffs := []DiffToken{
		{Removed, "old"},
		{Added, "new"},
		{Removed, "text"},
		{Added, "words"},
	}
	changes := AggregateChanges(diffs, metaRun(1, 1, 2), metaRun(1, 1, 2))

	require.Len(t, changes, 1, "adjacent removed/added tokens share one change")
	assert.Equal(t, "old text", changes[0].Base.Text)
	assert.Equal(t, "new words", changes[0].Comparison.Text)
}

func TestAggregateChangesPureSides(t *testing.T) {
	t.Run("pure insertion", func(t *testing.T) {
		diffs := []DiffToken{{Added, "brand"}, {Added, "new"}}
		changes := AggregateChanges(diffs, nil, metaRun(3, 7, 2))

		require.Len(t, changes, 1)
		assert.Nil(t, changes[0].Base)
		assert.Equal(t, ChangeSide{Text: "brand new", Page: 3, Paragraph: 7}, *changes[0].Comparison)
	})
	t.Run("pure deletion", func(t *testing.T) {
		diffs := []DiffToken{{Removed, "gone"}}
		changes := AggregateChanges(diffs, metaRun(2, 4, 1), nil)

		require.Len(t, changes, 1)
		assert.Nil(t, changes[0].Comparison)
		assert.Equal(t, ChangeSide{Text: "gone", Page: 2, Paragraph: 4}, *changes[0].Base)
	})
}

func TestAggregateChangesNoSharedTokens(t *testing.T) {
	// Entirely unrelated documents: one change per paragraph
	// transition, never more.
	baseMeta := append(metaRun(1, 1, 2), metaRun(1, 2, 2)...)
	diffs := []DiffToken{
		{Removed, "w1"}, {Removed, "w2"}, {Removed, "w3"}, {Removed, "w4"},
		{Added, "v1"}, {Added, "v2"},
	}
	changes := AggregateChanges(diffs, baseMeta, metaRun(1, 1, 2))

	require.Len(t, changes, 2)
	assert.Equal(t, "w1 w2", changes[0].Base.Text)
	assert.Equal(t, "w3 w4", changes[1].Base.Text)
	assert.Equal(t, "v1 v2", changes[1].Comparison.Text)
}

func TestAggregateChangesEmptyStream(t *testing.T) {
	assert.Empty(t, AggregateChanges(nil, nil, nil))
}
