package redline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterSentinels(t *testing.T) {
	tokens := []string{"one", ParagraphBreak, "two", "three", ParagraphBreak}
	metadata := []TokenMetadata{
		{Page: 1, Paragraph: 1},
		{Page: 1, Paragraph: 1},
		{Page: 1, Paragraph: 2},
		{Page: 1, Paragraph: 2},
		{Page: 1, Paragraph: 2},
	}

	view := FilterSentinels(tokens, metadata)

	assert.Equal(t, []string{"one", "two", "three"}, view.Tokens)
	require.Len(t, view.Metadata, len(view.Tokens), "filter must keep tokens and metadata aligned")
	assert.Equal(t, []int{0, 2, 3}, view.IndexMap)
	assert.Equal(t, 2, view.Metadata[1].Paragraph)
}

func TestFilterSentinelsRoundTripsThroughExtraction(t *testing.T) {
	doc := testDoc(testPage(
		testRun("Alpha beta", 72, 700),
		testRun("Gamma", 72, 650),
	))
	ex := ExtractDocument(doc, DefaultExtractorConfig())
	view := FilterSentinels(ex.Tokens, ex.Metadata)

	assert.Equal(t, wordTokens(ex), view.Tokens)
	for i, orig := range view.IndexMap {
		assert.Equal(t, ex.Tokens[orig], view.Tokens[i], "index map points at the original position")
	}
}

func TestFilterSentinelsEmpty(t *testing.T) {
	view := FilterSentinels(nil, nil)
	assert.Empty(t, view.Tokens)
	assert.Empty(t, view.Metadata)
	assert.Empty(t, view.IndexMap)
}
