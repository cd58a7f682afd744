package redline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRun builds an unrotated run with identity scale at (x, y), so its
// baseline and box live directly in page space.
func testRun(text string, x, y float64) TextRun {
	return TextRun{
		Text:      text,
		Transform: Matrix{1, 0, 0, 1, x, y},
		Width:     6 * float64(len([]rune(text))),
		Height:    12,
		Font:      FontMetrics{Family: "Helvetica", Ascent: 0.8, Descent: -0.2},
	}
}

func hardEnd(r TextRun) TextRun {
	r.HasHardLineEnd = true
	return r
}

func testPage(runs ...TextRun) Page {
	return Page{Width: 612, Height: 792, Runs: runs}
}

func testDoc(pages ...Page) *Document {
	return &Document{Name: "test", Pages: pages}
}

// wordTokens strips paragraph sentinels.
func wordTokens(e *Extraction) []string {
	var out []string
	for _, t := range e.Tokens {
		if t != ParagraphBreak {
			out = append(out, t)
		}
	}
	return out
}

func TestExtractDocumentTokensAndParagraphs(t *testing.T) {
	doc := testDoc(testPage(
		testRun("The cat sat", 72, 700),
		testRun("on the mat", 150, 700),
		testRun("Second paragraph here", 72, 650),
	))
	ex := ExtractDocument(doc, DefaultExtractorConfig())

	require.Len(t, ex.Metadata, len(ex.Tokens), "tokens and metadata must stay aligned")
	assert.Equal(t, []string{
		"The", "cat", "sat", "on", "the", "mat", ParagraphBreak,
		"Second", "paragraph", "here", ParagraphBreak,
	}, ex.Tokens)

	require.Len(t, ex.Paragraphs, 2)
	assert.Equal(t, Paragraph{Page: 1, Paragraph: 1, Text: "The cat sat on the mat"}, ex.Paragraphs[0])
	assert.Equal(t, Paragraph{Page: 1, Paragraph: 2, Text: "Second paragraph here"}, ex.Paragraphs[1])

	// Words in the second paragraph carry paragraph index 2.
	assert.Equal(t, 1, ex.Metadata[0].Paragraph)
	assert.Equal(t, 2, ex.Metadata[7].Paragraph)
	assert.Equal(t, 1, ex.Metadata[7].Page)

	require.Len(t, ex.PageSizes, 1)
	assert.Equal(t, PageSize{Width: 612, Height: 792}, ex.PageSizes[0])
}

func TestExtractDocumentEmptyPage(t *testing.T) {
	doc := testDoc(Page{Width: 612, Height: 792})
	ex := ExtractDocument(doc, DefaultExtractorConfig())

	assert.Empty(t, ex.Tokens)
	assert.Empty(t, ex.Metadata)
	assert.Empty(t, ex.Paragraphs)
	require.Len(t, ex.PageSizes, 1, "empty page still counted")
}

func TestExtractDocumentIdempotent(t *testing.T) {
	doc := testDoc(
		testPage(testRun("Alpha beta gamma", 72, 700), testRun("delta", 72, 650)),
		testPage(testRun("Epsilon zeta", 72, 700)),
	)
	cfg := DefaultExtractorConfig()

	first := ExtractDocument(doc, cfg)
	second := ExtractDocument(doc, cfg)
	assert.Equal(t, first, second)
}

func TestExtractDocumentHardLineEnd(t *testing.T) {
	doc := testDoc(testPage(
		hardEnd(testRun("First line", 72, 700)),
		testRun("still first page", 150, 700),
	))
	ex := ExtractDocument(doc, DefaultExtractorConfig())

	require.Len(t, ex.Paragraphs, 2, "hard line end forces a break even on the same baseline")
	assert.Equal(t, "First line", ex.Paragraphs[0].Text)
	assert.Equal(t, "still first page", ex.Paragraphs[1].Text)
}

func TestExtractDocumentParagraphHeuristic(t *testing.T) {
	tests := []struct {
		name       string
		second     TextRun
		paragraphs int
	}{
		{
			name:       "small gap keeps paragraph",
			second:     testRun("continued", 72, 686),
			paragraphs: 1,
		},
		{
			name:       "large gap breaks paragraph",
			second:     testRun("next", 72, 650),
			paragraphs: 2,
		},
		{
			name: "large gap with small leftward step is a soft wrap",
			// 0.6 * 12pt = 7.2pt; a 5pt step left stays a wrap.
			second:     testRun("wrapped", 295, 650),
			paragraphs: 1,
		},
		{
			name:       "large gap with return to margin breaks",
			second:     testRun("next", 100, 650),
			paragraphs: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := testDoc(testPage(testRun("lead text", 300, 700), tt.second))
			ex := ExtractDocument(doc, DefaultExtractorConfig())
			assert.Len(t, ex.Paragraphs, tt.paragraphs)
		})
	}
}

func TestExtractDocumentBoundingBoxes(t *testing.T) {
	doc := testDoc(testPage(testRun("left right", 72, 700)))
	ex := ExtractDocument(doc, DefaultExtractorConfig())

	require.Len(t, ex.Tokens, 3) // two words + trailing sentinel
	first, second := ex.Metadata[0].BBox, ex.Metadata[1].BBox
	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Nil(t, ex.Metadata[2].BBox, "sentinels carry no box")

	for _, box := range []*BoundingBox{first, second} {
		assert.GreaterOrEqual(t, box.Left, 0.0)
		assert.GreaterOrEqual(t, box.Top, 0.0)
		assert.LessOrEqual(t, box.Left+box.Width, 1.0)
		assert.LessOrEqual(t, box.Top+box.Height, 1.0)
		assert.Greater(t, box.Width, 0.0)
		assert.Greater(t, box.Height, 0.0)
	}
	assert.Less(t, first.Left, second.Left, "earlier token sits further left")
}

func TestExtractDocumentRotatedRun(t *testing.T) {
	run := testRun("Tilted", 300, 300)
	run.Transform = Matrix{0, 1, -1, 0, 300, 300} // 90 degrees counter-clockwise
	doc := testDoc(testPage(run))
	ex := ExtractDocument(doc, DefaultExtractorConfig())

	require.Len(t, ex.Tokens, 2)
	box := ex.Metadata[0].BBox
	require.NotNil(t, box, "rotated text still yields a box")
	assert.GreaterOrEqual(t, box.Left, 0.0)
	assert.LessOrEqual(t, box.Left+box.Width, 1.0)
}

func TestExtractDocumentMeasuredWidths(t *testing.T) {
	cfg := DefaultExtractorConfig()
	// Make the first half of the run four times as wide as the second.
	cfg.Measure = func(_ FontMetrics, s string) float64 {
		if s < "n" {
			return 4
		}
		return 1
	}
	doc := testDoc(testPage(testRun("aaaa zzzz", 72, 700)))
	ex := ExtractDocument(doc, cfg)

	require.Len(t, ex.Tokens, 3)
	first, second := ex.Metadata[0].BBox, ex.Metadata[1].BBox
	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Greater(t, first.Width, second.Width, "wider glyphs produce a wider box")
}

func TestSegmentRun(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		words []string
	}{
		{"plain words", "hello world", []string{"hello", "world"}},
		{"punctuation splits", "Hello, world!", []string{"Hello", ",", "world", "!"}},
		{"digits join letters", "room 42b", []string{"room", "42b"}},
		{"hyphenated", "well-known", []string{"well", "-", "known"}},
		{"whitespace only", "   \t ", nil},
		{"empty", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, s := range segmentRun(tt.text) {
				got = append(got, s.text)
			}
			assert.Equal(t, tt.words, got)
		})
	}
}

func TestNormalizeToken(t *testing.T) {
	tests := []struct {
		name string
		in   string
		out  string
	}{
		{"plain", "word", "word"},
		{"curly quotes", "‘quoted’", "'quoted'"},
		{"double curly", "“quoted”", `"quoted"`},
		{"en and em dash", "a–b—c", "a-b-c"},
		{"soft hyphen stripped", "hy\u00adphen", "hyphen"},
		{"zero width stripped", "a\u200bb\ufeffc", "abc"},
		{"whitespace collapsed", "  a \t b  ", "a b"},
		{"normalizes away", "\u00ad\u200b", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.out, normalizeToken(tt.in))
		})
	}
}
