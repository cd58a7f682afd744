package redline

import (
	"math"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// ExtractorConfig tunes the token extractor. The paragraph-break factors
// are empirical; treat them as starting points and validate against
// representative documents rather than fixed law.
type ExtractorConfig struct {
	// ParagraphGapFactor scales the larger of two adjacent runs'
	// effective heights; a vertical baseline gap beyond that is a
	// paragraph-break candidate.
	ParagraphGapFactor float64

	// SoftWrapFactor scales the same height; a leftward shift smaller
	// than that is treated as a soft line wrap, not a break.
	SoftWrapFactor float64

	// Horizontal/vertical box padding as fractions of the token box,
	// with absolute floors in normalized page units. Keeps adjacent
	// glyphs from clipping at box edges.
	PadXFrac float64
	PadYFrac float64
	MinPadX  float64
	MinPadY  float64

	// FallbackCharWidth is the per-character advance, as a fraction of
	// the run's em height, used when measurement is unavailable or
	// returns a non-finite value.
	FallbackCharWidth float64

	// Measure supplies string advance widths; nil forces the fallback.
	Measure MeasureFunc
}

// DefaultExtractorConfig returns the tuning used in production.
func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		ParagraphGapFactor: 1.8,
		SoftWrapFactor:     0.6,
		PadXFrac:           0.12,
		PadYFrac:           0.18,
		MinPadX:            0.002,
		MinPadY:            0.002,
		FallbackCharWidth:  0.5,
	}
}

// Extraction is one document's extracted token stream with provenance.
// Tokens and Metadata are index-aligned; Tokens includes ParagraphBreak
// sentinels.
type Extraction struct {
	Tokens     []string
	Metadata   []TokenMetadata
	PageSizes  []PageSize
	Paragraphs []Paragraph
}

// WordCount returns the number of word tokens, excluding sentinels.
func (e *Extraction) WordCount() int {
	n := 0
	for _, t := range e.Tokens {
		if t != ParagraphBreak {
			n++
		}
	}
	return n
}

// ExtractDocument walks a document's pages in order and produces its
// token stream. A page with zero runs contributes no tokens but is
// still counted in PageSizes. Extraction is deterministic: the same
// input always yields the same output.
func ExtractDocument(doc *Document, cfg ExtractorConfig) *Extraction {
	ex := &extractor{cfg: cfg, out: &Extraction{}, paragraph: 1}
	for i := range doc.Pages {
		ex.extractPage(i+1, &doc.Pages[i])
	}
	return ex.out
}

// extractor holds the walk state for one document.
type extractor struct {
	cfg ExtractorConfig
	out *Extraction

	page      int
	pageSize  PageSize
	paragraph int

	paraBuf       strings.Builder
	wordsSinceBrk int

	havePrev     bool
	prevBaseX    float64
	prevBaseY    float64
	prevHeight   float64
	pendingBreak bool
}

func (ex *extractor) extractPage(pageNum int, page *Page) {
	ex.page = pageNum
	ex.pageSize = PageSize{Width: page.Width, Height: page.Height}
	ex.out.PageSizes = append(ex.out.PageSizes, ex.pageSize)

	for i := range page.Runs {
		ex.extractRun(&page.Runs[i])
	}

	// Paragraphs never span pages.
	ex.flushParagraph()
	ex.havePrev = false
	ex.pendingBreak = false
}

func (ex *extractor) extractRun(run *TextRun) {
	baseX, baseY := run.Transform.Apply(0, 0)
	height := effectiveHeight(run)

	if ex.pendingBreak || ex.isGeometricBreak(baseX, baseY, height) {
		ex.flushParagraph()
	}
	ex.pendingBreak = run.HasHardLineEnd

	ex.havePrev = true
	ex.prevBaseX = baseX
	ex.prevBaseY = baseY
	ex.prevHeight = height

	words := segmentRun(run.Text)
	if len(words) == 0 {
		return
	}
	prefix := ex.advancePrefix(run)
	total := prefix[len(prefix)-1]

	for _, w := range words {
		text := normalizeToken(w.text)
		if text == "" {
			continue
		}
		var frac0, frac1 float64
		if total > 0 {
			frac0 = prefix[w.start] / total
			frac1 = prefix[w.end] / total
		}
		ex.out.Tokens = append(ex.out.Tokens, text)
		ex.out.Metadata = append(ex.out.Metadata, TokenMetadata{
			Page:      ex.page,
			Paragraph: ex.paragraph,
			BBox:      ex.tokenBox(run, frac0, frac1),
		})
		if ex.paraBuf.Len() > 0 {
			ex.paraBuf.WriteByte(' ')
		}
		ex.paraBuf.WriteString(text)
		ex.wordsSinceBrk++
	}
}

// isGeometricBreak applies the baseline-gap heuristic: a vertical jump
// beyond ParagraphGapFactor times the taller run's height starts a new
// paragraph, unless the horizontal position stepped left by less than
// SoftWrapFactor times that height, which reads as a soft wrap.
func (ex *extractor) isGeometricBreak(baseX, baseY, height float64) bool {
	if !ex.havePrev {
		return false
	}
	maxH := math.Max(height, ex.prevHeight)
	if maxH <= 0 {
		return false
	}
	gap := math.Abs(baseY - ex.prevBaseY)
	if gap <= ex.cfg.ParagraphGapFactor*maxH {
		return false
	}
	drop := ex.prevBaseX - baseX
	if drop > 0 && drop < ex.cfg.SoftWrapFactor*maxH {
		return false
	}
	return true
}

// flushParagraph closes the current paragraph: records its text, emits
// a boundary sentinel, and advances the counter. A no-op when nothing
// accumulated since the last boundary, so empty pages and consecutive
// break signals emit nothing.
func (ex *extractor) flushParagraph() {
	if ex.wordsSinceBrk == 0 {
		ex.paraBuf.Reset()
		return
	}
	text := strings.TrimSpace(ex.paraBuf.String())
	ex.paraBuf.Reset()
	ex.wordsSinceBrk = 0
	if text != "" {
		ex.out.Paragraphs = append(ex.out.Paragraphs, Paragraph{
			Page:      ex.page,
			Paragraph: ex.paragraph,
			Text:      text,
		})
	}
	ex.out.Tokens = append(ex.out.Tokens, ParagraphBreak)
	ex.out.Metadata = append(ex.out.Metadata, TokenMetadata{
		Page:      ex.page,
		Paragraph: ex.paragraph,
	})
	ex.paragraph++
}

// advancePrefix builds a prefix-sum array over the run's characters so a
// token spanning runes [i, j) covers prefix[j]-prefix[i] of the run's
// measured width. Falls back to a fixed per-character advance when no
// measurer is available or a measurement is non-finite.
func (ex *extractor) advancePrefix(run *TextRun) []float64 {
	runes := []rune(run.Text)
	prefix := make([]float64, len(runes)+1)
	fallback := ex.cfg.FallbackCharWidth * run.Height
	if fallback <= 0 || math.IsNaN(fallback) || math.IsInf(fallback, 0) {
		fallback = 1
	}
	for i, r := range runes {
		w := fallback
		if ex.cfg.Measure != nil {
			m := ex.cfg.Measure(run.Font, string(r))
			if m > 0 && !math.IsNaN(m) && !math.IsInf(m, 0) {
				w = m
			}
		}
		prefix[i+1] = prefix[i] + w
	}
	return prefix
}

// tokenBox maps a token's fractional horizontal span through the run
// transform, normalizes by the page dimensions, pads, and clamps. The
// baseline plus ascent/descent vectors make this correct for rotated
// and skewed text, not just axis-aligned runs.
func (ex *extractor) tokenBox(run *TextRun, frac0, frac1 float64) *BoundingBox {
	if ex.pageSize.Width <= 0 || ex.pageSize.Height <= 0 {
		return nil
	}
	x0 := frac0 * run.Width
	x1 := frac1 * run.Width
	yTop := run.Font.Ascent * run.Height
	yBot := run.Font.Descent * run.Height
	if yTop <= yBot {
		yTop, yBot = run.Height, 0
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range [4][2]float64{{x0, yBot}, {x1, yBot}, {x0, yTop}, {x1, yTop}} {
		px, py := run.Transform.Apply(c[0], c[1])
		minX = math.Min(minX, px)
		maxX = math.Max(maxX, px)
		minY = math.Min(minY, py)
		maxY = math.Max(maxY, py)
	}

	// Provider space is y-up; normalized boxes are top-left origin.
	box := BoundingBox{
		Left:   minX / ex.pageSize.Width,
		Top:    1 - maxY/ex.pageSize.Height,
		Width:  (maxX - minX) / ex.pageSize.Width,
		Height: (maxY - minY) / ex.pageSize.Height,
	}

	padX := math.Max(box.Width*ex.cfg.PadXFrac, ex.cfg.MinPadX)
	padY := math.Max(box.Height*ex.cfg.PadYFrac, ex.cfg.MinPadY)
	box.Left -= padX / 2
	box.Top -= padY / 2
	box.Width += padX
	box.Height += padY

	box.Left = clamp01(box.Left)
	box.Top = clamp01(box.Top)
	box.Width = math.Min(box.Width, 1-box.Left)
	box.Height = math.Min(box.Height, 1-box.Top)
	if box.Width <= 0 || box.Height <= 0 {
		return nil
	}
	return &box
}

// effectiveHeight is the run's height after the transform's vertical
// scale, used by the paragraph-gap heuristic.
func effectiveHeight(run *TextRun) float64 {
	scale := math.Hypot(run.Transform[2], run.Transform[3])
	if scale == 0 {
		scale = 1
	}
	return scale * run.Height
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// wordSpan is a segmented token with its rune extent within the run.
type wordSpan struct {
	text  string
	start int // rune index, inclusive
	end   int // rune index, exclusive
}

// segmentRun splits a run's raw text into word-like tokens: a maximal
// run of letters and digits, or a single non-space symbol, is one
// token; whitespace only separates.
func segmentRun(text string) []wordSpan {
	var spans []wordSpan
	var cur strings.Builder
	start := -1

	flush := func(end int) {
		if cur.Len() > 0 {
			spans = append(spans, wordSpan{text: cur.String(), start: start, end: end})
			cur.Reset()
			start = -1
		}
	}

	i := 0
	for _, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if start == -1 {
				start = i
			}
			cur.WriteRune(r)
		case unicode.IsSpace(r):
			flush(i)
		default:
			flush(i)
			spans = append(spans, wordSpan{text: string(r), start: i, end: i + 1})
		}
		i++
	}
	flush(i)
	return spans
}

// tokenReplacer maps typographic variants to their ASCII equivalents
// and strips soft hyphens and zero-width marks.
var tokenReplacer = strings.NewReplacer(
	"\u00ad", "", // soft hyphen
	"\u200b", "", // zero-width space
	"\u200c", "", // zero-width non-joiner
	"\u200d", "", // zero-width joiner
	"\ufeff", "", // zero-width no-break space
	"\u2018", "'", "\u2019", "'", "\u201a", "'",
	"\u201c", `"`, "\u201d", `"`, "\u201e", `"`,
	"\u2010", "-", "\u2011", "-", "\u2012", "-",
	"\u2013", "-", "\u2014", "-", "\u2212", "-",
)

// normalizeToken canonicalizes one token: Unicode NFC, typographic
// cleanup, whitespace collapse, trim. Returns "" for tokens that
// normalize away entirely; those are dropped, not emitted.
func normalizeToken(s string) string {
	s = norm.NFC.String(s)
	s = tokenReplacer.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
