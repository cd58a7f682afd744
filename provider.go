package redline

import (
	"encoding/json"
	"fmt"
	"io"
)

// Matrix is the affine transform of a glyph run, in the usual
// (a, b, c, d, e, f) order: a point (x, y) in run space maps to
// (a*x + c*y + e, b*x + d*y + f) in page space. Page space is y-up.
type Matrix [6]float64

// Apply maps a run-space point to page space.
func (m Matrix) Apply(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// FontMetrics describes the font of a glyph run. Ascent and Descent are
// fractions of the em square (ascent positive, descent typically
// negative), as reported by the rendering provider.
type FontMetrics struct {
	Family  string  `json:"family"`
	Ascent  float64 `json:"ascent"`
	Descent float64 `json:"descent"`
}

// TextRun is one contiguous span of text sharing a single transform and
// font, as supplied by the rendering/text-layout provider.
type TextRun struct {
	Text           string      `json:"text"`
	Transform      Matrix      `json:"transform"`
	Width          float64     `json:"width"`
	Height         float64     `json:"height"`
	HasHardLineEnd bool        `json:"hasHardLineEnd"`
	Font           FontMetrics `json:"font"`
}

// Page is one rendered page: its dimensions in the same coordinate
// space as the run transforms, plus its runs in document order.
type Page struct {
	Width  float64   `json:"width"`
	Height float64   `json:"height"`
	Runs   []TextRun `json:"runs"`
}

// Document is one side of a comparison as delivered by the provider.
type Document struct {
	Name  string `json:"name"`
	Pages []Page `json:"pages"`
}

// MeasureFunc measures the advance width of text in the given font, in
// run-space units. Providers back this with their text engine; when nil
// (or when a measurement comes back non-finite) the extractor falls back
// to a fixed per-character width.
type MeasureFunc func(font FontMetrics, text string) float64

// LoadDocument decodes a layout dump previously captured from a
// provider. The CLI and tests feed the engine through this codec.
func LoadDocument(r io.Reader) (*Document, error) {
	var doc Document
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	return &doc, nil
}

// WriteDocument encodes a document in the format LoadDocument reads.
func WriteDocument(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}
	return nil
}
