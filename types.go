// Package redline compares two laid-out documents word by word.
//
// The engine consumes per-page glyph runs from a rendering provider,
// extracts word tokens with page/paragraph/bounding-box provenance,
// computes a token-level diff between the two sides, and regroups the
// flat diff into paragraph-coherent change records. It decides what
// changed and where; how the differences are displayed is the caller's
// business.
//
// Diffing is backed by github.com/dacharyc/diffx.
package redline

import "time"

// ParagraphBreak is the reserved sentinel token emitted between
// paragraphs. It contains a NUL byte so it can never collide with a
// normalized word token.
const ParagraphBreak = "\x00¶"

// Op identifies how a token participates in the diff.
type Op int

const (
	// Unchanged means the token appears in both documents.
	Unchanged Op = iota
	// Added means the token appears only in the comparison document.
	Added
	// Removed means the token appears only in the base document.
	Removed
)

// String returns a human-readable representation of the op.
func (o Op) String() string {
	switch o {
	case Unchanged:
		return "Unchanged"
	case Added:
		return "Added"
	case Removed:
		return "Removed"
	default:
		return "Unknown"
	}
}

// DiffToken is a single token tagged by the diff stage.
//
// Reading Removed and Unchanged tokens in order reconstructs the base
// document's filtered token stream exactly; reading Added and Unchanged
// tokens reconstructs the comparison stream. Every stage downstream of
// the worker relies on this invariant.
type DiffToken struct {
	Type Op
	Text string
}

// BoundingBox locates a token on its page in normalized page-fraction
// coordinates: all four fields are in [0,1], with the origin at the
// page's top-left corner.
type BoundingBox struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// TokenMetadata carries the provenance of one token. Metadata arrays are
// always index-aligned with their token arrays: len(tokens) ==
// len(metadata) at every stage.
type TokenMetadata struct {
	Page      int          `json:"page"`      // 1-based
	Paragraph int          `json:"paragraph"` // 1-based, increments at each break
	BBox      *BoundingBox `json:"bbox"`      // nil for paragraph sentinels and degenerate boxes
}

// Paragraph is the concatenated plain text of one paragraph, used for
// export and summaries, never for diffing.
type Paragraph struct {
	Page      int    `json:"page"`
	Paragraph int    `json:"paragraph"`
	Text      string `json:"text"`
}

// PageSize records one page's dimensions in the provider's coordinate
// space.
type PageSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ChangeSide is one document's half of a Change.
type ChangeSide struct {
	Text      string `json:"text"`
	Page      int    `json:"page"`
	Paragraph int    `json:"paragraph"`
}

// Change is one contiguous run of difference, anchored to at most one
// paragraph per side. Base is nil for pure insertions, Comparison is nil
// for pure deletions.
type Change struct {
	ID         string      `json:"id"`
	Base       *ChangeSide `json:"base,omitempty"`
	Comparison *ChangeSide `json:"comparison,omitempty"`
}

// TaggedToken is one filtered token plus whether it participates in any
// difference. The slice of these per side is the render-ready view.
type TaggedToken struct {
	Text      string
	Highlight bool
}

// Totals aggregates the diff outcome of a run.
type Totals struct {
	Added       int       `json:"added"`
	Removed     int       `json:"removed"`
	Unchanged   int       `json:"unchanged"`
	DurationMS  int64     `json:"durationMs"`
	ProcessedAt time.Time `json:"processedAt"`
}

// DiffStats is the worker's terminal success payload.
type DiffStats struct {
	BaseWordCount       int
	ComparisonWordCount int
	Duration            time.Duration
}

// ComparisonResult is the immutable outcome of one successful run. A new
// run fully replaces it; the orchestrator owns its lifetime.
type ComparisonResult struct {
	BaseWordCount       int
	ComparisonWordCount int

	BasePageSizes       []PageSize
	ComparisonPageSizes []PageSize

	Totals Totals
	Diffs  []DiffToken

	// Filtered-view metadata, index-aligned with the views below.
	BaseMetadata       []TokenMetadata
	ComparisonMetadata []TokenMetadata

	BaseView       []TaggedToken
	ComparisonView []TaggedToken

	Changes []Change

	BaseParagraphs       []Paragraph
	ComparisonParagraphs []Paragraph

	// Non-fatal anomalies collected during the run.
	Warnings []string
}

// HasChanges reports whether the result contains any added or removed
// tokens.
func (r *ComparisonResult) HasChanges() bool {
	return r.Totals.Added > 0 || r.Totals.Removed > 0
}
