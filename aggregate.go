package redline

import (
	"strings"

	"github.com/google/uuid"
)

// AggregateChanges regroups the flat diff stream into paragraph-
// coherent Change records. metadata slices are the filtered-view
// metadata for each side, index-aligned with the token streams the
// diff was computed from.
//
// One left-to-right pass: at most one Change is open at a time, and a
// token whose paragraph differs from the open Change's anchor forces a
// flush. An Unchanged token always terminates a difference run.
func AggregateChanges(diffs []DiffToken, baseMeta, comparisonMeta []TokenMetadata) []Change {
	agg := aggregator{baseMeta: baseMeta, comparisonMeta: comparisonMeta}
	for _, d := range diffs {
		switch d.Type {
		case Removed:
			agg.consumeRemoved(d.Text)
		case Added:
			agg.consumeAdded(d.Text)
		case Unchanged:
			agg.consumeUnchanged()
		}
	}
	agg.flush()
	return agg.changes
}

// aggregator carries the single-pass state: per-side cursors into the
// metadata arrays and the currently open change, if any.
type aggregator struct {
	baseMeta       []TokenMetadata
	comparisonMeta []TokenMetadata
	baseCursor     int
	cmpCursor      int

	open      bool
	baseWords []string
	basePage  int
	basePara  int // 0 = unknown
	cmpWords  []string
	cmpPage   int
	cmpPara   int // 0 = unknown

	changes []Change
}

func (a *aggregator) consumeRemoved(text string) {
	meta := metaAt(a.baseMeta, a.baseCursor)
	a.baseCursor++

	if a.open && a.basePara != 0 && meta.Paragraph != a.basePara && len(a.baseWords) > 0 {
		a.flush()
	}
	a.open = true
	a.baseWords = append(a.baseWords, text)
	if a.basePara == 0 {
		a.basePage = meta.Page
		a.basePara = meta.Paragraph
	}
}

func (a *aggregator) consumeAdded(text string) {
	meta := metaAt(a.comparisonMeta, a.cmpCursor)
	a.cmpCursor++

	if a.open && a.cmpPara != 0 && meta.Paragraph != a.cmpPara && len(a.cmpWords) > 0 {
		a.flush()
	}
	a.open = true
	a.cmpWords = append(a.cmpWords, text)
	if a.cmpPara == 0 {
		a.cmpPage = meta.Page
		a.cmpPara = meta.Paragraph
	}
}

func (a *aggregator) consumeUnchanged() {
	a.flush()
	a.baseCursor++
	a.cmpCursor++
}

// flush closes the open change, dropping it if both sides trimmed to
// nothing, and resets the paragraph trackers to unknown.
func (a *aggregator) flush() {
	if a.open {
		baseText := strings.TrimSpace(strings.Join(a.baseWords, " "))
		cmpText := strings.TrimSpace(strings.Join(a.cmpWords, " "))
		if baseText != "" || cmpText != "" {
			ch := Change{ID: uuid.NewString()}
			if baseText != "" {
				ch.Base = &ChangeSide{Text: baseText, Page: a.basePage, Paragraph: a.basePara}
			}
			if cmpText != "" {
				ch.Comparison = &ChangeSide{Text: cmpText, Page: a.cmpPage, Paragraph: a.cmpPara}
			}
			a.changes = append(a.changes, ch)
		}
	}
	a.open = false
	a.baseWords = nil
	a.cmpWords = nil
	a.basePage, a.basePara = 0, 0
	a.cmpPage, a.cmpPara = 0, 0
}

// metaAt clamps the cursor to the final entry so a stream longer than
// its metadata cannot index out of bounds.
func metaAt(meta []TokenMetadata, i int) TokenMetadata {
	if len(meta) == 0 {
		return TokenMetadata{}
	}
	if i >= len(meta) {
		i = len(meta) - 1
	}
	return meta[i]
}
