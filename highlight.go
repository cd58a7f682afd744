package redline

// MapHighlights re-projects the diff's added/removed flags back onto
// each side's filtered token array. One walk over the diff stream,
// with an independent cursor per side: Removed marks and advances the
// base cursor, Added marks and advances the comparison cursor,
// Unchanged advances both without marking. Cursors are clamped so a
// malformed stream can never index out of bounds.
func MapHighlights(diffs []DiffToken, baseTokens, comparisonTokens []string) (baseView, comparisonView []TaggedToken) {
	baseView = make([]TaggedToken, len(baseTokens))
	for i, t := range baseTokens {
		baseView[i] = TaggedToken{Text: t}
	}
	comparisonView = make([]TaggedToken, len(comparisonTokens))
	for i, t := range comparisonTokens {
		comparisonView[i] = TaggedToken{Text: t}
	}

	bi, ci := 0, 0
	for _, d := range diffs {
		switch d.Type {
		case Removed:
			if bi < len(baseView) {
				baseView[bi].Highlight = true
				bi++
			}
		case Added:
			if ci < len(comparisonView) {
				comparisonView[ci].Highlight = true
				ci++
			}
		case Unchanged:
			if bi < len(baseView) {
				bi++
			}
			if ci < len(comparisonView) {
				ci++
			}
		}
	}
	return baseView, comparisonView
}
