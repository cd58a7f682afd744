package redline

// FilteredView is a token stream with paragraph sentinels removed. This
// is what the diff worker consumes; the sentinel-bearing stream is what
// renderers consume. IndexMap[i] is the position the i-th filtered
// token held in the original stream, so diff results can be projected
// back onto the full view.
type FilteredView struct {
	Tokens   []string
	Metadata []TokenMetadata
	IndexMap []int
}

// FilterSentinels strips every ParagraphBreak sentinel (and its
// metadata entry) from a token stream, preserving relative order.
// Tokens and metadata must be index-aligned on the way in and remain so
// on the way out.
func FilterSentinels(tokens []string, metadata []TokenMetadata) FilteredView {
	out := FilteredView{
		Tokens:   make([]string, 0, len(tokens)),
		Metadata: make([]TokenMetadata, 0, len(tokens)),
		IndexMap: make([]int, 0, len(tokens)),
	}
	for i, t := range tokens {
		if t == ParagraphBreak {
			continue
		}
		out.Tokens = append(out.Tokens, t)
		out.Metadata = append(out.Metadata, metadata[i])
		out.IndexMap = append(out.IndexMap, i)
	}
	return out
}
