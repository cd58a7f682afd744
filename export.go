package redline

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// SummarySide describes one document in a summary artifact.
type SummarySide struct {
	Name      string `json:"name"`
	WordCount int    `json:"wordCount"`
	Pages     int    `json:"pages"`
}

// Summary is the exportable artifact of a comparison: document names
// and word counts, aggregate totals, and the change list with text and
// page/paragraph anchors only. It round-trips through WriteSummary and
// ReadSummary.
type Summary struct {
	ID          string      `json:"id"`
	GeneratedAt time.Time   `json:"generatedAt"`
	Base        SummarySide `json:"base"`
	Comparison  SummarySide `json:"comparison"`
	Totals      Totals      `json:"totals"`
	Changes     []Change    `json:"changes"`
}

// BuildSummary derives the artifact from a finished comparison.
func BuildSummary(baseName, comparisonName string, result *ComparisonResult) *Summary {
	return &Summary{
		ID:          uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Base: SummarySide{
			Name:      baseName,
			WordCount: result.BaseWordCount,
			Pages:     len(result.BasePageSizes),
		},
		Comparison: SummarySide{
			Name:      comparisonName,
			WordCount: result.ComparisonWordCount,
			Pages:     len(result.ComparisonPageSizes),
		},
		Totals:  result.Totals,
		Changes: result.Changes,
	}
}

// WriteSummary encodes the artifact as indented JSON.
func WriteSummary(w io.Writer, s *Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encoding summary: %w", err)
	}
	return nil
}

// ReadSummary decodes an artifact previously written by WriteSummary.
func ReadSummary(r io.Reader) (*Summary, error) {
	var s Summary
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("decoding summary: %w", err)
	}
	return &s, nil
}
