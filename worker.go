package redline

import (
	"context"
	"strings"
	"time"

	"github.com/dacharyc/diffx"
)

// ErrorCode is the machine-readable reason a diff run failed.
type ErrorCode string

const (
	// CodeEmptyText means one or both sides produced no tokens.
	CodeEmptyText ErrorCode = "EMPTY_TEXT"
	// CodeTooLarge means the combined input exceeds MaxWordThreshold.
	CodeTooLarge ErrorCode = "TOO_LARGE"
	// CodeTooDissimilar means the worker stopped early because the
	// documents look unrelated (only with Settings.StopOnDissimilar).
	CodeTooDissimilar ErrorCode = "TOO_DISSIMILAR"
)

// MessageType tags a worker message.
type MessageType int

const (
	// MessageChunk carries a slice of the diff stream, in final order.
	MessageChunk MessageType = iota
	// MessageSuccess is the terminal success message with run stats.
	MessageSuccess
	// MessageWarning carries a non-fatal anomaly.
	MessageWarning
	// MessageError is the terminal failure message.
	MessageError
)

// WorkerMessage is one message from the diff worker. A run emits zero
// or more chunks and warnings followed by exactly one of success or
// error, after which the channel closes.
type WorkerMessage struct {
	Type    MessageType
	Tokens  []DiffToken // chunk
	Stats   DiffStats   // success
	Message string      // warning, error
	Code    ErrorCode   // error
}

// WarningText carries the caller-supplied (typically localized) user
// messages the worker attaches to its three advisory conditions. Zero
// values fall back to built-in English text.
type WarningText struct {
	TooLarge      string
	EmptyText     string
	TooDissimilar string
}

func (w WarningText) tooLarge() string {
	if w.TooLarge != "" {
		return w.TooLarge
	}
	return "the combined documents are too large to compare"
}

func (w WarningText) emptyText() string {
	if w.EmptyText != "" {
		return w.EmptyText
	}
	return "one or both documents contain no comparable text"
}

func (w WarningText) tooDissimilar() string {
	if w.TooDissimilar != "" {
		return w.TooDissimilar
	}
	return "the documents appear to be almost entirely different"
}

// DiffSettings tunes the worker.
type DiffSettings struct {
	// BatchSize is how many diff tokens each chunk message carries.
	BatchSize int
	// ComplexThreshold is the combined token count above which the
	// worker switches from minimal Myers to histogram diff, which has
	// bounded worst-case cost on huge inputs.
	ComplexThreshold int
	// MaxWordThreshold is the hard ceiling on combined token count.
	MaxWordThreshold int
	// IgnoreCase compares case-folded tokens while preserving the
	// original case in output.
	IgnoreCase bool

	// DissimilarMinSample and DissimilarRatio arm the worker-side
	// dissimilarity heuristic: once at least DissimilarMinSample tokens
	// have been emitted and the changed fraction reaches the ratio, the
	// worker raises its advisory.
	DissimilarMinSample int
	DissimilarRatio     float64
	// StopOnDissimilar turns the advisory into early termination with
	// CodeTooDissimilar.
	StopOnDissimilar bool
}

// DefaultDiffSettings returns the production tuning.
func DefaultDiffSettings() DiffSettings {
	return DiffSettings{
		BatchSize:           5000,
		ComplexThreshold:    50000,
		MaxWordThreshold:    600000,
		DissimilarMinSample: 15000,
		DissimilarRatio:     0.8,
	}
}

// DiffRequest is the worker's input message.
type DiffRequest struct {
	BaseTokens       []string
	ComparisonTokens []string
	Warnings         WarningText
	Settings         DiffSettings
}

// StartDiffWorker launches an isolated diff computation and returns its
// message channel. The worker owns the channel and closes it after the
// terminal message. Cancelling ctx tears the worker down at the next
// message boundary; no further messages are delivered.
func StartDiffWorker(ctx context.Context, req DiffRequest) <-chan WorkerMessage {
	ch := make(chan WorkerMessage, 8)
	go func() {
		defer close(ch)
		runDiff(ctx, req, ch)
	}()
	return ch
}

// send delivers one message unless the run has been cancelled. Reports
// whether the worker should keep going.
func send(ctx context.Context, ch chan<- WorkerMessage, msg WorkerMessage) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case <-ctx.Done():
		return false
	case ch <- msg:
		return true
	}
}

func runDiff(ctx context.Context, req DiffRequest, ch chan<- WorkerMessage) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	settings := req.Settings
	if settings.BatchSize <= 0 {
		settings.BatchSize = DefaultDiffSettings().BatchSize
	}

	if len(req.BaseTokens) == 0 || len(req.ComparisonTokens) == 0 {
		send(ctx, ch, WorkerMessage{
			Type:    MessageError,
			Code:    CodeEmptyText,
			Message: req.Warnings.emptyText(),
		})
		return
	}

	total := len(req.BaseTokens) + len(req.ComparisonTokens)
	if settings.MaxWordThreshold > 0 && total > settings.MaxWordThreshold {
		send(ctx, ch, WorkerMessage{
			Type:    MessageError,
			Code:    CodeTooLarge,
			Message: req.Warnings.tooLarge(),
		})
		return
	}

	diffs := diffTokens(req.BaseTokens, req.ComparisonTokens, settings)

	// Stream in batches, watching the changed ratio as we go.
	changed, emitted := 0, 0
	warned := false
	for off := 0; off < len(diffs); off += settings.BatchSize {
		if ctx.Err() != nil {
			return
		}
		end := off + settings.BatchSize
		if end > len(diffs) {
			end = len(diffs)
		}
		chunk := diffs[off:end]
		for _, d := range chunk {
			if d.Type != Unchanged {
				changed++
			}
		}
		emitted = end
		if !send(ctx, ch, WorkerMessage{Type: MessageChunk, Tokens: chunk}) {
			return
		}
		if !warned && dissimilar(changed, emitted, settings) {
			warned = true
			if settings.StopOnDissimilar {
				send(ctx, ch, WorkerMessage{
					Type:    MessageError,
					Code:    CodeTooDissimilar,
					Message: req.Warnings.tooDissimilar(),
				})
				return
			}
			if !send(ctx, ch, WorkerMessage{Type: MessageWarning, Message: req.Warnings.tooDissimilar()}) {
				return
			}
		}
	}

	send(ctx, ch, WorkerMessage{
		Type: MessageSuccess,
		Stats: DiffStats{
			BaseWordCount:       len(req.BaseTokens),
			ComparisonWordCount: len(req.ComparisonTokens),
			Duration:            time.Since(start),
		},
	})
}

func dissimilar(changed, observed int, s DiffSettings) bool {
	if s.DissimilarMinSample <= 0 || s.DissimilarRatio <= 0 {
		return false
	}
	if observed < s.DissimilarMinSample {
		return false
	}
	return float64(changed)/float64(observed) >= s.DissimilarRatio
}

// diffTokens runs the sequence diff. Small inputs get the plain Myers
// diff; past ComplexThreshold the histogram algorithm keeps worst-case
// cost bounded and avoids anchoring on stopwords.
func diffTokens(base, comparison []string, settings DiffSettings) []DiffToken {
	a, b := base, comparison
	if settings.IgnoreCase {
		a = foldTokens(base)
		b = foldTokens(comparison)
	}

	var ops []diffx.DiffOp
	if settings.ComplexThreshold > 0 && len(a)+len(b) > settings.ComplexThreshold {
		ops = diffx.DiffHistogram(a, b)
	} else {
		ops = diffx.Diff(a, b)
	}
	return opsToDiffTokens(ops, base, comparison)
}

func foldTokens(tokens []string) []string {
	folded := make([]string, len(tokens))
	for i, t := range tokens {
		folded[i] = strings.ToLower(t)
	}
	return folded
}

// opsToDiffTokens expands diffx range ops into per-token entries. Texts
// come from the original (unfolded) slices so case is preserved; Equal
// entries take the base side's spelling, keeping the round-trip
// property exact for both sides under case folding only when the sides
// agree, and always when IgnoreCase is off.
func opsToDiffTokens(ops []diffx.DiffOp, base, comparison []string) []DiffToken {
	var out []DiffToken
	for _, op := range ops {
		switch op.Type {
		case diffx.Equal:
			for i := op.AStart; i < op.AEnd; i++ {
				out = append(out, DiffToken{Type: Unchanged, Text: base[i]})
			}
		case diffx.Delete:
			for i := op.AStart; i < op.AEnd; i++ {
				out = append(out, DiffToken{Type: Removed, Text: base[i]})
			}
		case diffx.Insert:
			for i := op.BStart; i < op.BEnd; i++ {
				out = append(out, DiffToken{Type: Added, Text: comparison[i]})
			}
		}
	}
	return out
}
