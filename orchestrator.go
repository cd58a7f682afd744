package redline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

// State is the orchestrator's lifecycle position.
type State int

const (
	// StateIdle means no run is active and no run is settling.
	StateIdle State = iota
	// StateExtracting means both documents are being tokenized.
	StateExtracting
	// StateProcessing means the diff worker and aggregation are running.
	StateProcessing
	// StateComplete means the last run finished and Result is set.
	StateComplete
	// StateCancelled means the last run was torn down before settling.
	StateCancelled
	// StateError means the last run failed; Err returns why.
	StateError
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateExtracting:
		return "extracting"
	case StateProcessing:
		return "processing"
	case StateComplete:
		return "complete"
	case StateCancelled:
		return "cancelled"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// EventKind tags an orchestrator advisory event.
type EventKind int

const (
	// EventLongJobStarted fires when a run over the long-job page
	// threshold enters processing; the host should show a persistent
	// advisory.
	EventLongJobStarted EventKind = iota
	// EventLongJobEnded fires when that run settles, however it
	// settles; the host must dismiss the advisory.
	EventLongJobEnded
	// EventDissimilarity fires at most once per run when the monitor
	// judges the documents nearly unrelated mid-stream; the host may
	// offer early cancellation.
	EventDissimilarity
)

// Event is an advisory emitted by the orchestrator. Events replace
// ambient toast/banner globals so the engine stays testable without a
// UI.
type Event struct {
	Kind    EventKind
	Run     int64
	Message string
}

// Comparison failure sentinels. Worker error codes map onto these;
// errors.Is works through the wrapping.
var (
	ErrEmptyText     = errors.New("no comparable text")
	ErrTooLarge      = errors.New("input too large to compare")
	ErrTooDissimilar = errors.New("documents too dissimilar")
	ErrCancelled     = errors.New("comparison cancelled")
)

// Config tunes an Orchestrator.
type Config struct {
	Extractor ExtractorConfig
	Diff      DiffSettings
	Warnings  WarningText

	// LongJobPages is the combined page count at which a run is
	// announced as long-running via events.
	LongJobPages int

	// MonitorMinSample and MonitorRatio tune the orchestrator-side
	// dissimilarity monitor.
	MonitorMinSample int
	MonitorRatio     float64

	Logger *log.Logger
}

// DefaultConfig returns the production tuning.
func DefaultConfig() Config {
	return Config{
		Extractor:        DefaultExtractorConfig(),
		Diff:             DefaultDiffSettings(),
		LongJobPages:     2000,
		MonitorMinSample: 15000,
		MonitorRatio:     0.8,
	}
}

// Orchestrator owns the run lifecycle: extraction, diffing, aggregation,
// cancellation, and the advisory event stream. One run is active at a
// time; starting a new run supersedes the previous one via a generation
// counter, so stale completions never corrupt state.
type Orchestrator struct {
	cfg Config
	log *log.Logger

	mu      sync.Mutex
	state   State
	run     int64
	cancel  context.CancelFunc
	result  *ComparisonResult
	lastErr error

	events chan Event
}

// New returns an idle orchestrator.
func New(cfg Config) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Orchestrator{
		cfg:    cfg,
		log:    logger,
		state:  StateIdle,
		events: make(chan Event, 16),
	}
}

// Events returns the advisory stream. Sends are non-blocking: if
// nothing drains the channel, events are dropped rather than stalling a
// run.
func (o *Orchestrator) Events() <-chan Event {
	return o.events
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Result returns the last successful comparison, or nil.
func (o *Orchestrator) Result() *ComparisonResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.result
}

// Err returns why the last run failed, or nil.
func (o *Orchestrator) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

// Cancel tears down the active run: the worker's context is destroyed
// and every pending continuation of the run becomes a no-op. Calling
// Cancel while idle does nothing. Cancellation is a normal terminal
// state, not a failure.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != StateExtracting && o.state != StateProcessing {
		return
	}
	o.run++ // invalidate all in-flight continuations
	o.state = StateCancelled
	o.lastErr = nil
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
}

// Reset clears the last result, error, and warnings and returns to
// idle. Active runs are cancelled first.
func (o *Orchestrator) Reset() {
	o.Cancel()
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state = StateIdle
	o.result = nil
	o.lastErr = nil
}

// Compare runs one full comparison: extraction of both sides in
// parallel, the diff worker, highlight mapping, and change aggregation.
// It blocks until the run settles. Cancel may be called concurrently;
// a cancelled run returns ErrCancelled with no result set.
func (o *Orchestrator) Compare(ctx context.Context, base, comparison *Document) (*ComparisonResult, error) {
	runCtx, myRun := o.beginRun(ctx)
	defer o.endRun(myRun)

	start := time.Now()
	result, err := o.compare(runCtx, myRun, base, comparison, start)
	duration := time.Since(start)

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.run != myRun {
		// Superseded or cancelled while we were finishing.
		o.log.Debug("discarding stale run", "run", myRun, "durationMs", duration.Milliseconds())
		return nil, ErrCancelled
	}
	if errors.Is(err, ErrCancelled) {
		// Cancellation is a normal terminal state, not a failure.
		o.state = StateCancelled
		o.lastErr = nil
		o.log.Info("comparison cancelled", "run", myRun, "durationMs", duration.Milliseconds())
		return nil, err
	}
	if err != nil {
		o.state = StateError
		o.lastErr = err
		o.log.Warn("comparison failed", "run", myRun, "durationMs", duration.Milliseconds(), "err", err)
		return nil, err
	}
	o.state = StateComplete
	o.result = result
	o.lastErr = nil
	o.log.Info("comparison complete",
		"run", myRun,
		"durationMs", duration.Milliseconds(),
		"added", result.Totals.Added,
		"removed", result.Totals.Removed,
		"unchanged", result.Totals.Unchanged,
	)
	return result, nil
}

// beginRun supersedes any active run and enters extracting.
func (o *Orchestrator) beginRun(ctx context.Context) (context.Context, int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cancel != nil {
		o.cancel()
	}
	o.run++
	runCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	o.state = StateExtracting
	return runCtx, o.run
}

// endRun releases the run's cancel func if the run is still current.
func (o *Orchestrator) endRun(myRun int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.run == myRun && o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
}

func (o *Orchestrator) compare(ctx context.Context, myRun int64, base, comparison *Document, start time.Time) (*ComparisonResult, error) {
	var baseEx, cmpEx *Extraction
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		baseEx = ExtractDocument(base, o.cfg.Extractor)
		return gctx.Err()
	})
	g.Go(func() error {
		cmpEx = ExtractDocument(comparison, o.cfg.Extractor)
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, ErrCancelled
	}
	if !o.stillCurrent(myRun) {
		return nil, ErrCancelled
	}

	baseView := FilterSentinels(baseEx.Tokens, baseEx.Metadata)
	cmpView := FilterSentinels(cmpEx.Tokens, cmpEx.Metadata)
	if len(baseView.Tokens) == 0 || len(cmpView.Tokens) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyText, o.cfg.Warnings.emptyText())
	}

	o.setState(myRun, StateProcessing)

	longJob := o.cfg.LongJobPages > 0 &&
		len(baseEx.PageSizes)+len(cmpEx.PageSizes) >= o.cfg.LongJobPages
	if longJob {
		o.emit(Event{Kind: EventLongJobStarted, Run: myRun})
		defer o.emit(Event{Kind: EventLongJobEnded, Run: myRun})
	}

	monitor := &DissimilarityMonitor{MinSample: o.cfg.MonitorMinSample, Ratio: o.cfg.MonitorRatio}

	msgs := StartDiffWorker(ctx, DiffRequest{
		BaseTokens:       baseView.Tokens,
		ComparisonTokens: cmpView.Tokens,
		Warnings:         o.cfg.Warnings,
		Settings:         o.cfg.Diff,
	})

	var diffs []DiffToken
	var warnings []string
	var stats *DiffStats
	for msg := range msgs {
		if !o.stillCurrent(myRun) {
			return nil, ErrCancelled
		}
		switch msg.Type {
		case MessageChunk:
			diffs = append(diffs, msg.Tokens...)
			if monitor.Observe(msg.Tokens) {
				o.emit(Event{Kind: EventDissimilarity, Run: myRun, Message: o.cfg.Warnings.tooDissimilar()})
			}
		case MessageWarning:
			warnings = append(warnings, msg.Message)
		case MessageError:
			return nil, workerError(msg)
		case MessageSuccess:
			s := msg.Stats
			stats = &s
		}
	}
	if stats == nil {
		// Channel closed without a terminal message: the worker was
		// torn down mid-computation.
		if ctx.Err() != nil {
			return nil, ErrCancelled
		}
		return nil, errors.New("diff worker stopped without a result")
	}

	baseTagged, cmpTagged := MapHighlights(diffs, baseView.Tokens, cmpView.Tokens)
	changes := AggregateChanges(diffs, baseView.Metadata, cmpView.Metadata)

	totals := Totals{ProcessedAt: time.Now()}
	for _, d := range diffs {
		switch d.Type {
		case Added:
			totals.Added++
		case Removed:
			totals.Removed++
		case Unchanged:
			totals.Unchanged++
		}
	}
	totals.DurationMS = time.Since(start).Milliseconds()

	return &ComparisonResult{
		BaseWordCount:        stats.BaseWordCount,
		ComparisonWordCount:  stats.ComparisonWordCount,
		BasePageSizes:        baseEx.PageSizes,
		ComparisonPageSizes:  cmpEx.PageSizes,
		Totals:               totals,
		Diffs:                diffs,
		BaseMetadata:         baseView.Metadata,
		ComparisonMetadata:   cmpView.Metadata,
		BaseView:             baseTagged,
		ComparisonView:       cmpTagged,
		Changes:              changes,
		BaseParagraphs:       baseEx.Paragraphs,
		ComparisonParagraphs: cmpEx.Paragraphs,
		Warnings:             warnings,
	}, nil
}

// workerError maps a worker error message to a wrapped sentinel.
func workerError(msg WorkerMessage) error {
	var sentinel error
	switch msg.Code {
	case CodeEmptyText:
		sentinel = ErrEmptyText
	case CodeTooLarge:
		sentinel = ErrTooLarge
	case CodeTooDissimilar:
		sentinel = ErrTooDissimilar
	default:
		return fmt.Errorf("diff worker: %s", msg.Message)
	}
	return fmt.Errorf("%w: %s", sentinel, msg.Message)
}

func (o *Orchestrator) stillCurrent(myRun int64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.run == myRun
}

// setState transitions only if the run is still current.
func (o *Orchestrator) setState(myRun int64, s State) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.run == myRun {
		o.state = s
	}
}

// emit delivers an event without blocking; a full channel drops it.
func (o *Orchestrator) emit(ev Event) {
	select {
	case o.events <- ev:
	default:
		o.log.Debug("event dropped", "kind", ev.Kind, "run", ev.Run)
	}
}
