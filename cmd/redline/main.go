// Command redline compares two laid-out documents word by word.
//
// Usage:
//
//	redline base.json comparison.json
//	redline -o summary.json base.json comparison.json
//
// Inputs are layout dumps: JSON documents of pages and glyph runs as
// captured from a rendering provider.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/redlinehq/redline"
	flag "github.com/spf13/pflag"
)

// Version is set at build time via -ldflags
var Version = "dev"

// Exit codes
const (
	exitIdentical = 0 // documents are identical
	exitDiffer    = 1 // documents differ
	exitError     = 2 // error occurred
)

// cliFlags holds all parsed command-line flags
type cliFlags struct {
	output           *string
	batchSize        *int
	complexThreshold *int
	maxWords         *int
	ignoreCase       *bool
	longJobPages     *int
	stats            *bool
	verbose          *bool
	help             *bool
	version          *bool
}

func defineFlags() cliFlags {
	defaults := redline.DefaultDiffSettings()
	cfg := redline.DefaultConfig()

	f := cliFlags{
		output:           flag.StringP("output", "o", "", "write summary artifact to file (default stdout)"),
		batchSize:        flag.Int("batch-size", defaults.BatchSize, "diff tokens per streamed chunk"),
		complexThreshold: flag.Int("complex-threshold", defaults.ComplexThreshold, "token count at which histogram diff takes over"),
		maxWords:         flag.Int("max-words", defaults.MaxWordThreshold, "hard ceiling on combined token count"),
		ignoreCase:       flag.BoolP("ignore-case", "i", false, "ignore case when comparing"),
		longJobPages:     flag.Int("long-job-pages", cfg.LongJobPages, "combined page count that triggers the long-job advisory"),
		stats:            flag.BoolP("statistics", "s", false, "print statistics to stderr"),
		verbose:          flag.Bool("verbose", false, "enable debug logging"),
		help:             flag.BoolP("help", "h", false, "show help"),
		version:          flag.BoolP("version", "v", false, "show version"),
	}

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] base.json comparison.json\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nWord-level document comparison over provider layout dumps.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExit codes:\n")
		fmt.Fprintf(os.Stderr, "  0  documents are identical\n")
		fmt.Fprintf(os.Stderr, "  1  documents differ\n")
		fmt.Fprintf(os.Stderr, "  2  error occurred\n")
	}

	return f
}

func loadDocument(path string) (*redline.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	doc, err := redline.LoadDocument(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if doc.Name == "" {
		doc.Name = path
	}
	return doc, nil
}

func writeSummary(path string, summary *redline.Summary) error {
	if path == "" {
		return redline.WriteSummary(os.Stdout, summary)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return redline.WriteSummary(f, summary)
}

func run() int {
	f := defineFlags()
	flag.Parse()

	if *f.help {
		flag.Usage()
		return exitIdentical
	}
	if *f.version {
		fmt.Printf("redline %s\n", Version)
		return exitIdentical
	}
	if flag.NArg() != 2 {
		flag.Usage()
		return exitError
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})
	if *f.verbose {
		logger.SetLevel(log.DebugLevel)
	}

	base, err := loadDocument(flag.Arg(0))
	if err != nil {
		logger.Error("loading base document", "err", err)
		return exitError
	}
	comparison, err := loadDocument(flag.Arg(1))
	if err != nil {
		logger.Error("loading comparison document", "err", err)
		return exitError
	}

	cfg := redline.DefaultConfig()
	cfg.Diff.BatchSize = *f.batchSize
	cfg.Diff.ComplexThreshold = *f.complexThreshold
	cfg.Diff.MaxWordThreshold = *f.maxWords
	cfg.Diff.IgnoreCase = *f.ignoreCase
	cfg.LongJobPages = *f.longJobPages
	cfg.Logger = logger

	orch := redline.New(cfg)
	go func() {
		for ev := range orch.Events() {
			switch ev.Kind {
			case redline.EventLongJobStarted:
				logger.Warn("large comparison, this may take a while")
			case redline.EventDissimilarity:
				logger.Warn(ev.Message)
			}
		}
	}()

	result, err := orch.Compare(context.Background(), base, comparison)
	if err != nil {
		logger.Error("comparison failed", "err", err)
		return exitError
	}
	for _, w := range result.Warnings {
		logger.Warn(w)
	}

	summary := redline.BuildSummary(base.Name, comparison.Name, result)
	if err := writeSummary(*f.output, summary); err != nil {
		logger.Error("writing summary", "err", err)
		return exitError
	}

	if *f.stats {
		fmt.Fprintf(os.Stderr, "base: %d words, comparison: %d words\n",
			result.BaseWordCount, result.ComparisonWordCount)
		fmt.Fprintf(os.Stderr, "added: %d, removed: %d, unchanged: %d, changes: %d (%dms)\n",
			result.Totals.Added, result.Totals.Removed, result.Totals.Unchanged,
			len(result.Changes), result.Totals.DurationMS)
	}

	if result.HasChanges() {
		return exitDiffer
	}
	return exitIdentical
}

func main() {
	os.Exit(run())
}
