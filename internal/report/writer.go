package report

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/nao1215/emailcrawler/internal/config"
	"github.com/nao1215/emailcrawler/internal/database"
	"github.com/nao1215/emailcrawler/internal/model"
)

// ErrUnknownFormat is returned by NewWriter for an unsupported format.
var ErrUnknownFormat = errors.New("unknown report format")

// Writer prints run summaries.
type Writer interface {
	// WriteRuns prints the outcome of the runs of one invocation, including
	// the new emails of each run. It returns the number of bytes written.
	WriteRuns(runs []*model.RunSummary) (int, error)

	// WriteHistory prints a compact listing of past runs.
	WriteHistory(runs []*model.RunSummary) (int, error)

	// WritePages prints the pages one recorded run visited.
	WritePages(pages []database.PageRecord) (int, error)
}

// NewWriter returns the Writer for one of the config.ReportFormat values.
// An empty format selects text.
func NewWriter(format string, output io.Writer) (Writer, error) {
	switch format {
	case config.ReportFormatText, "":
		return NewTextWriter(output), nil
	case config.ReportFormatJSON:
		return NewJSONWriter(output, WithPrettyPrint()), nil
	case config.ReportFormatMarkdown:
		return NewMarkdownWriter(output), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// statusText describes how a run ended.
func statusText(run *model.RunSummary) string {
	if run.Failed() {
		return "failed: " + run.Error
	}
	return "complete"
}

// formatElapsed rounds a run duration for display.
func formatElapsed(run *model.RunSummary) string {
	return run.Elapsed().Round(time.Millisecond).String()
}

// formatTime prints a timestamp, or "-" for the zero time.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

// shortHash abbreviates a content hash for tables.
func shortHash(hash string) string {
	const n = 12
	if len(hash) <= n {
		return hash
	}
	return hash[:n]
}
