package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/emailcrawler/internal/database"
	"github.com/nao1215/emailcrawler/internal/model"
)

// TextWriter outputs human-readable text for terminal display.
type TextWriter struct {
	baseWriter
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer) *TextWriter {
	return &TextWriter{baseWriter: newBaseWriter(output)}
}

// WriteRuns prints one block per run.
func (w *TextWriter) WriteRuns(runs []*model.RunSummary) (int, error) {
	var sb strings.Builder

	for i, run := range runs {
		if i > 0 {
			sb.WriteString("\n")
		}
		w.writeRun(&sb, run)
	}

	return io.WriteString(w.output, sb.String())
}

func (w *TextWriter) writeRun(sb *strings.Builder, run *model.RunSummary) {
	fmt.Fprintf(sb, "Crawl of %s\n", run.Seed)
	fmt.Fprintf(sb, "  Status:        %s\n", statusText(run))
	fmt.Fprintf(sb, "  Pages fetched: %d (%d failed, %d URLs claimed)\n",
		run.PagesFetched, run.PagesFailed, run.URLsClaimed)
	fmt.Fprintf(sb, "  Elapsed:       %s\n", formatElapsed(run))

	if len(run.NewEmails) == 0 {
		sb.WriteString("  No new emails found.\n")
	} else {
		fmt.Fprintf(sb, "  New emails:    %d\n", len(run.NewEmails))
		for _, email := range run.NewEmails {
			fmt.Fprintf(sb, "    %s\n", email)
		}
	}

	fmt.Fprintf(sb, "Saved %d new email(s) to %s (%d total).\n", run.Added, run.Output, run.TotalRecords)
}

// WriteHistory prints one line per run, newest first as given.
func (w *TextWriter) WriteHistory(runs []*model.RunSummary) (int, error) {
	if len(runs) == 0 {
		return io.WriteString(w.output, "No crawl history.\n")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%-5s  %-19s  %-8s  %5s  %5s  %s\n", "ID", "STARTED", "ELAPSED", "PAGES", "ADDED", "SEED")
	for _, run := range runs {
		seed := run.Seed
		if run.Failed() {
			seed += " (" + run.Error + ")"
		}
		fmt.Fprintf(&sb, "%-5d  %-19s  %-8s  %5d  %5d  %s\n",
			run.ID, formatTime(run.StartedAt), formatElapsed(run), run.PagesFetched, run.Added, seed)
	}

	return io.WriteString(w.output, sb.String())
}

// WritePages prints one line per page in visit order.
func (w *TextWriter) WritePages(pages []database.PageRecord) (int, error) {
	if len(pages) == 0 {
		return io.WriteString(w.output, "No pages recorded.\n")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%-5s  %-10s  %6s  %5s  %-12s  %s\n", "DEPTH", "STATE", "EMAILS", "LINKS", "HASH", "URL")
	for _, page := range pages {
		url := page.URL
		if page.Error != "" {
			url += " (" + page.Error + ")"
		}
		fmt.Fprintf(&sb, "%-5d  %-10s  %6d  %5d  %-12s  %s\n",
			page.Depth, page.State, page.EmailCount, page.LinkCount, shortHash(page.ContentHash), url)
	}

	return io.WriteString(w.output, sb.String())
}
