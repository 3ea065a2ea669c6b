package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/emailcrawler/internal/database"
	"github.com/nao1215/emailcrawler/internal/model"
)

// MarkdownWriter outputs summaries as a Markdown document.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// WriteRuns writes one section per run.
func (w *MarkdownWriter) WriteRuns(runs []*model.RunSummary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Email Crawl Report")
	md.PlainText("")

	for _, run := range runs {
		w.writeRun(md, run)
	}

	w.writeFooter(md)
	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeRun(md *markdown.Markdown, run *model.RunSummary) {
	md.H2(run.Seed)
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Output", "`" + run.Output + "`"},
			{"Started", formatTime(run.StartedAt)},
			{"Elapsed", formatElapsed(run)},
			{"Pages Fetched", strconv.Itoa(run.PagesFetched)},
			{"Pages Failed", strconv.Itoa(run.PagesFailed)},
			{"URLs Claimed", strconv.Itoa(run.URLsClaimed)},
			{"Emails Added", strconv.Itoa(run.Added)},
			{"Total Records", strconv.Itoa(run.TotalRecords)},
			{"Status", statusText(run)},
		},
	})
	md.PlainText("")

	if run.PagesFetched+run.PagesFailed > 0 {
		w.writePieChart(md, run)
	}

	if run.Failed() {
		md.Warningf("The crawl did not complete: %s", run.Error)
		md.PlainText("")
	}

	md.H3("New Emails")
	md.PlainText("")
	if len(run.NewEmails) == 0 {
		md.Tip("No new emails found.")
	} else {
		md.BulletList(run.NewEmails...)
	}
	md.PlainText("")
}

// writePieChart writes a mermaid pie chart of fetched and failed pages.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, run *model.RunSummary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Pages"),
		piechart.WithShowData(true),
	)
	if run.PagesFetched > 0 {
		chart.LabelAndIntValue("Fetched", uint64(run.PagesFetched))
	}
	if run.PagesFailed > 0 {
		chart.LabelAndIntValue("Failed", uint64(run.PagesFailed))
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// WriteHistory writes the runs as one table.
func (w *MarkdownWriter) WriteHistory(runs []*model.RunSummary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Crawl History")
	md.PlainText("")

	if len(runs) == 0 {
		md.PlainText("No crawl history.")
		return len(md.String()), md.Build()
	}

	rows := make([][]string, len(runs))
	for i, run := range runs {
		rows[i] = []string{
			strconv.FormatInt(run.ID, 10),
			run.Seed,
			formatTime(run.StartedAt),
			formatElapsed(run),
			strconv.Itoa(run.PagesFetched),
			strconv.Itoa(run.Added),
			statusText(run),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"ID", "Seed", "Started", "Elapsed", "Pages", "Added", "Status"},
		Rows:   rows,
	})
	md.PlainText("")

	w.writeFooter(md)
	return len(md.String()), md.Build()
}

// WritePages writes the pages of a run as one table.
func (w *MarkdownWriter) WritePages(pages []database.PageRecord) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H2("Visited Pages")
	md.PlainText("")

	if len(pages) == 0 {
		md.PlainText("No pages recorded.")
		return len(md.String()), md.Build()
	}

	rows := make([][]string, len(pages))
	for i, page := range pages {
		state := page.State
		if page.Error != "" {
			state += ": " + page.Error
		}
		rows[i] = []string{
			page.URL,
			strconv.Itoa(page.Depth),
			state,
			strconv.Itoa(page.EmailCount),
			strconv.Itoa(page.LinkCount),
			"`" + shortHash(page.ContentHash) + "`",
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"URL", "Depth", "State", "Emails", "Links", "Hash"},
		Rows:   rows,
	})

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [emailcrawler](https://github.com/nao1215/emailcrawler)*")
}
