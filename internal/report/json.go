package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/nao1215/emailcrawler/internal/database"
	"github.com/nao1215/emailcrawler/internal/model"
)

// JSONWriter outputs summaries as JSON for tool integration.
type JSONWriter struct {
	baseWriter

	indent       bool
	indentPrefix string
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint is WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// runsDocument is the top-level JSON object of both outputs.
type runsDocument struct {
	Runs []*model.RunSummary `json:"runs"`
}

// WriteRuns writes {"runs": [...]}.
func (w *JSONWriter) WriteRuns(runs []*model.RunSummary) (int, error) {
	return w.write(runsDocument{Runs: nonNil(runs)})
}

// WriteHistory writes the same document shape as WriteRuns.
func (w *JSONWriter) WriteHistory(runs []*model.RunSummary) (int, error) {
	return w.write(runsDocument{Runs: nonNil(runs)})
}

// pageJSON is the JSON shape of a recorded page.
type pageJSON struct {
	URL         string    `json:"url"`
	Depth       int       `json:"depth"`
	State       string    `json:"state"`
	Error       string    `json:"error,omitempty"`
	EmailCount  int       `json:"emailCount"`
	LinkCount   int       `json:"linkCount"`
	ContentHash string    `json:"contentHash,omitempty"`
	VisitedAt   time.Time `json:"visitedAt"`
}

// WritePages writes {"pages": [...]}.
func (w *JSONWriter) WritePages(pages []database.PageRecord) (int, error) {
	doc := struct {
		Pages []pageJSON `json:"pages"`
	}{Pages: make([]pageJSON, 0, len(pages))}

	for _, page := range pages {
		doc.Pages = append(doc.Pages, pageJSON{
			URL:         page.URL,
			Depth:       page.Depth,
			State:       page.State,
			Error:       page.Error,
			EmailCount:  page.EmailCount,
			LinkCount:   page.LinkCount,
			ContentHash: page.ContentHash,
			VisitedAt:   page.VisitedAt,
		})
	}
	return w.write(doc)
}

func (w *JSONWriter) write(v any) (int, error) {
	var (
		data []byte
		err  error
	)
	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}
	data = append(data, '\n')
	return w.output.Write(data)
}

func nonNil(runs []*model.RunSummary) []*model.RunSummary {
	if runs == nil {
		return make([]*model.RunSummary, 0)
	}
	return runs
}
