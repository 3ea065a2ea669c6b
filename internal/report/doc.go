// Package report prints crawl run summaries.
//
// Writers exist for three formats:
//   - TextWriter: human-readable output for the terminal
//   - JSONWriter: structured output for other tools
//   - MarkdownWriter: a document built with github.com/nao1215/markdown
//
// Each writer prints the summaries of a crawl invocation (WriteRuns), the
// run list of the history command (WriteHistory) and the pages of one
// recorded run (WritePages).
package report
