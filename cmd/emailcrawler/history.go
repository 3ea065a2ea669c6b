package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nao1215/emailcrawler/internal/config"
	"github.com/nao1215/emailcrawler/internal/database"
	"github.com/nao1215/emailcrawler/internal/model"
	"github.com/nao1215/emailcrawler/internal/report"
)

// defaultHistoryLimit is the number of runs listed by default.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [url]",
		Short: "List past crawl runs",
		Long: `History lists crawl runs recorded in the history database, newest first.

With a URL, only runs of that seed are listed. With --run, the summary of one
run is printed together with every page it visited.

Examples:
  # List the latest runs
  emailcrawler history

  # List runs of one seed
  emailcrawler history example.com

  # Show one run and its pages as Markdown
  emailcrawler history --run 12 -f markdown`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", defaultHistoryLimit,
		"Maximum number of runs to list (0 for all)")
	cmd.Flags().Int64("run", 0,
		"Show the run with this ID and the pages it visited")
	cmd.Flags().StringP("format", "f", config.ReportFormatText,
		"Output format: text, json or markdown")
	cmd.Flags().String("history-dir", config.XDGDataDir(),
		"Directory of the history database")

	return cmd
}

// historyOptions are the parsed flags of the history command.
type historyOptions struct {
	seed   string
	limit  int
	runID  int64
	format string
	dir    string
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	var (
		opts historyOptions
		err  error
	)
	if opts.limit, err = cmd.Flags().GetInt("limit"); err != nil {
		return err
	}
	if opts.runID, err = cmd.Flags().GetInt64("run"); err != nil {
		return err
	}
	if opts.format, err = cmd.Flags().GetString("format"); err != nil {
		return err
	}
	if opts.dir, err = cmd.Flags().GetString("history-dir"); err != nil {
		return err
	}
	if len(args) > 0 {
		if opts.seed, err = config.NormalizeSeed(args[0]); err != nil {
			return err
		}
	}

	return runHistory(cmd.Context(), opts, cmd.OutOrStdout())
}

// runHistory prints the requested part of the history database to out.
func runHistory(ctx context.Context, opts historyOptions, out io.Writer) error {
	writer, err := report.NewWriter(opts.format, out)
	if err != nil {
		return err
	}

	db, err := database.Open(opts.dir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()

	if opts.runID != 0 {
		return writeRunDetail(ctx, db, writer, opts.runID)
	}

	runs, err := db.ListRuns(ctx, opts.seed, opts.limit)
	if err != nil {
		return err
	}
	_, err = writer.WriteHistory(runs)
	return err
}

// writeRunDetail prints one run followed by its pages.
func writeRunDetail(ctx context.Context, db *database.HistoryDB, writer report.Writer, id int64) error {
	run, err := db.GetRun(ctx, id)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("no run with ID %d", id)
	}

	pages, err := db.ListPages(ctx, id)
	if err != nil {
		return err
	}

	if _, err := writer.WriteRuns([]*model.RunSummary{run}); err != nil {
		return err
	}
	_, err = writer.WritePages(pages)
	return err
}
