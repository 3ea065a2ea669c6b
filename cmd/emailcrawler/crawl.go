package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/emailcrawler/internal/config"
	"github.com/nao1215/emailcrawler/internal/crawler"
	"github.com/nao1215/emailcrawler/internal/database"
	"github.com/nao1215/emailcrawler/internal/pipeline"
	"github.com/nao1215/emailcrawler/internal/report"
	"github.com/nao1215/emailcrawler/internal/store"
)

// errCrawlsFailed is returned when at least one seed could not be crawled.
var errCrawlsFailed = errors.New("some crawls failed")

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl <url>...",
		Short: "Crawl websites and collect email addresses",
		Long: `Crawl starts at each seed URL, follows links that stay on the seed's host,
and extracts email addresses from every page it fetches.

Addresses that are not yet in the result table are appended to it when the
crawl finishes. Press Ctrl-C to stop early; what was found so far is still
saved. Finding no new addresses is a normal outcome.

The result table format follows the file extension of --output:
  .xlsx                    Excel workbook (default)
  .csv                     comma-separated values
  .db, .sqlite, .sqlite3   SQLite database

Examples:
  # Crawl a site two links deep
  emailcrawler crawl example.com

  # Crawl deeper with more workers and save to CSV
  emailcrawler crawl -d 3 -w 20 -o emails.csv https://example.com

  # Crawl several sites, two at a time, and print a Markdown report
  emailcrawler crawl -b 2 -f markdown example.com example.org

  # Route requests through a SOCKS5 proxy
  emailcrawler crawl --proxy 127.0.0.1:9050 example.com

Configuration file (.emailcrawler) example:
  defaults:
    ignorePatterns:
      - "/logout*"
  sites:
    example.com:
      cookie: "session=abc123"
      headers:
        Accept-Language: "en"
      depth: 3`,
		Args: cobra.MinimumNArgs(1),
		RunE: runCrawlCmd,
	}

	// Crawl behavior flags
	cmd.Flags().IntP("depth", "d", config.DefaultMaxDepth,
		"Maximum link distance from the seed")
	cmd.Flags().IntP("workers", "w", config.DefaultMaxWorkers,
		"Number of pages fetched concurrently per seed")
	cmd.Flags().Duration("delay", config.DefaultSubmitDelay,
		"Pause after each link a page submits")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each request")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with every request")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum number of bytes read from each response")
	cmd.Flags().String("proxy", "",
		"SOCKS5 proxy address (e.g., 127.0.0.1:9050)")

	// Batch flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of seeds crawled concurrently")

	// Output flags
	cmd.Flags().StringP("output", "o", config.DefaultOutputFile,
		"Result table path (.xlsx, .csv, .db, .sqlite, .sqlite3)")
	cmd.Flags().StringP("format", "f", config.ReportFormatText,
		"Run report format: text, json or markdown")

	// Configuration and history
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .emailcrawler in current or home directory)")
	cmd.Flags().Bool("no-history", false,
		"Do not record this run in the history database")
	cmd.Flags().String("history-dir", config.XDGDataDir(),
		"Directory of the history database")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.NormalizeSeeds(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := newLogger(cmd)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runCrawl(ctx, cfg, logger, cmd.OutOrStdout())
}

// buildConfig creates a Config from cobra command flags and the
// configuration file.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	if cfg.MaxDepth, err = flags.GetInt("depth"); err != nil {
		return nil, err
	}
	if cfg.MaxWorkers, err = flags.GetInt("workers"); err != nil {
		return nil, err
	}
	if cfg.SubmitDelay, err = flags.GetDuration("delay"); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
		return nil, err
	}
	if cfg.MaxBodySize, err = flags.GetInt64("max-body-size"); err != nil {
		return nil, err
	}
	if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
		return nil, err
	}
	if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
		return nil, err
	}
	if cfg.OutputFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.ReportFormat, err = flags.GetString("format"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}
	noHistory, err := flags.GetBool("no-history")
	if err != nil {
		return nil, err
	}
	cfg.SaveHistory = !noHistory
	if cfg.HistoryDir, err = flags.GetString("history-dir"); err != nil {
		return nil, err
	}

	cfg.Verbose = getBoolFlag(cmd, "verbose")
	cfg.LogJSON = getBoolFlag(cmd, "log-json")

	if cfg.SiteConfigs, err = loadSiteConfigs(cfg.ConfigFilePath); err != nil {
		return nil, err
	}

	cfg.Seeds = args

	return cfg, nil
}

// loadSiteConfigs loads the configuration file. An explicitly given path
// must exist; otherwise a missing file means no site overrides.
func loadSiteConfigs(path string) (*config.File, error) {
	found := config.FindConfigFile(path)
	if found == "" {
		if path != "" {
			return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, path)
		}
		return &config.File{Sites: make(map[string]config.SiteConfig)}, nil
	}

	sites, err := config.LoadConfigFile(found)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", found, err)
	}
	return sites, nil
}

// runCrawl crawls every seed of cfg, merges the results into the result
// table, and writes the run report to out.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer, crawlOpts ...pipeline.CrawlStepOption) error {
	writer, err := report.NewWriter(cfg.ReportFormat, out)
	if err != nil {
		return err
	}

	if cfg.ProxyAddress != "" {
		if err := crawler.CheckProxy(ctx, cfg.ProxyAddress); err != nil {
			return fmt.Errorf("proxy check failed: %w", err)
		}
		logger.Debug("SOCKS5 proxy verified", "address", cfg.ProxyAddress)
	}

	table, err := store.Open(cfg.OutputFile)
	if err != nil {
		return err
	}
	st := store.New(table, store.WithLogger(logger))

	var history *database.HistoryDB
	if cfg.SaveHistory {
		history, err = database.Open(cfg.HistoryDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open history database: %w", err)
		}
		defer func() {
			if err := history.Close(); err != nil {
				logger.Warn("failed to close history database", "error", err)
			}
		}()
		logger.Debug("history database opened", "path", history.Path())
	}

	logger.Debug("starting crawl",
		"seeds", cfg.Seeds,
		"output", st.Path(),
		"maxDepth", cfg.MaxDepth,
		"maxWorkers", cfg.MaxWorkers,
		"batchSize", cfg.BatchSize,
	)

	bp := pipeline.NewBatchProcessor(
		func() *pipeline.Pipeline {
			return pipeline.NewCrawlPipeline(cfg, st, history, logger, crawlOpts...)
		},
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithOutput(st.Path()),
		pipeline.WithBatchLogger(logger),
	)

	runs, batchErr := bp.ProcessBatch(ctx, cfg.Seeds)

	if _, err := writer.WriteRuns(runs); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if batchErr != nil {
		return fmt.Errorf("crawl interrupted: %w", batchErr)
	}

	failed := 0
	for _, run := range runs {
		if run.Failed() {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", errCrawlsFailed, failed, len(runs))
	}
	return nil
}
