package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/emailcrawler/internal/config"
	"github.com/nao1215/emailcrawler/internal/crawler"
	"github.com/nao1215/emailcrawler/internal/database"
	"github.com/nao1215/emailcrawler/internal/store"
)

// LoadPriorStep loads the emails already in the result table.
type LoadPriorStep struct {
	store *store.Store
}

// NewLoadPriorStep creates a LoadPriorStep reading from s.
func NewLoadPriorStep(s *store.Store) *LoadPriorStep {
	return &LoadPriorStep{store: s}
}

// Name returns the step name.
func (s *LoadPriorStep) Name() string {
	return "load_prior"
}

// Do fills job.Prior. Unreadable tables are treated as empty by the store.
func (s *LoadPriorStep) Do(ctx context.Context, job *Job) error {
	job.Prior = s.store.LoadExisting(ctx)
	return nil
}

// CrawlStep crawls the job's seed with the settings of cfg and the site
// configuration that applies to the seed.
type CrawlStep struct {
	cfg     *config.Config
	fetcher crawler.Fetcher
	logger  *slog.Logger
}

// CrawlStepOption configures a CrawlStep.
type CrawlStepOption func(*CrawlStep)

// WithFetcher replaces the HTTP fetcher built from the configuration.
func WithFetcher(f crawler.Fetcher) CrawlStepOption {
	return func(s *CrawlStep) {
		s.fetcher = f
	}
}

// WithCrawlLogger sets the logger passed to the spider.
func WithCrawlLogger(logger *slog.Logger) CrawlStepOption {
	return func(s *CrawlStep) {
		s.logger = logger
	}
}

// NewCrawlStep creates a CrawlStep.
func NewCrawlStep(cfg *config.Config, opts ...CrawlStepOption) *CrawlStep {
	s := &CrawlStep{
		cfg:    cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *CrawlStep) Name() string {
	return "crawl"
}

// Do runs the crawl and copies its counters into job.Summary.
// A cancelled crawl keeps its partial result in job.Result.
func (s *CrawlStep) Do(ctx context.Context, job *Job) error {
	site := s.cfg.SiteConfigFor(job.Seed)

	fetcher := s.fetcher
	if fetcher == nil {
		f, err := s.newFetcher(site)
		if err != nil {
			return err
		}
		fetcher = f
	}

	spider := crawler.NewSpider(fetcher, crawler.NewHTMLLinkExtractor(),
		crawler.WithMaxDepth(s.cfg.DepthFor(site)),
		crawler.WithMaxWorkers(s.cfg.MaxWorkers),
		crawler.WithSubmitDelay(s.cfg.SubmitDelay),
		crawler.WithPriorEmails(job.Prior),
		crawler.WithIgnorePatterns(site.IgnorePatterns),
		crawler.WithFollowPatterns(site.FollowPatterns),
		crawler.WithLogger(s.logger),
		crawler.WithPageObserver(job.observe),
	)

	if job.Summary.StartedAt.IsZero() {
		job.Summary.StartedAt = time.Now()
	}

	result, err := spider.Crawl(ctx, job.Seed)
	if result != nil {
		job.Result = result
		job.Summary.PagesFetched = result.PagesFetched
		job.Summary.PagesFailed = result.PagesFailed
		job.Summary.URLsClaimed = result.URLsClaimed
		job.Summary.NewEmails = result.Emails
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("crawl interrupted: %w", err)
		}
		return fmt.Errorf("crawl failed: %w", err)
	}
	return nil
}

func (s *CrawlStep) newFetcher(site config.SiteConfig) (crawler.Fetcher, error) {
	client, err := crawler.NewHTTPClient(crawler.TransportOptions{
		Timeout:      s.cfg.Timeout,
		ProxyAddress: s.cfg.ProxyAddress,
		Cookie:       site.Cookie,
		Headers:      site.Headers,
	})
	if err != nil {
		return nil, err
	}

	maxBody := s.cfg.MaxBodySize
	if maxBody == 0 {
		maxBody = config.DefaultMaxBodySize
	}
	return crawler.NewHTTPFetcher(client,
		crawler.WithUserAgent(s.cfg.UserAgent),
		crawler.WithMaxBodySize(maxBody),
	), nil
}

// MergeStep merges the crawl's emails into the result table. It is a
// final step: it also saves the partial result of an interrupted crawl.
type MergeStep struct {
	store *store.Store
}

// NewMergeStep creates a MergeStep writing to s.
func NewMergeStep(s *store.Store) *MergeStep {
	return &MergeStep{store: s}
}

// Name returns the step name.
func (s *MergeStep) Name() string {
	return "merge"
}

// Do merges job.Result.Emails under the seed. Without a crawl result
// there is nothing to merge.
func (s *MergeStep) Do(ctx context.Context, job *Job) error {
	defer func() {
		job.Summary.FinishedAt = time.Now()
	}()

	if job.Result == nil {
		return nil
	}

	result, err := s.store.MergeAndSave(ctx, job.Seed, job.Result.Emails)
	if err != nil {
		return err
	}
	job.Summary.Added = result.Added
	job.Summary.TotalRecords = result.Total
	if result.Total == 0 {
		// Nothing was written; report the size of the existing table.
		job.Summary.TotalRecords = len(job.Prior)
	}
	return nil
}

// HistoryStartStep opens a history record for the run and records every
// claimed page under it.
type HistoryStartStep struct {
	db     *database.HistoryDB
	logger *slog.Logger
}

// NewHistoryStartStep creates a HistoryStartStep writing to db.
func NewHistoryStartStep(db *database.HistoryDB, logger *slog.Logger) *HistoryStartStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &HistoryStartStep{db: db, logger: logger}
}

// Name returns the step name.
func (s *HistoryStartStep) Name() string {
	return "history_start"
}

// Do inserts the run and registers a page observer. Page insert failures
// are logged and do not affect the crawl.
func (s *HistoryStartStep) Do(ctx context.Context, job *Job) error {
	if job.Summary.StartedAt.IsZero() {
		job.Summary.StartedAt = time.Now()
	}
	runID, err := s.db.InsertRun(ctx, job.Summary)
	if err != nil {
		return err
	}

	pageCtx := context.WithoutCancel(ctx)
	job.Observers = append(job.Observers, func(page crawler.PageResult) {
		record := &database.PageRecord{
			RunID:       runID,
			URL:         page.URL,
			Depth:       page.Depth,
			State:       page.State.String(),
			EmailCount:  len(page.Emails),
			LinkCount:   len(page.Links),
			ContentHash: page.ContentHash,
		}
		if page.Err != nil {
			record.Error = page.Err.Error()
		}
		if err := s.db.InsertPage(pageCtx, record); err != nil {
			s.logger.Warn("failed to record page", "url", page.URL, "error", err)
		}
	})
	return nil
}

// HistoryFinishStep stores the final state of the run. It is a final step
// and does nothing when the run was never inserted.
type HistoryFinishStep struct {
	db *database.HistoryDB
}

// NewHistoryFinishStep creates a HistoryFinishStep writing to db.
func NewHistoryFinishStep(db *database.HistoryDB) *HistoryFinishStep {
	return &HistoryFinishStep{db: db}
}

// Name returns the step name.
func (s *HistoryFinishStep) Name() string {
	return "history_finish"
}

// Do updates the run record from job.Summary.
func (s *HistoryFinishStep) Do(ctx context.Context, job *Job) error {
	if job.Summary.ID == 0 {
		return nil
	}
	return s.db.FinishRun(ctx, job.Summary)
}

// NewCrawlPipeline builds the standard pipeline for one seed. A nil
// history database disables the history steps.
func NewCrawlPipeline(
	cfg *config.Config,
	st *store.Store,
	history *database.HistoryDB,
	logger *slog.Logger,
	crawlOpts ...CrawlStepOption,
) *Pipeline {
	p := New(WithLogger(logger))

	p.AddStep(NewLoadPriorStep(st))
	if history != nil {
		p.AddStep(NewHistoryStartStep(history, logger))
	}
	crawlOpts = append([]CrawlStepOption{WithCrawlLogger(logger)}, crawlOpts...)
	p.AddStep(NewCrawlStep(cfg, crawlOpts...))

	p.AddFinalStep(NewMergeStep(st))
	if history != nil {
		p.AddFinalStep(NewHistoryFinishStep(history))
	}
	return p
}
