package crawler

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/crypto/sha3"
	"golang.org/x/sync/semaphore"

	"github.com/nao1215/emailcrawler/internal/model"
)

const (
	defaultMaxDepth     = 2
	defaultMaxWorkers   = 10
	defaultSubmitDelay  = 500 * time.Millisecond
	defaultFetchTimeout = 10 * time.Second
	defaultUserAgent    = "Mozilla/5.0"
	defaultMaxBodySize  = 5 * 1024 * 1024
)

// Spider crawls the pages reachable from a seed on the seed's host.
// A Spider holds only configuration; each Crawl gets its own Frontier, so
// one Spider may run several crawls concurrently.
type Spider struct {
	fetcher Fetcher
	links   LinkExtractor

	// maxDepth bounds expansion. 0 fetches only the seed.
	maxDepth int

	// maxWorkers bounds the number of targets processed at once.
	maxWorkers int

	// submitDelay is observed after each child a page submits.
	// It throttles one page's fan-out, not the pool as a whole.
	submitDelay time.Duration

	// prior holds emails already persisted; they are never rediscovered.
	prior map[string]struct{}

	ignorePatterns []string
	followPatterns []string

	logger   *slog.Logger
	observer PageObserver
}

// PageObserver receives the outcome of every claimed target.
// It is called from worker goroutines and must be safe for concurrent use.
type PageObserver func(PageResult)

// PageResult describes how one claimed target ended.
type PageResult struct {
	URL   string
	Depth int

	// State is StateExpanded for fetched pages and StateTerminated otherwise.
	State model.TargetState

	// Err is the fetch error of a terminated target.
	Err error

	// Emails are the new emails found on the page, sorted.
	Emails []string

	// Links are the in-scope links submitted as children.
	Links []string

	// ContentHash is the hex SHA3-256 digest of the page text.
	ContentHash string
}

// Result is the outcome of one crawl.
type Result struct {
	Seed string

	// Emails are the discovered emails not in the prior set, sorted.
	Emails []string

	PagesFetched int
	PagesFailed  int
	URLsClaimed  int
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithMaxDepth sets the maximum crawl depth.
func WithMaxDepth(depth int) SpiderOption {
	return func(s *Spider) {
		s.maxDepth = depth
	}
}

// WithMaxWorkers sets the worker pool size.
func WithMaxWorkers(n int) SpiderOption {
	return func(s *Spider) {
		s.maxWorkers = n
	}
}

// WithSubmitDelay sets the pause after each child submission.
func WithSubmitDelay(d time.Duration) SpiderOption {
	return func(s *Spider) {
		s.submitDelay = d
	}
}

// WithPriorEmails excludes emails that are already known.
func WithPriorEmails(emails map[string]struct{}) SpiderOption {
	return func(s *Spider) {
		s.prior = emails
	}
}

// WithIgnorePatterns sets URL path patterns to skip during crawling.
// Patterns use glob syntax (e.g., "/admin/*", "*.pdf", "/logout*").
func WithIgnorePatterns(patterns []string) SpiderOption {
	return func(s *Spider) {
		s.ignorePatterns = patterns
	}
}

// WithFollowPatterns restricts crawling to URL paths matching at least one
// pattern. Empty means all paths are allowed.
func WithFollowPatterns(patterns []string) SpiderOption {
	return func(s *Spider) {
		s.followPatterns = patterns
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) SpiderOption {
	return func(s *Spider) {
		s.logger = logger
	}
}

// WithPageObserver registers a callback for every claimed target.
func WithPageObserver(observer PageObserver) SpiderOption {
	return func(s *Spider) {
		s.observer = observer
	}
}

// NewSpider creates a Spider that fetches with fetcher and discovers links
// with links.
func NewSpider(fetcher Fetcher, links LinkExtractor, opts ...SpiderOption) *Spider {
	s := &Spider{
		fetcher:     fetcher,
		links:       links,
		maxDepth:    defaultMaxDepth,
		maxWorkers:  defaultMaxWorkers,
		submitDelay: defaultSubmitDelay,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Crawl crawls from seed and returns the emails discovered on the way.
//
// Crawl fails before dispatching anything when the seed is malformed or the
// worker pool is misconfigured. Otherwise it waits until every submitted
// target has finished. If ctx is cancelled, pending targets end without
// being fetched and Crawl returns the partial result along with ctx.Err().
func (s *Spider) Crawl(ctx context.Context, seed string) (*Result, error) {
	if s.maxWorkers < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidWorkers, s.maxWorkers)
	}

	scope, err := NewScope(seed)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSeed, err)
	}

	run := &crawlRun{
		spider:   s,
		scope:    scope.WithPatterns(s.ignorePatterns, s.followPatterns),
		frontier: NewFrontier(),
		sem:      semaphore.NewWeighted(int64(s.maxWorkers)),
	}

	s.logger.Debug("crawl started", "seed", seed, "max_depth", s.maxDepth, "max_workers", s.maxWorkers)

	run.submit(ctx, model.CrawlTarget{URL: seed, Depth: 0})
	run.wg.Wait()

	result := &Result{
		Seed:         seed,
		Emails:       run.frontier.SnapshotEmails(),
		PagesFetched: int(run.fetched.Load()),
		PagesFailed:  int(run.failed.Load()),
		URLsClaimed:  run.frontier.Claimed(),
	}

	s.logger.Debug("crawl finished",
		"seed", seed,
		"pages_fetched", result.PagesFetched,
		"pages_failed", result.PagesFailed,
		"new_emails", len(result.Emails))

	return result, ctx.Err()
}

// crawlRun is the state of one Crawl call.
type crawlRun struct {
	spider   *Spider
	scope    *Scope
	frontier *Frontier

	// sem bounds concurrent processing; wg counts submitted targets that
	// have not finished, including those still waiting for sem.
	sem *semaphore.Weighted
	wg  sync.WaitGroup

	fetched atomic.Int64
	failed  atomic.Int64
}

// submit schedules target without waiting for it. It never blocks, so a
// worker can submit children while holding a pool slot.
func (r *crawlRun) submit(ctx context.Context, target model.CrawlTarget) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.sem.Acquire(ctx, 1); err != nil {
			return
		}
		defer r.sem.Release(1)
		r.process(ctx, target)
	}()
}

// process runs one target through claim, fetch, extract and expand.
func (r *crawlRun) process(ctx context.Context, target model.CrawlTarget) {
	s := r.spider

	if target.Depth > s.maxDepth {
		return
	}
	if !r.frontier.TryClaim(target.URL) {
		return
	}

	page := PageResult{URL: target.URL, Depth: target.Depth, State: model.StateClaimed}
	defer func() {
		if s.observer != nil {
			s.observer(page)
		}
	}()

	body, err := s.fetcher.Fetch(ctx, target.URL)
	if err == nil && body == "" {
		err = ErrEmptyBody
	}
	if err != nil {
		r.failed.Add(1)
		page.State = model.StateTerminated
		page.Err = err
		s.logger.Debug("fetch failed", "url", target.URL, "depth", target.Depth, "error", err)
		return
	}
	r.fetched.Add(1)
	page.State = model.StateFetched
	page.ContentHash = contentHash(body)

	found := ExtractEmails(body)
	for email := range found {
		if _, known := s.prior[email]; known {
			delete(found, email)
		}
	}
	r.frontier.RecordEmails(found)
	page.Emails = sortedKeys(found)
	if len(page.Emails) > 0 {
		s.logger.Debug("emails found", "url", target.URL, "emails", page.Emails)
	}

	page.Links = make([]string, 0)
	if target.Depth < s.maxDepth {
		for _, link := range s.links.ExtractLinks(target.URL, body) {
			if !r.scope.InScope(link) || !r.scope.Allows(link) || r.frontier.IsClaimed(link) {
				continue
			}
			r.submit(ctx, model.CrawlTarget{URL: link, Depth: target.Depth + 1})
			page.Links = append(page.Links, link)

			if !sleep(ctx, s.submitDelay) {
				break
			}
		}
	}

	page.State = model.StateExpanded
}

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func contentHash(body string) string {
	sum := sha3.Sum256([]byte(body))
	return hex.EncodeToString(sum[:])
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
