package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// The crawl limits mirror what a polite single-site email crawl needs: a
// shallow depth, a small worker pool and a pause between submissions.
const (
	// DefaultMaxDepth is the maximum link distance from the seed.
	DefaultMaxDepth = 2

	// DefaultMaxWorkers is the size of the worker pool.
	DefaultMaxWorkers = 10

	// DefaultOutputFile is the result table written after each run.
	// The extension selects the storage backend.
	DefaultOutputFile = "emails.xlsx"

	// DefaultSubmitDelay is the pause after each child submission from one
	// parent page. It throttles per-parent fan-out, not the global rate.
	DefaultSubmitDelay = 500 * time.Millisecond

	// DefaultTimeout bounds each individual HTTP request.
	DefaultTimeout = 10 * time.Second

	// DefaultUserAgent is the client identity sent with every request.
	DefaultUserAgent = "Mozilla/5.0"

	// DefaultMaxBodySize limits how much of a response body is read.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultBatchSize is the number of seeds crawled concurrently.
	DefaultBatchSize = 1

	// AppName is the application name used for XDG directory paths.
	AppName = "emailcrawler"
)

// Report formats accepted by Config.ReportFormat.
const (
	ReportFormatText     = "text"
	ReportFormatJSON     = "json"
	ReportFormatMarkdown = "markdown"
)

// Config holds all configuration options for one emailcrawler invocation.
// It is populated from CLI flags, validated once, and then treated as
// immutable for the duration of the run.
type Config struct {
	// Seeds are the URLs to start crawling from. Each seed gets its own
	// crawl with its own visited set.
	Seeds []string

	// MaxDepth is the maximum link distance from the seed.
	// 0 means only the seed page, 1 adds the pages it links to, etc.
	MaxDepth int

	// MaxWorkers is the number of pages processed concurrently per seed.
	MaxWorkers int

	// OutputFile is the result table path. Supported extensions are
	// .xlsx, .csv, .db, .sqlite and .sqlite3.
	OutputFile string

	// SubmitDelay is the pause after submitting each child link.
	SubmitDelay time.Duration

	// Timeout bounds each HTTP request.
	Timeout time.Duration

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string

	// MaxBodySize is the maximum number of response bytes read per page.
	// 0 means DefaultMaxBodySize.
	MaxBodySize int64

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" format.
	// Empty means direct connections.
	ProxyAddress string

	// BatchSize is the number of seeds crawled concurrently.
	BatchSize int

	// Verbose enables debug logging.
	Verbose bool

	// LogJSON switches log output to JSON lines.
	LogJSON bool

	// ReportFormat selects the run report format: text, json or markdown.
	ReportFormat string

	// ConfigFilePath is the explicit path to the site configuration file.
	// If empty, FindConfigFile searches the default locations.
	ConfigFilePath string

	// SiteConfigs holds per-host overrides loaded from the config file.
	SiteConfigs *File

	// SaveHistory records every run in the history database.
	SaveHistory bool

	// HistoryDir is the directory of the history database.
	// Defaults to the XDG data directory.
	HistoryDir string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		MaxDepth:     DefaultMaxDepth,
		MaxWorkers:   DefaultMaxWorkers,
		OutputFile:   DefaultOutputFile,
		SubmitDelay:  DefaultSubmitDelay,
		Timeout:      DefaultTimeout,
		UserAgent:    DefaultUserAgent,
		MaxBodySize:  DefaultMaxBodySize,
		BatchSize:    DefaultBatchSize,
		ReportFormat: ReportFormatText,
		SaveHistory:  true,
		HistoryDir:   XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for emailcrawler.
// On Linux: ~/.local/share/emailcrawler
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for emailcrawler.
// On Linux: ~/.config/emailcrawler
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid and returns the first
// problem found.
func (c *Config) Validate() error {
	if len(c.Seeds) == 0 {
		return ErrNoTarget
	}
	if c.MaxDepth < 0 {
		return ErrInvalidMaxDepth
	}
	if c.MaxWorkers <= 0 {
		return ErrInvalidMaxWorkers
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.SubmitDelay < 0 {
		return ErrInvalidSubmitDelay
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if strings.TrimSpace(c.OutputFile) == "" {
		return ErrNoOutput
	}
	switch c.ReportFormat {
	case ReportFormatText, ReportFormatJSON, ReportFormatMarkdown:
	default:
		return ErrInvalidReportFormat
	}
	return nil
}

// NormalizeSeeds normalises every seed in place with NormalizeSeed.
// It stops at the first malformed seed.
func (c *Config) NormalizeSeeds() error {
	for i, seed := range c.Seeds {
		normalized, err := NormalizeSeed(seed)
		if err != nil {
			return err
		}
		c.Seeds[i] = normalized
	}
	return nil
}

// NormalizeSeed prepends "https://" to a seed that carries no "://" scheme
// separator and checks that the result is an absolute http(s) URL with a
// host.
// The returned string is otherwise kept exactly as typed, because it is
// also the Domain value written to the result table.
func NormalizeSeed(raw string) (string, error) {
	seed := strings.TrimSpace(raw)
	if seed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidSeed)
	}
	if !strings.Contains(seed, "://") {
		seed = "https://" + seed
	}

	u, err := url.Parse(seed)
	if err != nil {
		return "", fmt.Errorf("%w %q: %w", ErrInvalidSeed, raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w %q: unsupported scheme %q", ErrInvalidSeed, raw, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w %q: missing host", ErrInvalidSeed, raw)
	}
	return seed, nil
}

// SiteConfigFor returns the site configuration that applies to seed.
// Lookup is by the seed's host; defaults apply when no entry matches.
func (c *Config) SiteConfigFor(seed string) SiteConfig {
	if c.SiteConfigs == nil {
		return SiteConfig{}
	}
	u, err := url.Parse(seed)
	if err != nil {
		return c.SiteConfigs.Defaults
	}
	return c.SiteConfigs.GetSiteConfig(u.Host)
}

// DepthFor returns the effective maximum depth for a site: the site
// override when set, including an override of 0, otherwise the global
// MaxDepth.
func (c *Config) DepthFor(site SiteConfig) int {
	if site.Depth != nil {
		return *site.Depth
	}
	return c.MaxDepth
}
