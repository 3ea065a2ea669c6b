package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate and NormalizeSeed so callers
// can use errors.Is for programmatic handling. All of them are fatal: they
// are reported before any page is fetched.
var (
	// ErrNoTarget is returned when no seed URL is given.
	ErrNoTarget = errors.New("no target specified: provide at least one seed URL")

	// ErrInvalidSeed is returned when a seed URL cannot be parsed or has no host.
	ErrInvalidSeed = errors.New("invalid seed URL")

	// ErrInvalidMaxDepth is returned when the maximum depth is negative.
	// Depth 0 is valid and means only the seed page is fetched.
	ErrInvalidMaxDepth = errors.New("invalid max depth: must be non-negative")

	// ErrInvalidMaxWorkers is returned when the worker pool size is not positive.
	ErrInvalidMaxWorkers = errors.New("invalid worker count: must be positive")

	// ErrInvalidTimeout is returned when the fetch timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidSubmitDelay is returned when the inter-submission delay is negative.
	// Use 0 to disable throttling.
	ErrInvalidSubmitDelay = errors.New("invalid submit delay: must be non-negative")

	// ErrInvalidBatchSize is returned when the number of concurrent seeds is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidReportFormat is returned for a report format other than
	// text, json or markdown.
	ErrInvalidReportFormat = errors.New("invalid report format: must be text, json or markdown")

	// ErrNoOutput is returned when the result table destination is empty.
	ErrNoOutput = errors.New("no output specified: provide a result file path")

	// ErrInvalidSiteConfig is returned by LoadConfigFile when an entry has a
	// negative depth or a malformed URL pattern.
	ErrInvalidSiteConfig = errors.New("invalid site configuration")
)
