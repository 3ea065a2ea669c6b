// Package log provides the structured logger used by emailcrawler, built on
// top of the standard slog package.
//
// The RedactingHandler wraps any slog.Handler and rewrites attributes
// before they are emitted:
//   - credentials from site configuration (Cookie, Authorization and
//     similar headers, tokens, passwords) are replaced with MaskValue
//   - Bearer and Basic authorization values are masked regardless of key
//   - optionally, the local part of every email address is masked so that
//     logs of a crawl can be shared without exposing harvested addresses
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, log.Options{Verbose: true})
//	logger.Info("fetching", "url", "https://example.com", "cookie", "session=abc")
//	// cookie is written as ***REDACTED***
package log
