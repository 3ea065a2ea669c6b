// Package crawler implements the bounded-depth, same-host email crawl.
//
// A crawl starts at a seed URL and expands the link graph breadth-wise up
// to a maximum depth. Every page that is fetched is scanned for email-like
// tokens, and every link that stays on the seed's host is submitted as a new
// target. The pieces are:
//
//   - Scope decides whether a URL belongs to the seed's host and matches the
//     configured ignore/follow patterns.
//   - Frontier is the only shared mutable state of a crawl. It owns the set
//     of claimed URLs and the set of discovered emails.
//   - Fetcher retrieves page text. HTTPFetcher is the production
//     implementation and may route through a SOCKS5 proxy.
//   - LinkExtractor maps page text to absolute URLs. HTMLLinkExtractor walks
//     the DOM with golang.org/x/net/html.
//   - Spider drives the expansion on a bounded worker pool and waits for
//     every submitted target, including targets submitted by other targets.
//
// Fetch and parse failures end only the branch they occur in. They are
// never retried and never returned from Crawl.
package crawler
