package crawler

import (
	"net/url"
	"slices"
	"strings"
	"sync"
)

// Frontier tracks the URLs dispatched during one crawl and the emails it
// discovered. All methods are safe for concurrent use; the underlying sets
// are never handed out.
//
// A claimed URL stays claimed for the lifetime of the Frontier.
type Frontier struct {
	mu      sync.Mutex
	visited map[string]struct{}
	emails  map[string]struct{}
}

// NewFrontier returns an empty Frontier.
func NewFrontier() *Frontier {
	return &Frontier{
		visited: make(map[string]struct{}),
		emails:  make(map[string]struct{}),
	}
}

// TryClaim marks rawURL as dispatched. It returns true only for the first
// caller; every later call for the same URL returns false and the caller
// must not fetch it.
func (f *Frontier) TryClaim(rawURL string) bool {
	key := claimKey(rawURL)

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.visited[key]; ok {
		return false
	}
	f.visited[key] = struct{}{}
	return true
}

// IsClaimed reports whether rawURL has already been claimed.
// The answer may be stale by the time the caller acts on it.
func (f *Frontier) IsClaimed(rawURL string) bool {
	key := claimKey(rawURL)

	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.visited[key]
	return ok
}

// RecordEmails adds emails to the discovered set.
func (f *Frontier) RecordEmails(emails map[string]struct{}) {
	if len(emails) == 0 {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for email := range emails {
		f.emails[email] = struct{}{}
	}
}

// SnapshotEmails returns the discovered emails in sorted order.
func (f *Frontier) SnapshotEmails() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	emails := make([]string, 0, len(f.emails))
	for email := range f.emails {
		emails = append(emails, email)
	}
	slices.Sort(emails)
	return emails
}

// Claimed returns the number of claimed URLs.
func (f *Frontier) Claimed() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.visited)
}

// claimKey normalizes a URL for deduplication: the fragment is dropped,
// scheme and host are lowercased, and an empty path becomes "/".
// Unparseable input is used as is.
func claimKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.Fragment = ""
	u.RawFragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String()
}
