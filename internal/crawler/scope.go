package crawler

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// Scope decides which discovered URLs a crawl may follow.
//
// A URL is in scope when its host component (port included) is exactly the
// seed's host. There is no subdomain or "www." folding: "www.example.com"
// and "example.com" are different hosts.
type Scope struct {
	host string

	// ignorePatterns are URL path globs to skip (e.g. "/admin/*", "*.pdf").
	ignorePatterns []string

	// followPatterns, when set, restrict the crawl to matching paths.
	followPatterns []string
}

// NewScope creates a Scope for the given seed URL.
func NewScope(seed string) (*Scope, error) {
	u, err := url.Parse(seed)
	if err != nil {
		return nil, err
	}
	if u.Host == "" {
		return nil, fmt.Errorf("seed %q has no host", seed)
	}
	return &Scope{host: u.Host}, nil
}

// WithPatterns returns a copy of s that also applies the given ignore and
// follow path patterns in Allows.
func (s *Scope) WithPatterns(ignore, follow []string) *Scope {
	return &Scope{
		host:           s.host,
		ignorePatterns: ignore,
		followPatterns: follow,
	}
}

// Host returns the seed host the scope compares against.
func (s *Scope) Host() string {
	return s.host
}

// InScope reports whether rawURL is on the seed's host.
// Malformed URLs are never in scope.
func (s *Scope) InScope(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return u.Host != "" && u.Host == s.host
}

// Allows reports whether rawURL passes the ignore and follow patterns.
//
//  1. If the path matches any ignore pattern, it is rejected.
//  2. If follow patterns are set and none matches, it is rejected.
//  3. Otherwise it is allowed.
func (s *Scope) Allows(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	path := u.Path
	if path == "" {
		path = "/"
	}

	for _, pattern := range s.ignorePatterns {
		if matchPattern(pattern, path) {
			return false
		}
	}

	if len(s.followPatterns) == 0 {
		return true
	}
	for _, pattern := range s.followPatterns {
		if matchPattern(pattern, path) {
			return true
		}
	}
	return false
}

// matchPattern checks if a path matches a glob pattern.
//   - "/admin/*" matches "/admin" and anything below it
//   - "*.pdf" matches any path ending in .pdf
//   - other patterns use filepath.Match, falling back to the last path
//     element for patterns without a slash
func matchPattern(pattern, path string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}

	if ext, ok := strings.CutPrefix(pattern, "*"); ok && strings.HasPrefix(ext, ".") {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}

	if matched, err := filepath.Match(pattern, path); err == nil && matched {
		return true
	}

	if strings.Contains(pattern, "*") && !strings.Contains(pattern, "/") {
		matched, err := filepath.Match(pattern, filepath.Base(path))
		return err == nil && matched
	}
	return false
}
