package crawler

import "testing"

func TestNewScope(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		seed     string
		wantHost string
		wantErr  bool
	}{
		{name: "https seed", seed: "https://example.com", wantHost: "example.com"},
		{name: "seed with port", seed: "http://127.0.0.1:8080/start", wantHost: "127.0.0.1:8080"},
		{name: "missing scheme has no host", seed: "example.com", wantErr: true},
		{name: "malformed", seed: "http://[::1", wantErr: true},
		{name: "empty", seed: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			scope, err := NewScope(tt.seed)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tt.seed)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if scope.Host() != tt.wantHost {
				t.Errorf("Host() = %q, want %q", scope.Host(), tt.wantHost)
			}
		})
	}
}

func TestScopeInScope(t *testing.T) {
	t.Parallel()

	scope, err := NewScope("https://example.com")
	if err != nil {
		t.Fatalf("NewScope() error = %v", err)
	}

	tests := []struct {
		name string
		url  string
		want bool
	}{
		{name: "same host", url: "https://example.com/a", want: true},
		{name: "same host other scheme", url: "http://example.com/b", want: true},
		{name: "other host", url: "https://other.com/b", want: false},
		{name: "subdomain", url: "https://www.example.com/", want: false},
		{name: "parent suffix trick", url: "https://example.com.evil.net/", want: false},
		{name: "port differs", url: "https://example.com:8443/", want: false},
		{name: "relative url", url: "/a", want: false},
		{name: "malformed", url: "https://exa mple.com/%zz", want: false},
		{name: "empty", url: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := scope.InScope(tt.url); got != tt.want {
				t.Errorf("InScope(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestScopeAllows(t *testing.T) {
	t.Parallel()

	base, err := NewScope("https://example.com")
	if err != nil {
		t.Fatalf("NewScope() error = %v", err)
	}

	tests := []struct {
		name   string
		ignore []string
		follow []string
		url    string
		want   bool
	}{
		{name: "no patterns", url: "https://example.com/anything", want: true},
		{name: "ignored directory", ignore: []string{"/admin/*"}, url: "https://example.com/admin/users", want: false},
		{name: "ignored directory root", ignore: []string{"/admin/*"}, url: "https://example.com/admin", want: false},
		{name: "ignored extension", ignore: []string{"*.pdf"}, url: "https://example.com/docs/a.pdf", want: false},
		{name: "not ignored", ignore: []string{"/admin/*"}, url: "https://example.com/contact", want: true},
		{name: "follow matches", follow: []string{"/team/*"}, url: "https://example.com/team/alice", want: true},
		{name: "follow misses", follow: []string{"/team/*"}, url: "https://example.com/blog/post", want: false},
		{name: "empty path is root", follow: []string{"/"}, url: "https://example.com", want: true},
		{
			name:   "ignore wins over follow",
			ignore: []string{"/team/private*"},
			follow: []string{"/team/*"},
			url:    "https://example.com/team/private-notes",
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			scope := base.WithPatterns(tt.ignore, tt.follow)
			if got := scope.Allows(tt.url); got != tt.want {
				t.Errorf("Allows(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestMatchPattern(t *testing.T) {
	t.Parallel()

	tests := []struct {
		pattern string
		path    string
		want    bool
	}{
		{pattern: "/admin/*", path: "/admin/dashboard", want: true},
		{pattern: "/admin/*", path: "/administrator", want: false},
		{pattern: "*.pdf", path: "/docs/file.pdf", want: true},
		{pattern: "*.pdf", path: "/docs/file.pdf.html", want: false},
		{pattern: "/api/v?", path: "/api/v1", want: true},
		{pattern: "/logout*", path: "/logout-now", want: true},
		{pattern: "report-*", path: "/files/report-2024", want: true},
		{pattern: "[", path: "/anything", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"_"+tt.path, func(t *testing.T) {
			t.Parallel()

			if got := matchPattern(tt.pattern, tt.path); got != tt.want {
				t.Errorf("matchPattern(%q, %q) = %v, want %v", tt.pattern, tt.path, got, tt.want)
			}
		})
	}
}
