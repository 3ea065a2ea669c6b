package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestNewConfig verifies the documented defaults.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default MaxDepth is 2", func(t *testing.T) {
		t.Parallel()
		if cfg.MaxDepth != 2 {
			t.Errorf("expected MaxDepth 2, got %d", cfg.MaxDepth)
		}
	})

	t.Run("default MaxWorkers is 10", func(t *testing.T) {
		t.Parallel()
		if cfg.MaxWorkers != 10 {
			t.Errorf("expected MaxWorkers 10, got %d", cfg.MaxWorkers)
		}
	})

	t.Run("default OutputFile is emails.xlsx", func(t *testing.T) {
		t.Parallel()
		if cfg.OutputFile != "emails.xlsx" {
			t.Errorf("expected OutputFile emails.xlsx, got %q", cfg.OutputFile)
		}
	})

	t.Run("default SubmitDelay is 500ms", func(t *testing.T) {
		t.Parallel()
		if cfg.SubmitDelay != 500*time.Millisecond {
			t.Errorf("expected SubmitDelay 500ms, got %v", cfg.SubmitDelay)
		}
	})

	t.Run("default Timeout is 10 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.Timeout != 10*time.Second {
			t.Errorf("expected Timeout 10s, got %v", cfg.Timeout)
		}
	})

	t.Run("default UserAgent is Mozilla/5.0", func(t *testing.T) {
		t.Parallel()
		if cfg.UserAgent != "Mozilla/5.0" {
			t.Errorf("expected UserAgent Mozilla/5.0, got %q", cfg.UserAgent)
		}
	})

	t.Run("history is saved by default", func(t *testing.T) {
		t.Parallel()
		if !cfg.SaveHistory {
			t.Error("expected SaveHistory to be true")
		}
		if cfg.HistoryDir == "" {
			t.Error("expected non-empty HistoryDir")
		}
	})

	t.Run("default report format is text", func(t *testing.T) {
		t.Parallel()
		if cfg.ReportFormat != ReportFormatText {
			t.Errorf("expected text report format, got %q", cfg.ReportFormat)
		}
	})
}

// TestConfigValidate tests one validation rule per case.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	validConfig := func() *Config {
		cfg := NewConfig()
		cfg.Seeds = []string{"https://example.com"}
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{name: "valid config returns nil", mutate: func(*Config) {}},
		{name: "depth zero is valid", mutate: func(c *Config) { c.MaxDepth = 0 }},
		{name: "zero delay is valid", mutate: func(c *Config) { c.SubmitDelay = 0 }},
		{name: "no seeds", mutate: func(c *Config) { c.Seeds = nil }, wantErr: ErrNoTarget},
		{name: "negative depth", mutate: func(c *Config) { c.MaxDepth = -1 }, wantErr: ErrInvalidMaxDepth},
		{name: "zero workers", mutate: func(c *Config) { c.MaxWorkers = 0 }, wantErr: ErrInvalidMaxWorkers},
		{name: "zero timeout", mutate: func(c *Config) { c.Timeout = 0 }, wantErr: ErrInvalidTimeout},
		{name: "negative delay", mutate: func(c *Config) { c.SubmitDelay = -time.Second }, wantErr: ErrInvalidSubmitDelay},
		{name: "zero batch", mutate: func(c *Config) { c.BatchSize = 0 }, wantErr: ErrInvalidBatchSize},
		{name: "negative body size", mutate: func(c *Config) { c.MaxBodySize = -1 }, wantErr: ErrInvalidMaxBodySize},
		{name: "blank output", mutate: func(c *Config) { c.OutputFile = "  " }, wantErr: ErrNoOutput},
		{name: "unknown report format", mutate: func(c *Config) { c.ReportFormat = "xml" }, wantErr: ErrInvalidReportFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

// TestNormalizeSeed tests scheme defaulting and rejection of malformed seeds.
func TestNormalizeSeed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "bare host gets https", input: "example.com", want: "https://example.com"},
		{name: "surrounding space trimmed", input: "  example.com/path ", want: "https://example.com/path"},
		{name: "http kept", input: "http://example.com", want: "http://example.com"},
		{name: "https kept as typed", input: "https://Example.com/a?b=c", want: "https://Example.com/a?b=c"},
		{name: "empty", input: "", wantErr: true},
		{name: "scheme without host", input: "https://", wantErr: true},
		{name: "invalid host characters", input: "https://exa mple.com", wantErr: true},
		{name: "host starting with http", input: "httpbin.org", want: "https://httpbin.org"},
		{name: "host starting with http and path", input: "httpwatch.com/contact", want: "https://httpwatch.com/contact"},
		{name: "unsupported scheme", input: "ftp://example.com", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := NormalizeSeed(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidSeed) {
					t.Errorf("expected ErrInvalidSeed, got %v (result %q)", err, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestConfigNormalizeSeeds(t *testing.T) {
	t.Parallel()

	t.Run("normalizes all seeds in place", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.Seeds = []string{"example.com", "http://other.org"}
		if err := cfg.NormalizeSeeds(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Seeds[0] != "https://example.com" || cfg.Seeds[1] != "http://other.org" {
			t.Errorf("unexpected seeds: %v", cfg.Seeds)
		}
	})

	t.Run("stops at malformed seed", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.Seeds = []string{"example.com", "https://"}
		if err := cfg.NormalizeSeeds(); !errors.Is(err, ErrInvalidSeed) {
			t.Errorf("expected ErrInvalidSeed, got %v", err)
		}
	})
}

func TestConfigSiteConfigFor(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	cfg.SiteConfigs = &File{
		Defaults: SiteConfig{Depth: intPtr(1)},
		Sites: map[string]SiteConfig{
			"example.com": {Depth: intPtr(4), Cookie: "session=abc"},
			"shallow.example": {Depth: intPtr(0)},
		},
	}

	t.Run("matches by host", func(t *testing.T) {
		t.Parallel()
		site := cfg.SiteConfigFor("https://example.com/start")
		if site.Depth == nil || *site.Depth != 4 || site.Cookie != "session=abc" {
			t.Errorf("unexpected site config: %+v", site)
		}
		if got := cfg.DepthFor(site); got != 4 {
			t.Errorf("expected depth 4, got %d", got)
		}
	})

	t.Run("falls back to defaults", func(t *testing.T) {
		t.Parallel()
		site := cfg.SiteConfigFor("https://unknown.org")
		if got := cfg.DepthFor(site); got != 1 {
			t.Errorf("expected default depth 1, got %d", got)
		}
	})

	t.Run("site depth zero overrides global depth", func(t *testing.T) {
		t.Parallel()
		site := cfg.SiteConfigFor("https://shallow.example/")
		if got := cfg.DepthFor(site); got != 0 {
			t.Errorf("expected depth 0, got %d", got)
		}
	})

	t.Run("nil site configs yields global depth", func(t *testing.T) {
		t.Parallel()
		plain := NewConfig()
		site := plain.SiteConfigFor("https://example.com")
		if got := plain.DepthFor(site); got != DefaultMaxDepth {
			t.Errorf("expected depth %d, got %d", DefaultMaxDepth, got)
		}
	})
}

// TestFileGetSiteConfig tests merging of site entries over defaults.
func TestFileGetSiteConfig(t *testing.T) {
	t.Parallel()

	t.Run("returns defaults when site not found", func(t *testing.T) {
		t.Parallel()

		file := &File{
			Defaults: SiteConfig{Depth: intPtr(3), Cookie: "default_cookie=abc"},
			Sites:    map[string]SiteConfig{},
		}

		cfg := file.GetSiteConfig("unknown.example")
		if cfg.Depth == nil || *cfg.Depth != 3 {
			t.Errorf("expected depth 3, got %v", cfg.Depth)
		}
		if cfg.Cookie != "default_cookie=abc" {
			t.Errorf("expected default cookie, got %q", cfg.Cookie)
		}
	})

	t.Run("site headers merge with defaults without mutating them", func(t *testing.T) {
		t.Parallel()

		file := &File{
			Defaults: SiteConfig{
				Headers: map[string]string{"Accept-Language": "en", "Authorization": "default"},
			},
			Sites: map[string]SiteConfig{
				"example.com": {Headers: map[string]string{"Authorization": "site"}},
			},
		}

		cfg := file.GetSiteConfig("example.com")
		if cfg.Headers["Authorization"] != "site" {
			t.Errorf("expected site header to win, got %q", cfg.Headers["Authorization"])
		}
		if cfg.Headers["Accept-Language"] != "en" {
			t.Errorf("expected default header to be kept, got %q", cfg.Headers["Accept-Language"])
		}
		if file.Defaults.Headers["Authorization"] != "default" {
			t.Error("defaults were modified by GetSiteConfig")
		}
	})

	t.Run("site patterns override defaults", func(t *testing.T) {
		t.Parallel()

		file := &File{
			Defaults: SiteConfig{IgnorePatterns: []string{"/default/*"}},
			Sites: map[string]SiteConfig{
				"example.com": {
					IgnorePatterns: []string{"/admin/*"},
					FollowPatterns: []string{"/team/*"},
				},
			},
		}

		cfg := file.GetSiteConfig("example.com")
		if len(cfg.IgnorePatterns) != 1 || cfg.IgnorePatterns[0] != "/admin/*" {
			t.Errorf("expected site ignore patterns, got %v", cfg.IgnorePatterns)
		}
		if len(cfg.FollowPatterns) != 1 || cfg.FollowPatterns[0] != "/team/*" {
			t.Errorf("expected site follow patterns, got %v", cfg.FollowPatterns)
		}
	})

	t.Run("nil sites map", func(t *testing.T) {
		t.Parallel()

		file := &File{Defaults: SiteConfig{Depth: intPtr(5)}}
		if cfg := file.GetSiteConfig("any.example"); cfg.Depth == nil || *cfg.Depth != 5 {
			t.Errorf("expected depth 5, got %v", cfg.Depth)
		}
	})
}

func TestLoadConfigFileRejectsInvalidSites(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "negative site depth",
			content: "sites:\n  example.com:\n    depth: -1\n",
		},
		{
			name:    "malformed ignore pattern",
			content: "defaults:\n  ignorePatterns:\n    - \"/admin/[\"\n",
		},
		{
			name:    "malformed follow pattern",
			content: "sites:\n  example.com:\n    followPatterns:\n      - \"[a-\"\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), ".emailcrawler")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}

			if _, err := LoadConfigFile(path); !errors.Is(err, ErrInvalidSiteConfig) {
				t.Errorf("LoadConfigFile() error = %v, want ErrInvalidSiteConfig", err)
			}
		})
	}
}

// TestLoadConfigFile tests the YAML loader.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadConfigFile("/nonexistent/path/.emailcrawler")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("expected ErrConfigNotFound, got: %v", err)
		}
		if cfg != nil {
			t.Error("expected nil config when file not found")
		}
	})

	t.Run("loads valid YAML config", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".emailcrawler")
		content := `defaults:
  depth: 3
sites:
  example.com:
    depth: 1
    cookie: "session=xyz"
    headers:
      Accept-Language: "de"
    ignorePatterns:
      - "*.pdf"
    followPatterns:
      - "/contact*"
`
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cfg, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Defaults.Depth == nil || *cfg.Defaults.Depth != 3 {
			t.Errorf("expected default depth 3, got %v", cfg.Defaults.Depth)
		}

		site, ok := cfg.Sites["example.com"]
		if !ok {
			t.Fatal("expected example.com in sites")
		}
		if site.Depth == nil || *site.Depth != 1 || site.Cookie != "session=xyz" {
			t.Errorf("unexpected site config: %+v", site)
		}
		if site.Headers["Accept-Language"] != "de" {
			t.Errorf("expected Accept-Language header, got %v", site.Headers)
		}
		if len(site.IgnorePatterns) != 1 || len(site.FollowPatterns) != 1 {
			t.Errorf("unexpected patterns: %+v", site)
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".emailcrawler")
		if err := os.WriteFile(configPath, []byte(`invalid: yaml: content: [}`), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfigFile(configPath); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})

	t.Run("initializes nil Sites map", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".emailcrawler")
		if err := os.WriteFile(configPath, []byte("defaults:\n  depth: 1\n"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cfg, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Sites == nil {
			t.Error("expected Sites map to be initialized")
		}
	})
}

// TestFindConfigFile tests the explicit-path branch of the search.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns explicit path if exists", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(configPath, []byte("defaults: {}"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if result := FindConfigFile(configPath); result != configPath {
			t.Errorf("expected %q, got %q", configPath, result)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		t.Parallel()

		if result := FindConfigFile("/nonexistent/path/config.yaml"); result != "" {
			t.Errorf("expected empty string, got %q", result)
		}
	})
}

func TestXDGDirs(t *testing.T) {
	t.Parallel()

	if XDGDataDir() == "" {
		t.Error("expected non-empty XDG data dir")
	}
	if XDGConfigDir() == "" {
		t.Error("expected non-empty XDG config dir")
	}
}

func TestLoadConfigFileSiteDepthZero(t *testing.T) {
	t.Parallel()

	configPath := filepath.Join(t.TempDir(), ".emailcrawler")
	content := "sites:\n  example.com:\n    depth: 0\n  other.example:\n    cookie: \"a=b\"\n"
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	file, err := LoadConfigFile(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg := NewConfig()
	cfg.SiteConfigs = file
	if got := cfg.DepthFor(cfg.SiteConfigFor("https://example.com/")); got != 0 {
		t.Errorf("expected explicit depth 0, got %d", got)
	}
	if got := cfg.DepthFor(cfg.SiteConfigFor("https://other.example/")); got != DefaultMaxDepth {
		t.Errorf("expected global depth %d, got %d", DefaultMaxDepth, got)
	}
}

func intPtr(n int) *int {
	return &n
}
