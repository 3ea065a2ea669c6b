package config

// SiteConfig holds per-host configuration. It lets a crawl of one site send
// extra headers or a session cookie and narrow which paths are followed.
type SiteConfig struct {
	// Cookie is an HTTP cookie sent with every request to this site.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are extra HTTP headers sent with every request to this site.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Depth overrides the global max depth for this site.
	// If unset, the global value is used. 0 fetches only the seed.
	Depth *int `yaml:"depth,omitempty"`

	// IgnorePatterns are URL path globs that are never followed.
	IgnorePatterns []string `yaml:"ignorePatterns,omitempty"`

	// FollowPatterns restrict crawling to URL paths matching at least one glob.
	// Empty means every in-scope path is followed.
	FollowPatterns []string `yaml:"followPatterns,omitempty"`
}

// File represents the structure of the .emailcrawler configuration file.
type File struct {
	// Sites maps a host (e.g. "example.com" or "example.com:8080") to its
	// site-specific configuration.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults apply to every site unless overridden.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the configuration for host merged over the defaults.
// Non-zero site fields win; headers are merged key by key.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults
	if len(cf.Defaults.Headers) > 0 {
		result.Headers = make(map[string]string, len(cf.Defaults.Headers))
		for k, v := range cf.Defaults.Headers {
			result.Headers[k] = v
		}
	}

	siteConfig, ok := cf.Sites[host]
	if !ok {
		return result
	}

	if siteConfig.Cookie != "" {
		result.Cookie = siteConfig.Cookie
	}
	if siteConfig.Depth != nil {
		result.Depth = siteConfig.Depth
	}
	if len(siteConfig.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string)
		}
		for k, v := range siteConfig.Headers {
			result.Headers[k] = v
		}
	}
	if len(siteConfig.IgnorePatterns) > 0 {
		result.IgnorePatterns = siteConfig.IgnorePatterns
	}
	if len(siteConfig.FollowPatterns) > 0 {
		result.FollowPatterns = siteConfig.FollowPatterns
	}

	return result
}
