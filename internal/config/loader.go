package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".emailcrawler"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// LoadConfigFile loads site configurations from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound. Entries with a
// negative depth or a malformed glob yield ErrInvalidSiteConfig.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}

	if cf.Sites == nil {
		cf.Sites = make(map[string]SiteConfig)
	}

	if err := cf.validate(); err != nil {
		return nil, err
	}
	return &cf, nil
}

// validate checks the defaults and then every site in host order, so the
// reported entry does not depend on map iteration.
func (cf *File) validate() error {
	if err := cf.Defaults.validate(); err != nil {
		return fmt.Errorf("%w: defaults: %w", ErrInvalidSiteConfig, err)
	}

	hosts := make([]string, 0, len(cf.Sites))
	for host := range cf.Sites {
		hosts = append(hosts, host)
	}
	sort.Strings(hosts)

	for _, host := range hosts {
		site := cf.Sites[host]
		if err := site.validate(); err != nil {
			return fmt.Errorf("%w: site %q: %w", ErrInvalidSiteConfig, host, err)
		}
	}
	return nil
}

func (sc SiteConfig) validate() error {
	if sc.Depth != nil && *sc.Depth < 0 {
		return fmt.Errorf("depth %d is negative", *sc.Depth)
	}
	for _, pattern := range append(append([]string{}, sc.IgnorePatterns...), sc.FollowPatterns...) {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return fmt.Errorf("pattern %q: %w", pattern, err)
		}
	}
	return nil
}

// FindConfigFile searches for the configuration file in the following order:
//  1. configPath, if specified
//  2. .emailcrawler in the current directory
//  3. .emailcrawler in the user's home directory
//  4. config.yaml in the XDG config directory
//
// It returns the empty string when nothing is found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	candidates := make([]string, 0, 3)
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), "config.yaml"))

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}
