// Package config provides configuration structures and utilities for
// emailcrawler. It defines crawl limits, fetch settings, the result table
// destination, and per-site overrides loaded from a YAML file.
package config
