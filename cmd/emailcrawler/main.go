// Package main provides the entry point for the emailcrawler CLI.
//
// emailcrawler crawls a website starting from one or more seed URLs, stays
// on each seed's host, collects email addresses, and merges the new ones
// into a persistent result table.
//
// Usage:
//
//	emailcrawler crawl <url>...
//	emailcrawler history [url]
//
// See --help for all available options.
package main

func main() {
	Execute()
}
