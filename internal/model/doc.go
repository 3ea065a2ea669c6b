// Package model defines the data structures shared by the crawler, the
// result store, the history database and the report writers.
//
// This package contains the following main types:
//   - CrawlTarget: a URL waiting to be crawled at a given depth
//   - TargetState: the lifecycle state of a CrawlTarget
//   - Record: one (Domain, Email) row of the result table
//   - RunSummary: the outcome of one crawl run
//
// Models live in their own package so that crawler, store, database and
// report can all use them without import cycles.
package model
