// Package database stores the crawl history of emailcrawler in SQLite.
//
// Every crawl run is recorded with its counters and the emails it
// discovered, together with one row per claimed page (depth, terminal
// state, fetch error, content hash). The history is independent of the
// result table: deleting it loses no results.
//
// The database is a single file, history.db, in the XDG data directory
// (modernc.org/sqlite, no cgo).
package database
