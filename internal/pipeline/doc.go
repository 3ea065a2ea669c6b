// Package pipeline runs one crawl per seed as a sequence of steps and
// processes several seeds concurrently.
//
// A seed's pipeline loads the emails already stored, optionally opens a
// history record, crawls, and then runs its final steps: merging the
// discovered emails into the result table and closing the history record.
// Final steps run even when an earlier step failed or the context was
// cancelled, so an interrupted crawl still saves what it found.
//
// BatchProcessor fans seeds out with errgroup, bounded by the configured
// batch size.
package pipeline
