package model

import (
	"sort"
	"time"
)

// Record is one row of the persisted result table.
// Email is unique across the whole table; Domain is the seed URL of the
// crawl that first found the address.
type Record struct {
	// Domain is the seed URL used for the crawl that discovered Email.
	Domain string `json:"domain"`

	// Email is the address exactly as it appeared in the page text.
	Email string `json:"email"`
}

// NewRecords builds one Record per email, all attributed to domain.
// The emails are sorted so that the resulting table is stable across runs.
func NewRecords(domain string, emails []string) []Record {
	sorted := make([]string, len(emails))
	copy(sorted, emails)
	sort.Strings(sorted)

	records := make([]Record, 0, len(sorted))
	for _, email := range sorted {
		records = append(records, Record{Domain: domain, Email: email})
	}
	return records
}

// RunSummary describes the outcome of a single crawl run.
// It is produced by the pipeline, printed by the report writers and stored
// in the history database.
type RunSummary struct {
	// ID is the history database identifier. Zero when not persisted.
	ID int64 `json:"id,omitempty"`

	// Seed is the normalised seed URL.
	Seed string `json:"seed"`

	// Output is the result table the run merged into.
	Output string `json:"output"`

	// StartedAt is when the crawl began.
	StartedAt time.Time `json:"startedAt"`

	// FinishedAt is when results were handed to the result store.
	FinishedAt time.Time `json:"finishedAt"`

	// PagesFetched counts pages whose body was retrieved.
	PagesFetched int `json:"pagesFetched"`

	// PagesFailed counts claimed pages whose fetch failed.
	PagesFailed int `json:"pagesFailed"`

	// URLsClaimed is the final size of the visited set.
	URLsClaimed int `json:"urlsClaimed"`

	// NewEmails are the addresses discovered in this run that were not
	// already known before it started.
	NewEmails []string `json:"newEmails"`

	// Added is the number of rows appended to the result table.
	Added int `json:"added"`

	// TotalRecords is the size of the result table after the merge.
	TotalRecords int `json:"totalRecords"`

	// Error holds the reason a run could not complete, if any.
	Error string `json:"error,omitempty"`
}

// NewRunSummary creates a RunSummary for the given seed and output.
func NewRunSummary(seed, output string) *RunSummary {
	return &RunSummary{
		Seed:      seed,
		Output:    output,
		NewEmails: make([]string, 0),
	}
}

// Elapsed returns the wall-clock duration of the run.
// It returns zero if the run has not finished.
func (r *RunSummary) Elapsed() time.Duration {
	if r.FinishedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Failed reports whether the run ended with an error.
func (r *RunSummary) Failed() bool {
	return r.Error != ""
}
