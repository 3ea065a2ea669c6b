package model

// CrawlTarget is a single unit of crawl work: a URL and the link distance
// from the seed at which it was discovered. The seed itself has depth 0.
type CrawlTarget struct {
	// URL is the absolute URL to fetch.
	URL string

	// Depth is the number of link hops from the seed URL.
	Depth int
}

// TargetState is the lifecycle state of a CrawlTarget.
//
// A target moves PENDING -> CLAIMED -> FETCHED and ends either EXPANDED
// (its links were queued) or TERMINATED (depth exceeded, already claimed,
// fetch failed or empty body).
type TargetState int

const (
	// StatePending is the state of a target that has been submitted but not
	// yet picked up by a worker.
	StatePending TargetState = iota

	// StateClaimed means the worker won the claim on the URL and may fetch it.
	StateClaimed

	// StateFetched means the page body has been retrieved.
	StateFetched

	// StateExpanded is terminal: emails were recorded and in-scope links
	// were submitted as new targets.
	StateExpanded

	// StateTerminated is terminal: the branch ends here without expansion.
	StateTerminated
)

// String returns the upper-case name of the state.
func (s TargetState) String() string {
	switch s {
	case StatePending:
		return "PENDING"
	case StateClaimed:
		return "CLAIMED"
	case StateFetched:
		return "FETCHED"
	case StateExpanded:
		return "EXPANDED"
	case StateTerminated:
		return "TERMINATED"
	default:
		return "UNKNOWN"
	}
}

// IsTerminal reports whether no further transition can happen.
func (s TargetState) IsTerminal() bool {
	return s == StateExpanded || s == StateTerminated
}
