package pipeline

import (
	"github.com/nao1215/emailcrawler/internal/crawler"
	"github.com/nao1215/emailcrawler/internal/model"
)

// Job carries the state of one seed through the pipeline.
type Job struct {
	// Seed is the normalised seed URL.
	Seed string

	// Summary is filled in by the steps and reported at the end.
	Summary *model.RunSummary

	// Prior holds the emails that were stored before the crawl started.
	Prior map[string]struct{}

	// Result is the crawl outcome. Nil if the crawl did not run or failed
	// before dispatching anything.
	Result *crawler.Result

	// Observers receive every claimed page during the crawl.
	Observers []crawler.PageObserver

	// PerformedSteps lists the names of the steps that completed.
	PerformedSteps []string
}

// NewJob creates a Job for seed writing to output.
func NewJob(seed, output string) *Job {
	return &Job{
		Seed:           seed,
		Summary:        model.NewRunSummary(seed, output),
		Prior:          make(map[string]struct{}),
		PerformedSteps: make([]string, 0),
	}
}

// fail records err as the job's error unless one is already recorded.
func (j *Job) fail(err error) {
	if j.Summary.Error == "" {
		j.Summary.Error = err.Error()
	}
}

// observe fans a page out to every observer.
func (j *Job) observe(page crawler.PageResult) {
	for _, o := range j.Observers {
		o(page)
	}
}
