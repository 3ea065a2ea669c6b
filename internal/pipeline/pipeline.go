package pipeline

import (
	"context"
	"log/slog"
)

// Step is one stage of a seed's pipeline.
type Step interface {
	// Do executes the step. Non-critical problems should be recorded in
	// the job and return nil.
	Do(ctx context.Context, job *Job) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline executes steps in order, then its final steps.
type Pipeline struct {
	steps      []Step
	finalSteps []Step

	logger *slog.Logger

	// continueOnError keeps running regular steps after one fails.
	continueOnError bool
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures the pipeline to run the remaining regular
// steps after one fails.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a new Pipeline with the given options.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps:      make([]Step, 0),
		finalSteps: make([]Step, 0),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a regular step.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple regular steps.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// AddFinalStep appends a step that always runs after the regular steps,
// whether they succeeded, failed, or were cancelled.
func (p *Pipeline) AddFinalStep(step Step) {
	p.finalSteps = append(p.finalSteps, step)
}

// Execute runs the regular steps, stopping at cancellation or at the first
// error unless continueOnError is set, and then every final step with a
// context that is no longer cancelled.
//
// It returns the first error encountered. Errors are also recorded in
// job.Summary.Error.
func (p *Pipeline) Execute(ctx context.Context, job *Job) error {
	var firstErr error

	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"seed", job.Seed,
				"reason", err,
			)
			job.fail(err)
			firstErr = err
			break
		}

		if err := p.run(ctx, step, job); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			if !p.continueOnError {
				break
			}
		}
	}

	finalCtx := context.WithoutCancel(ctx)
	for _, step := range p.finalSteps {
		if err := p.run(finalCtx, step, job); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

func (p *Pipeline) run(ctx context.Context, step Step, job *Job) error {
	p.logger.Debug("executing step", "step", step.Name(), "seed", job.Seed)

	if err := step.Do(ctx, job); err != nil {
		p.logger.Error("step failed",
			"step", step.Name(),
			"seed", job.Seed,
			"error", err,
		)
		job.fail(err)
		return err
	}

	p.logger.Debug("step completed", "step", step.Name(), "seed", job.Seed)
	job.PerformedSteps = append(job.PerformedSteps, step.Name())
	return nil
}

// StepCount returns the number of regular and final steps.
func (p *Pipeline) StepCount() int {
	return len(p.steps) + len(p.finalSteps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, 0, p.StepCount())
	for _, step := range p.steps {
		names = append(names, step.Name())
	}
	for _, step := range p.finalSteps {
		names = append(names, step.Name())
	}
	return names
}
