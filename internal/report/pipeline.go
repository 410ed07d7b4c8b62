package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Stage names a step of the pipeline.
type Stage string

const (
	StageValidating  Stage = "validating"
	StageFetching    Stage = "fetching"
	StageNormalizing Stage = "normalizing"
	StageRendering   Stage = "rendering"
	StageDispatching Stage = "dispatching"
	StageCompleted   Stage = "completed"
)

// StageError is the terminal failure of a pipeline run: the stage that failed
// and the error it failed with.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// Validator gates entry into the pipeline.
type Validator interface {
	Validate(ctx context.Context, req Request) error
}

// Fetcher returns the provider's raw chart payload for a symbol and range.
type Fetcher interface {
	Fetch(ctx context.Context, symbol string, start, end time.Time) ([]byte, error)
}

// Observer is notified of every finished run.
type Observer interface {
	PipelineCompleted(elapsed time.Duration)
	PipelineFailed(stage string, elapsed time.Duration)
}

type noopObserver struct{}

func (noopObserver) PipelineCompleted(time.Duration)      {}
func (noopObserver) PipelineFailed(string, time.Duration) {}

// Pipeline runs validate, fetch, normalize, render and dispatch in order for
// one request. It holds no per-request state and is safe for concurrent use.
type Pipeline struct {
	validator  Validator
	fetcher    Fetcher
	dispatcher *Dispatcher
	observer   Observer
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithObserver sets the observer notified after each run.
func WithObserver(o Observer) PipelineOption {
	return func(p *Pipeline) { p.observer = o }
}

func NewPipeline(validator Validator, fetcher Fetcher, dispatcher *Dispatcher, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		validator:  validator,
		fetcher:    fetcher,
		dispatcher: dispatcher,
		observer:   noopObserver{},
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Run executes the pipeline once. On failure it returns a *StageError for the
// first stage that failed; later stages do not run.
func (p *Pipeline) Run(ctx context.Context, req Request) (*DeliveryResult, error) {
	started := time.Now()
	log := slog.With("symbol", req.Symbol, "startDate", req.StartDate.Format(dateFormat), "endDate", req.EndDate.Format(dateFormat))

	fail := func(stage Stage, err error) (*DeliveryResult, error) {
		p.observer.PipelineFailed(string(stage), time.Since(started))
		log.Error("pipeline failed", "stage", stage, "error", err)
		return nil, &StageError{Stage: stage, Err: err}
	}

	if err := p.validator.Validate(ctx, req); err != nil {
		return fail(StageValidating, err)
	}

	raw, err := p.fetcher.Fetch(ctx, req.Symbol, req.StartDate, req.EndDate)
	if err != nil {
		return fail(StageFetching, err)
	}

	records, err := Normalize(raw)
	if err != nil {
		return fail(StageNormalizing, err)
	}

	export, err := Render(records)
	if err != nil {
		return fail(StageRendering, err)
	}

	result, err := p.dispatcher.Dispatch(ctx, req.Email, req.Symbol, req.StartDate, req.EndDate, export)
	if err != nil {
		return fail(StageDispatching, err)
	}

	p.observer.PipelineCompleted(time.Since(started))
	log.Info("pipeline completed", "records", len(records), "messageID", result.MessageID)
	return result, nil
}
