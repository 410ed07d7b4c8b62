package request

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/ahmethakanbesel/stockmailer/internal/report"
	"github.com/ahmethakanbesel/stockmailer/internal/validation"
)

const interruptedReason = "interrupted before completion"

// Runner executes the report pipeline for one request.
type Runner interface {
	Run(ctx context.Context, req report.Request) (*report.DeliveryResult, error)
}

type Service struct {
	repo      Repository
	validator *validation.RequestValidator
	pipeline  Runner
	notify    func() // optional: wake worker pool
}

func NewService(repo Repository, validator *validation.RequestValidator, pipeline Runner) *Service {
	return &Service{repo: repo, validator: validator, pipeline: pipeline}
}

// SetNotify sets a callback invoked when a new pending request is stored.
func (s *Service) SetNotify(fn func()) { s.notify = fn }

// Create validates p and stores it as pending. Rejections are BadRequest
// errors carrying one message per invalid field; nothing is stored then.
func (s *Service) Create(ctx context.Context, p CreateParams) (*StockRequest, error) {
	in := validation.Input{
		Symbol:    strings.TrimSpace(p.Symbol),
		StartDate: p.StartDate,
		EndDate:   p.EndDate,
		Email:     strings.TrimSpace(p.Email),
	}
	if err := s.validator.Check(ctx, in); err != nil {
		return nil, err
	}

	dates := s.validator.Dates()
	start, _ := dates.ParseDate(p.StartDate)
	end, _ := dates.ParseDate(p.EndDate)

	r := &StockRequest{
		Symbol:    in.Symbol,
		StartDate: start,
		EndDate:   end,
		Email:     in.Email,
		Status:    StatusPending,
	}
	if err := s.repo.Create(ctx, r); err != nil {
		return nil, err
	}
	slog.Info("request created", "id", r.ID, "symbol", r.Symbol)

	if s.notify != nil {
		s.notify()
	}
	return r, nil
}

func (s *Service) Get(ctx context.Context, p GetParams) (*StockRequest, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, p.ID)
}

func (s *Service) List(ctx context.Context, p ListParams) ([]StockRequest, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, p.Status, p.Symbol)
}

// FailInterrupted closes out requests a previous process left running. They
// are not re-queued: the pipeline may already have sent the email.
func (s *Service) FailInterrupted(ctx context.Context) error {
	n, err := s.repo.FailInterrupted(ctx, interruptedReason)
	if err != nil {
		return err
	}
	if n > 0 {
		slog.Warn("marked interrupted requests as failed", "count", n)
	}
	return nil
}

// Process implements Processor. Called by the worker pool with a claimed
// (running) request. It runs the pipeline once and records the outcome; a
// pipeline error is returned unmodified.
func (s *Service) Process(ctx context.Context, r *StockRequest) error {
	res, runErr := s.pipeline.Run(ctx, r.Report())

	if runErr != nil {
		r.Status = StatusFailed
		r.Error = runErr.Error()
		var se *report.StageError
		if errors.As(runErr, &se) {
			r.Stage = string(se.Stage)
		}
	} else {
		r.Status = StatusCompleted
		r.Stage = string(report.StageCompleted)
		r.Error = ""
		r.MessageID = res.MessageID
	}

	// The outcome is recorded even when ctx was cancelled mid-run.
	if err := s.repo.Update(context.WithoutCancel(ctx), r); err != nil {
		slog.Error("record request outcome", "id", r.ID, "status", r.Status, "error", err)
	}
	return runErr
}
