package request

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Processor handles execution of a claimed request.
type Processor interface {
	Process(ctx context.Context, r *StockRequest) error
}

// WorkerPool runs a fixed number of goroutines that claim and process pending
// requests. Claiming is atomic in the repository, so a request is handed to
// exactly one worker, once.
type WorkerPool struct {
	repo         Repository
	processor    Processor
	workers      int
	wake         chan struct{}
	pollInterval time.Duration
}

// PoolOption configures a WorkerPool.
type PoolOption func(*WorkerPool)

// WithPollInterval sets how often idle workers look for pending requests
// without being notified.
func WithPollInterval(d time.Duration) PoolOption {
	return func(wp *WorkerPool) {
		if d > 0 {
			wp.pollInterval = d
		}
	}
}

// NewWorkerPool creates a pool with the given number of workers.
func NewWorkerPool(repo Repository, processor Processor, workers int, opts ...PoolOption) *WorkerPool {
	wp := &WorkerPool{
		repo:         repo,
		processor:    processor,
		workers:      max(workers, 1),
		wake:         make(chan struct{}, 1),
		pollInterval: 5 * time.Second,
	}
	for _, o := range opts {
		o(wp)
	}
	return wp
}

// Notify wakes an idle worker. Non-blocking.
func (wp *WorkerPool) Notify() {
	select {
	case wp.wake <- struct{}{}:
	default:
	}
}

// Run blocks until ctx is cancelled and every worker has finished its
// current request.
func (wp *WorkerPool) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for id := range wp.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			wp.work(ctx, id)
		}()
	}
	wg.Wait()
}

func (wp *WorkerPool) work(ctx context.Context, id int) {
	log := slog.With("worker", id)
	ticker := time.NewTicker(wp.pollInterval)
	defer ticker.Stop()

	for {
		for ctx.Err() == nil {
			r := wp.claim(ctx, log)
			if r == nil {
				break
			}
			wp.process(ctx, log, r)
		}

		select {
		case <-ctx.Done():
			return
		case <-wp.wake:
		case <-ticker.C:
		}
	}
}

func (wp *WorkerPool) claim(ctx context.Context, log *slog.Logger) *StockRequest {
	r, err := wp.repo.ClaimPending(ctx)
	if err != nil {
		if ctx.Err() == nil {
			log.Error("claim pending request", "error", err)
		}
		return nil
	}
	return r
}

// process runs one request. A panic in the processor is logged and the pool
// keeps going; the request stays running and is failed on next startup.
func (wp *WorkerPool) process(ctx context.Context, log *slog.Logger, r *StockRequest) {
	log = log.With("request", r.ID, "symbol", r.Symbol)
	defer func() {
		if p := recover(); p != nil {
			log.Error("processor panicked", "panic", fmt.Sprint(p))
		}
	}()

	log.Info("processing request")
	if err := wp.processor.Process(ctx, r); err != nil {
		log.Error("request failed", "error", err)
		return
	}
	log.Info("request completed")
}
