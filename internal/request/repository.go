package request

import "context"

type Repository interface {
	Create(ctx context.Context, r *StockRequest) error
	Update(ctx context.Context, r *StockRequest) error
	Get(ctx context.Context, id int64) (*StockRequest, error)
	List(ctx context.Context, status Status, symbol string) ([]StockRequest, error)
	// ClaimPending atomically moves the oldest pending request to running
	// and returns it, or returns nil when none is pending.
	ClaimPending(ctx context.Context) (*StockRequest, error)
	// FailInterrupted marks every running request as failed with reason.
	FailInterrupted(ctx context.Context, reason string) (int64, error)
}
