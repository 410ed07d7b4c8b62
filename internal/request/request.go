package request

import (
	"time"

	"github.com/ahmethakanbesel/stockmailer/internal/report"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// StockRequest is a stored report request and the outcome of its single
// pipeline run.
type StockRequest struct {
	ID        int64     `json:"id"`
	Symbol    string    `json:"symbol"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	Email     string    `json:"email"`
	Status    Status    `json:"status"`
	Stage     string    `json:"stage,omitempty"`
	Error     string    `json:"error,omitempty"`
	MessageID string    `json:"messageId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Report returns the pipeline input for r.
func (r *StockRequest) Report() report.Request {
	return report.Request{
		Symbol:    r.Symbol,
		StartDate: r.StartDate,
		EndDate:   r.EndDate,
		Email:     r.Email,
	}
}
