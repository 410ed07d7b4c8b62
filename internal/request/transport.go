package request

import "github.com/ahmethakanbesel/stockmailer/internal/apperror"

// CreateParams is a submission as received from a client. Dates are
// YYYY-MM-DD text.
type CreateParams struct {
	Symbol    string `json:"symbol"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Email     string `json:"email"`
}

type GetParams struct {
	ID int64
}

func (p GetParams) Validate() *apperror.AppError {
	if p.ID <= 0 {
		return apperror.New(apperror.BadRequest, "invalid request id")
	}
	return nil
}

type ListParams struct {
	Status Status
	Symbol string
}

func (p ListParams) Validate() *apperror.AppError {
	switch p.Status {
	case "", StatusPending, StatusRunning, StatusCompleted, StatusFailed:
		return nil
	default:
		return apperror.New(apperror.BadRequest, "status must be pending, running, completed or failed")
	}
}
