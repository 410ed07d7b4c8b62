package request

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ahmethakanbesel/stockmailer/internal/apperror"
	domain "github.com/ahmethakanbesel/stockmailer/internal/request"
)

const (
	dateFormat = "2006-01-02"
	columns    = `id, symbol, start_date, end_date, email, status,
		stage, error, message_id, created_at, updated_at`
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(s rowScanner) (*domain.StockRequest, error) {
	var (
		r                        domain.StockRequest
		startStr, endStr, status string
		createdStr, updatedStr   string
		stage, errMsg, messageID sql.NullString
	)
	if err := s.Scan(
		&r.ID, &r.Symbol, &startStr, &endStr, &r.Email, &status,
		&stage, &errMsg, &messageID, &createdStr, &updatedStr,
	); err != nil {
		return nil, err
	}

	r.Status = domain.Status(status)
	r.Stage = stage.String
	r.Error = errMsg.String
	r.MessageID = messageID.String
	r.StartDate, _ = time.Parse(dateFormat, startStr)
	r.EndDate, _ = time.Parse(dateFormat, endStr)
	r.CreatedAt, _ = time.Parse(time.RFC3339, createdStr)
	r.UpdatedAt, _ = time.Parse(time.RFC3339, updatedStr)
	return &r, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (r *Repository) Create(ctx context.Context, req *domain.StockRequest) error {
	const query = `INSERT INTO stock_requests (symbol, start_date, end_date, email, status)
		VALUES (?, ?, ?, ?, ?)`

	res, err := r.db.ExecContext(ctx, query,
		req.Symbol,
		req.StartDate.Format(dateFormat), req.EndDate.Format(dateFormat),
		req.Email, string(req.Status),
	)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.ID, _ = res.LastInsertId()
	req.CreatedAt = time.Now().UTC().Truncate(time.Second)
	req.UpdatedAt = req.CreatedAt
	return nil
}

func (r *Repository) Update(ctx context.Context, req *domain.StockRequest) error {
	const query = `UPDATE stock_requests SET status = ?, stage = ?, error = ?, message_id = ?,
		updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')
		WHERE id = ?`

	res, err := r.db.ExecContext(ctx, query,
		string(req.Status), nullable(req.Stage), nullable(req.Error), nullable(req.MessageID), req.ID)
	if err != nil {
		return fmt.Errorf("update request: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.New(apperror.NotFound, "request not found")
	}
	req.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	return nil
}

func (r *Repository) Get(ctx context.Context, id int64) (*domain.StockRequest, error) {
	req, err := scanRequest(r.db.QueryRowContext(ctx,
		`SELECT `+columns+` FROM stock_requests WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.New(apperror.NotFound, "request not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	return req, nil
}

func (r *Repository) List(ctx context.Context, status domain.Status, symbol string) ([]domain.StockRequest, error) {
	query := `SELECT ` + columns + ` FROM stock_requests WHERE 1=1`

	var args []any
	if status != "" {
		query += " AND status = ?"
		args = append(args, string(status))
	}
	if symbol != "" {
		query += " AND symbol = ?"
		args = append(args, symbol)
	}
	query += " ORDER BY id DESC LIMIT 100"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	defer func() { _ = rows.Close() }()

	reqs := []domain.StockRequest{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		reqs = append(reqs, *req)
	}
	return reqs, rows.Err()
}

// ClaimPending flips the oldest pending row to running in a single UPDATE,
// so two workers can never claim the same request.
func (r *Repository) ClaimPending(ctx context.Context) (*domain.StockRequest, error) {
	const query = `UPDATE stock_requests
		SET status = 'running', updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')
		WHERE id = (SELECT id FROM stock_requests WHERE status = 'pending' ORDER BY id ASC LIMIT 1)
		  AND status = 'pending'
		RETURNING ` + columns

	req, err := scanRequest(r.db.QueryRowContext(ctx, query))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim pending: %w", err)
	}
	return req, nil
}

func (r *Repository) FailInterrupted(ctx context.Context, reason string) (int64, error) {
	const query = `UPDATE stock_requests SET status = 'failed', error = ?,
		updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')
		WHERE status = 'running'`

	res, err := r.db.ExecContext(ctx, query, reason)
	if err != nil {
		return 0, fmt.Errorf("fail interrupted requests: %w", err)
	}
	return res.RowsAffected()
}
