package request

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmethakanbesel/stockmailer/internal/apperror"
	"github.com/ahmethakanbesel/stockmailer/internal/report"
	"github.com/ahmethakanbesel/stockmailer/internal/validation"
)

// --- mock repo ---
type mockRepo struct {
	mu      sync.Mutex
	reqs    map[int64]*StockRequest
	nextID  int64
	updates int
}

func newMockRepo() *mockRepo {
	return &mockRepo{reqs: make(map[int64]*StockRequest), nextID: 1}
}

func (m *mockRepo) Create(_ context.Context, r *StockRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = m.nextID
	m.nextID++
	cp := *r
	m.reqs[r.ID] = &cp
	return nil
}

func (m *mockRepo) Update(_ context.Context, r *StockRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates++
	cp := *r
	m.reqs[r.ID] = &cp
	return nil
}

func (m *mockRepo) Get(_ context.Context, id int64) (*StockRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reqs[id]
	if !ok {
		return nil, apperror.New(apperror.NotFound, "request not found")
	}
	cp := *r
	return &cp, nil
}

func (m *mockRepo) List(_ context.Context, status Status, symbol string) ([]StockRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]StockRequest, 0, len(m.reqs))
	for _, r := range m.reqs {
		if status != "" && r.Status != status {
			continue
		}
		if symbol != "" && r.Symbol != symbol {
			continue
		}
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockRepo) ClaimPending(_ context.Context) (*StockRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id := int64(1); id < m.nextID; id++ {
		r, ok := m.reqs[id]
		if ok && r.Status == StatusPending {
			r.Status = StatusRunning
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockRepo) FailInterrupted(_ context.Context, reason string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, r := range m.reqs {
		if r.Status == StatusRunning {
			r.Status = StatusFailed
			r.Error = reason
			n++
		}
	}
	return n, nil
}

// --- mock symbols ---
type listedSymbols map[string]bool

func (l listedSymbols) Exists(_ context.Context, symbol string) bool { return l[symbol] }

// --- mock pipeline ---
type mockRunner struct {
	mu   sync.Mutex
	runs []report.Request
	res  *report.DeliveryResult
	err  error
}

func (m *mockRunner) Run(_ context.Context, req report.Request) (*report.DeliveryResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, req)
	return m.res, m.err
}

func newTestService(repo Repository, runner Runner) *Service {
	policy := validation.NewDateRangePolicy(validation.WithClock(func() time.Time {
		return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	}))
	v := validation.NewRequestValidator(listedSymbols{"AAPL": true}, policy)
	return NewService(repo, v, runner)
}

func validParams() CreateParams {
	return CreateParams{
		Symbol:    "AAPL",
		StartDate: "2024-01-01",
		EndDate:   "2024-01-31",
		Email:     "trader@example.com",
	}
}

func TestService_Create(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, &mockRunner{})
	notified := false
	svc.SetNotify(func() { notified = true })

	r, err := svc.Create(context.Background(), validParams())
	require.NoError(t, err)

	assert.Equal(t, int64(1), r.ID)
	assert.Equal(t, StatusPending, r.Status)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), r.StartDate)
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), r.EndDate)
	assert.True(t, notified)
}

func TestService_Create_ValidationError(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, &mockRunner{})

	p := validParams()
	p.Symbol = "ZZZZ"
	p.EndDate = "2024-07-01"

	_, err := svc.Create(context.Background(), p)
	require.Error(t, err)

	var ae *apperror.AppError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, apperror.BadRequest, ae.Code())
	assert.Equal(t, "Invalid company symbol", ae.Fields()["symbol"])
	assert.Equal(t, "End date cannot be in the future", ae.Fields()["endDate"])
	assert.Empty(t, repo.reqs, "rejected request must not be stored")
}

func TestService_Get_InvalidID(t *testing.T) {
	svc := newTestService(newMockRepo(), &mockRunner{})
	_, err := svc.Get(context.Background(), GetParams{ID: 0})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.BadRequest))
}

func TestService_List(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, &mockRunner{})
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &StockRequest{Symbol: "AAPL", Status: StatusPending}))
	require.NoError(t, repo.Create(ctx, &StockRequest{Symbol: "MSFT", Status: StatusFailed}))

	reqs, err := svc.List(ctx, ListParams{Status: StatusFailed})
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, "MSFT", reqs[0].Symbol)

	_, err = svc.List(ctx, ListParams{Status: "bogus"})
	assert.True(t, apperror.Is(err, apperror.BadRequest))
}

func TestService_Process_Completed(t *testing.T) {
	repo := newMockRepo()
	runner := &mockRunner{res: &report.DeliveryResult{Delivered: true, MessageID: "id-1"}}
	svc := newTestService(repo, runner)
	ctx := context.Background()

	r, err := svc.Create(ctx, validParams())
	require.NoError(t, err)

	require.NoError(t, svc.Process(ctx, r))

	got, _ := repo.Get(ctx, r.ID)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, "completed", got.Stage)
	assert.Equal(t, "id-1", got.MessageID)
	require.Len(t, runner.runs, 1)
	assert.Equal(t, "AAPL", runner.runs[0].Symbol)
	assert.Equal(t, "trader@example.com", runner.runs[0].Email)
}

func TestService_Process_FailedPropagatesError(t *testing.T) {
	repo := newMockRepo()
	stageErr := &report.StageError{
		Stage: report.StageFetching,
		Err:   apperror.Wrap(apperror.Upstream, "fetch chart", errors.New("timeout")),
	}
	svc := newTestService(repo, &mockRunner{err: stageErr})
	ctx := context.Background()

	r, err := svc.Create(ctx, validParams())
	require.NoError(t, err)

	err = svc.Process(ctx, r)
	assert.Same(t, stageErr, err, "pipeline error must be returned unmodified")

	got, _ := repo.Get(ctx, r.ID)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, "fetching", got.Stage)
	assert.Contains(t, got.Error, "timeout")
}

func TestService_Process_RecordsOutcomeAfterCancel(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, &mockRunner{err: context.Canceled})

	r, err := svc.Create(context.Background(), validParams())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = svc.Process(ctx, r)

	got, _ := repo.Get(context.Background(), r.ID)
	assert.Equal(t, StatusFailed, got.Status)
}

func TestService_FailInterrupted(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, &mockRunner{})
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &StockRequest{Symbol: "AAPL", Status: StatusRunning}))
	require.NoError(t, repo.Create(ctx, &StockRequest{Symbol: "AAPL", Status: StatusPending}))

	require.NoError(t, svc.FailInterrupted(ctx))

	first, _ := repo.Get(ctx, 1)
	assert.Equal(t, StatusFailed, first.Status)
	assert.Equal(t, interruptedReason, first.Error)
	second, _ := repo.Get(ctx, 2)
	assert.Equal(t, StatusPending, second.Status, "pending requests are left alone")
}
