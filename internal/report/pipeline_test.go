package report

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmethakanbesel/stockmailer/internal/apperror"
)

// --- mock validator ---
type mockValidator struct {
	err error
}

func (m *mockValidator) Validate(_ context.Context, _ Request) error { return m.err }

// --- mock fetcher ---
type mockFetcher struct {
	raw    []byte
	err    error
	calls  int
	bucket RangeBucket
}

func (m *mockFetcher) Fetch(_ context.Context, _ string, start, end time.Time) ([]byte, error) {
	m.calls++
	m.bucket = Bucket(start, end)
	return m.raw, m.err
}

// --- mock namer ---
type mockNamer struct {
	names map[string]string
}

func (m *mockNamer) DisplayName(_ context.Context, symbol string) string {
	if n, ok := m.names[symbol]; ok {
		return n
	}
	return symbol
}

// --- mock mailer ---
type mockMailer struct {
	mu   sync.Mutex
	sent []Message
	id   string
	err  error
}

func (m *mockMailer) Send(_ context.Context, msg Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.sent = append(m.sent, msg)
	return m.id, nil
}

// --- mock observer ---
type mockObserver struct {
	completed int
	failed    []string
}

func (m *mockObserver) PipelineCompleted(time.Duration) { m.completed++ }
func (m *mockObserver) PipelineFailed(stage string, _ time.Duration) {
	m.failed = append(m.failed, stage)
}

func aaplRequest() Request {
	return Request{
		Symbol:    "AAPL",
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		Email:     "trader@example.com",
	}
}

func TestPipeline_EndToEnd(t *testing.T) {
	fetcher := &mockFetcher{raw: []byte(samplePayload)}
	mailer := &mockMailer{id: "<abc@mail>"}
	obs := &mockObserver{}
	namer := &mockNamer{names: map[string]string{"AAPL": "Apple Inc. - Common Stock"}}

	p := NewPipeline(&mockValidator{}, fetcher, NewDispatcher(namer, mailer, "reports@example.com"), WithObserver(obs))

	res, err := p.Run(context.Background(), aaplRequest())
	require.NoError(t, err)
	assert.True(t, res.Delivered)
	assert.Equal(t, "<abc@mail>", res.MessageID)

	assert.Equal(t, Range1mo, fetcher.bucket)
	require.Len(t, mailer.sent, 1)

	msg := mailer.sent[0]
	assert.Equal(t, "reports@example.com", msg.From)
	assert.Equal(t, "trader@example.com", msg.To)
	assert.Equal(t, "Apple Inc. - Common Stock", msg.Subject)
	assert.Equal(t, "Historical stock data from 2024-01-01 to 2024-01-31", msg.Body)
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "AAPL_stock_data.csv", msg.Attachments[0].Filename)
	assert.Contains(t, string(msg.Attachments[0].Content), "Date,Open,High,Low,Close,Volume\n2024-01-02,187.15,188.44,183.89,185.64,82488700")

	assert.Equal(t, 1, obs.completed)
	assert.Empty(t, obs.failed)
}

func TestPipeline_NameLookupFallsBackToSymbol(t *testing.T) {
	mailer := &mockMailer{}
	p := NewPipeline(&mockValidator{}, &mockFetcher{raw: []byte(samplePayload)},
		NewDispatcher(&mockNamer{}, mailer, "reports@example.com"))

	_, err := p.Run(context.Background(), aaplRequest())
	require.NoError(t, err)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "AAPL", mailer.sent[0].Subject)
}

func TestPipeline_HeaderOnlyExportStillAttached(t *testing.T) {
	raw := `{"chart":{"result":[{"timestamp":[],"indicators":{"quote":[{"open":[],"high":[],"low":[],"close":[],"volume":[]}]}}]}}`
	mailer := &mockMailer{}
	p := NewPipeline(&mockValidator{}, &mockFetcher{raw: []byte(raw)},
		NewDispatcher(&mockNamer{}, mailer, "reports@example.com"))

	_, err := p.Run(context.Background(), aaplRequest())
	require.NoError(t, err)
	require.Len(t, mailer.sent, 1)
	require.Len(t, mailer.sent[0].Attachments, 1)
	assert.Equal(t, "Date,Open,High,Low,Close,Volume", string(mailer.sent[0].Attachments[0].Content))
}

func TestPipeline_ValidationFailureStopsBeforeFetch(t *testing.T) {
	fetcher := &mockFetcher{raw: []byte(samplePayload)}
	mailer := &mockMailer{}
	p := NewPipeline(&mockValidator{err: apperror.Validation(map[string]string{"symbol": "Invalid company symbol"})},
		fetcher, NewDispatcher(&mockNamer{}, mailer, ""))

	_, err := p.Run(context.Background(), aaplRequest())
	require.Error(t, err)

	var se *StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, StageValidating, se.Stage)
	assert.True(t, apperror.Is(err, apperror.BadRequest))
	assert.Zero(t, fetcher.calls)
	assert.Empty(t, mailer.sent)
}

func TestPipeline_UpstreamFailure(t *testing.T) {
	obs := &mockObserver{}
	mailer := &mockMailer{}
	fetcher := &mockFetcher{err: apperror.Wrap(apperror.Upstream, "fetch chart", errors.New("connection refused"))}
	p := NewPipeline(&mockValidator{}, fetcher, NewDispatcher(&mockNamer{}, mailer, ""), WithObserver(obs))

	_, err := p.Run(context.Background(), aaplRequest())
	require.Error(t, err)

	var se *StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, StageFetching, se.Stage)
	assert.True(t, apperror.Is(err, apperror.Upstream))
	assert.Empty(t, mailer.sent)
	assert.Equal(t, []string{"fetching"}, obs.failed)
}

func TestPipeline_ConfigurationFailure(t *testing.T) {
	fetcher := &mockFetcher{err: apperror.New(apperror.Configuration, "provider endpoint is not configured")}
	p := NewPipeline(&mockValidator{}, fetcher, NewDispatcher(&mockNamer{}, &mockMailer{}, ""))

	_, err := p.Run(context.Background(), aaplRequest())
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.Configuration))
	assert.False(t, apperror.Is(err, apperror.Upstream))
}

func TestPipeline_MalformedPayload(t *testing.T) {
	mailer := &mockMailer{}
	p := NewPipeline(&mockValidator{}, &mockFetcher{raw: []byte(`{"chart":{}}`)},
		NewDispatcher(&mockNamer{}, mailer, ""))

	_, err := p.Run(context.Background(), aaplRequest())

	var se *StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, StageNormalizing, se.Stage)
	assert.True(t, apperror.Is(err, apperror.MalformedPayload))
	assert.Empty(t, mailer.sent)
}

func TestPipeline_DeliveryFailure(t *testing.T) {
	mailer := &mockMailer{err: errors.New("535 authentication failed")}
	p := NewPipeline(&mockValidator{}, &mockFetcher{raw: []byte(samplePayload)},
		NewDispatcher(&mockNamer{}, mailer, ""))

	_, err := p.Run(context.Background(), aaplRequest())

	var se *StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, StageDispatching, se.Stage)
	assert.True(t, apperror.Is(err, apperror.Delivery))
	assert.ErrorContains(t, err, "535 authentication failed")
}

func TestDispatcher_PassesThroughConfigurationError(t *testing.T) {
	mailer := &mockMailer{err: apperror.New(apperror.Configuration, "smtp host is not configured")}
	d := NewDispatcher(&mockNamer{}, mailer, "")

	_, err := d.Dispatch(context.Background(), "a@b.co", "AAPL", time.Now(), time.Now(), "Date,Open,High,Low,Close,Volume")
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.Configuration))
	assert.False(t, apperror.Is(err, apperror.Delivery))
}

func TestPipeline_ConcurrentRuns(t *testing.T) {
	mailer := &mockMailer{}
	p := NewPipeline(&mockValidator{}, &stubFetcher{raw: []byte(samplePayload)},
		NewDispatcher(&mockNamer{}, mailer, ""))

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.Run(context.Background(), aaplRequest())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Len(t, mailer.sent, 8)
}

// stubFetcher is a stateless fetcher safe for concurrent use.
type stubFetcher struct {
	raw []byte
}

func (s *stubFetcher) Fetch(context.Context, string, time.Time, time.Time) ([]byte, error) {
	return s.raw, nil
}
