package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FrankX3M/wordstat-api/internal/domain"
	"github.com/FrankX3M/wordstat-api/internal/integrations/webmaster"
)

type call struct {
	indicator string
	offset    int
}

// fakeClient отвечает по функции от индикатора и смещения
type fakeClient struct {
	mu      sync.Mutex
	calls   []call
	respond func(indicator string, offset int) (any, error)
	onCall  func(c call)
}

func (f *fakeClient) Send(_ context.Context, _, _ string, params url.Values) (*webmaster.Response, error) {
	offset, _ := strconv.Atoi(params.Get("offset"))
	c := call{indicator: params.Get("query_indicator"), offset: offset}

	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()

	if f.onCall != nil {
		f.onCall(c)
	}

	body, err := f.respond(c.indicator, c.offset)
	if err != nil {
		return nil, err
	}
	if raw, ok := body.(string); ok {
		return &webmaster.Response{StatusCode: 200, Body: []byte(raw)}, nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	return &webmaster.Response{StatusCode: 200, Body: data}, nil
}

func (f *fakeClient) offsets() []int {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []int
	seen := map[int]bool{}
	for _, c := range f.calls {
		if !seen[c.offset] {
			seen[c.offset] = true
			out = append(out, c.offset)
		}
	}
	return out
}

type memStore struct {
	cursor domain.FetchCursor
	ok     bool
	saves  []domain.FetchCursor
	err    error
}

func (m *memStore) Load() (domain.FetchCursor, bool) {
	return m.cursor, m.ok
}

func (m *memStore) Save(c domain.FetchCursor) error {
	if m.err != nil {
		return m.err
	}
	m.cursor, m.ok = c, true
	m.saves = append(m.saves, c)
	return nil
}

type countingObserver struct {
	pages     []int
	dropped   []string
	malformed int
}

func (o *countingObserver) ObservePage(n int)                { o.pages = append(o.pages, n) }
func (o *countingObserver) ObserveDroppedIndicator(i string) { o.dropped = append(o.dropped, i) }
func (o *countingObserver) ObserveCoercionFailures(n int)    { o.malformed += n }

func noSleep(context.Context, time.Duration) error { return nil }

func queries(from, n int, indicators map[string]any) map[string]any {
	items := make([]any, 0, n)
	for i := from; i < from+n; i++ {
		items = append(items, map[string]any{
			"query_id":   fmt.Sprintf("q%d", i),
			"query_text": fmt.Sprintf("query %d", i),
			"indicators": indicators,
		})
	}
	return map[string]any{"queries": items}
}

// pages отдаёт total записей страницами, индикатор кладётся в indicators
func pagedResponder(total int) func(string, int) (any, error) {
	return func(indicator string, offset int) (any, error) {
		n := total - offset
		if n > 10 {
			n = 10
		}
		if n < 0 {
			n = 0
		}
		return queries(offset, n, map[string]any{indicator: 1}), nil
	}
}

func newLoop(t *testing.T, client QueryClient, store CheckpointStore, cfg Config, opts ...Option) *Loop {
	t.Helper()

	if cfg.UserID == "" {
		cfg.UserID = "u1"
	}
	if cfg.HostID == "" {
		cfg.HostID = "https:example.com:443"
	}
	if cfg.Limit == 0 {
		cfg.Limit = 10
	}

	opts = append([]Option{
		WithSleeper(noSleep),
		WithClock(func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }),
	}, opts...)

	l, err := New(client, store, cfg, opts...)
	require.NoError(t, err)
	return l
}

func TestRun_ShortPageTerminates(t *testing.T) {
	client := &fakeClient{respond: pagedResponder(25)}
	store := &memStore{}

	var got []domain.QueryRecord
	res, err := newLoop(t, client, store, Config{}).Run(context.Background(), func(b []domain.QueryRecord) error {
		got = append(got, b...)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, StateDrained, res.State)
	assert.Equal(t, []int{0, 10, 20}, client.offsets())
	assert.Len(t, got, 25)
	assert.Equal(t, 3, res.Pages)
	assert.Equal(t, domain.FetchCursor{Offset: 25, TotalFetched: 25, UpdatedAt: store.cursor.UpdatedAt}, res.Cursor)
	assert.Len(t, store.saves, 3)
}

func TestRun_EmptyPageDrains(t *testing.T) {
	client := &fakeClient{respond: pagedResponder(20)}

	res, err := newLoop(t, client, &memStore{}, Config{}).Run(context.Background(), nil)

	require.NoError(t, err)
	assert.Equal(t, StateDrained, res.State)
	assert.Equal(t, []int{0, 10, 20}, client.offsets())
	assert.Equal(t, 20, res.Records)
}

func TestRun_MergesIndicatorsByKey(t *testing.T) {
	client := &fakeClient{respond: func(indicator string, offset int) (any, error) {
		switch indicator {
		case "TOTAL_SHOWS":
			return queries(0, 2, map[string]any{"TOTAL_SHOWS": 100, "AVG_SHOW_POSITION": 3.5}), nil
		case "TOTAL_CLICKS":
			return queries(0, 2, map[string]any{"TOTAL_CLICKS": 10}), nil
		case "AVG_SHOW_POSITION":
			return queries(0, 2, map[string]any{"AVG_SHOW_POSITION": 2.25}), nil
		default:
			return queries(0, 2, map[string]any{}), nil
		}
	}}

	var got []domain.QueryRecord
	_, err := newLoop(t, client, nil, Config{}).Run(context.Background(), func(b []domain.QueryRecord) error {
		got = append(got, b...)
		return nil
	})

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "q0", got[0].QueryID)
	assert.Equal(t, int64(100), got[0].Shows)
	assert.Equal(t, int64(10), got[0].Clicks)
	assert.Equal(t, 0.1, got[0].CTR)
	assert.Equal(t, domain.Float(2.25), got[0].Position)
	assert.False(t, got[0].Demand.Valid)
}

func TestRun_DroppedIndicatorContinues(t *testing.T) {
	client := &fakeClient{respond: func(indicator string, offset int) (any, error) {
		if indicator == "TOTAL_CLICKS" {
			return nil, &webmaster.TransientError{StatusCode: 503, Err: webmaster.ErrServer}
		}
		return pagedResponder(15)(indicator, offset)
	}}
	obs := &countingObserver{}

	res, err := newLoop(t, client, &memStore{}, Config{}, WithObserver(obs)).Run(context.Background(), nil)

	require.NoError(t, err)
	assert.Equal(t, 15, res.Records)
	assert.Equal(t, []string{"TOTAL_CLICKS", "TOTAL_CLICKS"}, obs.dropped)
	assert.Equal(t, []int{10, 5}, obs.pages)
}

func TestRun_AllIndicatorsFailAborts(t *testing.T) {
	client := &fakeClient{respond: func(string, int) (any, error) {
		return nil, &webmaster.TransientError{StatusCode: 500, Err: webmaster.ErrServer}
	}}
	store := &memStore{}

	l := newLoop(t, client, store, Config{})
	_, err := l.Run(context.Background(), nil)

	assert.ErrorIs(t, err, ErrPageFailed)
	assert.True(t, webmaster.IsTransient(err))
	assert.Equal(t, StateFailed, l.State())
	assert.Empty(t, store.saves)
}

func TestRun_FatalAborts(t *testing.T) {
	client := &fakeClient{respond: func(indicator string, offset int) (any, error) {
		if offset == 10 {
			return nil, &webmaster.FatalError{StatusCode: 403, Err: webmaster.ErrUnauthorized}
		}
		return pagedResponder(100)(indicator, offset)
	}}
	store := &memStore{}

	l := newLoop(t, client, store, Config{})
	res, err := l.Run(context.Background(), nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFatal)
	assert.ErrorIs(t, err, webmaster.ErrUnauthorized)
	assert.Equal(t, StateFailed, l.State())
	assert.Equal(t, 10, res.Records)
	assert.Equal(t, 10, store.cursor.Offset)
	// после фатальной ошибки остальные индикаторы страницы не запрашиваются
	assert.Len(t, client.calls, len(DefaultIndicators)+1)
}

func TestRun_CancelDuringPageStillCheckpoints(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := &fakeClient{respond: pagedResponder(100)}
	client.onCall = func(c call) {
		if c.offset == 10 && c.indicator == "TOTAL_CLICKS" {
			cancel()
		}
	}
	store := &memStore{}

	l := newLoop(t, client, store, Config{})
	res, err := l.Run(ctx, nil)

	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, StateCancelled, l.State())
	assert.Equal(t, 20, res.Records)
	assert.Equal(t, 20, store.cursor.Offset)
	assert.Equal(t, []int{0, 10}, client.offsets())
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := &fakeClient{respond: pagedResponder(100)}
	_, err := newLoop(t, client, &memStore{}, Config{}).Run(ctx, nil)

	assert.ErrorIs(t, err, ErrCancelled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, client.calls)
}

func TestRun_ResumesFromCheckpoint(t *testing.T) {
	client := &fakeClient{respond: pagedResponder(35)}
	store := &memStore{cursor: domain.FetchCursor{Offset: 20, TotalFetched: 20}, ok: true}

	res, err := newLoop(t, client, store, Config{}).Run(context.Background(), nil)

	require.NoError(t, err)
	assert.True(t, res.Resumed)
	assert.Equal(t, []int{20, 30}, client.offsets())
	assert.Equal(t, 15, res.Records)
	assert.Equal(t, 35, res.Cursor.TotalFetched)
}

func TestRun_MaxRows(t *testing.T) {
	client := &fakeClient{respond: pagedResponder(100)}
	store := &memStore{}

	var got int
	res, err := newLoop(t, client, store, Config{MaxRows: 15}).Run(context.Background(), func(b []domain.QueryRecord) error {
		got += len(b)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 15, got)
	assert.Equal(t, StateDrained, res.State)
	assert.Equal(t, 15, store.cursor.Offset)
}

func TestRun_ResumeAfterMaxRowsHasNoGap(t *testing.T) {
	store := &memStore{}
	var ids []string
	consume := func(b []domain.QueryRecord) error {
		for _, r := range b {
			ids = append(ids, r.QueryID)
		}
		return nil
	}

	first := &fakeClient{respond: pagedResponder(100)}
	_, err := newLoop(t, first, store, Config{MaxRows: 15}).Run(context.Background(), consume)
	require.NoError(t, err)
	assert.Equal(t, 15, store.cursor.Offset)
	assert.Equal(t, 15, store.cursor.TotalFetched)

	second := &fakeClient{respond: pagedResponder(100)}
	res, err := newLoop(t, second, store, Config{MaxRows: 30}).Run(context.Background(), consume)
	require.NoError(t, err)
	assert.True(t, res.Resumed)
	assert.Equal(t, 15, second.offsets()[0])

	require.Len(t, ids, 30)
	for i, id := range ids {
		assert.Equal(t, fmt.Sprintf("q%d", i), id)
	}
	assert.Equal(t, 30, store.cursor.TotalFetched)
	assert.Equal(t, 30, store.cursor.Offset)
}

func TestRun_ConsumerErrorSkipsCheckpoint(t *testing.T) {
	client := &fakeClient{respond: pagedResponder(100)}
	store := &memStore{}
	boom := errors.New("disk full")

	_, err := newLoop(t, client, store, Config{}).Run(context.Background(), func([]domain.QueryRecord) error {
		return boom
	})

	assert.ErrorIs(t, err, ErrConsumer)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, store.saves)
}

func TestRun_CheckpointFailure(t *testing.T) {
	client := &fakeClient{respond: pagedResponder(100)}
	store := &memStore{err: errors.New("read-only")}

	_, err := newLoop(t, client, store, Config{}).Run(context.Background(), nil)

	assert.ErrorIs(t, err, ErrCheckpoint)
}

func TestRun_UnparsablePayloadIsEmpty(t *testing.T) {
	client := &fakeClient{respond: func(string, int) (any, error) {
		return "<html>oops</html>", nil
	}}

	res, err := newLoop(t, client, &memStore{}, Config{}).Run(context.Background(), nil)

	require.NoError(t, err)
	assert.Equal(t, StateDrained, res.State)
	assert.Zero(t, res.Records)
}

func TestRun_ProgressAndCoercion(t *testing.T) {
	client := &fakeClient{respond: func(indicator string, offset int) (any, error) {
		body := queries(offset, 3, map[string]any{"TOTAL_SHOWS": "n/a"})
		body["total_count"] = 3
		return body, nil
	}}
	obs := &countingObserver{}

	var progress [][2]int
	_, err := newLoop(t, client, nil, Config{Indicators: []string{"TOTAL_SHOWS"}}, WithObserver(obs), WithProgress(func(done, total int, msg string) {
		progress = append(progress, [2]int{done, total})
		assert.NotEmpty(t, msg)
	})).Run(context.Background(), nil)

	require.NoError(t, err)
	assert.Equal(t, [][2]int{{3, 3}}, progress)
	assert.Equal(t, 3, obs.malformed)
}

func TestRun_RequestParams(t *testing.T) {
	var seen url.Values
	client := &fakeClient{respond: func(string, int) (any, error) { return queries(0, 0, nil), nil }}
	wrapped := queryClientFunc(func(ctx context.Context, method, path string, params url.Values) (*webmaster.Response, error) {
		seen = params
		assert.Equal(t, "/user/u1/hosts/https%3Aexample.com%3A443/search-queries/popular", path)
		return client.Send(ctx, method, path, params)
	})

	cfg := Config{
		DateRange:  domain.DateRange{From: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), To: time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)},
		DeviceType: domain.DeviceMobile,
		Indicators: []string{"TOTAL_SHOWS"},
	}
	_, err := newLoop(t, wrapped, nil, cfg).Run(context.Background(), nil)

	require.NoError(t, err)
	assert.Equal(t, "10", seen.Get("limit"))
	assert.Equal(t, "0", seen.Get("offset"))
	assert.Equal(t, "TOTAL_SHOWS", seen.Get("order_by"))
	assert.Equal(t, "MOBILE", seen.Get("device_type_indicator"))
	assert.Equal(t, "2024-01-01", seen.Get("date_from"))
	assert.Equal(t, "2024-01-07", seen.Get("date_to"))
	assert.Equal(t, "TOTAL_SHOWS", seen.Get("query_indicator"))
}

func TestBatches(t *testing.T) {
	client := &fakeClient{respond: pagedResponder(100)}
	store := &memStore{}
	l := newLoop(t, client, store, Config{})

	var sizes []int
	for batch, err := range l.Batches(context.Background()) {
		require.NoError(t, err)
		sizes = append(sizes, len(batch))
		if len(sizes) == 2 {
			break
		}
	}

	assert.Equal(t, []int{10, 10}, sizes)
	assert.Equal(t, 10, store.cursor.Offset)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(&fakeClient{}, nil, Config{HostID: "h"})
	assert.ErrorIs(t, err, ErrInvalidConf)

	l, err := New(&fakeClient{}, nil, Config{UserID: "u", HostID: "h", Limit: 10000})
	require.NoError(t, err)
	assert.Equal(t, MaxLimit, l.Config().Limit)
	assert.Equal(t, domain.DeviceAll, l.Config().DeviceType)
}

type queryClientFunc func(ctx context.Context, method, path string, params url.Values) (*webmaster.Response, error)

func (f queryClientFunc) Send(ctx context.Context, method, path string, params url.Values) (*webmaster.Response, error) {
	return f(ctx, method, path, params)
}
