package webmaster

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sleepRecorder struct {
	waits []time.Duration
}

func (s *sleepRecorder) Sleep(_ context.Context, d time.Duration) error {
	s.waits = append(s.waits, d)
	return nil
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *sleepRecorder) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	rec := &sleepRecorder{}
	c := NewClient(Options{
		BaseURL: srv.URL,
		Token:   "token",
		Sleep:   rec.Sleep,
	})
	return c, rec
}

// scripted отвечает заданными статусами по очереди, последний повторяется
func scripted(calls *int32, statuses []int, headers map[int]map[string]string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n := int(atomic.AddInt32(calls, 1)) - 1
		if n >= len(statuses) {
			n = len(statuses) - 1
		}
		for k, v := range headers[n] {
			w.Header().Set(k, v)
		}
		w.WriteHeader(statuses[n])
		_, _ = w.Write([]byte(`{"ok":true}`))
	}
}

func TestSend_SendsAuthAndParams(t *testing.T) {
	var gotAuth, gotQuery, gotPath string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.RawQuery
		gotPath = r.URL.EscapedPath()
		_, _ = w.Write([]byte(`{}`))
	})

	params := url.Values{}
	params.Set("limit", "10")
	resp, err := c.Send(context.Background(), http.MethodGet, PopularQueriesPath("42", "https:example.com:443"), params)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OAuth token", gotAuth)
	assert.Equal(t, "limit=10", gotQuery)
	assert.Equal(t, "/user/42/hosts/https%3Aexample.com%3A443/search-queries/popular", gotPath)
}

func TestSend_RetryAfterHonouredLiterally(t *testing.T) {
	var calls int32
	c, rec := newTestClient(t, scripted(&calls,
		[]int{http.StatusTooManyRequests, http.StatusOK},
		map[int]map[string]string{0: {"Retry-After": "3"}},
	))

	_, err := c.Send(context.Background(), http.MethodGet, "/x", nil)

	require.NoError(t, err)
	assert.Equal(t, int32(2), calls)
	assert.Equal(t, []time.Duration{3 * time.Second}, rec.waits)
}

func TestSend_RetryAfterDefaultsToOneSecond(t *testing.T) {
	var calls int32
	c, rec := newTestClient(t, scripted(&calls,
		[]int{http.StatusTooManyRequests, http.StatusTooManyRequests, http.StatusOK},
		map[int]map[string]string{1: {"Retry-After": "soon"}},
	))

	_, err := c.Send(context.Background(), http.MethodGet, "/x", nil)

	require.NoError(t, err)
	assert.Equal(t, []time.Duration{time.Second, time.Second}, rec.waits)
}

func TestSend_ExponentialBackoffOnServerErrors(t *testing.T) {
	var calls int32
	c, rec := newTestClient(t, scripted(&calls, []int{500, 502, 503}, nil))

	_, err := c.Send(context.Background(), http.MethodGet, "/x", nil)

	require.Error(t, err)
	assert.True(t, IsTransient(err))
	assert.ErrorIs(t, err, ErrServer)
	assert.Equal(t, int32(3), calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, rec.waits)
}

func TestSend_RateLimitDoesNotGrowBackoff(t *testing.T) {
	var calls int32
	c, rec := newTestClient(t, scripted(&calls,
		[]int{http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusOK},
		map[int]map[string]string{0: {"Retry-After": "2"}},
	))

	_, err := c.Send(context.Background(), http.MethodGet, "/x", nil)

	require.NoError(t, err)
	assert.Equal(t, []time.Duration{2 * time.Second, time.Second}, rec.waits)
}

func TestSend_ConnectionResetIsTransient(t *testing.T) {
	var calls int32
	c, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			hj, ok := w.(http.Hijacker)
			require.True(t, ok)
			conn, _, err := hj.Hijack()
			require.NoError(t, err)
			_ = conn.Close()
			return
		}
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := c.Send(context.Background(), http.MethodGet, "/x", nil)

	require.NoError(t, err)
	assert.Equal(t, []time.Duration{time.Second}, rec.waits)
}

func TestSend_FatalStatusNotRetried(t *testing.T) {
	var calls int32
	c, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error_code":"INVALID_PARAM","error_message":"bad date"}`))
	})

	_, err := c.Send(context.Background(), http.MethodGet, "/x", nil)

	require.Error(t, err)
	assert.True(t, IsFatal(err))
	assert.ErrorIs(t, err, ErrRequestRejected)
	assert.Contains(t, err.Error(), "bad date")
	assert.Equal(t, int32(1), calls)
	assert.Empty(t, rec.waits)
}

func TestSend_Unauthorized(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.Send(context.Background(), http.MethodGet, "/x", nil)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.True(t, IsFatal(err))
}

func TestSend_EmptyTokenIsFatal(t *testing.T) {
	c := NewClient(Options{BaseURL: "http://127.0.0.1:1"})

	_, err := c.Send(context.Background(), http.MethodGet, "/x", nil)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.True(t, IsFatal(err))
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, 3*time.Second, parseRetryAfter("3"))
	assert.Equal(t, 0*time.Second, parseRetryAfter("0"))
	assert.Equal(t, time.Second, parseRetryAfter(""))
	assert.Equal(t, time.Second, parseRetryAfter("-5"))
	assert.Equal(t, time.Second, parseRetryAfter("Wed, 21 Oct 2015 07:28:00 GMT"))
}
