package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platewise/backend/internal/apperrors"
)

func newTestClient(opts ...Option) (*Client, *apperrors.Sink) {
	sink := apperrors.NewSink(nil)
	return New(sink, nil, opts...), sink
}

func TestGetSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client, sink := newTestClient()
	res := client.Get(context.Background(), srv.URL, nil)

	require.True(t, res.Success)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	var body struct {
		OK bool `json:"ok"`
	}
	require.NoError(t, res.Decode(&body))
	assert.True(t, body.OK)
	assert.Empty(t, sink.Recent())
}

func TestPostSendsJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client, _ := newTestClient()
	res := client.Post(context.Background(), srv.URL, map[string]string{"name": "test"}, &Options{
		Headers: map[string]string{"Authorization": "Bearer token-123"},
	})

	require.True(t, res.Success)
	assert.Equal(t, http.StatusCreated, res.StatusCode)
}

func TestRetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, sink := newTestClient()
	res := client.Get(context.Background(), srv.URL, &Options{Retries: 3, RetryDelay: time.Millisecond})

	require.True(t, res.Success)
	assert.Equal(t, int32(3), calls.Load())
	assert.Empty(t, sink.Recent())
}

func TestExhaustionYieldsAPIError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client, sink := newTestClient()
	res := client.Get(context.Background(), srv.URL, &Options{Retries: 2, RetryDelay: time.Millisecond})

	require.False(t, res.Success)
	// retries+1 total attempts
	assert.Equal(t, int32(3), calls.Load())
	require.NotNil(t, res.Err)
	assert.Equal(t, apperrors.KindAPI, res.Err.Kind)
	assert.Equal(t, http.StatusBadGateway, res.StatusCode)

	// Terminal failure was reported to the sink.
	require.Len(t, sink.Recent(), 1)
	assert.Equal(t, res.Err.ID, sink.Recent()[0].ID)
}

func TestNoRetryMakesSingleAttempt(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client, _ := newTestClient()
	res := client.Get(context.Background(), srv.URL, &Options{Retries: NoRetry})

	require.False(t, res.Success)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, apperrors.KindAPI, res.Err.Kind)
}

func TestTimeoutClassifiedAsNetwork(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client, _ := newTestClient()
	res := client.Get(context.Background(), srv.URL, &Options{
		Timeout:    10 * time.Millisecond,
		Retries:    1,
		RetryDelay: time.Millisecond,
	})

	require.False(t, res.Success)
	require.NotNil(t, res.Err)
	assert.Equal(t, apperrors.KindNetwork, res.Err.Kind)
	assert.True(t, res.Err.Retryable)
}

func TestOfflineProbeForcesNetworkKind(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client, _ := newTestClient(WithOfflineProbe(func() bool { return true }))
	res := client.Get(context.Background(), srv.URL, &Options{Retries: 1, RetryDelay: time.Millisecond})

	require.False(t, res.Success)
	assert.Equal(t, apperrors.KindNetwork, res.Err.Kind)
}

func TestUnreachableHostIsNetworkError(t *testing.T) {
	client, _ := newTestClient()
	res := client.Get(context.Background(), "http://127.0.0.1:1", &Options{Retries: 1, RetryDelay: time.Millisecond})

	require.False(t, res.Success)
	assert.Equal(t, apperrors.KindNetwork, res.Err.Kind)
}

func TestDecodeFailureResultReturnsError(t *testing.T) {
	res := Result{Err: apperrors.NewAPI("status 500")}
	var v struct{}
	err := res.Decode(&v)
	assert.Equal(t, res.Err, err)
}
