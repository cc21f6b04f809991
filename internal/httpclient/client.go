// Package httpclient wraps net/http with per-call timeouts, retry with
// exponential backoff, and a uniform success/error result shape. Failures
// never surface as Go errors to the caller; they are converted into the
// application's error taxonomy and reported to the error sink.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/platewise/backend/internal/apperrors"
	"github.com/platewise/backend/internal/retry"
)

const (
	defaultTimeout    = 10 * time.Second
	defaultRetries    = 3
	defaultRetryDelay = time.Second
)

// NoRetry disables retrying when set as Options.Retries, for callers whose
// writes are not idempotent or that layer their own retry policy on top.
const NoRetry = -1

// Options tunes a single call. Zero values fall back to the defaults above;
// a negative Retries means a single attempt.
type Options struct {
	Timeout    time.Duration
	Retries    int
	RetryDelay time.Duration
	Headers    map[string]string
}

// Result is the uniform outcome shape. Exactly one of Data or Err is
// meaningful depending on Success.
type Result struct {
	Success    bool
	StatusCode int
	Data       []byte
	Err        *apperrors.AppError
}

// Decode unmarshals the response body into v.
func (r Result) Decode(v interface{}) error {
	if !r.Success {
		return r.Err
	}
	return json.Unmarshal(r.Data, v)
}

// Client issues JSON requests with retry and timeout handling.
type Client struct {
	http    *http.Client
	sink    *apperrors.Sink
	logger  *zap.Logger
	offline func() bool
}

// Option configures a Client.
type Option func(*Client)

// WithOfflineProbe installs a connectivity probe consulted when classifying
// terminal failures.
func WithOfflineProbe(probe func() bool) Option {
	return func(c *Client) { c.offline = probe }
}

// WithHTTPClient replaces the underlying transport, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a Client reporting terminal failures to sink.
func New(sink *apperrors.Sink, logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		http:   &http.Client{},
		sink:   sink,
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, url string, opts *Options) Result {
	return c.do(ctx, http.MethodGet, url, nil, opts)
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, url string, body interface{}, opts *Options) Result {
	return c.do(ctx, http.MethodPost, url, body, opts)
}

// Put issues a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, url string, body interface{}, opts *Options) Result {
	return c.do(ctx, http.MethodPut, url, body, opts)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, url string, opts *Options) Result {
	return c.do(ctx, http.MethodDelete, url, nil, opts)
}

// do retries POST/PUT identically to GET; callers are expected to make
// writes idempotent-by-id.
func (c *Client) do(ctx context.Context, method, url string, body interface{}, opts *Options) Result {
	if opts == nil {
		opts = &Options{}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	retries := opts.Retries
	if retries < 0 {
		retries = 0
	} else if retries == 0 {
		retries = defaultRetries
	}
	delay := opts.RetryDelay
	if delay <= 0 {
		delay = defaultRetryDelay
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			appErr := apperrors.NewUnknown(fmt.Sprintf("marshal request body: %v", err)).WithCause(err)
			c.sink.Report(appErr)
			return Result{Err: appErr}
		}
	}

	var (
		lastStatus int
		lastBody   []byte
		lastErr    error
	)

	attempt := func() error {
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(callCtx, method, url, reader)
		if err != nil {
			lastErr = err
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range opts.Headers {
			req.Header.Set(k, v)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			lastErr = err
			return err
		}

		lastStatus = resp.StatusCode
		lastBody = data
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			lastErr = fmt.Errorf("unexpected status %d", resp.StatusCode)
			return lastErr
		}
		lastErr = nil
		return nil
	}

	err := retry.Do(ctx, retry.Config{
		MaxAttempts: retries + 1,
		Delay:       delay,
		Strategy:    retry.Exponential,
	}, attempt)

	if err == nil {
		return Result{Success: true, StatusCode: lastStatus, Data: lastBody}
	}

	appErr := c.classify(method, url, lastStatus, lastBody, lastErr)
	c.sink.Report(appErr)
	return Result{StatusCode: lastStatus, Err: appErr}
}

// classify distinguishes network failures (offline, timeout, transport) from
// provider-level API failures.
func (c *Client) classify(method, url string, status int, body []byte, err error) *apperrors.AppError {
	offline := c.offline != nil && c.offline()

	var netErr net.Error
	timedOut := errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout())

	var appErr *apperrors.AppError
	switch {
	case offline || timedOut:
		appErr = apperrors.NewNetwork(fmt.Sprintf("%s %s: %v", method, url, err))
	case status > 0:
		appErr = apperrors.NewAPI(fmt.Sprintf("%s %s: status %d: %s", method, url, status, truncate(body, 256)))
	case err != nil:
		appErr = apperrors.NewNetwork(fmt.Sprintf("%s %s: %v", method, url, err))
	default:
		appErr = apperrors.NewUnknown(fmt.Sprintf("%s %s failed", method, url))
	}
	return appErr.WithCause(err).WithContext("url", url).WithContext("method", method)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
