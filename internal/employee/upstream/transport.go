// Package upstream talks to the employee upstream service: a retrying HTTP
// transport plus a client that unwraps the {"data": ...} envelope and
// translates upstream records into models.Employee.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"roster/internal/employee/metrics"
	"roster/internal/employee/tracer"
)

const (
	DefaultBaseDelay  = 200 * time.Millisecond
	DefaultMaxRetries = 3
	DefaultTimeout    = 10 * time.Second
)

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Sleeper waits for d or until ctx is done, whichever comes first.
type Sleeper func(ctx context.Context, d time.Duration) error

// Transport issues HTTP calls to the upstream and retries 429 responses
// with exponential backoff. All other failures are returned immediately.
type Transport struct {
	baseURL    string
	client     HTTPDoer
	timeout    time.Duration
	baseDelay  time.Duration
	maxRetries int
	sleep      Sleeper
	limiter    *rate.Limiter
	metrics    *metrics.Metrics
	tracer     tracer.Tracer
	health     *Health
	logger     *slog.Logger
}

// Option configures a Transport.
type Option func(*Transport)

// WithHTTPClient sets a custom HTTP client (for testing).
func WithHTTPClient(client HTTPDoer) Option {
	return func(t *Transport) {
		t.client = client
	}
}

// WithTimeout sets the timeout of the default HTTP client.
// It is ignored when WithHTTPClient is also given, whatever the option order.
func WithTimeout(d time.Duration) Option {
	return func(t *Transport) {
		if d > 0 {
			t.timeout = d
		}
	}
}

// WithBaseDelay sets the wait before the first retry. Each further retry doubles it.
func WithBaseDelay(d time.Duration) Option {
	return func(t *Transport) {
		if d > 0 {
			t.baseDelay = d
		}
	}
}

// WithMaxRetries sets how many times a 429 is retried after the first attempt.
func WithMaxRetries(n int) Option {
	return func(t *Transport) {
		if n >= 0 {
			t.maxRetries = n
		}
	}
}

// WithSleeper replaces the backoff wait. Tests use it to record delays.
func WithSleeper(s Sleeper) Option {
	return func(t *Transport) {
		if s != nil {
			t.sleep = s
		}
	}
}

// WithRateLimiter paces every attempt through l.
func WithRateLimiter(l *rate.Limiter) Option {
	return func(t *Transport) {
		t.limiter = l
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(t *Transport) {
		t.metrics = m
	}
}

func WithTracer(tr tracer.Tracer) Option {
	return func(t *Transport) {
		if tr != nil {
			t.tracer = tr
		}
	}
}

// WithHealth attaches a tracker that observes every call outcome.
func WithHealth(h *Health) Option {
	return func(t *Transport) {
		t.health = h
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(t *Transport) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// NewTransport creates a transport rooted at baseURL (e.g. http://host/api/v1).
func NewTransport(baseURL string, opts ...Option) *Transport {
	t := &Transport{
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    DefaultTimeout,
		baseDelay:  DefaultBaseDelay,
		maxRetries: DefaultMaxRetries,
		sleep:      sleepContext,
		tracer:     tracer.NewNoop(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.client == nil {
		t.client = &http.Client{Timeout: t.timeout}
	}
	if t.metrics != nil && t.health != nil {
		t.metrics.SetUpstreamHealthy(t.health.Healthy())
	}
	return t
}

// Do sends method to path, JSON-encoding body when it is non-nil, and
// returns the raw response body of the first 2xx answer.
//
// A 429 is retried up to maxRetries times, sleeping baseDelay, 2*baseDelay,
// 4*baseDelay... between attempts. When retries run out the last 429 is
// returned as a KindRateLimited error. Any other status or a connection
// failure ends the call on the spot.
func (t *Transport) Do(ctx context.Context, method, path string, body any) (_ []byte, err error) {
	url := t.baseURL + path
	start := time.Now()

	ctx, span := t.tracer.Start(ctx, tracer.SpanUpstreamCall,
		tracer.String(tracer.AttrHTTPMethod, method),
		tracer.String(tracer.AttrHTTPPath, path),
	)
	defer func() {
		span.End(err)
		if t.metrics != nil {
			t.metrics.ObserveCallDuration(method, time.Since(start).Seconds())
			var upErr *Error
			if errors.As(err, &upErr) {
				t.metrics.RecordFailure(method, string(upErr.Kind))
			}
		}
	}()

	var payload []byte
	if body != nil {
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, &Error{Kind: KindRequest, Method: method, URL: url, Err: fmt.Errorf("encode request body: %w", err)}
		}
	}

	delay := t.baseDelay
	for attempt := 1; ; attempt++ {
		if t.limiter != nil {
			if waitErr := t.limiter.Wait(ctx); waitErr != nil {
				return nil, &Error{Kind: KindRequest, Method: method, URL: url, Err: fmt.Errorf("rate pacing: %w", waitErr)}
			}
		}

		status, respBody, attemptErr := t.attempt(ctx, method, url, payload)
		if t.metrics != nil {
			t.metrics.RecordAttempt(method, status)
		}
		span.SetAttributes(tracer.Int(tracer.AttrAttempts, attempt))

		if attemptErr != nil {
			if ctx.Err() == nil {
				t.recordFailure(ctx)
			}
			return nil, attemptErr
		}

		if status >= 200 && status < 300 {
			t.recordSuccess(ctx)
			span.SetAttributes(tracer.Int(tracer.AttrHTTPStatus, status))
			return respBody, nil
		}

		span.SetAttributes(tracer.Int(tracer.AttrHTTPStatus, status))
		if status != http.StatusTooManyRequests {
			if status >= 500 {
				t.recordFailure(ctx)
			} else {
				t.recordSuccess(ctx)
			}
			return nil, &Error{Kind: KindStatus, Method: method, URL: url, StatusCode: status, Body: snippet(respBody)}
		}

		if attempt > t.maxRetries {
			t.recordFailure(ctx)
			return nil, &Error{
				Kind:       KindRateLimited,
				Method:     method,
				URL:        url,
				StatusCode: status,
				Body:       snippet(respBody),
				Err:        fmt.Errorf("rate limited after %d attempts", attempt),
			}
		}

		if t.metrics != nil {
			t.metrics.RecordRetry(method)
		}
		span.AddEvent(tracer.EventRetry,
			tracer.Int(tracer.AttrAttempt, attempt),
			tracer.Duration(tracer.AttrBackoff, delay),
		)
		t.logger.DebugContext(ctx, "upstream rate limited, backing off",
			"method", method,
			"path", path,
			"attempt", attempt,
			"delay", delay,
		)

		if sleepErr := t.sleep(ctx, delay); sleepErr != nil {
			return nil, &Error{
				Kind:       KindRequest,
				Method:     method,
				URL:        url,
				StatusCode: status,
				Err:        fmt.Errorf("retry wait interrupted: %w", sleepErr),
			}
		}
		delay *= 2
	}
}

// attempt performs a single round trip. The body is always drained so the
// connection can be reused.
func (t *Transport) attempt(ctx context.Context, method, url string, payload []byte) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, &Error{Kind: KindRequest, Method: method, URL: url, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return 0, nil, &Error{Kind: KindConnection, Method: method, URL: url, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, &Error{Kind: KindConnection, Method: method, URL: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}
	return resp.StatusCode, respBody, nil
}

func (t *Transport) recordFailure(ctx context.Context) {
	if t.health == nil {
		return
	}
	if t.health.RecordFailure() {
		t.logger.WarnContext(ctx, "employee upstream marked unhealthy")
		if t.metrics != nil {
			t.metrics.SetUpstreamHealthy(false)
		}
	}
}

func (t *Transport) recordSuccess(ctx context.Context) {
	if t.health == nil {
		return
	}
	if t.health.RecordSuccess() {
		t.logger.InfoContext(ctx, "employee upstream healthy again")
		if t.metrics != nil {
			t.metrics.SetUpstreamHealthy(true)
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
