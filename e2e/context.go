package e2e

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"roster/internal/app"
	"roster/internal/employee/upstream"
	"roster/internal/platform/config"
)

// TestContext holds state between test steps. Each scenario gets its own
// application and fake upstream.
type TestContext struct {
	BaseURL          string
	HTTPClient       *http.Client
	LastResponse     *http.Response
	LastResponseBody []byte

	upstream *FakeUpstream
	server   *httptest.Server
}

// NewTestContext starts a fake upstream and the roster application in-process.
func NewTestContext() *TestContext {
	fake := NewFakeUpstream()

	cfg := config.Server{
		Environment:    "e2e",
		RequestTimeout: 5 * time.Second,
		Upstream: config.Upstream{
			BaseURL:        fake.URL() + "/api/v1",
			Timeout:        2 * time.Second,
			RetryBaseDelay: time.Millisecond,
			MaxRetries:     3,
		},
	}
	application := app.New(cfg,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		app.WithRegistry(prometheus.NewRegistry()),
		app.WithTransportOptions(upstream.WithSleeper(func(context.Context, time.Duration) error { return nil })),
	)
	server := httptest.NewServer(application.Router)

	return &TestContext{
		BaseURL:    server.URL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		upstream:   fake,
		server:     server,
	}
}

// Close stops the application and the fake upstream.
func (tc *TestContext) Close() {
	tc.server.Close()
	tc.upstream.Close()
}

func (tc *TestContext) Upstream() *FakeUpstream {
	return tc.upstream
}

// Do makes a request and stores the response.
func (tc *TestContext) Do(method, path string, body []byte) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, tc.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := tc.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}

	tc.LastResponse = resp
	tc.LastResponseBody, err = io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	return nil
}

func (tc *TestContext) GetLastResponseStatus() int {
	if tc.LastResponse == nil {
		return 0
	}
	return tc.LastResponse.StatusCode
}

func (tc *TestContext) GetLastResponseBody() []byte {
	return tc.LastResponseBody
}

// Fake upstream accessors used by the employee steps.

func (tc *TestContext) SeedEmployee(id, name string, salary, age *int, title *string) {
	tc.upstream.Seed([]FakeEmployee{{ID: id, Name: name, Salary: salary, Age: age, Title: title}})
}

func (tc *TestContext) RateLimitNext(n int) {
	tc.upstream.RateLimitNext(n)
}

func (tc *TestContext) UpstreamRequests() []string {
	return tc.upstream.Requests()
}

func (tc *TestContext) DeletedNames() []string {
	return tc.upstream.DeletedNames()
}
