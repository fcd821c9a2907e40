package common

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	Do(method, path string, body []byte) error
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
}

// RegisterSteps registers the generic request and response steps. The
// context is resolved per step because scenarios replace it.
func RegisterSteps(ctx *godog.ScenarioContext, tc func() TestContext) {
	steps := &commonSteps{tc: tc}

	ctx.Step(`^the roster service is running$`, steps.serviceIsRunning)

	ctx.Step(`^I GET "([^"]*)"$`, steps.get)
	ctx.Step(`^I DELETE "([^"]*)"$`, steps.delete)
	ctx.Step(`^I POST to "([^"]*)" with body:$`, steps.postWithBody)

	ctx.Step(`^the response status should be (\d+)$`, steps.responseStatusShouldBe)
	ctx.Step(`^the response should contain "([^"]*)"$`, steps.responseShouldContain)
	ctx.Step(`^the response body should be:$`, steps.responseBodyShouldBe)
	ctx.Step(`^the response field "([^"]*)" should equal "([^"]*)"$`, steps.responseFieldShouldEqual)
}

type commonSteps struct {
	tc func() TestContext
}

func (s *commonSteps) serviceIsRunning(ctx context.Context) error {
	if s.tc() == nil {
		return fmt.Errorf("test context not initialised")
	}
	return nil
}

func (s *commonSteps) get(ctx context.Context, path string) error {
	return s.tc().Do(http.MethodGet, path, nil)
}

func (s *commonSteps) delete(ctx context.Context, path string) error {
	return s.tc().Do(http.MethodDelete, path, nil)
}

func (s *commonSteps) postWithBody(ctx context.Context, path string, body *godog.DocString) error {
	return s.tc().Do(http.MethodPost, path, []byte(body.Content))
}

func (s *commonSteps) responseStatusShouldBe(ctx context.Context, expectedStatus int) error {
	actualStatus := s.tc().GetLastResponseStatus()
	if actualStatus != expectedStatus {
		return fmt.Errorf("expected status %d but got %d", expectedStatus, actualStatus)
	}
	return nil
}

func (s *commonSteps) responseShouldContain(ctx context.Context, text string) error {
	body := s.tc().GetLastResponseBody()
	if !bytes.Contains(body, []byte(text)) {
		return fmt.Errorf("response does not contain %q\nResponse: %s", text, string(body))
	}
	return nil
}

// responseBodyShouldBe compares JSON semantically so key order and
// whitespace in the feature file do not matter.
func (s *commonSteps) responseBodyShouldBe(ctx context.Context, expected *godog.DocString) error {
	var want, got any
	if err := json.Unmarshal([]byte(expected.Content), &want); err != nil {
		return fmt.Errorf("expected body is not JSON: %w", err)
	}
	body := s.tc().GetLastResponseBody()
	if err := json.Unmarshal(body, &got); err != nil {
		return fmt.Errorf("response is not JSON: %w\nResponse: %s", err, string(body))
	}

	wantJSON, _ := json.Marshal(want)
	gotJSON, _ := json.Marshal(got)
	if !bytes.Equal(wantJSON, gotJSON) {
		return fmt.Errorf("expected body %s but got %s", wantJSON, gotJSON)
	}
	return nil
}

func (s *commonSteps) responseFieldShouldEqual(ctx context.Context, field, expected string) error {
	var data map[string]any
	body := s.tc().GetLastResponseBody()
	if err := json.Unmarshal(body, &data); err != nil {
		return fmt.Errorf("response is not a JSON object: %w\nResponse: %s", err, string(body))
	}

	value, ok := data[field]
	if !ok {
		return fmt.Errorf("field %s not found in response", field)
	}
	actual := strings.TrimSpace(fmt.Sprint(value))
	if actual != expected {
		return fmt.Errorf("expected %s to be %q but got %q", field, expected, actual)
	}
	return nil
}
