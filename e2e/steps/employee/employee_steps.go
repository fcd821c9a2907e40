package employee

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	GetLastResponseBody() []byte
	SeedEmployee(id, name string, salary, age *int, title *string)
	RateLimitNext(n int)
	UpstreamRequests() []string
	DeletedNames() []string
}

// RegisterSteps registers steps that script the upstream and inspect
// employee payloads.
func RegisterSteps(ctx *godog.ScenarioContext, tc func() TestContext) {
	steps := &employeeSteps{tc: tc}

	ctx.Step(`^the upstream has employees:$`, steps.upstreamHasEmployees)
	ctx.Step(`^the upstream has (\d+) employees with increasing salaries$`, steps.upstreamHasRankedEmployees)
	ctx.Step(`^the upstream rate limits the next (\d+) requests?$`, steps.upstreamRateLimits)

	ctx.Step(`^the upstream should have received (\d+) requests?$`, steps.upstreamRequestCount)
	ctx.Step(`^the upstream should not have received a DELETE request$`, steps.noUpstreamDelete)
	ctx.Step(`^the upstream should have been asked to delete "([^"]*)"$`, steps.upstreamDeleted)

	ctx.Step(`^the response should list employees "([^"]*)"$`, steps.responseListsEmployees)
	ctx.Step(`^the response should be the names "([^"]*)"$`, steps.responseIsNames)
}

type employeeSteps struct {
	tc func() TestContext
}

// upstreamHasEmployees seeds from a table with columns id, name, salary,
// age and title. Empty cells are sent as null.
func (s *employeeSteps) upstreamHasEmployees(ctx context.Context, table *godog.Table) error {
	if len(table.Rows) == 0 {
		return fmt.Errorf("employee table is empty")
	}
	header := make(map[string]int, len(table.Rows[0].Cells))
	for i, cell := range table.Rows[0].Cells {
		header[cell.Value] = i
	}

	for _, row := range table.Rows[1:] {
		cell := func(col string) string {
			i, ok := header[col]
			if !ok || i >= len(row.Cells) {
				return ""
			}
			return strings.TrimSpace(row.Cells[i].Value)
		}
		salary, err := optionalInt(cell("salary"))
		if err != nil {
			return err
		}
		age, err := optionalInt(cell("age"))
		if err != nil {
			return err
		}
		var title *string
		if t := cell("title"); t != "" {
			title = &t
		}
		s.tc().SeedEmployee(cell("id"), cell("name"), salary, age, title)
	}
	return nil
}

func (s *employeeSteps) upstreamHasRankedEmployees(ctx context.Context, n int) error {
	for i := 1; i <= n; i++ {
		salary := i * 1000
		s.tc().SeedEmployee(fmt.Sprintf("e%d", i), fmt.Sprintf("E%d", i), &salary, nil, nil)
	}
	return nil
}

func (s *employeeSteps) upstreamRateLimits(ctx context.Context, n int) error {
	s.tc().RateLimitNext(n)
	return nil
}

func (s *employeeSteps) upstreamRequestCount(ctx context.Context, expected int) error {
	requests := s.tc().UpstreamRequests()
	if len(requests) != expected {
		return fmt.Errorf("expected %d upstream requests but got %d: %v", expected, len(requests), requests)
	}
	return nil
}

func (s *employeeSteps) noUpstreamDelete(ctx context.Context) error {
	for _, r := range s.tc().UpstreamRequests() {
		if strings.HasPrefix(r, "DELETE ") {
			return fmt.Errorf("unexpected upstream request %q", r)
		}
	}
	return nil
}

func (s *employeeSteps) upstreamDeleted(ctx context.Context, name string) error {
	deleted := s.tc().DeletedNames()
	if !slices.Contains(deleted, name) {
		return fmt.Errorf("expected upstream delete of %q, got %v", name, deleted)
	}
	return nil
}

func (s *employeeSteps) responseListsEmployees(ctx context.Context, names string) error {
	var employees []struct {
		Name string `json:"name"`
	}
	body := s.tc().GetLastResponseBody()
	if err := json.Unmarshal(body, &employees); err != nil {
		return fmt.Errorf("response is not an employee list: %w\nResponse: %s", err, string(body))
	}
	got := make([]string, 0, len(employees))
	for _, e := range employees {
		got = append(got, e.Name)
	}
	return compareNames(splitNames(names), got)
}

func (s *employeeSteps) responseIsNames(ctx context.Context, names string) error {
	var got []string
	body := s.tc().GetLastResponseBody()
	if err := json.Unmarshal(body, &got); err != nil {
		return fmt.Errorf("response is not a name list: %w\nResponse: %s", err, string(body))
	}
	return compareNames(splitNames(names), got)
}

func optionalInt(v string) (*int, error) {
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q: %w", v, err)
	}
	return &n, nil
}

func splitNames(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func compareNames(want, got []string) error {
	if !slices.Equal(want, got) {
		return fmt.Errorf("expected names %v but got %v", want, got)
	}
	return nil
}
