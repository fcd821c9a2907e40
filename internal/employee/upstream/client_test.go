package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"roster/internal/employee/models"
	dErrors "roster/pkg/domain-errors"
)

type call struct {
	Method string
	Path   string
	Body   any
}

// stubDoer answers each method+path with a scripted response.
type stubDoer struct {
	mu        sync.Mutex
	responses map[string]stubResponse
	calls     []call
}

type stubResponse struct {
	body string
	err  error
}

func newStubDoer() *stubDoer {
	return &stubDoer{responses: map[string]stubResponse{}}
}

func (d *stubDoer) on(method, path, body string, err error) {
	d.responses[method+" "+path] = stubResponse{body: body, err: err}
}

func (d *stubDoer) Do(_ context.Context, method, path string, body any) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, call{Method: method, Path: path, Body: body})
	resp, ok := d.responses[method+" "+path]
	if !ok {
		return nil, &Error{Kind: KindStatus, Method: method, URL: path, StatusCode: http.StatusInternalServerError}
	}
	if resp.err != nil {
		return nil, resp.err
	}
	return []byte(resp.body), nil
}

func (d *stubDoer) methods() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, 0, len(d.calls))
	for _, c := range d.calls {
		out = append(out, c.Method)
	}
	return out
}

type ClientSuite struct {
	suite.Suite
	doer   *stubDoer
	client *Client
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	s.doer = newStubDoer()
	s.client = NewClient(s.doer)
}

func (s *ClientSuite) TestListEmployees() {
	s.Run("translates prefixed and plain records in order", func() {
		s.doer.on(http.MethodGet, "/employee", `{
			"status": "Successfully processed request.",
			"data": [
				{"id": "a1", "employee_name": "Alice Johnson", "employee_salary": 150, "employee_age": 30, "employee_title": "Engineer", "employee_email": "alice@company.com"},
				{"id": "b2", "name": "Bob", "salary": null, "age": 40, "title": "Manager"}
			]
		}`, nil)

		employees, err := s.client.ListEmployees(context.Background())

		s.Require().NoError(err)
		s.Require().Len(employees, 2)
		s.Equal(models.EmployeeID("a1"), employees[0].ID)
		s.Equal("Alice Johnson", employees[0].Name)
		s.Require().NotNil(employees[0].Salary)
		s.Equal(150, *employees[0].Salary)
		s.Require().NotNil(employees[0].Email)
		s.Equal("alice@company.com", *employees[0].Email)

		s.Equal("Bob", employees[1].Name)
		s.Nil(employees[1].Salary)
		s.Nil(employees[1].Email)
		s.Require().NotNil(employees[1].Age)
		s.Equal(40, *employees[1].Age)
	})

	s.Run("missing or null data is an empty list", func() {
		for _, body := range []string{`{}`, `{"data": null}`, `{"data": [], "status": "ok"}`} {
			s.doer.on(http.MethodGet, "/employee", body, nil)

			employees, err := s.client.ListEmployees(context.Background())

			s.Require().NoError(err)
			s.NotNil(employees)
			s.Empty(employees)
		}
	})

	s.Run("drops records without id or name", func() {
		s.doer.on(http.MethodGet, "/employee", `{"data": [
			{"id": "a1", "employee_name": "Alice"},
			{"employee_name": "No Id"},
			{"id": "c3", "employee_name": "   "},
			{"id": "d4", "name": "Dana"}
		]}`, nil)

		employees, err := s.client.ListEmployees(context.Background())

		s.Require().NoError(err)
		s.Require().Len(employees, 2)
		s.Equal("Alice", employees[0].Name)
		s.Equal("Dana", employees[1].Name)
	})

	s.Run("malformed json is a decode failure", func() {
		s.doer.on(http.MethodGet, "/employee", `{"data": [`, nil)

		_, err := s.client.ListEmployees(context.Background())

		var upErr *Error
		s.Require().True(errors.As(err, &upErr))
		s.Equal(KindDecode, upErr.Kind)
	})

	s.Run("transport errors pass through unchanged", func() {
		transportErr := &Error{Kind: KindRateLimited, Method: http.MethodGet, URL: "/employee", StatusCode: 429}
		s.doer.on(http.MethodGet, "/employee", "", transportErr)

		_, err := s.client.ListEmployees(context.Background())

		s.Same(transportErr, err)
	})
}

func (s *ClientSuite) TestGetEmployee() {
	s.Run("found", func() {
		s.doer.on(http.MethodGet, "/employee/a1", `{"data": {"id": "a1", "employee_name": "Alice", "employee_salary": 10}}`, nil)

		e, err := s.client.GetEmployee(context.Background(), "a1")

		s.Require().NoError(err)
		s.Require().NotNil(e)
		s.Equal("Alice", e.Name)
	})

	s.Run("null data is no result", func() {
		s.doer.on(http.MethodGet, "/employee/a1", `{"data": null}`, nil)

		e, err := s.client.GetEmployee(context.Background(), "a1")

		s.NoError(err)
		s.Nil(e)
	})

	s.Run("upstream 404 is no result", func() {
		s.doer.on(http.MethodGet, "/employee/a1", "", &Error{Kind: KindStatus, StatusCode: http.StatusNotFound})

		e, err := s.client.GetEmployee(context.Background(), "a1")

		s.NoError(err)
		s.Nil(e)
	})

	s.Run("escapes the id", func() {
		s.doer.on(http.MethodGet, "/employee/a%2Fb", `{"data": null}`, nil)

		_, err := s.client.GetEmployee(context.Background(), "a/b")

		s.NoError(err)
	})

	s.Run("record without name is an invariant violation", func() {
		s.doer.on(http.MethodGet, "/employee/a1", `{"data": {"id": "a1"}}`, nil)

		_, err := s.client.GetEmployee(context.Background(), "a1")

		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func (s *ClientSuite) TestCreateEmployee() {
	req := models.CreateEmployeeRequest{Name: "Carol", Salary: 90, Age: 33, Title: "Analyst"}

	s.Run("sends narrow body and translates result", func() {
		s.doer.on(http.MethodPost, "/employee", `{"data": {"id": "c3", "employee_name": "Carol", "employee_salary": 90, "employee_age": 33, "employee_title": "Analyst", "employee_email": "carol@company.com"}}`, nil)

		e, err := s.client.CreateEmployee(context.Background(), req)

		s.Require().NoError(err)
		s.Require().NotNil(e)
		s.Equal(models.EmployeeID("c3"), e.ID)

		last := s.doer.calls[len(s.doer.calls)-1]
		raw, _ := json.Marshal(last.Body)
		s.JSONEq(`{"name":"Carol","salary":90,"age":33,"title":"Analyst"}`, string(raw))
	})

	s.Run("missing data is no result", func() {
		s.doer.on(http.MethodPost, "/employee", `{"status": "ok"}`, nil)

		e, err := s.client.CreateEmployee(context.Background(), req)

		s.NoError(err)
		s.Nil(e)
	})

	s.Run("record without id is an invariant violation", func() {
		s.doer.on(http.MethodPost, "/employee", `{"data": {"employee_name": "Carol"}}`, nil)

		_, err := s.client.CreateEmployee(context.Background(), req)

		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func (s *ClientSuite) TestDeleteEmployee() {
	s.Run("resolves name then deletes by name", func() {
		s.doer.on(http.MethodGet, "/employee/a1", `{"data": {"id": "a1", "employee_name": "Alice"}}`, nil)
		s.doer.on(http.MethodDelete, "/employee", `{"data": true}`, nil)

		deleted, err := s.client.DeleteEmployee(context.Background(), "a1")

		s.Require().NoError(err)
		s.True(deleted)
		last := s.doer.calls[len(s.doer.calls)-1]
		s.Equal(deleteBody{Name: "Alice"}, last.Body)
	})

	s.Run("lookup miss sends no delete", func() {
		s.doer = newStubDoer()
		s.client = NewClient(s.doer)
		s.doer.on(http.MethodGet, "/employee/zz", `{"data": null}`, nil)

		deleted, err := s.client.DeleteEmployee(context.Background(), "zz")

		s.NoError(err)
		s.False(deleted)
		s.Equal([]string{http.MethodGet}, s.doer.methods())
	})

	s.Run("delete failure propagates", func() {
		s.doer.on(http.MethodGet, "/employee/a1", `{"data": {"id": "a1", "employee_name": "Alice"}}`, nil)
		s.doer.on(http.MethodDelete, "/employee", "", &Error{Kind: KindRateLimited, StatusCode: 429})

		deleted, err := s.client.DeleteEmployee(context.Background(), "a1")

		s.False(deleted)
		s.True(IsRateLimited(err))
	})

	s.Run("unconfirmed delete still succeeds", func() {
		s.doer.on(http.MethodGet, "/employee/a1", `{"data": {"id": "a1", "employee_name": "Alice"}}`, nil)
		s.doer.on(http.MethodDelete, "/employee", `{"status": "ok"}`, nil)

		deleted, err := s.client.DeleteEmployee(context.Background(), "a1")

		s.NoError(err)
		s.True(deleted)
	})
}

// TestClientOverTransport runs the client against a real HTTP server to
// check paths, methods and bodies end to end.
func TestClientOverTransport(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	var deleteBodyRaw string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Method+" "+r.URL.EscapedPath())
		mu.Unlock()

		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/employee/a1":
			_, _ = w.Write([]byte(`{"data":{"id":"a1","employee_name":"Alice"}}`))
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/employee/missing":
			w.WriteHeader(http.StatusNotFound)
		case r.Method == http.MethodDelete && r.URL.Path == "/api/v1/employee":
			raw, _ := io.ReadAll(r.Body)
			deleteBodyRaw = string(raw)
			_, _ = w.Write([]byte(`{"data":true}`))
		default:
			w.WriteHeader(http.StatusTeapot)
		}
	}))
	defer server.Close()

	client := NewClient(NewTransport(server.URL+"/api/v1", WithHTTPClient(server.Client())))

	deleted, err := client.DeleteEmployee(context.Background(), "a1")
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.JSONEq(t, `{"name":"Alice"}`, deleteBodyRaw)

	deleted, err = client.DeleteEmployee(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, deleted)

	assert.Equal(t, []string{
		"GET /api/v1/employee/a1",
		"DELETE /api/v1/employee",
		"GET /api/v1/employee/missing",
	}, seen)
}
