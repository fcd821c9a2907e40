package upstream

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"roster/internal/employee/models"
	dErrors "roster/pkg/domain-errors"
)

const employeePath = "/employee"

// Doer is the transport contract the client needs.
type Doer interface {
	Do(ctx context.Context, method, path string, body any) ([]byte, error)
}

// Client exposes the upstream employee operations in domain terms.
type Client struct {
	transport Doer
	logger    *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func NewClient(transport Doer, opts ...ClientOption) *Client {
	c := &Client{
		transport: transport,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type createBody struct {
	Name   string `json:"name"`
	Salary int    `json:"salary"`
	Age    int    `json:"age"`
	Title  string `json:"title"`
}

type deleteBody struct {
	Name string `json:"name"`
}

// ListEmployees fetches the full employee set. Records without an id or a
// name are dropped. The result is never nil.
func (c *Client) ListEmployees(ctx context.Context) ([]models.Employee, error) {
	body, err := c.transport.Do(ctx, http.MethodGet, employeePath, nil)
	if err != nil {
		return nil, err
	}

	records, err := unwrap[[]record](body)
	if err != nil {
		return nil, decodeError(http.MethodGet, employeePath, body, err)
	}
	if records == nil {
		return []models.Employee{}, nil
	}

	employees := make([]models.Employee, 0, len(*records))
	for i, r := range *records {
		e, ok := r.toEmployee()
		if !ok {
			c.logger.WarnContext(ctx, "dropping upstream employee without id or name",
				"index", i,
				"id", e.ID,
			)
			continue
		}
		employees = append(employees, e)
	}
	return employees, nil
}

// GetEmployee fetches one employee. A missing record, whether reported as
// null data or as a 404, is (nil, nil).
func (c *Client) GetEmployee(ctx context.Context, id models.EmployeeID) (*models.Employee, error) {
	path := employeePath + "/" + url.PathEscape(id.String())
	body, err := c.transport.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			return nil, nil
		}
		return nil, err
	}

	r, err := unwrap[record](body)
	if err != nil {
		return nil, decodeError(http.MethodGet, path, body, err)
	}
	if r == nil {
		return nil, nil
	}

	e, ok := r.toEmployee()
	if !ok {
		return nil, dErrors.InvariantViolation("upstream returned employee without id or name")
	}
	return &e, nil
}

// CreateEmployee creates an employee upstream. (nil, nil) means the upstream
// accepted the call but returned no record.
func (c *Client) CreateEmployee(ctx context.Context, req models.CreateEmployeeRequest) (*models.Employee, error) {
	body, err := c.transport.Do(ctx, http.MethodPost, employeePath, createBody{
		Name:   req.Name,
		Salary: req.Salary,
		Age:    req.Age,
		Title:  req.Title,
	})
	if err != nil {
		return nil, err
	}

	r, err := unwrap[record](body)
	if err != nil {
		return nil, decodeError(http.MethodPost, employeePath, body, err)
	}
	if r == nil {
		return nil, nil
	}

	e, ok := r.toEmployee()
	if !ok {
		return nil, dErrors.InvariantViolation("upstream created employee without id or name")
	}
	return &e, nil
}

// DeleteEmployee removes the employee with id. The upstream deletes by name,
// so the id is resolved first; when it resolves to nothing the result is
// (false, nil) and no delete is sent.
func (c *Client) DeleteEmployee(ctx context.Context, id models.EmployeeID) (bool, error) {
	e, err := c.GetEmployee(ctx, id)
	if err != nil {
		return false, err
	}
	if e == nil {
		return false, nil
	}

	body, err := c.transport.Do(ctx, http.MethodDelete, employeePath, deleteBody{Name: e.Name})
	if err != nil {
		return false, err
	}

	confirmed, err := unwrap[bool](body)
	if err != nil {
		c.logger.DebugContext(ctx, "unreadable delete confirmation", "id", id, "error", err)
		return true, nil
	}
	if confirmed != nil {
		c.logger.DebugContext(ctx, "upstream delete confirmation", "id", id, "confirmed", *confirmed)
	}
	return true, nil
}

func decodeError(method, path string, body []byte, err error) error {
	return &Error{Kind: KindDecode, Method: method, URL: path, Body: snippet(body), Err: err}
}

func isStatus(err error, status int) bool {
	var upErr *Error
	return errors.As(err, &upErr) && upErr.Kind == KindStatus && upErr.StatusCode == status
}
