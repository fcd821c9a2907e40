package service

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"roster/internal/employee/models"
	"roster/internal/employee/tracer"
	dErrors "roster/pkg/domain-errors"
	psync "roster/pkg/platform/sync"
)

// TopEarnersLimit caps the ranking returned by TopEarnerNames.
const TopEarnersLimit = 10

// Upstream is the employee data source. Every call is a fresh fetch.
type Upstream interface {
	ListEmployees(ctx context.Context) ([]models.Employee, error)
	// GetEmployee returns (nil, nil) when the upstream has no such employee.
	GetEmployee(ctx context.Context, id models.EmployeeID) (*models.Employee, error)
	// CreateEmployee returns (nil, nil) when the upstream returned no record.
	CreateEmployee(ctx context.Context, req models.CreateEmployeeRequest) (*models.Employee, error)
	// DeleteEmployee returns false without deleting when id resolves to nothing.
	DeleteEmployee(ctx context.Context, id models.EmployeeID) (bool, error)
}

// Service computes the aggregated employee views on top of Upstream.
// It holds no per-request state and is safe for concurrent use.
type Service struct {
	upstream Upstream
	tracer   tracer.Tracer
	logger   *slog.Logger
	// deletes serializes concurrent deletes of one id, since the upstream
	// deletes by name and a racing pair could remove a namesake.
	deletes *psync.ShardedMutex
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the logger for the service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTracer sets the tracer for the service.
func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

func New(upstream Upstream, opts ...Option) *Service {
	s := &Service{
		upstream: upstream,
		tracer:   tracer.NewNoop(),
		logger:   slog.Default(),
		deletes:  psync.NewShardedMutex(0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns every employee the upstream knows, in upstream order.
func (s *Service) List(ctx context.Context) (_ []models.Employee, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanList)
	defer func() { span.End(err) }()

	employees, err := s.upstream.ListEmployees(ctx)
	if err != nil {
		return nil, s.fail(ctx, "list", err)
	}
	span.SetAttributes(tracer.Int(tracer.AttrResultCount, len(employees)))
	return employees, nil
}

// Search returns employees whose name contains term, ignoring case.
// A blank term matches everyone.
func (s *Service) Search(ctx context.Context, term string) (_ []models.Employee, err error) {
	term = strings.TrimSpace(term)
	ctx, span := s.tracer.Start(ctx, tracer.SpanSearch, tracer.Int(tracer.AttrSearchLength, len(term)))
	defer func() { span.End(err) }()

	employees, err := s.upstream.ListEmployees(ctx)
	if err != nil {
		return nil, s.fail(ctx, "search", err)
	}
	if term == "" {
		return employees, nil
	}

	matches := filterByName(employees, term)
	span.SetAttributes(tracer.Int(tracer.AttrResultCount, len(matches)))
	return matches, nil
}

// Get returns the employee with id. A blank id is NotFound without
// contacting the upstream.
func (s *Service) Get(ctx context.Context, id models.EmployeeID) (_ *models.Employee, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanGet, tracer.String(tracer.AttrEmployeeID, id.String()))
	defer func() { span.End(err) }()

	if id.IsBlank() {
		return nil, s.fail(ctx, "get", dErrors.NotFound("employee id is required"))
	}

	employee, err := s.upstream.GetEmployee(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, "get", err)
	}
	if employee == nil {
		return nil, s.fail(ctx, "get", dErrors.NotFound("employee not found"))
	}
	return employee, nil
}

// HighestSalary returns the largest known salary, or 0 when nobody has one.
func (s *Service) HighestSalary(ctx context.Context) (_ int, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanHighestSalary)
	defer func() { span.End(err) }()

	employees, err := s.upstream.ListEmployees(ctx)
	if err != nil {
		return 0, s.fail(ctx, "highest_salary", err)
	}

	highest, ok := highestSalary(employees)
	if !ok {
		s.logger.WarnContext(ctx, "no employee has a known salary, reporting 0",
			"employees", len(employees),
		)
	}
	return highest, nil
}

// TopEarnerNames returns up to TopEarnersLimit names ordered by salary,
// highest first. Equal salaries keep upstream order.
func (s *Service) TopEarnerNames(ctx context.Context) (_ []string, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanTopEarners)
	defer func() { span.End(err) }()

	employees, err := s.upstream.ListEmployees(ctx)
	if err != nil {
		return nil, s.fail(ctx, "top_earners", err)
	}

	names := topEarnerNames(employees, TopEarnersLimit)
	span.SetAttributes(tracer.Int(tracer.AttrResultCount, len(names)))
	return names, nil
}

// Summary computes headcount and salary aggregates from a single fetch.
func (s *Service) Summary(ctx context.Context) (_ *models.Summary, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanSummary)
	defer func() { span.End(err) }()

	employees, err := s.upstream.ListEmployees(ctx)
	if err != nil {
		return nil, s.fail(ctx, "summary", err)
	}

	highest, _ := highestSalary(employees)
	known := 0
	for _, e := range employees {
		if e.HasSalary() {
			known++
		}
	}
	return &models.Summary{
		Headcount:       len(employees),
		WithKnownSalary: known,
		HighestSalary:   highest,
		TopEarnerNames:  topEarnerNames(employees, TopEarnersLimit),
	}, nil
}

// Create validates req and creates the employee upstream.
func (s *Service) Create(ctx context.Context, req models.CreateEmployeeRequest) (_ *models.Employee, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanCreate)
	defer func() { span.End(err) }()

	req.Sanitize()
	if err := req.Validate(); err != nil {
		return nil, s.fail(ctx, "create", err)
	}

	employee, err := s.upstream.CreateEmployee(ctx, req)
	if err != nil {
		return nil, s.fail(ctx, "create", err)
	}
	if employee == nil {
		return nil, s.fail(ctx, "create", dErrors.InvariantViolation("creation failed"))
	}

	s.logger.InfoContext(ctx, "employee created", "id", employee.ID)
	span.SetAttributes(tracer.String(tracer.AttrEmployeeID, employee.ID.String()))
	return employee, nil
}

// Delete removes the employee with id and returns that id.
func (s *Service) Delete(ctx context.Context, id models.EmployeeID) (_ models.EmployeeID, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanDelete, tracer.String(tracer.AttrEmployeeID, id.String()))
	defer func() { span.End(err) }()

	if id.IsBlank() {
		return "", s.fail(ctx, "delete", dErrors.NotFound("employee id is required"))
	}

	var deleted bool
	err = s.deletes.Do(id.String(), func() error {
		var derr error
		deleted, derr = s.upstream.DeleteEmployee(ctx, id)
		return derr
	})
	if err != nil {
		return "", s.fail(ctx, "delete", err)
	}
	if !deleted {
		return "", s.fail(ctx, "delete", dErrors.NotFound("employee not found"))
	}

	s.logger.InfoContext(ctx, "employee deleted", "id", id)
	return id, nil
}

// fail logs err once with the operation name and returns it unchanged.
func (s *Service) fail(ctx context.Context, op string, err error) error {
	s.logger.ErrorContext(ctx, "employee operation failed",
		"operation", op,
		"error", err,
	)
	return err
}

func filterByName(employees []models.Employee, term string) []models.Employee {
	// A Caser is stateful, so each call gets its own.
	fold := cases.Fold()
	needle := fold.String(term)

	matches := make([]models.Employee, 0)
	for _, e := range employees {
		if e.Name == "" {
			continue
		}
		if strings.Contains(fold.String(e.Name), needle) {
			matches = append(matches, e)
		}
	}
	return matches
}

func highestSalary(employees []models.Employee) (int, bool) {
	highest, found := 0, false
	for _, e := range employees {
		if !e.HasSalary() {
			continue
		}
		if !found || *e.Salary > highest {
			highest = *e.Salary
			found = true
		}
	}
	return highest, found
}

func topEarnerNames(employees []models.Employee, limit int) []string {
	ranked := make([]models.Employee, 0, len(employees))
	for _, e := range employees {
		if e.HasSalary() {
			ranked = append(ranked, e)
		}
	}
	slices.SortStableFunc(ranked, func(a, b models.Employee) int {
		return cmp.Compare(*b.Salary, *a.Salary)
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	names := make([]string, 0, len(ranked))
	for _, e := range ranked {
		names = append(names, e.Name)
	}
	return names
}
