package upstream

import (
	"strings"

	"roster/internal/employee/models"
)

// record is an employee as the upstream sends it. The upstream prefixes
// most fields with employee_; the plain spelling is accepted too and the
// prefixed one wins when both appear.
type record struct {
	ID     *string `json:"id"`
	Name   *string `json:"name"`
	Salary *int    `json:"salary"`
	Age    *int    `json:"age"`
	Title  *string `json:"title"`
	Email  *string `json:"email"`

	PrefixedName   *string `json:"employee_name"`
	PrefixedSalary *int    `json:"employee_salary"`
	PrefixedAge    *int    `json:"employee_age"`
	PrefixedTitle  *string `json:"employee_title"`
	PrefixedEmail  *string `json:"employee_email"`
}

// toEmployee translates r. ok is false when the result would lack an id or
// a name.
func (r record) toEmployee() (e models.Employee, ok bool) {
	e = models.Employee{
		ID:     models.ParseEmployeeID(deref(r.ID)),
		Name:   deref(prefer(r.PrefixedName, r.Name)),
		Salary: prefer(r.PrefixedSalary, r.Salary),
		Age:    prefer(r.PrefixedAge, r.Age),
		Title:  prefer(r.PrefixedTitle, r.Title),
		Email:  prefer(r.PrefixedEmail, r.Email),
	}
	return e, !e.ID.IsBlank() && strings.TrimSpace(e.Name) != ""
}

func prefer[T any](primary, fallback *T) *T {
	if primary != nil {
		return primary
	}
	return fallback
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
