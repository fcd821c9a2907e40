package models

import "strings"

// EmployeeID is the upstream's opaque record identifier (a UUID in practice,
// but never parsed as one).
type EmployeeID string

func (id EmployeeID) String() string { return string(id) }

// IsBlank reports whether the id is empty or whitespace only.
func (id EmployeeID) IsBlank() bool { return strings.TrimSpace(string(id)) == "" }

// ParseEmployeeID trims surrounding whitespace from a caller-supplied id.
func ParseEmployeeID(s string) EmployeeID {
	return EmployeeID(strings.TrimSpace(s))
}

// Employee is the stable domain view of an upstream record. ID and Name are
// always set; the remaining fields are nil when the upstream does not know them.
type Employee struct {
	ID     EmployeeID `json:"id"`
	Name   string     `json:"name"`
	Salary *int       `json:"salary"`
	Age    *int       `json:"age"`
	Title  *string    `json:"title"`
	Email  *string    `json:"email"`
}

// HasSalary reports whether the upstream supplied a salary.
func (e Employee) HasSalary() bool { return e.Salary != nil }

// Summary aggregates a single fetch of the employee set.
type Summary struct {
	Headcount       int      `json:"headcount"`
	WithKnownSalary int      `json:"with_known_salary"`
	HighestSalary   int      `json:"highest_salary"`
	TopEarnerNames  []string `json:"top_earner_names"`
}
