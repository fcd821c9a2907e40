package models

import (
	s "roster/pkg/string"
	"roster/pkg/validation"
)

// CreateEmployeeRequest is the creation contract. Server-generated fields
// (id, email) are deliberately absent.
type CreateEmployeeRequest struct {
	Name   string `json:"name" validate:"required,notblank"`
	Salary int    `json:"salary" validate:"gt=0"`
	Age    int    `json:"age" validate:"gte=16,lte=75"`
	Title  string `json:"title" validate:"required,notblank"`
}

// Sanitize trims free-text fields.
func (r *CreateEmployeeRequest) Sanitize() {
	s.TrimStrings(&r.Name, &r.Title)
}

// Validate checks the request against the upstream's creation rules.
func (r *CreateEmployeeRequest) Validate() error {
	return validation.Validate(r)
}
