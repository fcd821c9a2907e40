package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	dErrors "roster/pkg/domain-errors"
	"roster/pkg/platform/middleware/request"
)

// MaxBodyBytes bounds every decoded request body.
const MaxBodyBytes = 1 << 20

// Validatable is implemented by request types that support validation.
type Validatable interface {
	Validate() error
}

// Sanitizable is implemented by request types that support sanitization.
type Sanitizable interface {
	Sanitize()
}

// DecodeJSON reads exactly one JSON value from the body into a new T.
// Failures are bad_request domain errors describing what was wrong.
func DecodeJSON[T any](w http.ResponseWriter, r *http.Request) (*T, error) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))

	var req T
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return nil, dErrors.New(dErrors.CodeBadRequest, "request body is empty")
		case errors.As(err, &tooLarge):
			return nil, dErrors.New(dErrors.CodeBadRequest, "request body is too large")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid request body")
		}
	}
	if dec.More() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "request body must hold a single JSON value")
	}
	return &req, nil
}

// PrepareRequest sanitizes then validates a request. A plain validation
// error is reported as a validation domain error.
func PrepareRequest(req any) error {
	if s, ok := req.(Sanitizable); ok {
		s.Sanitize()
	}
	v, ok := req.(Validatable)
	if !ok {
		return nil
	}
	err := v.Validate()
	if err == nil {
		return nil
	}
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeValidation, err.Error())
}

// DecodeAndPrepare decodes and prepares the body, writing the error response
// itself on failure.
//
//	req, ok := httputil.DecodeAndPrepare[models.CreateEmployeeRequest](w, r, h.logger)
//	if !ok {
//	    return
//	}
func DecodeAndPrepare[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger) (*T, bool) {
	req, err := DecodeJSON[T](w, r)
	if err == nil {
		err = PrepareRequest(req)
	}
	if err != nil {
		logger.WarnContext(r.Context(), "rejected request body",
			"error", err,
			"path", r.URL.Path,
			"request_id", request.GetRequestID(r.Context()),
		)
		WriteError(w, err)
		return nil, false
	}
	return req, true
}
