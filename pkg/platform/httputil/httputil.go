package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	dErrors "roster/pkg/domain-errors"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// UpstreamFailure is implemented by errors raised while talking to an
// upstream dependency. RateLimited reports whether the dependency kept
// throttling us after all retries.
type UpstreamFailure interface {
	error
	RateLimited() bool
}

func WriteJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Errors after WriteHeader cannot change the status code, so we ignore encoding errors.
	_ = json.NewEncoder(w).Encode(response)
}

// WriteError centralizes error translation to HTTP responses.
//
// Domain errors map by code. Upstream failures map to 429 when the upstream
// kept rate limiting, 504 when a deadline expired and 502 otherwise.
// Anything else is a 500 with no description.
func WriteError(w http.ResponseWriter, err error) {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		WriteJSON(w, DomainCodeToHTTPStatus(domainErr.Code), ErrorResponse{
			Error:            DomainCodeToHTTPCode(domainErr.Code),
			ErrorDescription: domainErr.Message,
		})
		return
	}

	var upstreamErr UpstreamFailure
	if errors.As(err, &upstreamErr) {
		switch {
		case upstreamErr.RateLimited():
			WriteJSON(w, http.StatusTooManyRequests, ErrorResponse{
				Error:            "upstream_rate_limited",
				ErrorDescription: "employee upstream is rate limiting requests, retry later",
			})
		case errors.Is(err, context.DeadlineExceeded):
			WriteJSON(w, http.StatusGatewayTimeout, ErrorResponse{
				Error:            "upstream_timeout",
				ErrorDescription: "employee upstream did not answer in time",
			})
		default:
			WriteJSON(w, http.StatusBadGateway, ErrorResponse{
				Error:            "upstream_failure",
				ErrorDescription: "employee upstream request failed",
			})
		}
		return
	}

	if errors.Is(err, context.DeadlineExceeded) {
		WriteJSON(w, http.StatusGatewayTimeout, ErrorResponse{Error: DomainCodeToHTTPCode(dErrors.CodeTimeout)})
		return
	}

	WriteJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error: DomainCodeToHTTPCode(dErrors.CodeInternal),
	})
}

// DomainCodeToHTTPStatus translates domain error codes to HTTP status codes.
func DomainCodeToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeBadRequest, dErrors.CodeValidation:
		return http.StatusBadRequest
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	case dErrors.CodeInvariantViolation, dErrors.CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// DomainCodeToHTTPCode translates domain error codes to the error string in the JSON body.
func DomainCodeToHTTPCode(code dErrors.Code) string {
	switch code {
	case dErrors.CodeNotFound:
		return "not_found"
	case dErrors.CodeBadRequest:
		return "bad_request"
	case dErrors.CodeValidation:
		return "validation_error"
	case dErrors.CodeInvariantViolation:
		return "invariant_violation"
	case dErrors.CodeTimeout:
		return "timeout"
	default:
		return "internal_error"
	}
}
