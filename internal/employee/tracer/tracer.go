// Package tracer is the tracing seam for the employee module.
//
// Callers depend on the small Tracer/Span interfaces below; the OTel adapter
// is wired in cmd/server and the noop tracer is used by tests and whenever no
// tracer is configured.
package tracer

import (
	"context"
	"time"
)

// Span represents an active trace span.
type Span interface {
	// End completes the span. A non-nil err marks the span as failed.
	// End must be called exactly once, typically via defer.
	End(err error)

	SetAttributes(attrs ...Attribute)

	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute represents a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int(key string, value int) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration creates a duration attribute in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// Span names.
const (
	SpanUpstreamCall  = "employee.upstream.call"
	SpanList          = "employee.list"
	SpanSearch        = "employee.search"
	SpanGet           = "employee.get"
	SpanHighestSalary = "employee.highest_salary"
	SpanTopEarners    = "employee.top_earners"
	SpanSummary       = "employee.summary"
	SpanCreate        = "employee.create"
	SpanDelete        = "employee.delete"
)

// Attribute keys.
const (
	AttrHTTPMethod   = "http.method"
	AttrHTTPPath     = "http.path"
	AttrHTTPStatus   = "http.status_code"
	AttrAttempt      = "retry.attempt"
	AttrBackoff      = "retry.backoff_ms"
	AttrAttempts     = "retry.attempts"
	AttrEmployeeID   = "employee.id"
	AttrResultCount  = "result.count"
	AttrSearchLength = "search.term_length"
)

// Event names.
const (
	EventRetry = "upstream.retry"
)
