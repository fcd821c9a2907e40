package upstream

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a transport failure.
type Kind string

const (
	// KindRateLimited means the upstream kept answering 429 after every retry.
	KindRateLimited Kind = "rate_limited"

	// KindStatus means the upstream answered with a non-2xx status other than 429.
	KindStatus Kind = "status"

	// KindConnection means no response arrived (dial, TLS, timeout, reset).
	KindConnection Kind = "connection"

	// KindRequest means the request could not be built or was abandoned
	// before it was sent (encoding, pacing, cancelled retry wait).
	KindRequest Kind = "request"

	// KindDecode means the upstream answered 2xx with a body that is not
	// a readable envelope.
	KindDecode Kind = "decode"
)

const snippetLimit = 512

// Error is the single failure type produced by Transport and Client.
// It is returned as-is through the service layer so handlers can map it.
type Error struct {
	Kind       Kind
	Method     string
	URL        string
	StatusCode int
	Body       string
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "upstream %s %s [%s]", e.Method, e.URL, e.Kind)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " status=%d", e.StatusCode)
	}
	if e.Body != "" {
		fmt.Fprintf(&b, " body=%s", e.Body)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsTransportFailure reports whether err carries an *Error anywhere in its chain.
func IsTransportFailure(err error) bool {
	var upErr *Error
	return errors.As(err, &upErr)
}

// IsRateLimited reports whether err is a transport failure caused by
// exhausted 429 retries.
func IsRateLimited(err error) bool {
	var upErr *Error
	return errors.As(err, &upErr) && upErr.Kind == KindRateLimited
}

// IsTimeout reports whether err is a transport failure caused by a deadline.
func IsTimeout(err error) bool {
	return IsTransportFailure(err) && errors.Is(err, context.DeadlineExceeded)
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) <= snippetLimit {
		return s
	}
	return s[:snippetLimit] + "..."
}

// RateLimited lets callers outside this package recognise exhausted retries
// without importing it.
func (e *Error) RateLimited() bool {
	return e.Kind == KindRateLimited
}
