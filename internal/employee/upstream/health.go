package upstream

import "sync"

const (
	defaultFailureThreshold = 5
	defaultSuccessThreshold = 2
)

// Health tracks consecutive upstream outcomes.
// It flips to unhealthy after FailureThreshold consecutive failures and back
// to healthy after SuccessThreshold consecutive successes. It never blocks
// calls; readiness probes read it.
type Health struct {
	mu               sync.Mutex
	healthy          bool
	failureCount     int
	successCount     int
	failureThreshold int
	successThreshold int
}

// HealthOption configures a Health tracker.
type HealthOption func(*Health)

// WithFailureThreshold sets the number of consecutive failures that mark
// the upstream unhealthy. Default is 5.
func WithFailureThreshold(n int) HealthOption {
	return func(h *Health) {
		if n > 0 {
			h.failureThreshold = n
		}
	}
}

// WithSuccessThreshold sets the number of consecutive successes that mark
// the upstream healthy again. Default is 2.
func WithSuccessThreshold(n int) HealthOption {
	return func(h *Health) {
		if n > 0 {
			h.successThreshold = n
		}
	}
}

func NewHealth(opts ...HealthOption) *Health {
	h := &Health{
		healthy:          true,
		failureThreshold: defaultFailureThreshold,
		successThreshold: defaultSuccessThreshold,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

func (h *Health) Healthy() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.healthy
}

// RecordFailure records a failed call and reports whether the tracker just
// became unhealthy.
func (h *Health) RecordFailure() (changed bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.failureCount++
	h.successCount = 0

	if h.healthy && h.failureCount >= h.failureThreshold {
		h.healthy = false
		return true
	}
	return false
}

// RecordSuccess records a successful call and reports whether the tracker
// just became healthy again.
func (h *Health) RecordSuccess() (changed bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.failureCount = 0
	if h.healthy {
		return false
	}

	h.successCount++
	if h.successCount >= h.successThreshold {
		h.healthy = true
		h.successCount = 0
		return true
	}
	return false
}
