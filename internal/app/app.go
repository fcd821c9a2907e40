// Package app assembles the roster HTTP application from configuration.
// cmd/server runs it; the e2e suite builds it in-process.
package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"roster/internal/employee/handler"
	"roster/internal/employee/metrics"
	"roster/internal/employee/service"
	"roster/internal/employee/tracer"
	"roster/internal/employee/upstream"
	"roster/internal/platform/config"
	"roster/internal/platform/health"
	"roster/pkg/platform/middleware/request"
)

var _ service.Upstream = (*upstream.Client)(nil)

// App is the assembled application.
type App struct {
	Router         http.Handler
	UpstreamHealth *upstream.Health
}

type options struct {
	registry      *prometheus.Registry
	tracer        tracer.Tracer
	transportOpts []upstream.Option
}

// Option adjusts how the application is assembled.
type Option func(*options)

// WithRegistry sets the Prometheus registry metrics are registered with and
// served from. Defaults to a fresh registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *options) {
		o.registry = reg
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(o *options) {
		o.tracer = t
	}
}

// WithTransportOptions appends options to the upstream transport, after the
// ones derived from configuration.
func WithTransportOptions(opts ...upstream.Option) Option {
	return func(o *options) {
		o.transportOpts = append(o.transportOpts, opts...)
	}
}

// New wires config into the transport, client, service, handlers and middleware.
func New(cfg config.Server, log *slog.Logger, opts ...Option) *App {
	o := &options{
		registry: prometheus.NewRegistry(),
		tracer:   tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(o)
	}

	upstreamMetrics := metrics.NewWithRegisterer(o.registry)
	upstreamHealth := upstream.NewHealth()

	transportOpts := []upstream.Option{
		upstream.WithTimeout(cfg.Upstream.Timeout),
		upstream.WithBaseDelay(cfg.Upstream.RetryBaseDelay),
		upstream.WithMaxRetries(cfg.Upstream.MaxRetries),
		upstream.WithMetrics(upstreamMetrics),
		upstream.WithTracer(o.tracer),
		upstream.WithHealth(upstreamHealth),
		upstream.WithLogger(log),
	}
	if cfg.Upstream.RPS > 0 {
		transportOpts = append(transportOpts, upstream.WithRateLimiter(
			rate.NewLimiter(rate.Limit(cfg.Upstream.RPS), cfg.Upstream.Burst),
		))
	}
	transport := upstream.NewTransport(cfg.Upstream.BaseURL, append(transportOpts, o.transportOpts...)...)
	client := upstream.NewClient(transport, upstream.WithClientLogger(log))

	svc := service.New(client,
		service.WithLogger(log),
		service.WithTracer(o.tracer),
	)

	healthHandler := health.New(cfg.Environment)
	healthHandler.RegisterCheck("employee_upstream", func(context.Context) error {
		if !upstreamHealth.Healthy() {
			return errors.New("consecutive upstream failures")
		}
		return nil
	})

	r := chi.NewRouter()
	r.Use(request.Recovery(log))
	r.Use(request.RequestID)
	r.Use(request.Logger(log))
	r.Use(request.LatencyMiddleware(request.NewMetrics(o.registry)))

	healthHandler.Register(r)
	r.Handle("/metrics", promhttp.HandlerFor(o.registry, promhttp.HandlerOpts{Registry: o.registry}))

	r.Group(func(r chi.Router) {
		r.Use(request.Timeout(cfg.RequestTimeout))
		handler.New(svc, log).Register(r)
	})

	return &App{
		Router:         r,
		UpstreamHealth: upstreamHealth,
	}
}
