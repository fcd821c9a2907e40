package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"roster/internal/app"
	"roster/internal/employee/tracer"
	"roster/internal/platform/config"
	"roster/internal/platform/httpserver"
	"roster/internal/platform/logger"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in internal/employee.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	log.Info("initializing roster",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"upstream", cfg.Upstream.BaseURL,
		"upstream_max_retries", cfg.Upstream.MaxRetries,
		"upstream_rps", cfg.Upstream.RPS,
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	application := app.New(cfg, log,
		app.WithRegistry(reg),
		app.WithTracer(tracer.NewOTel()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := httpserver.New(cfg.Addr, application.Router)
	if err := httpserver.Run(ctx, srv, cfg.ShutdownTimeout, log); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
