package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/sentivision/internal/adapters/http/api"
	"github.com/okian/sentivision/internal/adapters/http/site"
	"github.com/okian/sentivision/internal/adapters/http/swagger"
	service "github.com/okian/sentivision/internal/app"
	"github.com/okian/sentivision/internal/config"
	"github.com/okian/sentivision/pkg/logger"
	"github.com/okian/sentivision/pkg/metrics"
)

const (
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func newServeCommand(cc *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard, JSON API and metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return cc.withService(ctx, func(cfg *config.Config, svc *service.Service) error {
				return serve(ctx, cfg, svc)
			})
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, svc *service.Service) error {
	log := logger.Get()
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}

	handler, err := newHandler(ctx, cfg, svc)
	if err != nil {
		return err
	}

	go startSystemMetricsUpdater(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       cfg.ReadTimeout(),
		WriteTimeout:      cfg.WriteTimeout(),
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
		return err
	}
	log.Info(ctx, "server stopped")
	return nil
}

// newHandler mounts the docs, JSON API and HTML pages on one mux behind the
// shared middleware chain.
// newHandler assembles every route. The metrics collectors are rebuilt
// from cfg first so /metrics serves the configured names.
func newHandler(ctx context.Context, cfg *config.Config, svc *service.Service) (http.Handler, error) {
	metrics.Configure(metricsOptions(cfg.Metrics)...)
	mux := http.NewServeMux()

	swagger.Register(ctx, mux)
	api.NewServer(svc, api.WithLogger(logger.Named("api"))).Register(ctx, mux)

	pages, err := site.New(svc, site.WithLogger(logger.Named("site")))
	if err != nil {
		return nil, fmt.Errorf("load pages: %w", err)
	}
	pages.Register(ctx, mux)

	return api.Chain(mux,
		api.RequestID,
		api.AccessLog(logger.Named("http")),
		api.RateLimit(api.NewLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)),
	), nil
}

// startSystemMetricsUpdater refreshes the process metrics until ctx ends.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

func metricsOptions(m config.Metrics) []metrics.Option {
	return []metrics.Option{
		metrics.WithNamespace(m.Namespace),
		metrics.WithSubsystem(m.Subsystem),
		metrics.WithConstLabels(m.Labels),
		metrics.WithHistogramBuckets(m.BucketsMs),
	}
}
