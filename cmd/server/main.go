package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"leadgate/internal/platform/config"
	"leadgate/internal/platform/health"
	"leadgate/internal/platform/logger"
	httptransport "leadgate/internal/transport/http"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("initializing leadgate",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"cms", cfg.CMS.BaseURL,
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	infra, err := newInfrastructure(ctx, cfg, log, reg)
	if err != nil {
		return err
	}
	defer infra.close(log)

	healthHandler := health.New(cfg.Environment)
	app, err := newApplication(cfg, log, reg, infra, healthHandler)
	if err != nil {
		return err
	}
	defer app.close(cfg.ShutdownTimeout, log)

	pages, err := pageHandler(cfg, log)
	if err != nil {
		return err
	}

	router := httptransport.NewRouter(httptransport.Dependencies{
		Logger:         log,
		Events:         app.events,
		Guard:          app.guard,
		ClientMetadata: app.clientMetadata,
		RequestMetrics: app.requestMetrics,
		RateLimit:      app.rateLimit,
		Health:         healthHandler,
		Metrics:        promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		Lead:           app.lead,
		Content:        app.content,
		Media:          app.media,
		SecurityEvents: app.securityEvents,
		RateLimitAdmin: app.rateLimitAdmin,
		AdminSecret:    []byte(cfg.Security.AdminJWTSecret),
		Pages:          pages,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	for _, worker := range app.workers {
		g.Go(func() error {
			if err := worker(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func pageHandler(cfg config.Server, log *slog.Logger) (http.Handler, error) {
	if cfg.FrontendURL == "" {
		return nil, nil
	}
	return httptransport.NewPageProxy(cfg.FrontendURL, log)
}
