package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"libraryapi/internal/book"
	"libraryapi/internal/bootstrap"
	"libraryapi/internal/config"
	"libraryapi/internal/httpx"
	"libraryapi/internal/ingest"
	"libraryapi/internal/logging"
	"libraryapi/internal/platform/events"
	"libraryapi/internal/platform/openlibrary"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	repo, closeRepo, err := bootstrap.OpenRepository(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeRepo()

	opts := []book.Option{
		book.WithLogger(logger),
		book.WithMetadataSource(openlibrary.NewClient(
			cfg.OpenLibrary.BaseURL, cfg.OpenLibrary.UserAgent, cfg.OpenLibrary.RPS, cfg.OpenLibrary.Retries,
		)),
	}
	if cfg.AMQPURL != "" {
		publisher, err := events.DialRabbit(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return err
		}
		defer publisher.Close()
		opts = append(opts, book.WithEvents(publisher))
		logger.Info().Str("exchange", cfg.AMQPExchange).Msg("publishing book events")
	}
	service := book.NewService(repo, opts...)

	handler, stopRouter := newRouter(cfg, logger, service, prometheus.NewRegistry())
	defer stopRouter()

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Addr).Str("store", cfg.StoreDriver).Msg("starting server")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Warn().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// newRouter mounts every route and wraps the mux in the middleware chain.
// The returned func stops background work owned by the middleware.
func newRouter(cfg config.Config, logger zerolog.Logger, service *book.Service, reg *prometheus.Registry) (http.Handler, func()) {
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	router := http.NewServeMux()
	book.NewHTTPHandler(service).Register(router)

	router.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := service.Ping(ctx); err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Msg("readiness check failed")
			http.Error(w, "store not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	if cfg.IngestSecret != "" {
		jobs := ingest.NewService(service, ingest.Config{BooksMax: cfg.IngestMaxBooks, MaxFailures: 5})
		ingest.NewHTTPHandler(jobs, cfg.IngestSecret).Register(router)
	}
	router.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	metrics := httpx.NewMetrics(reg)
	rateLimiter := httpx.NewRateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst)

	handler := httpx.Chain(metrics.Route(router),
		metrics.Middleware,
		httpx.RequestIDMiddleware,
		httpx.AccessLogMiddleware(logger),
		httpx.RecoveryMiddleware,
		httpx.SecurityHeadersMiddleware(cfg.EnableHSTS),
		httpx.CORSMiddleware(cfg.CORSAllowedOrigins),
		rateLimiter.Middleware,
		httpx.RequestSizeLimitMiddleware(cfg.MaxBodyBytes),
	)
	return handler, rateLimiter.Stop
}
