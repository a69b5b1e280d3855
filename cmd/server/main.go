package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/kndrckm/splitbill/internal/auth"
	"github.com/kndrckm/splitbill/internal/config"
	"github.com/kndrckm/splitbill/internal/events"
	"github.com/kndrckm/splitbill/internal/extraction"
	"github.com/kndrckm/splitbill/internal/metrics"
	"github.com/kndrckm/splitbill/internal/middleware"
	"github.com/kndrckm/splitbill/internal/service"
	"github.com/kndrckm/splitbill/internal/storage"
	"github.com/kndrckm/splitbill/internal/storage/memory"
	"github.com/kndrckm/splitbill/internal/storage/postgres"
	"github.com/kndrckm/splitbill/internal/storage/sqlite"
	"github.com/kndrckm/splitbill/pkg/logging"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logging.Setup()

	cfg := config.Load(".env")
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Server stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config) error {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	publisher, err := openPublisher(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to broker: %w", err)
	}
	defer publisher.Close()

	var extractor extraction.Extractor = extraction.Disabled{}
	if cfg.ExtractionURL != "" {
		extractor = extraction.NewHTTPExtractor(cfg.ExtractionURL, cfg.ExtractionAPIKey, cfg.ExtractionTimeout)
		slog.Info("Receipt extraction enabled", "endpoint", cfg.ExtractionURL)
	}

	m := metrics.New()
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	svc := service.NewSessionService(store, jwtManager,
		service.WithExtractor(extractor),
		service.WithPublisher(publisher),
		service.WithMetrics(m),
	)

	// Logging runs outermost so rejected calls are logged too.
	interceptors := connect.WithInterceptors(
		middleware.LoggingInterceptor(m),
		middleware.RequireSessionToken(jwtManager, service.PublicProcedures...),
	)

	mux := http.NewServeMux()
	path, handler := service.NewSessionServiceHandler(svc, interceptors)
	mux.Handle(path, handler)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	if cfg.StaticPath != "" {
		staticHandler, err := staticFiles(cfg.StaticPath)
		if err != nil {
			return err
		}
		mux.Handle("/", staticHandler)
	}

	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	apiServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h2c.NewHandler(loggingMiddleware(corsMiddleware(mux)), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", m.Handler())
	metricsServer := &http.Server{
		Addr:              ":" + cfg.MetricsPort,
		Handler:           metricsMux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, srv := range []*http.Server{apiServer, metricsServer} {
		srv := srv // per-iteration copy (go 1.21 loop semantics)
		g.Go(func() error {
			slog.Info("Listening", "address", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("listen %s: %w", srv.Addr, err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		slog.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return errors.Join(
			apiServer.Shutdown(shutdownCtx),
			metricsServer.Shutdown(shutdownCtx),
		)
	})

	slog.Info("Connect server starting",
		"port", cfg.Port,
		"metrics_port", cfg.MetricsPort,
		"store", cfg.StoreBackend,
	)
	return g.Wait()
}

func openStore(ctx context.Context, cfg *config.Config) (storage.SessionStore, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		store, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		slog.Info("Storage initialized", "backend", "postgres")
		return store, nil
	case config.BackendMemory:
		slog.Warn("Using in-memory storage; sessions are lost on restart")
		return memory.New(), nil
	default:
		store, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		slog.Info("Storage initialized", "backend", "sqlite", "database", cfg.DBPath)
		return store, nil
	}
}

func openPublisher(cfg *config.Config) (events.Publisher, error) {
	if cfg.AMQPURL == "" {
		return events.Noop{}, nil
	}
	publisher, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return nil, err
	}
	slog.Info("Publishing session changes", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	return publisher, nil
}

// staticFiles serves the web UI, falling back to index.html for unknown paths.
func staticFiles(staticPath string) (http.Handler, error) {
	staticDir, err := filepath.Abs(staticPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve static path: %w", err)
	}
	slog.Info("Serving static files", "path", staticDir)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/"+service.SessionServiceName) {
			http.NotFound(w, r)
			return
		}

		urlPath := r.URL.Path
		if urlPath == "/" {
			urlPath = "/index.html"
		}

		filePath := filepath.Join(staticDir, filepath.Clean(urlPath))
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
			return
		}

		http.ServeFile(w, r, filePath)
	}), nil
}

// loggingMiddleware logs all incoming requests
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Connect-Protocol-Version, Connect-Timeout-Ms")
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
