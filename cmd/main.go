package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/UnknownOlympus/wayfinder/internal/cache"
	"github.com/UnknownOlympus/wayfinder/internal/config"
	"github.com/UnknownOlympus/wayfinder/internal/metrics"
	"github.com/UnknownOlympus/wayfinder/internal/models"
	"github.com/UnknownOlympus/wayfinder/internal/resolver"
	"github.com/UnknownOlympus/wayfinder/internal/routing"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Constants for different environment types.
const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"
)

// main is the entry point of the application.
func main() {
	// Create a context that will be canceled when an interrupt signal is received.
	// This allows for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load application configuration.
	cfg := config.MustLoad()

	// Set up the logger based on the environment.
	logger := setupLogger(cfg.Env)

	// Create a separate registry for metrics with exemplar
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(reg)

	// Pick the cache store: a durable Postgres-backed cache when database
	// configuration is present, an in-memory cache otherwise.
	var store cache.Store
	var pool *pgxpool.Pool
	if cfg.Database.Host != "" {
		var err error
		pool, err = cache.NewDatabase(
			cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password, cfg.Database.Name,
		)
		if err != nil {
			log.Fatalf("Failed to connect to DB: %v", err)
		}
		pgStore := cache.NewPostgresStore(pool, logger)
		if err = pgStore.EnsureSchema(ctx); err != nil {
			log.Fatalf("Failed to prepare cache schema: %v", err)
		}
		store = pgStore
	} else {
		logger.WarnContext(ctx, "No database configured, route cache will not survive restarts")
		store = cache.NewMemoryStore()
	}

	// Build a direct client for every configured provider credential.
	// Selection between them happens per resolution in the chain.
	rateLimit := 50
	providers := make(map[models.Provider]routing.Provider)
	for _, pc := range []routing.ProviderConfig{
		{Type: models.ProviderGoogle, APIKey: cfg.GoogleAPIKey, RateLimit: rateLimit, Logger: logger},
		{Type: models.ProviderORS, APIKey: cfg.ORSAPIKey, RateLimit: rateLimit, Logger: logger},
	} {
		if pc.APIKey == "" {
			continue
		}
		provider, err := routing.NewProvider(pc)
		if err != nil {
			log.Fatalf("Failed to create routing provider: %v", err)
		}
		providers[pc.Type] = provider
		logger.InfoContext(ctx, "Routing provider initialized", "type", pc.Type)
	}

	var relay *routing.RelayClient
	if cfg.RelayURL != "" {
		relay = routing.NewRelayClient(cfg.RelayURL, logger)
		logger.InfoContext(ctx, "Backend relay configured", "url", cfg.RelayURL)
	}

	creds := routing.Credentials{GoogleAPIKey: cfg.GoogleAPIKey, ORSAPIKey: cfg.ORSAPIKey}
	chain := routing.NewChain(
		func() routing.Credentials { return creds },
		providers, relay, logger, appMetrics,
	)

	// The daemon itself is assumed online; mobile embedders supply their own
	// connectivity monitor per session.
	monitor := resolver.OnlineFunc(func(_ context.Context) bool { return true })

	// Log that the application has started.
	logger.InfoContext(ctx, "Application started. Press Ctrl+C to stop.")

	// Start the monitoring server in a goroutine to allow main to listen for signals.
	go startServer(ctx, logger, reg, pool, cfg.Port, func() *resolver.Resolver {
		return resolver.New(logger, store, chain, monitor, appMetrics)
	})

	// Wait for the context to be canceled (e.g., by Ctrl+C).
	<-ctx.Done()

	// Log that a shutdown signal has been received.
	logger.InfoContext(ctx, "Shutdown signal received. Stopping application...")

	if pool != nil {
		pool.Close()
	}

	// Log graceful shutdown completion.
	logger.InfoContext(ctx, "Application stopped gracefully.")
}

// startServer starts an HTTP server that provides health check, metrics and
// route-resolution endpoints. Each /route request runs in its own resolver
// session, so concurrent requests never share state.
//
// Parameters:
// - ctx: A context.Context for managing cancellation and timeouts.
// - log: A logger for logging server events and errors.
// - reg: A registry with Prometheus collectors.
// - dtb: A pgxpool connector for database methods (ping); nil when running without a DB.
// - port: The port number on which the server will listen.
// - newSession: Factory creating one resolver per request.
func startServer(
	ctx context.Context,
	log *slog.Logger,
	reg *prometheus.Registry,
	dtb *pgxpool.Pool,
	port int,
	newSession func() *resolver.Resolver,
) {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(writer http.ResponseWriter, _ *http.Request) {
		log.DebugContext(ctx, "Performing health checks...")
		status, body := http.StatusOK, "OK"
		if dtb != nil {
			if err := dtb.Ping(ctx); err != nil {
				status, body = http.StatusServiceUnavailable, "DB ping failed"
			}
		}
		writer.WriteHeader(status)
		if _, err := writer.Write([]byte(body)); err != nil {
			log.ErrorContext(ctx, "failed to write reply", "error", err)
		}

		log.DebugContext(ctx, "Health checks completed", "status", status)
	})
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	mux.HandleFunc("/route", func(writer http.ResponseWriter, req *http.Request) {
		origin, destination, err := parseRouteQuery(req)
		if err != nil {
			http.Error(writer, err.Error(), http.StatusBadRequest)
			return
		}

		session := newSession()
		session.Resolve(req.Context(), origin, destination)
		snapshot := session.Snapshot()

		writer.Header().Set("Content-Type", "application/json")
		if err = json.NewEncoder(writer).Encode(snapshot); err != nil {
			log.ErrorContext(req.Context(), "failed to encode route response", "error", err)
		}
	})

	log.InfoContext(ctx, "Starting monitoring server", "port", port)
	readTimeout := 5
	writeTimeout := 15
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  time.Duration(readTimeout) * time.Second,
		WriteTimeout: time.Duration(writeTimeout) * time.Second,
	}
	if err := server.ListenAndServe(); err != nil {
		log.ErrorContext(ctx, "Monitoring server failed", "error", err)
	}
}

// parseRouteQuery extracts origin and destination coordinates from the
// olat/olng/dlat/dlng query parameters.
func parseRouteQuery(req *http.Request) (models.Coordinate, models.Coordinate, error) {
	values := req.URL.Query()

	parse := func(name string) (float64, error) {
		value, err := strconv.ParseFloat(values.Get(name), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid query parameter %q: %w", name, err)
		}
		return value, nil
	}

	var origin, destination models.Coordinate
	var err error
	if origin.Latitude, err = parse("olat"); err != nil {
		return origin, destination, err
	}
	if origin.Longitude, err = parse("olng"); err != nil {
		return origin, destination, err
	}
	if destination.Latitude, err = parse("dlat"); err != nil {
		return origin, destination, err
	}
	if destination.Longitude, err = parse("dlng"); err != nil {
		return origin, destination, err
	}

	return origin, destination, nil
}

// setupLogger initializes and returns a logger based on the environment provided.
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelDebug,
				AddSource: true,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					return a
				},
			}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelInfo,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					return a
				},
			}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelWarn,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					if a.Key == slog.TimeKey {
						return slog.Attr{}
					}
					return a
				},
			}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelError,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					if a.Key == slog.TimeKey {
						return slog.Attr{}
					}
					return a
				},
			}),
		)

		log.Error(
			"The env parameter was not specified or was invalid. Logging will be minimal, by default.",
			slog.String("available_envs", "local, development, production"))
	}

	return log
}
