// Package main is the entrypoint for the cropadvisor API server and its
// operator commands.
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

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kiranshivaraju/cropadvisor/internal/api"
	"github.com/kiranshivaraju/cropadvisor/internal/api/handler"
	mw "github.com/kiranshivaraju/cropadvisor/internal/api/middleware"
	"github.com/kiranshivaraju/cropadvisor/internal/api/response"
	"github.com/kiranshivaraju/cropadvisor/internal/cache"
	"github.com/kiranshivaraju/cropadvisor/internal/config"
	"github.com/kiranshivaraju/cropadvisor/internal/inference"
	"github.com/kiranshivaraju/cropadvisor/internal/market"
	"github.com/kiranshivaraju/cropadvisor/internal/recommend"
	"github.com/kiranshivaraju/cropadvisor/internal/store"
	"github.com/kiranshivaraju/cropadvisor/internal/weather"
)

const (
	shutdownTimeout      = 30 * time.Second
	defaultMigrationsDir = "migrations"
)

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	level := slog.LevelInfo
	if os.Getenv("CROPADVISOR_ENV") == "development" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	if err := newRootCmd().Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var migrationsDir string
	root := &cobra.Command{
		Use:           "cropadvisor",
		Short:         "Crop recommendation API server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServer(cmd.Context(), migrationsDir)
		},
	}
	root.PersistentFlags().StringVar(&migrationsDir, "migrations", defaultMigrationsDir, "Directory containing SQL migrations")

	root.AddCommand(serveCmd(&migrationsDir))
	root.AddCommand(migrateCmd(&migrationsDir))
	root.AddCommand(apikeyCmd())
	return root
}

func serveCmd(migrationsDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServer(cmd.Context(), *migrationsDir)
		},
	}
}

func runServer(parent context.Context, migrationsDir string) error {
	if parent == nil {
		parent = context.Background()
	}

	// 1. Load config, failing fast on invalid values
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded",
		"env", cfg.Server.Env,
		"ml_server", cfg.Inference.URL,
		"weather_enabled", cfg.WeatherEnabled(),
	)

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to database
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	slog.Info("database connected")

	// 3. Run migrations
	if err := store.RunMigrations(cfg.Database.URL, migrationsDir); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied")

	// 4. Create Redis cache
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	// 5. Collaborators
	pgStore := store.NewPostgresStore(pool)
	provider := inference.NewHTTPProvider(cfg.Inference.URL, cfg.Inference.Timeout)
	svc := recommend.NewService(provider, newWeatherClient(cfg, redisCache), market.NewTable(nil), pgStore, recommend.Options{
		InferenceTimeout:    cfg.Inference.Timeout,
		WeatherTimeout:      cfg.Weather.Timeout,
		HistoryWriteTimeout: cfg.History.WriteTimeout,
	})

	// 6. Build router with dependencies
	router := api.NewRouter(api.Dependencies{
		Auth:        mw.NewAuth(pgStore),
		RateLimit:   mw.NewRateLimit(redisCache, cfg.Server.RateLimitPerMin),
		CORSOrigins: cfg.Server.CORSAllowedOrigins,

		HealthHandler:    healthHandler(pgStore, redisCache),
		RecommendHandler: handler.NewRecommendHandler(svc),
		ListHistory:      handler.NewListHistoryHandler(pgStore),
		GetHistory:       handler.NewGetHistoryHandler(pgStore),
	})

	// 7. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	if err := svc.Drain(shutdownCtx); err != nil {
		slog.Warn("history writes abandoned at shutdown", "error", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// newWeatherClient returns nil when no API key is configured, which turns
// weather overrides off.
func newWeatherClient(cfg *config.Config, c cache.Cache) weather.Client {
	if !cfg.WeatherEnabled() {
		return nil
	}
	owm := weather.NewOpenWeatherMap(cfg.Weather.BaseURL, cfg.Weather.APIKey, cfg.Weather.Timeout, cfg.Weather.RequestsPerMin)
	if cfg.Weather.CacheTTL <= 0 {
		return owm
	}
	return weather.NewCached(owm, c, cfg.Weather.CacheTTL)
}

// pinger is satisfied by both the store and the cache.
type pinger interface {
	Ping(ctx context.Context) error
}

// healthHandler checks database and cache connectivity.
func healthHandler(db, c pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"database": "ok",
			"cache":    "ok",
		}

		if err := db.Ping(r.Context()); err != nil {
			slog.Warn("health: database ping failed", "error", err)
			checks["database"] = "degraded"
		}
		if err := c.Ping(r.Context()); err != nil {
			slog.Warn("health: cache ping failed", "error", err)
			checks["cache"] = "degraded"
		}

		status := "ok"
		code := http.StatusOK
		if checks["database"] != "ok" || checks["cache"] != "ok" {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		response.Raw(w, code, map[string]any{
			"success":  code == http.StatusOK,
			"status":   status,
			"services": checks,
		})
	}
}
