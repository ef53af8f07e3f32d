package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/erazemk/oglasnik/internal/api"
	"github.com/erazemk/oglasnik/internal/auth"
	"github.com/erazemk/oglasnik/internal/config"
	"github.com/erazemk/oglasnik/internal/db"
	"github.com/erazemk/oglasnik/internal/events"
	"github.com/erazemk/oglasnik/internal/market"
	"github.com/erazemk/oglasnik/internal/media"
	"github.com/erazemk/oglasnik/internal/observability"
	"github.com/erazemk/oglasnik/internal/ratelimit"
	"github.com/erazemk/oglasnik/internal/store"
	"github.com/erazemk/oglasnik/internal/web"
)

// Login throttling: attempts per username within the window.
const (
	loginAttempts = 10
	loginWindow   = 15 * time.Minute
)

const sessionPurgeInterval = time.Hour

func main() {
	if err := config.LoadDotenv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Parse(os.Args[1:], os.Getenv, os.Stdout)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Set up structured logging: INFO/WARN → stdout, ERROR → stderr.
	closeLog, err := setupLogger(cfg.LogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	if err := run(cfg); err != nil {
		slog.Error("fatal", "error", err)
		closeLog()
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx := context.Background()

	// Check if DB exists, auto-init if not.
	if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
		database, password, err := initDatabase(cfg.DBPath, cfg.AdminUser)
		if err != nil {
			return fmt.Errorf("initializing database: %w", err)
		}
		database.Close()

		printInitResult(os.Stdout, cfg.DBPath, cfg.AdminUser, password)
		fmt.Println()
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		return err
	}
	slog.Info("database ready", "path", cfg.DBPath)

	secret := cfg.JWTSecret
	if secret == "" {
		// Generated on first run and kept in the database.
		if secret, err = store.EnsureSecret(ctx, database, store.SettingSessionSecret); err != nil {
			return fmt.Errorf("loading session secret: %w", err)
		}
	}

	images, err := media.New(cfg.MediaDir)
	if err != nil {
		return err
	}

	shutdownTracing, err := observability.SetupTracing(ctx, "oglasnik", cfg.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			slog.Warn("failed to flush traces", "error", err)
		}
	}()

	var publisher events.Publisher = events.Nop{}
	if cfg.AMQPURL != "" {
		publisher = events.NewAMQP(cfg.AMQPURL)
		slog.Info("publishing domain events", "broker", "amqp")
	}

	limiter, closeLimiter := newLimiter(ctx, cfg.RedisAddr)
	defer closeLimiter()

	metrics := observability.NewMetrics()
	svc := market.New(database, images, publisher, metrics)

	// Set up routers.
	apiRouter := api.NewRouter(svc, secret, auth.DefaultTTL, limiter)
	webRouter, err := web.NewRouter(svc, secret, auth.DefaultTTL, limiter)
	if err != nil {
		return fmt.Errorf("setting up web router: %w", err)
	}

	// Combine: API routes take priority, web routes handle the rest.
	mux := http.NewServeMux()
	mux.Handle("/api/", apiRouter)
	mux.Handle("GET /media/", http.StripPrefix("/media/", images.Handler()))
	mux.Handle("GET /metrics", metrics.Handler())
	mux.Handle("/", webRouter)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.LoggingMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	stopPurge := purgeSessions(database, sessionPurgeInterval)
	defer stopPurge()

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Addr, "media", images.Root())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("server stopped, closing database")
	return nil
}

// newLimiter returns the login limiter: Redis-backed when an address is
// configured, in-process otherwise.
func newLimiter(ctx context.Context, addr string) (ratelimit.Limiter, func()) {
	if addr == "" {
		return ratelimit.NewMemory(loginAttempts, loginWindow), func() {}
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		slog.Warn("redis unreachable, login throttling fails open until it recovers", "addr", addr, "error", err)
	} else {
		slog.Info("login throttling backed by redis", "addr", addr)
	}
	return ratelimit.NewRedis(client, "oglasnik:login:", loginAttempts, loginWindow), func() { client.Close() }
}

// purgeSessions periodically drops expired entries from the revocation list.
func purgeSessions(database *sql.DB, every time.Duration) func() {
	ticker := time.NewTicker(every)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case now := <-ticker.C:
				if err := store.PurgeExpiredSessions(context.Background(), database, now); err != nil {
					slog.Warn("failed to purge expired sessions", "error", err)
				}
			}
		}
	}()
	return func() {
		ticker.Stop()
		close(done)
	}
}
