// Package internal provides the main application initialization and runtime logic.
package internal

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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/raido/internal/api"
	"github.com/starford/raido/internal/backup"
	"github.com/starford/raido/internal/index"
	"github.com/starford/raido/internal/lifecycle"
	"github.com/starford/raido/internal/mover"
	"github.com/starford/raido/internal/reconcile"
	"github.com/starford/raido/internal/routing"
	"github.com/starford/raido/internal/sse"
	"github.com/starford/raido/internal/storage"
	"github.com/starford/raido/internal/triage"
	"github.com/starford/raido/internal/watch"
)

// Core bundles the wired application components shared by the server,
// the one-shot CLI commands, and the MCP server.
type Core struct {
	Config      *Config
	Logger      *slog.Logger
	Store       storage.Provider
	Ledger      *index.DB
	Coordinator *lifecycle.Coordinator
	Generator   *triage.Generator
	Reconciler  *reconcile.Reconciler
}

// Close releases the core's resources.
func (c *Core) Close() error {
	return c.Ledger.Close()
}

// NewLogger builds the structured JSON logger and installs it as the
// process default.
func NewLogger(level slog.Level) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// BuildCore wires storage, the audit ledger, backups, routing, and the
// lifecycle coordinator from configuration. events, if non-nil, receives
// lifecycle events from the coordinator.
func BuildCore(cfg *Config, logger *slog.Logger, events func(kind, path string)) (*Core, error) {
	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	ledger, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init ledger: %w", err)
	}

	backups, err := backup.NewManager(cfg.Backup.Dir, ledger)
	if err != nil {
		ledger.Close()
		return nil, fmt.Errorf("init backups: %w", err)
	}

	table, err := routing.NewTable(cfg.Routing.Routes)
	if err != nil {
		ledger.Close()
		return nil, fmt.Errorf("init routing: %w", err)
	}

	gen := triage.NewGenerator(store, cfg.Promotion.MinQuality)
	coord := lifecycle.New(lifecycle.Options{
		Store:      store,
		Routes:     table,
		Mover:      mover.New(store, backups, cfg.Routing.CreateDirs),
		Backups:    backups,
		Scanner:    gen,
		Ledger:     ledger,
		Recursive:  cfg.Vault.Recursive,
		MinQuality: cfg.Promotion.MinQuality,
		Events:     events,
	})

	return &Core{
		Config:      cfg,
		Logger:      logger,
		Store:       store,
		Ledger:      ledger,
		Coordinator: coord,
		Generator:   gen,
		Reconciler:  reconcile.New(store, cfg.Vault.Recursive),
	}, nil
}

// Run starts the HTTP server with the given options and blocks until
// shutdown.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	logger := NewLogger(cfg.App.LogLevel)
	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// SSE broker; the coordinator feeds it promotion and repair events.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	core, err := BuildCore(cfg, logger, broker.PublishLifecycle)
	if err != nil {
		return err
	}
	defer core.Close()

	h := api.NewHandler(core.Coordinator, core.Generator, core.Reconciler, core.Ledger, cfg.Vault.Recursive)
	apiRouter := api.NewRouter(h, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Vault watcher feeds filesystem changes into the SSE stream.
	g.Go(func() error {
		return watch.Watch(gCtx, cfg.Vault.Path, cfg.Vault.Recursive, logger, broker.PublishLifecycle)
	})

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
