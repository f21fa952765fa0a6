// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/dendra/internal/api"
	"github.com/starford/dendra/internal/index"
	"github.com/starford/dendra/internal/mcpserver"
	"github.com/starford/dendra/internal/outline"
	"github.com/starford/dendra/internal/sse"
	"github.com/starford/dendra/internal/storage"
	"github.com/starford/dendra/internal/vault"
)

func newApplication(opts []Option) (*application, error) {
	app := &application{version: "dev", logOut: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// setupLogger installs a structured JSON logger as the default.
func (a *application) setupLogger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(a.logOut, &slog.HandlerOptions{
		Level: a.config.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// openVault builds the note tree from disk. The returned closer releases the
// SQLite cache.
func (a *application) openVault(ctx context.Context, logger *slog.Logger) (*vault.Vault, func(), error) {
	cfg := a.config

	// Ensure vault directory exists.
	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create vault dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Vault.Path, cfg.Vault.Extension)
	if err != nil {
		return nil, nil, fmt.Errorf("init storage: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("init index: %w", err)
	}
	closeDB := func() {
		if err := db.Close(); err != nil {
			logger.Warn("close index failed", slog.String("error", err.Error()))
		}
	}

	v := vault.New(store, db,
		vault.WithExtension(cfg.Vault.Extension),
		vault.WithSortOnInsert(cfg.Tree.SortOnInsert),
		vault.WithLocale(cfg.Tree.Language()),
		vault.WithLogger(logger),
	)
	if err := v.Init(ctx); err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("init vault: %w", err)
	}
	return v, closeDB, nil
}

// Run starts the HTTP server and file watcher with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.setupLogger()

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("vault_extension", cfg.Vault.Extension),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.Bool("sort_on_insert", cfg.Tree.SortOnInsert),
		slog.String("log_level", cfg.App.LogLevel.String()))

	v, closeVault, err := app.openVault(ctx, logger)
	if err != nil {
		return err
	}
	defer closeVault()

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)

	apiRouter := api.NewRouter(v, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
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
		_, _ = fmt.Fprintf(w, `{"status":"ok","notes":%d}`, len(v.Outline())-1)
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start file watcher with SSE callback.
	g.Go(func() error {
		err := index.Watch(gCtx, cfg.Vault.Path, v, logger, func(kind, path string) {
			broker.PublishNoteEvent(kind, path, v.BaseName(path))
		})
		if err != nil {
			logger.Error("watcher failed", slog.String("error", err.Error()))
		}
		return nil
	})

	// Start HTTP server.
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

		// Closing the broker ends open event streams so Shutdown can drain.
		broker.Close()

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

// PrintTree writes the vault outline to w.
func PrintTree(ctx context.Context, w io.Writer, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := app.setupLogger()

	v, closeVault, err := app.openVault(ctx, logger)
	if err != nil {
		return err
	}
	defer closeVault()

	_, err = io.WriteString(w, outline.Render(v.Outline()))
	return err
}

// NewNote creates the note name from the default template and writes the
// new file name to w.
func NewNote(ctx context.Context, w io.Writer, name string, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := app.setupLogger()

	v, closeVault, err := app.openVault(ctx, logger)
	if err != nil {
		return err
	}
	defer closeVault()

	view, err := v.CreateNote(ctx, name)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	_, err = fmt.Fprintln(w, view.File)
	return err
}

// ServeMCP runs the MCP server on stdin/stdout while the watcher keeps the
// tree current.
func ServeMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.setupLogger()

	v, closeVault, err := app.openVault(ctx, logger)
	if err != nil {
		return err
	}
	defer closeVault()

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		if err := index.Watch(watchCtx, cfg.Vault.Path, v, logger, nil); err != nil {
			logger.Error("watcher failed", slog.String("error", err.Error()))
		}
	}()

	logger.Info("MCP server starting", slog.String("version", app.version))
	return mcpserver.New(v, app.version).ServeStdio()
}
