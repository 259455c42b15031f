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

	"github.com/starford/ascii-star/internal/api"
	"github.com/starford/ascii-star/internal/mcpserver"
	"github.com/starford/ascii-star/internal/search"
	"github.com/starford/ascii-star/internal/sse"
	"github.com/starford/ascii-star/internal/storage"
	"github.com/starford/ascii-star/internal/watcher"
)

// libraries is the shared runtime state built from the config.
type libraries struct {
	songs  *storage.Library
	audio  *storage.Library
	engine *search.Engine
}

func setup(opts []Option, defaultOut io.Writer) (*application, *slog.Logger, *libraries, error) {
	app := &application{version: "dev"}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, nil, nil, fmt.Errorf("config is required")
	}
	if app.logOutput == nil {
		app.logOutput = defaultOut
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("song_path", cfg.Library.SongPath),
		slog.String("mp3_path", cfg.Library.MP3Path),
		slog.Bool("events_enabled", cfg.Events.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	songs, err := storage.NewLibrary(cfg.Library.SongPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init song library: %w", err)
	}
	audio, err := storage.NewLibrary(cfg.Library.MP3Path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init audio library: %w", err)
	}

	// Missing roots are not fatal: search returns no results and files 404.
	for _, root := range []string{songs.Root(), audio.Root()} {
		if info, statErr := os.Stat(root); statErr != nil || !info.IsDir() {
			logger.Warn("library root is not a readable directory", slog.String("path", root))
		}
	}

	libs := &libraries{
		songs:  songs,
		audio:  audio,
		engine: search.NewEngine(songs, logger),
	}
	return app, logger, libs, nil
}

// newHTTPHandler builds the top-level chi router. events may be nil.
func newHTTPHandler(libs *libraries, events http.Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints.
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

	h := api.NewHandler(libs.engine, libs.songs, libs.audio, logger)
	r.Mount("/", api.NewRouter(h, events))
	return r
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, logger, libs, err := setup(opts, os.Stdout)
	if err != nil {
		return err
	}
	cfg := app.config

	var broker *sse.Broker
	var events http.Handler
	if cfg.Events.Enabled {
		broker = sse.NewBroker(cfg.Events.Throttle)
		defer broker.Close()
		events = broker
	}

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: newHTTPHandler(libs, events, logger),
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	g, gCtx := errgroup.WithContext(runCtx)

	// Watch the song library and push changes to SSE clients.
	if broker != nil {
		g.Go(func() error {
			if err := watcher.Watch(gCtx, libs.songs, search.SongRoute, logger, broker.PublishSongEvent); err != nil {
				logger.Warn("watcher failed", slog.String("error", err.Error()))
			}
			return nil
		})
	}

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
		defer signal.Stop(quit)

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
		// Release the watcher.
		stop()

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the MCP tools on stdin/stdout. Logs go to stderr unless
// overridden so they never mix with the protocol stream.
func RunMCP(_ context.Context, opts ...Option) error {
	app, logger, libs, err := setup(opts, os.Stderr)
	if err != nil {
		return err
	}

	srv := mcpserver.New(libs.engine, libs.songs, libs.audio, app.version)
	logger.Info("MCP server starting on stdio")
	if err := srv.ServeStdio(); err != nil {
		return fmt.Errorf("mcp server error: %w", err)
	}
	return nil
}
