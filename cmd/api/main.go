package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/taskboard/taskboard-go/internal/config"
	"github.com/taskboard/taskboard-go/internal/handler"
	"github.com/taskboard/taskboard-go/internal/repository"
	"github.com/taskboard/taskboard-go/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	cfg := config.Load()
	setupLogger(cfg)

	if err := cfg.Validate(); err != nil {
		if cfg.IsProduction() {
			slog.Error("invalid configuration", "error", err)
			os.Exit(1)
		}
		slog.Warn("incomplete configuration, affected requests will fail", "error", err)
	}

	st, err := openStores(context.Background(), cfg.Database)
	if err != nil {
		slog.Error("database connection failed", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	defer st.close()

	authService := service.NewAuthService(st.users, cfg.Auth)
	taskService := service.NewTaskService(st.tasks)

	done := make(chan struct{})
	defer close(done)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.NewRouter(cfg, authService, taskService, st.pinger, done),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.Env, "driver", cfg.Database.Driver, "version", cfg.Build.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced shutdown", "error", err)
		return
	}

	slog.Info("server stopped")
}

func setupLogger(cfg config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var h slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if cfg.IsProduction() {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))
}

type stores struct {
	users  service.UserStore
	tasks  service.TaskStore
	pinger handler.Pinger
	close  func() error
}

// openStores connects the configured backend. The memory driver keeps
// everything in process and loses it on exit.
func openStores(ctx context.Context, cfg config.DatabaseConfig) (stores, error) {
	if cfg.Driver == "memory" {
		mem := repository.NewMemoryStore()
		slog.Warn("using in-memory store, data will not survive a restart")
		return stores{
			users:  mem.Users(),
			tasks:  mem.Tasks(),
			pinger: mem,
			close:  func() error { return nil },
		}, nil
	}

	db, err := repository.NewDB(ctx, cfg)
	if err != nil {
		return stores{}, err
	}
	return stores{
		users:  repository.NewUserRepository(db),
		tasks:  repository.NewTaskRepository(db),
		pinger: db,
		close:  db.Close,
	}, nil
}
