package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/taskboard/taskboard-go/internal/config"
	"github.com/taskboard/taskboard-go/internal/middleware"
	"github.com/taskboard/taskboard-go/internal/service"
)

// NewRouter mounts every route. Rate limiter housekeeping stops when done is closed.
func NewRouter(cfg config.Config, auth *service.AuthService, tasks *service.TaskService, store Pinger, done <-chan struct{}) http.Handler {
	authHandler := NewAuthHandler(auth, CookieConfig{
		MaxAge: cfg.Auth.CookieMaxAge,
		Secure: cfg.IsProduction(),
	})
	taskHandler := NewTaskHandler(tasks)
	statusHandler := NewStatusHandler(store, cfg.Build, cfg.AllowPublicHealthCheck)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.Logger)
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Get("/api/status", statusHandler.HandleStatus)

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst, done))
			r.Post("/auth/register", authHandler.HandleRegister)
			r.Post("/auth/login", authHandler.HandleLogin)
		})
		r.Post("/auth/logout", authHandler.HandleLogout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.JWTAuth(auth.TokenConfig()))
			r.Get("/auth/me", authHandler.HandleMe)

			r.Get("/tasks", taskHandler.HandleListTasks)
			r.Post("/tasks", taskHandler.HandleCreateTask)
			r.Get("/tasks/{taskID}", taskHandler.HandleGetTask)
			r.Patch("/tasks/{taskID}", taskHandler.HandleUpdateTask)
			r.Put("/tasks/{taskID}", taskHandler.HandleUpdateTask)
			r.Delete("/tasks/{taskID}", taskHandler.HandleDeleteTask)
		})
	})

	return r
}
