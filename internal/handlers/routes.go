package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Router builds the task service routes.
func (h *Handlers) Router() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Get("/healthz", h.Health)

	r.Route("/api/v1/tasks", func(r chi.Router) {
		r.Get("/user/{token}", h.ListTasks)
		r.Post("/", h.CreateTask)
		r.Put("/", h.UpdateTask)
		r.Delete("/{index}", h.DeleteTask)
	})

	return r
}
