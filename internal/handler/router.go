package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/harulog/backend/internal/handler/chat"
	"github.com/harulog/backend/internal/handler/health"
	middlewarePkg "github.com/harulog/backend/internal/middleware"
	aiService "github.com/harulog/backend/internal/service/ai"
)

const maxBodyBytes = 1 << 20

// NewRouter wires HTTP routes to the upstream relay.
func NewRouter(aiSvc *aiService.Service) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)
	r.Use(middlewarePkg.LimitBody(maxBodyBytes))

	health.New(aiSvc).RegisterRoutes(r)

	r.Route("/api", func(api chi.Router) {
		chat.New(aiSvc).RegisterRoutes(api)
	})

	return r
}
