package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/xavierca1/leadflow/internal/infra/http/middleware"
)

type RouterConfig struct {
	Logger        *zap.Logger
	CORSOrigins   []string
	RateLimiter   *middleware.RateLimiter
	Health        *HealthHandler
	Board         *BoardHandler
	Leads         *LeadHandler
	Filters       *FilterHandler
	Stages        *StageHandler
	Notifications *NotificationHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173"}
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	if cfg.Health != nil {
		r.Get("/health", cfg.Health.Handle)
	}
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(60 * time.Second))
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Limit)
		}

		if h := cfg.Board; h != nil {
			r.Route("/board", func(r chi.Router) {
				r.Get("/", h.HandleGet)
				r.Post("/refresh", h.HandleRefresh)
				r.Post("/moves", h.HandleMove)
				r.Get("/leads/{id}", h.HandleGetLead)
				r.Patch("/leads/{id}", h.HandleUpdateLead)
			})
		}

		if h := cfg.Leads; h != nil {
			r.Get("/leads", h.HandleList)
			r.Delete("/leads/{id}", h.HandleDelete)
		}

		if h := cfg.Filters; h != nil {
			r.Route("/filters", func(r chi.Router) {
				r.Get("/", h.HandleList)
				r.Post("/", h.HandleCreate)
				r.Delete("/default", h.HandleClearDefault)
				r.Put("/{id}", h.HandleUpdate)
				r.Delete("/{id}", h.HandleDelete)
				r.Post("/{id}/default", h.HandleSetDefault)
			})
		}

		if h := cfg.Stages; h != nil {
			r.Route("/stages", func(r chi.Router) {
				r.Get("/", h.HandleList)
				r.Post("/", h.HandleCreate)
				r.Post("/reorder", h.HandleReorder)
				r.Put("/{id}", h.HandleUpdate)
				r.Delete("/{id}", h.HandleDelete)
			})
		}

		if h := cfg.Notifications; h != nil {
			r.Get("/notifications", h.HandleList)
		}
	})

	return r
}
