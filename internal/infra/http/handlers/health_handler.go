package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/xavierca1/leadflow/internal/usecase"
)

// Pinger is satisfied by the Postgres store.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	Store       Pinger
	RabbitMQ    func() bool
	Board       *usecase.Board
	BackendURL  string
	StartTime   time.Time
	Version     string
	PingTimeout time.Duration
}

type HealthResponse struct {
	Status       string            `json:"status"`
	Version      string            `json:"version"`
	Uptime       string            `json:"uptime"`
	Board        string            `json:"board,omitempty"`
	Dependencies map[string]string `json:"dependencies"`
}

func NewHealthHandler(store Pinger, rabbitHealthy func() bool, board *usecase.Board, backendURL string) *HealthHandler {
	return &HealthHandler{
		Store:       store,
		RabbitMQ:    rabbitHealthy,
		Board:       board,
		BackendURL:  backendURL,
		StartTime:   time.Now(),
		Version:     "1.0.0",
		PingTimeout: 2 * time.Second,
	}
}

func (h *HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	deps := make(map[string]string)

	if h.Store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), h.PingTimeout)
		err := h.Store.Ping(ctx)
		cancel()
		if err != nil {
			deps["database"] = fmt.Sprintf("unhealthy: %v", err)
		} else {
			deps["database"] = "healthy"
		}
	} else {
		deps["database"] = "not configured"
	}

	if h.RabbitMQ != nil {
		if h.RabbitMQ() {
			deps["rabbitmq"] = "healthy"
		} else {
			deps["rabbitmq"] = "unhealthy: connection closed"
		}
	} else {
		deps["rabbitmq"] = "not configured"
	}

	if h.BackendURL != "" {
		deps["crm_api"] = "configured"
	} else {
		deps["crm_api"] = "not configured"
	}

	status := "healthy"
	for _, v := range deps {
		if v != "healthy" && v != "configured" && v != "not configured" {
			status = "degraded"
			break
		}
	}

	resp := HealthResponse{
		Status:       status,
		Version:      h.Version,
		Uptime:       time.Since(h.StartTime).Round(time.Second).String(),
		Dependencies: deps,
	}
	if h.Board != nil {
		resp.Board = h.Board.State().String()
	}

	code := http.StatusOK
	if status == "degraded" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}
