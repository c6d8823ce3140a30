package health

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/harulog/backend/pkg/utils"
)

// Prober reports whether the upstream inference server answers.
type Prober interface {
	BaseURL() string
	Probe(ctx context.Context) (bool, error)
}

// Handler serves GET /health.
type Handler struct {
	prober Prober
}

// New 创建健康检查处理器
func New(prober Prober) *Handler {
	return &Handler{prober: prober}
}

// RegisterRoutes 注册健康检查路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.handleHealth)
}

type status struct {
	OK          bool   `json:"ok"`
	LlamaServer string `json:"llamaServer"`
	Reachable   bool   `json:"reachable"`
	Error       string `json:"error,omitempty"`
}

// handleHealth always answers 200; upstream problems show up in the body.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := status{OK: true, LlamaServer: h.prober.BaseURL()}

	reachable, err := h.prober.Probe(r.Context())
	if err != nil {
		log.Printf("[health] upstream probe failed: %v", err)
		resp.Error = err.Error()
	}
	resp.Reachable = reachable

	utils.RespondJSON(w, http.StatusOK, resp)
}
