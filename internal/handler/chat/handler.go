package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/harulog/backend/pkg/utils"
)

const (
	emptyMessageNotice = "메시지를 비워둘 수 없어요."
	tooLargeNotice     = "메시지가 너무 길어요."
	proxyErrorPrefix   = "프록시 오류: "
	maxErrorRunes      = 4000
)

// Completer is the upstream the proxy relays to.
type Completer interface {
	Complete(ctx context.Context, message string) (string, error)
}

// Handler 聊天代理的HTTP处理器
type Handler struct {
	completer Completer
}

// New 创建聊天代理处理器
func New(completer Completer) *Handler {
	return &Handler{completer: completer}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
}

// handleChat 校验消息后转发给上游模型
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Message string `json:"message"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.RespondFailure(w, http.StatusRequestEntityTooLarge, tooLargeNotice)
			return
		}
		payload.Message = ""
	}

	if strings.TrimSpace(payload.Message) == "" {
		utils.RespondFailure(w, http.StatusBadRequest, emptyMessageNotice)
		return
	}

	reply, err := h.completer.Complete(r.Context(), payload.Message)
	if err != nil {
		log.Printf("[proxy error] %v", err)
		utils.RespondFailure(w, http.StatusInternalServerError, proxyErrorPrefix+truncate(err.Error(), maxErrorRunes))
		return
	}

	utils.RespondSuccess(w, reply)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
