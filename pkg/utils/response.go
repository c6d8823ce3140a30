package utils

import (
	"encoding/json"
	"log"
	"net/http"
)

// Envelope 是聊天代理统一的响应结构。
type Envelope struct {
	Success  bool   `json:"success"`
	Response string `json:"response"`
}

// RespondJSON 发送JSON响应
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// RespondSuccess 发送成功响应
func RespondSuccess(w http.ResponseWriter, response string) {
	RespondJSON(w, http.StatusOK, Envelope{Success: true, Response: response})
}

// RespondFailure 发送失败响应
func RespondFailure(w http.ResponseWriter, status int, response string) {
	RespondJSON(w, status, Envelope{Success: false, Response: response})
}
