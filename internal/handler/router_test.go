package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/harulog/backend/internal/config"
	aiService "github.com/harulog/backend/internal/service/ai"
	"github.com/harulog/backend/pkg/utils"
)

func newProxy(t *testing.T, status int, body string) (http.Handler, *atomic.Int32) {
	t.Helper()
	calls := &atomic.Int32{}
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/chat/completions" {
			calls.Add(1)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(upstream.Close)

	svc, err := aiService.NewService(context.Background(), config.UpstreamConfig{
		BaseURL:     upstream.URL,
		Model:       "local-llama",
		APIKey:      "test",
		Temperature: 0.7,
		MaxTokens:   256,
	}, nil)
	if err != nil {
		t.Fatalf("NewService err: %v", err)
	}
	return NewRouter(svc), calls
}

func postChat(t *testing.T, router http.Handler, message string) (int, utils.Envelope) {
	t.Helper()
	payload, _ := json.Marshal(map[string]string{"message": message})
	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	var env utils.Envelope
	if err := json.Unmarshal(resp.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, resp.Body.String())
	}
	return resp.Code, env
}

func TestProxyBlankMessageSkipsUpstream(t *testing.T) {
	router, calls := newProxy(t, http.StatusOK, `{"choices":[{"message":{"content":"hello"}}]}`)

	code, env := postChat(t, router, "")
	if code != http.StatusBadRequest || env.Success || env.Response != "메시지를 비워둘 수 없어요." {
		t.Fatalf("unexpected response %d %+v", code, env)
	}
	if calls.Load() != 0 {
		t.Fatalf("expected no upstream calls, got %d", calls.Load())
	}
}

func TestProxySuccess(t *testing.T) {
	router, calls := newProxy(t, http.StatusOK, `{"choices":[{"message":{"content":"hello"}}]}`)

	code, env := postChat(t, router, "hi")
	if code != http.StatusOK || !env.Success || env.Response != "hello" {
		t.Fatalf("unexpected response %d %+v", code, env)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one upstream call, got %d", calls.Load())
	}
}

func TestProxyUpstreamFailure(t *testing.T) {
	router, _ := newProxy(t, http.StatusInternalServerError, `{"error":"boom"}`)

	code, env := postChat(t, router, "hi")
	if code != http.StatusInternalServerError || env.Success {
		t.Fatalf("unexpected response %d %+v", code, env)
	}
	if !strings.HasPrefix(env.Response, "프록시 오류:") {
		t.Fatalf("unexpected failure text %q", env.Response)
	}
}

func TestProxyUpstreamHTMLFailureKeepsBody(t *testing.T) {
	router, calls := newProxy(t, http.StatusInternalServerError, `<html>model crashed</html>`)

	code, env := postChat(t, router, "hi")
	if code != http.StatusInternalServerError || env.Success {
		t.Fatalf("unexpected response %d %+v", code, env)
	}
	if env.Response != "프록시 오류: llama-server error: 500 <html>model crashed</html>" {
		t.Fatalf("unexpected failure text %q", env.Response)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one upstream call, got %d", calls.Load())
	}
}

func TestProxyOversizedBodyIsRejected(t *testing.T) {
	router, calls := newProxy(t, http.StatusOK, `{"choices":[{"message":{"content":"hello"}}]}`)

	code, env := postChat(t, router, strings.Repeat("가", 1<<20))
	if code != http.StatusRequestEntityTooLarge || env.Success || env.Response != "메시지가 너무 길어요." {
		t.Fatalf("unexpected response %d %+v", code, env)
	}
	if calls.Load() != 0 {
		t.Fatalf("expected no upstream calls, got %d", calls.Load())
	}
}

func TestProxyHealthAndCORS(t *testing.T) {
	router, _ := newProxy(t, http.StatusOK, `{}`)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if resp.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("expected permissive CORS header")
	}

	var body map[string]any
	json.Unmarshal(resp.Body.Bytes(), &body)
	if body["ok"] != true || body["reachable"] != true {
		t.Fatalf("unexpected health body %v", body)
	}
}
