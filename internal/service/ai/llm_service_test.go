package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/harulog/backend/internal/config"
)

type upstreamStub struct {
	server *httptest.Server
	calls  atomic.Int32
	last   atomic.Value
}

func newUpstreamStub(t *testing.T, status int, body string) *upstreamStub {
	t.Helper()
	stub := &upstreamStub{}
	stub.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			w.WriteHeader(http.StatusOK)
			return
		}
		stub.calls.Add(1)
		raw, _ := io.ReadAll(r.Body)
		stub.last.Store(raw)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(stub.server.Close)
	return stub
}

func newTestService(t *testing.T, baseURL string) *Service {
	t.Helper()
	svc, err := NewService(context.Background(), config.UpstreamConfig{
		BaseURL:     baseURL,
		Model:       "local-llama",
		APIKey:      "test",
		Temperature: 0.7,
		MaxTokens:   256,
	}, nil)
	if err != nil {
		t.Fatalf("NewService err: %v", err)
	}
	return svc
}

func TestCompleteUnwrapsFirstChoice(t *testing.T) {
	stub := newUpstreamStub(t, http.StatusOK, `{"choices":[{"message":{"role":"assistant","content":"hello"}}]}`)
	svc := newTestService(t, stub.server.URL)

	reply, err := svc.Complete(context.Background(), "오늘 힘들었어")
	if err != nil {
		t.Fatalf("Complete err: %v", err)
	}
	if reply != "hello" {
		t.Fatalf("unexpected reply %q", reply)
	}
	if stub.calls.Load() != 1 {
		t.Fatalf("expected one upstream call, got %d", stub.calls.Load())
	}

	var sent struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
		Temperature float64 `json:"temperature"`
		MaxTokens   int     `json:"max_tokens"`
		Stream      *bool   `json:"stream"`
	}
	if err := json.Unmarshal(stub.last.Load().([]byte), &sent); err != nil {
		t.Fatalf("decode upstream body: %v", err)
	}
	if sent.Model != "local-llama" || sent.MaxTokens != 256 || sent.Temperature != 0.7 {
		t.Fatalf("unexpected request parameters %+v", sent)
	}
	if sent.Stream == nil || *sent.Stream {
		t.Fatal("expected stream=false in upstream body")
	}
	if len(sent.Messages) != 2 || sent.Messages[0].Role != "system" || sent.Messages[1].Role != "user" {
		t.Fatalf("unexpected messages %+v", sent.Messages)
	}
	if sent.Messages[0].Content != SystemPrompt || sent.Messages[1].Content != "오늘 힘들었어" {
		t.Fatalf("unexpected message contents %+v", sent.Messages)
	}
}

func TestCompleteFallsBackWhenContentMissing(t *testing.T) {
	stub := newUpstreamStub(t, http.StatusOK, `{"choices":[]}`)
	svc := newTestService(t, stub.server.URL)

	reply, err := svc.Complete(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Complete err: %v", err)
	}
	if reply != FallbackReply {
		t.Fatalf("expected fallback reply, got %q", reply)
	}
}

func TestCompleteReadsDeltaContent(t *testing.T) {
	stub := newUpstreamStub(t, http.StatusOK, `{"choices":[{"delta":{"content":"조각"}}]}`)
	svc := newTestService(t, stub.server.URL)

	reply, err := svc.Complete(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Complete err: %v", err)
	}
	if reply != "조각" {
		t.Fatalf("expected delta content, got %q", reply)
	}
}

func TestCompleteReportsUpstreamFailureWithoutRetry(t *testing.T) {
	stub := newUpstreamStub(t, http.StatusInternalServerError, `{"error":{"message":"model crashed"}}`)
	svc := newTestService(t, stub.server.URL)

	if _, err := svc.Complete(context.Background(), "hi"); err == nil {
		t.Fatal("expected error for upstream 500")
	}
	if stub.calls.Load() != 1 {
		t.Fatalf("expected no retries, got %d calls", stub.calls.Load())
	}
}

func TestCompleteKeepsUpstreamErrorBody(t *testing.T) {
	stub := newUpstreamStub(t, http.StatusInternalServerError, `<html>model crashed</html>`)
	svc := newTestService(t, stub.server.URL)

	_, err := svc.Complete(context.Background(), "hi")
	var upstreamErr *UpstreamError
	if !errors.As(err, &upstreamErr) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if err.Error() != "llama-server error: 500 <html>model crashed</html>" {
		t.Fatalf("unexpected error text %q", err.Error())
	}
	if strings.Contains(err.Error(), "node path") {
		t.Fatalf("chain framing leaked into error: %q", err.Error())
	}
}

func TestCompleteRejectsNonJSONBody(t *testing.T) {
	stub := newUpstreamStub(t, http.StatusOK, `<html>not json</html>`)
	svc := newTestService(t, stub.server.URL)

	_, err := svc.Complete(context.Background(), "hi")
	if err == nil {
		t.Fatal("expected error for non-json upstream body")
	}
	if !strings.Contains(err.Error(), "llama-server") {
		t.Fatalf("expected llama-server context in error, got %v", err)
	}
}

func TestProbe(t *testing.T) {
	stub := newUpstreamStub(t, http.StatusOK, `{}`)
	svc := newTestService(t, stub.server.URL)

	ok, err := svc.Probe(context.Background())
	if err != nil || !ok {
		t.Fatalf("expected reachable upstream, ok=%v err=%v", ok, err)
	}

	stub.server.Close()
	ok, err = svc.Probe(context.Background())
	if err == nil || ok {
		t.Fatalf("expected unreachable upstream, ok=%v err=%v", ok, err)
	}
}

func TestNewChatModelRequiresBaseURL(t *testing.T) {
	if _, err := NewChatModel(config.UpstreamConfig{}, nil); err == nil {
		t.Fatal("expected error for empty base url")
	}
}
