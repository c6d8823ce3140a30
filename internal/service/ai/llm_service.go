package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/harulog/backend/internal/config"
)

// Service relays a single user message to the upstream completion server.
// It is safe for concurrent use; the compiled chain holds no request state.
type Service struct {
	cfg        config.UpstreamConfig
	httpClient *http.Client
	chain      compose.Runnable[map[string]any, *schema.Message]
}

// NewService compiles the system-prompt chain once at startup.
func NewService(ctx context.Context, cfg config.UpstreamConfig, httpClient *http.Client) (*Service, error) {
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	chatModel, err := NewChatModel(cfg, httpClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{cfg: cfg, httpClient: httpClient, chain: runnable}, nil
}

// BaseURL reports the upstream the service talks to.
func (s *Service) BaseURL() string {
	return s.cfg.BaseURL
}

// Complete wraps message with the system instruction and returns the reply text.
func (s *Service) Complete(ctx context.Context, message string) (string, error) {
	response, err := s.chain.Invoke(ctx, map[string]any{
		"system": SystemPrompt,
		"query":  message,
	})
	if err != nil {
		var upstreamErr *UpstreamError
		if errors.As(err, &upstreamErr) {
			return "", upstreamErr
		}
		return "", fmt.Errorf("failed to run chat chain: %w", err)
	}
	if response == nil || response.Content == "" {
		return FallbackReply, nil
	}

	log.Printf("[ai] generated reply, length=%d", len(response.Content))
	return response.Content, nil
}

// Probe checks whether the upstream root answers with a 2xx status.
func (s *Service) Probe(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.BaseURL, nil)
	if err != nil {
		return false, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 300, nil
}
