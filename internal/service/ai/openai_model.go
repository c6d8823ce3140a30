package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/harulog/backend/internal/config"
)

// UpstreamError is returned by ChatModel when llama-server fails or answers
// with a non-2xx status.
type UpstreamError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return strings.TrimSpace(fmt.Sprintf("llama-server error: %d %s", e.StatusCode, e.Body))
	}
	return fmt.Sprintf("llama-server request failed: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// ChatModel adapts an OpenAI-compatible completion endpoint (llama-server)
// to eino's BaseChatModel so it can sit at the end of a chain.
type ChatModel struct {
	client openai.Client
	cfg    config.UpstreamConfig
}

var _ model.BaseChatModel = (*ChatModel)(nil)

// NewChatModel builds a non-retrying, non-streaming client for cfg.BaseURL.
func NewChatModel(cfg config.UpstreamConfig, httpClient *http.Client) (*ChatModel, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("upstream base url is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	opts := []option.RequestOption{
		option.WithBaseURL(base + "/v1/"),
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
		option.WithJSONSet("stream", false),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	return &ChatModel{client: openai.NewClient(opts...), cfg: cfg}, nil
}

// Generate sends one chat-completion request and unwraps the first choice.
func (m *ChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	maxTokens := m.cfg.MaxTokens
	modelName := m.cfg.Model
	options := model.GetCommonOptions(&model.Options{
		MaxTokens: &maxTokens,
		Model:     &modelName,
	}, opts...)

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(*options.Model),
		Messages: toOpenAIMessages(input),
	}
	// eino carries temperature as float32; only a per-call override goes through it.
	if options.Temperature != nil {
		params.Temperature = openai.Float(float64(*options.Temperature))
	} else {
		params.Temperature = openai.Float(m.cfg.Temperature)
	}
	if options.MaxTokens != nil {
		params.MaxTokens = openai.Int(int64(*options.MaxTokens))
	}

	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return nil, &UpstreamError{StatusCode: apiErr.StatusCode, Body: errorBody(apiErr), Err: err}
		}
		return nil, &UpstreamError{Err: err}
	}

	return schema.AssistantMessage(extractContent(resp), nil), nil
}

// Stream is not used by the proxy; it replays Generate as a single chunk.
func (m *ChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func toOpenAIMessages(input []*schema.Message) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(input))
	for _, msg := range input {
		if msg == nil {
			continue
		}
		switch msg.Role {
		case schema.System:
			messages = append(messages, openai.SystemMessage(msg.Content))
		case schema.Assistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		default:
			messages = append(messages, openai.UserMessage(msg.Content))
		}
	}
	return messages
}

// extractContent mirrors the OpenAI-compatible shapes llama-server emits:
// choices[0].message.content, then choices[0].delta.content, then the fallback.
func extractContent(resp *openai.ChatCompletion) string {
	if resp == nil {
		return FallbackReply
	}
	if len(resp.Choices) > 0 && resp.Choices[0].Message.Content != "" {
		return resp.Choices[0].Message.Content
	}

	var raw struct {
		Choices []struct {
			Delta struct {
				Content string `json:"content"`
			} `json:"delta"`
		} `json:"choices"`
	}
	if err := json.Unmarshal([]byte(resp.RawJSON()), &raw); err == nil {
		if len(raw.Choices) > 0 && raw.Choices[0].Delta.Content != "" {
			return raw.Choices[0].Delta.Content
		}
	}
	return FallbackReply
}

// errorBody returns the upstream response body, which openai-go keeps
// readable on the error, and falls back to the decoded JSON error.
func errorBody(apiErr *openai.Error) string {
	if apiErr.Response != nil && apiErr.Response.Body != nil {
		if body, err := io.ReadAll(apiErr.Response.Body); err == nil && len(body) > 0 {
			return strings.TrimSpace(string(body))
		}
	}
	return strings.TrimSpace(apiErr.RawJSON())
}
