package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"sculpt/pkg/provider/generrors"
)

// DefaultOllamaHost is where a local Ollama daemon listens by default.
const DefaultOllamaHost = "http://localhost:11434"

// ollamaClient wraps the Ollama API client for local models.
type ollamaClient struct {
	client *api.Client
	model  string
}

// NewOllamaClient creates a raw Ollama client for the given server URL.
// Middleware is applied at a higher level.
func NewOllamaClient(host, model string) Client {
	parsed, err := url.Parse(host)
	if err != nil || parsed.Host == "" {
		parsed, _ = url.Parse(DefaultOllamaHost)
	}
	return &ollamaClient{
		client: api.NewClient(parsed, http.DefaultClient),
		model:  model,
	}
}

func (o *ollamaClient) ModelName() string {
	return o.model
}

func (o *ollamaClient) Generate(ctx context.Context, req Request) (Response, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	var messages []api.Message
	if req.System != "" {
		messages = append(messages, api.Message{Role: "system", Content: req.System})
	}
	messages = append(messages, api.Message{Role: "user", Content: req.Prompt})

	stream := false
	chatReq := &api.ChatRequest{
		Model:    o.model,
		Messages: messages,
		Stream:   &stream,
		Format:   json.RawMessage(`"json"`),
		Options: map[string]any{
			"num_predict": maxTokens,
		},
	}

	var last api.ChatResponse
	err := o.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		last = resp
		return nil
	})
	if err != nil {
		return Response{}, generrors.Classify(err)
	}

	text := strings.TrimSpace(last.Message.Content)
	if text == "" {
		return Response{}, generrors.New(generrors.ErrorTypeEmptyResponse, "Ollama returned empty output")
	}

	resp := Response{
		Text:       text,
		StopReason: last.DoneReason,
	}
	if last.Metrics.PromptEvalCount > 0 || last.Metrics.EvalCount > 0 {
		in := int64(last.Metrics.PromptEvalCount)
		out := int64(last.Metrics.EvalCount)
		resp.Usage = &Usage{InputTokens: in, OutputTokens: out, TotalTokens: in + out}
	}
	return resp, nil
}
