package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"

	"sculpt/pkg/provider/generrors"
)

// openaiClient wraps the official OpenAI SDK, using the Responses API.
type openaiClient struct {
	client openai.Client
	model  string
}

// NewOpenAIClient creates a raw OpenAI client. Middleware is applied at a
// higher level.
func NewOpenAIClient(apiKey, model string) Client {
	return &openaiClient{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (c *openaiClient) ModelName() string {
	return c.model
}

func (c *openaiClient) Generate(ctx context.Context, req Request) (Response, error) {
	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	// The Responses API takes a single input string, so the system
	// instruction is folded in as a prefixed section.
	input := req.Prompt
	if req.System != "" {
		input = fmt.Sprintf("System: %s\n\n%s", req.System, req.Prompt)
	}

	params := responses.ResponseNewParams{
		Model:           c.model,
		MaxOutputTokens: openai.Int(maxTokens),
		Input:           responses.ResponseNewParamsInputUnion{OfString: openai.String(input)},
	}

	resp, err := c.client.Responses.New(ctx, params)
	if err != nil {
		return Response{}, generrors.Classify(err)
	}
	if resp == nil {
		return Response{}, generrors.New(generrors.ErrorTypeEmptyResponse, "OpenAI returned empty output")
	}

	text := strings.TrimSpace(resp.OutputText())
	if text == "" {
		return Response{}, generrors.New(generrors.ErrorTypeEmptyResponse, "OpenAI returned empty output")
	}

	return Response{
		Text: text,
		Usage: &Usage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		},
	}, nil
}
