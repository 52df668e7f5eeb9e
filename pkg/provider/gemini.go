package provider

import (
	"context"
	"strings"

	"google.golang.org/genai"

	"sculpt/pkg/provider/generrors"
)

// geminiClient wraps the Google GenAI SDK. Client construction needs a
// context, so it is deferred to the first Generate call.
type geminiClient struct {
	client *genai.Client
	apiKey string
	model  string
}

// NewGeminiClient creates a raw Gemini client. Middleware is applied at a
// higher level.
func NewGeminiClient(apiKey, model string) Client {
	return &geminiClient{
		apiKey: apiKey,
		model:  model,
	}
}

func (g *geminiClient) ModelName() string {
	return g.model
}

func (g *geminiClient) Generate(ctx context.Context, req Request) (Response, error) {
	if g.client == nil {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  g.apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return Response{}, generrors.NewWithCause(generrors.ErrorTypeAuth, err, "failed to create Gemini client")
		}
		g.client = client
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	//nolint:gosec // bounded by DefaultMaxTokens-scale values
	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens:  int32(maxTokens),
		ResponseMIMEType: "application/json",
	}
	if req.System != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		}
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return Response{}, generrors.Classify(err)
	}
	if result == nil {
		return Response{}, generrors.New(generrors.ErrorTypeEmptyResponse, "Gemini returned empty output")
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return Response{}, generrors.New(generrors.ErrorTypeEmptyResponse, "Gemini returned empty output")
	}

	resp := Response{Text: text}
	if len(result.Candidates) > 0 {
		resp.StopReason = string(result.Candidates[0].FinishReason)
	}
	if um := result.UsageMetadata; um != nil {
		resp.Usage = &Usage{
			InputTokens:  int64(um.PromptTokenCount),
			OutputTokens: int64(um.CandidatesTokenCount),
			TotalTokens:  int64(um.TotalTokenCount),
		}
	}
	return resp, nil
}
