package provider

import (
	"context"
	"encoding/json"
)

// stubClient is the deterministic placeholder generator. It performs no
// network calls and always emits the same minimal target IR, so builds keep
// working with no credentials and fallback=stub has something to apply.
type stubClient struct{}

// NewStubClient creates the stub generator.
func NewStubClient() Client {
	return stubClient{}
}

func (stubClient) ModelName() string {
	return "stub"
}

func (stubClient) Generate(_ context.Context, req Request) (Response, error) {
	family := req.StandardIR
	if family == "" {
		family = "cli-ir"
	}
	ir := map[string]any{
		"type":    family,
		"version": 1,
		"state":   map[string]any{},
		"views": map[string]any{
			"Title": []any{
				map[string]any{"kind": "text", "text": "SCULPT", "color": "yellow"},
				map[string]any{"kind": "text", "text": "stub target-ir", "color": "blue"},
			},
		},
		"flow": map[string]any{
			"start":       "Title",
			"transitions": map[string]any{},
		},
	}
	text, err := json.MarshalIndent(ir, "", "  ")
	if err != nil {
		return Response{}, err
	}
	return Response{Text: string(text), StopReason: "stub"}, nil
}
