// Package provider abstracts the generation backends that produce target IR
// text. Each client owns its provider's envelope: request shaping, response
// extraction and error classification stay behind the Client interface so the
// convergence controller never sees SDK types.
package provider

import "context"

// DefaultMaxTokens bounds a single generation call when the caller does not
// set a limit. Target IR for a small module fits comfortably.
const DefaultMaxTokens = 2048

// Request is a single-turn generation request.
type Request struct {
	// System is the system instruction, placed in the provider's native
	// system slot when one exists.
	System string
	// Prompt is the full user prompt assembled by BuildPrompt.
	Prompt string
	// StandardIR names the target IR family being generated, for clients
	// that shape output by family (the stub does).
	StandardIR string
	// MaxTokens caps the response. Zero means DefaultMaxTokens.
	MaxTokens int
}

// Usage reports token consumption for one call, when the provider exposes it.
type Usage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
	TotalTokens  int64 `json:"total_tokens"`
}

// Response is the provider-neutral result of a generation call.
type Response struct {
	// Text is the raw model output, trimmed. Callers parse it as JSON.
	Text string
	// StopReason is the provider's stop reason when reported.
	StopReason string
	// Usage is nil when the provider reports no token counts.
	Usage *Usage
}

// Client is a generation backend.
type Client interface {
	// Generate performs one generation call.
	Generate(ctx context.Context, req Request) (Response, error)
	// ModelName returns the model identifier this client calls.
	ModelName() string
}

// Info identifies the resolved provider for locks, metadata and logs.
type Info struct {
	Name  string `json:"name"`
	Model string `json:"model"`
}
