// Package convergence drives the bounded generate-and-validate loop between
// the compiler and a generation provider. Every attempt passes the same gate:
// extract, parse, normalize, type-check, then the deterministic overlay.
// Acceptance never loosens to make progress; when the attempt budget runs out
// the module's fallback policy decides the outcome.
package convergence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/oklog/ulid/v2"

	"sculpt/pkg/logx"
	"sculpt/pkg/overlay"
	"sculpt/pkg/provider"
	"sculpt/pkg/sourceir"
	"sculpt/pkg/targetir"
	"sculpt/pkg/wire"
)

var logger = logx.NewLogger("convergence")

// TerminalError marks a rejection no retry can fix, such as a target IR
// family mismatch. The loop aborts immediately instead of burning attempts.
type TerminalError struct {
	msg string
}

func (e *TerminalError) Error() string {
	return e.msg
}

func terminalf(format string, args ...any) error {
	return &TerminalError{msg: fmt.Sprintf(format, args...)}
}

// IsTerminal reports whether err is a terminal rejection.
func IsTerminal(err error) bool {
	var t *TerminalError
	return errors.As(err, &t)
}

// Request carries everything one convergence run needs.
type Request struct {
	// Source is the validated module being compiled.
	Source *sourceir.Module
	// StandardIR is the expected target IR family, e.g. "cli-ir".
	StandardIR string
	// Schema is the compact schema for the family, forwarded in the prompt.
	Schema map[string]any
	// Extensions are the target descriptor's extension defaults. They are
	// merged into accepted IRs without overriding generated entries.
	Extensions map[string]any
	// Report is the rendered nondeterminism report.
	Report string
	// Controls bound the loop and steer the generator.
	Controls Controls
	// LayoutRequired rejects accepted IRs that carry no layout data. It is
	// set when the module opts into explicit layout.
	LayoutRequired bool
	// Previous is the prior build's accepted IR, when one exists. It
	// steers the generator and backs fallback=replay.
	Previous *targetir.IR
	// Client, when set, serves the first attempt. Retries re-resolve.
	Client provider.Client
	// Info identifies Client.
	Info provider.Info
	// Resolve builds a client per attempt, so credentials and provider
	// selection are re-evaluated on every retry.
	Resolve func() (provider.Client, provider.Info, error)
	// Warn receives fallback warnings. Defaults to os.Stderr.
	Warn io.Writer
}

// Attempt records one generation call for debug output and build history.
type Attempt struct {
	ID       string
	Index    int
	Provider provider.Info
	Prompt   string
	Raw      string
	Err      string
	Latency  time.Duration
	Usage    *provider.Usage
}

// Result is an accepted convergence outcome.
type Result struct {
	IR       *targetir.IR
	Provider provider.Info
	Attempts []Attempt
	// Usage is the accepted attempt's token usage, nil for stub and replay.
	Usage    *provider.Usage
	Stubbed  bool
	Replayed bool
}

// Run executes the loop and returns the first accepted target IR.
func Run(ctx context.Context, req *Request) (*Result, error) {
	if req.Client == nil && req.Resolve == nil {
		return nil, errors.New("convergence: no provider configured")
	}

	prompt, err := buildPrompt(req)
	if err != nil {
		return nil, err
	}

	maxAttempts := req.Controls.MaxIterations
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	client, info := req.Client, req.Info
	var attempts []Attempt
	var lastErr error

	for index := 1; index <= maxAttempts; index++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if client == nil {
			if req.Resolve == nil {
				break
			}
			c, i, err := req.Resolve()
			if err != nil {
				lastErr = err
				attempts = append(attempts, Attempt{ID: ulid.Make().String(), Index: index, Err: err.Error()})
				continue
			}
			client, info = c, i
		}

		a := Attempt{ID: ulid.Make().String(), Index: index, Provider: info, Prompt: prompt}
		start := time.Now()
		resp, genErr := client.Generate(ctx, provider.Request{
			System:     provider.SystemPrompt,
			Prompt:     prompt,
			StandardIR: req.StandardIR,
		})
		a.Latency = time.Since(start)
		a.Raw = resp.Text
		a.Usage = resp.Usage

		if logx.IsDebugEnabled() {
			logger.DebugToFile(fmt.Sprintf("attempt_%d_%s.log", index, a.ID),
				"provider=%s model=%s\n--- prompt ---\n%s\n--- response ---\n%s",
				info.Name, info.Model, prompt, resp.Text)
		}

		if genErr == nil {
			ir, acceptErr := accept(resp.Text, req)
			if acceptErr == nil {
				attempts = append(attempts, a)
				logger.Debug("attempt %d accepted: provider=%s model=%s latency=%s", index, info.Name, info.Model, a.Latency)
				return &Result{IR: ir, Provider: info, Attempts: attempts, Usage: resp.Usage}, nil
			}
			if IsTerminal(acceptErr) {
				return nil, acceptErr
			}
			genErr = acceptErr
		}

		a.Err = genErr.Error()
		attempts = append(attempts, a)
		lastErr = genErr
		logger.Warn("attempt %d/%d rejected: %v", index, maxAttempts, genErr)
		if req.Resolve != nil {
			// Drop the client so the next attempt re-resolves provider
			// selection and credentials. A fixed client retries as-is.
			client = nil
		}
	}

	return fallback(ctx, req, attempts, maxAttempts, lastErr)
}

// fallback applies the module's policy after the attempt budget is spent.
func fallback(ctx context.Context, req *Request, attempts []Attempt, attemptCount int, lastErr error) (*Result, error) {
	switch req.Controls.Fallback {
	case PolicyStub:
		fmt.Fprintf(warnWriter(req), "Warning: LLM compile failed after %d attempt(s). Applying fallback=stub.\n", attemptCount)
		resp, err := provider.NewStubClient().Generate(ctx, provider.Request{StandardIR: req.StandardIR})
		if err != nil {
			return nil, fmt.Errorf("stub generation: %w", err)
		}
		ir, err := accept(resp.Text, req)
		if err != nil {
			return nil, fmt.Errorf("stub target IR rejected: %w", err)
		}
		return &Result{
			IR:       ir,
			Provider: provider.Info{Name: "stub", Model: "stub"},
			Attempts: attempts,
			Stubbed:  true,
		}, nil

	case PolicyReplay:
		if req.Previous == nil {
			return nil, fmt.Errorf("LLM compile failed after %d attempt(s) and fallback=replay had no previous target IR: %v", attemptCount, lastErr)
		}
		fmt.Fprintf(warnWriter(req), "Warning: LLM compile failed after %d attempt(s). Applying fallback=replay.\n", attemptCount)
		return &Result{
			IR:       req.Previous,
			Provider: provider.Info{Name: "replay", Model: "replay"},
			Attempts: attempts,
			Replayed: true,
		}, nil

	default:
		return nil, fmt.Errorf("LLM compile failed after %d attempt(s) and fallback=fail: %v", attemptCount, lastErr)
	}
}

// accept runs the full gate on raw model output. The overlay comes last so
// authored source always wins over generated content.
func accept(text string, req *Request) (*targetir.IR, error) {
	obj, err := wire.ParseObject(text)
	if err != nil {
		return nil, err
	}
	ir, err := targetir.FromValue(wire.Normalize(req.StandardIR, obj))
	if err != nil {
		return nil, err
	}

	if ir.Type != req.StandardIR {
		return nil, terminalf("Target IR type mismatch: expected %s, got %s", req.StandardIR, ir.Type)
	}
	if req.LayoutRequired && len(ir.Layout) == 0 {
		return nil, terminalf("layout=explicit requires layout data in target IR")
	}

	mergeExtensions(ir, req.Extensions)
	overlay.Apply(ir, req.StandardIR, req.Source)
	return ir, nil
}

// mergeExtensions copies descriptor extension defaults into the IR without
// clobbering entries the generator produced.
func mergeExtensions(ir *targetir.IR, defaults map[string]any) {
	if len(defaults) == 0 {
		return
	}
	if ir.Extensions == nil {
		ir.Extensions = make(map[string]any, len(defaults))
	}
	for k, v := range defaults {
		if _, ok := ir.Extensions[k]; !ok {
			ir.Extensions[k] = v
		}
	}
}

func buildPrompt(req *Request) (string, error) {
	sourceJSON, err := json.MarshalIndent(req.Source, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode source module: %w", err)
	}

	in := provider.PromptInput{
		StandardIR: req.StandardIR,
		SourceJSON: string(sourceJSON),
		Report:     req.Report,
		Advisory:   req.Controls.Advisory(),
	}
	if len(req.Schema) > 0 {
		schemaJSON, err := json.MarshalIndent(req.Schema, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encode schema: %w", err)
		}
		in.SchemaJSON = string(schemaJSON)
	}
	if req.Previous != nil {
		pretty, err := req.Previous.Pretty()
		if err != nil {
			return "", err
		}
		in.PreviousIR = pretty
	}
	return provider.BuildPrompt(in), nil
}

func warnWriter(req *Request) io.Writer {
	if req.Warn != nil {
		return req.Warn
	}
	return os.Stderr
}
