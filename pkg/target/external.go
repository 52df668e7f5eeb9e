package target

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"

	"sculpt/pkg/logx"
	"sculpt/pkg/sourceir"
)

var logger = logx.NewLogger("target")

// BuildRequest is the JSON payload handed to an external provider on stdin.
// The provider emits its artifacts itself; the compiler only checks the
// exit status.
type BuildRequest struct {
	Mode      string           `json:"mode"`
	IR        *sourceir.Module `json:"ir"`
	IRPretty  string           `json:"irPretty"`
	NdOutputs map[string]any   `json:"ndOutputs"`
	TargetIR  map[string]any   `json:"targetIr"`
	OutDir    string           `json:"outDir"`
	Input     string           `json:"input"`
	Lock      any              `json:"lock"`
}

// describeExternal runs `sculpt-target-<name> describe` and parses the JSON
// descriptor from its stdout.
func describeExternal(ctx context.Context, name string) (map[string]any, error) {
	exe := externalPrefix + name
	cmd := exec.CommandContext(ctx, exe, "describe")
	cmd.Stderr = os.Stderr
	out, err := cmd.Output()
	if err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("Target provider %s describe failed", exe)
		}
		return nil, fmt.Errorf("Failed to launch target provider: %s: %w", exe, err)
	}
	var raw map[string]any
	if err := json.Unmarshal(out, &raw); err != nil {
		return nil, fmt.Errorf("Target provider %s describe returned invalid JSON: %w", exe, err)
	}
	return raw, nil
}

// RunExternal invokes the provider's build mode with the payload on stdin.
// Provider stdout and stderr pass through so its own progress is visible.
func RunExternal(ctx context.Context, name string, req *BuildRequest) error {
	exe := externalPrefix + name
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode target payload: %w", err)
	}

	cmd := exec.CommandContext(ctx, exe)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("open stdin for %s: %w", exe, err)
	}
	if err := cmd.Start(); err != nil {
		stdin.Close()
		return fmt.Errorf("Failed to launch target provider: %s: %w", exe, err)
	}
	logger.Debug("external target %s started (mode=%s)", exe, req.Mode)

	if _, err := stdin.Write(payload); err != nil {
		stdin.Close()
		cmd.Wait()
		return fmt.Errorf("write payload to %s: %w", exe, err)
	}
	stdin.Close()

	if err := cmd.Wait(); err != nil {
		if exit, ok := err.(*exec.ExitError); ok {
			return fmt.Errorf("Target provider %s failed with status %d", exe, exit.ExitCode())
		}
		return fmt.Errorf("run target provider %s: %w", exe, err)
	}
	return nil
}
