package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"sculpt/pkg/convergence"
	"sculpt/pkg/metrics"
	"sculpt/pkg/provider"
	"sculpt/pkg/targetir"
)

type debugLevel int

const (
	debugOff debugLevel = iota
	debugCompact
	debugRaw
	debugAll
	debugJSON
)

func parseDebugLevel(value string) (debugLevel, error) {
	switch value {
	case "":
		return debugOff, nil
	case "compact":
		return debugCompact, nil
	case "raw":
		return debugRaw, nil
	case "all":
		return debugAll, nil
	case "json":
		return debugJSON, nil
	default:
		return debugOff, fmt.Errorf("invalid debug level %q: use compact, raw, all or json", value)
	}
}

// debugContext is everything a successful compile exposes for inspection.
// capture is nil when the accepted IR came from a fallback rather than a
// generation call.
type debugContext struct {
	provider    provider.Info
	target      string
	input       string
	standardIR  string
	distDir     string
	ir          *targetir.IR
	capture     *convergence.Attempt
	llmMillis   int64
	buildMillis int64
	rec         *metrics.Recorder
}

// emitDebug writes the post-compile debug block to w (stderr), keeping
// stdout clean for the styled build output.
func emitDebug(w io.Writer, level debugLevel, c *debugContext) {
	if level == debugOff {
		return
	}

	views := len(c.ir.Views)
	transitions := 0
	for _, m := range c.ir.Flow.Transitions {
		transitions += len(m)
	}
	outputs := []string{
		filepath.Join(c.distDir, "target.ir.json"),
		filepath.Join(c.distDir, "ir.json"),
		filepath.Join(c.distDir, "nondet.report"),
	}

	if level == debugJSON {
		out := map[string]any{
			"provider":    c.provider.Name,
			"model":       c.provider.Model,
			"target":      c.target,
			"input":       c.input,
			"standard_ir": c.standardIR,
			"summary": map[string]any{
				"flow_start":  c.ir.Flow.Start,
				"views":       views,
				"transitions": transitions,
			},
			"timing_ms": map[string]any{
				"llm":   c.llmMillis,
				"build": c.buildMillis,
			},
			"outputs": outputs,
		}
		if c.capture != nil {
			out["raw_output"] = c.capture.Raw
			out["prompt"] = c.capture.Prompt
		}
		if data, err := json.MarshalIndent(out, "", "  "); err == nil {
			fmt.Fprintln(w, string(data))
		}
		return
	}

	fmt.Fprintln(w, "Debug:")
	fmt.Fprintf(w, "  provider=%s model=%s\n", c.provider.Name, c.provider.Model)
	fmt.Fprintf(w, "  target=%s input=%s\n", c.target, c.input)
	fmt.Fprintf(w, "  standard_ir=%s\n", c.standardIR)
	fmt.Fprintf(w, "  summary: start=%s views=%d transitions=%d\n", c.ir.Flow.Start, views, transitions)
	fmt.Fprintf(w, "  timing_ms: llm=%d build=%d\n", c.llmMillis, c.buildMillis)
	fmt.Fprintf(w, "  outputs: %s %s %s\n", outputs[0], outputs[1], outputs[2])

	if c.capture != nil && level >= debugRaw {
		fmt.Fprintln(w, "--- raw output ---")
		fmt.Fprintln(w, c.capture.Raw)
	}
	if c.capture != nil && level >= debugAll {
		fmt.Fprintln(w, "--- prompt ---")
		fmt.Fprintln(w, c.capture.Prompt)
	}
	if level >= debugAll && c.rec != nil {
		if dump, err := c.rec.Dump(); err == nil {
			fmt.Fprintln(w, "--- metrics ---")
			fmt.Fprint(w, dump)
		}
	}
}
