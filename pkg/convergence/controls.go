package convergence

import (
	"fmt"
	"strconv"
	"strings"
)

// Policy says what happens when every generation attempt is rejected.
type Policy string

const (
	// PolicyFail aborts the build with the last rejection.
	PolicyFail Policy = "fail"
	// PolicyStub substitutes the deterministic placeholder IR.
	PolicyStub Policy = "stub"
	// PolicyReplay reuses the previous build's accepted target IR.
	PolicyReplay Policy = "replay"
)

// Controls are the module's convergence directives. nd_budget and confidence
// are advisory, forwarded to the generator; max_iterations and fallback bind
// the loop.
type Controls struct {
	NdBudget      *int
	Confidence    *float64
	MaxIterations int
	Fallback      Policy

	explicit bool
}

// ControlsFromMeta parses the convergence meta keys. Unparseable values are
// ignored rather than failing the build, matching the report's tolerance.
func ControlsFromMeta(meta map[string]string) Controls {
	c := Controls{MaxIterations: 1, Fallback: PolicyFail}
	if v, ok := meta["nd_budget"]; ok {
		c.explicit = true
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 32); err == nil {
			budget := int(n)
			c.NdBudget = &budget
		}
	}
	if v, ok := meta["confidence"]; ok {
		c.explicit = true
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			c.Confidence = &f
		}
	}
	if v, ok := meta["max_iterations"]; ok {
		c.explicit = true
		if n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 32); err == nil && n > 0 {
			c.MaxIterations = int(n)
		}
	}
	if v, ok := meta["fallback"]; ok {
		c.explicit = true
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "stub":
			c.Fallback = PolicyStub
		case "replay":
			c.Fallback = PolicyReplay
		default:
			c.Fallback = PolicyFail
		}
	}
	return c
}

// Advisory renders the control lines forwarded inside the prompt. Nil when
// the module declared no convergence meta at all, so prompts for
// uncontrolled modules stay free of the section.
func (c Controls) Advisory() []string {
	if !c.explicit {
		return nil
	}
	var lines []string
	if c.NdBudget != nil {
		lines = append(lines, fmt.Sprintf("nd_budget: %d", *c.NdBudget))
	}
	if c.Confidence != nil {
		lines = append(lines, fmt.Sprintf("confidence: %.2f", *c.Confidence))
	}
	lines = append(lines, fmt.Sprintf("max_iterations: %d", c.MaxIterations))
	lines = append(lines, fmt.Sprintf("fallback: %s", c.Fallback))
	return lines
}
