// Package nondet scores how much of a module is delegated to generation and
// renders the convergence report that accompanies every generation request.
// Scores and risk classes are advisory: they steer prompts and surface in
// build output, but nothing downstream branches on them.
package nondet

import (
	"fmt"
	"strconv"
	"strings"

	"sculpt/pkg/sourceir"
)

// Risk thresholds are tunable defaults, not contract.
const (
	riskHighAt   = 70.0
	riskMediumAt = 35.0
)

// Block is the analysis of one nd-block: how bounded its proposal is by
// measurable constraints.
type Block struct {
	ID            string
	Proposal      string
	Constraints   int
	Measurable    int
	Ratio         float64
	Unconstrained bool
	Score         float64
	Risk          string
}

// Report is the module-level analysis. The convergence controls are echoed
// from module meta when parseable; nil or empty means the author never set
// them.
type Report struct {
	Budget        *int
	Confidence    *float64
	MaxIterations *int
	Fallback      string
	Blocks        []Block
	OverallScore  float64
	OverallRisk   string
}

// Analyze scores every nd-block in the module. A block with no constraints,
// or none that are measurable, is fully unconstrained and scores 100.
func Analyze(src *sourceir.Module) *Report {
	r := &Report{}
	if v, ok := src.Meta["nd_budget"]; ok {
		if b, err := strconv.ParseInt(v, 10, 32); err == nil {
			budget := int(b)
			r.Budget = &budget
		}
	}
	if v, ok := src.Meta["confidence"]; ok {
		if c, err := strconv.ParseFloat(v, 64); err == nil {
			r.Confidence = &c
		}
	}
	if v, ok := src.Meta["max_iterations"]; ok {
		if m, err := strconv.ParseUint(v, 10, 32); err == nil {
			iterations := int(m)
			r.MaxIterations = &iterations
		}
	}
	r.Fallback = src.Meta["fallback"]

	total := 0.0
	for idx := range src.NdBlocks {
		nd := &src.NdBlocks[idx]
		measurable := 0
		for i := range nd.Constraints {
			if nd.Constraints[i].AllLiteral() {
				measurable++
			}
		}
		constraints := len(nd.Constraints)
		ratio := 0.0
		if constraints > 0 {
			ratio = float64(measurable) / float64(constraints)
		}
		score := estimateScore(constraints, measurable)
		total += score
		r.Blocks = append(r.Blocks, Block{
			ID:            fmt.Sprintf("%s#%d", nd.Name, idx),
			Proposal:      formatCall(&nd.Propose),
			Constraints:   constraints,
			Measurable:    measurable,
			Ratio:         ratio,
			Unconstrained: constraints == 0 || measurable == 0,
			Score:         score,
			Risk:          classifyRisk(score),
		})
	}
	if len(r.Blocks) > 0 {
		r.OverallScore = total / float64(len(r.Blocks))
	}
	r.OverallRisk = classifyRisk(r.OverallScore)
	return r
}

// Render produces the textual report persisted next to build artifacts and
// embedded in generation prompts.
func (r *Report) Render() string {
	var out strings.Builder
	out.WriteString("Convergence Report\n")
	out.WriteString("==================\n")
	if r.Budget != nil {
		fmt.Fprintf(&out, "nd_budget: %d\n", *r.Budget)
	} else {
		out.WriteString("nd_budget: (not set)\n")
	}
	if r.Confidence != nil {
		fmt.Fprintf(&out, "confidence: %.2f\n", *r.Confidence)
	} else {
		out.WriteString("confidence: (not set)\n")
	}
	if r.MaxIterations != nil {
		fmt.Fprintf(&out, "max_iterations: %d\n", *r.MaxIterations)
	} else {
		out.WriteString("max_iterations: (not set)\n")
	}
	if r.Fallback != "" {
		fmt.Fprintf(&out, "fallback: %s\n", r.Fallback)
	} else {
		out.WriteString("fallback: (not set)\n")
	}
	out.WriteString("\n")

	for _, block := range r.Blocks {
		fmt.Fprintf(&out, "ND: %s at %s\n", block.Proposal, block.ID)
		fmt.Fprintf(&out, "constraints: %d, measurable: %d\n", block.Constraints, block.Measurable)
		fmt.Fprintf(&out, "measurability_ratio: %.2f\n", block.Ratio)
		if block.Unconstrained {
			out.WriteString("unconstrained: yes\n\n")
		} else {
			out.WriteString("unconstrained: no\n\n")
		}
		fmt.Fprintf(&out, "nd_score: %.0f/100\n", block.Score)
		fmt.Fprintf(&out, "risk: %s\n", block.Risk)
		if r.Budget != nil {
			fmt.Fprintf(&out, "budget_status: %s (budget=%d, score=%.0f)\n",
				budgetStatus(block.Score, *r.Budget), *r.Budget, block.Score)
		}
		out.WriteString("\n")
	}

	out.WriteString("Summary\n")
	out.WriteString("-------\n")
	fmt.Fprintf(&out, "nd_blocks: %d\n", len(r.Blocks))
	fmt.Fprintf(&out, "overall_nd_score: %.0f/100\n", r.OverallScore)
	fmt.Fprintf(&out, "overall_risk: %s\n", r.OverallRisk)
	if r.Budget != nil {
		fmt.Fprintf(&out, "overall_budget_status: %s\n", budgetStatus(r.OverallScore, *r.Budget))
	}
	return out.String()
}

// Generate is the one-shot form: analyze the module and render its report.
func Generate(src *sourceir.Module) string {
	return Analyze(src).Render()
}

func estimateScore(constraints, measurable int) float64 {
	if constraints == 0 {
		return 100.0
	}
	score := (1.0 - float64(measurable)/float64(constraints)) * 100.0
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func classifyRisk(score float64) string {
	switch {
	case score >= riskHighAt:
		return "high"
	case score >= riskMediumAt:
		return "medium"
	default:
		return "low"
	}
}

func budgetStatus(score float64, budget int) string {
	if score <= float64(budget) {
		return "within_budget"
	}
	return "over_budget"
}

func formatCall(call *sourceir.Call) string {
	args := make([]string, 0, len(call.Args))
	for i := range call.Args {
		arg := &call.Args[i]
		if arg.Name != "" {
			args = append(args, fmt.Sprintf("%s: %s", arg.Name, formatExpr(&arg.Value)))
		} else {
			args = append(args, formatExpr(&arg.Value))
		}
	}
	return fmt.Sprintf("%s(%s)", call.Name, strings.Join(args, ", "))
}

func formatExpr(e *sourceir.Expr) string {
	switch e.Kind {
	case sourceir.ExprNumber:
		return strconv.FormatFloat(e.Number, 'f', -1, 64)
	case sourceir.ExprString:
		return fmt.Sprintf("%q", e.String)
	case sourceir.ExprNull:
		return "null"
	case sourceir.ExprIdent:
		return e.Ident
	case sourceir.ExprCall:
		return formatCall(e.Call)
	case sourceir.ExprBinary:
		return fmt.Sprintf("%s %s %s", formatExpr(e.Left), e.Op.Symbol(), formatExpr(e.Right))
	default:
		return ""
	}
}
