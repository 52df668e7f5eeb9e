package contract

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"sculpt/pkg/sourceir"
)

// Violation is one gate failure. Code is the stable diagnostic id (C901
// through C906); Message is the human-readable detail.
type Violation struct {
	Code    string
	Message string
}

func (v Violation) String() string {
	return v.Code + ": " + v.Message
}

// AsError joins violations into a single error, one violation per line, or
// returns nil for an empty list. The compile aborts on any non-nil result
// before generation is attempted.
func AsError(violations []Violation) error {
	if len(violations) == 0 {
		return nil
	}
	lines := make([]string, len(violations))
	for i, v := range violations {
		lines[i] = v.String()
	}
	return errors.New(strings.Join(lines, "\n"))
}

// Validate runs every gate check and accumulates all violations instead of
// stopping at the first: meta keys recognized and type-valid, required
// capabilities present, explicit layout backed by its capability, and every
// qualified call resolved through the package table. Meta keys are checked
// in sorted order so diagnostics are deterministic.
func (c *Contract) Validate(src *sourceir.Module, target string) []Violation {
	var violations []Violation

	for _, key := range sortedMetaKeys(src.Meta) {
		value := src.Meta[key]
		field, known := c.metaSchema[key]
		if !known {
			if !strings.HasPrefix(key, "x_") {
				violations = append(violations, Violation{
					Code: "C903",
					Message: fmt.Sprintf("Unknown @meta key '%s' for target '%s' (declare it in target contract meta schema)",
						key, target),
				})
			}
			continue
		}
		violations = appendMetaViolation(violations, field, value, target)
	}

	if raw, ok := src.Meta["requires"]; ok {
		for _, capability := range ParseCapabilityList(raw) {
			if !c.Capabilities[capability] {
				violations = append(violations, Violation{
					Code: "C902",
					Message: fmt.Sprintf("Required capability '%s' is not provided by target '%s'",
						capability, target),
				})
			}
		}
	}

	if layout, ok := src.Meta["layout"]; ok {
		if strings.EqualFold(strings.TrimSpace(layout), "explicit") && !c.Capabilities["layout.explicit"] {
			violations = append(violations, Violation{
				Code: "C904",
				Message: fmt.Sprintf("layout=explicit requires capability 'layout.explicit' on target '%s'",
					target),
			})
		}
	}

	violations = c.validateSymbols(src, target, violations)

	return violations
}

func appendMetaViolation(violations []Violation, field MetaField, value, target string) []Violation {
	trimmed := strings.TrimSpace(value)
	switch field.Kind {
	case KindBool:
		switch strings.ToLower(trimmed) {
		case "1", "0", "true", "false", "yes", "no", "on", "off":
		default:
			violations = append(violations, Violation{
				Code: "C901",
				Message: fmt.Sprintf("@meta %s='%s' is invalid for target '%s' (expected bool)",
					field.Key, value, target),
			})
		}
	case KindInt:
		v, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil || v < field.MinInt || v > field.MaxInt {
			violations = append(violations, Violation{
				Code: "C901",
				Message: fmt.Sprintf("@meta %s='%s' is invalid for target '%s' (expected int %d..%d)",
					field.Key, value, target, field.MinInt, field.MaxInt),
			})
		}
	case KindFloat:
		v, err := strconv.ParseFloat(trimmed, 64)
		if err != nil || v < field.MinFloat || v > field.MaxFloat {
			violations = append(violations, Violation{
				Code: "C901",
				Message: fmt.Sprintf("@meta %s='%s' is invalid for target '%s' (expected float %g..%g)",
					field.Key, value, target, field.MinFloat, field.MaxFloat),
			})
		}
	case KindEnum:
		if !field.Values[trimmed] {
			allowed := make([]string, 0, len(field.Values))
			for v := range field.Values {
				allowed = append(allowed, v)
			}
			sort.Strings(allowed)
			violations = append(violations, Violation{
				Code: "C901",
				Message: fmt.Sprintf("@meta %s='%s' is invalid for target '%s' (expected one of: %s)",
					field.Key, value, target, strings.Join(allowed, ", ")),
			})
		}
	case KindCapabilityList, KindString:
	}
	return violations
}

// validateSymbols resolves every qualified call through the package table:
// use declarations bind aliases to namespaces, and each alias.symbol call
// must land in that package's export set. Targets that declare no packages
// skip this entirely.
func (c *Contract) validateSymbols(src *sourceir.Module, target string, violations []Violation) []Violation {
	if len(c.packages) == 0 {
		return violations
	}

	aliasToNamespace := map[string]string{}
	for _, use := range src.Uses {
		namespace := use.Namespace()
		if _, ok := c.packages[namespace]; !ok {
			violations = append(violations, Violation{
				Code: "C905",
				Message: fmt.Sprintf("Unknown package namespace '%s' in use(%s) for target '%s'",
					namespace, use.Path, target),
			})
			continue
		}
		aliasToNamespace[use.LocalName()] = namespace
	}

	checkCall := func(call *sourceir.Call, ctx string) {
		root, symbol, ok := splitQualifiedCall(call.Name)
		if !ok {
			return
		}
		namespace, ok := aliasToNamespace[root]
		if !ok {
			return
		}
		pkg, ok := c.packages[namespace]
		if !ok {
			return
		}
		if !pkg.Exports[symbol] {
			exports := make([]string, 0, len(pkg.Exports))
			for e := range pkg.Exports {
				exports = append(exports, e)
			}
			sort.Strings(exports)
			violations = append(violations, Violation{
				Code: "C906",
				Message: fmt.Sprintf("Symbol '%s.%s' not exported by package '%s' (target '%s', context: %s, exports: %s)",
					root, symbol, pkg.ID, target, ctx, strings.Join(exports, ", ")),
			})
		}
	}

	for _, flow := range src.Flows {
		for _, state := range flow.States {
			stateName := state.Name
			if stateName == "" {
				stateName = "<unnamed>"
			}
			for _, stmt := range state.Statements {
				switch stmt.Kind {
				case sourceir.StmtOn:
					if stmt.Event != nil {
						checkCall(stmt.Event, fmt.Sprintf("flow '%s', state '%s', transition", flow.Name, stateName))
					}
				case sourceir.StmtCall:
					if stmt.Call != nil {
						checkCall(stmt.Call, fmt.Sprintf("flow '%s', state '%s', expression", flow.Name, stateName))
					}
				case sourceir.StmtAssign:
					walkExprCalls(stmt.Value, checkCall,
						fmt.Sprintf("flow '%s', state '%s', assignment", flow.Name, stateName))
				case sourceir.StmtRule:
					if stmt.Rule != nil {
						checkRuleCalls(stmt.Rule, checkCall, flow.Name, stateName)
					}
				case sourceir.StmtRun, sourceir.StmtTerminate:
				}
			}
		}
	}

	for i := range src.Rules {
		checkRuleCalls(&src.Rules[i], checkCall, "<module>", "<module>")
	}

	for i := range src.NdBlocks {
		nd := &src.NdBlocks[i]
		checkCall(&nd.Propose, fmt.Sprintf("nd '%s' propose", nd.Name))
		for j := range nd.Constraints {
			checkCall(&nd.Constraints[j], fmt.Sprintf("nd '%s' satisfy", nd.Name))
		}
	}

	return violations
}

func checkRuleCalls(rule *sourceir.Rule, checkCall func(*sourceir.Call, string), flowName, stateName string) {
	switch rule.Trigger.Kind {
	case sourceir.TriggerOn:
		if rule.Trigger.On != nil {
			checkCall(rule.Trigger.On,
				fmt.Sprintf("flow '%s', state '%s', rule '%s', trigger", flowName, stateName, rule.Name))
		}
	case sourceir.TriggerWhen:
		walkExprCalls(rule.Trigger.When, checkCall,
			fmt.Sprintf("flow '%s', state '%s', rule '%s', when", flowName, stateName, rule.Name))
	}
	for _, effect := range rule.Body {
		if effect.Kind == sourceir.EffectAssign {
			walkExprCalls(effect.Value, checkCall,
				fmt.Sprintf("flow '%s', state '%s', rule '%s', body", flowName, stateName, rule.Name))
		}
	}
}

func walkExprCalls(expr *sourceir.Expr, checkCall func(*sourceir.Call, string), ctx string) {
	if expr == nil {
		return
	}
	switch expr.Kind {
	case sourceir.ExprCall:
		if expr.Call != nil {
			checkCall(expr.Call, ctx)
		}
	case sourceir.ExprBinary:
		walkExprCalls(expr.Left, checkCall, ctx)
		walkExprCalls(expr.Right, checkCall, ctx)
	case sourceir.ExprNumber, sourceir.ExprString, sourceir.ExprNull, sourceir.ExprIdent:
	}
}

// splitQualifiedCall splits a call name of exactly two dot segments.
// Anything else (bare names, deeper paths) is not package-qualified.
func splitQualifiedCall(name string) (root, symbol string, ok bool) {
	parts := strings.Split(name, ".")
	if len(parts) != 2 {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// ParseCapabilityList splits a comma-separated capability string, trimming
// whitespace and dropping empty entries.
func ParseCapabilityList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func sortedMetaKeys(meta map[string]string) []string {
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
