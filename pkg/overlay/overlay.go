// Package overlay derives the parts of a target IR the source module makes
// explicit and force-applies them over generated content. Transitions,
// literal render items, seeded state and runtime rules never vary between
// generation attempts: whatever a provider returned for those keys is
// replaced by what the module actually says, so generation only ever decides
// content the author left open.
package overlay

import (
	"strconv"
	"strings"

	"sculpt/pkg/sourceir"
	"sculpt/pkg/targetir"
)

// RuntimeRulesKey is the reserved extensions key runtime rule descriptions
// are published under.
const RuntimeRulesKey = "runtimeRules"

// stateMachineFamilies are the standard IR families whose flow/views map
// one-to-one onto a module's first flow.
var stateMachineFamilies = map[string]bool{
	"cli-ir": true,
	"web-ir": true,
	"gui-ir": true,
}

// Applies reports whether the standard IR family carries a state machine the
// overlay can write into. Other families keep generated content as-is.
func Applies(standardIR string) bool {
	return stateMachineFamilies[standardIR]
}

// Apply mutates ir in place. For state-machine families the first flow's
// explicit statements replace flow.transitions, views and flow.start;
// module-level Set assignments replace state when any exist; rules compile
// into extensions under RuntimeRulesKey. A no-op for other families.
func Apply(ir *targetir.IR, standardIR string, src *sourceir.Module) {
	if ir == nil || src == nil || !Applies(standardIR) {
		return
	}
	if len(src.Flows) > 0 {
		applyFlow(ir, &src.Flows[0])
	}
	if state := seedState(src.GlobalState); len(state) > 0 {
		ir.State = state
	}
	if rules := compileRules(src.Rules); len(rules) > 0 {
		if ir.Extensions == nil {
			ir.Extensions = make(map[string]any, 1)
		}
		ir.Extensions[RuntimeRulesKey] = rules
	}
}

func applyFlow(ir *targetir.IR, flow *sourceir.Flow) {
	transitions := make(map[string]map[string]string)
	views := make(map[string][]targetir.RenderItem)
	for _, state := range flow.States {
		if state.Name == "" {
			continue
		}
		var handlers map[string]string
		var items []targetir.RenderItem
		for _, stmt := range state.Statements {
			switch stmt.Kind {
			case sourceir.StmtOn:
				event := normalizeEvent(stmt.Event)
				if event == "" || stmt.Target == "" {
					continue
				}
				if handlers == nil {
					handlers = make(map[string]string)
				}
				handlers[event] = stmt.Target
			case sourceir.StmtCall:
				if item, ok := renderItem(stmt.Call); ok {
					items = append(items, item)
				}
			}
		}
		if len(handlers) > 0 {
			transitions[state.Name] = handlers
		}
		if len(items) > 0 {
			views[state.Name] = items
		}
	}
	if flow.Start != "" {
		ir.Flow.Start = flow.Start
	}
	ir.Flow.Transitions = transitions
	ir.Views = views
}

// normalizeEvent canonicalizes an event call into the transition key
// generators dispatch on. One-argument key events collapse to
// key(<lowercased key>) whatever namespace they were imported under; every
// other event keeps its call name.
func normalizeEvent(event *sourceir.Call) string {
	if event == nil || event.Name == "" {
		return ""
	}
	if lastSegment(event.Name) == "key" && len(event.Args) == 1 {
		if key, ok := eventKey(event.Args[0].Value); ok {
			return "key(" + strings.ToLower(key) + ")"
		}
	}
	return event.Name
}

// eventKey renders the single argument of a key event: an identifier like
// Enter, a quoted key name, or a numeric key.
func eventKey(e sourceir.Expr) (string, bool) {
	switch e.Kind {
	case sourceir.ExprIdent:
		return e.Ident, e.Ident != ""
	case sourceir.ExprString:
		return e.String, e.String != ""
	case sourceir.ExprNumber:
		return formatNumber(e.Number), true
	default:
		return "", false
	}
}

// renderItem converts a render call with all-literal arguments into one view
// item. Both the namespaced form (ui.text(...)) and the legacy shorthand
// (render text(...)) are accepted; calls with runtime-valued arguments are
// left to generation.
func renderItem(call *sourceir.Call) (targetir.RenderItem, bool) {
	call = unwrapRender(call)
	if call == nil {
		return targetir.RenderItem{}, false
	}
	kind := lastSegment(call.Name)
	if kind != "text" && kind != "button" {
		return targetir.RenderItem{}, false
	}
	if !call.AllLiteral() {
		return targetir.RenderItem{}, false
	}
	item := targetir.RenderItem{Kind: kind}
	if pos := call.Positional(); len(pos) > 0 {
		item.Text = literalText(pos[0])
	}
	if v, ok := call.Named("color"); ok {
		item.Color = literalText(v)
	}
	if v, ok := call.Named("x"); ok && v.Kind == sourceir.ExprNumber {
		item.X = targetir.Int(int(v.Number))
	}
	if v, ok := call.Named("y"); ok && v.Kind == sourceir.ExprNumber {
		item.Y = targetir.Int(int(v.Number))
	}
	if v, ok := call.Named("action"); ok {
		item.Action = literalText(v)
	}
	if v, ok := call.Named("style"); ok {
		item.Style = literalText(v)
	}
	return item, true
}

// unwrapRender peels the legacy render shorthand, whose single argument is
// the actual text/button call. Namespaced calls pass through unchanged.
func unwrapRender(call *sourceir.Call) *sourceir.Call {
	if call == nil {
		return nil
	}
	if lastSegment(call.Name) != "render" {
		return call
	}
	if len(call.Args) == 1 && call.Args[0].Name == "" {
		if inner := call.Args[0].Value.Call; call.Args[0].Value.Kind == sourceir.ExprCall && inner != nil {
			return inner
		}
	}
	return nil
}

// seedState collects module-level Set assignments with literal values. Add
// assignments and computed values stay runtime concerns.
func seedState(stmts []sourceir.Statement) map[string]any {
	var state map[string]any
	for _, stmt := range stmts {
		if stmt.Kind != sourceir.StmtAssign || stmt.Op != sourceir.AssignSet || stmt.Target == "" {
			continue
		}
		value, ok := stmt.Value.Literal()
		if !ok {
			continue
		}
		if state == nil {
			state = make(map[string]any)
		}
		state[stmt.Target] = value
	}
	return state
}

// compileRules lowers rules into a portable description generators ship to
// their runtime. Conditions are restricted upstream to comparisons over
// identifiers and literals combined with and/or, so the tree encoding is
// total for valid modules; rules outside that shape are omitted.
func compileRules(rules []sourceir.Rule) []any {
	var out []any
	for i := range rules {
		if desc, ok := ruleDescription(&rules[i]); ok {
			out = append(out, desc)
		}
	}
	return out
}

func ruleDescription(rule *sourceir.Rule) (map[string]any, bool) {
	trigger, ok := triggerDescription(&rule.Trigger)
	if !ok {
		return nil, false
	}
	effects := make([]any, 0, len(rule.Body))
	for i := range rule.Body {
		effect, ok := effectDescription(&rule.Body[i])
		if !ok {
			return nil, false
		}
		effects = append(effects, effect)
	}
	desc := map[string]any{
		"name":    rule.Name,
		"trigger": trigger,
		"effects": effects,
	}
	if rule.ScopeFlow != "" {
		desc["scopeFlow"] = rule.ScopeFlow
	}
	if rule.ScopeState != "" {
		desc["scopeState"] = rule.ScopeState
	}
	return desc, true
}

func triggerDescription(t *sourceir.Trigger) (map[string]any, bool) {
	switch t.Kind {
	case sourceir.TriggerOn:
		if t.On == nil || t.On.Name == "" {
			return nil, false
		}
		return map[string]any{"kind": "event", "event": normalizeEvent(t.On)}, true
	case sourceir.TriggerWhen:
		cond, ok := exprTree(t.When)
		if !ok {
			return nil, false
		}
		return map[string]any{"kind": "condition", "condition": cond}, true
	default:
		return nil, false
	}
}

func effectDescription(e *sourceir.Effect) (map[string]any, bool) {
	switch e.Kind {
	case sourceir.EffectAssign:
		if e.Target == "" {
			return nil, false
		}
		value, ok := exprTree(e.Value)
		if !ok {
			return nil, false
		}
		op := e.Op
		if op == "" {
			op = sourceir.AssignSet
		}
		return map[string]any{
			"kind":   "assign",
			"target": e.Target,
			"op":     string(op),
			"value":  value,
		}, true
	case sourceir.EffectEmit:
		if e.Event == "" {
			return nil, false
		}
		return map[string]any{"kind": "emit", "event": e.Event}, true
	default:
		return nil, false
	}
}

// exprTree encodes an expression as a JSON value tree: literals as
// themselves, identifiers as {"ident": name}, comparisons as nested
// {"op", "left", "right"} nodes. Calls have no portable runtime meaning.
func exprTree(e *sourceir.Expr) (any, bool) {
	if e == nil {
		return nil, false
	}
	switch e.Kind {
	case sourceir.ExprNumber:
		return e.Number, true
	case sourceir.ExprString:
		return e.String, true
	case sourceir.ExprNull:
		return nil, true
	case sourceir.ExprIdent:
		if e.Ident == "" {
			return nil, false
		}
		return map[string]any{"ident": e.Ident}, true
	case sourceir.ExprBinary:
		left, ok := exprTree(e.Left)
		if !ok {
			return nil, false
		}
		right, ok := exprTree(e.Right)
		if !ok {
			return nil, false
		}
		return map[string]any{"op": e.Op.Symbol(), "left": left, "right": right}, true
	default:
		return nil, false
	}
}

func literalText(e sourceir.Expr) string {
	switch e.Kind {
	case sourceir.ExprString:
		return e.String
	case sourceir.ExprNumber:
		return formatNumber(e.Number)
	default:
		return ""
	}
}

// formatNumber renders a numeric literal without a trailing .0 for whole
// numbers, matching how sources write them.
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func lastSegment(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}
