package contract

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sculpt/pkg/sourceir"
)

func mustParse(t *testing.T, spec map[string]any) *Contract {
	t.Helper()
	c, err := Parse(spec)
	require.NoError(t, err)
	return c
}

func TestRejectsInvalidBoolMeta(t *testing.T) {
	c := mustParse(t, cliSpec())
	violations := c.Validate(minimalModule(map[string]string{"strict_scopes": "maybe"}), "cli")

	require.Len(t, violations, 1)
	assert.Equal(t, "C901", violations[0].Code)
	assert.Equal(t,
		"C901: @meta strict_scopes='maybe' is invalid for target 'cli' (expected bool)",
		violations[0].String())
}

func TestAcceptsAllBoolForms(t *testing.T) {
	c := mustParse(t, cliSpec())
	for _, form := range []string{"1", "0", "true", "false", "yes", "no", "on", "off", "TRUE", " Yes "} {
		violations := c.Validate(minimalModule(map[string]string{"strict_scopes": form}), "cli")
		assert.Empty(t, violations, "form %q", form)
	}
}

func TestRejectsIntOutOfRange(t *testing.T) {
	c := mustParse(t, cliSpec())
	violations := c.Validate(minimalModule(map[string]string{"nd_budget": "150"}), "cli")

	require.Len(t, violations, 1)
	assert.Equal(t,
		"C901: @meta nd_budget='150' is invalid for target 'cli' (expected int 0..100)",
		violations[0].String())
}

func TestRejectsFloatOutOfRange(t *testing.T) {
	c := mustParse(t, cliSpec())
	violations := c.Validate(minimalModule(map[string]string{"confidence": "1.5"}), "cli")

	require.Len(t, violations, 1)
	assert.Equal(t,
		"C901: @meta confidence='1.5' is invalid for target 'cli' (expected float 0..1)",
		violations[0].String())
}

func TestRejectsUnknownEnumValue(t *testing.T) {
	c := mustParse(t, cliSpec())
	violations := c.Validate(minimalModule(map[string]string{"fallback": "panic"}), "cli")

	require.Len(t, violations, 1)
	assert.Equal(t,
		"C901: @meta fallback='panic' is invalid for target 'cli' (expected one of: fail, replay, stub)",
		violations[0].String())
}

func TestRejectsMissingRequiredCapability(t *testing.T) {
	c := mustParse(t, cliSpec())
	violations := c.Validate(minimalModule(map[string]string{"requires": "ui.modal.ok"}), "cli")

	require.Len(t, violations, 1)
	assert.Equal(t, "C902", violations[0].Code)
	assert.Equal(t,
		"C902: Required capability 'ui.modal.ok' is not provided by target 'cli'",
		violations[0].String())
}

func TestRequiresListChecksEachCapability(t *testing.T) {
	c := mustParse(t, cliSpec())
	violations := c.Validate(minimalModule(map[string]string{
		"requires": "render.text, ui.modal.ok, window.title",
	}), "cli")

	require.Len(t, violations, 2)
	assert.Contains(t, violations[0].Message, "'ui.modal.ok'")
	assert.Contains(t, violations[1].Message, "'window.title'")
}

func TestRejectsUnknownMetaKey(t *testing.T) {
	c := mustParse(t, cliSpec())
	violations := c.Validate(minimalModule(map[string]string{"foo": "bar"}), "cli")

	require.Len(t, violations, 1)
	assert.Equal(t,
		"C903: Unknown @meta key 'foo' for target 'cli' (declare it in target contract meta schema)",
		violations[0].String())
}

func TestExtensionPrefixSkipsUnknownKeyCheck(t *testing.T) {
	c := mustParse(t, cliSpec())
	violations := c.Validate(minimalModule(map[string]string{"x_vendor_flag": "anything"}), "cli")
	assert.Empty(t, violations)
}

func TestLayoutExplicitRequiresCapability(t *testing.T) {
	cli := mustParse(t, cliSpec())
	violations := cli.Validate(minimalModule(map[string]string{"layout": "explicit"}), "cli")

	require.Len(t, violations, 1)
	assert.Equal(t,
		"C904: layout=explicit requires capability 'layout.explicit' on target 'cli'",
		violations[0].String())

	// Case and whitespace insensitive.
	violations = cli.Validate(minimalModule(map[string]string{"layout": " Explicit "}), "cli")
	require.Len(t, violations, 1)
	assert.Equal(t, "C904", violations[0].Code)

	// layout=auto is fine everywhere.
	assert.Empty(t, cli.Validate(minimalModule(map[string]string{"layout": "auto"}), "cli"))
}

func TestLayoutExplicitAllowedWithCapability(t *testing.T) {
	gui := mustParse(t, guiSpec())
	assert.Empty(t, gui.Validate(minimalModule(map[string]string{"layout": "explicit"}), "gui"))
}

func TestRejectsUnknownPackageNamespace(t *testing.T) {
	c := mustParse(t, cliSpec())
	m := minimalModule(nil)
	m.Uses = []sourceir.UseDecl{{Path: "std.net"}}

	violations := c.Validate(m, "cli")
	require.Len(t, violations, 1)
	assert.Equal(t,
		"C905: Unknown package namespace 'net' in use(std.net) for target 'cli'",
		violations[0].String())
}

func TestRejectsUnexportedSymbol(t *testing.T) {
	c := mustParse(t, cliSpec())
	m := minimalModule(nil)
	m.Uses = []sourceir.UseDecl{{Path: "std.ui"}}
	m.Flows[0].States[0].Statements = []sourceir.Statement{{
		Kind: sourceir.StmtCall,
		Call: &sourceir.Call{Name: "ui.slider"},
	}}

	violations := c.Validate(m, "cli")
	require.Len(t, violations, 1)
	assert.Equal(t,
		"C906: Symbol 'ui.slider' not exported by package 'std.ui' (target 'cli', context: flow 'Main', state 'A', expression, exports: button, render, text)",
		violations[0].String())
}

func TestAliasedUseResolvesSymbols(t *testing.T) {
	c := mustParse(t, cliSpec())
	m := minimalModule(nil)
	m.Uses = []sourceir.UseDecl{{Path: "std.ui", Alias: "widgets"}}
	m.Flows[0].States[0].Statements = []sourceir.Statement{{
		Kind: sourceir.StmtCall,
		Call: &sourceir.Call{Name: "widgets.text"},
	}}

	assert.Empty(t, c.Validate(m, "cli"))
}

func TestUnqualifiedAndDeepCallsAreNotChecked(t *testing.T) {
	c := mustParse(t, cliSpec())
	m := minimalModule(nil)
	m.Uses = []sourceir.UseDecl{{Path: "std.ui"}}
	m.Flows[0].States[0].Statements = []sourceir.Statement{
		{Kind: sourceir.StmtCall, Call: &sourceir.Call{Name: "render"}},
		{Kind: sourceir.StmtCall, Call: &sourceir.Call{Name: "ui.widgets.deep"}},
		{Kind: sourceir.StmtCall, Call: &sourceir.Call{Name: "other.thing"}},
	}

	assert.Empty(t, c.Validate(m, "cli"))
}

func TestSymbolChecksSkippedWithoutPackages(t *testing.T) {
	c := mustParse(t, map[string]any{"contract": map[string]any{
		"capabilities": []any{"render.text"},
	}})
	m := minimalModule(nil)
	m.Uses = []sourceir.UseDecl{{Path: "std.anything"}}
	m.Flows[0].States[0].Statements = []sourceir.Statement{{
		Kind: sourceir.StmtCall,
		Call: &sourceir.Call{Name: "anything.goes"},
	}}

	assert.Empty(t, c.Validate(m, "cli"))
}

func TestSymbolWalkCoversEveryExpressionPosition(t *testing.T) {
	c := mustParse(t, cliSpec())
	m := minimalModule(nil)
	m.Uses = []sourceir.UseDecl{{Path: "std.ui"}}

	bad := func() *sourceir.Call { return &sourceir.Call{Name: "ui.missing"} }
	badExpr := func() *sourceir.Expr {
		return &sourceir.Expr{Kind: sourceir.ExprCall, Call: bad()}
	}

	m.Flows[0].States[0].Statements = []sourceir.Statement{
		{Kind: sourceir.StmtOn, Event: bad(), Target: "A"},
		{Kind: sourceir.StmtAssign, Target: "v", Op: sourceir.AssignSet, Value: &sourceir.Expr{
			Kind:  sourceir.ExprBinary,
			Left:  badExpr(),
			Op:    sourceir.OpAnd,
			Right: badExpr(),
		}},
		{Kind: sourceir.StmtRule, Rule: &sourceir.Rule{
			Name:    "nested",
			Trigger: sourceir.Trigger{Kind: sourceir.TriggerOn, On: bad()},
			Body: []sourceir.Effect{
				{Kind: sourceir.EffectAssign, Target: "v", Op: sourceir.AssignSet, Value: badExpr()},
			},
		}},
	}
	m.Rules = []sourceir.Rule{{
		Name:    "module_rule",
		Trigger: sourceir.Trigger{Kind: sourceir.TriggerWhen, When: badExpr()},
		Body:    []sourceir.Effect{{Kind: sourceir.EffectEmit, Event: "done"}},
	}}
	m.NdBlocks = []sourceir.NdBlock{{
		Name:        "palette",
		Propose:     *bad(),
		Constraints: []sourceir.Call{*bad()},
	}}

	violations := c.Validate(m, "cli")
	require.Len(t, violations, 8)
	for _, v := range violations {
		assert.Equal(t, "C906", v.Code)
	}

	contexts := make([]string, len(violations))
	for i, v := range violations {
		contexts[i] = v.Message
	}
	joined := fmt.Sprint(contexts)
	assert.Contains(t, joined, "flow 'Main', state 'A', transition")
	assert.Contains(t, joined, "flow 'Main', state 'A', assignment")
	assert.Contains(t, joined, "flow 'Main', state 'A', rule 'nested', trigger")
	assert.Contains(t, joined, "flow 'Main', state 'A', rule 'nested', body")
	assert.Contains(t, joined, "flow '<module>', state '<module>', rule 'module_rule', when")
	assert.Contains(t, joined, "nd 'palette' propose")
	assert.Contains(t, joined, "nd 'palette' satisfy")
}

func TestViolationsAccumulateInDeterministicOrder(t *testing.T) {
	c := mustParse(t, cliSpec())
	m := minimalModule(map[string]string{
		"zz_unknown": "1",
		"aa_unknown": "2",
		"nd_budget":  "999",
		"requires":   "ui.modal.ok",
	})

	violations := c.Validate(m, "cli")
	require.Len(t, violations, 4)
	// Meta keys are visited in sorted order, then requires, then layout.
	assert.Contains(t, violations[0].Message, "'aa_unknown'")
	assert.Contains(t, violations[1].Message, "nd_budget")
	assert.Contains(t, violations[2].Message, "'zz_unknown'")
	assert.Equal(t, "C902", violations[3].Code)
}
