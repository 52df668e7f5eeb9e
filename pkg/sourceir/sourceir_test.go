package sourceir

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const snakeDoc = `{
  "name": "snake",
  "meta": {"target": "cli", "fallback": "stub"},
  "uses": [{"path": "std.ui"}, {"path": "std.time", "alias": "clock"}],
  "flows": [
    {
      "name": "Game",
      "start": "Title",
      "states": [
        {
          "name": "Title",
          "statements": [
            {"kind": "call", "call": {"name": "render", "args": [
              {"value": {"kind": "call", "call": {"name": "text", "args": [
                {"value": {"kind": "string", "string": "SCULPT"}},
                {"name": "color", "value": {"kind": "string", "string": "yellow"}}
              ]}}}
            ]}},
            {"kind": "on", "event": {"name": "key", "args": [
              {"value": {"kind": "ident", "ident": "Enter"}}
            ]}, "target": "Play"}
          ]
        },
        {
          "name": "Play",
          "statements": [
            {"kind": "assign", "target": "score", "op": "set", "value": {"kind": "number", "number": 0}},
            {"kind": "terminate"}
          ]
        }
      ]
    }
  ],
  "global_state": [
    {"kind": "assign", "target": "speed", "op": "set", "value": {"kind": "number", "number": 2}}
  ],
  "rules": [
    {
      "name": "award",
      "trigger": {"kind": "when", "when": {"kind": "binary",
        "left": {"kind": "ident", "ident": "score"},
        "op": "gte",
        "right": {"kind": "number", "number": 10}}},
      "body": [{"kind": "emit", "event": "victory"}]
    }
  ],
  "nd_blocks": [
    {
      "name": "palette",
      "propose": {"name": "colors", "args": [{"value": {"kind": "number", "number": 3}}]},
      "constraints": [{"name": "contrast", "args": [{"value": {"kind": "number", "number": 4.5}}]}]
    }
  ]
}`

func TestUnmarshalFullModule(t *testing.T) {
	m, err := Unmarshal([]byte(snakeDoc))
	require.NoError(t, err)

	assert.Equal(t, "snake", m.Name)
	assert.Equal(t, "cli", m.Meta["target"])
	require.Len(t, m.Flows, 1)

	flow := m.Flows[0]
	assert.Equal(t, "Game", flow.Name)
	assert.Equal(t, "Title", flow.Start)
	require.Len(t, flow.States, 2)

	title := flow.States[0]
	require.Len(t, title.Statements, 2)
	render := title.Statements[0]
	assert.Equal(t, StmtCall, render.Kind)
	require.NotNil(t, render.Call)
	assert.Equal(t, "render", render.Call.Name)

	on := title.Statements[1]
	assert.Equal(t, StmtOn, on.Kind)
	require.NotNil(t, on.Event)
	assert.Equal(t, "key", on.Event.Name)
	assert.Equal(t, "Play", on.Target)

	play := flow.States[1]
	assign := play.Statements[0]
	assert.Equal(t, StmtAssign, assign.Kind)
	assert.Equal(t, "score", assign.Target)
	assert.Equal(t, AssignSet, assign.Op)
	assert.Equal(t, StmtTerminate, play.Statements[1].Kind)

	require.Len(t, m.Rules, 1)
	assert.Equal(t, TriggerWhen, m.Rules[0].Trigger.Kind)
	require.NotNil(t, m.Rules[0].Trigger.When)
	assert.Equal(t, OpGte, m.Rules[0].Trigger.When.Op)

	require.Len(t, m.NdBlocks, 1)
	assert.Equal(t, "colors", m.NdBlocks[0].Propose.Name)
}

func TestUnmarshalRejectsEmptyName(t *testing.T) {
	_, err := Unmarshal([]byte(`{"name": "", "meta": {}, "flows": []}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "module name is empty")
}

func TestUnmarshalDefaultsMeta(t *testing.T) {
	m, err := Unmarshal([]byte(`{"name": "bare", "flows": []}`))
	require.NoError(t, err)
	assert.NotNil(t, m.Meta)
}

func TestUnmarshalToleratesUnknownFields(t *testing.T) {
	m, err := Unmarshal([]byte(`{"name": "bare", "meta": {}, "flows": [], "front_end_only": true}`))
	require.NoError(t, err)
	assert.Equal(t, "bare", m.Name)
}

func TestLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snake.sculpt.json")
	require.NoError(t, os.WriteFile(path, []byte(snakeDoc), 0644))

	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "snake", m.Name)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.sculpt.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.sculpt.json")
}

func TestUseDeclNamespaceAndLocalName(t *testing.T) {
	u := UseDecl{Path: "std.ui"}
	assert.Equal(t, "ui", u.Namespace())
	assert.Equal(t, "ui", u.LocalName())

	aliased := UseDecl{Path: "std.time", Alias: "clock"}
	assert.Equal(t, "time", aliased.Namespace())
	assert.Equal(t, "clock", aliased.LocalName())

	bare := UseDecl{Path: "ui"}
	assert.Equal(t, "ui", bare.Namespace())
}

func TestExprLiteral(t *testing.T) {
	v, ok := (&Expr{Kind: ExprNumber, Number: 4.5}).Literal()
	assert.True(t, ok)
	assert.Equal(t, 4.5, v)

	v, ok = (&Expr{Kind: ExprString, String: "yellow"}).Literal()
	assert.True(t, ok)
	assert.Equal(t, "yellow", v)

	v, ok = (&Expr{Kind: ExprNull}).Literal()
	assert.True(t, ok)
	assert.Nil(t, v)

	_, ok = (&Expr{Kind: ExprIdent, Ident: "score"}).Literal()
	assert.False(t, ok)

	_, ok = (&Expr{Kind: ExprCall, Call: &Call{Name: "len"}}).Literal()
	assert.False(t, ok)

	var nilExpr *Expr
	_, ok = nilExpr.Literal()
	assert.False(t, ok)
}

func TestCallArgHelpers(t *testing.T) {
	c := &Call{Name: "text", Args: []CallArg{
		{Value: Expr{Kind: ExprString, String: "SCULPT"}},
		{Name: "color", Value: Expr{Kind: ExprString, String: "yellow"}},
		{Name: "x", Value: Expr{Kind: ExprNumber, Number: 2}},
	}}

	pos := c.Positional()
	require.Len(t, pos, 1)
	assert.Equal(t, "SCULPT", pos[0].String)

	color, ok := c.Named("color")
	assert.True(t, ok)
	assert.Equal(t, "yellow", color.String)

	_, ok = c.Named("missing")
	assert.False(t, ok)

	assert.True(t, c.AllLiteral())

	withIdent := &Call{Name: "text", Args: []CallArg{
		{Value: Expr{Kind: ExprIdent, Ident: "title"}},
	}}
	assert.False(t, withIdent.AllLiteral())
}

func TestBinOpSymbol(t *testing.T) {
	assert.Equal(t, ">=", OpGte.Symbol())
	assert.Equal(t, ">", OpGt.Symbol())
	assert.Equal(t, "<", OpLt.Symbol())
	assert.Equal(t, "==", OpEq.Symbol())
	assert.Equal(t, "!=", OpNeq.Symbol())
	assert.Equal(t, "and", OpAnd.Symbol())
	assert.Equal(t, "or", OpOr.Symbol())
}

func TestPretty(t *testing.T) {
	m, err := Unmarshal([]byte(snakeDoc))
	require.NoError(t, err)

	pretty, err := m.Pretty()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(pretty, "{\n  \"name\": \"snake\""))
}
