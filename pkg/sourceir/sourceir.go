// Package sourceir defines the validated program representation handed to the
// compiler back end by the front end. The back end never parses surface
// syntax; it consumes these structures as-is, re-checking only target
// compatibility and determinism boundaries.
package sourceir

// Module is one compiled SCULPT module. Immutable for the duration of a
// compile: every component reads it, none mutates it.
type Module struct {
	Name        string            `json:"name"`
	Namespace   []string          `json:"namespace,omitempty"`
	FQNs        []string          `json:"fqns,omitempty"`
	Meta        map[string]string `json:"meta"`
	Uses        []UseDecl         `json:"uses,omitempty"`
	Imports     []ImportDecl      `json:"imports,omitempty"`
	Flows       []Flow            `json:"flows"`
	GlobalState []Statement       `json:"global_state,omitempty"`
	Rules       []Rule            `json:"rules,omitempty"`
	NdBlocks    []NdBlock         `json:"nd_blocks,omitempty"`
}

// UseDecl brings a package namespace into scope, e.g. use std.ui as ui.
type UseDecl struct {
	Path  string `json:"path"`
	Alias string `json:"alias,omitempty"`
}

// Namespace returns the last segment of the use path, which is the package
// namespace the declaration binds.
func (u UseDecl) Namespace() string {
	path := u.Path
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '.' {
			return path[i+1:]
		}
	}
	return path
}

// LocalName returns the identifier the module refers to the package by:
// the alias when one was declared, otherwise the namespace itself.
func (u UseDecl) LocalName() string {
	if u.Alias != "" {
		return u.Alias
	}
	return u.Namespace()
}

// ImportDecl is a raw import line. Carried through for diagnostics only.
type ImportDecl struct {
	Path  string `json:"path"`
	Alias string `json:"alias,omitempty"`
}

// Flow is a named state machine.
type Flow struct {
	Name   string  `json:"name"`
	Start  string  `json:"start,omitempty"`
	States []State `json:"states"`
}

// State is one named state and its ordered statements.
type State struct {
	Name       string      `json:"name,omitempty"`
	Statements []Statement `json:"statements"`
}

// StmtKind discriminates the Statement union.
type StmtKind string

const (
	StmtOn        StmtKind = "on"
	StmtRun       StmtKind = "run"
	StmtTerminate StmtKind = "terminate"
	StmtAssign    StmtKind = "assign"
	StmtCall      StmtKind = "call"
	StmtRule      StmtKind = "rule"
)

// AssignOp is how an assignment combines with the previous value.
type AssignOp string

const (
	AssignSet AssignOp = "set"
	AssignAdd AssignOp = "add"
)

// Statement is one statement inside a state (or the module-level state
// block). Kind selects which of the remaining fields are meaningful:
//
//	on        Event, Target
//	run       Flow
//	terminate (no payload)
//	assign    Target, Op, Value
//	call      Call
//	rule      Rule
type Statement struct {
	Kind   StmtKind `json:"kind"`
	Event  *Call    `json:"event,omitempty"`
	Target string   `json:"target,omitempty"`
	Flow   string   `json:"flow,omitempty"`
	Op     AssignOp `json:"op,omitempty"`
	Value  *Expr    `json:"value,omitempty"`
	Call   *Call    `json:"call,omitempty"`
	Rule   *Rule    `json:"rule,omitempty"`
}

// TriggerKind discriminates rule triggers.
type TriggerKind string

const (
	TriggerOn   TriggerKind = "on"
	TriggerWhen TriggerKind = "when"
)

// Trigger is what fires a rule: an event pattern or a boolean condition.
type Trigger struct {
	Kind TriggerKind `json:"kind"`
	On   *Call       `json:"on,omitempty"`
	When *Expr       `json:"when,omitempty"`
}

// EffectKind discriminates rule effects.
type EffectKind string

const (
	EffectAssign EffectKind = "assign"
	EffectEmit   EffectKind = "emit"
)

// Effect is one effect in a rule body: a state assignment or an event emit.
type Effect struct {
	Kind   EffectKind `json:"kind"`
	Target string     `json:"target,omitempty"`
	Op     AssignOp   `json:"op,omitempty"`
	Value  *Expr      `json:"value,omitempty"`
	Event  string     `json:"event,omitempty"`
}

// Rule is a declarative trigger/effect pair, optionally scoped to one flow
// or one state.
type Rule struct {
	Name       string   `json:"name"`
	Params     []string `json:"params,omitempty"`
	ScopeFlow  string   `json:"scope_flow,omitempty"`
	ScopeState string   `json:"scope_state,omitempty"`
	Trigger    Trigger  `json:"trigger"`
	Body       []Effect `json:"body"`
}

// NdBlock marks content the author deliberately left to generation: a
// proposal call plus zero or more constraint calls bounding it.
type NdBlock struct {
	Name        string   `json:"name"`
	Params      []string `json:"params,omitempty"`
	Propose     Call     `json:"propose"`
	Constraints []Call   `json:"constraints,omitempty"`
}

// ExprKind discriminates the Expr union.
type ExprKind string

const (
	ExprNumber ExprKind = "number"
	ExprString ExprKind = "string"
	ExprNull   ExprKind = "null"
	ExprIdent  ExprKind = "ident"
	ExprCall   ExprKind = "call"
	ExprBinary ExprKind = "binary"
)

// BinOp is a binary operator in a rule condition or expression.
type BinOp string

const (
	OpGte BinOp = "gte"
	OpGt  BinOp = "gt"
	OpLt  BinOp = "lt"
	OpEq  BinOp = "eq"
	OpNeq BinOp = "neq"
	OpAnd BinOp = "and"
	OpOr  BinOp = "or"
)

// Symbol returns the comparison operator as it reads in source.
func (op BinOp) Symbol() string {
	switch op {
	case OpGte:
		return ">="
	case OpGt:
		return ">"
	case OpLt:
		return "<"
	case OpEq:
		return "=="
	case OpNeq:
		return "!="
	case OpAnd:
		return "and"
	case OpOr:
		return "or"
	default:
		return string(op)
	}
}

// Expr is one expression. Kind selects the meaningful fields:
//
//	number  Number
//	string  String
//	null    (no payload)
//	ident   Ident
//	call    Call
//	binary  Left, Op, Right
type Expr struct {
	Kind   ExprKind `json:"kind"`
	Number float64  `json:"number,omitempty"`
	String string   `json:"string,omitempty"`
	Ident  string   `json:"ident,omitempty"`
	Call   *Call    `json:"call,omitempty"`
	Left   *Expr    `json:"left,omitempty"`
	Op     BinOp    `json:"op,omitempty"`
	Right  *Expr    `json:"right,omitempty"`
}

// Literal returns the Go value of a literal expression. ok is false for
// idents, calls and binary expressions, which have no value until runtime.
func (e *Expr) Literal() (any, bool) {
	if e == nil {
		return nil, false
	}
	switch e.Kind {
	case ExprNumber:
		return e.Number, true
	case ExprString:
		return e.String, true
	case ExprNull:
		return nil, true
	default:
		return nil, false
	}
}

// Call is a named call with ordered arguments.
type Call struct {
	Name string    `json:"name"`
	Args []CallArg `json:"args,omitempty"`
}

// CallArg is one argument; Name is empty for positional arguments.
type CallArg struct {
	Name  string `json:"name,omitempty"`
	Value Expr   `json:"value"`
}

// Positional returns the unnamed arguments in order.
func (c *Call) Positional() []Expr {
	var out []Expr
	for _, a := range c.Args {
		if a.Name == "" {
			out = append(out, a.Value)
		}
	}
	return out
}

// Named returns the value of the named argument, if present.
func (c *Call) Named(name string) (Expr, bool) {
	for _, a := range c.Args {
		if a.Name == name {
			return a.Value, true
		}
	}
	return Expr{}, false
}

// AllLiteral reports whether every argument is a literal. Generation-time
// components treat literal-only calls as measurable or renderable as-is.
func (c *Call) AllLiteral() bool {
	for _, a := range c.Args {
		if _, ok := a.Value.Literal(); !ok {
			return false
		}
	}
	return true
}
