// Package targetir defines the canonical Target IR exchanged with code
// generators. The shape is deliberately half-open: type, views, flow and
// window are typed because the overlay and the generators depend on them;
// state and extensions stay generic value trees, and unrecognized top-level
// fields survive round-trips untouched.
package targetir

import (
	"encoding/json"
	"fmt"
)

// IR is one canonical target intermediate representation. State and
// extensions are always serialized, null when never populated, so code
// generators can rely on the keys existing.
type IR struct {
	Type       string                  `json:"type"`
	Version    int                     `json:"version"`
	State      map[string]any          `json:"state"`
	Views      map[string][]RenderItem `json:"views"`
	Flow       Flow                    `json:"flow"`
	Window     *Window                 `json:"window,omitempty"`
	Layout     map[string]Layout       `json:"layout,omitempty"`
	Extensions map[string]any          `json:"extensions"`

	// Extra holds top-level fields this version does not know about.
	// They are preserved verbatim so a newer generator can still see them.
	Extra map[string]any `json:"-"`
}

// Flow is the state machine a generator runs: a start state and a
// state -> event -> state transition table.
type Flow struct {
	Start       string                       `json:"start"`
	Transitions map[string]map[string]string `json:"transitions"`
}

// RenderItem is one drawable element of a view. Absent fields stay absent;
// a missing x is not the same as x=0 to a positioning generator.
type RenderItem struct {
	Kind   string `json:"kind"`
	Text   string `json:"text,omitempty"`
	Color  string `json:"color,omitempty"`
	X      *int   `json:"x,omitempty"`
	Y      *int   `json:"y,omitempty"`
	Action string `json:"action,omitempty"`
	Style  string `json:"style,omitempty"`
}

// Window describes the native window for gui families.
type Window struct {
	Title  string `json:"title,omitempty"`
	Width  *int   `json:"width,omitempty"`
	Height *int   `json:"height,omitempty"`
}

// Layout carries per-view layout tokens for targets with explicit layout.
type Layout struct {
	Padding    *int   `json:"padding,omitempty"`
	Spacing    *int   `json:"spacing,omitempty"`
	Align      string `json:"align,omitempty"`
	Background string `json:"background,omitempty"`
}

// knownKeys are the top-level fields the typed struct owns. Everything else
// goes to Extra.
var knownKeys = []string{"type", "version", "state", "views", "flow", "window", "layout", "extensions"}

// UnmarshalJSON decodes the typed fields and collects unknown top-level
// fields into Extra.
func (ir *IR) UnmarshalJSON(data []byte) error {
	type plain IR
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, k := range knownKeys {
		delete(raw, k)
	}
	if len(raw) > 0 {
		p.Extra = make(map[string]any, len(raw))
		for k, v := range raw {
			var val any
			if err := json.Unmarshal(v, &val); err != nil {
				return fmt.Errorf("target IR field %q: %w", k, err)
			}
			p.Extra[k] = val
		}
	}

	*ir = IR(p)
	return nil
}

// MarshalJSON re-merges Extra into the output. Typed fields win on key
// collision.
func (ir IR) MarshalJSON() ([]byte, error) {
	type plain IR
	data, err := json.Marshal(plain(ir))
	if err != nil {
		return nil, err
	}
	if len(ir.Extra) == 0 {
		return data, nil
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for k, v := range ir.Extra {
		if _, taken := merged[k]; taken {
			continue
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("target IR extra field %q: %w", k, err)
		}
		merged[k] = raw
	}
	return json.Marshal(merged)
}

// FromValue decodes a normalized generic value tree into a typed IR.
func FromValue(v map[string]any) (*IR, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode target IR value: %w", err)
	}
	var ir IR
	if err := json.Unmarshal(data, &ir); err != nil {
		return nil, fmt.Errorf("decode target IR: %w", err)
	}
	return &ir, nil
}

// Value re-encodes the IR as a generic value tree, the form handed to
// external code generators.
func (ir *IR) Value() (map[string]any, error) {
	data, err := json.Marshal(ir)
	if err != nil {
		return nil, fmt.Errorf("encode target IR: %w", err)
	}
	var v map[string]any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("re-decode target IR: %w", err)
	}
	return v, nil
}

// Pretty renders indented JSON for lock files, prompts and debug output.
func (ir *IR) Pretty() (string, error) {
	data, err := json.MarshalIndent(ir, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode target IR: %w", err)
	}
	return string(data), nil
}

// Int returns a pointer to n. Convenience for the optional numeric fields.
func Int(n int) *int {
	return &n
}
