package sourceir

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Load reads a front-end-produced SourceIR document (a .sculpt.json file).
func Load(path string) (*Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read source IR %s: %w", path, err)
	}
	m, err := Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Decode reads a SourceIR document from r.
func Decode(r io.Reader) (*Module, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read source IR: %w", err)
	}
	return Unmarshal(data)
}

// Unmarshal parses a SourceIR document. Unknown fields are tolerated so the
// front end can evolve ahead of this back end; missing required fields are
// not.
func Unmarshal(data []byte) (*Module, error) {
	var m Module
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode source IR: %w", err)
	}
	if m.Name == "" {
		return nil, fmt.Errorf("decode source IR: module name is empty")
	}
	if m.Meta == nil {
		m.Meta = map[string]string{}
	}
	return &m, nil
}

// Pretty renders the module as indented JSON for prompts and debug output.
func (m *Module) Pretty() (string, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode source IR: %w", err)
	}
	return string(data), nil
}
