// Package target resolves build targets: the built-in families (cli, web,
// gui) described by embedded descriptors, and external providers discovered
// on PATH as sculpt-target-<name> executables. A resolved Spec carries
// everything the rest of the compiler needs: the standard IR id, the compact
// wire schema, the parsed capability contract and any extension defaults.
package target

import (
	"context"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"sculpt/pkg/contract"
	"sculpt/pkg/wire"
)

//go:embed descriptors/*.yaml
var descriptorFS embed.FS

// externalPrefix is the executable name prefix external providers register
// under, e.g. sculpt-target-tui for `--target tui`.
const externalPrefix = "sculpt-target-"

var builtins = map[string]string{
	"cli": "descriptors/cli.yaml",
	"web": "descriptors/web.yaml",
	"gui": "descriptors/gui.yaml",
}

// Spec is a resolved target descriptor.
type Spec struct {
	Name       string
	StandardIR string
	// Schema is the compact wire schema forwarded to providers as a hint.
	// External targets may supply their own or none.
	Schema map[string]any
	// Extensions are descriptor defaults merged into accepted IRs.
	Extensions map[string]any
	// Contract gates the module before any generation attempt.
	Contract *contract.Contract
	// Raw is the full descriptor value tree, for `targets describe`.
	Raw map[string]any
	// External marks a PATH-discovered provider target.
	External bool
}

// IsBuiltin reports whether name is one of the built-in target families.
func IsBuiltin(name string) bool {
	_, ok := builtins[name]
	return ok
}

// Resolve loads a target descriptor by name. Built-ins come from the
// embedded descriptors; any other name is resolved through the external
// provider's describe invocation.
func Resolve(ctx context.Context, name string) (*Spec, error) {
	if path, ok := builtins[name]; ok {
		raw, err := loadBuiltinDescriptor(path)
		if err != nil {
			return nil, err
		}
		return fromDescriptor(name, raw, false)
	}
	raw, err := describeExternal(ctx, name)
	if err != nil {
		return nil, err
	}
	return fromDescriptor(name, raw, true)
}

// List returns every resolvable target name: the built-ins plus any
// sculpt-target-* executable on PATH. Unreadable PATH entries are skipped.
func List() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	for _, dir := range filepath.SplitList(os.Getenv("PATH")) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			rest, ok := strings.CutPrefix(entry.Name(), externalPrefix)
			if ok && rest != "" {
				names = append(names, rest)
			}
		}
	}
	sort.Strings(names)
	return dedup(names)
}

func loadBuiltinDescriptor(path string) (map[string]any, error) {
	data, err := descriptorFS.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read target descriptor %s: %w", path, err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse target descriptor %s: %w", path, err)
	}
	return raw, nil
}

func fromDescriptor(name string, raw map[string]any, external bool) (*Spec, error) {
	standardIR, _ := raw["standard_ir"].(string)
	if standardIR == "" {
		return nil, fmt.Errorf("Target describe missing standard_ir for target '%s'", name)
	}

	c, err := contract.Parse(raw)
	if err != nil {
		return nil, err
	}

	schema, _ := raw["schema"].(map[string]any)
	if schema == nil {
		schema = wire.CompactSchemaFor(standardIR)
	}

	extensions, _ := raw["extensions"].(map[string]any)

	return &Spec{
		Name:       name,
		StandardIR: standardIR,
		Schema:     schema,
		Extensions: extensions,
		Contract:   c,
		Raw:        raw,
		External:   external,
	}, nil
}

func dedup(sorted []string) []string {
	out := sorted[:0]
	for _, name := range sorted {
		if len(out) == 0 || out[len(out)-1] != name {
			out = append(out, name)
		}
	}
	return out
}
