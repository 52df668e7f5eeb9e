// Package contract implements the per-target capability gate. A target
// declares what it can do (capabilities), which meta keys it understands
// (meta schema) and which packages it provides (namespace + export sets);
// a module is validated against all of that before any generation attempt
// is paid for.
package contract

import (
	"fmt"
	"math"
	"sort"
)

// MetaKind is the value type of one meta schema field.
type MetaKind string

const (
	KindBool           MetaKind = "bool"
	KindInt            MetaKind = "int"
	KindFloat          MetaKind = "float"
	KindEnum           MetaKind = "enum"
	KindCapabilityList MetaKind = "capability_list"
	KindString         MetaKind = "string"
)

// MetaField is the schema for one meta key.
type MetaField struct {
	Key      string
	Kind     MetaKind
	MinInt   int64
	MaxInt   int64
	MinFloat float64
	MaxFloat float64
	Values   map[string]bool
}

// Package is one package a target provides to modules.
type Package struct {
	ID        string
	Namespace string
	Exports   map[string]bool
}

// Contract is the parsed gate for one target.
type Contract struct {
	Version      int
	Capabilities map[string]bool

	metaSchema map[string]MetaField
	packages   map[string]Package
}

// Has reports whether the target provides the capability.
func (c *Contract) Has(capability string) bool {
	return c.Capabilities[capability]
}

// Parse builds a Contract from a target descriptor value tree. The
// descriptor's "contract" section is optional; a missing section yields a
// contract with no capabilities, no packages and the default meta schema.
// A declared meta schema merges over the defaults covering the convergence
// keys plus "target".
func Parse(spec map[string]any) (*Contract, error) {
	section, _ := asMap(spec["contract"])

	c := &Contract{
		Version:      1,
		Capabilities: map[string]bool{},
		metaSchema:   defaultMetaSchema(),
		packages:     map[string]Package{},
	}

	if v, ok := asInt64(section["version"]); ok {
		c.Version = int(v)
	}

	if items, ok := asSlice(section["capabilities"]); ok {
		for _, item := range items {
			if s, ok := item.(string); ok {
				c.Capabilities[s] = true
			}
		}
	}

	if meta, ok := asMap(section["meta"]); ok {
		keys := sortedKeys(meta)
		for _, key := range keys {
			field, err := parseMetaField(key, meta[key])
			if err != nil {
				return nil, err
			}
			if field != nil {
				c.metaSchema[key] = *field
			}
		}
	}

	if items, ok := asSlice(section["packages"]); ok {
		for _, item := range items {
			obj, ok := asMap(item)
			if !ok {
				continue
			}
			namespace, ok := obj["namespace"].(string)
			if !ok {
				continue
			}
			id := namespace
			if s, ok := obj["id"].(string); ok {
				id = s
			}
			exports := map[string]bool{}
			if list, ok := asSlice(obj["exports"]); ok {
				for _, sym := range list {
					if s, ok := sym.(string); ok {
						exports[s] = true
					}
				}
			}
			c.packages[namespace] = Package{ID: id, Namespace: namespace, Exports: exports}
		}
	}

	return c, nil
}

func parseMetaField(key string, value any) (*MetaField, error) {
	obj, ok := asMap(value)
	if !ok {
		return nil, nil
	}
	kind, _ := obj["type"].(string)
	field := MetaField{Key: key}
	switch kind {
	case "bool":
		field.Kind = KindBool
	case "int":
		field.Kind = KindInt
		field.MinInt = math.MinInt64
		field.MaxInt = math.MaxInt64
		if v, ok := asInt64(obj["min"]); ok {
			field.MinInt = v
		}
		if v, ok := asInt64(obj["max"]); ok {
			field.MaxInt = v
		}
	case "float":
		field.Kind = KindFloat
		field.MinFloat = -math.MaxFloat64
		field.MaxFloat = math.MaxFloat64
		if v, ok := asFloat64(obj["min"]); ok {
			field.MinFloat = v
		}
		if v, ok := asFloat64(obj["max"]); ok {
			field.MaxFloat = v
		}
	case "enum":
		list, ok := asSlice(obj["values"])
		if !ok {
			return nil, fmt.Errorf("Invalid contract meta '%s': enum requires values[]", key)
		}
		field.Kind = KindEnum
		field.Values = map[string]bool{}
		for _, v := range list {
			if s, ok := v.(string); ok {
				field.Values[s] = true
			}
		}
	case "capability_list":
		field.Kind = KindCapabilityList
	default:
		field.Kind = KindString
	}
	return &field, nil
}

// defaultMetaSchema covers the keys every target understands: the target
// selector itself plus the convergence controls.
func defaultMetaSchema() map[string]MetaField {
	return map[string]MetaField{
		"target": {Key: "target", Kind: KindString},
		"nd_budget": {
			Key: "nd_budget", Kind: KindInt, MinInt: 0, MaxInt: 100,
		},
		"confidence": {
			Key: "confidence", Kind: KindFloat, MinFloat: 0.0, MaxFloat: 1.0,
		},
		"strict_scopes": {Key: "strict_scopes", Kind: KindBool},
		"requires":      {Key: "requires", Kind: KindCapabilityList},
		"max_iterations": {
			Key: "max_iterations", Kind: KindInt, MinInt: 1, MaxInt: 10000,
		},
		"fallback": {
			Key: "fallback", Kind: KindEnum,
			Values: map[string]bool{"fail": true, "stub": true, "replay": true},
		},
	}
}

// Value coercion across the JSON and YAML decoders, which disagree on
// number types.

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func asSlice(v any) ([]any, bool) {
	s, ok := v.([]any)
	return s, ok
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int64(n), true
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
