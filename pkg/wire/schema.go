// Package wire owns the compact generation wire format: the positional
// schema handed to providers as a hint, the tolerant normalizer that expands
// responses into the canonical Target IR shape, and the JSON extraction that
// digs an object out of free-form model output. Everything else in the
// compiler is isolated from wire-format evolution behind this package.
package wire

// CompactSchemaFor returns the positional wire schema for a built-in
// standard IR family. External families bring their own schema, so any
// other id returns nil.
func CompactSchemaFor(standardIR string) map[string]any {
	switch standardIR {
	case "cli-ir":
		return schemaBase(standardIR, false)
	case "web-ir":
		return schemaBase(standardIR, false)
	case "gui-ir":
		return schemaBase(standardIR, true)
	default:
		return nil
	}
}

// schemaBase assembles the compact schema. The positional encoding keeps
// prompts small: a render item is a 7-tuple, a view is (name, items), flow
// is (start, transition pairs) and layout is (view, 4-tuple). Slots a
// response has nothing for are null.
func schemaBase(standardIR string, gui bool) map[string]any {
	kinds := []any{"text"}
	if gui {
		kinds = []any{"text", "button"}
	}

	itemTuple := map[string]any{
		"type": "array",
		"prefixItems": []any{
			map[string]any{"enum": kinds},
			orNull("string"), // text
			orNull("string"), // color
			orNull("integer"), // x
			orNull("integer"), // y
			orNull("string"), // action
			orNull("string"), // style
		},
	}

	viewEntry := map[string]any{
		"type": "array",
		"prefixItems": []any{
			map[string]any{"type": "string"},
			map[string]any{"type": "array", "items": itemTuple},
		},
	}

	eventPair := map[string]any{
		"type": "array",
		"prefixItems": []any{
			map[string]any{"type": "string"},
			map[string]any{"type": "string"},
		},
	}
	transitionEntry := map[string]any{
		"type": "array",
		"prefixItems": []any{
			map[string]any{"type": "string"},
			map[string]any{"type": "array", "items": eventPair},
		},
	}

	props := map[string]any{
		"t": map[string]any{"const": standardIR},
		"v": map[string]any{"type": "integer", "minimum": 1},
		"s": map[string]any{"type": "object"},
		"x": map[string]any{"type": "object"},
		"u": map[string]any{"type": "array", "items": viewEntry},
		"f": map[string]any{
			"type": "array",
			"prefixItems": []any{
				map[string]any{"type": "string"},
				map[string]any{"type": "array", "items": transitionEntry},
			},
		},
	}

	if gui {
		props["w"] = map[string]any{
			"type": "array",
			"prefixItems": []any{
				orNull("string"), // title
				orNull("integer"), // width
				orNull("integer"), // height
			},
		}
		props["l"] = map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "array",
				"prefixItems": []any{
					map[string]any{"type": "string"},
					map[string]any{
						"type": "array",
						"prefixItems": []any{
							orNull("integer"), // padding
							orNull("integer"), // spacing
							map[string]any{"enum": []any{"leading", "center", "trailing", nil}},
							map[string]any{"enum": []any{"window", "grouped", "clear", nil}},
						},
					},
				},
			},
		}
	}

	return map[string]any{
		"$schema":    "https://json-schema.org/draft/2020-12/schema",
		"title":      standardIR + "-llm",
		"type":       "object",
		"required":   []any{"t", "v", "u", "f"},
		"properties": props,
	}
}

func orNull(typ string) map[string]any {
	return map[string]any{"type": []any{typ, "null"}}
}
