package wire

// Field order of the render item 7-tuple and the layout 4-tuple.
var (
	renderSlots = []string{"kind", "text", "color", "x", "y", "action", "style"}
	layoutSlots = []string{"padding", "spacing", "align", "background"}
)

// Short keys of the legacy object-keyed render item form.
var renderShortKeys = map[string]string{
	"k": "kind", "t": "text", "c": "color", "x": "x", "y": "y", "a": "action",
}

// Normalize expands a compact wire value into the canonical Target IR
// shape. A value already carrying a "type" tag passes through unchanged,
// which makes normalization idempotent. Each compact field accepts the
// positional tuple form first and falls back to the legacy object-keyed
// form; partially populated tuples leave fields absent, never defaulted.
func Normalize(standardIR string, input map[string]any) map[string]any {
	if _, ok := input["type"]; ok {
		return input
	}

	out := map[string]any{"type": standardIR}

	if v, ok := input["v"]; ok && v != nil {
		out["version"] = v
	} else {
		out["version"] = 1
	}

	if s, ok := input["s"]; ok && s != nil {
		out["state"] = s
	}
	if x, ok := input["x"]; ok && x != nil {
		out["extensions"] = x
	}
	if w := normalizeWindow(input["w"]); w != nil {
		out["window"] = w
	}
	if u := normalizeViews(input["u"]); u != nil {
		out["views"] = u
	}
	if f := normalizeFlow(input["f"]); f != nil {
		out["flow"] = f
	}
	if l := normalizeLayout(input["l"]); l != nil {
		out["layout"] = l
	}

	return out
}

// normalizeWindow expands [title, width, height] or the legacy {t, w, h}.
func normalizeWindow(v any) map[string]any {
	switch w := v.(type) {
	case []any:
		win := map[string]any{}
		setSlot(win, "title", w, 0)
		setSlot(win, "width", w, 1)
		setSlot(win, "height", w, 2)
		return win
	case map[string]any:
		win := map[string]any{}
		copyKey(win, "title", w, "t")
		copyKey(win, "width", w, "w")
		copyKey(win, "height", w, "h")
		return win
	default:
		return nil
	}
}

// normalizeViews expands [[name, items], ...] or the legacy name -> items
// object. Items that normalize to nothing are dropped.
func normalizeViews(v any) map[string]any {
	appendItems := func(val any) []any {
		items := []any{}
		list, ok := val.([]any)
		if !ok {
			return items
		}
		for _, item := range list {
			if m := normalizeRenderItem(item); len(m) > 0 {
				items = append(items, m)
			}
		}
		return items
	}

	switch u := v.(type) {
	case []any:
		views := map[string]any{}
		for _, entry := range u {
			pair, ok := entry.([]any)
			if !ok || len(pair) == 0 {
				continue
			}
			name, ok := pair[0].(string)
			if !ok {
				continue
			}
			var itemsVal any
			if len(pair) > 1 {
				itemsVal = pair[1]
			}
			views[name] = appendItems(itemsVal)
		}
		return views
	case map[string]any:
		views := map[string]any{}
		for name, val := range u {
			views[name] = appendItems(val)
		}
		return views
	default:
		return nil
	}
}

// normalizeRenderItem expands one render item, tuple or legacy object.
func normalizeRenderItem(v any) map[string]any {
	item := map[string]any{}
	switch it := v.(type) {
	case []any:
		for i, key := range renderSlots {
			setSlot(item, key, it, i)
		}
	case map[string]any:
		for short, long := range renderShortKeys {
			copyKey(item, long, it, short)
		}
	}
	return item
}

// normalizeFlow expands [start, [[from, [[event, target], ...]], ...]] or
// the legacy {s, t} form. The positional form always yields a transitions
// object, possibly empty.
func normalizeFlow(v any) map[string]any {
	switch f := v.(type) {
	case []any:
		flow := map[string]any{}
		setSlot(flow, "start", f, 0)
		transitions := map[string]any{}
		if len(f) > 1 {
			if entries, ok := f[1].([]any); ok {
				for _, entry := range entries {
					pair, ok := entry.([]any)
					if !ok || len(pair) == 0 {
						continue
					}
					from, ok := pair[0].(string)
					if !ok {
						continue
					}
					events := map[string]any{}
					if len(pair) > 1 {
						if list, ok := pair[1].([]any); ok {
							for _, ev := range list {
								evPair, ok := ev.([]any)
								if !ok || len(evPair) < 2 {
									continue
								}
								event, ok := evPair[0].(string)
								if !ok || evPair[1] == nil {
									continue
								}
								events[event] = evPair[1]
							}
						}
					}
					transitions[from] = events
				}
			}
		}
		flow["transitions"] = transitions
		return flow
	case map[string]any:
		flow := map[string]any{}
		copyKey(flow, "start", f, "s")
		copyKey(flow, "transitions", f, "t")
		return flow
	default:
		return nil
	}
}

// normalizeLayout expands [[view, [padding, spacing, align, background]]]
// or a view -> tuple object.
func normalizeLayout(v any) map[string]any {
	switch l := v.(type) {
	case []any:
		layout := map[string]any{}
		for _, entry := range l {
			pair, ok := entry.([]any)
			if !ok || len(pair) == 0 {
				continue
			}
			name, ok := pair[0].(string)
			if !ok {
				continue
			}
			var val any
			if len(pair) > 1 {
				val = pair[1]
			}
			layout[name] = normalizeLayoutEntry(val)
		}
		return layout
	case map[string]any:
		layout := map[string]any{}
		for name, val := range l {
			layout[name] = normalizeLayoutEntry(val)
		}
		return layout
	default:
		return nil
	}
}

func normalizeLayoutEntry(v any) map[string]any {
	entry := map[string]any{}
	switch l := v.(type) {
	case []any:
		for i, key := range layoutSlots {
			setSlot(entry, key, l, i)
		}
	case map[string]any:
		for _, key := range layoutSlots {
			copyKey(entry, key, l, key)
		}
	}
	return entry
}

func setSlot(dst map[string]any, key string, tuple []any, idx int) {
	if idx < len(tuple) && tuple[idx] != nil {
		dst[key] = tuple[idx]
	}
}

func copyKey(dst map[string]any, dstKey string, src map[string]any, srcKey string) {
	if val, ok := src[srcKey]; ok && val != nil {
		dst[dstKey] = val
	}
}
