package wire

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDecode(t *testing.T, s string) map[string]any {
	t.Helper()
	var v map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func TestNormalizeCliPositional(t *testing.T) {
	input := mustDecode(t, `{
		"t": "cli-ir",
		"v": 1,
		"u": [
			["Show", [
				["text", "Hallo", "yellow", null, null, null, "title"],
				["text", "Welt", "blue", null, null, null, null]
			]]
		],
		"f": ["Show", [["Show", []]]]
	}`)

	out := Normalize("cli-ir", input)

	assert.Equal(t, "cli-ir", out["type"])
	assert.Equal(t, float64(1), out["version"])

	views := out["views"].(map[string]any)
	show := views["Show"].([]any)
	require.Len(t, show, 2)

	first := show[0].(map[string]any)
	assert.Equal(t, "text", first["kind"])
	assert.Equal(t, "Hallo", first["text"])
	assert.Equal(t, "yellow", first["color"])
	assert.Equal(t, "title", first["style"])
	_, hasX := first["x"]
	assert.False(t, hasX, "null slot must stay absent")

	second := show[1].(map[string]any)
	assert.Equal(t, "Welt", second["text"])
	_, hasStyle := second["style"]
	assert.False(t, hasStyle)

	flow := out["flow"].(map[string]any)
	assert.Equal(t, "Show", flow["start"])
	transitions := flow["transitions"].(map[string]any)
	assert.Empty(t, transitions["Show"].(map[string]any))
}

func TestNormalizeGuiPositionalWithWindow(t *testing.T) {
	input := mustDecode(t, `{
		"t": "gui-ir",
		"v": 1,
		"w": ["NativeWindow", 400, 150],
		"u": [
			["Main", [
				["text", "SCULPT Native Demo", "yellow", 10, 20, null, "title"],
				["button", "Open OK", null, 10, 80, "press_ok", null]
			]]
		],
		"f": ["Main", [["Main", []]]]
	}`)

	out := Normalize("gui-ir", input)

	window := out["window"].(map[string]any)
	assert.Equal(t, "NativeWindow", window["title"])
	assert.Equal(t, float64(400), window["width"])
	assert.Equal(t, float64(150), window["height"])

	views := out["views"].(map[string]any)
	main := views["Main"].([]any)
	require.Len(t, main, 2)
	button := main[1].(map[string]any)
	assert.Equal(t, "button", button["kind"])
	assert.Equal(t, "press_ok", button["action"])
	assert.Equal(t, float64(80), button["y"])
}

func TestNormalizeLayoutTokens(t *testing.T) {
	input := mustDecode(t, `{
		"t": "gui-ir",
		"v": 1,
		"u": [["Main", [["text", "Title", "yellow", null, null, null, "title"]]]],
		"f": ["Main", [["Main", []]]],
		"l": [["Main", [24, 16, "leading", "window"]]]
	}`)

	out := Normalize("gui-ir", input)

	layout := out["layout"].(map[string]any)
	main := layout["Main"].(map[string]any)
	assert.Equal(t, float64(24), main["padding"])
	assert.Equal(t, float64(16), main["spacing"])
	assert.Equal(t, "leading", main["align"])
	assert.Equal(t, "window", main["background"])
}

func TestNormalizePartialLayoutTuple(t *testing.T) {
	input := mustDecode(t, `{
		"u": [["Main", []]],
		"f": ["Main", []],
		"l": [["Main", [null, 8]]]
	}`)

	out := Normalize("gui-ir", input)

	main := out["layout"].(map[string]any)["Main"].(map[string]any)
	assert.Equal(t, float64(8), main["spacing"])
	_, hasPadding := main["padding"]
	assert.False(t, hasPadding)
	_, hasAlign := main["align"]
	assert.False(t, hasAlign)
}

func TestNormalizeFlowTransitions(t *testing.T) {
	input := mustDecode(t, `{
		"u": [],
		"f": ["Title", [
			["Title", [["key(enter)", "Play"], ["key(q)", "Exit"]]],
			["Play", [["tick", "Play"]]]
		]]
	}`)

	out := Normalize("cli-ir", input)

	flow := out["flow"].(map[string]any)
	transitions := flow["transitions"].(map[string]any)
	title := transitions["Title"].(map[string]any)
	assert.Equal(t, "Play", title["key(enter)"])
	assert.Equal(t, "Exit", title["key(q)"])
	play := transitions["Play"].(map[string]any)
	assert.Equal(t, "Play", play["tick"])
}

func TestNormalizeLegacyObjectForms(t *testing.T) {
	input := mustDecode(t, `{
		"v": 2,
		"s": {"score": 0},
		"x": {"theme": "dark"},
		"w": {"t": "Legacy", "w": 300, "h": 120},
		"u": {"Main": [{"k": "text", "t": "Hi", "c": "green", "x": 1, "y": 2, "a": "go"}]},
		"f": {"s": "Main", "t": {"Main": {"go": "Done"}}}
	}`)

	out := Normalize("gui-ir", input)

	assert.Equal(t, "gui-ir", out["type"])
	assert.Equal(t, float64(2), out["version"])
	assert.Equal(t, float64(0), out["state"].(map[string]any)["score"])
	assert.Equal(t, "dark", out["extensions"].(map[string]any)["theme"])

	window := out["window"].(map[string]any)
	assert.Equal(t, "Legacy", window["title"])
	assert.Equal(t, float64(300), window["width"])

	item := out["views"].(map[string]any)["Main"].([]any)[0].(map[string]any)
	assert.Equal(t, "text", item["kind"])
	assert.Equal(t, "Hi", item["text"])
	assert.Equal(t, "green", item["color"])
	assert.Equal(t, float64(1), item["x"])
	assert.Equal(t, "go", item["action"])

	flow := out["flow"].(map[string]any)
	assert.Equal(t, "Main", flow["start"])
	assert.Equal(t, "Done", flow["transitions"].(map[string]any)["Main"].(map[string]any)["go"])
}

func TestNormalizePassthroughWhenTyped(t *testing.T) {
	input := mustDecode(t, `{"type": "cli-ir", "version": 1, "views": {}, "flow": {"start": "A", "transitions": {}}}`)

	out := Normalize("cli-ir", input)
	assert.Equal(t, input, out)

	// Idempotence: normalizing a normalized value changes nothing.
	again := Normalize("cli-ir", out)
	assert.Equal(t, out, again)
}

func TestNormalizeDefaultsVersion(t *testing.T) {
	out := Normalize("cli-ir", mustDecode(t, `{"u": [], "f": ["A", []]}`))
	assert.Equal(t, 1, out["version"])
}

func TestNormalizeDropsEmptyItems(t *testing.T) {
	input := mustDecode(t, `{
		"u": [["Main", [[null, null], {"zz": 1}, ["text", "kept"]]]],
		"f": ["Main", []]
	}`)

	out := Normalize("cli-ir", input)
	main := out["views"].(map[string]any)["Main"].([]any)
	require.Len(t, main, 1)
	assert.Equal(t, "kept", main[0].(map[string]any)["text"])
}

func TestNormalizeSkipsMalformedEntries(t *testing.T) {
	input := mustDecode(t, `{
		"u": [42, ["Good", []], [7, []]],
		"f": ["Start", [3, ["Good", "notalist"]]]
	}`)

	out := Normalize("cli-ir", input)

	views := out["views"].(map[string]any)
	require.Len(t, views, 1)
	assert.Contains(t, views, "Good")

	transitions := out["flow"].(map[string]any)["transitions"].(map[string]any)
	assert.Empty(t, transitions["Good"].(map[string]any))
}
