package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompactSchemaForUnknownFamily(t *testing.T) {
	assert.Nil(t, CompactSchemaFor("ios-ir"))
	assert.Nil(t, CompactSchemaFor(""))
}

func TestCompactSchemaCli(t *testing.T) {
	schema := CompactSchemaFor("cli-ir")
	require.NotNil(t, schema)

	assert.Equal(t, "cli-ir-llm", schema["title"])
	assert.Equal(t, []any{"t", "v", "u", "f"}, schema["required"])

	props := schema["properties"].(map[string]any)
	assert.Equal(t, "cli-ir", props["t"].(map[string]any)["const"])
	_, hasWindow := props["w"]
	assert.False(t, hasWindow, "cli has no window tuple")
	_, hasLayout := props["l"]
	assert.False(t, hasLayout, "cli has no layout")

	// cli render items only know the text kind.
	items := props["u"].(map[string]any)["items"].(map[string]any)
	itemTuple := items["prefixItems"].([]any)[1].(map[string]any)["items"].(map[string]any)
	kind := itemTuple["prefixItems"].([]any)[0].(map[string]any)
	assert.Equal(t, []any{"text"}, kind["enum"])
}

func TestCompactSchemaGuiAddsWindowLayoutAndButton(t *testing.T) {
	schema := CompactSchemaFor("gui-ir")
	require.NotNil(t, schema)

	props := schema["properties"].(map[string]any)
	require.Contains(t, props, "w")
	require.Contains(t, props, "l")

	window := props["w"].(map[string]any)
	assert.Len(t, window["prefixItems"].([]any), 3)

	items := props["u"].(map[string]any)["items"].(map[string]any)
	itemTuple := items["prefixItems"].([]any)[1].(map[string]any)["items"].(map[string]any)
	kind := itemTuple["prefixItems"].([]any)[0].(map[string]any)
	assert.Equal(t, []any{"text", "button"}, kind["enum"])

	// Render item tuples carry all seven slots.
	assert.Len(t, itemTuple["prefixItems"].([]any), 7)
}

func TestCompactSchemaWebGeneratesTextOnly(t *testing.T) {
	// Buttons reach web IR through the overlay, never through generation,
	// so the web wire schema stays text-only like cli.
	schema := CompactSchemaFor("web-ir")
	require.NotNil(t, schema)

	props := schema["properties"].(map[string]any)
	_, hasWindow := props["w"]
	assert.False(t, hasWindow)

	items := props["u"].(map[string]any)["items"].(map[string]any)
	itemTuple := items["prefixItems"].([]any)[1].(map[string]any)["items"].(map[string]any)
	kind := itemTuple["prefixItems"].([]any)[0].(map[string]any)
	assert.Equal(t, []any{"text"}, kind["enum"])
}
