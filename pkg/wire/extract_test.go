package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONPlain(t *testing.T) {
	out, err := ExtractJSON(`{"type": "cli-ir"}`)
	require.NoError(t, err)
	assert.Equal(t, `{"type": "cli-ir"}`, out)
}

func TestExtractJSONStripsFences(t *testing.T) {
	out, err := ExtractJSON("```json\n{\"type\": \"cli-ir\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, `{"type": "cli-ir"}`, out)

	out, err = ExtractJSON("```\n{\"a\": 1}\n```")
	require.NoError(t, err)
	assert.Equal(t, `{"a": 1}`, out)
}

func TestExtractJSONIgnoresSurroundingProse(t *testing.T) {
	out, err := ExtractJSON("Here is the target IR you asked for:\n\n{\"type\": \"cli-ir\", \"views\": {}}\n\nLet me know if it works.")
	require.NoError(t, err)
	assert.Equal(t, `{"type": "cli-ir", "views": {}}`, out)
}

func TestExtractJSONTakesOutermostBraces(t *testing.T) {
	out, err := ExtractJSON(`prefix {"outer": {"inner": 1}} suffix`)
	require.NoError(t, err)
	assert.Equal(t, `{"outer": {"inner": 1}}`, out)
}

func TestExtractJSONNoObject(t *testing.T) {
	_, err := ExtractJSON("I could not produce the IR, sorry.")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no JSON object found in response")

	_, err = ExtractJSON("")
	require.Error(t, err)
}

func TestParseObject(t *testing.T) {
	v, err := ParseObject("```json\n{\"t\": \"cli-ir\", \"v\": 1}\n```")
	require.NoError(t, err)
	assert.Equal(t, "cli-ir", v["t"])

	_, err = ParseObject("{not valid json}")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse JSON response")
}
