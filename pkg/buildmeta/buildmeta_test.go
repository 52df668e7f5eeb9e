package buildmeta

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistDirFor(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"examples/getting-started/hello_world.sculpt", filepath.Join("dist", "hello_world")},
		{"app.sculpt.json", filepath.Join("dist", "app")},
		{"nested/dir/game.sculpt", filepath.Join("dist", "game")},
		{"noext", filepath.Join("dist", "noext")},
		{"", filepath.Join("dist", "sculpt")},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, DistDirFor(tc.input), "input %q", tc.input)
	}
}

func TestMetaPath(t *testing.T) {
	assert.Equal(t, filepath.Join("dist", "app", FileName), MetaPath(filepath.Join("dist", "app")))
}

func TestWriteAndRead(t *testing.T) {
	fs := afero.NewMemMapFs()
	dir := filepath.Join("dist", "hello_world")

	rec := &Record{
		Version:         Version,
		Script:          "examples/getting-started/hello_world.sculpt",
		Action:          "build",
		Target:          "cli",
		Provider:        "gemini",
		Model:           "gemini-2.5-pro",
		LLMMillis:       Millis(1200 * time.Millisecond),
		BuildMillis:     Millis(500 * time.Millisecond),
		TotalMillis:     1900,
		TimestampUnixMS: 123456,
		Status:          "ok",
		TokenUsage:      NewTokenUsage(100, 200, 300),
	}
	require.NoError(t, Write(fs, dir, rec))

	exists, err := afero.Exists(fs, MetaPath(dir))
	require.NoError(t, err)
	assert.True(t, exists)

	data, err := afero.ReadFile(fs, MetaPath(dir))
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"version\": 1,", "metadata is pretty-printed")

	loaded := Read(fs, dir)
	require.NotNil(t, loaded)
	assert.Equal(t, rec.Script, loaded.Script)
	assert.Equal(t, "build", loaded.Action)
	assert.Equal(t, "cli", loaded.Target)
	assert.Equal(t, "gemini", loaded.Provider)
	assert.Equal(t, "gemini-2.5-pro", loaded.Model)
	require.NotNil(t, loaded.LLMMillis)
	assert.Equal(t, int64(1200), *loaded.LLMMillis)
	require.NotNil(t, loaded.BuildMillis)
	assert.Equal(t, int64(500), *loaded.BuildMillis)
	assert.Nil(t, loaded.RunMillis)
	assert.Equal(t, int64(1900), loaded.TotalMillis)
	require.NotNil(t, loaded.TokenUsage)
	require.NotNil(t, loaded.TokenUsage.TotalTokens)
	assert.Equal(t, int64(300), *loaded.TokenUsage.TotalTokens)
}

func TestWriteOmitsUnmeasuredFields(t *testing.T) {
	fs := afero.NewMemMapFs()
	dir := filepath.Join("dist", "bare")

	require.NoError(t, Write(fs, dir, &Record{
		Version:         Version,
		Script:          "bare.sculpt",
		Action:          "replay",
		Target:          "cli",
		TotalMillis:     12,
		TimestampUnixMS: NowUnixMS(),
		Status:          "ok",
	}))

	data, err := afero.ReadFile(fs, MetaPath(dir))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "llm_ms")
	assert.NotContains(t, string(data), "token_usage")
	assert.NotContains(t, string(data), "provider")
}

func TestReadToleratesMissingAndMalformed(t *testing.T) {
	fs := afero.NewMemMapFs()
	dir := filepath.Join("dist", "ghost")

	assert.Nil(t, Read(fs, dir))

	require.NoError(t, fs.MkdirAll(dir, 0o755))
	require.NoError(t, afero.WriteFile(fs, MetaPath(dir), []byte("{not json"), 0o644))
	assert.Nil(t, Read(fs, dir))
}

func TestMillis(t *testing.T) {
	got := Millis(2500 * time.Millisecond)
	require.NotNil(t, got)
	assert.Equal(t, int64(2500), *got)
}
