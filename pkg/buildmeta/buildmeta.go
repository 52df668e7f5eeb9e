// Package buildmeta records what each compile produced: the input, the
// target, the provider and model that generated the IR, timings, and token
// usage. A build.meta.json lands in every dist directory, and each record is
// also appended to a local SQLite history database for `sculpt history`.
// Everything here is observability; no compile step reads it back.
package buildmeta

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// Version is the metadata format version.
const Version = 1

// FileName is the metadata artifact written into each dist directory.
const FileName = "build.meta.json"

// TokenUsage carries provider-reported token counts. Fields stay unset when
// the provider reported nothing.
type TokenUsage struct {
	InputTokens  *int64 `json:"input_tokens,omitempty"`
	OutputTokens *int64 `json:"output_tokens,omitempty"`
	TotalTokens  *int64 `json:"total_tokens,omitempty"`
}

// NewTokenUsage builds a usage record from raw counts.
func NewTokenUsage(input, output, total int64) *TokenUsage {
	return &TokenUsage{
		InputTokens:  &input,
		OutputTokens: &output,
		TotalTokens:  &total,
	}
}

// Record is the metadata of one compile. Optional timings are pointers so
// "not measured" survives the round trip; an action that never called a
// provider has no llm_ms at all, not a zero one.
type Record struct {
	Version         int         `json:"version"`
	Script          string      `json:"script"`
	Action          string      `json:"action"`
	Target          string      `json:"target"`
	Provider        string      `json:"provider,omitempty"`
	Model           string      `json:"model,omitempty"`
	LLMMillis       *int64      `json:"llm_ms,omitempty"`
	BuildMillis     *int64      `json:"build_ms,omitempty"`
	RunMillis       *int64      `json:"run_ms,omitempty"`
	TotalMillis     int64       `json:"total_ms"`
	TimestampUnixMS int64       `json:"timestamp_unix_ms"`
	Status          string      `json:"status"`
	TokenUsage      *TokenUsage `json:"token_usage,omitempty"`
}

// Millis converts an elapsed duration into the pointer form Record wants.
func Millis(d time.Duration) *int64 {
	ms := d.Milliseconds()
	return &ms
}

// NowUnixMS returns the current wall clock in Unix milliseconds.
func NowUnixMS() int64 {
	return time.Now().UnixMilli()
}

// DistDirFor maps an input file to its output directory under dist/. A
// ".sculpt.json" input keeps its full stem ("app.sculpt.json" builds into
// dist/app); anything else drops only the final extension.
func DistDirFor(input string) string {
	name := filepath.Base(input)
	if base, ok := strings.CutSuffix(name, ".sculpt.json"); ok && base != "" {
		return filepath.Join("dist", base)
	}
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	if stem == "" || stem == "." || stem == string(filepath.Separator) {
		stem = "sculpt"
	}
	return filepath.Join("dist", stem)
}

// MetaPath returns where the metadata file lives inside a dist directory.
func MetaPath(distDir string) string {
	return filepath.Join(distDir, FileName)
}

// Write persists the record as pretty-printed JSON, creating the dist
// directory if needed.
func Write(fs afero.Fs, distDir string, rec *Record) error {
	if err := fs.MkdirAll(distDir, 0o755); err != nil {
		return fmt.Errorf("create dist directory %s: %w", distDir, err)
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode build metadata: %w", err)
	}
	data = append(data, '\n')
	if err := afero.WriteFile(fs, MetaPath(distDir), data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", FileName, err)
	}
	return nil
}

// Read loads the metadata of a previous compile. Missing or malformed files
// return nil; stale metadata is never worth failing a build over.
func Read(fs afero.Fs, distDir string) *Record {
	data, err := afero.ReadFile(fs, MetaPath(distDir))
	if err != nil {
		return nil
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil
	}
	return &rec
}
