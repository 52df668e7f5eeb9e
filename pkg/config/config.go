// Package config loads project configuration and the encrypted credential
// store. Configuration is always optional: a missing or malformed
// sculpt.config.json yields defaults, and environment variables win over
// file values wherever credentials are resolved.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// FileName is the project configuration file, looked up in the project root.
const FileName = "sculpt.config.json"

// DefaultTimeout bounds one generation call when timeout_seconds is unset.
// Generous on purpose: a slow attempt is still cheaper than a wasted one.
const DefaultTimeout = 120 * time.Second

// ProviderSettings configures one hosted generation provider.
type ProviderSettings struct {
	APIKey string `json:"api_key,omitempty"`
	Model  string `json:"model,omitempty"`
}

// OllamaSettings configures a local Ollama runtime. No credential involved.
type OllamaSettings struct {
	Host  string `json:"host,omitempty"`
	Model string `json:"model,omitempty"`
}

// Config is the parsed sculpt.config.json. Every field is optional.
type Config struct {
	Target         string            `json:"target,omitempty"`
	Provider       string            `json:"provider,omitempty"`
	Strict         bool              `json:"strict,omitempty"`
	TimeoutSeconds int               `json:"timeout_seconds,omitempty"`
	HistoryDB      string            `json:"history_db,omitempty"`
	OpenAI         *ProviderSettings `json:"openai,omitempty"`
	Anthropic      *ProviderSettings `json:"anthropic,omitempty"`
	Gemini         *ProviderSettings `json:"gemini,omitempty"`
	Ollama         *OllamaSettings   `json:"ollama,omitempty"`
}

// Load reads the configuration from dir. A missing or unreadable file is not
// an error, and a malformed one falls back to defaults rather than failing a
// build over a config typo.
func Load(dir string) *Config {
	cfg := &Config{}
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		return cfg
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return &Config{}
	}
	return cfg
}

// Timeout returns the per-call generation deadline.
func (c *Config) Timeout() time.Duration {
	if c.TimeoutSeconds > 0 {
		return time.Duration(c.TimeoutSeconds) * time.Second
	}
	return DefaultTimeout
}
