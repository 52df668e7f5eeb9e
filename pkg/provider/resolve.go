package provider

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"sculpt/pkg/config"
)

// Provider names accepted by --provider and sculpt.config.json.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderOllama    = "ollama"
	ProviderStub      = "stub"
)

// Default models, used when neither flag nor config names one.
const (
	DefaultOpenAIModel    = "gpt-4.1"
	DefaultAnthropicModel = "claude-sonnet-4-20250514"
	DefaultGeminiModel    = "gemini-2.5-pro"
	DefaultOllamaModel    = "llama3.2"
)

// Credential environment variables. Environment wins over config file values
// and the encrypted store.
const (
	OpenAIKeyEnv    = "OPENAI_API_KEY"
	AnthropicKeyEnv = "ANTHROPIC_API_KEY"
	GeminiKeyEnv    = "GEMINI_API_KEY"
	OllamaHostEnv   = "OLLAMA_HOST"
)

// Resolver turns flags, config and credentials into a concrete client. The
// convergence controller re-resolves per attempt, so a credential exported
// mid-run is picked up without restarting.
type Resolver struct {
	// Config is the loaded project configuration, may be nil.
	Config *config.Config
	// Secrets holds decrypted store entries keyed by provider name, may
	// be nil.
	Secrets map[string]string
	// Provider is the --provider override, empty to use config/detection.
	Provider string
	// Model is the --model override, empty to use config/default.
	Model string
	// Strict turns a missing credential into an error instead of a stub
	// fallback.
	Strict bool
	// Warn receives fallback warnings. Defaults to os.Stderr.
	Warn io.Writer
}

// Resolve selects the provider and builds a raw client for it.
func (r *Resolver) Resolve() (Client, Info, error) {
	name := r.Provider
	if name == "" && r.Config != nil {
		name = r.Config.Provider
	}
	if name == "" {
		name = r.detect()
	}
	if name == "" {
		return nil, Info{}, errors.New("Provider required. Use --provider or set in sculpt.config.json")
	}

	switch strings.ToLower(strings.TrimSpace(name)) {
	case ProviderOpenAI:
		return r.hosted(ProviderOpenAI, "OpenAI", OpenAIKeyEnv, DefaultOpenAIModel, NewOpenAIClient)
	case ProviderAnthropic:
		return r.hosted(ProviderAnthropic, "Anthropic", AnthropicKeyEnv, DefaultAnthropicModel, NewAnthropicClient)
	case ProviderGemini:
		return r.hosted(ProviderGemini, "Gemini", GeminiKeyEnv, DefaultGeminiModel, NewGeminiClient)
	case ProviderOllama:
		return r.ollama()
	case ProviderStub:
		return NewStubClient(), Info{Name: ProviderStub, Model: "stub"}, nil
	default:
		return nil, Info{}, fmt.Errorf("Unknown AI provider: %s", name)
	}
}

// hosted resolves a key-bearing provider. Credential precedence is
// environment, then config file, then the encrypted store.
func (r *Resolver) hosted(name, display, keyEnv, defaultModel string, build func(apiKey, model string) Client) (Client, Info, error) {
	settings := r.settings(name)

	key := os.Getenv(keyEnv)
	if key == "" && settings != nil {
		key = settings.APIKey
	}
	if key == "" {
		key = r.Secrets[name]
	}

	model := r.Model
	if model == "" && settings != nil {
		model = settings.Model
	}
	if model == "" {
		model = defaultModel
	}

	if key == "" {
		if r.Strict {
			return nil, Info{}, fmt.Errorf("%s provider selected but no API key provided", display)
		}
		fmt.Fprintf(r.warn(), "Warning: %s provider selected but no API key found. Falling back to stub.\n", display)
		return NewStubClient(), Info{Name: ProviderStub, Model: "stub"}, nil
	}
	return build(key, model), Info{Name: name, Model: model}, nil
}

func (r *Resolver) ollama() (Client, Info, error) {
	var settings *config.OllamaSettings
	if r.Config != nil {
		settings = r.Config.Ollama
	}

	host := os.Getenv(OllamaHostEnv)
	if host == "" && settings != nil {
		host = settings.Host
	}
	if host == "" {
		host = DefaultOllamaHost
	}

	model := r.Model
	if model == "" && settings != nil {
		model = settings.Model
	}
	if model == "" {
		model = DefaultOllamaModel
	}
	return NewOllamaClient(host, model), Info{Name: ProviderOllama, Model: model}, nil
}

// detect picks a provider from available credentials when neither flag nor
// config names one. Hosted providers are tried in a fixed order; a local
// Ollama is chosen only when its host is explicitly set somewhere.
func (r *Resolver) detect() string {
	hosted := []struct {
		name string
		env  string
	}{
		{ProviderOpenAI, OpenAIKeyEnv},
		{ProviderAnthropic, AnthropicKeyEnv},
		{ProviderGemini, GeminiKeyEnv},
	}
	for _, h := range hosted {
		if os.Getenv(h.env) != "" {
			return h.name
		}
		if s := r.settings(h.name); s != nil && s.APIKey != "" {
			return h.name
		}
		if r.Secrets[h.name] != "" {
			return h.name
		}
	}
	if os.Getenv(OllamaHostEnv) != "" {
		return ProviderOllama
	}
	if r.Config != nil && r.Config.Ollama != nil && r.Config.Ollama.Host != "" {
		return ProviderOllama
	}
	return ""
}

func (r *Resolver) settings(name string) *config.ProviderSettings {
	if r.Config == nil {
		return nil
	}
	switch name {
	case ProviderOpenAI:
		return r.Config.OpenAI
	case ProviderAnthropic:
		return r.Config.Anthropic
	case ProviderGemini:
		return r.Config.Gemini
	default:
		return nil
	}
}

func (r *Resolver) warn() io.Writer {
	if r.Warn != nil {
		return r.Warn
	}
	return os.Stderr
}
