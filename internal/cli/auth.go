package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"sculpt/pkg/config"
	"sculpt/pkg/provider"
)

func newAuthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage provider credentials",
	}
	cmd.AddCommand(newAuthSetCommand())
	cmd.AddCommand(newAuthCheckCommand())
	return cmd
}

func newAuthSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set <provider>",
		Short: "Store a provider API key in the encrypted secret store",
		Long: `Prompt for an API key and store it in ` + config.SecretsFileName + `,
encrypted with a password. The password can also be supplied through
` + config.PasswordEnv + `, which compile commands use to unlock the store.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuthSet(cmd, args[0])
		},
	}
}

func runAuthSet(cmd *cobra.Command, providerName string) error {
	switch providerName {
	case provider.ProviderOpenAI, provider.ProviderAnthropic, provider.ProviderGemini:
	default:
		return fmt.Errorf("Unknown provider: %s", providerName)
	}

	in := bufio.NewReader(cmd.InOrStdin())
	key, err := promptSecret(cmd, in, fmt.Sprintf("Enter API key for %s: ", providerName))
	if err != nil {
		return err
	}
	if key == "" {
		return errors.New("API key must not be empty")
	}

	password := os.Getenv(config.PasswordEnv)
	if password == "" {
		password, err = promptSecret(cmd, in, "Enter secrets password: ")
		if err != nil {
			return err
		}
	}
	if password == "" {
		return errors.New("Password must not be empty")
	}

	secrets := map[string]string{}
	if config.SecretsExist(".") {
		secrets, err = config.LoadSecrets(".", password)
		if err != nil {
			return err
		}
	}
	secrets[providerName] = key
	if err := config.SaveSecrets(".", password, secrets); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Stored %s API key in %s\n", providerName, config.SecretsFileName)
	return nil
}

// promptSecret reads a credential without echoing when stdin is a terminal.
// Piped input falls back to a plain line read so scripts can drive it.
func promptSecret(cmd *cobra.Command, in *bufio.Reader, prompt string) (string, error) {
	out := cmd.OutOrStdout()
	fmt.Fprint(out, prompt)
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		data, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(data)), nil
	}
	line, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func newAuthCheckCommand() *cobra.Command {
	providerName := ""
	verify := false
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check that a provider API key is configured",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuthCheck(cmd, providerName, verify)
		},
	}
	cmd.Flags().StringVar(&providerName, "provider", provider.ProviderOpenAI, "provider to check (openai|anthropic|gemini)")
	cmd.Flags().BoolVar(&verify, "verify", false, "verify the key with a one-token generation call")
	return cmd
}

func runAuthCheck(cmd *cobra.Command, providerName string, verify bool) error {
	cfg := config.Load(".")
	secrets := config.UnlockSecrets(".")

	var display, keyEnv, defaultModel string
	var settings *config.ProviderSettings
	var build func(apiKey, model string) provider.Client
	switch providerName {
	case provider.ProviderOpenAI:
		display, keyEnv, defaultModel = "OpenAI", provider.OpenAIKeyEnv, provider.DefaultOpenAIModel
		settings, build = cfg.OpenAI, provider.NewOpenAIClient
	case provider.ProviderAnthropic:
		display, keyEnv, defaultModel = "Anthropic", provider.AnthropicKeyEnv, provider.DefaultAnthropicModel
		settings, build = cfg.Anthropic, provider.NewAnthropicClient
	case provider.ProviderGemini:
		display, keyEnv, defaultModel = "Gemini", provider.GeminiKeyEnv, provider.DefaultGeminiModel
		settings, build = cfg.Gemini, provider.NewGeminiClient
	default:
		return fmt.Errorf("Unknown provider: %s", providerName)
	}

	key := os.Getenv(keyEnv)
	if key == "" && settings != nil {
		key = settings.APIKey
	}
	if key == "" {
		key = secrets[providerName]
	}
	if key == "" {
		return fmt.Errorf("%s not set and no key in %s or %s", keyEnv, config.FileName, config.SecretsFileName)
	}

	out := cmd.OutOrStdout()
	if !verify {
		fmt.Fprintf(out, "%s provider: API key found\n", display)
		return nil
	}

	model := defaultModel
	if settings != nil && settings.Model != "" {
		model = settings.Model
	}
	_, err := build(key, model).Generate(cmd.Context(), provider.Request{Prompt: "ping", MaxTokens: 1})
	if err != nil {
		return fmt.Errorf("%s auth check failed: %v", display, err)
	}
	fmt.Fprintf(out, "%s provider: API key verified\n", display)
	return nil
}
