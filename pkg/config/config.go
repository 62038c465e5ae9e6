package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	GoogleAPIKey    string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	DeepSeekAPIKey  string
	Assistant       *AssistantConfig
	ConfigDir       string
}

// Load reads the assistant file and API keys. An empty path selects
// ~/.erpassist/assistant.yaml and falls back to defaults when it does not
// exist. Environment variables take precedence over the api_keys block; a
// .env file in the working directory is loaded first when present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	assistant, err := loadAssistant(path, configDir)
	if err != nil {
		return nil, err
	}

	keys := assistant.APIKeys
	return &Config{
		GoogleAPIKey:    firstNonEmpty(firstEnv("GOOGLE_API_KEY", "GEMINI_KEY", "GEMINI_API_KEY"), keys.Google),
		OpenAIAPIKey:    firstNonEmpty(os.Getenv("OPENAI_API_KEY"), keys.OpenAI),
		AnthropicAPIKey: firstNonEmpty(os.Getenv("ANTHROPIC_API_KEY"), keys.Anthropic),
		DeepSeekAPIKey:  firstNonEmpty(os.Getenv("DEEPSEEK_API_KEY"), keys.DeepSeek),
		Assistant:       assistant,
		ConfigDir:       configDir,
	}, nil
}

func loadAssistant(path, configDir string) (*AssistantConfig, error) {
	if path == "" {
		path = filepath.Join(configDir, "assistant.yaml")
		if _, err := os.Stat(path); err != nil {
			return DefaultAssistantConfig(), nil
		}
	}
	assistant, err := LoadAssistantConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load assistant config from %s: %w", path, err)
	}
	return assistant, nil
}

// MissingKeys returns the adapters used by a model role that have no API key.
func (c *Config) MissingKeys() []string {
	var missing []string
	for _, name := range c.Assistant.Adapters() {
		if !c.HasAdapter(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

// HasAdapter returns true if the API key for the given adapter is configured.
func (c *Config) HasAdapter(name string) bool {
	switch name {
	case "anthropic":
		return c.AnthropicAPIKey != ""
	case "openai":
		return c.OpenAIAPIKey != ""
	case "google":
		return c.GoogleAPIKey != ""
	case "deepseek":
		return c.DeepSeekAPIKey != ""
	case "mock":
		return true
	default:
		return false
	}
}

// firstEnv returns the first non-empty environment variable among names.
func firstEnv(names ...string) string {
	for _, name := range names {
		if val := os.Getenv(name); val != "" {
			return val
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func getConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".erpassist"), nil
}
