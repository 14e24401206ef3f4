package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
)

type LLMProvider string

const (
	ProviderOpenAI LLMProvider = "openai"
	ProviderYandex LLMProvider = "yandex"
)

// ErrMissingAPIKey means no completion-service credential could be resolved.
// Chat is unavailable; login and registration keep working.
var ErrMissingAPIKey = errors.New("no API key configured for the AI service")

type Config struct {
	// LLM settings
	LLMProvider      LLMProvider `env:"LLM_PROVIDER" envDefault:"openai"`
	OpenAIAPIKey     string      `env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string      `env:"OPENAI_BASE_URL"`
	OpenAIModel      string      `env:"OPENAI_MODEL" envDefault:"gpt-3.5-turbo"`
	YandexOAuthToken string      `env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID   string      `env:"YANDEX_FOLDER_ID"`

	// OpenRouter (optional)
	OpenRouterReferrer string `env:"OPENROUTER_REFERRER"`
	OpenRouterTitle    string `env:"OPENROUTER_TITLE"`

	// Generation
	Temperature    float32       `env:"LLM_TEMPERATURE" envDefault:"0.7"`
	MaxTokens      int           `env:"LLM_MAX_TOKENS" envDefault:"500"`
	RequestTimeout time.Duration `env:"LLM_TIMEOUT" envDefault:"60s"`

	// Prompts
	SystemPromptPath string `env:"SYSTEM_PROMPT_PATH"`

	// Storage
	CredentialsFilePath string `env:"CREDENTIALS_FILE_PATH" envDefault:"data/users.json"`
	PasswordHash        string `env:"PASSWORD_HASH" envDefault:"sha256"`
	SecretsFilePath     string `env:"SECRETS_FILE" envDefault:".assistant/secrets.toml"`
	LogFilePath         string `env:"LOG_FILE_PATH" envDefault:"data/log.jsonl"`

	// Application log (zap); "stderr" writes to the terminal.
	AppLogPath string `env:"APP_LOG_PATH" envDefault:"logs/assistant.log"`

	Debug bool `env:"DEBUG"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.LLMProvider = LLMProvider(strings.ToLower(strings.TrimSpace(string(cfg.LLMProvider))))
	if cfg.MaxTokens <= 0 {
		return nil, fmt.Errorf("LLM_MAX_TOKENS must be positive, got %d", cfg.MaxTokens)
	}
	if cfg.RequestTimeout <= 0 {
		return nil, fmt.Errorf("LLM_TIMEOUT must be positive, got %s", cfg.RequestTimeout)
	}
	return cfg, nil
}

// ResolveAPIKey settles the completion-service credential: the secrets file
// wins over the environment. It fails with ErrMissingAPIKey when the selected
// provider has nothing usable.
func (c *Config) ResolveAPIKey(secretKey string) error {
	switch c.LLMProvider {
	case ProviderOpenAI:
		if k := strings.TrimSpace(secretKey); k != "" {
			c.OpenAIAPIKey = k
			return nil
		}
		c.OpenAIAPIKey = strings.TrimSpace(c.OpenAIAPIKey)
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("%w: set [openai].api_key in secrets or OPENAI_API_KEY", ErrMissingAPIKey)
		}
		return nil
	case ProviderYandex:
		if strings.TrimSpace(c.YandexOAuthToken) == "" || strings.TrimSpace(c.YandexFolderID) == "" {
			return fmt.Errorf("%w: set YANDEX_OAUTH_TOKEN and YANDEX_FOLDER_ID", ErrMissingAPIKey)
		}
		return nil
	default:
		return fmt.Errorf("unknown llm provider: %s", c.LLMProvider)
	}
}
