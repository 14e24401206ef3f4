package config

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetEnv clears keys for the duration of the test; t.Setenv restores them.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

var configKeys = []string{
	"LLM_PROVIDER", "OPENAI_MODEL", "LLM_TEMPERATURE", "LLM_MAX_TOKENS", "LLM_TIMEOUT",
	"CREDENTIALS_FILE_PATH", "PASSWORD_HASH", "SECRETS_FILE", "LOG_FILE_PATH", "DEBUG",
}

func TestLoad_Defaults(t *testing.T) {
	unsetEnv(t, configKeys...)
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ProviderOpenAI, cfg.LLMProvider)
	assert.Equal(t, "gpt-3.5-turbo", cfg.OpenAIModel)
	assert.InDelta(t, 0.7, cfg.Temperature, 1e-6)
	assert.Equal(t, 500, cfg.MaxTokens)
	assert.Equal(t, 60*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "data/users.json", cfg.CredentialsFilePath)
	assert.Equal(t, "sha256", cfg.PasswordHash)
}

func TestLoad_Overrides(t *testing.T) {
	unsetEnv(t, configKeys...)
	t.Setenv("LLM_PROVIDER", " Yandex ")
	t.Setenv("LLM_MAX_TOKENS", "42")
	t.Setenv("LLM_TIMEOUT", "5s")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ProviderYandex, cfg.LLMProvider)
	assert.Equal(t, 42, cfg.MaxTokens)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
}

func TestLoad_RejectsBadValues(t *testing.T) {
	unsetEnv(t, configKeys...)
	t.Setenv("LLM_MAX_TOKENS", "0")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("LLM_MAX_TOKENS", "abc")
	_, err = Load()
	assert.Error(t, err)
}

func TestResolveAPIKey(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		secret  string
		wantKey string
		wantErr bool
	}{
		{name: "secret wins", cfg: Config{LLMProvider: ProviderOpenAI, OpenAIAPIKey: "env"}, secret: "sec", wantKey: "sec"},
		{name: "env fallback", cfg: Config{LLMProvider: ProviderOpenAI, OpenAIAPIKey: " env "}, secret: "  ", wantKey: "env"},
		{name: "missing", cfg: Config{LLMProvider: ProviderOpenAI}, wantErr: true},
		{name: "yandex ok", cfg: Config{LLMProvider: ProviderYandex, YandexOAuthToken: "t", YandexFolderID: "f"}},
		{name: "yandex missing folder", cfg: Config{LLMProvider: ProviderYandex, YandexOAuthToken: "t"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			err := cfg.ResolveAPIKey(tt.secret)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrMissingAPIKey))
				return
			}
			require.NoError(t, err)
			if tt.wantKey != "" {
				assert.Equal(t, tt.wantKey, cfg.OpenAIAPIKey)
			}
		})
	}

	cfg := Config{LLMProvider: "other"}
	err := cfg.ResolveAPIKey("x")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrMissingAPIKey))
}
