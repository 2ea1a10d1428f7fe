package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chatflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := LoadWithEnv("", env(nil))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeFile(t, `
provider: openai
model: gpt-4o-mini
system_prompt: You are a helpful assistant.
max_steps: 10
store:
  kind: redis
  redis:
    addr: redis:6379
    ttl: 1h
metrics:
  enabled: false
`)
	cfg, err := LoadWithEnv(path, env(map[string]string{
		"CHATFLOW_MAX_STEPS": "7",
		"CHATFLOW_REDIS_DB":  "2",
		"CHATFLOW_HTTP_ADDR": "127.0.0.1:9000",
		"OPENAI_API_KEY":     "sk-test",
		"CHATFLOW_LOG_LEVEL": "debug",
		"UNRELATED_VARIABLE": "ignored",
	}))
	require.NoError(t, err)

	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.Model)
	assert.Equal(t, "You are a helpful assistant.", cfg.SystemPrompt)
	assert.Equal(t, 7, cfg.MaxSteps)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, StoreRedis, cfg.Store.Kind)
	assert.Equal(t, "redis:6379", cfg.Store.Redis.Addr)
	assert.Equal(t, 2, cfg.Store.Redis.DB)
	assert.Equal(t, time.Hour, cfg.Store.Redis.TTL)
	assert.Equal(t, "chatflow:session:", cfg.Store.Redis.Prefix, "unset nested keys keep defaults")
	assert.Equal(t, "127.0.0.1:9000", cfg.HTTP.Addr)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, "sk-test", cfg.APIKey)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Errors(t *testing.T) {
	_, err := LoadWithEnv(filepath.Join(t.TempDir(), "missing.yaml"), env(nil))
	assert.Error(t, err)

	_, err = LoadWithEnv(writeFile(t, "provider: [unterminated"), env(nil))
	assert.Error(t, err)

	_, err = LoadWithEnv(writeFile(t, "unknown_key: 1\n"), env(nil))
	assert.Error(t, err, "unknown keys are rejected")

	_, err = LoadWithEnv("", env(map[string]string{"CHATFLOW_MAX_STEPS": "many"}))
	assert.Error(t, err)
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := LoadWithEnv(writeFile(t, ""), env(nil))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown provider", func(c *Config) { c.Provider = "llama" }},
		{"missing api key", func(c *Config) { c.Provider = ProviderGemini }},
		{"zero budget", func(c *Config) { c.MaxSteps = 0 }},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }},
		{"unknown store", func(c *Config) { c.Store.Kind = "s3" }},
		{"redis without addr", func(c *Config) { c.Store.Kind = StoreRedis; c.Store.Redis.Addr = "" }},
		{"process without command", func(c *Config) { c.Provider = ProviderProcess }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoad_ProcessProvider(t *testing.T) {
	path := writeFile(t, `
provider: process
process:
  command: ollama
  args: [run, llama3]
  env:
    temperature: "0.2"
`)
	cfg, err := LoadWithEnv(path, env(nil))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "ollama", cfg.Process.Command)
	assert.Equal(t, []string{"run", "llama3"}, cfg.Process.Args)
	assert.Equal(t, map[string]string{"temperature": "0.2"}, cfg.Process.Env)
}

func TestLoad_SecretsFromEnvOnly(t *testing.T) {
	cfg, err := LoadWithEnv("", env(map[string]string{
		"CHATFLOW_ENCRYPTION_KEY": "c2VjcmV0",
		"CHATFLOW_PROVIDER":       "openai",
		"OPENAI_API_KEY":          "sk-env",
	}))
	require.NoError(t, err)
	assert.Equal(t, "c2VjcmV0", cfg.Store.EncryptionKey)
	assert.Equal(t, "sk-env", cfg.APIKey)

	path := writeFile(t, "store:\n  encryption_key: inline\n")
	_, err = LoadWithEnv(path, env(nil))
	assert.Error(t, err)
}
