// Package config loads chatflow settings from a YAML file and CHATFLOW_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aretw0/chatflow/internal/logging"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Provider names.
const (
	ProviderEcho    = "echo"
	ProviderOpenAI  = "openai"
	ProviderGemini  = "gemini"
	ProviderProcess = "process"
)

// Store kinds.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Config is the full application configuration.
type Config struct {
	Provider     string        `mapstructure:"provider" yaml:"provider"`
	Model        string        `mapstructure:"model" yaml:"model"`
	BaseURL      string        `mapstructure:"base_url" yaml:"base_url"`
	SystemPrompt string        `mapstructure:"system_prompt" yaml:"system_prompt"`
	MaxSteps     int           `mapstructure:"max_steps" yaml:"max_steps"`
	LogLevel     string        `mapstructure:"log_level" yaml:"log_level"`
	Store        StoreConfig   `mapstructure:"store" yaml:"store"`
	HTTP         HTTPConfig    `mapstructure:"http" yaml:"http"`
	Metrics      MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
	Process      ProcessConfig `mapstructure:"process" yaml:"process"`

	// APIKey is only read from the provider's environment variable.
	APIKey string `mapstructure:"-" yaml:"-"`
}

// ProcessConfig describes the local command used by the process provider.
type ProcessConfig struct {
	Command string            `mapstructure:"command" yaml:"command"`
	Args    []string          `mapstructure:"args" yaml:"args"`
	Env     map[string]string `mapstructure:"env" yaml:"env"`
}

// StoreConfig selects and configures the session store.
type StoreConfig struct {
	Kind  string      `mapstructure:"kind" yaml:"kind"`
	Dir   string      `mapstructure:"dir" yaml:"dir"`
	Redis RedisConfig `mapstructure:"redis" yaml:"redis"`
	// Redact lists regular expressions masked in messages before they are stored.
	Redact []string `mapstructure:"redact" yaml:"redact"`

	// EncryptionKey is a base64 AES-256 key, read from CHATFLOW_ENCRYPTION_KEY only.
	EncryptionKey string `mapstructure:"-" yaml:"-"`
}

// RedisConfig configures the redis store and locker.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr" yaml:"addr"`
	Password string        `mapstructure:"password" yaml:"password"`
	DB       int           `mapstructure:"db" yaml:"db"`
	Prefix   string        `mapstructure:"prefix" yaml:"prefix"`
	TTL      time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// HTTPConfig configures the serve command.
type HTTPConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// MetricsConfig toggles the Prometheus collectors.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Provider: ProviderEcho,
		MaxSteps: 25,
		LogLevel: "info",
		Store: StoreConfig{
			Kind: StoreFile,
			Dir:  ".chatflow/sessions",
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "chatflow:session:",
			},
		},
		HTTP:    HTTPConfig{Addr: ":8080"},
		Metrics: MetricsConfig{Enabled: true},
	}
}

// envKeys maps environment variables to configuration paths.
var envKeys = map[string]string{
	"CHATFLOW_PROVIDER":        "provider",
	"CHATFLOW_MODEL":           "model",
	"CHATFLOW_BASE_URL":        "base_url",
	"CHATFLOW_SYSTEM_PROMPT":   "system_prompt",
	"CHATFLOW_MAX_STEPS":       "max_steps",
	"CHATFLOW_LOG_LEVEL":       "log_level",
	"CHATFLOW_STORE":           "store.kind",
	"CHATFLOW_STORE_DIR":       "store.dir",
	"CHATFLOW_REDIS_ADDR":      "store.redis.addr",
	"CHATFLOW_REDIS_PASSWORD":  "store.redis.password",
	"CHATFLOW_REDIS_DB":        "store.redis.db",
	"CHATFLOW_REDIS_PREFIX":    "store.redis.prefix",
	"CHATFLOW_REDIS_TTL":       "store.redis.ttl",
	"CHATFLOW_HTTP_ADDR":       "http.addr",
	"CHATFLOW_METRICS":         "metrics.enabled",
	"CHATFLOW_PROCESS_COMMAND": "process.command",
}

// apiKeyEnv names the variable holding each provider's credentials.
var apiKeyEnv = map[string]string{
	ProviderOpenAI: "OPENAI_API_KEY",
	ProviderGemini: "GEMINI_API_KEY",
}

// encryptionKeyEnv holds the session encryption key.
const encryptionKeyEnv = "CHATFLOW_ENCRYPTION_KEY"

// Load reads path (optional when empty) and the process environment.
func Load(path string) (Config, error) {
	return LoadWithEnv(path, os.LookupEnv)
}

// LoadWithEnv is Load with an explicit environment lookup.
// Precedence: environment, then file, then Default.
func LoadWithEnv(path string, lookup func(string) (string, bool)) (Config, error) {
	raw := map[string]any{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if raw == nil {
			raw = map[string]any{}
		}
	}

	for env, key := range envKeys {
		if v, ok := lookup(env); ok {
			setPath(raw, key, v)
		}
	}

	cfg := Default()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return Config{}, err
	}
	if err := decoder.Decode(raw); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	if env, ok := apiKeyEnv[cfg.Provider]; ok {
		cfg.APIKey, _ = lookup(env)
	}
	cfg.Store.EncryptionKey, _ = lookup(encryptionKeyEnv)
	return cfg, nil
}

// setPath stores value under a dotted key, creating nested maps on the way.
func setPath(m map[string]any, key string, value any) {
	parts := strings.Split(key, ".")
	for _, part := range parts[:len(parts)-1] {
		next, ok := m[part].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[part] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = value
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	switch c.Provider {
	case ProviderEcho:
	case ProviderOpenAI, ProviderGemini:
		if c.APIKey == "" {
			errs = append(errs, fmt.Errorf("provider %s requires %s", c.Provider, apiKeyEnv[c.Provider]))
		}
	case ProviderProcess:
		if c.Process.Command == "" {
			errs = append(errs, errors.New("provider process requires process.command"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown provider %q", c.Provider))
	}

	if c.MaxSteps <= 0 {
		errs = append(errs, fmt.Errorf("max_steps must be positive, got %d", c.MaxSteps))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	switch c.Store.Kind {
	case StoreMemory, StoreFile:
	case StoreRedis:
		if c.Store.Redis.Addr == "" {
			errs = append(errs, errors.New("store.redis.addr is required"))
		}
		if c.Store.Redis.TTL < 0 {
			errs = append(errs, errors.New("store.redis.ttl cannot be negative"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store kind %q", c.Store.Kind))
	}

	return errors.Join(errs...)
}
