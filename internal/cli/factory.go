package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/chatflow"
	"github.com/aretw0/chatflow/internal/config"
	"github.com/aretw0/chatflow/pkg/adapters/echo"
	"github.com/aretw0/chatflow/pkg/adapters/file"
	"github.com/aretw0/chatflow/pkg/adapters/gemini"
	"github.com/aretw0/chatflow/pkg/adapters/memory"
	"github.com/aretw0/chatflow/pkg/adapters/openai"
	"github.com/aretw0/chatflow/pkg/adapters/process"
	"github.com/aretw0/chatflow/pkg/adapters/redis"
	"github.com/aretw0/chatflow/pkg/observability"
	"github.com/aretw0/chatflow/pkg/persistence/middleware"
	"github.com/aretw0/chatflow/pkg/ports"
	"google.golang.org/genai"
)

// Stores bundles a session store with its optional lock and cleanup.
type Stores struct {
	Store  ports.StateStore
	Locker ports.DistributedLocker
	Close  func() error
}

// OpenStore creates the session store selected by cfg, wrapped with the
// redaction and encryption middleware it enables.
func OpenStore(cfg config.Config) (Stores, error) {
	mws, err := storeMiddleware(cfg.Store)
	if err != nil {
		return Stores{}, err
	}

	noop := func() error { return nil }
	var stores Stores
	switch cfg.Store.Kind {
	case config.StoreMemory:
		stores = Stores{Store: memory.NewStore(), Close: noop}
	case config.StoreFile:
		stores = Stores{Store: file.New(cfg.Store.Dir), Close: noop}
	case config.StoreRedis:
		r := cfg.Store.Redis
		store := redis.New(r.Addr, r.Password, r.DB,
			redis.WithPrefix(r.Prefix),
			redis.WithTTL(r.TTL),
		)
		stores = Stores{
			Store:  store,
			Locker: redis.NewLocker(store.Client(), r.Prefix+"lock:"),
			Close:  store.Close,
		}
	default:
		return Stores{}, fmt.Errorf("unknown store kind %q", cfg.Store.Kind)
	}

	stores.Store = middleware.Chain(stores.Store, mws...)
	return stores, nil
}

// storeMiddleware orders redaction before encryption so unmasked values never reach the ciphertext.
func storeMiddleware(cfg config.StoreConfig) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if len(cfg.Redact) > 0 {
		mw, err := middleware.NewRedactMiddleware(cfg.Redact)
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	if cfg.EncryptionKey != "" {
		key, err := middleware.ParseKey(cfg.EncryptionKey)
		if err != nil {
			return nil, err
		}
		mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	return mws, nil
}

// NewCompleter creates the completion provider selected by cfg.
func NewCompleter(ctx context.Context, cfg config.Config) (ports.Completer, error) {
	switch cfg.Provider {
	case config.ProviderEcho:
		return echo.New(), nil
	case config.ProviderOpenAI:
		opts := []openai.Option{openai.WithAPIKey(cfg.APIKey)}
		if cfg.Model != "" {
			opts = append(opts, openai.WithModel(cfg.Model))
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		return openai.New(opts...), nil
	case config.ProviderGemini:
		clientConfig := &genai.ClientConfig{
			APIKey:  cfg.APIKey,
			Backend: genai.BackendGeminiAPI,
		}
		if cfg.BaseURL != "" {
			clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
		}
		return gemini.New(ctx, cfg.Model, clientConfig)
	case config.ProviderProcess:
		return process.New(cfg.Process.Command,
			process.WithArgs(cfg.Process.Args...),
			process.WithEnv(cfg.Process.Env),
		)
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

// NewBot wires a Bot from cfg. The caller must Close it.
func NewBot(ctx context.Context, cfg config.Config, logger *slog.Logger) (*chatflow.Bot, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	completer, err := NewCompleter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("error initializing completer: %w", err)
	}

	stores, err := OpenStore(cfg)
	if err != nil {
		return nil, err
	}

	opts := []chatflow.Option{
		chatflow.WithCompleter(completer),
		chatflow.WithStore(stores.Store),
		chatflow.WithSystemPrompt(cfg.SystemPrompt),
		chatflow.WithMaxSteps(cfg.MaxSteps),
		chatflow.WithLogger(logger),
		chatflow.WithCloser(closerFunc(stores.Close)),
	}
	if stores.Locker != nil {
		opts = append(opts, chatflow.WithLocker(stores.Locker, 0))
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, chatflow.WithMetrics(observability.NewMetrics()))
	}

	bot, err := chatflow.New(opts...)
	if err != nil {
		_ = stores.Close()
		return nil, fmt.Errorf("error initializing bot: %w", err)
	}

	logger.Debug("Bot ready",
		"provider", cfg.Provider,
		"model", cfg.Model,
		"store", cfg.Store.Kind,
		"metrics", cfg.Metrics.Enabled,
	)
	return bot, nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
