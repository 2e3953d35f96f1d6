package config

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/sidelinestream/sidespout"
	"github.com/sidelinestream/sidespout/logconsumer"
	"github.com/sidelinestream/sidespout/metrics"
	"github.com/sidelinestream/sidespout/persistence"
	"github.com/sidelinestream/sidespout/registry"
	"github.com/sidelinestream/sidespout/retry"
)

func init() {
	registry.Register("deserializer", "identity", func(cfg any) (any, error) {
		return sidespout.Identity{}, nil
	})

	registry.Register("persistence", "memory", func(cfg any) (any, error) {
		return persistence.NewMemory(), nil
	})
	registry.Register("persistence", "postgres", func(cfg any) (any, error) {
		c, ok := cfg.(*Config)
		if !ok {
			return nil, fmt.Errorf("persistence/postgres: expected *config.Config")
		}
		return persistence.NewPostgresAdapter(persistence.PostgresConfig{ConnString: c.PostgresConnString})
	})
	registry.Register("persistence", "redis", func(cfg any) (any, error) {
		c, ok := cfg.(*Config)
		if !ok {
			return nil, fmt.Errorf("persistence/redis: expected *config.Config")
		}
		return persistence.NewRedisAdapter(persistence.RedisConfig{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
		})
	})

	registry.Register("retry_policy", "never", func(cfg any) (any, error) {
		return &retry.NeverRetry{}, nil
	})
	registry.Register("retry_policy", "fixed", func(cfg any) (any, error) {
		c, ok := cfg.(*Config)
		if !ok {
			return nil, fmt.Errorf("retry_policy/fixed: expected *config.Config")
		}
		p := retry.NewFixedRetry()
		if err := p.Open(retry.Config{MaxRetries: c.RetryMaxRetries, Base: c.RetryBase, Max: c.RetryMax}); err != nil {
			return nil, err
		}
		return p, nil
	})
	registry.Register("retry_policy", "exponential", func(cfg any) (any, error) {
		c, ok := cfg.(*Config)
		if !ok {
			return nil, fmt.Errorf("retry_policy/exponential: expected *config.Config")
		}
		p := retry.NewExponentialBackoff()
		if err := p.Open(retry.Config{MaxRetries: c.RetryMaxRetries, Base: c.RetryBase, Max: c.RetryMax}); err != nil {
			return nil, err
		}
		return p, nil
	})
	registry.Register("retry_policy", "unbounded", func(cfg any) (any, error) {
		c, ok := cfg.(*Config)
		if !ok {
			return nil, fmt.Errorf("retry_policy/unbounded: expected *config.Config")
		}
		p := retry.NewUnbounded()
		if err := p.Open(retry.Config{Base: c.RetryBase, Max: c.RetryMax}); err != nil {
			return nil, err
		}
		return p, nil
	})

	registry.Register("metrics_recorder", "noop", func(cfg any) (any, error) {
		return metrics.NoOp{}, nil
	})
	registry.Register("metrics_recorder", "memory", func(cfg any) (any, error) {
		return metrics.NewInMemory(), nil
	})
	registry.Register("metrics_recorder", "prometheus", func(cfg any) (any, error) {
		return metrics.NewPrometheus(nil), nil
	})
}

// BuildDependencies resolves cfg's registry-keyed fields into a
// sidespout.Dependencies, constructing the log consumer, retry policy,
// persistence adapter and metrics recorder named within it.
func BuildDependencies(cfg *Config, logger *zap.Logger) (sidespout.Dependencies, error) {
	var deps sidespout.Dependencies

	persistenceKey := cfg.Persistence
	if persistenceKey == "" {
		persistenceKey = "memory"
	}
	persistenceRaw, err := registry.Build("persistence", persistenceKey, cfg)
	if err != nil {
		return deps, fmt.Errorf("building persistence adapter: %w", err)
	}
	persistenceAdapter, ok := persistenceRaw.(sidespout.PersistenceAdapter)
	if !ok {
		return deps, fmt.Errorf("persistence adapter %q does not satisfy sidespout.PersistenceAdapter", persistenceKey)
	}
	deps.Persistence = persistenceAdapter

	deserializerKey := cfg.Deserializer
	if deserializerKey == "" {
		deserializerKey = "identity"
	}
	deserializerRaw, err := registry.Build("deserializer", deserializerKey, cfg)
	if err != nil {
		return deps, fmt.Errorf("building deserializer: %w", err)
	}
	deserializer, ok := deserializerRaw.(sidespout.Deserializer)
	if !ok {
		return deps, fmt.Errorf("deserializer %q does not satisfy sidespout.Deserializer", deserializerKey)
	}

	logConsumer := logconsumer.New(logconsumer.Config{
		Brokers:       cfg.KafkaBrokers,
		Topic:         cfg.KafkaTopic,
		ConsumerID:    cfg.ConsumerID,
		NumConsumers:  cfg.NumConsumers,
		ConsumerIndex: cfg.ConsumerIndex,
		PollTimeout:   cfg.PollTimeout,
		Persistence:   persistenceAdapter,
		Deserializer:  deserializer,
	}, logger)
	deps.LogConsumer = logConsumer

	retryKey := cfg.RetryPolicy
	if retryKey == "" {
		retryKey = "fixed"
	}
	retryRaw, err := registry.Build("retry_policy", retryKey, cfg)
	if err != nil {
		return deps, fmt.Errorf("building retry policy: %w", err)
	}
	retryPolicy, ok := retryRaw.(sidespout.RetryPolicy)
	if !ok {
		return deps, fmt.Errorf("retry policy %q does not satisfy sidespout.RetryPolicy", retryKey)
	}
	deps.RetryPolicy = retryPolicy

	metricsKey := cfg.MetricsRecorder
	if metricsKey == "" {
		metricsKey = "noop"
	}
	metricsRaw, err := registry.Build("metrics_recorder", metricsKey, cfg)
	if err != nil {
		return deps, fmt.Errorf("building metrics recorder: %w", err)
	}
	metricsRecorder, ok := metricsRaw.(sidespout.MetricsRecorder)
	if !ok {
		return deps, fmt.Errorf("metrics recorder %q does not satisfy sidespout.MetricsRecorder", metricsKey)
	}
	deps.Metrics = metricsRecorder

	return deps, nil
}
