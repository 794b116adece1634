package cache

import (
	"context"

	"github.com/hashicorp/go-multierror"

	"github.com/platinummonkey/specbook/pkg/observability"
)

const (
	tierMemory = "memory"
	tierRedis  = "redis"
)

// Tiered checks memory first and then the shared tier, back-filling memory
// on a shared hit. A failing shared tier degrades to a miss on reads.
type Tiered struct {
	memory  *Memory
	shared  *Redis
	logger  *observability.Logger
	metrics *observability.Metrics
}

// New builds the cache described by cfg. A disabled cache is a Nop.
func New(cfg Config, logger *observability.Logger, metrics *observability.Metrics) (Cache, error) {
	if !cfg.Enabled {
		return Nop{}, nil
	}

	t := &Tiered{
		memory:  NewMemory(cfg.MemoryEntries, cfg.TTL),
		logger:  logger,
		metrics: metrics,
	}

	if cfg.RedisURL != "" {
		shared, err := NewRedis(cfg)
		if err != nil {
			return nil, err
		}
		t.shared = shared
	}
	return t, nil
}

// NewTiered assembles a cache from existing tiers. shared may be nil.
func NewTiered(memory *Memory, shared *Redis, logger *observability.Logger, metrics *observability.Metrics) *Tiered {
	return &Tiered{memory: memory, shared: shared, logger: logger, metrics: metrics}
}

// Shared returns the Redis tier, or nil
func (t *Tiered) Shared() *Redis {
	return t.shared
}

func (t *Tiered) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if v, ok, _ := t.memory.Get(ctx, key); ok {
		t.metrics.RecordCacheHit(ctx, tierMemory)
		return v, true, nil
	}
	t.metrics.RecordCacheMiss(ctx, tierMemory)

	if t.shared == nil {
		return nil, false, nil
	}

	v, ok, err := t.shared.Get(ctx, key)
	if err != nil {
		t.logger.WithError(err).WithField("key", key).Warn("shared cache read failed")
		return nil, false, nil
	}
	if !ok {
		t.metrics.RecordCacheMiss(ctx, tierRedis)
		return nil, false, nil
	}

	t.metrics.RecordCacheHit(ctx, tierRedis)
	t.memory.Set(ctx, key, v)
	return v, true, nil
}

func (t *Tiered) Set(ctx context.Context, key string, value []byte) error {
	t.memory.Set(ctx, key, value)
	if t.shared == nil {
		return nil
	}
	return t.shared.Set(ctx, key, value)
}

func (t *Tiered) InvalidatePrefix(ctx context.Context, prefix string) error {
	t.metrics.RecordInvalidation()
	t.memory.InvalidatePrefix(ctx, prefix)
	if t.shared == nil {
		return nil
	}
	return t.shared.InvalidatePrefix(ctx, prefix)
}

// Generation reads the shared counter when there is one. An unreachable
// shared tier is an error.
func (t *Tiered) Generation(ctx context.Context, specID int64) (int64, error) {
	if t.shared == nil {
		return t.memory.Generation(ctx, specID)
	}
	return t.shared.Generation(ctx, specID)
}

func (t *Tiered) BumpGeneration(ctx context.Context, specID int64) error {
	t.memory.BumpGeneration(ctx, specID)
	if t.shared == nil {
		return nil
	}
	return t.shared.BumpGeneration(ctx, specID)
}

func (t *Tiered) Close() error {
	var result *multierror.Error
	if err := t.memory.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	if t.shared != nil {
		if err := t.shared.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
