package cache

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/specbook/pkg/observability"
)

func setupRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := DefaultConfig()
	cfg.RedisURL = "redis://" + mr.Addr()
	r, err := NewRedis(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })

	return r, mr
}

func TestDocumentKey(t *testing.T) {
	assert.Equal(t, "swagger:7:g0:Basic,Premium:json", DocumentKey(7, 0, []string{"Premium", "Basic"}, "json"))
	assert.Equal(t, DocumentKey(7, 2, []string{"Basic", "Premium"}, "yaml"), DocumentKey(7, 2, []string{"Premium", "Basic"}, "yaml"))
	assert.Equal(t, "swagger:7:g0::json", DocumentKey(7, 0, nil, "json"))
	assert.NotEqual(t, DocumentKey(7, 0, []string{"Basic", "Pro"}, "json"), DocumentKey(7, 0, []string{"Basic,Pro"}, "json"))
	assert.NotEqual(t, DocumentKey(7, 0, []string{"Basic"}, "json"), DocumentKey(7, 1, []string{"Basic"}, "json"))
	assert.True(t, strings.HasPrefix(DocumentKey(7, 3, []string{"Basic"}, "json"), SpecPrefix(7)))
	assert.False(t, strings.HasPrefix(SpecPrefix(70), SpecPrefix(7)))
	assert.False(t, strings.HasPrefix(generationKey(7), SpecPrefix(7)))
}

func TestGenerations(t *testing.T) {
	ctx := context.Background()
	r, mr := setupRedis(t)

	for name, c := range map[string]Cache{
		"memory": NewMemory(16, time.Minute),
		"redis":  r,
		"nop":    Nop{},
	} {
		t.Run(name, func(t *testing.T) {
			gen, err := c.Generation(ctx, 9)
			require.NoError(t, err)
			assert.Zero(t, gen)

			require.NoError(t, c.BumpGeneration(ctx, 9))
			require.NoError(t, c.BumpGeneration(ctx, 9))
			require.NoError(t, c.InvalidatePrefix(ctx, SpecPrefix(9)))

			gen, err = c.Generation(ctx, 9)
			require.NoError(t, err)
			if name == "nop" {
				assert.Zero(t, gen)
				return
			}
			assert.Equal(t, int64(2), gen, "invalidation keeps the counter")

			other, err := c.Generation(ctx, 10)
			require.NoError(t, err)
			assert.Zero(t, other)
		})
	}

	assert.True(t, mr.Exists("swagger-gen:9"))
	assert.Zero(t, mr.TTL("swagger-gen:9"), "counter has no expiry")
}

func TestTiered_GenerationFollowsSharedTier(t *testing.T) {
	ctx := context.Background()
	r, mr := setupRedis(t)
	logger := observability.NewLogger(observability.ErrorLevel, &bytes.Buffer{})

	replicaA := NewTiered(NewMemory(16, time.Minute), r, logger, nil)
	replicaB := NewTiered(NewMemory(16, time.Minute), r, logger, nil)

	require.NoError(t, replicaA.BumpGeneration(ctx, 4))
	gen, err := replicaB.Generation(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(1), gen)

	mr.Close()
	_, err = replicaB.Generation(ctx, 4)
	assert.Error(t, err)
}

func TestMemory_GetSetInvalidate(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(16, time.Minute)

	_, ok, err := m.Get(ctx, "swagger:1:Basic:json")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Set(ctx, "swagger:1:Basic:json", []byte("a")))
	require.NoError(t, m.Set(ctx, "swagger:1:Basic:yaml", []byte("b")))
	require.NoError(t, m.Set(ctx, "swagger:12:Basic:json", []byte("c")))

	v, ok, _ := m.Get(ctx, "swagger:1:Basic:json")
	assert.True(t, ok)
	assert.Equal(t, []byte("a"), v)

	require.NoError(t, m.InvalidatePrefix(ctx, SpecPrefix(1)))

	_, ok, _ = m.Get(ctx, "swagger:1:Basic:yaml")
	assert.False(t, ok)
	_, ok, _ = m.Get(ctx, "swagger:12:Basic:json")
	assert.True(t, ok, "other specification untouched")

	hits, misses, entries := m.Stats()
	assert.Equal(t, int64(2), hits)
	assert.Equal(t, int64(2), misses)
	assert.Equal(t, 1, entries)
}

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(16, 20*time.Millisecond)

	require.NoError(t, m.Set(ctx, "k", []byte("v")))
	assert.Eventually(t, func() bool {
		_, ok, _ := m.Get(ctx, "k")
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestRedis_GetSetInvalidate(t *testing.T) {
	ctx := context.Background()
	r, mr := setupRedis(t)

	_, ok, err := r.Get(ctx, "swagger:1:Basic:json")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Set(ctx, "swagger:1:Basic:json", []byte(`{"swagger":"2.0"}`)))
	require.NoError(t, r.Set(ctx, "swagger:2:Basic:json", []byte(`{}`)))

	v, ok, err := r.Get(ctx, "swagger:1:Basic:json")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"swagger":"2.0"}`, string(v))
	assert.Equal(t, 15*time.Minute, mr.TTL("swagger:1:Basic:json"))

	require.NoError(t, r.InvalidatePrefix(ctx, SpecPrefix(1)))
	assert.False(t, mr.Exists("swagger:1:Basic:json"))
	assert.True(t, mr.Exists("swagger:2:Basic:json"))

	assert.NoError(t, r.HealthCheck(ctx))
}

func TestNewRedis_BadURL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RedisURL = "not-a-url://"
	_, err := NewRedis(cfg)
	assert.Error(t, err)
}

func TestTiered_BackfillsMemory(t *testing.T) {
	ctx := context.Background()
	r, _ := setupRedis(t)
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	tc := NewTiered(NewMemory(16, time.Minute), r, observability.NewLogger(observability.ErrorLevel, &bytes.Buffer{}), metrics)

	require.NoError(t, r.Set(ctx, "swagger:3:Basic:json", []byte("doc")))

	v, ok, err := tc.Get(ctx, "swagger:3:Basic:json")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "doc", string(v))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.CacheHitsTotal.WithLabelValues("redis")))

	_, ok, _ = tc.Get(ctx, "swagger:3:Basic:json")
	assert.True(t, ok)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.CacheHitsTotal.WithLabelValues("memory")))
}

func TestTiered_InvalidatesBothTiers(t *testing.T) {
	ctx := context.Background()
	r, mr := setupRedis(t)
	tc := NewTiered(NewMemory(16, time.Minute), r, observability.NewLogger(observability.ErrorLevel, &bytes.Buffer{}), nil)

	require.NoError(t, tc.Set(ctx, DocumentKey(4, 0, []string{"Basic"}, "json"), []byte("doc")))
	assert.True(t, mr.Exists("swagger:4:g0:Basic:json"))

	require.NoError(t, tc.InvalidatePrefix(ctx, SpecPrefix(4)))

	_, ok, err := tc.Get(ctx, DocumentKey(4, 0, []string{"Basic"}, "json"))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, mr.Exists("swagger:4:g0:Basic:json"))
}

func TestTiered_SharedOutageDegradesToMiss(t *testing.T) {
	ctx := context.Background()
	r, mr := setupRedis(t)
	var buf bytes.Buffer
	tc := NewTiered(NewMemory(16, time.Minute), r, observability.NewLogger(observability.WarnLevel, &buf), nil)

	mr.Close()

	_, ok, err := tc.Get(ctx, "swagger:5:Basic:json")
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, buf.String(), "shared cache read failed")
}

func TestNew(t *testing.T) {
	logger := observability.NewLogger(observability.ErrorLevel, &bytes.Buffer{})

	c, err := New(Config{Enabled: false}, logger, nil)
	require.NoError(t, err)
	assert.IsType(t, Nop{}, c)

	c, err = New(DefaultConfig(), logger, nil)
	require.NoError(t, err)
	tiered, ok := c.(*Tiered)
	require.True(t, ok)
	assert.Nil(t, tiered.Shared())
	assert.NoError(t, c.Close())
}
