package publish

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/specbook/pkg/model"
	"github.com/platinummonkey/specbook/pkg/observability"
	"github.com/platinummonkey/specbook/pkg/storage"
	"github.com/platinummonkey/specbook/pkg/swagger"
)

type fakeSource struct {
	specs     []*model.Specification
	failOn    int64
	exported  []string
	mu        sync.Mutex
	panicOnID int64
}

func (f *fakeSource) Export(ctx context.Context, specID int64, editions []string, format swagger.Format) ([]byte, error) {
	if specID == f.panicOnID {
		panic("boom")
	}
	if specID == f.failOn {
		return nil, errors.New("export failed")
	}
	f.mu.Lock()
	f.exported = append(f.exported, fmt.Sprintf("%d:%s:%v", specID, format, editions))
	f.mu.Unlock()
	return []byte(fmt.Sprintf(`{"id":%d}`, specID)), nil
}

func (f *fakeSource) GetSpecification(ctx context.Context, id int64) (*model.Specification, error) {
	for _, s := range f.specs {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, model.NotFoundf("specification %d", id)
}

func (f *fakeSource) ListSpecifications(ctx context.Context, order storage.SortOrder) ([]*model.Specification, error) {
	return f.specs, nil
}

type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	err     error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memoryStore) PutObject(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = body
	m.types[key] = contentType
	return "sum-" + key, nil
}

func (m *memoryStore) HealthCheck(ctx context.Context) error { return m.err }

func testLogger() *observability.Logger {
	return observability.NewLogger(observability.ErrorLevel, &bytes.Buffer{})
}

func sampleSpecs() []*model.Specification {
	return []*model.Specification{
		{ID: 1, Title: "Billing API", Version: "1.0"},
		{ID: 2, Title: "Accounts", Version: "2.1"},
		{ID: 3, Title: "Legacy/Admin", Version: "0.9"},
	}
}

func TestKey(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		spec   *model.Specification
		format swagger.Format
		want   string
	}{
		{"json", "specs", &model.Specification{Title: "Accounts", Version: "2.1"}, swagger.FormatJSON, "specs/Accounts/2.1/swagger.json"},
		{"yaml", "specs", &model.Specification{Title: "Accounts", Version: "2.1"}, swagger.FormatYAML, "specs/Accounts/2.1/swagger.yaml"},
		{"spaces", "specs", &model.Specification{Title: "Billing API", Version: "1.0"}, swagger.FormatJSON, "specs/Billing%20API/1.0/swagger.json"},
		{"underscore kept apart from space", "specs", &model.Specification{Title: "Billing_API", Version: "1.0"}, swagger.FormatJSON, "specs/Billing_API/1.0/swagger.json"},
		{"slash in title", "specs", &model.Specification{Title: "Legacy/Admin", Version: "0.9"}, swagger.FormatJSON, "specs/Legacy%2FAdmin/0.9/swagger.json"},
		{"dot segment", "specs", &model.Specification{Title: "..", Version: "1.0"}, swagger.FormatJSON, "specs/%2E%2E/1.0/swagger.json"},
		{"no prefix", "", &model.Specification{Title: "Accounts", Version: "2.1"}, swagger.FormatJSON, "Accounts/2.1/swagger.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Key(tt.prefix, tt.spec, tt.format))
		})
	}
}

func TestPublisher_Publish(t *testing.T) {
	source := &fakeSource{specs: sampleSpecs()}
	store := newMemoryStore()
	metrics := observability.NewMetrics(prometheus.NewRegistry())

	cfg := DefaultConfig()
	cfg.Editions = []string{"Basic"}
	cfg.Formats = []swagger.Format{swagger.FormatJSON, swagger.FormatYAML}
	p := NewPublisher(source, store, cfg, testLogger(), metrics)

	results, err := p.Publish(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "specs/Accounts/2.1/swagger.json", results[0].Key)
	assert.Equal(t, "sum-specs/Accounts/2.1/swagger.json", results[0].Checksum)
	assert.Equal(t, len(`{"id":2}`), results[0].Size)
	assert.Equal(t, "application/json", store.types["specs/Accounts/2.1/swagger.json"])
	assert.Equal(t, "application/x-yaml", store.types["specs/Accounts/2.1/swagger.yaml"])
	assert.Equal(t, []string{"2:json:[Basic]", "2:yaml:[Basic]"}, source.exported)

	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.PublishTotal.WithLabelValues("success")))
}

func TestPublisher_PublishMissing(t *testing.T) {
	p := NewPublisher(&fakeSource{specs: sampleSpecs()}, newMemoryStore(), DefaultConfig(), testLogger(), nil)

	_, err := p.Publish(context.Background(), 99)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestPublisher_PublishStoreFailure(t *testing.T) {
	store := newMemoryStore()
	store.err = errors.New("bucket unavailable")
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	p := NewPublisher(&fakeSource{specs: sampleSpecs()}, store, DefaultConfig(), testLogger(), metrics)

	_, err := p.Publish(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Billing API 1.0")
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.PublishTotal.WithLabelValues("error")))
}

func TestPublisher_PublishAll(t *testing.T) {
	source := &fakeSource{specs: sampleSpecs()}
	store := newMemoryStore()
	cfg := DefaultConfig()
	cfg.Parallelism = 2
	p := NewPublisher(source, store, cfg, testLogger(), nil)

	results, err := p.PublishAll(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 3)

	for i, r := range results {
		assert.Equal(t, int64(i+1), r.SpecificationID, "results follow listing order")
	}
	assert.Contains(t, store.objects, "specs/Billing%20API/1.0/swagger.json")
	assert.Contains(t, store.objects, "specs/Accounts/2.1/swagger.json")
	assert.Contains(t, store.objects, "specs/Legacy%2FAdmin/0.9/swagger.json")
}

func TestPublisher_PublishAllFailure(t *testing.T) {
	source := &fakeSource{specs: sampleSpecs(), failOn: 2}
	cfg := DefaultConfig()
	cfg.Parallelism = 1
	p := NewPublisher(source, newMemoryStore(), cfg, testLogger(), nil)

	results, err := p.PublishAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "export failed")
	require.NotEmpty(t, results)
	assert.Equal(t, int64(1), results[0].SpecificationID)
}

func TestPublisher_PublishAllRecoversPanic(t *testing.T) {
	source := &fakeSource{specs: sampleSpecs(), panicOnID: 3}
	p := NewPublisher(source, newMemoryStore(), DefaultConfig(), testLogger(), nil)

	_, err := p.PublishAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic: boom")
}
