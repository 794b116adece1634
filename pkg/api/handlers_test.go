package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/specbook/pkg/cache"
	"github.com/platinummonkey/specbook/pkg/catalog"
	"github.com/platinummonkey/specbook/pkg/httputil"
	"github.com/platinummonkey/specbook/pkg/importer"
	"github.com/platinummonkey/specbook/pkg/middleware"
	"github.com/platinummonkey/specbook/pkg/model"
	"github.com/platinummonkey/specbook/pkg/observability"
	"github.com/platinummonkey/specbook/pkg/publish"
	"github.com/platinummonkey/specbook/pkg/storage/sqlstore"
)

// mockPublisher records publish calls
type mockPublisher struct {
	calls []int64
	err   error
}

func (m *mockPublisher) Publish(ctx context.Context, specID int64) ([]*publish.Result, error) {
	m.calls = append(m.calls, specID)
	if m.err != nil {
		return nil, m.err
	}
	return []*publish.Result{{SpecificationID: specID, Key: "specs/Billing/1.0/swagger.json", Size: 42}}, nil
}

func newTestServer(t *testing.T, publisher Publisher) *Server {
	t.Helper()

	db, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, sqlstore.Migrate(context.Background(), db, sqlstore.SQLite))

	logger := observability.NewLogger(observability.ErrorLevel, &bytes.Buffer{})
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	docs := cache.NewTiered(cache.NewMemory(64, time.Minute), nil, logger, metrics)
	svc := catalog.NewService(catalog.DefaultConfig(), sqlstore.NewWithDB(db, sqlstore.SQLite), docs, logger, metrics)

	opts := Options{Logger: logger, Metrics: metrics}
	if publisher != nil {
		opts.Publisher = publisher
	}
	return NewServer(svc, opts)
}

func do(t *testing.T, s *Server, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	switch b := body.(type) {
	case nil:
		req = httptest.NewRequest(method, target, nil)
	case string:
		req = httptest.NewRequest(method, target, strings.NewReader(b))
		req.Header.Set("Content-Type", "text/plain")
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		req = httptest.NewRequest(method, target, bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dest), w.Body.String())
}

func createSpec(t *testing.T, s *Server, title, version string) *model.Specification {
	t.Helper()
	w := do(t, s, "POST", "/api/v1/specifications", map[string]string{
		"title": title, "version": version, "host": "api.example.com", "base_path": "/restapi", "schemes": "https",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var spec model.Specification
	decode(t, w, &spec)
	return &spec
}

func TestSpecificationHandlers(t *testing.T) {
	s := newTestServer(t, nil)

	billing := createSpec(t, s, "Billing", "1.0")
	createSpec(t, s, "Accounts", "2.0")
	assert.NotZero(t, billing.ID)

	t.Run("list sorted", func(t *testing.T) {
		w := do(t, s, "GET", "/api/v1/specifications", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var specs []*model.Specification
		decode(t, w, &specs)
		require.Len(t, specs, 2)
		assert.Equal(t, "Accounts", specs[0].Title)

		w = do(t, s, "GET", "/api/v1/specifications?sort=-title", nil)
		require.Equal(t, http.StatusOK, w.Code)
		decode(t, w, &specs)
		assert.Equal(t, "Billing", specs[0].Title)
	})

	t.Run("unknown sort field", func(t *testing.T) {
		w := do(t, s, "GET", "/api/v1/specifications?sort=host", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("get", func(t *testing.T) {
		w := do(t, s, "GET", fmt.Sprintf("/api/v1/specifications/%d", billing.ID), nil)
		require.Equal(t, http.StatusOK, w.Code)
		var spec model.Specification
		decode(t, w, &spec)
		assert.Equal(t, "Billing", spec.Title)
		assert.NotEmpty(t, w.Header().Get(httputil.RequestIDHeader))
	})

	t.Run("missing", func(t *testing.T) {
		w := do(t, s, "GET", "/api/v1/specifications/999", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("validation", func(t *testing.T) {
		w := do(t, s, "POST", "/api/v1/specifications", map[string]string{"description": "untitled"})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		var resp httputil.ErrorResponse
		decode(t, w, &resp)
		assert.Len(t, resp.Fields, 2)
	})

	t.Run("duplicate", func(t *testing.T) {
		w := do(t, s, "POST", "/api/v1/specifications", map[string]string{"title": "Billing", "version": "1.0"})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/v1/specifications", strings.NewReader("{"))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		s.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("partial update", func(t *testing.T) {
		w := do(t, s, "PUT", fmt.Sprintf("/api/v1/specifications/%d", billing.ID), map[string]string{"description": "Invoices"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var spec model.Specification
		decode(t, w, &spec)
		assert.Equal(t, "Billing", spec.Title)
		assert.Equal(t, "Invoices", spec.Description)
		assert.Equal(t, billing.ID, spec.ID)
	})

	t.Run("delete", func(t *testing.T) {
		w := do(t, s, "DELETE", fmt.Sprintf("/api/v1/specifications/%d", billing.ID), nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
		w = do(t, s, "GET", fmt.Sprintf("/api/v1/specifications/%d", billing.ID), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestPathParameterHandlers(t *testing.T) {
	s := newTestServer(t, nil)
	spec := createSpec(t, s, "Billing", "1.0")
	target := fmt.Sprintf("/api/v1/specifications/%d/path-parameters", spec.ID)

	w := do(t, s, "PUT", target, "accountId\tstring\tAccount identifier\nextensionId\tstring\tExtension identifier")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var list catalog.PropertyList
	decode(t, w, &list)
	require.Len(t, list.Properties, 2)
	require.NotNil(t, list.Changes)
	assert.Equal(t, 2, list.Changes.Inserted)

	w = do(t, s, "PUT", target, httputil.TextBody{Text: "accountId\tstring\tAccount identifier"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &list)
	assert.Len(t, list.Properties, 1)
	assert.Equal(t, 1, list.Changes.Deleted)

	w = do(t, s, "GET", target, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &list)
	assert.Equal(t, "accountId\tstring\tAccount identifier", list.Text)

	w = do(t, s, "PUT", target, "accountId\tstring\naccountId\tstring")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestVerbHandlers(t *testing.T) {
	s := newTestServer(t, nil)
	spec := createSpec(t, s, "Billing", "1.0")
	base := fmt.Sprintf("/api/v1/specifications/%d", spec.ID)

	w := do(t, s, "POST", base+"/paths", map[string]string{"uri": "/restapi/v1.0/account/{accountId}"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var path model.Path
	decode(t, w, &path)
	assert.Equal(t, spec.ID, path.SpecificationID)

	verbs := fmt.Sprintf("%s/paths/%d/verbs", base, path.ID)
	w = do(t, s, "POST", verbs, map[string]interface{}{
		"method":                "GET",
		"name":                  "Get Account",
		"visibility":            "Basic",
		"status":                "Normal",
		"query_parameters_text": "limit\tinteger\tPage size\tint32",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var verb model.Verb
	decode(t, w, &verb)
	assert.Equal(t, path.ID, verb.PathID)

	verbURL := fmt.Sprintf("%s/%d", verbs, verb.ID)

	t.Run("properties by kind", func(t *testing.T) {
		w := do(t, s, "GET", verbURL+"/properties/query", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var list catalog.PropertyList
		decode(t, w, &list)
		require.Len(t, list.Properties, 1)
		assert.Equal(t, "limit", list.Properties[0].Name)

		w = do(t, s, "PUT", verbURL+"/properties/response", "id\tstring\tAccount id\nstatus\tstring\tStatus")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		decode(t, w, &list)
		assert.Equal(t, model.KindResponseBody, list.Kind)
		assert.Len(t, list.Properties, 2)

		w = do(t, s, "GET", verbURL, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var stored model.Verb
		decode(t, w, &stored)
		assert.Equal(t, "id\tstring\tAccount id\nstatus\tstring\tStatus", stored.ResponseBodyText)
	})

	t.Run("unknown kind", func(t *testing.T) {
		w := do(t, s, "GET", verbURL+"/properties/headers", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("verb under another path", func(t *testing.T) {
		w := do(t, s, "POST", base+"/paths", map[string]string{"uri": "/restapi/v1.0/other"})
		require.Equal(t, http.StatusCreated, w.Code)
		var other model.Path
		decode(t, w, &other)

		w = do(t, s, "GET", fmt.Sprintf("%s/paths/%d/verbs/%d", base, other.ID, verb.ID), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("update keeps texts", func(t *testing.T) {
		w := do(t, s, "PUT", verbURL, map[string]string{"status": "Deprecated"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var updated model.Verb
		decode(t, w, &updated)
		assert.Equal(t, "Deprecated", updated.Status)
		assert.Equal(t, "Get Account", updated.Name)
		assert.NotEmpty(t, updated.QueryParametersText)
	})

	t.Run("list and delete", func(t *testing.T) {
		w := do(t, s, "GET", verbs, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var list []*model.Verb
		decode(t, w, &list)
		assert.Len(t, list, 1)

		w = do(t, s, "DELETE", verbURL, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
		w = do(t, s, "GET", verbURL, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestModelHandlers(t *testing.T) {
	s := newTestServer(t, nil)
	spec := createSpec(t, s, "Billing", "1.0")
	models := fmt.Sprintf("/api/v1/specifications/%d/models", spec.ID)

	w := do(t, s, "POST", models, map[string]string{
		"name":            "Invoice",
		"properties_text": "id\tstring\tInvoice id\namount\tnumber\tTotal\tdouble\ttrue",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var m model.CommonModel
	decode(t, w, &m)

	modelURL := fmt.Sprintf("%s/%d", models, m.ID)
	w = do(t, s, "GET", modelURL+"/properties", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list catalog.PropertyList
	decode(t, w, &list)
	require.Len(t, list.Properties, 2)
	assert.True(t, list.Properties[1].Required)

	w = do(t, s, "PUT", modelURL, map[string]string{"description": "A bill"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &m)
	assert.Equal(t, "Invoice", m.Name)

	w = do(t, s, "GET", models+"?sort=-name", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, s, "DELETE", modelURL, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, s, "GET", modelURL, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExportHandler(t *testing.T) {
	s := newTestServer(t, nil)
	spec := createSpec(t, s, "Billing", "1.0")

	w := do(t, s, "GET", fmt.Sprintf("/api/v1/specifications/%d/swagger.json", spec.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

	var doc map[string]interface{}
	decode(t, w, &doc)
	assert.Equal(t, "2.0", doc["swagger"])

	w = do(t, s, "GET", "/api/v1/specifications/999/swagger.yaml", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPublishHandler(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		s := newTestServer(t, nil)
		w := do(t, s, "POST", "/api/v1/specifications/1/publish", nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("published", func(t *testing.T) {
		publisher := &mockPublisher{}
		s := newTestServer(t, publisher)
		spec := createSpec(t, s, "Billing", "1.0")

		w := do(t, s, "POST", fmt.Sprintf("/api/v1/specifications/%d/publish", spec.ID), nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var resp PublishResponse
		decode(t, w, &resp)
		assert.Equal(t, spec.ID, resp.SpecificationID)
		require.Len(t, resp.Objects, 1)
		assert.Equal(t, []int64{spec.ID}, publisher.calls)
	})

	t.Run("missing specification", func(t *testing.T) {
		publisher := &mockPublisher{err: model.NotFoundf("specification %d", 7)}
		s := newTestServer(t, publisher)
		w := do(t, s, "POST", "/api/v1/specifications/7/publish", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("store failure", func(t *testing.T) {
		publisher := &mockPublisher{err: errors.New("bucket unavailable")}
		s := newTestServer(t, publisher)
		w := do(t, s, "POST", "/api/v1/specifications/7/publish", nil)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestImportHandler(t *testing.T) {
	s := newTestServer(t, nil)
	spec := createSpec(t, s, "Billing", "1.0")
	target := fmt.Sprintf("/api/v1/specifications/%d/import", spec.ID)

	listing := "GET\t/restapi/{version}/account/~\tGet Account\tNo\t\t\t\t\t\tBasic\tNormal\n" +
		"GET\t/restapi/{version}/account/~/extension/{id}\tGet Extension\tNo\t\t\t\t\t\tBasic\tNormal\n"

	w := do(t, s, "POST", target, listing)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var summary importer.Summary
	decode(t, w, &summary)
	assert.Equal(t, 2, summary.Rows)
	assert.Equal(t, 2, summary.PathsCreated)

	w = do(t, s, "GET", fmt.Sprintf("/api/v1/specifications/%d/paths", spec.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var paths []*model.Path
	decode(t, w, &paths)
	require.Len(t, paths, 2)
	assert.Equal(t, "/restapi/v1.0/account/{accountId}", paths[0].URI)
	assert.Equal(t, "/restapi/v1.0/account/{accountId}/extension/{extensionId}", paths[1].URI)

	w = do(t, s, "POST", "/api/v1/specifications/999/import", listing)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecoveryMiddleware(t *testing.T) {
	s := newTestServer(t, nil)
	s.Router().HandleFunc("/boom", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	w := do(t, s, "GET", "/boom", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestMaxBodyBytes(t *testing.T) {
	s := newTestServer(t, nil)
	s = NewServer(s.catalog, Options{MaxBodyBytes: 16})

	w := do(t, s, "POST", "/api/v1/specifications", map[string]string{"title": strings.Repeat("x", 64), "version": "1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, nil)
	limiter := middleware.NewRateLimiter(middleware.RateLimitConfig{Enabled: true, RequestsPerWindow: 2, WindowDuration: time.Hour})
	s = NewServer(s.catalog, Options{RateLimiter: limiter})

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, do(t, s, "GET", "/api/v1/specifications", nil).Code)
	}
	w := do(t, s, "GET", "/api/v1/specifications", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get(httputil.RequestIDHeader), "limited responses still carry a request id")
}
