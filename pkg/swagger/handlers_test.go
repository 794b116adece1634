package swagger

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"

	"github.com/platinummonkey/specbook/pkg/model"
)

type fakeExporter struct {
	specID   int64
	editions []string
	format   Format
	err      error
}

func (f *fakeExporter) Export(ctx context.Context, specID int64, editions []string, format Format) ([]byte, error) {
	f.specID, f.editions, f.format = specID, editions, format
	if f.err != nil {
		return nil, f.err
	}
	return []byte("rendered-" + string(format)), nil
}

func newRouter(exporter Exporter) *mux.Router {
	router := mux.NewRouter()
	NewHandlers(exporter).RegisterRoutes(router)
	return router
}

func TestExportRoutes(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		format      Format
		contentType string
	}{
		{"json", "/api/v1/specifications/7/swagger.json?edition=Basic&edition=Premium", FormatJSON, "application/json"},
		{"yaml", "/api/v1/specifications/7/swagger.yaml?edition=Basic&edition=Premium", FormatYAML, "application/x-yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exporter := &fakeExporter{}
			w := httptest.NewRecorder()

			newRouter(exporter).ServeHTTP(w, httptest.NewRequest("GET", tt.path, nil))

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.contentType, w.Header().Get("Content-Type"))
			assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, "rendered-"+string(tt.format), w.Body.String())
			assert.Equal(t, int64(7), exporter.specID)
			assert.Equal(t, []string{"Basic", "Premium"}, exporter.editions)
			assert.Equal(t, tt.format, exporter.format)
		})
	}
}

func TestExport_Errors(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		err        error
		expectCode int
	}{
		{"bad id", "/api/v1/specifications/abc/swagger.json", nil, http.StatusBadRequest},
		{"missing spec", "/api/v1/specifications/9/swagger.json", model.NotFoundf("specification %d", 9), http.StatusNotFound},
		{"store failure", "/api/v1/specifications/9/swagger.json", errors.New("db down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			newRouter(&fakeExporter{err: tt.err}).ServeHTTP(w, httptest.NewRequest("GET", tt.path, nil))

			assert.Equal(t, tt.expectCode, w.Code)
		})
	}
}

func TestSwaggerUI(t *testing.T) {
	router := newRouter(&fakeExporter{})

	for _, path := range []string{"/swagger-ui?spec=3&edition=Premium", "/api-docs?spec=3&edition=Premium"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", path, nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
		body := w.Body.String()
		assert.Contains(t, body, "swagger-ui")
		assert.Regexp(t, `specifications\\?/3\\?/swagger\.json\?edition=Premium`, body)
	}
}

func TestSwaggerUI_RequiresSpec(t *testing.T) {
	router := newRouter(&fakeExporter{})

	for _, path := range []string{"/swagger-ui", "/swagger-ui?spec=x", "/swagger-ui?spec=-1"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("yml")
	assert.NoError(t, err)
	assert.Equal(t, FormatYAML, f)
	assert.Equal(t, "swagger.yaml", f.Filename())

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}
