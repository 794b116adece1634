package swagger

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/specbook/pkg/httputil"
)

// Exporter renders the document for one specification
type Exporter interface {
	Export(ctx context.Context, specID int64, editions []string, format Format) ([]byte, error)
}

// Handlers serves exported documents and the Swagger UI page
type Handlers struct {
	exporter Exporter
	ui       *template.Template
}

// NewHandlers creates export handlers backed by exporter
func NewHandlers(exporter Exporter) *Handlers {
	return &Handlers{
		exporter: exporter,
		ui:       template.Must(template.New("swagger").Parse(swaggerUITemplate)),
	}
}

// RegisterRoutes registers the export routes with the router
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/v1/specifications/{specID}/swagger.json", h.export(FormatJSON)).Methods("GET")
	router.HandleFunc("/api/v1/specifications/{specID}/swagger.yaml", h.export(FormatYAML)).Methods("GET")
	router.HandleFunc("/swagger-ui", h.serveSwaggerUI).Methods("GET")
	router.HandleFunc("/api-docs", h.serveSwaggerUI).Methods("GET") // Alias
}

// export serves the document in format f, filtered by the repeated
// "edition" query parameter
func (h *Handlers) export(f Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		specID, ok := httputil.ParsePathInt64OrError(w, r, "specID")
		if !ok {
			return
		}

		body, err := h.exporter.Export(r.Context(), specID, httputil.ParseQueryStrings(r, "edition"), f)
		if err != nil {
			httputil.WriteModelError(w, err)
			return
		}

		w.Header().Set("Access-Control-Allow-Origin", "*")
		httputil.WriteBytes(w, http.StatusOK, f.ContentType(), body)
	}
}

// serveSwaggerUI serves the Swagger UI HTML page for ?spec=<id>
func (h *Handlers) serveSwaggerUI(w http.ResponseWriter, r *http.Request) {
	specID, err := httputil.ParseQueryInt64(r, "spec", 0)
	if err != nil || specID <= 0 {
		httputil.WriteBadRequest(w, "spec query parameter must be a specification id")
		return
	}

	query := url.Values{}
	for _, e := range httputil.ParseQueryStrings(r, "edition") {
		query.Add("edition", e)
	}
	docURL := (&url.URL{
		Path:     fmt.Sprintf("/api/v1/specifications/%d/swagger.json", specID),
		RawQuery: query.Encode(),
	}).String()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.ui.Execute(w, struct{ URL string }{URL: docURL}); err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
}

const swaggerUITemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>specbook - Swagger UI</title>
  <link rel="stylesheet" type="text/css" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5.10.5/swagger-ui.css" />
  <link rel="icon" type="image/png" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5.10.5/favicon-32x32.png" sizes="32x32" />
  <style>
    html {
      box-sizing: border-box;
      overflow-y: scroll;
    }
    *, *:before, *:after {
      box-sizing: inherit;
    }
    body {
      margin:0;
      padding:0;
    }
  </style>
</head>
<body>
<div id="swagger-ui"></div>

<script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5.10.5/swagger-ui-bundle.js" charset="UTF-8"></script>
<script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5.10.5/swagger-ui-standalone-preset.js" charset="UTF-8"></script>
<script>
window.onload = function() {
  window.ui = SwaggerUIBundle({
    url: {{.URL}},
    dom_id: '#swagger-ui',
    deepLinking: true,
    presets: [
      SwaggerUIBundle.presets.apis,
      SwaggerUIStandalonePreset
    ],
    plugins: [
      SwaggerUIBundle.plugins.DownloadUrl
    ],
    layout: "StandaloneLayout"
  });
};
</script>
</body>
</html>`
