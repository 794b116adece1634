package api

import (
	"net/http"

	"github.com/platinummonkey/specbook/pkg/httputil"
)

// publishSpecification handles POST /specifications/{specID}/publish
func (s *Server) publishSpecification(w http.ResponseWriter, r *http.Request) {
	if s.publisher == nil {
		httputil.WriteServiceUnavailable(w, "publishing is not configured")
		return
	}

	specID, ok := httputil.ParsePathInt64OrError(w, r, "specID")
	if !ok {
		return
	}

	results, err := s.publisher.Publish(r.Context(), specID)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteSuccess(w, &PublishResponse{SpecificationID: specID, Objects: results})
}

// importEndpoints handles POST /specifications/{specID}/import. The body is
// a tab-separated endpoint listing, raw or as {"text": "..."}.
func (s *Server) importEndpoints(w http.ResponseWriter, r *http.Request) {
	specID, ok := httputil.ParsePathInt64OrError(w, r, "specID")
	if !ok {
		return
	}
	text, ok := httputil.ParseTextOrError(w, r)
	if !ok {
		return
	}

	summary, err := s.catalog.ImportEndpoints(r.Context(), specID, text)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteSuccess(w, summary)
}
