package api

import (
	"net/http"

	"github.com/platinummonkey/specbook/pkg/httputil"
	"github.com/platinummonkey/specbook/pkg/model"
)

// listModels handles GET /specifications/{specID}/models
func (s *Server) listModels(w http.ResponseWriter, r *http.Request) {
	specID, ok := httputil.ParsePathInt64OrError(w, r, "specID")
	if !ok {
		return
	}

	models, err := s.catalog.ListModels(r.Context(), specID, sortOrder(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteSuccess(w, models)
}

// createModel handles POST /specifications/{specID}/models
func (s *Server) createModel(w http.ResponseWriter, r *http.Request) {
	specID, ok := httputil.ParsePathInt64OrError(w, r, "specID")
	if !ok {
		return
	}

	var m model.CommonModel
	if !httputil.ParseJSONOrError(w, r, &m) {
		return
	}
	m.ID = 0
	m.SpecificationID = specID

	if err := s.catalog.CreateModel(r.Context(), &m); err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteCreated(w, &m)
}

// getModel handles GET /specifications/{specID}/models/{modelID}
func (s *Server) getModel(w http.ResponseWriter, r *http.Request) {
	specID, modelID, ok := parseModelIDs(w, r)
	if !ok {
		return
	}

	m, err := s.catalog.GetModel(r.Context(), specID, modelID)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteSuccess(w, m)
}

// updateModel handles PUT /specifications/{specID}/models/{modelID}
func (s *Server) updateModel(w http.ResponseWriter, r *http.Request) {
	specID, modelID, ok := parseModelIDs(w, r)
	if !ok {
		return
	}

	m, err := s.catalog.GetModel(r.Context(), specID, modelID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !httputil.ParseJSONOrError(w, r, m) {
		return
	}
	m.ID = modelID
	m.SpecificationID = specID

	if err := s.catalog.UpdateModel(r.Context(), m); err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteSuccess(w, m)
}

// deleteModel handles DELETE /specifications/{specID}/models/{modelID}
func (s *Server) deleteModel(w http.ResponseWriter, r *http.Request) {
	specID, modelID, ok := parseModelIDs(w, r)
	if !ok {
		return
	}

	if err := s.catalog.DeleteModel(r.Context(), specID, modelID); err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

// getModelProperties handles GET .../models/{modelID}/properties
func (s *Server) getModelProperties(w http.ResponseWriter, r *http.Request) {
	specID, modelID, ok := parseModelIDs(w, r)
	if !ok {
		return
	}

	list, err := s.catalog.GetModelProperties(r.Context(), specID, modelID)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteSuccess(w, list)
}

func parseModelIDs(w http.ResponseWriter, r *http.Request) (specID, modelID int64, ok bool) {
	if specID, ok = httputil.ParsePathInt64OrError(w, r, "specID"); !ok {
		return
	}
	modelID, ok = httputil.ParsePathInt64OrError(w, r, "modelID")
	return
}
