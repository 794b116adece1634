package api

import (
	"net/http"

	"github.com/platinummonkey/specbook/pkg/catalog"
	"github.com/platinummonkey/specbook/pkg/httputil"
	"github.com/platinummonkey/specbook/pkg/model"
)

// listSpecifications handles GET /specifications
func (s *Server) listSpecifications(w http.ResponseWriter, r *http.Request) {
	specs, err := s.catalog.ListSpecifications(r.Context(), sortOrder(r, catalog.DefaultSpecificationOrder.Field))
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteSuccess(w, specs)
}

// createSpecification handles POST /specifications
func (s *Server) createSpecification(w http.ResponseWriter, r *http.Request) {
	var spec model.Specification
	if !httputil.ParseJSONOrError(w, r, &spec) {
		return
	}
	spec.ID = 0

	if err := s.catalog.CreateSpecification(r.Context(), &spec); err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteCreated(w, &spec)
}

// getSpecification handles GET /specifications/{specID}
func (s *Server) getSpecification(w http.ResponseWriter, r *http.Request) {
	specID, ok := httputil.ParsePathInt64OrError(w, r, "specID")
	if !ok {
		return
	}

	spec, err := s.catalog.GetSpecification(r.Context(), specID)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteSuccess(w, spec)
}

// updateSpecification handles PUT /specifications/{specID}. Fields missing
// from the body keep their stored values.
func (s *Server) updateSpecification(w http.ResponseWriter, r *http.Request) {
	specID, ok := httputil.ParsePathInt64OrError(w, r, "specID")
	if !ok {
		return
	}

	spec, err := s.catalog.GetSpecification(r.Context(), specID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !httputil.ParseJSONOrError(w, r, spec) {
		return
	}
	spec.ID = specID

	if err := s.catalog.UpdateSpecification(r.Context(), spec); err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteSuccess(w, spec)
}

// deleteSpecification handles DELETE /specifications/{specID}
func (s *Server) deleteSpecification(w http.ResponseWriter, r *http.Request) {
	specID, ok := httputil.ParsePathInt64OrError(w, r, "specID")
	if !ok {
		return
	}

	if err := s.catalog.DeleteSpecification(r.Context(), specID); err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

// getPathParameters handles GET /specifications/{specID}/path-parameters
func (s *Server) getPathParameters(w http.ResponseWriter, r *http.Request) {
	specID, ok := httputil.ParsePathInt64OrError(w, r, "specID")
	if !ok {
		return
	}

	list, err := s.catalog.GetPathParameters(r.Context(), specID)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteSuccess(w, list)
}

// setPathParameters handles PUT /specifications/{specID}/path-parameters
func (s *Server) setPathParameters(w http.ResponseWriter, r *http.Request) {
	specID, ok := httputil.ParsePathInt64OrError(w, r, "specID")
	if !ok {
		return
	}
	text, ok := httputil.ParseTextOrError(w, r)
	if !ok {
		return
	}

	list, err := s.catalog.SetPathParametersText(r.Context(), specID, text)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteSuccess(w, list)
}

// listPaths handles GET /specifications/{specID}/paths
func (s *Server) listPaths(w http.ResponseWriter, r *http.Request) {
	specID, ok := httputil.ParsePathInt64OrError(w, r, "specID")
	if !ok {
		return
	}

	paths, err := s.catalog.ListPaths(r.Context(), specID, sortOrder(r, "uri"))
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteSuccess(w, paths)
}

// createPath handles POST /specifications/{specID}/paths
func (s *Server) createPath(w http.ResponseWriter, r *http.Request) {
	specID, ok := httputil.ParsePathInt64OrError(w, r, "specID")
	if !ok {
		return
	}

	var p model.Path
	if !httputil.ParseJSONOrError(w, r, &p) {
		return
	}
	p.ID = 0
	p.SpecificationID = specID

	if err := s.catalog.CreatePath(r.Context(), &p); err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteCreated(w, &p)
}

// getPath handles GET /specifications/{specID}/paths/{pathID}
func (s *Server) getPath(w http.ResponseWriter, r *http.Request) {
	specID, pathID, ok := parsePathIDs(w, r)
	if !ok {
		return
	}

	p, err := s.catalog.GetPath(r.Context(), specID, pathID)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteSuccess(w, p)
}

// updatePath handles PUT /specifications/{specID}/paths/{pathID}
func (s *Server) updatePath(w http.ResponseWriter, r *http.Request) {
	specID, pathID, ok := parsePathIDs(w, r)
	if !ok {
		return
	}

	p, err := s.catalog.GetPath(r.Context(), specID, pathID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !httputil.ParseJSONOrError(w, r, p) {
		return
	}
	p.ID = pathID
	p.SpecificationID = specID

	if err := s.catalog.UpdatePath(r.Context(), p); err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteSuccess(w, p)
}

// deletePath handles DELETE /specifications/{specID}/paths/{pathID}
func (s *Server) deletePath(w http.ResponseWriter, r *http.Request) {
	specID, pathID, ok := parsePathIDs(w, r)
	if !ok {
		return
	}

	if err := s.catalog.DeletePath(r.Context(), specID, pathID); err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

func parsePathIDs(w http.ResponseWriter, r *http.Request) (specID, pathID int64, ok bool) {
	if specID, ok = httputil.ParsePathInt64OrError(w, r, "specID"); !ok {
		return
	}
	pathID, ok = httputil.ParsePathInt64OrError(w, r, "pathID")
	return
}
