package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/specbook/pkg/catalog"
	"github.com/platinummonkey/specbook/pkg/httputil"
	"github.com/platinummonkey/specbook/pkg/model"
)

// listVerbs handles GET .../paths/{pathID}/verbs
func (s *Server) listVerbs(w http.ResponseWriter, r *http.Request) {
	specID, pathID, ok := parsePathIDs(w, r)
	if !ok {
		return
	}

	verbs, err := s.catalog.ListVerbs(r.Context(), specID, pathID, sortOrder(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteSuccess(w, verbs)
}

// createVerb handles POST .../paths/{pathID}/verbs. The three texts are
// decoded into property lists in the same transaction.
func (s *Server) createVerb(w http.ResponseWriter, r *http.Request) {
	specID, pathID, ok := parsePathIDs(w, r)
	if !ok {
		return
	}

	var v model.Verb
	if !httputil.ParseJSONOrError(w, r, &v) {
		return
	}
	v.ID = 0
	v.PathID = pathID

	if err := s.catalog.CreateVerb(r.Context(), specID, &v); err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteCreated(w, &v)
}

// getVerb handles GET .../verbs/{verbID}
func (s *Server) getVerb(w http.ResponseWriter, r *http.Request) {
	specID, pathID, verbID, ok := parseVerbIDs(w, r)
	if !ok {
		return
	}

	v, err := s.catalog.GetVerb(r.Context(), specID, pathID, verbID)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteSuccess(w, v)
}

// updateVerb handles PUT .../verbs/{verbID}
func (s *Server) updateVerb(w http.ResponseWriter, r *http.Request) {
	specID, pathID, verbID, ok := parseVerbIDs(w, r)
	if !ok {
		return
	}

	v, err := s.catalog.GetVerb(r.Context(), specID, pathID, verbID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !httputil.ParseJSONOrError(w, r, v) {
		return
	}
	v.ID = verbID
	v.PathID = pathID

	if err := s.catalog.UpdateVerb(r.Context(), specID, v); err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteSuccess(w, v)
}

// deleteVerb handles DELETE .../verbs/{verbID}
func (s *Server) deleteVerb(w http.ResponseWriter, r *http.Request) {
	specID, pathID, verbID, ok := parseVerbIDs(w, r)
	if !ok {
		return
	}

	if err := s.catalog.DeleteVerb(r.Context(), specID, pathID, verbID); err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

// getVerbProperties handles GET .../verbs/{verbID}/properties/{kind}
func (s *Server) getVerbProperties(w http.ResponseWriter, r *http.Request) {
	specID, pathID, verbID, ok := parseVerbIDs(w, r)
	if !ok {
		return
	}
	kind, err := catalog.ParseKind(mux.Vars(r)["kind"])
	if err != nil {
		writeError(w, err)
		return
	}

	list, err := s.catalog.GetVerbProperties(r.Context(), specID, pathID, verbID, kind)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteSuccess(w, list)
}

// setVerbProperties handles PUT .../verbs/{verbID}/properties/{kind}. The
// body is the edited text, raw or as {"text": "..."}.
func (s *Server) setVerbProperties(w http.ResponseWriter, r *http.Request) {
	specID, pathID, verbID, ok := parseVerbIDs(w, r)
	if !ok {
		return
	}
	kind, err := catalog.ParseKind(mux.Vars(r)["kind"])
	if err != nil {
		writeError(w, err)
		return
	}
	text, ok := httputil.ParseTextOrError(w, r)
	if !ok {
		return
	}

	list, err := s.catalog.SetVerbText(r.Context(), specID, pathID, verbID, kind, text)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteSuccess(w, list)
}

func parseVerbIDs(w http.ResponseWriter, r *http.Request) (specID, pathID, verbID int64, ok bool) {
	if specID, pathID, ok = parsePathIDs(w, r); !ok {
		return
	}
	verbID, ok = httputil.ParsePathInt64OrError(w, r, "verbID")
	return
}
