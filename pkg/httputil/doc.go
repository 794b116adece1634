// Package httputil provides HTTP utilities for standardized request/response handling.
//
// # Response Helpers
//
//	httputil.WriteJSON(w, http.StatusOK, data)
//	httputil.WriteCreated(w, resource)
//	httputil.WriteBytes(w, http.StatusOK, "application/x-yaml", body)
//
// Service errors map to statuses through WriteModelError: field validation
// failures are 422 with a field list, model.ErrNotFound is 404 and
// model.ErrConflict is 409.
//
// # Request Parsing
//
//	var req CreateSpecificationRequest
//	if !httputil.ParseJSONOrError(w, r, &req) {
//		return // Error response already written
//	}
//
//	specID, ok := httputil.ParsePathInt64OrError(w, r, "specID")
//	text, ok := httputil.ParseTextOrError(w, r) // text/plain or {"text": ...}
//
// # Middleware
//
//	httputil.Chain(
//		httputil.RecoveryMiddleware,
//		httputil.RequestIDMiddleware(logger),
//		httputil.LoggingMiddleware,
//		httputil.MaxBytesMiddleware(10*1024*1024), // 10MB
//	)
package httputil
