// Package api provides the HTTP REST API server for the Specbook API
// specification catalog.
//
// # Overview
//
// This package exposes the catalog service as RESTful endpoints. It handles
// specification, path, verb and model management, the text editing of
// property lists, Swagger 2.0 export, publishing to object storage and the
// import of vendor endpoint listings.
//
// # Architecture
//
// The API is built on gorilla/mux. Every request passes through the same
// middleware stack, in order:
//
//   - Recovery: turns handler panics into 500 responses
//   - Request ID: tags the request context and logger with X-Request-ID
//   - Logging: one line per request with status and duration
//   - Metrics: request counts and latencies per route template
//   - Body limit: rejects oversized request bodies
//
// Handlers only translate HTTP into catalog calls. Validation failures map
// to 422, missing entities to 404, uniqueness violations to 409 and unknown
// sort fields to 400.
//
// # Key Types
//
// Server is the API server:
//
//	svc := catalog.NewService(catalog.DefaultConfig(), store, docs, logger, metrics)
//	server := api.NewServer(svc, api.Options{Logger: logger, Metrics: metrics})
//	http.ListenAndServe(":8080", server)
//
// Publisher is optional. Without one, publish requests answer 503.
//
// # API Endpoints
//
//	GET    /api/v1/specifications                          - List specifications (?sort=title|-title|...)
//	POST   /api/v1/specifications                          - Create specification
//	GET    /api/v1/specifications/{id}                     - Get specification
//	PUT    /api/v1/specifications/{id}                     - Update specification
//	DELETE /api/v1/specifications/{id}                     - Delete specification and everything below it
//	GET    /api/v1/specifications/{id}/path-parameters     - Get shared path parameters
//	PUT    /api/v1/specifications/{id}/path-parameters     - Replace path parameters from text
//	POST   /api/v1/specifications/{id}/import              - Import an endpoint listing
//	POST   /api/v1/specifications/{id}/publish             - Upload exported documents
//	GET    /api/v1/specifications/{id}/swagger.json        - Export as JSON (?edition=...)
//	GET    /api/v1/specifications/{id}/swagger.yaml        - Export as YAML (?edition=...)
//
//	GET|POST            /api/v1/specifications/{id}/paths
//	GET|PUT|DELETE      /api/v1/specifications/{id}/paths/{pathID}
//	GET|POST            /api/v1/specifications/{id}/paths/{pathID}/verbs
//	GET|PUT|DELETE      /api/v1/specifications/{id}/paths/{pathID}/verbs/{verbID}
//	GET|PUT             /api/v1/specifications/{id}/paths/{pathID}/verbs/{verbID}/properties/{query|request|response}
//	GET|POST            /api/v1/specifications/{id}/models
//	GET|PUT|DELETE      /api/v1/specifications/{id}/models/{modelID}
//	GET                 /api/v1/specifications/{id}/models/{modelID}/properties
//
// Text bodies are accepted raw or as {"text": "..."} with a JSON content
// type. A text edit answers with the reconciled property list and the
// number of properties updated, inserted and deleted:
//
//	PUT /api/v1/specifications/1/paths/2/verbs/3/properties/query
//	limit	integer	Page size	int32	false
//	cursor	string	Opaque cursor
//
// Updates are partial: the stored entity is read first and the JSON body is
// decoded over it, so omitted fields keep their values.
package api
