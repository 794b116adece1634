package api

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/specbook/pkg/catalog"
	"github.com/platinummonkey/specbook/pkg/httputil"
	"github.com/platinummonkey/specbook/pkg/middleware"
	"github.com/platinummonkey/specbook/pkg/observability"
	"github.com/platinummonkey/specbook/pkg/publish"
	"github.com/platinummonkey/specbook/pkg/storage"
	"github.com/platinummonkey/specbook/pkg/swagger"
)

// DefaultMaxBodyBytes bounds request bodies when Options leaves it unset
const DefaultMaxBodyBytes = 4 << 20

// Publisher uploads the documents of one specification
type Publisher interface {
	Publish(ctx context.Context, specID int64) ([]*publish.Result, error)
}

// Options configures optional collaborators of the server
type Options struct {
	Logger       *observability.Logger
	Metrics      *observability.Metrics
	Publisher    Publisher
	RateLimiter  middleware.Limiter
	MaxBodyBytes int64
}

// Server represents our API server
type Server struct {
	catalog   *catalog.Service
	publisher Publisher
	router    *mux.Router
	logger    *observability.Logger
	metrics   *observability.Metrics
}

// NewServer creates a new API server
func NewServer(svc *catalog.Service, opts Options) *Server {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.Logger == nil {
		opts.Logger = observability.NewLogger(observability.InfoLevel, os.Stdout)
	}

	s := &Server{
		catalog:   svc,
		publisher: opts.Publisher,
		router:    mux.NewRouter(),
		logger:    opts.Logger,
		metrics:   opts.Metrics,
	}

	s.router.Use(
		httputil.RecoveryMiddleware,
		httputil.RequestIDMiddleware(s.logger),
		httputil.LoggingMiddleware,
	)
	if s.metrics != nil {
		s.router.Use(observability.HTTPMetricsMiddleware(s.metrics))
	}
	if opts.RateLimiter != nil {
		s.router.Use(middleware.RateLimitMiddleware(opts.RateLimiter, s.logger))
	}
	s.router.Use(httputil.MaxBytesMiddleware(opts.MaxBodyBytes))

	s.setupRoutes()
	return s
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	// Specification routes
	api.HandleFunc("/specifications", s.listSpecifications).Methods("GET")
	api.HandleFunc("/specifications", s.createSpecification).Methods("POST")
	api.HandleFunc("/specifications/{specID:[0-9]+}", s.getSpecification).Methods("GET")
	api.HandleFunc("/specifications/{specID:[0-9]+}", s.updateSpecification).Methods("PUT")
	api.HandleFunc("/specifications/{specID:[0-9]+}", s.deleteSpecification).Methods("DELETE")
	api.HandleFunc("/specifications/{specID:[0-9]+}/path-parameters", s.getPathParameters).Methods("GET")
	api.HandleFunc("/specifications/{specID:[0-9]+}/path-parameters", s.setPathParameters).Methods("PUT")
	api.HandleFunc("/specifications/{specID:[0-9]+}/publish", s.publishSpecification).Methods("POST")
	api.HandleFunc("/specifications/{specID:[0-9]+}/import", s.importEndpoints).Methods("POST")

	// Path routes
	api.HandleFunc("/specifications/{specID:[0-9]+}/paths", s.listPaths).Methods("GET")
	api.HandleFunc("/specifications/{specID:[0-9]+}/paths", s.createPath).Methods("POST")
	api.HandleFunc("/specifications/{specID:[0-9]+}/paths/{pathID:[0-9]+}", s.getPath).Methods("GET")
	api.HandleFunc("/specifications/{specID:[0-9]+}/paths/{pathID:[0-9]+}", s.updatePath).Methods("PUT")
	api.HandleFunc("/specifications/{specID:[0-9]+}/paths/{pathID:[0-9]+}", s.deletePath).Methods("DELETE")

	// Verb routes
	verbs := "/specifications/{specID:[0-9]+}/paths/{pathID:[0-9]+}/verbs"
	api.HandleFunc(verbs, s.listVerbs).Methods("GET")
	api.HandleFunc(verbs, s.createVerb).Methods("POST")
	api.HandleFunc(verbs+"/{verbID:[0-9]+}", s.getVerb).Methods("GET")
	api.HandleFunc(verbs+"/{verbID:[0-9]+}", s.updateVerb).Methods("PUT")
	api.HandleFunc(verbs+"/{verbID:[0-9]+}", s.deleteVerb).Methods("DELETE")
	api.HandleFunc(verbs+"/{verbID:[0-9]+}/properties/{kind}", s.getVerbProperties).Methods("GET")
	api.HandleFunc(verbs+"/{verbID:[0-9]+}/properties/{kind}", s.setVerbProperties).Methods("PUT")

	// Model routes
	api.HandleFunc("/specifications/{specID:[0-9]+}/models", s.listModels).Methods("GET")
	api.HandleFunc("/specifications/{specID:[0-9]+}/models", s.createModel).Methods("POST")
	api.HandleFunc("/specifications/{specID:[0-9]+}/models/{modelID:[0-9]+}", s.getModel).Methods("GET")
	api.HandleFunc("/specifications/{specID:[0-9]+}/models/{modelID:[0-9]+}", s.updateModel).Methods("PUT")
	api.HandleFunc("/specifications/{specID:[0-9]+}/models/{modelID:[0-9]+}", s.deleteModel).Methods("DELETE")
	api.HandleFunc("/specifications/{specID:[0-9]+}/models/{modelID:[0-9]+}/properties", s.getModelProperties).Methods("GET")

	// Export and Swagger UI
	s.RegisterRoutes(swagger.NewHandlers(s.catalog))
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Router returns the underlying router
func (s *Server) Router() *mux.Router {
	return s.router
}

// RouteRegistrar is an interface for types that can register routes
type RouteRegistrar interface {
	RegisterRoutes(router *mux.Router)
}

// RegisterRoutes registers routes from a RouteRegistrar
func (s *Server) RegisterRoutes(registrar RouteRegistrar) {
	registrar.RegisterRoutes(s.router)
}

// writeError maps service errors to responses. An unknown sort field is the
// caller's mistake.
func writeError(w http.ResponseWriter, err error) {
	var unsortable *storage.ErrUnsortable
	if errors.As(err, &unsortable) {
		httputil.WriteBadRequest(w, unsortable.Error())
		return
	}
	httputil.WriteModelError(w, err)
}

// sortOrder reads the "sort" query parameter, "field" or "-field"
func sortOrder(r *http.Request, defaultField string) storage.SortOrder {
	return storage.ParseSortOrder(httputil.ParseQueryString(r, "sort", defaultField))
}
