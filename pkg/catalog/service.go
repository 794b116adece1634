// Package catalog is the application service behind the HTTP API and the
// command line tools. It validates input, runs every mutation in one store
// transaction, reconciles property texts through propsync, and keeps the
// rendered document cache coherent with the stored graph.
package catalog

import (
	"context"

	"github.com/platinummonkey/specbook/pkg/cache"
	"github.com/platinummonkey/specbook/pkg/model"
	"github.com/platinummonkey/specbook/pkg/observability"
	"github.com/platinummonkey/specbook/pkg/storage"
	"github.com/platinummonkey/specbook/pkg/swagger"
)

// Config for the catalog service
type Config struct {
	// DefaultEditions applies to exports that name no edition
	DefaultEditions []string `yaml:"default_editions"`
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() Config {
	return Config{DefaultEditions: []string{swagger.DefaultEdition}}
}

// Service manages specifications and renders them
type Service struct {
	store   storage.Store
	docs    cache.Cache
	config  Config
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewService creates a catalog service. docs and metrics may be nil.
func NewService(cfg Config, store storage.Store, docs cache.Cache, logger *observability.Logger, metrics *observability.Metrics) *Service {
	if docs == nil {
		docs = cache.Nop{}
	}
	return &Service{
		store:   store,
		docs:    docs,
		config:  cfg,
		logger:  logger,
		metrics: metrics,
	}
}

// invalidate advances the generation of a specification and drops its cached
// renderings. A failure is logged; the entries expire on their own.
func (s *Service) invalidate(ctx context.Context, specID int64) {
	if err := s.docs.BumpGeneration(ctx, specID); err != nil {
		s.logger.WithError(err).WithField("specification_id", specID).Warn("cache generation bump failed")
	}
	if err := s.docs.InvalidatePrefix(ctx, cache.SpecPrefix(specID)); err != nil {
		s.logger.WithError(err).WithField("specification_id", specID).Warn("cache invalidation failed")
	}
}

// write runs fn in a transaction and invalidates specID once it commits
func (s *Service) write(ctx context.Context, specID int64, fn func(tx storage.Tx) error) error {
	if err := s.store.InTx(ctx, fn); err != nil {
		return err
	}
	s.invalidate(ctx, specID)
	return nil
}

func scopedPath(ctx context.Context, r storage.Reader, specID, pathID int64) (*model.Path, error) {
	p, err := r.GetPath(ctx, pathID)
	if err != nil {
		return nil, err
	}
	if p.SpecificationID != specID {
		return nil, model.NotFoundf("path %d in specification %d", pathID, specID)
	}
	return p, nil
}

func scopedVerb(ctx context.Context, r storage.Reader, specID, pathID, verbID int64) (*model.Verb, error) {
	if _, err := scopedPath(ctx, r, specID, pathID); err != nil {
		return nil, err
	}
	v, err := r.GetVerb(ctx, verbID)
	if err != nil {
		return nil, err
	}
	if v.PathID != pathID {
		return nil, model.NotFoundf("verb %d on path %d", verbID, pathID)
	}
	return v, nil
}

func scopedModel(ctx context.Context, r storage.Reader, specID, modelID int64) (*model.CommonModel, error) {
	m, err := r.GetModel(ctx, modelID)
	if err != nil {
		return nil, err
	}
	if m.SpecificationID != specID {
		return nil, model.NotFoundf("model %d in specification %d", modelID, specID)
	}
	return m, nil
}
