package catalog

import (
	"context"

	"github.com/platinummonkey/specbook/pkg/model"
	"github.com/platinummonkey/specbook/pkg/storage"
)

// DefaultSpecificationOrder lists specifications by title
var DefaultSpecificationOrder = storage.Asc("title")

func (s *Service) ListSpecifications(ctx context.Context, order storage.SortOrder) ([]*model.Specification, error) {
	return s.store.ListSpecifications(ctx, order)
}

func (s *Service) GetSpecification(ctx context.Context, id int64) (*model.Specification, error) {
	return s.store.GetSpecification(ctx, id)
}

// CreateSpecification validates and stores spec, assigning its ID
func (s *Service) CreateSpecification(ctx context.Context, spec *model.Specification) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	err := s.store.InTx(ctx, func(tx storage.Tx) error {
		return tx.CreateSpecification(ctx, spec)
	})
	if err != nil {
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"specification_id": spec.ID,
		"title":            spec.Title,
		"version":          spec.Version,
	}).Info("Created specification")
	s.refreshCount(ctx)
	return nil
}

// UpdateSpecification rewrites the scalar fields of an existing
// specification
func (s *Service) UpdateSpecification(ctx context.Context, spec *model.Specification) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	return s.write(ctx, spec.ID, func(tx storage.Tx) error {
		current, err := tx.GetSpecification(ctx, spec.ID)
		if err != nil {
			return err
		}
		spec.CreatedAt = current.CreatedAt
		return tx.UpdateSpecification(ctx, spec)
	})
}

// DeleteSpecification removes a specification and everything it owns
func (s *Service) DeleteSpecification(ctx context.Context, id int64) error {
	err := s.write(ctx, id, func(tx storage.Tx) error {
		return tx.DeleteSpecification(ctx, id)
	})
	if err != nil {
		return err
	}

	s.logger.WithField("specification_id", id).Info("Deleted specification")
	s.refreshCount(ctx)
	return nil
}

func (s *Service) refreshCount(ctx context.Context) {
	if s.metrics == nil {
		return
	}
	specs, err := s.store.ListSpecifications(ctx, storage.Asc("id"))
	if err != nil {
		s.logger.WithError(err).Warn("failed to count specifications")
		return
	}
	s.metrics.SetSpecifications(len(specs))
}
