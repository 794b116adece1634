package catalog

import (
	"context"

	"github.com/platinummonkey/specbook/pkg/model"
	"github.com/platinummonkey/specbook/pkg/storage"
)

func (s *Service) ListPaths(ctx context.Context, specID int64, order storage.SortOrder) ([]*model.Path, error) {
	if _, err := s.store.GetSpecification(ctx, specID); err != nil {
		return nil, err
	}
	return s.store.ListPaths(ctx, specID, order)
}

func (s *Service) GetPath(ctx context.Context, specID, pathID int64) (*model.Path, error) {
	return scopedPath(ctx, s.store, specID, pathID)
}

// CreatePath stores p under p.SpecificationID
func (s *Service) CreatePath(ctx context.Context, p *model.Path) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return s.write(ctx, p.SpecificationID, func(tx storage.Tx) error {
		if _, err := tx.GetSpecification(ctx, p.SpecificationID); err != nil {
			return err
		}
		return tx.CreatePath(ctx, p)
	})
}

// UpdatePath changes the URI of a path
func (s *Service) UpdatePath(ctx context.Context, p *model.Path) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return s.write(ctx, p.SpecificationID, func(tx storage.Tx) error {
		current, err := scopedPath(ctx, tx, p.SpecificationID, p.ID)
		if err != nil {
			return err
		}
		p.CreatedAt = current.CreatedAt
		return tx.UpdatePath(ctx, p)
	})
}

// DeletePath removes a path, its verbs and their properties
func (s *Service) DeletePath(ctx context.Context, specID, pathID int64) error {
	return s.write(ctx, specID, func(tx storage.Tx) error {
		if _, err := scopedPath(ctx, tx, specID, pathID); err != nil {
			return err
		}
		return tx.DeletePath(ctx, pathID)
	})
}
