package catalog

import (
	"context"

	"github.com/platinummonkey/specbook/pkg/model"
	"github.com/platinummonkey/specbook/pkg/storage"
)

func (s *Service) ListModels(ctx context.Context, specID int64, order storage.SortOrder) ([]*model.CommonModel, error) {
	if _, err := s.store.GetSpecification(ctx, specID); err != nil {
		return nil, err
	}
	return s.store.ListModels(ctx, specID, order)
}

func (s *Service) GetModel(ctx context.Context, specID, modelID int64) (*model.CommonModel, error) {
	return scopedModel(ctx, s.store, specID, modelID)
}

// GetModelProperties returns the properties of a model
func (s *Service) GetModelProperties(ctx context.Context, specID, modelID int64) (*PropertyList, error) {
	m, err := scopedModel(ctx, s.store, specID, modelID)
	if err != nil {
		return nil, err
	}
	props, err := s.store.ListProperties(ctx, modelID, model.KindModelProperty)
	if err != nil {
		return nil, err
	}
	return &PropertyList{ParentID: modelID, Kind: model.KindModelProperty, Text: m.PropertiesText, Properties: props}, nil
}

// CreateModel stores m under m.SpecificationID and reconciles its
// properties with m.PropertiesText
func (s *Service) CreateModel(ctx context.Context, m *model.CommonModel) error {
	if err := m.Validate(); err != nil {
		return err
	}
	records, canonical, err := decodeText(model.KindModelProperty, m.PropertiesText)
	if err != nil {
		return err
	}
	m.PropertiesText = canonical

	return s.write(ctx, m.SpecificationID, func(tx storage.Tx) error {
		if _, err := tx.GetSpecification(ctx, m.SpecificationID); err != nil {
			return err
		}
		if err := tx.CreateModel(ctx, m); err != nil {
			return err
		}
		_, err := s.syncText(ctx, tx, m.ID, model.KindModelProperty, canonical, records)
		return err
	})
}

// UpdateModel rewrites an existing model and reconciles its properties
func (s *Service) UpdateModel(ctx context.Context, m *model.CommonModel) error {
	if err := m.Validate(); err != nil {
		return err
	}
	records, canonical, err := decodeText(model.KindModelProperty, m.PropertiesText)
	if err != nil {
		return err
	}
	m.PropertiesText = canonical

	return s.write(ctx, m.SpecificationID, func(tx storage.Tx) error {
		current, err := scopedModel(ctx, tx, m.SpecificationID, m.ID)
		if err != nil {
			return err
		}
		m.CreatedAt = current.CreatedAt
		if err := tx.UpdateModel(ctx, m); err != nil {
			return err
		}
		_, err = s.syncText(ctx, tx, m.ID, model.KindModelProperty, canonical, records)
		return err
	})
}

// DeleteModel removes a model and its properties. Bodies referencing it by
// name are left as they are.
func (s *Service) DeleteModel(ctx context.Context, specID, modelID int64) error {
	return s.write(ctx, specID, func(tx storage.Tx) error {
		if _, err := scopedModel(ctx, tx, specID, modelID); err != nil {
			return err
		}
		return tx.DeleteModel(ctx, modelID)
	})
}
