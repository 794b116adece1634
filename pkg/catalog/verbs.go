package catalog

import (
	"context"

	"github.com/hashicorp/go-multierror"

	"github.com/platinummonkey/specbook/pkg/model"
	"github.com/platinummonkey/specbook/pkg/storage"
)

func (s *Service) ListVerbs(ctx context.Context, specID, pathID int64, order storage.SortOrder) ([]*model.Verb, error) {
	if _, err := scopedPath(ctx, s.store, specID, pathID); err != nil {
		return nil, err
	}
	return s.store.ListVerbs(ctx, pathID, order)
}

func (s *Service) GetVerb(ctx context.Context, specID, pathID, verbID int64) (*model.Verb, error) {
	return scopedVerb(ctx, s.store, specID, pathID, verbID)
}

type decodedText struct {
	kind    model.PropertyKind
	text    string
	records []*model.Property
}

// decodeVerbTexts decodes the three texts of v, replacing each with its
// canonical form. Every invalid text is reported.
func decodeVerbTexts(v *model.Verb) ([]decodedText, error) {
	var result *multierror.Error
	out := make([]decodedText, 0, len(model.VerbKinds))

	for _, kind := range model.VerbKinds {
		records, canonical, err := decodeText(kind, v.Text(kind))
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		v.SetText(kind, canonical)
		out = append(out, decodedText{kind: kind, text: canonical, records: records})
	}
	return out, result.ErrorOrNil()
}

func (s *Service) syncVerbTexts(ctx context.Context, tx storage.Tx, verbID int64, texts []decodedText) error {
	for _, t := range texts {
		if _, err := s.syncText(ctx, tx, verbID, t.kind, t.text, t.records); err != nil {
			return err
		}
	}
	return nil
}

// CreateVerb stores v on path v.PathID and reconciles its property lists
// with its texts
func (s *Service) CreateVerb(ctx context.Context, specID int64, v *model.Verb) error {
	if err := v.Validate(); err != nil {
		return err
	}
	texts, err := decodeVerbTexts(v)
	if err != nil {
		return err
	}

	return s.write(ctx, specID, func(tx storage.Tx) error {
		if _, err := scopedPath(ctx, tx, specID, v.PathID); err != nil {
			return err
		}
		if err := tx.CreateVerb(ctx, v); err != nil {
			return err
		}
		return s.syncVerbTexts(ctx, tx, v.ID, texts)
	})
}

// UpdateVerb rewrites an existing verb. Its property lists are reconciled
// with its texts, so unchanged texts cause no property writes.
func (s *Service) UpdateVerb(ctx context.Context, specID int64, v *model.Verb) error {
	if err := v.Validate(); err != nil {
		return err
	}
	texts, err := decodeVerbTexts(v)
	if err != nil {
		return err
	}

	return s.write(ctx, specID, func(tx storage.Tx) error {
		current, err := scopedVerb(ctx, tx, specID, v.PathID, v.ID)
		if err != nil {
			return err
		}
		v.CreatedAt = current.CreatedAt
		if err := tx.UpdateVerb(ctx, v); err != nil {
			return err
		}
		return s.syncVerbTexts(ctx, tx, v.ID, texts)
	})
}

// DeleteVerb removes a verb and its properties
func (s *Service) DeleteVerb(ctx context.Context, specID, pathID, verbID int64) error {
	return s.write(ctx, specID, func(tx storage.Tx) error {
		if _, err := scopedVerb(ctx, tx, specID, pathID, verbID); err != nil {
			return err
		}
		return tx.DeleteVerb(ctx, verbID)
	})
}
