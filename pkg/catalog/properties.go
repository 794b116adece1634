package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/platinummonkey/specbook/pkg/model"
	"github.com/platinummonkey/specbook/pkg/propsync"
	"github.com/platinummonkey/specbook/pkg/storage"
	"github.com/platinummonkey/specbook/pkg/textcodec"
)

// PropertyList is one property list of a parent entity together with the
// text it was edited through
type PropertyList struct {
	ParentID   int64              `json:"parent_id"`
	Kind       model.PropertyKind `json:"kind"`
	Text       string             `json:"text"`
	Properties []*model.Property  `json:"properties"`
	Changes    *Changes           `json:"changes,omitempty"`
}

// Changes counts the mutations a text edit applied
type Changes struct {
	Updated  int `json:"updated"`
	Inserted int `json:"inserted"`
	Deleted  int `json:"deleted"`
}

// ParseKind maps the short names used in URLs to verb property kinds
func ParseKind(s string) (model.PropertyKind, error) {
	switch s {
	case "query", string(model.KindQueryParameter):
		return model.KindQueryParameter, nil
	case "request", string(model.KindRequestBody):
		return model.KindRequestBody, nil
	case "response", string(model.KindResponseBody):
		return model.KindResponseBody, nil
	}
	return "", model.NewFieldError("kind", "must be one of query, request, response; got %q", s)
}

// decodeText turns an edited text into the records to reconcile and the
// canonical text to store. A body text naming models holds no properties;
// a request may name several models, a response only one.
func decodeText(kind model.PropertyKind, text string) ([]*model.Property, string, error) {
	if (kind == model.KindRequestBody || kind == model.KindResponseBody) && textcodec.IsModelReference(text) {
		names := textcodec.Lines(text)
		if kind == model.KindResponseBody && len(names) > 1 {
			return nil, "", model.NewFieldError(string(kind), "names %d models; a response references at most one", len(names))
		}
		return []*model.Property{}, strings.Join(names, "\n"), nil
	}

	records, err := textcodec.DecodeStrict(kind, text)
	if err != nil {
		return nil, "", fmt.Errorf("invalid %s text: %w", kind, err)
	}
	return records, textcodec.Encode(records), nil
}

// syncText reconciles the (parentID, kind) list with records inside tx and
// returns the list as persisted
func (s *Service) syncText(ctx context.Context, tx storage.Tx, parentID int64, kind model.PropertyKind, text string, records []*model.Property) (list *PropertyList, err error) {
	start := time.Now()
	var m *propsync.Mutations
	defer func() {
		var u, i, d int
		if m != nil {
			u, i, d = len(m.Updates), len(m.Inserts), len(m.Deletes)
		}
		s.metrics.RecordSync(ctx, string(kind), u, i, d, time.Since(start), err)
	}()

	m, err = propsync.Sync(ctx, tx, parentID, kind, records)
	if err != nil {
		return nil, err
	}

	props, err := tx.ListProperties(ctx, parentID, kind)
	if err != nil {
		return nil, err
	}

	if !m.Empty() {
		s.logger.WithFields(map[string]interface{}{
			"parent_id": parentID,
			"kind":      kind,
			"updated":   len(m.Updates),
			"inserted":  len(m.Inserts),
			"deleted":   len(m.Deletes),
		}).Debug("Reconciled property list")
	}

	return &PropertyList{
		ParentID:   parentID,
		Kind:       kind,
		Text:       text,
		Properties: props,
		Changes:    &Changes{Updated: len(m.Updates), Inserted: len(m.Inserts), Deleted: len(m.Deletes)},
	}, nil
}

// GetPathParameters returns the specification-level path parameters
func (s *Service) GetPathParameters(ctx context.Context, specID int64) (*PropertyList, error) {
	if _, err := s.store.GetSpecification(ctx, specID); err != nil {
		return nil, err
	}
	props, err := s.store.ListProperties(ctx, specID, model.KindPathParameter)
	if err != nil {
		return nil, err
	}
	return &PropertyList{
		ParentID:   specID,
		Kind:       model.KindPathParameter,
		Text:       textcodec.Encode(props),
		Properties: props,
	}, nil
}

// SetPathParametersText replaces the path parameters with those in text
func (s *Service) SetPathParametersText(ctx context.Context, specID int64, text string) (*PropertyList, error) {
	records, canonical, err := decodeText(model.KindPathParameter, text)
	if err != nil {
		return nil, err
	}

	var list *PropertyList
	err = s.write(ctx, specID, func(tx storage.Tx) error {
		if _, err := tx.GetSpecification(ctx, specID); err != nil {
			return err
		}
		list, err = s.syncText(ctx, tx, specID, model.KindPathParameter, canonical, records)
		return err
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

// GetVerbProperties returns one property list of a verb
func (s *Service) GetVerbProperties(ctx context.Context, specID, pathID, verbID int64, kind model.PropertyKind) (*PropertyList, error) {
	v, err := scopedVerb(ctx, s.store, specID, pathID, verbID)
	if err != nil {
		return nil, err
	}
	props, err := s.store.ListProperties(ctx, verbID, kind)
	if err != nil {
		return nil, err
	}
	return &PropertyList{ParentID: verbID, Kind: kind, Text: v.Text(kind), Properties: props}, nil
}

// SetVerbText stores text as the verb's kind text and reconciles the
// matching property list with it
func (s *Service) SetVerbText(ctx context.Context, specID, pathID, verbID int64, kind model.PropertyKind, text string) (*PropertyList, error) {
	if !kind.Valid() || kind.Parent() != model.ParentVerb {
		return nil, model.NewFieldError("kind", "%s is not a verb property list", kind)
	}
	records, canonical, err := decodeText(kind, text)
	if err != nil {
		return nil, err
	}

	var list *PropertyList
	err = s.write(ctx, specID, func(tx storage.Tx) error {
		v, err := scopedVerb(ctx, tx, specID, pathID, verbID)
		if err != nil {
			return err
		}
		v.SetText(kind, canonical)
		if err := tx.UpdateVerb(ctx, v); err != nil {
			return err
		}
		list, err = s.syncText(ctx, tx, verbID, kind, canonical, records)
		return err
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}
