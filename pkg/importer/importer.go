package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/platinummonkey/specbook/pkg/model"
)

// Tx is the slice of the repository an import needs
type Tx interface {
	FindPathByURI(ctx context.Context, specID int64, uri string) (*model.Path, error)
	CreatePath(ctx context.Context, p *model.Path) error
	FindVerbByName(ctx context.Context, pathID int64, name string) (*model.Verb, error)
	CreateVerb(ctx context.Context, v *model.Verb) error
}

// Summary counts what an import created
type Summary struct {
	Rows         int `json:"rows"`
	PathsCreated int `json:"paths_created"`
	VerbsCreated int `json:"verbs_created"`
	VerbsExisted int `json:"verbs_existed"`
}

// Import finds or creates a path for every endpoint URI and a verb for
// every endpoint name on that path. Existing verbs are left untouched. The
// first failing row aborts the import; run it inside a transaction.
func Import(ctx context.Context, tx Tx, specID int64, endpoints []*Endpoint) (*Summary, error) {
	summary := &Summary{Rows: len(endpoints)}

	for i, e := range endpoints {
		path, created, err := findOrCreatePath(ctx, tx, specID, e.URI)
		if err != nil {
			return summary, fmt.Errorf("row %d: %w", i+1, err)
		}
		if created {
			summary.PathsCreated++
		}

		_, err = tx.FindVerbByName(ctx, path.ID, e.Name)
		if err == nil {
			summary.VerbsExisted++
			continue
		}
		if !errors.Is(err, model.ErrNotFound) {
			return summary, fmt.Errorf("row %d: %w", i+1, err)
		}

		verb := &model.Verb{
			PathID:     path.ID,
			Method:     e.Method,
			Name:       e.Name,
			Batch:      e.Batch,
			Visibility: e.Visibility,
			Status:     e.Status,
		}
		if err := verb.Validate(); err != nil {
			return summary, fmt.Errorf("row %d: %w", i+1, err)
		}
		if err := tx.CreateVerb(ctx, verb); err != nil {
			return summary, fmt.Errorf("row %d: %w", i+1, err)
		}
		summary.VerbsCreated++
	}

	return summary, nil
}

func findOrCreatePath(ctx context.Context, tx Tx, specID int64, uri string) (*model.Path, bool, error) {
	path, err := tx.FindPathByURI(ctx, specID, uri)
	if err == nil {
		return path, false, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, false, err
	}

	path = &model.Path{SpecificationID: specID, URI: uri}
	if err := path.Validate(); err != nil {
		return nil, false, err
	}
	if err := tx.CreatePath(ctx, path); err != nil {
		return nil, false, err
	}
	return path, true, nil
}
