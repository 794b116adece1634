package catalog

import (
	"context"

	"github.com/platinummonkey/specbook/pkg/importer"
	"github.com/platinummonkey/specbook/pkg/storage"
)

// ImportEndpoints loads a vendor endpoint listing into a specification in
// one transaction. Nothing is stored when any row fails.
func (s *Service) ImportEndpoints(ctx context.Context, specID int64, data string) (*importer.Summary, error) {
	endpoints := importer.ParseEndpoints(data)

	var summary *importer.Summary
	err := s.write(ctx, specID, func(tx storage.Tx) error {
		if _, err := tx.GetSpecification(ctx, specID); err != nil {
			return err
		}
		var err error
		summary, err = importer.Import(ctx, tx, specID, endpoints)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"specification_id": specID,
		"rows":             summary.Rows,
		"paths_created":    summary.PathsCreated,
		"verbs_created":    summary.VerbsCreated,
	}).Info("Imported endpoints")
	return summary, nil
}
