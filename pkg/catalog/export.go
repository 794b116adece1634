package catalog

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/platinummonkey/specbook/pkg/cache"
	"github.com/platinummonkey/specbook/pkg/observability"
	"github.com/platinummonkey/specbook/pkg/storage"
	"github.com/platinummonkey/specbook/pkg/swagger"
)

// Document assembles the swagger document of a specification as seen by
// editions, or by the default editions when none are given
func (s *Service) Document(ctx context.Context, specID int64, editions []string) (*swagger.Document, error) {
	g, err := s.store.LoadGraph(ctx, specID, storage.CreationOrder())
	if err != nil {
		return nil, err
	}
	return swagger.Assemble(g, s.editions(editions)), nil
}

func (s *Service) editions(requested []string) []string {
	for _, e := range requested {
		if strings.TrimSpace(e) != "" {
			return swagger.Editions(requested)
		}
	}
	return swagger.Editions(s.config.DefaultEditions)
}

// Export renders the document of a specification in format. Renderings are
// served from the document cache until the specification changes.
func (s *Service) Export(ctx context.Context, specID int64, editions []string, format swagger.Format) (body []byte, err error) {
	editions = s.editions(editions)
	ctx, span := observability.StartSpan(ctx, "Catalog.Export",
		attribute.Int64("specification.id", specID),
		attribute.StringSlice("editions", editions),
		attribute.String("format", string(format)),
	)
	defer func() { observability.EndSpan(span, err) }()

	// The generation is read before the graph so a write committed during
	// rendering leaves this document under a key nobody reads.
	gen, genErr := s.docs.Generation(ctx, specID)
	if genErr != nil {
		s.logger.WithError(genErr).WithField("specification_id", specID).Warn("cache generation unavailable, rendering uncached")
	}
	key := cache.DocumentKey(specID, gen, editions, string(format))
	if genErr == nil {
		if body, ok, err := s.docs.Get(ctx, key); err == nil && ok {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return body, nil
		}
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	start := time.Now()
	defer func() { s.metrics.RecordExport(ctx, string(format), len(body), time.Since(start), err) }()

	doc, err := s.Document(ctx, specID, editions)
	if err != nil {
		return nil, err
	}
	body, err = swagger.Render(doc, format)
	if err != nil {
		return nil, err
	}

	if genErr == nil {
		if err := s.docs.Set(ctx, key, body); err != nil {
			s.logger.WithError(err).WithField("key", key).Warn("failed to cache document")
		}
	}
	return body, nil
}
