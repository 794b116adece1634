// Package publish uploads exported swagger documents to object storage so
// they can be served statically. Documents land under
// <prefix>/<title>/<version>/swagger.<format> with title and version
// path-escaped.
package publish

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/specbook/pkg/model"
	"github.com/platinummonkey/specbook/pkg/observability"
	"github.com/platinummonkey/specbook/pkg/storage"
	"github.com/platinummonkey/specbook/pkg/swagger"
)

// Config for the S3 publisher
type Config struct {
	Endpoint     string `yaml:"endpoint"`
	Region       string `yaml:"region"`
	Bucket       string `yaml:"bucket"`
	Prefix       string `yaml:"prefix"`
	AccessKey    string `yaml:"access_key"`
	SecretKey    string `yaml:"secret_key"`
	UsePathStyle bool   `yaml:"use_path_style"`
	CreateBucket bool   `yaml:"create_bucket"`

	// Schedule is a cron expression for the background publisher
	Schedule    string           `yaml:"schedule"`
	Parallelism int              `yaml:"parallelism"`
	Editions    []string         `yaml:"editions"`
	Formats     []swagger.Format `yaml:"formats"`
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() Config {
	return Config{
		Region:      "us-east-1",
		Bucket:      "specbook",
		Prefix:      "specs",
		Schedule:    "@every 1h",
		Parallelism: 4,
		Formats:     []swagger.Format{swagger.FormatJSON},
	}
}

// Source supplies the specifications and their rendered documents
type Source interface {
	swagger.Exporter
	GetSpecification(ctx context.Context, id int64) (*model.Specification, error)
	ListSpecifications(ctx context.Context, order storage.SortOrder) ([]*model.Specification, error)
}

// Result describes one uploaded document
type Result struct {
	SpecificationID int64  `json:"specification_id"`
	Key             string `json:"key"`
	Size            int    `json:"size"`
	Checksum        string `json:"checksum"`
}

// Publisher renders specifications and uploads them
type Publisher struct {
	source  Source
	store   ObjectStore
	config  Config
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewPublisher creates a publisher. metrics may be nil.
func NewPublisher(source Source, store ObjectStore, cfg Config, logger *observability.Logger, metrics *observability.Metrics) *Publisher {
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 1
	}
	if len(cfg.Formats) == 0 {
		cfg.Formats = []swagger.Format{swagger.FormatJSON}
	}
	return &Publisher{source: source, store: store, config: cfg, logger: logger, metrics: metrics}
}

// Key returns the object key for a specification rendered in f
func Key(prefix string, spec *model.Specification, f swagger.Format) string {
	return path.Join(prefix, keySegment(spec.Title), keySegment(spec.Version), f.Filename())
}

// keySegment path-escapes s so distinct titles and versions never share a
// key. Dot segments are escaped as well since path.Join would resolve them.
func keySegment(s string) string {
	if s == "." || s == ".." {
		return strings.ReplaceAll(s, ".", "%2E")
	}
	return url.PathEscape(s)
}

func specAttr(id int64) attribute.KeyValue {
	return attribute.Int64("specification.id", id)
}

// Publish uploads every configured format of one specification
func (p *Publisher) Publish(ctx context.Context, specID int64) ([]*Result, error) {
	spec, err := p.source.GetSpecification(ctx, specID)
	if err != nil {
		return nil, err
	}
	return p.publish(ctx, spec)
}

func (p *Publisher) publish(ctx context.Context, spec *model.Specification) (results []*Result, err error) {
	ctx, span := observability.StartSpan(ctx, "Publisher.Publish", specAttr(spec.ID))
	defer func() { observability.EndSpan(span, err) }()

	for _, f := range p.config.Formats {
		r, err := p.upload(ctx, spec, f)
		if err != nil {
			return results, err
		}
		results = append(results, r)
	}
	return results, nil
}

func (p *Publisher) upload(ctx context.Context, spec *model.Specification, f swagger.Format) (result *Result, err error) {
	start := time.Now()
	defer func() { p.metrics.RecordPublish(ctx, time.Since(start), err) }()

	body, err := p.source.Export(ctx, spec.ID, p.config.Editions, f)
	if err != nil {
		return nil, fmt.Errorf("failed to export %s: %w", spec.DisplayName(), err)
	}

	key := Key(p.config.Prefix, spec, f)
	checksum, err := p.store.PutObject(ctx, key, body, f.ContentType())
	if err != nil {
		return nil, fmt.Errorf("failed to publish %s: %w", spec.DisplayName(), err)
	}

	p.logger.WithFields(map[string]interface{}{
		"specification_id": spec.ID,
		"key":              key,
		"size":             len(body),
	}).Info("Published specification")

	return &Result{SpecificationID: spec.ID, Key: key, Size: len(body), Checksum: checksum}, nil
}

// PublishAll publishes every specification with bounded parallelism. The
// first failure cancels the remaining uploads; results gathered so far are
// returned alongside the error.
func (p *Publisher) PublishAll(ctx context.Context) ([]*Result, error) {
	specs, err := p.source.ListSpecifications(ctx, storage.Asc("id"))
	if err != nil {
		return nil, fmt.Errorf("failed to list specifications: %w", err)
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(p.config.Parallelism)

	perSpec := make([][]*Result, len(specs))
	var mu sync.Mutex

	for i, spec := range specs {
		i, spec := i, spec
		eg.Go(func() (err error) {
			defer func() {
				if perr := observability.MustRecover(recover()); perr != nil {
					err = perr
				}
			}()

			results, err := p.publish(ctx, spec)

			mu.Lock()
			perSpec[i] = results
			mu.Unlock()

			return err
		})
	}

	err = eg.Wait()

	var all []*Result
	for _, results := range perSpec {
		all = append(all, results...)
	}
	return all, err
}
