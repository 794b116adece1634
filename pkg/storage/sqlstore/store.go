package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/platinummonkey/specbook/pkg/model"
	"github.com/platinummonkey/specbook/pkg/observability"
	"github.com/platinummonkey/specbook/pkg/storage"
)

var _ storage.Store = (*Store)(nil)

// Store implements storage.Store on a relational database. Writes and
// transactions use the primary; plain reads rotate across replicas.
type Store struct {
	reader
	primary *sql.DB
	cm      *ConnectionManager
	now     func() time.Time
}

// Open connects to cfg's database and applies the schema when cfg.Migrate
// is set
func Open(ctx context.Context, cfg storage.Config, logger *observability.Logger) (*Store, error) {
	cm, err := NewConnectionManager(cfg, logger)
	if err != nil {
		return nil, err
	}

	if cfg.Migrate {
		if err := Migrate(ctx, cm.Primary(), cm.Dialect()); err != nil {
			cm.Close()
			return nil, err
		}
		logger.WithField("driver", cm.Dialect().Name).Info("schema migrated")
	}

	return &Store{
		reader:  reader{conn: func() queryer { return cm.Replica() }, dialect: cm.Dialect()},
		primary: cm.Primary(),
		cm:      cm,
		now:     defaultNow,
	}, nil
}

// NewWithDB wraps an existing database handle. All reads and writes go to db.
func NewWithDB(db *sql.DB, dialect *Dialect) *Store {
	return &Store{
		reader:  reader{conn: func() queryer { return db }, dialect: dialect},
		primary: db,
		now:     defaultNow,
	}
}

func defaultNow() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// ConnectionManager returns the pools behind the store, or nil when the store
// was built with NewWithDB
func (s *Store) ConnectionManager() *ConnectionManager {
	return s.cm
}

// InTx runs fn in a transaction on the primary
func (s *Store) InTx(ctx context.Context, fn func(tx storage.Tx) error) (err error) {
	tx, err := s.primary.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
		if err != nil {
			tx.Rollback()
		}
	}()

	if err = fn(newTxRepo(tx, s.dialect, s.now)); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// LoadGraph reads the specification and everything it owns inside one
// transaction so the snapshot is consistent
func (s *Store) LoadGraph(ctx context.Context, specID int64, order storage.GraphOrder) (g *model.Graph, err error) {
	tx, err := s.primary.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	r := &reader{conn: func() queryer { return tx }, dialect: s.dialect}

	spec, err := r.GetSpecification(ctx, specID)
	if err != nil {
		return nil, err
	}
	g = &model.Graph{Specification: spec}

	if g.PathParameters, err = r.ListProperties(ctx, specID, model.KindPathParameter); err != nil {
		return nil, err
	}

	models, err := r.ListModels(ctx, specID, order.Models)
	if err != nil {
		return nil, err
	}
	for _, m := range models {
		props, err := r.ListProperties(ctx, m.ID, model.KindModelProperty)
		if err != nil {
			return nil, err
		}
		g.Models = append(g.Models, &model.ModelNode{Model: m, Properties: props})
	}

	paths, err := r.ListPaths(ctx, specID, order.Paths)
	if err != nil {
		return nil, err
	}
	for _, p := range paths {
		verbs, err := r.ListVerbs(ctx, p.ID, order.Verbs)
		if err != nil {
			return nil, err
		}
		node := &model.PathNode{Path: p}
		for _, v := range verbs {
			vn := &model.VerbNode{Verb: v}
			for _, kind := range model.VerbKinds {
				props, err := r.ListProperties(ctx, v.ID, kind)
				if err != nil {
					return nil, err
				}
				vn.SetProperties(kind, props)
			}
			node.Verbs = append(node.Verbs, vn)
		}
		g.Paths = append(g.Paths, node)
	}

	return g, nil
}

// HealthCheck pings the primary and replicas
func (s *Store) HealthCheck(ctx context.Context) error {
	if s.cm != nil {
		return s.cm.HealthCheck(ctx)
	}
	if err := s.primary.PingContext(ctx); err != nil {
		return fmt.Errorf("database unhealthy: %w", err)
	}
	return nil
}

// Close releases every connection
func (s *Store) Close() error {
	if s.cm != nil {
		return s.cm.Close()
	}
	return s.primary.Close()
}
