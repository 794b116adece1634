package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/platinummonkey/specbook/pkg/model"
)

// SortOrder is an explicit ordering applied at the repository boundary.
// Field names a sortable column of the listed entity.
type SortOrder struct {
	Field string
	Desc  bool
}

// Asc orders by field ascending
func Asc(field string) SortOrder {
	return SortOrder{Field: field}
}

// Desc orders by field descending
func Desc(field string) SortOrder {
	return SortOrder{Field: field, Desc: true}
}

// ParseSortOrder reads "field" or "-field"
func ParseSortOrder(s string) SortOrder {
	if len(s) > 1 && s[0] == '-' {
		return Desc(s[1:])
	}
	return Asc(s)
}

func (s SortOrder) String() string {
	if s.Desc {
		return s.Field + " DESC"
	}
	return s.Field + " ASC"
}

// ErrUnsortable is wrapped when a SortOrder names a field the entity cannot
// be ordered by
type ErrUnsortable struct {
	Entity string
	Field  string
}

func (e *ErrUnsortable) Error() string {
	return fmt.Sprintf("cannot sort %s by %q", e.Entity, e.Field)
}

// GraphOrder selects how LoadGraph orders each level of the graph.
// Properties are always in position order.
type GraphOrder struct {
	Paths  SortOrder
	Verbs  SortOrder
	Models SortOrder
}

// CreationOrder lists every level in the order records were created
func CreationOrder() GraphOrder {
	return GraphOrder{Paths: Asc("id"), Verbs: Asc("id"), Models: Asc("id")}
}

// Reader is the read side of the specification repository
type Reader interface {
	GetSpecification(ctx context.Context, id int64) (*model.Specification, error)
	ListSpecifications(ctx context.Context, order SortOrder) ([]*model.Specification, error)

	GetPath(ctx context.Context, id int64) (*model.Path, error)
	FindPathByURI(ctx context.Context, specID int64, uri string) (*model.Path, error)
	ListPaths(ctx context.Context, specID int64, order SortOrder) ([]*model.Path, error)

	GetVerb(ctx context.Context, id int64) (*model.Verb, error)
	FindVerbByName(ctx context.Context, pathID int64, name string) (*model.Verb, error)
	ListVerbs(ctx context.Context, pathID int64, order SortOrder) ([]*model.Verb, error)

	GetModel(ctx context.Context, id int64) (*model.CommonModel, error)
	ListModels(ctx context.Context, specID int64, order SortOrder) ([]*model.CommonModel, error)

	// ListProperties returns the list for (parentID, kind) in position order
	ListProperties(ctx context.Context, parentID int64, kind model.PropertyKind) ([]*model.Property, error)
}

// Writer is the write side of the repository. Create methods assign ID and
// timestamps on the passed entity. Deletes remove everything the entity owns.
type Writer interface {
	CreateSpecification(ctx context.Context, s *model.Specification) error
	UpdateSpecification(ctx context.Context, s *model.Specification) error
	DeleteSpecification(ctx context.Context, id int64) error

	CreatePath(ctx context.Context, p *model.Path) error
	UpdatePath(ctx context.Context, p *model.Path) error
	DeletePath(ctx context.Context, id int64) error

	CreateVerb(ctx context.Context, v *model.Verb) error
	UpdateVerb(ctx context.Context, v *model.Verb) error
	DeleteVerb(ctx context.Context, id int64) error

	CreateModel(ctx context.Context, m *model.CommonModel) error
	UpdateModel(ctx context.Context, m *model.CommonModel) error
	DeleteModel(ctx context.Context, id int64) error

	InsertProperty(ctx context.Context, p *model.Property) error
	UpdateProperty(ctx context.Context, p *model.Property) error
	DeleteProperty(ctx context.Context, id int64) error
}

// Tx is a unit of work. It is only valid inside the InTx callback.
type Tx interface {
	Reader
	Writer
}

// Store is a specification repository. Reads outside a transaction may be
// served by a replica.
type Store interface {
	Reader

	// InTx runs fn in a transaction, committing when fn returns nil and
	// rolling back otherwise
	InTx(ctx context.Context, fn func(tx Tx) error) error

	// LoadGraph reads a specification and everything it owns
	LoadGraph(ctx context.Context, specID int64, order GraphOrder) (*model.Graph, error)

	HealthCheck(ctx context.Context) error
	Close() error
}

// Config for the relational backend
type Config struct {
	Driver string `yaml:"driver"` // "postgres" or "sqlite3"

	DSN         string   `yaml:"dsn"`
	ReplicaDSNs []string `yaml:"replica_dsns"`

	MaxConns    int           `yaml:"max_conns"`
	MinConns    int           `yaml:"min_conns"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxLifetime time.Duration `yaml:"max_lifetime"`
	MaxIdleTime time.Duration `yaml:"max_idle_time"`

	// Migrate creates missing tables on open
	Migrate bool `yaml:"migrate"`
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() Config {
	return Config{
		Driver:      "sqlite3",
		DSN:         "file:specbook.db?_foreign_keys=on",
		MaxConns:    20,
		MinConns:    2,
		Timeout:     10 * time.Second,
		MaxLifetime: time.Hour,
		MaxIdleTime: 10 * time.Minute,
		Migrate:     true,
	}
}
