package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// schema is applied in order. {{id}} and {{ts}} are replaced with the
// dialect's id column and timestamp type.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS specifications (
		id {{id}},
		title TEXT NOT NULL,
		version TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		terms_of_service TEXT NOT NULL DEFAULT '',
		host TEXT NOT NULL DEFAULT '',
		base_path TEXT NOT NULL DEFAULT '',
		schemes TEXT NOT NULL DEFAULT '',
		produces TEXT NOT NULL DEFAULT '',
		consumes TEXT NOT NULL DEFAULT '',
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL,
		UNIQUE (title, version)
	)`,
	`CREATE TABLE IF NOT EXISTS paths (
		id {{id}},
		specification_id BIGINT NOT NULL REFERENCES specifications (id),
		uri TEXT NOT NULL,
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL,
		UNIQUE (specification_id, uri)
	)`,
	`CREATE TABLE IF NOT EXISTS verbs (
		id {{id}},
		path_id BIGINT NOT NULL REFERENCES paths (id),
		method TEXT NOT NULL,
		name TEXT NOT NULL,
		tags TEXT NOT NULL DEFAULT '',
		visibility TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT '',
		batch BOOLEAN NOT NULL DEFAULT FALSE,
		query_parameters_text TEXT NOT NULL DEFAULT '',
		request_body_text TEXT NOT NULL DEFAULT '',
		response_body_text TEXT NOT NULL DEFAULT '',
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL,
		UNIQUE (path_id, name)
	)`,
	`CREATE TABLE IF NOT EXISTS common_models (
		id {{id}},
		specification_id BIGINT NOT NULL REFERENCES specifications (id),
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		properties_text TEXT NOT NULL DEFAULT '',
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL,
		UNIQUE (specification_id, name)
	)`,
	`CREATE TABLE IF NOT EXISTS properties (
		id {{id}},
		parent_id BIGINT NOT NULL,
		kind TEXT NOT NULL,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		format TEXT NOT NULL DEFAULT '',
		required BOOLEAN NOT NULL DEFAULT FALSE,
		position INTEGER NOT NULL,
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL,
		UNIQUE (parent_id, kind, name)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_properties_parent ON properties (parent_id, kind, position)`,
}

// Statements returns the schema DDL rendered for d
func (d *Dialect) Statements() []string {
	r := strings.NewReplacer("{{id}}", d.idColumn, "{{ts}}", d.timestampType)
	out := make([]string, len(schema))
	for i, stmt := range schema {
		out[i] = r.Replace(stmt)
	}
	return out
}

// Migrate creates any missing tables and indexes
func Migrate(ctx context.Context, db *sql.DB, d *Dialect) error {
	for i, stmt := range d.Statements() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement %d: %w", i, err)
		}
	}
	return nil
}
