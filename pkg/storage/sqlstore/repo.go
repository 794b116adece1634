package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/platinummonkey/specbook/pkg/model"
	"github.com/platinummonkey/specbook/pkg/storage"
)

// queryer is satisfied by *sql.DB and *sql.Tx
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type scanner interface {
	Scan(dest ...interface{}) error
}

// sortable whitelists the columns each entity may be ordered by
var sortable = map[string]map[string]string{
	"specification": {"id": "id", "title": "title", "version": "version", "created_at": "created_at", "updated_at": "updated_at"},
	"path":          {"id": "id", "uri": "uri", "created_at": "created_at", "updated_at": "updated_at"},
	"verb":          {"id": "id", "name": "name", "method": "method", "created_at": "created_at", "updated_at": "updated_at"},
	"model":         {"id": "id", "name": "name", "created_at": "created_at", "updated_at": "updated_at"},
}

func orderBy(entity string, order storage.SortOrder) (string, error) {
	if order.Field == "" {
		order = storage.Asc("id")
	}
	column, ok := sortable[entity][order.Field]
	if !ok {
		return "", &storage.ErrUnsortable{Entity: entity, Field: order.Field}
	}
	dir := "ASC"
	if order.Desc {
		dir = "DESC"
	}
	if column == "id" {
		return fmt.Sprintf(" ORDER BY id %s", dir), nil
	}
	return fmt.Sprintf(" ORDER BY %s %s, id ASC", column, dir), nil
}

const (
	specColumns     = `id, title, version, description, terms_of_service, host, base_path, schemes, produces, consumes, created_at, updated_at`
	pathColumns     = `id, specification_id, uri, created_at, updated_at`
	verbColumns     = `id, path_id, method, name, tags, visibility, status, batch, query_parameters_text, request_body_text, response_body_text, created_at, updated_at`
	modelColumns    = `id, specification_id, name, description, properties_text, created_at, updated_at`
	propertyColumns = `id, parent_id, kind, name, type, description, format, required, position, created_at, updated_at`
)

func scanSpecification(row scanner) (*model.Specification, error) {
	s := &model.Specification{}
	err := row.Scan(&s.ID, &s.Title, &s.Version, &s.Description, &s.TermsOfService,
		&s.Host, &s.BasePath, &s.Schemes, &s.Produces, &s.Consumes, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func scanPath(row scanner) (*model.Path, error) {
	p := &model.Path{}
	err := row.Scan(&p.ID, &p.SpecificationID, &p.URI, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func scanVerb(row scanner) (*model.Verb, error) {
	v := &model.Verb{}
	err := row.Scan(&v.ID, &v.PathID, &v.Method, &v.Name, &v.Tags, &v.Visibility, &v.Status, &v.Batch,
		&v.QueryParametersText, &v.RequestBodyText, &v.ResponseBodyText, &v.CreatedAt, &v.UpdatedAt)
	return v, err
}

func scanModel(row scanner) (*model.CommonModel, error) {
	m := &model.CommonModel{}
	err := row.Scan(&m.ID, &m.SpecificationID, &m.Name, &m.Description, &m.PropertiesText, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

func scanProperty(row scanner) (*model.Property, error) {
	p := &model.Property{}
	var kind string
	err := row.Scan(&p.ID, &p.ParentID, &kind, &p.Name, &p.Type, &p.Description, &p.Format,
		&p.Required, &p.Position, &p.CreatedAt, &p.UpdatedAt)
	p.Kind = model.PropertyKind(kind)
	return p, err
}

func collect[T any](rows *sql.Rows, scan func(scanner) (T, error)) ([]T, error) {
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// reader implements storage.Reader over whatever conn returns
type reader struct {
	conn    func() queryer
	dialect *Dialect
}

func (r *reader) get(ctx context.Context, what string, id int64, scan func(scanner) error, query string) error {
	err := scan(r.conn().QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.NotFoundf("%s %d", what, id)
	}
	if err != nil {
		return fmt.Errorf("failed to get %s %d: %w", what, id, err)
	}
	return nil
}

func (r *reader) GetSpecification(ctx context.Context, id int64) (*model.Specification, error) {
	var s *model.Specification
	err := r.get(ctx, "specification", id, func(row scanner) (err error) {
		s, err = scanSpecification(row)
		return err
	}, `SELECT `+specColumns+` FROM specifications WHERE id = $1`)
	return s, err
}

func (r *reader) ListSpecifications(ctx context.Context, order storage.SortOrder) ([]*model.Specification, error) {
	clause, err := orderBy("specification", order)
	if err != nil {
		return nil, err
	}
	rows, err := r.conn().QueryContext(ctx, `SELECT `+specColumns+` FROM specifications`+clause)
	if err != nil {
		return nil, fmt.Errorf("failed to list specifications: %w", err)
	}
	return collect(rows, scanSpecification)
}

func (r *reader) GetPath(ctx context.Context, id int64) (*model.Path, error) {
	var p *model.Path
	err := r.get(ctx, "path", id, func(row scanner) (err error) {
		p, err = scanPath(row)
		return err
	}, `SELECT `+pathColumns+` FROM paths WHERE id = $1`)
	return p, err
}

func (r *reader) FindPathByURI(ctx context.Context, specID int64, uri string) (*model.Path, error) {
	p, err := scanPath(r.conn().QueryRowContext(ctx,
		`SELECT `+pathColumns+` FROM paths WHERE specification_id = $1 AND uri = $2`, specID, uri))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NotFoundf("path %q in specification %d", uri, specID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find path %q: %w", uri, err)
	}
	return p, nil
}

func (r *reader) ListPaths(ctx context.Context, specID int64, order storage.SortOrder) ([]*model.Path, error) {
	clause, err := orderBy("path", order)
	if err != nil {
		return nil, err
	}
	rows, err := r.conn().QueryContext(ctx,
		`SELECT `+pathColumns+` FROM paths WHERE specification_id = $1`+clause, specID)
	if err != nil {
		return nil, fmt.Errorf("failed to list paths: %w", err)
	}
	return collect(rows, scanPath)
}

func (r *reader) GetVerb(ctx context.Context, id int64) (*model.Verb, error) {
	var v *model.Verb
	err := r.get(ctx, "verb", id, func(row scanner) (err error) {
		v, err = scanVerb(row)
		return err
	}, `SELECT `+verbColumns+` FROM verbs WHERE id = $1`)
	return v, err
}

func (r *reader) FindVerbByName(ctx context.Context, pathID int64, name string) (*model.Verb, error) {
	v, err := scanVerb(r.conn().QueryRowContext(ctx,
		`SELECT `+verbColumns+` FROM verbs WHERE path_id = $1 AND name = $2`, pathID, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NotFoundf("verb %q on path %d", name, pathID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find verb %q: %w", name, err)
	}
	return v, nil
}

func (r *reader) ListVerbs(ctx context.Context, pathID int64, order storage.SortOrder) ([]*model.Verb, error) {
	clause, err := orderBy("verb", order)
	if err != nil {
		return nil, err
	}
	rows, err := r.conn().QueryContext(ctx,
		`SELECT `+verbColumns+` FROM verbs WHERE path_id = $1`+clause, pathID)
	if err != nil {
		return nil, fmt.Errorf("failed to list verbs: %w", err)
	}
	return collect(rows, scanVerb)
}

func (r *reader) GetModel(ctx context.Context, id int64) (*model.CommonModel, error) {
	var m *model.CommonModel
	err := r.get(ctx, "model", id, func(row scanner) (err error) {
		m, err = scanModel(row)
		return err
	}, `SELECT `+modelColumns+` FROM common_models WHERE id = $1`)
	return m, err
}

func (r *reader) ListModels(ctx context.Context, specID int64, order storage.SortOrder) ([]*model.CommonModel, error) {
	clause, err := orderBy("model", order)
	if err != nil {
		return nil, err
	}
	rows, err := r.conn().QueryContext(ctx,
		`SELECT `+modelColumns+` FROM common_models WHERE specification_id = $1`+clause, specID)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	return collect(rows, scanModel)
}

func (r *reader) ListProperties(ctx context.Context, parentID int64, kind model.PropertyKind) ([]*model.Property, error) {
	rows, err := r.conn().QueryContext(ctx,
		`SELECT `+propertyColumns+` FROM properties WHERE parent_id = $1 AND kind = $2 ORDER BY position ASC, id ASC`,
		parentID, string(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s properties: %w", kind, err)
	}
	return collect(rows, scanProperty)
}

// txRepo implements storage.Tx inside a single *sql.Tx
type txRepo struct {
	reader
	tx  *sql.Tx
	now func() time.Time
}

func newTxRepo(tx *sql.Tx, dialect *Dialect, now func() time.Time) *txRepo {
	return &txRepo{
		reader: reader{conn: func() queryer { return tx }, dialect: dialect},
		tx:     tx,
		now:    now,
	}
}

// insert runs an INSERT ... RETURNING id, mapping unique violations
func (t *txRepo) insert(ctx context.Context, what string, query string, args ...interface{}) (int64, error) {
	var id int64
	err := t.tx.QueryRowContext(ctx, query, args...).Scan(&id)
	if t.dialect.IsUniqueViolation(err) {
		return 0, model.Conflictf("%s already exists", what)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert %s: %w", what, err)
	}
	return id, nil
}

// exec runs a statement that must touch exactly the row named by id
func (t *txRepo) exec(ctx context.Context, what string, id int64, query string, args ...interface{}) error {
	res, err := t.tx.ExecContext(ctx, query, args...)
	if t.dialect.IsUniqueViolation(err) {
		return model.Conflictf("%s already exists", what)
	}
	if err != nil {
		return fmt.Errorf("failed to write %s %d: %w", what, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to write %s %d: %w", what, id, err)
	}
	if n == 0 {
		return model.NotFoundf("%s %d", what, id)
	}
	return nil
}

func (t *txRepo) execAll(ctx context.Context, queries []string, id int64) error {
	for _, q := range queries {
		if _, err := t.tx.ExecContext(ctx, q, id); err != nil {
			return fmt.Errorf("failed to cascade delete: %w", err)
		}
	}
	return nil
}

func (t *txRepo) CreateSpecification(ctx context.Context, s *model.Specification) error {
	now := t.now()
	id, err := t.insert(ctx, fmt.Sprintf("specification %q version %q", s.Title, s.Version),
		`INSERT INTO specifications (title, version, description, terms_of_service, host, base_path, schemes, produces, consumes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`,
		s.Title, s.Version, s.Description, s.TermsOfService, s.Host, s.BasePath, s.Schemes, s.Produces, s.Consumes, now, now)
	if err != nil {
		return err
	}
	s.ID, s.CreatedAt, s.UpdatedAt = id, now, now
	return nil
}

func (t *txRepo) UpdateSpecification(ctx context.Context, s *model.Specification) error {
	now := t.now()
	err := t.exec(ctx, "specification", s.ID,
		`UPDATE specifications SET title = $1, version = $2, description = $3, terms_of_service = $4, host = $5,
		base_path = $6, schemes = $7, produces = $8, consumes = $9, updated_at = $10 WHERE id = $11`,
		s.Title, s.Version, s.Description, s.TermsOfService, s.Host, s.BasePath, s.Schemes, s.Produces, s.Consumes, now, s.ID)
	if err != nil {
		return err
	}
	s.UpdatedAt = now
	return nil
}

func (t *txRepo) DeleteSpecification(ctx context.Context, id int64) error {
	err := t.execAll(ctx, []string{
		`DELETE FROM properties WHERE kind IN ('query_parameter', 'request_body_property', 'response_body_property')
			AND parent_id IN (SELECT v.id FROM verbs v JOIN paths p ON v.path_id = p.id WHERE p.specification_id = $1)`,
		`DELETE FROM properties WHERE kind = 'model_property'
			AND parent_id IN (SELECT id FROM common_models WHERE specification_id = $1)`,
		`DELETE FROM properties WHERE kind = 'path_parameter' AND parent_id = $1`,
		`DELETE FROM verbs WHERE path_id IN (SELECT id FROM paths WHERE specification_id = $1)`,
		`DELETE FROM paths WHERE specification_id = $1`,
		`DELETE FROM common_models WHERE specification_id = $1`,
	}, id)
	if err != nil {
		return err
	}
	return t.exec(ctx, "specification", id, `DELETE FROM specifications WHERE id = $1`, id)
}

func (t *txRepo) CreatePath(ctx context.Context, p *model.Path) error {
	now := t.now()
	id, err := t.insert(ctx, fmt.Sprintf("path %q", p.URI),
		`INSERT INTO paths (specification_id, uri, created_at, updated_at) VALUES ($1, $2, $3, $4) RETURNING id`,
		p.SpecificationID, p.URI, now, now)
	if err != nil {
		return err
	}
	p.ID, p.CreatedAt, p.UpdatedAt = id, now, now
	return nil
}

func (t *txRepo) UpdatePath(ctx context.Context, p *model.Path) error {
	now := t.now()
	err := t.exec(ctx, fmt.Sprintf("path %q", p.URI), p.ID,
		`UPDATE paths SET uri = $1, updated_at = $2 WHERE id = $3`, p.URI, now, p.ID)
	if err != nil {
		return err
	}
	p.UpdatedAt = now
	return nil
}

func (t *txRepo) DeletePath(ctx context.Context, id int64) error {
	err := t.execAll(ctx, []string{
		`DELETE FROM properties WHERE kind IN ('query_parameter', 'request_body_property', 'response_body_property')
			AND parent_id IN (SELECT id FROM verbs WHERE path_id = $1)`,
		`DELETE FROM verbs WHERE path_id = $1`,
	}, id)
	if err != nil {
		return err
	}
	return t.exec(ctx, "path", id, `DELETE FROM paths WHERE id = $1`, id)
}

func (t *txRepo) CreateVerb(ctx context.Context, v *model.Verb) error {
	now := t.now()
	id, err := t.insert(ctx, fmt.Sprintf("verb %q", v.Name),
		`INSERT INTO verbs (path_id, method, name, tags, visibility, status, batch, query_parameters_text, request_body_text, response_body_text, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id`,
		v.PathID, v.Method, v.Name, v.Tags, v.Visibility, v.Status, v.Batch,
		v.QueryParametersText, v.RequestBodyText, v.ResponseBodyText, now, now)
	if err != nil {
		return err
	}
	v.ID, v.CreatedAt, v.UpdatedAt = id, now, now
	return nil
}

func (t *txRepo) UpdateVerb(ctx context.Context, v *model.Verb) error {
	now := t.now()
	err := t.exec(ctx, fmt.Sprintf("verb %q", v.Name), v.ID,
		`UPDATE verbs SET method = $1, name = $2, tags = $3, visibility = $4, status = $5, batch = $6,
		query_parameters_text = $7, request_body_text = $8, response_body_text = $9, updated_at = $10 WHERE id = $11`,
		v.Method, v.Name, v.Tags, v.Visibility, v.Status, v.Batch,
		v.QueryParametersText, v.RequestBodyText, v.ResponseBodyText, now, v.ID)
	if err != nil {
		return err
	}
	v.UpdatedAt = now
	return nil
}

func (t *txRepo) DeleteVerb(ctx context.Context, id int64) error {
	err := t.execAll(ctx, []string{
		`DELETE FROM properties WHERE kind IN ('query_parameter', 'request_body_property', 'response_body_property') AND parent_id = $1`,
	}, id)
	if err != nil {
		return err
	}
	return t.exec(ctx, "verb", id, `DELETE FROM verbs WHERE id = $1`, id)
}

func (t *txRepo) CreateModel(ctx context.Context, m *model.CommonModel) error {
	now := t.now()
	id, err := t.insert(ctx, fmt.Sprintf("model %q", m.Name),
		`INSERT INTO common_models (specification_id, name, description, properties_text, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		m.SpecificationID, m.Name, m.Description, m.PropertiesText, now, now)
	if err != nil {
		return err
	}
	m.ID, m.CreatedAt, m.UpdatedAt = id, now, now
	return nil
}

func (t *txRepo) UpdateModel(ctx context.Context, m *model.CommonModel) error {
	now := t.now()
	err := t.exec(ctx, fmt.Sprintf("model %q", m.Name), m.ID,
		`UPDATE common_models SET name = $1, description = $2, properties_text = $3, updated_at = $4 WHERE id = $5`,
		m.Name, m.Description, m.PropertiesText, now, m.ID)
	if err != nil {
		return err
	}
	m.UpdatedAt = now
	return nil
}

func (t *txRepo) DeleteModel(ctx context.Context, id int64) error {
	err := t.execAll(ctx, []string{
		`DELETE FROM properties WHERE kind = 'model_property' AND parent_id = $1`,
	}, id)
	if err != nil {
		return err
	}
	return t.exec(ctx, "model", id, `DELETE FROM common_models WHERE id = $1`, id)
}

func (t *txRepo) InsertProperty(ctx context.Context, p *model.Property) error {
	now := t.now()
	id, err := t.insert(ctx, fmt.Sprintf("%s %q", p.Kind, p.Name),
		`INSERT INTO properties (parent_id, kind, name, type, description, format, required, position, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`,
		p.ParentID, string(p.Kind), p.Name, p.Type, p.Description, p.Format, p.Required, p.Position, now, now)
	if err != nil {
		return err
	}
	p.ID, p.CreatedAt, p.UpdatedAt = id, now, now
	return nil
}

func (t *txRepo) UpdateProperty(ctx context.Context, p *model.Property) error {
	now := t.now()
	err := t.exec(ctx, fmt.Sprintf("%s %q", p.Kind, p.Name), p.ID,
		`UPDATE properties SET name = $1, type = $2, description = $3, format = $4, required = $5, position = $6, updated_at = $7 WHERE id = $8`,
		p.Name, p.Type, p.Description, p.Format, p.Required, p.Position, now, p.ID)
	if err != nil {
		return err
	}
	p.UpdatedAt = now
	return nil
}

func (t *txRepo) DeleteProperty(ctx context.Context, id int64) error {
	return t.exec(ctx, "property", id, `DELETE FROM properties WHERE id = $1`, id)
}
