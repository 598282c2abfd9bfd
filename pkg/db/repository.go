package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const repoLogPrefix = "db:repository"

// Default and maximum page sizes for SearchResources.
const (
	DefaultPerPage = 20
	MaxPerPage     = 500
)

// sortField matches data keys usable in ORDER BY, e.g. "title" or "dcterms:title".
var sortField = regexp.MustCompile(`^[a-zA-Z0-9_:\-]+$`)

// Repository provides database access for resources and themes.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Ping checks database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// =========================================================================
// RESOURCE OPERATIONS
// =========================================================================

// SearchResources lists rows of one resource matching params, returning the
// page and the total match count.
func (r *Repository) SearchResources(ctx context.Context, resource string, params SearchParams) ([]Resource, int, error) {
	page, perPage := normalizePage(params.Page, params.PerPage)
	offset := (page - 1) * perPage

	where := `WHERE resource = $1`
	args := []any{resource}
	if len(params.Filters) > 0 {
		filter, err := json.Marshal(params.Filters)
		if err != nil {
			return nil, 0, fmt.Errorf("%s - encode filters: %w", repoLogPrefix, err)
		}
		where += ` AND data @> $2::jsonb`
		args = append(args, string(filter))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*)::int FROM resources `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s - SearchResources count failed: %w", repoLogPrefix, err)
	}

	order, err := orderClause(params.SortBy, params.SortOrder)
	if err != nil {
		return nil, 0, err
	}
	query := fmt.Sprintf(`SELECT id, resource, data, created, modified FROM resources %s %s LIMIT $%d OFFSET $%d`,
		where, order, len(args)+1, len(args)+2)
	args = append(args, perPage, offset)

	slog.Debug(fmt.Sprintf("%s - SearchResources resource=%s page=%d perPage=%d", repoLogPrefix, resource, page, perPage))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%s - SearchResources failed: %w", repoLogPrefix, err)
	}
	defer rows.Close()

	out, err := scanResources(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// GetResource finds one row by id. It returns nil, nil when no row matches,
// including when id is not a UUID.
func (r *Repository) GetResource(ctx context.Context, resource, id string) (*Resource, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, nil
	}
	row := r.pool.QueryRow(ctx,
		`SELECT id, resource, data, created, modified
		 FROM resources
		 WHERE resource = $1 AND id = $2`, resource, uid)
	return scanResource(row)
}

// InsertResources stores every item in one transaction and returns the rows
// in input order.
func (r *Repository) InsertResources(ctx context.Context, resource string, items []map[string]any) ([]Resource, error) {
	slog.Info(fmt.Sprintf("%s - InsertResources resource=%s count=%d", repoLogPrefix, resource, len(items)))

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s - begin tx: %w", repoLogPrefix, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now().UTC()
	out := make([]Resource, 0, len(items))
	for _, item := range items {
		data, err := encodeData(item)
		if err != nil {
			return nil, err
		}
		row := tx.QueryRow(ctx,
			`INSERT INTO resources (id, resource, data, created, modified)
			 VALUES ($1, $2, $3::jsonb, $4, $4)
			 RETURNING id, resource, data, created, modified`,
			uuid.New(), resource, data, now)
		res, err := scanResource(row)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%s - commit: %w", repoLogPrefix, err)
	}
	return out, nil
}

// UpdateResource replaces the row's data, or merges into it when partial is
// true. It returns nil, nil when no row matches.
func (r *Repository) UpdateResource(ctx context.Context, resource, id string, data map[string]any, partial bool) (*Resource, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, nil
	}
	encoded, err := encodeData(data)
	if err != nil {
		return nil, err
	}

	set := `data = $3::jsonb`
	if partial {
		set = `data = resources.data || $3::jsonb`
	}
	row := r.pool.QueryRow(ctx,
		`UPDATE resources SET `+set+`, modified = $4
		 WHERE resource = $1 AND id = $2
		 RETURNING id, resource, data, created, modified`,
		resource, uid, encoded, time.Now().UTC())
	return scanResource(row)
}

// DeleteResource removes one row and returns it. It returns nil, nil when no
// row matches.
func (r *Repository) DeleteResource(ctx context.Context, resource, id string) (*Resource, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, nil
	}
	row := r.pool.QueryRow(ctx,
		`DELETE FROM resources
		 WHERE resource = $1 AND id = $2
		 RETURNING id, resource, data, created, modified`, resource, uid)
	return scanResource(row)
}

// =========================================================================
// HELPERS
// =========================================================================

func normalizePage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return page, perPage
}

// ValidSortOrder reports whether order is empty, "asc" or "desc".
func ValidSortOrder(order string) bool {
	switch strings.ToLower(order) {
	case "", "asc", "desc":
		return true
	}
	return false
}

// ValidSortBy reports whether sortBy names a column or a usable data key.
func ValidSortBy(sortBy string) bool {
	return sortBy == "" || sortField.MatchString(sortBy)
}

// orderClause builds ORDER BY from a column name or a top-level data key.
func orderClause(sortBy, sortOrder string) (string, error) {
	if !ValidSortOrder(sortOrder) {
		return "", fmt.Errorf("%s - invalid sort order %q", repoLogPrefix, sortOrder)
	}
	dir := "ASC"
	if strings.EqualFold(sortOrder, "desc") {
		dir = "DESC"
	}

	switch sortBy {
	case "", "created":
		return "ORDER BY created " + dir + ", id", nil
	case "modified", "id":
		return "ORDER BY " + sortBy + " " + dir, nil
	}
	if !ValidSortBy(sortBy) {
		return "", fmt.Errorf("%s - invalid sort field %q", repoLogPrefix, sortBy)
	}
	return fmt.Sprintf("ORDER BY data->>'%s' %s, id", sortBy, dir), nil
}

func encodeData(data map[string]any) (string, error) {
	if data == nil {
		data = map[string]any{}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("%s - encode data: %w", repoLogPrefix, err)
	}
	return string(b), nil
}

func scanResource(row pgx.Row) (*Resource, error) {
	var res Resource
	var id uuid.UUID
	err := row.Scan(&id, &res.Resource, &res.Data, &res.Created, &res.Modified)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s - scan resource: %w", repoLogPrefix, err)
	}
	res.ID = id.String()
	return &res, nil
}

func scanResources(rows pgx.Rows) ([]Resource, error) {
	var out []Resource
	for rows.Next() {
		res, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s - iterate resources: %w", repoLogPrefix, err)
	}
	return out, nil
}
