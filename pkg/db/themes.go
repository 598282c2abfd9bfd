package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
)

const themesLogPrefix = "db:themes"

// ListThemes returns every inventoried theme ordered by id.
func (r *Repository) ListThemes(ctx context.Context) ([]Theme, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, version, state, created, modified FROM themes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%s - ListThemes failed: %w", themesLogPrefix, err)
	}
	defer rows.Close()

	var out []Theme
	for rows.Next() {
		t, err := scanTheme(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s - iterate themes: %w", themesLogPrefix, err)
	}
	return out, nil
}

// UpsertTheme inserts a theme or refreshes its name, version and state.
func (r *Repository) UpsertTheme(ctx context.Context, t Theme) (*Theme, error) {
	slog.Debug(fmt.Sprintf("%s - UpsertTheme id=%s state=%s", themesLogPrefix, t.ID, t.State))

	row := r.pool.QueryRow(ctx,
		`INSERT INTO themes (id, name, version, state, created, modified)
		 VALUES ($1, $2, $3, $4, $5, $5)
		 ON CONFLICT (id) DO UPDATE SET
		   name = EXCLUDED.name,
		   version = EXCLUDED.version,
		   state = EXCLUDED.state,
		   modified = EXCLUDED.modified
		 RETURNING id, name, version, state, created, modified`,
		t.ID, t.Name, t.Version, t.State, time.Now().UTC())
	return scanTheme(row)
}

// SetThemeState changes only the state of an inventoried theme.
func (r *Repository) SetThemeState(ctx context.Context, id, state string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE themes SET state = $2, modified = $3 WHERE id = $1`, id, state, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("%s - SetThemeState failed: %w", themesLogPrefix, err)
	}
	return nil
}

// DeleteTheme removes a theme from the inventory.
func (r *Repository) DeleteTheme(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM themes WHERE id = $1`, id); err != nil {
		return fmt.Errorf("%s - DeleteTheme failed: %w", themesLogPrefix, err)
	}
	return nil
}

func scanTheme(row pgx.Row) (*Theme, error) {
	var t Theme
	err := row.Scan(&t.ID, &t.Name, &t.Version, &t.State, &t.Created, &t.Modified)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s - scan theme: %w", themesLogPrefix, err)
	}
	return &t, nil
}
