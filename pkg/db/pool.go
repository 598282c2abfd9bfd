// Package db provides database connection pooling, migrations and the
// resource and theme repositories via pgx.
package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

const logPrefix = "db:pool"

// NewPool creates a new pgx connection pool from the given database URL.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	slog.Info(fmt.Sprintf("%s - Connecting to database", logPrefix))

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to parse database URL: %w", logPrefix, err)
	}

	config.MaxConns = 20
	config.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to create pool: %w", logPrefix, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s - failed to ping database: %w", logPrefix, err)
	}

	slog.Info(fmt.Sprintf("%s - Database connection established", logPrefix))
	return pool, nil
}

const createMigrationsTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
	name    TEXT PRIMARY KEY,
	applied TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// RunMigrations applies every migration not yet recorded in
// schema_migrations, each in its own transaction.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, migrations []Migration) error {
	slog.Info(fmt.Sprintf("%s - Running %d migrations", logPrefix, len(migrations)))

	if _, err := pool.Exec(ctx, createMigrationsTable); err != nil {
		return fmt.Errorf("%s - create schema_migrations: %w", logPrefix, err)
	}
	applied, err := appliedMigrations(ctx, pool)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if applied[m.Name] {
			continue
		}
		tx, err := pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("%s - begin %s: %w", logPrefix, m.Name, err)
		}
		if _, err := tx.Exec(ctx, m.SQL); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("%s - migration %s failed: %w", logPrefix, m.Name, err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (name) VALUES ($1)`, m.Name); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("%s - record %s: %w", logPrefix, m.Name, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("%s - commit %s: %w", logPrefix, m.Name, err)
		}
		slog.Info(fmt.Sprintf("%s - Applied %s", logPrefix, m.Name))
	}

	slog.Info(fmt.Sprintf("%s - Migrations complete", logPrefix))
	return nil
}

func appliedMigrations(ctx context.Context, pool *pgxpool.Pool) (map[string]bool, error) {
	rows, err := pool.Query(ctx, `SELECT name FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("%s - list applied migrations: %w", logPrefix, err)
	}
	defer rows.Close()

	applied := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("%s - scan migration name: %w", logPrefix, err)
		}
		applied[name] = true
	}
	return applied, rows.Err()
}

// MigrationStatus prints which migration files have been applied.
func MigrationStatus(ctx context.Context, pool *pgxpool.Pool, migrationPath string) error {
	const statusLogPrefix = "db:MigrationStatus"

	migrations, err := LoadMigrationFiles(migrationPath)
	if err != nil {
		return fmt.Errorf("%s - load migration list: %w", statusLogPrefix, err)
	}

	var exists bool
	err = pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = 'public' AND table_name = 'schema_migrations')`).Scan(&exists)
	if err != nil {
		return fmt.Errorf("%s - failed to check schema: %w", statusLogPrefix, err)
	}
	applied := map[string]bool{}
	if exists {
		if applied, err = appliedMigrations(ctx, pool); err != nil {
			return err
		}
	}

	pending := 0
	for _, m := range migrations {
		state := "applied"
		if !applied[m.Name] {
			state = "pending"
			pending++
		}
		fmt.Printf("  %-40s %s\n", m.Name, state)
	}
	fmt.Printf("Migration status: %d of %d applied in %s\n", len(migrations)-pending, len(migrations), migrationPath)
	if pending > 0 {
		fmt.Println("Run 'omeka-api migrate up' to apply pending migrations.")
	}
	return nil
}

// MigrationDown rolls back the most recently applied migration using the
// SQL after its DownMarker line.
func MigrationDown(ctx context.Context, pool *pgxpool.Pool, migrationPath string) error {
	const downLogPrefix = "db:MigrationDown"

	migrations, err := LoadMigrationFiles(migrationPath)
	if err != nil {
		return fmt.Errorf("%s - load migration list: %w", downLogPrefix, err)
	}
	if _, err := pool.Exec(ctx, createMigrationsTable); err != nil {
		return fmt.Errorf("%s - create schema_migrations: %w", downLogPrefix, err)
	}
	applied, err := appliedMigrations(ctx, pool)
	if err != nil {
		return err
	}

	m, ok := lastApplied(migrations, applied)
	if !ok {
		fmt.Println("Migration down: nothing to roll back.")
		return nil
	}
	if m.Down == "" {
		return fmt.Errorf("%s - %s has no %q section", downLogPrefix, m.Name, DownMarker)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s - begin %s: %w", downLogPrefix, m.Name, err)
	}
	if _, err := tx.Exec(ctx, m.Down); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("%s - roll back %s: %w", downLogPrefix, m.Name, err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM schema_migrations WHERE name = $1`, m.Name); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("%s - unrecord %s: %w", downLogPrefix, m.Name, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s - commit %s: %w", downLogPrefix, m.Name, err)
	}

	slog.Info(fmt.Sprintf("%s - Rolled back %s", downLogPrefix, m.Name))
	fmt.Printf("Migration down: rolled back %s\n", m.Name)
	return nil
}
