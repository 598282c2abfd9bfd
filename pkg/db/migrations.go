package db

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const migrationsLogPrefix = "db:migrations"

// DownMarker separates a migration's forward SQL from its rollback SQL.
const DownMarker = "-- +down"

// Migration is one SQL file. Down is empty when the file cannot be rolled
// back.
type Migration struct {
	Name string
	SQL  string
	Down string
}

// splitMigration splits file content at the first DownMarker line.
func splitMigration(content string) (string, string) {
	lines := strings.SplitAfter(content, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == DownMarker {
			up := strings.Join(lines[:i], "")
			down := strings.TrimSpace(strings.Join(lines[i+1:], ""))
			return up, down
		}
	}
	return content, ""
}

// lastApplied returns the highest-named migration recorded in applied.
func lastApplied(migrations []Migration, applied map[string]bool) (Migration, bool) {
	for i := len(migrations) - 1; i >= 0; i-- {
		if applied[migrations[i].Name] {
			return migrations[i], true
		}
	}
	return Migration{}, false
}

// LoadMigrationFiles reads all .sql files from dir sorted by name.
func LoadMigrationFiles(dir string) ([]Migration, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to read migration dir %s: %w", migrationsLogPrefix, dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".sql" {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	out := make([]Migration, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%s - failed to read %s: %w", migrationsLogPrefix, path, err)
		}
		up, down := splitMigration(string(data))
		out = append(out, Migration{Name: name, SQL: up, Down: down})
	}
	slog.Info(fmt.Sprintf("%s - Loaded %d migration files from %s", migrationsLogPrefix, len(out), dir))
	return out, nil
}
