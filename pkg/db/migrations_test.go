package db

import (
	"os"
	"path/filepath"
	"testing"
)

func writeMigrationFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("db:migrations_test - failed to write test file %s: %v", name, err)
		}
	}
}

func TestLoadMigrationFiles_SortedWithNames(t *testing.T) {
	dir := t.TempDir()
	writeMigrationFiles(t, dir, map[string]string{
		"003_third.sql":  "THIRD",
		"001_first.sql":  "FIRST",
		"002_second.sql": "SECOND",
	})

	result, err := LoadMigrationFiles(dir)
	if err != nil {
		t.Fatalf("db:migrations_test - unexpected error: %v", err)
	}

	want := []Migration{
		{Name: "001_first.sql", SQL: "FIRST"},
		{Name: "002_second.sql", SQL: "SECOND"},
		{Name: "003_third.sql", SQL: "THIRD"},
	}
	if len(result) != len(want) {
		t.Fatalf("db:migrations_test - expected %d migrations, got %d", len(want), len(result))
	}
	for i := range want {
		if result[i] != want[i] {
			t.Errorf("db:migrations_test - migration %d = %+v, want %+v", i, result[i], want[i])
		}
	}
}

func TestLoadMigrationFiles_SkipsNonSQLAndDirectories(t *testing.T) {
	dir := t.TempDir()
	writeMigrationFiles(t, dir, map[string]string{
		"001_create.sql": "CREATE TABLE t1;",
		"README.md":      "# Migrations",
		"notes.txt":      "some notes",
		"config.json":    "{}",
	})
	if err := os.Mkdir(filepath.Join(dir, "subdir.sql"), 0o755); err != nil {
		t.Fatalf("db:migrations_test - failed to create subdir: %v", err)
	}

	result, err := LoadMigrationFiles(dir)
	if err != nil {
		t.Fatalf("db:migrations_test - unexpected error: %v", err)
	}
	if len(result) != 1 || result[0].Name != "001_create.sql" {
		t.Errorf("db:migrations_test - expected only 001_create.sql, got %+v", result)
	}
}

func TestLoadMigrationFiles_EmptyDir(t *testing.T) {
	result, err := LoadMigrationFiles(t.TempDir())
	if err != nil {
		t.Fatalf("db:migrations_test - unexpected error: %v", err)
	}
	if len(result) != 0 {
		t.Errorf("db:migrations_test - expected empty result, got %d items", len(result))
	}
}

func TestLoadMigrationFiles_NonExistentDir(t *testing.T) {
	if _, err := LoadMigrationFiles(filepath.Join(t.TempDir(), "nonexistent")); err == nil {
		t.Error("db:migrations_test - expected error for non-existent directory")
	}
}

func TestLoadMigrationFiles_RepositoryMigrations(t *testing.T) {
	result, err := LoadMigrationFiles(filepath.Join("..", "..", "migrations"))
	if err != nil {
		t.Fatalf("db:migrations_test - unexpected error: %v", err)
	}
	if len(result) < 2 {
		t.Fatalf("db:migrations_test - expected bundled migrations, got %d", len(result))
	}
	if result[0].Name != "001_resources.sql" || result[1].Name != "002_themes.sql" {
		t.Errorf("db:migrations_test - unexpected migration order %s, %s", result[0].Name, result[1].Name)
	}
}

func TestLoadMigrationFiles_SplitsDownSection(t *testing.T) {
	dir := t.TempDir()
	writeMigrationFiles(t, dir, map[string]string{
		"001_create.sql": "CREATE TABLE t1 (id INT);\n\n-- +down\nDROP TABLE t1;\n",
		"002_alter.sql":  "ALTER TABLE t1 ADD COLUMN name TEXT;\n",
	})

	result, err := LoadMigrationFiles(dir)
	if err != nil {
		t.Fatalf("db:migrations_test - unexpected error: %v", err)
	}
	if result[0].SQL != "CREATE TABLE t1 (id INT);\n\n" || result[0].Down != "DROP TABLE t1;" {
		t.Errorf("db:migrations_test - split = %+v", result[0])
	}
	if result[1].SQL != "ALTER TABLE t1 ADD COLUMN name TEXT;\n" || result[1].Down != "" {
		t.Errorf("db:migrations_test - no-down migration = %+v", result[1])
	}
}

func TestLastApplied(t *testing.T) {
	migrations := []Migration{{Name: "001_a.sql"}, {Name: "002_b.sql"}, {Name: "003_c.sql"}}

	tests := []struct {
		applied map[string]bool
		want    string
		ok      bool
	}{
		{map[string]bool{}, "", false},
		{map[string]bool{"001_a.sql": true}, "001_a.sql", true},
		{map[string]bool{"001_a.sql": true, "002_b.sql": true}, "002_b.sql", true},
		{map[string]bool{"001_a.sql": true, "003_c.sql": true}, "003_c.sql", true},
	}
	for _, tt := range tests {
		got, ok := lastApplied(migrations, tt.applied)
		if ok != tt.ok || got.Name != tt.want {
			t.Errorf("db:migrations_test - lastApplied(%v) = %q/%v, want %q/%v", tt.applied, got.Name, ok, tt.want, tt.ok)
		}
	}
}

func TestRepositoryMigrationsHaveDownSections(t *testing.T) {
	result, err := LoadMigrationFiles(filepath.Join("..", "..", "migrations"))
	if err != nil {
		t.Fatalf("db:migrations_test - unexpected error: %v", err)
	}
	for _, m := range result {
		if m.Down == "" {
			t.Errorf("db:migrations_test - %s has no down section", m.Name)
		}
	}
}
