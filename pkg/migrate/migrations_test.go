package migrate

import (
	"io/fs"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"go.uber.org/multierr"
)

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	if err := Validate(Migrations, EmbeddedDir); err != nil {
		t.Fatalf("embedded migrations invalid: %v", err)
	}
}

func TestMigrationsCreateEveryTable(t *testing.T) {
	var all strings.Builder
	err := fs.WalkDir(Migrations, EmbeddedDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		b, err := fs.ReadFile(Migrations, path)
		if err != nil {
			return err
		}
		all.Write(b)
		return nil
	})
	if err != nil {
		t.Fatalf("walk migrations: %v", err)
	}

	content := all.String()
	checks := []string{
		"CREATE TABLE IF NOT EXISTS users",
		"CREATE TABLE IF NOT EXISTS tools",
		"CREATE TABLE IF NOT EXISTS subscriptions",
		"CREATE TABLE IF NOT EXISTS usage_records",
		"CREATE TABLE IF NOT EXISTS email_templates",
		"CREATE TABLE IF NOT EXISTS landing_page_content",
		"CHECK (status IN ('pending', 'active', 'cancelled'))",
		"price NUMERIC(12,2) NOT NULL",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users (email)",
		"FOREIGN KEY (tool_id) REFERENCES tools(id) ON DELETE CASCADE",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	fsys := fstest.MapFS{
		"bad-name.sql":                    {Data: []byte("-- +goose Up\n-- +goose Down\n")},
		"20250101000001_a.sql":            {Data: []byte("-- +goose Down\n-- +goose Up\n")},
		"20250101000001_b.sql":            {Data: []byte("-- +goose Up\n-- +goose StatementBegin\n-- +goose Down\n")},
		"20250101000002_missing_down.sql": {Data: []byte("-- +goose Up\nSELECT 1;\n")},
		"20250101000003_ok.sql":           {Data: []byte("-- +goose Up\nSELECT 1;\n-- +goose Down\nSELECT 1;\n")},
		"README.md":                       {Data: []byte("ignored")},
	}

	err := Validate(fsys, ".")
	if err == nil {
		t.Fatal("expected validation errors")
	}
	problems := multierr.Errors(err)
	if len(problems) != 5 {
		t.Fatalf("expected 5 problems, got %d: %v", len(problems), err)
	}
	for _, want := range []string{"bad-name.sql", "precedes Up", "already used", "StatementBegin", "missing -- +goose Down"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("missing %q in %v", want, err)
		}
	}
}

func TestCreateWritesValidFileAndAvoidsCollisions(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	first, err := Create(dir, "Add Tool Categories!", at)
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	if filepath.Base(first) != "20250601100000_add_tool_categories.sql" {
		t.Fatalf("unexpected path %s", first)
	}
	second, err := Create(dir, "add tool categories", at)
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if filepath.Base(second) != "20250601100001_add_tool_categories.sql" {
		t.Fatalf("expected bumped version, got %s", second)
	}
	if err := ValidateDir(dir); err != nil {
		t.Fatalf("generated migrations should validate: %v", err)
	}
	if _, err := Create(dir, "!!!", at); err == nil {
		t.Fatal("expected error for a name without letters")
	}
}

func TestMigrationFSUsesEmbeddedSetByDefault(t *testing.T) {
	fsys, err := migrationFS("")
	if err != nil {
		t.Fatalf("migration fs: %v", err)
	}
	if _, err := fs.Stat(fsys, "20250101000001_create_users.sql"); err != nil {
		t.Fatalf("expected users migration at the fs root: %v", err)
	}
	if err := Validate(fsys, "."); err != nil {
		t.Fatalf("validate rooted fs: %v", err)
	}
}

func TestParseVersion(t *testing.T) {
	if v, err := ParseVersion("20250101000003"); err != nil || v != 20250101000003 {
		t.Fatalf("unexpected %d %v", v, err)
	}
	for _, bad := range []string{"", "2025", "2025010100000x", "202501010000031"} {
		if _, err := ParseVersion(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestNewRunnerRequiresDB(t *testing.T) {
	if _, err := NewRunner(nil, ""); err == nil {
		t.Fatal("expected error for nil db")
	}
}
