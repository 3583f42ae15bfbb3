package database

import (
	"io/fs"
	"strings"
	"testing"

	"storefront/internal/config"
)

// Property 68: Pending migrations are executed
func TestMigrationFilesExist(t *testing.T) {
	expectedMigrations := []string{
		"00001_create_collections_table.sql",
		"00002_create_collections_updated_at_index.sql",
	}

	for _, migration := range expectedMigrations {
		if _, err := fs.Stat(migrationsFS, migrationsDir+"/"+migration); err != nil {
			t.Errorf("Migration file %s is not embedded: %v", migration, err)
		}
	}
}

func TestMigrationFilesHaveUpAndDown(t *testing.T) {
	files, err := fs.ReadDir(migrationsFS, migrationsDir)
	if err != nil {
		t.Fatalf("Failed to read migrations directory: %v", err)
	}

	sqlFileCount := 0
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}

		sqlFileCount++
		content, err := fs.ReadFile(migrationsFS, migrationsDir+"/"+file.Name())
		if err != nil {
			t.Errorf("Failed to read migration file %s: %v", file.Name(), err)
			continue
		}

		contentStr := string(content)
		for _, directive := range []string{"-- +goose Up", "-- +goose Down", "-- +goose StatementBegin", "-- +goose StatementEnd"} {
			if !strings.Contains(contentStr, directive) {
				t.Errorf("Migration file %s missing '%s' directive", file.Name(), directive)
			}
		}
	}

	if sqlFileCount == 0 {
		t.Error("No SQL migration files found")
	}
}

func TestCollectionsTableHasRequiredColumns(t *testing.T) {
	content, err := fs.ReadFile(migrationsFS, migrationsDir+"/00001_create_collections_table.sql")
	if err != nil {
		t.Fatalf("Failed to read collections migration: %v", err)
	}

	contentStr := string(content)
	requiredColumns := []string{
		"CREATE TABLE IF NOT EXISTS collections",
		"key VARCHAR(128) PRIMARY KEY",
		"value JSONB NOT NULL",
		"updated_at TIMESTAMP",
		"DROP TABLE IF EXISTS collections",
	}

	for _, column := range requiredColumns {
		if !strings.Contains(contentStr, column) {
			t.Errorf("Collections migration missing: %s", column)
		}
	}
}

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{
		Host:     "db",
		Port:     "5433",
		User:     "shop",
		Password: "secret",
		Database: "storefront",
		Schema:   "public",
	})

	expected := "postgres://shop:secret@db:5433/storefront?sslmode=disable&search_path=public"
	if dsn != expected {
		t.Errorf("expected %s, got %s", expected, dsn)
	}
}
