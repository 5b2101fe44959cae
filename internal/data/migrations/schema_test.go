package migrations

import (
	"context"
	"path/filepath"
	"testing"

	"folio/app/internal/data/database"
	platformlog "folio/app/internal/platform/log"
)

func TestMigrateCreatesEveryTable(t *testing.T) {
	t.Parallel()

	db, err := database.Open(database.Options{Path: filepath.Join(t.TempDir(), "folio.db")})
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })

	logger := platformlog.Discard()
	if err := Migrate(context.Background(), db, logger); err != nil {
		t.Fatalf("Migrate returned error: %v", err)
	}
	// Running twice must be a no-op.
	if err := Migrate(context.Background(), db, logger); err != nil {
		t.Fatalf("second Migrate returned error: %v", err)
	}

	tables := []string{
		"users",
		"portfolios",
		"portfolio_skills",
		"portfolio_projects",
		"portfolio_experiences",
		"portfolio_educations",
		"portfolio_social_links",
		"ai_usage",
	}
	for _, table := range tables {
		if !db.Migrator().HasTable(table) {
			t.Errorf("expected table %q to exist", table)
		}
	}

	if !db.Migrator().HasIndex("portfolios", "idx_portfolios_owner_slug") {
		t.Errorf("expected unique owner/slug index on portfolios")
	}
}

func TestMigrateRequiresDB(t *testing.T) {
	t.Parallel()

	if err := Migrate(context.Background(), nil, nil); err == nil {
		t.Fatalf("expected error for nil db")
	}
}
