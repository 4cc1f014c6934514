// Package testutil provides shared helpers for tests that need a real,
// migrated feedback database.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/calcbert/internal/model"
	"github.com/Veraticus/calcbert/internal/storage"
)

// TestDBOptions provides configuration options for test database setup.
type TestDBOptions struct {
	CustomSetup    func(context.Context, *storage.SQLiteStorage) error
	Rules          []model.PatternRule
	Feedback       []model.CorpusRow
	SkipMigrations bool
}

// SetupTestStorage creates a migrated in-memory database that is closed when
// the test ends.
func SetupTestStorage(t *testing.T) *storage.SQLiteStorage {
	t.Helper()
	return SetupTestStorageWithOptions(t, TestDBOptions{})
}

// SetupTestStorageWithOptions creates an in-memory database seeded with the
// given rules and feedback.
//
// Example:
//
//	store := testutil.SetupTestStorageWithOptions(t, testutil.TestDBOptions{
//		Feedback: []model.CorpusRow{{Text: "HPCL PETROL", Category: "Fuel"}},
//	})
func SetupTestStorageWithOptions(t *testing.T, opts TestDBOptions) *storage.SQLiteStorage {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()
	if !opts.SkipMigrations {
		if err := store.Migrate(ctx); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
	}

	if len(opts.Rules) > 0 {
		if _, err := store.SeedPatternRules(ctx, opts.Rules); err != nil {
			t.Fatalf("failed to seed pattern rules: %v", err)
		}
	}

	for _, row := range opts.Feedback {
		if _, err := store.AppendFeedback(ctx, row.Text, row.Category, nil); err != nil {
			t.Fatalf("failed to seed feedback %q: %v", row.Text, err)
		}
	}

	if opts.CustomSetup != nil {
		if err := opts.CustomSetup(ctx, store); err != nil {
			t.Fatalf("custom setup failed: %v", err)
		}
	}

	return store
}
