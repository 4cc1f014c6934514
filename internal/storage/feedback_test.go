package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/calcbert/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper function to create test storage.
func createTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func strPtr(s string) *string { return &s }

func TestAppendFeedback_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	firstID, err := store.AppendFeedback(ctx, "STARBCKS #1023 MUMBAI", "Coffee & Beverages", strPtr("dhyey"))
	require.NoError(t, err)

	before, err := store.CountFeedback(ctx)
	require.NoError(t, err)

	id, err := store.AppendFeedback(ctx, "HPCL PETROL PUMP", "Fuel", nil)
	require.NoError(t, err)
	assert.Greater(t, id, firstID)

	after, err := store.CountFeedback(ctx)
	require.NoError(t, err)
	assert.Equal(t, before+1, after)

	records, err := store.ListFeedback(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)

	matching := 0
	for _, r := range records {
		if r.ID == id {
			matching++
			assert.Equal(t, "HPCL PETROL PUMP", r.Text)
			assert.Equal(t, "Fuel", r.CorrectLabel)
			assert.Nil(t, r.UserID)
			assert.False(t, r.CreatedAt.IsZero())
		}
	}
	assert.Equal(t, 1, matching)

	require.NotNil(t, records[0].UserID)
	assert.Equal(t, "dhyey", *records[0].UserID)
}

func TestAppendFeedback_Validation(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	tests := []struct {
		name  string
		text  string
		label string
	}{
		{name: "empty text", text: "", label: "Fuel"},
		{name: "blank text", text: "   ", label: "Fuel"},
		{name: "empty label", text: "HPCL", label: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.AppendFeedback(ctx, tt.text, tt.label, nil)
			assert.ErrorIs(t, err, common.ErrValidation)
		})
	}

	count, err := store.CountFeedback(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestListFeedback_OrderedByCreation(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	step := 0
	store.now = func() time.Time {
		step++
		return base.Add(time.Duration(step) * time.Minute)
	}

	for i := 0; i < 5; i++ {
		_, err := store.AppendFeedback(ctx, fmt.Sprintf("text %d", i), "Label", nil)
		require.NoError(t, err)
	}

	records, err := store.ListFeedback(ctx)
	require.NoError(t, err)
	require.Len(t, records, 5)
	for i := 1; i < len(records); i++ {
		assert.True(t, records[i].CreatedAt.After(records[i-1].CreatedAt))
		assert.Greater(t, records[i].ID, records[i-1].ID)
	}
	assert.Equal(t, "text 0", records[0].Text)
}

func TestListRecentFeedback(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for _, age := range []time.Duration{48 * time.Hour, 3 * time.Hour, time.Hour} {
		store.now = func() time.Time { return now.Add(-age) }
		_, err := store.AppendFeedback(ctx, fmt.Sprintf("age %s", age), "Label", nil)
		require.NoError(t, err)
	}
	store.now = func() time.Time { return now }

	recent, err := store.ListRecentFeedback(ctx, 24*time.Hour)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "age 1h0m0s", recent[0].Text)
	assert.Equal(t, "age 3h0m0s", recent[1].Text)

	_, err = store.ListRecentFeedback(ctx, 0)
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestClearFeedback(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	lastID, err := store.AppendFeedback(ctx, "ZOMATO", "Food Delivery", nil)
	require.NoError(t, err)
	require.NoError(t, store.ClearFeedback(ctx))

	count, err := store.CountFeedback(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	records, err := store.ListFeedback(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	id, err := store.AppendFeedback(ctx, "SWIGGY", "Food Delivery", nil)
	require.NoError(t, err)
	assert.Greater(t, id, lastID, "ids are never reused")
}

func TestAppendFeedback_Concurrent(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	const writers, perWriter = 8, 25
	var wg sync.WaitGroup
	ids := make(chan int64, writers*perWriter)
	errs := make(chan error, writers*perWriter)

	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				id, err := store.AppendFeedback(ctx, fmt.Sprintf("writer %d row %d", w, i), "Label", nil)
				if err != nil {
					errs <- err
					continue
				}
				ids <- id
			}
		}(w)
	}
	wg.Wait()
	close(ids)
	close(errs)

	for err := range errs {
		t.Fatalf("append failed: %v", err)
	}

	seen := make(map[int64]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, writers*perWriter)

	count, err := store.CountFeedback(ctx)
	require.NoError(t, err)
	assert.Equal(t, writers*perWriter, count)
}

func TestFeedback_StorageErrorAfterClose(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)
	require.NoError(t, store.Close())

	_, err := store.AppendFeedback(ctx, "HPCL", "Fuel", nil)
	var storageErr *common.StorageError
	require.True(t, errors.As(err, &storageErr), "got %v", err)
	assert.Equal(t, "append feedback", storageErr.Op)

	_, err = store.CountFeedback(ctx)
	assert.True(t, errors.As(err, &storageErr))
}

func TestMigrate_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	require.NoError(t, store.Migrate(ctx))

	var version int
	require.NoError(t, store.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version))
	assert.Equal(t, ExpectedSchemaVersion, version)
}

func TestNewSQLiteStorage_InMemory(t *testing.T) {
	store, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	require.NoError(t, store.Migrate(context.Background()))
	id, err := store.AppendFeedback(context.Background(), "UBER TRIP", "Transport", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
}

func TestNewSQLiteStorage_EmptyPath(t *testing.T) {
	_, err := NewSQLiteStorage("  ")
	assert.ErrorIs(t, err, common.ErrValidation)
}
