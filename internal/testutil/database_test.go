package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/calcbert/internal/model"
	"github.com/Veraticus/calcbert/internal/storage"
)

func TestSetupTestStorageWithOptions(t *testing.T) {
	called := false
	store := SetupTestStorageWithOptions(t, TestDBOptions{
		Rules: []model.PatternRule{
			{Name: "uber", Pattern: "uber", Category: "Transport", Confidence: 0.9, IsActive: true},
		},
		Feedback: []model.CorpusRow{
			{Text: "HPCL PETROL", Category: "Fuel"},
			{Text: "SWIGGY", Category: "Food Delivery"},
		},
		CustomSetup: func(context.Context, *storage.SQLiteStorage) error {
			called = true
			return nil
		},
	})

	ctx := context.Background()
	count, err := store.CountFeedback(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	rules, err := store.GetActivePatternRules(ctx)
	require.NoError(t, err)
	assert.Len(t, rules, 1)
	assert.True(t, called)
}
