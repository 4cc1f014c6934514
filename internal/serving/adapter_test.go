package serving

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/calcbert/internal/tfidf"
)

func train(t *testing.T, texts, labels []string) *tfidf.Classifier {
	t.Helper()
	c := tfidf.New()
	require.NoError(t, c.Fit(texts, labels))
	return c
}

func TestAdapter_NoModel(t *testing.T) {
	a := NewAdapter(t.TempDir())
	assert.False(t, a.Ready())
	assert.Nil(t, a.Labels())

	_, err := a.Predict(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrNoModel)
	assert.False(t, a.Reload())
}

func TestAdapter_PredictNormalizes(t *testing.T) {
	a := NewAdapter(t.TempDir())
	a.Publish(train(t,
		[]string{"starbucks coffee", "hpcl petrol"},
		[]string{"Coffee", "Fuel"},
	))

	got, err := a.Predict(context.Background(), "SBUX #12 Coffee!!")
	require.NoError(t, err)
	assert.Equal(t, "Coffee", got.Label)
}

func TestAdapter_ReloadKeepsPreviousOnFailure(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "tfidf")
	first := train(t, []string{"starbucks coffee", "hpcl petrol"}, []string{"Coffee", "Fuel"})
	require.NoError(t, first.Save(dir))

	a := NewAdapter(dir)
	require.True(t, a.Reload())
	assert.Equal(t, []string{"Coffee", "Fuel"}, a.Labels())

	require.NoError(t, os.WriteFile(filepath.Join(dir, tfidf.LabelsFile), []byte("{"), 0o600))
	assert.False(t, a.Reload())
	assert.Equal(t, []string{"Coffee", "Fuel"}, a.Labels())
}

func TestAdapter_SwapIsAtomic(t *testing.T) {
	oldModel := train(t, []string{"alpha one", "beta two"}, []string{"A", "B"})
	newModel := train(t, []string{"alpha one", "beta two", "gamma three"}, []string{"X", "Y", "Z"})

	oldLabels := map[string]bool{"A": true, "B": true}
	newLabels := map[string]bool{"X": true, "Y": true, "Z": true}

	a := NewAdapter(t.TempDir())
	a.Publish(oldModel)

	ctx := context.Background()
	var wg sync.WaitGroup
	errs := make(chan string, 64)

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				res, err := a.Predict(ctx, "alpha one")
				if err != nil {
					errs <- err.Error()
					return
				}
				// Every label in a single result must come from one model.
				fromOld, fromNew := 0, 0
				for l := range res.Probs {
					if oldLabels[l] {
						fromOld++
					}
					if newLabels[l] {
						fromNew++
					}
				}
				if (fromOld > 0) == (fromNew > 0) {
					errs <- "mixed model output"
					return
				}
			}
		}()
	}

	for i := 0; i < 50; i++ {
		if i%2 == 0 {
			a.Publish(newModel)
		} else {
			a.Publish(oldModel)
		}
	}
	a.Publish(newModel)
	wg.Wait()
	close(errs)

	for msg := range errs {
		t.Fatal(msg)
	}

	got, err := a.Predict(ctx, "gamma three")
	require.NoError(t, err)
	assert.Equal(t, "Z", got.Label)
}
