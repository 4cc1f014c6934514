// Package serving owns the live TF-IDF model used on the request path.
package serving

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/Veraticus/calcbert/internal/model"
	"github.com/Veraticus/calcbert/internal/textnorm"
	"github.com/Veraticus/calcbert/internal/tfidf"
)

// ErrNoModel indicates that no TF-IDF model has been loaded yet.
var ErrNoModel = errors.New("no tfidf model loaded")

// Adapter serves predictions from the current model. Swaps are atomic: a
// request sees either the old model or the new one, never a mix.
type Adapter struct {
	current  atomic.Pointer[tfidf.Classifier]
	modelDir string
}

// NewAdapter creates an adapter reading artifacts from modelDir. It does not
// load anything; call Reload.
func NewAdapter(modelDir string) *Adapter {
	return &Adapter{modelDir: modelDir}
}

// ModelDir returns the artifact directory.
func (a *Adapter) ModelDir() string {
	return a.modelDir
}

// Predict normalizes text and classifies it with the model that is live at
// call time.
func (a *Adapter) Predict(ctx context.Context, text string) (*model.PredictionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	clf := a.current.Load()
	if clf == nil {
		return nil, ErrNoModel
	}

	results, err := clf.Predict([]string{textnorm.Normalize(text)})
	if err != nil {
		return nil, fmt.Errorf("tfidf prediction failed: %w", err)
	}
	return &results[0], nil
}

// Publish makes clf the live model. clf must not be modified afterwards.
func (a *Adapter) Publish(clf *tfidf.Classifier) {
	prev := a.current.Swap(clf)
	slog.Info("Published tfidf model",
		"labels", len(clf.Labels()),
		"replaced", prev != nil)
}

// Reload loads a fresh model from the artifact directory and swaps it in.
// On failure the previous model stays live and false is returned.
func (a *Adapter) Reload() bool {
	clf, err := tfidf.Load(a.modelDir)
	if err != nil {
		slog.Warn("Failed to reload tfidf model", "dir", a.modelDir, "error", err)
		return false
	}
	a.Publish(clf)
	return true
}

// Labels returns the live label space, or nil with no model.
func (a *Adapter) Labels() []string {
	clf := a.current.Load()
	if clf == nil {
		return nil
	}
	return clf.Labels()
}

// Ready reports whether a model is live.
func (a *Adapter) Ready() bool {
	return a.current.Load() != nil
}
