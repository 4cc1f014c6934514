package tfidf

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Artifact file names inside a model directory.
const (
	VectorizerFile = "vectorizer.json"
	EstimatorFile  = "model.json"
	LabelsFile     = "labels.json"
)

// ErrCorruptArtifact indicates that saved artifacts are inconsistent.
var ErrCorruptArtifact = errors.New("corrupt model artifact")

type estimatorState struct {
	ClassCount   []float64   `json:"class_count"`
	FeatureCount [][]float64 `json:"feature_count"`
	FeatureTotal []float64   `json:"feature_total"`
	Alpha        float64     `json:"alpha"`
	TopTokens    int         `json:"top_tokens"`
}

// checkIndices verifies that the vocabulary maps terms one-to-one onto
// [0, len(IDF)).
func (v *Vectorizer) checkIndices() error {
	seen := make([]bool, len(v.IDF))
	for term, i := range v.Vocabulary {
		if i < 0 || i >= len(seen) {
			return fmt.Errorf("%w: term %q has feature index %d outside [0, %d)",
				ErrCorruptArtifact, term, i, len(seen))
		}
		if seen[i] {
			return fmt.Errorf("%w: feature index %d assigned to more than one term", ErrCorruptArtifact, i)
		}
		seen[i] = true
	}
	return nil
}

// Save writes the vectorizer, estimator and label encoder to dir. Each file is
// written to a temporary name and renamed into place.
func (c *Classifier) Save(dir string) error {
	if !c.Fitted() {
		return ErrNotFitted
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}

	est := estimatorState{
		ClassCount:   c.classCount,
		FeatureCount: c.featureCount,
		FeatureTotal: c.featureTotal,
		Alpha:        c.alpha,
		TopTokens:    c.topTokens,
	}

	artifacts := []struct {
		value any
		name  string
	}{
		{name: VectorizerFile, value: c.vec},
		{name: EstimatorFile, value: est},
		{name: LabelsFile, value: c.labels},
	}
	for _, a := range artifacts {
		if err := writeJSON(filepath.Join(dir, a.name), a.value); err != nil {
			return err
		}
	}
	return nil
}

// Load reads a classifier previously written by Save.
func Load(dir string) (*Classifier, error) {
	var vec Vectorizer
	if err := readJSON(filepath.Join(dir, VectorizerFile), &vec); err != nil {
		return nil, err
	}
	var est estimatorState
	if err := readJSON(filepath.Join(dir, EstimatorFile), &est); err != nil {
		return nil, err
	}
	var labels []string
	if err := readJSON(filepath.Join(dir, LabelsFile), &labels); err != nil {
		return nil, err
	}

	if len(labels) == 0 {
		return nil, fmt.Errorf("%w: empty label set", ErrCorruptArtifact)
	}
	if len(vec.IDF) != len(vec.Vocabulary) {
		return nil, fmt.Errorf("%w: vocabulary has %d terms but %d idf weights",
			ErrCorruptArtifact, len(vec.Vocabulary), len(vec.IDF))
	}
	if err := vec.checkIndices(); err != nil {
		return nil, err
	}
	if len(est.ClassCount) != len(labels) || len(est.FeatureCount) != len(labels) || len(est.FeatureTotal) != len(labels) {
		return nil, fmt.Errorf("%w: estimator has %d classes, label encoder has %d",
			ErrCorruptArtifact, len(est.ClassCount), len(labels))
	}
	for k, row := range est.FeatureCount {
		if len(row) != len(vec.IDF) {
			return nil, fmt.Errorf("%w: class %q has %d features, vocabulary has %d",
				ErrCorruptArtifact, labels[k], len(row), len(vec.IDF))
		}
	}
	vec.index()

	c := New(WithAlpha(est.Alpha), WithTopTokens(est.TopTokens))
	c.vec = &vec
	c.labels = labels
	c.labelIndex = make(map[string]int, len(labels))
	for i, l := range labels {
		c.labelIndex[l] = i
	}
	c.classCount = est.ClassCount
	c.featureCount = est.FeatureCount
	c.featureTotal = est.FeatureTotal
	c.refresh()
	return c, nil
}

func writeJSON(path string, value any) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", filepath.Base(path), err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := json.NewEncoder(tmp).Encode(value); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", filepath.Base(path), err)
	}
	return nil
}

func readJSON(path string, dst any) error {
	f, err := os.Open(path) //nolint:gosec // path is built from the configured model directory
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", filepath.Base(path), err)
	}
	defer func() { _ = f.Close() }()

	if err := json.NewDecoder(f).Decode(dst); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorruptArtifact, filepath.Base(path), err)
	}
	return nil
}
