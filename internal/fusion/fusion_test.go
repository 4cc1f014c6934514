package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/calcbert/internal/model"
)

func pred(label string, conf float64) *model.PredictionResult {
	return &model.PredictionResult{Label: label, Confidence: conf}
}

func TestFuse_HighConfidenceRule(t *testing.T) {
	rule := &model.PredictionResult{Label: "Coffee", Confidence: 0.95, Matches: []string{"starbucks"}}
	ml := &model.PredictionResult{
		Label:      "Fuel",
		Confidence: 0.8,
		TopTokens:  []model.TokenScore{{Token: "petrol", Score: 0.5}},
	}

	got := Fuse(rule, nil, ml, model.DefaultWeights())

	assert.Equal(t, "Coffee", got.Label)
	assert.Equal(t, model.ModelRule, got.ModelUsed)
	assert.Equal(t, []string{"starbucks"}, got.Rationale.RuleHits)
	assert.Equal(t, ml.TopTokens, got.Rationale.TopTokens)
	assert.Equal(t, NoteRule, got.Rationale.Notes)
	require.NotNil(t, got.Rationale.Weighting)
	assert.Equal(t, model.DefaultWeights(), *got.Rationale.Weighting)
}

func TestFuse_PriorityChain(t *testing.T) {
	tests := []struct {
		rule      *model.PredictionResult
		tfidf     *model.PredictionResult
		ml        *model.PredictionResult
		name      string
		wantLabel string
		wantUsed  model.ModelUsed
		wantNote  string
	}{
		{
			name:      "rule at threshold beats everything",
			rule:      pred("Coffee", 0.9),
			tfidf:     pred("Fuel", 0.99),
			ml:        pred("Groceries", 0.99),
			wantLabel: "Coffee", wantUsed: model.ModelRule, wantNote: NoteRule,
		},
		{
			name:      "weak rule loses to tfidf",
			rule:      pred("Coffee", 0.89),
			tfidf:     pred("Fuel", 0.4),
			ml:        pred("Groceries", 0.99),
			wantLabel: "Fuel", wantUsed: model.ModelTFIDF, wantNote: NoteTFIDF,
		},
		{
			name:      "tfidf at threshold",
			tfidf:     pred("Fuel", 0.10),
			ml:        pred("Groceries", 0.99),
			wantLabel: "Fuel", wantUsed: model.ModelTFIDF, wantNote: NoteTFIDF,
		},
		{
			name:      "tfidf below threshold falls to heavy",
			rule:      pred("Coffee", 0.5),
			tfidf:     pred("Fuel", 0.09),
			ml:        pred("Groceries", 0.3),
			wantLabel: "Groceries", wantUsed: model.ModelHeavy, wantNote: NoteHeavy,
		},
		{
			name:      "weak rule used when nothing else",
			rule:      pred("Coffee", 0.5),
			tfidf:     pred("Fuel", 0.05),
			wantLabel: "Coffee", wantUsed: model.ModelRule,
		},
		{
			name:      "nothing at all",
			wantLabel: model.UnknownLabel, wantUsed: model.ModelNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Fuse(tt.rule, tt.tfidf, tt.ml, model.DefaultWeights())
			assert.Equal(t, tt.wantLabel, got.Label)
			assert.Equal(t, tt.wantUsed, got.ModelUsed)
			assert.Equal(t, tt.wantNote, got.Rationale.Notes)
		})
	}
}

func TestFuse_FallbackShapes(t *testing.T) {
	t.Run("unknown", func(t *testing.T) {
		got := Fuse(nil, nil, nil, model.DefaultWeights())
		assert.Equal(t, model.UnknownLabel, got.Label)
		assert.Zero(t, got.Confidence)
		assert.Equal(t, model.Rationale{}, got.Rationale)
	})

	t.Run("weak rule verbatim", func(t *testing.T) {
		rule := &model.PredictionResult{Label: "Coffee", Confidence: 0.6, Matches: []string{"generic-cafe"}}
		got := Fuse(rule, nil, nil, model.DefaultWeights())
		assert.Equal(t, *rule, got.PredictionResult)
		assert.Equal(t, model.Rationale{}, got.Rationale)
	})
}

func TestFuse_RationaleSources(t *testing.T) {
	rule := &model.PredictionResult{Label: "Coffee", Confidence: 0.3, Matches: []string{"generic-cafe"}}
	tfidf := &model.PredictionResult{
		Label: "Fuel", Confidence: 0.7,
		TopTokens: []model.TokenScore{{Token: "hpcl", Score: 0.8}},
	}
	ml := &model.PredictionResult{
		Label: "Groceries", Confidence: 0.9,
		TopTokens: []model.TokenScore{{Token: "dmart", Score: 0.33}},
	}

	got := Fuse(rule, tfidf, ml, model.DefaultWeights())
	assert.Equal(t, []string{"generic-cafe"}, got.Rationale.RuleHits)
	assert.Equal(t, tfidf.TopTokens, got.Rationale.TopTokens)

	got = Fuse(rule, nil, ml, model.DefaultWeights())
	assert.Equal(t, []string{"generic-cafe"}, got.Rationale.RuleHits)
	assert.Equal(t, ml.TopTokens, got.Rationale.TopTokens)

	got = Fuse(nil, nil, ml, model.DefaultWeights())
	assert.Empty(t, got.Rationale.RuleHits)
}

func TestFuse_FieldIntegrity(t *testing.T) {
	tfidf := &model.PredictionResult{
		Label:      "Fuel",
		Confidence: 0.7,
		Probs:      map[string]float64{"Fuel": 0.7, "Coffee": 0.3},
		TopTokens:  []model.TokenScore{{Token: "hpcl", Score: 0.8}},
	}
	ml := &model.PredictionResult{Label: "Groceries", Confidence: 0.9, RawLogits: []float64{1, 2}}

	got := Fuse(nil, tfidf, ml, model.DefaultWeights())
	assert.Equal(t, *tfidf, got.PredictionResult, "exactly the winner's fields")
	assert.Nil(t, got.RawLogits, "no heavy fields leak into a tfidf result")

	got.Probs["Fuel"] = 0
	got.TopTokens[0].Token = "mutated"
	assert.InDelta(t, 0.7, tfidf.Probs["Fuel"], 1e-12)
	assert.Equal(t, "hpcl", tfidf.TopTokens[0].Token)
}

func TestFuse_WeightsAreDisplayOnly(t *testing.T) {
	tfidf := pred("Fuel", 0.5)
	ml := pred("Groceries", 0.99)

	a := Fuse(nil, tfidf, ml, model.Weights{Rule: 0, ML: 1, TFIDF: 0})
	b := Fuse(nil, tfidf, ml, model.DefaultWeights())
	assert.Equal(t, a.Label, b.Label)
	assert.Equal(t, a.ModelUsed, b.ModelUsed)
	assert.InDelta(t, 1.0, a.Rationale.Weighting.ML, 1e-12)
}
