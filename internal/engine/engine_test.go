package engine

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/calcbert/internal/common"
	"github.com/Veraticus/calcbert/internal/model"
	"github.com/Veraticus/calcbert/internal/pattern"
)

type fakeRules struct {
	eval pattern.Evaluation
}

func (f fakeRules) Evaluate(context.Context, string) pattern.Evaluation {
	return f.eval
}

type fakePredictor struct {
	out   *model.PredictionResult
	err   error
	mu    sync.Mutex
	calls int
}

func (f *fakePredictor) Predict(context.Context, string) (*model.PredictionResult, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.out == nil {
		return nil, f.err
	}
	out := f.out.Clone()
	return &out, f.err
}

type fakeUsage struct {
	err error
	ids []int
}

func (f *fakeUsage) IncrementPatternRuleUseCount(_ context.Context, id int) error {
	f.ids = append(f.ids, id)
	return f.err
}

func ruleEval(id int, label string, conf float64) pattern.Evaluation {
	return pattern.Evaluation{
		RuleID: id,
		Result: &model.PredictionResult{Label: label, Confidence: conf, Matches: []string{"rule-" + label}},
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		tfidf     *fakePredictor
		heavy     *fakePredictor
		name      string
		wantLabel string
		wantUsed  model.ModelUsed
		rules     pattern.Evaluation
		wantUsage []int
	}{
		{
			name:      "strong rule wins and is counted",
			rules:     ruleEval(4, "Coffee", 0.95),
			tfidf:     &fakePredictor{out: &model.PredictionResult{Label: "Fuel", Confidence: 0.8}},
			heavy:     &fakePredictor{out: &model.PredictionResult{Label: "Groceries", Confidence: 0.9}},
			wantLabel: "Coffee", wantUsed: model.ModelRule, wantUsage: []int{4},
		},
		{
			name:      "tfidf overrides weak rule",
			rules:     ruleEval(4, "Coffee", 0.6),
			tfidf:     &fakePredictor{out: &model.PredictionResult{Label: "Fuel", Confidence: 0.4}},
			wantLabel: "Fuel", wantUsed: model.ModelTFIDF,
		},
		{
			name:      "tfidf failure falls through to heavy",
			tfidf:     &fakePredictor{err: errors.New("no model")},
			heavy:     &fakePredictor{out: &model.PredictionResult{Label: "Groceries", Confidence: 0.7}},
			wantLabel: "Groceries", wantUsed: model.ModelHeavy,
		},
		{
			name:      "heavy failure and no model",
			tfidf:     &fakePredictor{err: errors.New("no model")},
			heavy:     &fakePredictor{err: errors.New("timeout")},
			wantLabel: model.UnknownLabel, wantUsed: model.ModelNone,
		},
		{
			name:      "weak rule fallback is counted",
			rules:     ruleEval(9, "Coffee", 0.6),
			tfidf:     &fakePredictor{out: &model.PredictionResult{Label: "Fuel", Confidence: 0.05}},
			wantLabel: "Coffee", wantUsed: model.ModelRule, wantUsage: []int{9},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			usage := &fakeUsage{}
			opts := []Option{WithRuleUsage(usage)}
			if tt.heavy != nil {
				opts = append(opts, WithHeavy(tt.heavy))
			}
			c := New(fakeRules{eval: tt.rules}, tt.tfidf, opts...)

			got, err := c.Classify(context.Background(), "some transaction")
			require.NoError(t, err)
			assert.Equal(t, tt.wantLabel, got.Label)
			assert.Equal(t, tt.wantUsed, got.ModelUsed)
			assert.Equal(t, tt.wantUsage, usage.ids)
			assert.Equal(t, 1, tt.tfidf.calls)
		})
	}
}

func TestClassify_Validation(t *testing.T) {
	c := New(fakeRules{}, &fakePredictor{})
	_, err := c.Classify(context.Background(), "   ")
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestClassify_UsageFailureIsIgnored(t *testing.T) {
	usage := &fakeUsage{err: errors.New("locked")}
	c := New(fakeRules{eval: ruleEval(1, "Fuel", 0.99)}, &fakePredictor{}, WithRuleUsage(usage))

	got, err := c.Classify(context.Background(), "hpcl")
	require.NoError(t, err)
	assert.Equal(t, "Fuel", got.Label)
}

func TestClassify_Weights(t *testing.T) {
	w := model.Weights{Rule: 1}
	c := New(fakeRules{eval: ruleEval(1, "Fuel", 0.99)}, &fakePredictor{}, WithWeights(w))

	got, err := c.Classify(context.Background(), "hpcl")
	require.NoError(t, err)
	require.NotNil(t, got.Rationale.Weighting)
	assert.Equal(t, w, *got.Rationale.Weighting)
}

func TestClassify_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(fakeRules{}, &fakePredictor{})
	_, err := c.Classify(ctx, "hpcl")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClassifyBatch(t *testing.T) {
	tfidf := &fakePredictor{out: &model.PredictionResult{Label: "Fuel", Confidence: 0.5}}
	c := New(fakeRules{}, tfidf, WithConcurrency(2))

	texts := []string{"a", "b", "c", "d", "e"}
	got, err := c.ClassifyBatch(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, got, len(texts))
	for _, r := range got {
		assert.Equal(t, "Fuel", r.Label)
	}
	assert.Equal(t, len(texts), tfidf.calls)

	_, err = c.ClassifyBatch(context.Background(), []string{"ok", ""})
	assert.ErrorIs(t, err, common.ErrValidation)
}
