package engine

import (
	"context"

	"github.com/Veraticus/calcbert/internal/model"
	"github.com/Veraticus/calcbert/internal/pattern"
)

// RuleEvaluator is the deterministic rule predictor.
type RuleEvaluator interface {
	Evaluate(ctx context.Context, text string) pattern.Evaluation
}

// Predictor is a statistical classifier. A nil result with a nil error means
// the predictor has no opinion.
type Predictor interface {
	Predict(ctx context.Context, text string) (*model.PredictionResult, error)
}

// RuleUsageRecorder counts how often a rule supplied the final answer.
type RuleUsageRecorder interface {
	IncrementPatternRuleUseCount(ctx context.Context, id int) error
}
