// Package pattern implements the rule engine: deterministic description
// patterns that map a statement line straight to a category.
package pattern

import (
	"context"

	"github.com/Veraticus/calcbert/internal/model"
)

// RuleSource loads the currently active rules.
type RuleSource interface {
	GetActivePatternRules(ctx context.Context) ([]model.PatternRule, error)
}

// Rule is an alias to the model.PatternRule type for convenience.
type Rule = model.PatternRule

// Evaluation is the rule engine's answer for one text.
type Evaluation struct {
	// Result is nil when no rule matched.
	Result *model.PredictionResult
	// RuleID identifies the rule that supplied the label.
	RuleID int
}
