// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/calcbert/internal/model"
)

// FeedbackStore persists user corrections.
type FeedbackStore interface {
	AppendFeedback(ctx context.Context, text, correctLabel string, userID *string) (int64, error)
	CountFeedback(ctx context.Context) (int, error)
	ListFeedback(ctx context.Context) ([]model.FeedbackRecord, error)
	ListRecentFeedback(ctx context.Context, maxAge time.Duration) ([]model.FeedbackRecord, error)
	ClearFeedback(ctx context.Context) error
}

// RuleStore persists pattern rules.
type RuleStore interface {
	CreatePatternRule(ctx context.Context, rule *model.PatternRule) error
	SeedPatternRules(ctx context.Context, rules []model.PatternRule) (int, error)
	GetActivePatternRules(ctx context.Context) ([]model.PatternRule, error)
	DeletePatternRule(ctx context.Context, id int) error
	IncrementPatternRuleUseCount(ctx context.Context, id int) error
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	FeedbackStore
	RuleStore

	Migrate(ctx context.Context) error
	Close() error
}
