// Package engine runs a classification request through every predictor and
// fuses the answers.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/calcbert/internal/common"
	"github.com/Veraticus/calcbert/internal/fusion"
	"github.com/Veraticus/calcbert/internal/model"
)

const defaultBatchConcurrency = 8

// Classifier orchestrates the classification of transaction descriptions.
type Classifier struct {
	rules       RuleEvaluator
	tfidf       Predictor
	heavy       Predictor
	usage       RuleUsageRecorder
	weights     model.Weights
	concurrency int
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithHeavy enables the transformer predictor.
func WithHeavy(p Predictor) Option {
	return func(c *Classifier) {
		c.heavy = p
	}
}

// WithRuleUsage records rule wins.
func WithRuleUsage(r RuleUsageRecorder) Option {
	return func(c *Classifier) {
		c.usage = r
	}
}

// WithWeights sets the weighting reported in rationales.
func WithWeights(w model.Weights) Option {
	return func(c *Classifier) {
		c.weights = w
	}
}

// WithConcurrency bounds ClassifyBatch parallelism.
func WithConcurrency(n int) Option {
	return func(c *Classifier) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// New creates a classifier over the rule engine and the TF-IDF predictor.
func New(rules RuleEvaluator, tfidf Predictor, opts ...Option) *Classifier {
	c := &Classifier{
		rules:       rules,
		tfidf:       tfidf,
		weights:     model.DefaultWeights(),
		concurrency: defaultBatchConcurrency,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify categorizes one description. Predictor failures are logged and
// treated as the predictor having no opinion.
func (c *Classifier) Classify(ctx context.Context, text string) (*model.FusedResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, common.NewValidationError("text", "must not be empty")
	}

	eval := c.rules.Evaluate(ctx, text)

	var tfidfOut, heavyOut *model.PredictionResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tfidfOut = c.predict(gctx, "tfidf", c.tfidf, text)
		return nil
	})
	if c.heavy != nil {
		g.Go(func() error {
			heavyOut = c.predict(gctx, "heavy", c.heavy, text)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := fusion.Fuse(eval.Result, tfidfOut, heavyOut, c.weights)

	if result.ModelUsed == model.ModelRule && eval.RuleID > 0 && c.usage != nil {
		if err := c.usage.IncrementPatternRuleUseCount(ctx, eval.RuleID); err != nil {
			slog.Warn("Failed to increment pattern rule use count",
				"rule_id", eval.RuleID,
				"error", err)
		}
	}

	slog.Debug("Classified transaction",
		"label", result.Label,
		"confidence", result.Confidence,
		"model_used", result.ModelUsed)
	return &result, nil
}

// ClassifyBatch categorizes texts concurrently, preserving order. Blank texts
// fail the whole batch.
func (c *Classifier) ClassifyBatch(ctx context.Context, texts []string) ([]model.FusedResult, error) {
	results := make([]model.FusedResult, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, text := range texts {
		i, text := i, text
		g.Go(func() error {
			res, err := c.Classify(gctx, text)
			if err != nil {
				return fmt.Errorf("text %d: %w", i, err)
			}
			results[i] = *res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *Classifier) predict(ctx context.Context, name string, p Predictor, text string) *model.PredictionResult {
	if p == nil {
		return nil
	}
	out, err := p.Predict(ctx, text)
	if err != nil {
		slog.Warn("Predictor unavailable", "predictor", name, "error", err)
		return nil
	}
	return out
}
