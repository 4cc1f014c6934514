package pattern

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/Veraticus/calcbert/internal/model"
	"github.com/Veraticus/calcbert/internal/textnorm"
)

type compiledRule struct {
	re *regexp.Regexp
	// literal is the normalized pattern padded with spaces for whole-word matching.
	literal string
	Rule
}

// Matcher is an immutable, compiled set of rules.
type Matcher struct {
	rules []compiledRule
}

// NewMatcher compiles rules, dropping inactive ones. Regex rules are case
// insensitive and run against normalized text.
func NewMatcher(rules []Rule) (*Matcher, error) {
	compiled := make([]compiledRule, 0, len(rules))
	for _, rule := range rules {
		if !rule.IsActive {
			continue
		}

		cr := compiledRule{Rule: rule}
		if rule.IsRegex {
			expr := rule.Pattern
			if !strings.HasPrefix(expr, "(?i)") {
				expr = "(?i)" + expr
			}
			re, err := regexp.Compile(expr)
			if err != nil {
				return nil, fmt.Errorf("failed to compile rule %s: %w", rule.Name, err)
			}
			cr.re = re
		} else {
			norm := textnorm.Normalize(rule.Pattern)
			if norm == "" {
				continue
			}
			cr.literal = " " + norm + " "
		}
		compiled = append(compiled, cr)
	}

	sort.SliceStable(compiled, func(i, j int) bool {
		return compiled[i].Priority > compiled[j].Priority
	})

	return &Matcher{rules: compiled}, nil
}

// Len returns the number of active rules.
func (m *Matcher) Len() int {
	return len(m.rules)
}

// Match returns every rule matching the normalized text, highest priority first.
func (m *Matcher) Match(normalized string) []Rule {
	padded := " " + normalized + " "

	var matches []Rule
	for _, r := range m.rules {
		if r.re != nil {
			if r.re.MatchString(normalized) {
				matches = append(matches, r.Rule)
			}
			continue
		}
		if strings.Contains(padded, r.literal) {
			matches = append(matches, r.Rule)
		}
	}
	return matches
}

// Engine is the rule predictor used on the request path. Its rule set can be
// replaced at runtime; in-flight evaluations keep the set they started with.
type Engine struct {
	matcher atomic.Pointer[Matcher]
}

// NewEngine creates an engine over rules.
func NewEngine(rules []Rule) (*Engine, error) {
	m, err := NewMatcher(rules)
	if err != nil {
		return nil, err
	}
	e := &Engine{}
	e.matcher.Store(m)
	return e, nil
}

// Reload replaces the rule set with the active rules from src. On error the
// previous rules stay in effect.
func (e *Engine) Reload(ctx context.Context, src RuleSource) error {
	rules, err := src.GetActivePatternRules(ctx)
	if err != nil {
		return fmt.Errorf("failed to load pattern rules: %w", err)
	}
	m, err := NewMatcher(rules)
	if err != nil {
		return err
	}
	e.matcher.Store(m)
	slog.Info("Loaded pattern rules", "count", m.Len())
	return nil
}

// Evaluate classifies text with the current rules.
func (e *Engine) Evaluate(_ context.Context, text string) Evaluation {
	matches := e.matcher.Load().Match(textnorm.Normalize(text))
	if len(matches) == 0 {
		return Evaluation{}
	}

	best := matches[0]
	names := make([]string, 0, len(matches))
	for _, r := range matches {
		names = append(names, r.Name)
	}

	return Evaluation{
		RuleID: best.ID,
		Result: &model.PredictionResult{
			Label:      best.Category,
			Confidence: best.Confidence,
			Matches:    names,
		},
	}
}

// Predict returns the rule engine's prediction or nil when nothing matched.
func (e *Engine) Predict(ctx context.Context, text string) *model.PredictionResult {
	return e.Evaluate(ctx, text).Result
}
