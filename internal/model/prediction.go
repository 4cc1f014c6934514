// Package model defines the core domain models used throughout the application.
package model

import "maps"

// ModelUsed records which predictor produced a fused result.
type ModelUsed string

// Predictor sources.
const (
	ModelRule  ModelUsed = "rule"
	ModelTFIDF ModelUsed = "tfidf"
	// ModelHeavy is the transformer classifier.
	ModelHeavy ModelUsed = "distilbert"
	ModelNone  ModelUsed = "none"
)

// UnknownLabel is returned when no predictor has an opinion.
const UnknownLabel = "Unknown"

// TokenScore is a single token-level explanation entry.
type TokenScore struct {
	Token string  `json:"token"`
	Score float64 `json:"score"`
}

// PredictionResult is the common output shape of every predictor.
type PredictionResult struct {
	Probs      map[string]float64 `json:"probs,omitempty"`
	Label      string             `json:"label"`
	Matches    []string           `json:"matches,omitempty"`
	TopTokens  []TokenScore       `json:"top_tokens,omitempty"`
	RawLogits  []float64          `json:"raw_logits,omitempty"`
	Confidence float64            `json:"confidence"`
}

// Clone returns a deep copy so the result can be handed out without sharing
// maps or slices with the predictor that produced it.
func (p PredictionResult) Clone() PredictionResult {
	out := p
	if p.Probs != nil {
		out.Probs = maps.Clone(p.Probs)
	}
	if p.Matches != nil {
		out.Matches = append([]string(nil), p.Matches...)
	}
	if p.TopTokens != nil {
		out.TopTokens = append([]TokenScore(nil), p.TopTokens...)
	}
	if p.RawLogits != nil {
		out.RawLogits = append([]float64(nil), p.RawLogits...)
	}
	return out
}

// Weights are relative display weights for each predictor. They are reported
// in the rationale and never used to blend scores.
type Weights struct {
	Rule  float64 `json:"rule"`
	ML    float64 `json:"ml"`
	TFIDF float64 `json:"tfidf"`
}

// DefaultWeights returns the stock display weighting.
func DefaultWeights() Weights {
	return Weights{Rule: 0.6, ML: 0.3, TFIDF: 0.1}
}

// Rationale explains how a fused result was chosen.
type Rationale struct {
	Weighting *Weights     `json:"weighting,omitempty"`
	RuleHits  []string     `json:"rule_hits,omitempty"`
	TopTokens []TokenScore `json:"top_tokens,omitempty"`
	Notes     string       `json:"notes,omitempty"`
}

// FusedResult is the final answer for a classification request: a copy of one
// predictor's output plus provenance.
type FusedResult struct {
	ModelUsed ModelUsed `json:"model_used"`
	Rationale Rationale `json:"rationale"`
	PredictionResult
}
