// Package fusion picks one predictor's answer for a transaction. It never
// blends scores: the first predictor in the priority chain that clears its
// threshold wins and its output is copied through.
package fusion

import "github.com/Veraticus/calcbert/internal/model"

// Thresholds for the priority chain.
const (
	RuleHighConfidence      = 0.9
	TFIDFOverrideConfidence = 0.10
)

// Rationale notes.
const (
	NoteRule  = "Rule wins with high confidence."
	NoteTFIDF = "TF-IDF override (confidence due to recent feedback)."
	NoteHeavy = "DistilBERT used: no strong rule or TF-IDF match."
)

// Fuse combines the outputs of the rule engine, the TF-IDF classifier and the
// heavy classifier. Any of them may be nil. Weights are only reported.
func Fuse(rule, tfidf, ml *model.PredictionResult, w model.Weights) model.FusedResult {
	switch {
	case rule != nil && rule.Confidence >= RuleHighConfidence:
		out := fused(rule, model.ModelRule, w, NoteRule)
		out.Rationale.RuleHits = cloneStrings(rule.Matches)
		if ml != nil {
			out.Rationale.TopTokens = cloneTokens(ml.TopTokens)
		}
		return out

	case tfidf != nil && tfidf.Confidence >= TFIDFOverrideConfidence:
		out := fused(tfidf, model.ModelTFIDF, w, NoteTFIDF)
		out.Rationale.RuleHits = ruleHits(rule)
		out.Rationale.TopTokens = cloneTokens(tfidf.TopTokens)
		return out

	case ml != nil:
		out := fused(ml, model.ModelHeavy, w, NoteHeavy)
		out.Rationale.RuleHits = ruleHits(rule)
		out.Rationale.TopTokens = cloneTokens(ml.TopTokens)
		return out

	case rule != nil:
		// Low-confidence rule still beats nothing; no rationale is attached.
		return model.FusedResult{
			PredictionResult: rule.Clone(),
			ModelUsed:        model.ModelRule,
		}
	}

	return model.FusedResult{
		PredictionResult: model.PredictionResult{Label: model.UnknownLabel},
		ModelUsed:        model.ModelNone,
	}
}

func fused(src *model.PredictionResult, used model.ModelUsed, w model.Weights, note string) model.FusedResult {
	weights := w
	return model.FusedResult{
		PredictionResult: src.Clone(),
		ModelUsed:        used,
		Rationale: model.Rationale{
			Weighting: &weights,
			Notes:     note,
		},
	}
}

func ruleHits(rule *model.PredictionResult) []string {
	if rule == nil {
		return nil
	}
	return cloneStrings(rule.Matches)
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}

func cloneTokens(in []model.TokenScore) []model.TokenScore {
	if in == nil {
		return nil
	}
	return append([]model.TokenScore(nil), in...)
}
