package heavy

import (
	"math"
	"strings"

	"github.com/Veraticus/calcbert/internal/model"
)

// DefaultTopTokens is the explanation length attached to heavy predictions.
const DefaultTopTokens = 3

// Explain returns the first k tokens of text, each with the uniform score
// 1/k rounded to two decimals.
func Explain(text string, k int) []model.TokenScore {
	if k <= 0 {
		return nil
	}

	tokens := strings.Fields(strings.ToLower(text))
	if len(tokens) > k {
		tokens = tokens[:k]
	}

	score := math.Round(100/float64(k)) / 100
	out := make([]model.TokenScore, 0, len(tokens))
	for _, tok := range tokens {
		out = append(out, model.TokenScore{Token: tok, Score: score})
	}
	return out
}
