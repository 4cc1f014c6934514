// Package textnorm cleans raw statement descriptions before they reach a
// classifier.
package textnorm

import (
	"strings"
	"unicode"
)

// aliases maps common statement abbreviations to a canonical merchant token.
// Targets must never appear as keys, otherwise Normalize stops being idempotent.
var aliases = map[string]string{
	"sbux":     "starbucks",
	"amzn":     "amazon",
	"mktp":     "marketplace",
	"mcd":      "mcdonalds",
	"mcdonald": "mcdonalds",
	"dmart":    "d mart",
	"swgy":     "swiggy",
	"zmt":      "zomato",
	"petro":    "petrol",
	"pharma":   "pharmacy",
}

// Normalize lowercases text, replaces everything that is not a letter or
// digit with a space, collapses whitespace and substitutes known aliases.
// Normalize(Normalize(x)) == Normalize(x) for every x.
func Normalize(text string) string {
	lowered := strings.ToLower(text)

	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteByte(' ')
	}

	fields := strings.Fields(b.String())
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if alias, ok := aliases[f]; ok {
			out = append(out, alias)
			continue
		}
		out = append(out, f)
	}

	return strings.Join(out, " ")
}

// Tokens splits already normalized text into terms.
func Tokens(normalized string) []string {
	return strings.Fields(normalized)
}
