package textnorm

import (
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "strips special characters", in: "STARBCKS #1!", want: "starbcks 1"},
		{name: "collapses whitespace", in: "  UBER   TRIP\tHELP.UBER.COM ", want: "uber trip help uber com"},
		{name: "substitutes aliases", in: "SBUX 1023 MUMBAI", want: "starbucks 1023 mumbai"},
		{name: "alias with multiple words", in: "DMART-ANDHERI", want: "d mart andheri"},
		{name: "amazon marketplace", in: "AMZN Mktp US*2K3", want: "amazon marketplace us 2k3"},
		{name: "keeps unicode letters", in: "Café Noir", want: "café noir"},
		{name: "empty", in: "", want: ""},
		{name: "only punctuation", in: "#*!--", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	samples := []string{
		"STARBCKS #1050 MUMBAI",
		"POS PURCHASE SBUX 22/10",
		"İstanbul Kahve",
		"mcd mcdonald mcdonalds",
		" NBSP EM SPACE",
	}
	for _, s := range samples {
		once := Normalize(s)
		assert.Equal(t, once, Normalize(once), "input %q", s)
	}

	idempotent := func(s string) bool {
		once := Normalize(s)
		return Normalize(once) == once
	}
	assert.NoError(t, quick.Check(idempotent, &quick.Config{MaxCount: 2000}))
}

func TestAliasTargetsAreNotKeys(t *testing.T) {
	for key, target := range aliases {
		for _, tok := range Tokens(target) {
			_, isKey := aliases[tok]
			assert.False(t, isKey, "alias %q expands to key %q", key, tok)
		}
	}
}
