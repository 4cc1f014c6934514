// Package tfidf implements the lightweight, retrainable bag-of-words
// classifier: a TF-IDF vectorizer feeding a multinomial naive Bayes estimator.
package tfidf

import (
	"math"
	"sort"
	"strings"
)

// Feature is one non-zero entry of a sparse vector.
type Feature struct {
	Index  int
	Weight float64
}

// Vector is a sparse, L2-normalized TF-IDF vector ordered by feature index.
type Vector []Feature

// Vectorizer turns normalized text into TF-IDF vectors over a fixed vocabulary.
type Vectorizer struct {
	Vocabulary map[string]int `json:"vocabulary"`
	features   []string
	IDF        []float64 `json:"idf"`
	NGramMax   int       `json:"ngram_max"`
	MinDF      int       `json:"min_df"`
}

// NewVectorizer creates an unfitted vectorizer producing 1..ngramMax grams.
func NewVectorizer(ngramMax, minDF int) *Vectorizer {
	if ngramMax < 1 {
		ngramMax = 1
	}
	if minDF < 1 {
		minDF = 1
	}
	return &Vectorizer{NGramMax: ngramMax, MinDF: minDF}
}

// terms expands a document into its unigram..n-gram terms.
func (v *Vectorizer) terms(doc string) []string {
	words := strings.Fields(doc)
	terms := make([]string, 0, len(words)*v.NGramMax)
	for n := 1; n <= v.NGramMax; n++ {
		for i := 0; i+n <= len(words); i++ {
			terms = append(terms, strings.Join(words[i:i+n], " "))
		}
	}
	return terms
}

// Fit learns the vocabulary and smoothed inverse document frequencies.
func (v *Vectorizer) Fit(docs []string) {
	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{})
		for _, term := range v.terms(doc) {
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			df[term]++
		}
	}

	kept := make([]string, 0, len(df))
	for term, count := range df {
		if count >= v.MinDF {
			kept = append(kept, term)
		}
	}
	sort.Strings(kept)

	n := float64(len(docs))
	v.Vocabulary = make(map[string]int, len(kept))
	v.IDF = make([]float64, len(kept))
	for i, term := range kept {
		v.Vocabulary[term] = i
		v.IDF[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}
	v.features = kept
}

// index rebuilds the feature-index to term lookup after decoding.
func (v *Vectorizer) index() {
	v.features = make([]string, len(v.IDF))
	for term, i := range v.Vocabulary {
		if i >= 0 && i < len(v.features) {
			v.features[i] = term
		}
	}
}

// Size returns the number of features.
func (v *Vectorizer) Size() int {
	return len(v.IDF)
}

// Transform converts a document into a TF-IDF vector. Unknown terms are dropped.
func (v *Vectorizer) Transform(doc string) Vector {
	counts := make(map[int]float64)
	for _, term := range v.terms(doc) {
		if idx, ok := v.Vocabulary[term]; ok {
			counts[idx]++
		}
	}

	vec := make(Vector, 0, len(counts))
	var norm float64
	for idx, tf := range counts {
		w := tf * v.IDF[idx]
		vec = append(vec, Feature{Index: idx, Weight: w})
		norm += w * w
	}
	sort.Slice(vec, func(i, j int) bool { return vec[i].Index < vec[j].Index })
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i].Weight /= norm
	}
	return vec
}

// feature returns the term for a feature index.
func (v *Vectorizer) feature(idx int) string {
	if idx < 0 || idx >= len(v.features) {
		return ""
	}
	return v.features[idx]
}
