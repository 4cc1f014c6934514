package tfidf

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/Veraticus/calcbert/internal/model"
)

// Classifier errors.
var (
	ErrNotFitted      = errors.New("classifier is not fitted")
	ErrTooFewClasses  = errors.New("need at least two label classes")
	ErrLengthMismatch = errors.New("texts and labels differ in length")
	ErrEmptyCorpus    = errors.New("no training samples")
)

const (
	defaultAlpha     = 0.1
	defaultTopTokens = 3
)

// Classifier is a multinomial naive Bayes model over TF-IDF features.
//
// A Classifier handed to the serving adapter must not be modified again;
// callers that want to PartialFit a live model Clone it first.
type Classifier struct {
	vec          *Vectorizer
	labelIndex   map[string]int
	labels       []string
	classCount   []float64
	featureCount [][]float64
	featureTotal []float64
	logPrior     []float64
	logLik       [][]float64
	alpha        float64
	topTokens    int
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithAlpha sets the additive smoothing parameter.
func WithAlpha(alpha float64) Option {
	return func(c *Classifier) {
		if alpha > 0 {
			c.alpha = alpha
		}
	}
}

// WithTopTokens sets how many explanatory tokens each prediction carries.
func WithTopTokens(n int) Option {
	return func(c *Classifier) {
		if n >= 0 {
			c.topTokens = n
		}
	}
}

// New creates an unfitted classifier.
func New(opts ...Option) *Classifier {
	c := &Classifier{
		alpha:     defaultAlpha,
		topTokens: defaultTopTokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fitted reports whether the classifier can predict.
func (c *Classifier) Fitted() bool {
	return c.vec != nil && len(c.labels) > 0
}

// Labels returns the trained label space in encoder order.
func (c *Classifier) Labels() []string {
	return append([]string(nil), c.labels...)
}

// Fit trains the vectorizer and estimator from scratch on normalized texts.
func (c *Classifier) Fit(texts, labels []string) error {
	if len(texts) != len(labels) {
		return fmt.Errorf("%w: %d texts, %d labels", ErrLengthMismatch, len(texts), len(labels))
	}
	if len(texts) == 0 {
		return ErrEmptyCorpus
	}

	classes := uniqueSorted(labels)
	if len(classes) < 2 {
		return fmt.Errorf("%w: got %d", ErrTooFewClasses, len(classes))
	}

	vec := NewVectorizer(2, 1)
	vec.Fit(texts)

	c.vec = vec
	c.labels = classes
	c.labelIndex = make(map[string]int, len(classes))
	for i, l := range classes {
		c.labelIndex[l] = i
	}
	c.classCount = make([]float64, len(classes))
	c.featureCount = make([][]float64, len(classes))
	c.featureTotal = make([]float64, len(classes))
	for i := range c.featureCount {
		c.featureCount[i] = make([]float64, vec.Size())
	}

	c.accumulate(texts, labels)
	c.refresh()
	return nil
}

// PartialFit updates the estimator with additional samples using the
// existing vocabulary. Labels not seen before are added to the label space.
// Retraining always refits from scratch with Fit; PartialFit serves callers
// that update a private copy obtained from Clone.
func (c *Classifier) PartialFit(texts, labels []string) error {
	if !c.Fitted() {
		return ErrNotFitted
	}
	if len(texts) != len(labels) {
		return fmt.Errorf("%w: %d texts, %d labels", ErrLengthMismatch, len(texts), len(labels))
	}

	for _, l := range labels {
		if _, ok := c.labelIndex[l]; ok {
			continue
		}
		c.labelIndex[l] = len(c.labels)
		c.labels = append(c.labels, l)
		c.classCount = append(c.classCount, 0)
		c.featureCount = append(c.featureCount, make([]float64, c.vec.Size()))
		c.featureTotal = append(c.featureTotal, 0)
	}

	c.accumulate(texts, labels)
	c.refresh()
	return nil
}

func (c *Classifier) accumulate(texts, labels []string) {
	for i, text := range texts {
		k := c.labelIndex[labels[i]]
		c.classCount[k]++
		for _, f := range c.vec.Transform(text) {
			c.featureCount[k][f.Index] += f.Weight
			c.featureTotal[k] += f.Weight
		}
	}
}

// refresh recomputes the log prior and log likelihood tables.
func (c *Classifier) refresh() {
	var total float64
	for _, n := range c.classCount {
		total += n
	}

	size := float64(c.vec.Size())
	c.logPrior = make([]float64, len(c.labels))
	c.logLik = make([][]float64, len(c.labels))
	for k := range c.labels {
		c.logPrior[k] = math.Log((c.classCount[k] + 1) / (total + float64(len(c.labels))))
		denom := c.featureTotal[k] + c.alpha*size
		row := make([]float64, len(c.featureCount[k]))
		for j, fc := range c.featureCount[k] {
			row[j] = math.Log((fc + c.alpha) / denom)
		}
		c.logLik[k] = row
	}
}

// Predict classifies normalized texts.
func (c *Classifier) Predict(texts []string) ([]model.PredictionResult, error) {
	if !c.Fitted() {
		return nil, ErrNotFitted
	}

	results := make([]model.PredictionResult, 0, len(texts))
	for _, text := range texts {
		results = append(results, c.predictOne(text))
	}
	return results, nil
}

func (c *Classifier) predictOne(text string) model.PredictionResult {
	x := c.vec.Transform(text)

	scores := make([]float64, len(c.labels))
	for k := range c.labels {
		s := c.logPrior[k]
		for _, f := range x {
			s += f.Weight * c.logLik[k][f.Index]
		}
		scores[k] = s
	}

	probs := softmax(scores)
	best := 0
	for k := range probs {
		if probs[k] > probs[best] {
			best = k
		}
	}

	result := model.PredictionResult{
		Label:      c.labels[best],
		Confidence: probs[best],
		Probs:      make(map[string]float64, len(c.labels)),
		TopTokens:  c.explain(x, best),
	}
	for k, l := range c.labels {
		result.Probs[l] = probs[k]
	}
	return result
}

// explain ranks the document's features by how much they favor the winning
// class over the average class.
func (c *Classifier) explain(x Vector, best int) []model.TokenScore {
	if c.topTokens == 0 || len(x) == 0 {
		return nil
	}

	tokens := make([]model.TokenScore, 0, len(x))
	for _, f := range x {
		var mean float64
		for k := range c.labels {
			mean += c.logLik[k][f.Index]
		}
		mean /= float64(len(c.labels))
		score := f.Weight * (c.logLik[best][f.Index] - mean)
		if score <= 0 {
			continue
		}
		tokens = append(tokens, model.TokenScore{
			Token: c.vec.feature(f.Index),
			Score: math.Round(score*1e4) / 1e4,
		})
	}

	sort.Slice(tokens, func(i, j int) bool {
		if tokens[i].Score != tokens[j].Score {
			return tokens[i].Score > tokens[j].Score
		}
		return tokens[i].Token < tokens[j].Token
	})
	if len(tokens) > c.topTokens {
		tokens = tokens[:c.topTokens]
	}
	return tokens
}

// Clone returns an independent deep copy, safe to PartialFit while the
// original stays published.
func (c *Classifier) Clone() *Classifier {
	out := &Classifier{alpha: c.alpha, topTokens: c.topTokens}
	if !c.Fitted() {
		return out
	}

	vec := &Vectorizer{
		Vocabulary: make(map[string]int, len(c.vec.Vocabulary)),
		IDF:        append([]float64(nil), c.vec.IDF...),
		NGramMax:   c.vec.NGramMax,
		MinDF:      c.vec.MinDF,
	}
	for term, idx := range c.vec.Vocabulary {
		vec.Vocabulary[term] = idx
	}
	vec.index()

	out.vec = vec
	out.labels = append([]string(nil), c.labels...)
	out.labelIndex = make(map[string]int, len(c.labelIndex))
	for l, i := range c.labelIndex {
		out.labelIndex[l] = i
	}
	out.classCount = append([]float64(nil), c.classCount...)
	out.featureTotal = append([]float64(nil), c.featureTotal...)
	out.featureCount = make([][]float64, len(c.featureCount))
	for k, row := range c.featureCount {
		out.featureCount[k] = append([]float64(nil), row...)
	}
	out.refresh()
	return out
}

func softmax(scores []float64) []float64 {
	maxScore := math.Inf(-1)
	for _, s := range scores {
		if s > maxScore {
			maxScore = s
		}
	}

	out := make([]float64, len(scores))
	var sum float64
	for i, s := range scores {
		out[i] = math.Exp(s - maxScore)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

func uniqueSorted(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0)
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
