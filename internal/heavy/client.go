// Package heavy talks to the transformer inference service that backs the
// "distilbert" predictor.
package heavy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/Veraticus/calcbert/internal/common"
	"github.com/Veraticus/calcbert/internal/model"
)

// ErrMalformedResponse indicates the service answered with unusable logits.
var ErrMalformedResponse = errors.New("malformed inference response")

const (
	defaultTimeout = 10 * time.Second
	cacheTTL       = 10 * time.Minute
	cacheCleanup   = 20 * time.Minute
)

// Config configures the inference client.
type Config struct {
	Endpoint  string
	ModelDir  string
	Timeout   time.Duration
	TopTokens int
	Retry     common.RetryOptions
}

// Client is a client for the inference service.
type Client struct {
	httpClient *http.Client
	cache      *cache.Cache
	labels     LabelMap
	baseURL    string
	topTokens  int
	retry      common.RetryOptions
}

type predictRequest struct {
	Texts []string `json:"texts"`
}

type predictResponse struct {
	Logits [][]float64 `json:"logits"`
}

// NewClient creates a client. It returns nil with no error when no endpoint is
// configured, which callers treat as the heavy model being unavailable.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, nil //nolint:nilnil // disabled is not an error
	}

	labels, err := LoadLabelMap(cfg.ModelDir)
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	topTokens := cfg.TopTokens
	if topTokens == 0 {
		topTokens = DefaultTopTokens
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.Endpoint, "/"),
		httpClient: &http.Client{Timeout: timeout},
		cache:      cache.New(cacheTTL, cacheCleanup),
		labels:     labels,
		topTokens:  topTokens,
		retry:      cfg.Retry,
	}, nil
}

// Predict classifies a single text.
func (c *Client) Predict(ctx context.Context, text string) (*model.PredictionResult, error) {
	results, err := c.PredictBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return &results[0], nil
}

// PredictBatch classifies texts, serving repeated texts from the cache.
func (c *Client) PredictBatch(ctx context.Context, texts []string) ([]model.PredictionResult, error) {
	results := make([]model.PredictionResult, len(texts))

	var missing []string
	var missingIdx []int
	for i, text := range texts {
		if cached, ok := c.cache.Get(text); ok {
			results[i] = cached.(model.PredictionResult).Clone()
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}
	if len(missing) == 0 {
		return results, nil
	}

	var resp *predictResponse
	err := common.WithRetry(ctx, func() error {
		var callErr error
		resp, callErr = c.call(ctx, missing)
		return callErr
	}, c.retry)
	if err != nil {
		return nil, err
	}
	if len(resp.Logits) != len(missing) {
		return nil, fmt.Errorf("%w: sent %d texts, got %d rows", ErrMalformedResponse, len(missing), len(resp.Logits))
	}

	for j, logits := range resp.Logits {
		if len(logits) == 0 {
			return nil, fmt.Errorf("%w: empty logits row", ErrMalformedResponse)
		}
		result := c.decode(missing[j], logits)
		c.cache.Set(missing[j], result, cache.DefaultExpiration)
		results[missingIdx[j]] = result.Clone()
	}

	slog.Debug("Heavy inference complete", "requested", len(texts), "remote", len(missing))
	return results, nil
}

func (c *Client) call(ctx context.Context, texts []string) (*predictResponse, error) {
	body, err := json.Marshal(predictRequest{Texts: texts})
	if err != nil {
		return nil, &common.RetryableError{Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return nil, &common.RetryableError{Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &common.RetryableError{Err: fmt.Errorf("failed to send request: %w", err), Retryable: ctx.Err() == nil}
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &common.RetryableError{Err: common.ErrRateLimit, After: retryAfter(resp.Header), Retryable: true}
	case resp.StatusCode >= http.StatusInternalServerError:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &common.RetryableError{
			Err:       fmt.Errorf("inference service returned status %d: %s", resp.StatusCode, string(msg)),
			Retryable: true,
		}
	case resp.StatusCode != http.StatusOK:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &common.RetryableError{
			Err: fmt.Errorf("inference service returned status %d: %s", resp.StatusCode, string(msg)),
		}
	}

	var out predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &common.RetryableError{Err: fmt.Errorf("%w: %v", ErrMalformedResponse, err)}
	}
	return &out, nil
}

// retryAfter reads a Retry-After header given in seconds.
func retryAfter(h http.Header) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(h.Get("Retry-After")))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func (c *Client) decode(text string, logits []float64) model.PredictionResult {
	probs := softmax(logits)

	best := 0
	for i := range probs {
		if probs[i] > probs[best] {
			best = i
		}
	}

	result := model.PredictionResult{
		Label:      c.labels.Label(best),
		Confidence: probs[best],
		Probs:      make(map[string]float64, len(probs)),
		RawLogits:  append([]float64(nil), logits...),
		TopTokens:  Explain(text, c.topTokens),
	}
	for i, p := range probs {
		result.Probs[c.labels.Label(i)] = p
	}
	return result
}

func softmax(logits []float64) []float64 {
	maxLogit := math.Inf(-1)
	for _, l := range logits {
		if l > maxLogit {
			maxLogit = l
		}
	}

	out := make([]float64, len(logits))
	var sum float64
	for i, l := range logits {
		out[i] = math.Exp(l - maxLogit)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
