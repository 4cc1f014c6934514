// Package retrain rebuilds the TF-IDF model from the base corpus plus user
// feedback and hands the result to the serving adapter.
package retrain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/Veraticus/calcbert/internal/common"
	"github.com/Veraticus/calcbert/internal/model"
	"github.com/Veraticus/calcbert/internal/textnorm"
	"github.com/Veraticus/calcbert/internal/tfidf"
)

// Result statuses.
const (
	StatusComplete = "complete"
	StatusError    = "error"
	StatusStarted  = "started"
)

// Retrain targets and modes.
const (
	ModelTFIDF      = "tfidf"
	ModeFull        = "full"
	ModeIncremental = "incremental"
)

// SupportedModels and SupportedModes are reported by the status endpoint.
var (
	SupportedModels = []string{ModelTFIDF}
	SupportedModes  = []string{ModeFull}
)

// Stages reported through the progress callback, in order.
var stages = []string{
	"load corpus",
	"load feedback",
	"normalize",
	"fit",
	"save",
	"verify",
	"publish",
}

// FeedbackSource lists all feedback in creation order.
type FeedbackSource interface {
	ListFeedback(ctx context.Context) ([]model.FeedbackRecord, error)
}

// Publisher is the serving side of a retrain.
type Publisher interface {
	Publish(clf *tfidf.Classifier)
	Reload() bool
	ModelDir() string
}

// LoaderFunc reads a saved classifier back from a model directory.
type LoaderFunc func(dir string) (*tfidf.Classifier, error)

// LockFile is created in the model directory and flock'd for the duration of
// a retrain.
const LockFile = ".retrain.lock"

// ProgressFunc is called as each stage starts.
type ProgressFunc func(stage string, step, total int)

// Request selects what to retrain.
type Request struct {
	Mode  string `json:"mode"`
	Model string `json:"model"`
}

// Validate fills defaults and rejects unsupported targets.
func (r *Request) Validate() error {
	if r.Model == "" {
		r.Model = ModelTFIDF
	}
	if r.Mode == "" {
		r.Mode = ModeFull
	}
	if r.Model != ModelTFIDF {
		return fmt.Errorf("%w: only TF-IDF full retrain is supported, got %q", common.ErrUnsupportedModel, r.Model)
	}
	if r.Mode != ModeFull && r.Mode != ModeIncremental {
		return common.NewValidationError("mode", fmt.Sprintf("must be %q or %q", ModeFull, ModeIncremental))
	}
	return nil
}

// Result describes one retrain attempt.
type Result struct {
	FinishedAt        time.Time `json:"finished_at"`
	Status            string    `json:"status"`
	Details           string    `json:"details"`
	JobID             string    `json:"job_id,omitempty"`
	CategoriesTrained []string  `json:"categories_list,omitempty"`
	SamplesUsed       int       `json:"samples_used"`
	BaseCategories    int       `json:"base_categories_count,omitempty"`
}

// Orchestrator runs retrains one at a time.
type Orchestrator struct {
	feedback   FeedbackSource
	publisher  Publisher
	progress   ProgressFunc
	load       LoaderFunc
	last       *Result
	corpusPath string
	lock       sync.Mutex
	lastMu     sync.RWMutex
	syncMode   bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithProgress registers a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(o *Orchestrator) {
		o.progress = fn
	}
}

// WithLoader replaces the loader used to verify saved artifacts.
func WithLoader(fn LoaderFunc) Option {
	return func(o *Orchestrator) {
		o.load = fn
	}
}

// WithSync selects synchronous (true) or background retraining for Run.
func WithSync(enabled bool) Option {
	return func(o *Orchestrator) {
		o.syncMode = enabled
	}
}

// New creates an orchestrator. Retraining is synchronous unless configured
// otherwise.
func New(corpusPath string, feedback FeedbackSource, publisher Publisher, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		corpusPath: corpusPath,
		feedback:   feedback,
		publisher:  publisher,
		load:       tfidf.Load,
		syncMode:   true,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Sync reports whether Run blocks until the retrain finishes.
func (o *Orchestrator) Sync() bool {
	return o.syncMode
}

// LastResult returns the outcome of the most recent retrain, if any.
func (o *Orchestrator) LastResult() (Result, bool) {
	o.lastMu.RLock()
	defer o.lastMu.RUnlock()
	if o.last == nil {
		return Result{}, false
	}
	return *o.last, true
}

// Run validates req and retrains, either inline or in the background
// depending on configuration. Incremental requests run a full retrain.
func (o *Orchestrator) Run(ctx context.Context, req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}

	if o.syncMode {
		return o.RetrainFull(ctx)
	}

	release, err := o.acquire()
	if err != nil {
		return o.lockFailed(err)
	}

	jobID := uuid.NewString()
	bg := context.WithoutCancel(ctx)
	go func() {
		defer release()
		res, err := o.retrainLocked(bg)
		res.JobID = jobID
		o.record(res)
		if err != nil {
			common.LogError(err, "Background retrain failed", common.Fields{"job_id": jobID})
		}
	}()

	slog.Info("Started background retrain", "job_id", jobID)
	return Result{
		Status:  StatusStarted,
		Details: "Full TF-IDF retrain started in background",
		JobID:   jobID,
	}, nil
}

// RetrainFull rebuilds the model from scratch and blocks until done. The
// returned error is also summarized in the result details.
func (o *Orchestrator) RetrainFull(ctx context.Context) (Result, error) {
	release, err := o.acquire()
	if err != nil {
		return o.lockFailed(err)
	}
	defer release()

	res, err := o.retrainLocked(ctx)
	o.record(res)
	return res, err
}

// acquire takes the in-process retrain lock and then the lock file in the
// model directory, so retrains from separate processes sharing a model
// directory never interleave their writes.
func (o *Orchestrator) acquire() (func(), error) {
	if !o.lock.TryLock() {
		return nil, common.ErrRetrainInProgress
	}

	dir := o.publisher.ModelDir()
	if err := os.MkdirAll(dir, 0o750); err != nil {
		o.lock.Unlock()
		return nil, common.NewTrainingError("lock", err)
	}

	fl := flock.New(filepath.Join(dir, LockFile))
	locked, err := fl.TryLock()
	if err != nil {
		o.lock.Unlock()
		return nil, common.NewTrainingError("lock", err)
	}
	if !locked {
		o.lock.Unlock()
		return nil, fmt.Errorf("%w: %s is held by another process", common.ErrRetrainInProgress, fl.Path())
	}

	return func() {
		if err := fl.Unlock(); err != nil {
			slog.Warn("Failed to release retrain lock file", "path", fl.Path(), "error", err)
		}
		o.lock.Unlock()
	}, nil
}

// lockFailed reports contention as a bare error and records anything else as
// a failed retrain.
func (o *Orchestrator) lockFailed(err error) (Result, error) {
	if errors.Is(err, common.ErrRetrainInProgress) {
		return Result{}, err
	}
	res, err := failed(err)
	o.record(res)
	return res, err
}

func (o *Orchestrator) record(res Result) {
	o.lastMu.Lock()
	defer o.lastMu.Unlock()
	o.last = &res
}

func (o *Orchestrator) step(i int) {
	if o.progress != nil {
		o.progress(stages[i], i+1, len(stages))
	}
}

func failed(err error) (Result, error) {
	return Result{
		Status:     StatusError,
		Details:    fmt.Sprintf("Retrain failed: %v", err),
		FinishedAt: time.Now(),
	}, err
}

func (o *Orchestrator) retrainLocked(ctx context.Context) (Result, error) {
	start := time.Now()
	slog.Info("Starting full retrain", "corpus", o.corpusPath, "model_dir", o.publisher.ModelDir())

	o.step(0)
	base, err := LoadCorpus(o.corpusPath)
	if err != nil {
		return failed(err)
	}

	o.step(1)
	records, err := o.feedback.ListFeedback(ctx)
	if err != nil {
		return failed(err)
	}
	corpus := append(append([]model.CorpusRow(nil), base...), model.FeedbackRows(records)...)

	o.step(2)
	texts := make([]string, len(corpus))
	labels := make([]string, len(corpus))
	for i, row := range corpus {
		texts[i] = textnorm.Normalize(row.Text)
		labels[i] = row.Category
	}

	baseCats := len(categories(base))
	if combined := len(categories(corpus)); combined < baseCats {
		slog.Warn("Combined corpus has fewer categories than base", "combined", combined, "base", baseCats)
	}

	o.step(3)
	clf := tfidf.New()
	if err := clf.Fit(texts, labels); err != nil {
		return failed(common.NewTrainingError("fit", err))
	}

	o.step(4)
	dir := o.publisher.ModelDir()
	if err := clf.Save(dir); err != nil {
		return failed(common.NewTrainingError("save", err))
	}

	o.step(5)
	verified, err := o.load(dir)
	if err != nil {
		return failed(common.NewTrainingError("verify", err))
	}

	trained := clf.Labels()
	var warnings []string
	if got := len(verified.Labels()); got != len(trained) {
		mismatch := fmt.Errorf("%w: saved %d labels, reloaded %d", common.ErrVerificationMismatch, len(trained), got)
		slog.Warn("Model verification mismatch", "error", mismatch)
		warnings = append(warnings, "WARNING: "+mismatch.Error())
	}

	o.step(6)
	if o.publisher.Reload() {
		warnings = append(warnings, "Model reloaded in memory.")
	} else {
		o.publisher.Publish(clf)
		warning := &common.ReloadWarning{Err: fmt.Errorf("artifacts in %s did not load", dir)}
		slog.Warn("Serving adapter reload failed", "error", warning)
		warnings = append(warnings, "WARNING: "+warning.Error())
	}

	details := fmt.Sprintf(
		"Full TF-IDF retrain completed: %d base samples + %d feedback samples = %d total. Categories: %d (base had %d)",
		len(base), len(records), len(corpus), len(verified.Labels()), baseCats)
	if len(warnings) > 0 {
		details += " | " + strings.Join(warnings, " | ")
	}

	slog.Info("Retrain complete",
		"samples", len(corpus),
		"feedback", len(records),
		"categories", len(trained),
		"duration", time.Since(start))

	return Result{
		Status:            StatusComplete,
		Details:           details,
		SamplesUsed:       len(corpus),
		CategoriesTrained: verified.Labels(),
		BaseCategories:    baseCats,
		FinishedAt:        time.Now(),
	}, nil
}
