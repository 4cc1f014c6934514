package cli

import (
	"io"

	"github.com/schollz/progressbar/v3"
)

// RetrainProgress drives a progress bar from retrain stage callbacks.
type RetrainProgress struct {
	bar *progressbar.ProgressBar
	w   io.Writer
}

// NewRetrainProgress creates a progress bar writing to w.
func NewRetrainProgress(w io.Writer) *RetrainProgress {
	return &RetrainProgress{w: w}
}

// Update matches retrain.ProgressFunc.
func (p *RetrainProgress) Update(stage string, step, total int) {
	if p.bar == nil {
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(p.w),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowCount(),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetWidth(30),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)
	}
	p.bar.Describe("[cyan]" + stage + "[reset]")
	_ = p.bar.Set(step)
}

// Finish completes the bar.
func (p *RetrainProgress) Finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}
