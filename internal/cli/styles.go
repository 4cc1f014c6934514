// Package cli provides styled terminal output using lipgloss.
package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/calcbert/internal/model"
)

var (
	// PrimaryColor is the main theme color.
	PrimaryColor = lipgloss.Color("#5B8DEF")
	// SuccessColor indicates successful operations.
	SuccessColor = lipgloss.Color("#4ECDC4") // Teal
	// WarningColor indicates warnings or caution messages.
	WarningColor = lipgloss.Color("#FFE66D") // Yellow
	// ErrorColor indicates errors or failure messages.
	ErrorColor = lipgloss.Color("#FF6B6B") // Red
	// InfoColor indicates informational messages.
	InfoColor = lipgloss.Color("#95E1D3") // Light teal
	// SubtleColor indicates less prominent UI elements.
	SubtleColor = lipgloss.Color("#666666") // Gray

	// TitleStyle is used for section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor).
			MarginBottom(1)

	// SuccessStyle formats success messages.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor)

	// WarningStyle formats warning messages.
	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor)

	// ErrorStyle formats error messages.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor)

	// InfoStyle formats informational messages.
	InfoStyle = lipgloss.NewStyle().
			Foreground(InfoColor)

	// SubtleStyle formats less prominent text.
	SubtleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	// BoldStyle makes text bold.
	BoldStyle = lipgloss.NewStyle().
			Bold(true)

	// BoxStyle is used for bordered content boxes.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#333")).
			Padding(1, 2)
)

// Icons.
const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "⚠️"
	InfoIcon    = "ℹ️"
)

// FormatSuccess formats a success message with icon.
func FormatSuccess(message string) string {
	return SuccessStyle.Render(SuccessIcon + " " + message)
}

// FormatError formats an error message with icon.
func FormatError(message string) string {
	return ErrorStyle.Render(ErrorIcon + " " + message)
}

// FormatWarning formats a warning message with icon.
func FormatWarning(message string) string {
	return WarningStyle.Render(WarningIcon + " " + message)
}

// FormatInfo formats an info message with icon.
func FormatInfo(message string) string {
	return InfoStyle.Render(InfoIcon + " " + message)
}

// FormatTitle formats a title.
func FormatTitle(title string) string {
	return TitleStyle.Render(title)
}

// RenderBox renders content in a styled box.
func RenderBox(title, content string) string {
	boxTitle := TitleStyle.
		UnsetMargins().
		Render(title)

	return BoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, boxTitle, content))
}

// FormatDetails renders retrain details, one segment per line, with
// "WARNING:" segments styled as warnings.
func FormatDetails(details string) string {
	parts := strings.Split(details, " | ")
	lines := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		switch {
		case p == "":
			continue
		case strings.HasPrefix(p, "WARNING:"):
			lines = append(lines, FormatWarning(strings.TrimSpace(strings.TrimPrefix(p, "WARNING:"))))
		default:
			lines = append(lines, p)
		}
	}
	return strings.Join(lines, "\n")
}

// confidenceStyle colors a confidence by how much it can be trusted.
func confidenceStyle(conf float64) lipgloss.Style {
	switch {
	case conf >= 0.9:
		return SuccessStyle
	case conf >= 0.5:
		return InfoStyle
	default:
		return WarningStyle
	}
}

// FormatPrediction renders a fused result as a single line:
// text, label, confidence and the predictor that decided.
func FormatPrediction(text string, res model.FusedResult) string {
	conf := confidenceStyle(res.Confidence).Render(fmt.Sprintf("%5.1f%%", res.Confidence*100))
	return fmt.Sprintf("%-40s %s %s %s",
		truncate(text, 40),
		BoldStyle.Render(fmt.Sprintf("%-22s", res.Label)),
		conf,
		SubtleStyle.Render("["+string(res.ModelUsed)+"]"))
}

// FormatRationale renders the explanation attached to a fused result.
func FormatRationale(r model.Rationale) string {
	var lines []string
	if r.Notes != "" {
		lines = append(lines, r.Notes)
	}
	if len(r.RuleHits) > 0 {
		lines = append(lines, "Rules: "+strings.Join(r.RuleHits, ", "))
	}
	if len(r.TopTokens) > 0 {
		tokens := make([]string, 0, len(r.TopTokens))
		for _, t := range r.TopTokens {
			tokens = append(tokens, fmt.Sprintf("%s (%.2f)", t.Token, t.Score))
		}
		lines = append(lines, "Tokens: "+strings.Join(tokens, ", "))
	}
	if r.Weighting != nil {
		lines = append(lines, fmt.Sprintf("Weights: rule %.2f, ml %.2f, tfidf %.2f",
			r.Weighting.Rule, r.Weighting.ML, r.Weighting.TFIDF))
	}
	if len(lines) == 0 {
		return ""
	}
	return SubtleStyle.Render(strings.Join(lines, "\n"))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
