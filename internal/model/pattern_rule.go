package model

import (
	"time"
)

// PatternRule maps a description pattern to a category with a fixed confidence.
type PatternRule struct {
	CreatedAt   time.Time `json:"created_at"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Pattern     string    `json:"pattern"`
	Category    string    `json:"category"`
	Priority    int       `json:"priority"`
	ID          int       `json:"id"`
	Confidence  float64   `json:"confidence"`
	UseCount    int       `json:"use_count"`
	IsActive    bool      `json:"is_active"`
	IsRegex     bool      `json:"is_regex"`
}
