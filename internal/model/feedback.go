package model

import "time"

// FeedbackRecord is a user correction associating a transaction text with
// its correct category.
type FeedbackRecord struct {
	CreatedAt    time.Time `json:"created_at"`
	UserID       *string   `json:"user_id,omitempty"`
	Text         string    `json:"text"`
	CorrectLabel string    `json:"correct_label"`
	ID           int64     `json:"id"`
}

// CorpusRow is one training example.
type CorpusRow struct {
	Text     string
	Category string
}

// FeedbackRows converts feedback records to corpus rows, preserving order.
func FeedbackRows(records []FeedbackRecord) []CorpusRow {
	rows := make([]CorpusRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, CorpusRow{Text: r.Text, Category: r.CorrectLabel})
	}
	return rows
}
