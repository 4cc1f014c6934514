package retrain

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/Veraticus/calcbert/internal/common"
	"github.com/Veraticus/calcbert/internal/model"
)

// Column names of the base corpus CSV.
const (
	TextColumn     = "transaction_text"
	CategoryColumn = "category"
)

// LoadCorpus reads the base training CSV. Rows with a blank text or category
// are skipped.
func LoadCorpus(path string) ([]model.CorpusRow, error) {
	f, err := os.Open(path) //nolint:gosec // configured corpus path
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", common.ErrMissingCorpus, path)
		}
		return nil, fmt.Errorf("failed to open base corpus: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ReadCorpus(f)
}

// ReadCorpus parses corpus CSV from r.
func ReadCorpus(r io.Reader) ([]model.CorpusRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus header: %w", err)
	}

	textIdx, catIdx := -1, -1
	for i, col := range header {
		switch strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")) {
		case TextColumn:
			textIdx = i
		case CategoryColumn:
			catIdx = i
		}
	}
	if textIdx < 0 || catIdx < 0 {
		return nil, fmt.Errorf("%w: corpus header must contain %q and %q",
			common.ErrValidation, TextColumn, CategoryColumn)
	}

	var rows []model.CorpusRow
	skipped := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read corpus: %w", err)
		}
		if textIdx >= len(record) || catIdx >= len(record) {
			skipped++
			continue
		}

		text := strings.TrimSpace(record[textIdx])
		category := strings.TrimSpace(record[catIdx])
		if text == "" || category == "" {
			skipped++
			continue
		}
		rows = append(rows, model.CorpusRow{Text: text, Category: category})
	}

	if skipped > 0 {
		slog.Warn("Skipped incomplete corpus rows", "count", skipped)
	}
	return rows, nil
}

func categories(rows []model.CorpusRow) map[string]struct{} {
	set := make(map[string]struct{})
	for _, r := range rows {
		set[r.Category] = struct{}{}
	}
	return set
}
