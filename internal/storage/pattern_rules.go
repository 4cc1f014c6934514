package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Veraticus/calcbert/internal/common"
	"github.com/Veraticus/calcbert/internal/model"
)

// CreatePatternRule stores a new rule and fills in its ID.
func (s *SQLiteStorage) CreatePatternRule(ctx context.Context, rule *model.PatternRule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validatePatternRule(rule); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return s.insertPatternRule(ctx, s.db, rule)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *SQLiteStorage) insertPatternRule(ctx context.Context, db execer, rule *model.PatternRule) error {
	result, err := db.ExecContext(ctx, `
		INSERT INTO pattern_rules (
			name, description, pattern, is_regex, category,
			confidence, priority, is_active
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rule.Name, rule.Description, rule.Pattern, rule.IsRegex, rule.Category,
		rule.Confidence, rule.Priority, rule.IsActive,
	)
	if err != nil {
		return common.NewStorageError("create pattern rule", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return common.NewStorageError("create pattern rule", err)
	}

	rule.ID = int(id)
	rule.CreatedAt = s.now()
	return nil
}

// SeedPatternRules inserts rules only when the table is empty. It returns the
// number of rules inserted.
func (s *SQLiteStorage) SeedPatternRules(ctx context.Context, rules []model.PatternRule) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	for i := range rules {
		if err := validatePatternRule(&rules[i]); err != nil {
			return 0, fmt.Errorf("rule %q: %w", rules[i].Name, err)
		}
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM pattern_rules").Scan(&count); err != nil {
		return 0, common.NewStorageError("seed pattern rules", err)
	}
	if count > 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, common.NewStorageError("seed pattern rules", err)
	}
	for i := range rules {
		if err := s.insertPatternRule(ctx, tx, &rules[i]); err != nil {
			_ = tx.Rollback()
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, common.NewStorageError("seed pattern rules", err)
	}
	return len(rules), nil
}

// GetActivePatternRules retrieves all active rules ordered by priority.
func (s *SQLiteStorage) GetActivePatternRules(ctx context.Context) ([]model.PatternRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, pattern, is_regex, category,
			confidence, priority, is_active, use_count, created_at
		FROM pattern_rules
		WHERE is_active = 1
		ORDER BY priority DESC, id ASC
	`)
	if err != nil {
		return nil, common.NewStorageError("get active pattern rules", err)
	}
	defer func() { _ = rows.Close() }()

	var rules []model.PatternRule
	for rows.Next() {
		var (
			rule      model.PatternRule
			createdAt sql.NullTime
		)
		if err := rows.Scan(
			&rule.ID, &rule.Name, &rule.Description, &rule.Pattern, &rule.IsRegex, &rule.Category,
			&rule.Confidence, &rule.Priority, &rule.IsActive, &rule.UseCount, &createdAt,
		); err != nil {
			return nil, common.NewStorageError("scan pattern rule", err)
		}
		if createdAt.Valid {
			rule.CreatedAt = createdAt.Time
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewStorageError("get active pattern rules", err)
	}

	return rules, nil
}

// DeletePatternRule removes a rule by ID.
func (s *SQLiteStorage) DeletePatternRule(ctx context.Context, id int) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	result, err := s.db.ExecContext(ctx, "DELETE FROM pattern_rules WHERE id = ?", id)
	if err != nil {
		return common.NewStorageError("delete pattern rule", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return common.NewStorageError("delete pattern rule", err)
	}
	if affected == 0 {
		return fmt.Errorf("pattern rule %d: %w", id, common.ErrNotFound)
	}
	return nil
}

// IncrementPatternRuleUseCount records that a rule decided a classification.
func (s *SQLiteStorage) IncrementPatternRuleUseCount(ctx context.Context, id int) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_, err := s.db.ExecContext(ctx, "UPDATE pattern_rules SET use_count = use_count + 1 WHERE id = ?", id)
	if err != nil {
		return common.NewStorageError("increment pattern rule use count", err)
	}
	return nil
}
