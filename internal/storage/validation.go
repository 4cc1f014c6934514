package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Veraticus/calcbert/internal/common"
	"github.com/Veraticus/calcbert/internal/model"
)

// Validation errors.
var (
	ErrNilContext    = errors.New("context cannot be nil")
	ErrInvalidRule   = fmt.Errorf("%w: invalid pattern rule", common.ErrValidation)
	ErrInvalidMaxAge = errors.New("max age must be positive")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return common.NewValidationError(paramName, "must not be empty")
	}
	return nil
}

// validatePatternRule validates a pattern rule before it is stored.
func validatePatternRule(rule *model.PatternRule) error {
	if rule == nil {
		return fmt.Errorf("%w: rule cannot be nil", ErrInvalidRule)
	}
	if err := validateString(rule.Name, "name"); err != nil {
		return err
	}
	if err := validateString(rule.Pattern, "pattern"); err != nil {
		return err
	}
	if err := validateString(rule.Category, "category"); err != nil {
		return err
	}
	if rule.Confidence < 0 || rule.Confidence > 1 {
		return fmt.Errorf("%w: confidence must be between 0 and 1", ErrInvalidRule)
	}
	if rule.IsRegex {
		if _, err := regexp.Compile(rule.Pattern); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidRule, err)
		}
	}
	return nil
}
