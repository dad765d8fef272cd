package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation       = errors.New("validation error")
	ErrRetrieval        = errors.New("retrieval error")
	ErrTimeout          = errors.New("retrieval timed out")
	ErrEmptyData        = errors.New("No data found")
	ErrModelUnavailable = errors.New("model not loaded")
	ErrNoFeatureRows    = errors.New("not enough history to build features")
)

// FeatureMismatchError reports trained columns that the computed features lack.
type FeatureMismatchError struct {
	Missing []string
}

func (e *FeatureMismatchError) Error() string {
	return fmt.Sprintf("feature mismatch: missing columns [%s]", strings.Join(e.Missing, ", "))
}

// ValidationErrorf builds an ErrValidation-wrapped error.
func ValidationErrorf(format string, a ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, a...))
}
