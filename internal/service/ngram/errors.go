package ngram

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidOrder       = errors.New("n-gram order must be positive")
	ErrInvalidCutoff      = errors.New("good-turing cutoff k must be positive")
	ErrMissingSingletons  = errors.New("good-turing requires N[1] > 0")
	ErrFrequencyGap       = errors.New("frequency-of-frequencies table has a gap")
	ErrNoUnseenMass       = errors.New("no unseen n-gram mass: V^n does not exceed observed n-grams")
	ErrDegenerateDiscount = errors.New("katz discount denominator is zero")
	ErrUnknownSmoothing   = errors.New("unknown smoothing policy")
	ErrVocabularySource   = errors.New("unknown vocabulary size source")
	ErrOrderMismatch      = errors.New("count tables have inconsistent orders")
)

// ConfigError marks a fatal configuration problem. Modeling gaps never produce one.
type ConfigError struct {
	Op  string
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func configErrorf(op string, err error, format string, args ...any) error {
	if format == "" {
		return &ConfigError{Op: op, Err: err}
	}
	return &ConfigError{Op: op, Err: fmt.Errorf("%w: %s", err, fmt.Sprintf(format, args...))}
}

// IsConfigError reports whether err carries a ConfigError
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
