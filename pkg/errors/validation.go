package errors

import (
	"slices"
	"strings"
)

// Formats lists the cover encodings understood by the cover package.
var Formats = []string{"pla", "json"}

// Methods lists the equivalence checking methods understood by the verify
// package, plus "none".
var Methods = []string{"none", "auto", "exhaustive", "bdd", "sat"}

// ValidateFormat checks that name is a known cover format.
func ValidateFormat(name string) error {
	if !slices.Contains(Formats, strings.ToLower(name)) {
		return New(ErrCodeInvalidFormat, "unknown cover format %q (want one of %s)", name, strings.Join(Formats, ", "))
	}
	return nil
}

// ValidateMethod checks that name is a known verification method.
func ValidateMethod(name string) error {
	if !slices.Contains(Methods, strings.ToLower(name)) {
		return New(ErrCodeInvalidConfig, "unknown verification method %q (want one of %s)", name, strings.Join(Methods, ", "))
	}
	return nil
}

// ValidateQuality checks a minimization quality level.
func ValidateQuality(q int) error {
	if q < 0 {
		return New(ErrCodeInvalidConfig, "quality must be >= 0, got %d", q)
	}
	return nil
}

// ValidateVerbosity checks a minimizer verbosity level.
func ValidateVerbosity(v int) error {
	if v < 0 || v > 2 {
		return New(ErrCodeInvalidConfig, "verbosity must be 0, 1 or 2, got %d", v)
	}
	return nil
}

// ValidateDimensions checks the input and output counts of a cover.
func ValidateDimensions(inputs, outputs int) error {
	switch {
	case inputs <= 0:
		return New(ErrCodeInvalidConfig, "cover must have at least one input, got %d", inputs)
	case outputs <= 0:
		return New(ErrCodeInvalidConfig, "cover must have at least one output, got %d", outputs)
	}
	return nil
}
