package errors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// Format errors 📦
	ErrInvalidSignature   = errors.New("❌ invalid signature")
	ErrInvalidVersion     = errors.New("❌ unsupported PSD version")
	ErrDuplicateChannel   = errors.New("❌ duplicate channel id")
	ErrInvalidBlendMode   = errors.New("❌ invalid blend mode key")
	ErrInvalidSectionSize = errors.New("❌ invalid section size")

	// Range errors 📏
	ErrOutOfRange = errors.New("❌ value out of range")

	// Preview errors 🖼️
	ErrUnsupportedMode  = errors.New("❌ unsupported color mode")
	ErrUnsupportedDepth = errors.New("❌ unsupported bit depth")
)

// FormatError reports a structural mismatch such as a wrong signature or version.
type FormatError struct {
	Field    string
	Expected string
	Found    string
	Err      error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%v: %s: expected %q, found %q", e.Err, e.Field, e.Expected, e.Found)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// NewSignatureError builds a FormatError for a four character signature.
func NewSignatureError(field, expected, found string) *FormatError {
	return &FormatError{Field: field, Expected: expected, Found: found, Err: ErrInvalidSignature}
}

// RangeError reports a header or model field outside its documented bound.
// Allowed is set when the field is an enumeration rather than a span.
type RangeError struct {
	Field   string
	Value   int64
	Min     int64
	Max     int64
	Allowed []int64
}

func (e *RangeError) Error() string {
	if len(e.Allowed) > 0 {
		parts := make([]string, len(e.Allowed))
		for i, v := range e.Allowed {
			parts[i] = fmt.Sprint(v)
		}
		return fmt.Sprintf("%v: %s=%d, allowed values are %s", ErrOutOfRange, e.Field, e.Value, strings.Join(parts, ", "))
	}
	return fmt.Sprintf("%v: %s=%d, supported range is %d to %d", ErrOutOfRange, e.Field, e.Value, e.Min, e.Max)
}

func (e *RangeError) Unwrap() error {
	return ErrOutOfRange
}

// CheckRange returns a *RangeError when value is outside [min, max].
func CheckRange(field string, value, min, max int64) error {
	if value < min || value > max {
		return &RangeError{Field: field, Value: value, Min: min, Max: max}
	}
	return nil
}

// CheckOneOf returns a *RangeError when value is not one of allowed.
func CheckOneOf(field string, value int64, allowed ...int64) error {
	for _, v := range allowed {
		if v == value {
			return nil
		}
	}
	return &RangeError{Field: field, Value: value, Allowed: allowed}
}
