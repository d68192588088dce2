package mtrx

import (
	"errors"
	"fmt"
)

// Sentinel errors returned (directly or wrapped) by the decoders
var (
	ErrSizeMismatch = errors.New("mtrx: invalid message size")
	ErrNumberFormat = errors.New("mtrx: failed to parse number")
	ErrInvalid      = errors.New("mtrx: invalid sentence, not parsable")
)

// SizeMismatchError reports a line whose length differs from the family's fixed width
type SizeMismatchError struct {
	Expected int
	Found    int
}

func (e *SizeMismatchError) Error() string {
	return fmt.Sprintf("mtrx: invalid message size (expected %d, found %d)", e.Expected, e.Found)
}

// Is lets errors.Is match ErrSizeMismatch
func (e *SizeMismatchError) Is(target error) bool {
	return target == ErrSizeMismatch
}

// NumberFormatError reports a numeric or hex field that could not be parsed
type NumberFormatError struct {
	Field string
	Value string
	Err   error
}

func (e *NumberFormatError) Error() string {
	return fmt.Sprintf("mtrx: failed to parse number in %s %q: %v", e.Field, e.Value, e.Err)
}

// Unwrap returns the underlying strconv error
func (e *NumberFormatError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match ErrNumberFormat
func (e *NumberFormatError) Is(target error) bool {
	return target == ErrNumberFormat
}

func checkSize(line string, expected int) error {
	if len(line) != expected {
		return &SizeMismatchError{Expected: expected, Found: len(line)}
	}
	return nil
}
