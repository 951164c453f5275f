package domain

import (
	"errors"
	"fmt"

	"github.com/folhapay/remittance/internal/currency"
)

// Core errors are pure; callers match them with errors.Is.
var (
	// Layout errors
	ErrUnsupportedLayout = errors.New("unsupported layout")

	// Codec errors
	ErrFieldOverflow        = errors.New("field overflow")
	ErrMissingRequiredField = errors.New("missing required field")
	ErrMalformedField       = errors.New("malformed field")
	ErrInvalidValue         = errors.New("invalid field value")

	// File errors
	ErrMalformedFile               = errors.New("malformed file")
	ErrReconciliationCountMismatch = errors.New("trailer totals do not match file content")
	ErrCorruptFile                 = errors.New("file integrity is corrupt")
	ErrEmptyPayments               = errors.New("payment list is empty")

	// Lookup errors
	ErrUnknownBank = errors.New("bank not configured")
	ErrNotFound    = errors.New("not found")
)

// FieldError pins a codec failure to the segment, field and line it came from.
type FieldError struct {
	Segment SegmentType
	Field   string
	Line    int // 1-based; 0 when encoding
	Err     error
}

func (e *FieldError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d segment %s field %s: %v", e.Line, e.Segment, e.Field, e.Err)
	}
	return fmt.Sprintf("segment %s field %s: %v", e.Segment, e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// CountMismatchError reports declared trailer totals that disagree with the
// lines actually present in the file.
type CountMismatchError struct {
	Scope         string // "batch 0001" or "file"
	DeclaredLines int
	ObservedLines int
	DeclaredTotal currency.Amount
	ObservedTotal currency.Amount
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("%s: declared %d lines / total %d, observed %d lines / total %d: %v",
		e.Scope, e.DeclaredLines, e.DeclaredTotal, e.ObservedLines, e.ObservedTotal,
		ErrReconciliationCountMismatch)
}

func (e *CountMismatchError) Unwrap() error { return ErrReconciliationCountMismatch }
