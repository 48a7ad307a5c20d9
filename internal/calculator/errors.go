package calculator

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Validation error codes.
const (
	CodeAreaNull              = "PT_ESTIMATE_AREA_NULL"
	CodeVacantLandNull        = "PT_ESTIMATE_VACANT_LAND_NULL"
	CodeNonVacantLandUnits    = "PT_ESTIMATE_NON_VACANT_LAND_UNITS"
	CodeAdditionalDetailsNull = "PT_ADDITIONALNDETAILS_NULL"
	CodeMarketValueNull       = "PT_MARKETVALUE_NULL"
	CodeDocumentDateNull      = "PT_DOCDATE_NULL"
	CodePropertyDetailsNull   = "PT_PROPERTY_DETAILS_NULL"
)

// ErrDepreciatingAssessment is returned when a reassessment yields less tax than was already collected.
var ErrDepreciatingAssessment = errors.New("EG_PT_DEPRECIATING_ASSESSMENT_ERROR: new assessment is lower than the amount already collected")

// ValidationError collects every failed input check for one property.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError returns an empty ValidationError ready for Add.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

// Add records a failed check.
func (e *ValidationError) Add(code, message string) {
	e.Fields[code] = message
}

// HasErrors reports whether any checks failed.
func (e *ValidationError) HasErrors() bool {
	return e != nil && len(e.Fields) > 0
}

// ErrOrNil returns e as an error if it has entries, otherwise nil.
func (e *ValidationError) ErrOrNil() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	codes := make([]string, 0, len(e.Fields))
	for code := range e.Fields {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	parts := make([]string, 0, len(codes))
	for _, code := range codes {
		parts = append(parts, fmt.Sprintf("%s: %s", code, e.Fields[code]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
