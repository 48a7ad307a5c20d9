package calculator

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stwalsh4118/ptcalc/api/internal/models"
)

// Additional-detail keys read by the mutation path.
const (
	MarketValueKey  = "marketValue"
	DocumentDateKey = "documentDate"
)

// ValidateForCalculation checks a property detail carries what the ARV formulas need.
// Every failed check is reported, not just the first.
func ValidateForCalculation(detail *models.PropertyDetail) error {
	verr := NewValidationError()
	if detail == nil {
		verr.Add(CodePropertyDetailsNull, "Property details are mandatory for calculation")
		return verr
	}

	vacant := detail.IsVacant()
	if detail.LandArea == nil && detail.BuildUpArea == nil {
		verr.Add(CodeAreaNull, "Land area or build-up area is mandatory for calculation")
	}
	if vacant && detail.LandArea == nil {
		verr.Add(CodeVacantLandNull, "Land area is mandatory for vacant land")
	}
	if !vacant && len(detail.Units) == 0 {
		verr.Add(CodeNonVacantLandUnits, "At least one unit is mandatory for a property that is not vacant land")
	}
	return verr.ErrOrNil()
}

// MutationDetails are the validated inputs of a mutation fee calculation.
type MutationDetails struct {
	MarketValue  decimal.Decimal
	DocumentDate time.Time
}

// ValidateForMutation checks and extracts the market value and document date of a mutation.
func ValidateForMutation(additionalDetails map[string]interface{}) (*MutationDetails, error) {
	verr := NewValidationError()
	if additionalDetails == nil {
		verr.Add(CodeAdditionalDetailsNull, "Additional details are mandatory for mutation calculation")
		return nil, verr
	}

	var out MutationDetails
	marketValue, ok := numeric(additionalDetails[MarketValueKey])
	if !ok {
		verr.Add(CodeMarketValueNull, "Market value is mandatory and must be numeric")
	} else {
		out.MarketValue = marketValue
	}

	docDate, ok := numeric(additionalDetails[DocumentDateKey])
	if !ok {
		verr.Add(CodeDocumentDateNull, "Document date is mandatory for mutation calculation")
	} else {
		out.DocumentDate = time.UnixMilli(docDate.IntPart())
	}

	if err := verr.ErrOrNil(); err != nil {
		return nil, err
	}
	return &out, nil
}

func numeric(v interface{}) (decimal.Decimal, bool) {
	var s string
	switch n := v.(type) {
	case nil:
		return decimal.Zero, false
	case string:
		s = strings.TrimSpace(n)
	case json.Number:
		s = n.String()
	case float64:
		return decimal.NewFromFloat(n), true
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	default:
		s = fmt.Sprint(n)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
