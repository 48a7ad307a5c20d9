package calculator

import (
	"strings"

	"github.com/shopspring/decimal"
)

// VacantLandConstructionType is the construction-type key under which vacant-land rates are published.
const VacantLandConstructionType = "vacant_land"

// RateTable holds base rates keyed locality -> road width -> construction type.
// Keys are normalized on write and on lookup; a RateTable is read-only once built.
type RateTable struct {
	rates map[string]map[string]map[string]decimal.Decimal
}

// NewRateTable returns an empty RateTable.
func NewRateTable() *RateTable {
	return &RateTable{rates: make(map[string]map[string]map[string]decimal.Decimal)}
}

// Set stores a base rate.
func (t *RateTable) Set(locality, roadWidth, constructionType string, rate decimal.Decimal) {
	loc := normalizeKey(locality)
	widths, ok := t.rates[loc]
	if !ok {
		widths = make(map[string]map[string]decimal.Decimal)
		t.rates[loc] = widths
	}
	width := NormalizeRoadWidth(roadWidth)
	types, ok := widths[width]
	if !ok {
		types = make(map[string]decimal.Decimal)
		widths[width] = types
	}
	types[normalizeKey(constructionType)] = rate
}

// Lookup returns the base rate and whether every level of the key was present.
func (t *RateTable) Lookup(locality, roadWidth, constructionType string) (decimal.Decimal, bool) {
	if t == nil {
		return decimal.Zero, false
	}
	widths, ok := t.rates[normalizeKey(locality)]
	if !ok {
		return decimal.Zero, false
	}
	types, ok := widths[NormalizeRoadWidth(roadWidth)]
	if !ok {
		return decimal.Zero, false
	}
	rate, ok := types[normalizeKey(constructionType)]
	if !ok {
		return decimal.Zero, false
	}
	return rate, true
}

// Localities returns the number of localities in the table.
func (t *RateTable) Localities() int {
	if t == nil {
		return 0
	}
	return len(t.rates)
}

// NormalizeRoadWidth canonicalizes numeric road widths so "12", "12.0" and "12.00" share a key.
func NormalizeRoadWidth(width string) string {
	w := normalizeKey(width)
	if d, err := decimal.NewFromString(w); err == nil {
		return d.String()
	}
	return w
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// RateResolver resolves base rates, degrading misses to zero.
type RateResolver struct {
	log         Logger
	diagnostics *Diagnostics
}

// NewRateResolver creates a RateResolver. A nil logger is replaced with NopLogger.
func NewRateResolver(log Logger, diagnostics *Diagnostics) *RateResolver {
	if log == nil {
		log = NopLogger{}
	}
	return &RateResolver{log: log, diagnostics: diagnostics}
}

// Resolve returns the base rate or zero when any key level is missing.
func (r *RateResolver) Resolve(table *RateTable, locality string, roadWidth decimal.Decimal, constructionType string) decimal.Decimal {
	rate, ok := table.Lookup(locality, roadWidth.String(), constructionType)
	if !ok {
		r.diagnostics.rateMiss()
		r.log.Warn("Base rate not found, using zero", map[string]interface{}{
			"locality":          locality,
			"road_width":        roadWidth.String(),
			"construction_type": constructionType,
		})
		return decimal.Zero
	}
	return rate
}
