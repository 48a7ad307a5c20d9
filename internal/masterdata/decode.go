package masterdata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stwalsh4118/ptcalc/api/internal/calculator"
	"github.com/stwalsh4118/ptcalc/api/internal/models"
)

const (
	localityLabel = "locality"
	categoryLabel = "category"
)

// DecodeRateTable builds the base-rate table from location boundary records.
// Every object-valued key of a Locality record is a road width mapping construction types to rates.
// Nested children are walked; top-level records without a label are treated as localities.
func DecodeRateTable(records []json.RawMessage) (*calculator.RateTable, error) {
	table := calculator.NewRateTable()
	for i, raw := range records {
		node, err := decodeObject(raw)
		if err != nil {
			return nil, fmt.Errorf("locality record %d: %w", i, err)
		}
		walkBoundary(table, node, true)
	}
	return table, nil
}

func walkBoundary(table *calculator.RateTable, node map[string]interface{}, top bool) {
	label, hasLabel := node["label"].(string)
	if strings.EqualFold(label, localityLabel) || (top && !hasLabel) {
		addLocality(table, node)
	}

	children, _ := node["children"].([]interface{})
	for _, child := range children {
		if obj, ok := child.(map[string]interface{}); ok {
			walkBoundary(table, obj, false)
		}
	}
}

func addLocality(table *calculator.RateTable, node map[string]interface{}) {
	code, _ := node["code"].(string)
	if code == "" {
		return
	}
	for width, value := range node {
		rates, ok := value.(map[string]interface{})
		if !ok {
			continue
		}
		for constructionType, rate := range rates {
			d, ok := toDecimal(rate)
			if !ok {
				continue
			}
			table.Set(code, width, constructionType, d)
		}
	}
}

type categoryRecord struct {
	Code           string      `json:"code"`
	Label          string      `json:"label"`
	RateMultiplier interface{} `json:"ratemultiplier"`
}

// DecodeCategories builds the category-multiplier map from category records. Codes are lower-cased.
func DecodeCategories(records []json.RawMessage) (calculator.CategoryMultipliers, error) {
	multipliers := calculator.CategoryMultipliers{}
	for i, raw := range records {
		var rec categoryRecord
		if err := unmarshalNumber(raw, &rec); err != nil {
			return nil, fmt.Errorf("category record %d: %w", i, err)
		}
		if rec.Label != "" && !strings.EqualFold(rec.Label, categoryLabel) {
			continue
		}
		d, ok := toDecimal(rec.RateMultiplier)
		if rec.Code == "" || !ok {
			continue
		}
		multipliers[strings.ToLower(strings.TrimSpace(rec.Code))] = d
	}
	return multipliers, nil
}

// DecodeTaxHeads overlays tax-head master categories onto the defaults.
func DecodeTaxHeads(records []json.RawMessage) (calculator.TaxHeadCategories, error) {
	categories := calculator.DefaultTaxHeadCategories()
	for i, raw := range records {
		var rec models.TaxHeadMaster
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("tax head record %d: %w", i, err)
		}
		if rec.Code == "" {
			continue
		}
		categories[rec.Code] = models.ParseCategory(rec.Category)
	}
	return categories, nil
}

// DecodeRules decodes time-based rule records.
func DecodeRules(records []json.RawMessage) ([]models.ApplicableRule, error) {
	rules := make([]models.ApplicableRule, 0, len(records))
	for i, raw := range records {
		var rule models.ApplicableRule
		if err := json.Unmarshal(raw, &rule); err != nil {
			return nil, fmt.Errorf("rule record %d: %w", i, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// DecodeFinancialYears decodes financial-year master records.
func DecodeFinancialYears(records []json.RawMessage) ([]models.FinancialYear, error) {
	years := make([]models.FinancialYear, 0, len(records))
	for i, raw := range records {
		var fy models.FinancialYear
		if err := json.Unmarshal(raw, &fy); err != nil {
			return nil, fmt.Errorf("financial year record %d: %w", i, err)
		}
		years = append(years, fy)
	}
	return years, nil
}

func decodeObject(raw json.RawMessage) (map[string]interface{}, error) {
	var node map[string]interface{}
	if err := unmarshalNumber(raw, &node); err != nil {
		return nil, err
	}
	return node, nil
}

func unmarshalNumber(raw json.RawMessage, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(v)
}

func toDecimal(v interface{}) (decimal.Decimal, bool) {
	switch t := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(t.String())
		return d, err == nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(t))
		return d, err == nil
	case float64:
		return decimal.NewFromFloat(t), true
	default:
		return decimal.Zero, false
	}
}
