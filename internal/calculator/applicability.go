package calculator

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stwalsh4118/ptcalc/api/internal/models"
)

// ApplicabilityResolver selects time-windowed rules and applies their formulas.
type ApplicabilityResolver struct {
	loc         *time.Location
	log         Logger
	diagnostics *Diagnostics
}

// NewApplicabilityResolver creates a resolver evaluating windows in the config's time zone.
func NewApplicabilityResolver(cfg Config, log Logger, diagnostics *Diagnostics) *ApplicabilityResolver {
	if log == nil {
		log = NopLogger{}
	}
	return &ApplicabilityResolver{loc: cfg.location(), log: log, diagnostics: diagnostics}
}

// Window returns the instant range a rule is in force for.
// The window runs from the rule's day/month in its fiscal year to the same day/month a year later.
func (r *ApplicabilityResolver) Window(rule models.ApplicableRule) (time.Time, time.Time, error) {
	fy, err := strconv.Atoi(strings.TrimSpace(strings.Split(rule.FromFY, "-")[0]))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid fromFY %q: %w", rule.FromFY, err)
	}

	field := rule.StartingDay
	if field == "" {
		field = rule.EndingDay
	}
	parts := strings.Split(field, "/")
	if len(parts) < 2 {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid day/month %q", field)
	}
	day, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid day in %q: %w", field, err)
	}
	month, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid month in %q: %w", field, err)
	}

	start := time.Date(fy, time.Month(month), day, 0, 0, 0, 0, r.loc)
	end := time.Date(fy+1, time.Month(month), day, 0, 0, 0, 0, r.loc)
	return start, end, nil
}

// Resolve returns the rule whose window contains at. When several match the last one wins.
// No match is not an error; the caller treats it as a zero effect.
func (r *ApplicabilityResolver) Resolve(rules []models.ApplicableRule, at time.Time) *models.ApplicableRule {
	var selected *models.ApplicableRule
	for i := range rules {
		start, end, err := r.Window(rules[i])
		if err != nil {
			r.log.Warn("Skipping malformed applicable rule", map[string]interface{}{
				"from_fy": rules[i].FromFY,
				"error":   err.Error(),
			})
			continue
		}
		if !at.Before(start) && !at.After(end) {
			selected = &rules[i]
		}
	}
	if selected == nil && len(rules) > 0 {
		r.diagnostics.ruleMiss()
		r.log.Debug("No applicable rule in force", map[string]interface{}{
			"candidates": len(rules),
			"at":         at.Format(time.RFC3339),
		})
	}
	return selected
}

// Apply computes a rule's effect on an amount. A nil rule has no effect.
//
// Percentage rules are clamped to MaxAmount when it is positive, otherwise raised to MinAmount.
// Flat rules never exceed the amount. Tiered rules take their rate from the slab containing the amount.
func Apply(amount decimal.Decimal, rule *models.ApplicableRule) decimal.Decimal {
	if rule == nil {
		return decimal.Zero
	}

	rate := rule.Rate
	if len(rule.Slabs) > 0 {
		rate = slabRate(amount, rule.Slabs)
		if rate == nil {
			return decimal.Zero
		}
	}

	if rate == nil {
		if rule.FlatAmount == nil {
			return decimal.Zero
		}
		if rule.FlatAmount.GreaterThan(amount) {
			return amount
		}
		return *rule.FlatAmount
	}

	applicable := amount.Mul(*rate).Div(hundred)
	if rule.MaxAmount != nil && rule.MaxAmount.IsPositive() && applicable.GreaterThan(*rule.MaxAmount) {
		return *rule.MaxAmount
	}
	if rule.MinAmount != nil && applicable.LessThan(*rule.MinAmount) {
		return *rule.MinAmount
	}
	return applicable
}

func slabRate(amount decimal.Decimal, slabs []models.RuleSlab) *decimal.Decimal {
	for i := range slabs {
		s := slabs[i]
		if amount.LessThan(s.From) {
			continue
		}
		if s.To != nil && !amount.LessThan(*s.To) {
			continue
		}
		return &s.Rate
	}
	return nil
}

// Deadline adds months to a document date, rolling the year when the month passes December.
// The day of month is kept as-is, so a day beyond the target month's length spills into the next month.
func (r *ApplicabilityResolver) Deadline(docDate time.Time, months int) time.Time {
	d := docDate.In(r.loc)
	year, month, day := d.Year(), int(d.Month()), d.Day()

	month += months
	if month > 12 {
		month -= 12
		year++
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, r.loc)
}

// MutationRebate returns the rebate owed on a mutation fee, or zero when the payment deadline has passed.
func (r *ApplicabilityResolver) MutationRebate(fee decimal.Decimal, rules []models.ApplicableRule, docDate, now time.Time) decimal.Decimal {
	rule := r.Resolve(rules, now)
	if rule == nil {
		return decimal.Zero
	}
	if r.Deadline(docDate, paymentPeriod(rule)).After(now) {
		return Apply(fee, rule)
	}
	return decimal.Zero
}

// MutationPenalty returns the penalty owed on a mutation fee, or zero while the payment deadline is ahead.
func (r *ApplicabilityResolver) MutationPenalty(fee decimal.Decimal, rules []models.ApplicableRule, docDate, now time.Time) decimal.Decimal {
	rule := r.Resolve(rules, now)
	if rule == nil {
		return decimal.Zero
	}
	if r.Deadline(docDate, paymentPeriod(rule)).Before(now) {
		return Apply(fee, rule)
	}
	return decimal.Zero
}

// MutationEffects returns the signed rebate and the penalty for a mutation fee.
// The penalty is only evaluated when there is no rebate. Both are rounded up to two places.
func (r *ApplicabilityResolver) MutationEffects(fee decimal.Decimal, rules models.TimeRules, docDate, now time.Time) (rebate, penalty decimal.Decimal) {
	rebate = r.MutationRebate(fee, rules.Rebate, docDate, now)
	penalty = decimal.Zero
	if rebate.IsZero() {
		penalty = r.MutationPenalty(fee, rules.Penalty, docDate, now)
	}
	return rebate.RoundCeil(2).Neg(), penalty.RoundCeil(2)
}

// TimeEffects are the time-based adjustments of the main estimation path.
type TimeEffects struct {
	Rebate   decimal.Decimal
	Penalty  decimal.Decimal
	Interest decimal.Decimal
	FireCess decimal.Decimal
}

// Estimates returns the effects as tax-head lines, in a fixed order.
func (e TimeEffects) Estimates() []models.TaxHeadEstimate {
	return []models.TaxHeadEstimate{
		{TaxHeadCode: models.TaxHeadTimeRebate, EstimateAmount: e.Rebate},
		{TaxHeadCode: models.TaxHeadTimePenalty, EstimateAmount: e.Penalty},
		{TaxHeadCode: models.TaxHeadTimeInterest, EstimateAmount: e.Interest},
		{TaxHeadCode: models.TaxHeadFireCess, EstimateAmount: e.FireCess},
	}
}

// TimeEffects computes rebate (else penalty), interest and cess on a payable basis at the given instant.
func (r *ApplicabilityResolver) TimeEffects(basis decimal.Decimal, rules models.TimeRules, at time.Time) TimeEffects {
	effects := TimeEffects{
		Rebate:  Apply(basis, r.Resolve(rules.Rebate, at)).Round(2).Neg(),
		Penalty: decimal.Zero,
	}
	if effects.Rebate.IsZero() {
		effects.Penalty = Apply(basis, r.Resolve(rules.Penalty, at)).Round(2)
	}
	effects.Interest = Apply(basis, r.Resolve(rules.Interest, at)).Round(2)
	effects.FireCess = Apply(basis, r.Resolve(rules.FireCess, at)).Round(2)
	return effects
}

func paymentPeriod(rule *models.ApplicableRule) int {
	if rule.MutationPaymentPeriodInMonth == nil {
		return 0
	}
	return *rule.MutationPaymentPeriodInMonth
}
