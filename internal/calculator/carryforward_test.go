package calculator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/ptcalc/api/internal/models"
)

func demandCollected(amounts ...string) *models.Demand {
	d := &models.Demand{ConsumerCode: "PT-1"}
	for _, a := range amounts {
		d.DemandDetails = append(d.DemandDetails, models.DemandDetail{
			TaxHeadMasterCode: models.TaxHeadHouseTax,
			TaxAmount:         dec(a),
			CollectionAmount:  dec(a),
		})
	}
	return d
}

func TestReconcile(t *testing.T) {
	t.Run("new tax above collected yields a credit of the difference", func(t *testing.T) {
		line, ok, err := Reconcile(dec("150.00"), demandCollected("100.00"), models.TaxHeadHouseTax)

		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, models.TaxHeadAdvanceCarryForward, line.TaxHeadCode)
		assertDecimal(t, "50.00", line.EstimateAmount.Neg())
	})

	t.Run("only the primary head's collection counts", func(t *testing.T) {
		old := demandCollected("100.00")
		old.DemandDetails = append(old.DemandDetails,
			models.DemandDetail{TaxHeadMasterCode: models.TaxHeadWaterTax, TaxAmount: dec("64.00"), CollectionAmount: dec("64.00")},
			models.DemandDetail{TaxHeadMasterCode: models.TaxHeadArrearHouseTax, TaxAmount: dec("500.00"), CollectionAmount: dec("500.00")},
		)

		line, ok, err := Reconcile(dec("150.00"), old, models.TaxHeadHouseTax)

		require.NoError(t, err)
		require.True(t, ok)
		assertDecimal(t, "-50.00", line.EstimateAmount)
	})

	t.Run("prior demand without a primary line counts as nothing collected", func(t *testing.T) {
		old := &models.Demand{DemandDetails: []models.DemandDetail{
			{TaxHeadMasterCode: models.TaxHeadSewerTax, TaxAmount: dec("32.00"), CollectionAmount: dec("32.00")},
		}}

		line, ok, err := Reconcile(dec("150.00"), old, models.TaxHeadHouseTax)

		require.NoError(t, err)
		require.True(t, ok)
		assertDecimal(t, "-150.00", line.EstimateAmount)
	})

	t.Run("new tax below collected is a depreciating assessment", func(t *testing.T) {
		_, ok, err := Reconcile(dec("100.00"), demandCollected("150.00"), models.TaxHeadHouseTax)

		assert.False(t, ok)
		assert.ErrorIs(t, err, ErrDepreciatingAssessment)
	})

	t.Run("equal amounts add nothing", func(t *testing.T) {
		_, ok, err := Reconcile(dec("100.00"), demandCollected("100.00"), models.TaxHeadHouseTax)

		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("no prior demand", func(t *testing.T) {
		_, ok, err := Reconcile(dec("100.00"), nil, models.TaxHeadHouseTax)

		require.NoError(t, err)
		assert.False(t, ok)
	})
}
