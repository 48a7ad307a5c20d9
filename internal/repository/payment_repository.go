package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/stwalsh4118/ptcalc/api/internal/database"
	"github.com/stwalsh4118/ptcalc/api/internal/models"
)

// PaymentRepository defines the interface for PropertyPayment baseline access.
type PaymentRepository interface {
	// FindByPropertyID returns the most recent baseline for the property.
	// Returns nil, nil if the property has none.
	FindByPropertyID(ctx context.Context, propertyID string) (*models.PropertyPayment, error)

	// FindByPropertyIDAndFinancialYear returns the baseline for one financial year.
	// Returns nil, nil if there is none.
	FindByPropertyIDAndFinancialYear(ctx context.Context, propertyID, financialYear string) (*models.PropertyPayment, error)

	// Create stores a baseline. It reports false without error when a baseline
	// for the same property and financial year already exists.
	Create(ctx context.Context, payment *models.PropertyPayment) (bool, error)
}

// paymentRepository is the concrete implementation of PaymentRepository.
type paymentRepository struct {
	db *database.Database
}

// NewPaymentRepository creates a new instance of PaymentRepository.
func NewPaymentRepository(db *database.Database) PaymentRepository {
	return &paymentRepository{
		db: db,
	}
}

const paymentColumns = `
	id,
	property_id,
	financial_year,
	arrear_house_tax::text,
	arrear_water_tax::text,
	arrear_sewer_tax::text,
	house_tax::text,
	water_tax::text,
	sewer_tax::text,
	surcharge_house_tax::text,
	surcharge_water_tax::text,
	surcharge_sewer_tax::text,
	bill_generated_total::text,
	total_paid_amount::text,
	last_payment_date,
	created_at,
	updated_at
`

func (r *paymentRepository) FindByPropertyID(ctx context.Context, propertyID string) (*models.PropertyPayment, error) {
	query := `SELECT ` + paymentColumns + `
		FROM eg_pt_property_payment
		WHERE property_id = $1
		ORDER BY financial_year DESC, updated_at DESC
		LIMIT 1
	`

	payment, err := scanPayment(r.db.Pool.QueryRow(ctx, query, propertyID))
	if err != nil {
		return nil, fmt.Errorf("failed to query payment for property %s: %w", propertyID, err)
	}
	return payment, nil
}

func (r *paymentRepository) FindByPropertyIDAndFinancialYear(ctx context.Context, propertyID, financialYear string) (*models.PropertyPayment, error) {
	query := `SELECT ` + paymentColumns + `
		FROM eg_pt_property_payment
		WHERE property_id = $1 AND financial_year = $2
		LIMIT 1
	`

	payment, err := scanPayment(r.db.Pool.QueryRow(ctx, query, propertyID, financialYear))
	if err != nil {
		return nil, fmt.Errorf("failed to query payment for property %s (%s): %w", propertyID, financialYear, err)
	}
	return payment, nil
}

func (r *paymentRepository) Create(ctx context.Context, p *models.PropertyPayment) (bool, error) {
	query := `
		INSERT INTO eg_pt_property_payment (
			id, property_id, financial_year,
			arrear_house_tax, arrear_water_tax, arrear_sewer_tax,
			house_tax, water_tax, sewer_tax,
			surcharge_house_tax, surcharge_water_tax, surcharge_sewer_tax,
			bill_generated_total, total_paid_amount, last_payment_date
		) VALUES (
			$1, $2, $3,
			$4::numeric, $5::numeric, $6::numeric,
			$7::numeric, $8::numeric, $9::numeric,
			$10::numeric, $11::numeric, $12::numeric,
			$13::numeric, $14::numeric, $15
		)
		ON CONFLICT (property_id, financial_year) DO NOTHING
	`

	tag, err := r.db.Pool.Exec(ctx, query,
		p.ID, p.PropertyID, p.FinancialYear,
		p.ArrearHouseTax.String(), p.ArrearWaterTax.String(), p.ArrearSewerTax.String(),
		p.HouseTax.String(), p.WaterTax.String(), p.SewerTax.String(),
		p.SurchargeHouseTax.String(), p.SurchargeWaterTax.String(), p.SurchargeSewerTax.String(),
		p.BillGeneratedTotal.String(), p.TotalPaidAmount.String(), p.LastPaymentDate,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert payment for property %s (%s): %w", p.PropertyID, p.FinancialYear, err)
	}
	return tag.RowsAffected() == 1, nil
}

// scanPayment scans one row. No rows is not an error at the repository level.
func scanPayment(row pgx.Row) (*models.PropertyPayment, error) {
	var p models.PropertyPayment
	err := row.Scan(
		&p.ID,
		&p.PropertyID,
		&p.FinancialYear,
		&p.ArrearHouseTax,
		&p.ArrearWaterTax,
		&p.ArrearSewerTax,
		&p.HouseTax,
		&p.WaterTax,
		&p.SewerTax,
		&p.SurchargeHouseTax,
		&p.SurchargeWaterTax,
		&p.SurchargeSewerTax,
		&p.BillGeneratedTotal,
		&p.TotalPaidAmount,
		&p.LastPaymentDate,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}
