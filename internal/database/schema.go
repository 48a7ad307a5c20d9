package database

import (
	"context"
	"fmt"
)

// PaymentTable stores one PropertyPayment baseline per property and financial year.
const PaymentTable = "eg_pt_property_payment"

const paymentSchema = `
CREATE TABLE IF NOT EXISTS eg_pt_property_payment (
	id                   VARCHAR(64) PRIMARY KEY,
	property_id          VARCHAR(256) NOT NULL,
	financial_year       VARCHAR(16) NOT NULL,
	arrear_house_tax     NUMERIC(14, 2) NOT NULL DEFAULT 0,
	arrear_water_tax     NUMERIC(14, 2) NOT NULL DEFAULT 0,
	arrear_sewer_tax     NUMERIC(14, 2) NOT NULL DEFAULT 0,
	house_tax            NUMERIC(14, 2) NOT NULL DEFAULT 0,
	water_tax            NUMERIC(14, 2) NOT NULL DEFAULT 0,
	sewer_tax            NUMERIC(14, 2) NOT NULL DEFAULT 0,
	surcharge_house_tax  NUMERIC(14, 2) NOT NULL DEFAULT 0,
	surcharge_water_tax  NUMERIC(14, 2) NOT NULL DEFAULT 0,
	surcharge_sewer_tax  NUMERIC(14, 2) NOT NULL DEFAULT 0,
	bill_generated_total NUMERIC(14, 2) NOT NULL DEFAULT 0,
	total_paid_amount    NUMERIC(14, 2) NOT NULL DEFAULT 0,
	last_payment_date    TIMESTAMPTZ,
	created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CONSTRAINT uk_eg_pt_property_payment UNIQUE (property_id, financial_year)
);
CREATE INDEX IF NOT EXISTS idx_eg_pt_property_payment_property_id ON eg_pt_property_payment (property_id);
`

// EnsureSchema creates the tables the service owns when they do not exist.
func (db *Database) EnsureSchema(ctx context.Context) error {
	if _, err := db.Pool.Exec(ctx, paymentSchema); err != nil {
		return fmt.Errorf("failed to create %s: %w", PaymentTable, err)
	}
	return nil
}
