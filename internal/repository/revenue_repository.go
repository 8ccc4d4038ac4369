package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type revenueRepository struct {
	db *sqlx.DB
}

func NewRevenueRepository(db *sqlx.DB) RevenueRepository {
	return &revenueRepository{db: db}
}

// IncrementRevenue upserts the monthly aggregates for both the unit and its
// property. Runs inside the caller's transaction when one is in the context,
// so a failed payment apply never leaves a half-counted aggregate.
func (r *revenueRepository) IncrementRevenue(ctx context.Context, unitID, propertyID string, amount decimal.Decimal, year int, month time.Month) error {
	unitQuery := `
		INSERT INTO unit_revenue (unit_id, period_year, period_month, amount, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (unit_id, period_year, period_month)
		DO UPDATE SET amount = unit_revenue.amount + EXCLUDED.amount, updated_at = EXCLUDED.updated_at
	`

	propertyQuery := `
		INSERT INTO property_revenue (property_id, period_year, period_month, amount, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (property_id, period_year, period_month)
		DO UPDATE SET amount = property_revenue.amount + EXCLUDED.amount, updated_at = EXCLUDED.updated_at
	`

	now := time.Now()
	e := ext(ctx, r.db)

	if _, err := e.ExecContext(ctx, unitQuery, unitID, year, int(month), amount, now); err != nil {
		return err
	}

	_, err := e.ExecContext(ctx, propertyQuery, propertyID, year, int(month), amount, now)
	return err
}
