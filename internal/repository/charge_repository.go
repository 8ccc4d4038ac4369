package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/segyhp/rent-ledger/internal/domain"
	"github.com/segyhp/rent-ledger/pkg/period"
)

type chargeRepository struct {
	db *sqlx.DB
}

func NewChargeRepository(db *sqlx.DB) ChargeRepository {
	return &chargeRepository{db: db}
}

func (r *chargeRepository) Create(ctx context.Context, charge *domain.Charge) error {
	query := `
		INSERT INTO charges (id, account_id, period_year, period_index, amount, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := ext(ctx, r.db).ExecContext(ctx, query,
		charge.ID,
		charge.AccountID,
		charge.PeriodYear,
		charge.PeriodIndex,
		charge.Amount,
		charge.GeneratedAt,
	)

	return err
}

func (r *chargeRepository) ExistsForPeriod(ctx context.Context, accountID string, key period.Key) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM charges
			WHERE account_id = $1 AND period_year = $2 AND period_index = $3
		)
	`

	var exists bool
	if err := sqlx.GetContext(ctx, ext(ctx, r.db), &exists, query, accountID, key.Year, key.Index); err != nil {
		return false, err
	}

	return exists, nil
}

func (r *chargeRepository) ListByAccountID(ctx context.Context, accountID string) ([]*domain.Charge, error) {
	query := `
		SELECT id, account_id, period_year, period_index, amount, generated_at
		FROM charges
		WHERE account_id = $1
		ORDER BY period_year, period_index
	`

	var charges []*domain.Charge
	if err := sqlx.SelectContext(ctx, ext(ctx, r.db), &charges, query, accountID); err != nil {
		return nil, err
	}

	return charges, nil
}

func (r *chargeRepository) SumGeneratedInMonth(ctx context.Context, year int, month time.Month) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM charges
		WHERE generated_at >= $1 AND generated_at < $2
	`

	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	var total decimal.Decimal
	if err := sqlx.GetContext(ctx, ext(ctx, r.db), &total, query, from, to); err != nil {
		return decimal.Zero, err
	}

	return total, nil
}
