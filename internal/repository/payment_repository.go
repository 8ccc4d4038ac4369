package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/segyhp/rent-ledger/internal/domain"
)

type paymentRepository struct {
	db *sqlx.DB
}

func NewPaymentRepository(db *sqlx.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (id, account_id, amount, payment_date, method, payment_type,
			description, period_year, period_index, balance_before, balance_after,
			timeliness, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := ext(ctx, r.db).ExecContext(ctx, query,
		payment.ID,
		payment.AccountID,
		payment.Amount,
		payment.PaymentDate,
		payment.Method,
		payment.Type,
		payment.Description,
		payment.PeriodYear,
		payment.PeriodIndex,
		payment.BalanceBefore,
		payment.BalanceAfter,
		payment.Timeliness,
		payment.Status,
		payment.CreatedAt,
	)

	return err
}

func (r *paymentRepository) ListByAccountID(ctx context.Context, accountID string) ([]*domain.Payment, error) {
	query := `
		SELECT id, account_id, amount, payment_date, method, payment_type, description,
			period_year, period_index, balance_before, balance_after, timeliness,
			status, created_at
		FROM payments
		WHERE account_id = $1
		ORDER BY payment_date, created_at
	`

	var payments []*domain.Payment
	if err := sqlx.SelectContext(ctx, ext(ctx, r.db), &payments, query, accountID); err != nil {
		return nil, err
	}

	return payments, nil
}

func (r *paymentRepository) SumReceivedInMonth(ctx context.Context, year int, month time.Month) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM payments
		WHERE status = $1 AND payment_date >= $2 AND payment_date < $3
	`

	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	var total decimal.Decimal
	if err := sqlx.GetContext(ctx, ext(ctx, r.db), &total, query, domain.PaymentRecordApplied, from, to); err != nil {
		return decimal.Zero, err
	}

	return total, nil
}
