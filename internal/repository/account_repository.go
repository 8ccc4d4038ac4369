package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/segyhp/rent-ledger/internal/domain"
	customError "github.com/segyhp/rent-ledger/pkg/errors"
)

type accountRepository struct {
	db *sqlx.DB
}

func NewAccountRepository(db *sqlx.DB) AccountRepository {
	return &accountRepository{db: db}
}

const accountColumns = `id, account_id, tenant_id, unit_id, property_id, rent_amount,
		payment_frequency, billing_start_date, current_balance, last_charge_year,
		last_charge_period, last_payment_date, payment_status, status, version,
		reconciled_at, created_at, updated_at`

func (r *accountRepository) Create(ctx context.Context, account *domain.BillingAccount) error {
	query := `
		INSERT INTO billing_accounts (id, account_id, tenant_id, unit_id, property_id,
			rent_amount, payment_frequency, billing_start_date, current_balance,
			payment_status, status, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	now := time.Now()
	_, err := ext(ctx, r.db).ExecContext(ctx, query,
		account.ID,
		account.AccountID,
		account.TenantID,
		account.UnitID,
		account.PropertyID,
		account.RentAmount,
		account.Frequency,
		account.BillingStartDate,
		account.CurrentBalance,
		account.PaymentStatus,
		account.Status,
		account.Version,
		now,
		now,
	)

	return err
}

func (r *accountRepository) GetByAccountID(ctx context.Context, accountID string) (*domain.BillingAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM billing_accounts WHERE account_id = $1`

	var account domain.BillingAccount
	if err := sqlx.GetContext(ctx, ext(ctx, r.db), &account, query, accountID); err != nil {
		return nil, err
	}

	return &account, nil
}

// Update writes the account back guarded by its loaded version. The version
// column advances on every successful write, so a concurrent writer makes the
// WHERE clause miss and the caller gets ErrConcurrentModification to retry.
func (r *accountRepository) Update(ctx context.Context, account *domain.BillingAccount) error {
	query := `
		UPDATE billing_accounts
		SET rent_amount = $2, payment_frequency = $3, billing_start_date = $4,
			current_balance = $5, last_charge_year = $6, last_charge_period = $7,
			last_payment_date = $8, payment_status = $9, status = $10,
			reconciled_at = $11, version = version + 1, updated_at = $12
		WHERE account_id = $1 AND version = $13
	`

	result, err := ext(ctx, r.db).ExecContext(ctx, query,
		account.AccountID,
		account.RentAmount,
		account.Frequency,
		account.BillingStartDate,
		account.CurrentBalance,
		account.LastChargeYear,
		account.LastChargePeriod,
		account.LastPaymentDate,
		account.PaymentStatus,
		account.Status,
		account.ReconciledAt,
		time.Now(),
		account.Version,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return customError.ErrConcurrentModification
	}

	account.Version++
	return nil
}

func (r *accountRepository) ListActive(ctx context.Context) ([]*domain.BillingAccount, error) {
	query := `SELECT ` + accountColumns + `
		FROM billing_accounts
		WHERE status = $1
		ORDER BY account_id`

	var accounts []*domain.BillingAccount
	if err := sqlx.SelectContext(ctx, ext(ctx, r.db), &accounts, query, domain.AccountStatusActive); err != nil {
		return nil, err
	}

	return accounts, nil
}

func (r *accountRepository) ListTouchedSince(ctx context.Context, since time.Time) ([]*domain.BillingAccount, error) {
	query := `SELECT ` + accountColumns + `
		FROM billing_accounts
		WHERE status = $1 AND updated_at > $2
		ORDER BY account_id`

	var accounts []*domain.BillingAccount
	if err := sqlx.SelectContext(ctx, ext(ctx, r.db), &accounts, query, domain.AccountStatusActive, since); err != nil {
		return nil, err
	}

	return accounts, nil
}

func (r *accountRepository) SetPaymentStatus(ctx context.Context, accountID, status string) error {
	query := `
		UPDATE billing_accounts
		SET payment_status = $2, updated_at = $3
		WHERE account_id = $1
	`

	_, err := ext(ctx, r.db).ExecContext(ctx, query, accountID, status, time.Now())
	return err
}

func (r *accountRepository) Archive(ctx context.Context, accountID string) error {
	query := `
		UPDATE billing_accounts
		SET status = $2, updated_at = $3
		WHERE account_id = $1
	`

	_, err := ext(ctx, r.db).ExecContext(ctx, query, accountID, domain.AccountStatusArchived, time.Now())
	return err
}
