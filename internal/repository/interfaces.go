package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/segyhp/rent-ledger/internal/domain"
	"github.com/segyhp/rent-ledger/pkg/period"
)

// TxManager runs a function inside one database transaction. Repository
// calls made with the context it passes to fn join that transaction.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// AccountRepository defines the interface for billing account data operations
type AccountRepository interface {
	// Create creates a new billing account
	Create(ctx context.Context, account *domain.BillingAccount) error

	// GetByAccountID retrieves an account by its external account ID
	GetByAccountID(ctx context.Context, accountID string) (*domain.BillingAccount, error)

	// Update persists a mutated account with an optimistic version check.
	// Returns errors.ErrConcurrentModification if the stored version moved.
	Update(ctx context.Context, account *domain.BillingAccount) error

	// ListActive retrieves all active accounts
	ListActive(ctx context.Context) ([]*domain.BillingAccount, error)

	// ListTouchedSince retrieves active accounts updated after the given time
	ListTouchedSince(ctx context.Context, since time.Time) ([]*domain.BillingAccount, error)

	// SetPaymentStatus updates the derived payment standing
	SetPaymentStatus(ctx context.Context, accountID, status string) error

	// Archive marks the account archived, retaining its final balance
	Archive(ctx context.Context, accountID string) error
}

// ChargeRepository defines the interface for charge data operations
type ChargeRepository interface {
	// Create inserts a new charge record
	Create(ctx context.Context, charge *domain.Charge) error

	// ExistsForPeriod reports whether a charge exists for (account, period)
	ExistsForPeriod(ctx context.Context, accountID string, key period.Key) (bool, error)

	// ListByAccountID retrieves all charges for an account, oldest first
	ListByAccountID(ctx context.Context, accountID string) ([]*domain.Charge, error)

	// SumGeneratedInMonth totals charges generated during a calendar month
	SumGeneratedInMonth(ctx context.Context, year int, month time.Month) (decimal.Decimal, error)
}

// PaymentRepository defines the interface for payment data operations
type PaymentRepository interface {
	// Create inserts a new payment record
	Create(ctx context.Context, payment *domain.Payment) error

	// ListByAccountID retrieves all payments for an account, oldest first
	ListByAccountID(ctx context.Context, accountID string) ([]*domain.Payment, error)

	// SumReceivedInMonth totals applied payments dated within a calendar month
	SumReceivedInMonth(ctx context.Context, year int, month time.Month) (decimal.Decimal, error)
}

// RevenueRepository is the collaborator-facing mutator for unit and property
// revenue aggregates.
type RevenueRepository interface {
	// IncrementRevenue adds amount to the unit's and property's aggregate for
	// the given calendar month
	IncrementRevenue(ctx context.Context, unitID, propertyID string, amount decimal.Decimal, year int, month time.Month) error
}

// RunRepository persists charge-generation run summaries
type RunRepository interface {
	// SaveSummary inserts one run summary row
	SaveSummary(ctx context.Context, run *domain.RunSummary) error
}
