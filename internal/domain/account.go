package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/segyhp/rent-ledger/pkg/period"
)

const (
	AccountStatusActive   = "active"
	AccountStatusArchived = "archived"
)

// Derived payment standing, recomputed by the overdue sweep.
const (
	PaymentStatusCurrent = "current"
	PaymentStatusOverdue = "overdue"
)

// BillingAccount tracks what one occupant-unit relationship owes over time.
// CurrentBalance is a cached projection of the charge/payment log; the
// reconciler is the authority on its true value. Positive balance means the
// tenant owes, negative is credit.
type BillingAccount struct {
	ID               uuid.UUID        `json:"id" db:"id"`
	AccountID        string           `json:"account_id" db:"account_id"`
	TenantID         string           `json:"tenant_id" db:"tenant_id"`
	UnitID           string           `json:"unit_id" db:"unit_id"`
	PropertyID       string           `json:"property_id" db:"property_id"`
	RentAmount       decimal.Decimal  `json:"rent_amount" db:"rent_amount"`
	Frequency        period.Frequency `json:"payment_frequency" db:"payment_frequency"`
	BillingStartDate time.Time        `json:"billing_start_date" db:"billing_start_date"`
	CurrentBalance   decimal.Decimal  `json:"current_balance" db:"current_balance"`
	LastChargeYear   *int             `json:"last_charge_year" db:"last_charge_year"`
	LastChargePeriod *int             `json:"last_charge_period" db:"last_charge_period"`
	LastPaymentDate  *time.Time       `json:"last_payment_date" db:"last_payment_date"`
	PaymentStatus    string           `json:"payment_status" db:"payment_status"`
	Status           string           `json:"status" db:"status"`
	Version          int64            `json:"version" db:"version"`
	ReconciledAt     *time.Time       `json:"reconciled_at" db:"reconciled_at"`
	CreatedAt        time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at" db:"updated_at"`
}

// HasLeaseTerms reports whether the account carries enough lease data to
// price an obligation.
func (a *BillingAccount) HasLeaseTerms() bool {
	return a.RentAmount.IsPositive() && a.Frequency.Valid()
}

// ChargeGeneratedFor reports whether the generation tick already ran for
// period k.
func (a *BillingAccount) ChargeGeneratedFor(k period.Key) bool {
	return a.LastChargeYear != nil && a.LastChargePeriod != nil &&
		*a.LastChargeYear == k.Year && *a.LastChargePeriod == k.Index
}

// MarkChargeGenerated records k as the last generated period.
func (a *BillingAccount) MarkChargeGenerated(k period.Key) {
	year, idx := k.Year, k.Index
	a.LastChargeYear = &year
	a.LastChargePeriod = &idx
}

// DTOs for requests and responses

type CreateAccountRequest struct {
	AccountID        string           `json:"account_id" validate:"required"`
	TenantID         string           `json:"tenant_id" validate:"required"`
	UnitID           string           `json:"unit_id" validate:"required"`
	PropertyID       string           `json:"property_id" validate:"required"`
	RentAmount       decimal.Decimal  `json:"rent_amount" validate:"required"`
	Frequency        period.Frequency `json:"payment_frequency" validate:"required"`
	BillingStartDate time.Time        `json:"billing_start_date" validate:"required"`
}

type BalanceResponse struct {
	AccountID      string          `json:"account_id"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	PaymentStatus  string          `json:"payment_status"`
}

type StatementResponse struct {
	AccountID string     `json:"account_id"`
	Charges   []*Charge  `json:"charges"`
	Payments  []*Payment `json:"payments"`
}

type ReconcileResult struct {
	AccountID  string          `json:"account_id"`
	OldBalance decimal.Decimal `json:"old_balance"`
	NewBalance decimal.Decimal `json:"new_balance"`
	Corrected  bool            `json:"corrected"`
}
