package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	PaymentTypeRent    = "rent"
	PaymentTypeDeposit = "deposit"
	PaymentTypeFee     = "fee"
	PaymentTypeOther   = "other"
)

const (
	PaymentMethodCash     = "cash"
	PaymentMethodTransfer = "bank_transfer"
	PaymentMethodCard     = "card"
	PaymentMethodMobile   = "mobile_money"
	PaymentMethodOther    = "other"
)

// Timeliness classification relative to the period's due date.
const (
	TimelinessOnTime = "on_time"
	TimelinessGrace  = "grace_period"
	TimelinessLate   = "late"
)

const (
	PaymentRecordApplied = "applied"
	PaymentRecordVoided  = "voided"
)

// Payment is an immutable record of money received against an account.
// BalanceBefore/BalanceAfter snapshot the running balance around the apply so
// the history reads as a ledger.
type Payment struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	AccountID     string          `json:"account_id" db:"account_id"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	PaymentDate   time.Time       `json:"payment_date" db:"payment_date"`
	Method        string          `json:"method" db:"method"`
	Type          string          `json:"payment_type" db:"payment_type"`
	Description   string          `json:"description" db:"description"`
	PeriodYear    int             `json:"period_year" db:"period_year"`
	PeriodIndex   int             `json:"period_index" db:"period_index"`
	BalanceBefore decimal.Decimal `json:"balance_before" db:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after" db:"balance_after"`
	Timeliness    string          `json:"timeliness" db:"timeliness"`
	Status        string          `json:"status" db:"status"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

// CountsTowardBalance reports whether the payment reduces the canonical
// balance during reconciliation. Fees and ad hoc payments are tracked but do
// not offset rent obligations.
func (p *Payment) CountsTowardBalance() bool {
	if p.Status != PaymentRecordApplied {
		return false
	}
	return p.Type == PaymentTypeRent || p.Type == PaymentTypeDeposit
}

type RecordPaymentRequest struct {
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	PaymentDate time.Time       `json:"payment_date" validate:"required"`
	Method      string          `json:"method" validate:"required,oneof=cash bank_transfer card mobile_money other"`
	Type        string          `json:"payment_type" validate:"required,oneof=rent deposit fee other"`
	Description string          `json:"description"`
}

type PaymentResult struct {
	Payment     *Payment        `json:"payment"`
	AmountDue   decimal.Decimal `json:"amount_due_before_payment"`
	NewBalance  decimal.Decimal `json:"new_balance"`
	Timeliness  string          `json:"timeliness"`
	PeriodYear  int             `json:"period_year"`
	PeriodIndex int             `json:"period_index"`
}
