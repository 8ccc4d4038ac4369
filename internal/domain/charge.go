package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Charge is one generated rent obligation for a specific billing period.
// Rows are immutable once inserted; at most one exists per (account, period).
type Charge struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	AccountID   string          `json:"account_id" db:"account_id"`
	PeriodYear  int             `json:"period_year" db:"period_year"`
	PeriodIndex int             `json:"period_index" db:"period_index"`
	Amount      decimal.Decimal `json:"amount" db:"amount"`
	GeneratedAt time.Time       `json:"generated_at" db:"generated_at"`
}

// Generation sweep outcome reasons.
const (
	GenerationReasonGenerated        = "generated"
	GenerationReasonAlreadyGenerated = "already_generated"
	GenerationReasonNotDue           = "not_due"
)

// GenerationOutcome is the per-account result of one generation sweep.
type GenerationOutcome struct {
	AccountID string           `json:"account_id"`
	Generated bool             `json:"generated"`
	Amount    *decimal.Decimal `json:"amount,omitempty"`
	Reason    string           `json:"reason"`
	Err       error            `json:"-"`
}

// MonthlySummary totals one calendar month of billing activity.
type MonthlySummary struct {
	Year             int             `json:"year"`
	Month            int             `json:"month"`
	ChargesGenerated decimal.Decimal `json:"charges_generated"`
	PaymentsReceived decimal.Decimal `json:"payments_received"`
}

// RunSummary aggregates one charge-generation sweep.
type RunSummary struct {
	ID          uuid.UUID           `json:"id" db:"id"`
	AsOfDate    time.Time           `json:"as_of_date" db:"as_of_date"`
	Processed   int                 `json:"processed" db:"processed"`
	Skipped     int                 `json:"skipped" db:"skipped"`
	Errored     int                 `json:"errored" db:"errored"`
	TotalAmount decimal.Decimal     `json:"total_amount" db:"total_amount"`
	StartedAt   time.Time           `json:"started_at" db:"started_at"`
	FinishedAt  time.Time           `json:"finished_at" db:"finished_at"`
	Outcomes    []GenerationOutcome `json:"outcomes,omitempty" db:"-"`
}
