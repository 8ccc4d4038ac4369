package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OverdueAlert is derived by the overdue sweep, never persisted as source of
// truth.
type OverdueAlert struct {
	AccountID      string          `json:"account_id"`
	TenantID       string          `json:"tenant_id"`
	UnitID         string          `json:"unit_id"`
	DaysOverdue    int             `json:"days_overdue"`
	BalanceAtAlert decimal.Decimal `json:"balance_at_alert"`
	DetectedAt     time.Time       `json:"detected_at"`
}
