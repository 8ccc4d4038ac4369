package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/segyhp/rent-ledger/internal/config"
	"github.com/segyhp/rent-ledger/internal/domain"
	"github.com/segyhp/rent-ledger/internal/repository"
	customError "github.com/segyhp/rent-ledger/pkg/errors"
)

// OverdueDetector flags accounts that owe money and have not paid inside the
// grace window. Alerts are derived on every sweep, never stored as truth.
type OverdueDetector struct {
	accountRepo repository.AccountRepository
	notifier    Notifier
	cfg         *config.Config
	log         *logrus.Logger
}

func NewOverdueDetector(
	accountRepo repository.AccountRepository,
	notifier Notifier,
	cfg *config.Config,
	log *logrus.Logger,
) *OverdueDetector {
	return &OverdueDetector{
		accountRepo: accountRepo,
		notifier:    notifier,
		cfg:         cfg,
		log:         log,
	}
}

// GetOverdueAccounts returns an alert for every active account with a
// positive balance whose last payment predates the grace window. Accounts
// that owe nothing are always current, whatever their payment dates say.
// Accounts that have never paid are measured from their billing start date.
func (d *OverdueDetector) GetOverdueAccounts(ctx context.Context, asOf time.Time, gracePeriodDays int) ([]*domain.OverdueAlert, error) {
	accounts, err := d.accountRepo.ListActive(ctx)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	var alerts []*domain.OverdueAlert
	for _, account := range accounts {
		if !account.CurrentBalance.IsPositive() {
			if account.PaymentStatus != domain.PaymentStatusCurrent {
				if err := d.accountRepo.SetPaymentStatus(ctx, account.AccountID, domain.PaymentStatusCurrent); err != nil {
					d.log.WithError(err).WithField("account_id", account.AccountID).Error("failed to clear overdue status")
				}
			}
			continue
		}

		reference := account.BillingStartDate
		if account.LastPaymentDate != nil {
			reference = *account.LastPaymentDate
		}

		daysOverdue := int(asOf.Sub(reference).Hours() / 24)
		if daysOverdue <= gracePeriodDays {
			continue
		}

		if account.PaymentStatus != domain.PaymentStatusOverdue {
			if err := d.accountRepo.SetPaymentStatus(ctx, account.AccountID, domain.PaymentStatusOverdue); err != nil {
				d.log.WithError(err).WithField("account_id", account.AccountID).Error("failed to mark account overdue")
				continue
			}
		}

		alerts = append(alerts, &domain.OverdueAlert{
			AccountID:      account.AccountID,
			TenantID:       account.TenantID,
			UnitID:         account.UnitID,
			DaysOverdue:    daysOverdue,
			BalanceAtAlert: account.CurrentBalance,
			DetectedAt:     asOf,
		})
	}

	return alerts, nil
}

// Sweep runs the weekly detection pass with the configured grace period and
// notifies the admins of every flagged account.
func (d *OverdueDetector) Sweep(ctx context.Context, asOf time.Time) ([]*domain.OverdueAlert, error) {
	alerts, err := d.GetOverdueAccounts(ctx, asOf, d.cfg.Billing.GraceDays)
	if err != nil {
		return nil, err
	}

	for _, alert := range alerts {
		if err := d.notifier.NotifyAdmins(ctx, "account.overdue", map[string]interface{}{
			"account_id":   alert.AccountID,
			"tenant_id":    alert.TenantID,
			"days_overdue": alert.DaysOverdue,
			"balance":      alert.BalanceAtAlert.String(),
		}); err != nil {
			d.log.WithError(err).Warn("admin notification failed")
		}
	}

	d.log.WithFields(logrus.Fields{
		"as_of":   asOf.Format("2006-01-02"),
		"flagged": len(alerts),
	}).Info("overdue sweep finished")

	return alerts, nil
}
