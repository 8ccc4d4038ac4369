package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/segyhp/rent-ledger/internal/config"
	"github.com/segyhp/rent-ledger/internal/domain"
	"github.com/segyhp/rent-ledger/internal/repository"
	customError "github.com/segyhp/rent-ledger/pkg/errors"
	"github.com/segyhp/rent-ledger/pkg/period"
)

// Reconciler recomputes the canonical balance from lease terms and payment
// history. The stored balance is only a cached projection; when the two
// diverge beyond the configured epsilon the stored value loses.
type Reconciler struct {
	accountRepo repository.AccountRepository
	paymentRepo repository.PaymentRepository
	tx          repository.TxManager
	redis       *redis.Client
	cfg         *config.Config
	log         *logrus.Logger
	now         func() time.Time
}

func NewReconciler(
	accountRepo repository.AccountRepository,
	paymentRepo repository.PaymentRepository,
	tx repository.TxManager,
	redisClient *redis.Client,
	cfg *config.Config,
	log *logrus.Logger,
) *Reconciler {
	return &Reconciler{
		accountRepo: accountRepo,
		paymentRepo: paymentRepo,
		tx:          tx,
		redis:       redisClient,
		cfg:         cfg,
		log:         log,
		now:         time.Now,
	}
}

// WithClock overrides the time source, used by deterministic tests.
func (r *Reconciler) WithClock(now func() time.Time) *Reconciler {
	r.now = now
	return r
}

// Reconcile replays the account's history and corrects stored drift.
//
// The accrual walk uses the same frequency rules as the generator but does
// not consult charge rows, so periods where generation never ran are still
// counted. Applied rent and deposit payments offset the accrued total.
func (r *Reconciler) Reconcile(ctx context.Context, accountID string) (*domain.ReconcileResult, error) {
	account, err := r.accountRepo.GetByAccountID(ctx, accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapAccountNotFound(accountID)
		}
		return nil, customError.WrapDatabaseError(err)
	}

	if !account.HasLeaseTerms() {
		return nil, customError.WrapMissingLeaseTerms(accountID)
	}

	accrued := period.Accrue(account.Frequency, account.RentAmount, account.BillingStartDate, r.now())

	payments, err := r.paymentRepo.ListByAccountID(ctx, accountID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	paid := decimal.Zero
	for _, payment := range payments {
		if payment.CountsTowardBalance() {
			paid = paid.Add(payment.Amount)
		}
	}

	canonical := accrued.Sub(paid)

	result := &domain.ReconcileResult{
		AccountID:  accountID,
		OldBalance: account.CurrentBalance,
		NewBalance: canonical,
	}

	drift := canonical.Sub(account.CurrentBalance).Abs()
	if drift.LessThanOrEqual(r.cfg.GetDriftEpsilon()) {
		return result, nil
	}

	err = r.tx.WithinTx(ctx, func(ctx context.Context) error {
		account.CurrentBalance = canonical
		reconciledAt := r.now()
		account.ReconciledAt = &reconciledAt

		if err := r.accountRepo.Update(ctx, account); err != nil {
			if errors.Is(err, customError.ErrConcurrentModification) {
				return customError.WrapConcurrentModification(accountID)
			}
			return customError.WrapDatabaseError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := r.redis.Del(ctx, balanceCacheKey(accountID)).Err(); err != nil {
		r.log.WithError(err).WithField("account_id", accountID).Warn("balance cache invalidation failed")
	}

	r.log.WithFields(logrus.Fields{
		"account_id":  accountID,
		"old_balance": result.OldBalance.String(),
		"new_balance": canonical.String(),
		"drift":       drift.String(),
	}).Warn("balance drift corrected")

	result.Corrected = true
	return result, nil
}

// ReconcileTouchedSince runs the drift check over accounts mutated after the
// given time. Per-account failures are isolated and counted.
func (r *Reconciler) ReconcileTouchedSince(ctx context.Context, since time.Time) (checked, corrected, errored int, err error) {
	accounts, err := r.accountRepo.ListTouchedSince(ctx, since)
	if err != nil {
		return 0, 0, 0, customError.WrapDatabaseError(err)
	}

	for _, account := range accounts {
		result, rerr := r.Reconcile(ctx, account.AccountID)
		if rerr != nil {
			errored++
			r.log.WithError(rerr).
				WithField("account_id", account.AccountID).
				Error("drift check failed for account")
			continue
		}
		checked++
		if result.Corrected {
			corrected++
		}
	}

	return checked, corrected, errored, nil
}
