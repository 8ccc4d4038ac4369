package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/segyhp/rent-ledger/internal/config"
	"github.com/segyhp/rent-ledger/internal/domain"
	"github.com/segyhp/rent-ledger/internal/repository"
	customError "github.com/segyhp/rent-ledger/pkg/errors"
	"github.com/segyhp/rent-ledger/pkg/period"
)

const generationLockTTL = time.Hour

// ChargeGenerator materializes rent obligations per billing period. A sweep
// is idempotent per (account, period): retries, manual catch-up triggers and
// double ticks produce no duplicate charges.
type ChargeGenerator struct {
	accountRepo repository.AccountRepository
	chargeRepo  repository.ChargeRepository
	runRepo     repository.RunRepository
	tx          repository.TxManager
	redis       *redis.Client
	cfg         *config.Config
	log         *logrus.Logger
}

func NewChargeGenerator(
	accountRepo repository.AccountRepository,
	chargeRepo repository.ChargeRepository,
	runRepo repository.RunRepository,
	tx repository.TxManager,
	redisClient *redis.Client,
	cfg *config.Config,
	log *logrus.Logger,
) *ChargeGenerator {
	return &ChargeGenerator{
		accountRepo: accountRepo,
		chargeRepo:  chargeRepo,
		runRepo:     runRepo,
		tx:          tx,
		redis:       redisClient,
		cfg:         cfg,
		log:         log,
	}
}

// GenerateForPeriod runs one generation sweep over all active accounts as of
// the given date. Each account commits in its own transaction; one account's
// failure is counted and logged, never rolled into another's.
func (g *ChargeGenerator) GenerateForPeriod(ctx context.Context, asOf time.Time) (*domain.RunSummary, error) {
	lockKey := fmt.Sprintf("rentledger:generation:%d-%02d", asOf.Year(), int(asOf.Month()))
	acquired, err := g.redis.SetNX(ctx, lockKey, "1", generationLockTTL).Result()
	if err != nil {
		// redis being down must not stop billing; the per-period uniqueness
		// check still guards against duplicates
		g.log.WithError(err).Warn("generation run lock unavailable, proceeding without it")
	} else if !acquired {
		return nil, customError.NewBusinessError(
			customError.ErrCodeGenerationInProgress,
			fmt.Sprintf("Generation for %s is already running", lockKey),
			customError.ErrGenerationInProgress,
		)
	} else {
		defer g.redis.Del(ctx, lockKey)
	}

	accounts, err := g.accountRepo.ListActive(ctx)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	run := &domain.RunSummary{
		ID:          uuid.New(),
		AsOfDate:    asOf,
		TotalAmount: decimal.Zero,
		StartedAt:   time.Now(),
	}

	for _, account := range accounts {
		outcome := g.generateForAccount(ctx, account, asOf)
		run.Outcomes = append(run.Outcomes, outcome)

		switch {
		case outcome.Err != nil:
			run.Errored++
			g.log.WithError(outcome.Err).
				WithField("account_id", account.AccountID).
				Error("charge generation failed for account")
		case outcome.Generated:
			run.Processed++
			run.TotalAmount = run.TotalAmount.Add(*outcome.Amount)
		default:
			run.Skipped++
		}
	}

	run.FinishedAt = time.Now()

	if err := g.runRepo.SaveSummary(ctx, run); err != nil {
		g.log.WithError(err).Warn("failed to persist run summary")
	}

	g.log.WithFields(logrus.Fields{
		"as_of":     asOf.Format("2006-01-02"),
		"processed": run.Processed,
		"skipped":   run.Skipped,
		"errored":   run.Errored,
		"total":     run.TotalAmount.String(),
	}).Info("charge generation sweep finished")

	return run, nil
}

// generateForAccount applies the frequency rules and idempotency guards for
// one account and, when due, commits the charge and balance increment in one
// transaction.
func (g *ChargeGenerator) generateForAccount(ctx context.Context, account *domain.BillingAccount, asOf time.Time) domain.GenerationOutcome {
	outcome := domain.GenerationOutcome{AccountID: account.AccountID}

	if !account.HasLeaseTerms() {
		outcome.Reason = GenerationReasonError(customError.WrapMissingLeaseTerms(account.AccountID))
		outcome.Err = customError.WrapMissingLeaseTerms(account.AccountID)
		return outcome
	}

	if !period.DueThisMonth(account.Frequency, asOf) {
		outcome.Reason = domain.GenerationReasonNotDue
		return outcome
	}

	key := period.KeyFor(account.Frequency, asOf)

	if account.ChargeGeneratedFor(key) {
		outcome.Reason = domain.GenerationReasonAlreadyGenerated
		return outcome
	}

	exists, err := g.chargeRepo.ExistsForPeriod(ctx, account.AccountID, key)
	if err != nil {
		outcome.Reason = GenerationReasonError(err)
		outcome.Err = customError.WrapDatabaseError(err)
		return outcome
	}
	if exists {
		outcome.Reason = domain.GenerationReasonAlreadyGenerated
		return outcome
	}

	amount := period.TickAmount(account.Frequency, account.RentAmount)

	charge := &domain.Charge{
		ID:          uuid.New(),
		AccountID:   account.AccountID,
		PeriodYear:  key.Year,
		PeriodIndex: key.Index,
		Amount:      amount,
		GeneratedAt: time.Now(),
	}

	err = g.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := g.chargeRepo.Create(ctx, charge); err != nil {
			return err
		}

		account.CurrentBalance = account.CurrentBalance.Add(amount)
		account.MarkChargeGenerated(key)

		return g.accountRepo.Update(ctx, account)
	})
	if err != nil {
		if errors.Is(err, customError.ErrConcurrentModification) {
			outcome.Err = customError.WrapConcurrentModification(account.AccountID)
		} else {
			outcome.Err = customError.WrapDatabaseError(err)
		}
		outcome.Reason = GenerationReasonError(outcome.Err)
		return outcome
	}

	g.invalidateBalance(ctx, account.AccountID)

	outcome.Generated = true
	outcome.Amount = &amount
	outcome.Reason = domain.GenerationReasonGenerated
	return outcome
}

func (g *ChargeGenerator) invalidateBalance(ctx context.Context, accountID string) {
	if err := g.redis.Del(ctx, balanceCacheKey(accountID)).Err(); err != nil {
		g.log.WithError(err).WithField("account_id", accountID).Warn("balance cache invalidation failed")
	}
}

// GenerationReasonError formats an error outcome reason.
func GenerationReasonError(err error) string {
	return "error: " + err.Error()
}
