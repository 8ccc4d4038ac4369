package service

import (
	"context"
	"database/sql"
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

const balanceCacheTTL = time.Hour

// BillingService owns account provisioning and payment application. Payment
// application is the synchronous mutation path: a payment insert, the balance
// update, and the revenue aggregates commit in one transaction or not at all.
type BillingService struct {
	accountRepo repository.AccountRepository
	paymentRepo repository.PaymentRepository
	chargeRepo  repository.ChargeRepository
	revenueRepo repository.RevenueRepository
	tx          repository.TxManager
	redis       *redis.Client
	notifier    Notifier
	cfg         *config.Config
	log         *logrus.Logger
	locks       *accountLocks
}

func NewBillingService(
	accountRepo repository.AccountRepository,
	paymentRepo repository.PaymentRepository,
	chargeRepo repository.ChargeRepository,
	revenueRepo repository.RevenueRepository,
	tx repository.TxManager,
	redisClient *redis.Client,
	notifier Notifier,
	cfg *config.Config,
	log *logrus.Logger,
) *BillingService {
	return &BillingService{
		accountRepo: accountRepo,
		paymentRepo: paymentRepo,
		chargeRepo:  chargeRepo,
		revenueRepo: revenueRepo,
		tx:          tx,
		redis:       redisClient,
		notifier:    notifier,
		cfg:         cfg,
		log:         log,
		locks:       newAccountLocks(),
	}
}

// CreateAccount provisions a billing account when a tenant is assigned an
// active lease.
func (s *BillingService) CreateAccount(ctx context.Context, request *domain.CreateAccountRequest) (*domain.BillingAccount, error) {
	if !request.RentAmount.IsPositive() {
		return nil, customError.WrapMissingLeaseTerms(request.AccountID)
	}
	if !request.Frequency.Valid() {
		return nil, customError.NewBusinessError(
			customError.ErrCodeMissingLeaseTerms,
			fmt.Sprintf("Unknown payment frequency %q", request.Frequency),
			customError.ErrMissingLeaseTerms,
		)
	}

	existing, err := s.accountRepo.GetByAccountID(ctx, request.AccountID)
	if err == nil && existing != nil {
		return nil, customError.WrapAccountAlreadyExists(request.AccountID)
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, customError.WrapDatabaseError(err)
	}

	account := &domain.BillingAccount{
		ID:               uuid.New(),
		AccountID:        request.AccountID,
		TenantID:         request.TenantID,
		UnitID:           request.UnitID,
		PropertyID:       request.PropertyID,
		RentAmount:       request.RentAmount,
		Frequency:        request.Frequency,
		BillingStartDate: request.BillingStartDate,
		CurrentBalance:   decimal.Zero,
		PaymentStatus:    domain.PaymentStatusCurrent,
		Status:           domain.AccountStatusActive,
		Version:          1,
	}

	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return account, nil
}

// RecordPayment applies a payment against an account's running balance.
//
// A payment whose calendar month differs from the last payment's opens a new
// period: the period's rent is rolled into the amount due at that moment,
// whether or not the scheduled generation tick has run yet. Only one period's
// rent is pulled forward even when months were skipped; the reconciler
// settles any resulting gap.
func (s *BillingService) RecordPayment(ctx context.Context, accountID string, request *domain.RecordPaymentRequest) (*domain.PaymentResult, error) {
	if !request.Amount.IsPositive() {
		return nil, customError.WrapInvalidPaymentAmount(request.Amount.String())
	}

	lock := s.locks.get(accountID)
	lock.Lock()
	defer lock.Unlock()

	account, err := s.accountRepo.GetByAccountID(ctx, accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapAccountNotFound(accountID)
		}
		return nil, customError.WrapDatabaseError(err)
	}

	if account.Status != domain.AccountStatusActive {
		return nil, customError.WrapAccountArchived(accountID)
	}
	if !account.HasLeaseTerms() {
		return nil, customError.WrapMissingLeaseTerms(accountID)
	}

	paymentDate := request.PaymentDate
	key := period.KeyFor(account.Frequency, paymentDate)

	newPeriod := account.LastPaymentDate == nil ||
		!period.SameCalendarMonth(paymentDate, *account.LastPaymentDate)

	amountDue := account.CurrentBalance
	if newPeriod {
		amountDue = amountDue.Add(account.RentAmount)
	}
	newBalance := amountDue.Sub(request.Amount)

	timeliness := s.classifyTimeliness(account.Frequency, key, paymentDate)

	payment := &domain.Payment{
		ID:            uuid.New(),
		AccountID:     accountID,
		Amount:        request.Amount,
		PaymentDate:   paymentDate,
		Method:        request.Method,
		Type:          request.Type,
		Description:   request.Description,
		PeriodYear:    key.Year,
		PeriodIndex:   key.Index,
		BalanceBefore: amountDue,
		BalanceAfter:  newBalance,
		Timeliness:    timeliness,
		Status:        domain.PaymentRecordApplied,
		CreatedAt:     time.Now(),
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.paymentRepo.Create(ctx, payment); err != nil {
			return customError.WrapDatabaseError(err)
		}

		account.CurrentBalance = newBalance
		account.LastPaymentDate = &paymentDate
		if !newBalance.IsPositive() {
			account.PaymentStatus = domain.PaymentStatusCurrent
		}

		if err := s.accountRepo.Update(ctx, account); err != nil {
			if errors.Is(err, customError.ErrConcurrentModification) {
				return customError.WrapConcurrentModification(accountID)
			}
			return customError.WrapDatabaseError(err)
		}

		return s.revenueRepo.IncrementRevenue(ctx,
			account.UnitID, account.PropertyID,
			request.Amount, paymentDate.Year(), paymentDate.Month())
	})
	if err != nil {
		return nil, err
	}

	s.invalidateBalance(ctx, accountID)

	if err := s.notifier.NotifyAdmins(ctx, "payment.recorded", map[string]interface{}{
		"account_id": accountID,
		"amount":     request.Amount.String(),
		"timeliness": timeliness,
	}); err != nil {
		s.log.WithError(err).Warn("admin notification failed")
	}

	return &domain.PaymentResult{
		Payment:     payment,
		AmountDue:   amountDue,
		NewBalance:  newBalance,
		Timeliness:  timeliness,
		PeriodYear:  key.Year,
		PeriodIndex: key.Index,
	}, nil
}

// classifyTimeliness compares the payment date against day N of the period's
// end month: on time through the due date, grace for the configured window
// after it, late beyond that.
func (s *BillingService) classifyTimeliness(freq period.Frequency, key period.Key, paymentDate time.Time) string {
	dueDate := period.DueDate(freq, key, s.cfg.Billing.DueDay, paymentDate.Location())
	graceEnd := dueDate.AddDate(0, 0, s.cfg.Billing.GraceDays)

	day := time.Date(paymentDate.Year(), paymentDate.Month(), paymentDate.Day(), 0, 0, 0, 0, paymentDate.Location())

	switch {
	case !day.After(dueDate):
		return domain.TimelinessOnTime
	case !day.After(graceEnd):
		return domain.TimelinessGrace
	default:
		return domain.TimelinessLate
	}
}

// GetBalance returns the account's current balance, read through the redis
// cache.
func (s *BillingService) GetBalance(ctx context.Context, accountID string) (*domain.BalanceResponse, error) {
	cacheKey := balanceCacheKey(accountID)

	if cached, err := s.redis.Get(ctx, cacheKey).Result(); err == nil {
		if balance, perr := decimal.NewFromString(cached); perr == nil {
			return &domain.BalanceResponse{AccountID: accountID, CurrentBalance: balance}, nil
		}
	}

	account, err := s.accountRepo.GetByAccountID(ctx, accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapAccountNotFound(accountID)
		}
		return nil, customError.WrapDatabaseError(err)
	}

	if err := s.redis.Set(ctx, cacheKey, account.CurrentBalance.String(), balanceCacheTTL).Err(); err != nil {
		s.log.WithError(err).Warn("balance cache write failed")
	}

	return &domain.BalanceResponse{
		AccountID:      accountID,
		CurrentBalance: account.CurrentBalance,
		PaymentStatus:  account.PaymentStatus,
	}, nil
}

// GetStatement returns the account's full charge and payment history.
func (s *BillingService) GetStatement(ctx context.Context, accountID string) (*domain.StatementResponse, error) {
	if _, err := s.accountRepo.GetByAccountID(ctx, accountID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapAccountNotFound(accountID)
		}
		return nil, customError.WrapDatabaseError(err)
	}

	charges, err := s.chargeRepo.ListByAccountID(ctx, accountID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	payments, err := s.paymentRepo.ListByAccountID(ctx, accountID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return &domain.StatementResponse{
		AccountID: accountID,
		Charges:   charges,
		Payments:  payments,
	}, nil
}

// ArchiveAccount closes the account when tenancy ends. The row and its final
// balance stay behind for audit.
func (s *BillingService) ArchiveAccount(ctx context.Context, accountID string) error {
	if _, err := s.accountRepo.GetByAccountID(ctx, accountID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return customError.WrapAccountNotFound(accountID)
		}
		return customError.WrapDatabaseError(err)
	}

	if err := s.accountRepo.Archive(ctx, accountID); err != nil {
		return customError.WrapDatabaseError(err)
	}

	s.invalidateBalance(ctx, accountID)
	return nil
}

// SummarizeMonth aggregates charges generated and payments received for one
// calendar month and pushes the totals to the admins.
func (s *BillingService) SummarizeMonth(ctx context.Context, year int, month time.Month) (*domain.MonthlySummary, error) {
	charged, err := s.chargeRepo.SumGeneratedInMonth(ctx, year, month)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	received, err := s.paymentRepo.SumReceivedInMonth(ctx, year, month)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	summary := &domain.MonthlySummary{
		Year:             year,
		Month:            int(month),
		ChargesGenerated: charged,
		PaymentsReceived: received,
	}

	if err := s.notifier.NotifyAdmins(ctx, "billing.monthly_summary", map[string]interface{}{
		"year":              year,
		"month":             int(month),
		"charges_generated": charged.String(),
		"payments_received": received.String(),
	}); err != nil {
		s.log.WithError(err).Warn("admin notification failed")
	}

	return summary, nil
}

func (s *BillingService) invalidateBalance(ctx context.Context, accountID string) {
	if err := s.redis.Del(ctx, balanceCacheKey(accountID)).Err(); err != nil {
		s.log.WithError(err).WithField("account_id", accountID).Warn("balance cache invalidation failed")
	}
}

func balanceCacheKey(accountID string) string {
	return "rentledger:balance:" + accountID
}
