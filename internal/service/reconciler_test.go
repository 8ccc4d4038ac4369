package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/segyhp/rent-ledger/internal/domain"
	customError "github.com/segyhp/rent-ledger/pkg/errors"
	"github.com/segyhp/rent-ledger/pkg/period"
	"github.com/segyhp/rent-ledger/tests/mocks"
)

func newTestReconciler(
	accountRepo *mocks.MockAccountRepository,
	paymentRepo *mocks.MockPaymentRepository,
	now time.Time,
) *Reconciler {
	return NewReconciler(
		accountRepo, paymentRepo,
		mocks.FakeTxManager{}, testRedis(),
		testConfig(), testLogger(),
	).WithClock(func() time.Time { return now })
}

func appliedPayment(accountID string, amount int64, paymentType string) *domain.Payment {
	return &domain.Payment{
		AccountID: accountID,
		Amount:    decimal.NewFromInt(amount),
		Type:      paymentType,
		Status:    domain.PaymentRecordApplied,
	}
}

func TestReconcile(t *testing.T) {
	now := date(2025, time.March, 20)

	tests := []struct {
		name            string
		account         *domain.BillingAccount
		payments        []*domain.Payment
		expectCorrected bool
		expectedBalance decimal.Decimal
	}{
		{
			name: "balance in agreement is untouched",
			account: func() *domain.BillingAccount {
				// Jan + Feb + Mar accrued = 60000, paid 40000
				a := activeAccount("ACC-1", decimal.NewFromInt(20000))
				return a
			}(),
			payments: []*domain.Payment{
				appliedPayment("ACC-1", 20000, domain.PaymentTypeRent),
				appliedPayment("ACC-1", 20000, domain.PaymentTypeRent),
			},
			expectCorrected: false,
			expectedBalance: decimal.NewFromInt(20000),
		},
		{
			name: "drifted balance is overwritten from history",
			account: func() *domain.BillingAccount {
				// stored balance says 5000 but history implies 20000
				a := activeAccount("ACC-2", decimal.NewFromInt(5000))
				return a
			}(),
			payments: []*domain.Payment{
				appliedPayment("ACC-2", 20000, domain.PaymentTypeRent),
				appliedPayment("ACC-2", 20000, domain.PaymentTypeRent),
			},
			expectCorrected: true,
			expectedBalance: decimal.NewFromInt(20000),
		},
		{
			name: "ungenerated periods still accrue",
			account: func() *domain.BillingAccount {
				// generator never ran: stored balance zero, no payments,
				// three months elapsed
				a := activeAccount("ACC-3", decimal.Zero)
				return a
			}(),
			payments:        []*domain.Payment{},
			expectCorrected: true,
			expectedBalance: decimal.NewFromInt(60000),
		},
		{
			name: "deposit payments offset the balance, fees do not",
			account: func() *domain.BillingAccount {
				a := activeAccount("ACC-4", decimal.NewFromInt(40000))
				return a
			}(),
			payments: []*domain.Payment{
				appliedPayment("ACC-4", 20000, domain.PaymentTypeDeposit),
				appliedPayment("ACC-4", 5000, domain.PaymentTypeFee),
			},
			expectCorrected: false,
			expectedBalance: decimal.NewFromInt(40000),
		},
		{
			name: "voided payments are ignored",
			account: func() *domain.BillingAccount {
				a := activeAccount("ACC-5", decimal.NewFromInt(60000))
				return a
			}(),
			payments: []*domain.Payment{
				func() *domain.Payment {
					p := appliedPayment("ACC-5", 60000, domain.PaymentTypeRent)
					p.Status = domain.PaymentRecordVoided
					return p
				}(),
			},
			expectCorrected: false,
			expectedBalance: decimal.NewFromInt(60000),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accountRepo := &mocks.MockAccountRepository{}
			paymentRepo := &mocks.MockPaymentRepository{}

			accountRepo.On("GetByAccountID", mock.Anything, tt.account.AccountID).Return(tt.account, nil)
			paymentRepo.On("ListByAccountID", mock.Anything, tt.account.AccountID).Return(tt.payments, nil)
			if tt.expectCorrected {
				accountRepo.On("Update", mock.Anything, mock.MatchedBy(func(a *domain.BillingAccount) bool {
					return a.CurrentBalance.Equal(tt.expectedBalance) && a.ReconciledAt != nil
				})).Return(nil)
			}

			reconciler := newTestReconciler(accountRepo, paymentRepo, now)
			result, err := reconciler.Reconcile(context.Background(), tt.account.AccountID)

			assert.NoError(t, err)
			assert.Equal(t, tt.expectCorrected, result.Corrected)
			assert.True(t, result.NewBalance.Equal(tt.expectedBalance),
				"expected %s, got %s", tt.expectedBalance, result.NewBalance)
			if !tt.expectCorrected {
				accountRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
			}
			accountRepo.AssertExpectations(t)
		})
	}
}

func TestReconcile_DriftWithinEpsilonIgnored(t *testing.T) {
	now := date(2025, time.March, 20)

	// canonical is 60000, stored is 60000.005: inside the 0.01 tolerance
	account := activeAccount("ACC-1", decimal.NewFromFloat(60000.005))

	accountRepo := &mocks.MockAccountRepository{}
	paymentRepo := &mocks.MockPaymentRepository{}
	accountRepo.On("GetByAccountID", mock.Anything, "ACC-1").Return(account, nil)
	paymentRepo.On("ListByAccountID", mock.Anything, "ACC-1").Return([]*domain.Payment{}, nil)

	reconciler := newTestReconciler(accountRepo, paymentRepo, now)
	result, err := reconciler.Reconcile(context.Background(), "ACC-1")

	assert.NoError(t, err)
	assert.False(t, result.Corrected)
	accountRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestReconcile_Errors(t *testing.T) {
	t.Run("account not found", func(t *testing.T) {
		accountRepo := &mocks.MockAccountRepository{}
		accountRepo.On("GetByAccountID", mock.Anything, "MISSING").Return(nil, sql.ErrNoRows)

		reconciler := newTestReconciler(accountRepo, &mocks.MockPaymentRepository{}, time.Now())
		_, err := reconciler.Reconcile(context.Background(), "MISSING")

		assert.ErrorIs(t, err, customError.ErrAccountNotFound)
	})

	t.Run("missing lease terms", func(t *testing.T) {
		account := activeAccount("ACC-1", decimal.Zero)
		account.Frequency = period.Frequency("")

		accountRepo := &mocks.MockAccountRepository{}
		accountRepo.On("GetByAccountID", mock.Anything, "ACC-1").Return(account, nil)

		reconciler := newTestReconciler(accountRepo, &mocks.MockPaymentRepository{}, time.Now())
		_, err := reconciler.Reconcile(context.Background(), "ACC-1")

		assert.ErrorIs(t, err, customError.ErrMissingLeaseTerms)
	})
}

func TestReconcileTouchedSince_IsolatesFailures(t *testing.T) {
	now := date(2025, time.March, 20)
	since := now.Add(-24 * time.Hour)

	healthy := activeAccount("ACC-OK", decimal.NewFromInt(60000))
	broken := activeAccount("ACC-BROKEN", decimal.Zero)

	accountRepo := &mocks.MockAccountRepository{}
	paymentRepo := &mocks.MockPaymentRepository{}

	accountRepo.On("ListTouchedSince", mock.Anything, since).Return([]*domain.BillingAccount{healthy, broken}, nil)
	accountRepo.On("GetByAccountID", mock.Anything, "ACC-OK").Return(healthy, nil)
	accountRepo.On("GetByAccountID", mock.Anything, "ACC-BROKEN").Return(nil, sql.ErrConnDone)
	paymentRepo.On("ListByAccountID", mock.Anything, "ACC-OK").Return([]*domain.Payment{}, nil)

	reconciler := newTestReconciler(accountRepo, paymentRepo, now)
	checked, corrected, errored, err := reconciler.ReconcileTouchedSince(context.Background(), since)

	assert.NoError(t, err)
	assert.Equal(t, 1, checked)
	assert.Equal(t, 0, corrected)
	assert.Equal(t, 1, errored)
}
