package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/segyhp/rent-ledger/internal/domain"
	"github.com/segyhp/rent-ledger/tests/mocks"
)

func newTestDetector(accountRepo *mocks.MockAccountRepository, notifier *mocks.MockNotifier) *OverdueDetector {
	return NewOverdueDetector(accountRepo, notifier, testConfig(), testLogger())
}

func TestGetOverdueAccounts(t *testing.T) {
	now := date(2025, time.March, 20)

	tests := []struct {
		name          string
		account       *domain.BillingAccount
		gracePeriod   int
		expectFlagged bool
		expectedDays  int
	}{
		{
			name: "positive balance past grace is flagged",
			account: func() *domain.BillingAccount {
				a := activeAccount("ACC-1", decimal.NewFromInt(5000))
				last := now.AddDate(0, 0, -10)
				a.LastPaymentDate = &last
				return a
			}(),
			gracePeriod:   5,
			expectFlagged: true,
			expectedDays:  10,
		},
		{
			name: "zero balance is never overdue",
			account: func() *domain.BillingAccount {
				a := activeAccount("ACC-2", decimal.Zero)
				last := now.AddDate(0, 0, -10)
				a.LastPaymentDate = &last
				return a
			}(),
			gracePeriod:   5,
			expectFlagged: false,
		},
		{
			name: "credit balance is never overdue",
			account: func() *domain.BillingAccount {
				a := activeAccount("ACC-3", decimal.NewFromInt(-2500))
				last := now.AddDate(0, 0, -60)
				a.LastPaymentDate = &last
				return a
			}(),
			gracePeriod:   5,
			expectFlagged: false,
		},
		{
			name: "payment inside the grace window is not flagged",
			account: func() *domain.BillingAccount {
				a := activeAccount("ACC-4", decimal.NewFromInt(5000))
				last := now.AddDate(0, 0, -4)
				a.LastPaymentDate = &last
				return a
			}(),
			gracePeriod:   5,
			expectFlagged: false,
		},
		{
			name: "never-paid account is measured from billing start",
			account: func() *domain.BillingAccount {
				a := activeAccount("ACC-5", decimal.NewFromInt(20000))
				a.BillingStartDate = now.AddDate(0, 0, -30)
				return a
			}(),
			gracePeriod:   5,
			expectFlagged: true,
			expectedDays:  30,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accountRepo := &mocks.MockAccountRepository{}
			accountRepo.On("ListActive", mock.Anything).Return([]*domain.BillingAccount{tt.account}, nil)
			if tt.expectFlagged {
				accountRepo.On("SetPaymentStatus", mock.Anything, tt.account.AccountID, domain.PaymentStatusOverdue).Return(nil)
			}

			detector := newTestDetector(accountRepo, &mocks.MockNotifier{})
			alerts, err := detector.GetOverdueAccounts(context.Background(), now, tt.gracePeriod)

			assert.NoError(t, err)
			if tt.expectFlagged {
				assert.Len(t, alerts, 1)
				assert.Equal(t, tt.account.AccountID, alerts[0].AccountID)
				assert.Equal(t, tt.expectedDays, alerts[0].DaysOverdue)
				assert.True(t, alerts[0].BalanceAtAlert.Equal(tt.account.CurrentBalance))
			} else {
				assert.Empty(t, alerts)
			}
			accountRepo.AssertExpectations(t)
		})
	}
}

func TestGetOverdueAccounts_ClearsStaleOverdueStatus(t *testing.T) {
	now := date(2025, time.March, 20)

	account := activeAccount("ACC-1", decimal.Zero)
	account.PaymentStatus = domain.PaymentStatusOverdue

	accountRepo := &mocks.MockAccountRepository{}
	accountRepo.On("ListActive", mock.Anything).Return([]*domain.BillingAccount{account}, nil)
	accountRepo.On("SetPaymentStatus", mock.Anything, "ACC-1", domain.PaymentStatusCurrent).Return(nil)

	detector := newTestDetector(accountRepo, &mocks.MockNotifier{})
	alerts, err := detector.GetOverdueAccounts(context.Background(), now, 5)

	assert.NoError(t, err)
	assert.Empty(t, alerts)
	accountRepo.AssertExpectations(t)
}

func TestSweep_NotifiesPerAlert(t *testing.T) {
	now := date(2025, time.March, 20)

	account := activeAccount("ACC-1", decimal.NewFromInt(5000))
	last := now.AddDate(0, 0, -10)
	account.LastPaymentDate = &last

	accountRepo := &mocks.MockAccountRepository{}
	notifier := &mocks.MockNotifier{}

	accountRepo.On("ListActive", mock.Anything).Return([]*domain.BillingAccount{account}, nil)
	accountRepo.On("SetPaymentStatus", mock.Anything, "ACC-1", domain.PaymentStatusOverdue).Return(nil)
	notifier.On("NotifyAdmins", mock.Anything, "account.overdue", mock.MatchedBy(func(payload map[string]interface{}) bool {
		return payload["account_id"] == "ACC-1"
	})).Return(nil)

	detector := newTestDetector(accountRepo, notifier)
	alerts, err := detector.Sweep(context.Background(), now)

	assert.NoError(t, err)
	assert.Len(t, alerts, 1)
	notifier.AssertExpectations(t)
}
