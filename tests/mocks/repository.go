package mocks

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/segyhp/rent-ledger/internal/domain"
	"github.com/segyhp/rent-ledger/pkg/period"
)

type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) Create(ctx context.Context, account *domain.BillingAccount) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) GetByAccountID(ctx context.Context, accountID string) (*domain.BillingAccount, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BillingAccount), args.Error(1)
}

func (m *MockAccountRepository) Update(ctx context.Context, account *domain.BillingAccount) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) ListActive(ctx context.Context) ([]*domain.BillingAccount, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.BillingAccount), args.Error(1)
}

func (m *MockAccountRepository) ListTouchedSince(ctx context.Context, since time.Time) ([]*domain.BillingAccount, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.BillingAccount), args.Error(1)
}

func (m *MockAccountRepository) SetPaymentStatus(ctx context.Context, accountID, status string) error {
	args := m.Called(ctx, accountID, status)
	return args.Error(0)
}

func (m *MockAccountRepository) Archive(ctx context.Context, accountID string) error {
	args := m.Called(ctx, accountID)
	return args.Error(0)
}

type MockChargeRepository struct {
	mock.Mock
}

func (m *MockChargeRepository) Create(ctx context.Context, charge *domain.Charge) error {
	args := m.Called(ctx, charge)
	return args.Error(0)
}

func (m *MockChargeRepository) ExistsForPeriod(ctx context.Context, accountID string, key period.Key) (bool, error) {
	args := m.Called(ctx, accountID, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockChargeRepository) ListByAccountID(ctx context.Context, accountID string) ([]*domain.Charge, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Charge), args.Error(1)
}

func (m *MockChargeRepository) SumGeneratedInMonth(ctx context.Context, year int, month time.Month) (decimal.Decimal, error) {
	args := m.Called(ctx, year, month)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) ListByAccountID(ctx context.Context, accountID string) ([]*domain.Payment, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) SumReceivedInMonth(ctx context.Context, year int, month time.Month) (decimal.Decimal, error) {
	args := m.Called(ctx, year, month)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type MockRevenueRepository struct {
	mock.Mock
}

func (m *MockRevenueRepository) IncrementRevenue(ctx context.Context, unitID, propertyID string, amount decimal.Decimal, year int, month time.Month) error {
	args := m.Called(ctx, unitID, propertyID, amount, year, month)
	return args.Error(0)
}

type MockRunRepository struct {
	mock.Mock
}

func (m *MockRunRepository) SaveSummary(ctx context.Context, run *domain.RunSummary) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

// FakeTxManager runs the function directly; unit tests assert on the
// repository calls instead of transaction plumbing.
type FakeTxManager struct{}

func (FakeTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyAdmins(ctx context.Context, event string, payload map[string]interface{}) error {
	args := m.Called(ctx, event, payload)
	return args.Error(0)
}
