package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrAccountNotFound        = errors.New("billing account not found")
	ErrAccountAlreadyExists   = errors.New("billing account already exists")
	ErrAccountArchived        = errors.New("billing account is archived")
	ErrInvalidPaymentAmount   = errors.New("invalid payment amount")
	ErrMissingLeaseTerms      = errors.New("account has no active lease terms")
	ErrChargeAlreadyGenerated = errors.New("charge already generated for period")
	ErrNotDueThisPeriod       = errors.New("no charge due this period")
	ErrConcurrentModification = errors.New("account was modified concurrently")
	ErrGenerationInProgress   = errors.New("charge generation already in progress")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeAccountNotFound        = "ACCOUNT_NOT_FOUND"
	ErrCodeAccountAlreadyExists   = "ACCOUNT_ALREADY_EXISTS"
	ErrCodeAccountArchived        = "ACCOUNT_ARCHIVED"
	ErrCodeInvalidPaymentAmount   = "INVALID_PAYMENT_AMOUNT"
	ErrCodeMissingLeaseTerms      = "MISSING_LEASE_TERMS"
	ErrCodeChargeAlreadyGenerated = "CHARGE_ALREADY_GENERATED"
	ErrCodeNotDueThisPeriod       = "NOT_DUE_THIS_PERIOD"
	ErrCodeConcurrentModification = "CONCURRENT_MODIFICATION"
	ErrCodeGenerationInProgress   = "GENERATION_IN_PROGRESS"
	ErrCodeDatabaseError          = "DATABASE_ERROR"
	ErrCodeCacheError             = "CACHE_ERROR"
)

// IsNoOp reports whether err is one of the idempotency short-circuit signals.
// A skipped account is a successful no-op, not a failure, and callers must be
// able to tell the two apart.
func IsNoOp(err error) bool {
	return errors.Is(err, ErrChargeAlreadyGenerated) || errors.Is(err, ErrNotDueThisPeriod)
}

// Wrap common errors with business context
func WrapAccountNotFound(accountID string) *BusinessError {
	return NewBusinessError(
		ErrCodeAccountNotFound,
		fmt.Sprintf("Billing account %s not found", accountID),
		ErrAccountNotFound,
	)
}

func WrapAccountAlreadyExists(accountID string) *BusinessError {
	return NewBusinessError(
		ErrCodeAccountAlreadyExists,
		fmt.Sprintf("Billing account %s already exists", accountID),
		ErrAccountAlreadyExists,
	)
}

func WrapAccountArchived(accountID string) *BusinessError {
	return NewBusinessError(
		ErrCodeAccountArchived,
		fmt.Sprintf("Billing account %s is archived", accountID),
		ErrAccountArchived,
	)
}

func WrapInvalidPaymentAmount(amount string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidPaymentAmount,
		fmt.Sprintf("Invalid payment amount: %s", amount),
		ErrInvalidPaymentAmount,
	)
}

func WrapMissingLeaseTerms(accountID string) *BusinessError {
	return NewBusinessError(
		ErrCodeMissingLeaseTerms,
		fmt.Sprintf("Billing account %s has no rent amount on file", accountID),
		ErrMissingLeaseTerms,
	)
}

func WrapChargeAlreadyGenerated(accountID, period string) *BusinessError {
	return NewBusinessError(
		ErrCodeChargeAlreadyGenerated,
		fmt.Sprintf("Charge for account %s period %s already exists", accountID, period),
		ErrChargeAlreadyGenerated,
	)
}

func WrapNotDueThisPeriod(accountID string) *BusinessError {
	return NewBusinessError(
		ErrCodeNotDueThisPeriod,
		fmt.Sprintf("Account %s has no charge due this tick", accountID),
		ErrNotDueThisPeriod,
	)
}

func WrapConcurrentModification(accountID string) *BusinessError {
	return NewBusinessError(
		ErrCodeConcurrentModification,
		fmt.Sprintf("Account %s was modified concurrently, retry the operation", accountID),
		ErrConcurrentModification,
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"Database operation failed",
		err,
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeCacheError,
		"Cache operation failed",
		err,
	)
}
