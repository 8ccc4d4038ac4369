package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/segyhp/rent-ledger/internal/config"
	"github.com/segyhp/rent-ledger/internal/domain"
	"github.com/segyhp/rent-ledger/internal/service"
	customError "github.com/segyhp/rent-ledger/pkg/errors"
	"github.com/segyhp/rent-ledger/pkg/response"
)

type BillingHandler struct {
	billing   *service.BillingService
	generator *service.ChargeGenerator
	reconcile *service.Reconciler
	overdue   *service.OverdueDetector
	cfg       *config.Config
	validator *validator.Validate
}

func NewBillingHandler(
	billing *service.BillingService,
	generator *service.ChargeGenerator,
	reconcile *service.Reconciler,
	overdue *service.OverdueDetector,
	cfg *config.Config,
) *BillingHandler {
	return &BillingHandler{
		billing:   billing,
		generator: generator,
		reconcile: reconcile,
		overdue:   overdue,
		cfg:       cfg,
		validator: validator.New(),
	}
}

// CreateAccount provisions a billing account for a newly leased unit.
func (h *BillingHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var request domain.CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "Validation failed", err)
		return
	}

	account, err := h.billing.CreateAccount(r.Context(), &request)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Created(w, account)
}

// RecordPayment applies a payment against an account.
func (h *BillingHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	accountID := mux.Vars(r)["accountId"]

	var request domain.RecordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "Validation failed", err)
		return
	}

	result, err := h.billing.RecordPayment(r.Context(), accountID, &request)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Created(w, result)
}

// GetBalance returns the current balance for an account.
func (h *BillingHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	accountID := mux.Vars(r)["accountId"]

	balance, err := h.billing.GetBalance(r.Context(), accountID)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, balance)
}

// GetStatement returns the account's charge and payment history.
func (h *BillingHandler) GetStatement(w http.ResponseWriter, r *http.Request) {
	accountID := mux.Vars(r)["accountId"]

	statement, err := h.billing.GetStatement(r.Context(), accountID)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, statement)
}

// ArchiveAccount closes the account at the end of tenancy.
func (h *BillingHandler) ArchiveAccount(w http.ResponseWriter, r *http.Request) {
	accountID := mux.Vars(r)["accountId"]

	if err := h.billing.ArchiveAccount(r.Context(), accountID); err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, map[string]string{"account_id": accountID, "status": domain.AccountStatusArchived})
}

// GenerateCharges is the manual catch-up trigger for the generation sweep.
// An as_of query parameter (YYYY-MM-DD) backfills a missed period; it
// defaults to today.
func (h *BillingHandler) GenerateCharges(w http.ResponseWriter, r *http.Request) {
	asOf := time.Now()
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.BadRequest(w, "as_of must be YYYY-MM-DD", err)
			return
		}
		asOf = parsed
	}

	run, err := h.generator.GenerateForPeriod(r.Context(), asOf)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, run)
}

// Reconcile recomputes the canonical balance for one account.
func (h *BillingHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	accountID := mux.Vars(r)["accountId"]

	result, err := h.reconcile.Reconcile(r.Context(), accountID)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, result)
}

// GetOverdueAccounts lists accounts past the grace window. Optional query
// parameters: as_of (YYYY-MM-DD) and grace_days.
func (h *BillingHandler) GetOverdueAccounts(w http.ResponseWriter, r *http.Request) {
	asOf := time.Now()
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.BadRequest(w, "as_of must be YYYY-MM-DD", err)
			return
		}
		asOf = parsed
	}

	graceDays := h.cfg.Billing.GraceDays
	if raw := r.URL.Query().Get("grace_days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			response.BadRequest(w, "grace_days must be a non-negative integer", err)
			return
		}
		graceDays = parsed
	}

	alerts, err := h.overdue.GetOverdueAccounts(r.Context(), asOf, graceDays)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, alerts)
}

// writeBusinessError maps business error codes onto HTTP statuses. No-op
// signals and real failures deliberately map to different statuses so the
// caller can tell them apart.
func writeBusinessError(w http.ResponseWriter, err error) {
	var businessErr *customError.BusinessError
	if !errors.As(err, &businessErr) {
		response.InternalServerError(w, "Internal server error", err)
		return
	}

	switch businessErr.Code {
	case customError.ErrCodeAccountNotFound:
		response.NotFound(w, businessErr.Message)
	case customError.ErrCodeAccountAlreadyExists:
		response.Conflict(w, businessErr.Message, businessErr)
	case customError.ErrCodeInvalidPaymentAmount,
		customError.ErrCodeMissingLeaseTerms,
		customError.ErrCodeAccountArchived:
		response.BadRequest(w, businessErr.Message, businessErr)
	case customError.ErrCodeConcurrentModification,
		customError.ErrCodeGenerationInProgress:
		response.Conflict(w, businessErr.Message, businessErr)
	default:
		response.InternalServerError(w, businessErr.Message, businessErr)
	}
}
