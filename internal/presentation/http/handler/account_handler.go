package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/backoffice-api/internal/application/service"
	"github.com/sangkips/backoffice-api/internal/domain/enum"
	"github.com/sangkips/backoffice-api/internal/presentation/http/dto/request"
	"github.com/sangkips/backoffice-api/internal/presentation/http/dto/response"
)

// AccountHandler handles money bucket HTTP requests
type AccountHandler struct {
	accountService *service.AccountService
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(accountService *service.AccountService) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

// List handles listing the accounts
func (h *AccountHandler) List(c *gin.Context) {
	accounts, err := h.accountService.ListAccounts(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, "Accounts retrieved successfully", accounts)
}

// ListMovements handles listing account movements, optionally for one account
func (h *AccountHandler) ListMovements(c *gin.Context) {
	var accountID *uuid.UUID
	if raw := c.Query("account_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(c, "Invalid account ID")
			return
		}
		accountID = &id
	}

	result, err := h.accountService.ListMovements(c.Request.Context(), accountID, pageParams(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, "Account movements retrieved successfully", result)
}

// CreateMovement handles a manual adjustment against one account
func (h *AccountHandler) CreateMovement(c *gin.Context) {
	id, ok := parseID(c, "account")
	if !ok {
		return
	}

	var req request.AccountMovementRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.accountService.CreateMovement(c.Request.Context(), id, req.Direction, req.Amount, req.Description, enum.SourceManualAdjustment)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, "Account movement recorded successfully", result)
}

// SetInitialBalance handles setting the opening balance of an account
func (h *AccountHandler) SetInitialBalance(c *gin.Context) {
	id, ok := parseID(c, "account")
	if !ok {
		return
	}

	var req request.InitialBalanceRequest
	if !bindJSON(c, &req) {
		return
	}

	account, err := h.accountService.SetInitialBalance(c.Request.Context(), id, req.InitialBalance)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, "Initial balance updated successfully", account)
}

// Reconcile handles comparing an account balance with its movements
func (h *AccountHandler) Reconcile(c *gin.Context) {
	id, ok := parseID(c, "account")
	if !ok {
		return
	}

	reconciliation, err := h.accountService.Reconcile(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, "Account reconciled", reconciliation)
}

// RecordPurchase handles a supplier purchase paid from a bucket
func (h *AccountHandler) RecordPurchase(c *gin.Context) {
	h.spend(c, h.accountService.RecordPurchase, "Purchase recorded successfully")
}

// RecordExpense handles an operating expense paid from a bucket
func (h *AccountHandler) RecordExpense(c *gin.Context) {
	h.spend(c, h.accountService.RecordExpense, "Expense recorded successfully")
}

func (h *AccountHandler) spend(c *gin.Context, record func(context.Context, service.LedgerEntryInput) (*service.EntryResult, error), message string) {
	var req request.SpendRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := record(c.Request.Context(), service.LedgerEntryInput{
		PaymentMethod:  req.PaymentMethod,
		Amount:         req.Amount,
		Description:    req.Description,
		SourceID:       req.Reference,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	if result.Outcome == service.OutcomeUnmappedPaymentMethod {
		response.OK(c, "Payment method has no account, nothing was recorded", result)
		return
	}
	response.Created(c, message, result)
}
