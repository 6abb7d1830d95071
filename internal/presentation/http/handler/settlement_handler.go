package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/backoffice-api/internal/application/service"
	"github.com/sangkips/backoffice-api/internal/domain/enum"
	"github.com/sangkips/backoffice-api/internal/presentation/http/dto/response"
)

// SettlementHandler exposes settlement inspection and operator repair actions
type SettlementHandler struct {
	settlementService *service.SettlementService
}

// NewSettlementHandler creates a new settlement handler
func NewSettlementHandler(settlementService *service.SettlementService) *SettlementHandler {
	return &SettlementHandler{settlementService: settlementService}
}

// List handles listing settlements, optionally filtered by status
func (h *SettlementHandler) List(c *gin.Context) {
	var status *enum.SettlementStatus
	if raw := c.Query("status"); raw != "" {
		s := enum.SettlementStatus(raw)
		switch s {
		case enum.SettlementPending, enum.SettlementCompleted, enum.SettlementNeedsReconciliation, enum.SettlementUnwound:
			status = &s
		default:
			response.BadRequest(c, "Invalid settlement status")
			return
		}
	}

	result, err := h.settlementService.List(c.Request.Context(), pageParams(c), status)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, "Settlements retrieved successfully", result)
}

// Get handles getting a settlement with its steps
func (h *SettlementHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "settlement")
	if !ok {
		return
	}

	settlement, err := h.settlementService.Get(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, "Settlement retrieved successfully", settlement)
}

// Retry re-runs the steps that have not completed
func (h *SettlementHandler) Retry(c *gin.Context) {
	id, ok := parseID(c, "settlement")
	if !ok {
		return
	}

	settlement, err := h.settlementService.Retry(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, "Settlement retried", settlement)
}

// Unwind reverses every completed step
func (h *SettlementHandler) Unwind(c *gin.Context) {
	id, ok := parseID(c, "settlement")
	if !ok {
		return
	}

	settlement, err := h.settlementService.Unwind(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, "Settlement unwound", settlement)
}
