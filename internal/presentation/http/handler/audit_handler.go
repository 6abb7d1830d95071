package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/backoffice-api/internal/application/service"
	"github.com/sangkips/backoffice-api/internal/domain/enum"
	"github.com/sangkips/backoffice-api/internal/presentation/http/dto/response"
)

// AuditHandler exposes the ledger audit trail
type AuditHandler struct {
	auditService *service.AuditService
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(auditService *service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// List handles listing audit events, optionally filtered by kind
func (h *AuditHandler) List(c *gin.Context) {
	var kind *enum.AuditKind
	if raw := c.Query("kind"); raw != "" {
		k := enum.AuditKind(raw)
		kind = &k
	}

	result, err := h.auditService.List(c.Request.Context(), pageParams(c), kind)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, "Audit events retrieved successfully", result)
}
