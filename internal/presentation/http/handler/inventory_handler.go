package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/backoffice-api/internal/application/service"
	"github.com/sangkips/backoffice-api/internal/presentation/http/dto/request"
	"github.com/sangkips/backoffice-api/internal/presentation/http/dto/response"
	"github.com/sangkips/backoffice-api/pkg/apperror"
)

// InventoryHandler handles stock HTTP requests
type InventoryHandler struct {
	inventoryService *service.InventoryService
}

// NewInventoryHandler creates a new inventory handler
func NewInventoryHandler(inventoryService *service.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService}
}

// stockVerification is the verification result of one line
type stockVerification struct {
	ProductID string              `json:"product_id"`
	Available bool                `json:"available"`
	Check     *service.StockCheck `json:"check,omitempty"`
	Message   string              `json:"message,omitempty"`
}

// List handles listing inventory items
func (h *InventoryHandler) List(c *gin.Context) {
	result, err := h.inventoryService.ListItems(c.Request.Context(), pageParams(c), c.Query("search"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, "Inventory retrieved successfully", result)
}

// LowStock handles listing items at or below their minimum
func (h *InventoryHandler) LowStock(c *gin.Context) {
	items, err := h.inventoryService.LowStockItems(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, "Low stock items retrieved successfully", items)
}

// Verify projects outgoing movements without writing anything
func (h *InventoryHandler) Verify(c *gin.Context) {
	var req request.VerifyStockRequest
	if !bindJSON(c, &req) {
		return
	}

	results := make([]stockVerification, 0, len(req.Lines))
	for _, line := range req.Lines {
		check, err := h.inventoryService.Verify(c.Request.Context(), line.ProductID, line.Quantity)
		result := stockVerification{ProductID: line.ProductID, Available: err == nil, Check: check}
		if err != nil {
			if !errors.Is(err, apperror.ErrInsufficientStock) {
				handleServiceError(c, err)
				return
			}
			result.Message = err.Error()
		}
		results = append(results, result)
	}

	response.OK(c, "Stock verified", results)
}

// CreateMovement handles recording a manual stock movement
func (h *InventoryHandler) CreateMovement(c *gin.Context) {
	var req request.StockMovementRequest
	if !bindJSON(c, &req) {
		return
	}

	movement, err := h.inventoryService.Commit(c.Request.Context(), service.StockMovementInput{
		ProductID:      req.ProductID,
		ProductName:    req.ProductName,
		Direction:      req.Direction,
		Quantity:       req.Quantity,
		Reason:         req.Reason,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, "Stock movement recorded successfully", movement)
}

// ListMovements handles listing stock movements
func (h *InventoryHandler) ListMovements(c *gin.Context) {
	result, err := h.inventoryService.ListMovements(c.Request.Context(), c.Query("product_id"), pageParams(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, "Stock movements retrieved successfully", result)
}

// UpdateLimits handles changing the alert thresholds of an item
func (h *InventoryHandler) UpdateLimits(c *gin.Context) {
	id, ok := parseID(c, "inventory item")
	if !ok {
		return
	}

	var req request.UpdateLimitsRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := h.inventoryService.UpdateLimits(c.Request.Context(), id, req.MinStock, req.MaxStock)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, "Stock limits updated successfully", item)
}
