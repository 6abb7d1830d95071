package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/backoffice-api/internal/application/service"
	"github.com/sangkips/backoffice-api/internal/domain/enum"
	"github.com/sangkips/backoffice-api/internal/domain/repository"
	"github.com/sangkips/backoffice-api/internal/presentation/http/dto/request"
	"github.com/sangkips/backoffice-api/internal/presentation/http/dto/response"
)

// OrderHandler handles order-related HTTP requests
type OrderHandler struct {
	orderService      *service.OrderService
	settlementService *service.SettlementService
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService *service.OrderService, settlementService *service.SettlementService) *OrderHandler {
	return &OrderHandler{orderService: orderService, settlementService: settlementService}
}

// List handles listing orders with filters
func (h *OrderHandler) List(c *gin.Context) {
	var req request.OrderFilterRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	params := &repository.OrderFilterParams{Pagination: pageParams(c)}
	if req.Status != nil {
		status := enum.OrderStatus(*req.Status)
		params.Status = &status
	}
	if req.PaymentStatus != nil {
		paymentStatus := enum.PaymentStatus(*req.PaymentStatus)
		params.PaymentStatus = &paymentStatus
	}
	if req.OrderType != "" {
		orderType := enum.OrderType(req.OrderType)
		params.OrderType = &orderType
	}
	if req.CustomerID != "" {
		customerID, err := uuid.Parse(req.CustomerID)
		if err != nil {
			response.BadRequest(c, "Invalid customer ID")
			return
		}
		params.CustomerID = &customerID
	}

	var err error
	if params.StartDate, err = queryTime(c, "start_date"); err != nil {
		handleServiceError(c, err)
		return
	}
	if params.EndDate, err = queryTime(c, "end_date"); err != nil {
		handleServiceError(c, err)
		return
	}

	result, err := h.orderService.ListOrders(c.Request.Context(), params)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, "Orders retrieved successfully", result)
}

// Create handles creating an order. A settled order is settled in the same request.
func (h *OrderHandler) Create(c *gin.Context) {
	var req request.SaveOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.orderService.CreateOrder(c.Request.Context(), req.ToInput(uuid.Nil))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, "Order created successfully", result)
}

// Update handles saving the full state of an existing order
func (h *OrderHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "order")
	if !ok {
		return
	}

	var req request.SaveOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.orderService.SaveOrder(c.Request.Context(), req.ToInput(id))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, "Order saved successfully", result)
}

// Get handles getting an order by ID
func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "order")
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, "Order retrieved successfully", order)
}

// Void handles voiding an order
func (h *OrderHandler) Void(c *gin.Context) {
	id, ok := parseID(c, "order")
	if !ok {
		return
	}

	var req request.VoidOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.orderService.VoidOrder(c.Request.Context(), id, req.Version)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, "Order voided successfully", order)
}

// Settlement handles getting the settlement of an order
func (h *OrderHandler) Settlement(c *gin.Context) {
	id, ok := parseID(c, "order")
	if !ok {
		return
	}

	settlement, err := h.settlementService.GetByOrder(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, "Settlement retrieved successfully", settlement)
}
