package request

import (
	"github.com/google/uuid"
	"github.com/sangkips/backoffice-api/internal/application/service"
	"github.com/sangkips/backoffice-api/internal/domain/entity"
	"github.com/sangkips/backoffice-api/internal/domain/enum"
	"github.com/shopspring/decimal"
)

// OrderItemRequest is one line of an order
type OrderItemRequest struct {
	ProductID string                  `json:"product_id" binding:"required"`
	Name      string                  `json:"name" binding:"required"`
	UnitPrice decimal.Decimal         `json:"unit_price"`
	Quantity  int                     `json:"quantity"`
	Extras    []entity.OrderItemExtra `json:"extras"`
	IsPack    bool                    `json:"is_pack"`
	PackItems []entity.PackItem       `json:"pack_items"`
}

// PaymentRequest is one payment split
type PaymentRequest struct {
	Method       enum.PaymentMethod `json:"method" binding:"required"`
	Amount       decimal.Decimal    `json:"amount"`
	CashReceived *decimal.Decimal   `json:"cash_received"`
}

// SaveOrderRequest carries the full editable state of an order
type SaveOrderRequest struct {
	Version        int                `json:"version"`
	OrderType      enum.OrderType     `json:"order_type" binding:"required"`
	TableNumber    string             `json:"table_number" binding:"max=20"`
	Items          []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
	Discount       decimal.Decimal    `json:"discount"`
	Status         enum.OrderStatus   `json:"status"`
	PaymentStatus  enum.PaymentStatus `json:"payment_status"`
	PaymentMethods []PaymentRequest   `json:"payment_methods" binding:"dive"`
	CustomerID     *uuid.UUID         `json:"customer_id"`
	Notes          string             `json:"notes"`
}

// ToInput converts the request for the order service
func (r *SaveOrderRequest) ToInput(id uuid.UUID) *service.SaveOrderInput {
	items := make([]service.OrderItemInput, len(r.Items))
	for i, item := range r.Items {
		items[i] = service.OrderItemInput{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			Extras:    item.Extras,
			IsPack:    item.IsPack,
			PackItems: item.PackItems,
		}
	}

	payments := make([]service.PaymentInput, len(r.PaymentMethods))
	for i, p := range r.PaymentMethods {
		payments[i] = service.PaymentInput{
			Method:       p.Method,
			Amount:       p.Amount,
			CashReceived: p.CashReceived,
		}
	}

	return &service.SaveOrderInput{
		ID:             id,
		Version:        r.Version,
		OrderType:      r.OrderType,
		TableNumber:    r.TableNumber,
		Items:          items,
		Discount:       r.Discount,
		Status:         r.Status,
		PaymentStatus:  r.PaymentStatus,
		PaymentMethods: payments,
		CustomerID:     r.CustomerID,
		Notes:          r.Notes,
	}
}

// VoidOrderRequest confirms the version being voided
type VoidOrderRequest struct {
	Version int `json:"version" binding:"required,min=1"`
}

// OrderFilterRequest represents order filter parameters
type OrderFilterRequest struct {
	Status        *int   `form:"status"`
	PaymentStatus *int   `form:"payment_status"`
	OrderType     string `form:"order_type"`
	CustomerID    string `form:"customer_id"`
}
