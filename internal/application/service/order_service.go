package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sangkips/backoffice-api/internal/domain/entity"
	"github.com/sangkips/backoffice-api/internal/domain/enum"
	"github.com/sangkips/backoffice-api/internal/domain/repository"
	"github.com/sangkips/backoffice-api/pkg/apperror"
	"github.com/sangkips/backoffice-api/pkg/pagination"
)

// fixedPriceProduct is sold at a flat container price, ignoring its menu price and extras
const fixedPriceProduct = "caja pack 10"

var fixedContainerPrice = decimal.NewFromInt(10)

// OrderService handles order editing and detects the settlement edge
type OrderService struct {
	orderRepo    repository.OrderRepository
	customerRepo repository.CustomerRepository
	settlements  *SettlementService
	logger       *zap.Logger
	now          func() time.Time
}

// NewOrderService creates a new order service
func NewOrderService(
	orderRepo repository.OrderRepository,
	customerRepo repository.CustomerRepository,
	settlements *SettlementService,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		orderRepo:    orderRepo,
		customerRepo: customerRepo,
		settlements:  settlements,
		logger:       logger,
		now:          time.Now,
	}
}

// OrderItemInput represents an item in an order
type OrderItemInput struct {
	ProductID string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
	Extras    []entity.OrderItemExtra
	IsPack    bool
	PackItems []entity.PackItem
}

// PaymentInput is one payment split as entered by the cashier
type PaymentInput struct {
	Method       enum.PaymentMethod
	Amount       decimal.Decimal
	CashReceived *decimal.Decimal
}

// SaveOrderInput carries the full editable state of an order. Version is
// the version the cashier last read and is ignored on create.
type SaveOrderInput struct {
	ID             uuid.UUID
	Version        int
	OrderType      enum.OrderType
	TableNumber    string
	Items          []OrderItemInput
	Discount       decimal.Decimal
	Status         enum.OrderStatus
	PaymentStatus  enum.PaymentStatus
	PaymentMethods []PaymentInput
	CustomerID     *uuid.UUID
	Notes          string
}

// SaveResult is the stored order and, when the save crossed into closed and
// paid, the settlement it produced.
type SaveResult struct {
	Order      *entity.Order `json:"order"`
	Settlement *SettleResult `json:"settlement,omitempty"`
}

// CreateOrder creates a new order. An order created already closed and paid
// is settled right away.
func (s *OrderService) CreateOrder(ctx context.Context, input *SaveOrderInput) (*SaveResult, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}

	order := &entity.Order{CreatedBy: actor.ID, Version: 1}
	if err := s.apply(ctx, order, input); err != nil {
		return nil, err
	}

	chargeable := order.IsSettled()
	if chargeable {
		if err := s.settlements.Preflight(ctx, order); err != nil {
			return nil, err
		}
		closedAt := s.now()
		order.ClosedAt = &closedAt
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, err
	}

	result := &SaveResult{Order: order}
	if chargeable {
		result.Settlement, err = s.settle(ctx, order)
		if err != nil {
			return result, err
		}
	}
	return result, nil
}

// SaveOrder writes a new state for an existing order. The write succeeds
// only if the order is still at input.Version. Settlement runs when the
// stored state was not yet closed and paid and the new one is.
func (s *OrderService) SaveOrder(ctx context.Context, input *SaveOrderInput) (*SaveResult, error) {
	if _, err := requireActor(ctx); err != nil {
		return nil, err
	}

	previous, err := s.GetOrder(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if previous.IsVoided() {
		return nil, apperror.ErrOrderVoided
	}
	if input.Version != previous.Version {
		return nil, apperror.ErrConcurrencyConflict
	}

	next := *previous
	if err := s.apply(ctx, &next, input); err != nil {
		return nil, err
	}

	chargeable := !previous.IsSettled() && next.IsSettled()
	if chargeable {
		if err := s.settlements.Preflight(ctx, &next); err != nil {
			return nil, err
		}
		closedAt := s.now()
		next.ClosedAt = &closedAt
	}

	next.Version = previous.Version + 1
	if err := s.orderRepo.UpdateWithVersion(ctx, &next, previous.Version); err != nil {
		return nil, err
	}

	result := &SaveResult{Order: &next}
	if chargeable {
		result.Settlement, err = s.settle(ctx, &next)
		if err != nil {
			return result, err
		}
	}
	return result, nil
}

// VoidOrder voids an order. A settled order must have its settlement
// unwound first; voiding itself has no ledger effects.
func (s *OrderService) VoidOrder(ctx context.Context, id uuid.UUID, version int) (*entity.Order, error) {
	if _, err := requireActor(ctx); err != nil {
		return nil, err
	}

	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.IsVoided() {
		return order, nil
	}
	if version != order.Version {
		return nil, apperror.ErrConcurrencyConflict
	}

	if order.IsSettled() {
		settlement, err := s.settlements.GetByOrder(ctx, order.ID)
		if err != nil && !errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		if settlement != nil && settlement.Status != enum.SettlementUnwound {
			return nil, apperror.NewConflictError("Settled orders must be unwound before they can be voided")
		}
	}

	expected := order.Version
	order.Status = enum.OrderStatusVoided
	order.Version++
	if err := s.orderRepo.UpdateWithVersion(ctx, order, expected); err != nil {
		return nil, err
	}

	s.logger.Info("order voided",
		zap.String("order_id", order.ID.String()),
		zap.Int("version", order.Version))
	return order, nil
}

// GetOrder retrieves an order by ID
func (s *OrderService) GetOrder(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, apperror.NewNotFoundError("Order")
	}
	return order, nil
}

// ListOrders lists orders with filtering
func (s *OrderService) ListOrders(ctx context.Context, params *repository.OrderFilterParams) (*pagination.PaginatedResult[entity.Order], error) {
	if params.Pagination == nil {
		params.Pagination = pagination.DefaultPagination()
	}
	params.Pagination.Validate()

	orders, total, err := s.orderRepo.List(ctx, params)
	if err != nil {
		return nil, err
	}
	return pagination.Paginate(orders, params.Pagination, total), nil
}

func (s *OrderService) settle(ctx context.Context, order *entity.Order) (*SettleResult, error) {
	result, err := s.settlements.Settle(ctx, order)
	if err != nil {
		s.logger.Error("order closed but settlement could not be claimed",
			zap.String("order_id", order.ID.String()),
			zap.Error(err))
		return nil, err
	}
	return result, nil
}

// apply validates input and writes the computed order state into order
func (s *OrderService) apply(ctx context.Context, order *entity.Order, input *SaveOrderInput) error {
	var fieldErrors []apperror.FieldError
	fail := func(field, message string) {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: field, Message: message})
	}

	if !input.OrderType.Valid() {
		fail("order_type", "is not a known order type")
	}
	if !input.Status.Valid() {
		fail("status", "is not a known order status")
	}
	if !input.PaymentStatus.Valid() {
		fail("payment_status", "is not a known payment status")
	}
	if len(input.Items) == 0 {
		fail("items", "must contain at least one item")
	}

	items := make([]entity.OrderItem, 0, len(input.Items))
	subtotal := decimal.Zero
	for i, in := range input.Items {
		field := fmt.Sprintf("items[%d]", i)
		if strings.TrimSpace(in.Name) == "" {
			fail(field+".name", "is required")
		}
		if in.Quantity <= 0 {
			fail(field+".quantity", "must be greater than zero")
		}
		if in.UnitPrice.IsNegative() {
			fail(field+".unit_price", "must not be negative")
		}
		item := entity.OrderItem{
			ProductID: in.ProductID,
			Name:      strings.TrimSpace(in.Name),
			UnitPrice: in.UnitPrice,
			Quantity:  in.Quantity,
			Extras:    in.Extras,
			IsPack:    in.IsPack,
			PackItems: in.PackItems,
		}
		item.Subtotal = lineSubtotal(item)
		subtotal = subtotal.Add(item.Subtotal)
		items = append(items, item)
	}

	if input.Discount.IsNegative() || input.Discount.GreaterThan(subtotal) {
		fail("discount", "must be between zero and the subtotal")
	}
	total := subtotal.Sub(input.Discount)

	status, paymentStatus := input.Status, input.PaymentStatus
	var payments []entity.PaymentSplit
	if input.OrderType.IsPlatformDelivery() {
		status, paymentStatus = enum.OrderStatusClosed, enum.PaymentStatusPaid
		payments = []entity.PaymentSplit{{Method: enum.PaymentMethodRappiTransfer, Amount: total}}
	} else {
		paid := decimal.Zero
		for i, in := range input.PaymentMethods {
			field := fmt.Sprintf("payment_methods[%d]", i)
			if in.Method == "" {
				fail(field+".method", "is required")
			}
			if in.Amount.IsNegative() {
				fail(field+".amount", "must not be negative")
			}
			split := entity.PaymentSplit{Method: in.Method, Amount: in.Amount}
			if in.CashReceived != nil {
				change := in.CashReceived.Sub(in.Amount)
				if change.IsNegative() {
					fail(field+".cash_received", "must cover the amount")
				}
				received := *in.CashReceived
				split.CashReceived = &received
				split.Change = &change
			}
			paid = paid.Add(in.Amount)
			payments = append(payments, split)
		}
		if paymentStatus == enum.PaymentStatusPaid && !paid.Equal(total) {
			fail("payment_methods", fmt.Sprintf("must add up to the total %s", total.StringFixed(2)))
		}
	}

	if input.CustomerID != nil && (order.CustomerID == nil || *order.CustomerID != *input.CustomerID) {
		customer, err := s.customerRepo.GetByID(ctx, *input.CustomerID)
		if err != nil {
			return err
		}
		if customer == nil {
			fail("customer_id", "does not exist")
		}
	}

	if len(fieldErrors) > 0 {
		return apperror.NewValidationError(fieldErrors)
	}

	order.OrderType = input.OrderType
	order.TableNumber = strings.TrimSpace(input.TableNumber)
	order.Items = items
	order.Subtotal = subtotal
	order.Discount = input.Discount
	order.Total = total
	order.Status = status
	order.PaymentStatus = paymentStatus
	order.PaymentMethods = payments
	order.CustomerID = input.CustomerID
	order.Notes = input.Notes
	return nil
}

// lineSubtotal prices one line: unit price plus its extras, times quantity.
func lineSubtotal(item entity.OrderItem) decimal.Decimal {
	quantity := decimal.NewFromInt(int64(item.Quantity))
	if strings.EqualFold(strings.TrimSpace(item.Name), fixedPriceProduct) ||
		strings.EqualFold(item.ProductID, fixedPriceProduct) {
		return fixedContainerPrice.Mul(quantity)
	}

	unit := item.UnitPrice
	for _, extra := range item.Extras {
		extraQty := extra.Quantity
		if extraQty <= 0 {
			extraQty = 1
		}
		unit = unit.Add(extra.Price.Mul(decimal.NewFromInt(int64(extraQty))))
	}
	return unit.Mul(quantity)
}
