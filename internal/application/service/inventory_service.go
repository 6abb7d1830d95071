package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sangkips/backoffice-api/internal/domain/entity"
	"github.com/sangkips/backoffice-api/internal/domain/enum"
	"github.com/sangkips/backoffice-api/internal/domain/event"
	"github.com/sangkips/backoffice-api/internal/domain/repository"
	"github.com/sangkips/backoffice-api/pkg/apperror"
	"github.com/sangkips/backoffice-api/pkg/pagination"
)

// InventoryConfig holds the stock ledger settings
type InventoryConfig struct {
	DefaultMinStock  int
	DefaultMaxStock  int
	ExcludedSKUs     []string
	MaxCommitRetries int
}

// InventoryService handles stock levels and the stock movement ledger
type InventoryService struct {
	repo      repository.InventoryRepository
	audit     *AuditService
	publisher event.Publisher
	logger    *zap.Logger
	cfg       InventoryConfig
	excluded  map[string]struct{}
	now       func() time.Time
}

// NewInventoryService creates a new inventory service
func NewInventoryService(
	repo repository.InventoryRepository,
	audit *AuditService,
	publisher event.Publisher,
	cfg InventoryConfig,
	logger *zap.Logger,
) *InventoryService {
	excluded := make(map[string]struct{}, len(cfg.ExcludedSKUs))
	for _, sku := range cfg.ExcludedSKUs {
		excluded[strings.ToLower(strings.TrimSpace(sku))] = struct{}{}
	}
	return &InventoryService{
		repo:      repo,
		audit:     audit,
		publisher: publisher,
		logger:    logger,
		cfg:       cfg,
		excluded:  excluded,
		now:       time.Now,
	}
}

// StockCheck is the projected outcome of an outgoing movement
type StockCheck struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Current     int    `json:"current_stock"`
	Requested   int    `json:"requested"`
	New         int    `json:"new_stock"`
}

// StockMovementInput describes one stock change
type StockMovementInput struct {
	ProductID      string
	ProductName    string
	Direction      enum.StockDirection
	Quantity       int
	Reason         string
	OrderID        *uuid.UUID
	IdempotencyKey string
}

// StockLine is a product quantity that moves stock
type StockLine struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
}

// EnsureItem returns the item for productID, creating it with no stock and
// the default thresholds when absent.
func (s *InventoryService) EnsureItem(ctx context.Context, productID, productName string) (*entity.InventoryItem, error) {
	item, err := s.repo.GetItemByProductID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if item != nil {
		return item, nil
	}

	if productName == "" {
		productName = productID
	}
	now := s.now()
	if err := s.repo.CreateItemIfAbsent(ctx, &entity.InventoryItem{
		ProductID:   productID,
		ProductName: productName,
		MinStock:    s.cfg.DefaultMinStock,
		MaxStock:    s.cfg.DefaultMaxStock,
		Version:     1,
		LastUpdated: now,
		CreatedAt:   now,
	}); err != nil {
		return nil, err
	}

	// Re-read: a concurrent caller may have won the insert.
	item, err = s.repo.GetItemByProductID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("inventory item for %s vanished after insert", productID)
	}
	return item, nil
}

// Verify projects an outgoing movement of quantity without writing anything
func (s *InventoryService) Verify(ctx context.Context, productID string, quantity int) (*StockCheck, error) {
	if quantity <= 0 {
		return nil, apperror.NewBadRequestError("Quantity must be greater than zero")
	}

	item, err := s.repo.GetItemByProductID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, apperror.NewInsufficientStockError(productID, 0, quantity)
	}

	check := &StockCheck{
		ProductID:   item.ProductID,
		ProductName: item.ProductName,
		Current:     item.CurrentStock,
		Requested:   quantity,
		New:         item.CurrentStock - quantity,
	}
	if check.New < 0 {
		return check, apperror.NewInsufficientStockError(item.ProductName, item.CurrentStock, quantity)
	}
	return check, nil
}

// Commit applies one stock movement. The item and its movement are written
// together and only if the item has not changed since it was read; a
// conflicting writer causes a re-read and retry. A repeated idempotency key
// returns the movement recorded the first time.
func (s *InventoryService) Commit(ctx context.Context, input StockMovementInput) (*entity.InventoryMovement, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.ProductID) == "" {
		return nil, apperror.NewBadRequestError("Product is required")
	}
	if !input.Direction.Valid() {
		return nil, apperror.NewBadRequestError("Direction must be in or out")
	}
	if input.Quantity <= 0 {
		return nil, apperror.NewBadRequestError("Quantity must be greater than zero")
	}

	if input.IdempotencyKey != "" {
		existing, err := s.repo.GetMovementByKey(ctx, input.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}

	var (
		movement *entity.InventoryMovement
		item     *entity.InventoryItem
	)
	err = withRetry(ctx, s.cfg.MaxCommitRetries, func() error {
		item, err = s.EnsureItem(ctx, input.ProductID, input.ProductName)
		if err != nil {
			return err
		}

		previous := item.CurrentStock
		next := previous + input.Direction.Sign()*input.Quantity
		if next < 0 {
			return apperror.NewInsufficientStockError(item.ProductName, previous, input.Quantity)
		}

		expected := item.Version
		now := s.now()
		item.CurrentStock = next
		item.Version = expected + 1
		item.LastUpdated = now
		if input.ProductName != "" {
			item.ProductName = input.ProductName
		}

		movement = &entity.InventoryMovement{
			InventoryItemID: item.ID,
			ProductID:       item.ProductID,
			ProductName:     item.ProductName,
			Direction:       input.Direction,
			Quantity:        input.Quantity,
			PreviousStock:   previous,
			NewStock:        next,
			Reason:          input.Reason,
			OrderID:         input.OrderID,
			IdempotencyKey:  optionalKey(input.IdempotencyKey),
			ItemVersion:     item.Version,
			CreatedBy:       actor.ID,
			CreatedAt:       now,
		}
		return s.repo.ApplyMovement(ctx, item, expected, movement)
	})
	if err != nil {
		if input.IdempotencyKey != "" && !apperror.IsAppError(err) {
			// A concurrent commit with the same key loses on the unique index.
			if existing, lookupErr := s.repo.GetMovementByKey(ctx, input.IdempotencyKey); lookupErr == nil && existing != nil {
				return existing, nil
			}
		}
		return nil, err
	}

	s.logger.Info("stock movement committed",
		zap.String("product_id", item.ProductID),
		zap.String("direction", string(movement.Direction)),
		zap.Int("quantity", movement.Quantity),
		zap.Int("new_stock", movement.NewStock))

	publish(ctx, s.publisher, s.logger, event.Change{
		Type:        event.InventoryChanged,
		AggregateID: item.ProductID,
		Data: map[string]any{
			"current_stock": item.CurrentStock,
			"movement_id":   movement.ID.String(),
		},
	})
	if item.IsLow() {
		s.alertLowStock(ctx, item)
	}

	return movement, nil
}

func (s *InventoryService) alertLowStock(ctx context.Context, item *entity.InventoryItem) {
	s.audit.Record(ctx, AuditEntry{
		Kind:        enum.AuditLowStock,
		SubjectType: "inventory_item",
		SubjectID:   item.ProductID,
		Message:     fmt.Sprintf("Stock of %s is at %d (minimum %d)", item.ProductName, item.CurrentStock, item.MinStock),
		Details: map[string]any{
			"current_stock": item.CurrentStock,
			"min_stock":     item.MinStock,
		},
	})
	publish(ctx, s.publisher, s.logger, event.Change{
		Type:        event.StockLow,
		AggregateID: item.ProductID,
		Data: map[string]any{
			"product_name":  item.ProductName,
			"current_stock": item.CurrentStock,
			"min_stock":     item.MinStock,
		},
	})
}

// IsExcluded reports whether a product never moves stock
func (s *InventoryService) IsExcluded(productID, productName string) bool {
	if _, ok := s.excluded[strings.ToLower(strings.TrimSpace(productID))]; ok {
		return true
	}
	_, ok := s.excluded[strings.ToLower(strings.TrimSpace(productName))]
	return ok
}

// ExpandLines turns order lines into the stock quantities they consume.
// A pack contributes its constituents times the line quantity and never
// moves stock itself. Excluded products are dropped and repeated products
// are merged in first-seen order.
func (s *InventoryService) ExpandLines(items []entity.OrderItem) []StockLine {
	var lines []StockLine
	index := map[string]int{}

	add := func(productID, name string, quantity int) {
		if productID == "" || quantity <= 0 || s.IsExcluded(productID, name) {
			return
		}
		if i, ok := index[productID]; ok {
			lines[i].Quantity += quantity
			return
		}
		index[productID] = len(lines)
		lines = append(lines, StockLine{ProductID: productID, ProductName: name, Quantity: quantity})
	}

	for _, item := range items {
		if item.IsPack {
			for _, packItem := range item.PackItems {
				add(packItem.ProductID, packItem.Name, packItem.Quantity*item.Quantity)
			}
			continue
		}
		add(item.ProductID, item.Name, item.Quantity)
	}
	return lines
}

// LowStockItems returns items at or below their minimum
func (s *InventoryService) LowStockItems(ctx context.Context) ([]entity.InventoryItem, error) {
	return s.repo.ListLowStock(ctx)
}

// ListItems lists inventory items, optionally filtered by product name
func (s *InventoryService) ListItems(ctx context.Context, params *pagination.PaginationParams, search string) (*pagination.PaginatedResult[entity.InventoryItem], error) {
	if params == nil {
		params = pagination.DefaultPagination()
	}
	params.Validate()

	items, total, err := s.repo.ListItems(ctx, params, search)
	if err != nil {
		return nil, err
	}
	return pagination.Paginate(items, params, total), nil
}

// ListMovements lists stock movements newest first, optionally for one product
func (s *InventoryService) ListMovements(ctx context.Context, productID string, params *pagination.PaginationParams) (*pagination.PaginatedResult[entity.InventoryMovement], error) {
	if params == nil {
		params = pagination.DefaultPagination()
	}
	params.Validate()

	movements, total, err := s.repo.ListMovements(ctx, &repository.MovementFilterParams{
		Pagination: params,
		SubjectID:  productID,
	})
	if err != nil {
		return nil, err
	}
	return pagination.Paginate(movements, params, total), nil
}

// UpdateLimits changes the alert thresholds of an item
func (s *InventoryService) UpdateLimits(ctx context.Context, itemID uuid.UUID, minStock, maxStock int) (*entity.InventoryItem, error) {
	if minStock < 0 {
		return nil, apperror.NewValidationError([]apperror.FieldError{{Field: "min_stock", Message: "must not be negative"}})
	}
	if maxStock < minStock {
		return nil, apperror.NewValidationError([]apperror.FieldError{{Field: "max_stock", Message: "must be greater than or equal to min_stock"}})
	}

	if err := s.repo.UpdateLimits(ctx, itemID, minStock, maxStock); err != nil {
		return nil, err
	}

	item, err := s.repo.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, apperror.NewNotFoundError("Inventory item")
	}
	return item, nil
}
