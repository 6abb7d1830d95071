package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sangkips/backoffice-api/internal/domain/entity"
	"github.com/sangkips/backoffice-api/internal/domain/enum"
	"github.com/sangkips/backoffice-api/internal/domain/event"
	"github.com/sangkips/backoffice-api/internal/domain/repository"
	"github.com/sangkips/backoffice-api/internal/infrastructure/telemetry"
	"github.com/sangkips/backoffice-api/pkg/apperror"
	"github.com/sangkips/backoffice-api/pkg/pagination"
)

// SettleOutcome names how a settlement request ended
type SettleOutcome string

const (
	SettleCompleted           SettleOutcome = "completed"
	SettleNeedsReconciliation SettleOutcome = "needs_reconciliation"
	SettleAlreadySettled      SettleOutcome = "already_settled"
)

// SettlementConfig holds the settlement rules
type SettlementConfig struct {
	InventoryPolicy   enum.InventoryPolicy
	CardSurchargeRate decimal.Decimal
}

// SettleResult is the result of Settle
type SettleResult struct {
	Outcome    SettleOutcome      `json:"outcome"`
	Settlement *entity.Settlement `json:"settlement"`
}

// SettlementService applies the ledger effects of a closed and paid order as
// a persisted list of steps, each idempotent on its own key.
type SettlementService struct {
	repo      repository.SettlementRepository
	orderRepo repository.OrderRepository
	inventory *InventoryService
	accounts  *AccountService
	rewards   *RewardsService
	audit     *AuditService
	publisher event.Publisher
	metrics   *telemetry.LedgerMetrics
	logger    *zap.Logger
	cfg       SettlementConfig
	now       func() time.Time
}

// NewSettlementService creates a new settlement service
func NewSettlementService(
	repo repository.SettlementRepository,
	orderRepo repository.OrderRepository,
	inventory *InventoryService,
	accounts *AccountService,
	rewards *RewardsService,
	audit *AuditService,
	publisher event.Publisher,
	metrics *telemetry.LedgerMetrics,
	cfg SettlementConfig,
	logger *zap.Logger,
) *SettlementService {
	if !cfg.InventoryPolicy.Valid() {
		cfg.InventoryPolicy = enum.InventoryBestEffort
	}
	return &SettlementService{
		repo:      repo,
		orderRepo: orderRepo,
		inventory: inventory,
		accounts:  accounts,
		rewards:   rewards,
		audit:     audit,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Policy returns the configured inventory policy
func (s *SettlementService) Policy() enum.InventoryPolicy {
	return s.cfg.InventoryPolicy
}

// Preflight rejects an order whose stock lines cannot all be covered, when
// the strict inventory policy is active. It writes nothing.
func (s *SettlementService) Preflight(ctx context.Context, order *entity.Order) error {
	if s.cfg.InventoryPolicy != enum.InventoryStrict {
		return nil
	}
	for _, line := range s.inventory.ExpandLines(order.Items) {
		if _, err := s.inventory.Verify(ctx, line.ProductID, line.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// Plan lists the steps that settle order: one stock debit per expanded line,
// one credit per payment split plus the card surcharge, and the purchase points
// on the amount charged including surcharges.
func (s *SettlementService) Plan(order *entity.Order) []entity.SettlementStep {
	var steps []entity.SettlementStep
	add := func(step entity.SettlementStep) {
		step.Seq = len(steps) + 1
		step.Status = enum.StepPending
		steps = append(steps, step)
	}

	ticket := "#" + order.ShortID()
	for _, line := range s.inventory.ExpandLines(order.Items) {
		add(entity.SettlementStep{
			Kind:        enum.StepInventory,
			Key:         "inventory:" + line.ProductID,
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			Amount:      decimal.Zero,
			Description: "Venta " + ticket,
		})
	}

	charged := order.Total
	for i, split := range order.PaymentMethods {
		if !split.Amount.IsPositive() {
			continue
		}
		add(entity.SettlementStep{
			Kind:          enum.StepAccount,
			Key:           fmt.Sprintf("payment:%d", i),
			PaymentMethod: split.Method,
			Amount:        split.Amount,
			Description:   fmt.Sprintf("Venta %s (%s)", ticket, split.Method),
		})
		if !split.Method.IsCard() {
			continue
		}
		surcharge := split.Amount.Mul(s.cfg.CardSurchargeRate).Round(2)
		if surcharge.IsPositive() {
			charged = charged.Add(surcharge)
			add(entity.SettlementStep{
				Kind:          enum.StepAccount,
				Key:           fmt.Sprintf("surcharge:%d", i),
				PaymentMethod: split.Method,
				Amount:        surcharge,
				Description:   fmt.Sprintf("Recargo tarjeta %s", ticket),
			})
		}
	}

	if order.CustomerID != nil {
		customerID := *order.CustomerID
		add(entity.SettlementStep{
			Kind:        enum.StepRewards,
			Key:         "rewards:" + customerID.String(),
			CustomerID:  &customerID,
			Amount:      charged,
			Description: "Puntos " + ticket,
		})
	}
	return steps
}

// Settle claims order for settlement and runs its steps. An order that was
// already claimed is returned untouched.
func (s *SettlementService) Settle(ctx context.Context, order *entity.Order) (*SettleResult, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	if !order.IsSettled() {
		return nil, apperror.NewBadRequestError("Only closed and paid orders can be settled")
	}

	settlement := &entity.Settlement{
		OrderID:         order.ID,
		Status:          enum.SettlementPending,
		InventoryPolicy: s.cfg.InventoryPolicy,
		OrderTotal:      order.Total,
		CreatedBy:       actor.ID,
		Steps:           s.Plan(order),
	}

	claimed, err := s.repo.Claim(ctx, settlement)
	if err != nil {
		return nil, err
	}
	if !claimed {
		existing, err := s.repo.GetByOrderID(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		s.audit.Record(ctx, AuditEntry{
			Kind:        enum.AuditDuplicateSettlement,
			SubjectType: "order",
			SubjectID:   order.ID.String(),
			Message:     fmt.Sprintf("Order %s was already settled", order.ShortID()),
		})
		return &SettleResult{Outcome: SettleAlreadySettled, Settlement: existing}, nil
	}

	s.run(ctx, settlement, order)
	return &SettleResult{Outcome: outcomeOf(settlement), Settlement: settlement}, nil
}

// Retry re-runs the pending and failed steps of a settlement
func (s *SettlementService) Retry(ctx context.Context, id uuid.UUID) (*entity.Settlement, error) {
	if _, err := requireActor(ctx); err != nil {
		return nil, err
	}

	settlement, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	switch settlement.Status {
	case enum.SettlementCompleted:
		return settlement, nil
	case enum.SettlementUnwound:
		return nil, apperror.NewConflictError("Unwound settlements cannot be retried")
	}
	for _, step := range settlement.Steps {
		if step.Status == enum.StepReverted {
			return nil, apperror.NewConflictError("Settlement is partially unwound, finish the unwind instead")
		}
	}

	order, err := s.orderRepo.GetByID(ctx, settlement.OrderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, apperror.NewNotFoundError("Order")
	}

	s.run(ctx, settlement, order)
	return settlement, nil
}

// Unwind compensates every applied step in reverse order. Steps that never
// applied are skipped so a later retry cannot apply them. Referral grants
// are kept.
func (s *SettlementService) Unwind(ctx context.Context, id uuid.UUID) (*entity.Settlement, error) {
	if _, err := requireActor(ctx); err != nil {
		return nil, err
	}

	settlement, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if settlement.Status == enum.SettlementUnwound {
		return settlement, nil
	}

	var failures []string
	for i := len(settlement.Steps) - 1; i >= 0; i-- {
		step := &settlement.Steps[i]
		now := s.now()

		switch step.Status {
		case enum.StepPending, enum.StepFailed:
			step.Status = enum.StepSkipped
			step.Outcome = "not_applied"
			step.CompletedAt = &now
			s.saveStep(ctx, step)
			continue
		case enum.StepDone:
		default:
			continue
		}

		step.Attempts++
		if err := s.reverse(ctx, settlement, step); err != nil {
			step.LastError = err.Error()
			failures = append(failures, fmt.Sprintf("%s: %v", step.Key, err))
			s.stepFailed(ctx, settlement, step, err)
		} else {
			step.Status = enum.StepReverted
			step.LastError = ""
			step.CompletedAt = &now
		}
		s.metrics.RecordStep(ctx, string(step.Kind), "reverse_"+string(step.Status))
		s.saveStep(ctx, step)
	}

	if len(failures) > 0 {
		settlement.Status = enum.SettlementNeedsReconciliation
		settlement.LastError = "unwind: " + strings.Join(failures, "; ")
	} else {
		settlement.Status = enum.SettlementUnwound
		settlement.LastError = ""
		s.audit.Record(ctx, AuditEntry{
			Kind:        enum.AuditSettlementUnwound,
			SubjectType: "settlement",
			SubjectID:   settlement.ID.String(),
			Message:     "Settlement unwound by operator",
			Details:     map[string]any{"order_id": settlement.OrderID.String()},
		})
	}
	if err := s.repo.Update(ctx, settlement); err != nil {
		return nil, err
	}
	return settlement, nil
}

// Get returns a settlement with its steps
func (s *SettlementService) Get(ctx context.Context, id uuid.UUID) (*entity.Settlement, error) {
	settlement, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if settlement == nil {
		return nil, apperror.NewNotFoundError("Settlement")
	}
	return settlement, nil
}

// GetByOrder returns the settlement of an order
func (s *SettlementService) GetByOrder(ctx context.Context, orderID uuid.UUID) (*entity.Settlement, error) {
	settlement, err := s.repo.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if settlement == nil {
		return nil, apperror.NewNotFoundError("Settlement")
	}
	return settlement, nil
}

// List lists settlements newest first, optionally by status
func (s *SettlementService) List(ctx context.Context, params *pagination.PaginationParams, status *enum.SettlementStatus) (*pagination.PaginatedResult[entity.Settlement], error) {
	if params == nil {
		params = pagination.DefaultPagination()
	}
	params.Validate()

	settlements, total, err := s.repo.List(ctx, params, status)
	if err != nil {
		return nil, err
	}
	return pagination.Paginate(settlements, params, total), nil
}

func (s *SettlementService) run(ctx context.Context, settlement *entity.Settlement, order *entity.Order) {
	started := s.now()
	settlement.Attempts++

	var failures []string
	for i := range settlement.Steps {
		step := &settlement.Steps[i]
		if !step.Status.Runnable() {
			continue
		}
		if err := s.runStep(ctx, settlement, step, order); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", step.Key, err))
		}
	}

	now := s.now()
	if len(failures) > 0 {
		settlement.Status = enum.SettlementNeedsReconciliation
		settlement.LastError = strings.Join(failures, "; ")
	} else {
		settlement.Status = enum.SettlementCompleted
		settlement.LastError = ""
		settlement.CompletedAt = &now
	}
	if err := s.repo.Update(ctx, settlement); err != nil {
		s.logger.Error("failed to store settlement status",
			zap.String("settlement_id", settlement.ID.String()),
			zap.Error(err))
	}

	s.metrics.RecordSettlement(ctx, now.Sub(started), string(settlement.Status))
	s.logger.Info("settlement run finished",
		zap.String("settlement_id", settlement.ID.String()),
		zap.String("order_id", settlement.OrderID.String()),
		zap.String("status", string(settlement.Status)),
		zap.Int("attempt", settlement.Attempts))

	publish(ctx, s.publisher, s.logger, event.Change{
		Type:        event.OrderSettled,
		AggregateID: settlement.OrderID.String(),
		Data: map[string]any{
			"settlement_id": settlement.ID.String(),
			"status":        string(settlement.Status),
		},
	})
}

// runStep applies one step and stores its result. The returned error is the
// ledger failure already recorded on the step.
func (s *SettlementService) runStep(ctx context.Context, settlement *entity.Settlement, step *entity.SettlementStep, order *entity.Order) error {
	step.Attempts++

	status, outcome, movementID, err := s.apply(ctx, step, order)
	now := s.now()
	if err != nil {
		step.Status = enum.StepFailed
		step.LastError = err.Error()
		s.stepFailed(ctx, settlement, step, err)
	} else {
		step.Status = status
		step.Outcome = outcome
		step.MovementID = movementID
		step.LastError = ""
		step.CompletedAt = &now
	}

	s.metrics.RecordStep(ctx, string(step.Kind), string(step.Status))
	s.saveStep(ctx, step)
	return err
}

func (s *SettlementService) apply(ctx context.Context, step *entity.SettlementStep, order *entity.Order) (enum.StepStatus, string, *uuid.UUID, error) {
	orderID := order.ID
	switch step.Kind {
	case enum.StepInventory:
		movement, err := s.inventory.Commit(ctx, StockMovementInput{
			ProductID:      step.ProductID,
			ProductName:    step.ProductName,
			Direction:      enum.StockOut,
			Quantity:       step.Quantity,
			Reason:         step.Description,
			OrderID:        &orderID,
			IdempotencyKey: step.LedgerKey(),
		})
		if err != nil {
			return "", "", nil, err
		}
		return enum.StepDone, "committed", &movement.ID, nil

	case enum.StepAccount:
		sourceID := orderID.String()
		result, err := s.accounts.Credit(ctx, LedgerEntryInput{
			PaymentMethod:  step.PaymentMethod,
			Amount:         step.Amount,
			Description:    step.Description,
			Source:         enum.SourceSale,
			SourceID:       &sourceID,
			IdempotencyKey: step.LedgerKey(),
		})
		if err != nil {
			return "", "", nil, err
		}
		if result.Outcome == OutcomeUnmappedPaymentMethod {
			return enum.StepSkipped, string(result.Outcome), nil, nil
		}
		return enum.StepDone, string(result.Outcome), &result.Movement.ID, nil

	case enum.StepRewards:
		if step.CustomerID == nil {
			return enum.StepSkipped, "no_customer", nil, nil
		}
		result, err := s.rewards.RecordPurchase(ctx, PurchaseInput{
			CustomerID:   *step.CustomerID,
			OrderID:      orderID,
			OrderTotal:   step.Amount,
			ProductNames: order.ProductNames(),
		})
		if err != nil {
			return "", "", nil, err
		}
		var movementID *uuid.UUID
		if result.Movement != nil {
			movementID = &result.Movement.ID
		}
		switch result.Outcome {
		case PurchaseRecorded, PurchaseAlreadyRecorded:
			if result.Referral != "" {
				s.logger.Info("referral outcome",
					zap.String("order_id", orderID.String()),
					zap.String("outcome", string(result.Referral)))
			}
			return enum.StepDone, string(result.Outcome), movementID, nil
		default:
			return enum.StepSkipped, string(result.Outcome), nil, nil
		}
	}
	return "", "", nil, fmt.Errorf("unknown settlement step kind %q", step.Kind)
}

func (s *SettlementService) reverse(ctx context.Context, settlement *entity.Settlement, step *entity.SettlementStep) error {
	orderID := settlement.OrderID
	switch step.Kind {
	case enum.StepInventory:
		_, err := s.inventory.Commit(ctx, StockMovementInput{
			ProductID:      step.ProductID,
			ProductName:    step.ProductName,
			Direction:      enum.StockIn,
			Quantity:       step.Quantity,
			Reason:         "Reversión " + step.Description,
			OrderID:        &orderID,
			IdempotencyKey: step.ReversalKey(),
		})
		return err

	case enum.StepAccount:
		sourceID := orderID.String()
		_, err := s.accounts.ReverseSale(ctx, LedgerEntryInput{
			PaymentMethod:  step.PaymentMethod,
			Amount:         step.Amount,
			Description:    "Reversión " + step.Description,
			SourceID:       &sourceID,
			IdempotencyKey: step.ReversalKey(),
		})
		return err

	case enum.StepRewards:
		_, err := s.rewards.ReversePurchase(ctx, orderID, step.ReversalKey())
		return err
	}
	return fmt.Errorf("unknown settlement step kind %q", step.Kind)
}

func (s *SettlementService) stepFailed(ctx context.Context, settlement *entity.Settlement, step *entity.SettlementStep, err error) {
	s.audit.Record(ctx, AuditEntry{
		Kind:        enum.AuditStepFailed,
		SubjectType: "settlement",
		SubjectID:   settlement.ID.String(),
		Message:     fmt.Sprintf("Settlement step %s failed: %v", step.Key, err),
		Details: map[string]any{
			"order_id": settlement.OrderID.String(),
			"step_id":  step.ID.String(),
			"kind":     string(step.Kind),
			"attempts": step.Attempts,
		},
	})
}

func (s *SettlementService) saveStep(ctx context.Context, step *entity.SettlementStep) {
	step.UpdatedAt = s.now()
	if err := s.repo.UpdateStep(ctx, step); err != nil {
		s.logger.Error("failed to store settlement step",
			zap.String("step_id", step.ID.String()),
			zap.Error(err))
	}
}

func outcomeOf(settlement *entity.Settlement) SettleOutcome {
	if settlement.Status == enum.SettlementCompleted {
		return SettleCompleted
	}
	return SettleNeedsReconciliation
}
