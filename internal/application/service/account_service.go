package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sangkips/backoffice-api/internal/domain/entity"
	"github.com/sangkips/backoffice-api/internal/domain/enum"
	"github.com/sangkips/backoffice-api/internal/domain/event"
	"github.com/sangkips/backoffice-api/internal/domain/repository"
	infraRepo "github.com/sangkips/backoffice-api/internal/infrastructure/repository"
	"github.com/sangkips/backoffice-api/pkg/apperror"
	"github.com/sangkips/backoffice-api/pkg/pagination"
)

// EntryOutcome names how a ledger entry request ended when it did not fail
type EntryOutcome string

const (
	OutcomeRecorded              EntryOutcome = "recorded"
	OutcomeUnmappedPaymentMethod EntryOutcome = "unmapped_payment_method"
)

var saleBuckets = map[enum.PaymentMethod]enum.AccountType{
	enum.PaymentMethodCash:          enum.AccountTypeCash,
	enum.PaymentMethodYape:          enum.AccountTypeYape,
	enum.PaymentMethodPlin:          enum.AccountTypePlin,
	enum.PaymentMethodCard:          enum.AccountTypeBank,
	enum.PaymentMethodTransfer:      enum.AccountTypeBank,
	enum.PaymentMethodRappiTransfer: enum.AccountTypeBank,
}

// Purchases and expenses are never paid by card from the restaurant's side.
var spendBuckets = map[enum.PaymentMethod]enum.AccountType{
	enum.PaymentMethodCash:          enum.AccountTypeCash,
	enum.PaymentMethodYape:          enum.AccountTypeYape,
	enum.PaymentMethodPlin:          enum.AccountTypePlin,
	enum.PaymentMethodTransfer:      enum.AccountTypeBank,
	enum.PaymentMethodRappiTransfer: enum.AccountTypeBank,
}

// ResolveBucket maps a payment method to the account it lands in
func ResolveBucket(method enum.PaymentMethod, direction enum.LedgerDirection) (enum.AccountType, bool) {
	buckets := saleBuckets
	if direction == enum.Debit {
		buckets = spendBuckets
	}
	bucket, ok := buckets[method]
	return bucket, ok
}

// LedgerEntryInput describes a credit or debit routed by payment method
type LedgerEntryInput struct {
	PaymentMethod  enum.PaymentMethod
	Amount         decimal.Decimal
	Description    string
	Source         enum.MovementSource
	SourceID       *string
	IdempotencyKey string
}

// EntryResult is the result of a routed ledger entry
type EntryResult struct {
	Outcome  EntryOutcome            `json:"outcome"`
	Account  *entity.Account         `json:"account,omitempty"`
	Movement *entity.AccountMovement `json:"movement,omitempty"`
}

// Reconciliation compares an account balance with its movement history.
// OpeningBalance is the balance set by the latest initial-balance movement.
type Reconciliation struct {
	AccountID      uuid.UUID        `json:"account_id"`
	AccountType    enum.AccountType `json:"account_type"`
	Balance        decimal.Decimal  `json:"balance"`
	InitialBalance decimal.Decimal  `json:"initial_balance"`
	TotalCredits   decimal.Decimal  `json:"total_credits"`
	TotalDebits    decimal.Decimal  `json:"total_debits"`
	LedgerBalance  decimal.Decimal  `json:"ledger_balance"`
	OpeningBalance decimal.Decimal  `json:"opening_balance"`
	SinceOpening   decimal.Decimal  `json:"since_opening"`
	MovementCount  int              `json:"movement_count"`
	ChainBreaks    int              `json:"chain_breaks"`
	Consistent     bool             `json:"consistent"`
	Drift          decimal.Decimal  `json:"drift"`
	ReconciledAt   time.Time        `json:"reconciled_at"`
}

// AccountService handles the payment buckets and their movement ledger
type AccountService struct {
	repo       repository.AccountRepository
	audit      *AuditService
	publisher  event.Publisher
	logger     *zap.Logger
	maxRetries int
	now        func() time.Time
}

// NewAccountService creates a new account service
func NewAccountService(
	repo repository.AccountRepository,
	audit *AuditService,
	publisher event.Publisher,
	maxRetries int,
	logger *zap.Logger,
) *AccountService {
	return &AccountService{
		repo:       repo,
		audit:      audit,
		publisher:  publisher,
		logger:     logger,
		maxRetries: maxRetries,
		now:        time.Now,
	}
}

// Credit adds money to the bucket of the payment method
func (s *AccountService) Credit(ctx context.Context, input LedgerEntryInput) (*EntryResult, error) {
	return s.route(ctx, enum.Credit, saleBuckets, input)
}

// Debit takes money from the bucket of the payment method
func (s *AccountService) Debit(ctx context.Context, input LedgerEntryInput) (*EntryResult, error) {
	return s.route(ctx, enum.Debit, spendBuckets, input)
}

// ReverseSale debits a sale credit from the bucket it was credited to
func (s *AccountService) ReverseSale(ctx context.Context, input LedgerEntryInput) (*EntryResult, error) {
	input.Source = enum.SourceManualAdjustment
	return s.route(ctx, enum.Debit, saleBuckets, input)
}

// RecordPurchase debits a supplier purchase
func (s *AccountService) RecordPurchase(ctx context.Context, input LedgerEntryInput) (*EntryResult, error) {
	input.Source = enum.SourcePurchase
	return s.route(ctx, enum.Debit, spendBuckets, input)
}

// RecordExpense debits an operating expense
func (s *AccountService) RecordExpense(ctx context.Context, input LedgerEntryInput) (*EntryResult, error) {
	input.Source = enum.SourceExpense
	return s.route(ctx, enum.Debit, spendBuckets, input)
}

func (s *AccountService) route(ctx context.Context, direction enum.LedgerDirection, buckets map[enum.PaymentMethod]enum.AccountType, input LedgerEntryInput) (*EntryResult, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	if !input.Amount.IsPositive() {
		return nil, apperror.NewBadRequestError("Amount must be greater than zero")
	}
	if input.Source == "" {
		input.Source = enum.SourceSale
	}

	bucket, ok := buckets[input.PaymentMethod]
	if !ok {
		s.audit.Record(ctx, AuditEntry{
			Kind:        enum.AuditUnmappedPaymentMethod,
			SubjectType: "payment_method",
			SubjectID:   string(input.PaymentMethod),
			Message:     fmt.Sprintf("Payment method %q has no %s account, entry skipped", input.PaymentMethod, direction),
			Details: map[string]any{
				"direction":   string(direction),
				"amount":      input.Amount.StringFixed(2),
				"source":      string(input.Source),
				"description": input.Description,
			},
		})
		return &EntryResult{Outcome: OutcomeUnmappedPaymentMethod}, nil
	}

	previous, err := s.existing(ctx, input.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	if previous != nil {
		return &EntryResult{Outcome: OutcomeRecorded, Movement: previous}, nil
	}

	var account *entity.Account
	var movement *entity.AccountMovement
	err = withRetry(ctx, s.maxRetries, func() error {
		account, err = s.repo.GetByType(ctx, bucket)
		if err != nil {
			return err
		}
		if account == nil {
			return apperror.NewAccountNotFoundError(string(input.PaymentMethod))
		}
		movement, err = s.write(ctx, account, direction, input, actor)
		return err
	})
	if err != nil {
		return s.recoverKey(ctx, input.IdempotencyKey, err)
	}

	s.committed(ctx, account, movement)
	return &EntryResult{Outcome: OutcomeRecorded, Account: account, Movement: movement}, nil
}

// CreateMovement records a manual adjustment against a specific account
func (s *AccountService) CreateMovement(ctx context.Context, accountID uuid.UUID, direction enum.LedgerDirection, amount decimal.Decimal, description string, source enum.MovementSource) (*EntryResult, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	if !direction.Valid() {
		return nil, apperror.NewBadRequestError("Direction must be credit or debit")
	}
	if !amount.IsPositive() {
		return nil, apperror.NewBadRequestError("Amount must be greater than zero")
	}
	if source == "" {
		source = enum.SourceManualAdjustment
	}
	if !source.Valid() {
		return nil, apperror.NewBadRequestError("Unknown movement source")
	}

	input := LedgerEntryInput{Amount: amount, Description: description, Source: source}

	var account *entity.Account
	var movement *entity.AccountMovement
	err = withRetry(ctx, s.maxRetries, func() error {
		account, err = s.load(ctx, accountID)
		if err != nil {
			return err
		}
		movement, err = s.write(ctx, account, direction, input, actor)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, account, movement)
	return &EntryResult{Outcome: OutcomeRecorded, Account: account, Movement: movement}, nil
}

// SetInitialBalance moves the balance to newInitial through an initial_seed
// movement carrying the difference, and stores newInitial as the opening balance.
func (s *AccountService) SetInitialBalance(ctx context.Context, accountID uuid.UUID, newInitial decimal.Decimal) (*entity.Account, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	if newInitial.IsNegative() {
		return nil, apperror.NewBadRequestError("Initial balance must not be negative")
	}

	var account *entity.Account
	var movement *entity.AccountMovement
	err = withRetry(ctx, s.maxRetries, func() error {
		account, err = s.load(ctx, accountID)
		if err != nil {
			return err
		}

		expected := account.Version
		previous := account.Balance
		delta := newInitial.Sub(previous)
		now := s.now()

		account.Balance = newInitial
		account.InitialBalance = newInitial
		account.Version = expected + 1
		account.UpdatedAt = now

		movement = nil
		if !delta.IsZero() {
			direction := enum.Credit
			if delta.IsNegative() {
				direction = enum.Debit
			}
			movement = &entity.AccountMovement{
				AccountID:       account.ID,
				Direction:       direction,
				Amount:          delta.Abs(),
				PreviousBalance: previous,
				NewBalance:      newInitial,
				Description:     "Initial balance adjustment",
				Source:          enum.SourceInitialSeed,
				AccountVersion:  account.Version,
				CreatedBy:       actor.ID,
				CreatedAt:       now,
			}
		}
		return s.repo.ApplyMovement(ctx, account, expected, movement)
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, account, movement)
	return account, nil
}

// Reconcile checks that the balance equals the sum of its movements, both
// over the full history and from the latest opening balance onward.
func (s *AccountService) Reconcile(ctx context.Context, accountID uuid.UUID) (*Reconciliation, error) {
	account, err := s.load(ctx, accountID)
	if err != nil {
		return nil, err
	}
	movements, err := s.repo.ListAllMovements(ctx, accountID)
	if err != nil {
		return nil, err
	}

	report := &Reconciliation{
		AccountID:      account.ID,
		AccountType:    account.Type,
		Balance:        account.Balance,
		InitialBalance: account.InitialBalance,
		TotalCredits:   decimal.Zero,
		TotalDebits:    decimal.Zero,
		OpeningBalance: decimal.Zero,
		SinceOpening:   decimal.Zero,
		MovementCount:  len(movements),
		ReconciledAt:   s.now(),
	}

	running := decimal.Zero
	for _, m := range movements {
		if m.Direction == enum.Debit {
			report.TotalDebits = report.TotalDebits.Add(m.Amount)
		} else {
			report.TotalCredits = report.TotalCredits.Add(m.Amount)
		}
		if !m.PreviousBalance.Equal(running) {
			report.ChainBreaks++
		}
		running = m.NewBalance

		if m.Source == enum.SourceInitialSeed {
			report.OpeningBalance = m.NewBalance
			report.SinceOpening = decimal.Zero
			continue
		}
		report.SinceOpening = report.SinceOpening.Add(m.Signed())
	}

	report.LedgerBalance = report.TotalCredits.Sub(report.TotalDebits)
	report.Drift = account.Balance.Sub(report.LedgerBalance)
	fromOpening := report.OpeningBalance.Add(report.SinceOpening)
	report.Consistent = report.Drift.IsZero() && fromOpening.Equal(account.Balance) && report.ChainBreaks == 0

	if !report.Consistent {
		s.audit.Record(ctx, AuditEntry{
			Kind:        enum.AuditReconciliationDrift,
			SubjectType: "account",
			SubjectID:   account.ID.String(),
			Message:     fmt.Sprintf("Account %s does not reconcile with its movements", account.Name),
			Details: map[string]any{
				"balance":        account.Balance.StringFixed(2),
				"ledger_balance": report.LedgerBalance.StringFixed(2),
				"from_opening":   fromOpening.StringFixed(2),
				"chain_breaks":   report.ChainBreaks,
			},
		})
	}
	return report, nil
}

// ListAccounts returns every account
func (s *AccountService) ListAccounts(ctx context.Context) ([]entity.Account, error) {
	return s.repo.List(ctx)
}

// GetAccount returns one account
func (s *AccountService) GetAccount(ctx context.Context, id uuid.UUID) (*entity.Account, error) {
	return s.load(ctx, id)
}

// ListMovements lists account movements newest first, optionally for one account
func (s *AccountService) ListMovements(ctx context.Context, accountID *uuid.UUID, params *pagination.PaginationParams) (*pagination.PaginatedResult[entity.AccountMovement], error) {
	if params == nil {
		params = pagination.DefaultPagination()
	}
	params.Validate()

	filter := &repository.MovementFilterParams{Pagination: params}
	if accountID != nil {
		filter.SubjectID = accountID.String()
	}

	movements, total, err := s.repo.ListMovements(ctx, filter)
	if err != nil {
		return nil, err
	}
	return pagination.Paginate(movements, params, total), nil
}

func (s *AccountService) load(ctx context.Context, id uuid.UUID) (*entity.Account, error) {
	account, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, apperror.NewNotFoundError("Account")
	}
	return account, nil
}

// write computes the new balance of account and stores it with its movement.
func (s *AccountService) write(ctx context.Context, account *entity.Account, direction enum.LedgerDirection, input LedgerEntryInput, actor infraRepo.Actor) (*entity.AccountMovement, error) {
	previous := account.Balance
	next := previous.Add(input.Amount)
	if direction == enum.Debit {
		next = previous.Sub(input.Amount)
		if next.IsNegative() {
			return nil, apperror.NewInsufficientFundsError(account.Name, previous.StringFixed(2), input.Amount.StringFixed(2))
		}
	}

	expected := account.Version
	now := s.now()
	account.Balance = next
	account.Version = expected + 1
	account.UpdatedAt = now

	movement := &entity.AccountMovement{
		AccountID:       account.ID,
		Direction:       direction,
		Amount:          input.Amount,
		PreviousBalance: previous,
		NewBalance:      next,
		Description:     input.Description,
		Source:          input.Source,
		SourceID:        input.SourceID,
		PaymentMethod:   input.PaymentMethod,
		IdempotencyKey:  optionalKey(input.IdempotencyKey),
		AccountVersion:  account.Version,
		CreatedBy:       actor.ID,
		CreatedAt:       now,
	}
	if err := s.repo.ApplyMovement(ctx, account, expected, movement); err != nil {
		return nil, err
	}
	return movement, nil
}

func (s *AccountService) existing(ctx context.Context, key string) (*entity.AccountMovement, error) {
	if key == "" {
		return nil, nil
	}
	return s.repo.GetMovementByKey(ctx, key)
}

// recoverKey turns a lost unique-key race into the movement that won it.
func (s *AccountService) recoverKey(ctx context.Context, key string, cause error) (*EntryResult, error) {
	if key != "" && !apperror.IsAppError(cause) {
		if movement, err := s.existing(ctx, key); err == nil && movement != nil {
			return &EntryResult{Outcome: OutcomeRecorded, Movement: movement}, nil
		}
	}
	return nil, cause
}

func (s *AccountService) committed(ctx context.Context, account *entity.Account, movement *entity.AccountMovement) {
	fields := []zap.Field{
		zap.String("account", string(account.Type)),
		zap.String("balance", account.Balance.StringFixed(2)),
	}
	if movement != nil {
		fields = append(fields,
			zap.String("direction", string(movement.Direction)),
			zap.String("amount", movement.Amount.StringFixed(2)),
			zap.String("source", string(movement.Source)))
	}
	s.logger.Info("account movement committed", fields...)

	publish(ctx, s.publisher, s.logger, event.Change{
		Type:        event.AccountChanged,
		AggregateID: account.ID.String(),
		Data: map[string]any{
			"type":    string(account.Type),
			"balance": account.Balance.StringFixed(2),
		},
	})
}
