package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sangkips/backoffice-api/internal/domain/entity"
	"github.com/sangkips/backoffice-api/internal/domain/enum"
	"github.com/sangkips/backoffice-api/internal/domain/event"
	"github.com/sangkips/backoffice-api/internal/domain/repository"
	"github.com/sangkips/backoffice-api/pkg/apperror"
)

// PurchaseOutcome names how recording a purchase for points ended
type PurchaseOutcome string

const (
	PurchaseBelowMinimum    PurchaseOutcome = "below_minimum"
	PurchaseNotEnrolled     PurchaseOutcome = "not_enrolled"
	PurchaseAlreadyRecorded PurchaseOutcome = "already_recorded"
	PurchaseRecorded        PurchaseOutcome = "recorded"
)

// ReferralOutcome names how a referral credit attempt ended
type ReferralOutcome string

const (
	ReferralNoReferent      ReferralOutcome = "no_referent"
	ReferralWindowExpired   ReferralOutcome = "window_expired"
	ReferralDuplicate       ReferralOutcome = "duplicate"
	ReferralMonthlyCap      ReferralOutcome = "monthly_cap_reached"
	ReferralReferrerMissing ReferralOutcome = "referrer_missing"
	ReferralGranted         ReferralOutcome = "granted"
)

const referralPoints = 1

// PurchaseInput describes a settled order to credit with points
type PurchaseInput struct {
	CustomerID   uuid.UUID
	OrderID      uuid.UUID
	OrderTotal   decimal.Decimal
	ProductNames []string
}

// PurchaseResult is the result of RecordPurchase
type PurchaseResult struct {
	Outcome  PurchaseOutcome        `json:"outcome"`
	Points   int                    `json:"points"`
	Referral ReferralOutcome        `json:"referral,omitempty"`
	Movement *entity.RewardMovement `json:"movement,omitempty"`
}

// EnableRewardsInput holds the optional referent of a new member
type EnableRewardsInput struct {
	ReferentPhone string
	ReferentName  string
}

// RedeemInput describes a prize redemption
type RedeemInput struct {
	CustomerID uuid.UUID
	PrizeID    uuid.UUID
	OrderID    *uuid.UUID
}

// RedemptionResult is the result of Redeem
type RedemptionResult struct {
	Redemption         *entity.RewardRedemption  `json:"redemption"`
	Customer           *entity.Customer          `json:"customer"`
	SuperPrizeUnlocked bool                      `json:"super_prize_unlocked"`
	SuperPrize         *entity.SuperPrizeControl `json:"super_prize,omitempty"`
}

// ReferralExpiration is a pending referral whose window is still open
type ReferralExpiration struct {
	CustomerID     uuid.UUID `json:"customer_id"`
	CustomerName   string    `json:"customer_name"`
	CustomerPhone  string    `json:"customer_phone,omitempty"`
	ExpirationDate time.Time `json:"expiration_date"`
}

// RewardsProfile is everything the rewards desk shows for one member
type RewardsProfile struct {
	Customer            *entity.Customer          `json:"customer"`
	TotalPoints         int                       `json:"total_points"`
	CanRedeem           bool                      `json:"can_redeem"`
	Movements           []entity.RewardMovement   `json:"movements"`
	Redemptions         []entity.RewardRedemption `json:"redemptions"`
	ReferredCustomers   []entity.Customer         `json:"referred_customers"`
	ReferralExpirations []ReferralExpiration      `json:"referral_expirations"`
	SuperPrize          *entity.SuperPrizeControl `json:"super_prize,omitempty"`
}

// UpdateRewardsConfigInput holds the program rules to change
type UpdateRewardsConfigInput struct {
	MinPurchaseAmount       *decimal.Decimal
	PointsPerPurchase       *int
	PointsForPrize          *int
	MaxReferralsPerMonth    *int
	ReferralValidityDays    *int
	MaxPrizeCost            *decimal.Decimal
	SuperPrizeRequirements  *int
	SuperPrizePeriodMonths  *int
	MaxSuperPrizesPerPeriod *int
	SuperPrizeProductName   *string
}

// CreatePrizeInput describes a new redeemable prize
type CreatePrizeInput struct {
	ProductID      string
	ProductName    string
	ProductCost    decimal.Decimal
	PointsRequired int
}

// RewardsService handles the loyalty points ledger
type RewardsService struct {
	customers  repository.CustomerRepository
	rewards    repository.RewardsRepository
	audit      *AuditService
	publisher  event.Publisher
	logger     *zap.Logger
	maxRetries int
	now        func() time.Time
}

// NewRewardsService creates a new rewards service
func NewRewardsService(
	customers repository.CustomerRepository,
	rewards repository.RewardsRepository,
	audit *AuditService,
	publisher event.Publisher,
	maxRetries int,
	logger *zap.Logger,
) *RewardsService {
	return &RewardsService{
		customers:  customers,
		rewards:    rewards,
		audit:      audit,
		publisher:  publisher,
		logger:     logger,
		maxRetries: maxRetries,
		now:        time.Now,
	}
}

// PurchaseKey is the idempotency key of the purchase points of an order
func PurchaseKey(orderID uuid.UUID) string {
	return "purchase:" + orderID.String()
}

// GetConfig returns the program rules, falling back to the defaults
func (s *RewardsService) GetConfig(ctx context.Context) (*entity.RewardsConfig, error) {
	cfg, err := s.rewards.GetConfig(ctx)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		defaults := entity.DefaultRewardsConfig()
		return &defaults, nil
	}
	return cfg, nil
}

// UpdateConfig changes the program rules
func (s *RewardsService) UpdateConfig(ctx context.Context, input UpdateRewardsConfigInput) (*entity.RewardsConfig, error) {
	cfg, err := s.GetConfig(ctx)
	if err != nil {
		return nil, err
	}

	var fieldErrors []apperror.FieldError
	setInt := func(field string, dst *int, src *int, min int) {
		if src == nil {
			return
		}
		if *src < min {
			fieldErrors = append(fieldErrors, apperror.FieldError{Field: field, Message: fmt.Sprintf("must be at least %d", min)})
			return
		}
		*dst = *src
	}
	setMoney := func(field string, dst *decimal.Decimal, src *decimal.Decimal) {
		if src == nil {
			return
		}
		if src.IsNegative() {
			fieldErrors = append(fieldErrors, apperror.FieldError{Field: field, Message: "must not be negative"})
			return
		}
		*dst = *src
	}

	setMoney("min_purchase_amount", &cfg.MinPurchaseAmount, input.MinPurchaseAmount)
	setMoney("max_prize_cost", &cfg.MaxPrizeCost, input.MaxPrizeCost)
	setInt("points_per_purchase", &cfg.PointsPerPurchase, input.PointsPerPurchase, 1)
	setInt("points_for_prize", &cfg.PointsForPrize, input.PointsForPrize, 1)
	setInt("max_referrals_per_month", &cfg.MaxReferralsPerMonth, input.MaxReferralsPerMonth, 0)
	setInt("referral_validity_days", &cfg.ReferralValidityDays, input.ReferralValidityDays, 0)
	setInt("super_prize_requirements", &cfg.SuperPrizeRequirements, input.SuperPrizeRequirements, 1)
	setInt("super_prize_period_months", &cfg.SuperPrizePeriodMonths, input.SuperPrizePeriodMonths, 1)
	setInt("max_super_prizes_per_period", &cfg.MaxSuperPrizesPerPeriod, input.MaxSuperPrizesPerPeriod, 0)
	if input.SuperPrizeProductName != nil {
		cfg.SuperPrizeProductName = strings.TrimSpace(*input.SuperPrizeProductName)
	}
	if len(fieldErrors) > 0 {
		return nil, apperror.NewValidationError(fieldErrors)
	}

	cfg.UpdatedAt = s.now()
	if err := s.rewards.SaveConfig(ctx, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Enable enrolls a customer in the program, resetting their counters. The
// referent is the enrolled customer with exactly the given phone.
func (s *RewardsService) Enable(ctx context.Context, customerID uuid.UUID, input EnableRewardsInput) (*entity.Customer, error) {
	if _, err := requireActor(ctx); err != nil {
		return nil, err
	}

	customer, err := s.getCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if !customer.HasPhone() {
		return nil, apperror.ErrCustomerNotEligible
	}

	var referentID *uuid.UUID
	if phone := strings.TrimSpace(input.ReferentPhone); phone != "" {
		referent, err := s.customers.FindEnrolledByPhone(ctx, phone)
		if err != nil {
			return nil, err
		}
		switch {
		case referent == nil:
			s.logger.Info("referent not found among members",
				zap.String("customer_id", customerID.String()),
				zap.String("referent_phone", phone),
				zap.String("referent_name", input.ReferentName))
		case referent.ID == customer.ID:
			s.logger.Info("self referral ignored", zap.String("customer_id", customerID.String()))
		default:
			referentID = &referent.ID
		}
	}

	if err := s.customers.EnableRewards(ctx, customerID, referentID, s.now()); err != nil {
		return nil, err
	}

	publish(ctx, s.publisher, s.logger, event.Change{
		Type:        event.RewardsChanged,
		AggregateID: customerID.String(),
		Data:        map[string]any{"rewards_enabled": true},
	})
	return s.getCustomer(ctx, customerID)
}

// AcceptTerms records that a member accepted the program terms
func (s *RewardsService) AcceptTerms(ctx context.Context, customerID uuid.UUID) (*entity.Customer, error) {
	customer, err := s.getCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if !customer.RewardsEnabled {
		return nil, apperror.ErrCustomerNotEligible
	}
	if err := s.customers.AcceptTerms(ctx, customerID, s.now()); err != nil {
		return nil, err
	}
	return s.getCustomer(ctx, customerID)
}

// RecordPurchase credits purchase points for a settled order, at most once
// per order, and then attempts the referral credit.
func (s *RewardsService) RecordPurchase(ctx context.Context, input PurchaseInput) (*PurchaseResult, error) {
	if _, err := requireActor(ctx); err != nil {
		return nil, err
	}

	cfg, err := s.GetConfig(ctx)
	if err != nil {
		return nil, err
	}
	if input.OrderTotal.LessThan(cfg.MinPurchaseAmount) {
		return &PurchaseResult{Outcome: PurchaseBelowMinimum}, nil
	}

	customer, err := s.getCustomer(ctx, input.CustomerID)
	if err != nil {
		return nil, err
	}
	if !customer.RewardsEnabled {
		return &PurchaseResult{Outcome: PurchaseNotEnrolled}, nil
	}

	key := PurchaseKey(input.OrderID)
	existing, err := s.rewards.GetMovementByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &PurchaseResult{Outcome: PurchaseAlreadyRecorded, Movement: existing}, nil
	}

	orderID := input.OrderID
	movement := &entity.RewardMovement{
		CustomerID:       customer.ID,
		Type:             enum.RewardPurchase,
		Points:           cfg.PointsPerPurchase,
		OrderID:          &orderID,
		OrderTotal:       decimal.NewNullDecimal(input.OrderTotal),
		ProductsConsumed: input.ProductNames,
		Description:      "Purchase points",
		IdempotencyKey:   &key,
		CreatedAt:        s.now(),
	}
	if err := s.rewards.AddPurchasePoints(ctx, customer.ID, movement); err != nil {
		if !apperror.IsAppError(err) {
			if existing, lookupErr := s.rewards.GetMovementByKey(ctx, key); lookupErr == nil && existing != nil {
				return &PurchaseResult{Outcome: PurchaseAlreadyRecorded, Movement: existing}, nil
			}
		}
		return nil, err
	}

	referral, err := s.recordReferral(ctx, customer, &orderID)
	if err != nil {
		// The purchase points are committed; a failed referral credit is retried
		// by the next purchase inside the window.
		s.logger.Warn("referral credit failed",
			zap.String("customer_id", customer.ID.String()),
			zap.Error(err))
	}

	publish(ctx, s.publisher, s.logger, event.Change{
		Type:        event.RewardsChanged,
		AggregateID: customer.ID.String(),
		Data: map[string]any{
			"purchase_points": customer.PurchasePoints + cfg.PointsPerPurchase,
			"order_id":        orderID.String(),
		},
	})

	return &PurchaseResult{
		Outcome:  PurchaseRecorded,
		Points:   cfg.PointsPerPurchase,
		Referral: referral,
		Movement: movement,
	}, nil
}

// ReversePurchase takes back the purchase points credited for an order. It
// returns nil when the order never earned points.
func (s *RewardsService) ReversePurchase(ctx context.Context, orderID uuid.UUID, key string) (*entity.RewardMovement, error) {
	if _, err := requireActor(ctx); err != nil {
		return nil, err
	}

	existing, err := s.rewards.GetMovementByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	original, err := s.rewards.GetMovementByKey(ctx, PurchaseKey(orderID))
	if err != nil {
		return nil, err
	}
	if original == nil || original.Points <= 0 {
		return nil, nil
	}

	movement := &entity.RewardMovement{
		CustomerID:     original.CustomerID,
		Type:           enum.RewardPurchase,
		Points:         -original.Points,
		OrderID:        &orderID,
		OrderTotal:     original.OrderTotal,
		Description:    "Purchase points reversed",
		IdempotencyKey: optionalKey(key),
		CreatedAt:      s.now(),
	}
	if err := s.rewards.AddPurchasePoints(ctx, original.CustomerID, movement); err != nil {
		return nil, err
	}

	publish(ctx, s.publisher, s.logger, event.Change{
		Type:        event.RewardsChanged,
		AggregateID: original.CustomerID.String(),
		Data:        map[string]any{"reversed_order_id": orderID.String()},
	})
	return movement, nil
}

// referralWindowOpen compares whole elapsed days since enrollment against the validity period.
func referralWindowOpen(enrolled, now time.Time, validityDays int) bool {
	return int(now.Sub(enrolled).Hours()/24) <= validityDays
}

// referralDeadline is the first instant at which the window is closed.
func referralDeadline(enrolled time.Time, validityDays int) time.Time {
	return enrolled.Add(time.Duration(validityDays+1) * 24 * time.Hour)
}

// recordReferral credits the referent of customer once, while the referral
// window is open and the referent is under the monthly cap.
func (s *RewardsService) recordReferral(ctx context.Context, customer *entity.Customer, orderID *uuid.UUID) (ReferralOutcome, error) {
	if customer.ReferentID == nil {
		return ReferralNoReferent, nil
	}

	cfg, err := s.GetConfig(ctx)
	if err != nil {
		return "", err
	}

	referrerID := *customer.ReferentID
	now := s.now()
	details := map[string]any{
		"referrer_id":          referrerID.String(),
		"referred_customer_id": customer.ID.String(),
	}

	if !referralWindowOpen(customer.EnrolledAt(), now, cfg.ReferralValidityDays) {
		deadline := referralDeadline(customer.EnrolledAt(), cfg.ReferralValidityDays)
		s.audit.Record(ctx, AuditEntry{
			Kind:        enum.AuditReferralExpired,
			SubjectType: "customer",
			SubjectID:   customer.ID.String(),
			Message:     fmt.Sprintf("Referral window for %s closed on %s", customer.Name, deadline.Format("2006-01-02")),
			Details:     details,
		})
		return ReferralWindowExpired, nil
	}

	grants, err := s.rewards.ListReferralGrants(ctx, referrerID)
	if err != nil {
		return "", err
	}
	for _, grant := range grants {
		if grant.ReferredCustomerID == customer.ID {
			s.auditDuplicateReferral(ctx, customer, details)
			return ReferralDuplicate, nil
		}
	}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	count, err := s.rewards.CountReferralGrantsSince(ctx, referrerID, monthStart)
	if err != nil {
		return "", err
	}
	if count >= int64(cfg.MaxReferralsPerMonth) {
		s.audit.Record(ctx, AuditEntry{
			Kind:        enum.AuditReferralMonthlyCap,
			SubjectType: "customer",
			SubjectID:   referrerID.String(),
			Message:     fmt.Sprintf("Referrer reached %d referrals this month", cfg.MaxReferralsPerMonth),
			Details:     details,
		})
		return ReferralMonthlyCap, nil
	}

	referrer, err := s.customers.GetByID(ctx, referrerID)
	if err != nil {
		return "", err
	}
	if referrer == nil {
		return ReferralReferrerMissing, nil
	}

	referredID := customer.ID
	key := fmt.Sprintf("referral:%s:%s", referrerID, referredID)
	granted, err := s.rewards.GrantReferral(ctx,
		&entity.ReferralGrant{
			ReferrerID:         referrerID,
			ReferredCustomerID: referredID,
			OrderID:            orderID,
			CreatedAt:          now,
		},
		&entity.RewardMovement{
			CustomerID:         referrerID,
			Type:               enum.RewardReferral,
			Points:             referralPoints,
			OrderID:            orderID,
			ReferredCustomerID: &referredID,
			Description:        "Referral of " + customer.Name,
			IdempotencyKey:     &key,
			CreatedAt:          now,
		})
	if err != nil {
		return "", err
	}
	if !granted {
		s.auditDuplicateReferral(ctx, customer, details)
		return ReferralDuplicate, nil
	}

	s.logger.Info("referral point granted",
		zap.String("referrer_id", referrerID.String()),
		zap.String("referred_customer_id", referredID.String()))
	publish(ctx, s.publisher, s.logger, event.Change{
		Type:        event.RewardsChanged,
		AggregateID: referrerID.String(),
		Data:        map[string]any{"referral_points": referrer.ReferralPoints + referralPoints},
	})
	return ReferralGranted, nil
}

func (s *RewardsService) auditDuplicateReferral(ctx context.Context, customer *entity.Customer, details map[string]any) {
	s.audit.Record(ctx, AuditEntry{
		Kind:        enum.AuditDuplicateReferral,
		SubjectType: "customer",
		SubjectID:   customer.ID.String(),
		Message:     fmt.Sprintf("Referral point for %s was already granted", customer.Name),
		Details:     details,
	})
}

// Search finds a member by exact phone (all digits) or by name fragment
func (s *RewardsService) Search(ctx context.Context, term string) (*RewardsProfile, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, apperror.NewBadRequestError("Search term is required")
	}

	var customer *entity.Customer
	var err error
	if isDigits(term) {
		customer, err = s.customers.FindEnrolledByPhone(ctx, term)
	} else {
		customer, err = s.customers.FindEnrolledByName(ctx, term)
	}
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, apperror.NewNotFoundError("Customer")
	}

	cfg, err := s.GetConfig(ctx)
	if err != nil {
		return nil, err
	}
	movements, err := s.rewards.ListMovements(ctx, customer.ID)
	if err != nil {
		return nil, err
	}
	redemptions, err := s.rewards.ListRedemptions(ctx, customer.ID)
	if err != nil {
		return nil, err
	}
	referred, err := s.customers.ListReferredBy(ctx, customer.ID)
	if err != nil {
		return nil, err
	}
	grants, err := s.rewards.ListReferralGrants(ctx, customer.ID)
	if err != nil {
		return nil, err
	}
	superPrize, err := s.rewards.GetActiveSuperPrizeControl(ctx, customer.ID, s.now())
	if err != nil {
		return nil, err
	}

	granted := make(map[uuid.UUID]struct{}, len(grants))
	for _, grant := range grants {
		granted[grant.ReferredCustomerID] = struct{}{}
	}

	now := s.now()
	expirations := []ReferralExpiration{}
	for _, ref := range referred {
		if _, ok := granted[ref.ID]; ok {
			continue
		}
		if !referralWindowOpen(ref.EnrolledAt(), now, cfg.ReferralValidityDays) {
			continue
		}
		expires := referralDeadline(ref.EnrolledAt(), cfg.ReferralValidityDays)
		exp := ReferralExpiration{CustomerID: ref.ID, CustomerName: ref.Name, ExpirationDate: expires}
		if ref.Phone != nil {
			exp.CustomerPhone = *ref.Phone
		}
		expirations = append(expirations, exp)
	}

	total := customer.TotalPoints()
	return &RewardsProfile{
		Customer:            customer,
		TotalPoints:         total,
		CanRedeem:           total >= cfg.PointsForPrize,
		Movements:           nonNil(movements),
		Redemptions:         nonNil(redemptions),
		ReferredCustomers:   nonNil(referred),
		ReferralExpirations: expirations,
		SuperPrize:          superPrize,
	}, nil
}

// Redeem exchanges points for a prize, spending purchase points before
// referral points, then checks super prize eligibility.
func (s *RewardsService) Redeem(ctx context.Context, input RedeemInput) (*RedemptionResult, error) {
	if _, err := requireActor(ctx); err != nil {
		return nil, err
	}

	prize, err := s.rewards.GetPrize(ctx, input.PrizeID)
	if err != nil {
		return nil, err
	}
	if prize == nil || !prize.Active {
		return nil, apperror.NewNotFoundError("Prize")
	}

	var customer *entity.Customer
	var redemption *entity.RewardRedemption
	err = withRetry(ctx, s.maxRetries, func() error {
		customer, err = s.getCustomer(ctx, input.CustomerID)
		if err != nil {
			return err
		}
		if !customer.RewardsEnabled {
			return apperror.ErrCustomerNotEligible
		}
		if customer.TotalPoints() < prize.PointsRequired {
			return apperror.ErrInsufficientPoints
		}

		fromPurchase := min(customer.PurchasePoints, prize.PointsRequired)
		fromReferral := prize.PointsRequired - fromPurchase

		expected := customer.Version
		customer.PurchasePoints -= fromPurchase
		customer.ReferralPoints -= fromReferral
		customer.Version = expected + 1

		now := s.now()
		redemption = &entity.RewardRedemption{
			CustomerID:         customer.ID,
			PrizeID:            prize.ID,
			PrizeName:          prize.ProductName,
			PointsUsed:         prize.PointsRequired,
			PurchasePointsUsed: fromPurchase,
			ReferralPointsUsed: fromReferral,
			OrderID:            input.OrderID,
			CreatedAt:          now,
		}
		prizeID := prize.ID
		movement := &entity.RewardMovement{
			CustomerID:  customer.ID,
			Type:        enum.RewardRedemption,
			Points:      -prize.PointsRequired,
			OrderID:     input.OrderID,
			PrizeID:     &prizeID,
			Description: "Redeemed " + prize.ProductName,
			CreatedAt:   now,
		}
		return s.rewards.Redeem(ctx, customer, expected, redemption, movement)
	})
	if err != nil {
		return nil, err
	}

	result := &RedemptionResult{Redemption: redemption, Customer: customer}
	control, err := s.checkSuperPrize(ctx, customer.ID)
	if err != nil {
		s.logger.Warn("super prize check failed", zap.String("customer_id", customer.ID.String()), zap.Error(err))
	} else if control != nil {
		result.SuperPrizeUnlocked = true
		result.SuperPrize = control
	}

	publish(ctx, s.publisher, s.logger, event.Change{
		Type:        event.RewardsChanged,
		AggregateID: customer.ID.String(),
		Data:        map[string]any{"total_points": customer.TotalPoints()},
	})
	return result, nil
}

// checkSuperPrize opens a super prize period for a member who redeemed enough
// regular prizes recently and has no open period.
func (s *RewardsService) checkSuperPrize(ctx context.Context, customerID uuid.UUID) (*entity.SuperPrizeControl, error) {
	cfg, err := s.GetConfig(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	since := now.AddDate(0, -cfg.SuperPrizePeriodMonths, 0)
	count, err := s.rewards.CountRedemptionsSince(ctx, customerID, since, false)
	if err != nil {
		return nil, err
	}
	if count < int64(cfg.SuperPrizeRequirements) {
		return nil, nil
	}

	active, err := s.rewards.GetActiveSuperPrizeControl(ctx, customerID, now)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, nil
	}

	control := &entity.SuperPrizeControl{
		CustomerID:       customerID,
		PeriodStart:      since,
		PeriodEnd:        now.AddDate(0, cfg.SuperPrizePeriodMonths, 0),
		RedemptionsCount: int(count),
		CreatedAt:        now,
	}
	if err := s.rewards.CreateSuperPrizeControl(ctx, control); err != nil {
		return nil, err
	}
	s.logger.Info("super prize unlocked", zap.String("customer_id", customerID.String()), zap.Int64("redemptions", count))
	return control, nil
}

// CreatePrize adds a redeemable prize. Its cost must stay under the program cap.
func (s *RewardsService) CreatePrize(ctx context.Context, input CreatePrizeInput) (*entity.Prize, error) {
	cfg, err := s.GetConfig(ctx)
	if err != nil {
		return nil, err
	}

	var fieldErrors []apperror.FieldError
	if strings.TrimSpace(input.ProductID) == "" {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "product_id", Message: "is required"})
	}
	if strings.TrimSpace(input.ProductName) == "" {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "product_name", Message: "is required"})
	}
	if !input.ProductCost.LessThan(cfg.MaxPrizeCost) {
		fieldErrors = append(fieldErrors, apperror.FieldError{
			Field:   "product_cost",
			Message: "must be less than " + cfg.MaxPrizeCost.StringFixed(2),
		})
	}
	if input.PointsRequired < 0 {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "points_required", Message: "must not be negative"})
	}
	if len(fieldErrors) > 0 {
		return nil, apperror.NewValidationError(fieldErrors)
	}

	points := input.PointsRequired
	if points == 0 {
		points = cfg.PointsForPrize
	}

	prize := &entity.Prize{
		ProductID:      input.ProductID,
		ProductName:    input.ProductName,
		ProductCost:    input.ProductCost,
		PointsRequired: points,
		Active:         true,
	}
	if err := s.rewards.CreatePrize(ctx, prize); err != nil {
		return nil, err
	}
	return prize, nil
}

// ListPrizes returns the active prizes, cheapest first
func (s *RewardsService) ListPrizes(ctx context.Context) ([]entity.Prize, error) {
	prizes, err := s.rewards.ListActivePrizes(ctx)
	return nonNil(prizes), err
}

// DeactivatePrize withdraws a prize from the catalogue
func (s *RewardsService) DeactivatePrize(ctx context.Context, id uuid.UUID) error {
	return s.rewards.DeactivatePrize(ctx, id)
}

func (s *RewardsService) getCustomer(ctx context.Context, id uuid.UUID) (*entity.Customer, error) {
	customer, err := s.customers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, apperror.NewNotFoundError("Customer")
	}
	return customer, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
