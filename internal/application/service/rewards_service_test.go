package service

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sangkips/backoffice-api/internal/domain/entity"
	"github.com/sangkips/backoffice-api/internal/domain/enum"
	"github.com/sangkips/backoffice-api/pkg/apperror"
)

func purchase(customerID uuid.UUID, total string) PurchaseInput {
	return PurchaseInput{
		CustomerID:   customerID,
		OrderID:      uuid.New(),
		OrderTotal:   money(total),
		ProductNames: []string{"Hamburguesa"},
	}
}

func TestRewardsEnable(t *testing.T) {
	f := newFixture(t)
	ana := f.member(t, "Ana", "987654321", nil)
	assert.True(t, ana.RewardsEnabled)
	assert.NotNil(t, ana.RewardsEnabledAt)
	assert.False(t, ana.TermsAccepted)

	luis := f.member(t, "Luis", "912345678", ana)
	require.NotNil(t, luis.ReferentID)
	assert.Equal(t, ana.ID, *luis.ReferentID)

	// self reference is ignored
	self := f.member(t, "Rosa", "955555555", nil)
	again, err := f.rewards.Enable(f.ctx, self.ID, EnableRewardsInput{ReferentPhone: "955555555"})
	require.NoError(t, err)
	assert.Nil(t, again.ReferentID)
}

func TestRewardsEnableRequiresPhone(t *testing.T) {
	f := newFixture(t)
	customer, err := f.customers.CreateCustomer(f.ctx, &CreateCustomerInput{Name: "Sin Teléfono"})
	require.NoError(t, err)

	_, err = f.rewards.Enable(f.ctx, customer.ID, EnableRewardsInput{})
	assert.True(t, errors.Is(err, apperror.ErrCustomerNotEligible))
}

func TestRewardsAcceptTerms(t *testing.T) {
	f := newFixture(t)
	ana := f.member(t, "Ana", "987654321", nil)

	accepted, err := f.rewards.AcceptTerms(f.ctx, ana.ID)
	require.NoError(t, err)
	assert.True(t, accepted.TermsAccepted)
	assert.NotNil(t, accepted.TermsAcceptedAt)
}

func TestRewardsRecordPurchaseOutcomes(t *testing.T) {
	f := newFixture(t)
	ana := f.member(t, "Ana", "987654321", nil)
	guest, err := f.customers.CreateCustomer(f.ctx, &CreateCustomerInput{Name: "Invitado"})
	require.NoError(t, err)

	result, err := f.rewards.RecordPurchase(f.ctx, purchase(ana.ID, "14.99"))
	require.NoError(t, err)
	assert.Equal(t, PurchaseBelowMinimum, result.Outcome)

	result, err = f.rewards.RecordPurchase(f.ctx, purchase(guest.ID, "40"))
	require.NoError(t, err)
	assert.Equal(t, PurchaseNotEnrolled, result.Outcome)

	input := purchase(ana.ID, "15")
	result, err = f.rewards.RecordPurchase(f.ctx, input)
	require.NoError(t, err)
	assert.Equal(t, PurchaseRecorded, result.Outcome)
	assert.Equal(t, 1, result.Points)
	assert.Equal(t, ReferralNoReferent, result.Referral)

	result, err = f.rewards.RecordPurchase(f.ctx, input)
	require.NoError(t, err)
	assert.Equal(t, PurchaseAlreadyRecorded, result.Outcome)

	assert.Equal(t, 1, f.customer(t, ana.ID).PurchasePoints)
	assert.Equal(t, int64(1), f.count(t, &entity.RewardMovement{}, "customer_id = ?", ana.ID))
}

func TestRewardsReferralGrantedAtMostOnce(t *testing.T) {
	f := newFixture(t)
	ana := f.member(t, "Ana", "987654321", nil)
	luis := f.member(t, "Luis", "912345678", ana)

	result, err := f.rewards.RecordPurchase(f.ctx, purchase(luis.ID, "20"))
	require.NoError(t, err)
	assert.Equal(t, ReferralGranted, result.Referral)

	for i := 0; i < 3; i++ {
		result, err = f.rewards.RecordPurchase(f.ctx, purchase(luis.ID, "20"))
		require.NoError(t, err)
		assert.Equal(t, PurchaseRecorded, result.Outcome)
		assert.Equal(t, ReferralDuplicate, result.Referral)
	}

	referrer := f.customer(t, ana.ID)
	assert.Equal(t, 1, referrer.ReferralPoints)
	assert.Equal(t, 1, referrer.ReferralCount)
	assert.Equal(t, int64(1), f.count(t, &entity.RewardMovement{}, "type = ? AND referred_customer_id = ?", enum.RewardReferral, luis.ID))
	assert.Equal(t, int64(1), f.count(t, &entity.ReferralGrant{}, ""))
	assert.Equal(t, 4, f.customer(t, luis.ID).PurchasePoints)

	kind := enum.AuditDuplicateReferral
	events, err := f.audit.List(f.ctx, nil, &kind)
	require.NoError(t, err)
	assert.Equal(t, int64(3), events.Pagination.Total)
}

func TestRewardsReferralWindowExpired(t *testing.T) {
	f := newFixture(t)
	ana := f.member(t, "Ana", "987654321", nil)
	luis := f.member(t, "Luis", "912345678", ana)

	enrolled := time.Now().AddDate(0, 0, -20)
	require.NoError(t, f.db.Model(&entity.Customer{}).Where("id = ?", luis.ID).Update("rewards_enabled_at", enrolled).Error)

	result, err := f.rewards.RecordPurchase(f.ctx, purchase(luis.ID, "25"))
	require.NoError(t, err)
	assert.Equal(t, PurchaseRecorded, result.Outcome)
	assert.Equal(t, ReferralWindowExpired, result.Referral)

	assert.Equal(t, 1, f.customer(t, luis.ID).PurchasePoints)
	assert.Equal(t, 0, f.customer(t, ana.ID).ReferralPoints)
	assert.Equal(t, int64(0), f.count(t, &entity.RewardMovement{}, "type = ?", enum.RewardReferral))
}

func TestRewardsReferralWindowBoundary(t *testing.T) {
	day := 24 * time.Hour
	tests := []struct {
		name    string
		elapsed time.Duration
		want    ReferralOutcome
	}{
		{"last day still open", 15*day + 6*time.Hour, ReferralGranted},
		{"day after window", 16*day + time.Hour, ReferralWindowExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ana := f.member(t, "Ana", "987654321", nil)
			luis := f.member(t, "Luis", "912345678", ana)

			enrolled := time.Now().Add(-tt.elapsed)
			require.NoError(t, f.db.Model(&entity.Customer{}).Where("id = ?", luis.ID).Update("rewards_enabled_at", enrolled).Error)

			result, err := f.rewards.RecordPurchase(f.ctx, purchase(luis.ID, "25"))
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Referral)
		})
	}
}

func TestReferralWindowOpen(t *testing.T) {
	enrolled := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, referralWindowOpen(enrolled, enrolled.Add(15*24*time.Hour+23*time.Hour), 15))
	assert.False(t, referralWindowOpen(enrolled, enrolled.Add(16*24*time.Hour), 15))
	assert.Equal(t, enrolled.Add(16*24*time.Hour), referralDeadline(enrolled, 15))
}

func TestRewardsReferralMonthlyCap(t *testing.T) {
	f := newFixture(t)
	limit := 1
	_, err := f.rewards.UpdateConfig(f.ctx, UpdateRewardsConfigInput{MaxReferralsPerMonth: &limit})
	require.NoError(t, err)

	ana := f.member(t, "Ana", "987654321", nil)
	luis := f.member(t, "Luis", "912345678", ana)
	rosa := f.member(t, "Rosa", "955555555", ana)

	result, err := f.rewards.RecordPurchase(f.ctx, purchase(luis.ID, "30"))
	require.NoError(t, err)
	assert.Equal(t, ReferralGranted, result.Referral)

	result, err = f.rewards.RecordPurchase(f.ctx, purchase(rosa.ID, "30"))
	require.NoError(t, err)
	assert.Equal(t, ReferralMonthlyCap, result.Referral)

	assert.Equal(t, 1, f.customer(t, ana.ID).ReferralPoints)
}

func TestRewardsUpdateConfigValidation(t *testing.T) {
	f := newFixture(t)
	zero := 0

	_, err := f.rewards.UpdateConfig(f.ctx, UpdateRewardsConfigInput{PointsForPrize: &zero})
	assert.True(t, errors.Is(err, apperror.NewValidationError(nil)))

	cfg, err := f.rewards.GetConfig(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.PointsForPrize)
}

func TestRewardsRedeemSpendsPurchasePointsFirst(t *testing.T) {
	f := newFixture(t)
	ana := f.member(t, "Ana", "987654321", nil)
	require.NoError(t, f.db.Model(&entity.Customer{}).Where("id = ?", ana.ID).
		Updates(map[string]any{"purchase_points": 4, "referral_points": 3}).Error)

	prize, err := f.rewards.CreatePrize(f.ctx, CreatePrizeInput{ProductID: "milkshake", ProductName: "Milkshake", ProductCost: money("9.90")})
	require.NoError(t, err)
	assert.Equal(t, 6, prize.PointsRequired)

	result, err := f.rewards.Redeem(f.ctx, RedeemInput{CustomerID: ana.ID, PrizeID: prize.ID})
	require.NoError(t, err)
	assert.Equal(t, 4, result.Redemption.PurchasePointsUsed)
	assert.Equal(t, 2, result.Redemption.ReferralPointsUsed)
	assert.False(t, result.SuperPrizeUnlocked)

	stored := f.customer(t, ana.ID)
	assert.Equal(t, 0, stored.PurchasePoints)
	assert.Equal(t, 1, stored.ReferralPoints)

	_, err = f.rewards.Redeem(f.ctx, RedeemInput{CustomerID: ana.ID, PrizeID: prize.ID})
	assert.True(t, errors.Is(err, apperror.ErrInsufficientPoints))
}

func TestRewardsSuperPrizeUnlock(t *testing.T) {
	f := newFixture(t)
	ana := f.member(t, "Ana", "987654321", nil)
	require.NoError(t, f.db.Model(&entity.Customer{}).Where("id = ?", ana.ID).Update("purchase_points", 30).Error)

	prize, err := f.rewards.CreatePrize(f.ctx, CreatePrizeInput{ProductID: "papas", ProductName: "Papas grandes", ProductCost: money("6")})
	require.NoError(t, err)

	var last *RedemptionResult
	for i := 0; i < 4; i++ {
		last, err = f.rewards.Redeem(f.ctx, RedeemInput{CustomerID: ana.ID, PrizeID: prize.ID})
		require.NoError(t, err)
		if i == 2 {
			assert.True(t, last.SuperPrizeUnlocked)
			require.NotNil(t, last.SuperPrize)
			assert.Equal(t, 3, last.SuperPrize.RedemptionsCount)
		}
	}
	// an open period is not reopened
	assert.False(t, last.SuperPrizeUnlocked)
	assert.Equal(t, int64(1), f.count(t, &entity.SuperPrizeControl{}, "customer_id = ?", ana.ID))
}

func TestRewardsCreatePrizeCostCap(t *testing.T) {
	f := newFixture(t)

	_, err := f.rewards.CreatePrize(f.ctx, CreatePrizeInput{ProductID: "combo", ProductName: "Combo", ProductCost: money("12")})
	assert.True(t, errors.Is(err, apperror.NewValidationError(nil)))

	prize, err := f.rewards.CreatePrize(f.ctx, CreatePrizeInput{ProductID: "helado", ProductName: "Helado", ProductCost: money("5"), PointsRequired: 4})
	require.NoError(t, err)
	require.NoError(t, f.rewards.DeactivatePrize(f.ctx, prize.ID))

	prizes, err := f.rewards.ListPrizes(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, prizes)
}

func TestRewardsSearch(t *testing.T) {
	f := newFixture(t)
	ana := f.member(t, "Ana Torres", "987654321", nil)
	luis := f.member(t, "Luis", "912345678", ana)
	_, err := f.rewards.RecordPurchase(f.ctx, purchase(ana.ID, "20"))
	require.NoError(t, err)

	profile, err := f.rewards.Search(f.ctx, "987654321")
	require.NoError(t, err)
	assert.Equal(t, ana.ID, profile.Customer.ID)
	assert.Equal(t, 1, profile.TotalPoints)
	assert.False(t, profile.CanRedeem)
	assert.Len(t, profile.Movements, 1)
	require.Len(t, profile.ReferredCustomers, 1)
	require.Len(t, profile.ReferralExpirations, 1)
	assert.Equal(t, luis.ID, profile.ReferralExpirations[0].CustomerID)

	byName, err := f.rewards.Search(f.ctx, "torres")
	require.NoError(t, err)
	assert.Equal(t, ana.ID, byName.Customer.ID)

	_, err = f.rewards.Search(f.ctx, "000000000")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestRewardsReversePurchase(t *testing.T) {
	f := newFixture(t)
	ana := f.member(t, "Ana", "987654321", nil)
	input := purchase(ana.ID, "20")
	_, err := f.rewards.RecordPurchase(f.ctx, input)
	require.NoError(t, err)

	reversal, err := f.rewards.ReversePurchase(f.ctx, input.OrderID, "unwind:step")
	require.NoError(t, err)
	require.NotNil(t, reversal)
	assert.Equal(t, -1, reversal.Points)

	again, err := f.rewards.ReversePurchase(f.ctx, input.OrderID, "unwind:step")
	require.NoError(t, err)
	assert.Equal(t, reversal.ID, again.ID)
	assert.Equal(t, 0, f.customer(t, ana.ID).PurchasePoints)

	none, err := f.rewards.ReversePurchase(f.ctx, uuid.New(), "unwind:other")
	require.NoError(t, err)
	assert.Nil(t, none)
}
