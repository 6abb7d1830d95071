package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sangkips/backoffice-api/internal/domain/entity"
	"github.com/sangkips/backoffice-api/internal/domain/enum"
	"github.com/sangkips/backoffice-api/internal/domain/event"
	"github.com/sangkips/backoffice-api/pkg/apperror"
)

func TestSettleScenarioInventory(t *testing.T) {
	f := newFixture(t)
	f.stock(t, "hamburguesa", "Hamburguesa", 10)

	saved, err := f.orders.CreateOrder(f.ctx, paidOrder(
		[]OrderItemInput{burger(2)},
		PaymentInput{Method: enum.PaymentMethodCash, Amount: money("31")},
	))
	require.NoError(t, err)
	require.NotNil(t, saved.Settlement)
	assert.Equal(t, SettleCompleted, saved.Settlement.Outcome)

	var movements []entity.InventoryMovement
	require.NoError(t, f.db.Where("product_id = ? AND direction = ?", "hamburguesa", enum.StockOut).Find(&movements).Error)
	require.Len(t, movements, 1)
	assert.Equal(t, 2, movements[0].Quantity)
	require.NotNil(t, movements[0].OrderID)
	assert.Equal(t, saved.Order.ID, *movements[0].OrderID)
	assert.Equal(t, 8, f.item(t, "hamburguesa").CurrentStock)
	assert.Equal(t, 1, f.publisher.published(event.OrderSettled))
}

func TestSettleScenarioSplitPayment(t *testing.T) {
	f := newFixture(t)
	f.stock(t, "hamburguesa", "Hamburguesa", 10)

	saved, err := f.orders.CreateOrder(f.ctx, paidOrder(
		[]OrderItemInput{burger(2)},
		PaymentInput{Method: enum.PaymentMethodYape, Amount: money("20")},
		PaymentInput{Method: enum.PaymentMethodCash, Amount: money("11")},
	))
	require.NoError(t, err)
	assert.True(t, money("31").Equal(saved.Order.Total))

	var credits []entity.AccountMovement
	require.NoError(t, f.db.Where("direction = ? AND source = ?", enum.Credit, enum.SourceSale).Find(&credits).Error)
	require.Len(t, credits, 2)

	total := money("0")
	for _, m := range credits {
		total = total.Add(m.Amount)
	}
	assert.True(t, money("31").Equal(total))
	assert.True(t, money("20").Equal(f.account(t, enum.AccountTypeYape).Balance))
	assert.True(t, money("11").Equal(f.account(t, enum.AccountTypeCash).Balance))
}

func TestSettleScenarioCardSurcharge(t *testing.T) {
	f := newFixture(t)
	f.stock(t, "alitas", "Alitas", 10)

	saved, err := f.orders.CreateOrder(f.ctx, paidOrder(
		[]OrderItemInput{{ProductID: "alitas", Name: "Alitas", UnitPrice: money("10"), Quantity: 2}},
		PaymentInput{Method: enum.PaymentMethodCard, Amount: money("20")},
	))
	require.NoError(t, err)

	steps := saved.Settlement.Settlement.Steps
	require.Len(t, steps, 3)
	assert.Equal(t, "surcharge:0", steps[2].Key)
	assert.True(t, money("1").Equal(steps[2].Amount))

	bank := f.account(t, enum.AccountTypeBank)
	assert.True(t, money("21").Equal(bank.Balance))
	assert.Equal(t, int64(2), f.count(t, &entity.AccountMovement{}, "account_id = ?", bank.ID))
}

func TestSettleScenarioExpiredReferralStillEarnsPurchasePoints(t *testing.T) {
	f := newFixture(t)
	f.stock(t, "hamburguesa", "Hamburguesa", 10)
	ana := f.member(t, "Ana", "987654321", nil)
	luis := f.member(t, "Luis", "912345678", ana)
	require.NoError(t, f.db.Model(&entity.Customer{}).Where("id = ?", luis.ID).
		Update("rewards_enabled_at", luis.RewardsEnabledAt.AddDate(0, 0, -20)).Error)

	input := paidOrder([]OrderItemInput{burger(2)}, PaymentInput{Method: enum.PaymentMethodPlin, Amount: money("31")})
	input.CustomerID = &luis.ID
	saved, err := f.orders.CreateOrder(f.ctx, input)
	require.NoError(t, err)
	assert.Equal(t, SettleCompleted, saved.Settlement.Outcome)

	assert.Equal(t, 1, f.customer(t, luis.ID).PurchasePoints)
	assert.Equal(t, 0, f.customer(t, ana.ID).ReferralPoints)
	assert.Equal(t, int64(0), f.count(t, &entity.RewardMovement{}, "type = ?", enum.RewardReferral))
	assert.Equal(t, int64(1), f.count(t, &entity.RewardMovement{}, "type = ? AND customer_id = ?", enum.RewardPurchase, luis.ID))
}

func TestSettleBestEffortFlagsShortStock(t *testing.T) {
	f := newFixture(t)
	f.stock(t, "papas", "Papas fritas", 1)

	saved, err := f.orders.CreateOrder(f.ctx, paidOrder(
		[]OrderItemInput{{ProductID: "papas", Name: "Papas fritas", UnitPrice: money("8"), Quantity: 3}},
		PaymentInput{Method: enum.PaymentMethodCash, Amount: money("24")},
	))
	require.NoError(t, err)
	assert.Equal(t, SettleNeedsReconciliation, saved.Settlement.Outcome)

	settlement := saved.Settlement.Settlement
	assert.Equal(t, enum.SettlementNeedsReconciliation, settlement.Status)
	assert.Equal(t, enum.StepFailed, settlement.Steps[0].Status)
	assert.Equal(t, enum.StepDone, settlement.Steps[1].Status)

	// the failed line wrote nothing, the payment still landed
	assert.Equal(t, 1, f.item(t, "papas").CurrentStock)
	assert.Equal(t, int64(1), f.count(t, &entity.InventoryMovement{}, "product_id = ?", "papas"))
	assert.True(t, money("24").Equal(f.account(t, enum.AccountTypeCash).Balance))

	kind := enum.AuditStepFailed
	events, err := f.audit.List(f.ctx, nil, &kind)
	require.NoError(t, err)
	assert.Equal(t, int64(1), events.Pagination.Total)
}

func TestSettleStrictPolicyRejectsShortStock(t *testing.T) {
	f := newFixture(t, withPolicy(enum.InventoryStrict))
	f.stock(t, "papas", "Papas fritas", 1)

	_, err := f.orders.CreateOrder(f.ctx, paidOrder(
		[]OrderItemInput{{ProductID: "papas", Name: "Papas fritas", UnitPrice: money("8"), Quantity: 3}},
		PaymentInput{Method: enum.PaymentMethodCash, Amount: money("24")},
	))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrInsufficientStock))

	assert.Equal(t, int64(0), f.count(t, &entity.Order{}, ""))
	assert.Equal(t, int64(0), f.count(t, &entity.Settlement{}, ""))
	assert.Equal(t, int64(0), f.count(t, &entity.AccountMovement{}, ""))
}

func TestSettleDuplicateClaimIsNoop(t *testing.T) {
	f := newFixture(t)
	f.stock(t, "hamburguesa", "Hamburguesa", 10)

	saved, err := f.orders.CreateOrder(f.ctx, paidOrder(
		[]OrderItemInput{burger(2)},
		PaymentInput{Method: enum.PaymentMethodCash, Amount: money("31")},
	))
	require.NoError(t, err)

	again, err := f.settlements.Settle(f.ctx, saved.Order)
	require.NoError(t, err)
	assert.Equal(t, SettleAlreadySettled, again.Outcome)
	assert.Equal(t, saved.Settlement.Settlement.ID, again.Settlement.ID)

	assert.Equal(t, 8, f.item(t, "hamburguesa").CurrentStock)
	assert.Equal(t, int64(1), f.count(t, &entity.AccountMovement{}, ""))

	kind := enum.AuditDuplicateSettlement
	events, err := f.audit.List(f.ctx, nil, &kind)
	require.NoError(t, err)
	assert.Equal(t, int64(1), events.Pagination.Total)
}

func TestSettleRetryCompletesOnceStockArrives(t *testing.T) {
	f := newFixture(t)
	f.stock(t, "papas", "Papas fritas", 1)

	saved, err := f.orders.CreateOrder(f.ctx, paidOrder(
		[]OrderItemInput{{ProductID: "papas", Name: "Papas fritas", UnitPrice: money("8"), Quantity: 3}},
		PaymentInput{Method: enum.PaymentMethodYape, Amount: money("24")},
	))
	require.NoError(t, err)
	id := saved.Settlement.Settlement.ID

	f.stock(t, "papas", "Papas fritas", 5)

	settlement, err := f.settlements.Retry(f.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, enum.SettlementCompleted, settlement.Status)
	assert.Equal(t, 2, settlement.Attempts)
	assert.Equal(t, 2, settlement.Steps[0].Attempts)
	assert.Equal(t, 1, settlement.Steps[1].Attempts)

	assert.Equal(t, 3, f.item(t, "papas").CurrentStock)
	assert.True(t, money("24").Equal(f.account(t, enum.AccountTypeYape).Balance))

	// a completed settlement is returned as is
	done, err := f.settlements.Retry(f.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, done.Attempts)
}

func TestSettleUnwindRestoresLedgers(t *testing.T) {
	f := newFixture(t)
	f.stock(t, "hamburguesa", "Hamburguesa", 10)
	ana := f.member(t, "Ana", "987654321", nil)

	input := paidOrder([]OrderItemInput{burger(2)}, PaymentInput{Method: enum.PaymentMethodCard, Amount: money("31")})
	input.CustomerID = &ana.ID
	saved, err := f.orders.CreateOrder(f.ctx, input)
	require.NoError(t, err)
	require.Equal(t, SettleCompleted, saved.Settlement.Outcome)
	assert.True(t, money("32.55").Equal(f.account(t, enum.AccountTypeBank).Balance))
	assert.Equal(t, 1, f.customer(t, ana.ID).PurchasePoints)

	settlement, err := f.settlements.Unwind(f.ctx, saved.Settlement.Settlement.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.SettlementUnwound, settlement.Status)
	for _, step := range settlement.Steps {
		assert.Equal(t, enum.StepReverted, step.Status, step.Key)
	}

	assert.Equal(t, 10, f.item(t, "hamburguesa").CurrentStock)
	bank := f.account(t, enum.AccountTypeBank)
	assert.True(t, bank.Balance.IsZero())
	assert.Equal(t, 0, f.customer(t, ana.ID).PurchasePoints)

	report, err := f.accounts.Reconcile(f.ctx, bank.ID)
	require.NoError(t, err)
	assert.True(t, report.Consistent)

	// unwinding twice changes nothing
	_, err = f.settlements.Unwind(f.ctx, settlement.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, f.item(t, "hamburguesa").CurrentStock)

	_, err = f.settlements.Retry(f.ctx, settlement.ID)
	assert.True(t, errors.Is(err, apperror.ErrConflict))
}

func TestSettleUnwindSkipsFailedSteps(t *testing.T) {
	f := newFixture(t)
	f.stock(t, "papas", "Papas fritas", 1)

	saved, err := f.orders.CreateOrder(f.ctx, paidOrder(
		[]OrderItemInput{{ProductID: "papas", Name: "Papas fritas", UnitPrice: money("8"), Quantity: 3}},
		PaymentInput{Method: enum.PaymentMethodCash, Amount: money("24")},
	))
	require.NoError(t, err)

	settlement, err := f.settlements.Unwind(f.ctx, saved.Settlement.Settlement.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.SettlementUnwound, settlement.Status)
	assert.Equal(t, enum.StepSkipped, settlement.Steps[0].Status)
	assert.Equal(t, enum.StepReverted, settlement.Steps[1].Status)

	assert.Equal(t, 1, f.item(t, "papas").CurrentStock)
	assert.True(t, f.account(t, enum.AccountTypeCash).Balance.IsZero())
}

func TestSettlePlan(t *testing.T) {
	f := newFixture(t)
	ana := f.member(t, "Ana", "987654321", nil)

	order := &entity.Order{
		Items: []entity.OrderItem{
			{ProductID: "hamburguesa", Name: "Hamburguesa", Quantity: 1},
			{ProductID: "caja-10", Name: "Caja Pack 10", Quantity: 1},
		},
		Total:      money("40"),
		CustomerID: &ana.ID,
		PaymentMethods: []entity.PaymentSplit{
			{Method: enum.PaymentMethodCard, Amount: money("10.10")},
			{Method: enum.PaymentMethodCash, Amount: money("0")},
			{Method: enum.PaymentMethodYape, Amount: money("29.90")},
		},
	}

	steps := f.settlements.Plan(order)
	keys := make([]string, 0, len(steps))
	for _, step := range steps {
		keys = append(keys, step.Key)
		assert.Equal(t, enum.StepPending, step.Status)
	}
	assert.Equal(t, []string{"inventory:hamburguesa", "payment:0", "surcharge:0", "payment:2", "rewards:" + ana.ID.String()}, keys)
	assert.True(t, money("0.51").Equal(steps[2].Amount))
	assert.Equal(t, 5, steps[4].Seq)
	assert.True(t, money("40.51").Equal(steps[4].Amount), steps[4].Amount.String())
}

func TestSettleCardSurchargeCountsTowardsPoints(t *testing.T) {
	f := newFixture(t)
	f.stock(t, "wrap", "Wrap de pollo", 3)
	ana := f.member(t, "Ana", "987654321", nil)

	wrap := OrderItemInput{ProductID: "wrap", Name: "Wrap de pollo", UnitPrice: money("14.50"), Quantity: 1}
	input := paidOrder([]OrderItemInput{wrap}, PaymentInput{Method: enum.PaymentMethodCard, Amount: money("14.50")})
	input.CustomerID = &ana.ID
	saved, err := f.orders.CreateOrder(f.ctx, input)
	require.NoError(t, err)
	require.Equal(t, SettleCompleted, saved.Settlement.Outcome)

	assert.True(t, money("15.23").Equal(f.account(t, enum.AccountTypeBank).Balance))
	assert.Equal(t, 1, f.customer(t, ana.ID).PurchasePoints)
}

func TestSettleList(t *testing.T) {
	f := newFixture(t)
	f.stock(t, "papas", "Papas fritas", 1)

	for _, line := range []struct {
		quantity int
		paid     string
	}{{1, "8"}, {3, "24"}} {
		_, err := f.orders.CreateOrder(f.ctx, paidOrder(
			[]OrderItemInput{{ProductID: "papas", Name: "Papas fritas", UnitPrice: money("8"), Quantity: line.quantity}},
			PaymentInput{Method: enum.PaymentMethodCash, Amount: money(line.paid)},
		))
		require.NoError(t, err)
	}

	status := enum.SettlementNeedsReconciliation
	page, err := f.settlements.List(f.ctx, nil, &status)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Pagination.Total)

	all, err := f.settlements.List(f.ctx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.Pagination.Total)
}
