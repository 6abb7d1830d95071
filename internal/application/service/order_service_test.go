package service

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sangkips/backoffice-api/internal/domain/entity"
	"github.com/sangkips/backoffice-api/internal/domain/enum"
	"github.com/sangkips/backoffice-api/internal/domain/repository"
	"github.com/sangkips/backoffice-api/pkg/apperror"
)

func openOrder(items ...OrderItemInput) *SaveOrderInput {
	return &SaveOrderInput{
		OrderType:     enum.OrderTypeTable,
		TableNumber:   "2",
		Items:         items,
		Status:        enum.OrderStatusOpen,
		PaymentStatus: enum.PaymentStatusUnpaid,
	}
}

func TestLineSubtotal(t *testing.T) {
	tests := []struct {
		name string
		item entity.OrderItem
		want string
	}{
		{"plain", entity.OrderItem{Name: "Hamburguesa", UnitPrice: money("15.50"), Quantity: 2}, "31"},
		{
			"with extras",
			entity.OrderItem{
				Name:      "Hamburguesa",
				UnitPrice: money("15.50"),
				Quantity:  1,
				Extras: []entity.OrderItemExtra{
					{Name: "Queso", Price: money("2"), Quantity: 2},
					{Name: "Tocino", Price: money("3.50")},
				},
			},
			"23",
		},
		{
			"extras repeat per unit",
			entity.OrderItem{
				Name:      "Hamburguesa",
				UnitPrice: money("15.50"),
				Quantity:  2,
				Extras:    []entity.OrderItemExtra{{Name: "Queso", Price: money("2"), Quantity: 1}},
			},
			"35",
		},
		{"pack box per container", entity.OrderItem{Name: "Caja Pack 10", UnitPrice: money("10"), Quantity: 2}, "20"},
		{"pack box ignores menu price", entity.OrderItem{ProductID: "caja pack 10", UnitPrice: money("1.50"), Quantity: 4}, "40"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, money(tt.want).Equal(lineSubtotal(tt.item)), lineSubtotal(tt.item).String())
		})
	}
}

func TestCreateOrderComputesTotals(t *testing.T) {
	f := newFixture(t)

	input := openOrder(burger(2), OrderItemInput{ProductID: "gaseosa", Name: "Gaseosa", UnitPrice: money("4"), Quantity: 1})
	input.Discount = money("5")
	saved, err := f.orders.CreateOrder(f.ctx, input)
	require.NoError(t, err)
	assert.Nil(t, saved.Settlement)

	order := saved.Order
	assert.True(t, money("35").Equal(order.Subtotal))
	assert.True(t, money("30").Equal(order.Total))
	assert.Equal(t, 1, order.Version)
	assert.Nil(t, order.ClosedAt)
	assert.Equal(t, int64(0), f.count(t, &entity.Settlement{}, ""))
}

func TestCreateOrderValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		mutate func(*SaveOrderInput)
		field  string
	}{
		{"no items", func(in *SaveOrderInput) { in.Items = nil }, "items"},
		{"unknown type", func(in *SaveOrderInput) { in.OrderType = "Drive" }, "order_type"},
		{"discount above subtotal", func(in *SaveOrderInput) { in.Discount = money("100") }, "discount"},
		{"negative discount", func(in *SaveOrderInput) { in.Discount = money("-1") }, "discount"},
		{"zero quantity", func(in *SaveOrderInput) { in.Items[0].Quantity = 0 }, "items[0].quantity"},
		{"unknown customer", func(in *SaveOrderInput) { id := uuid.New(); in.CustomerID = &id }, "customer_id"},
		{"paid short", func(in *SaveOrderInput) {
			in.PaymentStatus = enum.PaymentStatusPaid
			in.PaymentMethods = []PaymentInput{{Method: enum.PaymentMethodCash, Amount: money("10")}}
		}, "payment_methods"},
		{"cash received below amount", func(in *SaveOrderInput) {
			received := money("20")
			in.PaymentMethods = []PaymentInput{{Method: enum.PaymentMethodCash, Amount: money("31"), CashReceived: &received}}
		}, "payment_methods[0].cash_received"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := openOrder(burger(2))
			tt.mutate(input)

			_, err := f.orders.CreateOrder(f.ctx, input)
			require.Error(t, err)
			appErr := apperror.GetAppError(err)
			require.Equal(t, apperror.KindValidation, appErr.Kind)

			fields := make([]string, 0, len(appErr.Errors))
			for _, fe := range appErr.Errors {
				fields = append(fields, fe.Field)
			}
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestCreateOrderCashChange(t *testing.T) {
	f := newFixture(t)
	received := money("50")

	saved, err := f.orders.CreateOrder(f.ctx, paidOrder(
		[]OrderItemInput{burger(2)},
		PaymentInput{Method: enum.PaymentMethodCash, Amount: money("31"), CashReceived: &received},
	))
	require.NoError(t, err)
	require.NotNil(t, saved.Order.PaymentMethods[0].Change)
	assert.True(t, money("19").Equal(*saved.Order.PaymentMethods[0].Change))
}

func TestRappiDeliveryForcesPaidTransfer(t *testing.T) {
	f := newFixture(t)
	f.stock(t, "hamburguesa", "Hamburguesa", 5)

	input := openOrder(burger(1))
	input.OrderType = enum.OrderTypeDeliveryRappi
	input.PaymentMethods = []PaymentInput{{Method: enum.PaymentMethodCash, Amount: money("15.50")}}

	saved, err := f.orders.CreateOrder(f.ctx, input)
	require.NoError(t, err)

	order := saved.Order
	assert.Equal(t, enum.OrderStatusClosed, order.Status)
	assert.Equal(t, enum.PaymentStatusPaid, order.PaymentStatus)
	require.Len(t, order.PaymentMethods, 1)
	assert.Equal(t, enum.PaymentMethodRappiTransfer, order.PaymentMethods[0].Method)
	assert.NotNil(t, order.ClosedAt)

	require.NotNil(t, saved.Settlement)
	assert.True(t, money("15.50").Equal(f.account(t, enum.AccountTypeBank).Balance))
	assert.True(t, f.account(t, enum.AccountTypeCash).Balance.IsZero())
}

func TestSaveOrderSettlesOnClosingEdgeOnly(t *testing.T) {
	f := newFixture(t)
	f.stock(t, "hamburguesa", "Hamburguesa", 10)

	created, err := f.orders.CreateOrder(f.ctx, openOrder(burger(2)))
	require.NoError(t, err)

	// closed but unpaid is not chargeable
	input := openOrder(burger(2))
	input.ID = created.Order.ID
	input.Version = 1
	input.Status = enum.OrderStatusClosed
	saved, err := f.orders.SaveOrder(f.ctx, input)
	require.NoError(t, err)
	assert.Nil(t, saved.Settlement)

	input.Version = saved.Order.Version
	input.PaymentStatus = enum.PaymentStatusPaid
	input.PaymentMethods = []PaymentInput{{Method: enum.PaymentMethodYape, Amount: money("31")}}
	saved, err = f.orders.SaveOrder(f.ctx, input)
	require.NoError(t, err)
	require.NotNil(t, saved.Settlement)
	assert.Equal(t, SettleCompleted, saved.Settlement.Outcome)
	assert.Equal(t, 3, saved.Order.Version)

	// re-saving an already settled order adds no movements
	input.Version = saved.Order.Version
	input.Notes = "sin cebolla"
	resaved, err := f.orders.SaveOrder(f.ctx, input)
	require.NoError(t, err)
	assert.Nil(t, resaved.Settlement)

	assert.Equal(t, 8, f.item(t, "hamburguesa").CurrentStock)
	assert.Equal(t, int64(1), f.count(t, &entity.InventoryMovement{}, "direction = ?", enum.StockOut))
	assert.Equal(t, int64(1), f.count(t, &entity.AccountMovement{}, ""))
	assert.True(t, money("31").Equal(f.account(t, enum.AccountTypeYape).Balance))
}

func TestSaveOrderStaleVersionConflicts(t *testing.T) {
	f := newFixture(t)
	f.stock(t, "hamburguesa", "Hamburguesa", 10)

	created, err := f.orders.CreateOrder(f.ctx, openOrder(burger(2)))
	require.NoError(t, err)

	closing := paidOrder([]OrderItemInput{burger(2)}, PaymentInput{Method: enum.PaymentMethodCash, Amount: money("31")})
	closing.ID = created.Order.ID
	closing.Version = 1

	_, err = f.orders.SaveOrder(f.ctx, closing)
	require.NoError(t, err)

	// a second terminal still holding version 1 cannot settle again
	_, err = f.orders.SaveOrder(f.ctx, closing)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrConcurrencyConflict))

	assert.Equal(t, int64(1), f.count(t, &entity.Settlement{}, ""))
	assert.Equal(t, 8, f.item(t, "hamburguesa").CurrentStock)
}

func TestVoidOrder(t *testing.T) {
	f := newFixture(t)

	created, err := f.orders.CreateOrder(f.ctx, openOrder(burger(1)))
	require.NoError(t, err)

	voided, err := f.orders.VoidOrder(f.ctx, created.Order.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, enum.OrderStatusVoided, voided.Status)
	assert.Equal(t, 2, voided.Version)

	input := openOrder(burger(1))
	input.ID = created.Order.ID
	input.Version = voided.Version
	_, err = f.orders.SaveOrder(f.ctx, input)
	assert.True(t, errors.Is(err, apperror.ErrOrderVoided))

	assert.Equal(t, int64(0), f.count(t, &entity.InventoryMovement{}, ""))
	assert.Equal(t, int64(0), f.count(t, &entity.AccountMovement{}, ""))
}

func TestVoidSettledOrderRequiresUnwind(t *testing.T) {
	f := newFixture(t)
	f.stock(t, "hamburguesa", "Hamburguesa", 10)

	saved, err := f.orders.CreateOrder(f.ctx, paidOrder(
		[]OrderItemInput{burger(2)},
		PaymentInput{Method: enum.PaymentMethodCash, Amount: money("31")},
	))
	require.NoError(t, err)

	_, err = f.orders.VoidOrder(f.ctx, saved.Order.ID, saved.Order.Version)
	assert.True(t, errors.Is(err, apperror.ErrConflict))

	_, err = f.settlements.Unwind(f.ctx, saved.Settlement.Settlement.ID)
	require.NoError(t, err)

	voided, err := f.orders.VoidOrder(f.ctx, saved.Order.ID, saved.Order.Version)
	require.NoError(t, err)
	assert.True(t, voided.IsVoided())
	assert.Equal(t, 10, f.item(t, "hamburguesa").CurrentStock)
}

func TestListOrders(t *testing.T) {
	f := newFixture(t)
	f.stock(t, "hamburguesa", "Hamburguesa", 10)

	_, err := f.orders.CreateOrder(f.ctx, openOrder(burger(1)))
	require.NoError(t, err)
	_, err = f.orders.CreateOrder(f.ctx, paidOrder([]OrderItemInput{burger(1)}, PaymentInput{Method: enum.PaymentMethodCash, Amount: money("15.50")}))
	require.NoError(t, err)

	paid := enum.PaymentStatusPaid
	page, err := f.orders.ListOrders(f.ctx, &repository.OrderFilterParams{PaymentStatus: &paid})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.True(t, decimal.RequireFromString("15.50").Equal(page.Items[0].Total))
}
