package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sangkips/backoffice-api/internal/domain/entity"
	"github.com/sangkips/backoffice-api/internal/domain/enum"
	"github.com/sangkips/backoffice-api/internal/domain/event"
	"github.com/sangkips/backoffice-api/internal/infrastructure/database"
	infraRepo "github.com/sangkips/backoffice-api/internal/infrastructure/repository"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, change event.Change) error {
	args := m.Called(ctx, change)
	return args.Error(0)
}

func (m *mockPublisher) published(t event.Type) int {
	n := 0
	for _, call := range m.Calls {
		if change, ok := call.Arguments.Get(1).(event.Change); ok && change.Type == t {
			n++
		}
	}
	return n
}

type fixture struct {
	db          *gorm.DB
	ctx         context.Context
	publisher   *mockPublisher
	audit       *AuditService
	inventory   *InventoryService
	accounts    *AccountService
	rewards     *RewardsService
	customers   *CustomerService
	settlements *SettlementService
	orders      *OrderService
}

type fixtureOption func(*SettlementConfig, *InventoryConfig)

func withPolicy(policy enum.InventoryPolicy) fixtureOption {
	return func(cfg *SettlementConfig, _ *InventoryConfig) {
		cfg.InventoryPolicy = policy
	}
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()

	log := zap.NewNop()
	db, err := database.NewSQLiteDB(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()), log)
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db, log))
	require.NoError(t, database.SeedDefaultData(db, log))

	settlementCfg := SettlementConfig{
		InventoryPolicy:   enum.InventoryBestEffort,
		CardSurchargeRate: decimal.RequireFromString("0.05"),
	}
	inventoryCfg := InventoryConfig{
		DefaultMinStock:  2,
		DefaultMaxStock:  100,
		ExcludedSKUs:     []string{"Caja Pack 10"},
		MaxCommitRetries: 5,
	}
	for _, opt := range opts {
		opt(&settlementCfg, &inventoryCfg)
	}

	publisher := &mockPublisher{}
	publisher.On("Publish", mock.Anything, mock.Anything).Return(nil).Maybe()

	customerRepo := infraRepo.NewCustomerRepository(db)
	orderRepo := infraRepo.NewOrderRepository(db)

	f := &fixture{db: db, publisher: publisher}
	f.ctx = infraRepo.WithActor(context.Background(), infraRepo.Actor{ID: uuid.New(), Email: "cajero@example.com"})
	f.audit = NewAuditService(infraRepo.NewAuditRepository(db), nil, log)
	f.inventory = NewInventoryService(infraRepo.NewInventoryRepository(db), f.audit, publisher, inventoryCfg, log)
	f.accounts = NewAccountService(infraRepo.NewAccountRepository(db), f.audit, publisher, 5, log)
	f.rewards = NewRewardsService(customerRepo, infraRepo.NewRewardsRepository(db), f.audit, publisher, 5, log)
	f.customers = NewCustomerService(customerRepo)
	f.settlements = NewSettlementService(
		infraRepo.NewSettlementRepository(db), orderRepo,
		f.inventory, f.accounts, f.rewards, f.audit, publisher, nil,
		settlementCfg, log,
	)
	f.orders = NewOrderService(orderRepo, customerRepo, f.settlements, log)
	return f
}

func (f *fixture) stock(t *testing.T, productID, name string, quantity int) {
	t.Helper()
	_, err := f.inventory.Commit(f.ctx, StockMovementInput{
		ProductID:   productID,
		ProductName: name,
		Direction:   enum.StockIn,
		Quantity:    quantity,
		Reason:      "Ingreso de mercadería",
	})
	require.NoError(t, err)
}

func (f *fixture) item(t *testing.T, productID string) *entity.InventoryItem {
	t.Helper()
	var item entity.InventoryItem
	require.NoError(t, f.db.First(&item, "product_id = ?", productID).Error)
	return &item
}

func (f *fixture) account(t *testing.T, accountType enum.AccountType) *entity.Account {
	t.Helper()
	var account entity.Account
	require.NoError(t, f.db.First(&account, "type = ?", accountType).Error)
	return &account
}

func (f *fixture) customer(t *testing.T, id uuid.UUID) *entity.Customer {
	t.Helper()
	var customer entity.Customer
	require.NoError(t, f.db.First(&customer, "id = ?", id).Error)
	return &customer
}

func (f *fixture) count(t *testing.T, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	q := f.db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

// member creates a customer enrolled in rewards, optionally referred by referrer.
func (f *fixture) member(t *testing.T, name, phone string, referrer *entity.Customer) *entity.Customer {
	t.Helper()
	customer, err := f.customers.CreateCustomer(f.ctx, &CreateCustomerInput{Name: name, Phone: &phone})
	require.NoError(t, err)

	input := EnableRewardsInput{}
	if referrer != nil {
		input.ReferentPhone = *referrer.Phone
		input.ReferentName = referrer.Name
	}
	enrolled, err := f.rewards.Enable(f.ctx, customer.ID, input)
	require.NoError(t, err)
	return enrolled
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func paidOrder(items []OrderItemInput, payments ...PaymentInput) *SaveOrderInput {
	return &SaveOrderInput{
		OrderType:      enum.OrderTypeTable,
		TableNumber:    "4",
		Items:          items,
		Discount:       decimal.Zero,
		Status:         enum.OrderStatusClosed,
		PaymentStatus:  enum.PaymentStatusPaid,
		PaymentMethods: payments,
	}
}

func burger(quantity int) OrderItemInput {
	return OrderItemInput{
		ProductID: "hamburguesa",
		Name:      "Hamburguesa",
		UnitPrice: money("15.50"),
		Quantity:  quantity,
	}
}
