package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sangkips/backoffice-api/internal/application/service"
	"github.com/sangkips/backoffice-api/internal/config"
	"github.com/sangkips/backoffice-api/internal/domain/entity"
	"github.com/sangkips/backoffice-api/internal/domain/enum"
	"github.com/sangkips/backoffice-api/internal/infrastructure/database"
	"github.com/sangkips/backoffice-api/internal/infrastructure/notification"
	infraRepo "github.com/sangkips/backoffice-api/internal/infrastructure/repository"
	"github.com/sangkips/backoffice-api/internal/presentation/http/handler"
	"github.com/sangkips/backoffice-api/internal/presentation/http/middleware"
	"github.com/sangkips/backoffice-api/pkg/apperror"
	"github.com/sangkips/backoffice-api/pkg/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	db     *gorm.DB
	jwt    *utils.JWTManager
}

type envelope struct {
	Success bool                  `json:"success"`
	Message string                `json:"message"`
	Data    json.RawMessage       `json:"data"`
	Error   apperror.Kind         `json:"error"`
	Errors  []apperror.FieldError `json:"errors"`
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	log := zap.NewNop()
	db, err := database.NewSQLiteDB(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()), log)
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db, log))
	require.NoError(t, database.SeedDefaultData(db, log))
	sqlDB, err := db.DB()
	require.NoError(t, err)

	publisher := notification.NopPublisher{}
	customerRepo := infraRepo.NewCustomerRepository(db)
	orderRepo := infraRepo.NewOrderRepository(db)

	audit := service.NewAuditService(infraRepo.NewAuditRepository(db), nil, log)
	inventory := service.NewInventoryService(infraRepo.NewInventoryRepository(db), audit, publisher, service.InventoryConfig{
		DefaultMinStock:  2,
		DefaultMaxStock:  100,
		ExcludedSKUs:     []string{"Caja Pack 10"},
		MaxCommitRetries: 5,
	}, log)
	accounts := service.NewAccountService(infraRepo.NewAccountRepository(db), audit, publisher, 5, log)
	rewards := service.NewRewardsService(customerRepo, infraRepo.NewRewardsRepository(db), audit, publisher, 5, log)
	settlements := service.NewSettlementService(
		infraRepo.NewSettlementRepository(db), orderRepo,
		inventory, accounts, rewards, audit, publisher, nil,
		service.SettlementConfig{
			InventoryPolicy:   enum.InventoryBestEffort,
			CardSurchargeRate: decimal.RequireFromString("0.05"),
		}, log,
	)
	orders := service.NewOrderService(orderRepo, customerRepo, settlements, log)

	cfg := &config.Config{App: config.AppConfig{Name: "backoffice-api"}}
	jwtManager := utils.NewJWTManager("test-secret", "backoffice-api", time.Hour)

	router := Setup(&Handlers{
		Health:     handler.NewHealthHandler(cfg.App.Name, sqlDB),
		Order:      handler.NewOrderHandler(orders, settlements),
		Settlement: handler.NewSettlementHandler(settlements),
		Inventory:  handler.NewInventoryHandler(inventory),
		Account:    handler.NewAccountHandler(accounts),
		Customer:   handler.NewCustomerHandler(service.NewCustomerService(customerRepo)),
		Rewards:    handler.NewRewardsHandler(rewards),
		Audit:      handler.NewAuditHandler(audit),
	}, &Deps{
		JWTManager:      jwtManager,
		Cfg:             cfg,
		IdempotencyRepo: infraRepo.NewIdempotencyRepository(db),
		Logger:          log,
	})

	return &testServer{router: router, db: db, jwt: jwtManager}
}

func (s *testServer) token(t *testing.T, roles ...string) string {
	t.Helper()
	token, err := s.jwt.GenerateAccessToken(uuid.New(), "cajero@example.com", roles)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, body any, headers ...string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w, env
}

func (s *testServer) stock(t *testing.T, token, productID string, quantity int) {
	t.Helper()
	w, _ := s.do(t, http.MethodPost, "/api/v1/inventory/movements", token, gin.H{
		"product_id":   productID,
		"product_name": "Hamburguesa",
		"direction":    "in",
		"quantity":     quantity,
		"reason":       "Ingreso de mercadería",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func burgerOrder(quantity int, amount string) gin.H {
	return gin.H{
		"order_type":     "Mesa",
		"table_number":   "4",
		"status":         "Closed",
		"payment_status": "Paid",
		"items": []gin.H{{
			"product_id": "hamburguesa",
			"name":       "Hamburguesa",
			"unit_price": "15.50",
			"quantity":   quantity,
		}},
		"payment_methods": []gin.H{{"method": "Efectivo", "amount": amount}},
	}
}

type savedOrder struct {
	Order      entity.Order          `json:"order"`
	Settlement *service.SettleResult `json:"settlement"`
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(t, http.MethodGet, "/api/v1/orders", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, apperror.KindUnauthorized, env.Error)

	w, _ = s.do(t, http.MethodGet, "/api/v1/orders", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	other := utils.NewJWTManager("test-secret", "someone-else", time.Hour)
	foreign, err := other.GenerateAccessToken(uuid.New(), "x@example.com", nil)
	require.NoError(t, err)
	w, _ = s.do(t, http.MethodGet, "/api/v1/orders", foreign, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateSettledOrder(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, utils.RoleCashier)
	s.stock(t, token, "hamburguesa", 5)

	w, env := s.do(t, http.MethodPost, "/api/v1/orders", token, burgerOrder(2, "31"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.True(t, env.Success)

	var saved savedOrder
	require.NoError(t, json.Unmarshal(env.Data, &saved))
	assert.True(t, saved.Order.Total.Equal(decimal.NewFromInt(31)))
	require.NotNil(t, saved.Settlement)
	assert.Equal(t, service.SettleCompleted, saved.Settlement.Outcome)

	w, env = s.do(t, http.MethodGet, "/api/v1/orders/"+saved.Order.ID.String()+"/settlement", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var settlement entity.Settlement
	require.NoError(t, json.Unmarshal(env.Data, &settlement))
	assert.Equal(t, enum.SettlementCompleted, settlement.Status)

	var cash entity.Account
	require.NoError(t, s.db.First(&cash, "type = ?", enum.AccountTypeCash).Error)
	assert.True(t, cash.Balance.Equal(decimal.NewFromInt(31)), cash.Balance.String())

	var item entity.InventoryItem
	require.NoError(t, s.db.First(&item, "product_id = ?", "hamburguesa").Error)
	assert.Equal(t, 3, item.CurrentStock)
}

func TestCreateOrderValidation(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, utils.RoleCashier)

	body := burgerOrder(1, "15.50")
	body["discount"] = "20"

	w, env := s.do(t, http.MethodPost, "/api/v1/orders", token, body)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, apperror.KindValidation, env.Error)

	fields := make([]string, 0, len(env.Errors))
	for _, e := range env.Errors {
		fields = append(fields, e.Field)
	}
	assert.Contains(t, fields, "discount")

	w, env = s.do(t, http.MethodPost, "/api/v1/orders", token, gin.H{"order_type": "Mesa"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperror.KindBadRequest, env.Error)
}

func TestCreateOrderIdempotencyKey(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, utils.RoleCashier)
	s.stock(t, token, "hamburguesa", 5)

	key := uuid.NewString()
	first, firstEnv := s.do(t, http.MethodPost, "/api/v1/orders", token, burgerOrder(1, "15.50"), middleware.IdempotencyKeyHeader, key)
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())

	second, secondEnv := s.do(t, http.MethodPost, "/api/v1/orders", token, burgerOrder(1, "15.50"), middleware.IdempotencyKeyHeader, key)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get(middleware.IdempotencyReplayedHeader))
	assert.JSONEq(t, string(firstEnv.Data), string(secondEnv.Data))

	var orders int64
	require.NoError(t, s.db.Model(&entity.Order{}).Count(&orders).Error)
	assert.Equal(t, int64(1), orders)

	reused, env := s.do(t, http.MethodPost, "/api/v1/orders", token, burgerOrder(2, "31"), middleware.IdempotencyKeyHeader, key)
	assert.Equal(t, http.StatusUnprocessableEntity, reused.Code)
	assert.Equal(t, apperror.KindConflict, env.Error)
}

func TestExpiredIdempotencyKeyIsReused(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, utils.RoleCashier)
	s.stock(t, token, "hamburguesa", 5)

	key := uuid.NewString()
	first, _ := s.do(t, http.MethodPost, "/api/v1/orders", token, burgerOrder(1, "15.50"), middleware.IdempotencyKeyHeader, key)
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())

	var stored entity.IdempotencyKey
	require.NoError(t, s.db.Where("key = ?", key).First(&stored).Error)
	require.NoError(t, s.db.Model(&stored).Update("expires_at", time.Now().Add(-time.Minute)).Error)

	second, _ := s.do(t, http.MethodPost, "/api/v1/orders", token, burgerOrder(2, "31"), middleware.IdempotencyKeyHeader, key)
	require.Equal(t, http.StatusCreated, second.Code, second.Body.String())
	assert.Empty(t, second.Header().Get(middleware.IdempotencyReplayedHeader))

	var refreshed entity.IdempotencyKey
	require.NoError(t, s.db.Where("key = ?", key).First(&refreshed).Error)
	assert.NotEqual(t, stored.RequestHash, refreshed.RequestHash)
	assert.True(t, refreshed.ExpiresAt.After(time.Now()))

	third, _ := s.do(t, http.MethodPost, "/api/v1/orders", token, burgerOrder(2, "31"), middleware.IdempotencyKeyHeader, key)
	assert.Equal(t, "true", third.Header().Get(middleware.IdempotencyReplayedHeader))

	var orders int64
	require.NoError(t, s.db.Model(&entity.Order{}).Count(&orders).Error)
	assert.Equal(t, int64(2), orders)
}

func TestUnwindRequiresManager(t *testing.T) {
	s := newTestServer(t)
	cashier := s.token(t, utils.RoleCashier)
	manager := s.token(t, utils.RoleManager)
	s.stock(t, cashier, "hamburguesa", 5)

	w, env := s.do(t, http.MethodPost, "/api/v1/orders", cashier, burgerOrder(2, "31"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var saved savedOrder
	require.NoError(t, json.Unmarshal(env.Data, &saved))
	path := "/api/v1/settlements/" + saved.Settlement.Settlement.ID.String() + "/unwind"

	w, _ = s.do(t, http.MethodPost, path, cashier, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env = s.do(t, http.MethodPost, path, manager, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var settlement entity.Settlement
	require.NoError(t, json.Unmarshal(env.Data, &settlement))
	assert.Equal(t, enum.SettlementUnwound, settlement.Status)

	var item entity.InventoryItem
	require.NoError(t, s.db.First(&item, "product_id = ?", "hamburguesa").Error)
	assert.Equal(t, 5, item.CurrentStock)

	w, env = s.do(t, http.MethodPost, "/api/v1/orders/"+saved.Order.ID.String()+"/void", cashier, gin.H{"version": saved.Order.Version})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var voided entity.Order
	require.NoError(t, json.Unmarshal(env.Data, &voided))
	assert.Equal(t, enum.OrderStatusVoided, voided.Status)
}

func TestInvalidID(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, utils.RoleCashier)

	w, env := s.do(t, http.MethodGet, "/api/v1/settlements/not-a-uuid", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperror.KindBadRequest, env.Error)

	w, env = s.do(t, http.MethodGet, "/api/v1/settlements/"+uuid.NewString(), token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperror.KindNotFound, env.Error)
}

func TestVerifyStock(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, utils.RoleCashier)
	s.stock(t, token, "hamburguesa", 2)

	w, env := s.do(t, http.MethodPost, "/api/v1/inventory/verify", token, gin.H{
		"lines": []gin.H{
			{"product_id": "hamburguesa", "quantity": 2},
			{"product_id": "hamburguesa", "quantity": 3},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var results []struct {
		Available bool `json:"available"`
		Check     struct {
			New int `json:"new_stock"`
		} `json:"check"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &results))
	require.Len(t, results, 2)
	assert.True(t, results[0].Available)
	assert.Equal(t, 0, results[0].Check.New)
	assert.False(t, results[1].Available)
	assert.Equal(t, -1, results[1].Check.New)
}

func TestPurchaseUnmappedMethod(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, utils.RoleCashier)

	w, env := s.do(t, http.MethodPost, "/api/v1/accounts/purchases", token, gin.H{
		"payment_method": "Tarjeta",
		"amount":         "40",
		"description":    "Compra de pan",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result service.EntryResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, service.OutcomeUnmappedPaymentMethod, result.Outcome)

	var events int64
	require.NoError(t, s.db.Model(&entity.LedgerAuditEvent{}).
		Where("kind = ?", enum.AuditUnmappedPaymentMethod).Count(&events).Error)
	assert.Equal(t, int64(1), events)
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(config.RateLimitConfig{Requests: 2, Duration: 60})
	defer limiter.Stop()

	operator := uuid.New()
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(middleware.OperatorIDKey, operator)
		c.Request = c.Request.WithContext(infraRepo.WithActor(context.Background(), infraRepo.Actor{ID: operator}))
	}, limiter.Middleware())
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
