package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/backoffice-api/internal/config"
	domainRepo "github.com/sangkips/backoffice-api/internal/domain/repository"
	"github.com/sangkips/backoffice-api/internal/presentation/http/handler"
	"github.com/sangkips/backoffice-api/internal/presentation/http/middleware"
	"github.com/sangkips/backoffice-api/pkg/utils"
	"go.uber.org/zap"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Health     *handler.HealthHandler
	Order      *handler.OrderHandler
	Settlement *handler.SettlementHandler
	Inventory  *handler.InventoryHandler
	Account    *handler.AccountHandler
	Customer   *handler.CustomerHandler
	Rewards    *handler.RewardsHandler
	Audit      *handler.AuditHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	JWTManager      *utils.JWTManager
	Cfg             *config.Config
	IdempotencyRepo domainRepo.IdempotencyRepository
	RateLimiter     *middleware.OperatorRateLimiter
	Logger          *zap.Logger
}

// NewRateLimiter builds the per-operator limiter from configuration
func NewRateLimiter(cfg config.RateLimitConfig) *middleware.OperatorRateLimiter {
	rps := 0.0
	if cfg.Duration > 0 {
		rps = float64(cfg.Requests) / float64(cfg.Duration)
	}
	return middleware.NewOperatorRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: rps,
		BurstSize:         cfg.Requests,
		CleanupInterval:   5 * time.Minute,
		EntryTTL:          10 * time.Minute,
	})
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(middleware.LoggerMiddleware(deps.Logger))
	router.Use(middleware.RecoveryMiddleware(deps.Logger))
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	router.GET("/health", h.Health.Check)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware(deps.JWTManager))
	if deps.RateLimiter != nil {
		v1.Use(deps.RateLimiter.Middleware())
	}

	registerOrderRoutes(v1, h, deps)
	registerSettlementRoutes(v1, h)
	registerInventoryRoutes(v1, h)
	registerAccountRoutes(v1, h)
	registerCustomerRoutes(v1, h)
	registerRewardsRoutes(v1, h)

	v1.GET("/audit-events", h.Audit.List)

	return router
}

func managerOnly() gin.HandlerFunc {
	return middleware.RequireRole(utils.RoleManager)
}

func registerOrderRoutes(v1 *gin.RouterGroup, h *Handlers, deps *Deps) {
	idempotency := middleware.Idempotency(middleware.IdempotencyConfig{
		Repo:   deps.IdempotencyRepo,
		Logger: deps.Logger,
	})

	orders := v1.Group("/orders")
	{
		orders.GET("", h.Order.List)
		orders.POST("", idempotency, h.Order.Create)
		orders.GET("/:id", h.Order.Get)
		orders.PUT("/:id", idempotency, h.Order.Update)
		orders.POST("/:id/void", h.Order.Void)
		orders.GET("/:id/settlement", h.Order.Settlement)
	}
}

func registerSettlementRoutes(v1 *gin.RouterGroup, h *Handlers) {
	settlements := v1.Group("/settlements")
	{
		settlements.GET("", h.Settlement.List)
		settlements.GET("/:id", h.Settlement.Get)
		settlements.POST("/:id/retry", h.Settlement.Retry)
		settlements.POST("/:id/unwind", managerOnly(), h.Settlement.Unwind)
	}
}

func registerInventoryRoutes(v1 *gin.RouterGroup, h *Handlers) {
	inventory := v1.Group("/inventory")
	{
		inventory.GET("", h.Inventory.List)
		inventory.GET("/low-stock", h.Inventory.LowStock)
		inventory.POST("/verify", h.Inventory.Verify)
		inventory.GET("/movements", h.Inventory.ListMovements)
		inventory.POST("/movements", h.Inventory.CreateMovement)
		inventory.PUT("/:id/limits", managerOnly(), h.Inventory.UpdateLimits)
	}
}

func registerAccountRoutes(v1 *gin.RouterGroup, h *Handlers) {
	accounts := v1.Group("/accounts")
	{
		accounts.GET("", h.Account.List)
		accounts.GET("/movements", h.Account.ListMovements)
		accounts.POST("/purchases", h.Account.RecordPurchase)
		accounts.POST("/expenses", h.Account.RecordExpense)
		accounts.POST("/:id/movements", managerOnly(), h.Account.CreateMovement)
		accounts.PUT("/:id/initial-balance", managerOnly(), h.Account.SetInitialBalance)
		accounts.GET("/:id/reconciliation", h.Account.Reconcile)
	}
}

func registerCustomerRoutes(v1 *gin.RouterGroup, h *Handlers) {
	customers := v1.Group("/customers")
	{
		customers.GET("", h.Customer.List)
		customers.POST("", h.Customer.Create)
		customers.GET("/:id", h.Customer.Get)
		customers.PUT("/:id", h.Customer.Update)
		customers.POST("/:id/rewards", h.Rewards.Enable)
		customers.POST("/:id/rewards/terms", h.Rewards.AcceptTerms)
	}
}

func registerRewardsRoutes(v1 *gin.RouterGroup, h *Handlers) {
	rewards := v1.Group("/rewards")
	{
		rewards.GET("/search", h.Rewards.Search)
		rewards.POST("/redeem", h.Rewards.Redeem)
		rewards.GET("/prizes", h.Rewards.ListPrizes)
		rewards.POST("/prizes", managerOnly(), h.Rewards.CreatePrize)
		rewards.DELETE("/prizes/:id", managerOnly(), h.Rewards.DeactivatePrize)
		rewards.GET("/config", h.Rewards.GetConfig)
		rewards.PUT("/config", managerOnly(), h.Rewards.UpdateConfig)
	}
}
