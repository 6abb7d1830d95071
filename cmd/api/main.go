package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sangkips/backoffice-api/internal/application/service"
	"github.com/sangkips/backoffice-api/internal/config"
	"github.com/sangkips/backoffice-api/internal/domain/event"
	"github.com/sangkips/backoffice-api/internal/infrastructure/database"
	"github.com/sangkips/backoffice-api/internal/infrastructure/logger"
	"github.com/sangkips/backoffice-api/internal/infrastructure/notification"
	"github.com/sangkips/backoffice-api/internal/infrastructure/repository"
	"github.com/sangkips/backoffice-api/internal/infrastructure/telemetry"
	"github.com/sangkips/backoffice-api/internal/presentation/http/handler"
	"github.com/sangkips/backoffice-api/internal/presentation/http/routes"
	"github.com/sangkips/backoffice-api/pkg/utils"
)

const idempotencySweepInterval = time.Hour

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger := logger.New(logger.Config{
		Level:  cfg.Logger.Level,
		Format: cfg.Logger.Format,
		Output: cfg.Logger.Output,
	})
	defer func() { _ = zapLogger.Sync() }()

	// Money is exchanged as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	db, err := database.Open(&cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to connect to database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		zapLogger.Fatal("failed to get database handle", zap.Error(err))
	}
	defer sqlDB.Close()

	if err := database.AutoMigrate(db, zapLogger); err != nil {
		zapLogger.Fatal("failed to run migrations", zap.Error(err))
	}
	if err := database.SeedDefaultData(db, zapLogger); err != nil {
		zapLogger.Fatal("failed to seed default data", zap.Error(err))
	}

	// Metrics
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Metrics.Enabled,
		CollectorEndpoint: cfg.Metrics.Endpoint,
		ExportInterval:    cfg.Metrics.ExportInterval,
		ServiceName:       cfg.App.Name,
		Insecure:          cfg.Metrics.Insecure,
	}, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to initialize metrics", zap.Error(err))
	}
	ledgerMetrics, err := telemetry.NewLedgerMetrics(meterProvider.Meter(telemetry.MeterName()))
	if err != nil {
		zapLogger.Fatal("failed to register ledger metrics", zap.Error(err))
	}

	// Change notifications
	var publisher event.Publisher = notification.NopPublisher{}
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			zapLogger.Warn("redis unreachable, change events will fail until it recovers", zap.Error(err))
		}
		publisher = notification.NewRedisPublisher(redisClient, cfg.Redis.Channel, zapLogger)
	}

	jwtManager := utils.NewJWTManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.ExpiryHours)

	// Initialize repositories
	inventoryRepo := repository.NewInventoryRepository(db)
	accountRepo := repository.NewAccountRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	rewardsRepo := repository.NewRewardsRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	settlementRepo := repository.NewSettlementRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)

	// Initialize services
	auditService := service.NewAuditService(auditRepo, ledgerMetrics, zapLogger)
	inventoryService := service.NewInventoryService(inventoryRepo, auditService, publisher, service.InventoryConfig{
		DefaultMinStock:  cfg.Inventory.DefaultMinStock,
		DefaultMaxStock:  cfg.Inventory.DefaultMaxStock,
		ExcludedSKUs:     cfg.Inventory.ExcludedSKUs,
		MaxCommitRetries: cfg.Settlement.MaxCommitRetries,
	}, zapLogger)
	accountService := service.NewAccountService(accountRepo, auditService, publisher, cfg.Settlement.MaxCommitRetries, zapLogger)
	rewardsService := service.NewRewardsService(customerRepo, rewardsRepo, auditService, publisher, cfg.Settlement.MaxCommitRetries, zapLogger)
	settlementService := service.NewSettlementService(
		settlementRepo,
		orderRepo,
		inventoryService,
		accountService,
		rewardsService,
		auditService,
		publisher,
		ledgerMetrics,
		service.SettlementConfig{
			InventoryPolicy:   cfg.Settlement.InventoryPolicy,
			CardSurchargeRate: cfg.Settlement.CardSurchargeRate,
		},
		zapLogger,
	)
	orderService := service.NewOrderService(orderRepo, customerRepo, settlementService, zapLogger)
	customerService := service.NewCustomerService(customerRepo)

	// Initialize handlers
	handlers := &routes.Handlers{
		Health:     handler.NewHealthHandler(cfg.App.Name, sqlDB),
		Order:      handler.NewOrderHandler(orderService, settlementService),
		Settlement: handler.NewSettlementHandler(settlementService),
		Inventory:  handler.NewInventoryHandler(inventoryService),
		Account:    handler.NewAccountHandler(accountService),
		Customer:   handler.NewCustomerHandler(customerService),
		Rewards:    handler.NewRewardsHandler(rewardsService),
		Audit:      handler.NewAuditHandler(auditService),
	}

	rateLimiter := routes.NewRateLimiter(cfg.RateLimit)
	defer rateLimiter.Stop()

	router := routes.Setup(handlers, &routes.Deps{
		JWTManager:      jwtManager,
		Cfg:             cfg,
		IdempotencyRepo: idempotencyRepo,
		RateLimiter:     rateLimiter,
		Logger:          zapLogger,
	})

	go sweepIdempotencyKeys(ctx, idempotencyRepo, zapLogger)

	port := cfg.App.Port
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		zapLogger.Info("starting server",
			zap.String("service", cfg.App.Name),
			zap.String("port", port),
			zap.String("env", cfg.App.Env),
			zap.String("inventory_policy", string(settlementService.Policy())),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLogger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server shutdown failed", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("metrics shutdown failed", zap.Error(err))
	}
}

type expiredKeyDeleter interface {
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

func sweepIdempotencyKeys(ctx context.Context, repo expiredKeyDeleter, log *zap.Logger) {
	ticker := time.NewTicker(idempotencySweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			removed, err := repo.DeleteExpiredBefore(ctx, now)
			if err != nil {
				log.Warn("failed to delete expired idempotency keys", zap.Error(err))
				continue
			}
			if removed > 0 {
				log.Info("deleted expired idempotency keys", zap.Int64("count", removed))
			}
		}
	}
}
