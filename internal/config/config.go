package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/sangkips/backoffice-api/internal/domain/enum"
)

type Config struct {
	App        AppConfig
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	CORS       CORSConfig
	RateLimit  RateLimitConfig
	Logger     LoggerConfig
	Redis      RedisConfig
	Metrics    MetricsConfig
	Inventory  InventoryConfig
	Settlement SettlementConfig
}

type AppConfig struct {
	Name  string
	Env   string
	Port  string
	Debug bool
}

type ServerConfig struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Driver     string // postgres or sqlite
	SQLitePath string
	Host       string
	Port       string
	Name       string
	User       string
	Password   string
	SSLMode    string
	Timezone   string
	LogLevel   string
}

type JWTConfig struct {
	Secret      string
	Issuer      string
	ExpiryHours time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

type RateLimitConfig struct {
	Requests int
	Duration int
}

type LoggerConfig struct {
	Level  string
	Format string
	Output string
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	Channel  string
}

type MetricsConfig struct {
	Enabled        bool
	Endpoint       string
	Insecure       bool
	ExportInterval time.Duration
}

type InventoryConfig struct {
	DefaultMinStock int
	DefaultMaxStock int
	ExcludedSKUs    []string
}

type SettlementConfig struct {
	InventoryPolicy   enum.InventoryPolicy
	CardSurchargeRate decimal.Decimal
	MaxCommitRetries  int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_NAME", "backoffice-api")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("APP_DEBUG", true)
	v.SetDefault("SERVER_READ_TIMEOUT", 15)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 30)
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", 10)
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_SQLITE_PATH", "backoffice.db")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "backoffice")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_TIMEZONE", "America/Lima")
	v.SetDefault("DB_LOG_LEVEL", "warn")
	v.SetDefault("JWT_SECRET", "change-this-secret-in-production")
	v.SetDefault("JWT_ISSUER", "backoffice-api")
	v.SetDefault("JWT_EXPIRY_HOURS", 24)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("CORS_ALLOWED_METHODS", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
	v.SetDefault("CORS_ALLOWED_HEADERS", "")
	v.SetDefault("RATE_LIMIT_REQUESTS", 100)
	v.SetDefault("RATE_LIMIT_DURATION", 60)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LOG_OUTPUT", "stdout")
	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_CHANNEL", "backoffice.ledger")
	v.SetDefault("METRICS_ENABLED", false)
	v.SetDefault("METRICS_ENDPOINT", "localhost:4317")
	v.SetDefault("METRICS_INSECURE", true)
	v.SetDefault("METRICS_EXPORT_INTERVAL", 60)
	v.SetDefault("INVENTORY_DEFAULT_MIN_STOCK", 10)
	v.SetDefault("INVENTORY_DEFAULT_MAX_STOCK", 100)
	v.SetDefault("INVENTORY_EXCLUDED_SKUS", "Caja Pack 10")
	v.SetDefault("SETTLEMENT_INVENTORY_POLICY", string(enum.InventoryBestEffort))
	v.SetDefault("SETTLEMENT_CARD_SURCHARGE_RATE", "0.05")
	v.SetDefault("SETTLEMENT_MAX_COMMIT_RETRIES", 5)
}

// Load reads configuration from .env and the environment
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables: %v", err)
	}

	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance
func FromViper(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	rate, err := decimal.NewFromString(v.GetString("SETTLEMENT_CARD_SURCHARGE_RATE"))
	if err != nil {
		return nil, fmt.Errorf("invalid SETTLEMENT_CARD_SURCHARGE_RATE: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:  v.GetString("APP_NAME"),
			Env:   v.GetString("APP_ENV"),
			Port:  v.GetString("APP_PORT"),
			Debug: v.GetBool("APP_DEBUG"),
		},
		Server: ServerConfig{
			ReadTimeout:     time.Duration(v.GetInt("SERVER_READ_TIMEOUT")) * time.Second,
			WriteTimeout:    time.Duration(v.GetInt("SERVER_WRITE_TIMEOUT")) * time.Second,
			ShutdownTimeout: time.Duration(v.GetInt("SERVER_SHUTDOWN_TIMEOUT")) * time.Second,
		},
		Database: DatabaseConfig{
			Driver:     strings.ToLower(v.GetString("DB_DRIVER")),
			SQLitePath: v.GetString("DB_SQLITE_PATH"),
			Host:       v.GetString("DB_HOST"),
			Port:       v.GetString("DB_PORT"),
			Name:       v.GetString("DB_NAME"),
			User:       v.GetString("DB_USER"),
			Password:   v.GetString("DB_PASSWORD"),
			SSLMode:    v.GetString("DB_SSL_MODE"),
			Timezone:   v.GetString("DB_TIMEZONE"),
			LogLevel:   v.GetString("DB_LOG_LEVEL"),
		},
		JWT: JWTConfig{
			Secret:      v.GetString("JWT_SECRET"),
			Issuer:      v.GetString("JWT_ISSUER"),
			ExpiryHours: time.Duration(v.GetInt("JWT_EXPIRY_HOURS")) * time.Hour,
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
			AllowedMethods: splitList(v.GetString("CORS_ALLOWED_METHODS")),
			AllowedHeaders: splitList(v.GetString("CORS_ALLOWED_HEADERS")),
		},
		RateLimit: RateLimitConfig{
			Requests: v.GetInt("RATE_LIMIT_REQUESTS"),
			Duration: v.GetInt("RATE_LIMIT_DURATION"),
		},
		Logger: LoggerConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
			Output: v.GetString("LOG_OUTPUT"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("REDIS_ENABLED"),
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			Channel:  v.GetString("REDIS_CHANNEL"),
		},
		Metrics: MetricsConfig{
			Enabled:        v.GetBool("METRICS_ENABLED"),
			Endpoint:       v.GetString("METRICS_ENDPOINT"),
			Insecure:       v.GetBool("METRICS_INSECURE"),
			ExportInterval: time.Duration(v.GetInt("METRICS_EXPORT_INTERVAL")) * time.Second,
		},
		Inventory: InventoryConfig{
			DefaultMinStock: v.GetInt("INVENTORY_DEFAULT_MIN_STOCK"),
			DefaultMaxStock: v.GetInt("INVENTORY_DEFAULT_MAX_STOCK"),
			ExcludedSKUs:    splitList(v.GetString("INVENTORY_EXCLUDED_SKUS")),
		},
		Settlement: SettlementConfig{
			InventoryPolicy:   enum.InventoryPolicy(strings.ToLower(v.GetString("SETTLEMENT_INVENTORY_POLICY"))),
			CardSurchargeRate: rate,
			MaxCommitRetries:  v.GetInt("SETTLEMENT_MAX_COMMIT_RETRIES"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the ledgers cannot run with
func (c *Config) Validate() error {
	if !c.Settlement.InventoryPolicy.Valid() {
		return fmt.Errorf("invalid SETTLEMENT_INVENTORY_POLICY %q", c.Settlement.InventoryPolicy)
	}
	rate := c.Settlement.CardSurchargeRate
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("SETTLEMENT_CARD_SURCHARGE_RATE must be in [0, 1), got %s", rate)
	}
	if c.Database.Driver != "postgres" && c.Database.Driver != "sqlite" {
		return fmt.Errorf("invalid DB_DRIVER %q", c.Database.Driver)
	}
	if c.Settlement.MaxCommitRetries < 1 {
		return fmt.Errorf("SETTLEMENT_MAX_COMMIT_RETRIES must be at least 1")
	}
	if c.Inventory.DefaultMinStock < 0 || c.Inventory.DefaultMaxStock < c.Inventory.DefaultMinStock {
		return fmt.Errorf("inventory defaults require 0 <= min <= max")
	}
	return nil
}

func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.Timezone
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
