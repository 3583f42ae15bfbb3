package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Store backends selectable with STORE_BACKEND
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Admin     AdminConfig
	Catalog   CatalogConfig
	Checkout  CheckoutConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port               string
	Env                string
	LogLevel           string
	CORSAllowedOrigins []string
}

type StoreConfig struct {
	Backend string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	Schema   string
}

type RedisConfig struct {
	Host      string
	Port      string
	Password  string
	DB        int
	KeyPrefix string
}

type JWTConfig struct {
	Secret       string
	AccessExpiry int // in minutes
}

// AdminConfig seeds the administrator account on first start
type AdminConfig struct {
	Email    string
	Password string
	Name     string
}

type CatalogConfig struct {
	Path   string
	Locale string
}

type CheckoutConfig struct {
	TaxRate      decimal.Decimal
	PaymentDelay time.Duration
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// AccessTTL is the lifetime of issued access tokens
func (c JWTConfig) AccessTTL() time.Duration {
	return time.Duration(c.AccessExpiry) * time.Minute
}

// IsDevelopment reports whether the server runs outside production
func (c ServerConfig) IsDevelopment() bool {
	return c.Env != "production"
}

func Load() *Config {
	// .env values go to the process environment first so AutomaticEnv sees them
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env: %v", err)
	}

	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_ENV", "development")
	viper.SetDefault("LOG_LEVEL", "")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "")
	viper.SetDefault("STORE_BACKEND", StoreMemory)
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SCHEMA", "public")
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REDIS_KEY_PREFIX", "storefront")
	viper.SetDefault("JWT_ACCESS_EXPIRY", 60)
	viper.SetDefault("ADMIN_NAME", "Administrator")
	viper.SetDefault("CATALOG_PATH", "data/catalog.json")
	viper.SetDefault("CATALOG_LOCALE", "en")
	viper.SetDefault("TAX_RATE", "0.08")
	viper.SetDefault("PAYMENT_DELAY_MS", 2000)
	viper.SetDefault("RATE_LIMIT_REQUESTS", 60)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %v", err)
	}

	taxRate, err := decimal.NewFromString(viper.GetString("TAX_RATE"))
	if err != nil {
		log.Printf("Warning: Invalid TAX_RATE %q, using 0.08: %v", viper.GetString("TAX_RATE"), err)
		taxRate = decimal.RequireFromString("0.08")
	}

	return &Config{
		Server: ServerConfig{
			Port:               viper.GetString("SERVER_PORT"),
			Env:                viper.GetString("SERVER_ENV"),
			LogLevel:           viper.GetString("LOG_LEVEL"),
			CORSAllowedOrigins: splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Store: StoreConfig{
			Backend: strings.ToLower(viper.GetString("STORE_BACKEND")),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			Database: viper.GetString("DB_DATABASE"),
			Schema:   viper.GetString("DB_SCHEMA"),
		},
		Redis: RedisConfig{
			Host:      viper.GetString("REDIS_HOST"),
			Port:      viper.GetString("REDIS_PORT"),
			Password:  viper.GetString("REDIS_PASSWORD"),
			DB:        viper.GetInt("REDIS_DB"),
			KeyPrefix: viper.GetString("REDIS_KEY_PREFIX"),
		},
		JWT: JWTConfig{
			Secret:       viper.GetString("JWT_SECRET"),
			AccessExpiry: viper.GetInt("JWT_ACCESS_EXPIRY"),
		},
		Admin: AdminConfig{
			Email:    viper.GetString("ADMIN_EMAIL"),
			Password: viper.GetString("ADMIN_PASSWORD"),
			Name:     viper.GetString("ADMIN_NAME"),
		},
		Catalog: CatalogConfig{
			Path:   viper.GetString("CATALOG_PATH"),
			Locale: viper.GetString("CATALOG_LOCALE"),
		},
		Checkout: CheckoutConfig{
			TaxRate:      taxRate,
			PaymentDelay: time.Duration(viper.GetInt("PAYMENT_DELAY_MS")) * time.Millisecond,
		},
		RateLimit: RateLimitConfig{
			Requests: viper.GetInt("RATE_LIMIT_REQUESTS"),
			Window:   time.Duration(viper.GetInt("RATE_LIMIT_WINDOW_SECONDS")) * time.Second,
		},
	}
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
