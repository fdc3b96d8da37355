package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Store drivers
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

// Config chứa toàn bộ application configuration
// Struct này được populate từ environment variables
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Mongo    MongoConfig
	Redis    RedisConfig
	Session  SessionConfig
	Google   GoogleConfig
	Catalog  CatalogConfig
}

type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Port        string
	Version     string
	ClientURL   string // frontend origin, dùng cho CORS và redirect sau login
	ServerURL   string // public URL của API, dùng cho OAuth callback
	BodyLimit   int64  // bytes
}

// DatabaseConfig chọn driver và giữ thông tin PostgreSQL
type DatabaseConfig struct {
	Driver   string // postgres | mongo | memory
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MinConns int
}

type MongoConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Password string
	DB       int
}

type SessionConfig struct {
	Secret     string
	CookieName string
	TTL        time.Duration
	Secure     bool
}

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
}

// CatalogConfig cho external book catalog (Open Library)
type CatalogConfig struct {
	BaseURL   string
	CoversURL string
	Timeout   time.Duration
	RateEvery time.Duration // một request mỗi RateEvery
	Burst     int
	CacheTTL  time.Duration
}

// CallbackURL là redirect URI đăng ký với Google
func (c GoogleConfig) CallbackURL(serverURL string) string {
	return strings.TrimRight(serverURL, "/") + "/auth/google/callback"
}

// Load đọc config từ environment variables
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Bookshelf API"),
			Environment: getEnv("APP_ENV", "development"),
			Port:        getEnv("PORT", "5174"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			ClientURL:   getEnv("CLIENT_URL", "http://localhost:5173"),
			ServerURL:   getEnv("SERVER_URL", "http://localhost:5174"),
			BodyLimit:   int64(getEnvInt("BODY_LIMIT_BYTES", 1<<20)),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("STORE_DRIVER", DriverPostgres),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "bookshelf"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 25),
			MinConns: getEnvInt("DB_MIN_CONNS", 5),
		},
		Mongo: MongoConfig{
			URI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGODB_DATABASE", "bookshelf"),
			Timeout:  getEnvDuration("MONGODB_TIMEOUT", 10*time.Second),
		},
		// REDIS_HOST rỗng: sessions và caches dùng MemoryCache trong process
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Session: SessionConfig{
			Secret:     getEnv("SESSION_SECRET", ""),
			CookieName: getEnv("SESSION_COOKIE_NAME", "bookshelf.sid"),
			TTL:        getEnvDuration("SESSION_TTL", 14*24*time.Hour),
			Secure:     getEnvBool("SESSION_COOKIE_SECURE", false),
		},
		Google: GoogleConfig{
			ClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			ClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		},
		Catalog: CatalogConfig{
			BaseURL:   getEnv("CATALOG_BASE_URL", "https://openlibrary.org"),
			CoversURL: getEnv("CATALOG_COVERS_URL", "https://covers.openlibrary.org"),
			Timeout:   getEnvDuration("CATALOG_TIMEOUT", 10*time.Second),
			RateEvery: getEnvDuration("CATALOG_RATE_EVERY", 200*time.Millisecond),
			Burst:     getEnvInt("CATALOG_BURST", 5),
			CacheTTL:  getEnvDuration("CATALOG_CACHE_TTL", 6*time.Hour),
		},
	}

	// Validate critical config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate kiểm tra config có hợp lệ không
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(&c.Session,
		validation.Field(&c.Session.Secret, validation.Required.Error("SESSION_SECRET must be set")),
		validation.Field(&c.Session.CookieName, validation.Required),
		validation.Field(&c.Session.TTL, validation.Min(time.Minute)),
	); err != nil {
		return err
	}

	if err := validation.ValidateStruct(&c.Google,
		validation.Field(&c.Google.ClientID, validation.Required.Error("GOOGLE_CLIENT_ID must be set")),
		validation.Field(&c.Google.ClientSecret, validation.Required.Error("GOOGLE_CLIENT_SECRET must be set")),
	); err != nil {
		return err
	}

	if err := validation.ValidateStruct(&c.App,
		validation.Field(&c.App.ClientURL, validation.Required, is.URL),
		validation.Field(&c.App.ServerURL, validation.Required, is.URL),
	); err != nil {
		return err
	}

	if err := validation.Validate(c.Database.Driver,
		validation.In(DriverPostgres, DriverMongo, DriverMemory).Error("STORE_DRIVER must be postgres, mongo or memory"),
	); err != nil {
		return err
	}

	// Production phải dùng cookie Secure
	if c.App.Environment == "production" && !c.Session.Secure {
		return fmt.Errorf("SESSION_COOKIE_SECURE must be true in production")
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
