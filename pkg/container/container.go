package container

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"bookshelf-backend/internal/config"
	"bookshelf-backend/internal/domains/auth"
	authHandler "bookshelf-backend/internal/domains/auth/handler"
	"bookshelf-backend/internal/domains/book"
	bookHandler "bookshelf-backend/internal/domains/book/handler"
	bookRepo "bookshelf-backend/internal/domains/book/repository"
	bookService "bookshelf-backend/internal/domains/book/service"
	"bookshelf-backend/internal/domains/catalog"
	"bookshelf-backend/internal/domains/user"
	userHandler "bookshelf-backend/internal/domains/user/handler"
	userRepo "bookshelf-backend/internal/domains/user/repository"
	userService "bookshelf-backend/internal/domains/user/service"
	infraCache "bookshelf-backend/internal/infrastructure/cache"
	"bookshelf-backend/internal/infrastructure/database"
	"bookshelf-backend/internal/shared/middleware"
	"bookshelf-backend/pkg/cache"
	openlibrary "bookshelf-backend/pkg/catalog"
	"bookshelf-backend/pkg/jwt"
	"bookshelf-backend/pkg/logger"
	"bookshelf-backend/pkg/session"
)

// ========================================
// CONTAINER STRUCT
// ========================================

// HealthCheck - một dependency cần trả lời ping cho /ready
type HealthCheck func(ctx context.Context) error

// Container chứa tất cả dependencies của application
// Dependency graph: config → store → cache → repositories → services → handlers
type Container struct {
	// ========================================
	// INFRASTRUCTURE LAYER
	// ========================================
	Config   *config.Config
	Postgres *database.PostgresDB    // nil khi STORE_DRIVER != postgres
	Mongo    *database.MongoDB       // nil khi STORE_DRIVER != mongo
	Redis    *infraCache.RedisClient // nil khi REDIS_HOST rỗng
	Cache    cache.Cache

	Sessions    *session.Store
	StateTokens *jwt.Manager

	// ========================================
	// REPOSITORY LAYER
	// ========================================
	UserRepo user.Repository
	BookRepo book.Repository

	// ========================================
	// SERVICE LAYER
	// ========================================
	UserService    user.Service
	BookService    book.Service
	CatalogService *catalog.Service

	// ========================================
	// HANDLER LAYER
	// ========================================
	AuthHandler    *authHandler.AuthHandler
	UserHandler    *userHandler.UserHandler
	BookHandler    *bookHandler.Handler
	CatalogHandler *catalog.Handler

	log zerolog.Logger
}

// ========================================
// CONSTRUCTOR
// ========================================

// NewContainer khởi tạo toàn bộ dependency graph theo thứ tự layer
func NewContainer(cfg *config.Config) (*Container, error) {
	c := &Container{
		Config: cfg,
		log:    logger.Component("container"),
	}

	// ========================================
	// STEP 1: INITIALIZE STORE
	// ========================================
	c.log.Info().Str("driver", cfg.Database.Driver).Msg("initializing store")
	if err := c.initStore(); err != nil {
		c.Cleanup()
		return nil, err
	}

	// ========================================
	// STEP 2: INITIALIZE CACHE
	// ========================================
	if err := c.initCache(); err != nil {
		c.Cleanup()
		return nil, err
	}

	c.Sessions = session.NewStore(c.Cache, cfg.Session.Secret, cfg.Session.TTL)
	c.StateTokens = jwt.NewManager(cfg.Session.Secret, 10*time.Minute)

	// ========================================
	// STEP 3: REPOSITORIES → SERVICES → HANDLERS
	// ========================================
	c.initRepositories()
	c.initServices()
	c.initHandlers()

	c.log.Info().Msg("container initialized")
	return c, nil
}

// ========================================
// PRIVATE INITIALIZATION METHODS
// ========================================

func (c *Container) initStore() error {
	cfg := c.Config

	switch cfg.Database.Driver {
	case config.DriverPostgres:
		dbConfig, err := config.LoadDatabaseConfig(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to load database config: %w", err)
		}

		db := database.NewPostgresDB(dbConfig)

		// Connect với timeout 30s
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := db.Connect(ctx); err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		c.Postgres = db

		if err := db.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}

	case config.DriverMongo:
		db := database.NewMongoDB(cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Timeout)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := db.Connect(ctx); err != nil {
			return fmt.Errorf("failed to connect to mongodb: %w", err)
		}
		c.Mongo = db

	case config.DriverMemory:
		c.log.Warn().Msg("using in-memory store, data is lost on restart")

	default:
		return fmt.Errorf("unknown store driver %q", cfg.Database.Driver)
	}

	return nil
}

// initCache - Redis khi có REDIS_HOST, ngược lại MemoryCache
func (c *Container) initCache() error {
	cfg := c.Config

	if cfg.Redis.Host == "" {
		c.log.Warn().Msg("REDIS_HOST not set, sessions and caches are kept in process")
		c.Cache = cache.NewMemoryCache()
		return nil
	}

	rc := infraCache.NewRedisClient(cfg.Redis.Host, cfg.Redis.Password, cfg.Redis.DB)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Sessions sống trong Redis nên Redis là bắt buộc khi đã cấu hình
	if err := rc.Connect(ctx); err != nil {
		_ = rc.Close()
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	c.Redis = rc
	c.Cache = infraCache.NewRedisCache(rc.Client, "bookshelf:")
	return nil
}

func (c *Container) initRepositories() {
	switch {
	case c.Postgres != nil:
		c.UserRepo = userRepo.NewPostgresRepository(c.Postgres.Pool, c.Cache)
		c.BookRepo = bookRepo.NewPostgresRepository(c.Postgres.Pool)
	case c.Mongo != nil:
		c.UserRepo = userRepo.NewMongoRepository(c.Mongo.DB)
		c.BookRepo = bookRepo.NewMongoRepository(c.Mongo.DB)
	default:
		c.UserRepo = userRepo.NewMemoryRepository()
		c.BookRepo = bookRepo.NewMemoryRepository()
	}
}

func (c *Container) initServices() {
	cfg := c.Config

	c.UserService = userService.NewUserService(c.UserRepo)
	c.BookService = bookService.NewBookService(c.BookRepo)

	client := openlibrary.NewClient(openlibrary.Options{
		BaseURL:   cfg.Catalog.BaseURL,
		CoversURL: cfg.Catalog.CoversURL,
		Timeout:   cfg.Catalog.Timeout,
		RateEvery: cfg.Catalog.RateEvery,
		Burst:     cfg.Catalog.Burst,
	})
	c.CatalogService = catalog.NewService(client, c.Cache, cfg.Catalog.CacheTTL)
}

func (c *Container) initHandlers() {
	cfg := c.Config

	provider := auth.NewGoogleProvider(
		cfg.Google.ClientID,
		cfg.Google.ClientSecret,
		cfg.Google.CallbackURL(cfg.App.ServerURL),
	)

	c.AuthHandler = authHandler.NewAuthHandler(
		provider,
		c.UserService,
		c.Sessions,
		c.StateTokens,
		c.SessionCookie(),
		cfg.App.ClientURL,
	)
	c.UserHandler = userHandler.NewUserHandler(c.UserService)
	c.BookHandler = bookHandler.NewHandler(c.BookService)
	c.CatalogHandler = catalog.NewHandler(c.CatalogService)
}

// ========================================
// HELPER METHODS
// ========================================

// SessionCookie - cấu hình cookie session dùng chung cho auth handler
func (c *Container) SessionCookie() middleware.CookieConfig {
	return middleware.CookieConfig{
		Name:   c.Config.Session.CookieName,
		Path:   "/",
		Secure: c.Config.Session.Secure,
		MaxAge: c.Config.Session.TTL,
	}
}

// HealthChecks - các dependency mà /ready ping
func (c *Container) HealthChecks() map[string]HealthCheck {
	checks := map[string]HealthCheck{
		"cache": c.Cache.Ping,
	}
	switch {
	case c.Postgres != nil:
		checks["store"] = c.Postgres.HealthCheck
	case c.Mongo != nil:
		checks["store"] = c.Mongo.HealthCheck
	}
	return checks
}

// Cleanup dọn dẹp resources khi shutdown
// Gọi trong graceful shutdown của server
func (c *Container) Cleanup() {
	c.log.Info().Msg("cleaning up container resources")

	if c.Postgres != nil && c.Postgres.Pool != nil {
		if err := c.Postgres.Close(); err != nil {
			c.log.Warn().Err(err).Msg("failed to close postgres")
		}
	}

	if c.Mongo != nil {
		if err := c.Mongo.Close(); err != nil {
			c.log.Warn().Err(err).Msg("failed to close mongodb")
		}
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.log.Warn().Err(err).Msg("failed to close redis")
		}
	}

	if mc, ok := c.Cache.(*cache.MemoryCache); ok {
		mc.Close()
	}

	c.log.Info().Msg("container cleanup completed")
}
