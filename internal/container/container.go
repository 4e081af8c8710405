package container

import (
	"context"
	"fmt"
	"sync"

	"exportdecl/database"
	"exportdecl/internal/config"
	"exportdecl/normalization"
	"exportdecl/server/handlers"
	"exportdecl/server/middleware"
	"exportdecl/server/monitoring"
	"exportdecl/server/services"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Version версия сервиса в /health
const Version = "1.0.0"

// Container контейнер зависимостей.
// Управляет жизненным циклом хранилищ, конвейера, сервисов и HTTP роутера.
type Container struct {
	mu sync.RWMutex

	Config *config.Config
	Logger *zap.Logger

	// Хранилища
	LookupDB *database.LookupDB
	Postgres *database.PostgresLookup
	Redis    *redis.Client

	// Мониторинг
	Metrics *monitoring.MetricsCollector
	Health  *monitoring.HealthChecker

	// Конвейер агрегации
	Pipeline *normalization.Pipeline

	// Сервисы
	MappingService *services.MappingService
	ReportService  *services.ReportService
	UploadService  *services.UploadService

	RateLimiter *middleware.IPRateLimiter
	Router      *gin.Engine

	initialized bool
}

// NewContainer создает новый контейнер
func NewContainer(cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Container{Config: cfg, Logger: logger}, nil
}

// Initialize инициализирует все компоненты
func (c *Container) Initialize(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		return fmt.Errorf("container already initialized")
	}

	// Шаг 1: хранилища справочников
	if err := c.initDatabases(ctx); err != nil {
		return fmt.Errorf("failed to initialize databases: %w", err)
	}

	// Шаг 2: зеркало снимков, метрики, проверки здоровья
	if err := c.initInfrastructure(ctx); err != nil {
		return fmt.Errorf("failed to initialize infrastructure: %w", err)
	}

	// Шаг 3: конвейер
	if err := c.initPipeline(); err != nil {
		return fmt.Errorf("failed to initialize pipeline: %w", err)
	}

	// Шаг 4: сервисы
	c.initServices()

	// Шаг 5: начальные данные справочников
	if err := c.bootstrapLookups(ctx); err != nil {
		return fmt.Errorf("failed to bootstrap lookup registries: %w", err)
	}

	// Шаг 6: HTTP
	c.initHandlers()

	c.initialized = true
	c.Logger.Info("Container initialized",
		zap.Bool("postgres_lookup", c.Postgres != nil),
		zap.Bool("redis_mirror", c.Redis != nil))
	return nil
}

func (c *Container) initDatabases(ctx context.Context) error {
	db, err := database.NewLookupDBWithConfig(c.Config.Database.Path, database.DBConfig{
		MaxOpenConns:    c.Config.Database.MaxOpenConns,
		MaxIdleConns:    c.Config.Database.MaxIdleConns,
		ConnMaxLifetime: c.Config.Database.ConnMaxLifetime,
	}, c.Logger)
	if err != nil {
		return err
	}
	c.LookupDB = db

	if dsn := c.Config.Database.PostgresDSN; dsn != "" {
		pg, err := database.NewPostgresLookup(ctx, dsn, int32(c.Config.Database.MaxOpenConns))
		if err != nil {
			return err
		}
		c.Postgres = pg
	}
	return nil
}

func (c *Container) initInfrastructure(ctx context.Context) error {
	rc := c.Config.Redis
	client, err := normalization.NewRedisClient(ctx, rc.Addr, rc.Password, rc.DB)
	if err != nil {
		// зеркало необязательно: без него запуск при недоступных справочниках идет с пустыми
		c.Logger.Warn("Redis snapshot mirror disabled", zap.Error(err))
	}
	c.Redis = client

	c.Metrics = monitoring.NewMetricsCollector()

	c.Health = monitoring.NewHealthChecker(Version)
	c.Health.RegisterComponent("lookup_db", true, c.LookupDB.Ping)
	if c.Postgres != nil {
		c.Health.RegisterComponent("postgres_lookup", false, c.Postgres.Ping)
	}
	if c.Redis != nil {
		c.Health.RegisterComponent("redis_mirror", false, func(ctx context.Context) error {
			return c.Redis.Ping(ctx).Err()
		})
	}
	return nil
}

func (c *Container) initServices() {
	st := c.Config.Storage

	c.MappingService = services.NewMappingService(c.LookupDB)
	c.UploadService = services.NewUploadService(st.UploadDir, st.AllowedExtensions, st.MaxUploadBytes, c.Logger)
	c.ReportService = services.NewReportService(
		c.LookupDB,
		c.Pipeline,
		normalization.NewExporter(),
		st.UploadDir,
		st.ReportDir,
		c.Metrics,
		c.Logger,
	)
}

func (c *Container) initHandlers() {
	base := handlers.NewBaseHandler(c.Logger)

	c.RateLimiter = middleware.NewIPRateLimiter(c.Config.HTTP.RateLimitRPS, c.Config.HTTP.RateLimitBurst)

	c.Router = handlers.NewRouter(handlers.RouterDeps{
		Logger:      c.Logger,
		Recorder:    c.Metrics,
		RateLimiter: c.RateLimiter,
		Mappings:    handlers.NewMappingHandler(c.MappingService, base),
		Reports:     handlers.NewReportHandler(c.ReportService, base),
		// тело запроса может содержать несколько файлов
		Uploads:            handlers.NewUploadHandler(c.UploadService, base, 4*c.Config.Storage.MaxUploadBytes),
		Monitoring:         handlers.NewMonitoringHandler(c.Health, c.Metrics, base),
		MaxMultipartMemory: 8 << 20,
	})
}

// Shutdown закрывает хранилища
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.Logger.Warn("Error closing Redis client", zap.Error(err))
		}
	}
	if c.Postgres != nil {
		c.Postgres.Close()
	}
	if c.LookupDB != nil {
		if err := c.LookupDB.Close(); err != nil {
			c.Logger.Error("Error closing lookup database", zap.Error(err))
		}
	}

	c.initialized = false
	c.Logger.Info("Container shut down")
	return nil
}

// IsInitialized проверяет, инициализирован ли контейнер
func (c *Container) IsInitialized() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.initialized
}
