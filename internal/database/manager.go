package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ecosearch/backend/internal/models"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database connection manager
type Manager struct {
	DB     *gorm.DB
	Redis  *redis.Client
	logger *logrus.Logger
}

// Database configuration
type Config struct {
	DatabaseURL string
	RedisURL    string
	LogLevel    string
}

// NewManager creates a new database manager with connection pooling
func NewManager(config *Config, log *logrus.Logger) (*Manager, error) {
	gormLogger := logger.Default.LogMode(logger.Silent)
	if config.LogLevel == "debug" {
		gormLogger = logger.Default.LogMode(logger.Info)
	}

	// Open database connection with pooling
	db, err := gorm.Open(postgres.Open(config.DatabaseURL), &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Connection pool settings
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Connect to Redis
	redisOpts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	redisOpts.PoolSize = 20
	redisOpts.MinIdleConns = 5
	redisOpts.MaxConnAge = time.Hour
	redisOpts.IdleTimeout = 30 * time.Minute

	redisClient := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Info("Database and Redis connections established successfully")

	return &Manager{
		DB:     db,
		Redis:  redisClient,
		logger: log,
	}, nil
}

// Migrate runs database migrations
func (m *Manager) Migrate() error {
	m.logger.Info("Running database migrations...")

	return m.DB.AutoMigrate(
		&models.QueryLog{},
		&models.UserFeedback{},
		&models.PopularQuery{},
		&models.SystemHealth{},
	)
}

// Close closes all database connections
func (m *Manager) Close() error {
	if m.Redis != nil {
		if err := m.Redis.Close(); err != nil {
			m.logger.WithError(err).Error("Failed to close Redis connection")
		}
	}

	if m.DB != nil {
		sqlDB, err := m.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}

	return nil
}

// Health check methods
func (m *Manager) PingDatabase() error {
	sqlDB, err := m.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func (m *Manager) PingRedis() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.Redis.Ping(ctx).Err()
}

// Cache wraps Redis for response caching. Only final, already-bound
// answers are cached; upstream search responses never are.
type Cache struct {
	client *redis.Client
	logger *logrus.Logger
}

func NewCache(client *redis.Client, logger *logrus.Logger) *Cache {
	return &Cache{
		client: client,
		logger: logger,
	}
}

// Cache key constants
const (
	answerKey         = "answer:%s"
	PopularQueriesKey = "popular:queries"
)

// CacheAnswer caches a complete response under a normalized query hash.
func (c *Cache) CacheAnswer(ctx context.Context, queryHash string, response *models.SearchResponse, expiration time.Duration) error {
	key := fmt.Sprintf(answerKey, queryHash)

	data, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}

	return c.client.Set(ctx, key, data, expiration).Err()
}

// GetCachedAnswer retrieves a cached response.
func (c *Cache) GetCachedAnswer(ctx context.Context, queryHash string) (*models.SearchResponse, error) {
	key := fmt.Sprintf(answerKey, queryHash)

	data, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return nil, err
	}

	var response models.SearchResponse
	if err := json.Unmarshal([]byte(data), &response); err != nil {
		return nil, err
	}

	return &response, nil
}

// CachePopularQueries caches the popular queries list.
func (c *Cache) CachePopularQueries(ctx context.Context, queries []models.PopularQuery, expiration time.Duration) error {
	data, err := json.Marshal(queries)
	if err != nil {
		return fmt.Errorf("failed to marshal popular queries: %w", err)
	}

	return c.client.Set(ctx, PopularQueriesKey, data, expiration).Err()
}

// GetCachedPopularQueries retrieves the cached popular queries list.
func (c *Cache) GetCachedPopularQueries(ctx context.Context) ([]models.PopularQuery, error) {
	data, err := c.client.Get(ctx, PopularQueriesKey).Result()
	if err != nil {
		return nil, err
	}

	var queries []models.PopularQuery
	if err := json.Unmarshal([]byte(data), &queries); err != nil {
		return nil, err
	}

	return queries, nil
}
