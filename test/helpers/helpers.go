// test/helpers/helpers.go
package helpers

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/countsync/internal/adapters/db"
	"github.com/ammerola/countsync/internal/core/domain"
	"github.com/ammerola/countsync/internal/pkg/config"
	"github.com/ammerola/countsync/migrations"
)

// TestDB represents a test database instance
type TestDB struct {
	PgxPool  *pgxpool.Pool
	Database *db.Database
	Resource *dockertest.Resource
	Pool     *dockertest.Pool
	Config   *db.Config
}

// TestRedis represents a test Redis instance
type TestRedis struct {
	Client *redis.Client
	Server *miniredis.Miniredis
}

// TestLogger returns a test logger
func TestLogger() *slog.Logger {
	if testing.Verbose() {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// SetupTestDB creates a PostgreSQL container for integration tests
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	pool, err := dockertest.NewPool("")
	require.NoError(t, err, "Could not connect to Docker")

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=test",
			"POSTGRES_PASSWORD=test",
			"POSTGRES_DB=test_countsync",
			"listen_addresses = '*'",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err, "Could not start PostgreSQL container")

	t.Cleanup(func() {
		if err := pool.Purge(resource); err != nil {
			t.Logf("Could not purge resource: %s", err)
		}
	})

	dbConfig := &db.Config{
		Host:               "localhost",
		Port:               resource.GetPort("5432/tcp"),
		User:               "test",
		Password:           "test",
		Database:           "test_countsync",
		SSLMode:            "disable",
		MaxConnections:     5,
		MinConnections:     1,
		MaxConnLifetime:    time.Hour,
		MaxConnIdleTime:    time.Minute * 30,
		HealthCheckPeriod:  time.Minute,
		ConnectTimeout:     time.Second * 10,
		StatementCacheMode: "describe",
		EnableQueryLogging: testing.Verbose(),
	}

	var database *db.Database
	err = pool.Retry(func() error {
		ctx := context.Background()
		var err error
		database, err = db.NewDatabase(ctx, dbConfig, TestLogger())
		if err != nil {
			return err
		}
		return database.Ping(ctx)
	})
	require.NoError(t, err, "Could not connect to PostgreSQL")

	ctx := context.Background()
	migrationConfig := &db.MigrationConfig{
		DatabaseURL:    dbConfig.URL(),
		EmbeddedSource: migrations.FS,
		TableName:      "schema_migrations",
		SchemaName:     "public",
	}

	err = db.RunMigrationsWithRetry(ctx, migrationConfig, TestLogger(), 3)
	require.NoError(t, err, "Could not run migrations")

	t.Cleanup(database.Close)

	return &TestDB{
		PgxPool:  database.Pool(),
		Database: database,
		Resource: resource,
		Pool:     pool,
		Config:   dbConfig,
	}
}

// SetupTestRedis creates an in-memory Redis instance for testing
func SetupTestRedis(t *testing.T) *TestRedis {
	t.Helper()

	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	t.Cleanup(func() {
		client.Close()
	})

	return &TestRedis{
		Client: client,
		Server: mr,
	}
}

// SetupMockDB creates a mock database for unit testing
func SetupMockDB(t *testing.T) (sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err, "Failed to create mock DB")

	t.Cleanup(func() {
		db.Close()
	})

	return mock, db
}

// LoadTestConfig returns a test configuration
func LoadTestConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name:        "countsync-test",
			Environment: "test",
			Version:     "test",
			LogLevel:    "debug",
			LogFormat:   "text",
			Debug:       true,
		},
		Database: config.DatabaseConfig{
			Host:               "localhost",
			Port:               "5432",
			User:               "test",
			Password:           "test",
			Name:               "test_countsync",
			SSLMode:            "disable",
			MaxConnections:     10,
			MinConnections:     2,
			EnableQueryLogging: true,
		},
		Redis: config.RedisConfig{
			Host:     "localhost",
			Port:     "6379",
			DB:       0,
			TTL:      time.Hour,
			PoolSize: 10,
		},
		Counts: config.CountsConfig{
			BatchReceiptTTL:     24 * time.Hour,
			ProductCacheTTL:     10 * time.Minute,
			EvidenceMaxSizeMB:   10,
			EvidenceURLExpiry:   15 * time.Minute,
			EvidenceRetention:   7 * 24 * time.Hour,
			ExportMaxRows:       1000,
			DefaultCountedBy:    "device",
			ConflictNotifyQueue: "critical",
		},
		Security: config.SecurityConfig{
			RateLimitRequests: 100,
			RateLimitDuration: time.Minute,
			AllowedOrigins:    []string{"*"},
			SecureHeaders:     false,
			RequestIDHeader:   "X-Request-ID",
		},
		Server: config.ServerConfig{
			Host:         "localhost",
			Port:         "8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
	}
}

// CreateTestProduct creates a test product with 10 units on hand
func CreateTestProduct(overrides ...func(*domain.Product)) *domain.Product {
	now := time.Now().UTC().Truncate(time.Microsecond)
	product := &domain.Product{
		ID:              uuid.New(),
		BusinessID:      uuid.New(),
		Name:            "Widget A",
		SKU:             "WID-A",
		Barcode:         "0123456789012",
		Category:        domain.CategoryFinished,
		CurrentQuantity: 10,
		Cost:            decimal.NewFromFloat(2.50),
		Price:           decimal.NewFromFloat(4.99),
		Location:        "Aisle 3",
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	for _, override := range overrides {
		override(product)
	}

	return product
}

// CreateTestProducts creates count products sharing a business
func CreateTestProducts(businessID uuid.UUID, count int) []*domain.Product {
	categories := []domain.ProductCategory{
		domain.CategoryGeneral,
		domain.CategoryRawMaterial,
		domain.CategoryFinished,
		domain.CategoryPackaging,
	}

	products := make([]*domain.Product, count)
	for i := 0; i < count; i++ {
		products[i] = CreateTestProduct(func(p *domain.Product) {
			p.BusinessID = businessID
			p.Name = fmt.Sprintf("Test Product %d", i+1)
			p.SKU = fmt.Sprintf("SKU-%03d", i+1)
			p.Barcode = fmt.Sprintf("BC%011d", i+1)
			p.Category = categories[i%len(categories)]
			p.CurrentQuantity = 10 * (i + 1)
		})
	}

	return products
}

// CreateTestSubmission creates a count submission for a product
func CreateTestSubmission(productID uuid.UUID, quantity int, overrides ...func(*domain.CountSubmission)) *domain.CountSubmission {
	sub := &domain.CountSubmission{
		ProductID:    productID,
		Quantity:     &quantity,
		Location:     "Aisle 3",
		SyncPriority: 1,
	}

	for _, override := range overrides {
		override(sub)
	}

	return sub
}

// IntPtr returns a pointer to v
func IntPtr(v int) *int {
	return &v
}

// AssertEventuallyWithTimeout asserts that a condition is met within a timeout
func AssertEventuallyWithTimeout(t *testing.T, condition func() bool, timeout time.Duration, msg string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}

	t.Errorf("Condition not met within %v: %s", timeout, msg)
}

// TruncateAllTables truncates all tables in the test database
func TruncateAllTables(t *testing.T, db *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()
	tables := []string{
		"inventory_counts",
		"products",
	}

	for _, table := range tables {
		_, err := db.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		require.NoError(t, err, "Failed to truncate table: %s", table)
	}
}

// SeedProducts inserts products directly, bypassing the repository
func SeedProducts(t *testing.T, db *pgxpool.Pool, products []*domain.Product) {
	t.Helper()

	ctx := context.Background()

	for _, p := range products {
		_, err := db.Exec(ctx, `
			INSERT INTO products (
				id, business_id, name, sku, barcode, category,
				current_quantity, cost, price, location, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			p.ID, p.BusinessID, p.Name, p.SKU, p.Barcode, string(p.Category),
			p.CurrentQuantity, p.Cost, p.Price, p.Location, p.CreatedAt, p.UpdatedAt,
		)
		require.NoError(t, err, "Failed to seed product %s", p.Name)
	}
}
