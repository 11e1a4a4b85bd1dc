package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database is the store's gorm handle together with its connection pool.
type Database struct {
	DB   *gorm.DB
	pool *sql.DB
}

// Open connects to the database named by cfg.Driver and verifies the
// connection. A nil gormLogger silences query logging.
func Open(cfg *config.DatabaseConfig, gormLogger logger.Interface) (*Database, error) {
	if gormLogger == nil {
		gormLogger = logger.Default.LogMode(logger.Silent)
	}
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "", config.DriverPostgres:
		dialector = postgres.Open(cfg.DSN())
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.DSN())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
		PrepareStmt:            cfg.Driver != config.DriverSQLite,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driverName(cfg.Driver), err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("connection pool: %w", err)
	}
	configurePool(sqlDB, cfg)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s database: %w", driverName(cfg.Driver), err)
	}
	return &Database{DB: gdb, pool: sqlDB}, nil
}

func driverName(driver string) string {
	if driver == "" {
		return config.DriverPostgres
	}
	return driver
}

// configurePool applies the pool limits. SQLite gets one connection so an
// in-memory database is shared by every query.
func configurePool(db *sql.DB, cfg *config.DatabaseConfig) {
	if cfg.Driver == config.DriverSQLite {
		db.SetMaxOpenConns(1)
		return
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	db.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)
}

// AutoMigrate creates or updates the store tables and seeds the built-in
// order statuses. Production deployments run cmd/migrate instead.
func (d *Database) AutoMigrate(ctx context.Context) error {
	if err := d.DB.WithContext(ctx).AutoMigrate(models.StoreModels()...); err != nil {
		return fmt.Errorf("migrate store schema: %w", err)
	}
	if err := NewGormStatusRepository(d.DB).Seed(ctx); err != nil {
		return fmt.Errorf("seed order statuses: %w", err)
	}
	return nil
}

// Ping reports whether the database answers within five seconds.
func (d *Database) Ping() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return d.pool.PingContext(ctx)
}

// OpenConnections is the current size of the pool, idle plus in use.
func (d *Database) OpenConnections() int {
	return d.pool.Stats().OpenConnections
}

// MaxOpenConnections is the configured pool limit, zero meaning unlimited.
func (d *Database) MaxOpenConnections() int {
	return d.pool.Stats().MaxOpenConnections
}

func (d *Database) Close() error {
	return d.pool.Close()
}
