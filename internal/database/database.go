package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/abisalde/marketplace-service/internal/configs"
	"github.com/abisalde/marketplace-service/internal/database/migrate"
	"github.com/abisalde/marketplace-service/pkg/logger"
	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

var (
	shared     *Database
	sharedOnce sync.Once
	initErr    error
)

type Database struct {
	Driver *entsql.Driver
	Store  *Store
	SQLDB  *sql.DB
}

// Connect opens the configured database once per process.
func Connect(cfg *configs.Config) (*Database, error) {
	sharedOnce.Do(func() {
		sqlDB, err := initDatabase(cfg)
		if err != nil {
			initErr = fmt.Errorf("🛑 Database initialization failed: %w", err)
			return
		}

		db := New(cfg.DB.Driver, sqlDB)

		if cfg.DB.Migrate {
			if err := db.Migrate(context.Background()); err != nil {
				initErr = fmt.Errorf("🛠️ Database migration failed: %w", err)
				_ = db.Close()
				return
			}
			logger.L().Info("database schema migrated")
		}

		shared = db
	})

	if initErr != nil {
		return nil, initErr
	}

	return shared, nil
}

// New wraps an open *sql.DB for the given dialect.
func New(driverName string, sqlDB *sql.DB) *Database {
	drv := entsql.OpenDB(driverName, sqlDB)
	return &Database{
		Driver: drv,
		Store:  NewStore(drv),
		SQLDB:  sqlDB,
	}
}

func (db *Database) Migrate(ctx context.Context) error {
	return migrate.Create(ctx, db.Driver)
}

func (db *Database) Close() error {
	if db.Driver == nil {
		return nil
	}

	if err := db.Driver.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}

	if db == shared {
		shared = nil
		sharedOnce = sync.Once{}
	}
	return nil
}

func initDatabase(cfg *configs.Config) (*sql.DB, error) {
	dsn := cfg.SQL_DSN()
	if cfg.DB.Driver == dialect.SQLite {
		dsn = cfg.DB.MySQLDSN
	}

	sqlDB, err := sql.Open(cfg.DB.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("❌ Failed to open database connection: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("⚙️ Database ping failed: %w", err)
	}

	logger.L().Info("database connected", zap.String("driver", cfg.DB.Driver))
	return sqlDB, nil
}

func (db *Database) HealthCheck(ctx context.Context) error {
	if db.SQLDB == nil {
		return fmt.Errorf("sql.DB is not initialized")
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
	}
	return db.SQLDB.PingContext(ctx)
}
