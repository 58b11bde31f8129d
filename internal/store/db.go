package store

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/cleanco/platform/internal/config"
	"github.com/cleanco/platform/internal/models"
	"github.com/cleanco/platform/pkg/logging"
)

// DBs bundles the connection pool handles the rest of the module depends
// on. A single instance is built once at startup and passed down by
// reference.
type DBs struct {
	Postgres *gorm.DB
	Redis    *redis.Client
}

func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (*DBs, error) {
	pg, err := openPostgres(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	rdb, err := openRedis(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("open redis: %w", err)
	}
	return &DBs{Postgres: pg, Redis: rdb}, nil
}

func openPostgres(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	host, port, err := net.SplitHostPort(cfg.Postgres.Address)
	if err != nil {
		return nil, fmt.Errorf("invalid postgres address %q: %w", cfg.Postgres.Address, err)
	}
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=prefer statement_timeout=%dms",
		host, port, cfg.Postgres.Username, cfg.Postgres.Password, cfg.Postgres.Database,
		cfg.Postgres.StatementTimeout.Milliseconds(),
	)

	gormLog := logging.NewGormLogger(log, levelFor(cfg.Logs.LogLevel), 200*time.Millisecond, true)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:                                   gormLog,
		DisableForeignKeyConstraintWhenMigrating: true,
		PrepareStmt:                              true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if err := autoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if err := createCustomIndexes(db); err != nil {
		return nil, fmt.Errorf("migrate custom indexes: %w", err)
	}
	log.Info("postgres connected", zap.String("database", cfg.Postgres.Database))
	return db, nil
}

func openRedis(ctx context.Context, cfg *config.Config, log *zap.Logger) (*redis.Client, error) {
	opt := &redis.Options{
		Addr:     cfg.Redis.Addresses[0],
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.Database,
	}
	rdb := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	log.Info("redis connected", zap.String("addr", opt.Addr))
	return rdb, nil
}

func levelFor(level string) gormlogger.LogLevel {
	switch level {
	case "DEBUG", "INFO":
		return gormlogger.Info
	case "WARN":
		return gormlogger.Warn
	default:
		return gormlogger.Error
	}
}

// autoMigrate applies schema changes in dependency order: referenced tables
// before referencing ones.
func autoMigrate(db *gorm.DB) error {
	modelsInOrder := []interface{}{
		&models.Organization{},
		&models.User{},
		&models.Membership{},
		&models.Session{},
		&models.Team{},
		&models.Lead{},
		&models.Booking{},
		&models.Invoice{},
		&models.InvoiceCounter{},
		&models.InvoiceItem{},
		&models.Payment{},
		&models.Photo{},
		&models.ReferralCredit{},
		&models.OutboxEvent{},
		&models.JobHeartbeat{},
		&models.AdminIdempotency{},
		&models.AuditLog{},
	}
	for _, m := range modelsInOrder {
		if err := db.AutoMigrate(m); err != nil {
			return err
		}
	}
	return nil
}

// createCustomIndexes adds the partial unique indexes GORM struct tags
// can't express: dedupe and idempotency keys are nullable, and uniqueness
// must hold only across the rows that actually carry a key.
func createCustomIndexes(db *gorm.DB) error {
	stmts := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_outbox_org_dedupe ON outbox_events (org_id, dedupe_key) WHERE dedupe_key IS NOT NULL`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_payment_provider_event ON payments (provider_event_id) WHERE provider_event_id IS NOT NULL`,
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
