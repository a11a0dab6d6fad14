// Package rdb contains the concrete implementation of the persistence layer using GORM.
// PostgreSQL (with optional read replicas) and SQLite are supported.
package rdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"recipes/config"
	"recipes/internal/domain/lifecycle"
	"recipes/internal/errors"
	"recipes/internal/infra/persistence/model"

	"github.com/glebarez/sqlite"
	"go.uber.org/fx"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
)

const (
	dbPoolMonitorInterval       = 5 * time.Second
	dbPoolWarnDurationThreshold = 50 * time.Millisecond

	// Transactions take the write lock at BEGIN. Deferred transactions that read then write
	// fail with SQLITE_BUSY when they overlap, and busy_timeout does not retry that case.
	sqlitePragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_txlock=immediate"
)

// Params defines the required parameters
type Params struct {
	fx.In
	fx.Lifecycle

	Config *config.Config
	Logger *slog.Logger
}

// New opens the configured database, migrates the schema when enabled and ties the pool to the fx lifecycle.
func New(params Params) (*gorm.DB, error) {
	db, err := Open(params.Config, params.Logger)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get sql.DB")
	}

	monitorCtx, cancelMonitor := context.WithCancel(context.Background())

	params.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			ctx, cancel := context.WithTimeout(startCtx, lifecycle.DefaultTimeout)
			defer cancel()

			if err := sqlDB.PingContext(ctx); err != nil {
				return errors.Wrap(err, "failed to ping database")
			}

			if params.Config.Database.AutoMigrate {
				if err := Migrate(db.WithContext(ctx), params.Config); err != nil {
					return err
				}
				params.Logger.Info("Database schema migrated", slog.String("driver", params.Config.Database.Driver))
			}

			go monitorDBPool(monitorCtx, params.Logger, sqlDB, dbPoolMonitorInterval)

			return nil
		},
		OnStop: func(_ context.Context) error {
			cancelMonitor()

			return sqlDB.Close()
		},
	})

	return db, nil
}

// Open connects to the database described by cfg.Database without running migrations.
func Open(cfg *config.Config, logger *slog.Logger) (*gorm.DB, error) {
	dbCfg := cfg.Database
	if dbCfg == nil {
		return nil, errors.New("database configuration is missing")
	}

	gormCfg := &gorm.Config{
		// Disable GORM's per-statement implicit transaction.
		// We keep explicit transactions via txManager.Execute for multi-step atomic operations.
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 newGormSlogLogger(logger, cfg),
	}

	var (
		db  *gorm.DB
		err error
	)
	switch dbCfg.Driver {
	case config.DriverPostgres:
		db, err = gorm.Open(postgres.Open(postgresDSN(dbCfg, dbCfg.Master)), gormCfg)
	case config.DriverSQLite:
		db, err = gorm.Open(sqlite.Open(sqliteDSN(dbCfg.Path)), gormCfg)
	default:
		return nil, errors.Errorf("unsupported database driver: %q", dbCfg.Driver)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s database", dbCfg.Driver)
	}

	if dbCfg.Driver == config.DriverPostgres && len(dbCfg.Replicas) > 0 {
		replicas := make([]gorm.Dialector, 0, len(dbCfg.Replicas))
		for _, replica := range dbCfg.Replicas {
			replicas = append(replicas, postgres.Open(postgresDSN(dbCfg, replica)))
		}

		resolver := dbresolver.Register(dbresolver.Config{
			Replicas: replicas,
			Policy:   dbresolver.RandomPolicy{},
		})
		applyReplicaPoolSettings(resolver, dbCfg)

		if err := db.Use(resolver); err != nil {
			return nil, errors.Wrap(err, "failed to register read replicas")
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get sql.DB")
	}

	if dbCfg.Driver == config.DriverSQLite && isSQLiteMemory(dbCfg.Path) {
		// Every new connection to an in-memory database sees an empty schema.
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
	} else {
		applyPoolSettings(sqlDB, dbCfg)
	}

	return db, nil
}

// Migrate creates or updates the tables owned by this service.
func Migrate(db *gorm.DB, cfg *config.Config) error {
	models := []any{&model.UserModel{}, &model.RecipeModel{}}
	if cfg.Session != nil && cfg.Session.Store == config.SessionStoreDatabase {
		models = append(models, &model.SessionModel{})
	}

	if err := db.AutoMigrate(models...); err != nil {
		return errors.Wrap(err, "failed to migrate database schema")
	}

	return nil
}

func applyPoolSettings(sqlDB *sql.DB, dbCfg *config.DatabaseConfig) {
	if dbCfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(dbCfg.MaxIdleConns)
	}
	if dbCfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(dbCfg.MaxOpenConns)
	}
	if dbCfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(dbCfg.ConnMaxLifetime)
	}
}

func applyReplicaPoolSettings(resolver *dbresolver.DBResolver, dbCfg *config.DatabaseConfig) {
	if dbCfg.MaxIdleConns > 0 {
		resolver.SetMaxIdleConns(dbCfg.MaxIdleConns)
	}
	if dbCfg.MaxOpenConns > 0 {
		resolver.SetMaxOpenConns(dbCfg.MaxOpenConns)
	}
	if dbCfg.ConnMaxLifetime > 0 {
		resolver.SetConnMaxLifetime(dbCfg.ConnMaxLifetime)
	}
}

func postgresDSN(dbCfg *config.DatabaseConfig, conn config.ConnectionConfig) string {
	parts := []string{
		"host=" + conn.Host,
		"port=" + conn.Port,
		"user=" + conn.UserName,
		"password=" + conn.Password,
		"dbname=" + dbCfg.DBName,
	}
	if dbCfg.SSLMode != "" {
		parts = append(parts, "sslmode="+dbCfg.SSLMode)
	}
	if dbCfg.TimeZone != "" {
		parts = append(parts, "TimeZone="+dbCfg.TimeZone)
	}

	return strings.Join(parts, " ")
}

func sqliteDSN(path string) string {
	if path == "" {
		path = ":memory:"
	}

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}

	return fmt.Sprintf("%s%s%s", path, sep, sqlitePragmas)
}

func isSQLiteMemory(path string) bool {
	return path == "" || strings.HasPrefix(path, ":memory:") || strings.Contains(path, "mode=memory")
}

func monitorDBPool(ctx context.Context, logger *slog.Logger, sqlDB *sql.DB, interval time.Duration) {
	if logger == nil || sqlDB == nil {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	prev := sqlDB.Stats()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cur := sqlDB.Stats()
			waitDelta := cur.WaitCount - prev.WaitCount
			waitDurationDelta := cur.WaitDuration - prev.WaitDuration

			if waitDelta > 0 {
				attrs := []slog.Attr{
					slog.Int64("waitCountDelta", waitDelta),
					slog.Duration("waitDurationDelta", waitDurationDelta),
					slog.Duration("avgWait", waitDurationDelta/time.Duration(waitDelta)),
					slog.Int("maxOpenConns", cur.MaxOpenConnections),
					slog.Int("openConns", cur.OpenConnections),
					slog.Int("inUseConns", cur.InUse),
				}
				if waitDurationDelta >= dbPoolWarnDurationThreshold {
					logger.LogAttrs(ctx, slog.LevelWarn, "Database pool wait detected", attrs...)
				} else {
					logger.LogAttrs(ctx, slog.LevelDebug, "Database pool wait observed", attrs...)
				}
			}

			prev = cur
		}
	}
}
