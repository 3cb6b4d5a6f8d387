package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/scavenger/internal/common"
)

// Open builds the configured backend. The choice is made once at startup and
// callers only ever see the Store interface.
func Open(ctx context.Context, cfg common.StorageConfig, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger.Info("opening storage backend", "backend", cfg.Backend)

	switch cfg.Backend {
	case common.BackendPostgres:
		return OpenPostgres(ctx, cfg, logger)
	case common.BackendSQLite:
		return OpenSQLite(ctx, cfg.SQLitePath, logger)
	case common.BackendFirestore:
		return OpenFirestore(ctx, cfg.FirestoreProjectID, logger)
	default:
		return NewJSONFileStore(cfg.DataDir, logger)
	}
}

// OpenPostgres creates a pgx pool, wraps it for ent's SQL driver and creates the tables.
func OpenPostgres(ctx context.Context, cfg common.StorageConfig, logger *slog.Logger) (*SQLStore, error) {
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("failed to parse database url", "error", err)
		return nil, common.NewAppError(common.CodeInvalidConfig, "invalid DB_URL", err)
	}

	pc.MaxConns = cfg.MaxConns
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = "scavenger"

	dialCtx := ctx
	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(dialCtx, pc)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, storageError("connect", err)
	}
	if err := pool.Ping(dialCtx); err != nil {
		pool.Close()
		logger.Error("database ping failed", "error", err)
		return nil, storageError("ping", err)
	}

	// Wrap pool as *sql.DB for ent
	db := stdlib.OpenDBFromPool(pool)
	drv := entsql.OpenDB(dialect.Postgres, db)
	store := newSQLStore(drv, logger, pool.Close)
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}

	logger.Info("successfully connected to database", "dialect", drv.Dialect())
	return store, nil
}

// OpenSQLite opens (creating if needed) a SQLite file through the pure-Go driver.
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*SQLStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, storageError("create sqlite dir", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, storageError("open sqlite", err)
	}
	// one writer; avoids SQLITE_BUSY between pooled connections
	db.SetMaxOpenConns(1)

	drv := entsql.OpenDB(dialect.SQLite, db)
	store := newSQLStore(drv, logger)
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}

	logger.Info("opened sqlite database", "path", path, "dialect", drv.Dialect())
	return store, nil
}
