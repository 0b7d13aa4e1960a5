package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

const (
	dialectSQLite   = "sqlite"
	dialectPostgres = "postgres"
)

type Config struct {
	DSN              string // Postgres DSN; empty means embedded SQLite
	Path             string // SQLite path; ":memory:" allowed
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// DB wraps a database/sql handle plus the dialect it speaks.
type DB struct {
	sql     *sql.DB
	pool    *pgxpool.Pool // nil for SQLite
	dialect string
}

// Open connects to the configured store and initializes the schema.
// A non-empty DSN selects Postgres via a pgx pool; otherwise the embedded
// SQLite store at cfg.Path is used.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DSN != "" {
		return openPostgres(ctx, cfg, logger)
	}
	return openSQLite(ctx, cfg, logger)
}

func openPostgres(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	logger.Info("connecting to database", "dialect", dialectPostgres)
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("failed to parse database config", "error", err)
		return nil, err
	}

	pc.MaxConns = cfg.MaxConns
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = "bookkeeper"
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = cfg.StatementTimeout.String()
	}

	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}

	db := &DB{sql: stdlib.OpenDBFromPool(pool), pool: pool, dialect: dialectPostgres}
	if err := initSchema(ctx, db); err != nil {
		pool.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	logger.Info("successfully connected to database")
	return db, nil
}

func openSQLite(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}
	logger.Info("opening embedded database", "dialect", dialectSQLite, "path", path)

	sdb, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// modernc sqlite handles are not safe for concurrent writers; a single
	// connection also makes the one-statement dequeue serializable.
	sdb.SetMaxOpenConns(1)

	if _, err := sdb.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = sdb.Close()
		return nil, err
	}
	if _, err := sdb.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		_ = sdb.Close()
		return nil, err
	}

	db := &DB{sql: sdb, dialect: dialectSQLite}
	if err := initSchema(ctx, db); err != nil {
		_ = sdb.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return db, nil
}

// Close closes the database connections gracefully
func (db *DB) Close(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("closing database connections")
	if db.pool != nil {
		db.pool.Close()
	}
	if err := db.sql.Close(); err != nil {
		logger.Error("failed to close database", "error", err)
	}
}

// HealthCheck pings the store to catch DSN issues early.
func (db *DB) HealthCheck(ctx context.Context, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if db.pool != nil {
		return db.pool.Ping(ctx)
	}
	return db.sql.PingContext(ctx)
}

// rebind converts '?' placeholders to the dialect's native form.
func (db *DB) rebind(query string) string {
	if db.dialect != dialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// fmtTime renders a timestamp in the canonical stored form. Natural-key
// equality on dates depends on every writer using this exact format.
func fmtTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
