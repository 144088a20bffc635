package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/taskboard/taskboard-go/internal/config"
)

// Dialect names the SQL flavour behind a DB.
type Dialect string

const (
	MySQL    Dialect = "mysql"
	Postgres Dialect = "postgres"
)

// DB is a connection pool plus the dialect its queries are written for.
type DB struct {
	sql     *sql.DB
	dialect Dialect
}

// NewDB opens a connection pool for the configured driver, checks it is
// reachable and creates the schema if needed.
func NewDB(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	var (
		db  *sql.DB
		err error
	)

	switch Dialect(cfg.Driver) {
	case MySQL:
		db, err = openMySQL(cfg)
	case Postgres:
		db, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(max(cfg.MaxOpenConns/4, 1))
	db.SetConnMaxIdleTime(cfg.IdleTimeout)

	d := &DB{sql: db, dialect: Dialect(cfg.Driver)}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := d.Ping(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Driver, err)
	}

	if err := d.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	slog.Info("database ready", "driver", cfg.Driver, "max_open_conns", cfg.MaxOpenConns)
	return d, nil
}

func openMySQL(cfg config.DatabaseConfig) (*sql.DB, error) {
	mc, err := mysql.ParseDSN(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	// Timestamps scan into time.Time and RowsAffected counts matched rows.
	mc.ParseTime = true
	mc.ClientFoundRows = true
	if cfg.ConnectTimeout > 0 {
		mc.Timeout = cfg.ConnectTimeout
	}

	connector, err := mysql.NewConnector(mc)
	if err != nil {
		return nil, err
	}
	return sql.OpenDB(connector), nil
}

func openPostgres(cfg config.DatabaseConfig) (*sql.DB, error) {
	pc, err := pgx.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.ConnectTimeout > 0 {
		pc.ConnectTimeout = cfg.ConnectTimeout
	}
	return stdlib.OpenDB(*pc), nil
}

// Ping checks that the store is reachable.
func (d *DB) Ping(ctx context.Context) error {
	return d.sql.PingContext(ctx)
}

// Close releases the pool.
func (d *DB) Close() error {
	return d.sql.Close()
}

// rebind rewrites '?' placeholders to the dialect's form.
func (d *DB) rebind(query string) string {
	return rebind(d.dialect, query)
}

func rebind(dialect Dialect, query string) string {
	if dialect != Postgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// isDuplicateKeyError reports a unique-constraint violation from either driver.
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}

	return false
}

func (d *DB) migrate(ctx context.Context) error {
	stmts := mysqlSchema
	if d.dialect == Postgres {
		stmts = postgresSchema
	}

	for _, stmt := range stmts {
		if _, err := d.sql.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            VARCHAR(36)  NOT NULL PRIMARY KEY,
		email         VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		created_at    DATETIME(6)  NOT NULL,
		updated_at    DATETIME(6)  NOT NULL,
		UNIQUE KEY uq_users_email (email)
	)`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id          VARCHAR(36)  NOT NULL PRIMARY KEY,
		title       VARCHAR(255) NOT NULL,
		description TEXT         NULL,
		status      VARCHAR(20)  NOT NULL DEFAULT 'todo',
		due_date    DATETIME(6)  NULL,
		user_id     VARCHAR(36)  NOT NULL,
		created_at  DATETIME(6)  NOT NULL,
		updated_at  DATETIME(6)  NOT NULL,
		KEY idx_tasks_user_created (user_id, created_at),
		CONSTRAINT chk_tasks_status CHECK (status IN ('todo', 'in_progress', 'done')),
		CONSTRAINT fk_tasks_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
	)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            VARCHAR(36)  PRIMARY KEY,
		email         VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		created_at    TIMESTAMPTZ  NOT NULL,
		updated_at    TIMESTAMPTZ  NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id          VARCHAR(36)  PRIMARY KEY,
		title       VARCHAR(255) NOT NULL,
		description TEXT         NULL,
		status      VARCHAR(20)  NOT NULL DEFAULT 'todo'
		            CHECK (status IN ('todo', 'in_progress', 'done')),
		due_date    TIMESTAMPTZ  NULL,
		user_id     VARCHAR(36)  NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		created_at  TIMESTAMPTZ  NOT NULL,
		updated_at  TIMESTAMPTZ  NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_user_created ON tasks (user_id, created_at DESC)`,
}
