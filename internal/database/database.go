package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"styledecor/internal/config"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// DB is the SQL store behind the account, booking and catalog repositories.
// The same queries run on SQLite and Postgres; placeholders are written as
// '?' and rebound for Postgres.
type DB struct {
	*sql.DB
	driver string
	logger *zerolog.Logger
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// NewDB opens the configured database, retrying the first ping with
// exponential backoff, and creates the schema.
func NewDB(ctx context.Context, cfg config.DatabaseConfig, logger *zerolog.Logger) (*DB, error) {
	driverName, dsn, err := dataSource(cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	switch {
	case cfg.Driver == config.DriverSQLite && isMemoryPath(cfg.Path):
		// каждое соединение к :memory: получает свою базу
		sqlDB.SetMaxOpenConns(1)
	case cfg.Driver == config.DriverPostgres && cfg.Postgres.MaxConnections > 0:
		sqlDB.SetMaxOpenConns(cfg.Postgres.MaxConnections)
	}

	policy := RetryPolicy{
		MaxRetries:    cfg.ConnectRetries,
		InitialDelay:  200 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2,
	}
	if err := policy.Do(ctx, func(attempt int) error {
		pingErr := sqlDB.PingContext(ctx)
		if pingErr != nil {
			logger.Warn().Err(pingErr).Int("attempt", attempt).Msg("database not reachable")
		}
		return pingErr
	}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := &DB{DB: sqlDB, driver: cfg.Driver, logger: logger}
	if err := db.createTables(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("driver", cfg.Driver).Msg("database initialized")
	return db, nil
}

func dataSource(cfg config.DatabaseConfig) (string, string, error) {
	switch cfg.Driver {
	case config.DriverSQLite, "":
		if cfg.Path == "" {
			return "", "", fmt.Errorf("database path is required")
		}
		if !isMemoryPath(cfg.Path) {
			// Создаем директорию для БД, если её нет
			if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
				return "", "", fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_txlock=immediate&_foreign_keys=on", cfg.Path)
		return "sqlite3", dsn, nil
	case config.DriverPostgres:
		return "pgx", cfg.Postgres.DSN(), nil
	default:
		return "", "", fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func isMemoryPath(path string) bool {
	return path == ":memory:"
}

func (db *DB) createTables(ctx context.Context) error {
	queries := []string{
		// Аккаунты
		`CREATE TABLE IF NOT EXISTS accounts (
            id TEXT PRIMARY KEY,
            email TEXT NOT NULL UNIQUE,
            name TEXT NOT NULL DEFAULT '',
            photo_url TEXT NOT NULL DEFAULT '',
            role TEXT NOT NULL DEFAULT 'user',
            status TEXT NOT NULL DEFAULT 'open',
            created_at TIMESTAMP NOT NULL,
            updated_at TIMESTAMP NOT NULL
        )`,
		// Заявки; transaction_id - ключ идемпотентности оплаты
		`CREATE TABLE IF NOT EXISTS bookings (
            id TEXT PRIMARY KEY,
            customer_name TEXT NOT NULL DEFAULT '',
            customer_email TEXT NOT NULL,
            phone TEXT NOT NULL DEFAULT '',
            location TEXT NOT NULL DEFAULT '',
            note TEXT NOT NULL DEFAULT '',
            service_id TEXT NOT NULL DEFAULT '',
            service_title TEXT NOT NULL DEFAULT '',
            quantity INTEGER NOT NULL DEFAULT 0,
            total_price DOUBLE PRECISION NOT NULL DEFAULT 0,
            payment TEXT NOT NULL DEFAULT '',
            payment_status TEXT NOT NULL,
            transaction_id TEXT NOT NULL UNIQUE,
            decorator_state TEXT,
            decorator_email TEXT NOT NULL DEFAULT '',
            decorator_name TEXT NOT NULL DEFAULT '',
            decorator_photo TEXT NOT NULL DEFAULT '',
            assigned_at TIMESTAMP,
            stage INTEGER NOT NULL DEFAULT -1,
            created_at TIMESTAMP NOT NULL,
            updated_at TIMESTAMP NOT NULL,
            version INTEGER NOT NULL DEFAULT 1
        )`,
		`CREATE TABLE IF NOT EXISTS booking_stages (
            booking_id TEXT NOT NULL REFERENCES bookings(id),
            slot INTEGER NOT NULL,
            status TEXT NOT NULL,
            reached_at TIMESTAMP NOT NULL,
            PRIMARY KEY (booking_id, slot)
        )`,
		// booking_id без внешнего ключа: просмотр заявок декоратора переживает пропавшую заявку
		`CREATE TABLE IF NOT EXISTS decorator_claims (
            id TEXT PRIMARY KEY,
            booking_id TEXT NOT NULL UNIQUE,
            decorator_id TEXT NOT NULL,
            decorator_email TEXT NOT NULL,
            decorator_name TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMP NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS services (
            id TEXT PRIMARY KEY,
            title TEXT NOT NULL,
            category TEXT NOT NULL DEFAULT '',
            description TEXT NOT NULL DEFAULT '',
            price DOUBLE PRECISION NOT NULL DEFAULT 0,
            unit TEXT NOT NULL DEFAULT '',
            image_url TEXT NOT NULL DEFAULT '',
            created_by TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMP NOT NULL
        )`,

		`CREATE INDEX IF NOT EXISTS idx_accounts_role_status ON accounts(role, status)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_customer_email ON bookings(customer_email)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_decorator_email ON bookings(decorator_email)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_created_at ON bookings(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_claims_decorator_email ON decorator_claims(decorator_email)`,
		`CREATE INDEX IF NOT EXISTS idx_services_created_at ON services(created_at)`,
	}

	for _, query := range queries {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

// rebind converts '?' placeholders to the driver's syntax.
func (db *DB) rebind(query string) string {
	if db.driver != config.DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// inTx runs fn inside a transaction, committing only when fn succeeds.
func (db *DB) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func newID() string {
	return uuid.NewString()
}

func (db *DB) Driver() string {
	return db.driver
}
