package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
	DialectMemory   Dialect = "memory"
)

type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// ParseURL maps a DATABASE_URL onto a dialect and the DSN its driver expects.
func ParseURL(databaseURL string) (Dialect, string, error) {
	databaseURL = strings.TrimSpace(databaseURL)

	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return DialectPostgres, databaseURL, nil
	case strings.HasPrefix(databaseURL, "sqlite://"):
		dsn := strings.TrimPrefix(databaseURL, "sqlite://")
		if dsn == "" {
			return "", "", fmt.Errorf("sqlite url has no path")
		}
		return DialectSQLite, dsn, nil
	case databaseURL == "memory://":
		return DialectMemory, "", nil
	default:
		return "", "", fmt.Errorf("unsupported database url scheme")
	}
}

// Open connects to a postgres or sqlite database and verifies the connection.
// The memory dialect has no database handle and is rejected here.
func Open(ctx context.Context, dialect Dialect, dsn string, pool PoolConfig) (*sql.DB, error) {
	switch dialect {
	case DialectPostgres:
		return openPostgres(ctx, dsn, pool)
	case DialectSQLite:
		return openSQLite(ctx, dsn)
	default:
		return nil, fmt.Errorf("dialect %q has no sql driver", dialect)
	}
}

func openPostgres(ctx context.Context, dsn string, pool PoolConfig) (*sql.DB, error) {
	database, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if pool.MaxOpenConns > 0 {
		database.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		database.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		database.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}
	if pool.ConnMaxIdleTime > 0 {
		database.SetConnMaxIdleTime(pool.ConnMaxIdleTime)
	}

	if err := database.PingContext(ctx); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return database, nil
}

func openSQLite(ctx context.Context, dsn string) (*sql.DB, error) {
	database, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// sqlite has a single writer, and every connection to :memory: would see
	// its own empty database.
	database.SetMaxOpenConns(1)
	database.SetMaxIdleConns(1)
	database.SetConnMaxLifetime(0)
	database.SetConnMaxIdleTime(0)

	pragmas := []string{
		"PRAGMA foreign_keys = ON;",
		"PRAGMA busy_timeout = 5000;",
	}
	if dsn != ":memory:" {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL;", "PRAGMA synchronous = NORMAL;")
	}
	for _, pragma := range pragmas {
		if _, err := database.ExecContext(ctx, pragma); err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	if err := database.PingContext(ctx); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return database, nil
}
