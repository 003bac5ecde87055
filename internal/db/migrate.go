package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationFiles embed.FS

func RunMigrations(ctx context.Context, database *sql.DB, dialect Dialect) error {
	gooseDialect, dir, err := migrationSource(dialect)
	if err != nil {
		return err
	}

	fsys, err := fs.Sub(migrationFiles, dir)
	if err != nil {
		return fmt.Errorf("read migration files: %w", err)
	}

	provider, err := goose.NewProvider(gooseDialect, database, fsys)
	if err != nil {
		return fmt.Errorf("create migration provider: %w", err)
	}

	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

func migrationSource(dialect Dialect) (goose.Dialect, string, error) {
	switch dialect {
	case DialectPostgres:
		return goose.DialectPostgres, "migrations/postgres", nil
	case DialectSQLite:
		return goose.DialectSQLite3, "migrations/sqlite", nil
	default:
		return "", "", fmt.Errorf("no migrations for dialect %q", dialect)
	}
}
