package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLiteRepository mirrors PostgresRepository for the embedded sqlite backend.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) FindByUsername(ctx context.Context, username string) (User, error) {
	return r.findOne(ctx, `
		SELECT id, username, password_hash, is_active, is_admin, created_at, updated_at
		FROM users
		WHERE username = ?
	`, username)
}

func (r *SQLiteRepository) FindByID(ctx context.Context, id string) (User, error) {
	return r.findOne(ctx, `
		SELECT id, username, password_hash, is_active, is_admin, created_at, updated_at
		FROM users
		WHERE id = ?
	`, id)
}

func (r *SQLiteRepository) findOne(ctx context.Context, query string, arg string) (User, error) {
	var u User
	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.IsActive, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("query user: %w", err)
	}

	return u, nil
}

func (r *SQLiteRepository) List(ctx context.Context, offset, limit int) ([]User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, username, password_hash, is_active, is_admin, created_at, updated_at
		FROM users
		ORDER BY created_at ASC, id ASC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.IsActive, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return total, nil
}

func (r *SQLiteRepository) Create(ctx context.Context, u User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, username, password_hash, is_active, is_admin, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, u.ID, u.Username, u.PasswordHash, u.IsActive, u.IsAdmin, u.CreatedAt.UTC(), u.UpdatedAt.UTC())
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return ErrUsernameTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

func (r *SQLiteRepository) Update(ctx context.Context, u User) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET username = ?, password_hash = ?, is_active = ?, is_admin = ?, updated_at = ?
		WHERE id = ?
	`, u.Username, u.PasswordHash, u.IsActive, u.IsAdmin, u.UpdatedAt.UTC(), u.ID)
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return ErrUsernameTaken
		}
		return fmt.Errorf("update user: %w", err)
	}

	return requireAffected(res)
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	return requireAffected(res)
}

func isSQLiteUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
