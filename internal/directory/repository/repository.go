package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// User is a directory entry: dentists, patients, reception staff, and the
// owner all live in one users table managed by the identity subsystem. This
// module only reads it.
type User struct {
	ID       int64  `db:"id"`
	FullName string `db:"full_name"`
	Email    string `db:"email"`
	Role     string `db:"role"`
	IsActive bool   `db:"is_active"`
}

// Repository provides read-only directory lookups
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new directory repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, full_name, email, role, is_active`

// GetByRole retrieves an active user by id, constrained to a role.
// Returns nil when the id does not resolve to an active user of that role.
func (r *Repository) GetByRole(ctx context.Context, id int64, role string) (*User, error) {
	var u User
	err := r.pool.QueryRow(ctx, `SELECT `+userColumns+`
		FROM users WHERE id = $1 AND role = $2 AND is_active`, id, role).Scan(
		&u.ID, &u.FullName, &u.Email, &u.Role, &u.IsActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &u, nil
}

// ListByRole retrieves all active users holding the given role.
func (r *Repository) ListByRole(ctx context.Context, role string) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+`
		FROM users WHERE role = $1 AND is_active ORDER BY full_name`, role)
	if err != nil {
		return nil, fmt.Errorf("failed to list users by role: %w", err)
	}
	defer rows.Close()

	items := make([]User, 0)
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.FullName, &u.Email, &u.Role, &u.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		items = append(items, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return items, nil
}
