// Package users is the credential store: it persists member records
// (name, email, password hash) in PostgreSQL.
package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"members/internal/database"

	"github.com/google/uuid"
)

// ErrStoreUnavailable wraps any failure of the underlying database.
var ErrStoreUnavailable = errors.New("credential store unavailable")

// Repository defines the credential store operations
type Repository interface {
	// Insert appends a new user record and returns its id. Email uniqueness
	// is not checked.
	Insert(ctx context.Context, name, email, passwordHash string) (string, error)

	// FindByEmail returns every record stored under email, projected to
	// id, email, password hash and name.
	FindByEmail(ctx context.Context, email string) ([]User, error)
}

// PostgresRepository handles all database operations for users
type PostgresRepository struct {
	db  database.Querier
	now func() time.Time
}

// NewRepository creates a new users repository
func NewRepository(db database.Querier) *PostgresRepository {
	return &PostgresRepository{db: db, now: time.Now}
}

// Insert stores a new user
func (r *PostgresRepository) Insert(ctx context.Context, name, email, passwordHash string) (string, error) {
	const query = `
		INSERT INTO users (id, name, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	id := uuid.New().String()
	if _, err := r.db.Exec(ctx, query, id, name, email, passwordHash, r.now().UTC()); err != nil {
		return "", fmt.Errorf("%w: insert user: %w", ErrStoreUnavailable, err)
	}

	return id, nil
}

// FindByEmail retrieves all users registered with the given email
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) ([]User, error) {
	const query = `
		SELECT id, email, password_hash, name
		FROM users
		WHERE email = $1
	`

	rows, err := r.db.Query(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("%w: find user by email: %w", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var result []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name); err != nil {
			return nil, fmt.Errorf("%w: scan user: %w", ErrStoreUnavailable, err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate users: %w", ErrStoreUnavailable, err)
	}

	return result, nil
}
