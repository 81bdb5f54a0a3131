// Package user holds accounts and the follow relation between users and
// recipe authors.
package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrNotFound is returned when a user id does not resolve.
	ErrNotFound = errors.New("user not found")
	// ErrExists is returned when the username or email is already taken.
	ErrExists = errors.New("user already exists")
	// ErrInvalidCredentials is returned on a failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// uniqueViolation is the Postgres error code for a unique constraint hit.
const uniqueViolation = "23505"

// User is an account. PasswordHash never leaves the store layer.
type User struct {
	ID           int64  `json:"id" db:"id"`
	Username     string `json:"username" db:"username"`
	Email        string `json:"email" db:"email"`
	FirstName    string `json:"first_name" db:"first_name"`
	LastName     string `json:"last_name" db:"last_name"`
	PasswordHash string `json:"-" db:"password_hash"`
}

// PostgresStore holds users and follow pairs in PostgreSQL.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore creates a new PostgresStore and bootstraps its tables.
func NewPostgresStore(db *sqlx.DB) (*PostgresStore, error) {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS follows (
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		author_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		PRIMARY KEY (user_id, author_id)
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create user tables: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// Create registers a new user, hashing the password with bcrypt.
func (s *PostgresStore) Create(ctx context.Context, u *User, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	u.PasswordHash = string(hash)

	err = s.db.QueryRowContext(ctx,
		"INSERT INTO users (username, email, first_name, last_name, password_hash) VALUES ($1, $2, $3, $4, $5) RETURNING id",
		u.Username, u.Email, u.FirstName, u.LastName, u.PasswordHash,
	).Scan(&u.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// Authenticate checks email and password and returns the matching user.
func (s *PostgresStore) Authenticate(ctx context.Context, email, password string) (*User, error) {
	var u User
	err := s.db.GetContext(ctx, &u,
		"SELECT id, username, email, first_name, last_name, password_hash FROM users WHERE email = $1", email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return &u, nil
}

// GetByID returns one user.
func (s *PostgresStore) GetByID(ctx context.Context, id int64) (*User, error) {
	var u User
	err := s.db.GetContext(ctx, &u,
		"SELECT id, username, email, first_name, last_name, password_hash FROM users WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// ListByIDs returns the given users in one query, for annotating recipe
// listings without a per-row lookup.
func (s *PostgresStore) ListByIDs(ctx context.Context, ids []int64) ([]User, error) {
	users := []User{}
	err := s.db.SelectContext(ctx, &users,
		"SELECT id, username, email, first_name, last_name, password_hash FROM users WHERE id = ANY($1)", pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to list users by ids: %w", err)
	}
	return users, nil
}

// Follow subscribes userID to authorID. Like the cart/favorite toggles, a
// duplicate pair is signaled through the bool, not an error.
func (s *PostgresStore) Follow(ctx context.Context, userID, authorID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO follows (user_id, author_id) VALUES ($1, $2) ON CONFLICT (user_id, author_id) DO NOTHING",
		userID, authorID)
	if err != nil {
		return false, fmt.Errorf("failed to follow: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read insert result: %w", err)
	}
	return affected > 0, nil
}

// Unfollow removes the subscription and reports whether it existed.
func (s *PostgresStore) Unfollow(ctx context.Context, userID, authorID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM follows WHERE user_id = $1 AND author_id = $2", userID, authorID)
	if err != nil {
		return false, fmt.Errorf("failed to unfollow: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read delete result: %w", err)
	}
	return affected > 0, nil
}

// ListFollowedAuthors returns every author the user subscribes to.
func (s *PostgresStore) ListFollowedAuthors(ctx context.Context, userID int64) ([]User, error) {
	authors := []User{}
	err := s.db.SelectContext(ctx, &authors,
		`SELECT u.id, u.username, u.email, u.first_name, u.last_name, u.password_hash
		 FROM follows f JOIN users u ON u.id = f.author_id
		 WHERE f.user_id = $1 ORDER BY u.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return authors, nil
}
