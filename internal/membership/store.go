// Package membership implements the generic per-user recipe relation behind
// both the shopping cart and favorites. The two relations are structurally
// identical, so one store is instantiated twice with different kinds instead
// of duplicating the logic.
package membership

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Kind names one membership relation: its table and the localized label used
// in conflict messages.
type Kind struct {
	table string
	label string
}

var (
	Cart     = Kind{table: "carts", label: "Карзина"}
	Favorite = Kind{table: "favorites", label: "Избранное"}
)

// Store is a set of (user, recipe) pairs with idempotent add/remove.
// Uniqueness is enforced by the primary key, not application locking, so
// concurrent toggles for the same pair collapse to one row.
type Store struct {
	db   *sqlx.DB
	kind Kind
}

// NewStore creates the relation's table if needed. The users and recipes
// tables must already exist.
func NewStore(db *sqlx.DB, kind Kind) (*Store, error) {
	schema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		recipe_id BIGINT NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
		PRIMARY KEY (user_id, recipe_id)
	);
	`, kind.table)
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create %s table: %w", kind.table, err)
	}
	return &Store{db: db, kind: kind}, nil
}

// Label returns the localized relation name for client-facing messages.
func (s *Store) Label() string {
	return s.kind.label
}

// Add puts the pair into the set. A pair that is already present is not an
// error; it is reported through the returned bool.
func (s *Store) Add(ctx context.Context, userID, recipeID int64) (bool, error) {
	query := fmt.Sprintf(
		"INSERT INTO %s (user_id, recipe_id) VALUES ($1, $2) ON CONFLICT (user_id, recipe_id) DO NOTHING",
		s.kind.table)
	res, err := s.db.ExecContext(ctx, query, userID, recipeID)
	if err != nil {
		return false, fmt.Errorf("failed to add to %s: %w", s.kind.table, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read insert result: %w", err)
	}
	return affected > 0, nil
}

// Remove deletes the pair and reports whether anything was deleted.
func (s *Store) Remove(ctx context.Context, userID, recipeID int64) (bool, error) {
	query := fmt.Sprintf("DELETE FROM %s WHERE user_id = $1 AND recipe_id = $2", s.kind.table)
	res, err := s.db.ExecContext(ctx, query, userID, recipeID)
	if err != nil {
		return false, fmt.Errorf("failed to remove from %s: %w", s.kind.table, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read delete result: %w", err)
	}
	return affected > 0, nil
}

// Contains reports whether the pair is in the set.
func (s *Store) Contains(ctx context.Context, userID, recipeID int64) (bool, error) {
	query := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE user_id = $1 AND recipe_id = $2)", s.kind.table)
	var exists bool
	if err := s.db.GetContext(ctx, &exists, query, userID, recipeID); err != nil {
		return false, fmt.Errorf("failed to check %s membership: %w", s.kind.table, err)
	}
	return exists, nil
}

// ListRecipeIDs returns every recipe in the user's set in one query. Callers
// annotating a recipe listing use this instead of a per-row existence check.
func (s *Store) ListRecipeIDs(ctx context.Context, userID int64) ([]int64, error) {
	query := fmt.Sprintf("SELECT recipe_id FROM %s WHERE user_id = $1", s.kind.table)
	ids := []int64{}
	if err := s.db.SelectContext(ctx, &ids, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list %s recipes: %w", s.kind.table, err)
	}
	return ids, nil
}
