package recipe

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ErrNotFound is returned when a recipe, tag or ingredient id does not
// resolve.
var ErrNotFound = errors.New("not found")

// PostgresStore holds recipes and the tag/ingredient catalogs in PostgreSQL.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore creates a new PostgresStore and bootstraps its tables.
// The users table must already exist (recipes reference their author).
func NewPostgresStore(db *sqlx.DB) (*PostgresStore, error) {
	schema := `
	CREATE TABLE IF NOT EXISTS ingredients (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		measurement_unit TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tags (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		color TEXT NOT NULL UNIQUE,
		slug TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS recipes (
		id BIGSERIAL PRIMARY KEY,
		author_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		image TEXT NOT NULL DEFAULT '',
		text TEXT NOT NULL DEFAULT '',
		cooking_time INT NOT NULL DEFAULT 1,
		pub_date TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS recipe_ingredients (
		id BIGSERIAL PRIMARY KEY,
		recipe_id BIGINT NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
		ingredient_id BIGINT NOT NULL REFERENCES ingredients(id) ON DELETE CASCADE,
		amount INT NOT NULL DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS recipe_tags (
		recipe_id BIGINT NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
		tag_id BIGINT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
		PRIMARY KEY (recipe_id, tag_id)
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create recipe tables: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// ListIngredients returns catalog ingredients, optionally restricted to a
// case-insensitive name prefix.
func (s *PostgresStore) ListIngredients(ctx context.Context, namePrefix string) ([]Ingredient, error) {
	query := "SELECT id, name, measurement_unit FROM ingredients"
	var args []interface{}
	if namePrefix != "" {
		query += " WHERE name ILIKE $1 || '%'"
		args = append(args, namePrefix)
	}
	query += " ORDER BY name"

	ingredients := []Ingredient{}
	if err := s.db.SelectContext(ctx, &ingredients, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}
	return ingredients, nil
}

// GetIngredient returns one catalog ingredient by id.
func (s *PostgresStore) GetIngredient(ctx context.Context, id int64) (*Ingredient, error) {
	var ing Ingredient
	err := s.db.GetContext(ctx, &ing, "SELECT id, name, measurement_unit FROM ingredients WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get ingredient: %w", err)
	}
	return &ing, nil
}

// ListTags returns every tag.
func (s *PostgresStore) ListTags(ctx context.Context) ([]Tag, error) {
	tags := []Tag{}
	if err := s.db.SelectContext(ctx, &tags, "SELECT id, name, color, slug FROM tags ORDER BY id"); err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}

// GetTag returns one tag by id.
func (s *PostgresStore) GetTag(ctx context.Context, id int64) (*Tag, error) {
	var tag Tag
	err := s.db.GetContext(ctx, &tag, "SELECT id, name, color, slug FROM tags WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get tag: %w", err)
	}
	return &tag, nil
}

// GetRecipe returns a recipe with its tags and ingredient lines loaded.
func (s *PostgresStore) GetRecipe(ctx context.Context, id int64) (*Recipe, error) {
	var r Recipe
	err := s.db.GetContext(ctx, &r,
		"SELECT id, author_id, name, image, text, cooking_time, pub_date FROM recipes WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}

	if err := s.attachRelations(ctx, []*Recipe{&r}); err != nil {
		return nil, err
	}
	return &r, nil
}

// ListRecipes returns recipes matching the filter, newest first, with tags
// and ingredient lines loaded in two batched queries regardless of result
// size.
func (s *PostgresStore) ListRecipes(ctx context.Context, f Filter) ([]*Recipe, error) {
	query := "SELECT id, author_id, name, image, text, cooking_time, pub_date FROM recipes WHERE 1=1"
	var args []interface{}

	paramCount := 1
	if len(f.TagSlugs) > 0 {
		query += fmt.Sprintf(" AND id IN (SELECT rt.recipe_id FROM recipe_tags rt JOIN tags t ON t.id = rt.tag_id WHERE t.slug = ANY($%d))", paramCount)
		args = append(args, pq.Array(f.TagSlugs))
		paramCount++
	}
	if f.AuthorID != 0 {
		query += fmt.Sprintf(" AND author_id = $%d", paramCount)
		args = append(args, f.AuthorID)
		paramCount++
	}
	if f.IDs != nil {
		query += fmt.Sprintf(" AND id = ANY($%d)", paramCount)
		args = append(args, pq.Array(f.IDs))
		paramCount++
	}
	query += " ORDER BY pub_date DESC, id DESC"

	recipes := []*Recipe{}
	if err := s.db.SelectContext(ctx, &recipes, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}

	if err := s.attachRelations(ctx, recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

// attachRelations loads tags and ingredient lines for all given recipes with
// one query per relation.
func (s *PostgresStore) attachRelations(ctx context.Context, recipes []*Recipe) error {
	if len(recipes) == 0 {
		return nil
	}

	ids := make([]int64, len(recipes))
	byID := make(map[int64]*Recipe, len(recipes))
	for i, r := range recipes {
		ids[i] = r.ID
		byID[r.ID] = r
		r.Tags = []Tag{}
		r.Ingredients = []IngredientLine{}
	}

	type recipeTagRow struct {
		RecipeID int64 `db:"recipe_id"`
		Tag
	}
	tagRows := []recipeTagRow{}
	err := s.db.SelectContext(ctx, &tagRows,
		`SELECT rt.recipe_id, t.id, t.name, t.color, t.slug
		 FROM recipe_tags rt JOIN tags t ON t.id = rt.tag_id
		 WHERE rt.recipe_id = ANY($1) ORDER BY rt.recipe_id, t.id`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to load recipe tags: %w", err)
	}
	for _, row := range tagRows {
		r := byID[row.RecipeID]
		r.Tags = append(r.Tags, row.Tag)
	}

	lines, err := s.ListIngredientLines(ctx, ids)
	if err != nil {
		return err
	}
	for _, line := range lines {
		r := byID[line.RecipeID]
		r.Ingredients = append(r.Ingredients, line)
	}

	return nil
}

// ListIngredientLines fetches the ingredient lines of every given recipe in
// a single query, joined with catalog name and unit, in stable
// (recipe, insertion) order. This is the batched fetch the shopping-list
// aggregation is built on.
func (s *PostgresStore) ListIngredientLines(ctx context.Context, recipeIDs []int64) ([]IngredientLine, error) {
	lines := []IngredientLine{}
	err := s.db.SelectContext(ctx, &lines,
		`SELECT rl.recipe_id, rl.ingredient_id, i.name, i.measurement_unit, rl.amount
		 FROM recipe_ingredients rl JOIN ingredients i ON i.id = rl.ingredient_id
		 WHERE rl.recipe_id = ANY($1) ORDER BY rl.recipe_id, rl.id`, pq.Array(recipeIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to load ingredient lines: %w", err)
	}
	return lines, nil
}

// ListSimplifiedByIDs returns the short representation of the given recipes
// in ascending id order.
func (s *PostgresStore) ListSimplifiedByIDs(ctx context.Context, ids []int64) ([]Simplified, error) {
	recipes := []Simplified{}
	err := s.db.SelectContext(ctx, &recipes,
		"SELECT id, name, image, cooking_time FROM recipes WHERE id = ANY($1) ORDER BY id", pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes by ids: %w", err)
	}
	return recipes, nil
}

// ListSimplifiedByAuthor returns an author's recipes, newest first.
// limit <= 0 means no limit.
func (s *PostgresStore) ListSimplifiedByAuthor(ctx context.Context, authorID int64, limit int) ([]Simplified, error) {
	query := "SELECT id, name, image, cooking_time FROM recipes WHERE author_id = $1 ORDER BY pub_date DESC, id DESC"
	args := []interface{}{authorID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	recipes := []Simplified{}
	if err := s.db.SelectContext(ctx, &recipes, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list recipes by author: %w", err)
	}
	return recipes, nil
}

// CountByAuthor returns how many recipes an author has published.
func (s *PostgresStore) CountByAuthor(ctx context.Context, authorID int64) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM recipes WHERE author_id = $1", authorID)
	if err != nil {
		return 0, fmt.Errorf("failed to count recipes: %w", err)
	}
	return count, nil
}

// CreateRecipe inserts the recipe row, its ingredient lines and its tag links
// in one transaction. The lines must already be validated.
func (s *PostgresStore) CreateRecipe(ctx context.Context, r *Recipe, lines []Line, tagIDs []int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx,
		"INSERT INTO recipes (author_id, name, image, text, cooking_time) VALUES ($1, $2, $3, $4, $5) RETURNING id, pub_date",
		r.AuthorID, r.Name, r.Image, r.Text, r.CookingTime,
	).Scan(&r.ID, &r.PubDate)
	if err != nil {
		return fmt.Errorf("failed to insert recipe: %w", err)
	}

	if err := insertLines(ctx, tx, r.ID, lines); err != nil {
		return err
	}
	if err := insertTagLinks(ctx, tx, r.ID, tagIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit recipe: %w", err)
	}
	return nil
}

// UpdateRecipe updates the recipe row and replaces its ingredient lines and
// tag links when supplied (nil means keep the existing set). The replacement
// is all-or-nothing: a concurrent read never sees tags updated with stale
// lines.
func (s *PostgresStore) UpdateRecipe(ctx context.Context, r *Recipe, lines []Line, tagIDs []int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE recipes SET name = $1, image = $2, text = $3, cooking_time = $4 WHERE id = $5",
		r.Name, r.Image, r.Text, r.CookingTime, r.ID)
	if err != nil {
		return fmt.Errorf("failed to update recipe: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	if lines != nil {
		if _, err := tx.ExecContext(ctx, "DELETE FROM recipe_ingredients WHERE recipe_id = $1", r.ID); err != nil {
			return fmt.Errorf("failed to clear ingredient lines: %w", err)
		}
		if err := insertLines(ctx, tx, r.ID, lines); err != nil {
			return err
		}
	}
	if tagIDs != nil {
		if _, err := tx.ExecContext(ctx, "DELETE FROM recipe_tags WHERE recipe_id = $1", r.ID); err != nil {
			return fmt.Errorf("failed to clear tag links: %w", err)
		}
		if err := insertTagLinks(ctx, tx, r.ID, tagIDs); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit recipe update: %w", err)
	}
	return nil
}

// DeleteRecipe removes a recipe; lines, tag links and cart/favorite rows go
// with it via ON DELETE CASCADE.
func (s *PostgresStore) DeleteRecipe(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM recipes WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func insertLines(ctx context.Context, tx *sqlx.Tx, recipeID int64, lines []Line) error {
	for _, line := range lines {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO recipe_ingredients (recipe_id, ingredient_id, amount) VALUES ($1, $2, $3)",
			recipeID, line.IngredientID, line.Amount)
		if err != nil {
			return fmt.Errorf("failed to insert ingredient line: %w", err)
		}
	}
	return nil
}

func insertTagLinks(ctx context.Context, tx *sqlx.Tx, recipeID int64, tagIDs []int64) error {
	for _, tagID := range tagIDs {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO recipe_tags (recipe_id, tag_id) VALUES ($1, $2)",
			recipeID, tagID)
		if err != nil {
			return fmt.Errorf("failed to insert tag link: %w", err)
		}
	}
	return nil
}
