// Package shopping computes the downloadable shopping list from a user's
// cart.
package shopping

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"foodgram/internal/recipe"
)

// Filename is the attachment name the report is served under.
const Filename = "shopping_cart.txt"

// CartMembers resolves the recipes currently in a user's cart.
type CartMembers interface {
	ListRecipeIDs(ctx context.Context, userID int64) ([]int64, error)
}

// RecipeSource provides the recipe names and ingredient lines the report is
// built from.
type RecipeSource interface {
	ListSimplifiedByIDs(ctx context.Context, ids []int64) ([]recipe.Simplified, error)
	ListIngredientLines(ctx context.Context, recipeIDs []int64) ([]recipe.IngredientLine, error)
}

// Aggregator builds the shopping list report. It only reads; nothing it
// produces is persisted.
type Aggregator struct {
	cart    CartMembers
	recipes RecipeSource
}

// NewAggregator creates a new Aggregator.
func NewAggregator(cart CartMembers, recipes RecipeSource) *Aggregator {
	return &Aggregator{cart: cart, recipes: recipes}
}

// BuildReport renders the plain-text shopping list for one user's cart.
//
// Ingredient lines of every cart recipe are fetched in a single batched
// query and grouped by ingredient id across the whole cart. The report is
// laid out per recipe in ascending id order, but the amount printed on each
// line is the cart-wide total for that ingredient, repeated at every
// occurrence. An empty cart yields an empty report.
func (a *Aggregator) BuildReport(ctx context.Context, userID int64) (string, error) {
	ids, err := a.cart.ListRecipeIDs(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to resolve cart: %w", err)
	}
	if len(ids) == 0 {
		return "", nil
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	recipes, err := a.recipes.ListSimplifiedByIDs(ctx, ids)
	if err != nil {
		return "", fmt.Errorf("failed to load cart recipes: %w", err)
	}

	lines, err := a.recipes.ListIngredientLines(ctx, ids)
	if err != nil {
		return "", fmt.Errorf("failed to load cart ingredient lines: %w", err)
	}

	totals := make(map[int64]int)
	byRecipe := make(map[int64][]recipe.IngredientLine)
	for _, line := range lines {
		totals[line.IngredientID] += line.Amount
		byRecipe[line.RecipeID] = append(byRecipe[line.RecipeID], line)
	}

	var b strings.Builder
	for _, r := range recipes {
		fmt.Fprintf(&b, "Рецепт: %s\n", r.Name)
		for i, line := range byRecipe[r.ID] {
			fmt.Fprintf(&b, "%d * Ингредиент: %s: %d %s\n",
				i+1, line.Name, totals[line.IngredientID], line.MeasurementUnit)
		}
	}
	return b.String(), nil
}
