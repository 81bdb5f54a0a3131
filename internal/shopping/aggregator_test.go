package shopping

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"

	"foodgram/internal/recipe"
)

// mockCart is an in-memory cart membership set.
type mockCart struct {
	ids map[int64][]int64
	err error
}

func (m *mockCart) ListRecipeIDs(ctx context.Context, userID int64) ([]int64, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.ids[userID], nil
}

// mockRecipeSource serves fixed recipes and lines.
type mockRecipeSource struct {
	recipes []recipe.Simplified
	lines   []recipe.IngredientLine
}

func (m *mockRecipeSource) ListSimplifiedByIDs(ctx context.Context, ids []int64) ([]recipe.Simplified, error) {
	want := make(map[int64]bool)
	for _, id := range ids {
		want[id] = true
	}
	var out []recipe.Simplified
	for _, r := range m.recipes {
		if want[r.ID] {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockRecipeSource) ListIngredientLines(ctx context.Context, recipeIDs []int64) ([]recipe.IngredientLine, error) {
	want := make(map[int64]bool)
	for _, id := range recipeIDs {
		want[id] = true
	}
	var out []recipe.IngredientLine
	for _, line := range m.lines {
		if want[line.RecipeID] {
			out = append(out, line)
		}
	}
	return out, nil
}

func TestBuildReport_EmptyCart(t *testing.T) {
	agg := NewAggregator(&mockCart{ids: map[int64][]int64{}}, &mockRecipeSource{})

	report, err := agg.BuildReport(context.Background(), 1)
	assert.NoError(t, err)
	assert.Equal(t, "", report)
}

// An ingredient shared by two cart recipes is summed across the whole cart,
// and the summed value is printed at every occurrence, under both recipe
// headers. This mirrors the reference report format, which annotates each
// per-recipe line with the cart-wide total rather than the recipe's own
// amount.
func TestBuildReport_SumsAcrossRecipes(t *testing.T) {
	cart := &mockCart{ids: map[int64][]int64{7: {2, 1}}}
	source := &mockRecipeSource{
		recipes: []recipe.Simplified{
			{ID: 1, Name: "R1"},
			{ID: 2, Name: "R2"},
		},
		lines: []recipe.IngredientLine{
			{RecipeID: 1, IngredientID: 10, Name: "Flour", MeasurementUnit: "g", Amount: 200},
			{RecipeID: 1, IngredientID: 11, Name: "Sugar", MeasurementUnit: "g", Amount: 50},
			{RecipeID: 2, IngredientID: 10, Name: "Flour", MeasurementUnit: "g", Amount: 100},
		},
	}
	agg := NewAggregator(cart, source)

	report, err := agg.BuildReport(context.Background(), 7)
	assert.NoError(t, err)
	assert.Equal(t,
		"Рецепт: R1\n"+
			"1 * Ингредиент: Flour: 300 g\n"+
			"2 * Ингредиент: Sugar: 50 g\n"+
			"Рецепт: R2\n"+
			"1 * Ингредиент: Flour: 300 g\n",
		report)
}

func TestBuildReport_RecipeWithoutIngredients(t *testing.T) {
	cart := &mockCart{ids: map[int64][]int64{1: {5}}}
	source := &mockRecipeSource{
		recipes: []recipe.Simplified{{ID: 5, Name: "Вода"}},
	}
	agg := NewAggregator(cart, source)

	report, err := agg.BuildReport(context.Background(), 1)
	assert.NoError(t, err)
	assert.Equal(t, "Рецепт: Вода\n", report)
}

// Duplicate lines for the same ingredient inside one recipe are not merged
// away: both occurrences are printed, each carrying the summed total.
func TestBuildReport_DuplicateLinesWithinRecipe(t *testing.T) {
	cart := &mockCart{ids: map[int64][]int64{1: {3}}}
	source := &mockRecipeSource{
		recipes: []recipe.Simplified{{ID: 3, Name: "Тесто"}},
		lines: []recipe.IngredientLine{
			{RecipeID: 3, IngredientID: 10, Name: "Flour", MeasurementUnit: "g", Amount: 100},
			{RecipeID: 3, IngredientID: 10, Name: "Flour", MeasurementUnit: "g", Amount: 40},
		},
	}
	agg := NewAggregator(cart, source)

	report, err := agg.BuildReport(context.Background(), 1)
	assert.NoError(t, err)
	assert.Equal(t,
		"Рецепт: Тесто\n"+
			"1 * Ингредиент: Flour: 140 g\n"+
			"2 * Ингредиент: Flour: 140 g\n",
		report)
}

// Recipes are reported in ascending id order no matter how the cart
// membership comes back, and line numbering restarts per recipe.
func TestBuildReport_StableRecipeOrder(t *testing.T) {
	cart := &mockCart{ids: map[int64][]int64{1: {9, 2, 4}}}
	source := &mockRecipeSource{
		recipes: []recipe.Simplified{
			{ID: 9, Name: "C"},
			{ID: 2, Name: "A"},
			{ID: 4, Name: "B"},
		},
		lines: []recipe.IngredientLine{
			{RecipeID: 9, IngredientID: 1, Name: "Соль", MeasurementUnit: "г", Amount: 5},
			{RecipeID: 2, IngredientID: 2, Name: "Перец", MeasurementUnit: "г", Amount: 3},
			{RecipeID: 4, IngredientID: 3, Name: "Мука", MeasurementUnit: "г", Amount: 500},
		},
	}
	agg := NewAggregator(cart, source)

	report, err := agg.BuildReport(context.Background(), 1)
	assert.NoError(t, err)
	assert.Equal(t,
		"Рецепт: A\n"+
			"1 * Ингредиент: Перец: 3 г\n"+
			"Рецепт: B\n"+
			"1 * Ингредиент: Мука: 500 г\n"+
			"Рецепт: C\n"+
			"1 * Ингредиент: Соль: 5 г\n",
		report)
}

func TestBuildReport_CartError(t *testing.T) {
	cartErr := errors.New("store unreachable")
	agg := NewAggregator(&mockCart{err: cartErr}, &mockRecipeSource{})

	_, err := agg.BuildReport(context.Background(), 1)
	assert.ErrorIs(t, err, cartErr)
}
