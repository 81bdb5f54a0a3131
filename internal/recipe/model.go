package recipe

import "time"

// Ingredient is reference catalog data: a name and the unit its amounts are
// measured in. Never mutated by request handlers.
type Ingredient struct {
	ID              int64  `json:"id" db:"id"`
	Name            string `json:"name" db:"name"`
	MeasurementUnit string `json:"measurement_unit" db:"measurement_unit"`
}

// Tag is a recipe category with a unique slug used for filtering.
type Tag struct {
	ID    int64  `json:"id" db:"id"`
	Name  string `json:"name" db:"name"`
	Color string `json:"color" db:"color"`
	Slug  string `json:"slug" db:"slug"`
}

// IngredientLine is one (ingredient, amount) entry of a recipe, joined with
// the catalog fields callers render from.
type IngredientLine struct {
	RecipeID        int64  `json:"-" db:"recipe_id"`
	IngredientID    int64  `json:"id" db:"ingredient_id"`
	Name            string `json:"name" db:"name"`
	MeasurementUnit string `json:"measurement_unit" db:"measurement_unit"`
	Amount          int    `json:"amount" db:"amount"`
}

// Recipe is a published recipe with its tag set and ordered ingredient lines.
type Recipe struct {
	ID          int64            `json:"id" db:"id"`
	AuthorID    int64            `json:"-" db:"author_id"`
	Name        string           `json:"name" db:"name"`
	Image       string           `json:"image" db:"image"`
	Text        string           `json:"text" db:"text"`
	CookingTime int              `json:"cooking_time" db:"cooking_time"`
	PubDate     time.Time        `json:"-" db:"pub_date"`
	Tags        []Tag            `json:"tags" db:"-"`
	Ingredients []IngredientLine `json:"ingredients" db:"-"`
}

// Simplified is the short recipe representation returned by the cart and
// favorite toggles and embedded in subscription listings.
type Simplified struct {
	ID          int64  `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	Image       string `json:"image" db:"image"`
	CookingTime int    `json:"cooking_time" db:"cooking_time"`
}

// Filter narrows a recipe listing. Zero values mean "no restriction".
// IDs non-nil restricts to exactly those recipes; a non-nil empty slice
// matches nothing, which is how an empty cart or favorites set filters out
// everything without a special case.
type Filter struct {
	TagSlugs []string
	AuthorID int64
	IDs      []int64
}
