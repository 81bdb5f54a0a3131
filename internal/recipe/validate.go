package recipe

import (
	"strconv"
	"strings"
)

// ValidationError rejects a recipe submission before any row is written.
// The message is localized and safe to return to the client.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// Amount tolerates clients sending the amount either as a JSON number or as
// a quoted string; validation decides whether it parses.
type Amount string

func (a *Amount) UnmarshalJSON(data []byte) error {
	*a = Amount(strings.Trim(string(data), `"`))
	return nil
}

// Submission is one ingredient entry as submitted on recipe create/update.
type Submission struct {
	ID     int64  `json:"id"`
	Amount Amount `json:"amount"`
}

// Line is a validated (ingredient, amount) pair ready to be inserted.
type Line struct {
	IngredientID int64
	Amount       int
}

// ValidateSubmissions checks a submitted ingredient list: it must be
// non-empty, free of duplicate ingredient ids, and every amount must parse
// as an integer >= 0. Duplicates within one submission are a client error,
// even though the shopping-list aggregation happily sums duplicates that
// already live in the store.
func ValidateSubmissions(subs []Submission) ([]Line, error) {
	if len(subs) == 0 {
		return nil, &ValidationError{Msg: "Добавьте ингредиенты."}
	}

	seen := make(map[int64]bool, len(subs))
	lines := make([]Line, 0, len(subs))
	for _, sub := range subs {
		if seen[sub.ID] {
			return nil, &ValidationError{Msg: "Повторяющиеся ингредиенты."}
		}
		seen[sub.ID] = true

		amount, err := strconv.Atoi(string(sub.Amount))
		if err != nil {
			return nil, &ValidationError{Msg: "Количество должно быть числом."}
		}
		if amount < 0 {
			return nil, &ValidationError{Msg: "Количество не может быть отрицательным."}
		}

		lines = append(lines, Line{IngredientID: sub.ID, Amount: amount})
	}

	return lines, nil
}
