package nutrition

import (
	"math"

	"github.com/vladimiradmaev/macro-diary/internal/domain"
	apperrors "github.com/vladimiradmaev/macro-diary/internal/errors"
)

// Rescale returns item with its weight replaced by newWeight and every macro
// scaled by newWeight/item.Weight. A zero original weight leaves the macros as
// they are. The input is never modified.
func Rescale(item domain.Ingredient, newWeight float64) domain.Ingredient {
	out := item
	out.Weight = newWeight
	if item.Weight == 0 {
		return out
	}

	factor := newWeight / item.Weight
	out.Calories = item.Calories * factor
	out.Protein = item.Protein * factor
	out.Carbs = item.Carbs * factor
	out.Fat = item.Fat * factor
	out.AddedOilCalories = item.AddedOilCalories * factor
	return out
}

// ValidateWeight rejects weights Rescale must never see
func ValidateWeight(weight float64) error {
	if math.IsNaN(weight) || math.IsInf(weight, 0) {
		return apperrors.NewValidationError("weight must be a number")
	}
	if weight < 0 {
		return apperrors.NewValidationError("weight must not be negative")
	}
	return nil
}
