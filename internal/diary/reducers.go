package diary

import (
	"fmt"
	"strings"

	"github.com/vladimiradmaev/macro-diary/internal/domain"
	apperrors "github.com/vladimiradmaev/macro-diary/internal/errors"
	"github.com/vladimiradmaev/macro-diary/internal/nutrition"
)

func errUnknownSlot(slot domain.MealSlot) error {
	return apperrors.NewValidationError(fmt.Sprintf("unknown meal slot %q", slot))
}

func errUnknownItem(id string) error {
	return apperrors.New(apperrors.ErrorTypeValidation, "ITEM_NOT_FOUND", fmt.Sprintf("no item with id %q", id))
}

// withMeal runs fn on the meal of slot and writes the result back
func withMeal(slot domain.MealSlot, fn func(domain.Meal) (domain.Meal, error)) Reducer {
	return func(log domain.DailyLog) (domain.DailyLog, error) {
		if !slot.Valid() {
			return log, errUnknownSlot(slot)
		}
		log = log.Normalize()
		meal, _ := log.Meal(slot)
		next, err := fn(meal.Clone())
		if err != nil {
			return log, err
		}
		return log.WithMeal(next), nil
	}
}

// AppendItems adds extracted records to a meal and un-skips it. A non-empty
// cooking note is appended on its own line.
func AppendItems(slot domain.MealSlot, items []domain.Ingredient, cookingNote string) Reducer {
	return withMeal(slot, func(m domain.Meal) (domain.Meal, error) {
		m.Items = append(m.Items, items...)
		m.Skipped = false
		if note := strings.TrimSpace(cookingNote); note != "" {
			if m.CookingNote == "" {
				m.CookingNote = note
			} else {
				m.CookingNote += "\n" + note
			}
		}
		return m, nil
	})
}

// UpdateItemWeight rescales one item to a new weight
func UpdateItemWeight(slot domain.MealSlot, itemID string, weight float64) Reducer {
	return withMeal(slot, func(m domain.Meal) (domain.Meal, error) {
		if err := nutrition.ValidateWeight(weight); err != nil {
			return m, err
		}
		for i, it := range m.Items {
			if it.ID == itemID {
				m.Items[i] = nutrition.Rescale(it, weight)
				return m, nil
			}
		}
		return m, errUnknownItem(itemID)
	})
}

// UpdateItem replaces the item with the same ID
func UpdateItem(slot domain.MealSlot, item domain.Ingredient) Reducer {
	return withMeal(slot, func(m domain.Meal) (domain.Meal, error) {
		for i, it := range m.Items {
			if it.ID == item.ID {
				m.Items[i] = item
				return m, nil
			}
		}
		return m, errUnknownItem(item.ID)
	})
}

// RemoveItem deletes one item from a meal
func RemoveItem(slot domain.MealSlot, itemID string) Reducer {
	return withMeal(slot, func(m domain.Meal) (domain.Meal, error) {
		items := make([]domain.Ingredient, 0, len(m.Items))
		found := false
		for _, it := range m.Items {
			if it.ID == itemID {
				found = true
				continue
			}
			items = append(items, it)
		}
		if !found {
			return m, errUnknownItem(itemID)
		}
		m.Items = items
		return m, nil
	})
}

// ClearMeal removes every item and the cooking note
func ClearMeal(slot domain.MealSlot) Reducer {
	return withMeal(slot, func(m domain.Meal) (domain.Meal, error) {
		m.Items = []domain.Ingredient{}
		m.CookingNote = ""
		return m, nil
	})
}

// SkipMeal marks a meal as skipped, clearing it, or un-skips it
func SkipMeal(slot domain.MealSlot, skipped bool) Reducer {
	return withMeal(slot, func(m domain.Meal) (domain.Meal, error) {
		m.Skipped = skipped
		if skipped {
			m.Items = []domain.Ingredient{}
			m.CookingNote = ""
		}
		return m, nil
	})
}

// SetBodyMetrics merges the given measurements into the day
func SetBodyMetrics(metrics domain.BodyMetrics) Reducer {
	return func(log domain.DailyLog) (domain.DailyLog, error) {
		for _, v := range []*float64{metrics.Weight, metrics.Waist, metrics.Thigh, metrics.Calf} {
			if v != nil && *v <= 0 {
				return log, apperrors.NewValidationError("measurements must be positive")
			}
		}
		out := log.Clone()
		out.BodyMetrics = out.BodyMetrics.Merge(metrics)
		return out, nil
	}
}

// SetNote replaces the free-text note of the day
func SetNote(note string) Reducer {
	return func(log domain.DailyLog) (domain.DailyLog, error) {
		out := log.Clone()
		out.Note = strings.TrimSpace(note)
		return out, nil
	}
}
