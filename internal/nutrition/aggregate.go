package nutrition

import (
	"github.com/vladimiradmaev/macro-diary/internal/domain"
)

// SumItems adds up a list of nutrient records
func SumItems(items []domain.Ingredient) domain.MacroTotals {
	var t domain.MacroTotals
	for _, it := range items {
		t.Calories += it.Calories
		t.Protein += it.Protein
		t.Carbs += it.Carbs
		t.Fat += it.Fat
		t.AddedOil += it.AddedOilCalories
	}
	return t
}

// SumMeal adds up the items of one meal
func SumMeal(meal domain.Meal) domain.MacroTotals {
	return SumItems(meal.Items)
}

// Sum adds up every item of every meal in log. Skipped meals are not treated
// specially; whatever items they still hold are counted.
func Sum(log domain.DailyLog) domain.MacroTotals {
	var t domain.MacroTotals
	for _, m := range log.Meals {
		t = t.Add(SumMeal(m))
	}
	return t
}

// OilEntry is one item's share of added cooking oil
type OilEntry struct {
	Slot     domain.MealSlot `json:"slot"`
	Name     string          `json:"name"`
	Calories float64         `json:"calories"`
	OilKcal  float64         `json:"oilKcal"`
	// Share is OilKcal as a percentage of the item's calories, 0 when it has none
	Share float64 `json:"share"`
}

// OilBreakdown lists every item of log that carries added oil, in display order
func OilBreakdown(log domain.DailyLog) []OilEntry {
	var out []OilEntry
	for _, m := range log.Meals {
		for _, it := range m.Items {
			if it.AddedOilCalories <= 0 {
				continue
			}
			e := OilEntry{
				Slot:     m.Slot,
				Name:     it.Name,
				Calories: it.Calories,
				OilKcal:  it.AddedOilCalories,
			}
			if it.Calories > 0 {
				e.Share = 100 * it.AddedOilCalories / it.Calories
			}
			out = append(out, e)
		}
	}
	return out
}

// FoodNames returns up to limit distinct item names of log in display order
func FoodNames(log domain.DailyLog, limit int) []string {
	seen := make(map[string]bool)
	var names []string
	for _, m := range log.Meals {
		for _, it := range m.Items {
			if len(names) >= limit {
				return names
			}
			if it.Name == "" || seen[it.Name] {
				continue
			}
			seen[it.Name] = true
			names = append(names, it.Name)
		}
	}
	return names
}
