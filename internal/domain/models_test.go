package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDailyLog(t *testing.T) {
	log := NewDailyLog("2024-05-01")

	require.Len(t, log.Meals, 4)
	for i, slot := range MealSlots {
		m := log.Meals[i]
		assert.Equal(t, slot, m.Slot)
		assert.Equal(t, "2024-05-01-"+string(slot), m.ID)
		assert.NotNil(t, m.Items)
		assert.False(t, m.Skipped)
	}

	breakfast, ok := log.Meal(SlotBreakfast)
	require.True(t, ok)
	require.Len(t, breakfast.Items, 2)
	assert.Equal(t, 70.0, breakfast.Items[0].Calories)
	assert.Equal(t, 150.0, breakfast.Items[1].Calories)

	lunch, _ := log.Meal(SlotLunch)
	assert.Empty(t, lunch.Items)
	assert.True(t, log.BodyMetrics.Empty())
	assert.Empty(t, log.Note)
}

func TestNewDailyLogIsPure(t *testing.T) {
	a := NewDailyLog("2024-05-01")
	b := NewDailyLog("2024-05-01")
	assert.Equal(t, a, b)

	a.Meals[0].Items[0].Calories = 999
	assert.Equal(t, 70.0, b.Meals[0].Items[0].Calories)
	assert.Equal(t, 70.0, NewDailyLog("2024-05-01").Meals[0].Items[0].Calories)
}

func TestWithMealDoesNotModifyReceiver(t *testing.T) {
	log := NewDailyLog("2024-05-01")
	lunch, _ := log.Meal(SlotLunch)
	lunch.Items = append(lunch.Items, Ingredient{ID: "x", Calories: 100})

	next := log.WithMeal(lunch)

	got, _ := next.Meal(SlotLunch)
	assert.Len(t, got.Items, 1)
	orig, _ := log.Meal(SlotLunch)
	assert.Empty(t, orig.Items)
}

func TestNormalizeFillsMissingSlots(t *testing.T) {
	log := DailyLog{
		Date: "2024-05-02",
		Meals: []Meal{
			{ID: "d", Slot: SlotDinner, Items: []Ingredient{{ID: "a"}}},
		},
	}

	got := log.Normalize()
	require.Len(t, got.Meals, 4)
	assert.Equal(t, SlotBreakfast, got.Meals[0].Slot)
	assert.Empty(t, got.Meals[0].Items)
	assert.Equal(t, SlotDinner, got.Meals[2].Slot)
	assert.Len(t, got.Meals[2].Items, 1)
	assert.Len(t, log.Meals, 1)
}

func TestBodyMetricsMerge(t *testing.T) {
	base := BodyMetrics{Weight: Float(70), Waist: Float(80)}
	got := base.Merge(BodyMetrics{Waist: Float(79), Calf: Float(36)})

	assert.Equal(t, 70.0, *got.Weight)
	assert.Equal(t, 79.0, *got.Waist)
	assert.Nil(t, got.Thigh)
	assert.Equal(t, 36.0, *got.Calf)
	assert.Equal(t, 80.0, *base.Waist)
}

func TestSlotLabel(t *testing.T) {
	assert.Equal(t, "Lunch", SlotLunch.Label("en"))
	assert.Equal(t, "午餐", SlotLunch.Label("zh"))
	assert.Equal(t, "Snack", SlotSnack.Label("fr"))
	assert.True(t, SlotDinner.Valid())
	assert.False(t, MealSlot("brunch").Valid())
}

func TestMacroGoalsGrams(t *testing.T) {
	g := DefaultMacroGoals()
	assert.Equal(t, 186.0, g.CarbsGrams())
	assert.Equal(t, 38.0, g.FatGrams())
}

func TestParseReportKind(t *testing.T) {
	assert.Equal(t, ReportFatLoss, ParseReportKind("fat_loss"))
	assert.Equal(t, ReportNutrition, ParseReportKind("nutrition"))
	assert.Equal(t, ReportNutrition, ParseReportKind("bogus"))
}

func TestDailyLogJSON(t *testing.T) {
	log := NewDailyLog("2024-05-01")
	log.BodyMetrics.Weight = Float(71.2)
	data, err := json.Marshal(log)
	require.NoError(t, err)

	var back DailyLog
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, log.Date, back.Date)
	assert.Equal(t, 71.2, *back.BodyMetrics.Weight)
	assert.Equal(t, log.Meals[0].Items, back.Meals[0].Items)
	assert.Contains(t, string(data), `"addedOilCalories"`)
}
