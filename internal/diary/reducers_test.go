package diary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladimiradmaev/macro-diary/internal/domain"
	apperrors "github.com/vladimiradmaev/macro-diary/internal/errors"
)

const day = "2024-05-01"

func meal(t *testing.T, log domain.DailyLog, slot domain.MealSlot) domain.Meal {
	t.Helper()
	m, ok := log.Meal(slot)
	require.True(t, ok, "slot %s missing", slot)
	return m
}

func TestAppendItems(t *testing.T) {
	log := domain.NewDailyLog(day)
	before := log.Clone()

	next, err := AppendItems(domain.SlotLunch, []domain.Ingredient{{ID: "a", Name: "Rice", Calories: 200}}, "steamed")(log)
	require.NoError(t, err)
	next, err = AppendItems(domain.SlotLunch, []domain.Ingredient{{ID: "b", Name: "Pork", Calories: 300}}, " stir fried ")(next)
	require.NoError(t, err)

	lunch := meal(t, next, domain.SlotLunch)
	require.Len(t, lunch.Items, 2)
	assert.Equal(t, "steamed\nstir fried", lunch.CookingNote)
	assert.Equal(t, before, log)
}

func TestAppendItemsUnskips(t *testing.T) {
	log, err := SkipMeal(domain.SlotDinner, true)(domain.NewDailyLog(day))
	require.NoError(t, err)
	assert.True(t, meal(t, log, domain.SlotDinner).Skipped)

	log, err = AppendItems(domain.SlotDinner, []domain.Ingredient{{ID: "x"}}, "")(log)
	require.NoError(t, err)
	dinner := meal(t, log, domain.SlotDinner)
	assert.False(t, dinner.Skipped)
	assert.Empty(t, dinner.CookingNote)
}

func TestUnknownSlotIsRejected(t *testing.T) {
	_, err := AppendItems("brunch", nil, "")(domain.NewDailyLog(day))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestUpdateItemWeight(t *testing.T) {
	log := domain.NewDailyLog(day)
	eggID := meal(t, log, domain.SlotBreakfast).Items[0].ID

	next, err := UpdateItemWeight(domain.SlotBreakfast, eggID, 100)(log)
	require.NoError(t, err)

	egg := meal(t, next, domain.SlotBreakfast).Items[0]
	assert.Equal(t, 100.0, egg.Weight)
	assert.InDelta(t, 140, egg.Calories, 1e-9)
	assert.InDelta(t, 12, egg.Protein, 1e-9)
	assert.InDelta(t, 1.2, egg.Carbs, 1e-9)
	assert.InDelta(t, 10, egg.Fat, 1e-9)

	assert.Equal(t, 50.0, meal(t, log, domain.SlotBreakfast).Items[0].Weight)
}

func TestUpdateItemWeightErrors(t *testing.T) {
	log := domain.NewDailyLog(day)
	eggID := meal(t, log, domain.SlotBreakfast).Items[0].ID

	_, err := UpdateItemWeight(domain.SlotBreakfast, "missing", 10)(log)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	_, err = UpdateItemWeight(domain.SlotBreakfast, eggID, -5)(log)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestUpdateItem(t *testing.T) {
	log := domain.NewDailyLog(day)
	milk := meal(t, log, domain.SlotBreakfast).Items[1]
	milk.Name = "Oat milk"

	next, err := UpdateItem(domain.SlotBreakfast, milk)(log)
	require.NoError(t, err)
	assert.Equal(t, "Oat milk", meal(t, next, domain.SlotBreakfast).Items[1].Name)

	_, err = UpdateItem(domain.SlotBreakfast, domain.Ingredient{ID: "nope"})(log)
	assert.Error(t, err)
}

func TestRemoveItem(t *testing.T) {
	log := domain.NewDailyLog(day)
	items := meal(t, log, domain.SlotBreakfast).Items

	next, err := RemoveItem(domain.SlotBreakfast, items[0].ID)(log)
	require.NoError(t, err)
	left := meal(t, next, domain.SlotBreakfast).Items
	require.Len(t, left, 1)
	assert.Equal(t, items[1].ID, left[0].ID)
	assert.Len(t, meal(t, log, domain.SlotBreakfast).Items, 2)

	_, err = RemoveItem(domain.SlotBreakfast, "ghost")(log)
	assert.Error(t, err)
}

func TestClearMeal(t *testing.T) {
	log, err := AppendItems(domain.SlotBreakfast, nil, "fried")(domain.NewDailyLog(day))
	require.NoError(t, err)

	next, err := ClearMeal(domain.SlotBreakfast)(log)
	require.NoError(t, err)
	b := meal(t, next, domain.SlotBreakfast)
	assert.NotNil(t, b.Items)
	assert.Empty(t, b.Items)
	assert.Empty(t, b.CookingNote)
	assert.Equal(t, "fried", meal(t, log, domain.SlotBreakfast).CookingNote)
}

func TestSkipMeal(t *testing.T) {
	log := domain.NewDailyLog(day)

	skipped, err := SkipMeal(domain.SlotBreakfast, true)(log)
	require.NoError(t, err)
	b := meal(t, skipped, domain.SlotBreakfast)
	assert.True(t, b.Skipped)
	assert.Empty(t, b.Items)

	unskipped, err := SkipMeal(domain.SlotBreakfast, false)(skipped)
	require.NoError(t, err)
	assert.False(t, meal(t, unskipped, domain.SlotBreakfast).Skipped)
	assert.Len(t, meal(t, log, domain.SlotBreakfast).Items, 2)
}

func TestSetBodyMetrics(t *testing.T) {
	log := domain.NewDailyLog(day)

	next, err := SetBodyMetrics(domain.BodyMetrics{Weight: domain.Float(70.5)})(log)
	require.NoError(t, err)
	next, err = SetBodyMetrics(domain.BodyMetrics{Waist: domain.Float(81)})(next)
	require.NoError(t, err)

	assert.Equal(t, 70.5, *next.BodyMetrics.Weight)
	assert.Equal(t, 81.0, *next.BodyMetrics.Waist)
	assert.True(t, log.BodyMetrics.Empty())

	_, err = SetBodyMetrics(domain.BodyMetrics{Calf: domain.Float(0)})(log)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestSetNote(t *testing.T) {
	next, err := SetNote("  tired today \n")(domain.NewDailyLog(day))
	require.NoError(t, err)
	assert.Equal(t, "tired today", next.Note)
}
