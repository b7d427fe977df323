package nutrition

import (
	"github.com/vladimiradmaev/macro-diary/internal/domain"
)

const (
	kcalPerGramCarbs = 4
	// CarbRatioTarget is the minimum carbohydrate energy share counted as on target
	CarbRatioTarget = 50.0
)

// Evaluate compares totals with goals
func Evaluate(totals domain.MacroTotals, goals domain.MacroGoals) domain.GoalProgress {
	targetCarbs := goals.CarbsGrams()
	targetFat := goals.FatGrams()

	return domain.GoalProgress{
		TargetCalories:    goals.Calories,
		TargetProtein:     goals.Protein,
		TargetCarbsGrams:  targetCarbs,
		TargetFatGrams:    targetFat,
		CaloriesPercent:   Percent(totals.Calories, goals.Calories),
		ProteinPercent:    Percent(totals.Protein, goals.Protein),
		CarbsPercent:      Percent(totals.Carbs, targetCarbs),
		FatPercent:        Percent(totals.Fat, targetFat),
		CarbEnergyRatio:   CarbEnergyRatio(totals),
		CarbRatioOnTarget: CarbEnergyRatio(totals) >= CarbRatioTarget,
		OverBudget:        totals.Calories > goals.Calories,
		RemainingCalories: goals.Calories - totals.Calories,
		RemainingProtein:  goals.Protein - totals.Protein,
	}
}

// Percent is 100*actual/target clamped to [0, 100]. A non-positive target yields 0.
func Percent(actual, target float64) float64 {
	if target <= 0 {
		return 0
	}
	p := 100 * actual / target
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// CarbEnergyRatio is the share of calories from carbohydrate, 0 without calories
func CarbEnergyRatio(totals domain.MacroTotals) float64 {
	if totals.Calories <= 0 {
		return 0
	}
	return 100 * (totals.Carbs * kcalPerGramCarbs) / totals.Calories
}
