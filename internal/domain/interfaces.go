package domain

import (
	"context"
)

// DiaryService is the use-case surface shared by the bot and the HTTP API
type DiaryService interface {
	Day(date string) DailyLog
	Summary(date string) DaySummary
	Focus(session, date string, slot MealSlot)
	LogFood(ctx context.Context, session, date string, slot MealSlot, text string, image []byte) (Meal, error)
	UpdateItemWeight(ctx context.Context, date string, slot MealSlot, itemID string, weight float64) (Meal, error)
	UpdateItem(ctx context.Context, date string, slot MealSlot, item Ingredient) (Meal, error)
	RemoveItem(ctx context.Context, date string, slot MealSlot, itemID string) (Meal, error)
	ClearMeal(ctx context.Context, date string, slot MealSlot) (Meal, error)
	SkipMeal(ctx context.Context, date string, slot MealSlot, skipped bool) (Meal, error)
	SetBodyMetrics(ctx context.Context, date string, metrics BodyMetrics) (DailyLog, error)
	SetNote(ctx context.Context, date string, note string) (DailyLog, error)
	Recommend(ctx context.Context, session, date string, slot MealSlot, rawOptions string) (*Recommendation, error)
	DailyReport(ctx context.Context, date string) string
	WeeklyReport(ctx context.Context, endDate string, kind ReportKind) string
	Goals() MacroGoals
	SetGoals(goals MacroGoals) error
}
