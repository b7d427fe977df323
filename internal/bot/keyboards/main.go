package keyboards

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vladimiradmaev/macro-diary/internal/domain"
	"github.com/vladimiradmaev/macro-diary/internal/nutrition"
	"github.com/vladimiradmaev/macro-diary/internal/utils"
)

// Callback actions
const (
	ActionDay       = "day"
	ActionSlot      = "slot"
	ActionAdd       = "add"
	ActionSkip      = "skip"
	ActionUnskip    = "unskip"
	ActionClear     = "clear"
	ActionRecommend = "recommend"
	ActionWeight    = "weight"
	ActionRemove    = "remove"
	ActionReport    = "report"
	ActionWeekly    = "weekly"
	ActionMetrics   = "metrics"
	ActionNote      = "note"
)

// Data builds callback data from an action and its arguments
func Data(action string, args ...string) string {
	out := action
	for _, a := range args {
		out += ":" + a
	}
	return out
}

// DayMenu lists the meals of a day with navigation to the neighbouring days
func DayMenu(log domain.DailyLog, lang string) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, m := range log.Meals {
		label := m.Slot.Label(lang)
		switch {
		case m.Skipped:
			label += " (skipped)"
		case m.Logged():
			label += fmt.Sprintf(" · %.0f kcal", nutrition.SumMeal(m).Calories)
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, Data(ActionSlot, string(m.Slot))),
		))
	}
	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📏 Metrics", Data(ActionMetrics)),
			tgbotapi.NewInlineKeyboardButtonData("📝 Note", Data(ActionNote)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📊 Day report", Data(ActionReport)),
			tgbotapi.NewInlineKeyboardButtonData("📈 Weekly", Data(ActionWeekly, string(domain.ReportNutrition))),
			tgbotapi.NewInlineKeyboardButtonData("🔥 Fat loss", Data(ActionWeekly, string(domain.ReportFatLoss))),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("◀️ "+utils.ShiftDate(log.Date, -1), Data(ActionDay, utils.ShiftDate(log.Date, -1))),
			tgbotapi.NewInlineKeyboardButtonData(utils.ShiftDate(log.Date, 1)+" ▶️", Data(ActionDay, utils.ShiftDate(log.Date, 1))),
		),
	)
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// MealMenu offers the actions of one meal and one row per item
func MealMenu(date string, meal domain.Meal) tgbotapi.InlineKeyboardMarkup {
	slot := string(meal.Slot)
	skip := tgbotapi.NewInlineKeyboardButtonData("⏭ Skip", Data(ActionSkip, slot))
	if meal.Skipped {
		skip = tgbotapi.NewInlineKeyboardButtonData("↩️ Not skipped", Data(ActionUnskip, slot))
	}

	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Add food", Data(ActionAdd, slot)),
			tgbotapi.NewInlineKeyboardButtonData("🤔 What to eat?", Data(ActionRecommend, slot)),
		),
	}
	for _, it := range meal.Items {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("⚖️ %s %.0fg", it.Name, it.Weight), Data(ActionWeight, slot, it.ID)),
			tgbotapi.NewInlineKeyboardButtonData("🗑️", Data(ActionRemove, slot, it.ID)),
		))
	}
	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(
			skip,
			tgbotapi.NewInlineKeyboardButtonData("🧹 Clear", Data(ActionClear, slot)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("◀️ Back to day", Data(ActionDay, date)),
		),
	)
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// BackToDay is a single button returning to the day view
func BackToDay(date string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("◀️ Back to day", Data(ActionDay, date)),
		),
	)
}
