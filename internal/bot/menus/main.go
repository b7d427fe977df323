package menus

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vladimiradmaev/macro-diary/internal/bot/keyboards"
	"github.com/vladimiradmaev/macro-diary/internal/domain"
	"github.com/vladimiradmaev/macro-diary/internal/nutrition"
)

// Sender is the part of the Telegram API the bot talks through
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Telegram rejects longer messages
const maxMessageLength = 4096

func progressBar(percent float64) string {
	filled := int(percent / 10)
	return strings.Repeat("▓", filled) + strings.Repeat("░", 10-filled)
}

// RenderSummary formats the totals of a day against the goals
func RenderSummary(s domain.DaySummary, lang string) string {
	var sb strings.Builder
	p := s.Progress
	fmt.Fprintf(&sb, "📅 %s\n\n", s.Log.Date)
	fmt.Fprintf(&sb, "🔥 %.0f / %.0f kcal %s\n", s.Totals.Calories, p.TargetCalories, progressBar(p.CaloriesPercent))
	fmt.Fprintf(&sb, "🥩 Protein %.1f / %.0f g %s\n", s.Totals.Protein, p.TargetProtein, progressBar(p.ProteinPercent))
	fmt.Fprintf(&sb, "🍚 Carbs %.1f / %.0f g %s\n", s.Totals.Carbs, p.TargetCarbsGrams, progressBar(p.CarbsPercent))
	fmt.Fprintf(&sb, "🧈 Fat %.1f / %.0f g %s\n", s.Totals.Fat, p.TargetFatGrams, progressBar(p.FatPercent))

	mark := "✅"
	if !p.CarbRatioOnTarget {
		mark = "⚠️"
	}
	fmt.Fprintf(&sb, "%s Carb energy %.0f%% (≥ %.0f%%)\n", mark, p.CarbEnergyRatio, nutrition.CarbRatioTarget)
	if s.Totals.AddedOil > 0 {
		fmt.Fprintf(&sb, "🫒 Added oil %.0f kcal\n", s.Totals.AddedOil)
	}

	if p.OverBudget {
		fmt.Fprintf(&sb, "\n❗ Over budget by %.0f kcal\n", -p.RemainingCalories)
	} else {
		fmt.Fprintf(&sb, "\nRemaining: %.0f kcal, %.1f g protein\n", p.RemainingCalories, p.RemainingProtein)
	}

	if m := s.Log.BodyMetrics; !m.Empty() {
		sb.WriteString("\n" + RenderMetrics(m) + "\n")
	}
	if s.Log.Note != "" {
		fmt.Fprintf(&sb, "\n📝 %s\n", s.Log.Note)
	}
	return sb.String()
}

// RenderMetrics formats the measured values of a day
func RenderMetrics(m domain.BodyMetrics) string {
	var parts []string
	if m.Weight != nil {
		parts = append(parts, fmt.Sprintf("weight %.1f kg", *m.Weight))
	}
	if m.Waist != nil {
		parts = append(parts, fmt.Sprintf("waist %.1f cm", *m.Waist))
	}
	if m.Thigh != nil {
		parts = append(parts, fmt.Sprintf("thigh %.1f cm", *m.Thigh))
	}
	if m.Calf != nil {
		parts = append(parts, fmt.Sprintf("calf %.1f cm", *m.Calf))
	}
	if len(parts) == 0 {
		return "📏 not measured"
	}
	return "📏 " + strings.Join(parts, ", ")
}

// RenderMeal lists the items of a meal with their macros
func RenderMeal(meal domain.Meal, lang string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🍽️ %s\n\n", meal.Slot.Label(lang))
	if meal.Skipped {
		sb.WriteString("Skipped.\n")
		return sb.String()
	}
	if !meal.Logged() {
		sb.WriteString("Nothing logged yet. Tap \"Add food\" and describe what you ate or send a photo.\n")
		return sb.String()
	}
	for _, it := range meal.Items {
		fmt.Fprintf(&sb, "• %s %.0fg: %.0f kcal, P %.1f C %.1f F %.1f", it.Name, it.Weight, it.Calories, it.Protein, it.Carbs, it.Fat)
		if it.AddedOilCalories > 0 {
			fmt.Fprintf(&sb, " (oil %.0f)", it.AddedOilCalories)
		}
		sb.WriteString("\n")
		if it.Note != "" {
			fmt.Fprintf(&sb, "  %s\n", it.Note)
		}
	}
	t := nutrition.SumMeal(meal)
	fmt.Fprintf(&sb, "\nTotal: %.0f kcal, P %.1f C %.1f F %.1f\n", t.Calories, t.Protein, t.Carbs, t.Fat)
	if meal.CookingNote != "" {
		fmt.Fprintf(&sb, "\n🍳 %s\n", meal.CookingNote)
	}
	return sb.String()
}

// RenderRecommendation formats the chosen option
func RenderRecommendation(rec *domain.Recommendation) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "👉 %s\n", rec.Choice)
	if rec.Portion != "" {
		fmt.Fprintf(&sb, "\n⚖️ %s\n", rec.Portion)
	}
	fmt.Fprintf(&sb, "\n%s\n", rec.Reasoning)
	return sb.String()
}

// RenderGoals formats the daily targets
func RenderGoals(g domain.MacroGoals) string {
	return fmt.Sprintf("🎯 Daily goals\n\nCalories: %.0f kcal\nProtein: %.0f g\nCarbs: %.0f g (%.0f%%)\nFat: %.0f g (%.0f%%)\n\n"+
		"Change with /goals calories=1400 protein=80 carbs=0.5 fat=0.3",
		g.Calories, g.Protein, g.CarbsGrams(), g.CarbsPercentage*100, g.FatGrams(), g.FatPercentage*100)
}

// SendText sends plain text, splitting it to fit the message limit
func SendText(api Sender, chatID int64, text string, markup interface{}) error {
	text = strings.ToValidUTF8(text, "")
	chunks := splitText(text, maxMessageLength)
	for i, chunk := range chunks {
		msg := tgbotapi.NewMessage(chatID, chunk)
		if i == len(chunks)-1 && markup != nil {
			msg.ReplyMarkup = markup
		}
		if _, err := api.Send(msg); err != nil {
			return err
		}
	}
	return nil
}

func splitText(text string, limit int) []string {
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}
	var out []string
	for len(runes) > limit {
		cut := limit
		for i := limit; i > limit/2; i-- {
			if runes[i-1] == '\n' {
				cut = i
				break
			}
		}
		out = append(out, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		out = append(out, string(runes))
	}
	return out
}

// SendDayMenu sends the summary of a day with its meal keyboard
func SendDayMenu(api Sender, chatID int64, s domain.DaySummary, lang string) error {
	return SendText(api, chatID, RenderSummary(s, lang), keyboards.DayMenu(s.Log, lang))
}

// SendMealMenu sends one meal with its actions
func SendMealMenu(api Sender, chatID int64, date string, meal domain.Meal, lang string) error {
	return SendText(api, chatID, RenderMeal(meal, lang), keyboards.MealMenu(date, meal))
}

// SendHelp sends the command overview
func SendHelp(api Sender, chatID int64) error {
	text := `🥗 Macro Diary

/today - today's meals and totals
/date YYYY-MM-DD - open another day
/goals - show or change the daily goals
/report - analysis of the open day
/weekly [nutrition|fat_loss] - analysis of the last 7 days
/metrics weight=70.5 waist=80 - record body measurements
/note text - note for the open day
/help - this message

Pick a meal, tap "Add food" and describe what you ate or send a photo.`
	return SendText(api, chatID, text, nil)
}
