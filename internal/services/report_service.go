package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/vladimiradmaev/macro-diary/internal/domain"
	apperrors "github.com/vladimiradmaev/macro-diary/internal/errors"
	"github.com/vladimiradmaev/macro-diary/internal/logger"
	"github.com/vladimiradmaev/macro-diary/internal/nutrition"
)

const (
	// WeeklyWindow is the number of most recent days a weekly report covers
	WeeklyWindow = 7
	// foodNamesPerDay bounds the per-day food list in weekly context
	foodNamesPerDay = 8

	reportFailedPrefix = "Report generation failed: "
)

// ReportService writes narrative reports. It never returns an error: a failed
// generation becomes the report text.
type ReportService struct {
	ai       Generator
	language string
}

func NewReportService(ai Generator, language string) *ReportService {
	return &ReportService{ai: ai, language: language}
}

// DailyReport analyses a single day against the goals
func (s *ReportService) DailyReport(ctx context.Context, log domain.DailyLog, goals domain.MacroGoals) string {
	return s.generate(ctx, "daily", dailyPrompt(log, goals, s.language))
}

// WeeklyReport analyses up to the last WeeklyWindow logs with the emphasis of kind
func (s *ReportService) WeeklyReport(ctx context.Context, logs []domain.DailyLog, goals domain.MacroGoals, kind domain.ReportKind) string {
	return s.generate(ctx, "weekly", weeklyPrompt(LatestLogs(logs, WeeklyWindow), goals, domain.ParseReportKind(string(kind)), s.language))
}

func (s *ReportService) generate(ctx context.Context, what, prompt string) string {
	text, err := s.ai.GenerateText(ctx, Prompt{Text: prompt})
	if err == nil && strings.TrimSpace(text) == "" {
		err = ErrEmptyResponse
	}
	if err != nil {
		logger.WithFields("code", apperrors.CodeReportFailed, "report", what, "provider", s.ai.Name()).
			Warn("Report generation failed", "error", err)
		return reportFailedPrefix + err.Error()
	}
	return strings.TrimSpace(text)
}

// LatestLogs sorts logs by date and keeps the last n of them
func LatestLogs(logs []domain.DailyLog, n int) []domain.DailyLog {
	out := append([]domain.DailyLog(nil), logs...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	if len(out) > n {
		out = out[len(out)-n:]
	}
	return out
}

func writeMetrics(sb *strings.Builder, m domain.BodyMetrics) {
	if m.Empty() {
		sb.WriteString("- Body metrics: not measured\n")
		return
	}
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
	fmt.Fprintf(sb, "- Body metrics: %s\n", strings.Join(parts, ", "))
}

func writeLanguage(sb *strings.Builder, lang string) {
	if lang == "zh" {
		sb.WriteString("\nWrite the report in Simplified Chinese.\n")
	} else {
		sb.WriteString("\nWrite the report in English.\n")
	}
}

func dailyPrompt(log domain.DailyLog, goals domain.MacroGoals, lang string) string {
	totals := nutrition.Sum(log)
	progress := nutrition.Evaluate(totals, goals)

	var sb strings.Builder
	fmt.Fprintf(&sb, "You are a dietitian reviewing the food diary of %s.\n\n", log.Date)

	sb.WriteString("MEALS:\n")
	for _, m := range log.Meals {
		label := m.Slot.Label("en")
		switch {
		case m.Skipped:
			fmt.Fprintf(&sb, "%s: skipped\n", label)
		case !m.Logged():
			fmt.Fprintf(&sb, "%s: nothing logged\n", label)
		default:
			fmt.Fprintf(&sb, "%s:\n", label)
			for _, it := range m.Items {
				fmt.Fprintf(&sb, "  - %s %.0fg: %.0f kcal, P %.1f, C %.1f, F %.1f\n",
					it.Name, it.Weight, it.Calories, it.Protein, it.Carbs, it.Fat)
			}
			if m.CookingNote != "" {
				fmt.Fprintf(&sb, "  cooking: %s\n", m.CookingNote)
			}
		}
	}

	sb.WriteString("\nTOTALS VS GOALS:\n")
	fmt.Fprintf(&sb, "- Calories: %.0f / %.0f kcal (%.0f%%)\n", totals.Calories, progress.TargetCalories, progress.CaloriesPercent)
	fmt.Fprintf(&sb, "- Protein: %.1f / %.0f g\n", totals.Protein, progress.TargetProtein)
	fmt.Fprintf(&sb, "- Carbs: %.1f / %.0f g\n", totals.Carbs, progress.TargetCarbsGrams)
	fmt.Fprintf(&sb, "- Fat: %.1f / %.0f g\n", totals.Fat, progress.TargetFatGrams)
	fmt.Fprintf(&sb, "- Carb energy ratio: %.0f%% (target at least %.0f%%)\n", progress.CarbEnergyRatio, nutrition.CarbRatioTarget)
	if progress.OverBudget {
		fmt.Fprintf(&sb, "- Over budget by %.0f kcal\n", -progress.RemainingCalories)
	}

	fmt.Fprintf(&sb, "\nADDED OIL: %.0f kcal in total\n", totals.AddedOil)
	for _, e := range nutrition.OilBreakdown(log) {
		fmt.Fprintf(&sb, "- %s (%s): %.0f of %.0f kcal (%.0f%%)\n", e.Name, e.Slot.Label("en"), e.OilKcal, e.Calories, e.Share)
	}

	sb.WriteString("\nOTHER:\n")
	writeMetrics(&sb, log.BodyMetrics)
	if log.Note != "" {
		fmt.Fprintf(&sb, "- Note: %s\n", log.Note)
	}

	sb.WriteString(`
Give a short assessment of the day: what went well, the biggest gap against the goals,
where the added oil came from, and one concrete suggestion for tomorrow.`)
	writeLanguage(&sb, lang)
	return sb.String()
}

func weeklyPrompt(logs []domain.DailyLog, goals domain.MacroGoals, kind domain.ReportKind, lang string) string {
	var sb strings.Builder
	if kind == domain.ReportFatLoss {
		sb.WriteString("You are a fat-loss coach reviewing a week of food diary entries.\n\n")
	} else {
		sb.WriteString("You are a dietitian reviewing a week of food diary entries.\n\n")
	}
	fmt.Fprintf(&sb, "DAILY GOALS: %.0f kcal, protein %.0f g, carbs %.0f g, fat %.0f g\n\n",
		goals.Calories, goals.Protein, goals.CarbsGrams(), goals.FatGrams())

	if len(logs) == 0 {
		sb.WriteString("No days were logged in this period.\n")
	}
	for _, log := range logs {
		totals := nutrition.Sum(log)
		fmt.Fprintf(&sb, "%s:\n", log.Date)
		fmt.Fprintf(&sb, "- %.0f kcal, P %.1f g, C %.1f g, F %.1f g, added oil %.0f kcal\n",
			totals.Calories, totals.Protein, totals.Carbs, totals.Fat, totals.AddedOil)
		fmt.Fprintf(&sb, "- Carb energy ratio: %.0f%%\n", nutrition.CarbEnergyRatio(totals))
		writeMetrics(&sb, log.BodyMetrics)
		if names := nutrition.FoodNames(log, foodNamesPerDay); len(names) > 0 {
			fmt.Fprintf(&sb, "- Foods: %s\n", strings.Join(names, ", "))
		}
	}

	switch kind {
	case domain.ReportFatLoss:
		sb.WriteString(`
Focus on fat loss: the calorie deficit of each day against the goal, how body weight and
measurements moved relative to intake, and the worst day of the week with what caused it.`)
	default:
		sb.WriteString(`
Focus on nutrition quality: trends of the macro ratios across the week, whether carbohydrate
energy stayed at or above 50%, and the diversity of foods eaten.`)
	}
	writeLanguage(&sb, lang)
	return sb.String()
}
