package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/generative-ai-go/genai"

	"github.com/vladimiradmaev/macro-diary/internal/domain"
	apperrors "github.com/vladimiradmaev/macro-diary/internal/errors"
	"github.com/vladimiradmaev/macro-diary/internal/logger"
	"github.com/vladimiradmaev/macro-diary/internal/nutrition"
)

// RecommendationRequest asks which candidate fits the remaining budget best
type RecommendationRequest struct {
	Options   []string
	Log       domain.DailyLog
	Goals     domain.MacroGoals
	MealLabel string
	Language  string
}

type recommendationResponse struct {
	Choice    string `json:"choice" validate:"required"`
	Portion   string `json:"portion"`
	Reasoning string `json:"reasoning" validate:"required"`
}

var optionSeparators = []string{"，", "、", "；", ";", "\n"}

// ParseOptions splits free-form user input into candidate names. Blank and
// repeated entries are dropped.
func ParseOptions(raw string) []string {
	for _, sep := range optionSeparators {
		raw = strings.ReplaceAll(raw, sep, ",")
	}
	seen := make(map[string]bool)
	var out []string
	for _, part := range strings.Split(raw, ",") {
		opt := strings.TrimSpace(part)
		key := strings.ToLower(opt)
		if opt == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, opt)
	}
	return out
}

// RecommendationService picks one of several meal options
type RecommendationService struct {
	ai       Generator
	validate *validator.Validate
}

func NewRecommendationService(ai Generator) *RecommendationService {
	return &RecommendationService{
		ai:       ai,
		validate: validator.New(),
	}
}

// Recommend runs the recommendation contract
func (s *RecommendationService) Recommend(ctx context.Context, req RecommendationRequest) (*domain.Recommendation, error) {
	var options []string
	for _, o := range req.Options {
		if o = strings.TrimSpace(o); o != "" {
			options = append(options, o)
		}
	}
	if len(options) == 0 {
		return nil, apperrors.NewValidationError("enter at least one option")
	}

	totals := nutrition.Sum(req.Log)
	progress := nutrition.Evaluate(totals, req.Goals)

	raw, err := s.ai.GenerateJSON(ctx, Prompt{
		Text: recommendationPrompt(options, req.MealLabel, totals, progress, req.Language),
		Schema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"choice":    {Type: genai.TypeString, Enum: options},
				"portion":   {Type: genai.TypeString},
				"reasoning": {Type: genai.TypeString},
			},
			Required: []string{"choice", "portion", "reasoning"},
		},
	})
	if err != nil {
		return nil, s.fail(err)
	}

	rec, err := s.decode(raw, options)
	if err != nil {
		return nil, s.fail(err)
	}
	return rec, nil
}

func (s *RecommendationService) decode(raw string, options []string) (*domain.Recommendation, error) {
	jsonStr := extractJSON(raw)
	if jsonStr == "" {
		return nil, errors.New("no valid JSON found in response")
	}
	var resp recommendationResponse
	if err := json.Unmarshal([]byte(jsonStr), &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if err := s.validate.Struct(resp); err != nil {
		return nil, fmt.Errorf("response failed validation: %w", err)
	}

	choice := matchOption(resp.Choice, options)
	if choice == "" {
		return nil, fmt.Errorf("choice %q is not one of the options", resp.Choice)
	}
	return &domain.Recommendation{
		Choice:    choice,
		Portion:   strings.TrimSpace(resp.Portion),
		Reasoning: strings.TrimSpace(resp.Reasoning),
	}, nil
}

func (s *RecommendationService) fail(cause error) error {
	logger.Warn("Recommendation failed", "provider", s.ai.Name(), "error", cause)
	return apperrors.NewContractError(apperrors.CodeRecommendationFailed, "Recommendation", cause)
}

func matchOption(choice string, options []string) string {
	choice = strings.TrimSpace(choice)
	for _, o := range options {
		if strings.EqualFold(o, choice) {
			return o
		}
	}
	return ""
}

func recommendationPrompt(options []string, mealLabel string, totals domain.MacroTotals, progress domain.GoalProgress, lang string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You help a user on a calorie-controlled diet choose what to eat for %s.\n\n", mealLabel)
	sb.WriteString("EATEN SO FAR TODAY:\n")
	fmt.Fprintf(&sb, "- Calories: %.0f kcal\n- Protein: %.1f g\n- Carbs: %.1f g\n- Fat: %.1f g\n\n",
		totals.Calories, totals.Protein, totals.Carbs, totals.Fat)
	sb.WriteString("REMAINING BUDGET (negative means already over):\n")
	fmt.Fprintf(&sb, "- Calories: %.0f kcal\n- Protein: %.1f g\n\n", progress.RemainingCalories, progress.RemainingProtein)
	sb.WriteString("OPTIONS:\n")
	for _, o := range options {
		fmt.Fprintf(&sb, "- %s\n", o)
	}
	sb.WriteString(`
Choose exactly one option, copied verbatim into "choice". Justify it against the REMAINING budget, not the daily goal.
"portion" suggests amounts per ingredient in grams. "reasoning" is two or three sentences.
`)
	if lang == "zh" {
		sb.WriteString("Write portion and reasoning in Simplified Chinese.\n")
	}
	sb.WriteString(`Respond with JSON only: {"choice":"...","portion":"...","reasoning":"..."}`)
	return sb.String()
}
