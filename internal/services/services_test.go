package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladimiradmaev/macro-diary/internal/domain"
	apperrors "github.com/vladimiradmaev/macro-diary/internal/errors"
)

// stubGenerator answers every call with the configured response
type stubGenerator struct {
	json    string
	text    string
	err     error
	prompts []Prompt
}

func (g *stubGenerator) Name() string { return "stub" }

func (g *stubGenerator) GenerateJSON(_ context.Context, p Prompt) (string, error) {
	g.prompts = append(g.prompts, p)
	return g.json, g.err
}

func (g *stubGenerator) GenerateText(_ context.Context, p Prompt) (string, error) {
	g.prompts = append(g.prompts, p)
	return g.text, g.err
}

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
}

func TestExtractJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, extractJSON("```json\n{\"a\":1}\n```"))
	assert.Equal(t, "", extractJSON("no json here"))
	assert.Equal(t, "", extractJSON("} {"))
}

func TestParseAssignsIDs(t *testing.T) {
	gen := &stubGenerator{json: "```json\n" + `{"items":[
		{"name":"Fried egg","weight":50,"calories":90,"protein":6,"carbs":0.4,"fat":7,"addedOilCalories":20},
		{"name":" Toast ","weight":30,"calories":80,"protein":3,"carbs":15,"fat":1,"addedOilCalories":0}
	],"cookingAnalysis":" pan fried "}` + "\n```"}
	svc := NewFoodEntryService(gen)

	entry, err := svc.Parse(context.Background(), FoodEntryRequest{Text: "fried egg and toast", Language: "en"})
	require.NoError(t, err)
	require.Len(t, entry.Items, 2)
	assert.NotEmpty(t, entry.Items[0].ID)
	assert.NotEqual(t, entry.Items[0].ID, entry.Items[1].ID)
	assert.Equal(t, "Toast", entry.Items[1].Name)
	assert.Equal(t, 20.0, entry.Items[0].AddedOilCalories)
	assert.Equal(t, "pan fried", entry.CookingAnalysis)

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0].Text, "fried egg and toast")
	assert.NotNil(t, gen.prompts[0].Schema)
}

func TestParseRejectsEmptyInput(t *testing.T) {
	gen := &stubGenerator{}
	_, err := NewFoodEntryService(gen).Parse(context.Background(), FoodEntryRequest{Text: "   "})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	assert.Empty(t, gen.prompts)
}

func TestParseRejectsNonImageAttachment(t *testing.T) {
	gen := &stubGenerator{}
	_, err := NewFoodEntryService(gen).Parse(context.Background(), FoodEntryRequest{Image: []byte("just some text")})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	assert.Empty(t, gen.prompts)
}

func TestParseSendsImage(t *testing.T) {
	gen := &stubGenerator{json: `{"items":[{"name":"Rice","weight":150,"calories":195,"protein":4,"carbs":43,"fat":0.4,"addedOilCalories":0}],"cookingAnalysis":""}`}
	entry, err := NewFoodEntryService(gen).Parse(context.Background(), FoodEntryRequest{Image: pngHeader})
	require.NoError(t, err)
	assert.Len(t, entry.Items, 1)
	assert.Equal(t, pngHeader, gen.prompts[0].Image)
	assert.Contains(t, gen.prompts[0].Text, "photo")
}

func TestParseFailures(t *testing.T) {
	tests := []struct {
		name string
		gen  *stubGenerator
	}{
		{"missing credentials", &stubGenerator{err: ErrMissingCredentials}},
		{"no json", &stubGenerator{json: "sorry, I cannot help"}},
		{"malformed json", &stubGenerator{json: `{"items": [}`}},
		{"missing name", &stubGenerator{json: `{"items":[{"weight":10}]}`}},
		{"blank name", &stubGenerator{json: `{"items":[{"name":"   ","weight":10}]}`}},
		{"negative value", &stubGenerator{json: `{"items":[{"name":"x","calories":-5}]}`}},
		{"missing items", &stubGenerator{json: `{"cookingAnalysis":"fried"}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, err := NewFoodEntryService(tt.gen).Parse(context.Background(), FoodEntryRequest{Text: "something"})
			require.Error(t, err)
			assert.Nil(t, entry)
			requireCode(t, err, apperrors.CodeExtractionFailed)
			assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))
		})
	}
}

func TestParseFailureKeepsCause(t *testing.T) {
	_, err := NewFoodEntryService(UnavailableGenerator{}).Parse(context.Background(), FoodEntryRequest{Text: "rice"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingCredentials)
	assert.Contains(t, apperrors.UserMessage(err), "missing AI credentials")
}

func TestParseOptions(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"noodles, rice", []string{"noodles", "rice"}},
		{"面条，米饭、饺子", []string{"面条", "米饭", "饺子"}},
		{"a; b；c\nd", []string{"a", "b", "c", "d"}},
		{" Salad , salad,, SALAD ", []string{"Salad"}},
		{" , ,", nil},
		{"", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseOptions(tt.in), "input %q", tt.in)
	}
}

func recommendationRequest() RecommendationRequest {
	return RecommendationRequest{
		Options:   []string{"Noodles", "Salad"},
		Log:       domain.NewDailyLog("2024-05-01"),
		Goals:     domain.DefaultMacroGoals(),
		MealLabel: "Lunch",
		Language:  "en",
	}
}

func TestRecommend(t *testing.T) {
	gen := &stubGenerator{json: `{"choice":"salad","portion":"one large bowl","reasoning":"protein is low"}`}
	rec, err := NewRecommendationService(gen).Recommend(context.Background(), recommendationRequest())
	require.NoError(t, err)
	assert.Equal(t, "Salad", rec.Choice)
	assert.Equal(t, "one large bowl", rec.Portion)
	assert.Equal(t, "protein is low", rec.Reasoning)

	require.Len(t, gen.prompts, 1)
	assert.Equal(t, []string{"Noodles", "Salad"}, gen.prompts[0].Schema.Properties["choice"].Enum)
	assert.Contains(t, gen.prompts[0].Text, "Lunch")
}

func TestRecommendPromptCarriesRemainingBudget(t *testing.T) {
	req := recommendationRequest()
	lunch, _ := req.Log.Meal(domain.SlotLunch)
	lunch.Items = append(lunch.Items, domain.Ingredient{ID: "pasta", Name: "Pasta", Weight: 400, Calories: 1300, Protein: 70, Carbs: 200, Fat: 30})
	req.Log = req.Log.WithMeal(lunch)

	gen := &stubGenerator{json: `{"choice":"Salad","portion":"100g","reasoning":"already over"}`}
	_, err := NewRecommendationService(gen).Recommend(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, gen.prompts, 1)

	// 220 + 1300 kcal eaten against 1350, 14 + 70 g protein against 75
	prompt := gen.prompts[0].Text
	assert.Contains(t, prompt, "REMAINING BUDGET")
	assert.Contains(t, prompt, "- Calories: -170 kcal")
	assert.Contains(t, prompt, "- Protein: -9.0 g")
}

func TestRecommendRejectsUnknownChoice(t *testing.T) {
	gen := &stubGenerator{json: `{"choice":"Pizza","portion":"2 slices","reasoning":"tasty"}`}
	rec, err := NewRecommendationService(gen).Recommend(context.Background(), recommendationRequest())
	require.Error(t, err)
	assert.Nil(t, rec)
	requireCode(t, err, apperrors.CodeRecommendationFailed)
}

func TestRecommendFailures(t *testing.T) {
	for name, gen := range map[string]*stubGenerator{
		"provider error":    {err: errors.New("boom")},
		"missing reasoning": {json: `{"choice":"Salad"}`},
		"not json":          {json: "Salad"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := NewRecommendationService(gen).Recommend(context.Background(), recommendationRequest())
			requireCode(t, err, apperrors.CodeRecommendationFailed)
		})
	}
}

func TestRecommendNeedsOptions(t *testing.T) {
	gen := &stubGenerator{}
	req := recommendationRequest()
	req.Options = []string{" ", ""}
	_, err := NewRecommendationService(gen).Recommend(context.Background(), req)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	assert.Empty(t, gen.prompts)
}

func TestDailyReport(t *testing.T) {
	gen := &stubGenerator{text: "  Solid day.  "}
	log := domain.NewDailyLog("2024-05-01")
	lunch, _ := log.Meal(domain.SlotLunch)
	lunch.Items = []domain.Ingredient{{Name: "Fried rice", Weight: 300, Calories: 500, Carbs: 70, Fat: 18, AddedOilCalories: 120}}
	log = log.WithMeal(lunch)
	log.Note = "slept badly"

	got := NewReportService(gen, "en").DailyReport(context.Background(), log, domain.DefaultMacroGoals())
	assert.Equal(t, "Solid day.", got)

	prompt := gen.prompts[0].Text
	assert.Contains(t, prompt, "2024-05-01")
	assert.Contains(t, prompt, "Fried rice")
	assert.Contains(t, prompt, "ADDED OIL: 120 kcal")
	assert.Contains(t, prompt, "slept badly")
	assert.Contains(t, prompt, "Body metrics: not measured")
	assert.Contains(t, prompt, "Dinner: nothing logged")
}

func TestReportFailureIsText(t *testing.T) {
	svc := NewReportService(&stubGenerator{err: errors.New("quota exceeded")}, "en")
	got := svc.DailyReport(context.Background(), domain.NewDailyLog("2024-05-01"), domain.DefaultMacroGoals())
	assert.Equal(t, "Report generation failed: quota exceeded", got)
}

func TestReportEmptyResponse(t *testing.T) {
	svc := NewReportService(&stubGenerator{text: "   "}, "en")
	got := svc.WeeklyReport(context.Background(), nil, domain.DefaultMacroGoals(), domain.ReportNutrition)
	assert.Equal(t, "Report generation failed: "+ErrEmptyResponse.Error(), got)
}

func TestWeeklyReportPrompt(t *testing.T) {
	gen := &stubGenerator{text: "ok"}
	var logs []domain.DailyLog
	for _, d := range []string{"2024-05-09", "2024-05-01", "2024-05-02", "2024-05-03", "2024-05-04", "2024-05-05", "2024-05-06", "2024-05-07", "2024-05-08"} {
		logs = append(logs, domain.NewDailyLog(d))
	}
	m := logs[0]
	m.BodyMetrics.Weight = domain.Float(68.4)
	logs[0] = m

	got := NewReportService(gen, "zh").WeeklyReport(context.Background(), logs, domain.DefaultMacroGoals(), domain.ReportFatLoss)
	assert.Equal(t, "ok", got)

	prompt := gen.prompts[0].Text
	assert.NotContains(t, prompt, "2024-05-01:")
	assert.NotContains(t, prompt, "2024-05-02:")
	assert.Contains(t, prompt, "2024-05-03:")
	assert.Contains(t, prompt, "2024-05-09:")
	assert.Contains(t, prompt, "weight 68.4 kg")
	assert.Contains(t, prompt, "fat loss")
	assert.Contains(t, prompt, "Simplified Chinese")
	assert.Less(t, strings.Index(prompt, "2024-05-03:"), strings.Index(prompt, "2024-05-09:"))
}

func TestWeeklyReportUnknownKindFallsBack(t *testing.T) {
	gen := &stubGenerator{text: "ok"}
	NewReportService(gen, "en").WeeklyReport(context.Background(), nil, domain.DefaultMacroGoals(), "mystery")
	assert.Contains(t, gen.prompts[0].Text, "nutrition quality")
	assert.Contains(t, gen.prompts[0].Text, "No days were logged")
}

func TestLatestLogs(t *testing.T) {
	logs := []domain.DailyLog{{Date: "2024-05-03"}, {Date: "2024-05-01"}, {Date: "2024-05-02"}}
	got := LatestLogs(logs, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "2024-05-02", got[0].Date)
	assert.Equal(t, "2024-05-03", got[1].Date)
	assert.Equal(t, "2024-05-03", logs[0].Date)
}

func TestFallbackGenerator(t *testing.T) {
	primary := &stubGenerator{err: errors.New("down")}
	secondary := &stubGenerator{json: `{}`, text: "hi"}
	g := &FallbackGenerator{Primary: primary, Secondary: secondary}

	out, err := g.GenerateJSON(context.Background(), Prompt{Text: "x"})
	require.NoError(t, err)
	assert.Equal(t, `{}`, out)

	out, err = g.GenerateText(context.Background(), Prompt{Text: "x"})
	require.NoError(t, err)
	assert.Equal(t, "hi", out)
	assert.Equal(t, "stub+stub", g.Name())
}

func TestNewGeneratorWithoutKeys(t *testing.T) {
	g, err := NewGenerator(context.Background(), "", "", "", "")
	require.NoError(t, err)
	_, err = g.GenerateText(context.Background(), Prompt{})
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestProviderError(t *testing.T) {
	cause := fmt.Errorf("request failed: %w", context.DeadlineExceeded)
	err := providerError("gemini", cause)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeTimeout))
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	err = providerError("openai", errors.New("429 too many requests"))
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperrors.ErrorTypeExternal, appErr.Type)
	assert.Equal(t, "openai", appErr.Context["api"])

	// contract failures keep the provider classification reachable
	_, err = NewFoodEntryService(&stubGenerator{err: providerError("gemini", cause)}).Parse(context.Background(), FoodEntryRequest{Text: "rice"})
	requireCode(t, err, apperrors.CodeExtractionFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
