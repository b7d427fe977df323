package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"

	"github.com/vladimiradmaev/macro-diary/internal/domain"
	apperrors "github.com/vladimiradmaev/macro-diary/internal/errors"
	"github.com/vladimiradmaev/macro-diary/internal/logger"
)

// FoodEntryRequest is an unstructured description of what was eaten
type FoodEntryRequest struct {
	Text     string
	Image    []byte
	Language string
}

type extractedItem struct {
	Name             string  `json:"name" validate:"required"`
	Weight           float64 `json:"weight" validate:"gte=0"`
	Calories         float64 `json:"calories" validate:"gte=0"`
	Protein          float64 `json:"protein" validate:"gte=0"`
	Carbs            float64 `json:"carbs" validate:"gte=0"`
	Fat              float64 `json:"fat" validate:"gte=0"`
	AddedOilCalories float64 `json:"addedOilCalories" validate:"gte=0"`
	Note             string  `json:"note"`
}

type extractionResponse struct {
	Items           []extractedItem `json:"items" validate:"required,dive"`
	CookingAnalysis string          `json:"cookingAnalysis"`
}

var extractionSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"items": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"name":             {Type: genai.TypeString},
					"weight":           {Type: genai.TypeNumber, Description: "cooked weight in grams"},
					"calories":         {Type: genai.TypeNumber},
					"protein":          {Type: genai.TypeNumber},
					"carbs":            {Type: genai.TypeNumber},
					"fat":              {Type: genai.TypeNumber},
					"addedOilCalories": {Type: genai.TypeNumber, Description: "kcal from cooking oil only"},
					"note":             {Type: genai.TypeString},
				},
				Required: []string{"name", "weight", "calories", "protein", "carbs", "fat", "addedOilCalories"},
			},
		},
		"cookingAnalysis": {Type: genai.TypeString},
	},
	Required: []string{"items", "cookingAnalysis"},
}

// FoodEntryService turns free text and photos into nutrient records
type FoodEntryService struct {
	ai       Generator
	validate *validator.Validate
}

func NewFoodEntryService(ai Generator) *FoodEntryService {
	return &FoodEntryService{
		ai:       ai,
		validate: validator.New(),
	}
}

// Parse runs the extraction contract. Every failure past input validation is
// reported as a single EXTRACTION_FAILED error carrying the cause.
func (s *FoodEntryService) Parse(ctx context.Context, req FoodEntryRequest) (*domain.FoodEntry, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" && len(req.Image) == 0 {
		return nil, apperrors.NewValidationError("describe the food or attach a photo")
	}
	if len(req.Image) > 0 {
		if mt := mimetype.Detect(req.Image); !strings.HasPrefix(mt.String(), "image/") {
			return nil, apperrors.NewValidationError(fmt.Sprintf("attachment is not an image (%s)", mt.String()))
		}
	}

	raw, err := s.ai.GenerateJSON(ctx, Prompt{
		Text:   extractionPrompt(text, len(req.Image) > 0, req.Language),
		Image:  req.Image,
		Schema: extractionSchema,
	})
	if err != nil {
		return nil, s.fail(err)
	}

	resp, err := s.decode(raw)
	if err != nil {
		return nil, s.fail(err)
	}

	entry := &domain.FoodEntry{
		Items:           make([]domain.Ingredient, 0, len(resp.Items)),
		CookingAnalysis: strings.TrimSpace(resp.CookingAnalysis),
	}
	for _, it := range resp.Items {
		entry.Items = append(entry.Items, domain.Ingredient{
			ID:               uuid.NewString(),
			Name:             strings.TrimSpace(it.Name),
			Weight:           it.Weight,
			Calories:         it.Calories,
			Protein:          it.Protein,
			Carbs:            it.Carbs,
			Fat:              it.Fat,
			AddedOilCalories: it.AddedOilCalories,
			Note:             strings.TrimSpace(it.Note),
		})
	}

	logger.Info("Food entry extracted", "provider", s.ai.Name(), "items", len(entry.Items))
	return entry, nil
}

func (s *FoodEntryService) decode(raw string) (*extractionResponse, error) {
	jsonStr := extractJSON(raw)
	if jsonStr == "" {
		return nil, errors.New("no valid JSON found in response")
	}
	var resp extractionResponse
	if err := json.Unmarshal([]byte(jsonStr), &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	for i := range resp.Items {
		resp.Items[i].Name = strings.TrimSpace(resp.Items[i].Name)
	}
	if err := s.validate.Struct(resp); err != nil {
		return nil, fmt.Errorf("response failed validation: %w", err)
	}
	return &resp, nil
}

func (s *FoodEntryService) fail(cause error) error {
	logger.Warn("Food extraction failed", "provider", s.ai.Name(), "error", cause)
	return apperrors.NewContractError(apperrors.CodeExtractionFailed, "Extraction", cause)
}

func extractionPrompt(text string, hasImage bool, lang string) string {
	var sb strings.Builder
	sb.WriteString(`You are a nutritionist logging a food diary. Break the described food into ingredients and estimate each one.

RULES:
- Weights are COOKED weights in grams; all nutrient values refer to that weight
- Frying, stir-frying or sauteing means addedOilCalories > 0; steaming, boiling or raw food means addedOilCalories close to 0
- Fat that belongs to the food itself (meat, skin, nuts) goes into "fat", never into addedOilCalories
- addedOilCalories is part of the calories, do not add it on top
- If the user corrects an entry ("replace A with B"), return records for B only
- All numbers are non-negative
- cookingAnalysis: one or two sentences about the cooking method and hidden oil, empty string if nothing to say
`)
	if lang == "zh" {
		sb.WriteString("- Write names, notes and cookingAnalysis in Simplified Chinese\n")
	} else {
		sb.WriteString("- Write names, notes and cookingAnalysis in English\n")
	}
	if hasImage {
		sb.WriteString("\nA photo of the food is attached. Use it to identify the items and portions.\n")
	}
	if text != "" {
		sb.WriteString("\nDESCRIPTION:\n")
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	sb.WriteString(`
Respond with JSON only:
{"items":[{"name":"...","weight":0,"calories":0,"protein":0,"carbs":0,"fat":0,"addedOilCalories":0,"note":""}],"cookingAnalysis":""}`)
	return sb.String()
}
