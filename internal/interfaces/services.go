package interfaces

import (
	"context"

	"github.com/vladimiradmaev/macro-diary/internal/domain"
	"github.com/vladimiradmaev/macro-diary/internal/services"
)

// FoodEntryServiceInterface defines the extraction contract
type FoodEntryServiceInterface interface {
	Parse(ctx context.Context, req services.FoodEntryRequest) (*domain.FoodEntry, error)
}

// RecommendationServiceInterface defines the recommendation contract
type RecommendationServiceInterface interface {
	Recommend(ctx context.Context, req services.RecommendationRequest) (*domain.Recommendation, error)
}

// ReportServiceInterface defines the report contract. Reports never fail;
// a failed generation is returned as text.
type ReportServiceInterface interface {
	DailyReport(ctx context.Context, log domain.DailyLog, goals domain.MacroGoals) string
	WeeklyReport(ctx context.Context, logs []domain.DailyLog, goals domain.MacroGoals, kind domain.ReportKind) string
}

var (
	_ FoodEntryServiceInterface      = (*services.FoodEntryService)(nil)
	_ RecommendationServiceInterface = (*services.RecommendationService)(nil)
	_ ReportServiceInterface         = (*services.ReportService)(nil)
)
