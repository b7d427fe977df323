package diary

import (
	"context"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/vladimiradmaev/macro-diary/internal/domain"
	apperrors "github.com/vladimiradmaev/macro-diary/internal/errors"
	"github.com/vladimiradmaev/macro-diary/internal/interfaces"
	"github.com/vladimiradmaev/macro-diary/internal/logger"
	"github.com/vladimiradmaev/macro-diary/internal/nutrition"
	"github.com/vladimiradmaev/macro-diary/internal/repository"
	"github.com/vladimiradmaev/macro-diary/internal/services"
)

var _ domain.DiaryService = (*Service)(nil)

// Service is the diary use-case layer shared by the bot and the HTTP API
type Service struct {
	store     *Store
	repo      repository.LogRepository
	tracker   *Tracker
	foodEntry interfaces.FoodEntryServiceInterface
	recommend interfaces.RecommendationServiceInterface
	reports   interfaces.ReportServiceInterface
	language  string

	validate *validator.Validate

	// persistMu orders mutations with their saves so the repository never
	// receives an older snapshot after a newer one
	persistMu sync.Mutex

	goalsMu sync.RWMutex
	goals   domain.MacroGoals
}

// Options holds the collaborators of a Service
type Options struct {
	Store          *Store
	Repository     repository.LogRepository
	Tracker        *Tracker
	FoodEntry      interfaces.FoodEntryServiceInterface
	Recommendation interfaces.RecommendationServiceInterface
	Reports        interfaces.ReportServiceInterface
	Goals          domain.MacroGoals
	Language       string
}

func NewService(opts Options) *Service {
	if opts.Store == nil {
		opts.Store = NewStore(nil)
	}
	if opts.Tracker == nil {
		opts.Tracker = NewTracker()
	}
	if opts.Goals.Calories == 0 {
		opts.Goals = domain.DefaultMacroGoals()
	}
	return &Service{
		store:     opts.Store,
		repo:      opts.Repository,
		tracker:   opts.Tracker,
		foodEntry: opts.FoodEntry,
		recommend: opts.Recommendation,
		reports:   opts.Reports,
		goals:     opts.Goals,
		language:  opts.Language,
		validate:  validator.New(),
	}
}

// LoadStore builds a store from repo. A store that cannot be read starts
// empty; the error is logged and otherwise ignored.
func LoadStore(ctx context.Context, repo repository.LogRepository) *Store {
	logs, err := repo.Load(ctx)
	if err != nil {
		logger.Warn("Failed to load diary, starting empty", "error", err)
		return NewStore(nil)
	}
	logger.Info("Diary loaded", "days", len(logs))
	return NewStore(logs)
}

func validDate(date string) error {
	if _, err := domain.ParseDate(date); err != nil {
		return apperrors.NewValidationError("date must be YYYY-MM-DD")
	}
	return nil
}

func validSlot(slot domain.MealSlot) error {
	if !slot.Valid() {
		return errUnknownSlot(slot)
	}
	return nil
}

// update applies fn and persists the new snapshot. Persistence failures are
// logged and never reported to the caller.
func (s *Service) update(ctx context.Context, date string, fn Reducer) (domain.DailyLog, error) {
	if err := validDate(date); err != nil {
		return domain.DailyLog{}, err
	}
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	log, snapshot, err := s.store.Update(date, fn)
	if err != nil {
		return log, err
	}
	if s.repo != nil {
		if err := s.repo.Save(ctx, snapshot, date); err != nil {
			apperrors.NewHandler(logger.GetLogger()).Handle(ctx, apperrors.NewStorageError(err).WithContext("date", date))
		}
	}
	return log, nil
}

func (s *Service) updateMeal(ctx context.Context, date string, slot domain.MealSlot, fn Reducer) (domain.Meal, error) {
	if err := validSlot(slot); err != nil {
		return domain.Meal{}, err
	}
	log, err := s.update(ctx, date, fn)
	if err != nil {
		return domain.Meal{}, err
	}
	meal, _ := log.Meal(slot)
	return meal, nil
}

// Day returns the log of date, or its default when nothing was stored
func (s *Service) Day(date string) domain.DailyLog {
	return s.store.Get(date)
}

// Summary returns the log of date with its totals and goal progress
func (s *Service) Summary(date string) domain.DaySummary {
	log := s.store.Get(date)
	goals := s.Goals()
	totals := nutrition.Sum(log)
	return domain.DaySummary{
		Log:      log,
		Totals:   totals,
		Progress: nutrition.Evaluate(totals, goals),
		Goals:    goals,
	}
}

// Focus records the meal the session is looking at
func (s *Service) Focus(session, date string, slot domain.MealSlot) {
	s.tracker.Focus(session, date, slot)
}

// LogFood extracts records from text and/or image and appends them to the
// meal. On any failure the meal is left unchanged.
func (s *Service) LogFood(ctx context.Context, session, date string, slot domain.MealSlot, text string, image []byte) (domain.Meal, error) {
	if err := validDate(date); err != nil {
		return domain.Meal{}, err
	}
	if err := validSlot(slot); err != nil {
		return domain.Meal{}, err
	}

	ticket, err := s.tracker.Begin(session, date, slot)
	if err != nil {
		return domain.Meal{}, err
	}
	entry, err := s.foodEntry.Parse(ctx, services.FoodEntryRequest{
		Text:     text,
		Image:    image,
		Language: s.language,
	})
	current := s.tracker.Finish(ticket)
	if err != nil {
		return domain.Meal{}, err
	}
	if !current {
		logger.Info("Dropping stale extraction", "session", session, "date", date, "slot", slot)
		return domain.Meal{}, apperrors.ErrStaleResponse
	}

	return s.updateMeal(ctx, date, slot, AppendItems(slot, entry.Items, entry.CookingAnalysis))
}

func (s *Service) UpdateItemWeight(ctx context.Context, date string, slot domain.MealSlot, itemID string, weight float64) (domain.Meal, error) {
	if err := nutrition.ValidateWeight(weight); err != nil {
		return domain.Meal{}, err
	}
	return s.updateMeal(ctx, date, slot, UpdateItemWeight(slot, itemID, weight))
}

// UpdateItem replaces the item with the same ID, e.g. after correcting its
// name or macros by hand
func (s *Service) UpdateItem(ctx context.Context, date string, slot domain.MealSlot, item domain.Ingredient) (domain.Meal, error) {
	item.Name = strings.TrimSpace(item.Name)
	item.Note = strings.TrimSpace(item.Note)
	if err := s.validate.Struct(item); err != nil {
		return domain.Meal{}, apperrors.Wrap(err, apperrors.ErrorTypeValidation, "INVALID_ITEM", "invalid food item")
	}
	if err := nutrition.ValidateWeight(item.Weight); err != nil {
		return domain.Meal{}, err
	}
	return s.updateMeal(ctx, date, slot, UpdateItem(slot, item))
}

func (s *Service) RemoveItem(ctx context.Context, date string, slot domain.MealSlot, itemID string) (domain.Meal, error) {
	return s.updateMeal(ctx, date, slot, RemoveItem(slot, itemID))
}

func (s *Service) ClearMeal(ctx context.Context, date string, slot domain.MealSlot) (domain.Meal, error) {
	return s.updateMeal(ctx, date, slot, ClearMeal(slot))
}

func (s *Service) SkipMeal(ctx context.Context, date string, slot domain.MealSlot, skipped bool) (domain.Meal, error) {
	return s.updateMeal(ctx, date, slot, SkipMeal(slot, skipped))
}

func (s *Service) SetBodyMetrics(ctx context.Context, date string, metrics domain.BodyMetrics) (domain.DailyLog, error) {
	return s.update(ctx, date, SetBodyMetrics(metrics))
}

func (s *Service) SetNote(ctx context.Context, date string, note string) (domain.DailyLog, error) {
	return s.update(ctx, date, SetNote(note))
}

// Recommend picks one of the comma separated options for the meal, given
// what was already eaten on date
func (s *Service) Recommend(ctx context.Context, session, date string, slot domain.MealSlot, rawOptions string) (*domain.Recommendation, error) {
	if err := validDate(date); err != nil {
		return nil, err
	}
	if err := validSlot(slot); err != nil {
		return nil, err
	}
	options := services.ParseOptions(rawOptions)
	if len(options) == 0 {
		return nil, apperrors.NewValidationError("enter at least one option")
	}

	ticket, err := s.tracker.Begin(session, date, slot)
	if err != nil {
		return nil, err
	}
	rec, err := s.recommend.Recommend(ctx, services.RecommendationRequest{
		Options:   options,
		Log:       s.store.Get(date),
		Goals:     s.Goals(),
		MealLabel: slot.Label(s.language),
		Language:  s.language,
	})
	current := s.tracker.Finish(ticket)
	if err != nil {
		return nil, err
	}
	if !current {
		return nil, apperrors.ErrStaleResponse
	}
	return rec, nil
}

func (s *Service) DailyReport(ctx context.Context, date string) string {
	return s.reports.DailyReport(ctx, s.store.Get(date), s.Goals())
}

// WeeklyReport covers the stored days up to and including endDate
func (s *Service) WeeklyReport(ctx context.Context, endDate string, kind domain.ReportKind) string {
	logs := s.store.Recent(endDate, services.WeeklyWindow)
	return s.reports.WeeklyReport(ctx, logs, s.Goals(), kind)
}

func (s *Service) Goals() domain.MacroGoals {
	s.goalsMu.RLock()
	defer s.goalsMu.RUnlock()
	return s.goals
}

// SetGoals replaces the targets for the rest of the process lifetime
func (s *Service) SetGoals(goals domain.MacroGoals) error {
	if err := s.validate.Struct(goals); err != nil {
		return apperrors.Wrap(err, apperrors.ErrorTypeValidation, "INVALID_GOALS", "invalid macro goals")
	}
	if goals.CarbsPercentage+goals.FatPercentage > 1 {
		return apperrors.NewValidationError("carbs and fat percentages exceed 100%")
	}
	s.goalsMu.Lock()
	s.goals = goals
	s.goalsMu.Unlock()
	logger.Info("Macro goals updated", "calories", goals.Calories, "protein", goals.Protein)
	return nil
}
