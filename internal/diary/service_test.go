package diary

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladimiradmaev/macro-diary/internal/domain"
	apperrors "github.com/vladimiradmaev/macro-diary/internal/errors"
	"github.com/vladimiradmaev/macro-diary/internal/services"
)

const riceJSON = `{"items":[{"name":"Rice","weight":150,"calories":195,"protein":4,"carbs":43,"fat":0.4,"addedOilCalories":0}],"cookingAnalysis":"steamed"}`

// fakeGenerator answers with fixed responses. When gate is set, JSON calls
// block until it is closed.
type fakeGenerator struct {
	json    string
	text    string
	err     error
	gate    chan struct{}
	started chan struct{}
}

func (g *fakeGenerator) Name() string { return "fake" }

func (g *fakeGenerator) GenerateJSON(ctx context.Context, _ services.Prompt) (string, error) {
	if g.started != nil {
		g.started <- struct{}{}
	}
	if g.gate != nil {
		select {
		case <-g.gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return g.json, g.err
}

func (g *fakeGenerator) GenerateText(context.Context, services.Prompt) (string, error) {
	return g.text, g.err
}

type memoryRepo struct {
	mu    sync.Mutex
	saved []string
	last  domain.Snapshot
	err   error
}

func (r *memoryRepo) Load(context.Context) (domain.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	return r.last.Clone(), nil
}

func (r *memoryRepo) Save(_ context.Context, snapshot domain.Snapshot, date string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.saved = append(r.saved, date)
	r.last = snapshot.Clone()
	return nil
}

func (r *memoryRepo) Close() error { return nil }

func newTestService(gen services.Generator, repo *memoryRepo) *Service {
	opts := Options{
		FoodEntry:      services.NewFoodEntryService(gen),
		Recommendation: services.NewRecommendationService(gen),
		Reports:        services.NewReportService(gen, "en"),
		Language:       "en",
	}
	if repo != nil {
		opts.Repository = repo
	}
	return NewService(opts)
}

func TestLogFood(t *testing.T) {
	repo := &memoryRepo{}
	svc := newTestService(&fakeGenerator{json: riceJSON}, repo)

	meal, err := svc.LogFood(context.Background(), "s", day, domain.SlotLunch, "a bowl of rice", nil)
	require.NoError(t, err)
	require.Len(t, meal.Items, 1)
	assert.Equal(t, "Rice", meal.Items[0].Name)
	assert.Equal(t, "steamed", meal.CookingNote)

	assert.Equal(t, []string{day}, repo.saved)
	stored, _ := repo.last[day].Meal(domain.SlotLunch)
	assert.Len(t, stored.Items, 1)

	summary := svc.Summary(day)
	assert.InDelta(t, 220+195, summary.Totals.Calories, 1e-9)
	assert.Equal(t, domain.DefaultMacroGoals(), summary.Goals)
}

func TestLogFoodExtractionFailureLeavesMealUnchanged(t *testing.T) {
	repo := &memoryRepo{}
	svc := newTestService(&fakeGenerator{json: `{"items":[{"weight":1}]}`}, repo)
	before := svc.Day(day)

	_, err := svc.LogFood(context.Background(), "s", day, domain.SlotBreakfast, "mystery", nil)
	require.Error(t, err)
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperrors.CodeExtractionFailed, appErr.Code)

	assert.Equal(t, before, svc.Day(day))
	assert.Empty(t, repo.saved)
	assert.False(t, svc.tracker.Busy(day, domain.SlotBreakfast))
}

func TestLogFoodValidation(t *testing.T) {
	svc := newTestService(&fakeGenerator{json: riceJSON}, nil)

	_, err := svc.LogFood(context.Background(), "s", "05/01/2024", domain.SlotLunch, "rice", nil)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	_, err = svc.LogFood(context.Background(), "s", day, "brunch", "rice", nil)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestLogFoodBusy(t *testing.T) {
	gen := &fakeGenerator{json: riceJSON, gate: make(chan struct{}), started: make(chan struct{}, 1)}
	svc := newTestService(gen, &memoryRepo{})

	done := make(chan error, 1)
	go func() {
		_, err := svc.LogFood(context.Background(), "s", day, domain.SlotLunch, "rice", nil)
		done <- err
	}()
	<-gen.started

	_, err := svc.LogFood(context.Background(), "s", day, domain.SlotLunch, "more rice", nil)
	assert.ErrorIs(t, err, apperrors.ErrBusy)

	close(gen.gate)
	require.NoError(t, <-done)
	lunch, _ := svc.Day(day).Meal(domain.SlotLunch)
	assert.Len(t, lunch.Items, 1)
}

func TestLogFoodBusyAcrossSessions(t *testing.T) {
	gen := &fakeGenerator{json: riceJSON, gate: make(chan struct{}), started: make(chan struct{}, 2)}
	svc := newTestService(gen, &memoryRepo{})

	done := make(chan error, 1)
	go func() {
		_, err := svc.LogFood(context.Background(), "bot-42", day, domain.SlotLunch, "rice", nil)
		done <- err
	}()
	<-gen.started

	_, err := svc.LogFood(context.Background(), "http", day, domain.SlotLunch, "rice", nil)
	assert.ErrorIs(t, err, apperrors.ErrBusy)
	_, err = svc.Recommend(context.Background(), "http", day, domain.SlotLunch, "rice, noodles")
	assert.ErrorIs(t, err, apperrors.ErrBusy)

	close(gen.gate)
	require.NoError(t, <-done)
	lunch, _ := svc.Day(day).Meal(domain.SlotLunch)
	assert.Len(t, lunch.Items, 1)
}

func TestLogFoodStaleResponseIsDropped(t *testing.T) {
	gen := &fakeGenerator{json: riceJSON, gate: make(chan struct{}), started: make(chan struct{}, 1)}
	repo := &memoryRepo{}
	svc := newTestService(gen, repo)
	svc.Focus("s", day, domain.SlotLunch)

	done := make(chan error, 1)
	go func() {
		_, err := svc.LogFood(context.Background(), "s", day, domain.SlotLunch, "rice", nil)
		done <- err
	}()
	<-gen.started

	svc.Focus("s", day, domain.SlotDinner)
	close(gen.gate)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, apperrors.ErrStaleResponse)
	case <-time.After(5 * time.Second):
		t.Fatal("LogFood did not return")
	}
	lunch, _ := svc.Day(day).Meal(domain.SlotLunch)
	assert.Empty(t, lunch.Items)
	assert.Empty(t, repo.saved)
}

func TestPersistenceFailureIsNotReported(t *testing.T) {
	repo := &memoryRepo{err: errors.New("disk full")}
	svc := newTestService(&fakeGenerator{}, repo)

	log, err := svc.SetNote(context.Background(), day, "still saved in memory")
	require.NoError(t, err)
	assert.Equal(t, "still saved in memory", log.Note)
	assert.Equal(t, "still saved in memory", svc.Day(day).Note)
}

// slowRepo blocks its first Save until release is closed
type slowRepo struct {
	memoryRepo
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (r *slowRepo) Save(ctx context.Context, snapshot domain.Snapshot, date string) error {
	first := false
	r.once.Do(func() { first = true })
	if first {
		close(r.entered)
		<-r.release
	}
	return r.memoryRepo.Save(ctx, snapshot, date)
}

func TestConcurrentMutationsPersistLatestSnapshot(t *testing.T) {
	repo := &slowRepo{entered: make(chan struct{}), release: make(chan struct{})}
	svc := NewService(Options{Repository: repo})
	ctx := context.Background()

	firstDone := make(chan error, 1)
	go func() {
		_, err := svc.SetNote(ctx, day, "first")
		firstDone <- err
	}()
	<-repo.entered

	secondDone := make(chan error, 1)
	go func() {
		_, err := svc.SetNote(ctx, day, "second")
		secondDone <- err
	}()
	time.Sleep(50 * time.Millisecond)
	close(repo.release)

	require.NoError(t, <-firstDone)
	require.NoError(t, <-secondDone)

	repo.mu.Lock()
	persisted := repo.last[day].Note
	repo.mu.Unlock()
	assert.Equal(t, svc.Day(day).Note, persisted)
	assert.Equal(t, "second", persisted)
}

func TestServiceUpdateItem(t *testing.T) {
	ctx := context.Background()
	repo := &memoryRepo{}
	svc := newTestService(&fakeGenerator{}, repo)
	milk := svc.Day(day).Meals[0].Items[1]

	milk.Name = "  Oat milk "
	milk.Calories = 120
	m, err := svc.UpdateItem(ctx, day, domain.SlotBreakfast, milk)
	require.NoError(t, err)
	assert.Equal(t, "Oat milk", m.Items[1].Name)
	assert.Equal(t, 120.0, m.Items[1].Calories)
	assert.Equal(t, []string{day}, repo.saved)

	for name, item := range map[string]domain.Ingredient{
		"blank name":     {ID: milk.ID, Name: "  ", Weight: 200},
		"negative value": {ID: milk.ID, Name: "Milk", Weight: 200, Fat: -1},
		"unknown id":     {ID: "nope", Name: "Milk", Weight: 200},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.UpdateItem(ctx, day, domain.SlotBreakfast, item)
			assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
		})
	}
	assert.Equal(t, "Oat milk", svc.Day(day).Meals[0].Items[1].Name)
}

func TestMealEdits(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(&fakeGenerator{}, &memoryRepo{})
	eggID := svc.Day(day).Meals[0].Items[0].ID

	m, err := svc.UpdateItemWeight(ctx, day, domain.SlotBreakfast, eggID, 100)
	require.NoError(t, err)
	assert.InDelta(t, 140, m.Items[0].Calories, 1e-9)

	_, err = svc.UpdateItemWeight(ctx, day, domain.SlotBreakfast, eggID, -1)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	m, err = svc.RemoveItem(ctx, day, domain.SlotBreakfast, eggID)
	require.NoError(t, err)
	assert.Len(t, m.Items, 1)

	m, err = svc.SkipMeal(ctx, day, domain.SlotBreakfast, true)
	require.NoError(t, err)
	assert.True(t, m.Skipped)
	assert.Empty(t, m.Items)

	m, err = svc.ClearMeal(ctx, day, domain.SlotDinner)
	require.NoError(t, err)
	assert.Empty(t, m.Items)

	log, err := svc.SetBodyMetrics(ctx, day, domain.BodyMetrics{Weight: domain.Float(69)})
	require.NoError(t, err)
	assert.Equal(t, 69.0, *log.BodyMetrics.Weight)
}

func TestRecommend(t *testing.T) {
	svc := newTestService(&fakeGenerator{json: `{"choice":"rice","portion":"150g","reasoning":"carbs are low"}`}, nil)

	rec, err := svc.Recommend(context.Background(), "s", day, domain.SlotLunch, "Noodles，Rice")
	require.NoError(t, err)
	assert.Equal(t, "Rice", rec.Choice)

	_, err = svc.Recommend(context.Background(), "s", day, domain.SlotLunch, " , ")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestReports(t *testing.T) {
	svc := newTestService(&fakeGenerator{text: "Good week."}, nil)
	assert.Equal(t, "Good week.", svc.WeeklyReport(context.Background(), day, domain.ReportNutrition))
	assert.Equal(t, "Good week.", svc.DailyReport(context.Background(), day))

	failing := newTestService(&fakeGenerator{err: errors.New("offline")}, nil)
	assert.Equal(t, "Report generation failed: offline", failing.DailyReport(context.Background(), day))
}

func TestSetGoals(t *testing.T) {
	svc := newTestService(&fakeGenerator{}, nil)

	goals := domain.MacroGoals{Calories: 1800, Protein: 100, CarbsPercentage: 0.5, FatPercentage: 0.3}
	require.NoError(t, svc.SetGoals(goals))
	assert.Equal(t, goals, svc.Goals())
	assert.Equal(t, 225.0, svc.Summary(day).Progress.TargetCarbsGrams)

	assert.Error(t, svc.SetGoals(domain.MacroGoals{Calories: 0}))
	assert.Error(t, svc.SetGoals(domain.MacroGoals{Calories: 1500, CarbsPercentage: 0.8, FatPercentage: 0.3}))
	assert.Equal(t, goals, svc.Goals())
}

func TestLoadStore(t *testing.T) {
	repo := &memoryRepo{last: domain.Snapshot{day: {Date: day, Note: "from disk"}}}
	store := LoadStore(context.Background(), repo)
	assert.Equal(t, "from disk", store.Get(day).Note)

	broken := &memoryRepo{err: errors.New("corrupt")}
	assert.Empty(t, LoadStore(context.Background(), broken).Snapshot())
}
