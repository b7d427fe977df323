package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vladimiradmaev/macro-diary/internal/bot/menus"
	"github.com/vladimiradmaev/macro-diary/internal/bot/state"
	"github.com/vladimiradmaev/macro-diary/internal/domain"
	apperrors "github.com/vladimiradmaev/macro-diary/internal/errors"
	"github.com/vladimiradmaev/macro-diary/internal/logger"
	"github.com/vladimiradmaev/macro-diary/internal/utils"
)

// Dependencies holds all service dependencies for handlers
type Dependencies struct {
	Diary    domain.DiaryService
	Language string
	// Now defaults to time.Now
	Now func() time.Time
	// HTTPClient downloads photos; defaults to a client with a 30s timeout
	HTTPClient *http.Client
}

func (d Dependencies) withDefaults() Dependencies {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.HTTPClient == nil {
		d.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if d.Language == "" {
		d.Language = "en"
	}
	return d
}

// base carries what every handler needs
type base struct {
	api          menus.Sender
	deps         Dependencies
	stateManager state.StateManager
}

func sessionID(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

// focus returns the day and meal the user looks at, defaulting to today's breakfast
func (b *base) focus(userID int64) state.Focus {
	if f, ok := b.stateManager.GetFocus(userID); ok && f.Date != "" {
		if !f.Slot.Valid() {
			f.Slot = domain.SlotBreakfast
		}
		return f
	}
	return state.Focus{Date: utils.Today(b.deps.Now()), Slot: domain.SlotBreakfast}
}

// setFocus records navigation in the conversation state and the diary
func (b *base) setFocus(userID int64, f state.Focus) {
	b.stateManager.SetFocus(userID, f)
	b.deps.Diary.Focus(sessionID(userID), f.Date, f.Slot)
}

func (b *base) send(chatID int64, text string) error {
	return menus.SendText(b.api, chatID, text, nil)
}

func (b *base) sendDay(chatID int64, date string) error {
	return menus.SendDayMenu(b.api, chatID, b.deps.Diary.Summary(date), b.deps.Language)
}

func (b *base) sendMeal(chatID int64, date string, slot domain.MealSlot) error {
	meal, _ := b.deps.Diary.Day(date).Meal(slot)
	return menus.SendMealMenu(b.api, chatID, date, meal, b.deps.Language)
}

// reportError tells the user what went wrong. Stale responses are dropped
// silently since the user has moved on.
func (b *base) reportError(ctx context.Context, chatID int64, err error) error {
	if errors.Is(err, apperrors.ErrStaleResponse) {
		logger.Info("Discarded stale response", "chat_id", chatID)
		return nil
	}
	apperrors.NewHandler(logger.GetLogger()).Handle(ctx, err)
	if errors.Is(err, apperrors.ErrBusy) {
		return b.send(chatID, "⏳ Still working on this meal, please wait.")
	}
	return b.send(chatID, "❌ "+apperrors.UserMessage(err))
}

// ParseKeyValues parses "key=value" pairs separated by spaces or commas
func ParseKeyValues(s string) (map[string]float64, error) {
	out := make(map[string]float64)
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\n' || r == '\t'
	})
	for _, f := range fields {
		key, raw, ok := strings.Cut(f, "=")
		if !ok {
			return nil, fmt.Errorf("expected key=value, got %q", f)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %q is not a number", key, raw)
		}
		out[strings.ToLower(strings.TrimSpace(key))] = v
	}
	if len(out) == 0 {
		return nil, errors.New("nothing to set")
	}
	return out, nil
}

// ParseMetrics reads body measurements such as "weight=70.5 waist=80"
func ParseMetrics(s string) (domain.BodyMetrics, error) {
	values, err := ParseKeyValues(s)
	if err != nil {
		return domain.BodyMetrics{}, err
	}
	var m domain.BodyMetrics
	for key, v := range values {
		switch key {
		case "weight":
			m.Weight = domain.Float(v)
		case "waist":
			m.Waist = domain.Float(v)
		case "thigh":
			m.Thigh = domain.Float(v)
		case "calf":
			m.Calf = domain.Float(v)
		default:
			return domain.BodyMetrics{}, fmt.Errorf("unknown measurement %q", key)
		}
	}
	return m, nil
}

// ParseGoals applies "calories=.. protein=.. carbs=.. fat=.." on top of base.
// Percentages may be given as fractions or as whole percents.
func ParseGoals(s string, base domain.MacroGoals) (domain.MacroGoals, error) {
	values, err := ParseKeyValues(s)
	if err != nil {
		return base, err
	}
	goals := base
	for key, v := range values {
		switch key {
		case "calories", "kcal":
			goals.Calories = v
		case "protein":
			goals.Protein = v
		case "carbs":
			goals.CarbsPercentage = fraction(v)
		case "fat":
			goals.FatPercentage = fraction(v)
		default:
			return base, fmt.Errorf("unknown goal %q", key)
		}
	}
	return goals, nil
}

func fraction(v float64) float64 {
	if v > 1 {
		return v / 100
	}
	return v
}
