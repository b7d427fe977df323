package handlers

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vladimiradmaev/macro-diary/internal/bot/keyboards"
	"github.com/vladimiradmaev/macro-diary/internal/bot/state"
	"github.com/vladimiradmaev/macro-diary/internal/domain"
	"github.com/vladimiradmaev/macro-diary/internal/logger"
)

// CallbackHandler handles callback query messages
type CallbackHandler struct {
	*base
}

// ParseCallback splits callback data into its action and arguments
func ParseCallback(data string) (action string, args []string) {
	parts := strings.Split(data, ":")
	return parts[0], parts[1:]
}

// Handle processes a callback query
func (h *CallbackHandler) Handle(ctx context.Context, query *tgbotapi.CallbackQuery) error {
	if _, err := h.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		logger.Warn("Failed to answer callback query", "error", err)
	}

	userID := query.From.ID
	chatID := query.Message.Chat.ID
	action, args := ParseCallback(query.Data)
	f := h.focus(userID)

	var slot domain.MealSlot
	if len(args) > 0 {
		slot = domain.MealSlot(args[0])
	}

	switch action {
	case keyboards.ActionDay:
		date := f.Date
		if len(args) > 0 {
			if _, err := domain.ParseDate(args[0]); err == nil {
				date = args[0]
			}
		}
		h.stateManager.SetUserState(userID, state.None)
		h.setFocus(userID, state.Focus{Date: date, Slot: f.Slot})
		return h.sendDay(chatID, date)

	case keyboards.ActionSlot:
		if !slot.Valid() {
			return h.handleUnknownCallback(chatID)
		}
		h.stateManager.SetUserState(userID, state.None)
		h.setFocus(userID, state.Focus{Date: f.Date, Slot: slot})
		return h.sendMeal(chatID, f.Date, slot)

	case keyboards.ActionAdd:
		if !slot.Valid() {
			return h.handleUnknownCallback(chatID)
		}
		h.setFocus(userID, state.Focus{Date: f.Date, Slot: slot})
		h.stateManager.SetUserState(userID, state.AddingFood)
		return h.send(chatID, "📝 Describe what you ate for "+slot.Label(h.deps.Language)+
			" or send a photo. Corrections like \"replace rice with noodles\" work too.")

	case keyboards.ActionRecommend:
		if !slot.Valid() {
			return h.handleUnknownCallback(chatID)
		}
		h.setFocus(userID, state.Focus{Date: f.Date, Slot: slot})
		h.stateManager.SetUserState(userID, state.WaitingForOptions)
		return h.send(chatID, "🤔 Send the options you are choosing between, separated by commas.")

	case keyboards.ActionSkip, keyboards.ActionUnskip:
		if _, err := h.deps.Diary.SkipMeal(ctx, f.Date, slot, action == keyboards.ActionSkip); err != nil {
			return h.reportError(ctx, chatID, err)
		}
		return h.sendDay(chatID, f.Date)

	case keyboards.ActionClear:
		if _, err := h.deps.Diary.ClearMeal(ctx, f.Date, slot); err != nil {
			return h.reportError(ctx, chatID, err)
		}
		return h.sendMeal(chatID, f.Date, slot)

	case keyboards.ActionWeight:
		if len(args) < 2 || !slot.Valid() {
			return h.handleUnknownCallback(chatID)
		}
		h.setFocus(userID, state.Focus{Date: f.Date, Slot: slot})
		h.stateManager.SetTempData(userID, state.KeyItemID, args[1])
		h.stateManager.SetUserState(userID, state.WaitingForWeight)
		return h.send(chatID, "⚖️ Send the new weight in grams.")

	case keyboards.ActionRemove:
		if len(args) < 2 {
			return h.handleUnknownCallback(chatID)
		}
		if _, err := h.deps.Diary.RemoveItem(ctx, f.Date, slot, args[1]); err != nil {
			return h.reportError(ctx, chatID, err)
		}
		return h.sendMeal(chatID, f.Date, slot)

	case keyboards.ActionMetrics:
		h.stateManager.SetUserState(userID, state.WaitingForMetrics)
		return h.send(chatID, "📏 Send measurements like: weight=70.5 waist=80 thigh=55 calf=36")

	case keyboards.ActionNote:
		h.stateManager.SetUserState(userID, state.WaitingForNote)
		return h.send(chatID, "📝 Send the note for "+f.Date)

	case keyboards.ActionReport:
		if err := h.send(chatID, "⏳ Writing the report..."); err != nil {
			return err
		}
		return h.send(chatID, h.deps.Diary.DailyReport(ctx, f.Date))

	case keyboards.ActionWeekly:
		kind := domain.ReportNutrition
		if len(args) > 0 {
			kind = domain.ParseReportKind(args[0])
		}
		if err := h.send(chatID, "⏳ Writing the weekly report..."); err != nil {
			return err
		}
		return h.send(chatID, h.deps.Diary.WeeklyReport(ctx, f.Date, kind))

	default:
		return h.handleUnknownCallback(chatID)
	}
}

func (h *CallbackHandler) handleUnknownCallback(chatID int64) error {
	return h.send(chatID, "This button is no longer valid. Use /today to start over.")
}
