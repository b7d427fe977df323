package handlers

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vladimiradmaev/macro-diary/internal/bot/menus"
	"github.com/vladimiradmaev/macro-diary/internal/bot/state"
)

// TextHandler handles text messages
type TextHandler struct {
	*base
}

// Handle processes a text message according to the conversation state
func (h *TextHandler) Handle(ctx context.Context, message *tgbotapi.Message) error {
	userID := message.From.ID
	chatID := message.Chat.ID
	text := strings.TrimSpace(message.Text)

	switch h.stateManager.GetUserState(userID) {
	case state.AddingFood:
		return h.logFood(ctx, message, text, nil)
	case state.WaitingForOptions:
		return h.handleOptions(ctx, userID, chatID, text)
	case state.WaitingForWeight:
		return h.handleWeight(ctx, userID, chatID, text)
	case state.WaitingForMetrics:
		return h.setMetrics(ctx, userID, chatID, text)
	case state.WaitingForNote:
		return h.setNote(ctx, userID, chatID, text)
	default:
		return h.send(chatID, "Pick a meal first: /today")
	}
}

// logFood sends text and an optional photo through extraction into the focused meal
func (h *base) logFood(ctx context.Context, message *tgbotapi.Message, text string, image []byte) error {
	userID := message.From.ID
	chatID := message.Chat.ID
	f := h.focus(userID)

	if err := h.send(chatID, "⏳ Analysing..."); err != nil {
		return err
	}
	meal, err := h.deps.Diary.LogFood(ctx, sessionID(userID), f.Date, f.Slot, text, image)
	if err != nil {
		return h.reportError(ctx, chatID, err)
	}
	h.stateManager.SetUserState(userID, state.None)
	return menus.SendMealMenu(h.api, chatID, f.Date, meal, h.deps.Language)
}

func (h *TextHandler) handleOptions(ctx context.Context, userID, chatID int64, text string) error {
	f := h.focus(userID)
	if err := h.send(chatID, "⏳ Thinking..."); err != nil {
		return err
	}
	rec, err := h.deps.Diary.Recommend(ctx, sessionID(userID), f.Date, f.Slot, text)
	if err != nil {
		return h.reportError(ctx, chatID, err)
	}
	h.stateManager.SetUserState(userID, state.None)
	return h.send(chatID, menus.RenderRecommendation(rec))
}

func (h *TextHandler) handleWeight(ctx context.Context, userID, chatID int64, text string) error {
	itemID, ok := h.stateManager.GetTempData(userID, state.KeyItemID)
	if !ok {
		h.stateManager.SetUserState(userID, state.None)
		return h.send(chatID, "Pick the item again: /today")
	}
	weight, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(text), "g"), 64)
	if err != nil {
		return h.send(chatID, "Please send a number, for example 150")
	}

	f := h.focus(userID)
	meal, err := h.deps.Diary.UpdateItemWeight(ctx, f.Date, f.Slot, itemID, weight)
	if err != nil {
		return h.reportError(ctx, chatID, err)
	}
	h.stateManager.SetUserState(userID, state.None)
	h.stateManager.ClearTempData(userID)
	return menus.SendMealMenu(h.api, chatID, f.Date, meal, h.deps.Language)
}
