package handlers

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vladimiradmaev/macro-diary/internal/bot/menus"
	"github.com/vladimiradmaev/macro-diary/internal/bot/state"
	"github.com/vladimiradmaev/macro-diary/internal/domain"
	"github.com/vladimiradmaev/macro-diary/internal/logger"
	"github.com/vladimiradmaev/macro-diary/internal/utils"
)

// CommandHandler handles bot commands
type CommandHandler struct {
	*base
}

// Handle processes a command message
func (h *CommandHandler) Handle(ctx context.Context, message *tgbotapi.Message) error {
	userID := message.From.ID
	chatID := message.Chat.ID
	args := strings.TrimSpace(message.CommandArguments())
	logger.Info("Handling command", "command", message.Command(), "user_id", userID)

	switch message.Command() {
	case "start", "today":
		h.stateManager.SetUserState(userID, state.None)
		h.stateManager.ClearTempData(userID)
		today := utils.Today(h.deps.Now())
		h.setFocus(userID, state.Focus{Date: today, Slot: h.focus(userID).Slot})
		return h.sendDay(chatID, today)

	case "date":
		if _, err := domain.ParseDate(args); err != nil {
			return h.send(chatID, "Usage: /date YYYY-MM-DD")
		}
		h.stateManager.SetUserState(userID, state.None)
		h.setFocus(userID, state.Focus{Date: args, Slot: h.focus(userID).Slot})
		return h.sendDay(chatID, args)

	case "goals":
		if args == "" {
			return h.send(chatID, menus.RenderGoals(h.deps.Diary.Goals()))
		}
		goals, err := ParseGoals(args, h.deps.Diary.Goals())
		if err != nil {
			return h.send(chatID, "❌ "+err.Error())
		}
		if err := h.deps.Diary.SetGoals(goals); err != nil {
			return h.reportError(ctx, chatID, err)
		}
		return h.send(chatID, menus.RenderGoals(goals))

	case "report":
		return h.send(chatID, h.deps.Diary.DailyReport(ctx, h.focus(userID).Date))

	case "weekly":
		kind := domain.ParseReportKind(strings.ToLower(args))
		return h.send(chatID, h.deps.Diary.WeeklyReport(ctx, h.focus(userID).Date, kind))

	case "metrics":
		if args == "" {
			h.stateManager.SetUserState(userID, state.WaitingForMetrics)
			return h.send(chatID, "Send measurements like: weight=70.5 waist=80 thigh=55 calf=36")
		}
		return h.setMetrics(ctx, userID, chatID, args)

	case "note":
		if args == "" {
			h.stateManager.SetUserState(userID, state.WaitingForNote)
			return h.send(chatID, "Send the note for "+h.focus(userID).Date)
		}
		return h.setNote(ctx, userID, chatID, args)

	case "help":
		return menus.SendHelp(h.api, chatID)

	default:
		return h.send(chatID, "Unknown command. Use /help to see the available commands.")
	}
}

func (h *base) setMetrics(ctx context.Context, userID, chatID int64, text string) error {
	metrics, err := ParseMetrics(text)
	if err != nil {
		return h.send(chatID, "❌ "+err.Error()+"\nExample: weight=70.5 waist=80")
	}
	log, err := h.deps.Diary.SetBodyMetrics(ctx, h.focus(userID).Date, metrics)
	if err != nil {
		return h.reportError(ctx, chatID, err)
	}
	h.stateManager.SetUserState(userID, state.None)
	return h.send(chatID, "✅ "+menus.RenderMetrics(log.BodyMetrics))
}

func (h *base) setNote(ctx context.Context, userID, chatID int64, text string) error {
	f := h.focus(userID)
	if _, err := h.deps.Diary.SetNote(ctx, f.Date, text); err != nil {
		return h.reportError(ctx, chatID, err)
	}
	h.stateManager.SetUserState(userID, state.None)
	return h.sendDay(chatID, f.Date)
}
