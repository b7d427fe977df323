package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vladimiradmaev/macro-diary/internal/bot/state"
	"github.com/vladimiradmaev/macro-diary/internal/logger"
)

// Telegram photos are far smaller; anything above is not a meal photo
const maxPhotoBytes = 10 << 20

// PhotoHandler handles photo messages
type PhotoHandler struct {
	*base
}

// Handle downloads the largest photo size and logs it with its caption
func (h *PhotoHandler) Handle(ctx context.Context, message *tgbotapi.Message) error {
	userID := message.From.ID
	chatID := message.Chat.ID
	if h.stateManager.GetUserState(userID) != state.AddingFood {
		return h.send(chatID, "Pick a meal and tap \"Add food\" before sending a photo: /today")
	}

	photo := message.Photo[len(message.Photo)-1]
	image, err := h.download(ctx, photo.FileID)
	if err != nil {
		logger.Error("Failed to download photo", "user_id", userID, "error", err)
		return h.send(chatID, "❌ Could not download the photo, please try again.")
	}
	return h.logFood(ctx, message, message.Caption, image)
}

func (h *PhotoHandler) download(ctx context.Context, fileID string) ([]byte, error) {
	url, err := h.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to get file: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.deps.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPhotoBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	if len(data) > maxPhotoBytes {
		return nil, fmt.Errorf("image exceeds %d bytes", maxPhotoBytes)
	}
	return data, nil
}
