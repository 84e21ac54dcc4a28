package handlers

import (
	"context"
	"fmt"

	"telegram-timesheet/internal/messages"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notify sends text followed by the rendered card, if any, to chatID.
func (h *Handler) Notify(ctx context.Context, chatID int64, text string, card *messages.Card) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body := text
	if card != nil {
		if body != "" {
			body += "\n\n"
		}
		body += card.HTML()
	}
	msg := tgbotapi.NewMessage(chatID, body)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := h.Bot.Send(msg); err != nil {
		return fmt.Errorf("send to chat %d: %w", chatID, err)
	}
	return nil
}
