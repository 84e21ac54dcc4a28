package handlers

import (
	"go.uber.org/zap"

	"telegram-timesheet/internal/messages"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var panelKB = tgbotapi.NewInlineKeyboardMarkup(
	tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(messages.BtnStart, messages.ActionStart),
		tgbotapi.NewInlineKeyboardButtonData(messages.BtnPause, messages.ActionPause),
		tgbotapi.NewInlineKeyboardButtonData(messages.BtnResume, messages.ActionResume),
	),
	tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(messages.BtnFinish, messages.ActionFinish),
		tgbotapi.NewInlineKeyboardButtonData(messages.BtnStatus, messages.ActionStatus),
	),
)

func (h *Handler) HandleCommand(chatID int64, cmd string) {
	switch cmd {
	case "start", h.PanelCommand:
		h.SendPanel(chatID)
	}
}

// ---------------- panel --------------------
func (h *Handler) SendPanel(chatID int64) {
	msg := tgbotapi.NewMessage(chatID, messages.PanelText)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = panelKB
	if _, err := h.Bot.Send(msg); err != nil {
		h.log.Warn("panel not sent", zap.Int64("chat", chatID), zap.Error(err))
	}
}
