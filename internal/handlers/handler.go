package handlers

import (
	"context"

	"go.uber.org/zap"

	"telegram-timesheet/internal/timesheet"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Bot is the part of *tgbotapi.BotAPI the handlers use.
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type Handler struct {
	Bot          Bot
	Svc          *timesheet.Service
	PanelCommand string

	log *zap.Logger
}

func NewHandler(bot Bot, svc *timesheet.Service, panelCommand string, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{Bot: bot, Svc: svc, PanelCommand: panelCommand, log: log.Named("handlers")}
}

// Listen dispatches updates until ctx is cancelled or the channel closes.
func (h *Handler) Listen(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			h.HandleUpdate(ctx, upd)
		}
	}
}

func (h *Handler) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	switch {
	case upd.Message != nil:
		h.HandleMessage(upd.Message)
	case upd.CallbackQuery != nil:
		h.HandleCallback(ctx, upd.CallbackQuery)
	}
}

func (h *Handler) HandleMessage(msg *tgbotapi.Message) {
	if msg.From != nil && msg.From.IsBot {
		return
	}
	if msg.IsCommand() {
		h.HandleCommand(msg.Chat.ID, msg.Command())
	}
}
