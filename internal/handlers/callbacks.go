package handlers

import (
	"context"
	"time"

	"go.uber.org/zap"

	"telegram-timesheet/internal/messages"
	"telegram-timesheet/internal/models"
	"telegram-timesheet/internal/timesheet"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type transition func(ctx context.Context, userID int64, date string, now time.Time) (timesheet.Outcome, error)

func (h *Handler) HandleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if cq.From == nil || cq.Message == nil || cq.Message.Chat == nil {
		h.answer(cq.ID, "", false)
		return
	}
	chatID := cq.Message.Chat.ID
	now := h.Svc.Clock().Now()
	date := h.Svc.Clock().Day(now)

	// remember the chat for rollover summaries and reminders
	if err := h.Svc.Touch(ctx, &models.User{
		ID:        cq.From.ID,
		Name:      cq.From.String(),
		ChatID:    chatID,
		UpdatedAt: now,
	}); err != nil {
		h.log.Warn("user not recorded", zap.Int64("user", cq.From.ID), zap.Error(err))
	}

	switch cq.Data {
	case messages.ActionStart:
		h.handleTransition(ctx, cq, h.Svc.Start, date, now)
	case messages.ActionPause:
		h.handleTransition(ctx, cq, h.Svc.Pause, date, now)
	case messages.ActionResume:
		h.handleTransition(ctx, cq, h.Svc.Resume, date, now)
	case messages.ActionFinish:
		out := h.handleTransition(ctx, cq, h.Svc.Finish, date, now)
		if out.OK && out.Session != nil {
			h.postSummary(ctx, chatID, cq.From, out.Session, now)
		}
	case messages.ActionStatus:
		h.handleStatus(ctx, cq, date, now)
	default:
		h.answer(cq.ID, "", false)
	}
}

func (h *Handler) handleTransition(ctx context.Context, cq *tgbotapi.CallbackQuery, fn transition, date string, now time.Time) timesheet.Outcome {
	out, err := fn(ctx, cq.From.ID, date, now)
	if err != nil {
		h.log.Error("transition failed", zap.Int64("user", cq.From.ID), zap.String("action", cq.Data), zap.Error(err))
		h.answer(cq.ID, messages.GenericFail, false)
		return out
	}
	h.answer(cq.ID, messages.StripTags(out.Message), false)
	return out
}

func (h *Handler) handleStatus(ctx context.Context, cq *tgbotapi.CallbackQuery, date string, now time.Time) {
	d, err := h.Svc.Status(ctx, cq.From.ID, date, now)
	if err != nil {
		h.log.Error("status failed", zap.Int64("user", cq.From.ID), zap.Error(err))
		h.answer(cq.ID, messages.GenericFail, false)
		return
	}
	card := messages.DaySummary(cq.From.String(), d.Periods, d.Totals, h.Svc.Clock().Location(), now, true)
	h.answer(cq.ID, card.Plain(), true)
}

// postSummary publishes the finished day in the chat the button was pressed in.
func (h *Handler) postSummary(ctx context.Context, chatID int64, from *tgbotapi.User, sess *models.Session, now time.Time) {
	periods, err := h.Svc.Periods(ctx, sess.ID)
	if err != nil {
		h.log.Error("summary periods", zap.Int64("session", sess.ID), zap.Error(err))
		return
	}
	totals := timesheet.Summarize(periods, now)
	card := messages.DaySummary(from.String(), periods, totals, h.Svc.Clock().Location(), now, false)
	if err := h.Notify(ctx, chatID, "", card); err != nil {
		h.log.Warn("summary not sent", zap.Int64("chat", chatID), zap.Error(err))
	}
}

// answer always acknowledges the callback so the client stops spinning.
func (h *Handler) answer(id, text string, alert bool) {
	cfg := tgbotapi.NewCallback(id, text)
	cfg.ShowAlert = alert
	if _, err := h.Bot.Request(cfg); err != nil {
		h.log.Debug("callback answer failed", zap.Error(err))
	}
}
