package timesheet

import (
	"context"

	"telegram-timesheet/internal/messages"
)

// Notifier delivers unsolicited messages to a chat. Delivery is best effort:
// callers log failures and carry on.
type Notifier interface {
	Notify(ctx context.Context, chatID int64, text string, card *messages.Card) error
}
