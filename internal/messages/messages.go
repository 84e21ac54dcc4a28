package messages

import (
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"
)

// Button captions and callback data of the panel.
const (
	BtnStart  = "▶ Start"
	BtnPause  = "⏸ Pause"
	BtnResume = "⏯ Resume"
	BtnFinish = "🏁 Finish"
	BtnStatus = "📊 Status"

	ActionStart  = "start_work"
	ActionPause  = "pause"
	ActionResume = "resume"
	ActionFinish = "finish"
	ActionStatus = "status"
)

const (
	PanelText   = "Timesheet: use the buttons below. Every press affects <b>only you</b>."
	Started     = "✅ Work <b>started</b>."
	Paused      = "⏸️ <b>Paused</b>."
	Resumed     = "▶️ Back to <b>work</b>."
	Finished    = "🏁 Day <b>finished</b>."
	GenericFail = "Something went wrong, please try again."
)

// Mention links to a Telegram user by id.
func Mention(userID int64, name string) string {
	if name == "" {
		name = "user " + strconv.FormatInt(userID, 10)
	}
	return fmt.Sprintf(`<a href="tg://user?id=%d">%s</a>`, userID, html.EscapeString(name))
}

func RolloverNotice(mention, day string) string {
	return fmt.Sprintf("%s your day %s has been closed.", mention, day)
}

func NewDayNotice(mention string) string {
	return mention + " a new day was started automatically. Have a good one! ✅"
}

func PauseReminder(mention string, minutes int) string {
	return fmt.Sprintf("%s you have been on a pause for %d min. Ready to <b>resume</b>?", mention, minutes)
}

// StripTags turns the HTML texts above into plain text for callback toasts.
func StripTags(s string) string {
	r := strings.NewReplacer("<b>", "", "</b>", "", "<i>", "", "</i>", "")
	return r.Replace(s)
}

// FormatDuration renders d as HH:MM, truncating seconds.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	h := total / 3600
	m := (total % 3600) / 60
	return fmt.Sprintf("%02d:%02d", h, m)
}
