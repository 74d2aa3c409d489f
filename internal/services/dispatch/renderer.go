package dispatch

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"mangawatch/internal/domain/notify"
	"mangawatch/internal/domain/schedule"
	"mangawatch/internal/domain/subscription"
)

// RenderChapterAlert builds the new-chapter announcement for one
// subscription. Senders apply their own channel formatting on top.
func RenderChapterAlert(sub *subscription.Subscription, inc subscription.Increase) notify.Message {
	return notify.Message{
		ID:       uuid.NewString(),
		Title:    fmt.Sprintf("New chapter: %s", sub.Title),
		Body:     fmt.Sprintf("Chapter %d is now available! (previous: %d)", inc.NewChapter, inc.PrevChapter),
		CoverURL: sub.CoverURL,
	}
}

// RenderReminder builds the due-event notification for one schedule
// occurrence.
func RenderReminder(def *schedule.Definition, at time.Time) notify.Message {
	body := def.Description
	if body == "" {
		body = fmt.Sprintf("Scheduled for %s", at.Format(time.RFC1123))
	}
	return notify.Message{
		ID:    uuid.NewString(),
		Title: def.Title,
		Body:  body,
	}
}
