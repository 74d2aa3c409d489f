package subscription

import (
	"time"

	"mangawatch/internal/domain/notify"
)

// Subscription tracks one series for one set of delivery targets.
// LastChapter only ever goes up; the diff monitor is the sole writer.
type Subscription struct {
	ID          int64           `json:"id"`
	SeriesKey   string          `json:"series_key"`
	Title       string          `json:"title"`
	CoverURL    string          `json:"cover_url,omitempty"`
	LastChapter int64           `json:"last_chapter"`
	Targets     []notify.Target `json:"targets"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Increase is one observed chapter bump. Ephemeral.
type Increase struct {
	SubscriptionID int64
	PrevChapter    int64
	NewChapter     int64
}
