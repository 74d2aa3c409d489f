package subscription

import (
	"context"
	"errors"
)

// ErrUnavailable marks a source-side failure (timeout, 5xx, series not
// resolvable right now). The monitor skips the key and re-polls next run.
var ErrUnavailable = errors.New("subscription: source unavailable")

type Repo interface {
	Create(ctx context.Context, s *Subscription) error
	List(ctx context.Context) ([]*Subscription, error)
	// UpdateLastChapter raises the stored chapter. The stored value never
	// decreases; a stale write is a silent no-op.
	UpdateLastChapter(ctx context.Context, id int64, chapter int64) error
	Delete(ctx context.Context, id int64) error
}

// Fetcher reads the latest published chapter for a series key.
type Fetcher interface {
	LatestChapter(ctx context.Context, seriesKey string) (int64, error)
}
