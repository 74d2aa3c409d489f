// Package monitor polls the upstream source for chapter counters and
// turns strictly-higher readings into persisted updates plus
// notifications. The stored counter never decreases, and the update is
// persisted before the notification goes out: a crash in between costs
// at most one missed notification, never a duplicate.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"mangawatch/internal/domain/notify"
	"mangawatch/internal/domain/subscription"
	"mangawatch/internal/obs"
)

var (
	mFetches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "monitor_fetches_total", Help: "Upstream fetches attempted (one per unique series per run).",
	})
	mUnavailable = promauto.NewCounter(prometheus.CounterOpts{
		Name: "monitor_source_unavailable_total", Help: "Fetches skipped because the source was unavailable.",
	})
	mIncreases = promauto.NewCounter(prometheus.CounterOpts{
		Name: "monitor_increases_total", Help: "Chapter increases detected.",
	})
	mPersistErr = promauto.NewCounter(prometheus.CounterOpts{
		Name: "monitor_persist_failures_total", Help: "Counter updates that failed to persist.",
	})
	mDeliveryErr = promauto.NewCounter(prometheus.CounterOpts{
		Name: "monitor_delivery_failures_total", Help: "Per-target delivery failures.",
	})
)

// Subscriptions is the slice of the store the monitor touches.
type Subscriptions interface {
	List(ctx context.Context) ([]*subscription.Subscription, error)
	UpdateLastChapter(ctx context.Context, id int64, chapter int64) error
}

// Notifier delivers one chapter increase to a subscription's targets.
type Notifier interface {
	DispatchChapterAlert(ctx context.Context, sub *subscription.Subscription, inc subscription.Increase) notify.Report
}

type Monitor struct {
	log     *zap.Logger
	subs    Subscriptions
	fetch   subscription.Fetcher
	notif   Notifier
	limiter *rate.Limiter
}

// New builds a monitor that leaves at least minFetchGap between calls
// to distinct series keys, bounding the upstream request rate.
func New(log *zap.Logger, subs Subscriptions, fetch subscription.Fetcher, notif Notifier, minFetchGap time.Duration) *Monitor {
	if minFetchGap <= 0 {
		minFetchGap = time.Second
	}
	return &Monitor{
		log:     log.With(zap.String("component", "monitor")),
		subs:    subs,
		fetch:   fetch,
		notif:   notif,
		limiter: rate.NewLimiter(rate.Every(minFetchGap), 1),
	}
}

// Tick runs one full poll pass. Source flakiness skips only the
// affected series; persistence failure skips only the affected
// subscription. Only context cancellation or a failed listing aborts
// the run.
func (m *Monitor) Tick(ctx context.Context) error {
	tr := otel.Tracer("monitor")
	ctx, span := tr.Start(ctx, "monitor.tick")
	defer span.End()
	log := obs.WithTrace(ctx, m.log)

	subs, err := m.subs.List(ctx)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("list subscriptions: %w", err)
	}
	if len(subs) == 0 {
		return nil
	}

	// One upstream call per unique series, however many subscriptions
	// share it.
	order := make([]string, 0, len(subs))
	groups := make(map[string][]*subscription.Subscription, len(subs))
	for _, s := range subs {
		if _, ok := groups[s.SeriesKey]; !ok {
			order = append(order, s.SeriesKey)
		}
		groups[s.SeriesKey] = append(groups[s.SeriesKey], s)
	}
	span.SetAttributes(
		attribute.Int("subscriptions", len(subs)),
		attribute.Int("series", len(order)),
	)

	for _, key := range order {
		if err := m.limiter.Wait(ctx); err != nil {
			return err
		}

		mFetches.Inc()
		latest, err := m.fetch.LatestChapter(ctx, key)
		if err != nil {
			if errors.Is(err, subscription.ErrUnavailable) {
				mUnavailable.Inc()
				log.Debug("source unavailable, retrying next run", zap.String("series_key", key))
			} else {
				log.Warn("fetch failed", zap.String("series_key", key), zap.Error(err))
			}
			continue
		}

		for _, s := range groups[key] {
			m.apply(ctx, log, s, latest)
		}
	}
	return nil
}

// apply persists and announces one reading for one subscription. A
// reading at or below the stored counter is a no-op, which also shields
// against upstream regressions.
func (m *Monitor) apply(ctx context.Context, log *zap.Logger, s *subscription.Subscription, latest int64) {
	if latest <= s.LastChapter {
		return
	}
	inc := subscription.Increase{
		SubscriptionID: s.ID,
		PrevChapter:    s.LastChapter,
		NewChapter:     latest,
	}

	// Persist first. If this fails the notification is withheld; the
	// increase is re-detected on the next poll.
	if err := m.subs.UpdateLastChapter(ctx, s.ID, latest); err != nil {
		mPersistErr.Inc()
		log.Warn("persist chapter failed, withholding notification",
			zap.Int64("subscription_id", s.ID),
			zap.Int64("chapter", latest),
			zap.Error(err),
		)
		return
	}

	rep := m.notif.DispatchChapterAlert(ctx, s, inc)
	mIncreases.Inc()
	mDeliveryErr.Add(float64(rep.Failed()))
	log.Info("new chapter",
		zap.Int64("subscription_id", s.ID),
		zap.String("series_key", s.SeriesKey),
		zap.Int64("prev", inc.PrevChapter),
		zap.Int64("chapter", inc.NewChapter),
		zap.Int("sent", rep.Sent()),
		zap.Int("failed", rep.Failed()),
	)
}
