// Package dispatch fans rendered notifications out to delivery targets.
// Delivery is at-most-once: a failed target is recorded in the report
// and never retried within the same occurrence.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"mangawatch/internal/domain/notify"
	"mangawatch/internal/domain/schedule"
	"mangawatch/internal/domain/subscription"
)

var (
	mSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_sent_total", Help: "Notifications delivered, per target kind.",
	}, []string{"kind"})
	mFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_failed_total", Help: "Delivery failures, per target kind.",
	}, []string{"kind"})
	mFanout = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "dispatch_fanout_duration_seconds", Help: "Full fan-out duration per occurrence.",
		Buckets: prometheus.DefBuckets,
	})
)

type Dispatcher struct {
	log     *zap.Logger
	senders map[notify.TargetKind]notify.Sender
}

func New(log *zap.Logger, senders ...notify.Sender) *Dispatcher {
	m := make(map[notify.TargetKind]notify.Sender, len(senders))
	for _, s := range senders {
		m[s.Kind()] = s
	}
	return &Dispatcher{
		log:     log.With(zap.String("component", "dispatch")),
		senders: m,
	}
}

// DispatchReminder renders and delivers a due-schedule notification.
func (d *Dispatcher) DispatchReminder(ctx context.Context, def *schedule.Definition, at time.Time) notify.Report {
	return d.fanout(ctx, RenderReminder(def, at), def.Targets)
}

// DispatchChapterAlert renders and delivers a new-chapter notification.
func (d *Dispatcher) DispatchChapterAlert(ctx context.Context, sub *subscription.Subscription, inc subscription.Increase) notify.Report {
	return d.fanout(ctx, RenderChapterAlert(sub, inc), sub.Targets)
}

// fanout attempts every target independently; one target failing (a
// deleted channel, a dead bridge) never suppresses the rest.
func (d *Dispatcher) fanout(ctx context.Context, msg notify.Message, targets []notify.Target) notify.Report {
	start := time.Now()
	rep := notify.Report{Deliveries: make([]notify.Delivery, 0, len(targets))}

	for _, t := range targets {
		sender, ok := d.senders[t.Kind]
		if !ok {
			err := fmt.Errorf("no sender for target kind %q", t.Kind)
			d.log.Warn("target skipped", zap.String("kind", string(t.Kind)), zap.String("address", t.Address))
			rep.Deliveries = append(rep.Deliveries, notify.Delivery{Target: t, Err: err})
			mFailed.WithLabelValues(string(t.Kind)).Inc()
			continue
		}

		err := sender.Send(ctx, t, msg)
		rep.Deliveries = append(rep.Deliveries, notify.Delivery{Target: t, Err: err})
		if err != nil {
			mFailed.WithLabelValues(string(t.Kind)).Inc()
			d.log.Error("delivery failed",
				zap.String("kind", string(t.Kind)),
				zap.String("address", t.Address),
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
			continue
		}
		mSent.WithLabelValues(string(t.Kind)).Inc()
	}

	mFanout.Observe(time.Since(start).Seconds())
	return rep
}
