package evaluator

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"mangawatch/internal/domain/notify"
	"mangawatch/internal/domain/schedule"
	"mangawatch/internal/obs"
)

var (
	mEvaluated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "evaluator_definitions_total", Help: "Schedule definitions evaluated.",
	})
	mDue = promauto.NewCounter(prometheus.CounterOpts{
		Name: "evaluator_due_total", Help: "Due occurrences fired.",
	})
	mMalformed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "evaluator_malformed_total", Help: "Definitions skipped as malformed.",
	})
	mDeliveryErr = promauto.NewCounter(prometheus.CounterOpts{
		Name: "evaluator_delivery_failures_total", Help: "Per-target delivery failures.",
	})
)

// Schedules is the slice of the store the evaluator reads.
type Schedules interface {
	List(ctx context.Context) ([]*schedule.Definition, error)
}

// Notifier delivers one due occurrence to its targets.
type Notifier interface {
	DispatchReminder(ctx context.Context, def *schedule.Definition, at time.Time) notify.Report
}

type Runner struct {
	log       *zap.Logger
	eval      *Evaluator
	schedules Schedules
	notif     Notifier
	tolerance time.Duration
}

func NewRunner(log *zap.Logger, schedules Schedules, notif Notifier, tolerance time.Duration) *Runner {
	return &Runner{
		log:       log.With(zap.String("component", "evaluator.runner")),
		eval:      New(log),
		schedules: schedules,
		notif:     notif,
		tolerance: tolerance,
	}
}

// Tick runs one full pass: list, evaluate, dispatch. Dispatch failures
// are non-fatal; an occurrence counts as handled once dispatch was
// attempted.
func (r *Runner) Tick(ctx context.Context) error {
	tr := otel.Tracer("evaluator")
	ctx, span := tr.Start(ctx, "evaluator.tick")
	defer span.End()
	log := obs.WithTrace(ctx, r.log)

	defs, err := r.schedules.List(ctx)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("list schedules: %w", err)
	}
	mEvaluated.Add(float64(len(defs)))

	now := time.Now().UTC()
	due, malformed := r.eval.Evaluate(defs, now, r.tolerance)
	mMalformed.Add(float64(malformed))
	span.SetAttributes(
		attribute.Int("definitions", len(defs)),
		attribute.Int("due", len(due)),
		attribute.Int("malformed", malformed),
	)
	if len(due) == 0 {
		return nil
	}

	byID := make(map[int64]*schedule.Definition, len(defs))
	for _, d := range defs {
		byID[d.ID] = d
	}

	for _, occ := range due {
		def := byID[occ.ScheduleID]
		rep := r.notif.DispatchReminder(ctx, def, occ.At)
		mDue.Inc()
		mDeliveryErr.Add(float64(rep.Failed()))
		log.Info("schedule fired",
			zap.Int64("schedule_id", occ.ScheduleID),
			zap.Time("occurrence", occ.At),
			zap.Int("sent", rep.Sent()),
			zap.Int("failed", rep.Failed()),
		)
	}
	return nil
}
