// Package evaluator decides which schedule definitions are due at a
// given instant. Due-ness is best effort within a tolerance window: an
// occurrence missed past the window is never replayed.
package evaluator

import (
	"time"

	"go.uber.org/zap"

	"mangawatch/internal/cronplan"
	"mangawatch/internal/domain/schedule"
)

type Evaluator struct {
	log *zap.Logger
}

func New(log *zap.Logger) *Evaluator {
	return &Evaluator{log: log.With(zap.String("component", "evaluator"))}
}

// Evaluate returns at most one DueOccurrence per definition: the latest
// qualifying instant within tolerance of now. A malformed recurrence
// rule skips only its own definition; the malformed count is returned
// for metrics. An empty definition set is an empty result.
func (e *Evaluator) Evaluate(defs []*schedule.Definition, now time.Time, tolerance time.Duration) ([]schedule.DueOccurrence, int) {
	var (
		due       []schedule.DueOccurrence
		malformed int
	)

	for _, d := range defs {
		switch d.Kind {
		case schedule.KindOneShot:
			if d.FireAt == nil {
				e.log.Error("one-shot schedule without fire_at", zap.Int64("schedule_id", d.ID))
				malformed++
				continue
			}
			diff := now.Sub(*d.FireAt)
			if diff < 0 {
				diff = -diff
			}
			// Past the window the occurrence is permanently missed.
			if diff <= tolerance {
				due = append(due, schedule.DueOccurrence{ScheduleID: d.ID, At: *d.FireAt})
			}

		case schedule.KindRecurring:
			sched, err := cronplan.Parse(d.CronExpr)
			if err != nil {
				e.log.Error("bad recurrence rule",
					zap.Int64("schedule_id", d.ID),
					zap.String("cron_expr", d.CronExpr),
					zap.Error(err),
				)
				malformed++
				continue
			}
			// The previous fire time is within tolerance exactly when an
			// activation falls inside the lookback window.
			if prev := cronplan.Prev(sched, now, tolerance); !prev.IsZero() {
				due = append(due, schedule.DueOccurrence{ScheduleID: d.ID, At: prev})
			}

		default:
			e.log.Error("unknown schedule kind",
				zap.Int64("schedule_id", d.ID),
				zap.String("kind", string(d.Kind)),
			)
			malformed++
		}
	}

	return due, malformed
}
