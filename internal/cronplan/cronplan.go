// Package cronplan evaluates five-field cron expressions
// (minute hour day-of-month month day-of-week) against wall-clock
// instants. robfig/cron only exposes the next activation after a given
// time; Prev derives the most recent activation at or before it.
package cronplan

import (
	"time"

	"github.com/robfig/cron/v3"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Parse validates a five-field cron expression.
func Parse(expr string) (cron.Schedule, error) {
	return parser.Parse(expr)
}

// Prev returns the most recent instant matching sched at or before now,
// searching back at most lookback. The zero time means no activation
// fell inside the window. Cron activations are minute-granular, so the
// walk from the window start is a handful of Next calls for the short
// lookbacks the evaluator uses.
func Prev(sched cron.Schedule, now time.Time, lookback time.Duration) time.Time {
	var prev time.Time
	// Step one extra second back so an activation exactly at the window
	// start is still found (Next is strictly-after).
	t := now.Add(-lookback - time.Second)
	for {
		next := sched.Next(t)
		if next.IsZero() || next.After(now) {
			return prev
		}
		prev = next
		t = next
	}
}
