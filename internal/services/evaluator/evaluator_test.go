package evaluator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mangawatch/internal/domain/notify"
	"mangawatch/internal/domain/schedule"
)

var testTargets = []notify.Target{{Kind: notify.KindChannel, Address: "123"}}

func oneShot(id int64, at time.Time) *schedule.Definition {
	return &schedule.Definition{
		ID:      id,
		Kind:    schedule.KindOneShot,
		FireAt:  &at,
		Title:   "raid night",
		Targets: testTargets,
	}
}

func recurring(id int64, expr string) *schedule.Definition {
	return &schedule.Definition{
		ID:       id,
		Kind:     schedule.KindRecurring,
		CronExpr: expr,
		Title:    "weekly sync",
		Targets:  testTargets,
	}
}

func TestEvaluateEmpty(t *testing.T) {
	e := New(zap.NewNop())
	due, malformed := e.Evaluate(nil, time.Now(), time.Minute)
	require.Empty(t, due)
	require.Zero(t, malformed)
}

func TestEvaluateOneShotWindow(t *testing.T) {
	e := New(zap.NewNop())
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	tol := time.Minute

	cases := []struct {
		name   string
		fireAt time.Time
		due    bool
	}{
		{"inside, past", now.Add(-30 * time.Second), true},
		{"inside, future", now.Add(45 * time.Second), true},
		{"on the edge", now.Add(-tol), true},
		{"outside, past", now.Add(-2 * time.Minute), false},
		{"outside, future", now.Add(2 * time.Minute), false},
		{"long past, never retried", now.Add(-48 * time.Hour), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			due, malformed := e.Evaluate([]*schedule.Definition{oneShot(1, tc.fireAt)}, now, tol)
			require.Zero(t, malformed)
			if tc.due {
				require.Len(t, due, 1)
				require.Equal(t, int64(1), due[0].ScheduleID)
				require.Equal(t, tc.fireAt, due[0].At)
			} else {
				require.Empty(t, due)
			}
		})
	}
}

func TestEvaluateRecurringMondayNine(t *testing.T) {
	e := New(zap.NewNop())
	defs := []*schedule.Definition{recurring(7, "0 9 * * 1")}
	monday := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)

	due, _ := e.Evaluate(defs, monday.Add(30*time.Second), time.Minute)
	require.Len(t, due, 1)
	require.Equal(t, monday, due[0].At)

	due, _ = e.Evaluate(defs, monday.Add(2*time.Minute), time.Minute)
	require.Empty(t, due)
}

func TestEvaluateNoDoubleFireAcrossTicks(t *testing.T) {
	// tolerance <= tick/2: two adjacent ticks straddling one activation
	// must not both report it.
	e := New(zap.NewNop())
	defs := []*schedule.Definition{recurring(7, "0 9 * * 1")}
	tick := time.Minute
	tol := 30 * time.Second
	monday := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)

	first := monday.Add(20 * time.Second)
	second := first.Add(tick)

	due1, _ := e.Evaluate(defs, first, tol)
	due2, _ := e.Evaluate(defs, second, tol)
	require.Len(t, due1, 1)
	require.Empty(t, due2)
}

func TestEvaluateAtMostOnePerDefinition(t *testing.T) {
	// A window wide enough for several activations still yields one
	// occurrence, at the latest qualifying instant.
	e := New(zap.NewNop())
	defs := []*schedule.Definition{recurring(3, "* * * * *")}
	now := time.Date(2026, 8, 31, 9, 2, 10, 0, time.UTC)

	due, _ := e.Evaluate(defs, now, 3*time.Minute)
	require.Len(t, due, 1)
	require.Equal(t, time.Date(2026, 8, 31, 9, 2, 0, 0, time.UTC), due[0].At)
}

func TestEvaluateMalformedRuleIsIsolated(t *testing.T) {
	e := New(zap.NewNop())
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	defs := []*schedule.Definition{
		recurring(1, "totally broken"),
		oneShot(2, now.Add(-10*time.Second)),
	}

	due, malformed := e.Evaluate(defs, now, time.Minute)
	require.Equal(t, 1, malformed)
	require.Len(t, due, 1)
	require.Equal(t, int64(2), due[0].ScheduleID)
}

func TestEvaluateOneShotWithoutFireAt(t *testing.T) {
	e := New(zap.NewNop())
	d := &schedule.Definition{ID: 9, Kind: schedule.KindOneShot, Targets: testTargets}
	due, malformed := e.Evaluate([]*schedule.Definition{d}, time.Now(), time.Minute)
	require.Empty(t, due)
	require.Equal(t, 1, malformed)
}
