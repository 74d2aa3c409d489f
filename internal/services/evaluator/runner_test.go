package evaluator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mangawatch/internal/domain/notify"
	"mangawatch/internal/domain/schedule"
)

type stubSchedules struct {
	defs []*schedule.Definition
	err  error
}

func (s *stubSchedules) List(context.Context) ([]*schedule.Definition, error) {
	return s.defs, s.err
}

type stubNotifier struct {
	fired []int64
}

func (s *stubNotifier) DispatchReminder(_ context.Context, def *schedule.Definition, _ time.Time) notify.Report {
	s.fired = append(s.fired, def.ID)
	return notify.Report{Deliveries: []notify.Delivery{{Target: def.Targets[0]}}}
}

func TestRunnerTickDispatchesDue(t *testing.T) {
	at := time.Now().UTC()
	sched := &stubSchedules{defs: []*schedule.Definition{
		oneShot(11, at),
		oneShot(12, at.Add(-time.Hour)),
	}}
	notif := &stubNotifier{}
	r := NewRunner(zap.NewNop(), sched, notif, time.Minute)

	require.NoError(t, r.Tick(context.Background()))
	require.Equal(t, []int64{11}, notif.fired)
}

func TestRunnerTickListFailure(t *testing.T) {
	boom := errors.New("db down")
	r := NewRunner(zap.NewNop(), &stubSchedules{err: boom}, &stubNotifier{}, time.Minute)

	err := r.Tick(context.Background())
	require.ErrorIs(t, err, boom)
}
