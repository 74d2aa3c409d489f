// Package driver owns the process timers. Each loop ticks on its own
// interval, never overlaps itself (a tick landing mid-run is skipped,
// not queued), and in-flight runs are drained on shutdown instead of
// being cancelled mid-record.
package driver

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var (
	mRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "driver_runs_total", Help: "Completed loop runs.",
	}, []string{"loop"})
	mSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "driver_ticks_skipped_total", Help: "Ticks skipped because the previous run was still in flight.",
	}, []string{"loop"})
	mErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "driver_run_errors_total", Help: "Runs that returned an error.",
	}, []string{"loop"})
	mRunDur = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "driver_run_duration_seconds", Help: "Loop run duration.",
		Buckets: prometheus.DefBuckets,
	}, []string{"loop"})
)

// Loop is one timer-driven task.
type Loop struct {
	Name       string
	Interval   time.Duration
	RunTimeout time.Duration
	Tick       func(ctx context.Context) error
}

type loopState struct {
	Loop
	running atomic.Bool
}

type Driver struct {
	log          *zap.Logger
	loops        []*loopState
	drainTimeout time.Duration
	wg           sync.WaitGroup
}

func New(log *zap.Logger, drainTimeout time.Duration, loops ...Loop) *Driver {
	d := &Driver{
		log:          log.With(zap.String("component", "driver")),
		drainTimeout: drainTimeout,
	}
	for _, l := range loops {
		d.loops = append(d.loops, &loopState{Loop: l})
	}
	return d
}

// Run drives all loops until ctx is cancelled, then waits for in-flight
// runs to finish (bounded by the drain timeout).
func (d *Driver) Run(ctx context.Context) error {
	for _, l := range d.loops {
		go d.runLoop(ctx, l)
	}

	<-ctx.Done()
	d.log.Info("stopping, draining in-flight runs")

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		d.log.Info("drained")
	case <-time.After(d.drainTimeout):
		d.log.Warn("drain timeout, abandoning in-flight run")
	}
	return ctx.Err()
}

func (d *Driver) runLoop(ctx context.Context, l *loopState) {
	d.log.Info("loop started",
		zap.String("loop", l.Name),
		zap.Duration("interval", l.Interval),
	)

	// First pass immediately; the ticker covers the rest.
	d.fire(ctx, l)

	t := time.NewTicker(l.Interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			d.fire(ctx, l)
		}
	}
}

// fire starts one run unless the previous one is still going, in which
// case this tick is dropped entirely.
func (d *Driver) fire(ctx context.Context, l *loopState) {
	if !l.running.CompareAndSwap(false, true) {
		mSkipped.WithLabelValues(l.Name).Inc()
		d.log.Warn("tick skipped, previous run still in flight", zap.String("loop", l.Name))
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer l.running.Store(false)

		// The run rides a context detached from shutdown cancellation so
		// a record in flight completes its persist+notify pair; the run
		// timeout bounds how long the drain can take.
		runCtx := context.WithoutCancel(ctx)
		if l.RunTimeout > 0 {
			var cancel context.CancelFunc
			runCtx, cancel = context.WithTimeout(runCtx, l.RunTimeout)
			defer cancel()
		}

		start := time.Now()
		err := l.Tick(runCtx)
		mRunDur.WithLabelValues(l.Name).Observe(time.Since(start).Seconds())
		mRuns.WithLabelValues(l.Name).Inc()
		if err != nil {
			mErrors.WithLabelValues(l.Name).Inc()
			d.log.Warn("run error", zap.String("loop", l.Name), zap.Error(err))
		}
	}()
}
