package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	config "mangawatch/internal/config/watchd"
	"mangawatch/internal/obs"
	"mangawatch/internal/obs/retry"
	"mangawatch/internal/repository/gateway"
	kafkax "mangawatch/internal/repository/kafka"
	pg "mangawatch/internal/repository/postgres"
	"mangawatch/internal/repository/upstream"
	"mangawatch/internal/services/dispatch"
	"mangawatch/internal/services/driver"
	"mangawatch/internal/services/evaluator"
	"mangawatch/internal/services/monitor"
)

func main() {
	cfgPath := flag.String("config", "config/watchd.yaml", "path to config file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, cfgNotes, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal(err)
	}

	// logger
	l, err := obs.NewLogger(cfg.Log.AsLoggerConfig())
	if err != nil {
		log.Fatal(err)
	}
	for _, note := range cfgNotes {
		l.Warn("config adjusted", zap.String("note", note))
	}
	l.Info("starting watchd",
		zap.Duration("sched_tick", cfg.Sched.Tick),
		zap.Duration("sched_tolerance", cfg.Sched.Tolerance),
		zap.Duration("monitor_tick", cfg.Monitor.Tick),
		zap.String("metrics_addr", cfg.Server.MetricsAddr),
	)

	// otel
	otelCloser, err := obs.SetupOTel(ctx, cfg.OTEL.AsOTELConfig())
	if err != nil {
		l.Warn("otel init", zap.Error(err))
	}
	defer func() { _ = otelCloser.Shutdown(context.Background()) }()

	// db (retried: postgres may come up after us in a rolling deploy)
	var db *pg.DB
	err = retry.Do(ctx, func() error {
		var derr error
		db, derr = pg.New(ctx, cfg.DB)
		return derr
	}, retry.StartupPolicy("postgres", l))
	if err != nil {
		l.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()
	l.Info("db connected")

	// delivery side
	prod := kafkax.NewProducer(cfg.Gateway.Kafka.Brokers, cfg.Gateway.Kafka.Topic).WithLogger(l)
	defer func() { _ = prod.Close() }()
	disp := dispatch.New(l,
		gateway.NewDiscordSender(prod, l),
		gateway.NewWhatsAppSender(cfg.Gateway.WhatsApp, obs.HTTPClient(cfg.Gateway.WhatsApp.Timeout), l),
	)

	// read side
	schedules := pg.NewScheduleRepo(db)
	subs := pg.NewSubscriptionRepo(db)
	fetcher := upstream.NewClient(cfg.Upstream, obs.HTTPClient(cfg.Upstream.Timeout), l)

	// loops
	evalRunner := evaluator.NewRunner(l, schedules, disp, cfg.Sched.Tolerance)
	mon := monitor.New(l, subs, fetcher, disp, cfg.Monitor.MinFetchGap)
	drv := driver.New(l, cfg.Server.DrainTimeout,
		driver.Loop{
			Name:       "evaluator",
			Interval:   cfg.Sched.Tick,
			RunTimeout: cfg.Sched.RunTimeout,
			Tick:       evalRunner.Tick,
		},
		driver.Loop{
			Name:       "monitor",
			Interval:   cfg.Monitor.Tick,
			RunTimeout: cfg.Monitor.RunTimeout,
			Tick:       mon.Tick,
		},
	)

	// metrics
	ms := obs.BootstrapMetricsServer(cfg.Server.MetricsAddr, func(ctx context.Context) error {
		hctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
		defer cancel()
		return db.Pool.Ping(hctx)
	}, l)

	// run
	errCh := make(chan error, 1)
	go func() { errCh <- drv.Run(ctx) }()
	l.Info("watchd started")

	select {
	case <-ctx.Done():
		l.Info("shutdown signal")
		if derr := <-errCh; derr != nil && !errors.Is(derr, context.Canceled) {
			l.Error("driver error", zap.Error(derr))
		}
	case err = <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			l.Error("driver error", zap.Error(err))
		}
	}

	shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = ms.Shutdown(shCtx)
	l.Info("bye")
}
