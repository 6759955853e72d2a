package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/zaviruha/bookingcalendar/internal/config"
	"github.com/zaviruha/bookingcalendar/internal/logging"
	"github.com/zaviruha/bookingcalendar/internal/metrics"
	"github.com/zaviruha/bookingcalendar/internal/picker"
)

func main() {
	configPath := flag.String("config", "", "path to booking-calendar.yaml (default: ./booking-calendar.*)")
	flag.Parse()

	_ = config.LoadEnvFile()

	host, err := config.LoadHost(*configPath)
	if err != nil {
		log.Fatalf("load host config: %v", err)
	}

	logger, err := logging.New(host.Env, host.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := host.Widget(logger)
	if err != nil {
		logger.Fatal("widget config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w := picker.New(cfg,
		picker.WithLogger(logger),
		picker.WithFetchMetrics(metrics.NewFetchMetrics(nil)),
	)
	defer w.Teardown()

	sh := newShell(w, os.Stdin, os.Stdout)
	unsubscribe := w.OnEvent(sh.printEvent)
	defer unsubscribe()

	w.Init(ctx)

	if err := sh.run(ctx); err != nil {
		logger.Error("shell stopped with error", zap.Error(err))
	}
}
