package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/zaviruha/bookingcalendar/internal/cache"
	"github.com/zaviruha/bookingcalendar/internal/config"
	"github.com/zaviruha/bookingcalendar/internal/db"
	"github.com/zaviruha/bookingcalendar/internal/grpcserver"
	"github.com/zaviruha/bookingcalendar/internal/httpapi"
	"github.com/zaviruha/bookingcalendar/internal/logging"
	"github.com/zaviruha/bookingcalendar/internal/metrics"
	"github.com/zaviruha/bookingcalendar/internal/model"
	"github.com/zaviruha/bookingcalendar/internal/repository"
	"github.com/zaviruha/bookingcalendar/internal/service"
)

func main() {
	// .env необязателен: в контейнере всё приходит из окружения.
	_ = config.LoadEnvFile()

	srvCfg, err := config.LoadServerConfig()
	if err != nil {
		log.Fatalf("load server config: %v", err)
	}

	logger, err := logging.New(srvCfg.Env, srvCfg.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(logger, srvCfg); err != nil {
		logger.Fatal("server stopped with error", zap.Error(err))
	}
}

func run(logger *zap.Logger, srvCfg *config.ServerConfig) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Конфиг БД и подключение через GORM.
	dbCfg, err := config.LoadDBConfig()
	if err != nil {
		return fmt.Errorf("load db config: %w", err)
	}
	gormDB, err := db.NewGormDB(dbCfg)
	if err != nil {
		return fmt.Errorf("init db: %w", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return fmt.Errorf("sql DB: %w", err)
	}
	defer sqlDB.Close()

	// 2. gRPC health поднимаем сразу, SERVING — только после миграций.
	grpcSrv := grpcserver.New(logger)

	if err := model.AutoMigrate(gormDB); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	// 3. Сервис занятых слотов, кэш — если задан REDIS_ADDR.
	opts := []service.Option{
		service.WithLogger(logger),
		service.WithLocation(srvCfg.Location()),
		service.WithHorizon(srvCfg.HorizonDays),
		service.WithMetrics(metrics.NewAPIMetrics(nil)),
	}
	if srvCfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     srvCfg.RedisAddr,
			Password: srvCfg.RedisPassword,
			DB:       srvCfg.RedisDB,
		})
		defer client.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Warn("redis unavailable, snapshot cache disabled", zap.String("addr", srvCfg.RedisAddr), zap.Error(err))
		} else {
			opts = append(opts, service.WithCache(cache.NewSnapshotStore(client, srvCfg.CacheTTL)))
		}
	}
	svc := service.NewBookedSlotsService(gormDB, repository.NewGormBookedSlotRepository(gormDB), opts...)

	// 4. HTTP и gRPC.
	httpSrv := &http.Server{
		Addr: srvCfg.HTTPAddr,
		Handler: httpapi.New(&httpapi.Config{
			Bookings:           svc,
			Logger:             logger,
			MetricsHandler:     promhttp.Handler(),
			Ready:              sqlDB.PingContext,
			CORSAllowedOrigins: srvCfg.CORSAllowedOrigins,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	lis, err := net.Listen("tcp", srvCfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", srvCfg.GRPCAddr, err)
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", srvCfg.HTTPAddr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http serve: %w", err)
		}
	}()
	go func() {
		if err := grpcSrv.Serve(lis); err != nil {
			errCh <- err
		}
	}()
	grpcSrv.SetServing(true)

	// 5. Грейсфул-шатдаун по сигналу или падению одного из серверов.
	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case serveErr = <-errCh:
		logger.Error("server failed, shutting down", zap.Error(serveErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), srvCfg.ShutdownTimeout)
	defer cancel()

	grpcSrv.Shutdown(shutdownCtx)
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	return serveErr
}
