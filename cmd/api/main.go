package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-isolation-booking/internal/api"
	"github.com/sanosuguru/go-isolation-booking/internal/api/handler"
	"github.com/sanosuguru/go-isolation-booking/internal/api/middleware"
	"github.com/sanosuguru/go-isolation-booking/internal/application"
	"github.com/sanosuguru/go-isolation-booking/internal/config"
	"github.com/sanosuguru/go-isolation-booking/internal/infrastructure/postgres"
	redisinfra "github.com/sanosuguru/go-isolation-booking/internal/infrastructure/redis"
	"github.com/sanosuguru/go-isolation-booking/internal/pkg/logger"
	"github.com/sanosuguru/go-isolation-booking/internal/pkg/metrics"
	"github.com/sanosuguru/go-isolation-booking/internal/worker"
)

func main() {
	config.LoadDotEnv()
	cfg := config.Load()

	logger.Set(logger.NewLogger(cfg.Env))
	defer logger.Sync()

	// DB接続
	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		logger.Fatal("DB接続エラー", zap.Error(err))
	}
	defer db.Close()

	version, err := postgres.RunMigrations(db.DB, cfg.Database.MigrationsPath)
	if err != nil {
		logger.Fatal("マイグレーション失敗", zap.Error(err))
	}
	logger.Info("マイグレーション完了", zap.Uint("version", version))

	m := metrics.New()

	seatRepo := postgres.NewSeatRepository(db)
	accountRepo := postgres.NewAccountRepository(db)
	coordinator := application.NewTxCoordinator(postgres.NewTxManager(db), m, cfg.Booking.TxTimeout)
	statusService := application.NewStatusService(seatRepo, accountRepo, postgres.NewProbe(db), cfg.Booking.SeatID)

	// Redis はスナップショットキャッシュ専用。予約処理の排他には使わない
	var (
		invalidator application.SnapshotInvalidator
		auditGuard  worker.Guard
	)
	if cfg.Redis.Enabled {
		rc := redisinfra.NewClient(&cfg.Redis)
		defer rc.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := redisinfra.Ping(pingCtx, rc)
		cancel()
		if err != nil {
			logger.Warn("Redisに接続できないためキャッシュなしで起動します", zap.Error(err))
		} else {
			seatCache := redisinfra.NewSeatCache(rc)
			invalidator = seatCache
			statusService = statusService.WithCache(seatCache, cfg.Redis.SnapshotTTL)
			auditGuard = redisinfra.NewLockManager(rc)
		}
	}

	bookingService := application.NewBookingService(
		coordinator, seatRepo, invalidator,
		application.SleepPauser{Delay: cfg.Booking.ProcessingDelay},
		m, cfg.Booking.SeatID,
	)
	transferService := application.NewTransferService(coordinator, accountRepo, m, application.TransferDefaults{
		From:   cfg.Transfer.From,
		To:     cfg.Transfer.To,
		Amount: cfg.Transfer.Amount,
	})
	auditService := application.NewAuditService(seatRepo, accountRepo, m, cfg.Booking.SeatID, cfg.Transfer.Accounts())

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	var auditor *worker.InvariantAuditor
	if cfg.Audit.Interval > 0 {
		auditor = worker.NewInvariantAuditor(auditService, cfg.Audit.Interval)
		if auditGuard != nil {
			auditor.WithGuard(auditGuard)
		}
		go auditor.Start(ctx)
	}

	e := api.NewServer(m)
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	api.RegisterRoutes(e, api.Handlers{
		Health:   handler.NewHealthHandler(statusService),
		Seat:     handler.NewSeatHandler(bookingService, statusService),
		Transfer: handler.NewTransferHandler(transferService, statusService, cfg.Transfer.Accounts()),
	}, middleware.LoadMetricsConfig())

	// Graceful shutdown
	go func() {
		logger.Info("サーバー起動",
			zap.String("port", cfg.Server.Port),
			zap.String("seat_id", cfg.Booking.SeatID),
			zap.Duration("processing_delay", cfg.Booking.ProcessingDelay),
		)
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("サーバー起動エラー", zap.Error(err))
		}
	}()

	// シグナル待機
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("サーバーをシャットダウンしています...")

	if auditor != nil {
		auditor.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("サーバーシャットダウンエラー", zap.Error(err))
	}

	logger.Info("サーバーが正常にシャットダウンしました")
}
