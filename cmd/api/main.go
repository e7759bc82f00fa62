package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/rishiqwerty/event-management-backend/internal/api"
	"github.com/rishiqwerty/event-management-backend/internal/api/handler"
	apimiddleware "github.com/rishiqwerty/event-management-backend/internal/api/middleware"
	"github.com/rishiqwerty/event-management-backend/internal/application"
	"github.com/rishiqwerty/event-management-backend/internal/config"
	"github.com/rishiqwerty/event-management-backend/internal/infrastructure/postgres"
	redisinfra "github.com/rishiqwerty/event-management-backend/internal/infrastructure/redis"
	"github.com/rishiqwerty/event-management-backend/internal/pkg/logger"
	"github.com/rishiqwerty/event-management-backend/internal/pkg/metrics"
	"github.com/rishiqwerty/event-management-backend/internal/worker"
)

func main() {
	// .env があれば読み込む（ローカル開発用）
	_ = godotenv.Load()

	cfg := config.Load()

	log := logger.NewLogger(os.Getenv("APP_ENV"))
	logger.Set(log)
	defer logger.Sync()

	// メトリクス初期化
	m := metrics.Init()

	// DB接続
	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		logger.Fatal("データベース接続に失敗", zap.Error(err))
	}
	defer db.Close()

	// マイグレーション
	if path := os.Getenv("MIGRATIONS_PATH"); path != "" {
		if err := postgres.RunMigrations(db.DB, path); err != nil {
			logger.Fatal("マイグレーションに失敗", zap.Error(err))
		}
	}

	// Redis接続
	redisClient := redisinfra.NewClient(&cfg.Redis)
	defer redisClient.Close()

	ctx := context.Background()
	if err := redisinfra.Ping(ctx, redisClient); err != nil {
		logger.Fatal("Redis接続に失敗", zap.Error(err))
	}

	// インフラ層
	seatLedger := postgres.NewSeatLedger(db)
	eventRepo := postgres.NewEventRepository(db)
	reservationRepo := postgres.NewReservationRepository(db)
	reconStore := postgres.NewReconciliationStore(db)
	availCache := redisinfra.NewAvailabilityCache(redisClient)
	compQueue := redisinfra.NewCompensationQueue(redisClient)

	// アプリケーション層
	eventService := application.NewEventService(eventRepo, seatLedger, availCache)
	reservationService := application.NewReservationService(seatLedger, reservationRepo, compQueue, availCache)

	// バックグラウンドワーカー
	workerCtx, cancelWorkers := context.WithCancel(ctx)
	retrier := worker.NewCompensationRetrier(compQueue, seatLedger, cfg.Worker.CompensationInterval, cfg.Worker.CompensationMaxAttempts)
	reconciler := worker.NewSeatReconciler(reconStore, cfg.Worker.ReconcileInterval)
	go retrier.Start(workerCtx)
	go reconciler.Start(workerCtx)

	// Echoセットアップ
	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler
	apimiddleware.SetupMiddleware(e)
	e.Use(apimiddleware.PrometheusMiddleware(m))

	// ルーティング
	healthHandler := handler.NewHealthHandler(map[string]handler.DependencyChecker{
		"database": func(ctx context.Context) error { return postgres.Ping(ctx, db) },
		"redis":    func(ctx context.Context) error { return redisinfra.Ping(ctx, redisClient) },
	})
	eventHandler := handler.NewEventHandler(eventService)
	reservationHandler := handler.NewReservationHandler(reservationService)

	v1 := e.Group("/api/v1")
	v1.GET("/health", healthHandler.Check)
	v1.POST("/events", eventHandler.Create)
	v1.GET("/events", eventHandler.List)
	v1.GET("/events/:id", eventHandler.GetByID)
	v1.GET("/events/:id/availability", eventHandler.Availability)
	v1.POST("/reservations", reservationHandler.Create)
	v1.GET("/reservations", reservationHandler.GetUserReservations)
	v1.GET("/reservations/:id", reservationHandler.GetByID)
	v1.DELETE("/reservations/:id", reservationHandler.Cancel)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()), apimiddleware.MetricsBasicAuth())

	// サーバー起動
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("サーバー起動エラー", zap.Error(err))
		}
	}()

	// シグナル待機
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("サーバーをシャットダウンしています...")

	// ワーカー停止 → HTTPサーバー停止の順
	cancelWorkers()
	retrier.Stop()
	reconciler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("サーバーシャットダウンエラー", zap.Error(err))
	}

	logger.Info("サーバーが正常にシャットダウンしました")
}
