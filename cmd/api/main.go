package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shopcart/internal/config"
	"shopcart/internal/handler"
	"shopcart/internal/infra/db"
	"shopcart/internal/infra/lock"
	"shopcart/internal/infra/notify"
	infraRepo "shopcart/internal/infra/repository"
	"shopcart/internal/logging"
	"shopcart/internal/metrics"
	"shopcart/internal/server"
	"shopcart/internal/usecase"
	"shopcart/internal/validator"

	"go.uber.org/zap"
)

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.IsProd())
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		return err
	}
	if err := db.Migrate(gormDB); err != nil {
		return err
	}

	//Repository（GORM実装）生成
	cartRepo := infraRepo.NewCartGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	//決済ロック（Redisが無ければDBのunique制約のみ）
	var paymentLock usecase.PaymentLock = lock.NoopLock{}
	if cfg.RedisAddr != "" {
		rl := lock.NewRedisLock(cfg.RedisAddr, "shopcart")
		defer rl.Close()
		if err := rl.Ping(ctx); err != nil {
			logger.Warn("redis unreachable, payment lock degraded", zap.Error(err))
		}
		paymentLock = rl
	}

	//注文確定通知（Kafkaが無ければログのみ）
	var notifier usecase.OrderNotifier = notify.NewLogNotifier(logger)
	if len(notify.SplitBrokers(cfg.KafkaBrokers)) > 0 {
		kn := notify.NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kn.Close()
		notifier = kn
	}

	clock := &realClock{}
	m := metrics.NewServerMetrics("api", nil)

	//Usecase生成
	cartUC := usecase.NewCartUsecase(txm, cartRepo, cartRepo, productRepo, cfg.TaxPercent, logger)
	orderUC := usecase.NewOrderUsecase(
		txm,
		validator.NewBillingValidator(),
		notifier,
		paymentLock,
		clock,
		usecase.OrderConfig{
			TaxPercent:     cfg.TaxPercent,
			PaymentLockTTL: cfg.PaymentLockTTL,
		},
		logger,
	)
	adminOrderUC := usecase.NewAdminOrderUsecase(txm, clock, logger)

	//Handler生成
	e := server.New(server.Deps{
		Config:     cfg,
		Logger:     logger,
		Metrics:    m,
		Cart:       handler.NewCartHandler(cartUC),
		Order:      handler.NewOrderHandler(orderUC, m),
		AdminOrder: handler.NewAdminOrderHandler(adminOrderUC),
		Health: func(ctx context.Context) error {
			return db.Ping(ctx, gormDB)
		},
	})

	//Server起動
	err = server.Start(ctx, e, ":"+cfg.Port, logger)

	//通知を送り切ってからKafkaを閉じる
	orderUC.Wait()
	return err
}
