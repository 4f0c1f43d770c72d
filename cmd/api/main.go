package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"danicandles/internal/config"
	"danicandles/internal/infra/db"
	"danicandles/internal/infra/events"
	"danicandles/internal/infra/mail"
	"danicandles/internal/infra/payment"
	infraRepo "danicandles/internal/infra/repository"
	"danicandles/internal/logging"
	"danicandles/internal/metrics"
	"danicandles/internal/server"
	"danicandles/internal/usecase"
	"danicandles/internal/validator"
	"danicandles/internal/worker"

	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		slog.Error("api exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	//.envは無くてもよい（本番は環境変数）
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.New(cfg.IsProduction(), cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//DB接続
	gormDB, err := db.Connect(cfg.DSN())
	if err != nil {
		return err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if cfg.MigrateOnStart {
		if err := db.MigrateUp(ctx, sqlDB); err != nil {
			return err
		}
	}

	//Repository（GORM実装）生成
	txm := infraRepo.NewTxManagerGorm(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	orderItemRepo := infraRepo.NewOrderItemGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	profileRepo := infraRepo.NewProfileGormRepository(gormDB)
	outboxRepo := infraRepo.NewOutboxGormRepository(gormDB)

	//外部サービス
	gateway := payment.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	sender := mail.New(cfg.ResendAPIKey)

	var publisher usecase.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaClientID)
		defer kp.Close()
		publisher = kp
	}

	//usecaseに渡す部品
	reqValidator := validator.NewRequestValidator()
	ids := usecase.UUIDGenerator{}
	clock := usecase.SystemClock{}
	m := metrics.New()

	//Usecase生成
	profileUC := usecase.NewProfileUsecase(profileRepo, cfg.AdminEmails)
	if _, err := profileUC.Bootstrap(ctx); err != nil {
		return err
	}
	notificationUC := usecase.NewNotificationUsecase(orderRepo, orderItemRepo, sender, cfg.EmailFrom, cfg.SiteURL)

	deps := server.Deps{
		DB:          sqlDB,
		Metrics:     m,
		Products:    usecase.NewProductUsecase(productRepo),
		Orders:      usecase.NewOrderUsecase(txm, reqValidator, ids, clock),
		Checkout:    usecase.NewCheckoutUsecase(orderRepo, gateway, reqValidator, cfg.SiteURL),
		Webhook:     usecase.NewPaymentWebhookUsecase(txm, gateway, clock, cfg.OwnerNotificationEmail),
		AdminOrders: usecase.NewAdminOrderUsecase(txm, reqValidator, ids, clock),
		Profiles:    profileUC,
	}

	//outboxワーカーは同じプロセスで動かす
	w := worker.NewOutboxWorker(outboxRepo, notificationUC, publisher, clock, m, worker.Options{
		PollInterval: cfg.OutboxPollInterval,
		BatchSize:    cfg.OutboxBatchSize,
		MaxAttempts:  cfg.OutboxMaxAttempts,
	})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.Run(ctx)
	}()

	//Server起動
	e := server.New(cfg, deps)
	err = server.Start(ctx, e, ":"+cfg.Port)

	stop()
	wg.Wait()
	return err
}
