package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"freshleap/internal/cartstore"
	"freshleap/internal/config"
	"freshleap/internal/domain/model"
	"freshleap/internal/event"
	"freshleap/internal/handler"
	"freshleap/internal/infra/db"
	infrarepo "freshleap/internal/infra/repository"
	"freshleap/internal/logger"
	"freshleap/internal/mail"
	"freshleap/internal/payment"
	"freshleap/internal/server"
	"freshleap/internal/usecase"
	"freshleap/internal/validator"

	"github.com/joho/godotenv"
)

func main() {
	//.envは無ければ無いでよい（本番は環境変数直）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log := logger.Setup(cfg.GoEnv)
	slog.SetDefault(log)

	gormDB, err := db.Connect(cfg)
	if err != nil {
		log.Error("db connect failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	//スキーマはmigrationsが正。AutoMigrateはlocal開発の補助。
	if cfg.GoEnv == "local" {
		if err := gormDB.AutoMigrate(
			&model.User{},
			&model.RefreshToken{},
			&model.EmailVerificationToken{},
			&model.Product{},
			&model.Cart{},
			&model.CartItem{},
			&model.Order{},
			&model.OrderItem{},
			&model.InventoryAdjustment{},
			&model.AuditLog{},
		); err != nil {
			log.Error("auto migrate failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// repositories
	userRepo := infrarepo.NewUserRepository(gormDB)
	rtRepo := infrarepo.NewRefreshTokenRepository(gormDB)
	evRepo := infrarepo.NewEmailVerificationRepository(gormDB)
	productRepo := infrarepo.NewProductGormRepository(gormDB)
	inventoryRepo := infrarepo.NewInventoryGormRepository(gormDB)
	cartRepo := infrarepo.NewCartGormRepository(gormDB)
	orderRepo := infrarepo.NewOrderGormRepository(gormDB)
	orderItemRepo := infrarepo.NewOrderItemGormRepository(gormDB)
	auditRepo := infrarepo.NewAuditLogGormRepository(gormDB)
	txManager := infrarepo.NewTxManagerGorm(gormDB)

	// mailer（SMTP未設定ならログ出力のみ）
	var mailer mail.Mailer
	if cfg.SMTPAddr != "" {
		mailer = mail.NewSMTPMailer(cfg.SMTPAddr, cfg.SMTPFrom)
	} else {
		mailer = mail.NewLogMailer(log)
	}

	// events（brokers未設定ならNoop）
	// Closeはserverのdrain後（deferの巻き戻し）に走る
	var publisher event.Publisher = event.NoopPublisher{}
	if cfg.KafkaBrokers != "" {
		kp := event.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		kp.Start()
		defer kp.Close()
		publisher = kp
	}

	// guest cart（Redis未設定なら無効）
	var guestStore cartstore.Store
	if cfg.RedisAddr != "" {
		guestStore = cartstore.NewRedisStore(cfg.RedisAddr)
	}

	gateway := payment.NewStripeGateway(cfg.StripeSecretKey, cfg.Currency)

	// usecases
	authUC := usecase.NewAuthUsecase(cfg, userRepo, rtRepo, evRepo, mailer, validator.NewAuthValidator(userRepo), log)
	productUC := usecase.NewProductUsecase(productRepo)
	cartUC := usecase.NewCartUsecase(cartRepo, cartRepo, productRepo)
	orderUC := usecase.NewOrderUsecase(orderRepo, orderItemRepo)
	checkoutUC := usecase.NewCheckoutUsecase(
		txManager, cartRepo, cartRepo, productRepo, guestStore,
		gateway, publisher, mailer, log,
		cfg.CheckoutSuccessURL, cfg.CheckoutCancelURL,
	)
	farmerProductUC := usecase.NewFarmerProductUsecase(productRepo, inventoryRepo, auditRepo)
	farmerOrderUC := usecase.NewFarmerOrderUsecase(txManager, orderRepo, orderItemRepo, productRepo, auditRepo, publisher, log)

	handlers := server.Handlers{
		Auth:          handler.NewAuthHandler(authUC, cfg),
		Product:       handler.NewProductHandler(productUC),
		Cart:          handler.NewCartHandler(cartUC),
		Checkout:      handler.NewCheckoutHandler(checkoutUC),
		Order:         handler.NewOrderHandler(orderUC),
		FarmerProduct: handler.NewFarmerProductHandler(farmerProductUC),
		FarmerOrder:   handler.NewFarmerOrderHandler(farmerOrderUC),
	}
	if guestStore != nil {
		guestCartUC := usecase.NewGuestCartUsecase(guestStore, productRepo)
		handlers.GuestCart = handler.NewGuestCartHandler(guestCartUC)
	}

	srv := server.New(cfg, log, handlers, userRepo)
	if err := srv.Start(ctx); err != nil {
		log.Error("server stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
