package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	httpapi "github.com/trueque-app/trueque-api/internal/api/http"
	"github.com/trueque-app/trueque-api/internal/application/auth"
	"github.com/trueque-app/trueque-api/internal/application/item"
	"github.com/trueque-app/trueque-api/internal/application/message"
	"github.com/trueque-app/trueque-api/internal/application/notification"
	"github.com/trueque-app/trueque-api/internal/application/trade"
	"github.com/trueque-app/trueque-api/internal/application/user"
	"github.com/trueque-app/trueque-api/internal/config"
	domainNotification "github.com/trueque-app/trueque-api/internal/domain/notification"
	"github.com/trueque-app/trueque-api/internal/infrastructure/cloudinary"
	"github.com/trueque-app/trueque-api/internal/infrastructure/email"
	"github.com/trueque-app/trueque-api/internal/infrastructure/googleauth"
	"github.com/trueque-app/trueque-api/internal/infrastructure/postgres"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db error: %v", err)
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool, cfg.MigrationsDir); err != nil {
		log.Fatalf("migration error: %v", err)
	}

	// repositories
	db := postgres.NewDB(pool)
	txManager := postgres.NewTxManager(pool)
	userRepo := postgres.NewUserRepository(db)
	itemRepo := postgres.NewItemRepository(db)
	tradeRepo := postgres.NewTradeRepository(db)
	messageRepo := postgres.NewMessageRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)

	// infrastructure
	var mailer domainNotification.Mailer = email.NopMailer{}
	if cfg.SMTPHost != "" {
		mailer = email.NewSMTPMailer(email.Config{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
			From:     cfg.EmailFrom,
		})
	}
	var verifier auth.GoogleVerifier
	if cfg.GoogleClientID != "" {
		verifier = googleauth.NewVerifier(cfg.GoogleClientID)
	}
	uploadSigner := cloudinary.NewUploadSigner(cloudinary.Config{
		CloudName:    cfg.CloudinaryCloudName,
		APIKey:       cfg.CloudinaryAPIKey,
		APISecret:    cfg.CloudinaryAPISecret,
		UploadFolder: cfg.CloudinaryUploadFolder,
	})

	// services
	notificationSvc := notification.NewService(notificationRepo, userRepo, itemRepo, mailer, logger)
	authSvc := auth.NewService(userRepo, verifier, notificationSvc, cfg.JWTSecret, logger)
	userSvc := user.NewService(userRepo, logger)
	itemSvc := item.NewService(itemRepo, userRepo, logger)
	tradeSvc := trade.NewService(tradeRepo, itemRepo, userRepo, messageRepo, txManager, notificationSvc, trade.Config{
		AutoMessageOnAccept: cfg.TradeAutoMessageOnAccept,
		AutoMessageText:     cfg.TradeAutoMessageText,
	}, logger)
	messageSvc := message.NewService(messageRepo, tradeRepo, notificationSvc, logger)

	// API server
	apiServer := httpapi.NewServer(authSvc, userSvc, itemSvc, tradeSvc, messageSvc, notificationSvc, uploadSigner)

	httpServer := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      apiServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// email delivery worker
	workerCtx, stopWorker := context.WithCancel(context.Background())
	workerDone := make(chan struct{})
	go func() {
		notificationSvc.Run(workerCtx)
		close(workerDone)
	}()

	// start server
	go func() {
		logger.Info().Str("addr", cfg.ServerAddr).Msg("http server started")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctxShutdown); err != nil {
		logger.Error().Err(err).Msg("http server shutdown failed")
	}
	// let the worker drain queued emails before exiting
	stopWorker()
	<-workerDone
	logger.Info().Msg("server stopped")
}
