package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"github.com/littlefidan/littlefidan-sub001/internal/client"
	"github.com/littlefidan/littlefidan-sub001/internal/config"
	"github.com/littlefidan/littlefidan-sub001/internal/logger"
	"github.com/littlefidan/littlefidan-sub001/internal/repository"
	"github.com/littlefidan/littlefidan-sub001/internal/server"
	"github.com/littlefidan/littlefidan-sub001/internal/service"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		slog.Error("parse config", "error", err)
		os.Exit(1)
	}

	log := logger.Init(cfg.Log)

	db, err := client.InitMysqlClient(cfg.DatabaseURL)
	if err != nil {
		log.Error("init database", "error", err)
		os.Exit(1)
	}

	var mollieClient client.MollieClient
	if cfg.Mollie.Configured() {
		mollieClient = client.NewMollieClient(&cfg.Mollie)
	} else {
		log.Warn("no payment provider configured",
			"dev_fallback", cfg.Checkout.AllowDevFallback)
	}
	storageClient := client.NewStorageClient(&cfg.Storage)

	orderRepo := repository.NewOrderRepository(db)
	productRepo := repository.NewProductRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	downloadLogRepo := repository.NewDownloadLogRepository(db)

	if cfg.Environment.Name == "development" {
		if err := productRepo.Seed(context.Background()); err != nil {
			log.Error("seed catalog", "error", err)
			os.Exit(1)
		}
	}

	emailService := service.NewSMTPEmailService(cfg.SMTP)
	checkoutService := service.NewCheckoutService(
		db, mollieClient, orderRepo, emailService,
		cfg.BaseURL, cfg.Checkout.AllowDevFallback,
	)
	webhookService := service.NewWebhookService(mollieClient, orderRepo, emailService)
	entitlementService := service.NewEntitlementService(
		storageClient, productRepo, orderRepo, subscriptionRepo, downloadLogRepo,
	)

	srv := server.NewServer(checkoutService, entitlementService, webhookService, cfg.Auth.JWTSecret)

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	log.Info("starting HTTP server", "addr", serverAddr, "env", cfg.Environment.Name)
	go func() {
		if err := srv.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	log.Info("signal received, starting graceful shutdown")

	if err := srv.Shutdown(); err != nil {
		log.Error("HTTP server shutdown error", "error", err)
		os.Exit(1)
	}
}
