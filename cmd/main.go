package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/tns-project/tns-server/config"
	"github.com/tns-project/tns-server/db"
	"github.com/tns-project/tns-server/handlers"
	"github.com/tns-project/tns-server/mailchimp"
	"github.com/tns-project/tns-server/repositories"
	"github.com/tns-project/tns-server/routes"
	"github.com/tns-project/tns-server/services"
	"github.com/tns-project/tns-server/sheets"
	"github.com/tns-project/tns-server/storage"
	"github.com/tns-project/tns-server/ws"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	var uploader storage.FileUploader
	if cfg.HasR2() {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Warn("R2 not configured, roster fetch logs will not be archived")
	}

	wsHub := ws.NewHub(logger)
	go wsHub.Run()
	logger.Info("WebSocket hub started")

	sheetsClient := sheets.NewClient(cfg.SheetsAPIKey)
	mailchimpProvider := &mailchimp.Provider{}

	adminRepo := repositories.NewPostgresAdminRepository(dbConn)
	rosterRepo := repositories.NewPostgresRosterRepository(dbConn)
	subscriptionRepo := repositories.NewPostgresSubscriptionRepository(dbConn)
	sentEmailRepo := repositories.NewPostgresSentEmailRepository(dbConn)
	settingsRepo := repositories.NewPostgresSettingsRepository(dbConn)
	matchStatusRepo := repositories.NewPostgresMatchStatusRepository(dbConn)
	logger.Info("repositories initialized")

	authService := services.NewAuthService(adminRepo, cfg.JWTSecretKey)
	rosterService := services.NewRosterService(rosterRepo, settingsRepo, sheetsClient, uploader, wsHub, logger)
	notificationService := services.NewNotificationService(
		settingsRepo, rosterRepo, subscriptionRepo, sentEmailRepo,
		sheetsClient, mailchimpProvider, logger,
	)
	subscriptionService := services.NewSubscriptionService(subscriptionRepo, rosterRepo)
	settingsService := services.NewSettingsService(settingsRepo, sheetsClient, mailchimpProvider)
	reportService := services.NewReportService(sentEmailRepo)
	matchStatusService := services.NewMatchStatusService(settingsRepo, matchStatusRepo, sheetsClient, wsHub, logger)
	logger.Info("services initialized")

	schedulerCtx, stopScheduler := context.WithCancel(context.Background())
	defer stopScheduler()
	go matchStatusService.Run(schedulerCtx, cfg.MatchPollInterval)
	logger.Info("match status scheduler started", slog.Duration("interval", cfg.MatchPollInterval))

	router := routes.InitRoutes(routes.Handlers{
		Auth:          handlers.NewAuthHandler(authService),
		Roster:        handlers.NewRosterHandler(rosterService),
		Notifications: handlers.NewNotificationHandler(notificationService),
		Subscriptions: handlers.NewSubscriptionHandler(subscriptionService),
		Settings:      handlers.NewSettingsHandler(settingsService),
		Reports:       handlers.NewReportHandler(reportService),
		MatchStatus:   handlers.NewMatchStatusHandler(matchStatusService),
		WebSocket:     handlers.NewWebSocketHandler(wsHub),
	}, []byte(cfg.JWTSecretKey))
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		stopScheduler()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if err := server.Close(); err != nil {
				logger.Error("forced server close failed", slog.Any("error", err))
			}
		}
	}

	logger.Info("server stopped")
}
