package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ikkim/storefront-backend/config"
	"github.com/ikkim/storefront-backend/internal/app/controller"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/internal/app/service"
	"github.com/ikkim/storefront-backend/internal/db"
	"github.com/ikkim/storefront-backend/internal/middleware"
	"github.com/ikkim/storefront-backend/internal/router"
	"github.com/ikkim/storefront-backend/internal/scheduler"
	"github.com/ikkim/storefront-backend/internal/storage"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/ikkim/storefront-backend/pkg/mailer"
	appredis "github.com/ikkim/storefront-backend/pkg/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	logLevel := "info"
	logFormat := "json"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
		logFormat = "console"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      logFormat,
		EnableColor: true,
	})

	logger.Info("Starting Storefront Backend Server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	conn, err := db.Open(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(conn); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	if err := db.Migrate(conn); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	redisClient, err := appredis.NewClient(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", err)
	}
	tokenStore := appredis.NewTokenStore(redisClient)
	defer tokenStore.Close()

	mail, err := mailer.New(cfg.Mail)
	if err != nil {
		logger.Fatal("Failed to initialize mailer", err)
	}
	if mail.DevMode() {
		logger.Warn("Mail credentials not set, emails will be logged instead of sent")
	}

	s3Storage, err := storage.NewS3Storage(context.Background(), cfg.S3)
	if err != nil {
		logger.Fatal("Failed to initialize S3 storage", err)
	}

	// Repositories
	userRepo := repository.NewUserRepository(conn)
	resetRepo := repository.NewPasswordResetRepository(conn)
	storeRepo := repository.NewStoreRepository(conn)
	reviewRepo := repository.NewReviewRepository(conn)

	// Services
	authService := service.NewAuthService(
		userRepo,
		tokenStore,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	passwordResetService := service.NewPasswordResetService(userRepo, resetRepo, mail)
	storeService := service.NewStoreService(storeRepo)
	reviewService := service.NewReviewService(reviewRepo, storeRepo)
	uploadService := service.NewUploadService(s3Storage)

	// Controllers
	authController := controller.NewAuthController(authService, passwordResetService, cfg.App.BaseURL)
	storeController := controller.NewStoreController(storeService)
	reviewController := controller.NewReviewController(reviewService)
	uploadController := controller.NewUploadController(uploadService)

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret, authService)

	r := router.NewRouter(
		authController,
		storeController,
		reviewController,
		uploadController,
		authMiddleware,
		cfg,
	)
	engine := r.Setup()

	sweeper := scheduler.NewResetTokenSweeper(passwordResetService, cfg.Scheduler.ResetSweepSpec)
	if err := sweeper.Start(); err != nil {
		logger.Fatal("Failed to start reset token sweeper", err)
	}
	defer sweeper.Stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}
	logger.Info("Server stopped successfully")
}
