package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"danskegas-backend/config"
	_ "danskegas-backend/docs" // Important for Swagger
	v1 "danskegas-backend/internal/delivery/http/v1"
	"danskegas-backend/internal/usecase"
	"danskegas-backend/pkg/captcha"
	"danskegas-backend/pkg/email"
	"danskegas-backend/pkg/logger"
	"danskegas-backend/pkg/security"
	"danskegas-backend/pkg/security/antivirus"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// @title           DanskeGas Backend API
// @version         1.0
// @description     Contact and career form relay for the DanskeGas website.
// @host            localhost:8080
// @BasePath        /api
func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	gin.SetMode(cfg.GinMode)

	// 2. Setup Logger
	zl := logger.Init(cfg.LogLevel, cfg.IsProduction())
	defer logger.Sync()
	env := "development"
	if cfg.IsProduction() {
		env = "production"
	}
	security.InitSecurityLogger(zl, "danskegas-backend", env)
	logger.Log.Info("Starting danskegas backend",
		zap.String("port", cfg.Port),
		zap.String("email_provider", cfg.EmailProvider),
		zap.Bool("captcha_enabled", cfg.CaptchaEnabled),
	)

	// 3. Setup Email Sender
	sender, err := email.NewSender(context.Background(), cfg)
	if err != nil {
		logger.Log.Fatal("Failed to create email sender", zap.Error(err))
	}

	// 4. Setup CAPTCHA Verifier
	var verifier captcha.Verifier = captcha.DisabledVerifier{}
	if cfg.CaptchaEnabled {
		verifier = captcha.NewRecaptchaVerifier(cfg.RecaptchaSecretKey, cfg.RecaptchaVerifyURL, cfg.CaptchaTimeout)
	}

	// 5. Setup Antivirus
	scanner := antivirus.New(cfg.ClamAVAddress)
	logger.Log.Info("Attachment scanner configured", zap.String("scanner", scanner.Name()))

	// 6. Setup UseCases
	contactUC := usecase.NewContactUsecase(sender, verifier, scanner, usecase.ContactOptions{
		CaptchaEnabled:          cfg.CaptchaEnabled,
		CaptchaSecretConfigured: cfg.CaptchaSecretConfigured(),
		Addressing:              email.AddressingFrom(cfg),
		CaptchaTimeout:          cfg.CaptchaTimeout,
		EmailTimeout:            cfg.EmailTimeout,
	})
	healthUC := usecase.NewHealthUsecase(cfg.CaptchaEnabled, sender.Provider(), scanner)

	// 7. Setup Router
	router := v1.NewRouter(v1.RouterDeps{
		ContactUC: contactUC,
		HealthUC:  healthUC,
		Config:    cfg,
	})

	// 8. Start Server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("Listen failed", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	// In-flight submissions may still be waiting on the email provider
	ctx, cancel := context.WithTimeout(context.Background(), cfg.EmailTimeout+cfg.CaptchaTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Log.Info("Server exiting")
}
