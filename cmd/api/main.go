package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Samyak-Vishrani/Invoice-Management-System/internal/application/service"
	"github.com/Samyak-Vishrani/Invoice-Management-System/internal/config"
	"github.com/Samyak-Vishrani/Invoice-Management-System/internal/infrastructure/database"
	"github.com/Samyak-Vishrani/Invoice-Management-System/internal/infrastructure/pubsub"
	"github.com/Samyak-Vishrani/Invoice-Management-System/internal/infrastructure/repository"
	"github.com/Samyak-Vishrani/Invoice-Management-System/internal/presentation/http/handler"
	"github.com/Samyak-Vishrani/Invoice-Management-System/internal/presentation/http/routes"
	"github.com/Samyak-Vishrani/Invoice-Management-System/pkg/email"
	"github.com/Samyak-Vishrani/Invoice-Management-System/pkg/oauth"
	"github.com/Samyak-Vishrani/Invoice-Management-System/pkg/utils"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Configure logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.App.Debug {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	// Run auto-migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Initialize JWT manager
	jwtManager := utils.NewJWTManager(
		cfg.JWT.Secret,
		cfg.JWT.ExpiryHours,
		cfg.JWT.RefreshExpiryHours,
	)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	clientRepo := repository.NewClientRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	passwordResetRepo := repository.NewPasswordResetTokenRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)
	emailLogRepo := repository.NewEmailLogRepository(db)

	// Initialize email service
	emailService := email.NewEmailService(email.EmailConfig{
		SMTPHost:     cfg.Email.SMTPHost,
		SMTPPort:     cfg.Email.SMTPPort,
		SMTPUsername: cfg.Email.SMTPUsername,
		SMTPPassword: cfg.Email.SMTPPassword,
		FromName:     cfg.Email.FromName,
		FromEmail:    cfg.Email.FromEmail,
		FrontendURL:  cfg.Email.FrontendURL,
	})

	// Initialize Google OAuth service
	googleOAuthService := oauth.NewGoogleOAuthService(oauth.GoogleOAuthConfig{
		ClientID:           cfg.OAuth.GoogleClientID,
		ClientSecret:       cfg.OAuth.GoogleClientSecret,
		RedirectURL:        cfg.OAuth.GoogleRedirectURL,
		FrontendSuccessURL: cfg.OAuth.FrontendSuccessURL,
		FrontendErrorURL:   cfg.OAuth.FrontendErrorURL,
	})

	// Initialize the in-process event bus
	bus := pubsub.NewBus()
	defer bus.Close()

	// Initialize services
	authService := service.NewAuthService(userRepo, clientRepo, passwordResetRepo, jwtManager, emailService, googleOAuthService)
	invoiceService := service.NewInvoiceService(invoiceRepo, clientRepo, bus)
	clientService := service.NewClientService(clientRepo, invoiceRepo)
	settingsService := service.NewSettingsService(settingsRepo)
	dashboardService := service.NewDashboardService(invoiceRepo, emailLogRepo)
	notificationService := service.NewNotificationService(bus, emailService, userRepo, clientRepo, settingsRepo, emailLogRepo)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start the notification consumer
	if err := notificationService.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start notification consumer")
	}

	// Start the overdue sweep
	go runOverdueSweep(ctx, invoiceService, cfg.Sweep)

	// Initialize handlers
	handlers := &routes.Handlers{
		Auth:      handler.NewAuthHandler(authService),
		Invoice:   handler.NewInvoiceHandler(invoiceService),
		Client:    handler.NewClientHandler(clientService),
		Portal:    handler.NewPortalHandler(authService, invoiceService),
		Dashboard: handler.NewDashboardHandler(dashboardService),
		Settings:  handler.NewSettingsHandler(settingsService),
	}

	// Setup routes
	router := routes.Setup(handlers, &routes.Deps{
		JWTManager:      jwtManager,
		Cfg:             cfg,
		IdempotencyRepo: idempotencyRepo,
	})

	port := cfg.App.Port
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		log.Info().Str("service", cfg.App.Name).Str("port", port).Str("env", cfg.App.Env).Msg("Starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}
}

// runOverdueSweep periodically marks past-due invoices overdue.
func runOverdueSweep(ctx context.Context, invoiceService *service.InvoiceService, cfg config.SweepConfig) {
	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			swept, err := invoiceService.SweepOverdue(ctx, cfg.BatchSize)
			if err != nil {
				log.Error().Err(err).Msg("Overdue sweep failed")
				continue
			}
			if swept > 0 {
				log.Info().Int("invoices", swept).Msg("Marked invoices overdue")
			}
		}
	}
}
