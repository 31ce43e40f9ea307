package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mahadigital/schooldesk/internal/auth"
	"github.com/mahadigital/schooldesk/internal/background"
	"github.com/mahadigital/schooldesk/internal/config"
	"github.com/mahadigital/schooldesk/internal/database"
	"github.com/mahadigital/schooldesk/internal/handlers"
	middlewareCustom "github.com/mahadigital/schooldesk/internal/middleware"
	"github.com/mahadigital/schooldesk/internal/repositories"
	"github.com/mahadigital/schooldesk/internal/routes"
	"github.com/mahadigital/schooldesk/internal/services"
	pkglogger "github.com/mahadigital/schooldesk/pkg/logger"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Run migrations before taking traffic
	if err := database.Migrate(&cfg.Database, "migrations", logger); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Initialize repositories
	schoolRepo := repositories.NewSchoolRepository(db)
	studentRepo := repositories.NewStudentRepository(db)
	certificateRepo := repositories.NewCertificateRepository(db)
	usedTokenRepo := repositories.NewUsedTokenRepository(db)
	emailQueueRepo := repositories.NewEmailQueueRepository(db)

	// Initialize token manager
	tokenManager := auth.NewTokenManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.SessionTokenExpiry,
		cfg.Auth.PasswordChangeTokenExpiry,
	)

	auditLogger := pkglogger.NewAuditLogger(logger)

	// AWS SES email service
	emailService, err := services.NewAWSSESEmailService(
		cfg.Email.AWSRegion,
		cfg.Email.FromAddress,
		logger,
	)
	if err != nil {
		logger.Error("failed to initialize email service", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize services
	authService := services.NewAuthService(
		schoolRepo,
		tokenManager,
		usedTokenRepo,
		emailService,
		emailQueueRepo,
		logger,
		auditLogger,
		cfg.Auth.TempPasswordExpiry,
	)
	schoolService := services.NewSchoolService(schoolRepo, studentRepo, logger)
	studentService := services.NewStudentService(studentRepo, logger)
	certificateService := services.NewCertificateService(certificateRepo, studentRepo, logger, auditLogger)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	schoolHandler := handlers.NewSchoolHandler(schoolService)
	studentHandler := handlers.NewStudentHandler(studentService)
	certificateHandler := handlers.NewCertificateHandler(certificateService)

	// Background workers
	cleanupManager := background.NewCleanupManager(usedTokenRepo, logger, cfg.Auth.CleanupInterval)
	outboxWorker := background.NewOutboxWorker(emailQueueRepo, emailService, logger, cfg.Email.RetryInterval, cfg.Email.MaxAttempts)

	// Setup CORS middleware
	corsConfig := middlewareCustom.DefaultCORSConfig(cfg.Server.AllowedOrigins)

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders())
	router.Use(middlewareCustom.CORS(corsConfig))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// Register routes
	router.Route("/api", func(r chi.Router) {
		routes.RegisterRoutes(r, authHandler, schoolHandler, studentHandler, certificateHandler, tokenManager)
	})

	// Health check with database
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","database":"up"}`))
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start background workers
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	go cleanupManager.Start(workerCtx)
	if cfg.Email.OutboxEnabled {
		go outboxWorker.Start(workerCtx)
	}

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	workerCancel()
	cleanupManager.Stop()
	if cfg.Email.OutboxEnabled {
		outboxWorker.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}
