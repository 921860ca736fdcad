package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"sorokinportal/internal/catalog"
	"sorokinportal/internal/config"
	"sorokinportal/internal/database"
	"sorokinportal/internal/handlers"
	"sorokinportal/internal/llm"
	"sorokinportal/internal/logging"
	"sorokinportal/internal/repository"
	"sorokinportal/internal/security"
	"sorokinportal/internal/service"
)

func main() {
	// A missing .env is fine, real deployments set the environment directly
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("invalid configuration: " + err.Error())
	}

	logger, err := logging.New(cfg.LogMode, cfg.LogLevel)
	if err != nil {
		panic("failed to build logger: " + err.Error())
	}
	defer logger.Sync()

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database", "error", err)
	}
	defer db.Close()

	logger.Info("Database connection established", "type", cfg.DatabaseType)

	// Run migrations
	applied, err := db.RunMigrations()
	if err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}
	logger.Info("Migrations completed successfully", "applied", applied)

	cat, err := catalog.Load()
	if err != nil {
		logger.Fatal("Failed to load course catalog", "error", err)
	}
	logger.Info("Catalog loaded", "courses", len(cat.Courses()), "lessons", cat.TotalLessons())

	// Seed bad words filter
	seedCtx, cancelSeed := context.WithTimeout(context.Background(), 15*time.Second)
	if n, err := db.SeedBadWords(seedCtx, database.BadWordsURL); err != nil {
		logger.Warn("Failed to seed bad words filter", "error", err)
	} else {
		logger.Info("Bad words filter seeded", "words", n)
	}
	cancelSeed()

	router, err := llm.NewRouterFromConfig(context.Background(), cfg)
	if err != nil {
		logger.Fatal("Failed to configure tutor models", "provider", cfg.LLMProvider, "error", err)
	}
	logger.Info("Tutor models ready", "provider", cfg.LLMProvider, "fast", cfg.LLMFastModel, "premium", cfg.LLMPremiumModel)

	// Rate limiting is shared through redis when more than one instance runs
	var limiter security.Limiter
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		limiter = security.NewRedisRateLimiter(rdb, cfg.RateLimitRequests, cfg.RateLimitWindow)
		logger.Info("Using redis rate limiter", "addr", cfg.RedisAddr)
	} else {
		memLimiter := security.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
		defer memLimiter.Close()
		limiter = memLimiter
	}

	var mailer service.Mailer
	if cfg.SESFromEmail != "" || cfg.EmailDebug {
		emailService, err := service.NewEmailService(context.Background(), cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL, cfg.EmailDebug, logger)
		if err != nil {
			logger.Warn("Email disabled", "error", err)
		} else {
			mailer = emailService
		}
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	badgeRepo := repository.NewBadgeRepository(db)
	petRepo := repository.NewPetRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	sessionRepo := repository.NewLessonSessionRepository(db)
	chatRepo := repository.NewChatRepository(db)

	if err := petRepo.SyncCatalog(cat.Pets.Pets()); err != nil {
		logger.Fatal("Failed to sync pet catalog", "error", err)
	}

	// Initialize services
	clock := service.NewClock(cfg.Location())
	rewardService := service.NewRewardService(cat, userRepo, progressRepo, badgeRepo, petRepo, ledgerRepo, clock, logger)
	usageService := service.NewUsageService(userRepo, cfg.FlashDailyLimit, cfg.PremiumDailyLimit, clock)
	tutorService := service.NewTutorService(cat, sessionRepo, progressRepo, usageService, rewardService, router, logger)
	quizService := service.NewQuizService(tutorService, sessionRepo, rewardService, logger)
	chatService := service.NewChatService(chatRepo, userRepo, usageService, router, logger)
	gachaService := service.NewGachaService(db, cat.Pets, nil, clock, logger)
	statsService := service.NewStatsService(cat, progressRepo, badgeRepo, ledgerRepo, usageService, clock)
	settingsService := service.NewSettingsService(userRepo, logger)
	backupService := service.NewBackupService(db, logger)
	authService := service.NewAuthService(userRepo, db, usageService, chatService, mailer, cfg.SessionDuration, logger)

	oauthProviders := map[string]handlers.OAuthProvider{}
	if cfg.GoogleClientID != "" {
		oauthProviders["google"] = handlers.OAuthProvider{
			Name:  "google",
			Label: "Google",
			Config: &oauth2.Config{
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				Endpoint:     google.Endpoint,
				Scopes:       []string{"openid", "email", "profile"},
			},
			UserInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
		}
	}

	templates, err := handlers.LoadTemplates()
	if err != nil {
		logger.Fatal("Failed to load templates", "error", err)
	}

	csrf := security.NewCSRFGenerator(cfg.CSRFSecret)
	stateSigner := security.NewOAuthStateSigner(cfg.CSRFSecret, 10*time.Minute)
	pages := handlers.NewRenderer(templates, csrf, service.NewVisitorTracker(cfg.VisitorBeaconURL, logger), logger)

	// Initialize handlers
	h := &handlers.Handlers{
		Middleware: handlers.NewMiddleware(authService, csrf, limiter, logger),
		Auth:       handlers.NewAuthHandler(authService, pages, oauthProviders, cfg.OAuthRedirectBaseURL, stateSigner, logger),
		Dashboard:  handlers.NewDashboardHandler(statsService, tutorService, rewardService, pages, logger),
		Learn:      handlers.NewLearnHandler(tutorService, quizService, usageService, pages, logger),
		Pets:       handlers.NewPetHandler(gachaService, pages, logger),
		Chat:       handlers.NewChatHandler(chatService, usageService, pages, logger),
		Settings:   handlers.NewSettingsHandler(settingsService, pages, logger),
		Admin:      handlers.NewAdminHandler(backupService, userRepo, pages, logger),

		StaticPath:         cfg.StaticFilesPath,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	}

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:    addr,
		Handler: h.Routes(),
		// Tutor calls can take a while on the premium model
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.LLMTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start background session cleanup
	stopCleanup := make(chan struct{})
	go cleanupExpiredSessions(authService, logger, stopCleanup)

	go func() {
		logger.Info("Server starting", "addr", "http://localhost"+addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Server shutting down...")
	close(stopCleanup)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Graceful shutdown failed", "error", err)
	}
}

// cleanupExpiredSessions periodically removes expired sessions
func cleanupExpiredSessions(authService *service.AuthService, logger *logging.Logger, stop <-chan struct{}) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			removed, err := authService.CleanupExpiredSessions()
			if err != nil {
				logger.Error("Error cleaning up expired sessions", "error", err)
				continue
			}
			logger.Info("Expired sessions cleaned up", "removed", removed)
		}
	}
}
