package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/civio/civio-api/internal/config"
	"github.com/civio/civio-api/internal/domain/admin"
	"github.com/civio/civio-api/internal/domain/audit"
	"github.com/civio/civio-api/internal/domain/auth"
	"github.com/civio/civio-api/internal/domain/authz"
	"github.com/civio/civio-api/internal/domain/event"
	"github.com/civio/civio-api/internal/domain/ledger"
	"github.com/civio/civio-api/internal/domain/market"
	"github.com/civio/civio-api/internal/domain/member"
	"github.com/civio/civio-api/internal/domain/notification"
	"github.com/civio/civio-api/internal/domain/referral"
	"github.com/civio/civio-api/internal/domain/task"
	"github.com/civio/civio-api/internal/middleware"
	"github.com/civio/civio-api/internal/pkg/database"
	"github.com/civio/civio-api/internal/pkg/jwt"
	"github.com/civio/civio-api/internal/pkg/logger"
	pkgresponse "github.com/civio/civio-api/internal/pkg/response"
)

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env})

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting Civio API")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	redisClient, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redisClient)

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)

	// ---------- Repositories ----------
	accountRepo := member.NewRepository(db)
	ledgerRepo := ledger.NewRepository(db)
	referralRepo := referral.NewRepository(db)
	auditRepo := audit.NewRepository(db)
	notificationRepo := notification.NewRepository(db)
	taskRepo := task.NewRepository(db)
	eventRepo := event.NewRepository(db)
	marketRepo := market.NewRepository(db)
	adminRepo := admin.NewRepository(db)

	// ---------- Services ----------
	ledgerService := ledger.NewService(ledgerRepo)
	referralService := referral.NewService(referralRepo)
	auditService := audit.NewService(auditRepo)
	notificationService := notification.NewService(notificationRepo)
	resolver := authz.NewResolver(referralService)

	authService := auth.NewService(accountRepo, jwtService, redisClient, referralService, ledgerService, notificationService, cfg.ReferralBonusPoints)
	taskService := task.NewService(taskRepo, ledgerService, resolver, auditService, notificationService)
	eventService := event.NewService(eventRepo, ledgerService, resolver, auditService, notificationService)
	marketService := market.NewService(marketRepo, ledgerService, auditService, notificationService)
	adminService := admin.NewService(adminRepo, accountRepo, ledgerService, resolver, auditService, notificationService, jwtService)

	// ---------- Background jobs ----------
	jobCtx, stopJobs := context.WithCancel(context.Background())
	defer stopJobs()

	cleanupJob := notification.NewCleanupJob(notificationRepo, cfg.NotificationRetentionDays)
	go cleanupJob.Start(jobCtx, 24*time.Hour)

	// ---------- Handlers ----------
	authHandler := auth.NewHandler(authService)
	ledgerHandler := ledger.NewHandler(ledgerService)
	referralHandler := referral.NewHandler(referralService)
	notificationHandler := notification.NewHandler(notificationService)
	taskHandler := task.NewHandler(taskService)
	eventHandler := event.NewHandler(eventService)
	marketHandler := market.NewHandler(marketService)
	adminHandler := admin.NewHandler(adminService)

	authMiddleware := middleware.Auth(jwtService)
	leaderMiddleware := middleware.RequireRole(member.RoleRegionalLeader)
	adminMiddleware := middleware.RequireAdmin()

	// ---------- Router ----------
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))
	r.Use(chimw.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]string{
			"status":  "ok",
			"version": "1.0.0",
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/auth", authHandler.Routes(authMiddleware))
		r.Mount("/ledger", ledgerHandler.Routes(authMiddleware))
		r.Mount("/referrals", referralHandler.Routes(authMiddleware, adminMiddleware))
		r.Mount("/notifications", notificationHandler.Routes(authMiddleware))
		r.Mount("/tasks", taskHandler.Routes(authMiddleware))
		r.Mount("/submissions", taskHandler.SubmissionRoutes(authMiddleware))
		r.Mount("/events", eventHandler.Routes(authMiddleware))
		r.Mount("/market", marketHandler.Routes(authMiddleware))
		r.Mount("/admin", adminHandler.Routes(authMiddleware, leaderMiddleware))
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	stopJobs()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}
