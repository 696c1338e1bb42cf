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

	"github.com/common-nighthawk/go-figure"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/certifypro-backend/internal/catalog"
	"github.com/stemsi/certifypro-backend/internal/config"
	"github.com/stemsi/certifypro-backend/internal/database"
	"github.com/stemsi/certifypro-backend/internal/handler"
	"github.com/stemsi/certifypro-backend/internal/logger"
	"github.com/stemsi/certifypro-backend/internal/middleware"
	"github.com/stemsi/certifypro-backend/internal/repository"
	"github.com/stemsi/certifypro-backend/internal/router"
	"github.com/stemsi/certifypro-backend/internal/service"
	"github.com/stemsi/certifypro-backend/internal/validator"
	"github.com/stemsi/certifypro-backend/internal/worker"
)

const version = "1.0.0"

func main() {
	printStartUpBanner()

	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(logger.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Str("storage", cfg.StorageDriver).
		Msg("Starting CertifyPro Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Load Exam Catalog ─────────────────────────────────────────────
	cat, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.CatalogPath).Msg("Failed to load exam catalog")
	}
	log.Info().Int("exams", cat.Len()).Msg("Exam catalog loaded")

	// ─── Initialize Repositories ───────────────────────────────────────
	pingers := make(map[string]handler.Pinger)

	var (
		userRepo   repository.UserRepository
		resultRepo repository.ResultRepository
	)
	switch cfg.StorageDriver {
	case config.StorageDriverPostgres:
		if cfg.AutoMigrate {
			if err := database.MigrateUp(cfg.DatabaseURL, log); err != nil {
				log.Fatal().Err(err).Msg("Failed to apply migrations")
			}
		}
		pool, err := database.NewPostgresPool(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		defer pool.Close()
		userRepo = repository.NewPostgresUserRepository(pool)
		resultRepo = repository.NewPostgresResultRepository(pool)
		pingers["postgres"] = pingPostgres(pool)
	case config.StorageDriverMemory:
		log.Warn().Msg("Using in-memory storage; users and results are lost on restart")
		userRepo = repository.NewMemoryUserRepository()
		resultRepo = repository.NewMemoryResultRepository()
	default:
		log.Fatal().Str("driver", cfg.StorageDriver).Msg("Unknown STORAGE_DRIVER")
	}

	var markerRepo repository.SessionMarkerRepository
	if cfg.RedisURL != "" {
		rdb, err := database.NewRedisClient(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()
		markerRepo = repository.NewRedisSessionMarkerRepository(rdb)
		pingers["redis"] = pingRedis(rdb)
	} else {
		log.Warn().Msg("REDIS_URL not set; session markers kept in process memory")
		markerRepo = repository.NewMemorySessionMarkerRepository()
	}

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, userRepo, markerRepo, log)
	examService := service.NewExamService(cat, log)
	resultService := service.NewResultService(userRepo, resultRepo, cat, authService, log)
	certificateService := service.NewCertificateService(examService, authService, resultService, cfg.CertificateIssuer, log)
	dashboardService := service.NewDashboardService(examService, authService, resultService)
	sessionService := service.NewExamSessionService(ctx, examService, resultService, cfg.ExamTickInterval, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:          handler.NewAuthHandler(authService, log),
		Exam:          handler.NewExamHandler(examService, log),
		Dashboard:     handler.NewDashboardHandler(dashboardService, log),
		StudentPortal: handler.NewStudentPortalHandler(sessionService, resultService, certificateService, log),
		WS:            handler.NewWSHandler(authService, sessionService, log, cfg.AllowedOrigins),
		System:        handler.NewSystemHandler(sessionService, cfg.StorageDriver, pingers, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	authLimiter := middleware.NewRateLimiter(cfg.AuthRatePerMinute, time.Minute)
	go authLimiter.Run(workerCtx)

	sweeper := worker.NewSessionSweeper(sessionService, cfg.SweepInterval, cfg.SessionIdleTTL, log)
	go sweeper.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, authLimiter, cfg, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers.
	workerCancel()

	// 3. End live exam sessions and their timers.
	sessionService.Shutdown()
	cancel()

	log.Info().Msg("Shutdown complete")
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.LoadFile(path)
}

func pingPostgres(pool *pgxpool.Pool) handler.Pinger {
	return func(ctx context.Context) error { return pool.Ping(ctx) }
}

func pingRedis(rdb *redis.Client) handler.Pinger {
	return func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
}

func printStartUpBanner() {
	figure.NewFigure("CertifyPro", "", true).Print()
	fmt.Println("======================================================")
	fmt.Printf("CertifyPro API (v%s)\n\n", version)
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
