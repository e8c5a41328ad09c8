package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/traindesk/traindesk-backend/internal/config"
	"github.com/traindesk/traindesk-backend/internal/database"
	"github.com/traindesk/traindesk-backend/internal/handler"
	"github.com/traindesk/traindesk-backend/internal/logger"
	"github.com/traindesk/traindesk-backend/internal/repository"
	"github.com/traindesk/traindesk-backend/internal/router"
	"github.com/traindesk/traindesk-backend/internal/service"
	"github.com/traindesk/traindesk-backend/internal/validator"
	"github.com/traindesk/traindesk-backend/internal/worker"
)

func main() {
	cfg := config.Load()

	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting TrainDesk Backend")

	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// Repositories.
	examRepo := repository.NewExamRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	attemptRepo := repository.NewAttemptRepository(pool)
	answerRepo := repository.NewAnswerRepository(pool)
	enrollmentRepo := repository.NewEnrollmentRepository(pool)
	attendanceRepo := repository.NewAttendanceRepository(pool)

	// Services.
	authService := service.NewAuthService(cfg)
	eligibilityService := service.NewEligibilityService(attemptRepo, enrollmentRepo, attendanceRepo)
	examService := service.NewExamService(examRepo, questionRepo, attemptRepo, eligibilityService, rdb, log)
	scoringService := service.NewScoringService(attemptRepo, answerRepo, examRepo, questionRepo, rdb, log)
	sessionService := service.NewSessionService(attemptRepo, examRepo, questionRepo, examService, eligibilityService, scoringService, log)
	answerService := service.NewAnswerService(answerRepo, attemptRepo, examRepo, questionRepo, scoringService, log)
	violationService := service.NewViolationService(attemptRepo, examRepo, scoringService, rdb, log)

	// Handlers.
	handlers := &router.Handlers{
		Portal:  handler.NewPortalHandler(examService, sessionService, answerService, violationService, scoringService),
		Proctor: handler.NewProctorHandler(examService),
		Monitor: handler.NewMonitorWSHandler(rdb, examService, attemptRepo, log, cfg.AllowedOrigins),
	}

	// Background deadline sweep: finalizes overdue attempts and
	// auto-publishes results for closed exams.
	workerCtx, workerCancel := context.WithCancel(context.Background())
	deadlineWorker := worker.NewDeadlineWorker(attemptRepo, examRepo, scoringService, cfg.DeadlineSweep, log)
	go deadlineWorker.Start(workerCtx)

	// Load all published exam papers into Redis BEFORE accepting traffic.
	// This avoids race conditions from lazy loading under thundering herd.
	if err := examService.PrewarmAllCaches(ctx); err != nil {
		log.Warn().Err(err).Msg("Cache prewarm failed")
	}

	r := router.SetupRouter(authService, handlers, cfg)

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// Stop the sweep loop after in-flight requests drain.
	workerCancel()
	time.Sleep(time.Second)

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
