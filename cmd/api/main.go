package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/ZechariaBarriga/google-classroom-inspired/internal/config"
	"github.com/ZechariaBarriga/google-classroom-inspired/internal/database"
	"github.com/ZechariaBarriga/google-classroom-inspired/internal/handler"
	"github.com/ZechariaBarriga/google-classroom-inspired/internal/middleware"
	"github.com/ZechariaBarriga/google-classroom-inspired/internal/models"
	"github.com/ZechariaBarriga/google-classroom-inspired/internal/repository"
	"github.com/ZechariaBarriga/google-classroom-inspired/internal/router"
	"github.com/ZechariaBarriga/google-classroom-inspired/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Class{},
		&models.ClassMembership{},
		&models.Task{},
		&models.Question{},
		&models.MCQQuestion{},
		&models.EssayQuestion{},
		&models.Submission{},
		&models.LeaderboardEntry{},
		&models.ActivityLog{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	validate := validator.New(validator.WithRequiredStructEnabled())
	sanitizer := bluemonday.UGCPolicy()

	classRepo := repository.NewClassRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	leaderboardRepo := repository.NewLeaderboardRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	activityService := service.NewActivityService(activityRepo, logger)
	classService := service.NewClassService(classRepo, membershipRepo, validate, activityService, logger)
	taskService := service.NewTaskService(taskRepo, membershipRepo, validate, sanitizer, activityService, logger)
	submissionService := service.NewSubmissionService(submissionRepo, taskRepo, membershipRepo, validate, sanitizer, activityService, logger)
	leaderboardService := service.NewLeaderboardService(leaderboardRepo, membershipRepo, redisClient, cfg.LeaderboardCacheTTL, logger)
	gradingService := service.NewGradingService(submissionRepo, taskRepo, membershipRepo, validate, leaderboardService, activityService, logger)

	classHandler := handler.NewClassHandler(classService, logger)
	taskHandler := handler.NewTaskHandler(taskService, logger)
	submissionHandler := handler.NewSubmissionHandler(submissionService, logger)
	gradingHandler := handler.NewGradingHandler(gradingService, logger)
	leaderboardHandler := handler.NewLeaderboardHandler(leaderboardService, logger)
	activityHandler := handler.NewActivityHandler(activityService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		ClassHandler:       classHandler,
		TaskHandler:        taskHandler,
		SubmissionHandler:  submissionHandler,
		GradingHandler:     gradingHandler,
		LeaderboardHandler: leaderboardHandler,
		ActivityHandler:    activityHandler,
		JWTMiddleware:      middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
