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
	"github.com/rs/zerolog"

	"github.com/hridoy-islam/watenycollage-sub000/internal/config"
	"github.com/hridoy-islam/watenycollage-sub000/internal/database"
	"github.com/hridoy-islam/watenycollage-sub000/internal/handler"
	"github.com/hridoy-islam/watenycollage-sub000/internal/middleware"
	"github.com/hridoy-islam/watenycollage-sub000/internal/repository"
	"github.com/hridoy-islam/watenycollage-sub000/internal/router"
	"github.com/hridoy-islam/watenycollage-sub000/internal/service"
	cloud "github.com/hridoy-islam/watenycollage-sub000/pkg/cloudinary"
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

	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	natsConn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName)
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	if natsConn != nil {
		defer natsConn.Close()
	}

	uploader, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create cloudinary client: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	assignmentRepo := repository.NewAssignmentRepository(db)
	materialRepo := repository.NewMaterialRepository(db)
	userRepo := repository.NewUserRepository(db)

	events := service.NewEventPublisher(natsConn, cfg.EventSubject, logger)
	materialService := service.NewMaterialService(materialRepo, redisClient, cfg.MaterialCacheTTL, validate, logger)
	workflowService := service.NewAssignmentWorkflowService(assignmentRepo, userRepo, materialService, validate, events, logger)
	uploadService := service.NewUploadService(uploader, int(cfg.UploadMaxBytes/(1024*1024)), logger)

	assignmentHandler := handler.NewAssignmentHandler(workflowService, logger)
	materialHandler := handler.NewMaterialHandler(materialService, logger)
	uploadHandler := handler.NewUploadHandler(uploadService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{
		Logger:       &logger,
		AllowOrigins: cfg.AllowOrigins,
	})
	router.Register(app, cfg, router.Dependencies{
		AssignmentHandler: assignmentHandler,
		MaterialHandler:   materialHandler,
		UploadHandler:     uploadHandler,
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
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
