package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-lms-api/internal/app"
	"github.com/noah-isme/gema-lms-api/internal/config"
	"github.com/noah-isme/gema-lms-api/internal/handler"
	"github.com/noah-isme/gema-lms-api/internal/middleware"
	"github.com/noah-isme/gema-lms-api/internal/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()

	container, err := app.Build(cfg, logger, app.Options{})
	if err != nil {
		log.Fatalf("failed to initialise dependencies: %v", err)
	}
	defer func() {
		if err := container.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close dependencies")
		}
	}()

	assignmentHandler := handler.NewAssignmentHandler(container.Assignments, logger)
	submissionHandler := handler.NewSubmissionHandler(container.Submissions, container.Regrades, logger)
	gradedResultHandler := handler.NewGradedResultHandler(container.Results, container.Regrades, logger)
	certificateHandler := handler.NewCertificateHandler(container.Certification, logger)
	activityHandler := handler.NewActivityHandler(container.Activity, logger)

	var healthChecks []handler.DependencyCheck
	for _, probe := range container.Probes() {
		healthChecks = append(healthChecks, handler.DependencyCheck{Name: probe.Name, Check: probe.Check})
	}

	server := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(server, middleware.Config{
		Logger:       &logger,
		AllowOrigins: cfg.CORSAllowOrigins,
		AccessLog:    cfg.AppEnv == "development",
	})
	router.Register(server, cfg, router.Dependencies{
		AssignmentHandler:   assignmentHandler,
		SubmissionHandler:   submissionHandler,
		GradedResultHandler: gradedResultHandler,
		CertificateHandler:  certificateHandler,
		ActivityHandler:     activityHandler,
		HealthChecks:        healthChecks,
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := server.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	logger.Info().Str("address", cfg.HTTPAddress()).Str("env", cfg.AppEnv).Msg("grading api started")
	waitForShutdown(server)
}

func waitForShutdown(server *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
