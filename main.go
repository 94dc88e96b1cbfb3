package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sodiqardianto/edlink-scrap/common/config"
	"github.com/sodiqardianto/edlink-scrap/common/db"
	"github.com/sodiqardianto/edlink-scrap/common/logger"
	"github.com/sodiqardianto/edlink-scrap/common/messaging"
	"github.com/sodiqardianto/edlink-scrap/common/services"
	"github.com/sodiqardianto/edlink-scrap/common/storage"
	"github.com/sodiqardianto/edlink-scrap/scraper"

	"github.com/rs/zerolog/log"

	"github.com/joho/godotenv"

	_ "github.com/sodiqardianto/edlink-scrap/docs"
)

// @title          Edlink Scrape Service API
// @version        1.0
// @description    Browser-driven scraper for Edlink courses, groups and members.

// @contact.name  API Support
// @contact.email sodiq.ardianto@paramadina.ac.id

// @host     localhost:8080
// @BasePath /v1
// @schemes  http https

// @securityDefinitions.apikey ApiKeyAuth
// @in                         header
// @name                       X-API-KEY

func main() {
	// INITIATE CONFIGURATION
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("Error loading .env file, using environment variables")
	}

	logger.Init()

	cfg := config.DefaultConfig()
	cfg.LoadFromEnv()

	// Create a base context with cancel for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// INITIATE DATABASES
	dbConn, err := db.SetupDatabase(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to setup database")
	}
	defer dbConn.Close()

	// Initialize zerolog database hooks
	logger.InitializeLogging(dbConn)
	log.Info().Msg("Zerolog database hooks initialized")

	// INITIATE NATS CLIENT
	natsClient, err := messaging.SetupNatsBroker(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to setup NATS client")
	}
	defer natsClient.Close()

	// GCS artifact storage is optional; runs export locally without it.
	var storageService storage.StorageService
	if cfg.GCS.CredentialsFile != "" && cfg.GCS.Bucket != "" {
		storageService, err = storage.NewGCSStorage(ctx, storage.GCSConfig{
			ProjectID:       cfg.GCS.ProjectID,
			CredentialsFile: cfg.GCS.CredentialsFile,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to setup GCS storage")
		}
		log.Info().Str("bucket", cfg.GCS.Bucket).Msg("GCS artifact storage enabled")
	}

	// WIRE THE SCRAPE PIPELINE
	bus := scraper.NewBus()
	statusCache := services.NewStatusCache(dbConn.Redis, 24*time.Hour)
	bus.RegisterSink(scraper.StatusCacheSink(statusCache))
	bus.RegisterSink(scraper.NatsMirrorSink(natsClient))

	store := services.NewScrapeRepository(dbConn.Queries)
	sessions := scraper.NewSessionManager(cfg.Scraper)
	stages := scraper.NewBrowserStages(cfg.Scraper)
	runner := scraper.NewRunner(sessions, stages, store, bus)
	exporter := scraper.NewExporter(cfg.Scraper.OutputDir, storageService, cfg.GCS.Bucket)

	// Consume queued scrape jobs from JetStream
	jobWorker, err := scraper.NewJobWorker(runner, natsClient, int(cfg.Scraper.MaxConcurrentRuns))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create scrape job worker")
	}
	if err := jobWorker.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start scrape job worker")
	}
	defer jobWorker.Stop()

	// INITIATE SERVER
	server, err := NewAppHttpServer(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create the server")
	}

	// Inject dependencies
	server.SetDB(dbConn)
	server.SetNatsClient(natsClient)
	server.SetScraper(runner, bus, statusCache, exporter)

	// Setup routes
	server.setupRoute()

	// Start server in a goroutine
	go func() {
		if err := server.start(); err != nil {
			log.Error().Err(err).Msg("Server error")
			cancel()
		}
	}()

	log.Info().Str("address", cfg.Listen.Addr()).Msg("Server started successfully")
	log.Info().Str("swagger", fmt.Sprintf("http://%s/swagger/index.html", cfg.Listen.Addr())).Msg("Swagger documentation available at")

	// Wait for shutdown signal
	select {
	case <-shutdown:
		log.Info().Msg("Shutdown signal received")
	case <-ctx.Done():
		log.Info().Msg("Context cancelled")
	}

	// Create a timeout context for graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	log.Info().Msg("Server gracefully stopped")
}
