package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sodiqardianto/edlink-scrap/common/config"
	"github.com/sodiqardianto/edlink-scrap/common/db"
	"github.com/sodiqardianto/edlink-scrap/common/messaging"
	"github.com/sodiqardianto/edlink-scrap/common/services"
	"github.com/sodiqardianto/edlink-scrap/handler"
	"github.com/sodiqardianto/edlink-scrap/middlewares"
	"github.com/sodiqardianto/edlink-scrap/scraper"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

type AppHttpServer struct {
	router      *chi.Mux
	cfg         config.Config
	server      *http.Server
	db          *db.DB
	natsClient  *messaging.NatsBroker
	runner      *scraper.Runner
	bus         *scraper.Bus
	statusCache *services.StatusCache
	exporter    *scraper.Exporter
}

func NewAppHttpServer(cfg config.Config) (*AppHttpServer, error) {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "X-API-KEY"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Scrape runs stream progress over SSE and a synchronous run walks the
	// whole account, so the request timeout is generous.
	r.Use(middleware.Timeout(30 * time.Minute))

	server := &AppHttpServer{
		router: r,
		cfg:    cfg,
	}
	return server, nil
}

// SetDB sets the database dependency
func (s *AppHttpServer) SetDB(db *db.DB) {
	s.db = db
}

// SetNatsClient sets the NATS client dependency
func (s *AppHttpServer) SetNatsClient(client *messaging.NatsBroker) {
	s.natsClient = client
}

// SetScraper sets the scrape pipeline dependencies
func (s *AppHttpServer) SetScraper(runner *scraper.Runner, bus *scraper.Bus, statusCache *services.StatusCache, exporter *scraper.Exporter) {
	s.runner = runner
	s.bus = bus
	s.statusCache = statusCache
	s.exporter = exporter
}

func (s *AppHttpServer) setupRoute() {
	r := s.router

	if s.db == nil {
		log.Warn().Msg("DB dependency not set")
	}
	if s.natsClient == nil {
		log.Warn().Msg("NATS client dependency not set, async jobs disabled")
	}

	// API Documentation with Swagger
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	// Public health endpoint (no authentication required)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","service":"edlink-scrap"}`))
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(middlewares.ApiKey(s.cfg.Security.BackendApiKey))

		courseService := services.NewCourseRepository(s.db.Queries)

		scraperHandler := handler.NewScraperHandler(s.runner, s.natsClient, s.bus, s.statusCache, s.exporter)
		courseHandler := handler.NewCourseHandler(courseService)
		groupHandler := handler.NewGroupHandler(courseService)
		healthHandler := handler.NewHealthHandler(s.db)

		r.Mount("/scrape", scraperHandler.Router())
		r.Mount("/courses", courseHandler.Router())
		r.Mount("/groups", groupHandler.Router())
		r.Mount("/health", healthHandler.Router())
	})
}

func (s *AppHttpServer) start() error {
	r := s.router
	cfg := s.cfg
	log.Info().Msg("Starting up server...")

	s.server = &http.Server{
		Addr:        cfg.Listen.Addr(),
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		// WriteTimeout must outlive SSE streams and synchronous runs.
		WriteTimeout: 30 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// stop gracefully shuts down the server
func (s *AppHttpServer) stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
