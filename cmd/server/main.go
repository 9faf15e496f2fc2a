package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/staffsight/backend/internal/api"
	"github.com/staffsight/backend/internal/bigtime"
	"github.com/staffsight/backend/internal/cache"
	"github.com/staffsight/backend/internal/config"
	"github.com/staffsight/backend/internal/engine"
	"github.com/staffsight/backend/internal/graphcal"
	"github.com/staffsight/backend/internal/icscal"
	"github.com/staffsight/backend/internal/metrics"
	"github.com/staffsight/backend/internal/refresh"
	"github.com/staffsight/backend/internal/roster"
	"github.com/staffsight/backend/internal/source"
	"github.com/staffsight/backend/internal/websocket"
	"github.com/staffsight/backend/pkg/middleware"
)

func main() {
	// Configure logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Set log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("invalid log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Str("log_level", cfg.LogLevel).
		Int("weeks_ahead", cfg.WeeksAhead).
		Msg("starting staffsight backend server")

	// Resolve the staff roster
	staff, err := loadRoster(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load roster")
	}

	// Create context for services
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Select data sources from configuration
	budgetSource := buildBudgetSource(ctx, cfg)
	calendarSource := buildCalendarSource(cfg, staff)
	if budgetSource == nil && calendarSource == nil {
		log.Fatal().Msg("no data sources configured: set BigTime credentials, Azure credentials, or roster ICS feeds")
	}

	// Create WebSocket hub
	hub := websocket.NewHub(log.Logger)
	go hub.Run()

	// Create WebSocket handler
	wsHandler := websocket.NewHandler(hub, cfg, log.Logger)

	// Create aggregation engine and snapshot cache
	eng := engine.New(budgetSource, calendarSource, staff.IDs(), log.Logger)
	snapshotCache := cache.NewSnapshotCache(cfg.CacheTTL)

	// Create refresher
	refresher := refresh.NewRefresher(eng, snapshotCache, hub, cfg, staff.Names(), log.Logger)
	go refresher.Start(ctx)

	// Create API handlers
	handlers := api.NewHandlers(snapshotCache, refresher, log.Logger)

	// Create router
	r := chi.NewRouter()

	// Add middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Register public routes
	r.Get("/health", healthHandler)
	r.Get("/metrics", metrics.Get().Handler())
	r.Get("/ws", wsHandler.ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/snapshot", handlers.GetSnapshot)
		r.Get("/projects", handlers.GetProjects)
		r.Get("/daily", handlers.GetDaily)
		r.Get("/weekly", handlers.GetWeekly)
		r.Get("/team", handlers.GetTeam)
		r.Get("/staff", handlers.GetStaff)
		r.Get("/pivot", handlers.GetPivot)
		r.Get("/capacity", handlers.GetCapacity)
		r.Get("/availability", handlers.GetAvailability)
		r.Post("/refresh", handlers.PostRefresh)
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Msgf("server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	// Stop the refresher
	cancel()

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// loadRoster resolves the staff roster from a YAML file or the STAFF_EMAILS
// list. An empty roster is allowed when a budget source is the only input.
func loadRoster(cfg *config.Config) (*roster.Roster, error) {
	if cfg.RosterFile != "" {
		return roster.Load(cfg.RosterFile)
	}
	return roster.FromEmails(cfg.StaffEmails), nil
}

// buildBudgetSource returns an authenticated BigTime client, or nil when no
// credentials are configured.
func buildBudgetSource(ctx context.Context, cfg *config.Config) source.BudgetSource {
	if !cfg.BigTime.Configured() {
		log.Info().Msg("bigtime not configured, project budgets disabled")
		return nil
	}

	client := bigtime.New(cfg.BigTime, log.Logger)
	if err := client.Authenticate(ctx); err != nil {
		log.Fatal().Err(err).Msg("bigtime authentication failed")
	}
	return client
}

// buildCalendarSource prefers Microsoft Graph when Azure credentials are
// present, then falls back to per-staff ICS feeds from the roster.
func buildCalendarSource(cfg *config.Config, staff *roster.Roster) source.CalendarSource {
	if cfg.Azure.Configured() {
		return graphcal.New(cfg.Azure, cfg.Timezone, log.Logger)
	}
	if feeds := staff.Feeds(); len(feeds) > 0 {
		return icscal.New(feeds, log.Logger)
	}
	log.Info().Msg("no calendar source configured, availability disabled")
	return nil
}

// healthHandler handles health check requests
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok","service":"staffsight-backend"}`)
}
