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

	"github.com/isdelr/chatter-be/internal/api"
	"github.com/isdelr/chatter-be/internal/auth"
	"github.com/isdelr/chatter-be/internal/config"
	"github.com/isdelr/chatter-be/internal/database"
	"github.com/isdelr/chatter-be/internal/logger"
	"github.com/isdelr/chatter-be/internal/media"
	"github.com/isdelr/chatter-be/internal/monitoring"
	"github.com/isdelr/chatter-be/internal/presence"
	"github.com/isdelr/chatter-be/internal/services"
	"github.com/isdelr/chatter-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Init(logger.Options{
		Level:      cfg.LogLevel,
		Production: cfg.IsProduction(),
		File:       cfg.LogFile,
	})

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	mediaStore, err := media.NewStore(cfg.UploadDir, cfg.MaxImageBytes)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create upload directory")
	}

	// Set up WebSocket Hub
	hub := websocket.NewHub(presence.NewRegistry())
	go hub.Run()

	// Set up services
	userService := services.NewUserService(db, mediaStore)
	messageService := services.NewMessageService(db, userService, mediaStore)
	sessions := auth.NewSessionManager(cfg.JWTSecret, cfg.SessionTTL, cfg.IsProduction())

	// Set up the background stats reporter
	var reporter *monitoring.Reporter
	if cfg.StatsSchedule != "" {
		reporter, err = monitoring.NewReporter(cfg.StatsSchedule, hub, userService, messageService)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to set up stats reporter")
		}
		reporter.Start()
	}

	router := api.NewRouter(cfg, hub, sessions, userService, messageService, mediaStore)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Str("env", cfg.AppEnv).Msg("Server starting")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("ListenAndServe failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	if reporter != nil {
		reporter.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Hijacked websocket connections are not tracked by srv; the hub closes them.
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := hub.Shutdown(5 * time.Second); err != nil {
		log.Error().Err(err).Msg("Hub did not stop cleanly")
	}

	log.Info().Msg("Server exiting")
}
