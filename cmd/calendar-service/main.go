package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/agenda-distribuida/calendar-service/internal/config"
	"github.com/agenda-distribuida/calendar-service/internal/database"
	"github.com/agenda-distribuida/calendar-service/internal/events"
	"github.com/agenda-distribuida/calendar-service/internal/logger"
	"github.com/agenda-distribuida/calendar-service/internal/membership"
	"github.com/agenda-distribuida/calendar-service/internal/repository"
	"github.com/agenda-distribuida/calendar-service/internal/server"
	"github.com/agenda-distribuida/calendar-service/internal/service"
	"github.com/agenda-distribuida/calendar-service/internal/sweeper"
	"github.com/rs/zerolog"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log, logCloser, err := logger.New(logger.Options{
		Service: cfg.ServiceName,
		Level:   cfg.Log.Level,
		Dir:     cfg.Log.Dir,
	})
	if err != nil {
		panic(err)
	}
	defer logCloser.Close()
	zerolog.DefaultContextLogger = &log

	if cfg.InsecureJWTSecret() {
		log.Warn().Msg("JWT_SECRET is unset or uses the development default, tokens can be forged")
	}

	// Initialize database
	db, err := database.New(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	publisher := events.Nop()
	if cfg.Redis.URL != "" {
		redisClient, err := events.NewRedisClient(context.Background(), cfg.Redis.URL, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer redisClient.Close()
		publisher = events.NewPublisher(redisClient, cfg.Redis.Channel, log)
	} else {
		log.Warn().Msg("REDIS_URL not set, domain events are disabled")
	}

	store := repository.NewStore(db.DB(), log)
	registry := membership.NewRegistry(log)
	calendars := service.NewCalendarService(store, registry, publisher, cfg.Calendar.EventTypes, log)
	eventsService := service.NewEventService(store, registry, publisher, log)

	sweep, err := sweeper.New(cfg.Sweeper.Schedule, calendars, cfg.Sweeper.Timeout, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule orphan sweep")
	}
	sweep.Start()

	// Create and start server
	srv := server.New(server.Options{
		Addr:           cfg.Addr(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		JWTSecret:      cfg.JWT.Secret,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	}, db, calendars, eventsService, log)

	// Channel to listen for errors from server
	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	// Channel to listen for interrupt signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Wait for an error or interrupt signal
	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Server error")
		}
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutting down server...")
	}

	// Create a deadline for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Attempt graceful shutdown
	if err := srv.Stop(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	sweep.Stop(ctx)

	log.Info().Msg("Server stopped")
}
