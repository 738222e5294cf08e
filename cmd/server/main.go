package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	webAdapter "bakehouse/internal/adapters/web"
	"bakehouse/internal/app"
	"bakehouse/internal/config"
	"bakehouse/internal/core"
	"bakehouse/internal/db"
	"bakehouse/internal/event"
	eventkafka "bakehouse/internal/event/kafka"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("configuration")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("database")
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL, "migrations"); err != nil {
		log.Fatal().Err(err).Msg("migrations")
	}

	var publisher core.EventPublisher = event.LogPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := eventkafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kp.Close()
		publisher = kp
		log.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Msg("kafka publisher enabled")
	}

	co := core.NewCoordinator(pool, publisher)
	inventory := core.NewInventoryService(pool)
	assignments := core.NewAssignmentService(pool)
	orders := core.NewOrderService(pool, co, inventory, assignments)
	returns := core.NewReturnService(pool, co, inventory)

	svc := app.NewAppService(orders, returns, inventory, assignments)
	handler := webAdapter.NewHandler(svc, cfg.AllowedOrigins)

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.ServerPort).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}
