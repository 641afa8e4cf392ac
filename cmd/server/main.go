package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/dmaslov/pairdesk/internal/adapters/http"

	"github.com/dmaslov/pairdesk/internal/adapters"
	"github.com/dmaslov/pairdesk/internal/app"
	"github.com/dmaslov/pairdesk/internal/config"
	"github.com/dmaslov/pairdesk/internal/identity"
	"github.com/dmaslov/pairdesk/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Mode == "debug" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	db, err := store.Connect(ctx, cfg.MongoURI, cfg.DBName)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mongo")
	}

	tokens := identity.NewManager(cfg.AccessSecret, cfg.RefreshSecret)

	reg := app.NewRegistry()
	hub := app.NewRouter(reg, db, tokens)
	ws := adapters.NewWSController(hub, cfg.ReadLimit, cfg.SendBuffer)

	h := &router.Handlers{
		Accounts:  db,
		Rooms:     db,
		Tokens:    tokens,
		Verifier:  tokens,
		Passwords: identity.Hasher{},
	}

	r := router.SetupRouter(ctx, cfg, h, ws)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("pairdesk server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := db.Disconnect(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Mongo disconnect")
	}
	log.Info().Msg("Server exited gracefully")
}
