package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/keshon/dispatch/internal/command"
	"github.com/keshon/dispatch/internal/commands"
	"github.com/keshon/dispatch/internal/config"
	"github.com/keshon/dispatch/internal/discord"
	"github.com/keshon/dispatch/internal/logging"
	"github.com/keshon/dispatch/internal/middleware"
	"github.com/keshon/dispatch/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	_, logFile, err := logging.Setup(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up logging")
	}
	defer logFile.Close()

	log.Info().Msg("starting discord bot")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.New(cfg.StoragePath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open storage")
	}
	defer store.Close()

	tree := command.NewTree()
	bot, err := discord.New(cfg, tree)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create bot")
	}
	if err := commands.Register(tree, commands.Deps{
		Store:       store,
		Roles:       bot,
		DeveloperID: cfg.DeveloperID,
		Prefix:      cfg.CommandPrefix,
		Latency:     bot.Latency,
	}); err != nil {
		log.Fatal().Err(err).Msg("failed to register commands")
	}
	if err := tree.Use(middleware.WithCommandLogger(store)); err != nil {
		log.Fatal().Err(err).Msg("failed to install middleware")
	}

	errCh := make(chan error, 1)
	go func() {
		if err := bot.Run(ctx); err != nil {
			errCh <- err
		}
		close(errCh)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Info().Str("signal", s.String()).Msg("shutting down")
		cancel()
		<-errCh
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("discord bot error")
		}
		cancel()
	}

	log.Info().Msg("discord bot exited cleanly")
}
