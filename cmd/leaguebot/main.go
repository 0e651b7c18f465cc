package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/mtgleague/leaguebot/internal/api/scryfall"
	"github.com/mtgleague/leaguebot/internal/bot"
	"github.com/mtgleague/leaguebot/internal/config"
	"github.com/mtgleague/leaguebot/internal/ledger"
	"github.com/mtgleague/leaguebot/internal/scheduler"
	"github.com/mtgleague/leaguebot/internal/service"
	"github.com/mtgleague/leaguebot/internal/store"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Error running application", "error", err)
		os.Exit(1)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil {
		slog.Error("Error loading .env file", "error", err)
	}

	cfg, err := config.New()
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.Storage.DatabasePath)
	if err != nil {
		return err
	}
	defer st.Close()

	scryfallClient := scryfall.NewClient(cfg.Scryfall)
	ledgerService := ledger.NewService(st)

	// The resolver closes over the bot variable; the bot is constructed
	// right after the service it depends on.
	var discordBot *bot.Bot
	resolve := func(playerID string) string {
		if discordBot == nil {
			return playerID
		}
		return discordBot.DisplayName(playerID)
	}

	leagueService := service.New(st, scryfallClient, ledgerService, resolve)

	discordBot, err = bot.New(cfg.Discord, leagueService)
	if err != nil {
		return err
	}

	sched, err := scheduler.NewScheduler(cfg.Reports, leagueService, discordBot.SendReport)
	if err != nil {
		return err
	}

	if err := sched.Start(); err != nil {
		return err
	}
	defer func() {
		if err := sched.Stop(); err != nil {
			slog.Error("Error stopping scheduler", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := discordBot.Start(ctx); err != nil {
			slog.Error("Error running discord bot", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down gracefully...")

	return nil
}
