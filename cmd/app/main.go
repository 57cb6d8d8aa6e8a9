// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack"
	"golang.org/x/sync/errgroup"

	"slack-gpt-sessions/internal/application"
	"slack-gpt-sessions/internal/config"
	"slack-gpt-sessions/internal/domain/model"
	"slack-gpt-sessions/internal/domain/ports/adapter"
	"slack-gpt-sessions/internal/infra/adapters/slackbot"
	"slack-gpt-sessions/internal/infra/db"
	"slack-gpt-sessions/internal/infra/dedup"
	httpapi "slack-gpt-sessions/internal/infra/http"
	"slack-gpt-sessions/internal/infra/logging"
	"slack-gpt-sessions/internal/infra/metrics"
	red "slack-gpt-sessions/internal/infra/redis"
	"slack-gpt-sessions/internal/infra/sched"
	"slack-gpt-sessions/internal/infra/worker"
	"slack-gpt-sessions/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, message text in logs)")
	dryRun := flag.Bool("dry-run", false, "log outgoing Slack posts instead of sending them")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if err := run(cfg, *dryRun, logger); err != nil {
		logger.Fatal().Err(err).Msg("exited with error")
	}
	logger.Info().Msg("shutdown complete")
}

func run(cfg *config.Config, dryRun bool, logger *zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit, cfg.AI.Provider)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] message text is logged unredacted")
	}

	// ---- Store ----
	store, err := db.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	logger.Info().Str("driver", cfg.Database.Driver).Msg("store ready")

	// ---- Event de-duplication ----
	var deduper application.Deduper
	if cfg.Redis.URL != "" {
		rc, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer rc.Close()
		deduper = red.NewEventDeduper(rc, cfg.Redis.TTL)
		logger.Info().Msg("event dedup: redis")
	} else {
		deduper = dedup.NewMemory(cfg.Redis.TTL)
		logger.Info().Msg("event dedup: in-process")
	}

	// ---- Completion client ----
	ai, err := newAI(ctx, cfg.AI, logger)
	if err != nil {
		return err
	}
	logger.Info().Str("provider", ai.Name()).Str("model", ai.Model()).Msg("completion client ready")

	// ---- Slack ----
	api := slack.New(cfg.Slack.BotToken,
		slack.OptionAppLevelToken(cfg.Slack.AppToken),
		slack.OptionDebug(cfg.Slack.Debug),
	)
	identity, err := slackbot.ResolveIdentity(ctx, api, model.Identity{
		UserID: cfg.Slack.BotUserID,
		BotID:  cfg.Slack.BotID,
	})
	if err != nil {
		return err
	}
	logger.Info().Str("bot_user_id", identity.UserID).Str("bot_id", identity.BotID).Msg("bot identity resolved")

	var out adapter.Messenger
	if dryRun {
		out = slackbot.NewNoopMessenger(logger)
	} else if out, err = slackbot.NewPoster(api); err != nil {
		return err
	}

	// ---- Use cases ----
	userUC := usecase.NewUserUseCase(store.Users(), logger)
	chatUC := usecase.NewChatUseCase(store.Turns(), ai, identity, cfg.AI.HistoryLimit, logger, cfg.Runtime.Dev)
	usageUC := usecase.NewUsageUseCase(store.Tokens(), cfg.Pricing.USDPer1KTokens, logger)

	coord := application.NewCoordinator(chatUC, userUC, usageUC, out, deduper, application.Settings{
		FocusChannel:   cfg.Slack.FocusChannel,
		StartCommand:   cfg.Slack.StartCommand,
		SessionTrigger: cfg.Slack.SessionTrigger,
		CostCommand:    cfg.Slack.CostCommand,
		Identity:       identity,
	}, logger)

	// queued events finish on shutdown, so the pool outlives the signal context
	workCtx, cancelWork := context.WithCancel(context.Background())
	defer cancelWork()
	pool := worker.NewPool(cfg.Slack.Workers, 64, logger)
	pool.Start(workCtx)
	disp := slackbot.NewDispatcher(pool, coord, logger)

	g, gctx := errgroup.WithContext(ctx)

	// ---- Gateway ----
	if cfg.Slack.Mode == "socket" {
		bot, err := slackbot.NewSocketBot(api, disp, cfg.Slack.Debug, logger)
		if err != nil {
			return err
		}
		g.Go(func() error {
			if err := bot.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("socket mode: %w", err)
			}
			return nil
		})
	}

	// ---- Admin / Events API server ----
	srv := httpapi.NewServer(httpapi.Options{
		Port:          cfg.Admin.Port,
		SigningSecret: cfg.Slack.SigningSecret,
		SlackRoutes:   cfg.Slack.Mode == "http",
	}, disp, store, logger)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})

	// ---- Stats worker ----
	stats := sched.NewStatsWorker(15*time.Second, cfg.Database.Driver, store, logger)
	g.Go(func() error {
		if err := stats.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	logger.Info().Str("mode", cfg.Slack.Mode).Str("channel", cfg.Slack.FocusChannel).Msg("bot is running")
	err = g.Wait()

	logger.Info().Msg("shutdown requested; draining queued events")
	pool.Stop()
	return err
}
