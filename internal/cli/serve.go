package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/open-builders/secret-santa-bot/internal/bot"
	apperrors "github.com/open-builders/secret-santa-bot/internal/common/errors"
	"github.com/open-builders/secret-santa-bot/internal/common/logger"
	"github.com/open-builders/secret-santa-bot/internal/config"
	apihttp "github.com/open-builders/secret-santa-bot/internal/http"
	"github.com/open-builders/secret-santa-bot/internal/workers"
)

const shutdownTimeout = 30 * time.Second

var errNoToken = errors.New("TELEGRAM_TOKEN is not set")

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bot, the scheduler and the admin HTTP API",
		Long: `Run the Telegram bot with long polling, schedule the distribution at
DISTRIBUTION_DATETIME and serve the admin API, metrics and probes on HTTP_ADDR.
With STORE_BACKEND=redis the Redis stream trigger worker is started as well.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, rootOpts.cfg)
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config) error {
	log := logger.Component("serve")
	if cfg.Telegram.Token == "" {
		return errNoToken
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	me, err := a.telegram.GetMe(ctx)
	if err != nil {
		return apperrors.NewTelegramAPIError("getMe", err)
	}
	log.Info().Str("bot", me.Username).Str("store", cfg.Store.Backend).Msg("Starting Secret Santa bot")

	if err := a.telegram.SetMyCommands(ctx, bot.Commands()); err != nil {
		log.Warn().Err(err).Msg("Failed to register bot commands")
	}

	handlerOpts := []bot.Option{
		bot.WithDistributor(a.engine),
		bot.WithAdminCheck(cfg.IsAdmin),
		bot.WithObserver(a.metrics),
		bot.WithLogger(logger.Component("bot")),
	}
	if at, err := config.ParseDistributionTime(cfg.DistributionDatetime, time.Local); err == nil {
		handlerOpts = append(handlerOpts, bot.WithDrawDate(at))
	}
	handler := bot.NewHandler(a.store, a.telegram, handlerOpts...)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		workers.NewUpdatesPoller(a.telegram, handler, cfg.Telegram.PollTimeout).Start(ctx)
	}()

	if done, ok := workers.NewScheduler(a.engine, time.Local).Schedule(ctx, cfg.DistributionDatetime); ok {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-done
		}()
	}

	if a.redis != nil {
		consumer, _ := os.Hostname()
		wg.Add(1)
		go func() {
			defer wg.Done()
			workers.NewRedisStreamWorker(a.redis.Client, a.engine, consumer).Start(ctx)
		}()
	}

	router := apihttp.NewRouter(apihttp.Deps{
		Distributor: a.engine,
		Store:       a.store,
		IsAdmin:     cfg.IsAdmin,
		BotToken:    cfg.Telegram.Token,
		InitDataTTL: time.Duration(cfg.HTTP.InitDataTTL) * time.Second,
		CORSOrigins: splitList(cfg.HTTP.CORSAllowedOrigins),
		Debug:       cfg.Debug,
		Gatherer:    a.registry,
		Ready:       a.ready,
		Logger:      logger.Component("http"),
	})
	server := apihttp.NewServer(cfg.HTTP.Addr, router, logger.Component("http"))

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	cancelWorkers()
	wg.Wait()
	log.Info().Msg("Bot stopped")
	return serveErr
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
