// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"telegram-weather-bot/internal/application"
	"telegram-weather-bot/internal/config"
	"telegram-weather-bot/internal/domain/model"
	"telegram-weather-bot/internal/domain/ports/adapter"
	tele "telegram-weather-bot/internal/infra/adapters/telegram"
	"telegram-weather-bot/internal/infra/adapters/translate"
	"telegram-weather-bot/internal/infra/adapters/weather"
	"telegram-weather-bot/internal/infra/i18n"
	"telegram-weather-bot/internal/infra/logging"
	"telegram-weather-bot/internal/infra/memory"
	"telegram-weather-bot/internal/infra/metrics"
	red "telegram-weather-bot/internal/infra/redis"
	"telegram-weather-bot/internal/infra/sched"
	"telegram-weather-bot/internal/infra/web"
	"telegram-weather-bot/internal/infra/worker"
	"telegram-weather-bot/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

const pollingRestartDelay = 5 * time.Second

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, noop bot allowed)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		logging.Global.Fatal().Err(err).Msg("config")
	}

	log := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		log.Info().Msg("dev mode enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Redis (optional, rate limiting only) ----
	var rateLimiter *red.RateLimiter
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()
		rateLimiter = red.NewRateLimiter(redisClient)
	} else {
		log.Info().Msg("redis.url empty, command rate limiting disabled")
	}

	// ---- Repositories (in-memory, volatile by contract) ----
	defaultLang, _ := model.ParseLanguage(cfg.DefaultLanguage)
	subscriberRepo := memory.NewSubscriberRepo(defaultLang)
	stateRepo := memory.NewStateRepo()

	// ---- Providers ----
	weatherProvider, err := weather.NewOpenWeatherMapProvider(&cfg.Weather, log)
	if err != nil {
		log.Fatal().Err(err).Msg("weather provider")
	}
	var translator adapter.TranslationProvider
	if cfg.Translate.Enabled {
		translator, err = translate.NewGoogleTranslateProvider(&cfg.Translate, log)
		if err != nil {
			log.Fatal().Err(err).Msg("translate provider")
		}
	} else {
		translator = translate.NewNopProvider()
	}

	bundle, err := i18n.NewBundle(i18n.LocalesFS, defaultLang)
	if err != nil {
		log.Fatal().Err(err).Msg("locales")
	}

	// ---- Delivery worker pool ----
	pool := worker.NewPool(cfg.Broadcast.Workers, log)
	pool.Start(ctx)
	defer pool.Stop()

	// ---- Telegram ----
	// Mode "noop" logs outbound messages instead of talking to Telegram and
	// skips polling entirely; anything else is treated as polling.
	mode := strings.ToLower(cfg.Bot.Mode)
	var (
		sendAdapter adapter.TelegramBotAdapter
		botAdapter  *tele.RealBotAdapter
	)
	if mode == "noop" {
		if !cfg.Runtime.Dev {
			log.Warn().Msg("noop bot mode outside dev, no messages will reach Telegram")
		}
		sendAdapter = tele.NewNoopBotAdapter(log)
	} else {
		if mode != "polling" {
			log.Warn().Str("mode", cfg.Bot.Mode).Msg("bot mode not implemented, falling back to polling")
		}
		botAdapter, err = tele.NewRealBotAdapter(&cfg.Bot, rateLimiter, log)
		if err != nil {
			log.Fatal().Err(err).Msg("telegram")
		}
		sendAdapter = botAdapter
	}

	// ---- Use cases ----
	subUC := usecase.NewSubscriptionUseCase(subscriberRepo, log)
	weatherUC := usecase.NewWeatherUseCase(weatherProvider, translator, bundle, log)
	dispatchUC := usecase.NewDispatchUseCase(subscriberRepo, weatherUC, sendAdapter, pool, cfg.Broadcast.ThrottlePerSec, log)
	convUC := usecase.NewConversationUseCase(stateRepo, subUC, weatherUC, dispatchUC, sendAdapter, bundle, cfg.Broadcast.Interval, log)
	statsUC := usecase.NewStatsUseCase(subscriberRepo, dispatchUC, log)

	if botAdapter != nil {
		botAdapter.AttachFacade(application.NewBotFacade(convUC))

		// A crashed polling loop is restarted with a delay instead of taking
		// the process down; the scheduler keeps running throughout.
		go func() {
			for {
				err := botAdapter.StartPolling(ctx)
				if err == nil || errors.Is(err, context.Canceled) {
					return
				}
				log.Error().Err(err).Dur("restart_in", pollingRestartDelay).Msg("telegram polling crashed, restarting")
				select {
				case <-ctx.Done():
					return
				case <-time.After(pollingRestartDelay):
				}
			}
		}()
	}

	// ---- Broadcast scheduler ----
	broadcastWorker := sched.NewBroadcastWorker(cfg.Broadcast.Interval, dispatchUC, log)
	go func() { _ = broadcastWorker.Run(ctx) }()

	// ---- Ops server ----
	opsServer := web.NewServer(&cfg.Web, statsUC, log)
	go func() {
		if err := opsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("ops server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	log.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := opsServer.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("ops server shutdown")
	}
	if botAdapter != nil {
		botAdapter.StopPolling()
	}
	cancel()
}
