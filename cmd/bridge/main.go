// File: cmd/bridge/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"telegram-sms-bridge/internal/config"
	tele "telegram-sms-bridge/internal/infra/adapters/telegram"
	"telegram-sms-bridge/internal/infra/adapters/twilio"
	pg "telegram-sms-bridge/internal/infra/db/postgres"
	"telegram-sms-bridge/internal/infra/logging"
	"telegram-sms-bridge/internal/infra/metrics"
	red "telegram-sms-bridge/internal/infra/redis"
	"telegram-sms-bridge/internal/infra/web"
	"telegram-sms-bridge/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()
	if err := pg.EnsureSchema(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("schema setup failed")
	}
	mappingRepo := pg.NewPostgresMappingRepo(pool)

	// ---- Redis (optional, command rate limiting only) ----
	var rateLimiter *red.RateLimiter
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connect failed")
		}
		defer redisClient.Close()
		rateLimiter = red.NewRateLimiter(redisClient)
	} else {
		logger.Info().Msg("redis.url not set, command rate limiting disabled")
	}

	// ---- SMS provider ----
	smsProvider := twilio.NewProvider(logger, &cfg.Twilio, nil)

	// ---- Use cases ----
	correspondentUC := usecase.NewCorrespondentUseCase(mappingRepo, logger)

	relayUC := usecase.NewRelayUseCase(mappingRepo, smsProvider, cfg.Bot.CommandMarker, cfg.Twilio.SendTimeout, logger)

	// ---- Telegram ----
	bot, err := tele.NewBot(&cfg.Bot, correspondentUC, relayUC, rateLimiter, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("telegram init failed")
	}
	relayUC.BindChat(bot)
	go func() {
		if err := bot.StartPolling(ctx); err != nil && err != context.Canceled {
			logger.Error().Err(err).Msg("telegram polling stopped")
		}
	}()

	// ---- Webhook server ----
	srv := web.NewServer(relayUC, cfg.Webhook.Path, logger)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Webhook.Port),
		Handler: srv.Router(),
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Str("path", cfg.Webhook.Path).Msg("webhook listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown error")
	}
}
