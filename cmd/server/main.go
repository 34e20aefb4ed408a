package main

import (
	"context"

	"github.com/ebisa/bunamatch/internal/app"
	"github.com/ebisa/bunamatch/internal/bot"
	"github.com/ebisa/bunamatch/internal/cache"
	"github.com/ebisa/bunamatch/internal/config"
	"github.com/ebisa/bunamatch/internal/db"
	"github.com/ebisa/bunamatch/internal/logger"
	"github.com/ebisa/bunamatch/internal/sealed"
	"github.com/ebisa/bunamatch/internal/server"
	"github.com/ebisa/bunamatch/internal/service/admin"
	"github.com/ebisa/bunamatch/internal/service/billing"
	"github.com/ebisa/bunamatch/internal/service/chat"
	"github.com/ebisa/bunamatch/internal/service/matchmaking"
	"github.com/ebisa/bunamatch/internal/service/profile"
	"github.com/ebisa/bunamatch/internal/telegram"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	if cfg.Telegram.BotToken == "" {
		log.Error("BOT_TOKEN is not set")
		return
	}

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}

	sealer, err := sealed.New(cfg.SealingKey)
	if err != nil {
		log.Error("invalid sealing key", "err", err)
		return
	}

	appCtx := app.New(database, redisCache, log, cfg)

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(database); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	dispatcher := bot.NewDispatcher(
		appCtx,
		telegram.NewClient(cfg, log),
		matchmaking.NewService(appCtx),
		chat.NewService(appCtx, sealer),
		billing.NewService(appCtx),
		profile.NewService(appCtx),
	)

	httpApp := server.New(appCtx, dispatcher, admin.NewService(appCtx))

	addr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	log.Info("starting http server", "addr", addr)

	if err := httpApp.Listen(addr); err != nil {
		log.Error("http server stopped", "err", err)
	}
}
