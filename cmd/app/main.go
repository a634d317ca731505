package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"telegram_clicker/internal/bot"
	"telegram_clicker/internal/config"
	"telegram_clicker/internal/db"
	httpServer "telegram_clicker/internal/http"
	"telegram_clicker/internal/http/handlers"
	"telegram_clicker/internal/http/middleware"
	"telegram_clicker/internal/initdata"
	"telegram_clicker/internal/logger"
	"telegram_clicker/internal/repository"
	"telegram_clicker/internal/service"
	"telegram_clicker/internal/ws"

	"github.com/gin-gonic/gin"
)

// version is set with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("invalid configuration", "error", err)
	}
	logger.Init(cfg.LogLevel, cfg.LogJSON)

	ctx := context.Background()

	dbPool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("database connection failed", "error", err)
	}
	defer dbPool.Close()

	rdb := db.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	var cachePinger handlers.Pinger
	if rdb != nil {
		defer rdb.Close()
		cachePinger = handlers.PingerFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}

	players := repository.NewPlayerRepository(dbPool)
	audit := service.NewAuditService(repository.NewAuditRepository(dbPool))
	game := service.NewGameService(players, audit, service.NewLeaderboardCache(rdb, cfg.LeaderboardTTL), cfg.MaxTapsPerRequest)
	hub := ws.NewHub()

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery(), middleware.CORS(cfg.AllowedOrigin, cfg.InitDataHeader))

	httpServer.RegisterRoutes(r, httpServer.Deps{
		Config:   cfg,
		Game:     game,
		Tokens:   service.NewTokenService(cfg.JWTSecret, cfg.JWTTTL),
		Verifier: initdata.NewVerifier(cfg.BotToken),
		Limiter:  middleware.NewRateLimiter(rdb),
		Hub:      hub,
		DB:       dbPool,
		Cache:    cachePinger,
		Version:  version,
	})

	var chatBot *bot.Bot
	if cfg.BotEnabled {
		chatBot, err = bot.New(cfg.BotToken, game, hub, cfg.MiniAppURL)
		if err != nil {
			logger.Error("bot disabled: authorization failed", "error", err)
		} else {
			go chatBot.Start()
		}
	}

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	if chatBot != nil {
		chatBot.Stop()
	}

	hub.CloseAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
