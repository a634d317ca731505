package http

import (
	"time"

	"telegram_clicker/internal/config"
	"telegram_clicker/internal/http/handlers"
	"telegram_clicker/internal/http/middleware"
	"telegram_clicker/internal/initdata"
	"telegram_clicker/internal/service"
	"telegram_clicker/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// wsStatePeriod is how often an open stream receives a fresh balance.
const wsStatePeriod = 5 * time.Second

type Deps struct {
	Config   *config.Config
	Game     *service.GameService
	Tokens   *service.TokenService
	Verifier *initdata.Verifier
	Limiter  *middleware.RateLimiter
	Hub      *ws.Hub

	DB      handlers.Pinger
	Cache   handlers.Pinger
	Version string
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	cfg := d.Config

	h := handlers.NewHandler(d.Game, d.Verifier, d.Tokens, handlers.HandlerConfig{
		InitDataMaxAge: cfg.InitDataMaxAge,
		Notifier:       d.Hub,
	})
	healthHandler := handlers.NewHealthHandler(d.DB, d.Cache, d.Version)

	// Health checks and metrics (no rate limiting)
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := middleware.Authenticate(middleware.AuthConfig{
		Verifier: d.Verifier,
		Tokens:   d.Tokens,
		Players:  d.Game,
		Header:   cfg.InitDataHeader,
		MaxAge:   cfg.InitDataMaxAge,
	})

	v1 := r.Group("/api/v1")
	v1.Use(d.Limiter.ByIP("api", cfg.APIRateLimit, cfg.APIRateWindow))

	v1.POST("/auth", d.Limiter.ByIP("auth", cfg.AuthRateLimit, cfg.AuthRateWindow), h.Auth)
	v1.GET("/leaderboard", h.Leaderboard)

	player := v1.Group("", auth)
	{
		player.GET("/me", h.Me)
		player.GET("/history", h.History)
		player.POST("/tap", d.Limiter.ByPlayer("tap", cfg.TapRateLimit, cfg.TapRateWindow), h.Tap)
		player.GET("/upgrades", h.Upgrades)
		player.POST("/upgrades/:id/buy", h.BuyUpgrade)
		player.POST("/transfer", h.Transfer)
		player.GET("/achievements", h.Achievements)
	}

	r.GET("/ws", ws.HandleWS(ws.HandlerConfig{
		Verifier:      d.Verifier,
		Players:       d.Game,
		Game:          d.Game,
		Hub:           d.Hub,
		MaxAge:        cfg.InitDataMaxAge,
		AllowedOrigin: cfg.AllowedOrigin,
		StatePeriod:   wsStatePeriod,
		TapLimit: ws.TapLimit{
			Limiter: d.Limiter,
			Max:     cfg.TapRateLimit,
			Window:  cfg.TapRateWindow,
		},
	}))
}
