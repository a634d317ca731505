package ws

import (
	"context"
	"net/http"
	"time"

	"telegram_clicker/internal/domain"
	"telegram_clicker/internal/http/middleware"
	"telegram_clicker/internal/initdata"
	"telegram_clicker/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Resolver maps a verified Telegram identity to a player.
type Resolver interface {
	Resolve(ctx context.Context, id domain.TelegramIdentity) (*domain.Player, error)
}

type HandlerConfig struct {
	Verifier      *initdata.Verifier
	Players       Resolver
	Game          Game
	Hub           *Hub
	MaxAge        time.Duration
	AllowedOrigin string
	StatePeriod   time.Duration
	TapLimit      TapLimit
}

// HandleWS upgrades a Mini App connection. Browsers cannot set headers on a
// websocket handshake, so init data arrives as the init_data query parameter.
func HandleWS(cfg HandlerConfig) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if cfg.AllowedOrigin == "" || cfg.AllowedOrigin == "*" {
				return true
			}
			return r.Header.Get("Origin") == cfg.AllowedOrigin
		},
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()

		raw := c.Query("init_data")
		if raw == "" {
			middleware.AuthFailures.WithLabelValues("missing_credentials").Inc()
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		data, err := middleware.VerifyInitData(cfg.Verifier, raw, cfg.MaxAge)
		if err != nil {
			reason := initdata.Reason(err)
			middleware.AuthFailures.WithLabelValues(reason).Inc()
			logger.WithContext(ctx).Warn("ws: init data rejected", "reason", reason, "client_ip", c.ClientIP())
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		player, err := cfg.Players.Resolve(ctx, middleware.IdentityFromInitData(data))
		if err != nil {
			logger.WithContext(ctx).Error("ws: resolve player failed", "tg_id", data.User.ID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		middleware.AuthSuccess.WithLabelValues("ws").Inc()

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.WithContext(ctx).Warn("ws: upgrade failed", "error", err)
			return
		}

		// the request context ends when the handler returns
		client := NewClient(player.ID, conn, cfg.Hub, cfg.Game, cfg.StatePeriod, cfg.TapLimit)
		go client.Run(context.WithoutCancel(ctx))
	}
}
