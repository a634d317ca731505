package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"telegram_clicker/internal/domain"
	"telegram_clicker/internal/initdata"
	"telegram_clicker/internal/logger"
	"telegram_clicker/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	ctxPlayerID = "player_id"
	ctxTgID     = "tg_id"
	ctxInitData = "init_data"

	// Telegram's documented scheme for sending init data in Authorization.
	tmaScheme    = "tma "
	bearerScheme = "Bearer "
)

// PlayerResolver maps a verified Telegram identity to a player record.
type PlayerResolver interface {
	Resolve(ctx context.Context, id domain.TelegramIdentity) (*domain.Player, error)
}

type AuthConfig struct {
	Verifier *initdata.Verifier
	Tokens   *service.TokenService
	Players  PlayerResolver

	// Header carries raw init data. Authorization: tma <init data> is
	// accepted regardless.
	Header string
	MaxAge time.Duration
}

// Authenticate accepts init data or a session JWT. Every failure is reported
// to the client as the same 401; the reason goes to logs and metrics only.
func Authenticate(cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw, ok := InitDataFromRequest(c.Request, cfg.Header); ok {
			authenticateInitData(c, cfg, raw)
			return
		}

		auth := c.GetHeader("Authorization")
		if strings.HasPrefix(auth, bearerScheme) && cfg.Tokens != nil {
			claims, err := cfg.Tokens.Parse(strings.TrimPrefix(auth, bearerScheme))
			if err != nil {
				unauthorized(c, "invalid_token", err)
				return
			}
			AuthSuccess.WithLabelValues("jwt").Inc()
			c.Set(ctxPlayerID, claims.PlayerID)
			c.Set(ctxTgID, claims.TgID)
			c.Next()
			return
		}

		unauthorized(c, "missing_credentials", nil)
	}
}

func authenticateInitData(c *gin.Context, cfg AuthConfig, raw string) {
	data, err := VerifyInitData(cfg.Verifier, raw, cfg.MaxAge)
	if err != nil {
		unauthorized(c, initdata.Reason(err), err)
		return
	}

	p, err := cfg.Players.Resolve(c.Request.Context(), IdentityFromInitData(data))
	if err != nil {
		logger.WithContext(c.Request.Context()).Error("resolve player failed", "tg_id", data.User.ID, "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	AuthSuccess.WithLabelValues("init_data").Inc()
	c.Set(ctxPlayerID, p.ID)
	c.Set(ctxTgID, p.TgID)
	c.Set(ctxInitData, data)
	c.Next()
}

// VerifyInitData runs signature and optional freshness checks.
func VerifyInitData(v *initdata.Verifier, raw string, maxAge time.Duration) (*initdata.Data, error) {
	data, err := v.Verify(raw)
	if err != nil {
		return nil, err
	}
	if err := data.CheckFreshness(maxAge, time.Now()); err != nil {
		return nil, err
	}
	return data, nil
}

// InitDataFromRequest reads init data from the configured header or from
// Authorization: tma <init data>.
func InitDataFromRequest(r *http.Request, header string) (string, bool) {
	if header != "" {
		if v := r.Header.Get(header); v != "" {
			return v, true
		}
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, tmaScheme) {
		return strings.TrimPrefix(auth, tmaScheme), true
	}
	return "", false
}

func IdentityFromInitData(d *initdata.Data) domain.TelegramIdentity {
	return domain.TelegramIdentity{
		TgID:      d.User.ID,
		Username:  d.User.Username,
		FirstName: d.User.FirstName,
		LastName:  d.User.LastName,
	}
}

func unauthorized(c *gin.Context, reason string, err error) {
	AuthFailures.WithLabelValues(reason).Inc()
	logger.WithContext(c.Request.Context()).Warn("authentication rejected",
		"reason", reason,
		"path", c.FullPath(),
		"client_ip", c.ClientIP(),
		"error", err,
	)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}

// PlayerID returns the authenticated player id set by Authenticate.
func PlayerID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(ctxPlayerID)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok && id > 0
}

func TgID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(ctxTgID)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

// InitData returns the verified payload when the request used init data.
func InitData(c *gin.Context) (*initdata.Data, bool) {
	v, ok := c.Get(ctxInitData)
	if !ok {
		return nil, false
	}
	d, ok := v.(*initdata.Data)
	return d, ok
}
