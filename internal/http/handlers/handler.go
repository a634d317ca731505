package handlers

import (
	"context"
	"net/http"
	"time"

	"telegram_clicker/internal/domain"
	"telegram_clicker/internal/http/middleware"
	"telegram_clicker/internal/initdata"
	"telegram_clicker/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Game is the part of service.GameService the HTTP API uses.
type Game interface {
	Login(ctx context.Context, id domain.TelegramIdentity, ip, source string) (*domain.Player, error)
	State(ctx context.Context, playerID int64) (*service.State, error)
	Tap(ctx context.Context, playerID int64, taps int) (*domain.TapResult, error)
	Upgrades(ctx context.Context, playerID int64) ([]domain.Upgrade, error)
	BuyUpgrade(ctx context.Context, playerID, upgradeID int64) (*service.PurchaseResult, error)
	Transfer(ctx context.Context, fromID int64, to domain.Recipient, amount int64, key uuid.UUID) (*service.TransferResult, error)
	Achievements(ctx context.Context, playerID int64) ([]domain.Achievement, error)
	Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
	History(ctx context.Context, playerID int64, limit int) ([]*domain.AuditLog, error)
}

// TransferNotifier pushes incoming transfers to the recipient's live
// sessions.
type TransferNotifier interface {
	NotifyTransfer(fromID, toID, amount int64)
}

type HandlerConfig struct {
	// InitDataMaxAge bounds auth_date on POST /auth. Zero disables the check.
	InitDataMaxAge time.Duration
	// MaxInitDataLen caps the init_data body field.
	MaxInitDataLen int
	// Notifier is optional.
	Notifier TransferNotifier
}

type Handler struct {
	game     Game
	verifier *initdata.Verifier
	tokens   *service.TokenService
	cfg      HandlerConfig
}

func NewHandler(game Game, verifier *initdata.Verifier, tokens *service.TokenService, cfg HandlerConfig) *Handler {
	if cfg.MaxInitDataLen <= 0 {
		cfg.MaxInitDataLen = 4096
	}
	return &Handler{
		game:     game,
		verifier: verifier,
		tokens:   tokens,
		cfg:      cfg,
	}
}

// playerID extracts the authenticated player or writes a 401.
func playerID(c *gin.Context) (int64, bool) {
	id, ok := middleware.PlayerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return 0, false
	}
	return id, true
}
