package service

import (
	"context"
	"errors"
	"fmt"

	"telegram_clicker/internal/domain"
	"telegram_clicker/internal/logger"

	"github.com/google/uuid"
)

var ErrInvalidTaps = errors.New("invalid tap count")

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
)

// PlayerStore is the stored-procedure surface the game relies on.
type PlayerStore interface {
	Upsert(ctx context.Context, id domain.TelegramIdentity) (*domain.Player, error)
	GetByTgID(ctx context.Context, tgID int64) (*domain.Player, error)
	GetByUsername(ctx context.Context, username string) (*domain.Player, error)
	AccruePassiveIncome(ctx context.Context, playerID int64) (*domain.Accrual, error)
	ApplyTaps(ctx context.Context, playerID int64, taps int) (*domain.TapResult, error)
	ListUpgrades(ctx context.Context, playerID int64) ([]domain.Upgrade, error)
	PurchaseUpgrade(ctx context.Context, playerID, upgradeID int64) (*domain.Purchase, error)
	TransferCoins(ctx context.Context, fromID, toID, amount int64, key uuid.UUID) (*domain.Transfer, error)
	CheckAchievements(ctx context.Context, playerID int64) ([]domain.Achievement, error)
	ListAchievements(ctx context.Context, playerID int64) ([]domain.Achievement, error)
	Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
}

// State is a player snapshot after passive income has been credited.
type State struct {
	Player          domain.Player        `json:"player"`
	Accrued         int64                `json:"accrued"`
	NewAchievements []domain.Achievement `json:"new_achievements,omitempty"`
}

type PurchaseResult struct {
	domain.Purchase
	NewAchievements []domain.Achievement `json:"new_achievements,omitempty"`
}

type TransferResult struct {
	domain.Transfer
	Recipient       domain.Player        `json:"recipient"`
	NewAchievements []domain.Achievement `json:"new_achievements,omitempty"`
}

// GameService is shared by the HTTP API, the websocket stream and the bot.
type GameService struct {
	players     PlayerStore
	audit       *AuditService
	leaderboard *LeaderboardCache
	maxTaps     int
}

func NewGameService(players PlayerStore, audit *AuditService, leaderboard *LeaderboardCache, maxTaps int) *GameService {
	if maxTaps <= 0 {
		maxTaps = 100
	}
	return &GameService{
		players:     players,
		audit:       audit,
		leaderboard: leaderboard,
		maxTaps:     maxTaps,
	}
}

func (s *GameService) MaxTaps() int {
	return s.maxTaps
}

// Login maps an authenticated Telegram identity to a player, creating it on
// first sight.
func (s *GameService) Login(ctx context.Context, id domain.TelegramIdentity, ip, source string) (*domain.Player, error) {
	p, err := s.players.Upsert(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("upsert player: %w", err)
	}
	if s.audit != nil {
		s.audit.LogLogin(ctx, p.ID, ip, source)
	}
	return p, nil
}

// Resolve returns the existing player for id, creating it if needed. Unlike
// Login it does not write on every call.
func (s *GameService) Resolve(ctx context.Context, id domain.TelegramIdentity) (*domain.Player, error) {
	p, err := s.players.GetByTgID(ctx, id.TgID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, domain.ErrPlayerNotFound) {
		return nil, fmt.Errorf("find player: %w", err)
	}
	return s.Login(ctx, id, "", "init_data")
}

func (s *GameService) PlayerByTgID(ctx context.Context, tgID int64) (*domain.Player, error) {
	return s.players.GetByTgID(ctx, tgID)
}

// State credits passive income and unlocks any achievements it triggered.
func (s *GameService) State(ctx context.Context, playerID int64) (*State, error) {
	acc, err := s.players.AccruePassiveIncome(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("accrue passive income: %w", err)
	}

	st := &State{Player: acc.Player, Accrued: acc.Accrued}
	st.NewAchievements = s.checkAchievements(ctx, playerID)
	return st, nil
}

func (s *GameService) Tap(ctx context.Context, playerID int64, taps int) (*domain.TapResult, error) {
	if taps <= 0 || taps > s.maxTaps {
		return nil, ErrInvalidTaps
	}

	res, err := s.players.ApplyTaps(ctx, playerID, taps)
	if err != nil {
		return nil, fmt.Errorf("apply taps: %w", err)
	}
	return res, nil
}

func (s *GameService) Upgrades(ctx context.Context, playerID int64) ([]domain.Upgrade, error) {
	return s.players.ListUpgrades(ctx, playerID)
}

func (s *GameService) BuyUpgrade(ctx context.Context, playerID, upgradeID int64) (*PurchaseResult, error) {
	if upgradeID <= 0 {
		return nil, domain.ErrUpgradeNotFound
	}
	// the purchase must see income earned up to now
	if _, err := s.players.AccruePassiveIncome(ctx, playerID); err != nil {
		return nil, fmt.Errorf("accrue passive income: %w", err)
	}

	p, err := s.players.PurchaseUpgrade(ctx, playerID, upgradeID)
	if err != nil {
		return nil, fmt.Errorf("purchase upgrade: %w", err)
	}
	if s.audit != nil {
		s.audit.LogPurchase(ctx, playerID, p)
	}

	return &PurchaseResult{Purchase: *p, NewAchievements: s.checkAchievements(ctx, playerID)}, nil
}

// Transfer sends coins to another player. A zero key gets a fresh one, so
// only callers that retry need to supply their own.
func (s *GameService) Transfer(ctx context.Context, fromID int64, to domain.Recipient, amount int64, key uuid.UUID) (*TransferResult, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	recipient, err := s.resolveRecipient(ctx, to)
	if err != nil {
		return nil, err
	}
	if recipient.ID == fromID {
		return nil, domain.ErrSelfTransfer
	}

	if key == uuid.Nil {
		key = uuid.New()
	}
	if _, err := s.players.AccruePassiveIncome(ctx, fromID); err != nil {
		return nil, fmt.Errorf("accrue passive income: %w", err)
	}

	t, err := s.players.TransferCoins(ctx, fromID, recipient.ID, amount, key)
	if err != nil {
		return nil, fmt.Errorf("transfer coins: %w", err)
	}
	res := &TransferResult{Transfer: *t, Recipient: *recipient}
	// a replay already logged and rewarded the original call
	if t.Replayed {
		return res, nil
	}

	if s.audit != nil {
		s.audit.LogTransfer(ctx, t)
	}
	res.NewAchievements = s.checkAchievements(ctx, fromID)
	return res, nil
}

func (s *GameService) resolveRecipient(ctx context.Context, to domain.Recipient) (*domain.Player, error) {
	var (
		p   *domain.Player
		err error
	)
	switch {
	case to.TgID != 0:
		p, err = s.players.GetByTgID(ctx, to.TgID)
	case to.Username != "":
		p, err = s.players.GetByUsername(ctx, to.Username)
	default:
		return nil, domain.ErrRecipientNotFound
	}

	if errors.Is(err, domain.ErrPlayerNotFound) {
		return nil, domain.ErrRecipientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find recipient: %w", err)
	}
	return p, nil
}

func (s *GameService) Achievements(ctx context.Context, playerID int64) ([]domain.Achievement, error) {
	return s.players.ListAchievements(ctx, playerID)
}

func (s *GameService) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}

	if cached, ok := s.leaderboard.Get(ctx, limit); ok {
		return cached, nil
	}

	entries, err := s.players.Leaderboard(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	s.leaderboard.Set(ctx, limit, entries)
	return entries, nil
}

func (s *GameService) History(ctx context.Context, playerID int64, limit int) ([]*domain.AuditLog, error) {
	if s.audit == nil {
		return nil, nil
	}
	return s.audit.History(ctx, playerID, limit)
}

// checkAchievements never fails the surrounding operation; achievements are
// re-checked on the next state sync anyway.
func (s *GameService) checkAchievements(ctx context.Context, playerID int64) []domain.Achievement {
	unlocked, err := s.players.CheckAchievements(ctx, playerID)
	if err != nil {
		logger.WithContext(ctx).Warn("achievement check failed", "player_id", playerID, "error", err)
		return nil
	}
	if s.audit != nil && len(unlocked) > 0 {
		s.audit.LogAchievements(ctx, playerID, unlocked)
	}
	return unlocked
}
