package service

import (
	"context"

	"telegram_clicker/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type mockPlayerStore struct {
	mock.Mock
}

func (m *mockPlayerStore) Upsert(ctx context.Context, id domain.TelegramIdentity) (*domain.Player, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*domain.Player)
	return p, args.Error(1)
}

func (m *mockPlayerStore) GetByTgID(ctx context.Context, tgID int64) (*domain.Player, error) {
	args := m.Called(ctx, tgID)
	p, _ := args.Get(0).(*domain.Player)
	return p, args.Error(1)
}

func (m *mockPlayerStore) GetByUsername(ctx context.Context, username string) (*domain.Player, error) {
	args := m.Called(ctx, username)
	p, _ := args.Get(0).(*domain.Player)
	return p, args.Error(1)
}

func (m *mockPlayerStore) AccruePassiveIncome(ctx context.Context, playerID int64) (*domain.Accrual, error) {
	args := m.Called(ctx, playerID)
	a, _ := args.Get(0).(*domain.Accrual)
	return a, args.Error(1)
}

func (m *mockPlayerStore) ApplyTaps(ctx context.Context, playerID int64, taps int) (*domain.TapResult, error) {
	args := m.Called(ctx, playerID, taps)
	r, _ := args.Get(0).(*domain.TapResult)
	return r, args.Error(1)
}

func (m *mockPlayerStore) ListUpgrades(ctx context.Context, playerID int64) ([]domain.Upgrade, error) {
	args := m.Called(ctx, playerID)
	u, _ := args.Get(0).([]domain.Upgrade)
	return u, args.Error(1)
}

func (m *mockPlayerStore) PurchaseUpgrade(ctx context.Context, playerID, upgradeID int64) (*domain.Purchase, error) {
	args := m.Called(ctx, playerID, upgradeID)
	p, _ := args.Get(0).(*domain.Purchase)
	return p, args.Error(1)
}

func (m *mockPlayerStore) TransferCoins(ctx context.Context, fromID, toID, amount int64, key uuid.UUID) (*domain.Transfer, error) {
	args := m.Called(ctx, fromID, toID, amount, key)
	t, _ := args.Get(0).(*domain.Transfer)
	return t, args.Error(1)
}

func (m *mockPlayerStore) CheckAchievements(ctx context.Context, playerID int64) ([]domain.Achievement, error) {
	args := m.Called(ctx, playerID)
	a, _ := args.Get(0).([]domain.Achievement)
	return a, args.Error(1)
}

func (m *mockPlayerStore) ListAchievements(ctx context.Context, playerID int64) ([]domain.Achievement, error) {
	args := m.Called(ctx, playerID)
	a, _ := args.Get(0).([]domain.Achievement)
	return a, args.Error(1)
}

func (m *mockPlayerStore) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	args := m.Called(ctx, limit)
	e, _ := args.Get(0).([]domain.LeaderboardEntry)
	return e, args.Error(1)
}

type mockAuditStore struct {
	mock.Mock
}

func (m *mockAuditStore) Create(ctx context.Context, log *domain.AuditLog) error {
	return m.Called(ctx, log).Error(0)
}

func (m *mockAuditStore) GetByPlayerID(ctx context.Context, playerID int64, limit int) ([]*domain.AuditLog, error) {
	args := m.Called(ctx, playerID, limit)
	l, _ := args.Get(0).([]*domain.AuditLog)
	return l, args.Error(1)
}
