package service

import (
	"context"

	"telegram_clicker/internal/domain"
	"telegram_clicker/internal/logger"
)

type AuditStore interface {
	Create(ctx context.Context, log *domain.AuditLog) error
	GetByPlayerID(ctx context.Context, playerID int64, limit int) ([]*domain.AuditLog, error)
}

// AuditService records economic events. Write failures are logged and never
// fail the operation being audited.
type AuditService struct {
	repo AuditStore
}

func NewAuditService(repo AuditStore) *AuditService {
	return &AuditService{repo: repo}
}

func (s *AuditService) Log(ctx context.Context, playerID int64, action, ip string, details map[string]any) {
	entry := &domain.AuditLog{
		PlayerID: playerID,
		Action:   action,
		Details:  details,
		IP:       ip,
	}
	if entry.Details == nil {
		entry.Details = map[string]any{}
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		logger.WithContext(ctx).Error("failed to create audit log", "error", err, "action", action, "player_id", playerID)
	}
}

func (s *AuditService) LogLogin(ctx context.Context, playerID int64, ip, source string) {
	s.Log(ctx, playerID, domain.AuditActionLogin, ip, map[string]any{"source": source})
}

func (s *AuditService) LogPurchase(ctx context.Context, playerID int64, p *domain.Purchase) {
	s.Log(ctx, playerID, domain.AuditActionUpgradePurchase, "", map[string]any{
		"upgrade_id": p.UpgradeID,
		"new_level":  p.NewLevel,
		"cost":       p.Cost,
	})
}

// LogTransfer writes one entry for each side of the transfer.
func (s *AuditService) LogTransfer(ctx context.Context, t *domain.Transfer) {
	s.Log(ctx, t.FromPlayerID, domain.AuditActionTransferOut, "", map[string]any{
		"transfer_id": t.ID,
		"to":          t.ToPlayerID,
		"amount":      t.Amount,
	})
	s.Log(ctx, t.ToPlayerID, domain.AuditActionTransferIn, "", map[string]any{
		"transfer_id": t.ID,
		"from":        t.FromPlayerID,
		"amount":      t.Amount,
	})
}

func (s *AuditService) LogAchievements(ctx context.Context, playerID int64, unlocked []domain.Achievement) {
	for _, a := range unlocked {
		s.Log(ctx, playerID, domain.AuditActionAchievement, "", map[string]any{
			"code":   a.Code,
			"reward": a.Reward,
		})
	}
}

func (s *AuditService) History(ctx context.Context, playerID int64, limit int) ([]*domain.AuditLog, error) {
	return s.repo.GetByPlayerID(ctx, playerID, limit)
}
