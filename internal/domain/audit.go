package domain

import "time"

// AuditLog records a player-visible economic event.
type AuditLog struct {
	ID        int64          `db:"id" json:"id"`
	PlayerID  int64          `db:"player_id" json:"player_id"`
	Action    string         `db:"action" json:"action"`
	Details   map[string]any `db:"details" json:"details"`
	IP        string         `db:"ip" json:"ip,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}

const (
	AuditActionLogin           = "login"
	AuditActionUpgradePurchase = "upgrade_purchase"
	AuditActionTransferOut     = "transfer_out"
	AuditActionTransferIn      = "transfer_in"
	AuditActionAchievement     = "achievement_unlock"
)
