package domain

import (
	"time"

	"github.com/google/uuid"
)

// Transfer records a coin transfer between two players. IdempotencyKey makes
// retries of the same request a no-op in the database; Replayed marks a
// result returned for such a retry.
type Transfer struct {
	ID             int64     `db:"id" json:"id"`
	IdempotencyKey uuid.UUID `db:"idempotency_key" json:"idempotency_key"`
	FromPlayerID   int64     `db:"from_player_id" json:"from_player_id"`
	ToPlayerID     int64     `db:"to_player_id" json:"to_player_id"`
	Amount         int64     `db:"amount" json:"amount"`
	FromBalance    int64     `db:"from_balance" json:"from_balance"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	Replayed       bool      `db:"replayed" json:"replayed"`
}

// Recipient identifies the receiving player either by Telegram id or by
// username. Exactly one is set.
type Recipient struct {
	TgID     int64
	Username string
}
