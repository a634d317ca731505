package domain

import "time"

type Player struct {
	ID            int64     `db:"id" json:"id"`
	TgID          int64     `db:"tg_id" json:"tg_id"`
	Username      string    `db:"username" json:"username,omitempty"`
	FirstName     string    `db:"first_name" json:"first_name,omitempty"`
	LastName      string    `db:"last_name" json:"last_name,omitempty"`
	Coins         int64     `db:"coins" json:"coins"`
	IncomePerHour int64     `db:"income_per_hour" json:"income_per_hour"`
	TapPower      int64     `db:"tap_power" json:"tap_power"`
	TotalTaps     int64     `db:"total_taps" json:"total_taps"`
	LastSyncAt    time.Time `db:"last_sync_at" json:"last_sync_at"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// DisplayName returns @username when set, otherwise the first name.
func (p *Player) DisplayName() string {
	if p.Username != "" {
		return "@" + p.Username
	}
	if p.FirstName != "" {
		return p.FirstName
	}
	return "player"
}

// TelegramIdentity is the subset of a Telegram user stored on a player.
type TelegramIdentity struct {
	TgID      int64
	Username  string
	FirstName string
	LastName  string
}

// Accrual is the result of crediting passive income since the last sync.
type Accrual struct {
	Player  Player `json:"player"`
	Accrued int64  `json:"accrued"`
}

// TapResult is returned after applying a batch of taps.
type TapResult struct {
	Coins     int64 `json:"coins"`
	Earned    int64 `json:"earned"`
	TotalTaps int64 `json:"total_taps"`
}

// LeaderboardEntry is a row of the coins leaderboard.
type LeaderboardEntry struct {
	Rank      int    `json:"rank"`
	TgID      int64  `json:"tg_id"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	Coins     int64  `json:"coins"`
}
