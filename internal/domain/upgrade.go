package domain

// Upgrade is a purchasable income booster as seen by one player.
type Upgrade struct {
	ID            int64  `db:"id" json:"id"`
	Name          string `db:"name" json:"name"`
	Description   string `db:"description" json:"description,omitempty"`
	Level         int    `db:"level" json:"level"`
	MaxLevel      int    `db:"max_level" json:"max_level"`
	NextCost      int64  `db:"next_cost" json:"next_cost"`
	IncomePerHour int64  `db:"income_per_hour" json:"income_per_hour"`
	TapPower      int64  `db:"tap_power" json:"tap_power"`
}

func (u *Upgrade) Maxed() bool {
	return u.MaxLevel > 0 && u.Level >= u.MaxLevel
}

type Purchase struct {
	UpgradeID     int64 `json:"upgrade_id"`
	NewLevel      int   `json:"new_level"`
	Cost          int64 `json:"cost"`
	Coins         int64 `json:"coins"`
	IncomePerHour int64 `json:"income_per_hour"`
	TapPower      int64 `json:"tap_power"`
}
