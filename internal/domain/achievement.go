package domain

import "time"

type Achievement struct {
	Code        string     `db:"code" json:"code"`
	Title       string     `db:"title" json:"title"`
	Description string     `db:"description" json:"description,omitempty"`
	Reward      int64      `db:"reward" json:"reward"`
	UnlockedAt  *time.Time `db:"unlocked_at" json:"unlocked_at,omitempty"`
}

func (a *Achievement) Unlocked() bool {
	return a.UnlockedAt != nil
}
