package repository

import (
	"context"
	"strings"

	"telegram_clicker/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const playerColumns = `id, tg_id, COALESCE(username, ''), COALESCE(first_name, ''), COALESCE(last_name, ''),
	coins, income_per_hour, tap_power, total_taps, last_sync_at, created_at`

// PlayerRepository wraps the game's stored procedures. All balance changes
// happen inside the database; this type only calls and scans.
type PlayerRepository struct {
	db *pgxpool.Pool
}

func NewPlayerRepository(db *pgxpool.Pool) *PlayerRepository {
	return &PlayerRepository{db: db}
}

func scanPlayer(row pgx.Row, extra ...any) (*domain.Player, error) {
	var p domain.Player
	dest := append([]any{
		&p.ID,
		&p.TgID,
		&p.Username,
		&p.FirstName,
		&p.LastName,
		&p.Coins,
		&p.IncomePerHour,
		&p.TapPower,
		&p.TotalTaps,
		&p.LastSyncAt,
		&p.CreatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, mapError(err)
	}
	return &p, nil
}

// Upsert creates the player on first login and refreshes the Telegram profile
// fields on every later one.
func (r *PlayerRepository) Upsert(ctx context.Context, id domain.TelegramIdentity) (*domain.Player, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+playerColumns+` FROM upsert_player($1, $2, $3, $4)`,
		id.TgID, nullIfEmpty(id.Username), nullIfEmpty(id.FirstName), nullIfEmpty(id.LastName),
	)
	return scanPlayer(row)
}

func (r *PlayerRepository) GetByTgID(ctx context.Context, tgID int64) (*domain.Player, error) {
	row := r.db.QueryRow(ctx, `SELECT `+playerColumns+` FROM players WHERE tg_id = $1`, tgID)
	return scanPlayer(row)
}

// GetByUsername matches case-insensitively; a leading @ is ignored.
func (r *PlayerRepository) GetByUsername(ctx context.Context, username string) (*domain.Player, error) {
	username = strings.TrimPrefix(username, "@")
	row := r.db.QueryRow(ctx,
		`SELECT `+playerColumns+` FROM players WHERE lower(username) = lower($1)`,
		username,
	)
	return scanPlayer(row)
}

// AccruePassiveIncome credits income earned since the last sync and returns
// the updated player.
func (r *PlayerRepository) AccruePassiveIncome(ctx context.Context, playerID int64) (*domain.Accrual, error) {
	var accrued int64
	row := r.db.QueryRow(ctx,
		`SELECT `+playerColumns+`, accrued FROM accrue_passive_income($1)`,
		playerID,
	)
	p, err := scanPlayer(row, &accrued)
	if err != nil {
		return nil, err
	}
	return &domain.Accrual{Player: *p, Accrued: accrued}, nil
}

func (r *PlayerRepository) ApplyTaps(ctx context.Context, playerID int64, taps int) (*domain.TapResult, error) {
	var res domain.TapResult
	err := r.db.QueryRow(ctx,
		`SELECT coins, earned, total_taps FROM apply_taps($1, $2)`,
		playerID, taps,
	).Scan(&res.Coins, &res.Earned, &res.TotalTaps)
	if err != nil {
		return nil, mapError(err)
	}
	return &res, nil
}

func (r *PlayerRepository) ListUpgrades(ctx context.Context, playerID int64) ([]domain.Upgrade, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, COALESCE(description, ''), level, max_level, next_cost, income_per_hour, tap_power
		 FROM list_upgrades($1)
		 ORDER BY id`,
		playerID,
	)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var res []domain.Upgrade
	for rows.Next() {
		var u domain.Upgrade
		if err := rows.Scan(&u.ID, &u.Name, &u.Description, &u.Level, &u.MaxLevel,
			&u.NextCost, &u.IncomePerHour, &u.TapPower); err != nil {
			return nil, err
		}
		res = append(res, u)
	}
	return res, mapError(rows.Err())
}

func (r *PlayerRepository) PurchaseUpgrade(ctx context.Context, playerID, upgradeID int64) (*domain.Purchase, error) {
	p := domain.Purchase{UpgradeID: upgradeID}
	err := r.db.QueryRow(ctx,
		`SELECT new_level, cost, coins, income_per_hour, tap_power FROM purchase_upgrade($1, $2)`,
		playerID, upgradeID,
	).Scan(&p.NewLevel, &p.Cost, &p.Coins, &p.IncomePerHour, &p.TapPower)
	if err != nil {
		return nil, mapError(err)
	}
	return &p, nil
}

// TransferCoins moves amount between two players atomically. Repeating a call
// with the same key returns the original transfer with Replayed set.
func (r *PlayerRepository) TransferCoins(ctx context.Context, fromID, toID, amount int64, key uuid.UUID) (*domain.Transfer, error) {
	t := domain.Transfer{
		IdempotencyKey: key,
		FromPlayerID:   fromID,
		ToPlayerID:     toID,
		Amount:         amount,
	}
	err := r.db.QueryRow(ctx,
		`SELECT id, from_balance, created_at, replayed FROM transfer_coins($1, $2, $3, $4)`,
		fromID, toID, amount, key,
	).Scan(&t.ID, &t.FromBalance, &t.CreatedAt, &t.Replayed)
	if err != nil {
		return nil, mapError(err)
	}
	return &t, nil
}

// CheckAchievements unlocks any achievements the player now qualifies for and
// returns only the newly unlocked ones.
func (r *PlayerRepository) CheckAchievements(ctx context.Context, playerID int64) ([]domain.Achievement, error) {
	return r.queryAchievements(ctx,
		`SELECT code, title, COALESCE(description, ''), reward, unlocked_at FROM check_achievements($1)`,
		playerID)
}

func (r *PlayerRepository) ListAchievements(ctx context.Context, playerID int64) ([]domain.Achievement, error) {
	return r.queryAchievements(ctx,
		`SELECT code, title, COALESCE(description, ''), reward, unlocked_at FROM list_achievements($1)`,
		playerID)
}

func (r *PlayerRepository) queryAchievements(ctx context.Context, sql string, playerID int64) ([]domain.Achievement, error) {
	rows, err := r.db.Query(ctx, sql, playerID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var res []domain.Achievement
	for rows.Next() {
		var a domain.Achievement
		if err := rows.Scan(&a.Code, &a.Title, &a.Description, &a.Reward, &a.UnlockedAt); err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, mapError(rows.Err())
}

// Leaderboard returns the top players by coins.
func (r *PlayerRepository) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT tg_id, COALESCE(username, ''), COALESCE(first_name, ''), coins
		FROM players
		ORDER BY coins DESC, id
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.LeaderboardEntry
	rank := 1
	for rows.Next() {
		e := domain.LeaderboardEntry{Rank: rank}
		if err := rows.Scan(&e.TgID, &e.Username, &e.FirstName, &e.Coins); err != nil {
			return nil, err
		}
		res = append(res, e)
		rank++
	}
	return res, rows.Err()
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
