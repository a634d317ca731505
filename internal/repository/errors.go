package repository

import (
	"errors"

	"telegram_clicker/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Stored procedures signal business rule violations with
// RAISE EXCEPTION '<code>' (SQLSTATE P0001). The message is the code.
const raiseException = "P0001"

var procErrors = map[string]error{
	"player_not_found":    domain.ErrPlayerNotFound,
	"insufficient_funds":  domain.ErrInsufficientFunds,
	"upgrade_not_found":   domain.ErrUpgradeNotFound,
	"upgrade_maxed":       domain.ErrUpgradeMaxed,
	"self_transfer":       domain.ErrSelfTransfer,
	"invalid_amount":      domain.ErrInvalidAmount,
	"recipient_not_found": domain.ErrRecipientNotFound,
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrPlayerNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == raiseException {
		if mapped, ok := procErrors[pgErr.Message]; ok {
			return mapped
		}
	}
	return err
}
