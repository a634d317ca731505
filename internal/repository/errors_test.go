package repository

import (
	"errors"
	"fmt"
	"testing"

	"telegram_clicker/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	other := errors.New("connection reset")

	tests := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"no rows", pgx.ErrNoRows, domain.ErrPlayerNotFound},
		{"wrapped no rows", fmt.Errorf("scan: %w", pgx.ErrNoRows), domain.ErrPlayerNotFound},
		{"insufficient", &pgconn.PgError{Code: "P0001", Message: "insufficient_funds"}, domain.ErrInsufficientFunds},
		{"maxed", &pgconn.PgError{Code: "P0001", Message: "upgrade_maxed"}, domain.ErrUpgradeMaxed},
		{"self transfer", &pgconn.PgError{Code: "P0001", Message: "self_transfer"}, domain.ErrSelfTransfer},
		{"recipient", &pgconn.PgError{Code: "P0001", Message: "recipient_not_found"}, domain.ErrRecipientNotFound},
		{"other", other, other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mapError(tt.in))
		})
	}
}

func TestMapError_UnknownProcErrorPassesThrough(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "P0001", Message: "something_new"}
	assert.Same(t, pgErr, mapError(pgErr))

	unique := &pgconn.PgError{Code: "23505", Message: "insufficient_funds"}
	assert.Same(t, unique, mapError(unique))
}
