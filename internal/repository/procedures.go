package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Procedures are the database functions the game calls. The schema is
// provisioned outside this service.
var Procedures = []string{
	"upsert_player",
	"accrue_passive_income",
	"apply_taps",
	"list_upgrades",
	"purchase_upgrade",
	"transfer_coins",
	"check_achievements",
	"list_achievements",
}

// MissingProcedures returns the names from Procedures not present in the
// connected database's search path.
func MissingProcedures(ctx context.Context, db *pgxpool.Pool) ([]string, error) {
	rows, err := db.Query(ctx, `
		SELECT p.proname
		FROM pg_proc p
		JOIN pg_namespace n ON n.oid = p.pronamespace
		WHERE n.nspname = ANY (current_schemas(false)) AND p.proname = ANY ($1)`,
		Procedures,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	found := make(map[string]bool, len(Procedures))
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		found[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var missing []string
	for _, name := range Procedures {
		if !found[name] {
			missing = append(missing, name)
		}
	}
	return missing, nil
}
