package core

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// nextDocNumberTx generates a gapless, date-sequenced document number such as
// ORD-20260901-0004. The per-day counter row is locked by the upsert, so two
// concurrent commands cannot draw the same number; the caller's transaction
// must commit for the number to be consumed.
func nextDocNumberTx(ctx context.Context, tx pgx.Tx, table, prefix string, now time.Time) (string, error) {
	var last int64
	query := fmt.Sprintf(`
		INSERT INTO %s (seq_date, last_number)
		VALUES ($1, 1)
		ON CONFLICT (seq_date)
		DO UPDATE SET last_number = %s.last_number + 1
		RETURNING last_number
	`, table, table)
	if err := tx.QueryRow(ctx, query, now.Format("2006-01-02")).Scan(&last); err != nil {
		return "", fmt.Errorf("failed to generate %s sequence number: %w", prefix, err)
	}
	return fmt.Sprintf("%s-%s-%04d", prefix, now.Format("20060102"), last), nil
}
