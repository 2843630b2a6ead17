package seed

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Simplici0/importcalc/internal/pricing"
)

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
	Updates int
}

// Run executes the startup seed in an idempotent way.
func Run(ctx context.Context, db *sql.DB) (Stats, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}

	if err := ensureSettings(ctx, tx, pricing.DefaultSettings(), &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	if err := ensureSlabs(ctx, tx, pricing.DefaultSlabs(), &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

func ensureSettings(ctx context.Context, tx *sql.Tx, defaults pricing.Settings, stats *Stats) error {
	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM settings WHERE id = 1)`).Scan(&exists); err != nil {
		return fmt.Errorf("check settings existence: %w", err)
	}
	if exists {
		return nil
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO settings (id, exchange_rate, gst_low_rate, gst_high_rate, gst_threshold_usd, animations_enabled)
		VALUES (1, ?, ?, ?, ?, ?)
	`, defaults.ExchangeRate, defaults.GSTLowRate, defaults.GSTHighRate, defaults.GSTThresholdUSD, defaults.AnimationsEnabled); err != nil {
		return fmt.Errorf("insert settings singleton: %w", err)
	}
	stats.Inserts++
	return nil
}

// ensureSlabs writes the default table only when no slab exists. Slabs are
// never deleted, so a partial table means the user's edits and is left alone.
func ensureSlabs(ctx context.Context, tx *sql.Tx, defaults []pricing.Slab, stats *Stats) error {
	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM slabs`).Scan(&count); err != nil {
		return fmt.Errorf("count slabs: %w", err)
	}
	if count > 0 {
		return nil
	}

	for i, s := range defaults {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO slabs (position, range_label, min_usd, max_usd, fee_a, fee_b)
			VALUES (?, ?, ?, ?, ?, ?)
		`, i, s.Label, s.MinUSD, s.MaxUSD, s.FeeA, s.FeeB); err != nil {
			return fmt.Errorf("insert default slab %q: %w", s.Label, err)
		}
		stats.Inserts++
	}
	return nil
}
