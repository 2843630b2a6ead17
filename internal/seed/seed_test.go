package seed

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/Simplici0/importcalc/internal/db"
	"github.com/Simplici0/importcalc/internal/migrations"
	"github.com/Simplici0/importcalc/internal/pricing"
)

func TestRunIsIdempotent(t *testing.T) {
	ctx := context.Background()

	dbPath := filepath.Join(t.TempDir(), "seed-test.db")
	database, err := db.Open(dbPath)
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	defer database.Close()

	if err := migrations.Up(ctx, database, zap.NewNop()); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	wantFirst := 1 + len(pricing.DefaultSlabs())
	for i := 0; i < 10; i++ {
		stats, err := Run(ctx, database)
		if err != nil {
			t.Fatalf("run seed (iteration=%d): %v", i, err)
		}
		if i == 0 {
			if stats.Inserts != wantFirst {
				t.Fatalf("expected %d inserts in first run, got %d", wantFirst, stats.Inserts)
			}
			continue
		}
		if stats.Inserts != 0 {
			t.Fatalf("expected 0 inserts in iteration %d, got %d", i, stats.Inserts)
		}
	}

	assertCount(t, database, `SELECT COUNT(*) FROM settings WHERE id = 1`, 1)
	assertCount(t, database, `SELECT COUNT(*) FROM slabs`, len(pricing.DefaultSlabs()))

	var label string
	var maxUSD float64
	if err := database.QueryRow(`SELECT range_label, max_usd FROM slabs ORDER BY position DESC LIMIT 1`).Scan(&label, &maxUSD); err != nil {
		t.Fatalf("query last slab: %v", err)
	}
	if label != "501+" || maxUSD != pricing.Unbounded {
		t.Fatalf("unexpected last slab %q max=%v", label, maxUSD)
	}
}

func TestRunKeepsEditedSettings(t *testing.T) {
	ctx := context.Background()

	database, err := db.Open(filepath.Join(t.TempDir(), "seed-edit.db"))
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	defer database.Close()

	if err := migrations.Up(ctx, database, zap.NewNop()); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	if _, err := Run(ctx, database); err != nil {
		t.Fatalf("first seed: %v", err)
	}
	if _, err := database.Exec(`UPDATE settings SET exchange_rate = 300 WHERE id = 1`); err != nil {
		t.Fatalf("edit settings: %v", err)
	}
	if _, err := Run(ctx, database); err != nil {
		t.Fatalf("second seed: %v", err)
	}

	var rate float64
	if err := database.QueryRow(`SELECT exchange_rate FROM settings WHERE id = 1`).Scan(&rate); err != nil {
		t.Fatalf("query settings: %v", err)
	}
	if rate != 300 {
		t.Fatalf("expected edited exchange rate to survive, got %v", rate)
	}
}

func assertCount(t *testing.T, database *sql.DB, query string, expected int) {
	t.Helper()

	var count int
	if err := database.QueryRow(query).Scan(&count); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != expected {
		t.Fatalf("expected count %d, got %d", expected, count)
	}
}
