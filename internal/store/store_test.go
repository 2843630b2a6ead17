package store

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Simplici0/importcalc/internal/db"
	"github.com/Simplici0/importcalc/internal/inventory"
	"github.com/Simplici0/importcalc/internal/migrations"
	"github.com/Simplici0/importcalc/internal/pricing"
	"github.com/Simplici0/importcalc/internal/seed"
)

func newTestDB(t *testing.T, withSeed bool) *sql.DB {
	t.Helper()
	ctx := context.Background()

	database, err := db.Open(filepath.Join(t.TempDir(), "store-test.db"))
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	if err := migrations.Up(ctx, database, zap.NewNop()); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	if withSeed {
		if _, err := seed.Run(ctx, database); err != nil {
			t.Fatalf("run seed: %v", err)
		}
	}

	return database
}

func TestSettings_FallsBackToDefaultsWhenMissing(t *testing.T) {
	s := New(newTestDB(t, false))

	got, err := s.Settings(context.Background())
	if err != nil {
		t.Fatalf("Settings returned error: %v", err)
	}
	if got != pricing.DefaultSettings() {
		t.Fatalf("expected defaults, got %+v", got)
	}
}

func TestSettings_FallsBackToDefaultsWhenCorrupt(t *testing.T) {
	database := newTestDB(t, true)
	if _, err := database.Exec(`UPDATE settings SET exchange_rate = 0 WHERE id = 1`); err != nil {
		t.Fatalf("corrupt settings: %v", err)
	}

	got, err := New(database).Settings(context.Background())
	if err != nil {
		t.Fatalf("Settings returned error: %v", err)
	}
	if got != pricing.DefaultSettings() {
		t.Fatalf("expected defaults, got %+v", got)
	}
}

func TestSaveSettings_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New(newTestDB(t, false))

	want := pricing.Settings{ExchangeRate: 281.5, GSTLowRate: 0.17, GSTHighRate: 0.25, GSTThresholdUSD: 450, AnimationsEnabled: false}
	if err := s.SaveSettings(ctx, want); err != nil {
		t.Fatalf("SaveSettings returned error: %v", err)
	}
	want.ExchangeRate = 290
	if err := s.SaveSettings(ctx, want); err != nil {
		t.Fatalf("SaveSettings (update) returned error: %v", err)
	}

	got, err := s.Settings(ctx)
	if err != nil {
		t.Fatalf("Settings returned error: %v", err)
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestSaveSettings_RejectsInvalid(t *testing.T) {
	s := New(newTestDB(t, false))

	if err := s.SaveSettings(context.Background(), pricing.Settings{ExchangeRate: -1}); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestSlabs_FallsBackToDefaultsWhenEmpty(t *testing.T) {
	got, err := New(newTestDB(t, false)).Slabs(context.Background())
	if err != nil {
		t.Fatalf("Slabs returned error: %v", err)
	}
	if len(got) != len(pricing.DefaultSlabs()) {
		t.Fatalf("expected default table, got %+v", got)
	}
}

func TestUpdateSlabFees(t *testing.T) {
	ctx := context.Background()
	s := New(newTestDB(t, true))

	slabs, err := s.Slabs(ctx)
	if err != nil {
		t.Fatalf("Slabs returned error: %v", err)
	}
	target := slabs[4]

	if err := s.UpdateSlabFees(ctx, target.ID, 25000, 18000); err != nil {
		t.Fatalf("UpdateSlabFees returned error: %v", err)
	}

	updated, err := s.Slabs(ctx)
	if err != nil {
		t.Fatalf("Slabs returned error: %v", err)
	}
	got := updated[4]
	if got.FeeA != 25000 || got.FeeB != 18000 {
		t.Fatalf("unexpected fees: %+v", got)
	}
	if got.MinUSD != target.MinUSD || got.MaxUSD != target.MaxUSD || got.Label != target.Label {
		t.Fatalf("bounds must not change: before %+v after %+v", target, got)
	}

	if err := s.UpdateSlabFees(ctx, 9999, 1, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.UpdateSlabFees(ctx, target.ID, -1, 1); err == nil {
		t.Fatalf("expected error for negative fee")
	}
	if err := s.UpdateSlabFees(ctx, target.ID, 1, 1e307); err == nil {
		t.Fatalf("expected error for oversized fee")
	}
}

func TestDevices_AddListDelete(t *testing.T) {
	ctx := context.Background()
	s := New(newTestDB(t, true))

	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	first := inventory.Device{ID: "a", Brand: "Apple", Model: "iPhone 15", PurchaseCostUSD: 799, ShippingCostUSD: 20, ExpectedSalePrice: pricing.Some(320000), CreatedAt: base.Add(500 * time.Millisecond)}
	second := inventory.Device{ID: "b", Brand: "Fairphone", Model: "5", PurchaseCostUSD: 550, CreatedAt: base.Add(time.Second)}
	third := inventory.Device{ID: "c", Brand: "Google", Model: "Pixel 8", PurchaseCostUSD: 499, CreatedAt: base}

	for _, d := range []inventory.Device{first, second, third} {
		if err := s.AddDevice(ctx, d); err != nil {
			t.Fatalf("AddDevice(%s) returned error: %v", d.ID, err)
		}
	}

	devices, err := s.Devices(ctx)
	if err != nil {
		t.Fatalf("Devices returned error: %v", err)
	}
	if len(devices) != 3 || devices[0].ID != "c" || devices[1].ID != "a" || devices[2].ID != "b" {
		t.Fatalf("devices are not in insertion time order: %+v", devices)
	}
	if devices[1] != first {
		t.Fatalf("round trip mismatch: got %+v, want %+v", devices[1], first)
	}
	if devices[2].ExpectedSalePrice.Set {
		t.Fatalf("expected unset sale price to survive storage")
	}

	got, err := s.Device(ctx, "b")
	if err != nil || got.Brand != "Fairphone" {
		t.Fatalf("Device(b) = %+v, %v", got, err)
	}

	if err := s.DeleteDevice(ctx, "a"); err != nil {
		t.Fatalf("DeleteDevice returned error: %v", err)
	}
	if err := s.DeleteDevice(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
	if _, err := s.Device(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for deleted device, got %v", err)
	}
}

func TestStoredDeviceIsRepricedAfterSlabEdit(t *testing.T) {
	ctx := context.Background()
	s := New(newTestDB(t, true))

	d := inventory.Device{ID: "x", Brand: "Samsung", Model: "S24", PurchaseCostUSD: 420, ShippingCostUSD: 25, ExpectedSalePrice: pricing.Some(190000), CreatedAt: time.Now()}
	if err := s.AddDevice(ctx, d); err != nil {
		t.Fatalf("AddDevice returned error: %v", err)
	}

	price := func() pricing.Result {
		t.Helper()
		settings, err := s.Settings(ctx)
		if err != nil {
			t.Fatalf("Settings returned error: %v", err)
		}
		slabs, err := s.Slabs(ctx)
		if err != nil {
			t.Fatalf("Slabs returned error: %v", err)
		}
		devices, err := s.Devices(ctx)
		if err != nil {
			t.Fatalf("Devices returned error: %v", err)
		}
		return inventory.Reprice(devices, settings, slabs)[0].Result
	}

	before := price()

	if err := s.UpdateSlabFees(ctx, before.Slab.ID, before.Slab.FeeA, before.Slab.FeeB+500); err != nil {
		t.Fatalf("UpdateSlabFees returned error: %v", err)
	}
	after := price()

	if after.LandedPathA != before.LandedPathA {
		t.Fatalf("path A must not change: %v -> %v", before.LandedPathA, after.LandedPathA)
	}
	if math.Abs(after.LandedPathB-before.LandedPathB-500) > 1e-6 {
		t.Fatalf("path B landed delta = %v, want 500", after.LandedPathB-before.LandedPathB)
	}
	if math.Abs(before.ProfitPathB.Value-after.ProfitPathB.Value-500) > 1e-6 {
		t.Fatalf("path B profit delta = %v, want 500", before.ProfitPathB.Value-after.ProfitPathB.Value)
	}
}
