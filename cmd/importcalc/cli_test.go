package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Simplici0/importcalc/internal/db"
	"github.com/Simplici0/importcalc/internal/inventory"
	"github.com/Simplici0/importcalc/internal/migrations"
	"github.com/Simplici0/importcalc/internal/pricing"
	"github.com/Simplici0/importcalc/internal/report"
	"github.com/Simplici0/importcalc/internal/store"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("AUTO_MIGRATE", "true")

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	err := root.Execute()
	return out.String(), err
}

func TestPrintQuote_WorkedExample(t *testing.T) {
	in := pricing.Input{PurchaseCostUSD: 1199, ShippingCostUSD: 30, ExpectedSalePrice: pricing.Some(525000)}
	r := pricing.Evaluate(in, pricing.DefaultSettings(), pricing.DefaultSlabs())

	var buf bytes.Buffer
	if err := printQuote(&buf, "Rs", in, r, nil); err != nil {
		t.Fatalf("printQuote: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"$1229.00", "25.0% = Rs 85,416", "501+", "Rs 464,085", "Rs 463,948", "Rs 61,053", "11.6%", "Best", "Path B"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in:\n%s", want, out)
		}
	}
}

func TestPrintQuote_WithoutSalePrice(t *testing.T) {
	in := pricing.Input{PurchaseCostUSD: 250}
	r := pricing.Evaluate(in, pricing.DefaultSettings(), pricing.DefaultSlabs())

	var buf bytes.Buffer
	if err := printQuote(&buf, "", in, r, []string{"gap between slabs"}); err != nil {
		t.Fatalf("printQuote: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "n/a") || !strings.Contains(out, "profit not computed") || strings.Contains(out, "Best") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if !strings.Contains(out, "warning: gap between slabs") {
		t.Fatalf("missing warning:\n%s", out)
	}
}

func TestQuoteCommand_UsesStoredState(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cli.db")

	out, err := runCLI(t, "quote", "--db", dbPath, "--cost", "1,199", "--shipping", "30", "--sale", "525000")
	if err != nil {
		t.Fatalf("quote: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Rs 463,948") || !strings.Contains(out, "Path B") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestExportCommand_WritesCSV(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "cli.db")
	outPath := filepath.Join(dir, "devices.csv")

	if out, err := runCLI(t, "migrate", "--db", dbPath); err != nil {
		t.Fatalf("migrate: %v\n%s", err, out)
	}

	if _, err := runCLI(t, "export", "--db", dbPath, "--format", "csv", "--out", outPath); err == nil {
		t.Fatalf("expected an error for an empty device list")
	}

	ctx := context.Background()
	database, err := db.Open(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrations.Up(ctx, database, zap.NewNop()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	device, err := inventory.NewDevice(inventory.Draft{
		Brand:             "Samsung",
		Model:             "Galaxy S24",
		PurchaseCostUSD:   pricing.Some(799),
		ShippingCostUSD:   pricing.Some(25),
		ExpectedSalePrice: pricing.Some(300000),
	}, time.Date(2024, 4, 2, 9, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("new device: %v", err)
	}
	if err := store.New(database).AddDevice(ctx, device); err != nil {
		t.Fatalf("add device: %v", err)
	}
	_ = database.Close()

	if out, err := runCLI(t, "export", "--db", dbPath, "--format", "csv", "--out", outPath); err != nil {
		t.Fatalf("export: %v\n%s", err, out)
	}

	f, err := os.Open(outPath)
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer f.Close()

	rows, err := report.ReadCSV(f)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != device.ID || rows[0].Slab != "501+" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}
