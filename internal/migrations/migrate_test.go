package migrations

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Simplici0/importcalc/internal/db"
)

func TestUpIsRepeatable(t *testing.T) {
	ctx := context.Background()

	database, err := db.Open(filepath.Join(t.TempDir(), "migrate-test.db"))
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	defer database.Close()

	for i := 0; i < 2; i++ {
		if err := Up(ctx, database, zap.NewNop()); err != nil {
			t.Fatalf("run migrations (iteration=%d): %v", i, err)
		}
	}

	version, err := Version(ctx, database, nil)
	if err != nil {
		t.Fatalf("read version: %v", err)
	}
	if version != 1 {
		t.Fatalf("expected version 1, got %d", version)
	}

	for _, table := range []string{"settings", "slabs", "devices"} {
		var count int
		if err := database.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&count); err != nil {
			t.Fatalf("query sqlite_master: %v", err)
		}
		if count != 1 {
			t.Fatalf("expected table %s to exist", table)
		}
	}
}

func TestUpLogsThroughZap(t *testing.T) {
	ctx := context.Background()

	database, err := db.Open(filepath.Join(t.TempDir(), "migrate-log.db"))
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	defer database.Close()

	core, logs := observer.New(zapcore.InfoLevel)
	if err := Up(ctx, database, zap.New(core)); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	entries := logs.All()
	if len(entries) == 0 {
		t.Fatalf("expected goose progress to be logged")
	}
	for _, e := range entries {
		if e.LoggerName != "goose" {
			t.Fatalf("logger name = %q, want goose", e.LoggerName)
		}
		if strings.HasSuffix(e.Message, "\n") || e.Message == "" {
			t.Fatalf("unexpected message %q", e.Message)
		}
	}
}
