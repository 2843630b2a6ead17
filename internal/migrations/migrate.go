package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

const (
	sqliteDialect = "sqlite3"
	migrationsDir = "sql"
)

//go:embed sql/*.sql
var embedded embed.FS

// gooseLogger sends goose progress lines to zap instead of the standard
// library logger.
type gooseLogger struct {
	s *zap.SugaredLogger
}

func (l gooseLogger) Printf(format string, v ...any) {
	l.s.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l gooseLogger) Fatalf(format string, v ...any) {
	l.s.Fatal(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func configure(log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}

	goose.SetBaseFS(embedded)
	goose.SetLogger(gooseLogger{s: log.Named("goose").Sugar()})

	if err := goose.SetDialect(sqliteDialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return nil
}

// Up runs all pending SQL migrations embedded in the binary. Goose output is
// logged through log; a nil log discards it.
func Up(ctx context.Context, db *sql.DB, log *zap.Logger) error {
	if err := configure(log); err != nil {
		return err
	}

	if err := goose.UpContext(ctx, db, migrationsDir); err != nil {
		return fmt.Errorf("run goose up migrations: %w", err)
	}

	return nil
}

// Version returns the currently applied migration version.
func Version(ctx context.Context, db *sql.DB, log *zap.Logger) (int64, error) {
	if err := configure(log); err != nil {
		return 0, err
	}

	version, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return 0, fmt.Errorf("read goose version: %w", err)
	}

	return version, nil
}
