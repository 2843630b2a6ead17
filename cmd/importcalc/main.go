// Command importcalc prices imported phones under two fee paths and keeps a
// local device list.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Simplici0/importcalc/internal/config"
	"github.com/Simplici0/importcalc/internal/db"
	"github.com/Simplici0/importcalc/internal/logging"
	"github.com/Simplici0/importcalc/internal/migrations"
	"github.com/Simplici0/importcalc/internal/seed"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app carries what every subcommand needs once flags are parsed.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	dbPath  string
	verbose bool
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "importcalc",
		Short: "Landed cost and profit calculator for imported phones",
		Long: `importcalc converts a device's USD cost into local currency, applies GST and
the slab fee for both registration paths, and compares landed cost, profit
and margin.

Examples:
  importcalc serve
  importcalc quote --cost 1199 --shipping 30 --sale 525000
  importcalc export --format pdf --out report.pdf`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "database file (overrides DB_PATH)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newServeCmd(a))
	root.AddCommand(newQuoteCmd(a))
	root.AddCommand(newExportCmd(a))
	root.AddCommand(newMigrateCmd(a))

	return root
}

func (a *app) init() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.dbPath != "" {
		cfg.DBPath = a.dbPath
	}

	lc := cfg.Logging()
	if a.verbose {
		lc.Level = "debug"
	}
	logger, err := logging.New(lc)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}

	a.cfg = cfg
	a.log = logger
	return nil
}

// openDB opens the configured database and, when AUTO_MIGRATE is on, brings
// the schema up to date and seeds the defaults.
func (a *app) openDB(ctx context.Context) (*sql.DB, error) {
	database, err := db.OpenContext(ctx, a.cfg.DBPath)
	if err != nil {
		return nil, err
	}

	if a.cfg.AutoMigrate {
		if err := prepare(ctx, database, a.log); err != nil {
			database.Close()
			return nil, err
		}
	}

	return database, nil
}

func prepare(ctx context.Context, database *sql.DB, log *zap.Logger) error {
	if err := migrations.Up(ctx, database, log); err != nil {
		return fmt.Errorf("run database migrations: %w", err)
	}

	stats, err := seed.Run(ctx, database)
	if err != nil {
		return fmt.Errorf("seed defaults: %w", err)
	}
	if stats.Inserts > 0 || stats.Updates > 0 {
		log.Info("seeded defaults", zap.Int("inserts", stats.Inserts), zap.Int("updates", stats.Updates))
	}
	return nil
}

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and seed defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			database, err := db.OpenContext(ctx, a.cfg.DBPath)
			if err != nil {
				return err
			}
			defer database.Close()

			if err := prepare(ctx, database, a.log); err != nil {
				return err
			}

			version, err := migrations.Version(ctx, database, a.log)
			if err != nil {
				return err
			}
			a.log.Info("database ready", zap.String("path", a.cfg.DBPath), zap.Int64("version", version))
			return nil
		},
	}
}
