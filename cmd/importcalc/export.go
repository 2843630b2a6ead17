package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Simplici0/importcalc/internal/inventory"
	"github.com/Simplici0/importcalc/internal/report"
	"github.com/Simplici0/importcalc/internal/store"
)

type exportFormat struct {
	contentType string
	write       func(w io.Writer, rows []report.Row, meta report.Meta) error
}

var exportFormats = map[string]exportFormat{
	"csv": {
		contentType: "text/csv; charset=utf-8",
		write: func(w io.Writer, rows []report.Row, _ report.Meta) error {
			return report.WriteCSV(w, rows)
		},
	},
	"pdf": {
		contentType: "application/pdf",
		write:       report.WritePDF,
	},
	"xlsx": {
		contentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		write: func(w io.Writer, rows []report.Row, _ report.Meta) error {
			return report.WriteXLSX(w, rows)
		},
	},
}

func exportFormatNames() string {
	names := make([]string, 0, len(exportFormats))
	for name := range exportFormats {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, "|")
}

// renderExport prices the stored devices and renders them in one format.
// The output is buffered so nothing is written when rendering fails.
func renderExport(ctx context.Context, st *store.Store, format, currency string, now time.Time) ([]byte, error) {
	f, ok := exportFormats[format]
	if !ok {
		return nil, fmt.Errorf("unknown export format %q (want %s)", format, exportFormatNames())
	}

	settings, err := st.Settings(ctx)
	if err != nil {
		return nil, err
	}
	slabs, err := st.Slabs(ctx)
	if err != nil {
		return nil, err
	}
	devices, err := st.Devices(ctx)
	if err != nil {
		return nil, err
	}

	rows := report.BuildRows(inventory.Reprice(devices, settings, slabs))
	meta := report.Meta{
		Title:        "Device Import Report",
		Currency:     currency,
		GeneratedAt:  now,
		ExchangeRate: settings.ExchangeRate,
	}

	var buf bytes.Buffer
	if err := f.write(&buf, rows, meta); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func newExportCmd(a *app) *cobra.Command {
	var (
		format string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the stored device list",
		Long: `Export the stored device list with every figure recomputed from the
current settings and slab table.

Examples:
  importcalc export --format csv --out devices.csv
  importcalc export --format pdf --out report.pdf
  importcalc export --format xlsx --out -`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			database, err := a.openDB(ctx)
			if err != nil {
				return err
			}
			defer database.Close()

			data, err := renderExport(ctx, store.New(database), strings.ToLower(format), a.cfg.Currency, time.Now())
			if err != nil {
				return err
			}

			if out == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}

			a.log.Info("export written", zap.String("format", format), zap.String("path", out), zap.Int("bytes", len(data)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "csv", "export format ("+exportFormatNames()+")")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file, or - for stdout")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}
