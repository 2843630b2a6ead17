package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/importcalc/internal/pricing"
)

// Header lists the export columns in order.
var Header = []string{
	"ID",
	"Brand",
	"Model",
	"Purchase Cost (USD)",
	"Shipping Cost (USD)",
	"Base Cost (USD)",
	"Base Price (Local)",
	"GST %",
	"GST Amount",
	"Slab",
	"Fee Path A",
	"Fee Path B",
	"Landed Path A",
	"Landed Path B",
	"Expected Sale Price",
	"Profit Path A",
	"Profit Path B",
	"Margin Path A %",
	"Margin Path B %",
	"Best Path",
	"Best Profit",
	"Added At",
}

// WriteCSV writes a header row and one record per row.
func WriteCSV(w io.Writer, rows []Row) error {
	if len(rows) == 0 {
		return ErrEmpty
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write(r.record()); err != nil {
			return fmt.Errorf("write csv row %s: %w", r.ID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// ReadCSV parses a file produced by WriteCSV.
func ReadCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i, name := range Header {
		if header[i] != name {
			return nil, fmt.Errorf("csv column %d is %q, want %q", i+1, header[i], name)
		}
	}

	rows := make([]Row, 0)
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}

		row, err := parseRecord(record)
		if err != nil {
			return nil, fmt.Errorf("parse csv line %d: %w", line, err)
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func (r Row) record() []string {
	return []string{
		escapeCell(r.ID),
		escapeCell(r.Brand),
		escapeCell(r.Model),
		r.PurchaseCostUSD.StringFixed(usdPlaces),
		r.ShippingCostUSD.StringFixed(usdPlaces),
		r.BaseUSD.StringFixed(usdPlaces),
		r.BasePriceLocal.StringFixed(moneyPlaces),
		r.GSTPercent.StringFixed(percentPlaces),
		r.GSTAmount.StringFixed(moneyPlaces),
		escapeCell(r.Slab),
		r.FeePathA.StringFixed(moneyPlaces),
		r.FeePathB.StringFixed(moneyPlaces),
		r.LandedPathA.StringFixed(moneyPlaces),
		r.LandedPathB.StringFixed(moneyPlaces),
		nullString(r.ExpectedSalePrice, moneyPlaces),
		nullString(r.ProfitPathA, moneyPlaces),
		nullString(r.ProfitPathB, moneyPlaces),
		nullString(r.MarginPathA, percentPlaces),
		nullString(r.MarginPathB, percentPlaces),
		string(r.BestPath),
		nullString(r.BestProfit, moneyPlaces),
		r.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// escapeCell prefixes text that a spreadsheet would evaluate as a formula
// with a single quote. Text that already starts with a quote gets one more so
// unescapeCell can always strip exactly one.
func escapeCell(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '\'':
		return "'" + s
	}
	return s
}

func unescapeCell(s string) string {
	if len(s) > 1 && s[0] == '\'' {
		switch s[1] {
		case '=', '+', '-', '@', '\t', '\r', '\'':
			return s[1:]
		}
	}
	return s
}

func parseRecord(rec []string) (Row, error) {
	p := fieldParser{rec: rec}
	row := Row{
		ID:                unescapeCell(rec[0]),
		Brand:             unescapeCell(rec[1]),
		Model:             unescapeCell(rec[2]),
		PurchaseCostUSD:   p.decimal(3),
		ShippingCostUSD:   p.decimal(4),
		BaseUSD:           p.decimal(5),
		BasePriceLocal:    p.decimal(6),
		GSTPercent:        p.decimal(7),
		GSTAmount:         p.decimal(8),
		Slab:              unescapeCell(rec[9]),
		FeePathA:          p.decimal(10),
		FeePathB:          p.decimal(11),
		LandedPathA:       p.decimal(12),
		LandedPathB:       p.decimal(13),
		ExpectedSalePrice: p.nullDecimal(14),
		ProfitPathA:       p.nullDecimal(15),
		ProfitPathB:       p.nullDecimal(16),
		MarginPathA:       p.nullDecimal(17),
		MarginPathB:       p.nullDecimal(18),
		BestPath:          pricing.Path(rec[19]),
		BestProfit:        p.nullDecimal(20),
	}
	if p.err != nil {
		return Row{}, p.err
	}

	switch row.BestPath {
	case pricing.PathNone, pricing.PathA, pricing.PathB:
	default:
		return Row{}, fmt.Errorf("%s: unknown path %q", Header[19], rec[19])
	}

	createdAt, err := time.Parse(time.RFC3339, rec[21])
	if err != nil {
		return Row{}, fmt.Errorf("%s: %w", Header[21], err)
	}
	row.CreatedAt = createdAt.UTC()

	return row, nil
}

// fieldParser keeps the first decoding error so a record parses in one pass.
type fieldParser struct {
	rec []string
	err error
}

func (p *fieldParser) decimal(i int) decimal.Decimal {
	if p.err != nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(p.rec[i])
	if err != nil {
		p.err = fmt.Errorf("%s: %w", Header[i], err)
	}
	return d
}

func (p *fieldParser) nullDecimal(i int) decimal.NullDecimal {
	if p.rec[i] == "" {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(p.decimal(i))
}

func nullString(d decimal.NullDecimal, places int32) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.StringFixed(places)
}
