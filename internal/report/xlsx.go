package report

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet that holds the device rows.
const SheetName = "Devices"

// WriteXLSX writes the rows to a single-sheet workbook with numeric cells.
func WriteXLSX(w io.Writer, rows []Row) error {
	if len(rows) == 0 {
		return ErrEmpty
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("locate row %d: %w", i+2, err)
		}
		values := r.cells()
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %s: %w", r.ID, err)
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(Header))
	if err != nil {
		return fmt.Errorf("locate last column: %w", err)
	}
	if err := f.SetColWidth(SheetName, "A", lastCol, 16); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// cells mirrors record() with numbers kept numeric and unavailable values left blank.
func (r Row) cells() []any {
	return []any{
		r.ID,
		r.Brand,
		r.Model,
		r.PurchaseCostUSD.InexactFloat64(),
		r.ShippingCostUSD.InexactFloat64(),
		r.BaseUSD.InexactFloat64(),
		r.BasePriceLocal.InexactFloat64(),
		r.GSTPercent.InexactFloat64(),
		r.GSTAmount.InexactFloat64(),
		r.Slab,
		r.FeePathA.InexactFloat64(),
		r.FeePathB.InexactFloat64(),
		r.LandedPathA.InexactFloat64(),
		r.LandedPathB.InexactFloat64(),
		nullCell(r.ExpectedSalePrice),
		nullCell(r.ProfitPathA),
		nullCell(r.ProfitPathB),
		nullCell(r.MarginPathA),
		nullCell(r.MarginPathB),
		string(r.BestPath),
		nullCell(r.BestProfit),
		r.CreatedAt.UTC(),
	}
}

func nullCell(d decimal.NullDecimal) any {
	if !d.Valid {
		return nil
	}
	return d.Decimal.InexactFloat64()
}
