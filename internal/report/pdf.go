package report

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"

	"github.com/Simplici0/importcalc/internal/pricing"
)

// Meta describes the report as a whole.
type Meta struct {
	Title        string
	Currency     string
	GeneratedAt  time.Time
	ExchangeRate float64
}

const (
	pdfMargin     = 15.0
	pdfLineHeight = 6.0
	pdfBlockLines = 8
)

// WritePDF renders a printable report with one block per device.
func WritePDF(w io.Writer, rows []Row, meta Meta) error {
	if len(rows) == 0 {
		return ErrEmpty
	}
	if meta.Title == "" {
		meta.Title = "Device Import Report"
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(meta.Title, true)
	pdf.SetCreator("importcalc", true)
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	_, pageHeight := pdf.GetPageSize()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(meta.Title), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 5, fmt.Sprintf("Generated %s", meta.GeneratedAt.Format("2006-01-02 15:04")), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, fmt.Sprintf("Exchange rate: %s %s per USD", decimal.NewFromFloat(meta.ExchangeRate).StringFixed(2), meta.Currency), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	for i, r := range rows {
		if pdf.GetY()+pdfBlockLines*pdfLineHeight > pageHeight-pdfMargin {
			pdf.AddPage()
		}
		writeDeviceBlock(pdf, tr, i+1, r, meta.Currency)
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func writeDeviceBlock(pdf *fpdf.Fpdf, tr func(string) string, n int, r Row, currency string) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 7, tr(fmt.Sprintf("%d. %s %s", n, r.Brand, r.Model)), "B", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(60, pdfLineHeight, fmt.Sprintf("Cost: $%s + $%s shipping", r.PurchaseCostUSD.StringFixed(usdPlaces), r.ShippingCostUSD.StringFixed(usdPlaces)), "", 0, "L", false, 0, "")
	pdf.CellFormat(40, pdfLineHeight, "Slab: "+tr(r.Slab), "", 0, "L", false, 0, "")
	pdf.CellFormat(0, pdfLineHeight, "GST: "+r.GSTPercent.StringFixed(percentPlaces)+"%", "", 1, "L", false, 0, "")
	pdf.CellFormat(60, pdfLineHeight, "Base price: "+money(r.BasePriceLocal, currency), "", 0, "L", false, 0, "")
	pdf.CellFormat(0, pdfLineHeight, "GST amount: "+money(r.GSTAmount, currency), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, pdfLineHeight, "Expected sale: "+nullMoney(r.ExpectedSalePrice, currency), "", 1, "L", false, 0, "")

	widths := []float64{30, 40, 40, 30}
	pdf.SetFont("Helvetica", "B", 9)
	for i, h := range []string{"", "Landed", "Profit", "Margin"} {
		pdf.CellFormat(widths[i], pdfLineHeight, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, line := range [][]string{
		{pricing.PathA.Label(), money(r.LandedPathA, currency), nullMoney(r.ProfitPathA, currency), nullPercent(r.MarginPathA)},
		{pricing.PathB.Label(), money(r.LandedPathB, currency), nullMoney(r.ProfitPathB, currency), nullPercent(r.MarginPathB)},
	} {
		for i, cell := range line {
			align := "R"
			if i == 0 {
				align = "L"
			}
			pdf.CellFormat(widths[i], pdfLineHeight, cell, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	if r.BestPath != pricing.PathNone {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.CellFormat(0, pdfLineHeight, fmt.Sprintf("Best: %s (%s)", r.BestPath.Label(), nullMoney(r.BestProfit, currency)), "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)
}

// money formats a whole-unit amount with thousands separators.
func money(d decimal.Decimal, currency string) string {
	s := humanize.Comma(d.Round(moneyPlaces).IntPart())
	if currency == "" {
		return s
	}
	return currency + " " + s
}

func nullMoney(d decimal.NullDecimal, currency string) string {
	if !d.Valid {
		return "n/a"
	}
	return money(d.Decimal, currency)
}

func nullPercent(d decimal.NullDecimal) string {
	if !d.Valid {
		return "n/a"
	}
	return d.Decimal.StringFixed(percentPlaces) + "%"
}
