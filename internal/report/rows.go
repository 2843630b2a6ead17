// Package report turns a priced device list into CSV, PDF and XLSX exports.
// Rounding happens here and only here: money to whole local units,
// percentages to one decimal, USD inputs to cents.
package report

import (
	"errors"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/importcalc/internal/inventory"
	"github.com/Simplici0/importcalc/internal/pricing"
)

// ErrEmpty is returned by every writer when there is nothing to export.
var ErrEmpty = errors.New("no devices to export")

const (
	usdPlaces     = 2
	moneyPlaces   = 0
	percentPlaces = 1
)

// Row is one exported device with presentation rounding applied.
type Row struct {
	ID                string
	Brand             string
	Model             string
	PurchaseCostUSD   decimal.Decimal
	ShippingCostUSD   decimal.Decimal
	BaseUSD           decimal.Decimal
	BasePriceLocal    decimal.Decimal
	GSTPercent        decimal.Decimal
	GSTAmount         decimal.Decimal
	Slab              string
	FeePathA          decimal.Decimal
	FeePathB          decimal.Decimal
	LandedPathA       decimal.Decimal
	LandedPathB       decimal.Decimal
	ExpectedSalePrice decimal.NullDecimal
	ProfitPathA       decimal.NullDecimal
	ProfitPathB       decimal.NullDecimal
	MarginPathA       decimal.NullDecimal
	MarginPathB       decimal.NullDecimal
	BestPath          pricing.Path
	BestProfit        decimal.NullDecimal
	CreatedAt         time.Time
}

// BuildRows flattens priced devices into export rows, keeping list order.
func BuildRows(priced []inventory.Priced) []Row {
	rows := make([]Row, 0, len(priced))
	for _, p := range priced {
		d, r := p.Device, p.Result
		rows = append(rows, Row{
			ID:                d.ID,
			Brand:             d.Brand,
			Model:             d.Model,
			PurchaseCostUSD:   round(d.PurchaseCostUSD, usdPlaces),
			ShippingCostUSD:   round(d.ShippingCostUSD, usdPlaces),
			BaseUSD:           round(r.BaseUSD, usdPlaces),
			BasePriceLocal:    round(r.BasePriceLocal, moneyPlaces),
			GSTPercent:        round(r.GSTRate*100, percentPlaces),
			GSTAmount:         round(r.GSTAmount, moneyPlaces),
			Slab:              r.SlabLabel,
			FeePathA:          round(r.Slab.FeeA, moneyPlaces),
			FeePathB:          round(r.Slab.FeeB, moneyPlaces),
			LandedPathA:       round(r.LandedPathA, moneyPlaces),
			LandedPathB:       round(r.LandedPathB, moneyPlaces),
			ExpectedSalePrice: roundOptional(d.ExpectedSalePrice, moneyPlaces),
			ProfitPathA:       roundOptional(r.ProfitPathA, moneyPlaces),
			ProfitPathB:       roundOptional(r.ProfitPathB, moneyPlaces),
			MarginPathA:       roundOptional(r.MarginPathA, percentPlaces),
			MarginPathB:       roundOptional(r.MarginPathB, percentPlaces),
			BestPath:          r.BestPath,
			BestProfit:        roundOptional(r.BestProfit, moneyPlaces),
			CreatedAt:         d.CreatedAt.UTC().Truncate(time.Second),
		})
	}
	return rows
}

// Equal reports whether two rows carry the same values.
func (r Row) Equal(o Row) bool {
	return r.ID == o.ID &&
		r.Brand == o.Brand &&
		r.Model == o.Model &&
		r.PurchaseCostUSD.Equal(o.PurchaseCostUSD) &&
		r.ShippingCostUSD.Equal(o.ShippingCostUSD) &&
		r.BaseUSD.Equal(o.BaseUSD) &&
		r.BasePriceLocal.Equal(o.BasePriceLocal) &&
		r.GSTPercent.Equal(o.GSTPercent) &&
		r.GSTAmount.Equal(o.GSTAmount) &&
		r.Slab == o.Slab &&
		r.FeePathA.Equal(o.FeePathA) &&
		r.FeePathB.Equal(o.FeePathB) &&
		r.LandedPathA.Equal(o.LandedPathA) &&
		r.LandedPathB.Equal(o.LandedPathB) &&
		nullEqual(r.ExpectedSalePrice, o.ExpectedSalePrice) &&
		nullEqual(r.ProfitPathA, o.ProfitPathA) &&
		nullEqual(r.ProfitPathB, o.ProfitPathB) &&
		nullEqual(r.MarginPathA, o.MarginPathA) &&
		nullEqual(r.MarginPathB, o.MarginPathB) &&
		r.BestPath == o.BestPath &&
		nullEqual(r.BestProfit, o.BestProfit) &&
		r.CreatedAt.Equal(o.CreatedAt)
}

func round(v float64, places int32) decimal.Decimal {
	return decimal.NewFromFloat(pricing.Coerce(v)).Round(places)
}

// roundOptional keeps negative values: profit may legitimately be below zero.
func roundOptional(o pricing.Optional, places int32) decimal.NullDecimal {
	if !o.Set || math.IsNaN(o.Value) || math.IsInf(o.Value, 0) {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromFloat(o.Value).Round(places))
}

func nullEqual(a, b decimal.NullDecimal) bool {
	if a.Valid != b.Valid {
		return false
	}
	return !a.Valid || a.Decimal.Equal(b.Decimal)
}
