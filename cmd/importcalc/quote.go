package main

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Simplici0/importcalc/internal/pricing"
	"github.com/Simplici0/importcalc/internal/store"
)

func newQuoteCmd(a *app) *cobra.Command {
	var cost, shipping, sale string

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Price one device against the stored settings and slabs",
		Long: `Price one device without saving it. Amounts accept thousands separators;
leave --sale out to skip the profit comparison.

Examples:
  importcalc quote --cost 1199 --shipping 30 --sale 525,000
  importcalc quote --cost 250`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			database, err := a.openDB(ctx)
			if err != nil {
				return err
			}
			defer database.Close()

			st := store.New(database)
			settings, err := st.Settings(ctx)
			if err != nil {
				return err
			}
			slabs, err := st.Slabs(ctx)
			if err != nil {
				return err
			}

			in := pricing.Input{
				PurchaseCostUSD:   pricing.ParseAmount(cost).OrZero(),
				ShippingCostUSD:   pricing.ParseAmount(shipping).OrZero(),
				ExpectedSalePrice: pricing.ParseAmount(sale),
			}
			result := pricing.Evaluate(in, settings, slabs)

			return printQuote(cmd.OutOrStdout(), a.cfg.Currency, in, result, resultWarnings(slabs, result.UsedFallbackSlab))
		},
	}

	cmd.Flags().StringVar(&cost, "cost", "", "purchase cost in USD")
	cmd.Flags().StringVar(&shipping, "shipping", "0", "shipping cost in USD")
	cmd.Flags().StringVar(&sale, "sale", "", "expected sale price in local currency")
	_ = cmd.MarkFlagRequired("cost")

	return cmd
}

func printQuote(w io.Writer, currency string, in pricing.Input, r pricing.Result, warnings []string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Base cost\t$%s\n", decimal.NewFromFloat(r.BaseUSD).StringFixed(2))
	fmt.Fprintf(tw, "Base price\t%s\n", formatMoney(r.BasePriceLocal, currency))
	fmt.Fprintf(tw, "GST\t%s%% = %s\n", decimal.NewFromFloat(r.GSTRate*100).StringFixed(1), formatMoney(r.GSTAmount, currency))
	fmt.Fprintf(tw, "Slab\t%s\n", r.SlabLabel)
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "\tLanded\tProfit\tMargin")
	for _, p := range []pricing.Path{pricing.PathA, pricing.PathB} {
		profit, margin := r.ProfitPathA, r.MarginPathA
		if p == pricing.PathB {
			profit, margin = r.ProfitPathB, r.MarginPathB
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.Label(), formatMoney(r.Landed(p), currency), formatOptionalMoney(profit, currency), formatOptionalPercent(margin))
	}

	if r.BestPath != pricing.PathNone {
		fmt.Fprintf(tw, "\nBest\t%s (%s)\n", r.BestPath.Label(), formatOptionalMoney(r.BestProfit, currency))
	} else if !in.ExpectedSalePrice.Set {
		fmt.Fprintln(tw, "\nNo sale price given; profit not computed.")
	}

	for _, warning := range warnings {
		fmt.Fprintf(tw, "warning: %s\n", warning)
	}

	return tw.Flush()
}

func formatMoney(v float64, currency string) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	s := humanize.Comma(decimal.NewFromFloat(v).Round(0).IntPart())
	if currency == "" {
		return s
	}
	return currency + " " + s
}

func formatOptionalMoney(o pricing.Optional, currency string) string {
	if !o.Set {
		return "n/a"
	}
	return formatMoney(o.Value, currency)
}

func formatOptionalPercent(o pricing.Optional) string {
	if !o.Set {
		return "n/a"
	}
	return decimal.NewFromFloat(o.Value).StringFixed(1) + "%"
}
