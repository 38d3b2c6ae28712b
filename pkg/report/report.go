// Package report renders financial views as aligned text tables for the CLI
// and the MCP server. Money is rounded here and nowhere earlier.
package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/pario-ai/ledgerfin/pkg/aggregate"
	"github.com/pario-ai/ledgerfin/pkg/models"
	"github.com/pario-ai/ledgerfin/pkg/money"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// Breakdown writes grouped totals followed by a TOTAL line.
func Breakdown(w io.Writer, dim string, rows []aggregate.Row) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No usage data found.")
		return err
	}
	tw := newTable(w)
	fmt.Fprintf(tw, "%s\tRECORDS\tNCC\tCOST\tFIXED\tVARIABLE\n", strings.ToUpper(dim))
	var total aggregate.Totals
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\n",
			r.Key, r.Records, money.Format(r.Units), money.Format(r.Cost), money.Format(r.Fixed), money.Format(r.Variable))
		total.Merge(r.Totals)
	}
	fmt.Fprintf(tw, "TOTAL\t%d\t%s\t%s\t%s\t%s\n",
		total.Records, money.Format(total.Units), money.Format(total.Cost), money.Format(total.Fixed), money.Format(total.Variable))
	return tw.Flush()
}

// Economics writes one line per customer.
func Economics(w io.Writer, rows []models.CustomerEconomics) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No billable usage found.")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "CUSTOMER\tCOST\tREVENUE\tGM\tPRICE/U\tCOST/U\tMIN@FLOOR\tMIN@TARGET\tSTATUS")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Customer, money.Format(r.Cost), money.Format(r.Revenue), money.FormatPct(r.GrossMarginPct*100),
			money.Price(r.PricePerUnit), money.Price(r.CostPerUnit), money.Price(r.MinPriceAtFloor), money.Price(r.MinPriceAtTarget), r.Status)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, r := range rows {
		if r.Status != models.StatusOK {
			fmt.Fprintf(w, "  %s [%s]: %s\n", r.Customer, r.Status, r.Recommendation)
		}
	}
	return nil
}

// Reconciliation writes the daily rows, the period summary and the
// department allocation.
func Reconciliation(w io.Writer, rec models.Reconciliation) error {
	if len(rec.Rows) == 0 {
		_, err := fmt.Fprintf(w, "No %s usage found.\n", rec.Provider)
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "DATE\tINTERNAL\tBUDGET\tBILLED\tVARIANCE\tVAR%\tSTATUS")
	for _, r := range rec.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Date, money.Format(r.Internal), money.Format(r.Budget), money.Format(r.Billed),
			money.Format(r.Variance), money.FormatPct(r.VariancePct), r.Status)
	}
	s := rec.Summary
	fmt.Fprintf(tw, "TOTAL\t\t%s\t%s\t%s\t%s\t%s\n",
		money.Format(s.Budget), money.Format(s.Billed), money.Format(s.Variance), money.FormatPct(s.VariancePct), s.Status)
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	tw = newTable(w)
	fmt.Fprintln(tw, "DEPARTMENT\tACTUAL\tSHARE\tALLOCATED VARIANCE")
	for _, a := range rec.Allocations {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			a.Department, money.Format(a.ActualUsage), money.FormatPct(a.SharePct), money.Format(a.AllocatedVariance))
	}
	return tw.Flush()
}

// Benchmark writes one quote per GPU class.
func Benchmark(w io.Writer, quotes []models.BenchmarkQuote) error {
	if len(quotes) == 0 {
		_, err := fmt.Fprintln(w, "No GPU classes to quote.")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "GPU CLASS\tSPOT\tAVG 7D\tSPREAD\tVOL 7D")
	for _, q := range quotes {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			q.GPUClass, money.Price(q.Spot), money.Price(q.Avg7d), money.FormatPct(q.SpreadPct*100), money.FormatPct(q.Volatility7dPct*100))
	}
	return tw.Flush()
}

// Resale writes per-class rows and a totals line with a blank price.
func Resale(w io.Writer, res models.ResaleResult) error {
	if len(res.Rows) == 0 {
		_, err := fmt.Fprintln(w, "No on-prem capacity configured.")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "GPU CLASS\tIDLE\tRESALE\tPRICE\tREVENUE\tINCR COST\tFEES\tCONTRIBUTION")
	for _, r := range res.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.GPUClass, money.Format(r.IdleUnits), money.Format(r.ResaleUnits), money.Price(r.Price),
			money.Format(r.Revenue), money.Format(r.IncrementalCost), money.Format(r.Fees), money.Format(r.Contribution))
	}
	t := res.Totals
	fmt.Fprintf(tw, "Totals\t%s\t%s\t\t%s\t%s\t%s\t%s\n",
		money.Format(t.IdleUnits), money.Format(t.ResaleUnits),
		money.Format(t.Revenue), money.Format(t.IncrementalCost), money.Format(t.Fees), money.Format(t.Contribution))
	return tw.Flush()
}

// Scenario writes baseline, scenario and delta columns per KPI, then the
// per-vendor variable cost detail.
func Scenario(w io.Writer, res models.ScenarioResult) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "KPI\tBASELINE\tSCENARIO\tDELTA")
	lines := []struct {
		name    string
		b, s, d float64
		pct     bool
	}{
		{"Revenue", res.Baseline.Revenue, res.Scenario.Revenue, res.Deltas.Revenue, false},
		{"COGS", res.Baseline.COGS, res.Scenario.COGS, res.Deltas.COGS, false},
		{"Gross profit", res.Baseline.GrossProfit, res.Scenario.GrossProfit, res.Deltas.GrossProfit, false},
		{"Gross margin", res.Baseline.GrossMarginPct, res.Scenario.GrossMarginPct, res.Deltas.GrossMarginPct, true},
		{"Fixed", res.Baseline.Fixed, res.Scenario.Fixed, res.Deltas.Fixed, false},
		{"Variable", res.Baseline.Variable, res.Scenario.Variable, res.Deltas.Variable, false},
	}
	for _, l := range lines {
		f := money.Format
		if l.pct {
			f = money.FormatPct
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", l.name, f(l.b), f(l.s), f(l.d))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	tw = newTable(w)
	fmt.Fprintln(tw, "VENDOR\tBASELINE VARIABLE\tSCENARIO VARIABLE")
	for _, v := range models.Vendors {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", v,
			money.Format(res.Detail.BaselineVariableByVendor[v]), money.Format(res.Detail.ScenarioVariableByVendor[v]))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(res.Detail.UpliftedCustomers) > 0 {
		fmt.Fprintf(w, "\nUplifted customers: %s\n", strings.Join(res.Detail.UpliftedCustomers, ", "))
	}
	if r := res.Detail.Resale; r != nil {
		fmt.Fprintf(w, "Resale: revenue %s, incremental cost %s, fees %s, contribution %s\n",
			money.Format(r.Revenue), money.Format(r.IncrementalCost), money.Format(r.Fees), money.Format(r.Contribution))
	}
	return nil
}
