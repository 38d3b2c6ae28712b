package main

import (
	"maps"
	"runtime"
	"slices"

	"github.com/spf13/cobra"

	"github.com/pario-ai/ledgerfin/pkg/aggregate"
	"github.com/pario-ai/ledgerfin/pkg/benchmark"
	"github.com/pario-ai/ledgerfin/pkg/economics"
	"github.com/pario-ai/ledgerfin/pkg/models"
	"github.com/pario-ai/ledgerfin/pkg/reconcile"
	"github.com/pario-ai/ledgerfin/pkg/report"
	"github.com/pario-ai/ledgerfin/pkg/resale"
)

func newBreakdownCmd(a *app) *cobra.Command {
	var (
		rf         rangeFlags
		by         string
		department string
		vendor     string
		customer   string
		workers    int
	)

	cmd := &cobra.Command{
		Use:   "breakdown",
		Short: "Show cost, NCC volume and fixed/variable split grouped by a dimension",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rf.filter()
			f.Department = models.Department(department)
			f.Vendor = models.Vendor(vendor)
			f.Customer = customer

			recs, err := a.records(cmd.Context(), f)
			if err != nil {
				return err
			}
			rows, err := aggregate.Breakdown(cmd.Context(), recs, by, workers)
			if err != nil {
				return err
			}
			return report.Breakdown(cmd.OutOrStdout(), by, rows)
		},
	}

	rf.bind(cmd)
	cmd.Flags().StringVar(&by, "by", "department", "dimension: department, project, customer, vendor, date or gpu")
	cmd.Flags().StringVar(&department, "department", "", "filter by department")
	cmd.Flags().StringVar(&vendor, "vendor", "", "filter by vendor")
	cmd.Flags().StringVar(&customer, "customer", "", "filter by customer")
	cmd.Flags().IntVar(&workers, "workers", runtime.GOMAXPROCS(0), "concurrent summing workers")

	return cmd
}

func newEconomicsCmd(a *app) *cobra.Command {
	var rf rangeFlags

	cmd := &cobra.Command{
		Use:   "economics",
		Short: "Show per-customer margin, minimum viable prices and guardrail status",
		RunE: func(cmd *cobra.Command, args []string) error {
			recs, err := a.records(cmd.Context(), rf.filter())
			if err != nil {
				return err
			}
			rows, err := economics.Compute(recs, a.cfg.Guardrails, a.cfg.Margin)
			if err != nil {
				return err
			}
			return report.Economics(cmd.OutOrStdout(), rows)
		},
	}

	rf.bind(cmd)
	return cmd
}

func newReconcileCmd(a *app) *cobra.Command {
	var (
		rf       rangeFlags
		provider string
	)

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Reconcile internal usage against budget and the provider bill",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := a.cfg.Reconciliation
			if provider != "" {
				c.Provider = models.Vendor(provider)
			}
			recs, err := a.records(cmd.Context(), rf.filter())
			if err != nil {
				return err
			}
			rec, err := reconcile.Run(recs, c)
			if err != nil {
				return err
			}
			return report.Reconciliation(cmd.OutOrStdout(), rec)
		},
	}

	rf.bind(cmd)
	cmd.Flags().StringVar(&provider, "provider", "", "billed vendor (default from config)")
	return cmd
}

func newBenchmarkCmd(a *app) *cobra.Command {
	var (
		rf    rangeFlags
		shock float64
	)

	cmd := &cobra.Command{
		Use:   "benchmark",
		Short: "Show benchmark GPU prices for every configured and observed class",
		RunE: func(cmd *cobra.Command, args []string) error {
			recs, err := a.records(cmd.Context(), rf.filter())
			if err != nil {
				return err
			}
			classes := benchmark.Classes(recs, slices.Collect(maps.Keys(a.cfg.Capacity))...)
			return report.Benchmark(cmd.OutOrStdout(), benchmark.Feed(classes, benchmark.Multiplier(shock)))
		},
	}

	rf.bind(cmd)
	cmd.Flags().Float64Var(&shock, "shock", 0, "market price shock in percent, e.g. -30")
	return cmd
}

func newResaleCmd(a *app) *cobra.Command {
	var (
		rf    rangeFlags
		shock float64
	)

	cmd := &cobra.Command{
		Use:   "resale",
		Short: "Model revenue from reselling idle on-prem capacity",
		RunE: func(cmd *cobra.Command, args []string) error {
			recs, err := a.records(cmd.Context(), rf.filter())
			if err != nil {
				return err
			}
			res, err := resale.Run(recs, a.cfg.Capacity, a.cfg.Resale, benchmark.Multiplier(shock))
			if err != nil {
				return err
			}
			return report.Resale(cmd.OutOrStdout(), res)
		},
	}

	rf.bind(cmd)
	cmd.Flags().Float64Var(&shock, "shock", 0, "market price shock in percent, e.g. -30")
	return cmd
}
