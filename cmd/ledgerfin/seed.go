package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pario-ai/ledgerfin/pkg/ledger"
	"github.com/pario-ai/ledgerfin/pkg/money"
)

func newSeedCmd(a *app) *cobra.Command {
	var (
		reset bool
		seed  int64
		start string
		days  int
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the ledger with a reproducible synthetic usage history",
		RunE: func(cmd *cobra.Command, args []string) error {
			g := a.cfg.Generator
			if cmd.Flags().Changed("seed") {
				g.Seed = seed
			}
			if start != "" {
				g.Start = start
			}
			if days > 0 {
				g.Days = days
			}

			recs, err := ledger.Generate(g)
			if err != nil {
				return err
			}

			store, err := a.openLedger()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			ctx := cmd.Context()
			if reset {
				if err := store.Clear(ctx); err != nil {
					return err
				}
			}
			if err := store.Insert(ctx, recs); err != nil {
				return err
			}
			st, err := store.Stats(ctx)
			if err != nil {
				return err
			}

			a.log.WithFields(logrus.Fields{"records": len(recs), "seed": g.Seed, "db_path": a.cfg.Ledger.DBPath}).Info("ledger seeded")
			fmt.Fprintf(cmd.OutOrStdout(), "Inserted %d records. Ledger holds %d records from %s to %s, total cost %s.\n",
				len(recs), st.Records, st.FirstDate, st.LastDate, money.Format(st.TotalCost))
			return nil
		},
	}

	cmd.Flags().BoolVar(&reset, "clear", false, "remove existing records first")
	cmd.Flags().Int64Var(&seed, "seed", 0, "generator seed (default from config)")
	cmd.Flags().StringVar(&start, "start", "", "first date (YYYY-MM-DD, default from config)")
	cmd.Flags().IntVar(&days, "days", 0, "number of days (default from config)")

	return cmd
}
