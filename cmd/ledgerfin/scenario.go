package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/pario-ai/ledgerfin/pkg/models"
	"github.com/pario-ai/ledgerfin/pkg/report"
	"github.com/pario-ai/ledgerfin/pkg/scenario"
)

func newScenarioCmd(a *app) *cobra.Command {
	var (
		rf        rangeFlags
		file      string
		uplift    float64
		reserved  map[string]string
		shiftFrom string
		shiftTo   string
		shiftFrac float64
		withSale  bool
		shock     float64
	)

	cmd := &cobra.Command{
		Use:   "scenario",
		Short: "Compare baseline and scenario P&L under pricing, commitment, vendor and resale levers",
		Example: `  ledgerfin scenario --uplift 5 --reserved AWS=0.5,GCP=0.3
  ledgerfin scenario --shift-from AWS --shift-to GCP --shift-fraction 0.25 --resale --shock -20
  ledgerfin scenario --file knobs.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var k scenario.Knobs
			if file != "" {
				var err error
				if k, err = loadKnobs(file); err != nil {
					return err
				}
			}

			flags := cmd.Flags()
			if flags.Changed("uplift") {
				k.UpliftPct = uplift
			}
			if flags.Changed("reserved") {
				r, err := parseReserved(reserved)
				if err != nil {
					return err
				}
				k.Reserved = r
			}
			if flags.Changed("shift-from") {
				k.Shift.From = models.Vendor(shiftFrom)
			}
			if flags.Changed("shift-to") {
				k.Shift.To = models.Vendor(shiftTo)
			}
			if flags.Changed("shift-fraction") {
				k.Shift.Fraction = shiftFrac
			}
			if withSale && k.Resale == nil {
				params := a.cfg.Resale
				k.Resale = &params
			}
			if flags.Changed("shock") {
				k.ShockPct = shock
			}

			engine := scenario.New(a.cfg)
			if err := engine.Validate(k); err != nil {
				return err
			}
			recs, err := a.records(cmd.Context(), rf.filter())
			if err != nil {
				return err
			}
			res, err := engine.Run(recs, k)
			if err != nil {
				return err
			}
			return report.Scenario(cmd.OutOrStdout(), res)
		},
	}

	rf.bind(cmd)
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML file with knobs; flags override it")
	cmd.Flags().Float64Var(&uplift, "uplift", 0, "price uplift in percent for WARN and FAIL customers")
	cmd.Flags().StringToStringVar(&reserved, "reserved", nil, "committed fraction per vendor, e.g. AWS=0.5,GCP=0.3")
	cmd.Flags().StringVar(&shiftFrom, "shift-from", "", "vendor to move variable cost away from")
	cmd.Flags().StringVar(&shiftTo, "shift-to", "", "vendor to move variable cost to")
	cmd.Flags().Float64Var(&shiftFrac, "shift-fraction", 0, "fraction of the source vendor's variable cost to move")
	cmd.Flags().BoolVar(&withSale, "resale", false, "add idle-capacity resale with the configured parameters")
	cmd.Flags().Float64Var(&shock, "shock", 0, "benchmark price shock in percent, e.g. -30")

	return cmd
}

func loadKnobs(path string) (scenario.Knobs, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return scenario.Knobs{}, fmt.Errorf("read knobs: %w", err)
	}
	var k scenario.Knobs
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &k); err != nil {
		return scenario.Knobs{}, fmt.Errorf("parse knobs: %w", err)
	}
	return k, nil
}

func parseReserved(in map[string]string) (map[models.Vendor]float64, error) {
	out := make(map[models.Vendor]float64, len(in))
	for v, s := range in {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, models.ConfigError("scenario.reserved["+v+"]", s, "not a number")
		}
		out[models.Vendor(v)] = f
	}
	return out, nil
}
