// Package reconcile compares a provider's internally measured cost with a
// synthesized budget and bill, and spreads the variance over departments.
package reconcile

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/pario-ai/ledgerfin/pkg/aggregate"
	"github.com/pario-ai/ledgerfin/pkg/config"
	"github.com/pario-ai/ledgerfin/pkg/detrand"
	"github.com/pario-ai/ledgerfin/pkg/models"
)

// Budget is the deterministic plan for a day: internal cost within ±5%.
func Budget(date string, internal float64) float64 {
	return internal * (0.95 + detrand.Hash("budget"+date)*0.10)
}

// Billed is the deterministic invoice for a day: internal cost within ±2%
// around a 2% discount.
func Billed(date string, internal float64) float64 {
	return internal * (0.98 + (detrand.Hash("billed"+date)-0.5)*0.04)
}

// Classify buckets an absolute variance percentage.
func Classify(variancePct float64, c config.ReconciliationConfig) models.Status {
	abs := math.Abs(variancePct)
	switch {
	case abs < c.OKPct:
		return models.StatusOK
	case abs < c.WarnPct:
		return models.StatusWarn
	default:
		return models.StatusFail
	}
}

// Run reconciles every date with usage at c.Provider. Rows are ordered by
// date and allocations by actual usage descending.
func Run(recs []models.UsageRecord, c config.ReconciliationConfig) (models.Reconciliation, error) {
	if err := models.ValidateRecords(recs); err != nil {
		return models.Reconciliation{}, fmt.Errorf("reconcile: %w", err)
	}
	if err := c.Validate(); err != nil {
		return models.Reconciliation{}, fmt.Errorf("reconcile: %w", err)
	}

	provider := aggregate.Filter(recs, func(r models.UsageRecord) bool { return r.Vendor == c.Provider })
	days := aggregate.ByNested(provider, aggregate.ByDate, aggregate.ByDepartment)
	slices.SortFunc(days, func(a, b aggregate.Nested[string, models.Department]) int {
		return cmp.Compare(a.Key, b.Key)
	})

	out := models.Reconciliation{
		Provider: c.Provider,
		Rows:     make([]models.ReconciliationRow, 0, len(days)),
	}

	var depts []models.AllocationRow
	pos := make(map[models.Department]int)
	var grandActual float64

	for _, day := range days {
		row := models.ReconciliationRow{
			Date:     day.Key,
			Internal: day.Cost,
			Budget:   Budget(day.Key, day.Cost),
			Billed:   Billed(day.Key, day.Cost),
		}
		row.Variance = row.Billed - row.Budget
		if row.Budget != 0 {
			row.VariancePct = row.Variance / row.Budget * 100
		}
		row.Status = Classify(row.VariancePct, c)
		out.Rows = append(out.Rows, row)

		out.Summary.Budget += row.Budget
		out.Summary.Billed += row.Billed
		out.Summary.Variance += row.Variance

		// The signed variance is spread by share as-is, negative days included.
		for _, d := range day.Inner {
			i, ok := pos[d.Key]
			if !ok {
				i = len(depts)
				pos[d.Key] = i
				depts = append(depts, models.AllocationRow{Department: d.Key})
			}
			share := 0.0
			if day.Cost > 0 {
				share = d.Cost / day.Cost
			}
			depts[i].ActualUsage += d.Cost
			depts[i].AllocatedVariance += row.Variance * share
			grandActual += d.Cost
		}
	}

	for i := range depts {
		if grandActual > 0 {
			depts[i].SharePct = depts[i].ActualUsage / grandActual * 100
		}
	}
	slices.SortStableFunc(depts, func(a, b models.AllocationRow) int {
		if n := cmp.Compare(b.ActualUsage, a.ActualUsage); n != 0 {
			return n
		}
		return cmp.Compare(a.Department, b.Department)
	})
	out.Allocations = depts
	if out.Allocations == nil {
		out.Allocations = []models.AllocationRow{}
	}

	if out.Summary.Budget != 0 {
		out.Summary.VariancePct = out.Summary.Variance / out.Summary.Budget * 100
	}
	out.Summary.Status = Classify(out.Summary.VariancePct, c)
	return out, nil
}
