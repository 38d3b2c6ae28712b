// Package resale models selling idle on-prem GPU capacity at a discount to
// the benchmark market price.
package resale

import (
	"cmp"
	"fmt"
	"maps"
	"slices"

	"github.com/pario-ai/ledgerfin/pkg/aggregate"
	"github.com/pario-ai/ledgerfin/pkg/benchmark"
	"github.com/pario-ai/ledgerfin/pkg/config"
	"github.com/pario-ai/ledgerfin/pkg/models"
)

type dayClass struct {
	date  string
	class string
}

func byDayClass(r models.UsageRecord) dayClass { return dayClass{r.Date, r.GPUClass} }

// IdleUnits sums unused on-prem capacity per GPU class over every date
// present in recs. A class with no on-prem usage on a date counts its full
// daily capacity as idle; over-used days count as zero idle.
func IdleUnits(recs []models.UsageRecord, capacity map[string]config.Capacity) map[string]float64 {
	onPrem := aggregate.Filter(recs, func(r models.UsageRecord) bool { return r.Vendor == models.VendorOnPrem })
	used := aggregate.Index(aggregate.By(onPrem, byDayClass))

	classes := slices.Sorted(maps.Keys(capacity))
	idle := make(map[string]float64, len(classes))
	for _, c := range classes {
		idle[c] = 0
	}
	for _, day := range aggregate.By(recs, aggregate.ByDate) {
		for _, c := range classes {
			free := capacity[c].Daily() - used[dayClass{day.Key, c}].Units
			if free > 0 {
				idle[c] += free
			}
		}
	}
	return idle
}

// Run prices the resale of idle capacity for every class in capacity.
// shock is the benchmark multiplier (1 + shockFraction). Rows are sorted by
// contribution descending, then class name.
func Run(recs []models.UsageRecord, capacity map[string]config.Capacity, p config.ResaleParams, shock float64) (models.ResaleResult, error) {
	if err := models.ValidateRecords(recs); err != nil {
		return models.ResaleResult{}, fmt.Errorf("resale: %w", err)
	}
	if err := config.ValidateStruct("resale", p); err != nil {
		return models.ResaleResult{}, fmt.Errorf("resale: %w", err)
	}
	if err := config.ValidateCapacity(capacity); err != nil {
		return models.ResaleResult{}, fmt.Errorf("resale: %w", err)
	}

	idle := IdleUnits(recs, capacity)
	res := models.ResaleResult{Rows: make([]models.ResaleRow, 0, len(idle))}
	for _, c := range slices.Sorted(maps.Keys(idle)) {
		row := price(c, idle[c], p, shock)
		res.Rows = append(res.Rows, row)

		res.Totals.IdleUnits += row.IdleUnits
		res.Totals.ResaleUnits += row.ResaleUnits
		res.Totals.Revenue += row.Revenue
		res.Totals.IncrementalCost += row.IncrementalCost
		res.Totals.Fees += row.Fees
		res.Totals.Contribution += row.Contribution
	}

	slices.SortStableFunc(res.Rows, func(a, b models.ResaleRow) int {
		return cmp.Compare(b.Contribution, a.Contribution)
	})
	return res, nil
}

func price(class string, idle float64, p config.ResaleParams, shock float64) models.ResaleRow {
	row := models.ResaleRow{
		GPUClass:    class,
		IdleUnits:   idle,
		ResaleUnits: idle * p.SellThrough,
		Price:       benchmark.Spot(class, shock) * p.PricePctOfBenchmark,
	}
	row.Revenue = row.ResaleUnits * row.Price
	row.Fees = row.Revenue * p.MarketplaceFeePct
	row.IncrementalCost = row.ResaleUnits * p.IncrementalCostPerUnit
	row.Contribution = row.Revenue - row.IncrementalCost - row.Fees
	return row
}
