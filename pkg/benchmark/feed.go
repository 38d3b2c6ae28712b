// Package benchmark produces deterministic per-GPU-class market prices
// standing in for an external spot price feed.
package benchmark

import (
	"math"
	"slices"

	"github.com/pario-ai/ledgerfin/pkg/detrand"
	"github.com/pario-ai/ledgerfin/pkg/models"
)

// Quote returns the benchmark for gpuClass scaled by shock, where shock is a
// multiplier (1 + shockFraction). Any shock is accepted; prices never go
// below zero.
func Quote(gpuClass string, shock float64) models.BenchmarkQuote {
	h := detrand.Hash(gpuClass)
	base := 0.018 + h*0.022
	drift := (detrand.Hash(gpuClass+"7") - 0.5) * 0.004
	return models.BenchmarkQuote{
		GPUClass:        gpuClass,
		Spot:            math.Max(0, (base+drift)*shock),
		Avg7d:           math.Max(0, base*shock),
		SpreadPct:       0.02 + h*0.03,
		Volatility7dPct: 0.08 + h*0.12,
	}
}

// Spot is Quote(gpuClass, shock).Spot.
func Spot(gpuClass string, shock float64) float64 {
	return Quote(gpuClass, shock).Spot
}

// Feed quotes every class, ordered by class name.
func Feed(classes []string, shock float64) []models.BenchmarkQuote {
	sorted := slices.Clone(classes)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	out := make([]models.BenchmarkQuote, len(sorted))
	for i, c := range sorted {
		out[i] = Quote(c, shock)
	}
	return out
}

// Multiplier converts a shock percentage (10 means +10%) to a multiplier.
func Multiplier(shockPct float64) float64 {
	return 1 + shockPct/100
}

// Classes returns the sorted union of configured classes and every GPU class
// seen in recs, skipping External-API usage which has no rig behind it.
func Classes(recs []models.UsageRecord, configured ...string) []string {
	out := slices.Clone(configured)
	for _, r := range recs {
		if r.Vendor != models.VendorExternalAPI {
			out = append(out, r.GPUClass)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
