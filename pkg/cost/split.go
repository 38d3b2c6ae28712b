// Package cost classifies usage cost into fixed and variable parts.
package cost

import "github.com/pario-ai/ledgerfin/pkg/models"

// Split attributes the full cost of on-prem records to fixed cost and all
// other vendors' cost to variable cost. Fixed + Variable == r.Cost exactly.
func Split(r models.UsageRecord) models.CostSplit {
	if r.Vendor == models.VendorOnPrem {
		return models.CostSplit{Fixed: r.Cost}
	}
	return models.CostSplit{Variable: r.Cost}
}

// Totals sums the split over recs.
func Totals(recs []models.UsageRecord) models.CostSplit {
	var out models.CostSplit
	for _, r := range recs {
		s := Split(r)
		out.Fixed += s.Fixed
		out.Variable += s.Variable
	}
	return out
}
