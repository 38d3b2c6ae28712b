// Package economics derives per-customer revenue, margin and pricing
// guardrails from usage cost.
package economics

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/pario-ai/ledgerfin/pkg/aggregate"
	"github.com/pario-ai/ledgerfin/pkg/config"
	"github.com/pario-ai/ledgerfin/pkg/detrand"
	"github.com/pario-ai/ledgerfin/pkg/models"
)

// ImpliedMargin is the deterministic margin assumed for a customer.
func ImpliedMargin(customer string, m config.MarginModel) float64 {
	return m.Base + detrand.Hash(customer)*m.Spread
}

// ImpliedRevenue back-solves revenue from cost at the customer's margin.
func ImpliedRevenue(cost float64, customer string, m config.MarginModel) float64 {
	return cost / (1 - ImpliedMargin(customer, m))
}

// Classify buckets a gross margin fraction against the guardrails:
// below floor is FAIL, below target is WARN, anything else OK.
func Classify(grossMargin float64, g config.Guardrails) models.Status {
	switch {
	case grossMargin < g.FloorGM:
		return models.StatusFail
	case grossMargin < g.TargetGM:
		return models.StatusWarn
	default:
		return models.StatusOK
	}
}

// MinPrice is the unit price that yields margin gm at costPerUnit. A margin
// of 1 or more has no such price, so fallback is returned instead.
func MinPrice(costPerUnit, gm, fallback float64) float64 {
	if gm >= 1 {
		return fallback
	}
	return costPerUnit / (1 - gm)
}

// Compute returns the economics of every customer with at least one
// billable record, sorted by cost descending.
func Compute(recs []models.UsageRecord, g config.Guardrails, m config.MarginModel) ([]models.CustomerEconomics, error) {
	if err := models.ValidateRecords(recs); err != nil {
		return nil, fmt.Errorf("economics: %w", err)
	}
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("economics: %w", err)
	}
	// Revenue divides by 1-margin for every customer.
	if top := m.Base + m.Spread; !(top < 1) {
		return nil, fmt.Errorf("economics: %w", models.InvalidInput("margin", top, "base+spread must stay below 1"))
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("economics: %w", err)
	}

	groups := aggregate.By(aggregate.Filter(recs, models.UsageRecord.Billable), aggregate.ByCustomer)
	out := make([]models.CustomerEconomics, 0, len(groups))
	for _, grp := range groups {
		out = append(out, customer(grp.Key, grp.Totals, g, m))
	}

	slices.SortStableFunc(out, func(a, b models.CustomerEconomics) int {
		return cmp.Compare(b.Cost, a.Cost)
	})
	return out, nil
}

// Statuses maps each customer to its guardrail status.
func Statuses(rows []models.CustomerEconomics) map[string]models.Status {
	m := make(map[string]models.Status, len(rows))
	for _, r := range rows {
		m[r.Customer] = r.Status
	}
	return m
}

func customer(name string, t aggregate.Totals, g config.Guardrails, m config.MarginModel) models.CustomerEconomics {
	revenue := ImpliedRevenue(t.Cost, name, m)
	ce := models.CustomerEconomics{
		Customer: name,
		Cost:     t.Cost,
		Units:    t.Units,
		Revenue:  revenue,
	}
	if revenue > 0 {
		ce.GrossMarginPct = (revenue - t.Cost) / revenue
	}
	if t.Units > 0 {
		ce.PricePerUnit = revenue / t.Units
		ce.CostPerUnit = t.Cost / t.Units
	}
	ce.MinPriceAtFloor = MinPrice(ce.CostPerUnit, g.FloorGM, ce.PricePerUnit)
	ce.MinPriceAtTarget = MinPrice(ce.CostPerUnit, g.TargetGM, ce.PricePerUnit)
	ce.Status = Classify(ce.GrossMarginPct, g)
	ce.Recommendation = recommend(ce, g)
	return ce
}

func recommend(ce models.CustomerEconomics, g config.Guardrails) string {
	switch ce.Status {
	case models.StatusFail:
		return fmt.Sprintf("Raise price %.1f%% to reach the %.0f%% floor margin",
			uplift(ce.MinPriceAtFloor, ce.PricePerUnit)*100, g.FloorGM*100)
	case models.StatusWarn:
		return fmt.Sprintf("Raise price %.1f%% to reach the %.0f%% target margin",
			uplift(ce.MinPriceAtTarget, ce.PricePerUnit)*100, g.TargetGM*100)
	default:
		return "Monitor: margin at or above target"
	}
}

func uplift(minPrice, current float64) float64 {
	if current <= 0 {
		return 0
	}
	return minPrice/current - 1
}
