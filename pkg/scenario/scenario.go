// Package scenario composes pricing, vendor, commitment and resale levers
// into a baseline-vs-scenario P&L comparison.
package scenario

import (
	"fmt"
	"slices"

	"github.com/pario-ai/ledgerfin/pkg/benchmark"
	"github.com/pario-ai/ledgerfin/pkg/config"
	"github.com/pario-ai/ledgerfin/pkg/cost"
	"github.com/pario-ai/ledgerfin/pkg/economics"
	"github.com/pario-ai/ledgerfin/pkg/models"
	"github.com/pario-ai/ledgerfin/pkg/resale"
)

// Knobs are the levers of one scenario. The zero value is the baseline.
type Knobs struct {
	// UpliftPct raises price for WARN and FAIL customers (5 means +5%).
	UpliftPct float64 `yaml:"uplift_pct" json:"uplift_pct" validate:"gte=0,lte=100"`
	// Reserved is the committed fraction of each vendor's variable spend.
	Reserved map[models.Vendor]float64 `yaml:"reserved" json:"reserved,omitempty" validate:"dive,gte=0,lte=1"`
	Shift    Shift                     `yaml:"shift" json:"shift"`
	// Resale enables idle-capacity resale when set.
	Resale *config.ResaleParams `yaml:"resale" json:"resale,omitempty"`
	// ShockPct moves benchmark prices (-30 means 30% cheaper).
	ShockPct float64 `yaml:"shock_pct" json:"shock_pct" validate:"gte=-100,lte=100"`
}

// Shift moves Fraction of From's variable cost to To.
type Shift struct {
	From     models.Vendor `yaml:"from" json:"from,omitempty"`
	To       models.Vendor `yaml:"to" json:"to,omitempty"`
	Fraction float64       `yaml:"fraction" json:"fraction" validate:"gte=0,lte=1"`
}

// Engine runs scenarios against a fixed configuration.
type Engine struct {
	cfg *config.Config
}

// New creates an Engine. The fields the engine reads are validated on every
// Run so a caller mutating the configuration between runs is still caught.
func New(cfg *config.Config) *Engine {
	return &Engine{cfg: cfg}
}

// Validate checks the knobs against the engine's configuration.
func (e *Engine) Validate(k Knobs) error {
	if err := config.ValidateStruct("scenario", k); err != nil {
		return err
	}
	for v := range k.Reserved {
		if !v.Valid() {
			return models.ConfigError("scenario.reserved", v, "unknown vendor")
		}
	}
	if k.Shift.Fraction > 0 {
		if !k.Shift.From.Valid() {
			return models.ConfigError("scenario.shift.from", k.Shift.From, "unknown vendor")
		}
		if !k.Shift.To.Valid() {
			return models.ConfigError("scenario.shift.to", k.Shift.To, "unknown vendor")
		}
	}
	return nil
}

// Run computes baseline and scenario KPIs over recs.
func (e *Engine) Run(recs []models.UsageRecord, k Knobs) (models.ScenarioResult, error) {
	if err := e.cfg.ValidateCore(); err != nil {
		return models.ScenarioResult{}, fmt.Errorf("scenario: %w", err)
	}
	if err := e.Validate(k); err != nil {
		return models.ScenarioResult{}, fmt.Errorf("scenario: %w", err)
	}
	if err := models.ValidateRecords(recs); err != nil {
		return models.ScenarioResult{}, fmt.Errorf("scenario: %w", err)
	}

	var res models.ScenarioResult
	split := cost.Totals(recs)
	baseVar := variableByVendor(recs)

	res.Baseline = kpis(revenue(recs, e.cfg.Margin, nil), split.Fixed, sumVendors(baseVar))

	// Pricing lever.
	econ, err := economics.Compute(recs, e.cfg.Guardrails, e.cfg.Margin)
	if err != nil {
		return models.ScenarioResult{}, fmt.Errorf("scenario: %w", err)
	}
	mult := make(map[string]float64, len(econ))
	for _, c := range econ {
		m := 1.0
		if c.Status != models.StatusOK && k.UpliftPct > 0 {
			m = 1 + k.UpliftPct/100
			res.Detail.UpliftedCustomers = append(res.Detail.UpliftedCustomers, c.Customer)
		}
		mult[c.Customer] = m
	}
	slices.Sort(res.Detail.UpliftedCustomers)
	scenarioRevenue := revenue(recs, e.cfg.Margin, mult)

	// Vendor levers.
	scenVar := make(map[models.Vendor]float64, len(baseVar))
	for v, amt := range baseVar {
		scenVar[v] = amt
	}
	if f := k.Shift.Fraction; f > 0 {
		moved := scenVar[k.Shift.From] * f
		scenVar[k.Shift.From] -= moved
		scenVar[k.Shift.To] += moved * e.cfg.VendorIndex[k.Shift.To] / e.cfg.VendorIndex[k.Shift.From]
	}
	for v, frac := range k.Reserved {
		scenVar[v] -= scenVar[v] * frac * e.cfg.CommitDiscount
	}
	scenarioVariable := sumVendors(scenVar)

	// Resale lever.
	if k.Resale != nil {
		rs, err := resale.Run(recs, e.cfg.Capacity, *k.Resale, benchmark.Multiplier(k.ShockPct))
		if err != nil {
			return models.ScenarioResult{}, fmt.Errorf("scenario: %w", err)
		}
		scenarioRevenue += rs.Totals.Revenue
		scenarioVariable += rs.Totals.IncrementalCost + rs.Totals.Fees
		res.Detail.Resale = &rs.Totals
	}

	res.Scenario = kpis(scenarioRevenue, split.Fixed, scenarioVariable)
	res.Deltas = res.Scenario.Sub(res.Baseline)
	res.Detail.BaselineVariableByVendor = baseVar
	res.Detail.ScenarioVariableByVendor = scenVar
	return res, nil
}

// revenue sums implied revenue over billable records, scaled by each
// customer's multiplier when mult is non-nil.
func revenue(recs []models.UsageRecord, m config.MarginModel, mult map[string]float64) float64 {
	var total float64
	for _, r := range recs {
		if !r.Billable() {
			continue
		}
		rev := economics.ImpliedRevenue(r.Cost, r.Customer, m)
		if mult != nil {
			rev *= mult[r.Customer]
		}
		total += rev
	}
	return total
}

func variableByVendor(recs []models.UsageRecord) map[models.Vendor]float64 {
	out := make(map[models.Vendor]float64, len(models.Vendors))
	for _, v := range models.Vendors {
		out[v] = 0
	}
	for _, r := range recs {
		out[r.Vendor] += cost.Split(r).Variable
	}
	return out
}

// sumVendors adds in models.Vendors order so baseline and scenario sums
// agree bit for bit when no lever moves them.
func sumVendors(m map[models.Vendor]float64) float64 {
	var total float64
	for _, v := range models.Vendors {
		total += m[v]
	}
	return total
}

func kpis(revenue, fixed, variable float64) models.KPIs {
	k := models.KPIs{
		Revenue:  revenue,
		Fixed:    fixed,
		Variable: variable,
		COGS:     fixed + variable,
	}
	k.GrossProfit = k.Revenue - k.COGS
	if k.Revenue > 0 {
		k.GrossMarginPct = k.GrossProfit / k.Revenue * 100
	}
	return k
}
