package models

// Status is a three-level health bucket shared by guardrails and reconciliation.
type Status string

const (
	StatusOK   Status = "OK"
	StatusWarn Status = "WARN"
	StatusFail Status = "FAIL"
)

// CustomerEconomics is the derived unit economics of one customer.
// GrossMarginPct is a fraction (0.42 means 42%).
type CustomerEconomics struct {
	Customer         string  `json:"customer"`
	Cost             float64 `json:"cost"`
	Units            float64 `json:"units"`
	Revenue          float64 `json:"revenue"`
	GrossMarginPct   float64 `json:"gross_margin_pct"`
	PricePerUnit     float64 `json:"price_per_unit"`
	CostPerUnit      float64 `json:"cost_per_unit"`
	MinPriceAtFloor  float64 `json:"min_price_at_floor"`
	MinPriceAtTarget float64 `json:"min_price_at_target"`
	Status           Status  `json:"status"`
	Recommendation   string  `json:"recommendation"`
}

// ReconciliationRow compares plan and bill for one provider-day.
type ReconciliationRow struct {
	Date        string  `json:"date"`
	Internal    float64 `json:"internal"`
	Budget      float64 `json:"budget"`
	Billed      float64 `json:"billed"`
	Variance    float64 `json:"variance"`
	VariancePct float64 `json:"variance_pct"`
	Status      Status  `json:"status"`
}

// AllocationRow is one department's share of the period's variance.
type AllocationRow struct {
	Department        Department `json:"department"`
	ActualUsage       float64    `json:"actual_usage"`
	SharePct          float64    `json:"share_pct"`
	AllocatedVariance float64    `json:"allocated_variance"`
}

// ReconciliationSummary totals a reconciliation over the period.
type ReconciliationSummary struct {
	Budget      float64 `json:"budget"`
	Billed      float64 `json:"billed"`
	Variance    float64 `json:"variance"`
	VariancePct float64 `json:"variance_pct"`
	Status      Status  `json:"status"`
}

// Reconciliation is the full budget-vs-billing view for one provider.
type Reconciliation struct {
	Provider    Vendor                `json:"provider"`
	Rows        []ReconciliationRow   `json:"rows"`
	Allocations []AllocationRow       `json:"allocations"`
	Summary     ReconciliationSummary `json:"summary"`
}

// BenchmarkQuote is the market price snapshot for one GPU class.
type BenchmarkQuote struct {
	GPUClass        string  `json:"gpu_class"`
	Spot            float64 `json:"spot"`
	Avg7d           float64 `json:"avg_7d"`
	SpreadPct       float64 `json:"spread_pct"`
	Volatility7dPct float64 `json:"volatility_7d_pct"`
}

// ResaleRow models reselling one GPU class's idle capacity.
type ResaleRow struct {
	GPUClass        string  `json:"gpu_class"`
	IdleUnits       float64 `json:"idle_units"`
	ResaleUnits     float64 `json:"resale_units"`
	Price           float64 `json:"price"`
	Revenue         float64 `json:"revenue"`
	IncrementalCost float64 `json:"incremental_cost"`
	Fees            float64 `json:"fees"`
	Contribution    float64 `json:"contribution"`
}

// ResaleTotals sums ResaleRow fields across classes, except Price.
type ResaleTotals struct {
	IdleUnits       float64 `json:"idle_units"`
	ResaleUnits     float64 `json:"resale_units"`
	Revenue         float64 `json:"revenue"`
	IncrementalCost float64 `json:"incremental_cost"`
	Fees            float64 `json:"fees"`
	Contribution    float64 `json:"contribution"`
}

// ResaleResult holds per-class rows sorted by contribution and their totals.
type ResaleResult struct {
	Rows   []ResaleRow  `json:"rows"`
	Totals ResaleTotals `json:"totals"`
}

// KPIs is a P&L snapshot. GrossMarginPct is a percentage (42 means 42%).
type KPIs struct {
	Revenue        float64 `json:"revenue"`
	COGS           float64 `json:"cogs"`
	GrossProfit    float64 `json:"gross_profit"`
	GrossMarginPct float64 `json:"gross_margin_pct"`
	Fixed          float64 `json:"fixed"`
	Variable       float64 `json:"variable"`
}

// Sub returns k - o field by field.
func (k KPIs) Sub(o KPIs) KPIs {
	return KPIs{
		Revenue:        k.Revenue - o.Revenue,
		COGS:           k.COGS - o.COGS,
		GrossProfit:    k.GrossProfit - o.GrossProfit,
		GrossMarginPct: k.GrossMarginPct - o.GrossMarginPct,
		Fixed:          k.Fixed - o.Fixed,
		Variable:       k.Variable - o.Variable,
	}
}

// ScenarioDetail keeps the intermediate figures behind a scenario.
type ScenarioDetail struct {
	BaselineVariableByVendor map[Vendor]float64 `json:"baseline_variable_by_vendor"`
	ScenarioVariableByVendor map[Vendor]float64 `json:"scenario_variable_by_vendor"`
	UpliftedCustomers        []string           `json:"uplifted_customers,omitempty"`
	Resale                   *ResaleTotals      `json:"resale,omitempty"`
}

// ScenarioResult is a baseline-vs-scenario P&L comparison.
type ScenarioResult struct {
	Baseline KPIs           `json:"baseline"`
	Scenario KPIs           `json:"scenario"`
	Deltas   KPIs           `json:"deltas"`
	Detail   ScenarioDetail `json:"detail"`
}
