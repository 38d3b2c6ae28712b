package scenario

import (
	"errors"
	"math"
	"testing"

	"github.com/pario-ai/ledgerfin/pkg/config"
	"github.com/pario-ai/ledgerfin/pkg/economics"
	"github.com/pario-ai/ledgerfin/pkg/models"
	"github.com/pario-ai/ledgerfin/pkg/resale"
)

const eps = 1e-9

func testRecords() []models.UsageRecord {
	return []models.UsageRecord{
		{Date: "2024-01-01", Department: models.DeptGenAI, Project: "chat", Customer: "Acme", Vendor: models.VendorOnPrem, GPUClass: "H100-80GB", Units: 1000, Cost: 100},
		{Date: "2024-01-01", Department: models.DeptGenAI, Project: "chat", Customer: "Acme", Vendor: models.VendorAWS, GPUClass: "A100-80GB", Units: 400, Cost: 80},
		{Date: "2024-01-01", Department: models.DeptVision, Project: "ocr", Customer: "Beta", Vendor: models.VendorGCP, GPUClass: "L40S", Units: 200, Cost: 30},
		{Date: "2024-01-02", Department: models.DeptResearch, Project: "pretrain", Vendor: models.VendorAWS, GPUClass: "H100-80GB", Units: 900, Cost: 150},
		{Date: "2024-01-02", Department: models.DeptPlatform, Project: "api", Customer: "Beta", Vendor: models.VendorExternalAPI, GPUClass: "n/a", Units: 0, Cost: 12},
	}
}

func TestNeutralScenario(t *testing.T) {
	e := New(config.Default())
	res, err := e.Run(testRecords(), Knobs{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Scenario != res.Baseline {
		t.Errorf("scenario %+v != baseline %+v", res.Scenario, res.Baseline)
	}
	if res.Deltas != (models.KPIs{}) {
		t.Errorf("deltas = %+v, want zero", res.Deltas)
	}
	if res.Detail.Resale != nil {
		t.Error("resale detail set without resale params")
	}
}

func TestNeutralWithExplicitZeros(t *testing.T) {
	e := New(config.Default())
	res, err := e.Run(testRecords(), Knobs{
		Reserved: map[models.Vendor]float64{models.VendorAWS: 0, models.VendorGCP: 0},
		Shift:    Shift{From: models.VendorAWS, To: models.VendorGCP, Fraction: 0},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Deltas != (models.KPIs{}) {
		t.Errorf("deltas = %+v, want zero", res.Deltas)
	}
}

func TestBaseline(t *testing.T) {
	cfg := config.Default()
	res, err := New(cfg).Run(testRecords(), Knobs{})
	if err != nil {
		t.Fatal(err)
	}
	b := res.Baseline
	if b.Fixed != 100 {
		t.Errorf("fixed = %v, want 100", b.Fixed)
	}
	if math.Abs(b.Variable-272) > eps {
		t.Errorf("variable = %v, want 272", b.Variable)
	}
	if math.Abs(b.COGS-372) > eps {
		t.Errorf("cogs = %v, want 372", b.COGS)
	}
	wantRev := economics.ImpliedRevenue(180, "Acme", cfg.Margin) + economics.ImpliedRevenue(42, "Beta", cfg.Margin)
	if math.Abs(b.Revenue-wantRev) > eps {
		t.Errorf("revenue = %v, want %v", b.Revenue, wantRev)
	}
	if math.Abs(b.GrossMarginPct-(b.Revenue-b.COGS)/b.Revenue*100) > eps {
		t.Errorf("gross margin pct = %v", b.GrossMarginPct)
	}
}

func TestUpliftOnlyHitsFlaggedCustomers(t *testing.T) {
	cfg := config.Default()
	// Every customer sits at 40% margin: WARN under the default guardrails.
	cfg.Margin = config.MarginModel{Base: 0.40}
	res, err := New(cfg).Run(testRecords(), Knobs{UpliftPct: 10})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(res.Scenario.Revenue-res.Baseline.Revenue*1.1) > eps {
		t.Errorf("revenue = %v, want %v", res.Scenario.Revenue, res.Baseline.Revenue*1.1)
	}
	if len(res.Detail.UpliftedCustomers) != 2 {
		t.Errorf("uplifted = %v", res.Detail.UpliftedCustomers)
	}
	if res.Deltas.COGS != 0 {
		t.Errorf("uplift moved cogs by %v", res.Deltas.COGS)
	}

	// At 60% margin everyone is OK and nothing moves.
	cfg.Margin = config.MarginModel{Base: 0.60}
	res, err = New(cfg).Run(testRecords(), Knobs{UpliftPct: 10})
	if err != nil {
		t.Fatal(err)
	}
	if res.Deltas.Revenue != 0 || len(res.Detail.UpliftedCustomers) != 0 {
		t.Errorf("OK customers were uplifted: %+v", res.Detail)
	}
}

func TestVendorShiftReprices(t *testing.T) {
	cfg := config.Default()
	res, err := New(cfg).Run(testRecords(), Knobs{
		Shift: Shift{From: models.VendorAWS, To: models.VendorGCP, Fraction: 0.5},
	})
	if err != nil {
		t.Fatal(err)
	}
	// AWS variable is 230; half moves to GCP at 0.92/1.00.
	moved := 115.0
	if got := res.Detail.ScenarioVariableByVendor[models.VendorAWS]; math.Abs(got-115) > eps {
		t.Errorf("AWS variable = %v, want 115", got)
	}
	if got := res.Detail.ScenarioVariableByVendor[models.VendorGCP]; math.Abs(got-(30+moved*0.92)) > eps {
		t.Errorf("GCP variable = %v, want %v", got, 30+moved*0.92)
	}
	if want := -moved * 0.08; math.Abs(res.Deltas.Variable-want) > eps {
		t.Errorf("variable delta = %v, want %v", res.Deltas.Variable, want)
	}
	if res.Deltas.Fixed != 0 || res.Deltas.Revenue != 0 {
		t.Errorf("shift moved fixed or revenue: %+v", res.Deltas)
	}
}

func TestReservedDiscount(t *testing.T) {
	cfg := config.Default()
	res, err := New(cfg).Run(testRecords(), Knobs{
		Reserved: map[models.Vendor]float64{models.VendorAWS: 0.5},
	})
	if err != nil {
		t.Fatal(err)
	}
	// 230 * 0.5 * 0.20 = 23.
	if math.Abs(res.Deltas.Variable+23) > eps {
		t.Errorf("variable delta = %v, want -23", res.Deltas.Variable)
	}
	if math.Abs(res.Deltas.GrossProfit-23) > eps {
		t.Errorf("gross profit delta = %v, want 23", res.Deltas.GrossProfit)
	}
}

func TestReservedAppliesAfterShift(t *testing.T) {
	cfg := config.Default()
	res, err := New(cfg).Run(testRecords(), Knobs{
		Shift:    Shift{From: models.VendorAWS, To: models.VendorGCP, Fraction: 1},
		Reserved: map[models.Vendor]float64{models.VendorGCP: 1},
	})
	if err != nil {
		t.Fatal(err)
	}
	want := (30 + 230*0.92) * 0.8
	if got := res.Detail.ScenarioVariableByVendor[models.VendorGCP]; math.Abs(got-want) > eps {
		t.Errorf("GCP variable = %v, want %v", got, want)
	}
}

func TestResaleLever(t *testing.T) {
	cfg := config.Default()
	params := cfg.Resale
	res, err := New(cfg).Run(testRecords(), Knobs{Resale: &params, ShockPct: 20})
	if err != nil {
		t.Fatal(err)
	}
	rs, err := resale.Run(testRecords(), cfg.Capacity, params, 1.2)
	if err != nil {
		t.Fatal(err)
	}
	if res.Detail.Resale == nil {
		t.Fatal("resale detail missing")
	}
	if math.Abs(res.Deltas.Revenue-rs.Totals.Revenue) > eps {
		t.Errorf("revenue delta = %v, want %v", res.Deltas.Revenue, rs.Totals.Revenue)
	}
	if math.Abs(res.Deltas.Variable-(rs.Totals.IncrementalCost+rs.Totals.Fees)) > eps {
		t.Errorf("variable delta = %v", res.Deltas.Variable)
	}
	if res.Deltas.Fixed != 0 {
		t.Errorf("resale moved fixed cost by %v", res.Deltas.Fixed)
	}
}

func TestDeltasAreDifferences(t *testing.T) {
	cfg := config.Default()
	params := cfg.Resale
	res, err := New(cfg).Run(testRecords(), Knobs{
		UpliftPct: 7,
		Reserved:  map[models.Vendor]float64{models.VendorAWS: 0.3, models.VendorGCP: 0.6},
		Shift:     Shift{From: models.VendorAzure, To: models.VendorOnPrem, Fraction: 0.4},
		Resale:    &params,
		ShockPct:  -15,
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Deltas != res.Scenario.Sub(res.Baseline) {
		t.Errorf("deltas %+v != scenario-baseline", res.Deltas)
	}
	s := res.Scenario
	if math.Abs(s.COGS-(s.Fixed+s.Variable)) > eps || math.Abs(s.GrossProfit-(s.Revenue-s.COGS)) > eps {
		t.Errorf("scenario KPIs inconsistent: %+v", s)
	}
}

func TestEmptyRecords(t *testing.T) {
	res, err := New(config.Default()).Run(nil, Knobs{UpliftPct: 5})
	if err != nil {
		t.Fatal(err)
	}
	if res.Baseline != (models.KPIs{}) || res.Scenario != (models.KPIs{}) {
		t.Errorf("expected zero KPIs, got %+v", res)
	}
}

func TestRejectsBadKnobs(t *testing.T) {
	e := New(config.Default())
	tests := []struct {
		name  string
		knobs Knobs
	}{
		{"uplift", Knobs{UpliftPct: -1}},
		{"reserved range", Knobs{Reserved: map[models.Vendor]float64{models.VendorAWS: 1.2}}},
		{"reserved vendor", Knobs{Reserved: map[models.Vendor]float64{"Oracle": 0.2}}},
		{"shift vendor", Knobs{Shift: Shift{From: models.VendorAWS, To: "Oracle", Fraction: 0.1}}},
		{"shift range", Knobs{Shift: Shift{From: models.VendorAWS, To: models.VendorGCP, Fraction: 2}}},
		{"resale", Knobs{Resale: &config.ResaleParams{SellThrough: -1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Run(testRecords(), tt.knobs)
			if !errors.Is(err, models.ErrConfiguration) {
				t.Errorf("expected ErrConfiguration, got %v", err)
			}
		})
	}
}

func TestRejectsBadConfig(t *testing.T) {
	cfg := config.Default()
	cfg.CommitDiscount = -0.2
	if _, err := New(cfg).Run(testRecords(), Knobs{}); !errors.Is(err, models.ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
}

func TestRunsOnComputationFieldsOnly(t *testing.T) {
	def := config.Default()
	cfg := &config.Config{
		Guardrails:     def.Guardrails,
		Margin:         def.Margin,
		VendorIndex:    def.VendorIndex,
		CommitDiscount: def.CommitDiscount,
		Reconciliation: def.Reconciliation,
		Capacity:       def.Capacity,
		Resale:         def.Resale,
	}

	res, err := New(cfg).Run(testRecords(), Knobs{UpliftPct: 5})
	if err != nil {
		t.Fatalf("expected run without storage or logging settings, got %v", err)
	}
	want, err := New(def).Run(testRecords(), Knobs{UpliftPct: 5})
	if err != nil {
		t.Fatal(err)
	}
	if res.Scenario != want.Scenario {
		t.Errorf("scenario = %+v, want %+v", res.Scenario, want.Scenario)
	}

	if _, err := New(cfg).Run(nil, Knobs{}); err != nil {
		t.Errorf("empty run: %v", err)
	}
}

func TestRejectsBadMarginInConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Margin = config.MarginModel{Base: 1.0, Spread: 0.4}
	if _, err := New(cfg).Run(testRecords(), Knobs{}); !errors.Is(err, models.ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
}
