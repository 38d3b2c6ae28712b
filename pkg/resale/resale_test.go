package resale

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/pario-ai/ledgerfin/pkg/benchmark"
	"github.com/pario-ai/ledgerfin/pkg/config"
	"github.com/pario-ai/ledgerfin/pkg/models"
)

var testCapacity = map[string]config.Capacity{
	"H100-80GB": {Rigs: 2, UnitsPerRigDay: 100}, // 200/day
	"L40S":      {Rigs: 1, UnitsPerRigDay: 50},  // 50/day
}

func testRecords() []models.UsageRecord {
	return []models.UsageRecord{
		{Date: "2024-01-01", Department: models.DeptGenAI, Project: "p", Vendor: models.VendorOnPrem, GPUClass: "H100-80GB", Units: 120, Cost: 12},
		{Date: "2024-01-01", Department: models.DeptResearch, Project: "p", Vendor: models.VendorOnPrem, GPUClass: "H100-80GB", Units: 30, Cost: 3},
		{Date: "2024-01-01", Department: models.DeptResearch, Project: "p", Vendor: models.VendorOnPrem, GPUClass: "L40S", Units: 80, Cost: 4},
		// Cloud usage is not drawn from owned capacity.
		{Date: "2024-01-02", Department: models.DeptGenAI, Project: "p", Vendor: models.VendorAWS, GPUClass: "H100-80GB", Units: 500, Cost: 60},
	}
}

func TestIdleUnits(t *testing.T) {
	idle := IdleUnits(testRecords(), testCapacity)
	// Day 1: H100 200-150=50, L40S over-used -> 0. Day 2: no on-prem, fully idle.
	if idle["H100-80GB"] != 50+200 {
		t.Errorf("H100 idle = %v, want 250", idle["H100-80GB"])
	}
	if idle["L40S"] != 0+50 {
		t.Errorf("L40S idle = %v, want 50", idle["L40S"])
	}
}

func TestRowFormula(t *testing.T) {
	p := config.ResaleParams{SellThrough: 0.5, PricePctOfBenchmark: 0.8, MarketplaceFeePct: 0.1, IncrementalCostPerUnit: 0.002}
	shock := benchmark.Multiplier(10)
	res, err := Run(testRecords(), testCapacity, p, shock)
	if err != nil {
		t.Fatal(err)
	}
	var h100 models.ResaleRow
	for _, r := range res.Rows {
		if r.GPUClass == "H100-80GB" {
			h100 = r
		}
	}
	wantPrice := benchmark.Spot("H100-80GB", shock) * 0.8
	if h100.Price != wantPrice {
		t.Errorf("price = %v, want %v", h100.Price, wantPrice)
	}
	if h100.ResaleUnits != 125 {
		t.Errorf("resale units = %v, want 125", h100.ResaleUnits)
	}
	if math.Abs(h100.Revenue-125*wantPrice) > 1e-12 {
		t.Errorf("revenue = %v", h100.Revenue)
	}
	if math.Abs(h100.Fees-h100.Revenue*0.1) > 1e-12 {
		t.Errorf("fees = %v", h100.Fees)
	}
	if math.Abs(h100.IncrementalCost-0.25) > 1e-12 {
		t.Errorf("incremental cost = %v, want 0.25", h100.IncrementalCost)
	}
	if math.Abs(h100.Contribution-(h100.Revenue-h100.IncrementalCost-h100.Fees)) > 1e-12 {
		t.Errorf("contribution = %v", h100.Contribution)
	}
}

func TestSortedAndTotals(t *testing.T) {
	res, err := Run(testRecords(), testCapacity, config.Default().Resale, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(res.Rows))
	}
	for i := 1; i < len(res.Rows); i++ {
		if res.Rows[i].Contribution > res.Rows[i-1].Contribution {
			t.Errorf("rows not sorted by contribution: %v after %v", res.Rows[i].Contribution, res.Rows[i-1].Contribution)
		}
	}
	var idle, revenue, contribution float64
	for _, r := range res.Rows {
		idle += r.IdleUnits
		revenue += r.Revenue
		contribution += r.Contribution
	}
	if res.Totals.IdleUnits != idle || math.Abs(res.Totals.Revenue-revenue) > 1e-12 || math.Abs(res.Totals.Contribution-contribution) > 1e-12 {
		t.Errorf("totals = %+v", res.Totals)
	}
}

func TestIdempotent(t *testing.T) {
	p := config.Default().Resale
	a, err := Run(testRecords(), testCapacity, p, benchmark.Multiplier(-20))
	if err != nil {
		t.Fatal(err)
	}
	b, err := Run(testRecords(), testCapacity, p, benchmark.Multiplier(-20))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("identical inputs produced different rows")
	}
}

func TestEmptyRecords(t *testing.T) {
	res, err := Run(nil, testCapacity, config.Default().Resale, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Rows) != 2 {
		t.Fatalf("expected a zero row per class, got %d", len(res.Rows))
	}
	if res.Totals != (models.ResaleTotals{}) {
		t.Errorf("totals = %+v, want zero", res.Totals)
	}
}

func TestRejectsBadParams(t *testing.T) {
	p := config.Default().Resale
	p.SellThrough = 2
	_, err := Run(nil, testCapacity, p, 1)
	if !errors.Is(err, models.ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
}

func TestRejectsBadCapacity(t *testing.T) {
	p := config.Default().Resale
	tests := []struct {
		name string
		cp   config.Capacity
	}{
		{"negative rigs", config.Capacity{Rigs: -1, UnitsPerRigDay: 100}},
		{"negative units", config.Capacity{Rigs: 2, UnitsPerRigDay: -5}},
		{"nan units", config.Capacity{Rigs: 2, UnitsPerRigDay: math.NaN()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			capacity := map[string]config.Capacity{"H100-80GB": tt.cp}
			_, err := Run(testRecords(), capacity, p, 1)
			if !errors.Is(err, models.ErrConfiguration) {
				t.Fatalf("expected ErrConfiguration, got %v", err)
			}
			var fe *models.FieldError
			if !errors.As(err, &fe) || !strings.HasPrefix(fe.Field, "capacity[H100-80GB].") {
				t.Errorf("expected capacity field error, got %v", err)
			}
		})
	}
}
