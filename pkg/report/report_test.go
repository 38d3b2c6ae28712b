package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pario-ai/ledgerfin/pkg/aggregate"
	"github.com/pario-ai/ledgerfin/pkg/models"
)

func TestBreakdownTotals(t *testing.T) {
	rows := []aggregate.Row{
		{Key: "AWS", Totals: aggregate.Totals{Records: 2, Cost: 10.005, Units: 50, Variable: 10.005}},
		{Key: "On-Prem", Totals: aggregate.Totals{Records: 1, Cost: 4, Units: 100, Fixed: 4}},
	}
	var b bytes.Buffer
	if err := Breakdown(&b, "vendor", rows); err != nil {
		t.Fatal(err)
	}
	out := b.String()
	for _, want := range []string{"VENDOR", "On-Prem", "10.01", "TOTAL", "14.01"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestEmptyViews(t *testing.T) {
	tests := []struct {
		name string
		fn   func(*bytes.Buffer) error
		want string
	}{
		{"breakdown", func(b *bytes.Buffer) error { return Breakdown(b, "date", nil) }, "No usage data"},
		{"economics", func(b *bytes.Buffer) error { return Economics(b, nil) }, "No billable usage"},
		{"reconcile", func(b *bytes.Buffer) error {
			return Reconciliation(b, models.Reconciliation{Provider: models.VendorAWS})
		}, "No AWS usage"},
		{"benchmark", func(b *bytes.Buffer) error { return Benchmark(b, nil) }, "No GPU classes"},
		{"resale", func(b *bytes.Buffer) error { return Resale(b, models.ResaleResult{}) }, "No on-prem capacity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b bytes.Buffer
			if err := tt.fn(&b); err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(b.String(), tt.want) {
				t.Errorf("got %q, want %q", b.String(), tt.want)
			}
		})
	}
}

func TestEconomicsRecommendations(t *testing.T) {
	rows := []models.CustomerEconomics{
		{Customer: "Acme", Status: models.StatusOK, Recommendation: "Monitor"},
		{Customer: "Hooli", Status: models.StatusFail, Recommendation: "Raise price 12.0%"},
	}
	var b bytes.Buffer
	if err := Economics(&b, rows); err != nil {
		t.Fatal(err)
	}
	out := b.String()
	if !strings.Contains(out, "Hooli [FAIL]: Raise price 12.0%") {
		t.Errorf("missing FAIL recommendation:\n%s", out)
	}
	if strings.Contains(out, "Acme [OK]") {
		t.Errorf("OK customers should not get a recommendation line:\n%s", out)
	}
}

func TestScenarioShowsEveryVendor(t *testing.T) {
	res := models.ScenarioResult{
		Baseline: models.KPIs{Revenue: 100, COGS: 60, GrossProfit: 40, GrossMarginPct: 40},
		Scenario: models.KPIs{Revenue: 110, COGS: 60, GrossProfit: 50, GrossMarginPct: 45.4545},
		Detail: models.ScenarioDetail{
			UpliftedCustomers: []string{"Acme", "Hooli"},
		},
	}
	res.Deltas = res.Scenario.Sub(res.Baseline)
	var b bytes.Buffer
	if err := Scenario(&b, res); err != nil {
		t.Fatal(err)
	}
	out := b.String()
	for _, v := range models.Vendors {
		if !strings.Contains(out, string(v)) {
			t.Errorf("missing vendor %s", v)
		}
	}
	for _, want := range []string{"45.45%", "5.45%", "Uplifted customers: Acme, Hooli"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Resale:") {
		t.Error("resale line printed without resale detail")
	}
}
