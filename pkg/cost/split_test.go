package cost

import (
	"testing"

	"github.com/pario-ai/ledgerfin/pkg/models"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		vendor       models.Vendor
		cost         float64
		wantFixed    float64
		wantVariable float64
	}{
		{models.VendorOnPrem, 10, 10, 0},
		{models.VendorAWS, 7.25, 0, 7.25},
		{models.VendorGCP, 0, 0, 0},
		{models.VendorAzure, 3.3, 0, 3.3},
		{models.VendorExternalAPI, 0.01, 0, 0.01},
	}
	for _, tt := range tests {
		t.Run(string(tt.vendor), func(t *testing.T) {
			s := Split(models.UsageRecord{Vendor: tt.vendor, Cost: tt.cost})
			if s.Fixed != tt.wantFixed || s.Variable != tt.wantVariable {
				t.Errorf("Split = %+v, want fixed=%v variable=%v", s, tt.wantFixed, tt.wantVariable)
			}
			if s.Fixed+s.Variable != tt.cost {
				t.Errorf("fixed+variable = %v, want %v", s.Fixed+s.Variable, tt.cost)
			}
		})
	}
}

func TestTotals(t *testing.T) {
	recs := []models.UsageRecord{
		{Vendor: models.VendorOnPrem, Cost: 10},
		{Vendor: models.VendorAWS, Cost: 4},
		{Vendor: models.VendorGCP, Cost: 1.5},
	}
	got := Totals(recs)
	if got.Fixed != 10 || got.Variable != 5.5 {
		t.Errorf("Totals = %+v", got)
	}
	if empty := Totals(nil); empty.Fixed != 0 || empty.Variable != 0 {
		t.Errorf("Totals(nil) = %+v", empty)
	}
}
