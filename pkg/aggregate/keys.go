package aggregate

import (
	"context"
	"fmt"

	"github.com/pario-ai/ledgerfin/pkg/models"
)

// DeptProject is the composite key for project-level rollups. Projects are
// scoped to their department.
type DeptProject struct {
	Department models.Department `json:"department"`
	Project    string            `json:"project"`
}

func (k DeptProject) String() string {
	return string(k.Department) + "/" + k.Project
}

// Key extractors for the common dimensions.

func ByDepartment(r models.UsageRecord) models.Department { return r.Department }

func ByProject(r models.UsageRecord) DeptProject {
	return DeptProject{Department: r.Department, Project: r.Project}
}

func ByCustomer(r models.UsageRecord) string { return r.Customer }

func ByVendor(r models.UsageRecord) models.Vendor { return r.Vendor }

func ByDate(r models.UsageRecord) string { return r.Date }

func ByGPUClass(r models.UsageRecord) string { return r.GPUClass }

// Dimensions names the keys accepted by Breakdown.
var Dimensions = []string{"department", "project", "customer", "vendor", "date", "gpu"}

// Row is a dimension-agnostic breakdown line.
type Row struct {
	Key string `json:"key"`
	Totals
}

// Breakdown groups recs by a named dimension and renders keys as strings.
// The customer dimension covers billable records only. workers > 1 sums
// chunks concurrently through ByParallel.
func Breakdown(ctx context.Context, recs []models.UsageRecord, dim string, workers int) ([]Row, error) {
	switch dim {
	case "department":
		return rows(ByParallel(ctx, recs, ByDepartment, workers))
	case "project":
		return rows(ByParallel(ctx, recs, ByProject, workers))
	case "customer":
		return rows(ByParallel(ctx, Filter(recs, models.UsageRecord.Billable), ByCustomer, workers))
	case "vendor":
		return rows(ByParallel(ctx, recs, ByVendor, workers))
	case "date":
		return rows(ByParallel(ctx, recs, ByDate, workers))
	case "gpu":
		return rows(ByParallel(ctx, recs, ByGPUClass, workers))
	default:
		return nil, models.InvalidInput("dimension", dim, fmt.Sprintf("must be one of %v", Dimensions))
	}
}

func rows[K comparable](groups []Group[K], err error) ([]Row, error) {
	if err != nil {
		return nil, err
	}
	out := make([]Row, len(groups))
	for i, g := range groups {
		out[i] = Row{Key: fmt.Sprint(g.Key), Totals: g.Totals}
	}
	return out, nil
}
