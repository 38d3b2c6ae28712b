package ledger

import (
	"fmt"
	"time"

	"github.com/pario-ai/ledgerfin/pkg/config"
	"github.com/pario-ai/ledgerfin/pkg/detrand"
	"github.com/pario-ai/ledgerfin/pkg/models"
	"github.com/pario-ai/ledgerfin/pkg/money"
)

type project struct {
	dept     models.Department
	name     string
	customer string
	gpu      string
	scale    float64
}

var projects = []project{
	{models.DeptGenAI, "chat-assist", "Acme", "H100-80GB", 1.6},
	{models.DeptGenAI, "embeddings", "", "A100-80GB", 0.8},
	{models.DeptResearch, "pretrain", "", "H100-80GB", 2.4},
	{models.DeptResearch, "eval-harness", "Globex", "A100-80GB", 0.6},
	{models.DeptPlatform, "inference-api", "Initech", "L40S", 1.2},
	{models.DeptAnalytics, "forecasting", "Umbrella", "A10G", 0.5},
	{models.DeptVision, "doc-ocr", "Acme", "L40S", 0.9},
	{models.DeptVision, "video-tagging", "Hooli", "A10G", 0.7},
}

type vendorMix struct {
	vendor models.Vendor
	weight float64
	price  float64 // per NCC
}

var vendorMixes = []vendorMix{
	{models.VendorOnPrem, 0.45, 0.009},
	{models.VendorAWS, 0.25, 0.016},
	{models.VendorGCP, 0.12, 0.015},
	{models.VendorAzure, 0.10, 0.017},
	{models.VendorExternalAPI, 0.08, 0.022},
}

// Generate produces a reproducible synthetic ledger: one record per project
// per day, with vendor, volume and cost drawn from a seeded sequence.
func Generate(g config.GeneratorConfig) ([]models.UsageRecord, error) {
	start, err := time.Parse(models.DateLayout, g.Start)
	if err != nil {
		return nil, models.InvalidInput("generator.start", g.Start, "expected YYYY-MM-DD")
	}
	if g.Days < 1 {
		return nil, models.InvalidInput("generator.days", g.Days, "must be >= 1")
	}

	src := detrand.New(g.Seed)
	recs := make([]models.UsageRecord, 0, g.Days*len(projects))
	for d := range g.Days {
		day := start.AddDate(0, 0, d)
		date := day.Format(models.DateLayout)
		weekend := day.Weekday() == time.Saturday || day.Weekday() == time.Sunday
		for _, p := range projects {
			mix := pickVendor(src.Float64())
			units := src.Between(150, 450) * p.scale
			if weekend {
				units *= 0.6
			}
			gpu := p.gpu
			if mix.vendor == models.VendorExternalAPI {
				gpu = "api"
			}
			recs = append(recs, models.UsageRecord{
				Date:       date,
				Department: p.dept,
				Project:    p.name,
				Customer:   p.customer,
				Vendor:     mix.vendor,
				GPUClass:   gpu,
				Units:      money.Round2(units),
				Cost:       money.Round2(units * mix.price * src.Between(0.9, 1.1)),
			})
		}
	}
	if err := models.ValidateRecords(recs); err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	return recs, nil
}

func pickVendor(u float64) vendorMix {
	acc := 0.0
	for _, m := range vendorMixes {
		acc += m.weight
		if u < acc {
			return m
		}
	}
	return vendorMixes[len(vendorMixes)-1]
}
