package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"maps"
	"runtime"
	"slices"

	"github.com/pario-ai/ledgerfin/pkg/aggregate"
	"github.com/pario-ai/ledgerfin/pkg/benchmark"
	"github.com/pario-ai/ledgerfin/pkg/economics"
	"github.com/pario-ai/ledgerfin/pkg/ledger"
	"github.com/pario-ai/ledgerfin/pkg/models"
	"github.com/pario-ai/ledgerfin/pkg/reconcile"
	"github.com/pario-ai/ledgerfin/pkg/report"
	"github.com/pario-ai/ledgerfin/pkg/resale"
	"github.com/pario-ai/ledgerfin/pkg/scenario"
)

// toolHandler handles one tools/call.
type toolHandler func(ctx context.Context, s *Server, args json.RawMessage) ToolCallResult

var toolHandlers = map[string]toolHandler{
	"ledgerfin_breakdown": handleBreakdown,
	"ledgerfin_economics": handleEconomics,
	"ledgerfin_reconcile": handleReconcile,
	"ledgerfin_benchmark": handleBenchmark,
	"ledgerfin_resale":    handleResale,
	"ledgerfin_scenario":  handleScenario,
}

var rangeProps = map[string]any{
	"since": map[string]any{
		"type":        "string",
		"description": "First date in YYYY-MM-DD format (optional)",
	},
	"until": map[string]any{
		"type":        "string",
		"description": "Last date in YYYY-MM-DD format (optional)",
	},
}

var shockProp = map[string]any{
	"type":        "number",
	"description": "Benchmark price shock in percent, e.g. -30 (optional)",
}

func schema(extra map[string]any) map[string]any {
	props := maps.Clone(rangeProps)
	maps.Copy(props, extra)
	return map[string]any{"type": "object", "properties": props}
}

var allTools = []ToolDefinition{
	{
		Name:        "ledgerfin_breakdown",
		Description: "Group usage cost, NCC volume and the fixed/variable split by a dimension.",
		InputSchema: schema(map[string]any{
			"by": map[string]any{
				"type":        "string",
				"enum":        aggregate.Dimensions,
				"description": "Grouping dimension (default department)",
			},
			"department": map[string]any{"type": "string", "description": "Filter by department (optional)"},
			"vendor":     map[string]any{"type": "string", "description": "Filter by vendor (optional)"},
			"customer":   map[string]any{"type": "string", "description": "Filter by customer (optional)"},
		}),
	},
	{
		Name:        "ledgerfin_economics",
		Description: "Per-customer revenue, gross margin, minimum viable prices and guardrail status.",
		InputSchema: schema(nil),
	},
	{
		Name:        "ledgerfin_reconcile",
		Description: "Daily budget vs billed vs internal reconciliation for the billed provider, with variance allocated to departments.",
		InputSchema: schema(nil),
	},
	{
		Name:        "ledgerfin_benchmark",
		Description: "Benchmark spot and 7-day average prices per GPU class.",
		InputSchema: schema(map[string]any{"shock_pct": shockProp}),
	},
	{
		Name:        "ledgerfin_resale",
		Description: "Idle on-prem capacity per GPU class and the modeled resale revenue and contribution.",
		InputSchema: schema(map[string]any{"shock_pct": shockProp}),
	},
	{
		Name:        "ledgerfin_scenario",
		Description: "Compare baseline and scenario P&L under price uplift, reserved commitments, vendor shift and resale.",
		InputSchema: schema(map[string]any{
			"uplift_pct": map[string]any{
				"type":        "number",
				"description": "Price uplift in percent for WARN and FAIL customers",
			},
			"reserved": map[string]any{
				"type":                 "object",
				"additionalProperties": map[string]any{"type": "number"},
				"description":          "Committed fraction of variable spend per vendor, e.g. {\"AWS\": 0.5}",
			},
			"shift": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"from":     map[string]any{"type": "string"},
					"to":       map[string]any{"type": "string"},
					"fraction": map[string]any{"type": "number"},
				},
				"description": "Move a fraction of one vendor's variable cost to another",
			},
			"resale": map[string]any{
				"type":        "boolean",
				"description": "Add idle-capacity resale with the configured parameters",
			},
			"shock_pct": shockProp,
		}),
	},
}

type rangeArgs struct {
	Since string `json:"since"`
	Until string `json:"until"`
}

type breakdownArgs struct {
	rangeArgs
	By         string            `json:"by"`
	Department models.Department `json:"department"`
	Vendor     models.Vendor     `json:"vendor"`
	Customer   string            `json:"customer"`
}

type shockArgs struct {
	rangeArgs
	ShockPct float64 `json:"shock_pct"`
}

type scenarioArgs struct {
	rangeArgs
	UpliftPct float64                   `json:"uplift_pct"`
	Reserved  map[models.Vendor]float64 `json:"reserved"`
	Shift     scenario.Shift            `json:"shift"`
	Resale    bool                      `json:"resale"`
	ShockPct  float64                   `json:"shock_pct"`
}

func textResult(text string) ToolCallResult {
	return ToolCallResult{Content: []ContentBlock{{Type: "text", Text: text}}}
}

func errorResult(text string) ToolCallResult {
	return ToolCallResult{Content: []ContentBlock{{Type: "text", Text: text}}, IsError: true}
}

func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}

func render(fn func(w *bytes.Buffer) error) ToolCallResult {
	var b bytes.Buffer
	if err := fn(&b); err != nil {
		return errorResult("Error rendering result: " + err.Error())
	}
	return textResult(b.String())
}

func handleBreakdown(ctx context.Context, s *Server, raw json.RawMessage) ToolCallResult {
	var args breakdownArgs
	if err := decode(raw, &args); err != nil {
		return errorResult("Invalid arguments: " + err.Error())
	}
	if args.By == "" {
		args.By = "department"
	}
	recs, err := s.records(ctx, args.rangeArgs, func(f *ledger.Filter) {
		f.Department, f.Vendor, f.Customer = args.Department, args.Vendor, args.Customer
	})
	if err != nil {
		return errorResult("Error loading usage: " + err.Error())
	}
	rows, err := aggregate.Breakdown(ctx, recs, args.By, runtime.GOMAXPROCS(0))
	if err != nil {
		return errorResult("Error computing breakdown: " + err.Error())
	}
	return render(func(b *bytes.Buffer) error { return report.Breakdown(b, args.By, rows) })
}

func handleEconomics(ctx context.Context, s *Server, raw json.RawMessage) ToolCallResult {
	var args rangeArgs
	if err := decode(raw, &args); err != nil {
		return errorResult("Invalid arguments: " + err.Error())
	}
	recs, err := s.records(ctx, args, nil)
	if err != nil {
		return errorResult("Error loading usage: " + err.Error())
	}
	rows, err := economics.Compute(recs, s.cfg.Guardrails, s.cfg.Margin)
	if err != nil {
		return errorResult("Error computing economics: " + err.Error())
	}
	return render(func(b *bytes.Buffer) error { return report.Economics(b, rows) })
}

func handleReconcile(ctx context.Context, s *Server, raw json.RawMessage) ToolCallResult {
	var args rangeArgs
	if err := decode(raw, &args); err != nil {
		return errorResult("Invalid arguments: " + err.Error())
	}
	recs, err := s.records(ctx, args, nil)
	if err != nil {
		return errorResult("Error loading usage: " + err.Error())
	}
	rec, err := reconcile.Run(recs, s.cfg.Reconciliation)
	if err != nil {
		return errorResult("Error reconciling: " + err.Error())
	}
	return render(func(b *bytes.Buffer) error { return report.Reconciliation(b, rec) })
}

func handleBenchmark(ctx context.Context, s *Server, raw json.RawMessage) ToolCallResult {
	var args shockArgs
	if err := decode(raw, &args); err != nil {
		return errorResult("Invalid arguments: " + err.Error())
	}
	recs, err := s.records(ctx, args.rangeArgs, nil)
	if err != nil {
		return errorResult("Error loading usage: " + err.Error())
	}
	classes := benchmark.Classes(recs, slices.Collect(maps.Keys(s.cfg.Capacity))...)
	quotes := benchmark.Feed(classes, benchmark.Multiplier(args.ShockPct))
	return render(func(b *bytes.Buffer) error { return report.Benchmark(b, quotes) })
}

func handleResale(ctx context.Context, s *Server, raw json.RawMessage) ToolCallResult {
	var args shockArgs
	if err := decode(raw, &args); err != nil {
		return errorResult("Invalid arguments: " + err.Error())
	}
	recs, err := s.records(ctx, args.rangeArgs, nil)
	if err != nil {
		return errorResult("Error loading usage: " + err.Error())
	}
	res, err := resale.Run(recs, s.cfg.Capacity, s.cfg.Resale, benchmark.Multiplier(args.ShockPct))
	if err != nil {
		return errorResult("Error computing resale: " + err.Error())
	}
	return render(func(b *bytes.Buffer) error { return report.Resale(b, res) })
}

func handleScenario(ctx context.Context, s *Server, raw json.RawMessage) ToolCallResult {
	var args scenarioArgs
	if err := decode(raw, &args); err != nil {
		return errorResult("Invalid arguments: " + err.Error())
	}
	knobs := scenario.Knobs{
		UpliftPct: args.UpliftPct,
		Reserved:  args.Reserved,
		Shift:     args.Shift,
		ShockPct:  args.ShockPct,
	}
	if args.Resale {
		params := s.cfg.Resale
		knobs.Resale = &params
	}
	recs, err := s.records(ctx, args.rangeArgs, nil)
	if err != nil {
		return errorResult("Error loading usage: " + err.Error())
	}
	res, err := scenario.New(s.cfg).Run(recs, knobs)
	if err != nil {
		return errorResult("Error running scenario: " + err.Error())
	}
	return render(func(b *bytes.Buffer) error { return report.Scenario(b, res) })
}
