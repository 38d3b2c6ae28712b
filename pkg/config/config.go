package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/pario-ai/ledgerfin/pkg/models"
)

// Config holds all ledgerfin configuration.
type Config struct {
	LogLevel       string                    `yaml:"log_level"`
	Ledger         LedgerConfig              `yaml:"ledger"`
	Generator      GeneratorConfig           `yaml:"generator"`
	Guardrails     Guardrails                `yaml:"guardrails"`
	Margin         MarginModel               `yaml:"margin"`
	VendorIndex    map[models.Vendor]float64 `yaml:"vendor_unit_cost_index"`
	CommitDiscount float64                   `yaml:"commit_discount"`
	Reconciliation ReconciliationConfig      `yaml:"reconciliation"`
	Capacity       map[string]Capacity       `yaml:"capacity"`
	Resale         ResaleParams              `yaml:"resale"`
}

// LedgerConfig locates the usage record database.
type LedgerConfig struct {
	DBPath string `yaml:"db_path" validate:"required"`
}

// GeneratorConfig drives the synthetic record generator.
type GeneratorConfig struct {
	Seed  int64  `yaml:"seed"`
	Start string `yaml:"start" validate:"datetime=2006-01-02"`
	Days  int    `yaml:"days" validate:"gte=1,lte=3660"`
}

// Guardrails are the gross-margin thresholds customers are held to.
// Both are fractions and FloorGM must sit below TargetGM.
type Guardrails struct {
	TargetGM float64 `yaml:"target_gm" validate:"gte=0,lt=1"`
	FloorGM  float64 `yaml:"floor_gm" validate:"gte=0,lt=1"`
}

// MarginModel back-solves a customer's margin as Base + hash(customer)*Spread.
type MarginModel struct {
	Base   float64 `yaml:"base" validate:"gte=0,lt=1"`
	Spread float64 `yaml:"spread" validate:"gte=0,lt=1"`
}

// ReconciliationConfig selects the billed provider and the status buckets,
// expressed as absolute variance percentages.
type ReconciliationConfig struct {
	Provider models.Vendor `yaml:"provider" validate:"required"`
	OKPct    float64       `yaml:"ok_pct" validate:"gt=0,lte=100"`
	WarnPct  float64       `yaml:"warn_pct" validate:"gt=0,lte=100"`
}

// Capacity is the owned on-prem capacity of one GPU class.
type Capacity struct {
	Rigs           int     `yaml:"rigs" validate:"gte=0"`
	UnitsPerRigDay float64 `yaml:"units_per_rig_per_day" validate:"gte=0"`
}

// Daily is the capacity of the whole class for one day.
func (c Capacity) Daily() float64 {
	return float64(c.Rigs) * c.UnitsPerRigDay
}

// ResaleParams drive the idle-capacity resale model.
type ResaleParams struct {
	SellThrough            float64 `yaml:"sell_through" json:"sell_through" validate:"gte=0,lte=1"`
	PricePctOfBenchmark    float64 `yaml:"price_pct_of_benchmark" json:"price_pct_of_benchmark" validate:"gte=0,lte=2"`
	MarketplaceFeePct      float64 `yaml:"marketplace_fee_pct" json:"marketplace_fee_pct" validate:"gte=0,lte=1"`
	IncrementalCostPerUnit float64 `yaml:"incremental_cost_per_unit" json:"incremental_cost_per_unit" validate:"gte=0"`
}

// Default returns a Config with the documented defaults.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Ledger: LedgerConfig{
			DBPath: "ledgerfin.db",
		},
		Generator: GeneratorConfig{
			Seed:  42,
			Start: "2024-01-01",
			Days:  30,
		},
		Guardrails: Guardrails{
			TargetGM: 0.50,
			FloorGM:  0.35,
		},
		Margin: MarginModel{
			Base:   0.15,
			Spread: 0.40,
		},
		VendorIndex: map[models.Vendor]float64{
			models.VendorAWS:         1.00,
			models.VendorGCP:         0.92,
			models.VendorAzure:       1.05,
			models.VendorOnPrem:      0.60,
			models.VendorExternalAPI: 1.40,
		},
		CommitDiscount: 0.20,
		Reconciliation: ReconciliationConfig{
			Provider: models.VendorAWS,
			OKPct:    1,
			WarnPct:  3,
		},
		Capacity: map[string]Capacity{
			"H100-80GB": {Rigs: 8, UnitsPerRigDay: 1200},
			"A100-80GB": {Rigs: 12, UnitsPerRigDay: 800},
			"L40S":      {Rigs: 16, UnitsPerRigDay: 400},
			"A10G":      {Rigs: 10, UnitsPerRigDay: 250},
		},
		Resale: ResaleParams{
			SellThrough:            0.60,
			PricePctOfBenchmark:    0.85,
			MarketplaceFeePct:      0.10,
			IncrementalCostPerUnit: 0.004,
		},
	}
}

// Load reads a YAML config file, expands environment variables and
// validates the result. Fields absent from the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnv loads KEY=VALUE pairs from the given dotenv files (".env" when
// none are given) into the process environment. Missing files are ignored;
// variables already set win.
func LoadEnv(paths ...string) error {
	if err := godotenv.Load(paths...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load env: %w", err)
	}
	return nil
}
