package config

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/pario-ai/ledgerfin/pkg/models"
)

const logLevels = "oneof=trace debug info warn error"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate reports every out-of-range value at once. The returned error
// unwraps to models.ErrConfiguration.
func (c *Config) Validate() error {
	ce := &models.ConfigErrors{}
	collect(ce, "log_level", validate.Var(c.LogLevel, logLevels))
	collect(ce, "ledger", validate.Struct(c.Ledger))
	collect(ce, "generator", validate.Struct(c.Generator))
	c.checkCore(ce)
	return ce.Err()
}

// ValidateCore checks only the fields the computations read: guardrails,
// margin, vendor index, commit discount, reconciliation, capacity and
// resale. Storage, generator and logging settings are ignored.
func (c *Config) ValidateCore() error {
	ce := &models.ConfigErrors{}
	c.checkCore(ce)
	return ce.Err()
}

func (c *Config) checkCore(ce *models.ConfigErrors) {
	c.Guardrails.check(ce)
	c.Margin.check(ce)

	for _, v := range models.Vendors {
		if _, ok := c.VendorIndex[v]; !ok {
			ce.Add("vendor_unit_cost_index", v, "missing vendor")
		}
	}
	for _, v := range slices.Sorted(maps.Keys(c.VendorIndex)) {
		if !v.Valid() {
			ce.Add("vendor_unit_cost_index", v, "unknown vendor")
			continue
		}
		collect(ce, "vendor_unit_cost_index["+string(v)+"]", validate.Var(c.VendorIndex[v], "gt=0"))
	}
	collect(ce, "commit_discount", validate.Var(c.CommitDiscount, "gte=0,lte=1"))

	c.Reconciliation.check(ce)
	checkCapacity(ce, c.Capacity)
	collect(ce, "resale", validate.Struct(c.Resale))
}

// Validate checks both thresholds and their order.
func (g Guardrails) Validate() error {
	ce := &models.ConfigErrors{}
	g.check(ce)
	return ce.Err()
}

func (g Guardrails) check(ce *models.ConfigErrors) {
	collect(ce, "guardrails", validate.Struct(g))
	if g.FloorGM >= g.TargetGM {
		ce.Add("guardrails.floor_gm", g.FloorGM, "must be below guardrails.target_gm")
	}
}

// Validate checks that every implied margin stays in [0, 1).
func (m MarginModel) Validate() error {
	ce := &models.ConfigErrors{}
	m.check(ce)
	return ce.Err()
}

func (m MarginModel) check(ce *models.ConfigErrors) {
	collect(ce, "margin", validate.Struct(m))
	if m.Base+m.Spread >= 1 {
		ce.Add("margin.spread", m.Spread, "base+spread must stay below 1")
	}
}

// Validate checks the provider and the status buckets.
func (c ReconciliationConfig) Validate() error {
	ce := &models.ConfigErrors{}
	c.check(ce)
	return ce.Err()
}

func (c ReconciliationConfig) check(ce *models.ConfigErrors) {
	collect(ce, "reconciliation", validate.Struct(c))
	if !c.Provider.Valid() {
		ce.Add("reconciliation.provider", c.Provider, "unknown vendor")
	}
	if c.OKPct >= c.WarnPct {
		ce.Add("reconciliation.ok_pct", c.OKPct, "must be below reconciliation.warn_pct")
	}
}

// ValidateCapacity checks every class in a capacity table.
func ValidateCapacity(capacity map[string]Capacity) error {
	ce := &models.ConfigErrors{}
	checkCapacity(ce, capacity)
	return ce.Err()
}

func checkCapacity(ce *models.ConfigErrors, capacity map[string]Capacity) {
	for _, class := range slices.Sorted(maps.Keys(capacity)) {
		collect(ce, "capacity["+class+"]", validate.Struct(capacity[class]))
	}
}

// ValidateStruct checks validator tags on any parameter struct, reporting
// violations as configuration errors under prefix.
func ValidateStruct(prefix string, s any) error {
	ce := &models.ConfigErrors{}
	collect(ce, prefix, validate.Struct(s))
	return ce.Err()
}

func collect(ce *models.ConfigErrors, prefix string, err error) {
	if err == nil {
		return
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		ce.Add(prefix, nil, err.Error())
		return
	}
	for _, fe := range verrs {
		field := fe.Namespace()
		// Drop the root type name.
		if i := strings.IndexByte(field, '.'); i >= 0 {
			field = field[i+1:]
		}
		switch {
		case prefix == "":
		case field == "":
			field = prefix
		default:
			field = prefix + "." + field
		}
		reason := "failed " + fe.Tag()
		if fe.Param() != "" {
			reason = fmt.Sprintf("failed %s=%s", fe.Tag(), fe.Param())
		}
		ce.Add(field, fe.Value(), reason)
	}
}
