package models

// DateLayout is the ISO calendar-day form used for UsageRecord.Date.
const DateLayout = "2006-01-02"

// Vendor identifies where a record's compute ran.
type Vendor string

const (
	VendorAWS         Vendor = "AWS"
	VendorGCP         Vendor = "GCP"
	VendorAzure       Vendor = "Azure"
	VendorOnPrem      Vendor = "On-Prem"
	VendorExternalAPI Vendor = "External-API"
)

// Vendors lists every known vendor in display order.
var Vendors = []Vendor{VendorAWS, VendorGCP, VendorAzure, VendorOnPrem, VendorExternalAPI}

// Valid reports whether v is one of the known vendors.
func (v Vendor) Valid() bool {
	for _, known := range Vendors {
		if v == known {
			return true
		}
	}
	return false
}

// Department is the owning business unit of a record.
type Department string

const (
	DeptGenAI     Department = "GenAI"
	DeptResearch  Department = "Research"
	DeptPlatform  Department = "Platform"
	DeptAnalytics Department = "Analytics"
	DeptVision    Department = "Vision"
)

// Departments lists every known department.
var Departments = []Department{DeptGenAI, DeptResearch, DeptPlatform, DeptAnalytics, DeptVision}

// Valid reports whether d is one of the known departments.
func (d Department) Valid() bool {
	for _, known := range Departments {
		if d == known {
			return true
		}
	}
	return false
}

// UsageRecord is one department/project/day observation of compute usage.
// Customer is set only for externally billable usage.
type UsageRecord struct {
	Date       string     `json:"date"`
	Department Department `json:"department"`
	Project    string     `json:"project"`
	Customer   string     `json:"customer,omitempty"`
	Vendor     Vendor     `json:"vendor"`
	GPUClass   string     `json:"gpu_class"`
	Units      float64    `json:"ncc"`
	Cost       float64    `json:"cost"`
}

// Billable reports whether the record contributes to revenue-bearing aggregates.
func (r UsageRecord) Billable() bool {
	return r.Customer != ""
}

// CostSplit is a record's cost divided into fixed (owned capacity) and
// variable (metered) parts.
type CostSplit struct {
	Fixed    float64 `json:"fixed"`
	Variable float64 `json:"variable"`
}
