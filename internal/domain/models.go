// Package domain provides the data shapes exchanged between providers and the analytics core.
package domain

import (
	"math"
	"sort"
	"strings"
)

// PricePoint is one adjusted close on one calendar day.
type PricePoint struct {
	Date  string  `json:"date"` // YYYY-MM-DD
	Close float64 `json:"close"`
}

// PriceSeries is an ascending-by-date sequence of closes for one ticker.
// Dates are not aligned across tickers; gaps are tolerated downstream.
type PriceSeries []PricePoint

// ValidClose reports whether a close can anchor a simple return.
func ValidClose(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

// Clean returns the points with a valid close. The receiver is not modified.
func (s PriceSeries) Clean() PriceSeries {
	out := make(PriceSeries, 0, len(s))
	for _, p := range s {
		if ValidClose(p.Close) {
			out = append(out, p)
		}
	}
	return out
}

// Factor column names as they appear on the wire and in regression output.
const (
	FactorMktRF = "Mkt-RF"
	FactorSMB   = "SMB"
	FactorHML   = "HML"
	FactorRMW   = "RMW"
	FactorCMA   = "CMA"
	FactorRF    = "RF"
	FactorMOM   = "MOM"
)

// FactorRow is one day of benchmark factor returns in fractional units.
// MOM is nil when momentum data is unavailable for the day.
type FactorRow struct {
	Date  string   `json:"date"`
	MktRF float64  `json:"Mkt-RF"`
	SMB   float64  `json:"SMB"`
	HML   float64  `json:"HML"`
	RMW   float64  `json:"RMW"`
	CMA   float64  `json:"CMA"`
	RF    float64  `json:"RF"`
	MOM   *float64 `json:"MOM,omitempty"`
}

// Value returns the named factor. ok is false for unknown names and for MOM
// on a row without momentum.
func (r FactorRow) Value(name string) (float64, bool) {
	switch name {
	case FactorMktRF:
		return r.MktRF, true
	case FactorSMB:
		return r.SMB, true
	case FactorHML:
		return r.HML, true
	case FactorRMW:
		return r.RMW, true
	case FactorCMA:
		return r.CMA, true
	case FactorRF:
		return r.RF, true
	case FactorMOM:
		if r.MOM == nil {
			return 0, false
		}
		return *r.MOM, true
	}
	return 0, false
}

// FactorSet is the factor provider's payload: ascending rows plus whether
// momentum was merged in.
type FactorSet struct {
	Rows        []FactorRow `json:"factors"`
	HasMomentum bool        `json:"hasMomentum"`
}

// ByDate indexes the rows by date. Later duplicates win.
func (s FactorSet) ByDate() map[string]FactorRow {
	out := make(map[string]FactorRow, len(s.Rows))
	for _, row := range s.Rows {
		out[row.Date] = row
	}
	return out
}

// Classification groups a ticker for the reporting layer. It is never
// consumed by the numerical core.
type Classification struct {
	Region string `json:"region" yaml:"region"`
	Sector string `json:"sector" yaml:"sector"`
	Factor string `json:"factor" yaml:"factor"`
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
}

// Placeholder values for unclassified tickers.
const (
	UnknownRegion    = "Unknown"
	UnknownSector    = "Unknown"
	UnassignedFactor = "Unassigned"
)

// UnknownClassification is what a ticker gets when no source knows it.
func UnknownClassification() Classification {
	return Classification{Region: UnknownRegion, Sector: UnknownSector, Factor: UnassignedFactor}
}

// ParseTickers splits a comma separated query value into unique, upper-cased,
// non-empty tickers, preserving first-seen order.
func ParseTickers(raw string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		t := strings.ToUpper(strings.TrimSpace(part))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// SortedKeys returns the keys of a string-keyed map in lexical order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
