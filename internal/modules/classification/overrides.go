package classification

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aristath/factorlens/internal/domain"
)

// Overrides are hand-maintained classifications keyed by ticker. They win
// over anything fetched, except for fields left Unknown or Unassigned.
type Overrides map[string]domain.Classification

// DefaultOverrides classifies the funds and majors of the default holdings.
func DefaultOverrides() Overrides {
	return Overrides{
		"VOO":  {Region: "US", Sector: "Broad US Equity", Factor: "US Beta", Source: SourceManual},
		"VXUS": {Region: "ex-US", Sector: "Broad ex-US Equity", Factor: "International Beta", Source: SourceManual},
		"XLE":  {Region: "US", Sector: "Energy", Factor: "Energy/Cyclicals", Source: SourceManual},
		"HAP":  {Region: "Global", Sector: "Natural Resources", Factor: "Commodities Tilt", Source: SourceManual},
		"FCG":  {Region: "US", Sector: "Energy", Factor: "Energy/Cyclicals", Source: SourceManual},
		"XOM":  {Region: "US", Sector: "Energy", Factor: "Energy/Cyclicals", Source: SourceManual},
	}
}

// LoadOverrides reads a YAML file of ticker → {region, sector, factor} and
// layers it over the defaults. An empty path returns the defaults.
//
//	VALE:
//	  region: LatAm
//	  sector: Materials
func LoadOverrides(path string) (Overrides, error) {
	out := DefaultOverrides()
	if path == "" {
		return out, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read classification overrides: %w", err)
	}

	var raw map[string]domain.Classification
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse classification overrides: %w", err)
	}

	for ticker, c := range raw {
		c = fillUnknown(c)
		if c.Source == "" {
			c.Source = SourceManual
		}
		out[strings.ToUpper(strings.TrimSpace(ticker))] = c
	}
	return out, nil
}

// Complete reports whether the override for ticker needs no fetched data.
func (o Overrides) Complete(ticker string) bool {
	c, ok := o[ticker]
	return ok && isKnown(c.Region, domain.UnknownRegion) && isKnown(c.Sector, domain.UnknownSector) && isKnown(c.Factor, domain.UnassignedFactor)
}

// Base returns the override for ticker, or the unknown classification.
func (o Overrides) Base(ticker string) domain.Classification {
	if c, ok := o[ticker]; ok {
		return fillUnknown(c)
	}
	return domain.UnknownClassification()
}

// Merge fills the Unknown or Unassigned fields of base from fetched. A
// missing fetched factor is derived from the fetched sector.
func Merge(base, fetched domain.Classification) domain.Classification {
	merged := fillUnknown(base)

	if !isKnown(merged.Region, domain.UnknownRegion) {
		merged.Region = orDefault(fetched.Region, domain.UnknownRegion)
	}
	if !isKnown(merged.Sector, domain.UnknownSector) {
		merged.Sector = orDefault(fetched.Sector, domain.UnknownSector)
	}
	if !isKnown(merged.Factor, domain.UnassignedFactor) {
		if fetched.Factor != "" {
			merged.Factor = fetched.Factor
		} else {
			merged.Factor = FactorBucket(fetched.Sector)
		}
	}
	if merged.Source == "" {
		merged.Source = fetched.Source
	}
	return merged
}

func fillUnknown(c domain.Classification) domain.Classification {
	c.Region = orDefault(c.Region, domain.UnknownRegion)
	c.Sector = orDefault(c.Sector, domain.UnknownSector)
	c.Factor = orDefault(c.Factor, domain.UnassignedFactor)
	return c
}

func isKnown(v, unknown string) bool {
	return v != "" && v != unknown
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
