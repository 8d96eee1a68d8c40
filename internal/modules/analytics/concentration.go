package analytics

import (
	"sort"

	"github.com/aristath/factorlens/internal/domain"
	"github.com/aristath/factorlens/pkg/formulas"
)

// TopHoldingsCount is how many holdings the concentration report lists.
const TopHoldingsCount = 5

// HoldingWeight is a holding's share of total market value.
type HoldingWeight struct {
	Ticker string `json:"ticker"`
	Weight Float  `json:"weight"`
}

// GroupWeight is one bucket of a grouping, weighted by market value.
type GroupWeight struct {
	Key    string `json:"key"`
	Weight Float  `json:"weight"`
}

// Grouping is a set of buckets sorted by descending weight.
type Grouping struct {
	Groups []GroupWeight `json:"groups"`
	HHI    Float         `json:"hhi"`
}

// Concentration describes how market value is spread across holdings and
// classification buckets. Weights are by undirected market value, not by
// delta-adjusted exposure; GrossExposure carries the latter.
type Concentration struct {
	TotalMarketValue Float           `json:"totalMarketValue"`
	GrossExposure    Float           `json:"grossExposure"`
	HHI              Float           `json:"hhi"`
	Top5Weight       Float           `json:"top5Weight"`
	TopHoldings      []HoldingWeight `json:"topHoldings"`
	BySector         Grouping        `json:"bySector"`
	ByRegion         Grouping        `json:"byRegion"`
	ByFactor         Grouping        `json:"byFactor"`
}

// ComputeConcentration measures concentration of the valid holdings.
// Classifications are looked up by effective ticker; unknown tickers and
// empty fields fall into the Unknown / Unassigned buckets.
func ComputeConcentration(holdings []Holding, classifications map[string]domain.Classification, exposure Exposure) Concentration {
	valid := make([]Holding, 0, len(holdings))
	total := 0.0
	for _, h := range holdings {
		if IsValid(h) {
			valid = append(valid, h)
			total += h.Value()
		}
	}

	out := Concentration{
		TotalMarketValue: Float(total),
		GrossExposure:    Float(exposure.GrossExposure),
		TopHoldings:      []HoldingWeight{},
		BySector:         Grouping{Groups: []GroupWeight{}},
		ByRegion:         Grouping{Groups: []GroupWeight{}},
		ByFactor:         Grouping{Groups: []GroupWeight{}},
	}
	if len(valid) == 0 {
		return out
	}

	shares := make([]float64, len(valid))
	for i, h := range valid {
		shares[i] = h.Value() / total
	}
	out.HHI = Float(formulas.HHI(shares))

	ranked := make([]Holding, len(valid))
	copy(ranked, valid)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Value() > ranked[j].Value() })
	if len(ranked) > TopHoldingsCount {
		ranked = ranked[:TopHoldingsCount]
	}
	topValue := 0.0
	for _, h := range ranked {
		topValue += h.Value()
		out.TopHoldings = append(out.TopHoldings, HoldingWeight{Ticker: h.Symbol(), Weight: Float(h.Value() / total)})
	}
	out.Top5Weight = Float(topValue / total)

	classOf := func(h Holding) domain.Classification {
		cls, ok := classifications[h.EffectiveTicker()]
		if !ok {
			return domain.UnknownClassification()
		}
		if cls.Region == "" {
			cls.Region = domain.UnknownRegion
		}
		if cls.Sector == "" {
			cls.Sector = domain.UnknownSector
		}
		if cls.Factor == "" {
			cls.Factor = domain.UnassignedFactor
		}
		return cls
	}

	out.BySector = GroupBy(valid, total, func(h Holding) string { return classOf(h).Sector })
	out.ByRegion = GroupBy(valid, total, func(h Holding) string { return classOf(h).Region })
	out.ByFactor = GroupBy(valid, total, func(h Holding) string { return classOf(h).Factor })
	return out
}

// GroupBy sums market value share per key. Buckets are ordered by
// descending weight, first-seen order breaking ties.
func GroupBy(holdings []Holding, total float64, key func(Holding) string) Grouping {
	weights := make(map[string]float64)
	order := make([]string, 0)
	for _, h := range holdings {
		k := key(h)
		if k == "" {
			k = domain.UnknownSector
		}
		if _, seen := weights[k]; !seen {
			order = append(order, k)
		}
		weights[k] += h.Value() / total
	}

	groups := make([]GroupWeight, len(order))
	values := make([]float64, len(order))
	for i, k := range order {
		groups[i] = GroupWeight{Key: k, Weight: Float(weights[k])}
		values[i] = weights[k]
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Weight > groups[j].Weight })

	return Grouping{Groups: groups, HHI: Float(formulas.HHI(values))}
}
