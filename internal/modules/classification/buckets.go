package classification

import (
	"regexp"
	"strings"

	"github.com/aristath/factorlens/internal/clients/finnhub"
	"github.com/aristath/factorlens/internal/clients/yahoo"
	"github.com/aristath/factorlens/internal/domain"
)

// Sources recorded on classifications.
const (
	SourceSectorMap = "sp500ad"
	SourceSpark     = "yahoo_spark"
	SourceFinnhub   = "finnhub"
	SourceManual    = "manual"
	SourceNone      = "none"
)

// Labels assigned to ETFs seen through spark metadata.
const (
	SectorETF       = "ETF"
	FactorETFBucket = "Beta/Index Exposure"
)

// FactorBucket maps a GICS sector to a coarse factor bucket. Unknown
// sectors map to themselves; empty or Unknown ones are Unassigned.
func FactorBucket(sector string) string {
	sector = strings.TrimSpace(sector)
	switch sector {
	case "", domain.UnknownSector:
		return domain.UnassignedFactor
	case "Information Technology", "Communication Services":
		return "Tech/Growth"
	case "Energy", "Materials", "Industrials":
		return "Cyclicals/Real Assets"
	case "Utilities", "Consumer Staples", "Health Care":
		return "Defensive/Quality"
	case "Financials":
		return "Financials"
	case "Real Estate":
		return "Rate Sensitive"
	}
	return sector
}

// otcADR matches five letter symbols ending in Y, the usual unsponsored
// ADR pattern.
var otcADR = regexp.MustCompile(`^[A-Z]{4}Y$`)

// InferRegion guesses a listing region from spark exchange metadata.
func InferRegion(meta yahoo.SparkMeta, ticker string) string {
	name := meta.ExchangeName
	if name == "" {
		name = meta.FullExchangeName
	}
	name = strings.ToLower(name)
	market := strings.ToLower(meta.Market)

	switch {
	case containsAny(name, "nasdaq", "nyse", "arca", "amex") || market == "us_market":
		return "US"
	case containsAny(name, "toronto", "tsx"):
		return "Canada"
	case containsAny(name, "sao paulo", "bovespa"):
		return "LatAm"
	case strings.Contains(name, "london"):
		return "Europe"
	case containsAny(name, "hong kong", "tokyo", "shanghai", "shenzhen"):
		return "Asia"
	case otcADR.MatchString(ticker):
		return "ex-US"
	}
	return domain.UnknownRegion
}

// FromSpark classifies a ticker from spark metadata. Only ETFs get a sector.
func FromSpark(ticker string, meta yahoo.SparkMeta) domain.Classification {
	c := domain.Classification{
		Region: InferRegion(meta, ticker),
		Sector: domain.UnknownSector,
		Factor: domain.UnassignedFactor,
		Source: SourceSpark,
	}
	if strings.ToUpper(meta.InstrumentType) == "ETF" {
		c.Sector = SectorETF
		c.Factor = FactorETFBucket
	}
	return c
}

var countryRegions = map[string]string{
	"US": "US",
	"CA": "Canada",
	"BR": "LatAm", "MX": "LatAm", "AR": "LatAm", "CL": "LatAm", "CO": "LatAm", "PE": "LatAm",
	"GB": "Europe", "IE": "Europe", "DE": "Europe", "FR": "Europe", "NL": "Europe", "CH": "Europe",
	"IT": "Europe", "ES": "Europe", "SE": "Europe", "NO": "Europe", "DK": "Europe", "FI": "Europe",
	"BE": "Europe", "LU": "Europe", "AT": "Europe", "PT": "Europe",
	"JP": "Asia", "CN": "Asia", "HK": "Asia", "KR": "Asia", "TW": "Asia", "SG": "Asia", "IN": "Asia",
}

// RegionForCountry maps an ISO country code to a region. Unlisted
// countries are ex-US.
func RegionForCountry(country string) string {
	country = strings.ToUpper(strings.TrimSpace(country))
	if country == "" {
		return domain.UnknownRegion
	}
	if r, ok := countryRegions[country]; ok {
		return r
	}
	return "ex-US"
}

// FromProfile classifies a ticker from its Finnhub profile.
func FromProfile(p finnhub.Profile) domain.Classification {
	sector := strings.TrimSpace(p.Industry)
	if sector == "" {
		sector = domain.UnknownSector
	}
	return domain.Classification{
		Region: RegionForCountry(p.Country),
		Sector: sector,
		Factor: FactorBucket(sector),
		Source: SourceFinnhub,
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
