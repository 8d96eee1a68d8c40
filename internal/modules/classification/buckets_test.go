package classification

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aristath/factorlens/internal/clients/finnhub"
	"github.com/aristath/factorlens/internal/clients/yahoo"
	"github.com/aristath/factorlens/internal/domain"
)

func TestFactorBucket(t *testing.T) {
	tests := map[string]string{
		"":                       "Unassigned",
		"Unknown":                "Unassigned",
		"Information Technology": "Tech/Growth",
		"Communication Services": "Tech/Growth",
		"Energy":                 "Cyclicals/Real Assets",
		"Materials":              "Cyclicals/Real Assets",
		"Industrials":            "Cyclicals/Real Assets",
		"Utilities":              "Defensive/Quality",
		"Consumer Staples":       "Defensive/Quality",
		"Health Care":            "Defensive/Quality",
		"Financials":             "Financials",
		"Real Estate":            "Rate Sensitive",
	}
	for sector, expected := range tests {
		assert.Equal(t, expected, FactorBucket(sector), sector)
	}

	assert.Equal(t, "Consumer Discretionary", FactorBucket(" Consumer Discretionary "), "unmapped sectors pass through trimmed")
}

func TestInferRegion(t *testing.T) {
	tests := []struct {
		name     string
		meta     yahoo.SparkMeta
		ticker   string
		expected string
	}{
		{"nasdaq", yahoo.SparkMeta{ExchangeName: "NasdaqGS"}, "AAPL", "US"},
		{"us market flag", yahoo.SparkMeta{ExchangeName: "PCX", Market: "us_market"}, "VOO", "US"},
		{"full name fallback", yahoo.SparkMeta{FullExchangeName: "NYSEArca"}, "XLE", "US"},
		{"toronto", yahoo.SparkMeta{ExchangeName: "Toronto"}, "RY.TO", "Canada"},
		{"sao paulo", yahoo.SparkMeta{ExchangeName: "Sao Paulo"}, "PETR4.SA", "LatAm"},
		{"london", yahoo.SparkMeta{ExchangeName: "London"}, "SHEL.L", "Europe"},
		{"tokyo", yahoo.SparkMeta{ExchangeName: "Tokyo"}, "7203.T", "Asia"},
		{"otc adr", yahoo.SparkMeta{ExchangeName: "Other OTC"}, "KMTUY", "ex-US"},
		{"unknown", yahoo.SparkMeta{ExchangeName: "Other OTC"}, "ABCD", "Unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, InferRegion(tt.meta, tt.ticker))
		})
	}
}

func TestFromSpark(t *testing.T) {
	etf := FromSpark("VOO", yahoo.SparkMeta{Market: "us_market", InstrumentType: "ETF"})
	assert.Equal(t, domain.Classification{Region: "US", Sector: "ETF", Factor: "Beta/Index Exposure", Source: SourceSpark}, etf)

	equity := FromSpark("DE", yahoo.SparkMeta{ExchangeName: "NYSE", InstrumentType: "EQUITY"})
	assert.Equal(t, domain.Classification{Region: "US", Sector: "Unknown", Factor: "Unassigned", Source: SourceSpark}, equity)
}

func TestFromProfile(t *testing.T) {
	c := FromProfile(finnhub.Profile{Country: "BR", Industry: "Energy"})
	assert.Equal(t, domain.Classification{Region: "LatAm", Sector: "Energy", Factor: "Cyclicals/Real Assets", Source: SourceFinnhub}, c)

	assert.Equal(t, "ex-US", RegionForCountry("ZA"))
	assert.Equal(t, "Unknown", RegionForCountry(""))
	assert.Equal(t, "Unknown", FromProfile(finnhub.Profile{}).Sector)
}
