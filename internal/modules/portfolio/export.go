package portfolio

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aristath/factorlens/internal/modules/analytics"
)

// Export file names, as downloaded and as published.
const (
	CorrelationExportFile = "correlation_6m.csv"
	FactorsExportFile     = "factor_summary.csv"
	GroupsExportFile      = "sector_factor_groups.csv"
)

// ExportWindow is the correlation window the matrix export uses.
const ExportWindow = 126

// CorrelationCSV renders a correlation matrix with an empty corner cell.
func CorrelationCSV(m analytics.Matrix) string {
	var b strings.Builder
	b.WriteString("," + strings.Join(m.Tickers, ","))
	for i, row := range m.Tickers {
		b.WriteString("\n" + row)
		for j := range m.Tickers {
			b.WriteString("," + strconv.FormatFloat(m.At(i, j), 'f', -1, 64))
		}
	}
	return b.String()
}

// FactorsCSV renders one line per regression. Coefficients and
// t-statistics are pipe-joined inside a quoted field in column order.
func FactorsCSV(results []analytics.RegressionResult) string {
	var b strings.Builder
	b.WriteString("name,coef,tstat,r2,alpha_annual")
	for _, r := range results {
		coefs := make([]string, len(r.Coefficients))
		for i, c := range r.Coefficients {
			coefs[i] = fmt.Sprintf("%.4f", float64(c))
		}
		tstats := make([]string, len(r.TStatistics))
		for i, t := range r.TStatistics {
			tstats[i] = fmt.Sprintf("%.2f", float64(t))
		}
		fmt.Fprintf(&b, "\n%s,\"%s\",\"%s\",%.3f,%.4f",
			r.Name, strings.Join(coefs, "|"), strings.Join(tstats, "|"),
			float64(r.RSquared), float64(r.AnnualizedAlpha))
	}
	return b.String()
}

// GroupsCSV renders the sector, region and factor bucket weights as
// percentages, each group sorted by descending weight.
func GroupsCSV(c analytics.Concentration) string {
	sections := []struct {
		title  string
		header string
		groups analytics.Grouping
	}{
		{"# Sector groups", "sector", c.BySector},
		{"# Region groups", "region", c.ByRegion},
		{"# Factor bucket groups", "factor_bucket", c.ByFactor},
	}

	parts := make([]string, 0, len(sections))
	for _, s := range sections {
		var b strings.Builder
		b.WriteString(s.title + "\n" + s.header + ",weight_percent")
		for _, g := range s.groups.Groups {
			fmt.Fprintf(&b, "\n%s,%.4f", g.Key, float64(g.Weight)*100)
		}
		parts = append(parts, b.String())
	}
	return strings.Join(parts, "\n\n")
}

// Exports renders every export of a run keyed by file name.
func Exports(a *Analysis) map[string]string {
	out := map[string]string{
		FactorsExportFile: FactorsCSV(a.Factors.Results),
		GroupsExportFile:  GroupsCSV(a.Concentration),
	}
	if m, ok := a.Correlation(ExportWindow); ok {
		out[CorrelationExportFile] = CorrelationCSV(m)
	}
	return out
}
