package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/aristath/factorlens/internal/modules/analytics"
	"github.com/aristath/factorlens/internal/modules/holdings"
	"github.com/aristath/factorlens/internal/modules/portfolio"
)

// Run command flags
var (
	runHoldingsPath string
	runWindow       int
	runAssets       bool
	runRiskFree     float64
	runFormat       string
	runOutputFile   string
	runTimeout      time.Duration
)

// runCmd implements 'analyze run'
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a full portfolio analysis",
	Long: `Load holdings, fetch prices, factors and classifications, and run the
complete analysis. The run is stored like an API run, so its exports are
available from the server afterwards.

Examples:
  analyze run                                  # default holdings
  analyze run --holdings book.csv --window 126
  analyze run --holdings book.csv --assets --rf 0.04 --format json --output run.json`,
	RunE: runAnalysis,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runHoldingsPath, "holdings", "", "Holdings CSV (default: built-in holdings)")
	runCmd.Flags().IntVar(&runWindow, "window", 0, "Factor regression window in trading days (default: FACTOR_WINDOW)")
	runCmd.Flags().BoolVar(&runAssets, "assets", false, "Also regress every asset on the factors")
	runCmd.Flags().Float64Var(&runRiskFree, "rf", 0, "Annual risk-free rate, e.g. 0.04")
	runCmd.Flags().StringVar(&runFormat, "format", "table", "Output format (table|json)")
	runCmd.Flags().StringVar(&runOutputFile, "output", "", "Output file (default: stdout)")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 5*time.Minute, "Overall timeout")
}

func runAnalysis(cmd *cobra.Command, args []string) error {
	if runFormat != "table" && runFormat != "json" {
		return fmt.Errorf("invalid format %q (want table or json)", runFormat)
	}
	if runWindow < 0 {
		return fmt.Errorf("window must be positive, got %d", runWindow)
	}

	inputs, err := loadHoldings(runHoldingsPath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), runTimeout)
	defer cancel()

	container, _, log, err := wire(ctx)
	if err != nil {
		return err
	}
	defer container.Close()

	log.Info().Int("holdings", len(inputs)).Msg("Running analysis")

	analysis, err := container.PortfolioService.Analyze(ctx, portfolio.Request{
		Holdings:      inputs,
		RiskFreeRate:  runRiskFree,
		FactorWindow:  runWindow,
		IncludeAssets: runAssets,
	})
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if runOutputFile != "" {
		f, err := os.Create(runOutputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if runFormat == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(analysis)
	}
	return printSummary(out, analysis)
}

// loadHoldings reads a holdings CSV, or returns the built-in holdings when
// path is empty.
func loadHoldings(path string) ([]analytics.HoldingInput, error) {
	if path == "" {
		return holdings.Defaults(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open holdings: %w", err)
	}
	defer f.Close()

	inputs, err := holdings.ParseCSV(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no valid holdings in %s", path)
	}
	return inputs, nil
}

const maxSummaryRows = 10

// printSummary writes a human readable report of a.
func printSummary(w io.Writer, a *portfolio.Analysis) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Run\t%s\n", a.ID)
	fmt.Fprintf(tw, "Created\t%s\n", a.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(tw, "Tickers\t%d\n", len(a.Tickers))
	fmt.Fprintf(tw, "Gross exposure\t%.2f\n", a.GrossExposure)
	fmt.Fprintf(tw, "Observations\t%d\n", a.Observations)

	fmt.Fprintln(tw, "\nSTATISTICS")
	fmt.Fprintf(tw, "Cumulative return\t%s\n", percent(a.Statistics.CumulativeReturn))
	fmt.Fprintf(tw, "Volatility\t%s\n", percent(a.Statistics.Volatility))
	fmt.Fprintf(tw, "Sharpe\t%s\n", ratio(a.Statistics.Sharpe))
	fmt.Fprintf(tw, "Sortino\t%s\n", ratio(a.Statistics.Sortino))
	fmt.Fprintf(tw, "Max drawdown\t%s\n", percent(a.Statistics.MaxDrawdown))

	c := a.Concentration
	fmt.Fprintln(tw, "\nCONCENTRATION")
	fmt.Fprintf(tw, "HHI\t%s\n", ratio(c.HHI))
	fmt.Fprintf(tw, "Top 5 weight\t%s\n", percent(c.Top5Weight))
	for i, h := range c.TopHoldings {
		if i == maxSummaryRows {
			break
		}
		fmt.Fprintf(tw, "  %s\t%s\n", h.Ticker, percent(h.Weight))
	}

	fmt.Fprintln(tw, "\nSECTORS")
	for i, g := range c.BySector.Groups {
		if i == maxSummaryRows {
			break
		}
		fmt.Fprintf(tw, "  %s\t%s\n", g.Key, percent(g.Weight))
	}

	if len(a.TopPairs) > 0 {
		fmt.Fprintln(tw, "\nTOP CORRELATIONS")
		for i, p := range a.TopPairs {
			if i == maxSummaryRows {
				break
			}
			fmt.Fprintf(tw, "  %s\t%s\n", p.Pair, ratio(p.Value))
		}
	}

	if len(a.Factors.Results) > 0 {
		fmt.Fprintf(tw, "\nFACTORS (%s, %d days)\n", a.Factors.Model, a.Factors.Window)
		fmt.Fprintf(tw, "  name\tR²\talpha/yr\t%s\n", strings.Join(a.Factors.Results[0].FactorNames, "\t"))
		for _, r := range a.Factors.Results {
			betas := make([]string, len(r.Coefficients))
			for i, b := range r.Coefficients {
				betas[i] = ratio(b)
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", r.Name, ratio(r.RSquared), percent(r.AnnualizedAlpha), strings.Join(betas, "\t"))
		}
	}

	if len(a.Warnings) > 0 {
		fmt.Fprintln(tw, "\nWARNINGS")
		for _, msg := range a.Warnings {
			fmt.Fprintf(tw, "  - %s\n", msg)
		}
	}

	return tw.Flush()
}

func percent(f analytics.Float) string {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", v*100)
}

func ratio(f analytics.Float) string {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return fmt.Sprintf("%.3f", v)
}
