package main

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// cacheCmd is the parent command for cache maintenance
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Maintain the provider response cache",
}

// pruneCmd implements 'analyze cache prune'
var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove expired cache entries",
	Long: `Delete every expired entry from the configured cache backend
(CACHE_BACKEND: sqlite, file or redis) and report counts per table.`,
	RunE: runCachePrune,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(pruneCmd)
}

func runCachePrune(cmd *cobra.Command, args []string) error {
	container, cfg, _, err := wire(cmd.Context())
	if err != nil {
		return err
	}
	defer container.Close()

	removed, err := container.CacheStore.DeleteAllExpired(cmd.Context())
	if err != nil {
		return fmt.Errorf("prune failed: %w", err)
	}

	return printPruned(cmd.OutOrStdout(), cfg.Cache.Backend, removed)
}

// printPruned writes removed counts per table, sorted by table name.
func printPruned(w io.Writer, backend string, removed map[string]int64) error {
	tables := make([]string, 0, len(removed))
	for table := range removed {
		tables = append(tables, table)
	}
	sort.Strings(tables)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Backend\t%s\n", backend)

	var total int64
	for _, table := range tables {
		fmt.Fprintf(tw, "  %s\t%d\n", table, removed[table])
		total += removed[table]
	}
	fmt.Fprintf(tw, "Removed\t%d\n", total)
	return tw.Flush()
}
