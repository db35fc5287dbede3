package cli

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/entity-scanner/internal/metrics"
	"github.com/raphaelgruber/entity-scanner/internal/models"
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Find entities similar to a query",
	Long: `Search ranks entities by similarity to free text.

Examples:
  scanner search "acme breach"
  scanner search alice -k 10`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show entity counts and pipeline timings",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "k", -1, "max results (server default when negative)")
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	results, err := apiClient.Search(cmd.Context(), query, searchLimit)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	w := cmd.OutOrStdout()
	if len(results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return nil
	}

	fmt.Fprintf(w, "Results (%d):\n\n", len(results))
	for _, r := range results {
		fmt.Fprintf(w, "%s ", defaultTheme.hintStyle().Render(fmt.Sprintf("%.3f", r.Score)))
		printEntity(w, r.Entity)
	}
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	stats, err := apiClient.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Risk strategy: %s\n", stats.RiskStrategy)
	fmt.Fprintf(w, "Indexed: %d\n", stats.Indexed)

	fmt.Fprintln(w, "\nEntities:")
	for _, t := range models.EntityTypes {
		if n, ok := stats.Entities[t]; ok {
			fmt.Fprintf(w, "  %-10s %d\n", t, n)
		}
	}

	if len(stats.Pipeline.Operations) > 0 {
		fmt.Fprintln(w, "\nPipeline:")
		for _, op := range pipelineOrder(stats.Pipeline.Operations) {
			s := stats.Pipeline.Operations[op]
			fmt.Fprintf(w, "  %-16s count=%d failures=%d avg=%.1fms\n", op, s.Count, s.Failures, s.AvgTimeMs)
		}
	}
	return nil
}

// pipelineOrder lists known stages in pipeline order, then anything else sorted.
func pipelineOrder(ops map[string]*metrics.OperationSnapshot) []string {
	order := make([]string, 0, len(ops))
	for _, op := range metrics.Operations {
		if _, ok := ops[op]; ok {
			order = append(order, op)
		}
	}
	for _, op := range slices.Sorted(maps.Keys(ops)) {
		if !slices.Contains(metrics.Operations, op) {
			order = append(order, op)
		}
	}
	return order
}
