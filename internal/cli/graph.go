package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph <id>",
	Short: "Show the direct relations of an entity",
	Args:  cobra.ExactArgs(1),
	RunE:  runGraph,
}

var summaryCmd = &cobra.Command{
	Use:   "summary <id>",
	Short: "Assess the risk of an entity",
	Args:  cobra.ExactArgs(1),
	RunE:  runSummary,
}

func runGraph(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	g, err := apiClient.Graph(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("get graph: %w", err)
	}

	w := cmd.OutOrStdout()
	if len(g.Edges) == 0 {
		fmt.Fprintln(w, "No relations found.")
		return nil
	}

	values := make(map[string]string, len(g.Nodes))
	for _, n := range g.Nodes {
		values[n.ID] = n.Value
	}
	name := func(nodeID string) string {
		if v, ok := values[nodeID]; ok {
			return v
		}
		return nodeID
	}

	fmt.Fprintf(w, "Relations (%d):\n\n", len(g.Edges))
	for _, e := range g.Edges {
		fmt.Fprintf(w, "- %s -[%s]-> %s\n",
			name(e.Source), defaultTheme.statusStyle().Render(e.Type), name(e.Target))
	}
	return nil
}

func runSummary(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	s, err := apiClient.RiskSummary(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("risk summary: %w", err)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Risk: %s %s\n",
		defaultTheme.levelStyle(s.RiskLevel).Render(s.RiskLevel),
		defaultTheme.hintStyle().Render("("+string(s.Source)+")"))
	fmt.Fprintf(w, "\n%s\n", strings.TrimSpace(s.Summary))
	if len(s.KeySignals) > 0 {
		fmt.Fprintln(w, "\nSignals:")
		for _, sig := range s.KeySignals {
			fmt.Fprintf(w, "- %s\n", sig)
		}
	}
	return nil
}
