package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/entity-scanner/internal/models"
)

var listLimit int

var scanCmd = &cobra.Command{
	Use:   "scan <type> <value>",
	Short: "Scan an identifier and enrich it",
	Long: `Scan stores an identifier and derives related entities from it.

Types: email, phone, username, domain, breach

Examples:
  scanner scan email alice@example.com
  scanner scan domain acme.io`,
	Args: cobra.ExactArgs(2),
	RunE: runScan,
}

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show an entity",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the newest entities",
	Long: `List entities, newest first.

Examples:
  scanner list
  scanner list -n 10 -v`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 0, "max results (server default when 0)")
}

func runScan(cmd *cobra.Command, args []string) error {
	typ, err := models.ParseEntityType(args[0])
	if err != nil {
		return err
	}

	entity, err := apiClient.Scan(cmd.Context(), typ, args[1])
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "Scanned:")
	printEntity(w, *entity)
	return nil
}

func runGet(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	entity, err := apiClient.GetEntity(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("get entity: %w", err)
	}

	printEntity(cmd.OutOrStdout(), *entity)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	entities, err := apiClient.ListEntities(cmd.Context(), listLimit)
	if err != nil {
		return fmt.Errorf("list entities: %w", err)
	}

	w := cmd.OutOrStdout()
	if len(entities) == 0 {
		fmt.Fprintln(w, "No entities found.")
		return nil
	}

	fmt.Fprintf(w, "Entities (%d):\n\n", len(entities))
	for _, e := range entities {
		printEntity(w, e)
	}
	return nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid entity id %q", s)
	}
	return id, nil
}
