// Package cli provides the command-line interface for the entity scanner.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/raphaelgruber/entity-scanner/internal/client"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose   bool
	serverURL string

	apiClient *client.Client
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "scanner",
	Short: "Secure entity scanner",
	Long: `Scanner submits identifiers (emails, phone numbers, usernames, domains,
breach records) to a running scanner server, which enriches them into a
relationship graph and a similarity index.

The server address is taken from --server, then SCANNER_SERVER_URL,
then http://localhost:8000.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		apiClient = client.New(serverURL)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "scanner server URL")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(statsCmd)
}
