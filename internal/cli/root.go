// Package cli wires connectord's cobra command tree: package-level command
// vars registered via init()-time AddCommand, output through cmd.Printf.
// serve starts the orchestrator loop; connector inspects and mutates the
// control-plane documents it acts on.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/connectord/internal/core/domain"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "connectord",
	Short: "Syncs documents from source systems into a search index",
	Long: `connectord is a headless connector-service daemon. It drives
Connector and SyncJob control-plane documents stored in a search-index
cluster, scheduling and running syncs against registered source adapters
(Jira, filesystem, ...).`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file (yaml)")
}

// Execute runs the root command, returning any error for main to report.
func Execute() error {
	return rootCmd.Execute()
}

// gatewayOverride lets tests inject an IndexGateway instead of the one
// serve/connector commands would build from --config.
var gatewayOverride domain.IndexGateway

// SetGatewayForTesting overrides the gateway commands resolve against.
func SetGatewayForTesting(gw domain.IndexGateway) {
	gatewayOverride = gw
}
