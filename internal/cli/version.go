package cli

import (
	"github.com/spf13/cobra"
)

// version is set via -ldflags "-X .../internal/cli.version=..." at build time.
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("connectord version %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
