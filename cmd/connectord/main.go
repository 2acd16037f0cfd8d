// Command connectord runs the connector-sync daemon: a cobra CLI whose
// "serve" subcommand drives Connector/SyncJob control-plane documents
// through registered SourceAdapters against a search-index gateway.
package main

import (
	"fmt"
	"os"

	"github.com/custodia-labs/connectord/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
