// Package stackscmder
package stackscmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/shelfworksco/stacks/cmd/stacks/config"
	indexcmder "github.com/shelfworksco/stacks/cmd/stacks/index"
	searchcmder "github.com/shelfworksco/stacks/cmd/stacks/search"
	seedcmder "github.com/shelfworksco/stacks/cmd/stacks/seed"
	servecmder "github.com/shelfworksco/stacks/cmd/stacks/serve"
	versioncmder "github.com/shelfworksco/stacks/cmd/version"
)

const stacksLongDesc string = `Stacks is semantic search over your paper library.

Run the server using:
  stacks serve         Run the search and index API server

Query and manage a running server:
  stacks search        Search the corpus
  stacks index         Inspect and manage the index lifecycle`

const stacksShortDesc string = "Stacks - Semantic Paper Search"

func NewStacksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stacks",
		Short: stacksShortDesc,
		Long:  stacksLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Configuration directory (default: $STACKS_HOME or ~/.stacks)")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(searchcmder.NewSearchCmd())
	cmd.AddCommand(indexcmder.NewIndexCmd())
	cmd.AddCommand(seedcmder.NewSeedCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
