// Package configcmder provides the config command for managing persistent
// stacks configuration stored in the .stacks/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent stacks configuration.

Configuration is stored as config.toml in the .stacks/ directory and provides
default values for command flags. CLI flags always take precedence over
config file values.

Keys use dotted notation matching the TOML section structure:
  server.listen, storage.provider, storage.sqlite_path, storage.postgres_url,
  client.api_target,
  embedding.provider, embedding.target, embedding.model, embedding.dimensions,
  index.flat_threshold, index.hnsw_m, index.hnsw_ef_construction,
  index.hnsw_ef_search, index.rebuild_on_start,
  search.default_limit, search.overfetch_factor, search.max_overfetch_factor,
  search.max_paragraphs_per_paper, search.similarity_threshold

Use subcommands to get, set, or list configuration values:
  stacks config set <key> <value>    Set a configuration value
  stacks config get <key>            Get a configuration value
  stacks config list                 List all configuration values

Examples:
  stacks config set storage.provider postgres
  stacks config set embedding.dimensions 768
  stacks config get index.flat_threshold
  stacks config list`

const configShortDesc string = "Manage persistent stacks configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
