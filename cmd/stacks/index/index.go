// Package indexcmder provides the index command group for inspecting and
// managing the index lifecycle of a running Stacks server.
package indexcmder

import (
	"github.com/spf13/cobra"
)

const indexLongDesc string = `Inspect and manage the index lifecycle.

These commands talk to a running Stacks server:
  stacks index status      Show document count, index variant, and backup state
  stacks index rebuild     Rebuild the index from the current corpus
  stacks index rollback    Restore the previous index snapshot

Rebuilds are full-corpus operations. Each successful rebuild keeps the
replaced snapshot as a single backup; rollback exchanges the live index
with that backup, so a second rollback undoes the first.`

const indexShortDesc string = "Inspect and manage the index lifecycle"

func NewIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: indexShortDesc,
		Long:  indexLongDesc,
	}

	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newRebuildCmd())
	cmd.AddCommand(newRollbackCmd())

	return cmd
}
