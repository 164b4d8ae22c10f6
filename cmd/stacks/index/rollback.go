package indexcmder

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shelfworksco/stacks/api"
	"github.com/shelfworksco/stacks/pkg/cliui"
	"github.com/shelfworksco/stacks/pkg/config"
)

const rollbackLongDesc string = `Restore the previous index snapshot.

Exchanges the live index with the backup snapshot retained from the last
rebuild. The replaced index becomes the new backup, so running rollback
again undoes the rollback.

Fails if no backup exists (no rebuild has completed since startup).

Examples:
  stacks index rollback
  stacks index rollback --paragraphs`

const rollbackShortDesc string = "Restore the previous index snapshot"

type rollbackCommander struct {
	paragraphs bool
	apiTarget  string
}

func newRollbackCmd() *cobra.Command {
	cmder := &rollbackCommander{}

	cmd := &cobra.Command{
		Use:   "rollback",
		Short: rollbackShortDesc,
		Long:  rollbackLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return resolveAPITarget(cmd, &cmder.apiTarget)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	defaults := config.NewDefaultConfig()
	cmd.Flags().BoolVarP(&cmder.paragraphs, "paragraphs", "p", false, "Roll back the paragraph-granularity index")
	cmd.Flags().StringVar(&cmder.apiTarget, "api-target", defaults.Client.APITarget, "Stacks API server URL")

	return cmd
}

func (c *rollbackCommander) run(cmd *cobra.Command) error {
	var resp api.RollbackResponse
	if err := callAPI(cmd.Context(), http.MethodPost, c.apiTarget, "/api/index/rollback",
		nil, api.RebuildRequest{UseParagraphs: c.paragraphs}, &resp); err != nil {
		return err
	}

	fmt.Printf("\n  %s Restored index with %s documents\n\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(strconv.Itoa(resp.RestoredDocumentCount)),
	)
	return nil
}
