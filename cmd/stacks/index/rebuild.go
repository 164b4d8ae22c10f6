package indexcmder

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/shelfworksco/stacks/api"
	"github.com/shelfworksco/stacks/pkg/cliui"
	"github.com/shelfworksco/stacks/pkg/config"
)

const rebuildLongDesc string = `Rebuild the index from the current corpus.

Re-embeds every paper (or paragraph) in the metadata store and atomically
swaps the new index live. The replaced index is kept as the backup; any
previous backup is discarded. Searches continue against the old index until
the swap completes.

Fails if a rebuild is already in progress for the same granularity.

Examples:
  stacks index rebuild
  stacks index rebuild --paragraphs`

const rebuildShortDesc string = "Rebuild the index from the current corpus"

type rebuildCommander struct {
	paragraphs bool
	apiTarget  string
}

func newRebuildCmd() *cobra.Command {
	cmder := &rebuildCommander{}

	cmd := &cobra.Command{
		Use:   "rebuild",
		Short: rebuildShortDesc,
		Long:  rebuildLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return resolveAPITarget(cmd, &cmder.apiTarget)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	defaults := config.NewDefaultConfig()
	cmd.Flags().BoolVarP(&cmder.paragraphs, "paragraphs", "p", false, "Rebuild the paragraph-granularity index")
	cmd.Flags().StringVar(&cmder.apiTarget, "api-target", defaults.Client.APITarget, "Stacks API server URL")

	return cmd
}

func (c *rebuildCommander) run(cmd *cobra.Command) error {
	granularity := "paper"
	if c.paragraphs {
		granularity = "paragraph"
	}

	var resp api.RebuildResponse
	if err := cliui.Step(os.Stdout, fmt.Sprintf("Rebuilding %s index", granularity), func() error {
		return callAPI(cmd.Context(), http.MethodPost, c.apiTarget, "/api/index/rebuild",
			nil, api.RebuildRequest{UseParagraphs: c.paragraphs}, &resp)
	}); err != nil {
		return err
	}

	fmt.Printf("\n  %s Indexed %s documents %s\n\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(strconv.Itoa(resp.DocumentCount)),
		cliui.DimStyle.Render(fmt.Sprintf("(%s)", cliui.FormatDuration(time.Duration(resp.DurationMS)*time.Millisecond))),
	)
	return nil
}
