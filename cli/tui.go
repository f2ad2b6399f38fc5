package cli

import (
	"context"
	"io"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/giygas/smpc-comparator/record"
	"github.com/giygas/smpc-comparator/tui"
)

func tuiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Browse and compare records in the terminal",
		Long: heredoc.Doc(`
			Open the comparator in the terminal. Type in the name and auth inputs
			to filter, tab to the list, and press enter to select up to two
			products. Logs only go to LOG_DIR while the UI runs.
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, names, cleanup, err := setup(cmd, io.Discard)
			if err != nil {
				return err
			}
			defer cleanup()

			load := func(ctx context.Context) ([]record.Record, error) {
				return fetchRecords(ctx, cfg)
			}
			return tui.Run(cmd.Context(), tui.New(cmd.Context(), load, names))
		},
	}
}
