package cli

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/MakeNowJust/heredoc"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

func fieldsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "fields [key...]",
		Short: "Show the display names of field keys",
		Long: heredoc.Doc(`
			Without arguments, print the whole label table including the
			FIELD_NAMES_FILE overrides. With keys, print the label each key gets,
			humanized when the key is not in the table.
		`),
		Example: heredoc.Doc(`
			$ smpc fields
			$ smpc fields S4_9_overdose custom_field
		`),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, names, cleanup, err := setup(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer cleanup()

			labels := map[string]string{}
			if len(args) == 0 {
				labels = names.Table()
			}
			for _, key := range args {
				labels[key] = names.DisplayName(key)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(labels)
			}

			keys := make([]string, 0, len(labels))
			for k := range labels {
				keys = append(keys, k)
			}
			slices.Sort(keys)

			t := table.New().Border(lipgloss.NormalBorder()).Headers("Key", "Display Name")
			for _, k := range keys {
				t.Row(k, labels[k])
			}
			_, err = fmt.Fprintln(out, t.Render())
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}
