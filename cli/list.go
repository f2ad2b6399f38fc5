package cli

import (
	"encoding/json"
	"fmt"

	"github.com/MakeNowJust/heredoc"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/giygas/smpc-comparator/filter"
	"github.com/giygas/smpc-comparator/record"
	"github.com/giygas/smpc-comparator/validation"
)

type listItem struct {
	Key                 string `json:"key"`
	Name                string `json:"name"`
	AuthorisationNumber string `json:"authorisation_number"`
	PharmaceuticalForm  string `json:"pharmaceutical_form"`
	Composition         string `json:"composition"`
}

func listCmd() *cobra.Command {
	var name, auth string
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List products matching a name and authorisation number",
		Long: heredoc.Doc(`
			Fetch the records and list those whose product name and authorisation
			number contain the given text, ignoring case.
		`),
		Example: heredoc.Doc(`
			$ smpc list --name paracetamol
			$ smpc list --auth PA0 --json
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := validation.NewDataValidator()
			for _, in := range []string{name, auth} {
				if err := v.ValidateFilter(in); err != nil {
					return err
				}
			}

			cfg, _, cleanup, err := setup(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer cleanup()

			records, err := fetchRecords(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			matched := filter.Apply(records, filter.State{Name: name, Auth: auth})
			total := len(matched)
			if limit > 0 && len(matched) > limit {
				matched = matched[:limit]
			}

			items := make([]listItem, len(matched))
			for i, r := range matched {
				items[i] = listItem{
					Key:                 r.Key,
					Name:                text(r.Name()),
					AuthorisationNumber: text(r.AuthorisationNumber()),
					PharmaceuticalForm:  text(r.PharmaceuticalForm()),
					Composition:         r.Composition(),
				}
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(items)
			}

			if len(items) == 0 {
				_, err := fmt.Fprintln(out, "No data found matching your criteria")
				return err
			}

			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("Key", "Product Name", "Authorization Number", "Pharmaceutical Form")
			for _, it := range items {
				t.Row(it.Key, it.Name, it.AuthorisationNumber, it.PharmaceuticalForm)
			}
			_, err = fmt.Fprintf(out, "%s\nMedicinal Products (%d)\n", t.Render(), total)
			return err
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Product name contains")
	cmd.Flags().StringVarP(&auth, "auth", "a", "", "Authorisation number contains")
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "Maximum number of products shown, 0 for all")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func text(v record.Value) string {
	if v.Truthy() {
		return v.Text
	}
	return record.Placeholder
}
