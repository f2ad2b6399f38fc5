package cli

import (
	"encoding/json"
	"fmt"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/giygas/smpc-comparator/comparison"
	"github.com/giygas/smpc-comparator/selection"
	"github.com/giygas/smpc-comparator/tui"
	"github.com/giygas/smpc-comparator/validation"
)

type compareRow struct {
	Field     string `json:"field"`
	Label     string `json:"label"`
	Left      string `json:"left"`
	Right     string `json:"right"`
	Different bool   `json:"different"`
}

type compareOutput struct {
	Title          string       `json:"title"`
	Headers        [2]string    `json:"headers"`
	DifferentCount int          `json:"different_count"`
	Rows           []compareRow `json:"rows"`
}

func compareCmd() *cobra.Command {
	var onlyDiff, asJSON bool
	var width int

	cmd := &cobra.Command{
		Use:   "compare <key> <key>",
		Short: "Compare two records field by field",
		Long: heredoc.Doc(`
			Fetch the records and compare the two with the given keys. A key is
			the record id, or row-N for records without one (see smpc list).
		`),
		Example: heredoc.Doc(`
			$ smpc compare 1042 1043
			$ smpc compare 1042 1043 --only-diff --json
		`),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v := validation.NewDataValidator()
			for _, key := range args {
				if err := v.ValidateKey(key); err != nil {
					return err
				}
			}
			if args[0] == args[1] {
				return fmt.Errorf("compare needs two different records")
			}

			cfg, names, cleanup, err := setup(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer cleanup()

			records, err := fetchRecords(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			byKey := indexByKey(records)
			sel := selection.Set{}
			for _, key := range args {
				rec, ok := byKey[key]
				if !ok {
					return fmt.Errorf("record %q not found", key)
				}
				sel = sel.Toggle(rec)
			}

			res := comparison.Build(sel, names)
			out := cmd.OutOrStdout()

			if !asJSON {
				_, err := fmt.Fprintln(out, tui.RenderComparison(res, width, onlyDiff))
				return err
			}

			rows := res.Rows
			if onlyDiff {
				rows = res.OnlyDifferent()
			}
			payload := compareOutput{
				Title:          res.Title(),
				Headers:        [2]string{res.LeftHeader(), res.RightHeader()},
				DifferentCount: res.DifferentCount(),
				Rows:           make([]compareRow, len(rows)),
			}
			for i, r := range rows {
				payload.Rows[i] = compareRow{r.Field, r.Label, r.Left.Display(), r.Right.Display(), r.Different}
			}

			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(payload)
		},
	}

	cmd.Flags().BoolVarP(&onlyDiff, "only-diff", "d", false, "Show only the fields that differ")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	cmd.Flags().IntVarP(&width, "width", "w", 0, "Table width, 0 for the natural width")
	return cmd
}
