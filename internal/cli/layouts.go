package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/folhapay/remittance/internal/layout"
)

func newLayoutsCmd() *cobra.Command {
	var (
		asJSON bool
		fields bool
	)
	cmd := &cobra.Command{
		Use:   "layouts",
		Short: "List supported CNAB layouts and their segments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			desc := layout.Default.Describe()
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(desc)
			}
			for _, d := range desc {
				fmt.Fprintf(out, "%s  %s (%d columns)\n", d.Variant, d.Name, d.LineLength)
				for _, s := range d.Segments {
					fmt.Fprintf(out, "  %-14s %d fields\n", s.Type, len(s.Fields))
					if !fields {
						continue
					}
					tw := tabwriter.NewWriter(out, 0, 4, 1, ' ', 0)
					for _, f := range s.Fields {
						fmt.Fprintf(tw, "    %03d-%03d\t%s\t%s\t%s\n", f.Start, f.End, f.Kind, f.Name, f.Const)
					}
					tw.Flush()
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	cmd.Flags().BoolVar(&fields, "fields", false, "Show field positions")
	return cmd
}
