package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/folhapay/remittance/internal/domain"
	"github.com/folhapay/remittance/internal/paysheet"
	"github.com/folhapay/remittance/internal/reconciliation"
)

func newReconcileCmd(opts *options) *cobra.Command {
	var xlsxPath string
	cmd := &cobra.Command{
		Use:   "reconcile REMITTANCE RETURN",
		Short: "Reconcile a return file against the remittance it answers",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sent, err := parseFile(opts, args[0])
			if err != nil {
				return fmt.Errorf("remittance %s: %w", args[0], err)
			}
			index := domain.NewControlSet()
			for _, r := range sent.Records {
				index[r.ControlNumber] = struct{}{}
			}

			ret, err := parseFile(opts, args[1])
			if err != nil {
				return fmt.Errorf("return %s: %w", args[1], err)
			}
			results, err := reconciliation.NewEngine(nil).Reconcile(ret, index)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CONTROL\tSTATUS\tCODE\tSETTLED\tMESSAGE")
			for _, r := range results {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.ControlNumber, r.Status, r.OccurrenceCode, r.SettledAmount, r.Message)
			}
			tw.Flush()
			fmt.Fprintf(out, "Remittance status: %s\n", domain.SummarizeStatus(results))

			if xlsxPath != "" {
				data, err := paysheet.ResultsXLSX(results)
				if err != nil {
					return err
				}
				if err := os.WriteFile(xlsxPath, data, 0o644); err != nil {
					return fmt.Errorf("write xlsx: %w", err)
				}
				fmt.Fprintf(out, "Wrote %s\n", xlsxPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Also export the results to this XLSX file")
	return cmd
}
