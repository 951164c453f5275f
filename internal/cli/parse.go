package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/folhapay/remittance/internal/domain"
	"github.com/folhapay/remittance/internal/ingestion"
)

func newParseCmd(opts *options) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "parse FILE",
		Short: "Parse a return (or remittance) file and check its trailers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rf, err := parseFile(opts, args[0])
			var mismatch *domain.CountMismatchError
			if err != nil && !errors.As(err, &mismatch) {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if encErr := enc.Encode(rf); encErr != nil {
					return encErr
				}
			} else {
				printReturn(out, rf)
			}
			// A corrupt file is still reported in full before failing.
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the parsed file as JSON")
	return cmd
}

func parseFile(opts *options, path string) (*domain.ReturnFile, error) {
	bank, err := opts.bank()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ingestion.NewParser().Parse(opts.tenant, bank, data)
}

func printReturn(out io.Writer, rf *domain.ReturnFile) {
	fmt.Fprintf(out, "%s NSA %d: %d records, %d lines, total %s (%s)\n",
		rf.Bank.Layout, rf.FileSequence, len(rf.Records), rf.ObservedLines, rf.ObservedTotal.Display(), rf.Status)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LINE\tCONTROL\tCODE\tAMOUNT\tMESSAGE")
	for _, r := range rf.Records {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", r.Line, r.ControlNumber, r.OccurrenceCode, r.ScheduledAmount, r.Message)
	}
	tw.Flush()
}
