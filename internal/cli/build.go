package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/folhapay/remittance/internal/paysheet"
	"github.com/folhapay/remittance/internal/remittance"
)

func newBuildCmd(opts *options) *cobra.Command {
	var (
		date   string
		nsa    int
		outDir string
	)
	cmd := &cobra.Command{
		Use:   "build PAYSHEET",
		Short: "Build a remittance file from a CSV or XLSX paysheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bank, err := opts.bank()
			if err != nil {
				return err
			}
			paymentDate, err := parseDay(date)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read paysheet: %w", err)
			}
			payments, err := paysheet.Load(args[0], data)
			if err != nil {
				return err
			}

			f, err := remittance.NewBuilder(remittance.WithSequence(nsa)).Build(opts.tenant, bank, payments, paymentDate)
			if err != nil {
				return err
			}

			path := filepath.Join(outDir, f.FileName)
			if err := os.WriteFile(path, f.Content, 0o644); err != nil {
				return fmt.Errorf("write remittance: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote %s\n", path)
			fmt.Fprintf(out, "  layout    %s\n", bank.Layout)
			fmt.Fprintf(out, "  payments  %d\n", f.DeclaredCount)
			fmt.Fprintf(out, "  total     %s\n", f.DeclaredTotal.Display())
			fmt.Fprintf(out, "  lines     %d\n", f.DeclaredLines)
			fmt.Fprintf(out, "  sha256    %s\n", f.ContentHash)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Payment date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("date")
	cmd.Flags().IntVar(&nsa, "nsa", 1, "File sequence number")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "Output directory")
	return cmd
}
