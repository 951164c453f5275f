package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/folhapay/remittance/internal/domain"
	"github.com/folhapay/remittance/internal/remittance"
)

func newSimulateReturnCmd(opts *options) *cobra.Command {
	var (
		outcomes  []string
		settledOn string
		outDir    string
	)
	cmd := &cobra.Command{
		Use:   "simulate-return REMITTANCE",
		Short: "Write the return file a bank would send for a remittance",
		Long: `Every payment settles unless --outcome CONTROL=CODE assigns it another
occurrence code, for example --outcome 3F2A9C10B55D40000002=AG.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bank, err := opts.bank()
			if err != nil {
				return err
			}
			codes := make(map[string]string, len(outcomes))
			for _, o := range outcomes {
				control, code, ok := strings.Cut(o, "=")
				if !ok || control == "" || code == "" {
					return fmt.Errorf("outcome %q: want CONTROL=CODE", o)
				}
				codes[control] = code
			}
			day, err := parseDay(settledOn)
			if err != nil {
				return err
			}
			if day.IsZero() {
				day = time.Now().UTC().Truncate(24 * time.Hour)
			}

			content, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read remittance: %w", err)
			}
			f := &domain.RemittanceFile{Bank: bank, Content: content}
			ret, err := remittance.Respond(f, codes, day)
			if err != nil {
				return err
			}

			path := filepath.Join(outDir, remittance.ReturnFileName(filepath.Base(args[0])))
			if err := os.WriteFile(path, ret, 0o644); err != nil {
				return fmt.Errorf("write return: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d explicit outcomes)\n", path, len(codes))
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&outcomes, "outcome", nil, "CONTROL=CODE occurrence for one payment (repeatable)")
	cmd.Flags().StringVar(&settledOn, "settled-on", "", "Settlement date (YYYY-MM-DD), default today")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "Output directory")
	return cmd
}
