// Package cli implements remitctl, the offline companion to the server: it
// builds remittance files from paysheets, parses and simulates bank returns
// and reconciles a return against its remittance without a database.
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/folhapay/remittance/internal/config"
	"github.com/folhapay/remittance/internal/domain"
)

type options struct {
	banksFile string
	bankCode  string
	tenant    string
}

// NewRootCmd assembles the command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "remitctl",
		Short: "Build, parse and reconcile CNAB payroll files",
		Long: `remitctl works on CNAB 240 and CNAB 400 payroll files directly on disk.
Bank accounts come from the same TOML catalogue the server reads.`,
		Version:       config.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultBanks := os.Getenv("REMIT_BANKS_FILE")
	if defaultBanks == "" {
		defaultBanks = "banks.toml"
	}
	root.PersistentFlags().StringVar(&opts.banksFile, "banks", defaultBanks, "Bank catalogue TOML file")
	root.PersistentFlags().StringVarP(&opts.bankCode, "bank", "b", "", "Bank code from the catalogue")
	root.PersistentFlags().StringVarP(&opts.tenant, "tenant", "t", "default", "Tenant tag")

	root.AddCommand(
		newBuildCmd(opts),
		newParseCmd(opts),
		newSimulateReturnCmd(opts),
		newReconcileCmd(opts),
		newLayoutsCmd(),
	)
	return root
}

// Execute runs remitctl with os.Args.
func Execute() int {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
		return 1
	}
	return 0
}

// bank resolves --bank against the catalogue.
func (o *options) bank() (domain.BankConfig, error) {
	if o.bankCode == "" {
		return domain.BankConfig{}, fmt.Errorf("--bank is required")
	}
	catalogue, err := config.LoadCatalogue(o.banksFile)
	if err != nil {
		return domain.BankConfig{}, err
	}
	return catalogue.Bank(o.bankCode)
}

func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q: want YYYY-MM-DD", s)
	}
	return t, nil
}
