// Command generate writes the sample paysheet, remittance and return files
// under testdata/ from the banks in testdata/banks.toml.
package main

import (
	"bytes"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/folhapay/remittance/internal/config"
	"github.com/folhapay/remittance/internal/currency"
	"github.com/folhapay/remittance/internal/domain"
	"github.com/folhapay/remittance/internal/paysheet"
	"github.com/folhapay/remittance/internal/remittance"
)

var (
	firstNames = []string{"ANA", "BRUNO", "CARLA", "DIEGO", "ELISA", "FABIO", "GABRIELA", "HUGO", "ISABEL", "JOAO"}
	lastNames  = []string{"SILVA", "SOUZA", "OLIVEIRA", "SANTOS", "LIMA", "PEREIRA", "COSTA", "ALMEIDA"}
	cities     = []struct{ city, state, zip string }{
		{"SAO PAULO", "SP", "01310100"},
		{"RIO DE JANEIRO", "RJ", "20040002"},
		{"BELO HORIZONTE", "MG", "30130010"},
		{"CURITIBA", "PR", "80010000"},
	}
	// Rejection codes sampled for about one payment in ten.
	rejections = []string{"AG", "AM", "AN", "01"}
)

func main() {
	rng := rand.New(rand.NewSource(42))
	baseDir := findTestdataDir()

	catalogue, err := config.LoadCatalogue(filepath.Join(baseDir, "banks.toml"))
	if err != nil {
		fail(err)
	}

	payday := time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC)
	generatedAt := time.Date(2024, 5, 28, 9, 30, 0, 0, time.UTC)
	payments := samplePayments(rng, 40)

	var csv bytes.Buffer
	if err := paysheet.WriteCSV(&csv, payments); err != nil {
		fail(err)
	}
	writeFile(filepath.Join(baseDir, "paysheet.csv"), csv.Bytes())
	fmt.Printf("Generated %d payments -> paysheet.csv\n", len(payments))

	for i, bank := range catalogue.Banks() {
		b := remittance.NewBuilder(
			remittance.WithFileID(fmt.Sprintf("sample-%s", bank.BankCode)),
			remittance.WithClock(func() time.Time { return generatedAt }),
			remittance.WithSequence(i+1),
		)
		f, err := b.Build("acme", bank, payments, payday)
		if err != nil {
			fail(fmt.Errorf("build %s: %w", bank.BankCode, err))
		}
		writeFile(filepath.Join(baseDir, f.FileName), f.Content)

		outcomes := make(map[string]string)
		for _, rec := range f.Records {
			if rng.Float64() < 0.1 {
				outcomes[rec.ControlNumber] = rejections[rng.Intn(len(rejections))]
			}
		}
		ret, err := remittance.Respond(f, outcomes, payday)
		if err != nil {
			fail(fmt.Errorf("respond %s: %w", bank.BankCode, err))
		}
		retName := remittance.ReturnFileName(f.FileName)
		writeFile(filepath.Join(baseDir, retName), ret)

		fmt.Printf("Generated %s %s (%d payments, %s) and %s (%d rejected)\n",
			bank.Layout, f.FileName, f.DeclaredCount, f.DeclaredTotal.Display(), retName, len(outcomes))
	}
}

func samplePayments(rng *rand.Rand, n int) []domain.PayrollPayment {
	payments := make([]domain.PayrollPayment, 0, n)
	for i := 1; i <= n; i++ {
		name := firstNames[rng.Intn(len(firstNames))] + " " + lastNames[rng.Intn(len(lastNames))]
		c := cities[rng.Intn(len(cities))]
		// Salaries between R$ 1.412,00 and R$ 15.000,00.
		amount := currency.Amount(141200 + rng.Int63n(1358800))
		payments = append(payments, domain.PayrollPayment{
			EmployeeID:          fmt.Sprintf("E%04d", i),
			BeneficiaryName:     name,
			BeneficiaryDocument: fmt.Sprintf("%011d", rng.Int63n(99999999999)),
			BankCode:            "001",
			Agency:              fmt.Sprintf("%04d", rng.Intn(10000)),
			Account:             fmt.Sprintf("%d-%d", 10000+rng.Intn(90000), rng.Intn(10)),
			Address: domain.Address{
				Street: "RUA DAS FLORES",
				Number: fmt.Sprintf("%d", 1+rng.Intn(2000)),
				City:   c.city,
				State:  c.state,
				ZIP:    c.zip,
			},
			Amount: amount,
		})
	}
	return payments
}

func writeFile(path string, data []byte) {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		fail(err)
	}
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "generate:", err)
	os.Exit(1)
}

func findTestdataDir() string {
	for _, c := range []string{"testdata", "../testdata", "../../testdata"} {
		if info, err := os.Stat(c); err == nil && info.IsDir() {
			return c
		}
	}
	return "testdata"
}
