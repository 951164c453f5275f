package paysheet

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/folhapay/remittance/internal/domain"
)

func TestLoad_CSV(t *testing.T) {
	data := []byte("employee_id,name,cpf,bank,agency,account,amount,payment_date,city\n" +
		"E-1,Jane Doe,123.456.789-09,001,4321,12345-6,1500.00,2024-06-05,SAO PAULO\n" +
		"\n" +
		"E-2,José Lima,987.654.321-00,237,0001,777-1,99.9,,\n")

	payments, err := Load("folha.csv", data)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(payments) != 2 {
		t.Fatalf("got %d payments, want 2", len(payments))
	}
	jane := payments[0]
	if jane.BeneficiaryName != "Jane Doe" || jane.Account != "12345-6" || jane.Amount != 150000 {
		t.Errorf("payment 1 = %+v", jane)
	}
	if !jane.PaymentDate.Equal(time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC)) || jane.Address.City != "SAO PAULO" {
		t.Errorf("payment 1 date/address = %v %+v", jane.PaymentDate, jane.Address)
	}
	if payments[1].Amount != 9990 || !payments[1].PaymentDate.IsZero() {
		t.Errorf("payment 2 = %+v", payments[1])
	}
}

func TestLoad_SemicolonCSV(t *testing.T) {
	data := []byte("\xef\xbb\xbfMatricula;Nome;CPF;Banco;Agencia;Conta;Valor\n" +
		"E-1;Jane Doe;12345678909;001;4321;12345-6;1.500,00\n")

	payments, err := Load("folha.csv", data)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(payments) != 1 || payments[0].EmployeeID != "E-1" || payments[0].Amount != 150000 {
		t.Errorf("payments = %+v", payments)
	}
}

func TestLoad_XLSX(t *testing.T) {
	f := excelize.NewFile()
	rows := [][]string{
		{"employee_id", "name", "cpf", "bank", "agency", "account", "amount", "payment_date"},
		{"E-1", "Jane Doe", "123.456.789-09", "001", "4321", "12345-6", "1500.00", "05/06/2024"},
	}
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			if err := f.SetCellValue("Sheet1", cell, v); err != nil {
				t.Fatal(err)
			}
		}
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatal(err)
	}
	f.Close()

	// No extension: detected from the magic bytes.
	payments, err := Load("upload", buf.Bytes())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(payments) != 1 {
		t.Fatalf("got %d payments", len(payments))
	}
	p := payments[0]
	if p.BeneficiaryName != "Jane Doe" || p.Amount != 150000 || p.PaymentDate.Day() != 5 || p.PaymentDate.Month() != time.June {
		t.Errorf("payment = %+v", p)
	}
}

func TestLoad_Errors(t *testing.T) {
	header := "employee_id,name,cpf,bank,agency,account,amount\n"
	tests := []struct {
		name    string
		data    string
		wantErr error
	}{
		{"empty", "", nil},
		{"missing column", "employee_id,name\nE-1,Jane\n", nil},
		{"header only", header, ErrNoRows},
		{"missing value", header + "E-1,,123,001,1,2,10.00\n", domain.ErrMissingRequiredField},
		{"bad amount", header + "E-1,Jane,123,001,1,2,ten\n", domain.ErrInvalidValue},
		{"too precise", header + "E-1,Jane,123,001,1,2,10.001\n", domain.ErrInvalidValue},
		{"bad date", "employee_id,name,cpf,bank,agency,account,amount,payment_date\nE-1,Jane,123,001,1,2,10.00,tomorrow\n", domain.ErrInvalidValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load("x.csv", []byte(tt.data))
			if err == nil {
				t.Fatal("Load succeeded, want error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	in := []domain.PayrollPayment{{
		EmployeeID: "E-1", BeneficiaryName: "Jane Doe", BeneficiaryDocument: "12345678909",
		BankCode: "001", Agency: "4321", Account: "12345-6", Amount: 150000,
		PaymentDate: time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC),
		Address:     domain.Address{City: "SAO PAULO", ZIP: "01310-100"},
	}}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, in); err != nil {
		t.Fatal(err)
	}
	out, err := Load("round.csv", buf.Bytes())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(out) != 1 || out[0].Amount != 150000 || out[0].Address.ZIP != "01310-100" || !out[0].PaymentDate.Equal(in[0].PaymentDate) {
		t.Errorf("round trip = %+v", out)
	}
}

func TestResultsXLSX(t *testing.T) {
	results := []domain.ReconciliationResult{
		{ControlNumber: "C1", Status: domain.StatusSettled, OccurrenceCode: "00", SettledAmount: 150000,
			SettlementDate: time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC), AppliedAt: time.Date(2024, 6, 6, 8, 0, 0, 0, time.UTC)},
		{ControlNumber: "C2", Status: domain.StatusRejected, OccurrenceCode: "AG", Message: "Agência/Conta Inválida"},
	}
	data, err := ResultsXLSX(results)
	if err != nil {
		t.Fatalf("ResultsXLSX: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := f.GetRows("Results")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(rows))
	}
	if rows[0][0] != "Control number" || rows[1][0] != "C1" || rows[1][1] != "SETTLED" || rows[1][5] != "2024-06-05" {
		t.Errorf("row 1 = %v", rows[1])
	}
	if rows[2][3] != "Agência/Conta Inválida" || rows[2][5] != "" {
		t.Errorf("row 2 = %v", rows[2])
	}
}
