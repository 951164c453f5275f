// Package paysheet imports payroll payment lists from CSV or XLSX
// spreadsheets and exports reconciliation results to XLSX.
package paysheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/folhapay/remittance/internal/currency"
	"github.com/folhapay/remittance/internal/domain"
)

// Column headers, matched case-insensitively.
const (
	ColEmployeeID     = "employee_id"
	ColName           = "name"
	ColDocument       = "cpf"
	ColBank           = "bank"
	ColAgency         = "agency"
	ColAgencyDigit    = "agency_digit"
	ColAccount        = "account"
	ColAmount         = "amount"
	ColPaymentDate    = "payment_date"
	ColStreet         = "street"
	ColNumber         = "number"
	ColComplement     = "complement"
	ColDistrict       = "district"
	ColCity           = "city"
	ColState          = "state"
	ColZIP            = "zip"
	ColCorrelationKey = "correlation_key"
)

// Columns is the canonical header order written by templates and exports.
var Columns = []string{
	ColEmployeeID, ColName, ColDocument, ColBank, ColAgency, ColAgencyDigit, ColAccount,
	ColAmount, ColPaymentDate, ColStreet, ColNumber, ColComplement, ColDistrict,
	ColCity, ColState, ColZIP, ColCorrelationKey,
}

var required = []string{ColEmployeeID, ColName, ColDocument, ColBank, ColAgency, ColAccount, ColAmount}

var aliases = map[string]string{
	"nome":      ColName,
	"matricula": ColEmployeeID,
	"banco":     ColBank,
	"agencia":   ColAgency,
	"conta":     ColAccount,
	"valor":     ColAmount,
	"document":  ColDocument,
}

var dateLayouts = []string{"2006-01-02", "02/01/2006", "02012006"}

// ErrNoRows is returned for a sheet with a header and nothing else.
var ErrNoRows = errors.New("paysheet has no payment rows")

// Load reads payments from a spreadsheet. The format comes from the file
// extension, falling back to the XLSX magic bytes.
func Load(name string, data []byte) ([]domain.PayrollPayment, error) {
	var rows [][]string
	var err error
	switch ext := strings.ToLower(filepath.Ext(name)); {
	case ext == ".xlsx" || (ext != ".csv" && isXLSX(data)):
		rows, err = readXLSX(data)
	default:
		rows, err = readCSV(data)
	}
	if err != nil {
		return nil, err
	}
	return decodeRows(rows)
}

func readCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	reader := csv.NewReader(bytes.NewReader(data))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	if first, _, _ := bytes.Cut(data, []byte("\n")); bytes.Count(first, []byte(";")) > bytes.Count(first, []byte(",")) {
		reader.Comma = ';'
	}

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("open xlsx: no sheets found")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read xlsx rows: %w", err)
	}
	return rows, nil
}

// isXLSX checks for the ZIP local file header.
func isXLSX(data []byte) bool {
	return len(data) >= 4 && data[0] == 'P' && data[1] == 'K' && data[2] == 0x03 && data[3] == 0x04
}

func decodeRows(rows [][]string) ([]domain.PayrollPayment, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("paysheet is empty")
	}
	index := make(map[string]int)
	for i, h := range rows[0] {
		key := strings.ToLower(strings.TrimSpace(h))
		if canonical, ok := aliases[key]; ok {
			key = canonical
		}
		index[key] = i
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("paysheet header: missing column %q", col)
		}
	}

	var payments []domain.PayrollPayment
	for n, row := range rows[1:] {
		line := n + 2
		get := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}
		if blankRow(row) {
			continue
		}

		for _, col := range required {
			if get(col) == "" {
				return nil, fmt.Errorf("row %d %s: %w", line, col, domain.ErrMissingRequiredField)
			}
		}
		amount, err := currency.Parse(get(ColAmount))
		if err != nil {
			return nil, fmt.Errorf("row %d %s: %w: %v", line, ColAmount, domain.ErrInvalidValue, err)
		}
		p := domain.PayrollPayment{
			EmployeeID:          get(ColEmployeeID),
			BeneficiaryName:     get(ColName),
			BeneficiaryDocument: get(ColDocument),
			BankCode:            get(ColBank),
			Agency:              get(ColAgency),
			AgencyDigit:         get(ColAgencyDigit),
			Account:             get(ColAccount),
			Amount:              amount,
			CorrelationKey:      get(ColCorrelationKey),
			Address: domain.Address{
				Street:     get(ColStreet),
				Number:     get(ColNumber),
				Complement: get(ColComplement),
				District:   get(ColDistrict),
				City:       get(ColCity),
				State:      get(ColState),
				ZIP:        get(ColZIP),
			},
		}
		if s := get(ColPaymentDate); s != "" {
			if p.PaymentDate, err = parseDate(s); err != nil {
				return nil, fmt.Errorf("row %d %s: %w", line, ColPaymentDate, err)
			}
		}
		payments = append(payments, p)
	}
	if len(payments) == 0 {
		return nil, ErrNoRows
	}
	return payments, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: date %q", domain.ErrInvalidValue, s)
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// WriteCSV renders payments with the canonical header, the inverse of Load.
func WriteCSV(w io.Writer, payments []domain.PayrollPayment) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, p := range payments {
		date := ""
		if !p.PaymentDate.IsZero() {
			date = p.PaymentDate.Format("2006-01-02")
		}
		row := []string{
			p.EmployeeID, p.BeneficiaryName, p.BeneficiaryDocument, p.BankCode, p.Agency, p.AgencyDigit,
			p.Account, p.Amount.String(), date, p.Address.Street, p.Address.Number, p.Address.Complement,
			p.Address.District, p.Address.City, p.Address.State, p.Address.ZIP, p.CorrelationKey,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %s: %w", p.EmployeeID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
