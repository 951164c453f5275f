package domain

import (
	"strings"
	"time"

	"github.com/folhapay/remittance/internal/currency"
)

// Variant identifies a CNAB file layout.
type Variant string

const (
	LayoutCNAB240 Variant = "CNAB240"
	LayoutCNAB400 Variant = "CNAB400"
)

type Address struct {
	Street     string `json:"street,omitempty" toml:"street"`
	Number     string `json:"number,omitempty" toml:"number"`
	Complement string `json:"complement,omitempty" toml:"complement"`
	District   string `json:"district,omitempty" toml:"district"`
	City       string `json:"city,omitempty" toml:"city"`
	State      string `json:"state,omitempty" toml:"state"`
	ZIP        string `json:"zip,omitempty" toml:"zip"`
}

// ZIPParts splits a CEP such as "01310-100" into its 5-digit prefix and
// 3-digit suffix.
func (a Address) ZIPParts() (string, string) {
	zip := strings.ReplaceAll(strings.ReplaceAll(a.ZIP, "-", ""), ".", "")
	if len(zip) <= 5 {
		return zip, ""
	}
	return zip[:5], zip[5:]
}

// BankConfig is the company's account at the paying bank. It is a snapshot:
// one generation run never sees it change.
type BankConfig struct {
	BankCode     string  `json:"bank_code" toml:"bank_code"`
	BankName     string  `json:"bank_name" toml:"bank_name"`
	Agency       string  `json:"agency" toml:"agency"`
	AgencyDigit  string  `json:"agency_digit" toml:"agency_digit"`
	Account      string  `json:"account" toml:"account"`
	AccountDigit string  `json:"account_digit" toml:"account_digit"`
	CompanyCode  string  `json:"company_code" toml:"company_code"` // convênio
	Layout       Variant `json:"layout" toml:"layout"`
	CompanyName  string  `json:"company_name" toml:"company_name"`
	Document     string  `json:"document" toml:"document"` // CNPJ
	Address      Address `json:"address" toml:"address"`

	// Occurrences overrides the layout's occurrence-code table for banks
	// that deviate from FEBRABAN.
	Occurrences map[string]SettlementStatus `json:"occurrences,omitempty" toml:"occurrences"`
}

type PayrollPayment struct {
	EmployeeID          string          `json:"employee_id"`
	BeneficiaryName     string          `json:"beneficiary_name"`
	BeneficiaryDocument string          `json:"beneficiary_document"` // CPF
	BankCode            string          `json:"bank_code"`
	Agency              string          `json:"agency"`
	AgencyDigit         string          `json:"agency_digit,omitempty"`
	Account             string          `json:"account"` // number with check digit, e.g. "12345-6"
	Address             Address         `json:"address"`
	Amount              currency.Amount `json:"amount"` // minor units
	PaymentDate         time.Time       `json:"payment_date,omitempty"`
	CorrelationKey      string          `json:"correlation_key,omitempty"`
}

// SplitAccount separates "12345-6" into number and check digit. An account
// without a separator has no digit.
func SplitAccount(account string) (number, digit string) {
	account = strings.TrimSpace(account)
	if i := strings.LastIndex(account, "-"); i >= 0 {
		return account[:i], account[i+1:]
	}
	return account, ""
}

// OnlyDigits strips punctuation from documents such as CPF/CNPJ.
func OnlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
