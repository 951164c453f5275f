package domain

import (
	"time"

	"github.com/folhapay/remittance/internal/currency"
)

// ReturnRecord is one decoded detail line of a bank return file.
type ReturnRecord struct {
	Line            int             `json:"line"`
	Sequence        int             `json:"sequence"`
	ControlNumber   string          `json:"control_number"`
	OccurrenceCode  string          `json:"occurrence_code"`
	Occurrences     []string        `json:"occurrences,omitempty"`
	Message         string          `json:"message"`
	ScheduledAmount currency.Amount `json:"scheduled_amount"`
	SettledAmount   currency.Amount `json:"settled_amount"`
	SettlementDate  time.Time       `json:"settlement_date,omitempty"`
}

type ReturnFile struct {
	ID            string          `json:"id"`
	Tenant        string          `json:"tenant"`
	Bank          BankConfig      `json:"bank"`
	FileName      string          `json:"file_name"`
	FileSequence  int             `json:"file_sequence"`
	ParsedAt      time.Time       `json:"parsed_at"`
	Records       []ReturnRecord  `json:"records,omitempty"`
	DeclaredLines int             `json:"declared_lines"`
	ObservedLines int             `json:"observed_lines"`
	DeclaredTotal currency.Amount `json:"declared_total"`
	ObservedTotal currency.Amount `json:"observed_total"`
	ContentHash   string          `json:"content_hash"`
	Status        IntegrityStatus `json:"status"`
}
