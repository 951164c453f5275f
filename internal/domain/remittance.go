package domain

import (
	"time"

	"github.com/folhapay/remittance/internal/currency"
)

type EncodedLine struct {
	Segment SegmentType `json:"segment"`
	Raw     []byte      `json:"-"`
}

// RemittanceRecord is one payment inside a remittance file. It is an audit
// artifact and is never updated after the build.
type RemittanceRecord struct {
	FileID        string         `json:"file_id"`
	Sequence      int            `json:"sequence"`
	ControlNumber string         `json:"control_number"`
	Payment       PayrollPayment `json:"payment"`
	Segment       SegmentType    `json:"segment"`
	Lines         []EncodedLine  `json:"-"`
}

// Raw returns the primary encoded line of the record.
func (r *RemittanceRecord) Raw() []byte {
	for _, l := range r.Lines {
		if l.Segment == r.Segment {
			return l.Raw
		}
	}
	return nil
}

type RemittanceFile struct {
	ID            string             `json:"id"`
	Tenant        string             `json:"tenant"`
	Bank          BankConfig         `json:"bank"`
	FileName      string             `json:"file_name"`
	FileSequence  int                `json:"file_sequence"`
	GeneratedAt   time.Time          `json:"generated_at"`
	PaymentDate   time.Time          `json:"payment_date"`
	Records       []RemittanceRecord `json:"records,omitempty"`
	DeclaredCount int                `json:"declared_count"`
	DeclaredLines int                `json:"declared_lines"`
	DeclaredTotal currency.Amount    `json:"declared_total"`
	Content       []byte             `json:"-"`
	ContentHash   string             `json:"content_hash"`
	Status        IntegrityStatus    `json:"status"`
}
