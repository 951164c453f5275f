package domain

import (
	"time"

	"github.com/folhapay/remittance/internal/currency"
)

type SettlementStatus string

const (
	StatusSettled   SettlementStatus = "SETTLED"
	StatusRejected  SettlementStatus = "REJECTED"
	StatusPending   SettlementStatus = "PENDING"
	StatusUnmatched SettlementStatus = "UNMATCHED"
)

// ReconciliationResult annotates a remittance record with the bank's answer.
// Results are appended, never written over the record they describe.
type ReconciliationResult struct {
	ReturnFileID   string           `json:"return_file_id"`
	ControlNumber  string           `json:"control_number"`
	Status         SettlementStatus `json:"status"`
	OccurrenceCode string           `json:"occurrence_code"`
	Message        string           `json:"message"`
	SettledAmount  currency.Amount  `json:"settled_amount"`
	SettlementDate time.Time        `json:"settlement_date,omitempty"`
	AppliedAt      time.Time        `json:"applied_at"`
}

// RemittanceStatus is the outcome of a whole remittance file as seen
// through its reconciliation results.
type RemittanceStatus string

const (
	RemittanceGenerated RemittanceStatus = "GENERATED"
	RemittanceProcessed RemittanceStatus = "PROCESSED"
	RemittancePartial   RemittanceStatus = "PARTIAL"
	RemittanceRejected  RemittanceStatus = "REJECTED"
)

// SummarizeStatus derives a file status from the latest result per record.
// Pending and unmatched results do not move the file out of GENERATED.
func SummarizeStatus(results []ReconciliationResult) RemittanceStatus {
	var settled, rejected int
	for _, r := range results {
		switch r.Status {
		case StatusSettled:
			settled++
		case StatusRejected:
			rejected++
		}
	}
	switch {
	case settled == 0 && rejected == 0:
		return RemittanceGenerated
	case rejected == 0:
		return RemittanceProcessed
	case settled == 0:
		return RemittanceRejected
	default:
		return RemittancePartial
	}
}
