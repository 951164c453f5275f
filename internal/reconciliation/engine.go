package reconciliation

import (
	"fmt"

	"github.com/folhapay/remittance/internal/domain"
	"github.com/folhapay/remittance/internal/layout"
)

// Engine maps return records onto settlement results. It reads nothing but
// its arguments, so applying the same file twice yields the same results.
type Engine struct {
	registry *layout.Registry
}

// NewEngine creates an engine over r, or the default registry when r is nil.
func NewEngine(r *layout.Registry) *Engine {
	if r == nil {
		r = layout.Default
	}
	return &Engine{registry: r}
}

// Reconcile produces one result per control number in rf, in file order.
// A control number the index does not know is UNMATCHED; otherwise the
// status comes from the bank's overrides, then the layout's occurrence table.
func (e *Engine) Reconcile(rf *domain.ReturnFile, index domain.ControlIndex) ([]domain.ReconciliationResult, error) {
	if rf.Status == domain.IntegrityCorrupt {
		return nil, fmt.Errorf("return file %s: %w", rf.ID, domain.ErrCorruptFile)
	}
	l, err := e.registry.Layout(rf.Bank.Layout)
	if err != nil {
		return nil, err
	}

	results := make([]domain.ReconciliationResult, 0, len(rf.Records))
	seen := make(map[string]struct{}, len(rf.Records))
	for _, rec := range rf.Records {
		if _, dup := seen[rec.ControlNumber]; dup {
			continue
		}
		seen[rec.ControlNumber] = struct{}{}

		status := domain.StatusUnmatched
		if index.Contains(rec.ControlNumber) {
			status, _ = l.Occurrences.Resolve(rec.OccurrenceCode, rf.Bank.Occurrences)
		}
		results = append(results, domain.ReconciliationResult{
			ReturnFileID:   rf.ID,
			ControlNumber:  rec.ControlNumber,
			Status:         status,
			OccurrenceCode: rec.OccurrenceCode,
			Message:        rec.Message,
			SettledAmount:  rec.SettledAmount,
			SettlementDate: rec.SettlementDate,
			AppliedAt:      rf.ParsedAt,
		})
	}
	return results, nil
}
