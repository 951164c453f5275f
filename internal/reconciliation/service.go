package reconciliation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/folhapay/remittance/internal/domain"
	"github.com/folhapay/remittance/internal/metrics"
)

// IndexSource resolves which of a set of control numbers belong to the
// tenant's stored remittance records.
type IndexSource interface {
	Known(ctx context.Context, tenant string, controlNumbers []string) (domain.ControlSet, error)
}

// ResultStore appends results and returns the ones it actually stored.
// Storing a result that already exists for the same return file and
// control number is a no-op.
type ResultStore interface {
	SaveResults(ctx context.Context, results []domain.ReconciliationResult) ([]domain.ReconciliationResult, error)
}

// Service performs reconciliation of return files against stored remittances.
type Service struct {
	engine  *Engine
	index   IndexSource
	results ResultStore
	logger  *slog.Logger
}

// NewService creates a new reconciliation service.
func NewService(engine *Engine, index IndexSource, results ResultStore, logger *slog.Logger) *Service {
	if engine == nil {
		engine = NewEngine(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		engine:  engine,
		index:   index,
		results: results,
		logger:  logger.With("component", "reconciliation"),
	}
}

// Apply reconciles rf and stores the results. Re-applying the same file
// stores nothing new and returns the same results.
func (s *Service) Apply(ctx context.Context, rf *domain.ReturnFile) ([]domain.ReconciliationResult, error) {
	controls := make([]string, 0, len(rf.Records))
	for _, r := range rf.Records {
		controls = append(controls, r.ControlNumber)
	}
	index, err := s.index.Known(ctx, rf.Tenant, controls)
	if err != nil {
		return nil, fmt.Errorf("load control index: %w", err)
	}

	results, err := s.engine.Reconcile(rf, index)
	if err != nil {
		return nil, err
	}

	inserted, err := s.results.SaveResults(ctx, results)
	if err != nil {
		return nil, fmt.Errorf("save results: %w", err)
	}
	for _, r := range inserted {
		metrics.ReconciliationResults.WithLabelValues(string(r.Status)).Inc()
	}

	s.logger.Info("return file reconciled",
		"return_file_id", rf.ID,
		"results", len(results),
		"new", len(inserted))
	return results, nil
}
