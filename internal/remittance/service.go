package remittance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/folhapay/remittance/internal/domain"
	"github.com/folhapay/remittance/internal/metrics"
)

// Store persists built remittance files and hands out file sequence numbers.
type Store interface {
	NextFileSequence(ctx context.Context, tenant, bankCode string) (int, error)
	SaveRemittance(ctx context.Context, f *domain.RemittanceFile) error
}

// Service turns payment lists into stored remittance files.
type Service struct {
	store     Store
	catalogue domain.BankCatalogue
	builder   *Builder
	logger    *slog.Logger
}

// NewService creates a new remittance service.
func NewService(store Store, catalogue domain.BankCatalogue, builder *Builder, logger *slog.Logger) *Service {
	if builder == nil {
		builder = NewBuilder()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     store,
		catalogue: catalogue,
		builder:   builder,
		logger:    logger.With("component", "remittance"),
	}
}

// Generate resolves the bank account, takes the next NSA for the tenant at
// that bank, builds the file and stores it with its records.
func (s *Service) Generate(ctx context.Context, tenant, bankCode string, payments []domain.PayrollPayment, paymentDate time.Time) (*domain.RemittanceFile, error) {
	bank, err := s.catalogue.Bank(bankCode)
	if err != nil {
		return nil, err
	}

	nsa, err := s.store.NextFileSequence(ctx, tenant, bank.BankCode)
	if err != nil {
		return nil, fmt.Errorf("next file sequence: %w", err)
	}

	start := time.Now()
	f, err := s.builder.Build(tenant, bank, payments, paymentDate, WithSequence(nsa))
	if err != nil {
		metrics.BuildErrors.WithLabelValues(string(bank.Layout)).Inc()
		return nil, fmt.Errorf("build remittance: %w", err)
	}
	metrics.BuildDuration.WithLabelValues(string(bank.Layout)).Observe(time.Since(start).Seconds())

	if err := s.store.SaveRemittance(ctx, f); err != nil {
		return nil, fmt.Errorf("save remittance: %w", err)
	}
	metrics.RemittancesGenerated.WithLabelValues(bank.BankCode, string(bank.Layout)).Inc()
	metrics.PaymentsEncoded.WithLabelValues(bank.BankCode).Add(float64(len(f.Records)))

	s.logger.Info("remittance generated",
		"file_id", f.ID,
		"file_name", f.FileName,
		"tenant", tenant,
		"bank", bank.BankCode,
		"nsa", nsa,
		"payments", f.DeclaredCount,
		"total", f.DeclaredTotal.String())
	return f, nil
}
