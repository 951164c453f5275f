package ingestion

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"

	"github.com/folhapay/remittance/internal/domain"
	"github.com/folhapay/remittance/internal/metrics"
)

// IngestResult is returned from an ingestion, including a corrupt one.
type IngestResult struct {
	ReturnFileID    string                          `json:"return_file_id"`
	FileName        string                          `json:"file_name"`
	AlreadyIngested bool                            `json:"already_ingested"`
	Status          domain.IntegrityStatus          `json:"status"`
	Records         int                             `json:"records"`
	Results         int                             `json:"results"`
	Counts          map[domain.SettlementStatus]int `json:"counts"`
}

// Store persists return files and answers the idempotency check, which is
// scoped to the tenant.
type Store interface {
	ReturnIDByHash(ctx context.Context, tenant, hash string) (string, bool, error)
	SaveReturn(ctx context.Context, rf *domain.ReturnFile) error
	GetReturn(ctx context.Context, id string) (*domain.ReturnFile, error)
}

// Reconciler applies a parsed return file to the remittance records.
type Reconciler interface {
	Apply(ctx context.Context, rf *domain.ReturnFile) ([]domain.ReconciliationResult, error)
}

// Service handles ingestion of bank return files.
type Service struct {
	store     Store
	catalogue domain.BankCatalogue
	parser    *Parser
	recon     Reconciler
	logger    *slog.Logger
}

// NewService creates a new ingestion service.
func NewService(store Store, catalogue domain.BankCatalogue, parser *Parser, recon Reconciler, logger *slog.Logger) *Service {
	if parser == nil {
		parser = NewParser()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     store,
		catalogue: catalogue,
		parser:    parser,
		recon:     recon,
		logger:    logger.With("component", "ingestion"),
	}
}

// IngestReturn parses a return file, stores it and reconciles it.
//
// The same bytes are only ever stored once per tenant. Uploading them again
// re-applies the stored file, so results missed by an earlier failed
// reconciliation are derived then; results already stored are not
// duplicated. A file whose trailers disagree with its content is stored as
// CORRUPT without results, and the returned error wraps
// domain.ErrReconciliationCountMismatch, or domain.ErrCorruptFile on a
// repeated upload.
func (s *Service) IngestReturn(ctx context.Context, tenant, bankCode, fileName string, data []byte) (*IngestResult, error) {
	// Idempotency check via file hash.
	hash := fmt.Sprintf("%x", sha256.Sum256(data))
	id, exists, err := s.store.ReturnIDByHash(ctx, tenant, hash)
	if err != nil {
		return nil, fmt.Errorf("check hash: %w", err)
	}
	if exists {
		return s.reapply(ctx, id, fileName)
	}

	bank, err := s.catalogue.Bank(bankCode)
	if err != nil {
		return nil, err
	}

	rf, parseErr := s.parser.Parse(tenant, bank, data)
	var mismatch *domain.CountMismatchError
	if parseErr != nil && !(errors.As(parseErr, &mismatch) && rf != nil) {
		metrics.ReturnsIngested.WithLabelValues(bank.BankCode, "malformed").Inc()
		return nil, fmt.Errorf("parse return: %w", parseErr)
	}
	rf.FileName = fileName

	if err := s.store.SaveReturn(ctx, rf); err != nil {
		return nil, fmt.Errorf("save return: %w", err)
	}

	result := newResult(rf, fileName)
	if mismatch != nil {
		metrics.ReturnsIngested.WithLabelValues(bank.BankCode, "corrupt").Inc()
		s.logger.Warn("return file is corrupt",
			"return_file_id", rf.ID,
			"file_name", fileName,
			"scope", mismatch.Scope,
			"declared_lines", mismatch.DeclaredLines,
			"observed_lines", mismatch.ObservedLines,
			"declared_total", mismatch.DeclaredTotal.String(),
			"observed_total", mismatch.ObservedTotal.String())
		return result, fmt.Errorf("ingest %s: %w", fileName, parseErr)
	}
	metrics.ReturnsIngested.WithLabelValues(bank.BankCode, "parsed").Inc()

	if err := s.apply(ctx, rf, result); err != nil {
		return nil, err
	}
	return result, nil
}

// reapply answers a repeated upload from the stored file.
func (s *Service) reapply(ctx context.Context, id, fileName string) (*IngestResult, error) {
	rf, err := s.store.GetReturn(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load return %s: %w", id, err)
	}
	result := newResult(rf, fileName)
	result.AlreadyIngested = true
	s.logger.Info("return file already ingested", "return_file_id", id, "file_name", fileName, "status", rf.Status)

	if rf.Status == domain.IntegrityCorrupt {
		return result, fmt.Errorf("return file %s: %w", id, domain.ErrCorruptFile)
	}
	// The stored row keeps only code and layout; overrides come from the catalogue.
	bank, err := s.catalogue.Bank(rf.Bank.BankCode)
	if err != nil {
		return nil, err
	}
	rf.Bank = bank

	if err := s.apply(ctx, rf, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) apply(ctx context.Context, rf *domain.ReturnFile, result *IngestResult) error {
	results, err := s.recon.Apply(ctx, rf)
	if err != nil {
		return fmt.Errorf("reconcile: %w", err)
	}
	for _, r := range results {
		result.Counts[r.Status]++
	}
	result.Results = len(results)

	s.logger.Info("return file reconciled",
		"return_file_id", rf.ID,
		"file_name", result.FileName,
		"tenant", rf.Tenant,
		"bank", rf.Bank.BankCode,
		"nsa", rf.FileSequence,
		"records", len(rf.Records),
		"settled", result.Counts[domain.StatusSettled],
		"rejected", result.Counts[domain.StatusRejected],
		"pending", result.Counts[domain.StatusPending],
		"unmatched", result.Counts[domain.StatusUnmatched])
	return nil
}

func newResult(rf *domain.ReturnFile, fileName string) *IngestResult {
	return &IngestResult{
		ReturnFileID: rf.ID,
		FileName:     fileName,
		Status:       rf.Status,
		Records:      len(rf.Records),
		Counts:       map[domain.SettlementStatus]int{},
	}
}
