package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/folhapay/remittance/internal/currency"
	"github.com/folhapay/remittance/internal/domain"
)

type ReturnRepo struct {
	db *sql.DB
}

func NewReturnRepo(db *sql.DB) *ReturnRepo {
	return &ReturnRepo{db: db}
}

// ReturnIDByHash looks a tenant's return file up by content hash (idempotency check).
func (r *ReturnRepo) ReturnIDByHash(ctx context.Context, tenant, hash string) (string, bool, error) {
	var id string
	err := r.db.QueryRowContext(ctx,
		"SELECT id FROM return_files WHERE tenant = ? AND content_hash = ?", tenant, hash).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

// SaveReturn stores a parsed return file and its records, corrupt or not.
func (r *ReturnRepo) SaveReturn(ctx context.Context, rf *domain.ReturnFile) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO return_files
		(id, tenant, bank_code, layout, file_name, file_sequence, parsed_at, declared_lines,
		 observed_lines, declared_total, observed_total, content_hash, status)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		rf.ID, rf.Tenant, rf.Bank.BankCode, string(rf.Bank.Layout), rf.FileName, rf.FileSequence,
		formatTime(rf.ParsedAt), rf.DeclaredLines, rf.ObservedLines, int64(rf.DeclaredTotal),
		int64(rf.ObservedTotal), rf.ContentHash, string(rf.Status),
	)
	if err != nil {
		return fmt.Errorf("insert return file: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO return_records
		(return_file_id, sequence, line, control_number, occurrence_code, occurrences, message,
		 scheduled_amount, settled_amount, settlement_date)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for i := range rf.Records {
		rec := &rf.Records[i]
		if _, err := stmt.ExecContext(ctx,
			rf.ID, rec.Sequence, rec.Line, rec.ControlNumber, rec.OccurrenceCode,
			strings.Join(rec.Occurrences, ","), rec.Message, int64(rec.ScheduledAmount),
			int64(rec.SettledAmount), formatTime(rec.SettlementDate),
		); err != nil {
			return fmt.Errorf("insert return record %d: %w", rec.Sequence, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetReturn loads a return file with its records. The bank config holds
// only the code and layout recorded at ingestion.
func (r *ReturnRepo) GetReturn(ctx context.Context, id string) (*domain.ReturnFile, error) {
	var rf domain.ReturnFile
	var layoutName, status string
	var parsedAt sql.NullString
	var declared, observed int64
	err := r.db.QueryRowContext(ctx,
		`SELECT id, tenant, bank_code, layout, file_name, file_sequence, parsed_at, declared_lines,
		 observed_lines, declared_total, observed_total, content_hash, status
		FROM return_files WHERE id = ?`, id,
	).Scan(&rf.ID, &rf.Tenant, &rf.Bank.BankCode, &layoutName, &rf.FileName, &rf.FileSequence, &parsedAt,
		&rf.DeclaredLines, &rf.ObservedLines, &declared, &observed, &rf.ContentHash, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("return file %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	rf.Bank.Layout = domain.Variant(layoutName)
	rf.Status = domain.IntegrityStatus(status)
	rf.DeclaredTotal = currency.Amount(declared)
	rf.ObservedTotal = currency.Amount(observed)
	if rf.ParsedAt, err = parseTime(parsedAt); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT sequence, line, control_number, occurrence_code, occurrences, message,
		 scheduled_amount, settled_amount, settlement_date
		FROM return_records WHERE return_file_id = ? ORDER BY sequence`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var rec domain.ReturnRecord
		var occurrences string
		var scheduled, settled int64
		var settledOn sql.NullString
		if err := rows.Scan(&rec.Sequence, &rec.Line, &rec.ControlNumber, &rec.OccurrenceCode, &occurrences,
			&rec.Message, &scheduled, &settled, &settledOn); err != nil {
			return nil, err
		}
		if occurrences != "" {
			rec.Occurrences = strings.Split(occurrences, ",")
		}
		rec.ScheduledAmount = currency.Amount(scheduled)
		rec.SettledAmount = currency.Amount(settled)
		if rec.SettlementDate, err = parseTime(settledOn); err != nil {
			return nil, err
		}
		rf.Records = append(rf.Records, rec)
	}
	return &rf, rows.Err()
}
