package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/folhapay/remittance/internal/currency"
	"github.com/folhapay/remittance/internal/domain"
)

type RemittanceRepo struct {
	db *sql.DB
}

func NewRemittanceRepo(db *sql.DB) *RemittanceRepo {
	return &RemittanceRepo{db: db}
}

// NextFileSequence hands out the next NSA for a tenant at a bank, starting
// from 1.
func (r *RemittanceRepo) NextFileSequence(ctx context.Context, tenant, bankCode string) (int, error) {
	var next int
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO file_sequences (tenant, bank_code, last_sequence) VALUES (?, ?, 1)
		ON CONFLICT (tenant, bank_code) DO UPDATE SET last_sequence = last_sequence + 1
		RETURNING last_sequence`,
		tenant, bankCode,
	).Scan(&next)
	return next, err
}

// SaveRemittance stores the file, its records and their encoded lines in
// one transaction.
func (r *RemittanceRepo) SaveRemittance(ctx context.Context, f *domain.RemittanceFile) error {
	bank, err := json.Marshal(f.Bank)
	if err != nil {
		return fmt.Errorf("marshal bank config: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO remittance_files
		(id, tenant, bank_code, layout, bank_config, file_name, file_sequence, generated_at,
		 payment_date, declared_count, declared_lines, declared_total, content, content_hash, status)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		f.ID, f.Tenant, f.Bank.BankCode, string(f.Bank.Layout), string(bank), f.FileName, f.FileSequence,
		formatTime(f.GeneratedAt), formatTime(f.PaymentDate), f.DeclaredCount, f.DeclaredLines,
		int64(f.DeclaredTotal), f.Content, f.ContentHash, string(f.Status),
	)
	if err != nil {
		return fmt.Errorf("insert file: %w", err)
	}

	recStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO remittance_records
		(file_id, sequence, tenant, control_number, segment, employee_id, amount, payment)
		VALUES (?,?,?,?,?,?,?,?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare records: %w", err)
	}
	defer recStmt.Close()

	lineStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO remittance_lines (file_id, sequence, position, segment, raw) VALUES (?,?,?,?,?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare lines: %w", err)
	}
	defer lineStmt.Close()

	for i := range f.Records {
		rec := &f.Records[i]
		payment, err := json.Marshal(rec.Payment)
		if err != nil {
			return fmt.Errorf("marshal payment %d: %w", rec.Sequence, err)
		}
		if _, err := recStmt.ExecContext(ctx,
			f.ID, rec.Sequence, f.Tenant, rec.ControlNumber, string(rec.Segment),
			rec.Payment.EmployeeID, int64(rec.Payment.Amount), string(payment),
		); err != nil {
			return fmt.Errorf("insert record %d: %w", rec.Sequence, err)
		}
		for pos, line := range rec.Lines {
			if _, err := lineStmt.ExecContext(ctx, f.ID, rec.Sequence, pos, string(line.Segment), line.Raw); err != nil {
				return fmt.Errorf("insert record %d line %d: %w", rec.Sequence, pos, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

const remittanceColumns = `id, tenant, bank_config, file_name, file_sequence, generated_at, payment_date,
	declared_count, declared_lines, declared_total, content_hash, status`

// GetRemittance returns the file without its records or content.
func (r *RemittanceRepo) GetRemittance(ctx context.Context, id string) (*domain.RemittanceFile, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+remittanceColumns+" FROM remittance_files WHERE id = ?", id)
	f, err := scanRemittance(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("remittance %s: %w", id, domain.ErrNotFound)
	}
	return f, err
}

// ListRemittances returns a tenant's files, newest first. An empty tenant
// lists every file.
func (r *RemittanceRepo) ListRemittances(ctx context.Context, tenant string) ([]domain.RemittanceFile, error) {
	query := "SELECT " + remittanceColumns + " FROM remittance_files"
	var args []any
	if tenant != "" {
		query += " WHERE tenant = ?"
		args = append(args, tenant)
	}
	query += " ORDER BY generated_at DESC, file_sequence DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []domain.RemittanceFile
	for rows.Next() {
		f, err := scanRemittance(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, *f)
	}
	return files, rows.Err()
}

// Content returns the stored bytes and file name of a remittance.
func (r *RemittanceRepo) Content(ctx context.Context, id string) (string, []byte, error) {
	var name string
	var content []byte
	err := r.db.QueryRowContext(ctx, "SELECT file_name, content FROM remittance_files WHERE id = ?", id).Scan(&name, &content)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil, fmt.Errorf("remittance %s: %w", id, domain.ErrNotFound)
	}
	return name, content, err
}

// Records returns a file's records in sequence order, with their lines.
func (r *RemittanceRepo) Records(ctx context.Context, fileID string) ([]domain.RemittanceRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT sequence, control_number, segment, payment FROM remittance_records
		WHERE file_id = ? ORDER BY sequence`, fileID)
	if err != nil {
		return nil, err
	}
	var records []domain.RemittanceRecord
	for rows.Next() {
		var rec domain.RemittanceRecord
		var segment, payment string
		if err := rows.Scan(&rec.Sequence, &rec.ControlNumber, &segment, &payment); err != nil {
			rows.Close()
			return nil, err
		}
		rec.FileID = fileID
		rec.Segment = domain.SegmentType(segment)
		if err := json.Unmarshal([]byte(payment), &rec.Payment); err != nil {
			rows.Close()
			return nil, fmt.Errorf("unmarshal payment %d: %w", rec.Sequence, err)
		}
		records = append(records, rec)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Lines are read after the records cursor is closed; an in-memory
	// database has a single connection.
	lines, err := r.db.QueryContext(ctx,
		`SELECT sequence, segment, raw FROM remittance_lines WHERE file_id = ? ORDER BY sequence, position`, fileID)
	if err != nil {
		return nil, err
	}
	defer lines.Close()
	index := make(map[int]int, len(records))
	for i, rec := range records {
		index[rec.Sequence] = i
	}
	for lines.Next() {
		var seq int
		var segment string
		var raw []byte
		if err := lines.Scan(&seq, &segment, &raw); err != nil {
			return nil, err
		}
		if i, ok := index[seq]; ok {
			records[i].Lines = append(records[i].Lines, domain.EncodedLine{Segment: domain.SegmentType(segment), Raw: raw})
		}
	}
	return records, lines.Err()
}

// KnownControlNumbers returns the subset of controlNumbers that belong to
// the tenant's stored records.
func (r *RemittanceRepo) KnownControlNumbers(ctx context.Context, tenant string, controlNumbers []string) (domain.ControlSet, error) {
	known := domain.NewControlSet()
	const chunk = 500
	for start := 0; start < len(controlNumbers); start += chunk {
		end := min(start+chunk, len(controlNumbers))
		part := controlNumbers[start:end]

		args := make([]any, 0, len(part)+1)
		args = append(args, tenant)
		for _, c := range part {
			args = append(args, c)
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(part)), ",")
		rows, err := r.db.QueryContext(ctx,
			"SELECT control_number FROM remittance_records WHERE tenant = ? AND control_number IN ("+placeholders+")",
			args...)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var c string
			if err := rows.Scan(&c); err != nil {
				rows.Close()
				return nil, err
			}
			known[c] = struct{}{}
		}
		if err := rows.Close(); err != nil {
			return nil, err
		}
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}
	return known, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRemittance(s scanner) (*domain.RemittanceFile, error) {
	var f domain.RemittanceFile
	var bank, status string
	var generatedAt, paymentDate sql.NullString
	var total int64
	err := s.Scan(&f.ID, &f.Tenant, &bank, &f.FileName, &f.FileSequence, &generatedAt, &paymentDate,
		&f.DeclaredCount, &f.DeclaredLines, &total, &f.ContentHash, &status)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(bank), &f.Bank); err != nil {
		return nil, fmt.Errorf("unmarshal bank config: %w", err)
	}
	if f.GeneratedAt, err = parseTime(generatedAt); err != nil {
		return nil, err
	}
	if f.PaymentDate, err = parseTime(paymentDate); err != nil {
		return nil, err
	}
	f.DeclaredTotal = currency.Amount(total)
	f.Status = domain.IntegrityStatus(status)
	return &f, nil
}
