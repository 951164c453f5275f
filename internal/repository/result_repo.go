package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/folhapay/remittance/internal/currency"
	"github.com/folhapay/remittance/internal/domain"
)

// ResultRepo is the append-only store of reconciliation results.
type ResultRepo struct {
	db *sql.DB
}

func NewResultRepo(db *sql.DB) *ResultRepo {
	return &ResultRepo{db: db}
}

// SaveResults inserts results, ignoring any already stored for the same
// return file and control number. It returns the rows actually inserted.
func (r *ResultRepo) SaveResults(ctx context.Context, results []domain.ReconciliationResult) ([]domain.ReconciliationResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO reconciliation_results
		(return_file_id, control_number, status, occurrence_code, message, settled_amount,
		 settlement_date, applied_at)
		VALUES (?,?,?,?,?,?,?,?)`,
	)
	if err != nil {
		return nil, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	var inserted []domain.ReconciliationResult
	for i := range results {
		res := &results[i]
		out, err := stmt.ExecContext(ctx,
			res.ReturnFileID, res.ControlNumber, string(res.Status), res.OccurrenceCode, res.Message,
			int64(res.SettledAmount), formatTime(res.SettlementDate), formatTime(res.AppliedAt),
		)
		if err != nil {
			return nil, fmt.Errorf("insert result %s: %w", res.ControlNumber, err)
		}
		if ra, _ := out.RowsAffected(); ra > 0 {
			inserted = append(inserted, *res)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

const resultColumns = `r.return_file_id, r.control_number, r.status, r.occurrence_code, r.message,
	r.settled_amount, r.settlement_date, r.applied_at`

// ResultsByReturn lists the results produced by one return file.
func (r *ResultRepo) ResultsByReturn(ctx context.Context, returnFileID string) ([]domain.ReconciliationResult, error) {
	return r.query(ctx,
		"SELECT "+resultColumns+` FROM reconciliation_results r
		WHERE r.return_file_id = ?
		ORDER BY (SELECT MIN(rr.sequence) FROM return_records rr
			WHERE rr.return_file_id = r.return_file_id AND rr.control_number = r.control_number), r.control_number`,
		returnFileID)
}

// LatestResults returns, per record of a remittance file, the most recently
// applied result. Records without results are absent.
func (r *ResultRepo) LatestResults(ctx context.Context, remittanceFileID string) ([]domain.ReconciliationResult, error) {
	all, err := r.query(ctx,
		"SELECT "+resultColumns+` FROM reconciliation_results r
		JOIN remittance_records rec ON rec.control_number = r.control_number
		WHERE rec.file_id = ? ORDER BY rec.sequence, r.applied_at, r.rowid`, remittanceFileID)
	if err != nil {
		return nil, err
	}
	var latest []domain.ReconciliationResult
	for _, res := range all {
		if n := len(latest); n > 0 && latest[n-1].ControlNumber == res.ControlNumber {
			latest[n-1] = res
			continue
		}
		latest = append(latest, res)
	}
	return latest, nil
}

func (r *ResultRepo) query(ctx context.Context, q string, args ...any) ([]domain.ReconciliationResult, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ReconciliationResult
	for rows.Next() {
		var res domain.ReconciliationResult
		var status string
		var amount int64
		var settledOn, appliedAt sql.NullString
		if err := rows.Scan(&res.ReturnFileID, &res.ControlNumber, &status, &res.OccurrenceCode,
			&res.Message, &amount, &settledOn, &appliedAt); err != nil {
			return nil, err
		}
		res.Status = domain.SettlementStatus(status)
		res.SettledAmount = currency.Amount(amount)
		if res.SettlementDate, err = parseTime(settledOn); err != nil {
			return nil, err
		}
		if res.AppliedAt, err = parseTime(appliedAt); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}
