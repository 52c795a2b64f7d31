package repository

import (
	"context"
	"database/sql"
)

// ReconciliationRepo handles bank-line/ledger links.
type ReconciliationRepo struct{ db *sql.DB }

func NewReconciliationRepo(db *sql.DB) *ReconciliationRepo { return &ReconciliationRepo{db: db} }

func (r *ReconciliationRepo) Insert(ctx context.Context, rec Reconciliation) error {
	var txID *string
	if rec.TransactionID != "" {
		txID = &rec.TransactionID
	}
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO reconciliations(id, bank_line_id, transaction_id, match_type, confidence, status, created_at)
	VALUES(?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, rec.ID, rec.BankLineID, txID, rec.MatchType, rec.Confidence, rec.Status)
	return err
}

// GetByBankLine returns the reconciliation holding a bank line, nil if pending.
func (r *ReconciliationRepo) GetByBankLine(ctx context.Context, bankLineID string) (*Reconciliation, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, bank_line_id, transaction_id, match_type, confidence, status, created_at FROM reconciliations WHERE bank_line_id = ?`, bankLineID)
	rec, err := scanReconciliation(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// ActiveByTransaction returns the active reconciliation targeting a ledger
// entry, nil if the entry is free.
func (r *ReconciliationRepo) ActiveByTransaction(ctx context.Context, transactionID string) (*Reconciliation, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, bank_line_id, transaction_id, match_type, confidence, status, created_at FROM reconciliations WHERE transaction_id = ? AND status IN ('reconciled', 'created')`, transactionID)
	rec, err := scanReconciliation(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// Delete tears down a reconciliation (undo), returning the line to pending.
func (r *ReconciliationRepo) Delete(ctx context.Context, bankLineID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM reconciliations WHERE bank_line_id = ?`, bankLineID)
	return err
}

// ListByWallet returns reconciliations for all lines of a wallet.
func (r *ReconciliationRepo) ListByWallet(ctx context.Context, walletID string) ([]Reconciliation, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT r.id, r.bank_line_id, r.transaction_id, r.match_type, r.confidence, r.status, r.created_at
	FROM reconciliations r
	JOIN bank_lines l ON l.id = r.bank_line_id
	WHERE l.wallet_id = ?
	ORDER BY r.created_at DESC`, walletID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Reconciliation
	for rows.Next() {
		rec, err := scanReconciliation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanReconciliation(row scanner) (Reconciliation, error) {
	var rec Reconciliation
	var txID sql.NullString
	var confidence sql.NullFloat64
	if err := row.Scan(&rec.ID, &rec.BankLineID, &txID, &rec.MatchType, &confidence, &rec.Status, &rec.CreatedAt); err != nil {
		return Reconciliation{}, err
	}
	if txID.Valid {
		rec.TransactionID = txID.String
	}
	if confidence.Valid {
		rec.Confidence = &confidence.Float64
	}
	return rec, nil
}
