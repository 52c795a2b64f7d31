package repository

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"
)

// BankLineRepo handles imported statement lines.
type BankLineRepo struct {
	db *sql.DB
}

func NewBankLineRepo(db *sql.DB) *BankLineRepo { return &BankLineRepo{db: db} }

func (r *BankLineRepo) Insert(ctx context.Context, l BankLine) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO bank_lines(
	 id, wallet_id, transaction_date, description, amount, bank_reference, counterparty, fingerprint, created_at)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP);
	`,
		l.ID, l.WalletID, fmtDay(l.TransactionDate), l.Description, l.Amount.String(),
		l.BankReference, l.Counterparty, l.Fingerprint)
	return err
}

func (r *BankLineRepo) Get(ctx context.Context, id string) (*BankLine, error) {
	row := r.db.QueryRowContext(ctx, selectBankLine+` WHERE id = ?`, id)
	l, err := scanBankLine(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

const selectBankLine = `SELECT id, wallet_id, transaction_date, description, amount, bank_reference, counterparty, fingerprint, created_at FROM bank_lines`

// ListByWallet returns all lines of a wallet, newest first.
func (r *BankLineRepo) ListByWallet(ctx context.Context, walletID string) ([]BankLine, error) {
	rows, err := r.db.QueryContext(ctx, selectBankLine+` WHERE wallet_id = ? ORDER BY transaction_date DESC, created_at DESC`, walletID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []BankLine
	for rows.Next() {
		l, err := scanBankLine(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// ListPending returns lines of a wallet with no reconciliation row.
func (r *BankLineRepo) ListPending(ctx context.Context, walletID string) ([]BankLine, error) {
	rows, err := r.db.QueryContext(ctx, selectBankLine+`
	 WHERE wallet_id = ?
	   AND id NOT IN (SELECT bank_line_id FROM reconciliations)
	 ORDER BY transaction_date DESC, created_at DESC`, walletID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []BankLine
	for rows.Next() {
		l, err := scanBankLine(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Fingerprints returns the set of fingerprints already stored for a wallet.
func (r *BankLineRepo) Fingerprints(ctx context.Context, walletID string) (map[string]struct{}, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT fingerprint FROM bank_lines WHERE wallet_id = ?`, walletID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]struct{})
	for rows.Next() {
		var fp string
		if err := rows.Scan(&fp); err != nil {
			return nil, err
		}
		out[fp] = struct{}{}
	}
	return out, rows.Err()
}

func scanBankLine(row scanner) (BankLine, error) {
	var l BankLine
	var day, amount string
	var ref, counterparty sql.NullString
	if err := row.Scan(&l.ID, &l.WalletID, &day, &l.Description, &amount, &ref, &counterparty, &l.Fingerprint, &l.CreatedAt); err != nil {
		return BankLine{}, err
	}
	d, err := parseDay(day)
	if err != nil {
		return BankLine{}, err
	}
	l.TransactionDate = d
	a, err := decimal.NewFromString(amount)
	if err != nil {
		return BankLine{}, err
	}
	l.Amount = a
	if ref.Valid {
		l.BankReference = &ref.String
	}
	if counterparty.Valid {
		l.Counterparty = &counterparty.String
	}
	return l, nil
}
