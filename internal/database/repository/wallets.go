package repository

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"
)

// WalletRepo handles wallets.
type WalletRepo struct {
	db *sql.DB
}

func NewWalletRepo(db *sql.DB) *WalletRepo {
	return &WalletRepo{db: db}
}

func (r *WalletRepo) Upsert(ctx context.Context, w Wallet) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO wallets(id, name, currency, current_balance, is_active, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	ON CONFLICT(id) DO UPDATE SET
	 name=excluded.name,
	 currency=excluded.currency,
	 is_active=excluded.is_active,
	 updated_at=CURRENT_TIMESTAMP;
	`, w.ID, w.Name, w.Currency, w.CurrentBalance.String(), w.IsActive)
	return err
}

func (r *WalletRepo) ListActive(ctx context.Context) ([]Wallet, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, currency, current_balance, is_active, created_at, updated_at FROM wallets WHERE is_active = 1 ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Wallet
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (r *WalletRepo) Get(ctx context.Context, id string) (*Wallet, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, currency, current_balance, is_active, created_at, updated_at FROM wallets WHERE id = ?`, id)
	w, err := scanWallet(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &w, nil
}

// AdjustBalance applies a signed delta to the stored balance. Callers run
// this inside the same transaction path that writes the ledger entry.
func (r *WalletRepo) AdjustBalance(ctx context.Context, id string, delta decimal.Decimal) error {
	w, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if w == nil {
		return sql.ErrNoRows
	}
	next := w.CurrentBalance.Add(delta)
	_, err = r.db.ExecContext(ctx, `UPDATE wallets SET current_balance = ?, updated_at=CURRENT_TIMESTAMP WHERE id = ?`, next.String(), id)
	return err
}

func scanWallet(row scanner) (Wallet, error) {
	var w Wallet
	var balance string
	if err := row.Scan(&w.ID, &w.Name, &w.Currency, &balance, &w.IsActive, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return Wallet{}, err
	}
	b, err := decimal.NewFromString(balance)
	if err != nil {
		return Wallet{}, err
	}
	w.CurrentBalance = b
	return w, nil
}
