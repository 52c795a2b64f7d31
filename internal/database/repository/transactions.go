package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionFilters defines list filters.
type TransactionFilters struct {
	WalletID string
	Type     string
	From     time.Time // zero = unbounded
	To       time.Time // exclusive; zero = unbounded
	Search   string
}

// TransactionRepo handles ledger entries.
type TransactionRepo struct {
	db *sql.DB
}

func NewTransactionRepo(db *sql.DB) *TransactionRepo { return &TransactionRepo{db: db} }

func (r *TransactionRepo) Insert(ctx context.Context, t Transaction) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO transactions(
	 id, wallet_id, date, type, amount, category, description, currency, subtype, supplier,
	 created_at, updated_at)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP);
	`,
		t.ID, t.WalletID, fmtDay(t.Date), t.Type, t.Amount.String(), t.Category,
		t.Description, t.Currency, t.Subtype, t.Supplier)
	return err
}

func (r *TransactionRepo) InsertTx(ctx context.Context, tx *sql.Tx, t Transaction) error {
	_, err := tx.ExecContext(ctx, `
	INSERT INTO transactions(
	 id, wallet_id, date, type, amount, category, description, currency, subtype, supplier,
	 created_at, updated_at)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP);
	`,
		t.ID, t.WalletID, fmtDay(t.Date), t.Type, t.Amount.String(), t.Category,
		t.Description, t.Currency, t.Subtype, t.Supplier)
	return err
}

func (r *TransactionRepo) Get(ctx context.Context, id string) (*Transaction, error) {
	row := r.db.QueryRowContext(ctx, selectTransaction+` WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

const selectTransaction = `SELECT id, wallet_id, date, type, amount, category, description, currency, subtype, supplier, created_at, updated_at FROM transactions`

func (r *TransactionRepo) List(ctx context.Context, f TransactionFilters) ([]Transaction, error) {
	var where []string
	var args []interface{}

	if f.WalletID != "" {
		where = append(where, "wallet_id = ?")
		args = append(args, f.WalletID)
	}
	if f.Type != "" {
		where = append(where, "type = ?")
		args = append(args, f.Type)
	}
	if !f.From.IsZero() {
		where = append(where, "date >= ?")
		args = append(args, fmtDay(f.From))
	}
	if !f.To.IsZero() {
		where = append(where, "date < ?")
		args = append(args, fmtDay(f.To))
	}
	if f.Search != "" {
		where = append(where, "(description LIKE ? OR category LIKE ? OR supplier LIKE ?)")
		pat := "%" + f.Search + "%"
		args = append(args, pat, pat, pat)
	}

	query := selectTransaction
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date DESC, created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListUnreconciled returns entries of a wallet with no active reconciliation
// pointing at them. Wallet-internal subtypes are filtered by the caller.
func (r *TransactionRepo) ListUnreconciled(ctx context.Context, walletID string) ([]Transaction, error) {
	rows, err := r.db.QueryContext(ctx, selectTransaction+`
	 WHERE wallet_id = ?
	   AND id NOT IN (SELECT transaction_id FROM reconciliations WHERE status IN ('reconciled', 'created'))
	 ORDER BY date DESC, created_at DESC`, walletID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// CountDistinctDays counts calendar days with at least one entry in [from, to).
func (r *TransactionRepo) CountDistinctDays(ctx context.Context, userWallets []string, from, to time.Time) (int, error) {
	if len(userWallets) == 0 {
		return 0, nil
	}
	query := `SELECT COUNT(DISTINCT date) FROM transactions WHERE wallet_id IN (?` + strings.Repeat(",?", len(userWallets)-1) + `) AND date >= ? AND date < ?`
	args := make([]interface{}, 0, len(userWallets)+2)
	for _, w := range userWallets {
		args = append(args, w)
	}
	args = append(args, fmtDay(from), fmtDay(to))
	var n int
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}

// CountDistinctCategories counts categories used in [from, to).
func (r *TransactionRepo) CountDistinctCategories(ctx context.Context, userWallets []string, from, to time.Time) (int, error) {
	if len(userWallets) == 0 {
		return 0, nil
	}
	query := `SELECT COUNT(DISTINCT category) FROM transactions WHERE wallet_id IN (?` + strings.Repeat(",?", len(userWallets)-1) + `) AND date >= ? AND date < ?`
	args := make([]interface{}, 0, len(userWallets)+2)
	for _, w := range userWallets {
		args = append(args, w)
	}
	args = append(args, fmtDay(from), fmtDay(to))
	var n int
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}

// Count counts entries in [from, to), optionally restricted to one type.
func (r *TransactionRepo) Count(ctx context.Context, userWallets []string, typ string, from, to time.Time) (int, error) {
	if len(userWallets) == 0 {
		return 0, nil
	}
	query := `SELECT COUNT(*) FROM transactions WHERE wallet_id IN (?` + strings.Repeat(",?", len(userWallets)-1) + `) AND date >= ? AND date < ?`
	args := make([]interface{}, 0, len(userWallets)+3)
	for _, w := range userWallets {
		args = append(args, w)
	}
	args = append(args, fmtDay(from), fmtDay(to))
	if typ != "" {
		query += ` AND type = ?`
		args = append(args, typ)
	}
	var n int
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}

// MonthlyTotal holds one month of cash-flow aggregation.
type MonthlyTotal struct {
	Month    string // YYYY-MM
	Income   decimal.Decimal
	Expenses decimal.Decimal
}

// SumByMonth aggregates income and expenses per calendar month in [from, to).
func (r *TransactionRepo) SumByMonth(ctx context.Context, userWallets []string, from, to time.Time) ([]MonthlyTotal, error) {
	if len(userWallets) == 0 {
		return nil, nil
	}
	query := `
	SELECT substr(date, 1, 7) AS month,
	       COALESCE(SUM(CASE WHEN type = 'income' THEN CAST(amount AS REAL) ELSE 0 END), 0),
	       COALESCE(SUM(CASE WHEN type = 'expense' THEN CAST(amount AS REAL) ELSE 0 END), 0)
	FROM transactions
	WHERE wallet_id IN (?` + strings.Repeat(",?", len(userWallets)-1) + `) AND date >= ? AND date < ?
	GROUP BY month
	ORDER BY month;`
	args := make([]interface{}, 0, len(userWallets)+2)
	for _, w := range userWallets {
		args = append(args, w)
	}
	args = append(args, fmtDay(from), fmtDay(to))
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []MonthlyTotal
	for rows.Next() {
		var mt MonthlyTotal
		var income, expenses float64
		if err := rows.Scan(&mt.Month, &income, &expenses); err != nil {
			return nil, err
		}
		mt.Income = decimal.NewFromFloat(income).Round(2)
		mt.Expenses = decimal.NewFromFloat(expenses).Round(2)
		out = append(out, mt)
	}
	return out, rows.Err()
}

func scanTransaction(row scanner) (Transaction, error) {
	var t Transaction
	var day, amount string
	var subtype, supplier sql.NullString
	if err := row.Scan(&t.ID, &t.WalletID, &day, &t.Type, &amount, &t.Category,
		&t.Description, &t.Currency, &subtype, &supplier, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return Transaction{}, err
	}
	d, err := parseDay(day)
	if err != nil {
		return Transaction{}, err
	}
	t.Date = d
	a, err := decimal.NewFromString(amount)
	if err != nil {
		return Transaction{}, err
	}
	t.Amount = a
	if subtype.Valid {
		t.Subtype = &subtype.String
	}
	if supplier.Valid {
		t.Supplier = &supplier.String
	}
	return t, nil
}
