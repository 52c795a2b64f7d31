package repository

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"
)

// LoanRepo handles loans.
type LoanRepo struct{ db *sql.DB }

func NewLoanRepo(db *sql.DB) *LoanRepo { return &LoanRepo{db: db} }

func (r *LoanRepo) Insert(ctx context.Context, l Loan) error {
	var rate *string
	if l.MonthlyRate != nil {
		s := l.MonthlyRate.String()
		rate = &s
	}
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO loans(
	 id, wallet_id, description, total_amount, installment_count, installments_paid,
	 installment_amount, monthly_rate, first_due_date, outstanding_balance, status, currency,
	 created_at, updated_at)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP);
	`,
		l.ID, l.WalletID, l.Description, l.TotalAmount.String(), l.InstallmentCount,
		l.InstallmentsPaid, l.InstallmentAmount.String(), rate, fmtDay(l.FirstDueDate),
		l.OutstandingBalance.String(), l.Status, l.Currency)
	return err
}

const selectLoan = `SELECT id, wallet_id, description, total_amount, installment_count, installments_paid, installment_amount, monthly_rate, first_due_date, outstanding_balance, status, currency, created_at, updated_at FROM loans`

func (r *LoanRepo) Get(ctx context.Context, id string) (*Loan, error) {
	row := r.db.QueryRowContext(ctx, selectLoan+` WHERE id = ?`, id)
	l, err := scanLoan(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

func (r *LoanRepo) List(ctx context.Context) ([]Loan, error) {
	rows, err := r.db.QueryContext(ctx, selectLoan+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *LoanRepo) ListActive(ctx context.Context) ([]Loan, error) {
	rows, err := r.db.QueryContext(ctx, selectLoan+` WHERE status = 'active' ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// AdvancePaidTx advances installments_paid from expectedPaid to newPaid inside
// tx. The WHERE clause doubles as a compare-and-set: a concurrent payment that
// already moved installments_paid makes this update match zero rows.
func (r *LoanRepo) AdvancePaidTx(ctx context.Context, tx *sql.Tx, id string, expectedPaid, newPaid int, newBalance decimal.Decimal, status string) (bool, error) {
	res, err := tx.ExecContext(ctx, `
	UPDATE loans
	SET installments_paid = ?, outstanding_balance = ?, status = ?, updated_at = CURRENT_TIMESTAMP
	WHERE id = ? AND installments_paid = ? AND status = 'active'
	`, newPaid, newBalance.String(), status, id, expectedPaid)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func scanLoan(row scanner) (Loan, error) {
	var l Loan
	var total, installment, balance, day string
	var rate sql.NullString
	if err := row.Scan(&l.ID, &l.WalletID, &l.Description, &total, &l.InstallmentCount,
		&l.InstallmentsPaid, &installment, &rate, &day, &balance, &l.Status, &l.Currency,
		&l.CreatedAt, &l.UpdatedAt); err != nil {
		return Loan{}, err
	}
	var err error
	if l.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return Loan{}, err
	}
	if l.InstallmentAmount, err = decimal.NewFromString(installment); err != nil {
		return Loan{}, err
	}
	if l.OutstandingBalance, err = decimal.NewFromString(balance); err != nil {
		return Loan{}, err
	}
	if l.FirstDueDate, err = parseDay(day); err != nil {
		return Loan{}, err
	}
	if rate.Valid {
		d, err := decimal.NewFromString(rate.String)
		if err != nil {
			return Loan{}, err
		}
		l.MonthlyRate = &d
	}
	return l, nil
}
