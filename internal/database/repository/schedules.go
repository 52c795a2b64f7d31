package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// ScheduleRepo handles recurring transaction templates.
type ScheduleRepo struct{ db *sql.DB }

func NewScheduleRepo(db *sql.DB) *ScheduleRepo { return &ScheduleRepo{db: db} }

func (r *ScheduleRepo) Insert(ctx context.Context, s ScheduledTransaction) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO scheduled_transactions(
	 id, wallet_id, user_id, description, category, type, amount, currency, recurrence,
	 next_run, is_active, created_at, updated_at)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP);
	`,
		s.ID, s.WalletID, s.UserID, s.Description, s.Category, s.Type, s.Amount.String(),
		s.Currency, s.Recurrence, fmtDay(s.NextRun), s.IsActive)
	return err
}

// ListDue returns active templates whose next_run is on or before today.
func (r *ScheduleRepo) ListDue(ctx context.Context, today time.Time) ([]ScheduledTransaction, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, wallet_id, user_id, description, category, type, amount, currency, recurrence, next_run, is_active, created_at, updated_at
	FROM scheduled_transactions
	WHERE is_active = 1 AND next_run <= ?
	ORDER BY next_run`, fmtDay(today))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ScheduledTransaction
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *ScheduleRepo) List(ctx context.Context, userID string) ([]ScheduledTransaction, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, wallet_id, user_id, description, category, type, amount, currency, recurrence, next_run, is_active, created_at, updated_at
	FROM scheduled_transactions
	WHERE user_id = ?
	ORDER BY next_run`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ScheduledTransaction
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// AdvanceNextRun moves a template forward after materialization.
func (r *ScheduleRepo) AdvanceNextRun(ctx context.Context, id string, next time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE scheduled_transactions SET next_run = ?, updated_at=CURRENT_TIMESTAMP WHERE id = ?`, fmtDay(next), id)
	return err
}

func scanSchedule(row scanner) (ScheduledTransaction, error) {
	var s ScheduledTransaction
	var amount, next string
	if err := row.Scan(&s.ID, &s.WalletID, &s.UserID, &s.Description, &s.Category, &s.Type,
		&amount, &s.Currency, &s.Recurrence, &next, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return ScheduledTransaction{}, err
	}
	var err error
	if s.Amount, err = decimal.NewFromString(amount); err != nil {
		return ScheduledTransaction{}, err
	}
	if s.NextRun, err = parseDay(next); err != nil {
		return ScheduledTransaction{}, err
	}
	return s, nil
}
