package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// ProfileRepo handles gamification state.
type ProfileRepo struct{ db *sql.DB }

func NewProfileRepo(db *sql.DB) *ProfileRepo { return &ProfileRepo{db: db} }

func (r *ProfileRepo) Upsert(ctx context.Context, p Profile) error {
	var last *string
	if p.LastActiveDate != nil {
		s := fmtDay(*p.LastActiveDate)
		last = &s
	}
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO profiles(user_id, xp, streak, last_active_date, total_income, total_expenses, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	ON CONFLICT(user_id) DO UPDATE SET
	 xp=excluded.xp,
	 streak=excluded.streak,
	 last_active_date=excluded.last_active_date,
	 total_income=excluded.total_income,
	 total_expenses=excluded.total_expenses,
	 updated_at=CURRENT_TIMESTAMP;
	`, p.UserID, p.XP, p.Streak, last, p.TotalIncome.String(), p.TotalExpenses.String())
	return err
}

func (r *ProfileRepo) Get(ctx context.Context, userID string) (*Profile, error) {
	row := r.db.QueryRowContext(ctx, `SELECT user_id, xp, streak, last_active_date, total_income, total_expenses, created_at, updated_at FROM profiles WHERE user_id = ?`, userID)
	p, err := scanProfile(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// AddXP increments xp atomically in the store. The read-modify-write race on
// concurrent quest completions is avoided by pushing the arithmetic into SQL.
func (r *ProfileRepo) AddXP(ctx context.Context, userID string, delta int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE profiles SET xp = xp + ?, updated_at=CURRENT_TIMESTAMP WHERE user_id = ?`, delta, userID)
	return err
}

// UpdateStreak stores a recomputed streak and activity date.
func (r *ProfileRepo) UpdateStreak(ctx context.Context, userID string, streak int, lastActive time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE profiles SET streak = ?, last_active_date = ?, updated_at=CURRENT_TIMESTAMP WHERE user_id = ?`, streak, fmtDay(lastActive), userID)
	return err
}

// AddTotals accumulates lifetime income/expense totals.
func (r *ProfileRepo) AddTotals(ctx context.Context, userID string, income, expenses decimal.Decimal) error {
	p, err := r.Get(ctx, userID)
	if err != nil {
		return err
	}
	if p == nil {
		return sql.ErrNoRows
	}
	_, err = r.db.ExecContext(ctx, `UPDATE profiles SET total_income = ?, total_expenses = ?, updated_at=CURRENT_TIMESTAMP WHERE user_id = ?`,
		p.TotalIncome.Add(income).String(), p.TotalExpenses.Add(expenses).String(), userID)
	return err
}

func scanProfile(row scanner) (Profile, error) {
	var p Profile
	var last sql.NullString
	var income, expenses string
	if err := row.Scan(&p.UserID, &p.XP, &p.Streak, &last, &income, &expenses, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return Profile{}, err
	}
	var err error
	if p.TotalIncome, err = decimal.NewFromString(income); err != nil {
		return Profile{}, err
	}
	if p.TotalExpenses, err = decimal.NewFromString(expenses); err != nil {
		return Profile{}, err
	}
	if last.Valid {
		d, err := parseDay(last.String)
		if err != nil {
			return Profile{}, err
		}
		p.LastActiveDate = &d
	}
	return p, nil
}
