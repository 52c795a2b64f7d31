package repository

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"
)

// BadgeRepo handles badge rows.
type BadgeRepo struct{ db *sql.DB }

func NewBadgeRepo(db *sql.DB) *BadgeRepo { return &BadgeRepo{db: db} }

func (r *BadgeRepo) Upsert(ctx context.Context, b Badge) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO badges(id, user_id, badge_key, kind, threshold, unlocked_at)
	VALUES(?, ?, ?, ?, ?, NULL)
	ON CONFLICT(user_id, badge_key) DO NOTHING;
	`, b.ID, b.UserID, b.BadgeKey, b.Kind, b.Threshold.String())
	return err
}

func (r *BadgeRepo) List(ctx context.Context, userID string) ([]Badge, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, user_id, badge_key, kind, threshold, unlocked_at FROM badges WHERE user_id = ? ORDER BY badge_key`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Badge
	for rows.Next() {
		var b Badge
		var threshold string
		var unlocked sql.NullTime
		if err := rows.Scan(&b.ID, &b.UserID, &b.BadgeKey, &b.Kind, &threshold, &unlocked); err != nil {
			return nil, err
		}
		d, err := decimal.NewFromString(threshold)
		if err != nil {
			return nil, err
		}
		b.Threshold = d
		if unlocked.Valid {
			b.UnlockedAt = &unlocked.Time
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Unlock marks a badge unlocked once; already-unlocked badges match zero rows.
func (r *BadgeRepo) Unlock(ctx context.Context, userID, badgeKey string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE badges SET unlocked_at = CURRENT_TIMESTAMP WHERE user_id = ? AND badge_key = ? AND unlocked_at IS NULL`, userID, badgeKey)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
