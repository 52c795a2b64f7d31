package repository

import (
	"context"
	"database/sql"
)

// QuestRepo handles quest rows.
type QuestRepo struct{ db *sql.DB }

func NewQuestRepo(db *sql.DB) *QuestRepo { return &QuestRepo{db: db} }

func (r *QuestRepo) Upsert(ctx context.Context, q Quest) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO quests(
	 id, user_id, quest_key, quest_type, progress_current, progress_target, xp_reward,
	 is_completed, is_active, period_start, period_end, created_at, updated_at)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	ON CONFLICT(user_id, quest_key, period_start) DO NOTHING;
	`,
		q.ID, q.UserID, q.QuestKey, q.QuestType, q.ProgressCurrent, q.ProgressTarget,
		q.XPReward, q.IsCompleted, q.IsActive, fmtDay(q.PeriodStart), fmtDay(q.PeriodEnd))
	return err
}

const selectQuest = `SELECT id, user_id, quest_key, quest_type, progress_current, progress_target, xp_reward, is_completed, is_active, period_start, period_end, created_at, updated_at FROM quests`

func (r *QuestRepo) ListActive(ctx context.Context, userID string) ([]Quest, error) {
	rows, err := r.db.QueryContext(ctx, selectQuest+` WHERE user_id = ? AND is_active = 1 ORDER BY quest_type, quest_key`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Quest
	for rows.Next() {
		q, err := scanQuest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (r *QuestRepo) Get(ctx context.Context, id string) (*Quest, error) {
	row := r.db.QueryRowContext(ctx, selectQuest+` WHERE id = ?`, id)
	q, err := scanQuest(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &q, nil
}

func (r *QuestRepo) UpdateProgress(ctx context.Context, id string, progress int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE quests SET progress_current = ?, updated_at=CURRENT_TIMESTAMP WHERE id = ?`, progress, id)
	return err
}

// Complete marks a quest done. The is_completed guard in the WHERE clause makes
// completion one-way: a quest already completed matches zero rows, so the
// caller can award XP exactly once based on the affected-row count.
func (r *QuestRepo) Complete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE quests SET is_completed = 1, progress_current = progress_target, updated_at=CURRENT_TIMESTAMP WHERE id = ? AND is_completed = 0`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// DeactivateExpired retires quests whose period window has closed.
func (r *QuestRepo) DeactivateExpired(ctx context.Context, userID, today string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE quests SET is_active = 0, updated_at=CURRENT_TIMESTAMP WHERE user_id = ? AND is_active = 1 AND period_end <= ?`, userID, today)
	return err
}

func scanQuest(row scanner) (Quest, error) {
	var q Quest
	var start, end string
	if err := row.Scan(&q.ID, &q.UserID, &q.QuestKey, &q.QuestType, &q.ProgressCurrent,
		&q.ProgressTarget, &q.XPReward, &q.IsCompleted, &q.IsActive, &start, &end,
		&q.CreatedAt, &q.UpdatedAt); err != nil {
		return Quest{}, err
	}
	var err error
	if q.PeriodStart, err = parseDay(start); err != nil {
		return Quest{}, err
	}
	if q.PeriodEnd, err = parseDay(end); err != nil {
		return Quest{}, err
	}
	return q, nil
}
