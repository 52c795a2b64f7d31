package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jeffersonfukner-hue/moneyquest/internal/database"
	"github.com/jeffersonfukner-hue/moneyquest/internal/database/repository"
)

// questDef is one entry of the quest catalog. progress is an idempotent
// aggregation over the ledger for the quest's period window: recomputed in
// full on every qualifying mutation, never incrementally updated.
type questDef struct {
	Key      string
	Type     string
	Target   int
	XPReward int
	progress func(ctx context.Context, s *GameService, wallets []string, q repository.Quest) (int, error)
}

func countEntries(ctx context.Context, s *GameService, wallets []string, q repository.Quest) (int, error) {
	return s.Transactions.Count(ctx, wallets, "", q.PeriodStart, q.PeriodEnd)
}

var questCatalog = []questDef{
	{
		Key: "daily_first_entry", Type: "DAILY", Target: 1, XPReward: 50,
		progress: countEntries,
	},
	{
		Key: "daily_triple_entry", Type: "DAILY", Target: 3, XPReward: 100,
		progress: countEntries,
	},
	{
		Key: "weekly_active_days", Type: "WEEKLY", Target: 5, XPReward: 250,
		progress: func(ctx context.Context, s *GameService, wallets []string, q repository.Quest) (int, error) {
			return s.Transactions.CountDistinctDays(ctx, wallets, q.PeriodStart, q.PeriodEnd)
		},
	},
	{
		Key: "weekly_category_spread", Type: "WEEKLY", Target: 4, XPReward: 200,
		progress: func(ctx context.Context, s *GameService, wallets []string, q repository.Quest) (int, error) {
			return s.Transactions.CountDistinctCategories(ctx, wallets, q.PeriodStart, q.PeriodEnd)
		},
	},
	{
		Key: "monthly_positive_flow", Type: "MONTHLY", Target: 1, XPReward: 500,
		progress: func(ctx context.Context, s *GameService, wallets []string, q repository.Quest) (int, error) {
			months, err := s.Transactions.SumByMonth(ctx, wallets, q.PeriodStart, q.PeriodEnd)
			if err != nil {
				return 0, err
			}
			for _, m := range months {
				if m.Income.GreaterThan(m.Expenses) {
					return 1, nil
				}
			}
			return 0, nil
		},
	},
	{
		Key: "monthly_deep_tracking", Type: "MONTHLY", Target: 15, XPReward: 400,
		progress: func(ctx context.Context, s *GameService, wallets []string, q repository.Quest) (int, error) {
			return s.Transactions.CountDistinctDays(ctx, wallets, q.PeriodStart, q.PeriodEnd)
		},
	},
}

// periodWindow returns [start, end) for a quest type anchored on today.
// Weeks start on Monday; months are calendar months.
func periodWindow(questType string, today time.Time) (time.Time, time.Time) {
	today = database.Day(today)
	switch questType {
	case "WEEKLY":
		offset := (int(today.Weekday()) + 6) % 7 // Monday = 0
		start := today.AddDate(0, 0, -offset)
		return start, start.AddDate(0, 0, 7)
	case "MONTHLY":
		start := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		return start, start.AddDate(0, 1, 0)
	default:
		return today, today.AddDate(0, 0, 1)
	}
}

// EnsureQuests retires period-expired quests and creates the current period's
// quests from the catalog. Weekly and monthly quests are held back for young
// accounts so new users cannot trivially complete them on day one.
func (s *GameService) EnsureQuests(ctx context.Context, userID string) error {
	today := s.today()
	if err := s.Quests.DeactivateExpired(ctx, userID, today.Format("2006-01-02")); err != nil {
		return err
	}

	profile, err := s.Profiles.Get(ctx, userID)
	if err != nil {
		return err
	}
	if profile == nil {
		return ErrProfileNotFound
	}
	accountAge := daysBetween(profile.CreatedAt, today)

	for _, def := range questCatalog {
		if def.Type == "WEEKLY" && accountAge < s.WeeklyMinAgeDays {
			continue
		}
		if def.Type == "MONTHLY" && accountAge < s.MonthlyMinAgeDays {
			continue
		}
		start, end := periodWindow(def.Type, today)
		q := repository.Quest{
			ID:             uuid.NewString(),
			UserID:         userID,
			QuestKey:       def.Key,
			QuestType:      def.Type,
			ProgressTarget: def.Target,
			XPReward:       def.XPReward,
			IsActive:       true,
			PeriodStart:    start,
			PeriodEnd:      end,
		}
		// upsert is DO NOTHING on (user, key, period): re-running is a no-op
		if err := s.Quests.Upsert(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

// RecalculateQuests recomputes progress for every active quest and completes
// those that crossed their target. Completion is one-way and awards the XP
// reward exactly once: the repository's guarded update reports whether this
// call was the one that flipped the flag.
func (s *GameService) RecalculateQuests(ctx context.Context, userID string) error {
	wallets, err := s.userWalletIDs(ctx)
	if err != nil {
		return err
	}
	quests, err := s.Quests.ListActive(ctx, userID)
	if err != nil {
		return err
	}
	defs := make(map[string]questDef, len(questCatalog))
	for _, d := range questCatalog {
		defs[d.Key] = d
	}

	for _, q := range quests {
		if q.IsCompleted {
			continue
		}
		def, ok := defs[q.QuestKey]
		if !ok {
			continue
		}
		progress, err := def.progress(ctx, s, wallets, q)
		if err != nil {
			return err
		}
		if err := s.Quests.UpdateProgress(ctx, q.ID, progress); err != nil {
			return err
		}
		if progress < q.ProgressTarget {
			continue
		}
		awarded, err := s.Quests.Complete(ctx, q.ID)
		if err != nil {
			return err
		}
		if awarded {
			if err := s.Profiles.AddXP(ctx, userID, q.XPReward); err != nil {
				return err
			}
			s.Log.WithFields(logrus.Fields{
				"user_id":   userID,
				"quest_key": q.QuestKey,
				"xp_reward": q.XPReward,
			}).Info("quest completed")
		}
	}
	return nil
}
