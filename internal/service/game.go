package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/jeffersonfukner-hue/moneyquest/internal/database"
	"github.com/jeffersonfukner-hue/moneyquest/internal/database/repository"
)

// xpPerLevel is the fixed level width.
const xpPerLevel = 1000

// CalculateXP converts a ledger amount into an XP award. Income earns more
// than spending; every recorded entry is worth at least 1 XP regardless of
// amount, so participation always counts.
func CalculateXP(amount decimal.Decimal, entryType string) int {
	var raw, cap int64
	switch entryType {
	case repository.TypeIncome:
		raw = amount.Div(decimal.NewFromInt(10)).IntPart()
		cap = 100
	default:
		raw = amount.Div(decimal.NewFromInt(20)).IntPart()
		cap = 50
	}
	if raw < 1 {
		return 1
	}
	if raw > cap {
		return int(cap)
	}
	return int(raw)
}

// LevelFromXP derives the level: every 1000 XP is one level, starting at 1.
func LevelFromXP(xp int) int {
	return xp/xpPerLevel + 1
}

// XPProgress reports percentage progress through the current level.
func XPProgress(xp int) float64 {
	return float64(xp%xpPerLevel) / float64(xpPerLevel) * 100
}

// StreakNoChange is the sentinel returned when today's activity was already
// counted: the caller must treat it as a no-op, not as a streak value.
const StreakNoChange = -1

// CalculateStreak recomputes the consecutive-day streak for one activity on
// today. Dates are compared as calendar days; callers must pass
// midnight-normalized local dates to avoid timezone off-by-one errors.
func CalculateStreak(lastActive *time.Time, current int, today time.Time) (streak int, isNewDay bool) {
	if lastActive == nil {
		return 1, true
	}
	diff := daysBetween(*lastActive, today)
	switch {
	case diff == 0:
		return StreakNoChange, false
	case diff == 1:
		return current + 1, true
	default:
		return 1, true
	}
}

// daysBetween counts calendar days between two dates regardless of the
// location either was parsed in.
func daysBetween(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	f := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	u := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(u.Sub(f).Hours() / 24)
}

// GameService recomputes XP, streaks, quest progress and badges from ledger
// activity. All recomputation runs synchronously after the mutating action.
type GameService struct {
	Profiles     *repository.ProfileRepo
	Quests       *repository.QuestRepo
	Badges       *repository.BadgeRepo
	Transactions *repository.TransactionRepo
	Wallets      *repository.WalletRepo
	Log          *logrus.Logger

	WeeklyMinAgeDays  int
	MonthlyMinAgeDays int

	// Now is the clock; nil means time.Now. Tests pin it.
	Now func() time.Time
}

func (s *GameService) today() time.Time {
	if s.Now != nil {
		return database.Day(s.Now())
	}
	return database.Day(time.Now())
}

// RecordActivity is the post-mutation hook fired by the ledger write path:
// XP award, streak update, lifetime totals, quest recompute, badge check.
func (s *GameService) RecordActivity(ctx context.Context, userID string, t repository.Transaction) error {
	profile, err := s.Profiles.Get(ctx, userID)
	if err != nil {
		return err
	}
	if profile == nil {
		return ErrProfileNotFound
	}

	// the increment runs in SQL so concurrent awards cannot lose updates
	if err := s.Profiles.AddXP(ctx, userID, CalculateXP(t.Amount, t.Type)); err != nil {
		return err
	}

	today := s.today()
	if streak, _ := CalculateStreak(profile.LastActiveDate, profile.Streak, today); streak != StreakNoChange {
		if err := s.Profiles.UpdateStreak(ctx, userID, streak, today); err != nil {
			return err
		}
	}

	income, expenses := decimal.Zero, decimal.Zero
	if t.Type == repository.TypeIncome {
		income = t.Amount
	} else {
		expenses = t.Amount
	}
	if err := s.Profiles.AddTotals(ctx, userID, income, expenses); err != nil {
		return err
	}

	if err := s.EnsureQuests(ctx, userID); err != nil {
		return err
	}
	if err := s.RecalculateQuests(ctx, userID); err != nil {
		return err
	}
	return s.EvaluateBadges(ctx, userID)
}

// userWalletIDs returns the active wallets whose entries count toward the
// user's quests and badges.
func (s *GameService) userWalletIDs(ctx context.Context) ([]string, error) {
	wallets, err := s.Wallets.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(wallets))
	for i, w := range wallets {
		ids[i] = w.ID
	}
	return ids, nil
}
