package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jeffersonfukner-hue/moneyquest/internal/database/repository"
)

// badgeDef is one entry of the badge catalog: a threshold predicate over
// current aggregate state, unlocked once.
type badgeDef struct {
	Key       string
	Kind      string
	Threshold int64
}

var badgeCatalog = []badgeDef{
	{Key: "apprentice", Kind: "xp", Threshold: 1000},
	{Key: "veteran", Kind: "xp", Threshold: 10000},
	{Key: "week_streak", Kind: "streak", Threshold: 7},
	{Key: "month_streak", Kind: "streak", Threshold: 30},
	{Key: "first_thousand_saved", Kind: "saved", Threshold: 1000},
	{Key: "ten_entries", Kind: "activity", Threshold: 10},
	{Key: "hundred_entries", Kind: "activity", Threshold: 100},
}

// EnsureBadges seeds the locked badge catalog for a user. Idempotent.
func (s *GameService) EnsureBadges(ctx context.Context, userID string) error {
	for _, def := range badgeCatalog {
		b := repository.Badge{
			ID:        uuid.NewString(),
			UserID:    userID,
			BadgeKey:  def.Key,
			Kind:      def.Kind,
			Threshold: decimal.NewFromInt(def.Threshold),
		}
		if err := s.Badges.Upsert(ctx, b); err != nil {
			return err
		}
	}
	return nil
}

// EvaluateBadges checks each locked badge's predicate against the current
// aggregates and unlocks the ones whose threshold is met. Unlocking is
// one-way; re-running after an unlock is a no-op.
func (s *GameService) EvaluateBadges(ctx context.Context, userID string) error {
	if err := s.EnsureBadges(ctx, userID); err != nil {
		return err
	}
	profile, err := s.Profiles.Get(ctx, userID)
	if err != nil {
		return err
	}
	if profile == nil {
		return ErrProfileNotFound
	}

	badges, err := s.Badges.List(ctx, userID)
	if err != nil {
		return err
	}

	var activityCount int
	saved := profile.TotalIncome.Sub(profile.TotalExpenses)

	for _, b := range badges {
		if b.UnlockedAt != nil {
			continue
		}
		met := false
		switch b.Kind {
		case "xp":
			met = decimal.NewFromInt(int64(profile.XP)).GreaterThanOrEqual(b.Threshold)
		case "streak":
			met = decimal.NewFromInt(int64(profile.Streak)).GreaterThanOrEqual(b.Threshold)
		case "saved":
			met = saved.GreaterThanOrEqual(b.Threshold)
		case "activity":
			if activityCount == 0 {
				wallets, err := s.userWalletIDs(ctx)
				if err != nil {
					return err
				}
				activityCount, err = s.Transactions.Count(ctx, wallets, "", time.Unix(0, 0), time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC))
				if err != nil {
					return err
				}
			}
			met = activityCount >= int(b.Threshold.IntPart())
		}
		if !met {
			continue
		}
		if _, err := s.Badges.Unlock(ctx, userID, b.BadgeKey); err != nil {
			return err
		}
	}
	return nil
}
