package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jeffersonfukner-hue/moneyquest/internal/database"
	"github.com/jeffersonfukner-hue/moneyquest/internal/database/repository"
)

// ScheduleService materializes recurring transaction templates into ledger
// entries. Materialization goes through the regular ledger write path, so
// wallet balances and gamification fire the same as manual entries.
type ScheduleService struct {
	Schedules *repository.ScheduleRepo
	Ledger    *LedgerService
	Log       *logrus.Logger
}

// RunDue materializes every occurrence that has come due, catching up past
// periods one step at a time. Returns the number of entries created.
func (s *ScheduleService) RunDue(ctx context.Context, userID string, today time.Time) (int, error) {
	today = database.Day(today)
	created := 0
	for {
		due, err := s.Schedules.ListDue(ctx, today)
		if err != nil {
			return created, err
		}
		if len(due) == 0 {
			return created, nil
		}
		for _, tpl := range due {
			_, err := s.Ledger.Create(ctx, tpl.UserID, NewEntry{
				WalletID:    tpl.WalletID,
				Date:        tpl.NextRun,
				Type:        tpl.Type,
				Amount:      tpl.Amount,
				Category:    tpl.Category,
				Description: tpl.Description,
				Currency:    tpl.Currency,
			})
			if err != nil {
				return created, err
			}
			created++
			if err := s.Schedules.AdvanceNextRun(ctx, tpl.ID, nextOccurrence(tpl.Recurrence, tpl.NextRun)); err != nil {
				return created, err
			}
		}
	}
}

func nextOccurrence(recurrence string, from time.Time) time.Time {
	switch recurrence {
	case "daily":
		return from.AddDate(0, 0, 1)
	case "weekly":
		return from.AddDate(0, 0, 7)
	default:
		return from.AddDate(0, 1, 0)
	}
}
