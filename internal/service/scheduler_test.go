package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jeffersonfukner-hue/moneyquest/internal/database"
	"github.com/jeffersonfukner-hue/moneyquest/internal/database/repository"
)

func TestRunDueCatchesUpPastOccurrences(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	env := newTestEnv(t)
	svc := &ScheduleService{Schedules: env.schedules, Ledger: env.ledger(nil), Log: env.log}

	today := database.Day(time.Now())
	tpl := repository.ScheduledTransaction{
		ID:          uuid.NewString(),
		WalletID:    env.walletID,
		UserID:      env.userID,
		Description: "Rent",
		Category:    "Housing",
		Type:        repository.TypeExpense,
		Amount:      decimal.RequireFromString("1800.00"),
		Currency:    "BRL",
		Recurrence:  "daily",
		NextRun:     today.AddDate(0, 0, -1),
		IsActive:    true,
	}
	require.NoError(t, env.schedules.Insert(ctx, tpl))

	// one day behind: the missed day and today both materialize
	created, err := svc.RunDue(ctx, env.userID, today)
	require.NoError(t, err)
	require.Equal(t, 2, created)

	entries, err := env.txs.List(ctx, repository.TransactionFilters{WalletID: env.walletID})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		require.Equal(t, "Rent", e.Description)
		require.Equal(t, repository.TypeExpense, e.Type)
	}

	// nothing further is due until tomorrow
	created, err = svc.RunDue(ctx, env.userID, today)
	require.NoError(t, err)
	require.Zero(t, created)

	schedules, err := env.schedules.List(ctx, env.userID)
	require.NoError(t, err)
	require.Len(t, schedules, 1)
	require.Equal(t, today.AddDate(0, 0, 1).Format("2006-01-02"), schedules[0].NextRun.Format("2006-01-02"))
}

func TestNextOccurrence(t *testing.T) {
	t.Parallel()

	from := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	require.Equal(t, from.AddDate(0, 0, 1), nextOccurrence("daily", from))
	require.Equal(t, from.AddDate(0, 0, 7), nextOccurrence("weekly", from))
	require.Equal(t, from.AddDate(0, 1, 0), nextOccurrence("monthly", from))
}
