package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jeffersonfukner-hue/moneyquest/internal/database/repository"
)

func TestCashFlowTrailingWindow(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	env := newTestEnv(t)
	svc := &ReportService{Transactions: env.txs, Wallets: env.wallets}

	env.insertEntry(t, time.Date(2026, 7, 5, 0, 0, 0, 0, time.UTC), repository.TypeIncome, "1000.00", "Salary", nil)
	env.insertEntry(t, time.Date(2026, 7, 20, 0, 0, 0, 0, time.UTC), repository.TypeExpense, "300.00", "Rent", nil)
	env.insertEntry(t, time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC), repository.TypeExpense, "50.00", "Groceries", nil)
	// outside the window
	env.insertEntry(t, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), repository.TypeIncome, "999.00", "Old", nil)

	today := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	months, err := svc.CashFlow(ctx, 3, today)
	require.NoError(t, err)
	require.Len(t, months, 2, "empty months are omitted")

	require.Equal(t, "2026-07", months[0].Month)
	require.True(t, months[0].Income.Equal(decimal.RequireFromString("1000.00")), "got %s", months[0].Income)
	require.True(t, months[0].Expenses.Equal(decimal.RequireFromString("300.00")), "got %s", months[0].Expenses)
	require.True(t, months[0].Net.Equal(decimal.RequireFromString("700.00")), "got %s", months[0].Net)

	require.Equal(t, "2026-08", months[1].Month)
	require.True(t, months[1].Net.Equal(decimal.RequireFromString("-50.00")), "got %s", months[1].Net)
}
