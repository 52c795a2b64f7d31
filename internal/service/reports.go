package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jeffersonfukner-hue/moneyquest/internal/database"
	"github.com/jeffersonfukner-hue/moneyquest/internal/database/repository"
)

// ReportService aggregates cash flow over the ledger.
type ReportService struct {
	Transactions *repository.TransactionRepo
	Wallets      *repository.WalletRepo
}

// CashFlowMonth is one month of the report.
type CashFlowMonth struct {
	Month    string          `json:"month"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
	Net      decimal.Decimal `json:"net"`
}

// CashFlow returns monthly income/expense/net for the trailing window of
// months, oldest first. Months with no entries are omitted.
func (s *ReportService) CashFlow(ctx context.Context, months int, today time.Time) ([]CashFlowMonth, error) {
	if months < 1 {
		months = 6
	}
	today = database.Day(today)
	start := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location()).AddDate(0, -(months - 1), 0)
	end := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location()).AddDate(0, 1, 0)

	wallets, err := s.Wallets.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(wallets))
	for i, w := range wallets {
		ids[i] = w.ID
	}

	totals, err := s.Transactions.SumByMonth(ctx, ids, start, end)
	if err != nil {
		return nil, err
	}
	out := make([]CashFlowMonth, len(totals))
	for i, t := range totals {
		out[i] = CashFlowMonth{
			Month:    t.Month,
			Income:   t.Income,
			Expenses: t.Expenses,
			Net:      t.Income.Sub(t.Expenses),
		}
	}
	return out, nil
}
