package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/jeffersonfukner-hue/moneyquest/internal/database/repository"
)

// LedgerService is the single write path for ledger entries. Every mutation
// flows through Create so wallet balances stay consistent and the
// gamification engine sees each qualifying activity exactly once.
type LedgerService struct {
	Transactions *repository.TransactionRepo
	Wallets      *repository.WalletRepo
	Game         *GameService
	Log          *logrus.Logger
}

// NewEntry describes a ledger entry to be created.
type NewEntry struct {
	WalletID    string
	Date        time.Time
	Type        string
	Amount      decimal.Decimal
	Category    string
	Description string
	Currency    string
	Subtype     *string
	Supplier    *string
}

// Create validates and persists a ledger entry, adjusts the wallet balance,
// and fires the gamification recompute for the owning user.
func (s *LedgerService) Create(ctx context.Context, userID string, e NewEntry) (*repository.Transaction, error) {
	if e.Type != repository.TypeIncome && e.Type != repository.TypeExpense {
		return nil, fmt.Errorf("ledger: unknown entry type %q", e.Type)
	}
	if !e.Amount.IsPositive() {
		return nil, fmt.Errorf("ledger: amount must be positive, got %s", e.Amount)
	}
	w, err := s.Wallets.Get(ctx, e.WalletID)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, ErrWalletNotFound
	}
	if e.Currency == "" {
		e.Currency = w.Currency
	}

	t := repository.Transaction{
		ID:          uuid.NewString(),
		WalletID:    e.WalletID,
		Date:        e.Date,
		Type:        e.Type,
		Amount:      e.Amount,
		Category:    e.Category,
		Description: e.Description,
		Currency:    e.Currency,
		Subtype:     e.Subtype,
		Supplier:    e.Supplier,
	}
	if err := s.Transactions.Insert(ctx, t); err != nil {
		return nil, err
	}
	if err := s.Wallets.AdjustBalance(ctx, e.WalletID, t.Signed()); err != nil {
		return nil, err
	}

	if s.Game != nil {
		if err := s.Game.RecordActivity(ctx, userID, t); err != nil {
			// the entry is committed; a failed recompute must not roll it back
			s.Log.WithError(err).WithField("transaction_id", t.ID).Warn("gamification recompute failed")
		}
	}
	s.Log.WithFields(logrus.Fields{
		"transaction_id": t.ID,
		"wallet_id":      t.WalletID,
		"type":           t.Type,
	}).Info("ledger entry created")
	return &t, nil
}
