package database

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jeffersonfukner-hue/moneyquest/internal/database/repository"
)

// DefaultUserID identifies the local profile in single-user deployments.
var DefaultUserID = uuid.NewSHA1(uuid.NameSpaceOID, []byte("user:local")).String()

// SeedDefaults ensures a baseline profile and wallet exist for new databases.
// It is idempotent and safe to run on every startup.
func SeedDefaults(ctx context.Context, db *sql.DB, currency string) error {
	profiles := repository.NewProfileRepo(db)
	p, err := profiles.Get(ctx, DefaultUserID)
	if err != nil {
		return err
	}
	if p == nil {
		if err := profiles.Upsert(ctx, repository.Profile{
			UserID:        DefaultUserID,
			TotalIncome:   decimal.Zero,
			TotalExpenses: decimal.Zero,
		}); err != nil {
			return err
		}
	}

	wallets := repository.NewWalletRepo(db)
	existing, err := wallets.ListActive(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	return wallets.Upsert(ctx, repository.Wallet{
		ID:             uuid.NewSHA1(uuid.NameSpaceOID, []byte("wallet:main")).String(),
		Name:           "Main",
		Currency:       currency,
		CurrentBalance: decimal.Zero,
		IsActive:       true,
	})
}
