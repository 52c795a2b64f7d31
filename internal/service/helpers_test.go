package service

import (
	"context"
	"database/sql"
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/jeffersonfukner-hue/moneyquest/internal/database"
	"github.com/jeffersonfukner-hue/moneyquest/internal/database/repository"
)

// testEnv wires a migrated throwaway database with the default profile and
// wallet seeded, ready for service-level tests.
type testEnv struct {
	db       *sql.DB
	wallets  *repository.WalletRepo
	txs      *repository.TransactionRepo
	lines    *repository.BankLineRepo
	recons   *repository.ReconciliationRepo
	loans    *repository.LoanRepo
	profiles *repository.ProfileRepo
	quests   *repository.QuestRepo
	badges   *repository.BadgeRepo
	schedules *repository.ScheduleRepo

	log      *logrus.Logger
	userID   string
	walletID string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	migrations, err := filepath.Abs("../database/migrations")
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(dbPath, migrations))

	db, err := database.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.SeedDefaults(ctx, db, "BRL"))

	log := logrus.New()
	log.SetOutput(io.Discard)

	env := &testEnv{
		db:        db,
		wallets:   repository.NewWalletRepo(db),
		txs:       repository.NewTransactionRepo(db),
		lines:     repository.NewBankLineRepo(db),
		recons:    repository.NewReconciliationRepo(db),
		loans:     repository.NewLoanRepo(db),
		profiles:  repository.NewProfileRepo(db),
		quests:    repository.NewQuestRepo(db),
		badges:    repository.NewBadgeRepo(db),
		schedules: repository.NewScheduleRepo(db),
		log:       log,
		userID:    database.DefaultUserID,
	}

	wallets, err := env.wallets.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, wallets, 1)
	env.walletID = wallets[0].ID
	return env
}

func (e *testEnv) game() *GameService {
	return &GameService{
		Profiles:          e.profiles,
		Quests:            e.quests,
		Badges:            e.badges,
		Transactions:      e.txs,
		Wallets:           e.wallets,
		Log:               e.log,
		WeeklyMinAgeDays:  3,
		MonthlyMinAgeDays: 7,
	}
}

func (e *testEnv) ledger(game *GameService) *LedgerService {
	return &LedgerService{Transactions: e.txs, Wallets: e.wallets, Game: game, Log: e.log}
}
