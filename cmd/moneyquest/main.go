package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/jeffersonfukner-hue/moneyquest/internal/config"
	"github.com/jeffersonfukner-hue/moneyquest/internal/database"
	"github.com/jeffersonfukner-hue/moneyquest/internal/database/repository"
	"github.com/jeffersonfukner-hue/moneyquest/internal/handler"
	"github.com/jeffersonfukner-hue/moneyquest/internal/service"
)

func main() {
	ctx := context.Background()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.HTTP.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		logger.Fatalf("mkdir db dir: %v", err)
	}

	if err := database.RunMigrations(cfg.Database.Path, cfg.Database.MigrationsPath); err != nil {
		logger.Fatalf("migrate: %v", err)
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := database.SeedDefaults(ctx, db, cfg.UI.CurrencyCode); err != nil {
		logger.Fatalf("seed defaults: %v", err)
	}

	// repositories
	walletRepo := repository.NewWalletRepo(db)
	txRepo := repository.NewTransactionRepo(db)
	lineRepo := repository.NewBankLineRepo(db)
	reconRepo := repository.NewReconciliationRepo(db)
	loanRepo := repository.NewLoanRepo(db)
	profileRepo := repository.NewProfileRepo(db)
	questRepo := repository.NewQuestRepo(db)
	badgeRepo := repository.NewBadgeRepo(db)
	scheduleRepo := repository.NewScheduleRepo(db)

	// services
	game := &service.GameService{
		Profiles:          profileRepo,
		Quests:            questRepo,
		Badges:            badgeRepo,
		Transactions:      txRepo,
		Wallets:           walletRepo,
		Log:               logger,
		WeeklyMinAgeDays:  cfg.Game.WeeklyMinAgeDays,
		MonthlyMinAgeDays: cfg.Game.MonthlyMinAgeDays,
	}
	ledger := &service.LedgerService{Transactions: txRepo, Wallets: walletRepo, Game: game, Log: logger}
	importer := &service.ImportService{
		BankLines:    lineRepo,
		Wallets:      walletRepo,
		Log:          logger,
		MaxFileBytes: cfg.Import.MaxFileBytes,
		MaxRows:      cfg.Import.MaxRows,
	}
	reconciler := &service.ReconcileService{
		BankLines:       lineRepo,
		Transactions:    txRepo,
		Reconciliations: reconRepo,
		Ledger:          ledger,
		Log:             logger,
	}
	loans := &service.LoanService{DB: db, Loans: loanRepo, Transactions: txRepo, Wallets: walletRepo, Game: game, Log: logger}
	reports := &service.ReportService{Transactions: txRepo, Wallets: walletRepo}
	schedules := &service.ScheduleService{Schedules: scheduleRepo, Ledger: ledger, Log: logger}

	userID := database.DefaultUserID

	h := handler.NewHandler(
		handler.Repos{
			Wallets:      walletRepo,
			BankLines:    lineRepo,
			Transactions: txRepo,
			Profiles:     profileRepo,
			Quests:       questRepo,
			Badges:       badgeRepo,
		},
		handler.Services{
			Importer:  importer,
			Reconcile: reconciler,
			Loans:     loans,
			Ledger:    ledger,
			Game:      game,
			Reports:   reports,
			Schedules: schedules,
		},
		userID,
		logger,
	)

	// daily jobs: rotate quest periods and materialize due scheduled entries
	c := cron.New()
	if _, err := c.AddFunc("5 0 * * *", func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := game.EnsureQuests(jobCtx, userID); err != nil {
			logger.WithError(err).Warn("quest rollover failed")
		}
		created, err := schedules.RunDue(jobCtx, userID, database.Day(time.Now()))
		if err != nil {
			logger.WithError(err).Warn("scheduled entries failed")
		} else if created > 0 {
			logger.WithField("created", created).Info("materialized scheduled entries")
		}
	}); err != nil {
		logger.Fatalf("cron: %v", err)
	}
	c.Start()
	defer c.Stop()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTP.Port),
		Handler:      h.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Infof("listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
}
