package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/jeffersonfukner-hue/moneyquest/internal/database"
	"github.com/jeffersonfukner-hue/moneyquest/internal/database/repository"
	"github.com/jeffersonfukner-hue/moneyquest/internal/service"
)

func newTestHandler(t *testing.T) (*Handler, string) {
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

	walletRepo := repository.NewWalletRepo(db)
	txRepo := repository.NewTransactionRepo(db)
	lineRepo := repository.NewBankLineRepo(db)
	reconRepo := repository.NewReconciliationRepo(db)
	loanRepo := repository.NewLoanRepo(db)
	profileRepo := repository.NewProfileRepo(db)
	questRepo := repository.NewQuestRepo(db)
	badgeRepo := repository.NewBadgeRepo(db)
	scheduleRepo := repository.NewScheduleRepo(db)

	game := &service.GameService{
		Profiles: profileRepo, Quests: questRepo, Badges: badgeRepo,
		Transactions: txRepo, Wallets: walletRepo, Log: log,
		WeeklyMinAgeDays: 3, MonthlyMinAgeDays: 7,
	}
	ledger := &service.LedgerService{Transactions: txRepo, Wallets: walletRepo, Game: game, Log: log}
	importer := &service.ImportService{BankLines: lineRepo, Wallets: walletRepo, Log: log, MaxFileBytes: 1 << 20, MaxRows: 1000}
	reconciler := &service.ReconcileService{
		BankLines: lineRepo, Transactions: txRepo, Reconciliations: reconRepo, Ledger: ledger, Log: log,
	}
	loans := &service.LoanService{DB: db, Loans: loanRepo, Transactions: txRepo, Wallets: walletRepo, Game: game, Log: log}
	reports := &service.ReportService{Transactions: txRepo, Wallets: walletRepo}
	schedules := &service.ScheduleService{Schedules: scheduleRepo, Ledger: ledger, Log: log}

	h := NewHandler(
		Repos{Wallets: walletRepo, BankLines: lineRepo, Transactions: txRepo,
			Profiles: profileRepo, Quests: questRepo, Badges: badgeRepo},
		Services{Importer: importer, Reconcile: reconciler, Loans: loans, Ledger: ledger,
			Game: game, Reports: reports, Schedules: schedules},
		database.DefaultUserID,
		log,
	)

	wallets, err := walletRepo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, wallets, 1)
	return h, wallets[0].ID
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateAndListTransactions(t *testing.T) {
	t.Parallel()

	h, walletID := newTestHandler(t)
	router := h.Router()

	rec := doJSON(t, router, http.MethodPost, "/api/transactions", map[string]interface{}{
		"wallet_id":   walletID,
		"date":        "2026-03-10",
		"type":        "expense",
		"amount":      "42.00",
		"category":    "Food",
		"description": "Lunch",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodGet, "/api/transactions?wallet_id="+walletID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []repository.Transaction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	require.Equal(t, "Lunch", entries[0].Description)

	// the write fired the gamification hook
	rec = doJSON(t, router, http.MethodGet, "/api/profile", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var profile struct {
		Level int `json:"level"`
		Profile struct {
			XP int `json:"XP"`
		} `json:"profile"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
	require.Equal(t, 1, profile.Level)
	require.Greater(t, profile.Profile.XP, 0)
}

func TestBadRequestAndNotFoundMapping(t *testing.T) {
	t.Parallel()

	h, walletID := newTestHandler(t)
	router := h.Router()

	rec := doJSON(t, router, http.MethodPost, "/api/transactions", map[string]interface{}{
		"wallet_id": walletID,
		"date":      "10/03/2026",
		"type":      "expense",
		"amount":    "42.00",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/loans/no-such-loan/projections", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/lines/no-such-line/suggestions", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestImportRoundTrip(t *testing.T) {
	t.Parallel()

	h, walletID := newTestHandler(t)
	router := h.Router()

	upload := func(path string, mappings []string) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		fw, err := w.CreateFormFile("file", "extrato.csv")
		require.NoError(t, err)
		_, err = fw.Write([]byte("Date,Description,Amount\n01/03/2026,SALARY,3500.00\n02/03/2026,COFFEE,-12.50\n"))
		require.NoError(t, err)
		for _, m := range mappings {
			require.NoError(t, w.WriteField("mappings", m))
		}
		require.NoError(t, w.Close())

		req := httptest.NewRequest(http.MethodPost, path, &buf)
		req.Header.Set("Content-Type", w.FormDataContentType())
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	rec := upload("/api/import/"+walletID+"/preview", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var preview service.Preview
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &preview))
	require.Equal(t, 2, preview.RowCount)

	rec = upload("/api/import/"+walletID+"/commit", []string{"date", "description", "amount"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result service.ImportResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Equal(t, 2, result.Imported)

	rec = doJSON(t, router, http.MethodGet, "/api/wallets/"+walletID+"/lines?status=pending", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var lines []json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lines))
	require.Len(t, lines, 2)
}
