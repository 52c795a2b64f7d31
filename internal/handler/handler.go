// Package handler exposes the core operations as a JSON HTTP API.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/jeffersonfukner-hue/moneyquest/internal/database/repository"
	"github.com/jeffersonfukner-hue/moneyquest/internal/service"
	"github.com/jeffersonfukner-hue/moneyquest/internal/statement"
)

// Repos bundles the read-side repositories the API serves directly.
type Repos struct {
	Wallets      *repository.WalletRepo
	BankLines    *repository.BankLineRepo
	Transactions *repository.TransactionRepo
	Profiles     *repository.ProfileRepo
	Quests       *repository.QuestRepo
	Badges       *repository.BadgeRepo
}

// Services bundles the write-side services.
type Services struct {
	Importer  *service.ImportService
	Reconcile *service.ReconcileService
	Loans     *service.LoanService
	Ledger    *service.LedgerService
	Game      *service.GameService
	Reports   *service.ReportService
	Schedules *service.ScheduleService
}

// Handler holds the services behind the API.
type Handler struct {
	Repos    Repos
	Services Services
	UserID   string
	Log      *logrus.Logger
}

// NewHandler initializes a handler.
func NewHandler(repos Repos, services Services, userID string, log *logrus.Logger) *Handler {
	return &Handler{Repos: repos, Services: services, UserID: userID, Log: log}
}

// Router builds the API route table.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(h.logRequests)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/wallets", h.listWallets).Methods(http.MethodGet)
	api.HandleFunc("/wallets/{walletID}/lines", h.listBankLines).Methods(http.MethodGet)

	api.HandleFunc("/import/{walletID}/preview", h.importPreview).Methods(http.MethodPost)
	api.HandleFunc("/import/{walletID}/commit", h.importCommit).Methods(http.MethodPost)

	api.HandleFunc("/lines/{lineID}/suggestions", h.suggestions).Methods(http.MethodGet)
	api.HandleFunc("/lines/{lineID}/reconcile", h.reconcileLine).Methods(http.MethodPost)
	api.HandleFunc("/lines/{lineID}/create", h.createFromLine).Methods(http.MethodPost)
	api.HandleFunc("/lines/{lineID}/ignore", h.ignoreLine).Methods(http.MethodPost)
	api.HandleFunc("/lines/{lineID}/undo", h.undoLine).Methods(http.MethodPost)
	api.HandleFunc("/reconcile/{walletID}/candidates", h.searchCandidates).Methods(http.MethodGet)

	api.HandleFunc("/transactions", h.listTransactions).Methods(http.MethodGet)
	api.HandleFunc("/transactions", h.createTransaction).Methods(http.MethodPost)

	api.HandleFunc("/loans", h.listLoans).Methods(http.MethodGet)
	api.HandleFunc("/loans/{loanID}/projections", h.loanProjections).Methods(http.MethodGet)
	api.HandleFunc("/loans/{loanID}/installments/{n}/pay", h.payInstallment).Methods(http.MethodPost)
	api.HandleFunc("/loans/{loanID}/prepay", h.prepayInstallments).Methods(http.MethodPost)
	api.HandleFunc("/loans/{loanID}/payoff", h.payOffLoan).Methods(http.MethodPost)
	api.HandleFunc("/loans/alerts", h.loanAlerts).Methods(http.MethodGet)

	api.HandleFunc("/profile", h.getProfile).Methods(http.MethodGet)
	api.HandleFunc("/quests", h.listQuests).Methods(http.MethodGet)
	api.HandleFunc("/badges", h.listBadges).Methods(http.MethodGet)

	api.HandleFunc("/reports/cashflow", h.cashFlow).Methods(http.MethodGet)
	api.HandleFunc("/schedules/run", h.runSchedules).Methods(http.MethodPost)

	return r
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.Log.WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Debug("request")
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Log.WithError(err).Error("encode response")
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// writeError maps the domain error taxonomy to HTTP status codes. Unknown
// errors are treated as transient store failures and surfaced as 500 with a
// retry affordance left to the client.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var jsonSyntax *json.SyntaxError
	var jsonType *json.UnmarshalTypeError

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &jsonSyntax),
		errors.As(err, &jsonType),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, io.EOF):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrBankLineNotFound),
		errors.Is(err, service.ErrTransactionNotFound),
		errors.Is(err, service.ErrWalletNotFound),
		errors.Is(err, service.ErrLoanNotFound),
		errors.Is(err, service.ErrProfileNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrAlreadyReconciled),
		errors.Is(err, service.ErrNotPending),
		errors.Is(err, service.ErrLoanPaidOff),
		errors.Is(err, service.ErrOutOfOrderInstallment):
		status = http.StatusConflict
	case errors.Is(err, service.ErrInvalidInstallmentCount),
		errors.Is(err, service.ErrInvalidFileType),
		errors.Is(err, statement.ErrEmptyFile),
		errors.Is(err, statement.ErrNoHeaders),
		errors.Is(err, statement.ErrNoData):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrFileTooLarge):
		status = http.StatusRequestEntityTooLarge
	}
	if status == http.StatusInternalServerError {
		h.Log.WithError(err).Error("request failed")
	}
	h.writeJSON(w, status, errorBody{Error: err.Error()})
}

func (h *Handler) decode(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
