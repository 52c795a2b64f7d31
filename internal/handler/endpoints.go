package handler

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/jeffersonfukner-hue/moneyquest/internal/database"
	"github.com/jeffersonfukner-hue/moneyquest/internal/database/repository"
	"github.com/jeffersonfukner-hue/moneyquest/internal/service"
	"github.com/jeffersonfukner-hue/moneyquest/internal/statement"
)

func (h *Handler) listWallets(w http.ResponseWriter, r *http.Request) {
	wallets, err := h.Repos.Wallets.ListActive(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, wallets)
}

type bankLineView struct {
	repository.BankLine
	Status string `json:"status"`
}

func (h *Handler) listBankLines(w http.ResponseWriter, r *http.Request) {
	walletID := mux.Vars(r)["walletID"]
	wantStatus := r.URL.Query().Get("status")

	lines, err := h.Repos.BankLines.ListByWallet(r.Context(), walletID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]bankLineView, 0, len(lines))
	for _, l := range lines {
		status, err := h.Services.Reconcile.LineStatus(r.Context(), l.ID)
		if err != nil {
			h.writeError(w, err)
			return
		}
		if wantStatus != "" && status != wantStatus {
			continue
		}
		out = append(out, bankLineView{BankLine: l, Status: status})
	}
	h.writeJSON(w, http.StatusOK, out)
}

// readUpload enforces the pre-parse gates and reads the multipart file.
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) (string, bool) {
	imp := h.Services.Importer
	if err := r.ParseMultipartForm(imp.MaxFileBytes); err != nil {
		h.writeError(w, service.ErrFileTooLarge)
		return "", false
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, err)
		return "", false
	}
	defer file.Close()
	if err := imp.CheckFile(header.Filename, header.Size); err != nil {
		h.writeError(w, err)
		return "", false
	}
	raw, err := io.ReadAll(io.LimitReader(file, imp.MaxFileBytes+1))
	if err != nil {
		h.writeError(w, err)
		return "", false
	}
	if int64(len(raw)) > imp.MaxFileBytes {
		h.writeError(w, service.ErrFileTooLarge)
		return "", false
	}
	return string(raw), true
}

func (h *Handler) importPreview(w http.ResponseWriter, r *http.Request) {
	raw, ok := h.readUpload(w, r)
	if !ok {
		return
	}
	preview, err := h.Services.Importer.Preview(r.Context(), mux.Vars(r)["walletID"], raw)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, preview)
}

func (h *Handler) importCommit(w http.ResponseWriter, r *http.Request) {
	raw, ok := h.readUpload(w, r)
	if !ok {
		return
	}
	var mappings []statement.Role
	for _, m := range r.MultipartForm.Value["mappings"] {
		mappings = append(mappings, statement.Role(m))
	}
	res, mappingErrs, err := h.Services.Importer.Commit(r.Context(), mux.Vars(r)["walletID"], raw, mappings)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if len(mappingErrs) > 0 {
		h.writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{"mapping_errors": mappingErrs})
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

func (h *Handler) suggestions(w http.ResponseWriter, r *http.Request) {
	out, err := h.Services.Reconcile.Suggestions(r.Context(), mux.Vars(r)["lineID"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) reconcileLine(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TransactionID string   `json:"transaction_id"`
		MatchType     string   `json:"match_type"`
		Confidence    *float64 `json:"confidence"`
	}
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if req.MatchType != repository.MatchAuto {
		req.MatchType = repository.MatchManual
	}
	if err := h.Services.Reconcile.Accept(r.Context(), mux.Vars(r)["lineID"], req.TransactionID, req.MatchType, req.Confidence); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": repository.StatusReconciled})
}

func (h *Handler) createFromLine(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Category string `json:"category"`
	}
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	t, err := h.Services.Reconcile.CreateFromLine(r.Context(), h.UserID, mux.Vars(r)["lineID"], req.Category)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, t)
}

func (h *Handler) ignoreLine(w http.ResponseWriter, r *http.Request) {
	if err := h.Services.Reconcile.Ignore(r.Context(), mux.Vars(r)["lineID"]); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": repository.StatusIgnored})
}

func (h *Handler) undoLine(w http.ResponseWriter, r *http.Request) {
	if err := h.Services.Reconcile.Undo(r.Context(), mux.Vars(r)["lineID"]); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "pending"})
}

func (h *Handler) searchCandidates(w http.ResponseWriter, r *http.Request) {
	out, err := h.Services.Reconcile.SearchCandidates(r.Context(), mux.Vars(r)["walletID"], r.URL.Query().Get("q"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	f := repository.TransactionFilters{
		WalletID: r.URL.Query().Get("wallet_id"),
		Type:     r.URL.Query().Get("type"),
		Search:   r.URL.Query().Get("q"),
	}
	out, err := h.Repos.Transactions.List(r.Context(), f)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) createTransaction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WalletID    string  `json:"wallet_id"`
		Date        string  `json:"date"`
		Type        string  `json:"type"`
		Amount      string  `json:"amount"`
		Category    string  `json:"category"`
		Description string  `json:"description"`
		Currency    string  `json:"currency"`
		Subtype     *string `json:"subtype"`
		Supplier    *string `json:"supplier"`
	}
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorBody{Error: "date must be YYYY-MM-DD"})
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorBody{Error: "amount must be a decimal string"})
		return
	}
	t, err := h.Services.Ledger.Create(r.Context(), h.UserID, service.NewEntry{
		WalletID:    req.WalletID,
		Date:        date,
		Type:        req.Type,
		Amount:      amount,
		Category:    req.Category,
		Description: req.Description,
		Currency:    req.Currency,
		Subtype:     req.Subtype,
		Supplier:    req.Supplier,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, t)
}

func (h *Handler) listLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := h.Services.Loans.Loans.List(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	type loanView struct {
		repository.Loan
		NextDueDate time.Time `json:"next_due_date"`
	}
	out := make([]loanView, len(loans))
	for i, l := range loans {
		out[i] = loanView{Loan: l, NextDueDate: service.NextDueDate(l)}
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) loanProjections(w http.ResponseWriter, r *http.Request) {
	out, err := h.Services.Loans.Projections(r.Context(), mux.Vars(r)["loanID"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) payInstallment(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	n, err := strconv.Atoi(vars["n"])
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorBody{Error: "installment number must be an integer"})
		return
	}
	loan, err := h.Services.Loans.PayInstallment(r.Context(), h.UserID, vars["loanID"], n)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, loan)
}

func (h *Handler) prepayInstallments(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Count int `json:"count"`
	}
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	loan, err := h.Services.Loans.PrepayInstallments(r.Context(), h.UserID, mux.Vars(r)["loanID"], req.Count)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, loan)
}

func (h *Handler) payOffLoan(w http.ResponseWriter, r *http.Request) {
	loan, err := h.Services.Loans.PayOffLoan(r.Context(), h.UserID, mux.Vars(r)["loanID"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, loan)
}

func (h *Handler) loanAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.Services.Loans.Alerts(r.Context(), time.Now())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, alerts)
}

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.Repos.Profiles.Get(r.Context(), h.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if p == nil {
		h.writeError(w, service.ErrProfileNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"profile":     p,
		"level":       service.LevelFromXP(p.XP),
		"xp_progress": service.XPProgress(p.XP),
	})
}

func (h *Handler) listQuests(w http.ResponseWriter, r *http.Request) {
	if err := h.Services.Game.EnsureQuests(r.Context(), h.UserID); err != nil {
		h.writeError(w, err)
		return
	}
	quests, err := h.Repos.Quests.ListActive(r.Context(), h.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, quests)
}

func (h *Handler) listBadges(w http.ResponseWriter, r *http.Request) {
	if err := h.Services.Game.EnsureBadges(r.Context(), h.UserID); err != nil {
		h.writeError(w, err)
		return
	}
	badges, err := h.Repos.Badges.List(r.Context(), h.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, badges)
}

func (h *Handler) cashFlow(w http.ResponseWriter, r *http.Request) {
	months := 6
	if v := r.URL.Query().Get("months"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			months = n
		}
	}
	out, err := h.Services.Reports.CashFlow(r.Context(), months, time.Now())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) runSchedules(w http.ResponseWriter, r *http.Request) {
	created, err := h.Services.Schedules.RunDue(r.Context(), h.UserID, database.Day(time.Now()))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]int{"created": created})
}
