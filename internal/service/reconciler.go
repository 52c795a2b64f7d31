package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jeffersonfukner-hue/moneyquest/internal/database/repository"
	"github.com/jeffersonfukner-hue/moneyquest/internal/money"
	"github.com/jeffersonfukner-hue/moneyquest/internal/statement"
)

// maxManualCandidates bounds the manual-search result set.
const maxManualCandidates = 50

// excludedSubtypes are wallet-internal movements that must never be matched
// against external bank lines.
var excludedSubtypes = map[string]struct{}{
	repository.SubtypeTransferOut:    {},
	repository.SubtypeTransferIn:     {},
	repository.SubtypeCardPayment:    {},
	repository.SubtypeCashAdjustment: {},
}

// MatchSuggestion is an ephemeral ranked candidate for one pending bank line.
type MatchSuggestion struct {
	TransactionID string
	Confidence    int
	MatchReasons  []string
}

// ReconcileService scores pending bank lines against the ledger and drives
// the per-line state machine: pending to reconciled, created or ignored, each
// reversible through Undo.
type ReconcileService struct {
	BankLines       *repository.BankLineRepo
	Transactions    *repository.TransactionRepo
	Reconciliations *repository.ReconciliationRepo
	Ledger          *LedgerService
	Log             *logrus.Logger
}

// Suggestions computes ranked match candidates for a pending bank line.
func (s *ReconcileService) Suggestions(ctx context.Context, bankLineID string) ([]MatchSuggestion, error) {
	line, err := s.pendingLine(ctx, bankLineID)
	if err != nil {
		return nil, err
	}

	entries, err := s.Transactions.ListUnreconciled(ctx, line.WalletID)
	if err != nil {
		return nil, err
	}

	type scored struct {
		MatchSuggestion
		dateDiff int
	}
	var out []scored
	for _, t := range entries {
		if t.Subtype != nil {
			if _, excluded := excludedSubtypes[*t.Subtype]; excluded {
				continue
			}
		}
		confidence, reasons, ok := scoreCandidate(*line, t)
		if !ok {
			continue
		}
		out = append(out, scored{
			MatchSuggestion: MatchSuggestion{TransactionID: t.ID, Confidence: confidence, MatchReasons: reasons},
			dateDiff:        daysApart(line.TransactionDate, t.Date),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].dateDiff < out[j].dateDiff
	})

	suggestions := make([]MatchSuggestion, len(out))
	for i, sc := range out {
		suggestions[i] = sc.MatchSuggestion
	}
	return suggestions, nil
}

// scoreCandidate returns (confidence 0..100, reasons, eligible). An amount
// mismatch beyond the cents epsilon disqualifies outright; date distance sets
// the base confidence and description overlap adds on top.
func scoreCandidate(line repository.BankLine, t repository.Transaction) (int, []string, bool) {
	if !money.EqualAbs(t.Amount, line.Amount) {
		return 0, nil, false
	}
	reasons := []string{"same amount"}

	diff := daysApart(line.TransactionDate, t.Date)
	var base int
	switch {
	case diff == 0:
		base = 95
		reasons = append(reasons, "same day")
	case diff <= 3:
		base = 95 - 5*diff
		reasons = append(reasons, "close date")
	default:
		// strictly decreasing past the tolerance window; far-off candidates
		// fall out entirely rather than lingering at a floor
		base = 75 - 3*(diff-3)
		if base < 5 {
			return 0, nil, false
		}
	}

	confidence := base
	if sim := descriptionSimilarity(line.Description, t.Description); sim >= 0.55 {
		confidence += 10
		reasons = append(reasons, "similar description")
	} else if sharedToken(line.Description, t.Description) {
		confidence += 5
		reasons = append(reasons, "shared words")
	}
	if confidence > 100 {
		confidence = 100
	}
	return confidence, reasons, true
}

func descriptionSimilarity(a, b string) float64 {
	na := statement.NormalizeDescription(a)
	nb := statement.NormalizeDescription(b)
	if na == "" || nb == "" {
		return 0
	}
	maxlen := len(na)
	if len(nb) > maxlen {
		maxlen = len(nb)
	}
	dist := levenshtein.ComputeDistance(na, nb)
	return 1 - float64(dist)/float64(maxlen)
}

func sharedToken(a, b string) bool {
	tokens := make(map[string]struct{})
	for _, tok := range strings.Fields(statement.NormalizeDescription(a)) {
		if len(tok) >= 4 {
			tokens[tok] = struct{}{}
		}
	}
	for _, tok := range strings.Fields(statement.NormalizeDescription(b)) {
		if _, ok := tokens[tok]; ok {
			return true
		}
	}
	return false
}

func daysApart(a, b time.Time) int {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return int(d.Hours() / 24)
}

// Accept links a pending line to an existing ledger entry. matchType is auto
// for quick-accepted suggestions, manual for explicit picks; confidence is
// recorded for auto matches only.
func (s *ReconcileService) Accept(ctx context.Context, bankLineID, transactionID, matchType string, confidence *float64) error {
	line, err := s.pendingLine(ctx, bankLineID)
	if err != nil {
		return err
	}

	t, err := s.Transactions.Get(ctx, transactionID)
	if err != nil {
		return err
	}
	if t == nil || t.WalletID != line.WalletID {
		return ErrTransactionNotFound
	}

	active, err := s.Reconciliations.ActiveByTransaction(ctx, transactionID)
	if err != nil {
		return err
	}
	if active != nil {
		return ErrAlreadyReconciled
	}

	if matchType != repository.MatchAuto {
		confidence = nil
	}
	rec := repository.Reconciliation{
		ID:            uuid.NewString(),
		BankLineID:    bankLineID,
		TransactionID: transactionID,
		MatchType:     matchType,
		Confidence:    confidence,
		Status:        repository.StatusReconciled,
	}
	if err := s.Reconciliations.Insert(ctx, rec); err != nil {
		// the partial unique index catches a race the check above missed
		if strings.Contains(err.Error(), "UNIQUE") {
			return ErrAlreadyReconciled
		}
		return err
	}
	s.Log.WithFields(logrus.Fields{
		"bank_line_id":   bankLineID,
		"transaction_id": transactionID,
		"match_type":     matchType,
	}).Info("bank line reconciled")
	return nil
}

// CreateFromLine creates a brand-new ledger entry from a pending line and
// immediately reconciles the line to it. The entry is created first; if that
// fails the line stays pending.
func (s *ReconcileService) CreateFromLine(ctx context.Context, userID, bankLineID, category string) (*repository.Transaction, error) {
	line, err := s.pendingLine(ctx, bankLineID)
	if err != nil {
		return nil, err
	}

	entryType := repository.TypeIncome
	if line.Amount.IsNegative() {
		entryType = repository.TypeExpense
	}
	if category == "" {
		category = "Uncategorized"
	}
	t, err := s.Ledger.Create(ctx, userID, NewEntry{
		WalletID:    line.WalletID,
		Date:        line.TransactionDate,
		Type:        entryType,
		Amount:      line.Amount.Abs(),
		Category:    category,
		Description: line.Description,
		Supplier:    line.Counterparty,
	})
	if err != nil {
		return nil, err
	}

	rec := repository.Reconciliation{
		ID:            uuid.NewString(),
		BankLineID:    bankLineID,
		TransactionID: t.ID,
		MatchType:     repository.MatchCreated,
		Status:        repository.StatusCreated,
	}
	if err := s.Reconciliations.Insert(ctx, rec); err != nil {
		return nil, err
	}
	return t, nil
}

// Ignore marks a pending line as explicitly skipped.
func (s *ReconcileService) Ignore(ctx context.Context, bankLineID string) error {
	if _, err := s.pendingLine(ctx, bankLineID); err != nil {
		return err
	}
	return s.Reconciliations.Insert(ctx, repository.Reconciliation{
		ID:         uuid.NewString(),
		BankLineID: bankLineID,
		MatchType:  repository.MatchManual,
		Status:     repository.StatusIgnored,
	})
}

// Undo tears down the line's reconciliation, returning it to pending. The
// ledger entry, if any, is kept.
func (s *ReconcileService) Undo(ctx context.Context, bankLineID string) error {
	rec, err := s.Reconciliations.GetByBankLine(ctx, bankLineID)
	if err != nil {
		return err
	}
	if rec == nil {
		return ErrNotPending
	}
	return s.Reconciliations.Delete(ctx, bankLineID)
}

// SearchCandidates is the manual-pick path: a bounded linear filter over
// unreconciled entries of the wallet, text-matched on description, category
// and supplier. Not a ranking, just a constrained scan.
func (s *ReconcileService) SearchCandidates(ctx context.Context, walletID, query string) ([]repository.Transaction, error) {
	entries, err := s.Transactions.ListUnreconciled(ctx, walletID)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	var out []repository.Transaction
	for _, t := range entries {
		if t.Subtype != nil {
			if _, excluded := excludedSubtypes[*t.Subtype]; excluded {
				continue
			}
		}
		if q != "" && !matchesQuery(t, q) {
			continue
		}
		out = append(out, t)
		if len(out) == maxManualCandidates {
			break
		}
	}
	return out, nil
}

func matchesQuery(t repository.Transaction, q string) bool {
	if strings.Contains(strings.ToLower(t.Description), q) {
		return true
	}
	if strings.Contains(strings.ToLower(t.Category), q) {
		return true
	}
	return t.Supplier != nil && strings.Contains(strings.ToLower(*t.Supplier), q)
}

// LineStatus resolves the state-machine position of a bank line.
func (s *ReconcileService) LineStatus(ctx context.Context, bankLineID string) (string, error) {
	rec, err := s.Reconciliations.GetByBankLine(ctx, bankLineID)
	if err != nil {
		return "", err
	}
	if rec == nil {
		return "pending", nil
	}
	return rec.Status, nil
}

func (s *ReconcileService) pendingLine(ctx context.Context, bankLineID string) (*repository.BankLine, error) {
	line, err := s.BankLines.Get(ctx, bankLineID)
	if err != nil {
		return nil, err
	}
	if line == nil {
		return nil, ErrBankLineNotFound
	}
	rec, err := s.Reconciliations.GetByBankLine(ctx, bankLineID)
	if err != nil {
		return nil, err
	}
	if rec != nil {
		return nil, ErrNotPending
	}
	return line, nil
}
