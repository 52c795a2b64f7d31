package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/jeffersonfukner-hue/moneyquest/internal/database"
	"github.com/jeffersonfukner-hue/moneyquest/internal/database/repository"
)

// LoanService tracks installment schedules and payoff scenarios. Payments are
// serialized per loan: the strict next-installment check runs in the service
// and the repository update is a compare-and-set on installments_paid, so two
// concurrent payments cannot both advance the same position.
type LoanService struct {
	DB           *sql.DB
	Loans        *repository.LoanRepo
	Transactions *repository.TransactionRepo
	Wallets      *repository.WalletRepo
	Game         *GameService
	Log          *logrus.Logger
}

// LoanSubtype tags the ledger entry backing one installment payment.
func LoanSubtype(loanID string, installment int) string {
	return fmt.Sprintf("loan:%s:%d", loanID, installment)
}

// PayInstallment pays exactly the next due installment. installment must equal
// installments_paid+1; anything else fails without mutating state.
func (s *LoanService) PayInstallment(ctx context.Context, userID, loanID string, installment int) (*repository.Loan, error) {
	loan, err := s.activeLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if installment != loan.InstallmentsPaid+1 {
		return nil, ErrOutOfOrderInstallment
	}

	principal := installmentPrincipal(*loan)
	newBalance := loan.OutstandingBalance.Sub(principal)
	newPaid := loan.InstallmentsPaid + 1
	status := repository.LoanActive
	if newPaid == loan.InstallmentCount {
		status = repository.LoanPaidOff
		newBalance = decimal.Zero
	}
	if newBalance.IsNegative() {
		newBalance = decimal.Zero
	}

	entry := s.installmentEntry(*loan, installment, loan.InstallmentAmount,
		fmt.Sprintf("%s - installment %d/%d", loan.Description, installment, loan.InstallmentCount))
	if err := s.commitPayment(ctx, *loan, entry, newPaid, newBalance, status); err != nil {
		return nil, err
	}
	s.afterPayment(ctx, userID, entry)

	s.Log.WithFields(logrus.Fields{
		"loan_id":     loanID,
		"installment": installment,
		"status":      status,
	}).Info("installment paid")
	return s.Loans.Get(ctx, loanID)
}

// PrepayInstallments pays count installments ahead of the current position in
// one atomic step, as a single ledger entry of count times the installment.
func (s *LoanService) PrepayInstallments(ctx context.Context, userID, loanID string, count int) (*repository.Loan, error) {
	loan, err := s.activeLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	remaining := loan.InstallmentCount - loan.InstallmentsPaid
	if count < 1 || count > remaining {
		return nil, ErrInvalidInstallmentCount
	}

	// walk the declining balance across the batch
	balance := loan.OutstandingBalance
	working := *loan
	for i := 0; i < count; i++ {
		working.OutstandingBalance = balance
		working.InstallmentsPaid = loan.InstallmentsPaid + i
		balance = balance.Sub(installmentPrincipal(working))
	}
	newPaid := loan.InstallmentsPaid + count
	status := repository.LoanActive
	if newPaid == loan.InstallmentCount {
		status = repository.LoanPaidOff
		balance = decimal.Zero
	}
	if balance.IsNegative() {
		balance = decimal.Zero
	}

	total := loan.InstallmentAmount.Mul(decimal.NewFromInt(int64(count)))
	entry := s.installmentEntry(*loan, newPaid, total,
		fmt.Sprintf("%s - installments %d-%d/%d", loan.Description, loan.InstallmentsPaid+1, newPaid, loan.InstallmentCount))
	if err := s.commitPayment(ctx, *loan, entry, newPaid, balance, status); err != nil {
		return nil, err
	}
	s.afterPayment(ctx, userID, entry)
	return s.Loans.Get(ctx, loanID)
}

// PayOffLoan settles the full outstanding balance in one operation.
func (s *LoanService) PayOffLoan(ctx context.Context, userID, loanID string) (*repository.Loan, error) {
	loan, err := s.activeLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}

	entry := s.installmentEntry(*loan, loan.InstallmentCount, loan.OutstandingBalance,
		fmt.Sprintf("%s - payoff", loan.Description))
	if err := s.commitPayment(ctx, *loan, entry, loan.InstallmentCount, decimal.Zero, repository.LoanPaidOff); err != nil {
		return nil, err
	}
	s.afterPayment(ctx, userID, entry)

	s.Log.WithField("loan_id", loanID).Info("loan paid off")
	return s.Loans.Get(ctx, loanID)
}

func (s *LoanService) activeLoan(ctx context.Context, loanID string) (*repository.Loan, error) {
	loan, err := s.Loans.Get(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan == nil {
		return nil, ErrLoanNotFound
	}
	if loan.Status == repository.LoanPaidOff {
		return nil, ErrLoanPaidOff
	}
	return loan, nil
}

func (s *LoanService) installmentEntry(loan repository.Loan, installment int, amount decimal.Decimal, description string) repository.Transaction {
	subtype := LoanSubtype(loan.ID, installment)
	return repository.Transaction{
		ID:          uuid.NewString(),
		WalletID:    loan.WalletID,
		Date:        database.Day(time.Now()),
		Type:        repository.TypeExpense,
		Amount:      amount,
		Category:    "Loans",
		Description: description,
		Currency:    loan.Currency,
		Subtype:     &subtype,
	}
}

// commitPayment writes the ledger entry and advances the loan inside one
// transaction. The CAS guard failing means another payment moved the loan
// first; the whole transaction rolls back and nothing is half-applied.
func (s *LoanService) commitPayment(ctx context.Context, loan repository.Loan, entry repository.Transaction, newPaid int, newBalance decimal.Decimal, status string) error {
	return database.WithTx(s.DB, func(tx *sql.Tx) error {
		if err := s.Transactions.InsertTx(ctx, tx, entry); err != nil {
			return err
		}
		ok, err := s.Loans.AdvancePaidTx(ctx, tx, loan.ID, loan.InstallmentsPaid, newPaid, newBalance, status)
		if err != nil {
			return err
		}
		if !ok {
			return ErrOutOfOrderInstallment
		}
		return nil
	})
}

func (s *LoanService) afterPayment(ctx context.Context, userID string, entry repository.Transaction) {
	if err := s.Wallets.AdjustBalance(ctx, entry.WalletID, entry.Signed()); err != nil {
		s.Log.WithError(err).WithField("wallet_id", entry.WalletID).Warn("balance adjust failed")
	}
	if s.Game != nil {
		if err := s.Game.RecordActivity(ctx, userID, entry); err != nil {
			s.Log.WithError(err).Warn("gamification recompute failed")
		}
	}
}

// installmentPrincipal is the share of one installment that reduces the
// outstanding balance. With a monthly rate set, interest accrues on the
// current balance first; without one the whole installment is principal.
func installmentPrincipal(loan repository.Loan) decimal.Decimal {
	principal := loan.InstallmentAmount
	if loan.MonthlyRate != nil {
		interest := loan.OutstandingBalance.Mul(*loan.MonthlyRate).Div(decimal.NewFromInt(100)).Round(2)
		principal = loan.InstallmentAmount.Sub(interest)
	}
	if principal.IsNegative() {
		principal = decimal.Zero
	}
	if principal.GreaterThan(loan.OutstandingBalance) {
		principal = loan.OutstandingBalance
	}
	return principal
}

// NextDueDate projects the next installment due date with calendar month
// arithmetic: first due date plus one month per paid installment.
func NextDueDate(loan repository.Loan) time.Time {
	return loan.FirstDueDate.AddDate(0, loan.InstallmentsPaid, 0)
}

// ProjectionScenario is one illustrative prepayment scenario. These are
// deliberate estimates, not amortization-table math: remaining installments
// scale by a fixed ratio and interest savings are a fixed fraction of the
// naive remaining-interest figure.
type ProjectionScenario struct {
	Name                  string          `json:"name"`
	RemainingInstallments int             `json:"remaining_installments"`
	EstimatedSavings      decimal.Decimal `json:"estimated_savings"`
	Approximate           bool            `json:"approximate"`
}

// Projections returns the scenario table for a loan.
func (s *LoanService) Projections(ctx context.Context, loanID string) ([]ProjectionScenario, error) {
	loan, err := s.Loans.Get(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan == nil {
		return nil, ErrLoanNotFound
	}

	remaining := loan.InstallmentCount - loan.InstallmentsPaid
	naiveInterest := loan.InstallmentAmount.Mul(decimal.NewFromInt(int64(remaining))).Sub(loan.OutstandingBalance)
	if naiveInterest.IsNegative() {
		naiveInterest = decimal.Zero
	}

	scale := func(ratio float64) int {
		n := int(float64(remaining)*ratio + 0.5)
		if n < 0 {
			n = 0
		}
		return n
	}
	fraction := func(pct int64) decimal.Decimal {
		return naiveInterest.Mul(decimal.NewFromInt(pct)).Div(decimal.NewFromInt(100)).Round(2)
	}

	return []ProjectionScenario{
		{Name: "current", RemainingInstallments: remaining, EstimatedSavings: decimal.Zero, Approximate: true},
		{Name: "quarterly_prepay", RemainingInstallments: scale(0.75), EstimatedSavings: fraction(15), Approximate: true},
		{Name: "aggressive_prepay", RemainingInstallments: scale(0.60), EstimatedSavings: fraction(30), Approximate: true},
	}, nil
}

// Alert severities.
const (
	AlertDanger  = "danger"
	AlertWarning = "warning"
	AlertInfo    = "info"
)

// InstallmentAlert flags an upcoming or missed installment.
type InstallmentAlert struct {
	LoanID            string          `json:"loan_id"`
	Description       string          `json:"description"`
	Installment       int             `json:"installment"`
	DueDate           time.Time       `json:"due_date"`
	InstallmentAmount decimal.Decimal `json:"installment_amount"`
	Severity          string          `json:"severity"`
}

// Alerts lists active loans whose next installment is overdue or due within
// 30 days. The due date here uses fixed 30-day increments, an estimate kept
// from the original scheduling behavior; NextDueDate is the exact projection.
func (s *LoanService) Alerts(ctx context.Context, today time.Time) ([]InstallmentAlert, error) {
	loans, err := s.Loans.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	today = database.Day(today)
	var out []InstallmentAlert
	for _, loan := range loans {
		due := loan.FirstDueDate.AddDate(0, 0, 30*loan.InstallmentsPaid)
		var severity string
		switch {
		case due.Before(today):
			severity = AlertDanger
		case !due.After(today.AddDate(0, 0, 7)):
			severity = AlertWarning
		case !due.After(today.AddDate(0, 0, 30)):
			severity = AlertInfo
		default:
			continue
		}
		out = append(out, InstallmentAlert{
			LoanID:            loan.ID,
			Description:       loan.Description,
			Installment:       loan.InstallmentsPaid + 1,
			DueDate:           due,
			InstallmentAmount: loan.InstallmentAmount,
			Severity:          severity,
		})
	}
	return out, nil
}
