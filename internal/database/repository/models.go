package repository

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types.
const (
	TypeIncome  = "income"
	TypeExpense = "expense"
)

// Subtypes never eligible for bank-line matching: wallet-internal movements.
const (
	SubtypeTransferOut    = "transfer_out"
	SubtypeTransferIn     = "transfer_in"
	SubtypeCardPayment    = "card_payment"
	SubtypeCashAdjustment = "cash_adjustment"
)

// Reconciliation statuses and match types.
const (
	MatchAuto    = "auto"
	MatchManual  = "manual"
	MatchCreated = "created"

	StatusReconciled = "reconciled"
	StatusCreated    = "created"
	StatusIgnored    = "ignored"
)

// Loan statuses.
const (
	LoanActive  = "active"
	LoanPaidOff = "paid_off"
)

// Wallet represents a wallet row.
type Wallet struct {
	ID             string
	Name           string
	Currency       string
	CurrentBalance decimal.Decimal
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Transaction represents a ledger entry row. Amount is always positive; the
// sign of the movement is derived from Type.
type Transaction struct {
	ID          string
	WalletID    string
	Date        time.Time
	Type        string
	Amount      decimal.Decimal
	Category    string
	Description string
	Currency    string
	Subtype     *string
	Supplier    *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Signed returns the amount with the sign implied by Type.
func (t Transaction) Signed() decimal.Decimal {
	if t.Type == TypeExpense {
		return t.Amount.Neg()
	}
	return t.Amount
}

// BankLine represents one imported statement row. Amount is signed:
// positive credit, negative debit.
type BankLine struct {
	ID              string
	WalletID        string
	TransactionDate time.Time
	Description     string
	Amount          decimal.Decimal
	BankReference   *string
	Counterparty    *string
	Fingerprint     string
	CreatedAt       time.Time
}

// Reconciliation links a bank line to a ledger entry.
type Reconciliation struct {
	ID            string
	BankLineID    string
	TransactionID string
	MatchType     string
	Confidence    *float64
	Status        string
	CreatedAt     time.Time
}

// Loan represents a loan row.
type Loan struct {
	ID                 string
	WalletID           string
	Description        string
	TotalAmount        decimal.Decimal
	InstallmentCount   int
	InstallmentsPaid   int
	InstallmentAmount  decimal.Decimal
	MonthlyRate        *decimal.Decimal
	FirstDueDate       time.Time
	OutstandingBalance decimal.Decimal
	Status             string
	Currency           string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Profile represents gamification state for a user.
type Profile struct {
	UserID         string
	XP             int
	Streak         int
	LastActiveDate *time.Time
	TotalIncome    decimal.Decimal
	TotalExpenses  decimal.Decimal
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Quest represents a quest row for one period window.
type Quest struct {
	ID              string
	UserID          string
	QuestKey        string
	QuestType       string
	ProgressCurrent int
	ProgressTarget  int
	XPReward        int
	IsCompleted     bool
	IsActive        bool
	PeriodStart     time.Time
	PeriodEnd       time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Badge represents a badge row; UnlockedAt nil means still locked.
type Badge struct {
	ID         string
	UserID     string
	BadgeKey   string
	Kind       string
	Threshold  decimal.Decimal
	UnlockedAt *time.Time
}

// ScheduledTransaction is a recurring template materialized into ledger
// entries when next_run comes due.
type ScheduledTransaction struct {
	ID          string
	WalletID    string
	UserID      string
	Description string
	Category    string
	Type        string
	Amount      decimal.Decimal
	Currency    string
	Recurrence  string
	NextRun     time.Time
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// dayLayout is how calendar-day columns are stored (no time component).
const dayLayout = "2006-01-02"

func fmtDay(t time.Time) string { return t.Format(dayLayout) }

func parseDay(s string) (time.Time, error) {
	return time.Parse(dayLayout, s)
}

// scanner handles both Row and Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}
