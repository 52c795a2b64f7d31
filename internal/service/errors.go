package service

import "errors"

// Operation errors surfaced to the API boundary. Each aborts the specific
// operation and leaves all other state untouched.
var (
	ErrBankLineNotFound    = errors.New("bank line not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrNotPending          = errors.New("bank line is not pending")
	ErrAlreadyReconciled   = errors.New("transaction already holds an active reconciliation")

	ErrLoanNotFound            = errors.New("loan not found")
	ErrLoanPaidOff             = errors.New("loan is already paid off")
	ErrOutOfOrderInstallment   = errors.New("installments must be paid in order")
	ErrInvalidInstallmentCount = errors.New("invalid installment count")

	ErrFileTooLarge    = errors.New("file exceeds the import size limit")
	ErrInvalidFileType = errors.New("only .csv and .txt files can be imported")

	ErrProfileNotFound = errors.New("profile not found")
)
