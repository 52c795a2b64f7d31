package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jeffersonfukner-hue/moneyquest/internal/statement"
)

const sampleStatement = `Date,Description,Amount
01/03/2026,SALARY MARCH,3500.00
02/03/2026,COFFEE SHOP,-12.50
03/03/2026,RENT MARCH,-1800.00
`

func standardMappings() []statement.Role {
	return []statement.Role{statement.RoleDate, statement.RoleDescription, statement.RoleAmount}
}

func TestCheckFile(t *testing.T) {
	t.Parallel()

	svc := &ImportService{MaxFileBytes: 100}
	require.NoError(t, svc.CheckFile("extrato.csv", 50))
	require.NoError(t, svc.CheckFile("extrato.TXT", 50))
	require.ErrorIs(t, svc.CheckFile("extrato.xlsx", 50), ErrInvalidFileType)
	require.ErrorIs(t, svc.CheckFile("extrato.csv", 101), ErrFileTooLarge)
}

func TestPreviewInfersRoles(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	env := newTestEnv(t)
	svc := &ImportService{BankLines: env.lines, Wallets: env.wallets, Log: env.log}

	preview, err := svc.Preview(ctx, env.walletID, sampleStatement)
	require.NoError(t, err)
	require.Equal(t, []string{"Date", "Description", "Amount"}, preview.Headers)
	require.Equal(t, standardMappings(), preview.Roles)
	require.Equal(t, 3, preview.RowCount)
	require.Len(t, preview.SampleRows, 3)

	_, err = svc.Preview(ctx, "no-such-wallet", sampleStatement)
	require.ErrorIs(t, err, ErrWalletNotFound)
}

func TestCommitThenReimportIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	env := newTestEnv(t)
	svc := &ImportService{BankLines: env.lines, Wallets: env.wallets, Log: env.log}

	res, mappingErrs, err := svc.Commit(ctx, env.walletID, sampleStatement, standardMappings())
	require.NoError(t, err)
	require.Empty(t, mappingErrs)
	require.Equal(t, 3, res.Imported)
	require.Equal(t, 0, res.Duplicates)
	require.Equal(t, 0, res.SkippedRows)

	lines, err := env.lines.ListByWallet(ctx, env.walletID)
	require.NoError(t, err)
	require.Len(t, lines, 3)

	// re-importing the same file must not create anything
	res, mappingErrs, err = svc.Commit(ctx, env.walletID, sampleStatement, standardMappings())
	require.NoError(t, err)
	require.Empty(t, mappingErrs)
	require.Equal(t, 0, res.Imported)
	require.Equal(t, 3, res.Duplicates)

	lines, err = env.lines.ListByWallet(ctx, env.walletID)
	require.NoError(t, err)
	require.Len(t, lines, 3)
}

func TestCommitMappingErrorsBlockPersistence(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	env := newTestEnv(t)
	svc := &ImportService{BankLines: env.lines, Wallets: env.wallets, Log: env.log}

	res, mappingErrs, err := svc.Commit(ctx, env.walletID, sampleStatement,
		[]statement.Role{statement.RoleIgnore, statement.RoleDescription, statement.RoleAmount})
	require.NoError(t, err)
	require.Nil(t, res)
	require.Len(t, mappingErrs, 1)
	require.Equal(t, statement.MissingDate, mappingErrs[0].Kind)

	lines, err := env.lines.ListByWallet(ctx, env.walletID)
	require.NoError(t, err)
	require.Empty(t, lines)
}

func TestCommitCountsSkippedRows(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	env := newTestEnv(t)
	svc := &ImportService{BankLines: env.lines, Wallets: env.wallets, Log: env.log}

	raw := strings.Join([]string{
		"Date,Description,Amount",
		"01/03/2026,OK,10.00",
		"garbage,BAD DATE,10.00",
		"02/03/2026,NO AMOUNT,",
	}, "\n")

	res, mappingErrs, err := svc.Commit(ctx, env.walletID, raw, standardMappings())
	require.NoError(t, err)
	require.Empty(t, mappingErrs)
	require.Equal(t, 1, res.Imported)
	require.Equal(t, 2, res.SkippedRows)
}

func TestCommitRespectsMaxRows(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	env := newTestEnv(t)
	svc := &ImportService{BankLines: env.lines, Wallets: env.wallets, Log: env.log, MaxRows: 2}

	res, mappingErrs, err := svc.Commit(ctx, env.walletID, sampleStatement, standardMappings())
	require.NoError(t, err)
	require.Empty(t, mappingErrs)
	require.Equal(t, 2, res.Imported)
}
