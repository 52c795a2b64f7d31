package statement

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestParseCommaDelimited(t *testing.T) {
	t.Parallel()

	raw := strings.Join([]string{
		"Date,Description,Amount",
		`01/03/2026,"COFFEE, DOWNTOWN",-12.50`,
		"02/03/2026,SALARY,3500.00",
		"",
		"",
	}, "\n")

	doc, err := Parse(raw)
	require.NoError(t, err)
	require.Equal(t, ',', doc.Delimiter)
	require.Equal(t, []string{"Date", "Description", "Amount"}, doc.Headers)
	require.Len(t, doc.Rows, 2)
	require.Equal(t, "COFFEE, DOWNTOWN", doc.Rows[0][1])
}

func TestParseSemicolonDelimited(t *testing.T) {
	t.Parallel()

	raw := strings.Join([]string{
		"Data;Histórico;Valor",
		"01/03/2026;PIX RECEBIDO;1.234,56",
	}, "\r\n")

	doc, err := Parse(raw)
	require.NoError(t, err)
	require.Equal(t, ';', doc.Delimiter)
	require.Len(t, doc.Rows, 1)
	require.Equal(t, "1.234,56", doc.Rows[0][2])
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	_, err := Parse("")
	require.ErrorIs(t, err, ErrEmptyFile)

	_, err = Parse("\n   \n\n")
	require.ErrorIs(t, err, ErrEmptyFile)

	_, err = Parse("Date,Description,Amount\n")
	require.ErrorIs(t, err, ErrNoData)
}

func TestDetectColumnRoleHeaders(t *testing.T) {
	t.Parallel()

	cases := []struct {
		header string
		want   Role
	}{
		{"Data", RoleDate},
		{"Date", RoleDate},
		{"Data do Lançamento", RoleDate},
		{"Valor", RoleAmount},
		{"Amount", RoleAmount},
		{"Valor Crédito", RoleCredit},
		{"Credit", RoleCredit},
		{"Valor Débito", RoleDebit},
		{"Debit", RoleDebit},
		{"Histórico", RoleDescription},
		{"Descrição", RoleDescription},
		{"Documento", RoleBankReference},
		{"Favorecido", RoleCounterparty},
		{"???", RoleIgnore},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, DetectColumnRole(tc.header, nil), "header %q", tc.header)
	}
}

func TestDetectColumnRoleSampleFallback(t *testing.T) {
	t.Parallel()

	require.Equal(t, RoleDate, DetectColumnRole("col1", []string{"01/02/2026", "15/02/2026"}))
	require.Equal(t, RoleAmount, DetectColumnRole("col2", []string{"-12,50", "1.234,56"}))
	require.Equal(t, RoleIgnore, DetectColumnRole("col3", []string{"free text", "more text"}))
	require.Equal(t, RoleIgnore, DetectColumnRole("col4", []string{"", "  "}))
}

func TestValidateMappings(t *testing.T) {
	t.Parallel()

	errs := ValidateMappings([]Role{RoleDate, RoleDescription, RoleAmount})
	require.Empty(t, errs)

	errs = ValidateMappings([]Role{RoleDate, RoleDescription, RoleCredit, RoleDebit})
	require.Empty(t, errs)

	errs = ValidateMappings([]Role{RoleIgnore, RoleIgnore})
	require.Len(t, errs, 3)
	kinds := map[MappingErrorKind]bool{}
	for _, e := range errs {
		kinds[e.Kind] = true
	}
	require.True(t, kinds[MissingDate])
	require.True(t, kinds[MissingDescription])
	require.True(t, kinds[MissingValue])

	// credit without debit does not satisfy the value requirement
	errs = ValidateMappings([]Role{RoleDate, RoleDescription, RoleCredit})
	require.Len(t, errs, 1)
	require.Equal(t, MissingValue, errs[0].Kind)
}

func TestTransformWithMappings(t *testing.T) {
	t.Parallel()

	rows := [][]string{
		{"01/03/2026", "SALARY", "3500.00", ""},
		{"02/03/2026", "RENT", "", "1800.00"},
		{"not-a-date", "BROKEN", "10.00", ""},
		{"03/03/2026", "NO AMOUNT", "", ""},
	}
	mappings := []Role{RoleDate, RoleDescription, RoleCredit, RoleDebit}

	lines, skipped := TransformWithMappings(rows, mappings)
	require.Equal(t, 2, skipped)
	require.Len(t, lines, 2)

	require.Equal(t, "SALARY", lines[0].Description)
	require.True(t, lines[0].Amount.Equal(decimal.RequireFromString("3500.00")), "credit is positive, got %s", lines[0].Amount)
	require.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), lines[0].Date)

	require.Equal(t, "RENT", lines[1].Description)
	require.True(t, lines[1].Amount.Equal(decimal.RequireFromString("-1800.00")), "debit is negative, got %s", lines[1].Amount)
}

func TestTransformJoinsDescriptionColumns(t *testing.T) {
	t.Parallel()

	rows := [][]string{{"2026-03-05", "PIX", "JOHN DOE", "-50.00"}}
	mappings := []Role{RoleDate, RoleDescription, RoleDescription, RoleAmount}

	lines, skipped := TransformWithMappings(rows, mappings)
	require.Zero(t, skipped)
	require.Len(t, lines, 1)
	require.Equal(t, "PIX JOHN DOE", lines[0].Description)
}

func TestFingerprintDeterministic(t *testing.T) {
	t.Parallel()

	date := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	amount := decimal.RequireFromString("-12.50")
	ref := "DOC123"

	a := Fingerprint("w1", date, amount, "Coffee  Shop", &ref)
	b := Fingerprint("w1", date, amount, "coffee shop", &ref)
	require.Equal(t, a, b, "case and whitespace must not change identity")

	c := Fingerprint("w2", date, amount, "coffee shop", &ref)
	require.NotEqual(t, a, c, "wallet is part of the identity")

	d := Fingerprint("w1", date, amount, "coffee shop", nil)
	require.NotEqual(t, a, d, "bank reference is part of the identity")

	require.Len(t, a, 64)
}

func TestDeduplicateLines(t *testing.T) {
	t.Parallel()

	date := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	mk := func(desc string, amount string) Line {
		return Line{Date: date, Description: desc, Amount: decimal.RequireFromString(amount)}
	}

	known := mk("KNOWN", "-10.00")
	existing := map[string]struct{}{
		Fingerprint("w1", known.Date, known.Amount, known.Description, nil): {},
	}

	batch := []Line{
		known,                // already persisted
		mk("FRESH", "-5.00"), // new
		mk("FRESH", "-5.00"), // intra-batch repeat
		mk("OTHER", "20.00"),
	}

	res := DeduplicateLines("w1", batch, existing)
	require.Equal(t, 2, res.Duplicates)
	require.Len(t, res.Unique, 2)
	require.Equal(t, "FRESH", res.Unique[0].Description)
	require.Equal(t, "OTHER", res.Unique[1].Description)
	require.Len(t, existing, 1, "existing set must not be mutated")
}
