package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"-45.67", "-45.67"},
		{"+45.67", "45.67"},
		{"3500", "3500"},
		{"1,234.56", "1234.56"},
		{"1.234,56", "1234.56"},
		{"-1.234,56", "-1234.56"},
		{"R$ 12,50", "12.5"},
		{"$100.00", "100"},
		{"(250.00)", "-250"},
		{"(R$ 1.000,00)", "-1000"},
		{"0,99", "0.99"},
	}
	for _, tc := range cases {
		got, err := Parse(tc.in)
		require.NoError(t, err, "input %q", tc.in)
		require.True(t, got.Equal(decimal.RequireFromString(tc.want)), "input %q: got %s want %s", tc.in, got, tc.want)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "   ", "abc", "12,34,56.78.90"} {
		_, err := Parse(in)
		require.Error(t, err, "input %q", in)
	}
}

func TestEqualWithinEpsilon(t *testing.T) {
	t.Parallel()

	a := decimal.RequireFromString("100.00")
	require.True(t, Equal(a, decimal.RequireFromString("100.004")))
	require.False(t, Equal(a, decimal.RequireFromString("100.005")))
	require.False(t, Equal(a, decimal.RequireFromString("100.01")))

	require.True(t, EqualAbs(a, decimal.RequireFromString("-100.00")))
	require.False(t, EqualAbs(a, decimal.RequireFromString("-100.02")))
}
