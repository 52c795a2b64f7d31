package statement

import (
	"fmt"
	"regexp"
	"strings"
)

// Role classifies what a statement column contains.
type Role string

const (
	RoleDate          Role = "date"
	RoleDescription   Role = "description"
	RoleAmount        Role = "amount"
	RoleCredit        Role = "credit"
	RoleDebit         Role = "debit"
	RoleBankReference Role = "bank_reference"
	RoleCounterparty  Role = "counterparty"
	RoleIgnore        Role = "ignore"
)

// headerRules map header text to a role. Order is the priority order; the
// first matching rule wins. The amount rule excludes crédito/débito headers
// so split-column exports resolve to credit and debit, not amount.
var headerRules = []struct {
	role Role
	re   *regexp.Regexp
}{
	{RoleDate, regexp.MustCompile(`(?i)^data|date|dia\b|vencimento|lan[cç]amento`)},
	{RoleAmount, regexp.MustCompile(`(?i)^(valor|amount|montante|total|quantia)\s*$`)},
	{RoleCredit, regexp.MustCompile(`(?i)cr[eé]dito|credit|entrada|deposit`)},
	{RoleDebit, regexp.MustCompile(`(?i)d[eé]bito|debit|sa[ií]da|withdrawal`)},
	{RoleAmount, regexp.MustCompile(`(?i)valor|amount|montante|total|quantia`)},
	{RoleDescription, regexp.MustCompile(`(?i)descri|hist[oó]rico|description|memo|detalhe|narrative`)},
	{RoleBankReference, regexp.MustCompile(`(?i)documento|doc\b|refer[eê]ncia|reference|n[uú]mero|id\b`)},
	{RoleCounterparty, regexp.MustCompile(`(?i)favorecido|benefici[aá]rio|counterparty|payee|destinat`)},
}

var (
	datePattern    = regexp.MustCompile(`^\d{1,2}[/-]\d{1,2}[/-]\d{2,4}$|^\d{4}-\d{2}-\d{2}$`)
	numericPattern = regexp.MustCompile(`^[+-]?\(?R?\$?\s*[\d.,]+\)?$`)
	creditHint     = regexp.MustCompile(`(?i)cr|entrada|in\b`)
	debitHint      = regexp.MustCompile(`(?i)db|db\b|saida|out\b`)
)

// DetectColumnRole infers a default role for one column from its header text,
// falling back to sampling up to 5 non-empty values. The result is a default
// only; the caller lets the user override every mapping before commit.
func DetectColumnRole(header string, samples []string) Role {
	h := strings.TrimSpace(header)
	if h != "" {
		if r, ok := matchHeader(h); ok {
			return r
		}
	}

	picked := 0
	allDates, allNumeric := true, true
	for _, s := range samples {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		picked++
		if !datePattern.MatchString(s) {
			allDates = false
		}
		if !numericPattern.MatchString(s) {
			allNumeric = false
		}
		if picked == 5 {
			break
		}
	}
	if picked == 0 {
		return RoleIgnore
	}
	if allDates {
		return RoleDate
	}
	if allNumeric {
		switch {
		case creditHint.MatchString(h):
			return RoleCredit
		case debitHint.MatchString(h):
			return RoleDebit
		default:
			return RoleAmount
		}
	}
	return RoleIgnore
}

func matchHeader(h string) (Role, bool) {
	for _, rule := range headerRules {
		if rule.re.MatchString(h) {
			return rule.role, true
		}
	}
	return RoleIgnore, false
}

// MappingErrorKind identifies a missing required column.
type MappingErrorKind string

const (
	MissingDate        MappingErrorKind = "missing_date"
	MissingDescription MappingErrorKind = "missing_description"
	MissingValue       MappingErrorKind = "missing_value"
)

// MappingError is one itemized validation failure surfaced before commit.
type MappingError struct {
	Kind    MappingErrorKind
	Message string
}

func (e MappingError) Error() string { return fmt.Sprintf("statement: %s", e.Message) }

// ValidateMappings checks that the chosen roles can produce importable lines:
// at least one date column, one description column, and either an amount
// column or a credit and a debit column.
func ValidateMappings(mappings []Role) []MappingError {
	var hasDate, hasDesc, hasAmount, hasCredit, hasDebit bool
	for _, r := range mappings {
		switch r {
		case RoleDate:
			hasDate = true
		case RoleDescription:
			hasDesc = true
		case RoleAmount:
			hasAmount = true
		case RoleCredit:
			hasCredit = true
		case RoleDebit:
			hasDebit = true
		}
	}

	var errs []MappingError
	if !hasDate {
		errs = append(errs, MappingError{Kind: MissingDate, Message: "no column mapped as date"})
	}
	if !hasDesc {
		errs = append(errs, MappingError{Kind: MissingDescription, Message: "no column mapped as description"})
	}
	if !hasAmount && !(hasCredit && hasDebit) {
		errs = append(errs, MappingError{Kind: MissingValue, Message: "map an amount column, or both credit and debit columns"})
	}
	return errs
}

// DetectAllRoles runs DetectColumnRole for each column of a parsed document.
func DetectAllRoles(doc Document) []Role {
	roles := make([]Role, len(doc.Headers))
	for i, h := range doc.Headers {
		samples := make([]string, 0, 5)
		for _, row := range doc.Rows {
			if i < len(row) && strings.TrimSpace(row[i]) != "" {
				samples = append(samples, row[i])
				if len(samples) == 5 {
					break
				}
			}
		}
		roles[i] = DetectColumnRole(h, samples)
	}
	return roles
}
