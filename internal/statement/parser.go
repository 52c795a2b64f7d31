// Package statement implements the bank-statement import pipeline: raw CSV
// text in, column-mapped signed lines out, with deterministic fingerprinting
// so re-importing the same file is idempotent.
package statement

import (
	"encoding/csv"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jeffersonfukner-hue/moneyquest/internal/money"
)

// Parse-stage errors.
var (
	ErrEmptyFile = errors.New("statement: file has no content")
	ErrNoHeaders = errors.New("statement: first row has no columns")
	ErrNoData    = errors.New("statement: no data rows after header")
)

// Document is the raw parse result before column mapping.
type Document struct {
	Headers   []string
	Rows      [][]string
	Delimiter rune
}

// Parse splits raw statement text into a header row and data rows. Both comma
// and semicolon delimiters are accepted; quoted fields may contain the
// delimiter; trailing blank lines are dropped.
func Parse(raw string) (Document, error) {
	lines := splitNonBlank(raw)
	if len(lines) == 0 {
		return Document{}, ErrEmptyFile
	}

	delim := sniffDelimiter(lines[0])
	r := csv.NewReader(strings.NewReader(strings.Join(lines, "\n")))
	r.Comma = delim
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return Document{}, err
	}
	if len(records) == 0 || len(records[0]) == 0 || (len(records[0]) == 1 && strings.TrimSpace(records[0][0]) == "") {
		return Document{}, ErrNoHeaders
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.TrimSpace(h)
	}
	rows := records[1:]
	if len(rows) == 0 {
		return Document{Headers: headers, Delimiter: delim}, ErrNoData
	}
	return Document{Headers: headers, Rows: rows, Delimiter: delim}, nil
}

func splitNonBlank(raw string) []string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	all := strings.Split(raw, "\n")
	// drop trailing blank lines only; blank lines in the middle are data errors
	end := len(all)
	for end > 0 && strings.TrimSpace(all[end-1]) == "" {
		end--
	}
	start := 0
	for start < end && strings.TrimSpace(all[start]) == "" {
		start++
	}
	return all[start:end]
}

// sniffDelimiter picks semicolon when the header carries more semicolons than
// commas, otherwise comma. Brazilian bank exports are typically semicolon.
func sniffDelimiter(header string) rune {
	if strings.Count(header, ";") > strings.Count(header, ",") {
		return ';'
	}
	return ','
}

// Line is a transformed statement row ready for dedup and persistence.
// Amount is signed: positive credit, negative debit.
type Line struct {
	Date          time.Time
	Description   string
	Amount        decimal.Decimal
	BankReference *string
	Counterparty  *string
}

// dateLayouts are the accepted calendar-day formats, tried in order.
var dateLayouts = []string{"02/01/2006", "02-01-2006", "2006-01-02"}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// TransformWithMappings resolves each row against the chosen column roles.
// Rows missing a resolvable date or amount are skipped and counted, not fatal.
func TransformWithMappings(rows [][]string, mappings []Role) (lines []Line, skipped int) {
	for _, row := range rows {
		line, ok := transformRow(row, mappings)
		if !ok {
			skipped++
			continue
		}
		lines = append(lines, line)
	}
	return lines, skipped
}

func transformRow(row []string, mappings []Role) (Line, bool) {
	var l Line
	var haveDate, haveAmount bool
	amount := decimal.Zero

	cell := func(i int) string {
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	for i, role := range mappings {
		v := cell(i)
		switch role {
		case RoleDate:
			if haveDate || v == "" {
				continue
			}
			d, ok := parseDate(v)
			if !ok {
				continue
			}
			l.Date = d
			haveDate = true
		case RoleDescription:
			if l.Description != "" && v != "" {
				l.Description += " " + v
			} else if v != "" {
				l.Description = v
			}
		case RoleAmount:
			if v == "" {
				continue
			}
			a, err := money.Parse(v)
			if err != nil {
				continue
			}
			amount = a
			haveAmount = true
		case RoleCredit:
			if v == "" {
				continue
			}
			a, err := money.Parse(v)
			if err != nil {
				continue
			}
			amount = amount.Add(a.Abs())
			haveAmount = true
		case RoleDebit:
			if v == "" {
				continue
			}
			a, err := money.Parse(v)
			if err != nil {
				continue
			}
			amount = amount.Sub(a.Abs())
			haveAmount = true
		case RoleBankReference:
			if v != "" {
				ref := v
				l.BankReference = &ref
			}
		case RoleCounterparty:
			if v != "" {
				cp := v
				l.Counterparty = &cp
			}
		}
	}

	if !haveDate || !haveAmount {
		return Line{}, false
	}
	l.Amount = amount
	return l, true
}
