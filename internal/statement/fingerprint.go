package statement

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Fingerprint computes the stable identity of a statement line within a
// wallet. Same inputs always produce the same output; the import pipeline and
// the persisted store compute it identically, which is what makes re-imports
// idempotent.
func Fingerprint(walletID string, date time.Time, amount decimal.Decimal, description string, bankReference *string) string {
	ref := ""
	if bankReference != nil {
		ref = strings.TrimSpace(*bankReference)
	}
	joined := strings.Join([]string{
		walletID,
		date.Format("2006-01-02"),
		amount.StringFixed(2),
		NormalizeDescription(description),
		ref,
	}, "|")
	sum := sha256.Sum256([]byte(joined))
	return fmt.Sprintf("%x", sum[:])
}

// NormalizeDescription collapses whitespace and case so cosmetic differences
// between exports of the same line do not defeat dedup.
func NormalizeDescription(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}
