package statement

// DedupeResult is the outcome of filtering an import batch.
type DedupeResult struct {
	Unique     []Line
	Duplicates int
}

// DeduplicateLines drops candidates whose fingerprint already exists for the
// wallet or repeats within the same batch. Pure function: existing is read,
// never mutated, so callers can reuse the set across previews.
func DeduplicateLines(walletID string, candidates []Line, existing map[string]struct{}) DedupeResult {
	seen := make(map[string]struct{}, len(existing)+len(candidates))
	for fp := range existing {
		seen[fp] = struct{}{}
	}

	res := DedupeResult{}
	for _, c := range candidates {
		fp := Fingerprint(walletID, c.Date, c.Amount, c.Description, c.BankReference)
		if _, dup := seen[fp]; dup {
			res.Duplicates++
			continue
		}
		seen[fp] = struct{}{}
		res.Unique = append(res.Unique, c)
	}
	return res
}
