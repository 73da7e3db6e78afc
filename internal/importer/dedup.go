package importer

import (
	"strconv"
	"strings"

	"github.com/cleared-dev/finimport/internal/id"
	"github.com/cleared-dev/finimport/internal/model"
)

const fingerprintPrefix = "fp:"

// DedupKey identifies a transaction across imports: the bank's external ID
// when present, otherwise a fingerprint of date, signed amount and
// description.
func DedupKey(t model.ParsedTransaction) string {
	if t.ExternalID != "" {
		return "ext:" + t.ExternalID
	}
	return fingerprintPrefix + id.Fingerprint(t.Date, t.Signed(), t.Description)
}

// Deduplicate drops transactions whose key is already in seen. The n-th
// occurrence of a fingerprint within txns is keyed "<fp>#n", so identical
// rows on one statement are all kept and only collide with the n-th
// occurrence imported before. Kept keys are added to seen and returned in
// the same order as kept.
func Deduplicate(txns []model.ParsedTransaction, seen map[string]bool) (kept []model.ParsedTransaction, keys []string, dropped int) {
	occurrences := make(map[string]int)
	for _, t := range txns {
		key := DedupKey(t)
		if strings.HasPrefix(key, fingerprintPrefix) {
			occurrences[key]++
			if n := occurrences[key]; n > 1 {
				key += "#" + strconv.Itoa(n)
			}
		}
		if seen[key] {
			dropped++
			continue
		}
		seen[key] = true
		kept = append(kept, t)
		keys = append(keys, key)
	}
	return kept, keys, dropped
}
