// Package classify assigns spending categories to expense transactions by
// matching their descriptions against the taxonomy rule table.
package classify

import (
	"strings"

	"bilancio/internal/core"
	"bilancio/internal/taxonomy"
)

// Transactions assigns a category, in place, to every eligible transaction.
//
// Eligible means: a debit whose category is unset or still the fallback.
// Anything the user recategorized by hand stays untouched, which makes
// repeated calls idempotent even as the overrides table grows. Credits are
// never classified.
//
// Overrides may be nil; phrases are merged onto a copy of the defaults, so
// the built-in table stays pristine across calls.
func Transactions(txs []core.Transaction, overrides taxonomy.Overrides) {
	table := taxonomy.Default
	if len(overrides) > 0 {
		table = taxonomy.WithOverrides(taxonomy.Default, overrides)
	}

	for i := range txs {
		tx := &txs[i]
		if tx.ActivityType == core.Credit {
			continue
		}
		if tx.Category != "" && tx.Category != core.CategoryUncategorized {
			continue
		}
		tx.Category = match(tx, table)
	}
}

// match returns the first category, in declaration order, with a phrase
// contained in the transaction's search text. First match wins.
func match(tx *core.Transaction, table taxonomy.Table) core.CategoryID {
	search := strings.ToLower(tx.ActivityName + " " + tx.Actor)
	for _, id := range core.AllCategoryIDs {
		for _, phrase := range table[id].Matches {
			if strings.Contains(search, strings.ToLower(phrase)) {
				return id
			}
		}
	}
	return core.CategoryUncategorized
}
