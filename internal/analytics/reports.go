// Package analytics derives time-bucketed aggregates from categorized
// transactions. Every derivation is a pure function of a transaction
// collection and a time period; nothing here mutates its input or keeps
// state between calls.
//
// Amounts are accumulated in cents and converted to floats only where a
// report surfaces them, so monthly sums never compound rounding error.
package analytics

import (
	"sort"

	"bilancio/internal/core"
	"bilancio/internal/taxonomy"
)

// TopTransactionsCount bounds every top-transaction shortlist, per month
// bucket and per group.
const TopTransactionsCount = 3

// Bucket is one month of one group: the summed amount plus the largest
// transactions that landed in it.
type Bucket struct {
	Amount core.Money
	Top    []core.Transaction
}

// Series is the per-month breakdown of one group over a period. Months
// holds an entry for every enumerated month, zeroed where the group had no
// activity, so consumers can rely on aligned parallel arrays.
type Series struct {
	Months map[string]*Bucket
	Top    []core.Transaction // largest transactions of the whole period
}

// Total is the collapsed form of a Series: one amount and one shortlist
// per group, the shape pie and summary views consume.
type Total struct {
	Amount core.Money
	Top    []core.Transaction
}

// CashFlowReport carries the monthly income/expense series for a period.
// Income and Expenses are aligned with Months; values are currency units
// rounded to two decimals.
type CashFlowReport struct {
	Months        []string  `json:"months"`
	Income        []float64 `json:"income"`
	Expenses      []float64 `json:"expenses"`
	TotalIncome   float64   `json:"totalIncome"`
	TotalExpenses float64   `json:"totalExpenses"`
}

// CashFlow sums credits and debits per month over the period. Unlike the
// expense aggregations it looks at every transaction, categorized or not.
func CashFlow(txs []core.Transaction, p core.TimePeriod) CashFlowReport {
	months := MonthYears(p)

	income := make(map[string]int64, len(months))
	expense := make(map[string]int64, len(months))
	for _, tx := range txs {
		if !p.Contains(tx.Date) {
			continue
		}
		label := monthLabel(tx.Date)
		switch tx.ActivityType {
		case core.Credit:
			income[label] += tx.Amount.Cents
		case core.Debit:
			expense[label] += tx.Amount.Cents
		}
	}

	report := CashFlowReport{
		Months:   months,
		Income:   make([]float64, len(months)),
		Expenses: make([]float64, len(months)),
	}
	var totalIn, totalOut int64
	for i, label := range months {
		report.Income[i] = core.Money{Cents: income[label]}.Float64()
		report.Expenses[i] = core.Money{Cents: expense[label]}.Float64()
		totalIn += income[label]
		totalOut += expense[label]
	}
	report.TotalIncome = core.Money{Cents: totalIn}.Float64()
	report.TotalExpenses = core.Money{Cents: totalOut}.Float64()
	return report
}

// ByArea buckets categorized expenses by the parent area of their category.
func ByArea(txs []core.Transaction, p core.TimePeriod) map[core.AreaID]*Series {
	return groupSeries(txs, p, core.AllAreaIDs, func(tx core.Transaction) (core.AreaID, bool) {
		if tx.Category == "" {
			return "", false
		}
		return taxonomy.CategoryArea(tx.Category), true
	})
}

// ByCategory buckets categorized expenses by category id, the drill-down
// target of the area view.
func ByCategory(txs []core.Transaction, p core.TimePeriod) map[core.CategoryID]*Series {
	return groupSeries(txs, p, core.AllCategoryIDs, func(tx core.Transaction) (core.CategoryID, bool) {
		return tx.Category, tx.Category != ""
	})
}

// BySpendingType buckets categorized expenses by their Need/Want/Saving
// tag. Transactions whose category carries no tag contribute to no bucket
// at all.
func BySpendingType(txs []core.Transaction, p core.TimePeriod) map[core.SpendingType]*Series {
	return groupSeries(txs, p, core.AllSpendingTypes, func(tx core.Transaction) (core.SpendingType, bool) {
		if tx.Category == "" {
			return "", false
		}
		st := taxonomy.CategorySpendingType(tx.Category)
		return st, st != ""
	})
}

// groupSeries is the shared bucketing loop: expenses inside the period are
// keyed by keyOf and folded into per-month buckets with bounded top lists.
// Every key in keys gets a series with every month present, even when zero.
func groupSeries[K comparable](
	txs []core.Transaction,
	p core.TimePeriod,
	keys []K,
	keyOf func(core.Transaction) (K, bool),
) map[K]*Series {
	months := MonthYears(p)

	out := make(map[K]*Series, len(keys))
	for _, k := range keys {
		s := &Series{Months: make(map[string]*Bucket, len(months))}
		for _, label := range months {
			s.Months[label] = &Bucket{}
		}
		out[k] = s
	}

	for _, tx := range txs {
		if tx.ActivityType != core.Debit || !p.Contains(tx.Date) {
			continue
		}
		key, ok := keyOf(tx)
		if !ok {
			continue
		}
		series, ok := out[key]
		if !ok {
			continue
		}

		label := monthLabel(tx.Date)
		bucket, ok := series.Months[label]
		if !ok {
			bucket = &Bucket{}
			series.Months[label] = bucket
		}
		bucket.Amount = bucket.Amount.Add(tx.Amount)
		bucket.Top = pushTop(bucket.Top, tx)
		series.Top = pushTop(series.Top, tx)
	}

	return out
}

// pushTop inserts a transaction into a bounded shortlist, keeping it sorted
// descending by amount. The sort is stable so equal amounts keep their
// insertion order before truncation.
func pushTop(list []core.Transaction, tx core.Transaction) []core.Transaction {
	list = append(list, tx)
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Amount.Cents > list[j].Amount.Cents
	})
	if len(list) > TopTransactionsCount {
		list = list[:TopTransactionsCount]
	}
	return list
}

// Totals collapses a bucketed aggregation into one total and one shortlist
// per group. The group total is the sum of its monthly buckets.
func Totals[K comparable](series map[K]*Series) map[K]Total {
	out := make(map[K]Total, len(series))
	for key, s := range series {
		var sum int64
		for _, bucket := range s.Months {
			sum += bucket.Amount.Cents
		}
		out[key] = Total{
			Amount: core.Money{Cents: sum},
			Top:    s.Top,
		}
	}
	return out
}

// CategorySeries pairs a category with its precomputed series, in the
// declaration order the drill-down view lists them.
type CategorySeries struct {
	Category core.CategoryID
	Series   *Series
}

// AreaDrilldown narrows the category-level aggregation to the categories of
// one area. It reuses the series computed by ByCategory rather than
// re-bucketing the transactions.
func AreaDrilldown(area core.AreaID, byCategory map[core.CategoryID]*Series) []CategorySeries {
	ids := taxonomy.AreaCategories(area)
	out := make([]CategorySeries, 0, len(ids))
	for _, id := range ids {
		if s, ok := byCategory[id]; ok {
			out = append(out, CategorySeries{Category: id, Series: s})
		}
	}
	return out
}
