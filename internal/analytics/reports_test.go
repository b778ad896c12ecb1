package analytics

import (
	"testing"
	"time"

	"bilancio/internal/core"
)

func tx(day int, month time.Month, typ core.ActivityType, cents int64, cat core.CategoryID, name string) core.Transaction {
	return core.Transaction{
		Date:         time.Date(2025, month, day, 0, 0, 0, 0, time.Local),
		ActivityType: typ,
		ActivityName: name,
		Amount:       core.Money{Cents: cents},
		Currency:     "CHF",
		Category:     cat,
	}
}

func q1() core.TimePeriod {
	return core.TimePeriod{
		Start: time.Date(2025, 1, 1, 0, 0, 0, 0, time.Local),
		End:   time.Date(2025, 3, 31, 0, 0, 0, 0, time.Local),
	}
}

func TestCashFlow(t *testing.T) {
	txs := []core.Transaction{
		tx(5, 1, core.Credit, 500000, "", "Salary"),
		tx(6, 1, core.Debit, 120050, core.CategoryRent, "Rent January"),
		tx(7, 2, core.Debit, 3000, core.CategoryGroceries, "Migros"),
		tx(1, 6, core.Debit, 9999, core.CategoryRent, "outside period"),
	}

	report := CashFlow(txs, q1())

	if len(report.Months) != 3 {
		t.Fatalf("expected 3 months, got %v", report.Months)
	}
	if len(report.Income) != 3 || len(report.Expenses) != 3 {
		t.Fatal("series must be aligned with the month labels")
	}
	if report.Income[0] != 5000.00 || report.Expenses[0] != 1200.50 {
		t.Fatalf("unexpected January values: %v %v", report.Income[0], report.Expenses[0])
	}
	if report.Expenses[1] != 30.00 || report.Expenses[2] != 0 {
		t.Fatalf("unexpected Feb/Mar expenses: %v %v", report.Expenses[1], report.Expenses[2])
	}
	if report.TotalIncome != 5000.00 || report.TotalExpenses != 1230.50 {
		t.Fatalf("unexpected totals: %v %v", report.TotalIncome, report.TotalExpenses)
	}
}

func TestByAreaBucketsAndZeroFills(t *testing.T) {
	txs := []core.Transaction{
		tx(6, 1, core.Debit, 120050, core.CategoryRent, "Rent"),
		tx(7, 1, core.Debit, 8000, core.CategoryUtilities, "EWZ"),
		tx(10, 2, core.Debit, 3000, core.CategoryGroceries, "Migros"),
	}

	byArea := ByArea(txs, q1())

	// Every area has a series and every series has every month.
	if len(byArea) != len(core.AllAreaIDs) {
		t.Fatalf("expected %d areas, got %d", len(core.AllAreaIDs), len(byArea))
	}
	for area, s := range byArea {
		if len(s.Months) != 3 {
			t.Fatalf("area %q is missing month buckets: %d", area, len(s.Months))
		}
	}

	housing := byArea[core.AreaHousing]
	if housing.Months["Jan 2025"].Amount.Cents != 128050 {
		t.Fatalf("expected 128050 in Jan Housing, got %d", housing.Months["Jan 2025"].Amount.Cents)
	}
	if housing.Months["Feb 2025"].Amount.Cents != 0 {
		t.Fatal("months without activity must be zero, not missing")
	}
	if byArea[core.AreaFood].Months["Feb 2025"].Amount.Cents != 3000 {
		t.Fatal("Groceries must land in the Food area")
	}
	if byArea[core.AreaEntertainment].Months["Mar 2025"].Amount.Cents != 0 {
		t.Fatal("idle areas must still be zero-filled")
	}
}

func TestGroupSeriesSkipsCreditsAndUnclassified(t *testing.T) {
	txs := []core.Transaction{
		tx(5, 1, core.Credit, 500000, "", "Salary"),
		tx(6, 1, core.Debit, 1000, "", "not yet classified"),
	}

	byCat := ByCategory(txs, q1())
	for id, s := range byCat {
		for label, bucket := range s.Months {
			if bucket.Amount.Cents != 0 {
				t.Fatalf("unexpected amount for %q in %q", id, label)
			}
		}
	}
}

func TestTopKBoundedSortedStable(t *testing.T) {
	txs := []core.Transaction{
		tx(1, 1, core.Debit, 100, core.CategoryGroceries, "first"),
		tx(2, 1, core.Debit, 300, core.CategoryGroceries, "second"),
		tx(3, 1, core.Debit, 200, core.CategoryGroceries, "third"),
		tx(4, 1, core.Debit, 200, core.CategoryGroceries, "fourth"), // tie with third
		tx(5, 1, core.Debit, 50, core.CategoryGroceries, "fifth"),
	}

	byCat := ByCategory(txs, q1())
	top := byCat[core.CategoryGroceries].Top

	if len(top) != TopTransactionsCount {
		t.Fatalf("expected %d entries, got %d", TopTransactionsCount, len(top))
	}
	if top[0].ActivityName != "second" {
		t.Fatalf("expected largest first, got %q", top[0].ActivityName)
	}
	// Tie between third and fourth: insertion order wins.
	if top[1].ActivityName != "third" || top[2].ActivityName != "fourth" {
		t.Fatalf("tie broken unstably: %q %q", top[1].ActivityName, top[2].ActivityName)
	}
	for i := 1; i < len(top); i++ {
		if top[i].Amount.Cents > top[i-1].Amount.Cents {
			t.Fatal("top list must be sorted descending by amount")
		}
	}
}

func TestTotalsMatchMonthlySums(t *testing.T) {
	txs := []core.Transaction{
		tx(6, 1, core.Debit, 120050, core.CategoryRent, "Rent Jan"),
		tx(6, 2, core.Debit, 120050, core.CategoryRent, "Rent Feb"),
		tx(6, 3, core.Debit, 120050, core.CategoryRent, "Rent Mar"),
	}

	byArea := ByArea(txs, q1())
	totals := Totals(byArea)

	var monthly int64
	for _, bucket := range byArea[core.AreaHousing].Months {
		monthly += bucket.Amount.Cents
	}
	if totals[core.AreaHousing].Amount.Cents != monthly {
		t.Fatalf("total %d != monthly sum %d", totals[core.AreaHousing].Amount.Cents, monthly)
	}
	if totals[core.AreaHousing].Amount.Cents != 360150 {
		t.Fatalf("expected 360150, got %d", totals[core.AreaHousing].Amount.Cents)
	}
	if len(totals[core.AreaHousing].Top) != 3 {
		t.Fatalf("expected a full shortlist, got %d", len(totals[core.AreaHousing].Top))
	}
}

func TestBySpendingTypeExcludesUntagged(t *testing.T) {
	txs := []core.Transaction{
		tx(6, 1, core.Debit, 1000, core.CategoryRent, "Rent"),             // Need
		tx(7, 1, core.Debit, 2000, core.CategoryTravel, "Hotel"),          // Want
		tx(8, 1, core.Debit, 3000, core.CategoryInvestment, "Pillar3a"),   // Saving
		tx(9, 1, core.Debit, 4000, core.CategoryUncategorized, "Mystery"), // no tag
	}

	byType := BySpendingType(txs, q1())
	totals := Totals(byType)

	if totals[core.SpendingNeed].Amount.Cents != 1000 {
		t.Fatalf("expected 1000 Needs, got %d", totals[core.SpendingNeed].Amount.Cents)
	}
	if totals[core.SpendingWant].Amount.Cents != 2000 {
		t.Fatalf("expected 2000 Wants, got %d", totals[core.SpendingWant].Amount.Cents)
	}
	if totals[core.SpendingSaving].Amount.Cents != 3000 {
		t.Fatalf("expected 3000 Savings, got %d", totals[core.SpendingSaving].Amount.Cents)
	}
	var all int64
	for _, tot := range totals {
		all += tot.Amount.Cents
	}
	if all != 6000 {
		t.Fatalf("untagged category leaked into spending types: total %d", all)
	}
}

func TestAreaDrilldownReusesCategorySeries(t *testing.T) {
	txs := []core.Transaction{
		tx(6, 1, core.Debit, 120050, core.CategoryRent, "Rent"),
		tx(7, 1, core.Debit, 8000, core.CategoryUtilities, "EWZ"),
		tx(8, 1, core.Debit, 3000, core.CategoryGroceries, "Migros"),
	}

	byCategory := ByCategory(txs, q1())
	drill := AreaDrilldown(core.AreaHousing, byCategory)

	want := []core.CategoryID{core.CategoryRent, core.CategoryUtilities, core.CategoryHouseInsurance}
	if len(drill) != len(want) {
		t.Fatalf("expected %d categories, got %d", len(want), len(drill))
	}
	for i, cs := range drill {
		if cs.Category != want[i] {
			t.Fatalf("drilldown order: expected %q at %d, got %q", want[i], i, cs.Category)
		}
		// Same pointer: the precomputed series is reused, not recomputed.
		if cs.Series != byCategory[cs.Category] {
			t.Fatal("drilldown must reuse the category series")
		}
	}
}

func TestAggregationsWithEmptyInput(t *testing.T) {
	empty := core.TimePeriod{
		Start: time.Date(2025, 2, 1, 0, 0, 0, 0, time.Local),
		End:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.Local),
	}

	if got := CashFlow(nil, empty); len(got.Months) != 0 {
		t.Fatalf("expected no months, got %v", got.Months)
	}
	byArea := ByArea(nil, empty)
	for _, s := range byArea {
		if len(s.Months) != 0 || len(s.Top) != 0 {
			t.Fatal("inverted period must yield empty series")
		}
	}
}
