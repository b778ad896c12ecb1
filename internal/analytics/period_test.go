package analytics

import (
	"testing"
	"time"

	"bilancio/internal/core"
)

func period(start, end time.Time) core.TimePeriod {
	return core.TimePeriod{Start: start, End: end}
}

func TestMonthYearsInclusiveSpan(t *testing.T) {
	p := period(
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.Local),
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.Local),
	)

	got := MonthYears(p)
	want := []string{
		"Jan 2025", "Feb 2025", "Mar 2025", "Apr 2025", "May 2025", "Jun 2025",
		"Jul 2025", "Aug 2025", "Sep 2025", "Oct 2025", "Nov 2025", "Dec 2025",
		"Jan 2026",
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d labels, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("label %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestMonthYearsSingleMonth(t *testing.T) {
	d := time.Date(2025, 1, 1, 0, 0, 0, 0, time.Local)
	got := MonthYears(period(d, d))
	if len(got) != 1 || got[0] != "Jan 2025" {
		t.Fatalf("expected [Jan 2025], got %v", got)
	}
}

func TestMonthYearsEndBeforeStart(t *testing.T) {
	got := MonthYears(period(
		time.Date(2025, 1, 2, 0, 0, 0, 0, time.Local),
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.Local),
	))
	if len(got) != 0 {
		t.Fatalf("expected empty sequence, got %v", got)
	}
}

func TestMonthYearsMidMonthBounds(t *testing.T) {
	// The months containing the bounds are included even when the bounds
	// fall mid-month.
	got := MonthYears(period(
		time.Date(2025, 1, 31, 0, 0, 0, 0, time.Local),
		time.Date(2025, 2, 1, 0, 0, 0, 0, time.Local),
	))
	if len(got) != 2 || got[0] != "Jan 2025" || got[1] != "Feb 2025" {
		t.Fatalf("expected [Jan 2025 Feb 2025], got %v", got)
	}
}
