package analytics

import (
	"time"

	"bilancio/internal/core"
)

// monthLabel formats the month-year bucket key, e.g. "Jan 2025".
func monthLabel(t time.Time) string {
	return t.Format("Jan 2006")
}

// MonthYears enumerates the calendar months spanned by the period, from the
// month containing Start to the month containing End, both inclusive. An
// End before Start yields an empty sequence, not an error.
func MonthYears(p core.TimePeriod) []string {
	if p.End.Before(p.Start) {
		return nil
	}

	cursor := time.Date(p.Start.Year(), p.Start.Month(), 1, 0, 0, 0, 0, p.Start.Location())
	last := time.Date(p.End.Year(), p.End.Month(), 1, 0, 0, 0, 0, p.End.Location())

	var out []string
	for !cursor.After(last) {
		out = append(out, monthLabel(cursor))
		cursor = cursor.AddDate(0, 1, 0)
	}
	return out
}
