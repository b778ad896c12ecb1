// Package ledger parses the semicolon-delimited bank export into
// transactions.
//
// The export is terse and noisy: it interleaves real income/expense events
// with currency exchanges, card bonuses and blank lines. The parser is
// deliberately lenient: rows it cannot read as a monetary event are
// skipped and counted, never surfaced as errors.
package ledger

import (
	"log/slog"
	"strings"
	"time"

	"bilancio/internal/core"
)

// Positional indexes of the fields we read from each row. Everything else
// in the row is ignored.
const (
	fieldDate           = 0
	fieldActivityName   = 2
	fieldDebitAmount    = 3
	fieldDebitCurrency  = 4
	fieldCreditAmount   = 5
	fieldCreditCurrency = 6
	fieldLocality       = 8
	fieldDebitActor     = 9
	fieldCreditActor    = 10
)

// minFields is one past the highest index we read.
const minFields = fieldCreditActor + 1

// Parse converts raw export text into transactions, preserving row order.
// The first row is a header and is always discarded. The second return
// value counts skipped rows; it is a diagnostic only and does not change
// which rows are accepted.
func Parse(raw string) ([]core.Transaction, int) {
	lines := strings.Split(raw, "\n")
	if len(lines) > 0 {
		lines = lines[1:] // header
	}

	var (
		txs     []core.Transaction
		skipped int
	)
	for _, line := range lines {
		tx, ok := parseRow(line)
		if !ok {
			skipped++
			continue
		}
		txs = append(txs, tx)
	}
	return txs, skipped
}

func parseRow(line string) (core.Transaction, bool) {
	fields := strings.Split(line, ";")
	if len(fields) < minFields {
		// Too few delimiters: blank line or junk. Same policy as a row
		// with no amounts.
		slog.Debug("Skipping short ledger row", "fields", len(fields))
		return core.Transaction{}, false
	}

	debitRaw := strings.TrimSpace(fields[fieldDebitAmount])
	creditRaw := strings.TrimSpace(fields[fieldCreditAmount])

	switch {
	case debitRaw != "" && creditRaw != "":
		// Both sides present: an internal currency exchange, not an
		// income/expense event.
		slog.Debug("Skipping exchange row", "line", line)
		return core.Transaction{}, false
	case debitRaw == "" && creditRaw == "":
		// Neither side present: bonus rows, rewards, empty lines.
		slog.Debug("Skipping non-monetary row", "line", line)
		return core.Transaction{}, false
	}

	date, err := parseDate(fields[fieldDate])
	if err != nil {
		slog.Debug("Skipping row with unreadable date", "date", fields[fieldDate], "error", err)
		return core.Transaction{}, false
	}

	if creditRaw != "" {
		cents, err := core.ParseSignedCents(creditRaw)
		if err != nil {
			slog.Debug("Skipping row with unreadable credit amount", "amount", creditRaw, "error", err)
			return core.Transaction{}, false
		}
		return core.Transaction{
			Date:         date,
			ActivityType: core.Credit,
			ActivityName: stripQuotes(fields[fieldActivityName]),
			Amount:       core.Money{Cents: cents}.Abs(),
			Currency:     fields[fieldCreditCurrency],
			Locality:     fields[fieldLocality],
			Actor:        stripQuotes(fields[fieldCreditActor]),
		}, true
	}

	// Debits are encoded as negative numbers; the magnitude is the amount.
	cents, err := core.ParseSignedCents(debitRaw)
	if err != nil {
		slog.Debug("Skipping row with unreadable debit amount", "amount", debitRaw, "error", err)
		return core.Transaction{}, false
	}
	return core.Transaction{
		Date:         date,
		ActivityType: core.Debit,
		ActivityName: stripQuotes(fields[fieldActivityName]),
		Amount:       core.Money{Cents: cents}.Abs(),
		Currency:     fields[fieldDebitCurrency],
		Locality:     fields[fieldLocality],
		Actor:        stripQuotes(fields[fieldDebitActor]),
	}, true
}

// parseDate reads the DD/MM/YYYY export format into midnight local time.
func parseDate(s string) (time.Time, error) {
	return time.ParseInLocation("02/01/2006", strings.TrimSpace(s), time.Local)
}

// stripQuotes drops every double-quote character. Exported text fields come
// wrapped in doubled or tripled quotes depending on the row type.
func stripQuotes(s string) string {
	return strings.ReplaceAll(s, `"`, "")
}
