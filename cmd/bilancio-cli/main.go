// Command bilancio-cli analyzes a ledger export offline: it parses the
// file, classifies the transactions and prints a monthly summary, without
// touching the database or the broker.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"bilancio/internal/analytics"
	"bilancio/internal/classify"
	"bilancio/internal/core"
	"bilancio/internal/ledger"
	"bilancio/internal/taxonomy"
)

func main() {
	var (
		ledgerPath = flag.String("ledger", "", "path to the semicolon-delimited bank export (required)")
		rulesPath  = flag.String("rules", "", "optional JSON rule-overrides file")
	)
	flag.Parse()

	if *ledgerPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	raw, err := os.ReadFile(*ledgerPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read ledger: %v\n", err)
		os.Exit(1)
	}

	overrides := taxonomy.NewOverrides()
	if *rulesPath != "" {
		f, err := os.Open(*rulesPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open rules: %v\n", err)
			os.Exit(1)
		}
		overrides, err = taxonomy.DecodeRules(f)
		f.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "parse rules: %v\n", err)
			os.Exit(1)
		}
	}

	txs, skipped := ledger.Parse(string(raw))
	classify.Transactions(txs, overrides)

	fmt.Printf("Parsed %d transactions (%d rows skipped)\n\n", len(txs), skipped)
	if len(txs) == 0 {
		return
	}

	period := fullPeriod(txs)
	report := analytics.CashFlow(txs, period)

	fmt.Println("Cash flow")
	for i, month := range report.Months {
		fmt.Printf("  %-9s in %10.2f   out %10.2f\n", month, report.Income[i], report.Expenses[i])
	}
	fmt.Printf("  %-9s in %10.2f   out %10.2f\n\n", "total", report.TotalIncome, report.TotalExpenses)

	fmt.Println("Spending by area")
	totals := analytics.Totals(analytics.ByArea(txs, period))
	for _, area := range core.AllAreaIDs {
		total, ok := totals[area]
		if !ok || total.Amount.Cents == 0 {
			continue
		}
		fmt.Printf("  %-15s %10.2f\n", area, total.Amount.Float64())
		for _, top := range total.Top {
			fmt.Printf("    %s  %-30s %10.2f\n", top.Date.Format("02/01/2006"), topName(top), top.Amount.Float64())
		}
	}
}

// fullPeriod spans the earliest to the latest transaction date.
func fullPeriod(txs []core.Transaction) core.TimePeriod {
	p := core.TimePeriod{Start: txs[0].Date, End: txs[0].Date}
	for _, tx := range txs[1:] {
		if tx.Date.Before(p.Start) {
			p.Start = tx.Date
		}
		if tx.Date.After(p.End) {
			p.End = tx.Date
		}
	}
	// Widen the end to the last instant of its day so same-day
	// transactions with later clock times stay inside.
	p.End = p.End.Add(24*time.Hour - time.Nanosecond)
	return p
}

func topName(t core.Transaction) string {
	if t.Actor != "" {
		return t.Actor
	}
	return t.ActivityName
}
