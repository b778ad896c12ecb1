// This file shapes analytics aggregates into the JSON the API returns:
// month labels once per response, and per-group amount arrays aligned with
// them, so charting clients never re-derive the time axis.

package http

import (
	"bilancio/internal/analytics"
	"bilancio/internal/core"
	"bilancio/internal/taxonomy"
)

// transactionJSON is the wire form of a single transaction inside a
// top-transactions shortlist.
type transactionJSON struct {
	Date     string  `json:"date"`
	Type     string  `json:"type"`
	Name     string  `json:"name"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Locality string  `json:"locality,omitempty"`
	Actor    string  `json:"actor,omitempty"`
	Category string  `json:"category,omitempty"`
}

func toTransactionJSON(t core.Transaction) transactionJSON {
	return transactionJSON{
		Date:     t.Date.Format("02/01/2006"),
		Type:     t.ActivityType.String(),
		Name:     t.ActivityName,
		Amount:   t.Amount.Float64(),
		Currency: t.Currency,
		Locality: t.Locality,
		Actor:    t.Actor,
		Category: string(t.Category),
	}
}

func toTransactionsJSON(txs []core.Transaction) []transactionJSON {
	out := make([]transactionJSON, len(txs))
	for i, tx := range txs {
		out[i] = toTransactionJSON(tx)
	}
	return out
}

// groupReportJSON is one group (area, category or spending type) of a
// bucketed report. Amounts align with the enclosing response's months.
type groupReportJSON struct {
	ID      string            `json:"id"`
	Name    string            `json:"name,omitempty"`
	Label   string            `json:"label,omitempty"`
	Amounts []float64         `json:"amounts"`
	Total   float64           `json:"total"`
	Top     []transactionJSON `json:"top"`
}

func buildGroupReport(id, name, label string, months []string, s *analytics.Series) groupReportJSON {
	g := groupReportJSON{
		ID:      id,
		Name:    name,
		Label:   label,
		Amounts: make([]float64, len(months)),
	}
	var sum int64
	for i, m := range months {
		if bucket, ok := s.Months[m]; ok {
			g.Amounts[i] = bucket.Amount.Float64()
			sum += bucket.Amount.Cents
		}
	}
	g.Total = core.Money{Cents: sum}.Float64()
	g.Top = toTransactionsJSON(s.Top)
	return g
}

type areasReportJSON struct {
	Months []string          `json:"months"`
	Areas  []groupReportJSON `json:"areas"`
}

func buildAreasReport(months []string, byArea map[core.AreaID]*analytics.Series) areasReportJSON {
	report := areasReportJSON{Months: months, Areas: make([]groupReportJSON, 0, len(core.AllAreaIDs))}
	for _, area := range core.AllAreaIDs {
		s, ok := byArea[area]
		if !ok {
			continue
		}
		report.Areas = append(report.Areas, buildGroupReport(string(area), "", "", months, s))
	}
	return report
}

type categoriesReportJSON struct {
	Months     []string          `json:"months"`
	Categories []groupReportJSON `json:"categories"`
}

func buildCategoriesReport(months []string, byCategory map[core.CategoryID]*analytics.Series) categoriesReportJSON {
	report := categoriesReportJSON{Months: months, Categories: make([]groupReportJSON, 0, len(core.AllCategoryIDs))}
	for _, id := range core.AllCategoryIDs {
		s, ok := byCategory[id]
		if !ok {
			continue
		}
		cat := taxonomy.Default[id]
		report.Categories = append(report.Categories, buildGroupReport(string(id), cat.DisplayName, cat.Label, months, s))
	}
	return report
}

type drilldownReportJSON struct {
	Months     []string          `json:"months"`
	Area       string            `json:"area"`
	Categories []groupReportJSON `json:"categories"`
}

func buildDrilldownReport(months []string, area core.AreaID, drill []analytics.CategorySeries) drilldownReportJSON {
	report := drilldownReportJSON{
		Months:     months,
		Area:       string(area),
		Categories: make([]groupReportJSON, 0, len(drill)),
	}
	for _, cs := range drill {
		cat := taxonomy.Default[cs.Category]
		report.Categories = append(report.Categories, buildGroupReport(string(cs.Category), cat.DisplayName, cat.Label, months, cs.Series))
	}
	return report
}

type spendingReportJSON struct {
	Months []string          `json:"months"`
	Types  []groupReportJSON `json:"types"`
}

func buildSpendingReport(months []string, byType map[core.SpendingType]*analytics.Series) spendingReportJSON {
	report := spendingReportJSON{Months: months, Types: make([]groupReportJSON, 0, len(core.AllSpendingTypes))}
	for _, st := range core.AllSpendingTypes {
		s, ok := byType[st]
		if !ok {
			continue
		}
		report.Types = append(report.Types, buildGroupReport(string(st), "", "", months, s))
	}
	return report
}
