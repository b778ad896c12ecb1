package http

import (
	"io"
	"log/slog"
	"net/http"
	"strings"

	"bilancio/internal/analytics"
	"bilancio/internal/core"
	applog "bilancio/internal/log"
	"bilancio/internal/taxonomy"
)

// maxImportBytes bounds the accepted ledger upload size.
const maxImportBytes = 10 << 20 // 10 MiB

// handleImport accepts a raw semicolon-delimited ledger export in the
// request body and imports it.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to read import body", "error", err)
		writeError(w, http.StatusBadRequest, "unreadable request body")
		return
	}
	if len(body) == 0 {
		writeError(w, http.StatusBadRequest, "empty ledger export")
		return
	}

	res, err := s.service.Import(r.Context(), string(body))
	if err != nil {
		slog.ErrorContext(r.Context(), "Import failed", "error", err)
		writeError(w, http.StatusInternalServerError, "import failed")
		return
	}

	s.invalidateAnalytics()

	slog.InfoContext(r.Context(), "Ledger imported",
		applog.NewFields().
			WithComponent(applog.ComponentHTTP).
			WithOperation(applog.OpImport).
			WithImport(res.ImportID, res.RowCount, res.SkippedRows).
			ToSlice()...)

	writeJSON(w, http.StatusCreated, res)
}

// handleRules serves the classification rule overrides: GET returns the
// stored set, POST replaces it and reclassifies stored transactions.
func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		overrides, err := s.service.Rules(r.Context())
		if err != nil {
			slog.ErrorContext(r.Context(), "Failed to load rules", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to load rules")
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if err := taxonomy.EncodeRules(w, overrides); err != nil {
			slog.ErrorContext(r.Context(), "Failed to encode rules", "error", err)
		}

	case http.MethodPost:
		overrides, err := taxonomy.DecodeRules(http.MaxBytesReader(w, r.Body, maxImportBytes))
		if err != nil {
			writeError(w, http.StatusBadRequest, "malformed rules payload")
			return
		}
		if err := s.service.UpdateRules(r.Context(), overrides); err != nil {
			slog.ErrorContext(r.Context(), "Failed to update rules", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to update rules")
			return
		}

		s.invalidateAnalytics()

		slog.InfoContext(r.Context(), "Rules updated",
			applog.FieldOperation, applog.OpRules)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if err := taxonomy.EncodeRules(w, overrides); err != nil {
			slog.ErrorContext(r.Context(), "Failed to encode rules", "error", err)
		}

	default:
		methodNotAllowed(w, "GET, POST")
	}
}

// handleCashFlow returns the monthly income/expense series for a period.
func (s *Server) handleCashFlow(w http.ResponseWriter, r *http.Request) {
	txs, period, ok := s.analyticsInput(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, analytics.CashFlow(txs, period))
}

// handleAreas returns per-area monthly expense series.
func (s *Server) handleAreas(w http.ResponseWriter, r *http.Request) {
	txs, period, ok := s.analyticsInput(w, r)
	if !ok {
		return
	}
	months := analytics.MonthYears(period)
	writeJSON(w, http.StatusOK, buildAreasReport(months, analytics.ByArea(txs, period)))
}

// handleAreaDrilldown returns the per-category breakdown of one area.
func (s *Server) handleAreaDrilldown(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	area := core.AreaID(strings.TrimPrefix(r.URL.Path, "/analytics/areas/"))
	if !validArea(area) {
		writeError(w, http.StatusNotFound, "unknown area")
		return
	}

	txs, period, ok := s.analyticsInput(w, r)
	if !ok {
		return
	}
	months := analytics.MonthYears(period)
	drill := analytics.AreaDrilldown(area, analytics.ByCategory(txs, period))
	writeJSON(w, http.StatusOK, buildDrilldownReport(months, area, drill))
}

// handleCategories returns per-category monthly expense series.
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	txs, period, ok := s.analyticsInput(w, r)
	if !ok {
		return
	}
	months := analytics.MonthYears(period)
	writeJSON(w, http.StatusOK, buildCategoriesReport(months, analytics.ByCategory(txs, period)))
}

// handleSpending returns the Needs/Wants/Savings monthly series.
func (s *Server) handleSpending(w http.ResponseWriter, r *http.Request) {
	txs, period, ok := s.analyticsInput(w, r)
	if !ok {
		return
	}
	months := analytics.MonthYears(period)
	writeJSON(w, http.StatusOK, buildSpendingReport(months, analytics.BySpendingType(txs, period)))
}

// analyticsInput is the shared front half of every analytics handler:
// method check, period parsing, and the cached transaction load.
func (s *Server) analyticsInput(w http.ResponseWriter, r *http.Request) ([]core.Transaction, core.TimePeriod, bool) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return nil, core.TimePeriod{}, false
	}

	period, err := parsePeriod(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, core.TimePeriod{}, false
	}

	txs, err := s.transactionsForPeriod(r.Context(), period)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to load transactions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load transactions")
		return nil, core.TimePeriod{}, false
	}

	return txs, period, true
}

func validArea(area core.AreaID) bool {
	for _, a := range core.AllAreaIDs {
		if a == area {
			return true
		}
	}
	return false
}
