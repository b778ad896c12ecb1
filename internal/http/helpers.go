package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"bilancio/internal/core"
)

// parsePeriod extracts the start/end Unix-millisecond query parameters every
// analytics endpoint requires.
func parsePeriod(r *http.Request) (core.TimePeriod, error) {
	startRaw := strings.TrimSpace(r.URL.Query().Get("start"))
	endRaw := strings.TrimSpace(r.URL.Query().Get("end"))
	if startRaw == "" || endRaw == "" {
		return core.TimePeriod{}, errors.New("missing start or end query parameter")
	}

	start, err := strconv.ParseInt(startRaw, 10, 64)
	if err != nil {
		return core.TimePeriod{}, fmt.Errorf("invalid start parameter %q", startRaw)
	}
	end, err := strconv.ParseInt(endRaw, 10, 64)
	if err != nil {
		return core.TimePeriod{}, fmt.Errorf("invalid end parameter %q", endRaw)
	}

	return core.PeriodFromUnixMillis(start, end), nil
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

func methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
