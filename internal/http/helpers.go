package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"shelterstats/internal/services"
)

const (
	minYear     = 1900
	maxYear     = 9999
	maxYearList = 10
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.WarnContext(r.Context(), "Failed to encode response", "component", "http", "path", r.URL.Path, "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, errorBody{Error: msg})
}

// writeDataHeaders describes the dataset a stats response was computed from.
func writeDataHeaders(w http.ResponseWriter, meta services.Meta) {
	h := w.Header()
	h.Set("X-Data-Status", meta.Status.String())
	h.Set("X-Data-Version", strconv.FormatUint(meta.Version, 10))
	if !meta.LoadedAt.IsZero() {
		h.Set("X-Data-Loaded-At", meta.LoadedAt.UTC().Format(time.RFC3339))
	}
}

// parseAsOf reads as_of as YYYY-MM-DD in loc. Empty means zero time.
func parseAsOf(r *http.Request, loc *time.Location) (time.Time, error) {
	v := strings.TrimSpace(r.URL.Query().Get("as_of"))
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, v, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("as_of must be a date formatted as YYYY-MM-DD")
	}
	return t, nil
}

// parseYearParam reads one year parameter. Empty means zero.
func parseYearParam(r *http.Request, name string) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return 0, nil
	}
	return parseYear(name, v)
}

func parseYear(name, v string) (int, error) {
	y, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || y < minYear || y > maxYear {
		return 0, fmt.Errorf("%s must be a year between %d and %d", name, minYear, maxYear)
	}
	return y, nil
}

// parseYearList reads a comma-separated list of years, keeping the first
// occurrence of each.
func parseYearList(r *http.Request, name string) ([]int, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return nil, nil
	}
	var years []int
	seen := make(map[int]bool)
	for _, part := range strings.Split(v, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		y, err := parseYear(name, part)
		if err != nil {
			return nil, err
		}
		if seen[y] {
			continue
		}
		seen[y] = true
		years = append(years, y)
	}
	if len(years) > maxYearList {
		return nil, fmt.Errorf("%s accepts at most %d years", name, maxYearList)
	}
	return years, nil
}
