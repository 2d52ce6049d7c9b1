package http

import (
	"net/http"
	"time"

	applog "shelterstats/internal/log"
	"shelterstats/internal/services"
)

func (s *Server) handleYearToDate(w http.ResponseWriter, r *http.Request) {
	asOf, startYear, ok := s.windowParams(w, r)
	if !ok {
		return
	}
	points, meta := s.stats.YearToDate(asOf, startYear)
	s.writeStats(w, r, meta, points)
}

func (s *Server) handleFullYear(w http.ResponseWriter, r *http.Request) {
	asOf, startYear, ok := s.windowParams(w, r)
	if !ok {
		return
	}
	points, meta := s.stats.FullYear(asOf, startYear)
	s.writeStats(w, r, meta, points)
}

func (s *Server) handleMonthly(w http.ResponseWriter, r *http.Request) {
	years, err := parseYearList(r, "years")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	rows, meta := s.stats.Monthly(years)
	s.writeStats(w, r, meta, rows)
}

func (s *Server) handleShares(w http.ResponseWriter, r *http.Request) {
	year, err := parseYearParam(r, "year")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	rows, meta := s.stats.Shares(year)
	s.writeStats(w, r, meta, rows)
}

// windowParams parses as_of and start_year, answering 400 on bad input.
func (s *Server) windowParams(w http.ResponseWriter, r *http.Request) (asOf time.Time, startYear int, ok bool) {
	asOf, err := parseAsOf(r, s.stats.Location())
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return asOf, 0, false
	}
	startYear, err = parseYearParam(r, "start_year")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return asOf, 0, false
	}
	return asOf, startYear, true
}

// writeStats answers 503 until a first dataset exists; afterwards results are
// served even when the dataset is stale, with X-Data-Status telling which.
func (s *Server) writeStats(w http.ResponseWriter, r *http.Request, meta services.Meta, body any) {
	writeDataHeaders(w, meta)
	fields := applog.NewFields().
		WithOperation(applog.OpQuery).
		WithDataset(meta.Version, meta.Status.String(), meta.Records)
	applog.FromContext(r.Context()).DebugContext(r.Context(), "Stats served", fields.ToSlice()...)
	if meta.Version == 0 {
		writeError(w, r, http.StatusServiceUnavailable, "Adoption records are not loaded yet")
		return
	}
	writeJSON(w, r, http.StatusOK, body)
}
