package http

import (
	"context"
	"errors"
	"net/http"

	applog "shelterstats/internal/log"
	"shelterstats/internal/middleware/trace"
	"shelterstats/internal/sheets"
	"shelterstats/internal/sheets/proxy"
)

const proxyFailure = "Failed to fetch data from Google Sheets"

// setCORS opens the boundary proxy to any origin. The dashboard is served
// from a different host than this API.
func setCORS(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type")
}

// handleSheetsProxy reads the raw sheet and returns it as {data, headers}.
// Concurrent requests share a single upstream read.
func (s *Server) handleSheetsProxy(w http.ResponseWriter, r *http.Request) {
	setCORS(w)

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
		return
	case http.MethodGet, http.MethodHead:
	default:
		w.Header().Set("Allow", "GET, OPTIONS")
		writeError(w, r, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	v, err, shared := s.proxyGroup.Do("values", func() (any, error) {
		// The read outlives any single caller so followers are not cut
		// short when the leader disconnects.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), s.proxyTimeout)
		defer cancel()
		return s.proxy.Values(ctx)
	})
	if shared {
		s.proxyCall("shared")
	}

	var table proxy.Payload
	if err == nil {
		t, buildErr := sheets.BuildTable(v.([][]string))
		table, err = proxy.Payload{Data: t.Rows, Headers: t.Headers}, buildErr
	}

	switch {
	case errors.Is(err, sheets.ErrNoData):
		s.proxyCall("no_data")
		writeError(w, r, http.StatusNotFound, "No data found")
	case err != nil:
		s.proxyCall("error")
		fields := applog.NewFields().
			WithRequestID(trace.GetRequestID(r.Context())).
			WithSource(sheets.SourceOf(s.proxy))
		s.logs.LogError(r.Context(), "Error fetching sheet data", err, applog.ComponentProxy, applog.OpProxy, fields)
		writeJSON(w, r, http.StatusInternalServerError, errorBody{Error: proxyFailure, Details: err.Error()})
	default:
		s.proxyCall("ok")
		writeJSON(w, r, http.StatusOK, table)
	}
}

func (s *Server) proxyCall(outcome string) {
	if s.observer != nil {
		s.observer.ProxyCall(outcome)
	}
}
