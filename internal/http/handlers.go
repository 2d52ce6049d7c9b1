package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	applog "shelterstats/internal/log"
	"shelterstats/internal/middleware/trace"
	"shelterstats/internal/storage"
	"shelterstats/internal/worker"
)

const recentRuns = 10

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady reports ready once a dataset has been loaded at least once.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.refresher == nil || !s.refresher.Ready() {
		writeJSON(w, r, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"reason": "no dataset loaded yet",
		})
		return
	}
	ds := s.refresher.Current()
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":  "ready",
		"version": ds.Version,
		"data":    ds.Status.String(),
	})
}

type statusResponse struct {
	Status     string               `json:"status"`
	Stale      bool                 `json:"stale"`
	Version    uint64               `json:"version"`
	Records    int                  `json:"records"`
	Dropped    int                  `json:"dropped"`
	Source     string               `json:"source,omitempty"`
	LoadedAt   *time.Time           `json:"loaded_at,omitempty"`
	CheckedAt  *time.Time           `json:"checked_at,omitempty"`
	LastError  string               `json:"last_error,omitempty"`
	Refreshing bool                 `json:"refreshing"`
	Cache      cacheStatus          `json:"cache"`
	RecentRuns []storage.RefreshRun `json:"recent_runs,omitempty"`
	RunCounts  map[string]int64     `json:"run_counts,omitempty"`
}

type cacheStatus struct {
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
}

// handleStatus describes the current dataset and the latest refresh runs.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ds := s.refresher.Current()
	resp := statusResponse{Status: "unavailable", Stale: true}
	if ds != nil {
		resp = statusResponse{
			Status:    ds.Status.String(),
			Stale:     ds.Stale(),
			Version:   ds.Version,
			Records:   len(ds.Records),
			Dropped:   ds.Dropped,
			Source:    ds.Source,
			LoadedAt:  timePtr(ds.LoadedAt),
			CheckedAt: timePtr(ds.CheckedAt),
			LastError: ds.LastError,
		}
	}
	resp.Refreshing = s.refresher.InFlight()
	resp.Cache.Hits, resp.Cache.Misses = s.stats.CacheStats()

	if s.journal != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		runs, err := s.journal.RecentRefreshes(ctx, recentRuns)
		cancel()
		if err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Failed to read refresh journal",
				applog.FieldOperation, applog.OpRead, applog.FieldError, err)
		} else {
			resp.RecentRuns = runs
		}
	}
	if s.counts != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		counts, err := s.counts.RefreshCounts(ctx)
		cancel()
		if err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Failed to count refresh runs",
				applog.FieldOperation, applog.OpRead, applog.FieldError, err)
		} else {
			resp.RunCounts = counts
		}
	}

	writeJSON(w, r, http.StatusOK, resp)
}

// handleRefresh starts a background refresh. Requests made while one is
// running are refused, not queued.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	err := s.refresher.Trigger(worker.TriggerManual)
	if errors.Is(err, worker.ErrRefreshInFlight) {
		writeError(w, r, http.StatusConflict, "A refresh is already in progress")
		return
	}
	if err != nil {
		fields := applog.NewFields().WithRequestID(trace.GetRequestID(r.Context()))
		s.logs.LogError(r.Context(), "Failed to trigger refresh", err, applog.ComponentRefresh, applog.OpRefresh, fields)
		writeError(w, r, http.StatusInternalServerError, "Failed to start refresh")
		return
	}
	writeJSON(w, r, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *Server) handleHighlights(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.highlights)
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
