// Package api serves the aggregated capacity tables over HTTP. Every read
// endpoint answers from the snapshot cache; a missing or stale snapshot
// triggers a synchronous rebuild before responding.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/staffsight/backend/internal/cache"
	"github.com/staffsight/backend/internal/query"
	"github.com/staffsight/backend/internal/types"
)

// Rebuilder rebuilds the snapshot on demand. Satisfied by refresh.Refresher.
type Rebuilder interface {
	RunOnce(ctx context.Context)
}

// Handlers answers the REST API from the snapshot cache.
type Handlers struct {
	cache     *cache.SnapshotCache
	rebuilder Rebuilder
	logger    zerolog.Logger
}

// NewHandlers creates the API handler set.
func NewHandlers(c *cache.SnapshotCache, rebuilder Rebuilder, logger zerolog.Logger) *Handlers {
	return &Handlers{
		cache:     c,
		rebuilder: rebuilder,
		logger:    logger.With().Str("component", "api").Logger(),
	}
}

// snapshot returns a usable snapshot, rebuilding synchronously when the
// cache is empty or past its TTL.
func (h *Handlers) snapshot(ctx context.Context) *types.Snapshot {
	if snap, fresh := h.cache.Get(); fresh {
		return snap
	}
	if h.rebuilder != nil {
		h.rebuilder.RunOnce(ctx)
	}
	return h.cache.Latest()
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode response")
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}

// withSnapshot runs fn over the current snapshot, answering 503 when no
// snapshot could be produced at all.
func (h *Handlers) withSnapshot(w http.ResponseWriter, r *http.Request, fn func(*types.Snapshot) any) {
	snap := h.snapshot(r.Context())
	if snap == nil {
		h.writeError(w, http.StatusServiceUnavailable, "no snapshot available")
		return
	}
	h.writeJSON(w, http.StatusOK, fn(snap))
}

// GetSnapshot serves the entire snapshot.
func (h *Handlers) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	h.withSnapshot(w, r, func(s *types.Snapshot) any { return s })
}

// GetProjects serves the project budget summaries.
func (h *Handlers) GetProjects(w http.ResponseWriter, r *http.Request) {
	h.withSnapshot(w, r, func(s *types.Snapshot) any { return s.Projects })
}

// GetDaily serves the daily availability table.
func (h *Handlers) GetDaily(w http.ResponseWriter, r *http.Request) {
	h.withSnapshot(w, r, func(s *types.Snapshot) any { return s.Daily })
}

// GetWeekly serves the weekly aggregation.
func (h *Handlers) GetWeekly(w http.ResponseWriter, r *http.Request) {
	h.withSnapshot(w, r, func(s *types.Snapshot) any { return s.Weekly })
}

// GetTeam serves the per-week team rollup.
func (h *Handlers) GetTeam(w http.ResponseWriter, r *http.Request) {
	h.withSnapshot(w, r, func(s *types.Snapshot) any { return s.Team })
}

// GetStaff serves the per-staff period rollup.
func (h *Handlers) GetStaff(w http.ResponseWriter, r *http.Request) {
	h.withSnapshot(w, r, func(s *types.Snapshot) any { return s.Staff })
}

// GetPivot serves the staff x week utilization matrix.
func (h *Handlers) GetPivot(w http.ResponseWriter, r *http.Request) {
	h.withSnapshot(w, r, func(s *types.Snapshot) any { return s.Pivot })
}

// GetCapacity serves the capacity reconciliation. 404 when either source
// side is missing and no comparison exists.
func (h *Handlers) GetCapacity(w http.ResponseWriter, r *http.Request) {
	snap := h.snapshot(r.Context())
	if snap == nil {
		h.writeError(w, http.StatusServiceUnavailable, "no snapshot available")
		return
	}
	if snap.Capacity == nil {
		h.writeError(w, http.StatusNotFound, "capacity comparison requires both a budget and a calendar source")
		return
	}
	h.writeJSON(w, http.StatusOK, snap.Capacity)
}

// availabilityResponse pairs the parsed query with its matches so callers
// can see how their text was interpreted.
type availabilityResponse struct {
	Query   query.Query                     `json:"query"`
	Results []types.DailyAvailabilityRecord `json:"results"`
}

// GetAvailability filters the daily table with a free-text query, e.g.
// /api/availability?q=full+thursday+in+march.
func (h *Handlers) GetAvailability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		h.writeError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}

	h.withSnapshot(w, r, func(s *types.Snapshot) any {
		parsed, results := query.Run(q, s.Daily)
		if results == nil {
			results = []types.DailyAvailabilityRecord{}
		}
		return availabilityResponse{Query: parsed, Results: results}
	})
}

// PostRefresh forces an immediate rebuild and returns the new snapshot id.
func (h *Handlers) PostRefresh(w http.ResponseWriter, r *http.Request) {
	if h.rebuilder == nil {
		h.writeError(w, http.StatusServiceUnavailable, "refresh not available")
		return
	}
	h.rebuilder.RunOnce(r.Context())

	snap := h.cache.Latest()
	if snap == nil {
		h.writeError(w, http.StatusServiceUnavailable, "refresh produced no snapshot")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{
		"snapshotId":  snap.ID,
		"generatedAt": snap.GeneratedAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}
