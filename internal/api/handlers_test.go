package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/staffsight/backend/internal/cache"
	"github.com/staffsight/backend/internal/types"
)

// stubRebuilder fills the cache with a canned snapshot when invoked.
type stubRebuilder struct {
	cache *cache.SnapshotCache
	snap  *types.Snapshot
	calls int
}

func (s *stubRebuilder) RunOnce(ctx context.Context) {
	s.calls++
	if s.snap != nil {
		s.cache.Set(s.snap)
	}
}

func testSnapshot() *types.Snapshot {
	return &types.Snapshot{
		ID:          "snap-1",
		GeneratedAt: time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC),
		RangeStart:  "2025-03-03",
		RangeEnd:    "2025-03-17",
		HoursPerDay: 8,
		Projects: []types.ProjectSummary{
			{ProjectID: 1, Name: "Website", BudgetHours: 100, HoursLogged: 40, HoursRemaining: 60},
		},
		Daily: []types.DailyAvailabilityRecord{
			{Date: "2025-03-06", DayName: "Thursday", Month: "March", StaffID: "jane@example.com",
				StaffName: "Jane", BookedHours: 0, CapacityHours: 8, AvailableHours: 8, IsFree: true},
			{Date: "2025-03-07", DayName: "Friday", Month: "March", StaffID: "jane@example.com",
				StaffName: "Jane", BookedHours: 6, CapacityHours: 8, AvailableHours: 2, IsFree: false},
		},
		Weekly: []types.WeeklyRecord{
			{WeekStart: "2025-03-03", WeekLabel: "Mar 03", StaffID: "jane@example.com",
				StaffName: "Jane", BookedHours: 6, CapacityHours: 40, AvailableHours: 34, UtilizationPct: 15},
		},
		Staff: []types.StaffSummary{
			{StaffID: "jane@example.com", StaffName: "Jane", BookedHours: 6,
				CapacityHours: 40, AvailableHours: 34, WeekCount: 1, UtilizationPct: 15},
		},
		Capacity: &types.CapacitySummary{
			TotalProjectHoursRemaining: 60,
			TotalStaffAvailableHours:   34,
			CapacityGap:                -26,
			GapStatus:                  types.GapStatusOver,
			StaffCount:                 1,
			ProjectCount:               1,
		},
	}
}

func newTestHandlers(snap *types.Snapshot) (*Handlers, *stubRebuilder) {
	logger := zerolog.New(&bytes.Buffer{})
	c := cache.NewSnapshotCache(5 * time.Minute)
	rb := &stubRebuilder{cache: c, snap: snap}
	return NewHandlers(c, rb, logger), rb
}

func get(t *testing.T, handler http.HandlerFunc, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestGetSnapshotRebuildsOnEmptyCache(t *testing.T) {
	h, rb := newTestHandlers(testSnapshot())

	rec := get(t, h.GetSnapshot, "/api/snapshot")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rb.calls != 1 {
		t.Errorf("expected 1 rebuild on cache miss, got %d", rb.calls)
	}

	var snap types.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.ID != "snap-1" {
		t.Errorf("unexpected snapshot id %q", snap.ID)
	}
}

func TestGetSnapshotServesFreshCacheWithoutRebuild(t *testing.T) {
	h, rb := newTestHandlers(testSnapshot())
	rb.RunOnce(context.Background())
	rb.calls = 0

	rec := get(t, h.GetSnapshot, "/api/snapshot")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rb.calls != 0 {
		t.Errorf("fresh cache should not trigger a rebuild, got %d calls", rb.calls)
	}
}

func TestGetSnapshotUnavailable(t *testing.T) {
	h, _ := newTestHandlers(nil)

	rec := get(t, h.GetSnapshot, "/api/snapshot")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 when nothing can be built, got %d", rec.Code)
	}
}

func TestTableEndpoints(t *testing.T) {
	h, _ := newTestHandlers(testSnapshot())

	tests := []struct {
		name    string
		handler http.HandlerFunc
		target  string
	}{
		{"projects", h.GetProjects, "/api/projects"},
		{"daily", h.GetDaily, "/api/daily"},
		{"weekly", h.GetWeekly, "/api/weekly"},
		{"team", h.GetTeam, "/api/team"},
		{"staff", h.GetStaff, "/api/staff"},
		{"pivot", h.GetPivot, "/api/pivot"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, tt.handler, tt.target)
			if rec.Code != http.StatusOK {
				t.Errorf("expected 200, got %d", rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected application/json, got %q", ct)
			}
		})
	}
}

func TestGetCapacity(t *testing.T) {
	h, _ := newTestHandlers(testSnapshot())

	rec := get(t, h.GetCapacity, "/api/capacity")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var capacity types.CapacitySummary
	if err := json.Unmarshal(rec.Body.Bytes(), &capacity); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if capacity.GapStatus != types.GapStatusOver || capacity.CapacityGap != -26 {
		t.Errorf("unexpected capacity: %+v", capacity)
	}
}

func TestGetCapacityMissingComparison(t *testing.T) {
	snap := testSnapshot()
	snap.Capacity = nil
	h, _ := newTestHandlers(snap)

	rec := get(t, h.GetCapacity, "/api/capacity")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 without a comparison, got %d", rec.Code)
	}
}

func TestGetAvailability(t *testing.T) {
	h, _ := newTestHandlers(testSnapshot())

	rec := get(t, h.GetAvailability, "/api/availability?q=full+thursday+in+march")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp availabilityResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Query.DayName != "Thursday" || resp.Query.MonthName != "March" || !resp.Query.FullDay {
		t.Errorf("unexpected parsed query: %+v", resp.Query)
	}
	if len(resp.Results) != 1 || resp.Results[0].Date != "2025-03-06" {
		t.Errorf("unexpected results: %+v", resp.Results)
	}
}

func TestGetAvailabilityNoMatches(t *testing.T) {
	h, _ := newTestHandlers(testSnapshot())

	rec := get(t, h.GetAvailability, "/api/availability?q=monday")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp availabilityResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Results == nil || len(resp.Results) != 0 {
		t.Errorf("expected empty array, got %+v", resp.Results)
	}
}

func TestGetAvailabilityMissingQuery(t *testing.T) {
	h, _ := newTestHandlers(testSnapshot())

	rec := get(t, h.GetAvailability, "/api/availability")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without q, got %d", rec.Code)
	}
}

func TestPostRefresh(t *testing.T) {
	h, rb := newTestHandlers(testSnapshot())

	req := httptest.NewRequest(http.MethodPost, "/api/refresh", nil)
	rec := httptest.NewRecorder()
	h.PostRefresh(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rb.calls != 1 {
		t.Errorf("expected 1 forced rebuild, got %d", rb.calls)
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["snapshotId"] != "snap-1" {
		t.Errorf("unexpected refresh response: %v", resp)
	}
}
