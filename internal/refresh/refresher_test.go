package refresh

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/staffsight/backend/internal/cache"
	"github.com/staffsight/backend/internal/config"
	"github.com/staffsight/backend/internal/engine"
	"github.com/staffsight/backend/internal/websocket"
)

func testConfig() *config.Config {
	return &config.Config{
		WeeksAhead:      2,
		HoursPerDay:     8,
		WorkDayStart:    8,
		WorkDayEnd:      17,
		RefreshInterval: 50 * time.Millisecond,
	}
}

func newTestRefresher(cfg *config.Config) (*Refresher, *cache.SnapshotCache, *websocket.Hub) {
	logger := zerolog.New(&bytes.Buffer{})
	hub := websocket.NewHub(logger)
	go hub.Run()

	eng := engine.New(nil, nil, nil, logger)
	c := cache.NewSnapshotCache(5 * time.Minute)
	return NewRefresher(eng, c, hub, cfg, nil, logger), c, hub
}

func TestParamsWindow(t *testing.T) {
	r, _, _ := newTestRefresher(testConfig())

	// Wednesday Mar 5; window runs to the Monday two weeks past Mar 3.
	now := time.Date(2025, 3, 5, 14, 30, 0, 0, time.UTC)
	p := r.Params(now)

	if p.Start.Format("2006-01-02") != "2025-03-05" {
		t.Errorf("start should be today, got %s", p.Start.Format("2006-01-02"))
	}
	if p.End.Format("2006-01-02") != "2025-03-17" {
		t.Errorf("end should be Monday two weeks out, got %s", p.End.Format("2006-01-02"))
	}
	if p.HoursPerDay != 8 || p.WorkStart != 8 || p.WorkEnd != 17 {
		t.Errorf("work-day shape not carried: %+v", p)
	}
}

func TestRunOnceFillsCache(t *testing.T) {
	r, c, _ := newTestRefresher(testConfig())

	r.RunOnce(context.Background())

	snap, fresh := c.Get()
	if snap == nil || !fresh {
		t.Fatalf("expected fresh snapshot in cache, got (%v, %v)", snap, fresh)
	}
	if snap.ID == "" {
		t.Error("snapshot should carry an id")
	}
}

func TestStartStopsOnContextCancel(t *testing.T) {
	r, _, _ := newTestRefresher(testConfig())

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan bool)
	go func() {
		r.Start(ctx)
		done <- true
	}()

	// Let it run for a few ticks
	time.Sleep(120 * time.Millisecond)
	cancel()

	select {
	case <-done:
		// Refresher stopped
	case <-time.After(time.Second):
		t.Error("refresher did not stop within timeout after context cancel")
	}
}

func TestStartRefreshesOnInterval(t *testing.T) {
	r, c, _ := newTestRefresher(testConfig())

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()

	done := make(chan bool)
	go func() {
		r.Start(ctx)
		done <- true
	}()
	<-done

	first := c.Latest()
	if first == nil {
		t.Fatal("expected snapshot after refresh loop ran")
	}
}

func TestInvalidCronFallsBackToInterval(t *testing.T) {
	cfg := testConfig()
	cfg.RefreshCron = "not a cron"
	r, c, _ := newTestRefresher(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()

	done := make(chan bool)
	go func() {
		r.Start(ctx)
		done <- true
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("refresher did not stop")
	}

	if c.Latest() == nil {
		t.Error("fallback interval loop should still produce snapshots")
	}
}
