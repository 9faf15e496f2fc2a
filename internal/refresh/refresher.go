// Package refresh drives periodic snapshot rebuilds. Each cycle builds a
// fresh snapshot over the configured window, stores it in the cache, and
// broadcasts it to connected dashboard clients.
package refresh

import (
	"context"
	"encoding/json"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/staffsight/backend/internal/cache"
	"github.com/staffsight/backend/internal/config"
	"github.com/staffsight/backend/internal/engine"
	"github.com/staffsight/backend/internal/metrics"
	"github.com/staffsight/backend/internal/websocket"
)

// Refresher rebuilds the capacity snapshot on a schedule: a fixed interval
// by default, or a cron expression when one is configured.
type Refresher struct {
	engine *engine.Engine
	cache  *cache.SnapshotCache
	hub    *websocket.Hub
	cfg    *config.Config
	names  map[string]string // display-name overrides by staff id
	logger zerolog.Logger
}

// NewRefresher creates a new Refresher
func NewRefresher(eng *engine.Engine, c *cache.SnapshotCache, hub *websocket.Hub, cfg *config.Config, names map[string]string, logger zerolog.Logger) *Refresher {
	return &Refresher{
		engine: eng,
		cache:  c,
		hub:    hub,
		cfg:    cfg,
		names:  names,
		logger: logger.With().Str("component", "refresh").Logger(),
	}
}

// Params derives the aggregation window from the configuration: today
// through WeeksAhead Mondays out, exclusive.
func (r *Refresher) Params(now time.Time) engine.Params {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	end := engine.MondayOf(start).AddDate(0, 0, 7*r.cfg.WeeksAhead)
	if !end.After(start) {
		end = start.AddDate(0, 0, 7)
	}
	return engine.Params{
		Start:       start,
		End:         end,
		HoursPerDay: r.cfg.HoursPerDay,
		WorkStart:   r.cfg.WorkDayStart,
		WorkEnd:     r.cfg.WorkDayEnd,
		Names:       r.names,
	}
}

// RunOnce builds one snapshot, caches it, and broadcasts it. It is also
// called directly by the forced-refresh API endpoint.
func (r *Refresher) RunOnce(ctx context.Context) {
	m := metrics.Get()
	cycleStart := time.Now()

	snap := r.engine.BuildSnapshot(ctx, r.Params(time.Now()))
	r.cache.Set(snap)

	m.RecordRefreshCycle(time.Since(cycleStart))
	m.UpdateSnapshotStats(snap)
	if len(snap.Errors) > 0 {
		m.RecordRefreshError()
	}

	data, err := json.Marshal(snap)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to marshal snapshot")
		m.RecordRefreshError()
		return
	}

	r.hub.Broadcast(data)
	m.RecordSnapshotBroadcast()
	r.logger.Debug().
		Str("snapshot_id", snap.ID).
		Int("clients", r.hub.ClientCount()).
		Msg("broadcasted snapshot")
}

// Start begins the refresh loop and blocks until the context is cancelled.
func (r *Refresher) Start(ctx context.Context) {
	if r.cfg.RefreshCron != "" {
		r.startCron(ctx)
		return
	}
	r.startInterval(ctx)
}

func (r *Refresher) startInterval(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.RefreshInterval)
	defer ticker.Stop()

	r.logger.Info().Dur("interval", r.cfg.RefreshInterval).Msg("refresher started")

	// First snapshot immediately so the API has data before the first tick
	r.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("refresher stopped")
			return

		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

func (r *Refresher) startCron(ctx context.Context) {
	c := cron.New()
	_, err := c.AddFunc(r.cfg.RefreshCron, func() {
		r.RunOnce(ctx)
	})
	if err != nil {
		r.logger.Error().Err(err).Str("cron", r.cfg.RefreshCron).
			Msg("invalid refresh cron, falling back to interval")
		r.startInterval(ctx)
		return
	}

	r.logger.Info().Str("cron", r.cfg.RefreshCron).Msg("refresher started")

	r.RunOnce(ctx)
	c.Start()

	<-ctx.Done()
	stopCtx := c.Stop()
	<-stopCtx.Done()
	r.logger.Info().Msg("refresher stopped")
}
