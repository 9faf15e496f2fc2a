package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/staffsight/backend/internal/metrics"
	"github.com/staffsight/backend/internal/source"
	"github.com/staffsight/backend/internal/types"
)

// Engine computes capacity snapshots from a budget source and a calendar
// source. Either source may be nil (not configured); its portion of the
// snapshot is then empty. All aggregation is pure and in-memory; the
// snapshot carries no state across invocations.
type Engine struct {
	budget   source.BudgetSource
	calendar source.CalendarSource
	staffIDs []string
	logger   zerolog.Logger
}

// New creates an Engine over the given sources and staff roster.
func New(budget source.BudgetSource, calendar source.CalendarSource, staffIDs []string, logger zerolog.Logger) *Engine {
	return &Engine{
		budget:   budget,
		calendar: calendar,
		staffIDs: staffIDs,
		logger:   logger.With().Str("component", "engine").Logger(),
	}
}

// BuildSnapshot fetches both sources and assembles the full capacity view
// for the given parameters. The sources are fetched concurrently and each
// degrades independently: a failed source contributes empty tables and an
// advisory message instead of aborting the snapshot. BuildSnapshot never
// returns an error; every problem is either absorbed with a default or
// surfaced in Snapshot.Errors.
func (e *Engine) BuildSnapshot(ctx context.Context, p Params) *types.Snapshot {
	buildStart := time.Now()

	snap := &types.Snapshot{
		ID:          uuid.New().String(),
		GeneratedAt: time.Now().UTC(),
		RangeStart:  p.Start.Format("2006-01-02"),
		RangeEnd:    p.End.Format("2006-01-02"),
		HoursPerDay: p.HoursPerDay,
		Projects:    []types.ProjectSummary{},
		Hours:       map[string]types.StaffHours{},
		Errors:      []string{},
	}

	var (
		wg       sync.WaitGroup
		projects []types.ProjectSummary
		projErr  error
		events   map[string]types.StaffEvents
		calErr   error
	)

	if e.budget != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			projects, projErr = e.budget.FetchProjects(ctx)
		}()
	}
	if e.calendar != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			events, calErr = e.calendar.FetchEvents(ctx, e.staffIDs, p.Start, p.End)
		}()
	}
	wg.Wait()

	m := metrics.Get()

	if projErr != nil {
		e.logger.Error().Err(projErr).Msg("budget source unavailable")
		snap.Errors = append(snap.Errors, fmt.Sprintf("budget source: %v", projErr))
		m.RecordBudgetFetchError()
	} else if projects != nil {
		snap.Projects = projects
	}

	if calErr != nil {
		e.logger.Error().Err(calErr).Msg("calendar source unavailable")
		snap.Errors = append(snap.Errors, fmt.Sprintf("calendar source: %v", calErr))
		m.RecordCalendarFetchError()
	} else if events != nil {
		snap.Hours = NormalizeAll(events, p.WorkStart, p.WorkEnd)
	}

	for _, id := range sortedStaffIDs(snap.Hours) {
		if errMsg := snap.Hours[id].Err; errMsg != "" {
			snap.Errors = append(snap.Errors, fmt.Sprintf("calendar for %s: %s", id, errMsg))
			m.RecordStaffFetchError()
		}
	}

	snap.Daily = BuildDaily(snap.Hours, p)
	snap.Weekly = BuildWeekly(snap.Hours, p)
	snap.Team = SummarizeTeam(snap.Weekly)
	snap.Staff = SummarizeStaff(snap.Weekly)
	snap.Pivot = BuildPivot(snap.Weekly)

	if len(snap.Projects) > 0 && len(snap.Staff) > 0 {
		capacity := Reconcile(snap.Projects, snap.Staff)
		snap.Capacity = &capacity
	}

	e.logger.Info().
		Str("snapshot_id", snap.ID).
		Int("projects", len(snap.Projects)).
		Int("staff", len(snap.Staff)).
		Int("daily_records", len(snap.Daily)).
		Int("errors", len(snap.Errors)).
		Dur("duration", time.Since(buildStart)).
		Msg("snapshot built")

	return snap
}
