// Package icscal is a calendar source backed by per-staff ICS feed URLs,
// for deployments without a Microsoft Graph app registration. Recurring
// events are expanded within the requested window.
package icscal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/rs/zerolog"
	"github.com/teambition/rrule-go"

	"github.com/staffsight/backend/internal/types"
)

const maxOccurrencesPerEvent = 1000

// Source fetches and parses one ICS feed per staff member.
type Source struct {
	feeds      map[string]string // staff id -> feed URL
	httpClient *http.Client
	logger     zerolog.Logger
}

// New creates an ICS source from a staff id to feed URL mapping.
func New(feeds map[string]string, logger zerolog.Logger) *Source {
	return &Source{
		feeds: feeds,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger.With().Str("component", "icscal").Logger(),
	}
}

// FetchEvents implements source.CalendarSource. Feeds are fetched
// concurrently; a staff id without a configured feed, or with a failing
// feed, gets an Err entry and does not affect the others.
func (s *Source) FetchEvents(ctx context.Context, staffIDs []string, start, end time.Time) (map[string]types.StaffEvents, error) {
	results := make(map[string]types.StaffEvents, len(staffIDs))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, id := range staffIDs {
		wg.Add(1)
		go func(staffID string) {
			defer wg.Done()
			entry := s.fetchStaff(ctx, staffID, start, end)
			mu.Lock()
			results[staffID] = entry
			mu.Unlock()
		}(id)
	}
	wg.Wait()

	return results, nil
}

func (s *Source) fetchStaff(ctx context.Context, staffID string, start, end time.Time) types.StaffEvents {
	feedURL, ok := s.feeds[staffID]
	if !ok || feedURL == "" {
		return types.StaffEvents{Err: "no ICS feed configured"}
	}

	body, err := s.fetch(ctx, feedURL)
	if err != nil {
		s.logger.Warn().Err(err).Str("staff", staffID).Msg("feed fetch failed")
		return types.StaffEvents{Err: err.Error()}
	}

	events, err := parseFeed(body, start, end)
	if err != nil {
		s.logger.Warn().Err(err).Str("staff", staffID).Msg("feed parse failed")
		return types.StaffEvents{Err: err.Error()}
	}
	return types.StaffEvents{Events: events}
}

func (s *Source) fetch(ctx context.Context, feedURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed fetch: %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// parseFeed turns an ICS payload into calendar events intersecting
// [start, end). Individual malformed VEVENTs are skipped.
func parseFeed(body []byte, start, end time.Time) ([]types.CalendarEvent, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}
	cal, err := ical.ParseCalendar(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("parse calendar: %w", err)
	}

	var events []types.CalendarEvent
	for _, ve := range cal.Events() {
		events = append(events, expandVEvent(ve, start, end)...)
	}
	return events, nil
}

func expandVEvent(ve *ical.VEvent, rangeStart, rangeEnd time.Time) []types.CalendarEvent {
	evStart, err := ve.GetStartAt()
	if err != nil {
		return nil
	}
	evEnd, err := ve.GetEndAt()
	if err != nil || !evEnd.After(evStart) {
		evEnd = evStart.Add(time.Hour)
	}
	duration := evEnd.Sub(evStart)

	var subject string
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		subject = p.Value
	}
	allDay := isAllDay(ve)
	state := busyState(ve)

	rawRRule := ""
	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		rawRRule = p.Value
	}

	if rawRRule == "" {
		if evEnd.Before(rangeStart) || evStart.After(rangeEnd) {
			return nil
		}
		return []types.CalendarEvent{makeEvent(subject, evStart, evEnd, allDay, state)}
	}

	rule, err := rrule.StrToRRule(rawRRule)
	if err != nil {
		return nil
	}
	rule.DTStart(evStart)

	var set rrule.Set
	set.RRule(rule)
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			if ex, perr := parseExDate(strings.TrimSpace(part), evStart.Location()); perr == nil {
				set.ExDate(ex)
			}
		}
	}

	starts := set.Between(rangeStart.In(evStart.Location()), rangeEnd.In(evStart.Location()), true)
	if len(starts) > maxOccurrencesPerEvent {
		starts = starts[:maxOccurrencesPerEvent]
	}

	out := make([]types.CalendarEvent, 0, len(starts))
	for _, occStart := range starts {
		out = append(out, makeEvent(subject, occStart, occStart.Add(duration), allDay, state))
	}
	return out
}

func makeEvent(subject string, start, end time.Time, allDay bool, state types.BusyState) types.CalendarEvent {
	layout := time.RFC3339
	if allDay {
		layout = "2006-01-02"
	}
	return types.CalendarEvent{
		Subject:   subject,
		Start:     start.Format(layout),
		End:       end.Format(layout),
		IsAllDay:  allDay,
		BusyState: state,
	}
}

// parseExDate handles the UTC, local date-time, and date-only EXDATE forms.
func parseExDate(v string, loc *time.Location) (time.Time, error) {
	switch {
	case v == "":
		return time.Time{}, errors.New("empty EXDATE value")
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, loc)
	default:
		return time.ParseInLocation("20060102", v, loc)
	}
}

// isAllDay checks DTSTART for VALUE=DATE or a date-only value.
func isAllDay(ve *ical.VEvent) bool {
	p := ve.GetProperty(ical.ComponentPropertyDtStart)
	if p == nil {
		return false
	}
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

// busyState maps TRANSP and STATUS onto a busy state. TRANSP:TRANSPARENT
// means the event does not block time; STATUS:TENTATIVE is unconfirmed.
// Everything else blocks.
func busyState(ve *ical.VEvent) types.BusyState {
	if p := ve.GetProperty(ical.ComponentProperty(ical.PropertyTransp)); p != nil &&
		strings.EqualFold(p.Value, "TRANSPARENT") {
		return types.StateFree
	}
	if p := ve.GetProperty(ical.ComponentProperty(ical.PropertyStatus)); p != nil &&
		strings.EqualFold(p.Value, "TENTATIVE") {
		return types.StateTentative
	}
	return types.StateBusy
}
