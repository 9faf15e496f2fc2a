package engine

import (
	"time"

	"github.com/staffsight/backend/internal/types"
)

// Timestamp layouts accepted from the calendar sources. Graph delivers
// fractional seconds without a zone, ICS sources deliver RFC 3339.
var eventTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.9999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseEventTime parses a calendar timestamp string, trying each accepted
// layout in order.
func parseEventTime(v string) (time.Time, bool) {
	for _, layout := range eventTimeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// CalculateBookedHours turns one staff member's raw events into a per-day
// booked-hours map clamped to the work-day window [workStart, workEnd]
// (hours of day, e.g. 8 and 17).
//
//   - Free and tentative events are excluded entirely.
//   - Events with unparseable timestamps are skipped; malformed input is
//     tolerated, never fatal.
//   - All-day events contribute exactly workEnd-workStart hours to their
//     start date regardless of actual span.
//   - Timed events contribute only the fraction overlapping the window; an
//     event entirely outside it contributes 0.
//
// Overlapping events on the same date each count in full: two simultaneous
// meetings both add their duration even though a human is only busy once.
// This double counting is a known limitation carried over from the original
// booked-hours calculation; merging overlaps would silently change
// historical totals.
func CalculateBookedHours(events []types.CalendarEvent, workStart, workEnd float64) types.StaffHours {
	daily := make(map[string]float64)

	for _, ev := range events {
		if !ev.BusyState.CountsAsBooked() {
			continue
		}

		start, ok := parseEventTime(ev.Start)
		if !ok {
			continue
		}

		if ev.IsAllDay {
			key := start.Format("2006-01-02")
			daily[key] += workEnd - workStart
			continue
		}

		end, ok := parseEventTime(ev.End)
		if !ok {
			continue
		}

		// Clamp to the work-day window using wall-clock hours.
		effStart := float64(start.Hour()) + float64(start.Minute())/60
		effEnd := float64(end.Hour()) + float64(end.Minute())/60
		if effStart < workStart {
			effStart = workStart
		}
		if effEnd > workEnd {
			effEnd = workEnd
		}
		if duration := effEnd - effStart; duration > 0 {
			key := start.Format("2006-01-02")
			daily[key] += duration
		}
	}

	var total float64
	for _, h := range daily {
		total += h
	}

	return types.StaffHours{Daily: daily, Total: total}
}

// NormalizeAll computes booked hours for every staff entry in a calendar
// fetch result. A staff member whose fetch failed keeps an empty map and
// carries the error marker forward; other staff are unaffected.
func NormalizeAll(eventsByStaff map[string]types.StaffEvents, workStart, workEnd float64) map[string]types.StaffHours {
	hours := make(map[string]types.StaffHours, len(eventsByStaff))
	for id, entry := range eventsByStaff {
		if entry.Err != "" {
			hours[id] = types.StaffHours{Daily: map[string]float64{}, Err: entry.Err}
			continue
		}
		hours[id] = CalculateBookedHours(entry.Events, workStart, workEnd)
	}
	return hours
}
