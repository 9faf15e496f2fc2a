package engine

import (
	"time"

	"github.com/staffsight/backend/internal/types"
)

// weekLabelLayout formats a week's Monday for display, e.g. "Jan 06".
const weekLabelLayout = "Jan 02"

// MondayOf rolls a date back to the Monday of its week.
func MondayOf(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	return t.AddDate(0, 0, -offset)
}

// weekStarts returns the Mondays of every week overlapping [start, end).
func weekStarts(start, end time.Time) []time.Time {
	var mondays []time.Time
	for m := MondayOf(start); m.Before(end); m = m.AddDate(0, 0, 7) {
		mondays = append(mondays, m)
	}
	return mondays
}

// weekdaysInRange counts the Mon-Fri days of the week starting at monday
// that fall inside [start, end). A week at the range boundary may have
// fewer than 5 in-range workdays.
func weekdaysInRange(monday, start, end time.Time) int {
	count := 0
	for i := 0; i < 5; i++ {
		day := monday.AddDate(0, 0, i)
		if !day.Before(start) && day.Before(end) {
			count++
		}
	}
	return count
}

// BuildWeekly buckets per-staff booked hours into Monday-anchored weeks.
// Capacity for a week reflects only its in-range workdays; booked hours sum
// the staff member's day map over the full Mon-Fri, with absent days
// reading as 0. Staff with zero events still get a row per week: absence of
// events is not absence of a row. Staff whose fetch failed are skipped.
func BuildWeekly(hours map[string]types.StaffHours, p Params) []types.WeeklyRecord {
	var records []types.WeeklyRecord

	for _, monday := range weekStarts(p.Start, p.End) {
		capacity := float64(weekdaysInRange(monday, p.Start, p.End)) * p.HoursPerDay

		for _, staffID := range sortedStaffIDs(hours) {
			sh := hours[staffID]
			if sh.Err != "" {
				continue
			}

			var booked float64
			for i := 0; i < 5; i++ {
				booked += sh.Daily[monday.AddDate(0, 0, i).Format("2006-01-02")]
			}

			available := capacity - booked
			if available < 0 {
				available = 0
			}

			utilization := 0.0
			if capacity > 0 {
				utilization = booked / capacity * 100
			}

			records = append(records, types.WeeklyRecord{
				WeekStart:      monday.Format("2006-01-02"),
				WeekLabel:      monday.Format(weekLabelLayout),
				StaffID:        staffID,
				StaffName:      p.displayName(staffID),
				BookedHours:    booked,
				CapacityHours:  capacity,
				AvailableHours: available,
				UtilizationPct: utilization,
			})
		}
	}

	return records
}
