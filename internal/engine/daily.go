package engine

import (
	"sort"
	"strings"
	"time"

	"github.com/staffsight/backend/internal/types"
)

// Params carries the date range and work-day shape for one aggregation run.
// The range is half-open: Start inclusive, End exclusive.
type Params struct {
	Start       time.Time
	End         time.Time
	HoursPerDay float64
	WorkStart   float64
	WorkEnd     float64

	// Names maps staff ids to display-name overrides (e.g. from a roster
	// file). Staff without an override get DisplayName of their id.
	Names map[string]string
}

func (p Params) displayName(staffID string) string {
	if name, ok := p.Names[staffID]; ok && name != "" {
		return name
	}
	return DisplayName(staffID)
}

// DisplayName derives a stable human-readable name from a staff identity.
// It is a pure function of the identity string: the local part before "@",
// with "." and "_" replaced by spaces and each word title-cased.
// "jane.doe@x.com" becomes "Jane Doe".
func DisplayName(staffID string) string {
	local := staffID
	if at := strings.IndexByte(local, '@'); at >= 0 {
		local = local[:at]
	}
	local = strings.NewReplacer(".", " ", "_", " ").Replace(local)

	words := strings.Fields(local)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

func isWeekday(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// sortedStaffIDs returns the staff ids of a day-map in stable order so that
// output tables are deterministic across runs.
func sortedStaffIDs(hours map[string]types.StaffHours) []string {
	ids := make([]string, 0, len(hours))
	for id := range hours {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// BuildDaily expands the date range into weekdays and emits one
// DailyAvailabilityRecord per (weekday, staff) pair. Weekend dates are
// never emitted. Staff whose calendar fetch failed are skipped entirely;
// this does not block other staff. A staff member with no events still gets
// a record for every weekday, fully available.
func BuildDaily(hours map[string]types.StaffHours, p Params) []types.DailyAvailabilityRecord {
	var records []types.DailyAvailabilityRecord

	for day := p.Start; day.Before(p.End); day = day.AddDate(0, 0, 1) {
		if !isWeekday(day) {
			continue
		}
		dateKey := day.Format("2006-01-02")

		for _, staffID := range sortedStaffIDs(hours) {
			sh := hours[staffID]
			if sh.Err != "" {
				continue
			}

			booked := sh.Daily[dateKey]
			available := p.HoursPerDay - booked
			if available < 0 {
				available = 0
			}

			records = append(records, types.DailyAvailabilityRecord{
				Date:           dateKey,
				DayName:        day.Weekday().String(),
				Month:          day.Month().String(),
				StaffID:        staffID,
				StaffName:      p.displayName(staffID),
				BookedHours:    booked,
				CapacityHours:  p.HoursPerDay,
				AvailableHours: available,
				IsFree:         booked < 1.0,
			})
		}
	}

	return records
}
