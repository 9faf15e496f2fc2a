package query

import (
	"sort"

	"github.com/staffsight/backend/internal/types"
)

// Filter applies a parsed query to the daily availability table. Day name,
// month name, and the availability threshold are AND conditions; MinHours,
// when set, overrides FullDay. Results are sorted by date, then staff name.
// An empty input table yields an empty result.
func Filter(records []types.DailyAvailabilityRecord, q Query) []types.DailyAvailabilityRecord {
	matches := make([]types.DailyAvailabilityRecord, 0)

	for _, rec := range records {
		if q.DayName != "" && rec.DayName != q.DayName {
			continue
		}
		if q.MonthName != "" && rec.Month != q.MonthName {
			continue
		}
		if q.MinHours != nil {
			if rec.AvailableHours < *q.MinHours {
				continue
			}
		} else if q.FullDay && !rec.IsFree {
			continue
		}
		matches = append(matches, rec)
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Date != matches[j].Date {
			return matches[i].Date < matches[j].Date
		}
		return matches[i].StaffName < matches[j].StaffName
	})
	return matches
}

// Run parses the question and filters the table in one step.
func Run(text string, records []types.DailyAvailabilityRecord) (Query, []types.DailyAvailabilityRecord) {
	q := Parse(text)
	return q, Filter(records, q)
}
