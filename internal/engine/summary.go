package engine

import (
	"sort"

	"github.com/staffsight/backend/internal/types"
)

// SummarizeTeam rolls weekly records up into one row per week across all
// staff. Hours are summed; AvgUtilizationPct is the arithmetic mean of the
// per-staff utilization values for the week. It is deliberately NOT the
// ratio of the summed hours: with unequal per-staff capacities the two
// disagree, and the mean is the documented contract. Output is sorted
// chronologically by week start.
func SummarizeTeam(weekly []types.WeeklyRecord) []types.TeamWeeklySummary {
	byWeek := make(map[string]*types.TeamWeeklySummary)
	utilSums := make(map[string]float64)

	for _, rec := range weekly {
		s, ok := byWeek[rec.WeekStart]
		if !ok {
			s = &types.TeamWeeklySummary{WeekStart: rec.WeekStart, WeekLabel: rec.WeekLabel}
			byWeek[rec.WeekStart] = s
		}
		s.BookedHours += rec.BookedHours
		s.CapacityHours += rec.CapacityHours
		s.AvailableHours += rec.AvailableHours
		s.StaffCount++
		utilSums[rec.WeekStart] += rec.UtilizationPct
	}

	summaries := make([]types.TeamWeeklySummary, 0, len(byWeek))
	for week, s := range byWeek {
		if s.StaffCount > 0 {
			s.AvgUtilizationPct = utilSums[week] / float64(s.StaffCount)
		}
		summaries = append(summaries, *s)
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].WeekStart < summaries[j].WeekStart
	})
	return summaries
}

// SummarizeStaff rolls weekly records up into one row per staff member
// across the whole period. Here utilization IS the ratio of the summed
// hours (total booked / total capacity), the opposite convention from the
// team summary; consumers depend on both conventions, so they must not be
// unified. Output is sorted by descending utilization.
func SummarizeStaff(weekly []types.WeeklyRecord) []types.StaffSummary {
	byStaff := make(map[string]*types.StaffSummary)

	for _, rec := range weekly {
		s, ok := byStaff[rec.StaffID]
		if !ok {
			s = &types.StaffSummary{StaffID: rec.StaffID, StaffName: rec.StaffName}
			byStaff[rec.StaffID] = s
		}
		s.BookedHours += rec.BookedHours
		s.CapacityHours += rec.CapacityHours
		s.AvailableHours += rec.AvailableHours
		s.WeekCount++
	}

	summaries := make([]types.StaffSummary, 0, len(byStaff))
	for _, s := range byStaff {
		if s.CapacityHours > 0 {
			s.UtilizationPct = s.BookedHours / s.CapacityHours * 100
		}
		summaries = append(summaries, *s)
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].UtilizationPct != summaries[j].UtilizationPct {
			return summaries[i].UtilizationPct > summaries[j].UtilizationPct
		}
		return summaries[i].StaffName < summaries[j].StaffName
	})
	return summaries
}
