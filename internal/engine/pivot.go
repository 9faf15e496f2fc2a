package engine

import (
	"sort"

	"github.com/staffsight/backend/internal/types"
)

// BuildPivot reshapes weekly records into a staff x week utilization matrix
// for matrix-style presentation. Week columns follow the chronological
// order of the week starts, never the lexical order of their labels ("Dec
// 30" must come before "Jan 06"). Missing (staff, week) combinations stay
// in the matrix as nil so it remains rectangular.
func BuildPivot(weekly []types.WeeklyRecord) types.Pivot {
	sorted := make([]types.WeeklyRecord, len(weekly))
	copy(sorted, weekly)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].WeekStart != sorted[j].WeekStart {
			return sorted[i].WeekStart < sorted[j].WeekStart
		}
		return sorted[i].StaffName < sorted[j].StaffName
	})

	// Distinct labels and names in first-seen order over the sorted data.
	weekIndex := make(map[string]int)
	staffIndex := make(map[string]int)
	var weekLabels, staffNames []string
	for _, rec := range sorted {
		if _, ok := weekIndex[rec.WeekStart]; !ok {
			weekIndex[rec.WeekStart] = len(weekLabels)
			weekLabels = append(weekLabels, rec.WeekLabel)
		}
		if _, ok := staffIndex[rec.StaffID]; !ok {
			staffIndex[rec.StaffID] = len(staffNames)
			staffNames = append(staffNames, rec.StaffName)
		}
	}

	z := make([][]*float64, len(staffNames))
	for i := range z {
		z[i] = make([]*float64, len(weekLabels))
	}
	for _, rec := range sorted {
		util := rec.UtilizationPct
		z[staffIndex[rec.StaffID]][weekIndex[rec.WeekStart]] = &util
	}

	return types.Pivot{StaffNames: staffNames, WeekLabels: weekLabels, Z: z}
}
