package engine

import "github.com/staffsight/backend/internal/types"

// Reconcile compares total remaining project hours against total staff
// availability. Only the totals are compared: projects are not matched to
// staff one-to-one, staffing is a fungible pool against the aggregate
// workload. The gap is available minus remaining; a negative gap means over
// capacity, and a gap of exactly 0 reads as under capacity.
func Reconcile(projects []types.ProjectSummary, staff []types.StaffSummary) types.CapacitySummary {
	var remaining, available float64
	for _, p := range projects {
		remaining += p.HoursRemaining
	}
	for _, s := range staff {
		available += s.AvailableHours
	}

	gap := available - remaining
	status := types.GapStatusUnder
	if gap < 0 {
		status = types.GapStatusOver
	}

	return types.CapacitySummary{
		TotalProjectHoursRemaining: remaining,
		TotalStaffAvailableHours:   available,
		CapacityGap:                gap,
		GapStatus:                  status,
		StaffCount:                 len(staff),
		ProjectCount:               len(projects),
	}
}
