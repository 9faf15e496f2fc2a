package types

// DailyAvailabilityRecord is one (weekday, staff) cell of the daily
// availability table. Records exist only for Monday-Friday dates inside the
// requested range. AvailableHours is clamped at 0; over-booking is never
// represented as negative availability.
type DailyAvailabilityRecord struct {
	Date           string  `json:"date"` // YYYY-MM-DD
	DayName        string  `json:"dayName"`
	Month          string  `json:"month"`
	StaffID        string  `json:"staffId"`
	StaffName      string  `json:"staffName"`
	BookedHours    float64 `json:"bookedHours"`
	CapacityHours  float64 `json:"capacityHours"`
	AvailableHours float64 `json:"availableHours"`
	IsFree         bool    `json:"isFree"` // booked < 1.0
}

// WeeklyRecord is one (staff, week) row. Weeks are anchored on Mondays and
// capacity reflects only the workdays of the week that fall inside the
// requested range. UtilizationPct is unbounded above 100.
type WeeklyRecord struct {
	WeekStart      string  `json:"weekStart"` // Monday, YYYY-MM-DD
	WeekLabel      string  `json:"weekLabel"`
	StaffID        string  `json:"staffId"`
	StaffName      string  `json:"staffName"`
	BookedHours    float64 `json:"bookedHours"`
	CapacityHours  float64 `json:"capacityHours"`
	AvailableHours float64 `json:"availableHours"`
	UtilizationPct float64 `json:"utilizationPct"`
}

// TeamWeeklySummary rolls WeeklyRecords for one week up across all staff.
// AvgUtilizationPct is the arithmetic mean of the per-staff utilization
// values, not booked/capacity recomputed from the sums; the two differ when
// staff have unequal capacities and the mean is the contract.
type TeamWeeklySummary struct {
	WeekStart         string  `json:"weekStart"`
	WeekLabel         string  `json:"weekLabel"`
	BookedHours       float64 `json:"bookedHours"`
	CapacityHours     float64 `json:"capacityHours"`
	AvailableHours    float64 `json:"availableHours"`
	StaffCount        int     `json:"staffCount"`
	AvgUtilizationPct float64 `json:"avgUtilizationPct"`
}

// StaffSummary rolls WeeklyRecords for one staff member up across the whole
// period. Unlike the team summary, UtilizationPct here is the ratio of the
// summed hours. The two conventions are intentionally different.
type StaffSummary struct {
	StaffID        string  `json:"staffId"`
	StaffName      string  `json:"staffName"`
	BookedHours    float64 `json:"bookedHours"`
	CapacityHours  float64 `json:"capacityHours"`
	AvailableHours float64 `json:"availableHours"`
	WeekCount      int     `json:"weekCount"`
	UtilizationPct float64 `json:"utilizationPct"`
}

// Pivot is the staff x week utilization matrix for matrix-style
// presentation. WeekLabels are in chronological order. Utilization is
// rectangular: len(StaffNames) rows by len(WeekLabels) columns, with nil
// marking a (staff, week) combination that has no record.
type Pivot struct {
	StaffNames []string     `json:"staffNames"`
	WeekLabels []string     `json:"weekLabels"`
	Z          [][]*float64 `json:"z"`
}

// CapacitySummary compares total remaining project work against total staff
// availability. Staffing is treated as a fungible pool; there is no
// project-by-project assignment.
type CapacitySummary struct {
	TotalProjectHoursRemaining float64 `json:"totalProjectHoursRemaining"`
	TotalStaffAvailableHours   float64 `json:"totalStaffAvailableHours"`
	CapacityGap                float64 `json:"capacityGap"`
	GapStatus                  string  `json:"gapStatus"`
	StaffCount                 int     `json:"staffCount"`
	ProjectCount               int     `json:"projectCount"`
}

const (
	GapStatusOver  = "Over capacity"
	GapStatusUnder = "Under capacity"
)
