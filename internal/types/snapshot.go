package types

import "time"

// Snapshot is the full capacity view computed from both sources for one
// date range. It is rebuilt from scratch on every refresh; nothing in it
// persists across requests. Errors carries advisory per-source and
// per-staff problems that degraded portions of the snapshot without
// aborting it.
type Snapshot struct {
	ID          string    `json:"id"`
	GeneratedAt time.Time `json:"generatedAt"`
	RangeStart  string    `json:"rangeStart"` // YYYY-MM-DD
	RangeEnd    string    `json:"rangeEnd"`   // exclusive
	HoursPerDay float64   `json:"hoursPerDay"`

	Projects []ProjectSummary          `json:"projects"`
	Hours    map[string]StaffHours     `json:"hoursByStaff"`
	Daily    []DailyAvailabilityRecord `json:"daily"`
	Weekly   []WeeklyRecord            `json:"weekly"`
	Team     []TeamWeeklySummary       `json:"team"`
	Staff    []StaffSummary            `json:"staff"`
	Pivot    Pivot                     `json:"pivot"`
	Capacity *CapacitySummary          `json:"capacity,omitempty"`

	Errors []string `json:"errors"`
}
