package engine

import (
	"testing"
	"time"

	"github.com/staffsight/backend/internal/types"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testParams(start, end time.Time) Params {
	return Params{
		Start:       start,
		End:         end,
		HoursPerDay: 8,
		WorkStart:   8,
		WorkEnd:     17,
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"jane.doe@x.com", "Jane Doe"},
		{"john_smith@example.org", "John Smith"},
		{"ADA.LOVELACE@x.com", "Ada Lovelace"},
		{"solo@x.com", "Solo"},
		{"noatsign", "Noatsign"},
	}

	for _, tt := range tests {
		if got := DisplayName(tt.id); got != tt.want {
			t.Errorf("DisplayName(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestBuildDailySkipsWeekends(t *testing.T) {
	// Mon 2025-03-03 through Sun 2025-03-09: five weekdays.
	p := testParams(date(2025, time.March, 3), date(2025, time.March, 10))
	hours := map[string]types.StaffHours{
		"jane.doe@x.com": {Daily: map[string]float64{}},
	}

	records := BuildDaily(hours, p)

	if len(records) != 5 {
		t.Fatalf("expected 5 weekday records, got %d", len(records))
	}
	for _, rec := range records {
		if rec.DayName == "Saturday" || rec.DayName == "Sunday" {
			t.Errorf("weekend record emitted for %s", rec.Date)
		}
	}
}

func TestBuildDailyAvailability(t *testing.T) {
	p := testParams(date(2025, time.March, 3), date(2025, time.March, 5))
	hours := map[string]types.StaffHours{
		"jane.doe@x.com": {Daily: map[string]float64{
			"2025-03-03": 2.0,
			"2025-03-04": 10.0, // over-booked
		}},
	}

	records := BuildDaily(hours, p)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	monday := records[0]
	if monday.Date != "2025-03-03" || monday.DayName != "Monday" || monday.Month != "March" {
		t.Errorf("unexpected date fields: %+v", monday)
	}
	if monday.StaffName != "Jane Doe" {
		t.Errorf("expected derived name Jane Doe, got %s", monday.StaffName)
	}
	if monday.AvailableHours != 6.0 || monday.IsFree {
		t.Errorf("expected 6 available and not free, got %+v", monday)
	}

	tuesday := records[1]
	if tuesday.AvailableHours != 0 {
		t.Errorf("over-booked day must clamp available to 0, got %v", tuesday.AvailableHours)
	}
	if tuesday.BookedHours != 10.0 {
		t.Errorf("booked hours must not be clamped, got %v", tuesday.BookedHours)
	}
}

func TestBuildDailyZeroEventsStaffIsFullyFree(t *testing.T) {
	p := testParams(date(2025, time.March, 3), date(2025, time.March, 8))
	hours := map[string]types.StaffHours{
		"idle@x.com": {Daily: map[string]float64{}},
	}

	for _, rec := range BuildDaily(hours, p) {
		if rec.AvailableHours != rec.CapacityHours {
			t.Errorf("%s: expected fully available, got %v of %v", rec.Date, rec.AvailableHours, rec.CapacityHours)
		}
		if !rec.IsFree {
			t.Errorf("%s: expected free day", rec.Date)
		}
	}
}

func TestBuildDailySkipsFailedStaff(t *testing.T) {
	p := testParams(date(2025, time.March, 3), date(2025, time.March, 5))
	hours := map[string]types.StaffHours{
		"jane.doe@x.com":   {Daily: map[string]float64{}},
		"broken@x.com":     {Daily: map[string]float64{}, Err: "fetch failed"},
		"john.smith@x.com": {Daily: map[string]float64{}},
	}

	records := BuildDaily(hours, p)

	// 2 weekdays x 2 healthy staff
	if len(records) != 4 {
		t.Fatalf("expected 4 records, got %d", len(records))
	}
	for _, rec := range records {
		if rec.StaffID == "broken@x.com" {
			t.Error("failed staff must be excluded from the daily table")
		}
	}
}

func TestBuildDailyNameOverride(t *testing.T) {
	p := testParams(date(2025, time.March, 3), date(2025, time.March, 4))
	p.Names = map[string]string{"jane.doe@x.com": "Janey"}
	hours := map[string]types.StaffHours{
		"jane.doe@x.com": {Daily: map[string]float64{}},
	}

	records := BuildDaily(hours, p)
	if records[0].StaffName != "Janey" {
		t.Errorf("expected roster override, got %s", records[0].StaffName)
	}
}
