package types

// BusyState is the categorical status of a calendar event. It controls
// whether the event counts toward booked hours.
type BusyState string

const (
	StateBusy             BusyState = "busy"
	StateTentative        BusyState = "tentative"
	StateFree             BusyState = "free"
	StateOutOfOffice      BusyState = "out_of_office"
	StateWorkingElsewhere BusyState = "working_elsewhere"
)

// CountsAsBooked reports whether events in this state consume work time.
// Free and tentative events never do.
func (s BusyState) CountsAsBooked() bool {
	return s != StateFree && s != StateTentative
}

// CalendarEvent is one raw event as delivered by a calendar source, scoped
// to a single staff identity. Start and End are kept as the source's
// timestamp strings; they are parsed exactly once at the normalization
// boundary so malformed values can be tolerated there instead of being
// re-checked by every consumer.
type CalendarEvent struct {
	Subject    string    `json:"subject"`
	Start      string    `json:"start"`
	End        string    `json:"end"`
	IsAllDay   bool      `json:"isAllDay"`
	BusyState  BusyState `json:"busyState"`
	Categories []string  `json:"categories,omitempty"`
}

// StaffEvents is one staff member's slice of the calendar fetch. A fetch
// failure for one staff member is recorded here and must not affect any
// other staff member's entry.
type StaffEvents struct {
	Events []CalendarEvent `json:"events"`
	Err    string          `json:"error,omitempty"`
}

// StaffHours is the Event Normalizer output for one staff member: booked
// hours per calendar day plus the range total. Daily keys are dates in
// YYYY-MM-DD form; dates with no events are simply absent and read as 0.
type StaffHours struct {
	Daily map[string]float64 `json:"dailyHours"`
	Total float64            `json:"totalHours"`
	Err   string             `json:"error,omitempty"`
}
