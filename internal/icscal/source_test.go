package icscal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/staffsight/backend/internal/types"
)

const simpleFeed = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//test//EN
BEGIN:VEVENT
UID:ev-1
DTSTART:20250303T140000Z
DTEND:20250303T150000Z
SUMMARY:Client call
END:VEVENT
BEGIN:VEVENT
UID:ev-2
DTSTART:20250304T090000Z
DTEND:20250304T100000Z
SUMMARY:Focus block
TRANSP:TRANSPARENT
END:VEVENT
BEGIN:VEVENT
UID:ev-3
DTSTART:20250304T130000Z
DTEND:20250304T140000Z
SUMMARY:Maybe lunch
STATUS:TENTATIVE
END:VEVENT
BEGIN:VEVENT
UID:ev-4
DTSTART;VALUE=DATE:20250305
DTEND;VALUE=DATE:20250306
SUMMARY:Offsite
END:VEVENT
END:VCALENDAR
`

const recurringFeed = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//test//EN
BEGIN:VEVENT
UID:rec-1
DTSTART:20250303T100000Z
DTEND:20250303T103000Z
SUMMARY:Standup
RRULE:FREQ=DAILY;COUNT=10
EXDATE:20250305T100000Z
END:VEVENT
END:VCALENDAR
`

func window() (time.Time, time.Time) {
	start := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 5)
}

func TestParseFeedStatesAndAllDay(t *testing.T) {
	start, end := window()
	events, err := parseFeed([]byte(simpleFeed), start, end)
	if err != nil {
		t.Fatalf("parseFeed: %v", err)
	}
	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(events))
	}

	bySubject := make(map[string]types.CalendarEvent, len(events))
	for _, ev := range events {
		bySubject[ev.Subject] = ev
	}

	if ev := bySubject["Client call"]; ev.BusyState != types.StateBusy || ev.IsAllDay {
		t.Errorf("unexpected busy event: %+v", ev)
	}
	if ev := bySubject["Focus block"]; ev.BusyState != types.StateFree {
		t.Errorf("transparent event should be free, got %q", ev.BusyState)
	}
	if ev := bySubject["Maybe lunch"]; ev.BusyState != types.StateTentative {
		t.Errorf("tentative status should map to tentative, got %q", ev.BusyState)
	}
	ev := bySubject["Offsite"]
	if !ev.IsAllDay {
		t.Error("date-only DTSTART should be all-day")
	}
	if ev.Start != "2025-03-05" {
		t.Errorf("all-day start should be a bare date, got %q", ev.Start)
	}
}

func TestParseFeedExpandsRecurrence(t *testing.T) {
	start, end := window()
	events, err := parseFeed([]byte(recurringFeed), start, end)
	if err != nil {
		t.Fatalf("parseFeed: %v", err)
	}

	// Daily on Mar 3..7 within the window, minus the Mar 5 EXDATE.
	if len(events) != 4 {
		t.Fatalf("expected 4 occurrences, got %d", len(events))
	}
	for _, ev := range events {
		if ev.Subject != "Standup" || ev.BusyState != types.StateBusy {
			t.Errorf("unexpected occurrence: %+v", ev)
		}
		if strings.HasPrefix(ev.Start, "2025-03-05") {
			t.Errorf("excluded date should not appear: %+v", ev)
		}
	}
	if events[0].Start != "2025-03-03T10:00:00Z" {
		t.Errorf("unexpected first occurrence start: %q", events[0].Start)
	}
}

func TestParseFeedOutsideRange(t *testing.T) {
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	events, err := parseFeed([]byte(simpleFeed), start, start.AddDate(0, 0, 5))
	if err != nil {
		t.Fatalf("parseFeed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected no events outside the window, got %d", len(events))
	}
}

func TestFetchEventsIsolatesFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/alice.ics" {
			w.Write([]byte(simpleFeed))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	src := New(map[string]string{
		"alice@example.com": server.URL + "/alice.ics",
		"bob@example.com":   server.URL + "/missing.ics",
	}, zerolog.Nop())

	start, end := window()
	results, err := src.FetchEvents(context.Background(),
		[]string{"alice@example.com", "bob@example.com", "carol@example.com"}, start, end)
	if err != nil {
		t.Fatalf("FetchEvents: %v", err)
	}

	if entry := results["alice@example.com"]; entry.Err != "" || len(entry.Events) != 4 {
		t.Errorf("unexpected healthy entry: %+v", entry)
	}
	if results["bob@example.com"].Err == "" {
		t.Error("expected error for missing feed")
	}
	if results["carol@example.com"].Err == "" {
		t.Error("expected error for unconfigured staff")
	}
}
